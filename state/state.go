// Package state converts the routing tree to and from its persisted form, a
// YAML document with a root holding track records, each holding clip
// records:
//
//	tracks:
//	  - name: Drums
//	    index: 0
//	    clips:
//	      - path: kick.raw
//	        start: 0
//	        name: Kick
//
// Groups are persisted as track records with group: true and their children
// nested under children. Plugin chains are not persisted.
//
// Loading is lenient: a record with a missing or ill-typed attribute gets a
// default value and a warning matching nestrack.ErrMalformedPersistedRecord.
// Only a document that is not YAML at all fails.
// JSON documents are accepted as well.
package state

import (
	"github.com/cockroachdb/errors"
	"github.com/nestrack/nestrack"
	"gopkg.in/yaml.v3"
)

type (
	// Document is the result of decoding a persisted state.
	Document struct {
		Tracks []*nestrack.Node
		// Warnings lists the malformed records that were replaced by
		// defaults, and the clips whose buffers could not be loaded.
		Warnings []error
	}

	file struct {
		Tracks []record `yaml:"tracks"`
	}

	record struct {
		Name     string       `yaml:"name"`
		Index    int          `yaml:"index"`
		Group    bool         `yaml:"group,omitempty"`
		Gain     float64      `yaml:"gain"`
		Pan      float64      `yaml:"pan,omitempty"`
		Solo     bool         `yaml:"solo,omitempty"`
		Mute     bool         `yaml:"mute,omitempty"`
		Clips    []clipRecord `yaml:"clips,omitempty"`
		Children []record     `yaml:"children,omitempty"`
	}

	clipRecord struct {
		Path   string `yaml:"path"`
		Start  int64  `yaml:"start"`
		Name   string `yaml:"name"`
		End    int64  `yaml:"end,omitempty"`
		Loop   bool   `yaml:"loop,omitempty"`
		Active bool   `yaml:"active"`
	}
)

// Marshal encodes the top-level list and everything below it, except plugin
// chains.
func Marshal(tracks []*nestrack.Node) ([]byte, error) {
	f := file{Tracks: make([]record, len(tracks))}
	for i, n := range tracks {
		f.Tracks[i] = makeRecord(n, i)
	}
	out, err := yaml.Marshal(f)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling state")
	}
	return out, nil
}

func makeRecord(n *nestrack.Node, index int) record {
	r := record{
		Name:  n.Name,
		Index: index,
		Group: !n.IsTrack,
		Gain:  n.Gain,
		Pan:   n.Pan,
		Solo:  n.Solo,
		Mute:  n.Mute,
	}
	for _, c := range n.Clips {
		r.Clips = append(r.Clips, clipRecord{Path: c.Path, Start: c.Start, Name: c.Name, End: c.End, Loop: c.Loop, Active: c.Active})
	}
	for i, c := range n.Children {
		r.Children = append(r.Children, makeRecord(c, i))
	}
	return r
}

// Load decodes data like Unmarshal and then loads the buffer of every clip
// with decoder. Clips that fail to load keep an empty buffer and add a
// warning. A nil decoder skips loading.
func Load(data []byte, decoder nestrack.Decoder) (Document, error) {
	doc, err := Unmarshal(data)
	if err != nil || decoder == nil {
		return doc, err
	}
	for _, t := range doc.Tracks {
		t.Walk(func(n *nestrack.Node) bool {
			for i := range n.Clips {
				if err := n.Clips[i].Reload(decoder); err != nil {
					doc.Warnings = append(doc.Warnings, err)
				}
			}
			return true
		})
	}
	return doc, nil
}

// Err combines all warnings into one error, or returns nil if there were
// none.
func (d Document) Err() error {
	var ret error
	for _, w := range d.Warnings {
		ret = errors.CombineErrors(ret, w)
	}
	return ret
}
