package state

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/nestrack/nestrack"
	"gopkg.in/yaml.v3"
)

// Unmarshal decodes a persisted state. Track and clip records are restored in
// document order; the index attribute is informational only. Malformed
// records never abort the load, see the package documentation.
func Unmarshal(data []byte) (Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return Document{}, errors.Wrap(err, "parsing state")
	}
	var d decoder
	if root.Kind == 0 || len(root.Content) == 0 {
		return Document{}, nil // empty document
	}
	doc := resolve(root.Content[0])
	if doc.Kind != yaml.MappingNode {
		return Document{}, errors.Wrapf(nestrack.ErrMalformedPersistedRecord, "line %d: document root is not a mapping", doc.Line)
	}
	tracks, ok := attributes(doc)["tracks"]
	if !ok {
		return Document{}, nil
	}
	if tracks.Kind != yaml.SequenceNode {
		if tracks.Kind != yaml.ScalarNode || tracks.Tag != "!!null" {
			d.warnf(tracks, "tracks is not a list")
		}
		return Document{Warnings: d.warnings}, nil
	}
	ret := Document{Tracks: make([]*nestrack.Node, 0, len(tracks.Content))}
	for i, item := range tracks.Content {
		ret.Tracks = append(ret.Tracks, d.node(item, nestrack.Route{i}))
	}
	ret.Warnings = d.warnings
	return ret, nil
}

type decoder struct {
	warnings []error
}

func (d *decoder) warnf(n *yaml.Node, format string, args ...any) {
	err := errors.Wrapf(nestrack.ErrMalformedPersistedRecord, "line %d: %s", n.Line, fmt.Sprintf(format, args...))
	d.warnings = append(d.warnings, err)
}

func (d *decoder) node(n *yaml.Node, route nestrack.Route) *nestrack.Node {
	n = resolve(n)
	ret := nestrack.NewTrack("")
	where := "track " + route.String()
	if n.Kind != yaml.MappingNode {
		d.warnf(n, "%s: record is not a mapping", where)
		return ret
	}
	attrs := attributes(n)
	attr(d, attrs, "name", &ret.Name, true, where)
	var group bool
	attr(d, attrs, "group", &group, false, where)
	ret.IsTrack = !group
	attr(d, attrs, "gain", &ret.Gain, false, where)
	attr(d, attrs, "pan", &ret.Pan, false, where)
	if ret.Pan < -1 || ret.Pan > 1 {
		d.warnf(n, "%s: pan %v out of range", where, ret.Pan)
		ret.Pan = max(-1, min(ret.Pan, 1))
	}
	attr(d, attrs, "solo", &ret.Solo, false, where)
	attr(d, attrs, "mute", &ret.Mute, false, where)
	if clips, ok := attrs["clips"]; ok {
		if ret.IsTrack {
			for i, c := range d.list(clips, where+" clips") {
				ret.Clips = append(ret.Clips, d.clip(c, fmt.Sprintf("%s clip %d", where, i)))
			}
		} else if len(resolve(clips).Content) > 0 {
			d.warnf(n, "%s: group has clips, ignored", where)
		}
	}
	if children, ok := attrs["children"]; ok {
		if !ret.IsTrack {
			for i, c := range d.list(children, where+" children") {
				ret.Children = append(ret.Children, d.node(c, route.Child(i)))
			}
		} else if len(resolve(children).Content) > 0 {
			d.warnf(n, "%s: track has children, ignored", where)
		}
	}
	return ret
}

func (d *decoder) clip(n *yaml.Node, where string) nestrack.Clip {
	n = resolve(n)
	ret := nestrack.Clip{Active: true}
	if n.Kind != yaml.MappingNode {
		d.warnf(n, "%s: record is not a mapping", where)
		return ret
	}
	attrs := attributes(n)
	attr(d, attrs, "path", &ret.Path, true, where)
	attr(d, attrs, "start", &ret.Start, true, where)
	attr(d, attrs, "name", &ret.Name, true, where)
	attr(d, attrs, "end", &ret.End, false, where)
	attr(d, attrs, "loop", &ret.Loop, false, where)
	attr(d, attrs, "active", &ret.Active, false, where)
	if ret.Start < 0 {
		d.warnf(n, "%s: negative start %d", where, ret.Start)
		ret.Start = 0
	}
	return ret
}

// list returns the items of a sequence node; anything else is a warning.
func (d *decoder) list(n *yaml.Node, where string) []*yaml.Node {
	n = resolve(n)
	switch {
	case n.Kind == yaml.SequenceNode:
		return n.Content
	case n.Kind == yaml.ScalarNode && n.Tag == "!!null":
		return nil
	}
	d.warnf(n, "%s: not a list", where)
	return nil
}

// attr decodes the scalar attribute key into dst. A missing attribute leaves
// dst untouched, with a warning if it is required; an ill-typed one too.
func attr[T any](d *decoder, attrs map[string]*yaml.Node, key string, dst *T, required bool, where string) {
	v, ok := attrs[key]
	if !ok {
		if required {
			d.warnings = append(d.warnings, errors.Wrapf(nestrack.ErrMalformedPersistedRecord, "%s: missing attribute %q", where, key))
		}
		return
	}
	var x T
	if v.Kind != yaml.ScalarNode {
		d.warnf(v, "%s: attribute %q is not a scalar", where, key)
		return
	}
	if err := v.Decode(&x); err != nil {
		d.warnf(v, "%s: attribute %q: cannot decode %q as %T", where, key, v.Value, x)
		return
	}
	*dst = x
}

// attributes maps the keys of a mapping node to their values. Unknown keys
// are kept but never looked up; for duplicate keys the first one wins.
func attributes(n *yaml.Node) map[string]*yaml.Node {
	ret := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := n.Content[i].Value
		if _, ok := ret[k]; !ok {
			ret[k] = resolve(n.Content[i+1])
		}
	}
	return ret
}

func resolve(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}
