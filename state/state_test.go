package state_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/errors"
	"github.com/nestrack/nestrack"
	"github.com/nestrack/nestrack/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func formatDocument(doc state.Document) string {
	var b strings.Builder
	var visit func(n *nestrack.Node, depth int)
	visit = func(n *nestrack.Node, depth int) {
		indent := strings.Repeat("  ", depth)
		kind := "group"
		if n.IsTrack {
			kind = "track"
		}
		fmt.Fprintf(&b, "%s%s %q gain=%g pan=%g", indent, kind, n.Name, n.Gain, n.Pan)
		if n.Solo {
			b.WriteString(" solo")
		}
		if n.Mute {
			b.WriteString(" mute")
		}
		b.WriteString("\n")
		for _, c := range n.Clips {
			fmt.Fprintf(&b, "%s  clip %q path=%q start=%d end=%d", indent, c.Name, c.Path, c.Start, c.End)
			if c.Loop {
				b.WriteString(" loop")
			}
			if c.Active {
				b.WriteString(" active")
			}
			b.WriteString("\n")
		}
		for _, c := range n.Children {
			visit(c, depth+1)
		}
	}
	for _, t := range doc.Tracks {
		visit(t, 0)
	}
	for _, w := range doc.Warnings {
		fmt.Fprintf(&b, "warning: %s\n", w)
	}
	return b.String()
}

func TestUnmarshal(t *testing.T) {
	datadriven.RunTest(t, "testdata/unmarshal", func(t *testing.T, d *datadriven.TestData) string {
		switch d.Cmd {
		case "unmarshal":
			doc, err := state.Unmarshal([]byte(d.Input))
			if err != nil {
				if errors.Is(err, nestrack.ErrMalformedPersistedRecord) {
					return "error: malformed persisted record\n"
				}
				return "error\n"
			}
			for _, w := range doc.Warnings {
				require.True(t, errors.Is(w, nestrack.ErrMalformedPersistedRecord))
			}
			require.NoError(t, nestrack.CheckInvariants(doc.Tracks))
			return formatDocument(doc)
		default:
			return fmt.Sprintf("unknown command: %s", d.Cmd)
		}
	})
}

func TestRoundTrip(t *testing.T) {
	drums := nestrack.NewGroup("Drums")
	drums.Gain, drums.Solo = 0.75, true
	kick := nestrack.NewTrack("Kick")
	kick.Pan = -0.5
	kick.Clips = []nestrack.Clip{
		{Path: "kick.raw", Name: "Kick 1", Start: 0, Active: true},
		{Path: "sub/kick2.wav", Name: "Kick 2", Start: 44100, End: 88200, Loop: true},
	}
	kick.Plugins = []nestrack.PluginSlot{{Identifier: "eq", State: []byte("x"), DryWet: 1}}
	drums.Children = []*nestrack.Node{kick, nestrack.NewGroup("Empty")}
	bass := nestrack.NewTrack("Bass")
	bass.Mute = true
	tracks := []*nestrack.Node{drums, bass}

	out, err := state.Marshal(tracks)
	require.NoError(t, err)
	doc, err := state.Unmarshal(out)
	require.NoError(t, err)
	require.NoError(t, doc.Err())
	require.Len(t, doc.Tracks, 2)

	got := doc.Tracks[0]
	assert.Equal(t, "Drums", got.Name)
	assert.False(t, got.IsTrack)
	assert.Equal(t, 0.75, got.Gain)
	assert.True(t, got.Solo)
	require.Len(t, got.Children, 2)
	gotKick := got.Children[0]
	assert.Equal(t, "Kick", gotKick.Name)
	assert.Equal(t, -0.5, gotKick.Pan)
	assert.Equal(t, kick.Clips, gotKick.Clips)
	assert.Empty(t, gotKick.Plugins, "plugin chains are not persisted")
	assert.False(t, got.Children[1].IsTrack)
	assert.Equal(t, "Bass", doc.Tracks[1].Name)
	assert.True(t, doc.Tracks[1].Mute)

	again, err := state.Marshal(doc.Tracks)
	require.NoError(t, err)
	assert.Equal(t, string(out), string(again))
}

type mapDecoder map[string]nestrack.AudioBuffer

func (m mapDecoder) LoadBuffer(path string, start int64) (nestrack.AudioBuffer, error) {
	b, ok := m[path]
	if !ok {
		return nestrack.AudioBuffer{}, errors.Newf("%s: no such file", path)
	}
	return b.Slice(int(min(start, int64(b.Len()))), b.Len()), nil
}

func TestLoad(t *testing.T) {
	data := []byte(`
tracks:
  - name: T
    clips:
      - {path: a.raw, start: 1, name: A}
      - {path: missing.raw, start: 0, name: M}
`)
	doc, err := state.Load(data, mapDecoder{"a.raw": nestrack.MakeAudioBuffer(4)})
	require.NoError(t, err)
	require.Len(t, doc.Tracks, 1)
	clips := doc.Tracks[0].Clips
	require.Len(t, clips, 2)
	assert.Equal(t, 3, clips[0].Buffer.Len())
	assert.Zero(t, clips[1].Buffer.Len())
	require.Len(t, doc.Warnings, 1)
	assert.Contains(t, doc.Err().Error(), "missing.raw")

	_, err = state.Load([]byte("tracks: ["), nil)
	assert.Error(t, err)
}
