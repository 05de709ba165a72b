package nestrack_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/nestrack/nestrack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chainIDs(n *nestrack.Node) []string {
	var ret []string
	for _, p := range n.Plugins {
		ret = append(ret, p.Identifier)
	}
	return ret
}

func TestReorderPlugin(t *testing.T) {
	for _, tc := range []struct {
		src, dst int
		want     []string
	}{
		{0, 2, []string{"b", "c", "a"}},
		{2, 0, []string{"c", "a", "b"}},
		{1, 1, []string{"a", "b", "c"}},
		{0, 1, []string{"b", "a", "c"}},
		{0, 10, []string{"b", "c", "a"}},
		{2, -1, []string{"c", "a", "b"}},
	} {
		n := parseTree(t, newFakeHost(), "track T +a +b +c\n")[0]
		n.Plugins[0].Bypassed = true
		require.NoError(t, n.ReorderPlugin(tc.src, tc.dst))
		assert.Equal(t, tc.want, chainIDs(n), "%d -> %d", tc.src, tc.dst)
		// the bypass flag travels with its plugin
		for i, p := range n.Plugins {
			assert.Equal(t, p.Identifier == "a", n.BypassedPlugins()[i])
		}
	}
	n := parseTree(t, newFakeHost(), "track T +a\n")[0]
	assert.True(t, errors.Is(n.ReorderPlugin(1, 0), nestrack.ErrIndexOutOfBounds))
}

func TestPluginChain(t *testing.T) {
	n := nestrack.NewGroup("G")
	require.NoError(t, n.InsertPlugin(0, nestrack.PluginSlot{Identifier: "b", DryWet: 2}))
	require.NoError(t, n.InsertPlugin(0, nestrack.PluginSlot{Identifier: "a", DryWet: 1}))
	require.NoError(t, n.InsertPlugin(2, nestrack.PluginSlot{Identifier: "c", DryWet: -1}))
	assert.True(t, errors.Is(n.InsertPlugin(4, nestrack.PluginSlot{}), nestrack.ErrIndexOutOfBounds))
	assert.Equal(t, []string{"a", "b", "c"}, chainIDs(n))
	assert.Equal(t, 1.0, n.Plugins[1].DryWet)
	assert.Equal(t, 0.0, n.Plugins[2].DryWet)

	require.NoError(t, n.SetBypassed(1, true))
	assert.Equal(t, []bool{false, true, false}, n.BypassedPlugins())
	assert.Len(t, n.BypassedPlugins(), len(n.Plugins))
	require.NoError(t, n.SetDryWet(0, 0.25))
	assert.Equal(t, 0.25, n.Plugins[0].DryWet)
	assert.Error(t, n.SetDryWet(3, 0.5))

	relay := nestrack.RelayParam{Channel: 0, Controller: 74, Param: 3}
	require.NoError(t, n.AddRelay(0, relay))
	require.NoError(t, n.AddRelay(0, relay))
	assert.Equal(t, []nestrack.RelayParam{relay}, n.Plugins[0].Relays)
	require.NoError(t, n.RemoveRelay(0, 0))
	assert.Empty(t, n.Plugins[0].Relays)
	assert.Error(t, n.RemoveRelay(0, 0))

	removed, err := n.RemovePlugin(1)
	require.NoError(t, err)
	assert.Equal(t, "b", removed.Identifier)
	assert.Equal(t, []bool{false, false}, n.BypassedPlugins())
	_, err = n.RemovePlugin(2)
	assert.True(t, errors.Is(err, nestrack.ErrIndexOutOfBounds))
}

func TestClips(t *testing.T) {
	g := nestrack.NewGroup("G")
	assert.True(t, errors.Is(g.InsertClip(0, nestrack.Clip{}), nestrack.ErrClipsOnGroup))

	tr := nestrack.NewTrack("T")
	require.NoError(t, tr.InsertClip(0, nestrack.Clip{Name: "b", Start: -5}))
	require.NoError(t, tr.InsertClip(0, nestrack.Clip{Name: "a", Start: 10, Active: true, Buffer: nestrack.MakeAudioBuffer(100)}))
	assert.Equal(t, int64(0), tr.Clips[1].Start)
	assert.Equal(t, int64(110), tr.Clips[0].EndSample())
	assert.Equal(t, int64(110), nestrack.Length([]*nestrack.Node{tr}))

	c, err := tr.RemoveClip(1)
	require.NoError(t, err)
	assert.Equal(t, "b", c.Name)
	_, err = tr.RemoveClip(1)
	assert.True(t, errors.Is(err, nestrack.ErrIndexOutOfBounds))
}

func TestCheckInvariants(t *testing.T) {
	host := newFakeHost()
	tracks := parseTree(t, host, "group G\n  track A\n")
	require.NoError(t, nestrack.CheckInvariants(tracks))

	shared := append(tracks, tracks[0].Children[0])
	assert.Error(t, nestrack.CheckInvariants(shared))

	tr := nestrack.NewTrack("T")
	tr.Children = []*nestrack.Node{nestrack.NewTrack("U")}
	assert.Error(t, nestrack.CheckInvariants([]*nestrack.Node{tr}))

	g := nestrack.NewGroup("G")
	g.Clips = []nestrack.Clip{{}}
	assert.Error(t, nestrack.CheckInvariants([]*nestrack.Node{g}))

	cyclic := nestrack.NewGroup("C")
	cyclic.Children = []*nestrack.Node{cyclic}
	assert.Error(t, nestrack.CheckInvariants([]*nestrack.Node{cyclic}))
}

func TestDescriptorIdentifier(t *testing.T) {
	assert.Equal(t, "Acme/Verb", nestrack.Descriptor{Name: "Verb", Manufacturer: "Acme"}.Identifier())
	assert.Equal(t, "Verb", nestrack.Descriptor{Name: "Verb"}.Identifier())
}
