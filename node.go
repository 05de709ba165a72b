package nestrack

import (
	"github.com/cockroachdb/errors"
)

type (
	// Node is a node in the routing tree: either a track, which holds clips
	// and no children, or a group, which holds children and no clips. Both
	// can carry a chain of plugins. A Node exclusively owns its children,
	// clips and plugins; the same *Node must never appear twice in a tree.
	Node struct {
		IsTrack bool
		Name    string
		Gain    float64
		Pan     float64 // -1 is hard left, 1 is hard right
		Solo    bool
		Mute    bool

		Children []*Node
		Clips    []Clip
		Plugins  []PluginSlot
	}

	// Clip is a placed audio region on a track. Start and End are absolute
	// positions on the track timeline, in samples. End == 0 means that the
	// clip lasts as long as its buffer.
	Clip struct {
		Path   string
		Name   string
		Start  int64
		End    int64
		Loop   bool
		Active bool

		// Buffer is filled by a Decoder, never by the routing graph itself.
		Buffer AudioBuffer
	}

	// PluginSlot is a hosted sub-plugin instance attached to a node.
	PluginSlot struct {
		// Identifier is used to reinstantiate the same plugin type.
		Identifier string
		// State is the last plugin-private state blob obtained from the host.
		State    []byte
		Bypassed bool
		DryWet   float64 // 0 is fully dry, 1 is fully wet
		Relays   []RelayParam

		// Handle is the live instance; it is never persisted.
		Handle PluginHandle
	}

	// RelayParam binds an incoming MIDI control change to a parameter of the
	// plugin in the same slot.
	RelayParam struct {
		Channel    uint8
		Controller uint8
		Param      int
	}
)

// NewTrack returns a new, empty track with unity gain.
func NewTrack(name string) *Node {
	return &Node{IsTrack: true, Name: name, Gain: 1}
}

// NewGroup returns a new, empty group with unity gain.
func NewGroup(name string) *Node {
	return &Node{Name: name, Gain: 1}
}

// IsEmpty reports whether the node is freshly allocated: no name, no
// children, clips or plugins and zero valued mix settings.
func (n *Node) IsEmpty() bool {
	return !n.IsTrack && n.Name == "" && n.Gain == 0 && n.Pan == 0 && !n.Solo && !n.Mute &&
		len(n.Children) == 0 && len(n.Clips) == 0 && len(n.Plugins) == 0
}

// BypassedPlugins returns the bypass flags of the plugin chain, index
// aligned with n.Plugins.
func (n *Node) BypassedPlugins() []bool {
	ret := make([]bool, len(n.Plugins))
	for i, p := range n.Plugins {
		ret[i] = p.Bypassed
	}
	return ret
}

// Walk calls f for n and every node below it, parents before children. If f
// returns false, the children of that node are skipped.
func (n *Node) Walk(f func(*Node) bool) {
	if !f(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(f)
	}
}

// Copy makes a deep copy of a Clip, including its sample buffer.
func (c *Clip) Copy() Clip {
	ret := *c
	ret.Buffer = c.Buffer.Copy()
	return ret
}

// EndSample returns the absolute position where the clip stops playing.
func (c *Clip) EndSample() int64 {
	if c.End > c.Start {
		return c.End
	}
	return c.Start + int64(c.Buffer.Len())
}

// Reload fills the clip buffer using the decoder. The previous buffer is
// kept if decoding fails.
func (c *Clip) Reload(decoder Decoder) error {
	buf, err := decoder.LoadBuffer(c.Path, c.Start)
	if err != nil {
		return errors.Wrapf(err, "loading clip %q", c.Path)
	}
	c.Buffer = buf
	return nil
}

// CheckInvariants verifies the structural invariants of the tree rooted at
// the given top-level list: no node is reachable twice (which also rules out
// cycles), tracks have no children and groups have no clips.
func CheckInvariants(tracks []*Node) error {
	seen := make(map[*Node]bool)
	var check func(n *Node, route Route) error
	check = func(n *Node, route Route) error {
		if n == nil {
			return errors.AssertionFailedf("nil node at %s", route)
		}
		if seen[n] {
			return errors.AssertionFailedf("node %q at %s is reachable more than once", n.Name, route)
		}
		seen[n] = true
		if n.IsTrack && len(n.Children) > 0 {
			return errors.AssertionFailedf("track %q at %s has children", n.Name, route)
		}
		if !n.IsTrack && len(n.Clips) > 0 {
			return errors.AssertionFailedf("group %q at %s has clips", n.Name, route)
		}
		for i, c := range n.Children {
			if err := check(c, route.Child(i)); err != nil {
				return err
			}
		}
		return nil
	}
	for i, n := range tracks {
		if err := check(n, Route{i}); err != nil {
			return err
		}
	}
	return nil
}
