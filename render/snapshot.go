package render

import (
	"math"
	"slices"
	"sync/atomic"

	"github.com/nestrack/nestrack"
)

type (
	// Snapshot is an immutable view of the routing tree for the render
	// goroutine. It is built by the control goroutine after every mutation and
	// never modified after publishing. Clip buffers are shared with the tree;
	// they are replaced, never written in place.
	Snapshot struct {
		Epoch uint64
		Nodes []Node
	}

	// Node is the render view of a nestrack.Node. Audible already takes
	// mute and solo of the whole tree into account; GainL and GainR combine
	// gain and pan.
	Node struct {
		IsTrack      bool
		Audible      bool
		GainL, GainR float32
		Clips        []Clip
		Plugins      []Plugin
		Children     []Node
	}

	Clip struct {
		Start, End int64 // End == 0: until the end of the buffer, or forever if Loop
		Loop       bool
		Buffer     nestrack.AudioBuffer
	}

	Plugin struct {
		Handle   nestrack.PluginHandle
		Bypassed bool
		DryWet   float32
		Relays   []nestrack.RelayParam
	}

	// Exchange hands snapshots from the control goroutine to the render
	// goroutine without locks. The render side acknowledges the epoch of the
	// snapshot it is using, so the control side knows when resources only
	// referenced by older snapshots can be released.
	Exchange struct {
		current  atomic.Pointer[Snapshot]
		acked    atomic.Uint64
		attached atomic.Bool
	}
)

// NewSnapshot builds the render view of tracks.
func NewSnapshot(tracks []*nestrack.Node, epoch uint64) *Snapshot {
	anySolo := false
	for _, t := range tracks {
		t.Walk(func(n *nestrack.Node) bool {
			anySolo = anySolo || n.Solo
			return !anySolo
		})
	}
	ret := &Snapshot{Epoch: epoch, Nodes: make([]Node, len(tracks))}
	for i, t := range tracks {
		ret.Nodes[i] = makeNode(t, anySolo, false)
	}
	return ret
}

func makeNode(n *nestrack.Node, anySolo, soloedAbove bool) Node {
	// equal power panning
	angle := (max(-1, min(n.Pan, 1)) + 1) * math.Pi / 4
	ret := Node{
		IsTrack: n.IsTrack,
		Audible: !n.Mute && (!anySolo || soloedAbove || soloedBelow(n)),
		GainL:   float32(n.Gain * math.Cos(angle)),
		GainR:   float32(n.Gain * math.Sin(angle)),
	}
	for _, c := range n.Clips {
		if c.Active {
			ret.Clips = append(ret.Clips, Clip{Start: c.Start, End: c.End, Loop: c.Loop, Buffer: c.Buffer})
		}
	}
	for _, p := range n.Plugins {
		ret.Plugins = append(ret.Plugins, Plugin{Handle: p.Handle, Bypassed: p.Bypassed, DryWet: float32(p.DryWet), Relays: slices.Clone(p.Relays)})
	}
	for _, c := range n.Children {
		ret.Children = append(ret.Children, makeNode(c, anySolo, soloedAbove || n.Solo))
	}
	return ret
}

func soloedBelow(n *nestrack.Node) bool {
	found := false
	n.Walk(func(c *nestrack.Node) bool {
		found = found || c.Solo
		return !found
	})
	return found
}

// Publish makes s the snapshot used by the next render block.
func (e *Exchange) Publish(s *Snapshot) {
	e.current.Store(s)
}

// Acquire returns the latest snapshot and acknowledges its epoch. Only the
// render goroutine calls Acquire, once per block; after it, snapshots older
// than the returned one are not referenced by the render goroutine anymore.
func (e *Exchange) Acquire() *Snapshot {
	e.attached.Store(true)
	s := e.current.Load()
	if s != nil {
		e.acked.Store(s.Epoch)
	}
	return s
}

// Released reports whether the render goroutine is done with every snapshot
// older than epoch. If no render goroutine ever acquired a snapshot, it
// cannot be holding any, and Released is always true.
func (e *Exchange) Released(epoch uint64) bool {
	if !e.attached.Load() {
		return true
	}
	return e.acked.Load() >= epoch
}
