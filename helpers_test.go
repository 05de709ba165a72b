package nestrack_test

import (
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/nestrack/nestrack"
	"github.com/stretchr/testify/require"
)

type fakePlugin struct {
	id       string
	state    []byte
	released int
}

// fakeHost records the identifiers of released instances in order and fails
// to instantiate the identifiers in fail.
type fakeHost struct {
	live     []*fakePlugin
	released []string
	fail     map[string]bool
}

func newFakeHost() *fakeHost {
	return &fakeHost{fail: map[string]bool{}}
}

func (h *fakeHost) Instantiate(id string) (nestrack.PluginHandle, error) {
	if h.fail[id] {
		return nil, errors.Newf("no plugin %q", id)
	}
	p := &fakePlugin{id: id, state: []byte(id)}
	h.live = append(h.live, p)
	return p, nil
}

func (h *fakeHost) State(p nestrack.PluginHandle) []byte {
	return slices.Clone(p.(*fakePlugin).state)
}

func (h *fakeHost) SetState(p nestrack.PluginHandle, state []byte) {
	p.(*fakePlugin).state = slices.Clone(state)
}

func (h *fakeHost) Release(p nestrack.PluginHandle) {
	p.(*fakePlugin).released++
	h.released = append(h.released, p.(*fakePlugin).id)
}

func (h *fakeHost) Descriptor(p nestrack.PluginHandle) nestrack.Descriptor {
	return nestrack.Descriptor{Name: p.(*fakePlugin).id}
}

// parseTree builds a tree from an indented outline, two spaces per level:
//
//	group Drums
//	  track Kick +eq +comp
//
// Words starting with + are plugins instantiated with host.
func parseTree(t *testing.T, host *fakeHost, input string) []*nestrack.Node {
	t.Helper()
	var tracks, stack []*nestrack.Node
	for _, line := range strings.Split(input, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		depth := (len(line) - len(strings.TrimLeft(line, " "))) / 2
		fields := strings.Fields(line)
		require.GreaterOrEqual(t, len(fields), 2, "line %q", line)
		var n *nestrack.Node
		switch fields[0] {
		case "track":
			n = nestrack.NewTrack(fields[1])
		case "group":
			n = nestrack.NewGroup(fields[1])
		default:
			t.Fatalf("unknown node kind %q", fields[0])
		}
		for _, f := range fields[2:] {
			id, ok := strings.CutPrefix(f, "+")
			require.True(t, ok, "unknown attribute %q", f)
			h, err := host.Instantiate(id)
			require.NoError(t, err)
			n.Plugins = append(n.Plugins, nestrack.PluginSlot{Identifier: id, DryWet: 1, Handle: h})
		}
		require.LessOrEqual(t, depth, len(stack), "line %q is indented too deep", line)
		stack = append(stack[:depth], n)
		if depth == 0 {
			tracks = append(tracks, n)
		} else {
			p := stack[depth-1]
			p.Children = append(p.Children, n)
		}
	}
	require.NoError(t, nestrack.CheckInvariants(tracks))
	return tracks
}

func formatTree(tracks []*nestrack.Node) string {
	var b strings.Builder
	var visit func(n *nestrack.Node, depth int)
	visit = func(n *nestrack.Node, depth int) {
		kind := "group"
		if n.IsTrack {
			kind = "track"
		}
		fmt.Fprintf(&b, "%s%s %s", strings.Repeat("  ", depth), kind, n.Name)
		for _, p := range n.Plugins {
			fmt.Fprintf(&b, " +%s", p.Identifier)
		}
		b.WriteString("\n")
		for _, c := range n.Children {
			visit(c, depth+1)
		}
	}
	for _, n := range tracks {
		visit(n, 0)
	}
	return b.String()
}

func errorKind(err error) string {
	for _, k := range []struct {
		name string
		err  error
	}{
		{"cycle detected (self-parenting)", nestrack.ErrSelfParenting},
		{"cycle detected", nestrack.ErrCycleDetected},
		{"cannot nest inside track", nestrack.ErrCannotNestInsideTrack},
		{"route out of bounds", nestrack.ErrRouteOutOfBounds},
		{"index out of bounds", nestrack.ErrIndexOutOfBounds},
		{"empty route", nestrack.ErrEmptyRoute},
		{"plugin reinstantiation failed", nestrack.ErrPluginReinstantiationFailed},
	} {
		if errors.Is(err, k.err) {
			return "error: " + k.name + "\n"
		}
	}
	return "error: " + err.Error() + "\n"
}

// selfReachable reports whether any node can reach itself through children.
func selfReachable(tracks []*nestrack.Node) bool {
	for _, t := range tracks {
		found := false
		t.Walk(func(n *nestrack.Node) bool {
			found = found || nestrack.IsDescendant(n, n, false)
			return !found
		})
		if found {
			return true
		}
	}
	return false
}
