package nestrack_test

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/errors"
	"github.com/nestrack/nestrack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutator(t *testing.T) {
	var (
		host    *fakeHost
		tracks  []*nestrack.Node
		removed []string
		m       nestrack.Mutator
	)
	route := func(t *testing.T, d *datadriven.TestData, key string) nestrack.Route {
		var s string
		if !d.MaybeScanArgs(t, key, &s) {
			return nil
		}
		r, err := nestrack.ParseRoute(s)
		require.NoError(t, err)
		return r
	}
	// result formats the tree after a mutation, followed by the nodes
	// detached from it and the plugin instances released while doing so.
	result := func(t *testing.T, err error) string {
		if err != nil {
			return errorKind(err)
		}
		require.NoError(t, nestrack.CheckInvariants(tracks))
		require.False(t, selfReachable(tracks))
		var b strings.Builder
		b.WriteString(formatTree(tracks))
		if len(removed) > 0 {
			fmt.Fprintf(&b, "removed: %s\n", strings.Join(removed, " "))
		}
		if len(host.released) > 0 {
			fmt.Fprintf(&b, "released: %s\n", strings.Join(host.released, " "))
		}
		return b.String()
	}

	datadriven.RunTest(t, "testdata/mutator", func(t *testing.T, d *datadriven.TestData) string {
		if host != nil {
			host.released = nil
		}
		removed = nil
		switch d.Cmd {
		case "define":
			host = newFakeHost()
			tracks = parseTree(t, host, d.Input)
			m = nestrack.Mutator{Host: host, Removed: func(n *nestrack.Node) {
				removed = append(removed, n.Name)
			}}
			return ""

		case "fail-plugin":
			var id string
			d.ScanArgs(t, "id", &id)
			host.fail[id] = true
			return ""

		case "tree":
			return formatTree(tracks)

		case "move-to-group":
			err := m.MoveToGroup(&tracks, route(t, d, "move"), route(t, d, "group"))
			return result(t, err)

		case "reorder":
			var source, insertion int
			d.ScanArgs(t, "source", &source)
			d.ScanArgs(t, "insertion", &insertion)
			err := m.Reorder(&tracks, route(t, d, "parent"), source, insertion)
			return result(t, err)

		case "reorder-across":
			err := m.ReorderAcross(&tracks, route(t, d, "src"), route(t, d, "dst"))
			return result(t, err)

		case "duplicate":
			r, err := m.Duplicate(&tracks, route(t, d, "route"))
			if err != nil {
				return errorKind(err)
			}
			return fmt.Sprintf("duplicated to %s\n", r) + result(t, nil)

		case "delete":
			err := m.Delete(&tracks, route(t, d, "route"))
			return result(t, err)

		case "is-descendant":
			parent, err := nestrack.Resolve(tracks, route(t, d, "parent"))
			require.NoError(t, err)
			candidate, err := nestrack.Resolve(tracks, route(t, d, "candidate"))
			require.NoError(t, err)
			return fmt.Sprintf("%t\n", nestrack.IsDescendant(parent, candidate, d.HasArg("direct")))

		default:
			return fmt.Sprintf("unknown command: %s", d.Cmd)
		}
	})
}

// randomTree builds a tree of size uniquely named nodes. Every node is put
// under a random group created before it, or into the top-level list.
func randomTree(rng *rand.Rand, size int) []*nestrack.Node {
	var tracks, groups []*nestrack.Node
	for i := 0; i < size; i++ {
		var n *nestrack.Node
		if rng.IntN(2) == 0 {
			n = nestrack.NewTrack(fmt.Sprintf("t%d", i))
		} else {
			n = nestrack.NewGroup(fmt.Sprintf("g%d", i))
		}
		if k := rng.IntN(len(groups) + 1); k < len(groups) {
			groups[k].Children = append(groups[k].Children, n)
		} else {
			tracks = append(tracks, n)
		}
		if !n.IsTrack {
			groups = append(groups, n)
		}
	}
	return tracks
}

func cloneTree(t *testing.T, tracks []*nestrack.Node) []*nestrack.Node {
	ret := make([]*nestrack.Node, len(tracks))
	for i, n := range tracks {
		ret[i] = new(nestrack.Node)
		require.NoError(t, nestrack.CopyNode(nil, ret[i], n))
	}
	return ret
}

// allRoutes returns the route of every node, followed by routes that
// address nothing: past the end of a list, below a track, negative and
// empty.
func allRoutes(tracks []*nestrack.Node) []nestrack.Route {
	var valid, invalid []nestrack.Route
	var visit func(list []*nestrack.Node, parent nestrack.Route)
	visit = func(list []*nestrack.Node, parent nestrack.Route) {
		invalid = append(invalid, parent.Child(len(list)))
		for i, n := range list {
			r := parent.Child(i)
			valid = append(valid, r)
			if n.IsTrack {
				invalid = append(invalid, r.Child(0))
			}
			visit(n.Children, r)
		}
	}
	visit(tracks, nil)
	return append(valid, append(invalid, nestrack.Route{-1}, nestrack.Route{0, -1}, nil)...)
}

func nodeNames(tracks []*nestrack.Node) []string {
	var ret []string
	for _, t := range tracks {
		t.Walk(func(n *nestrack.Node) bool {
			ret = append(ret, n.Name)
			return true
		})
	}
	slices.Sort(ret)
	return ret
}

// TestMutatorGenerated runs MoveToGroup and ReorderAcross over every pair of
// routes of random trees. A mutation either fails and leaves the tree as it
// was, or succeeds with every node still present exactly once and no node
// reachable from itself.
func TestMutatorGenerated(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	var m nestrack.Mutator
	ops := []struct {
		name string
		f    func(tracks *[]*nestrack.Node, a, b nestrack.Route) error
	}{
		{"move-to-group", m.MoveToGroup},
		{"reorder-across", m.ReorderAcross},
	}
	for iter := 0; iter < 40; iter++ {
		orig := randomTree(rng, 1+rng.IntN(9))
		before := formatTree(orig)
		names := nodeNames(orig)
		routes := allRoutes(orig)
		for _, a := range routes {
			for _, b := range routes {
				for _, op := range ops {
					tracks := cloneTree(t, orig)
					err := op.f(&tracks, a, b)
					desc := fmt.Sprintf("%s %s %s on\n%s", op.name, a, b, before)
					require.NoError(t, nestrack.CheckInvariants(tracks), desc)
					require.False(t, selfReachable(tracks), desc)
					if err != nil {
						require.Equal(t, before, formatTree(tracks), "failed mutation changed the tree: %s", desc)
						continue
					}
					require.Equal(t, names, nodeNames(tracks), desc)
				}
			}
		}
	}
}

// TestResolvePure checks that resolving any route, valid or not, twice gives
// the same result and leaves the tree untouched.
func TestResolvePure(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	for iter := 0; iter < 40; iter++ {
		tracks := randomTree(rng, 1+rng.IntN(12))
		before := formatTree(tracks)
		for _, r := range allRoutes(tracks) {
			n1, err1 := nestrack.Resolve(tracks, r)
			n2, err2 := nestrack.Resolve(tracks, r)
			require.Same(t, n1, n2, "route %s", r)
			require.Equal(t, err1 == nil, err2 == nil, "route %s", r)
			if err1 != nil {
				require.Equal(t, err1.Error(), err2.Error())
			}
		}
		require.Equal(t, before, formatTree(tracks))
	}
}

func TestNestingErrorKinds(t *testing.T) {
	host := newFakeHost()
	var m nestrack.Mutator
	tracks := parseTree(t, host, `
group G
  group X
    group Z
track T
`)
	err := m.MoveToGroup(&tracks, nestrack.Route{0}, nestrack.Route{0, 0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, nestrack.ErrSelfParenting))
	assert.True(t, errors.Is(err, nestrack.ErrCycleDetected))

	err = m.MoveToGroup(&tracks, nestrack.Route{0}, nestrack.Route{0, 0, 0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, nestrack.ErrCycleDetected))
	assert.False(t, errors.Is(err, nestrack.ErrSelfParenting))

	assert.False(t, errors.Is(nestrack.ErrCycleDetected, nestrack.ErrSelfParenting))
	assert.False(t, errors.Is(nestrack.ErrSelfParenting, nestrack.ErrCycleDetected))

	err = m.MoveToGroup(&tracks, nestrack.Route{0}, nestrack.Route{1})
	assert.True(t, errors.Is(err, nestrack.ErrCannotNestInsideTrack))
	assert.False(t, errors.Is(err, nestrack.ErrCycleDetected))
}
