package nestrack

import (
	"slices"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Route addresses a node by index path: Route[0] indexes the top-level list
// and every further element indexes the Children of the previously resolved
// node. Routes are the only way external callers address nodes; resolved
// *Node values must not be retained across a mutation.
type Route []int

// ParseRoute parses the textual form of a route, e.g. "0.2.1".
func ParseRoute(s string) (Route, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.Wrapf(ErrEmptyRoute, "parsing route %q", s)
	}
	parts := strings.Split(s, ".")
	ret := make(Route, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing route %q", s)
		}
		if v < 0 {
			return nil, errors.Wrapf(ErrRouteOutOfBounds, "parsing route %q: negative index", s)
		}
		ret[i] = v
	}
	return ret, nil
}

func (r Route) String() string {
	if len(r) == 0 {
		return "<empty>"
	}
	parts := make([]string, len(r))
	for i, v := range r {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ".")
}

// Parent returns the route with the last element removed. The parent of a
// top-level route is the empty route.
func (r Route) Parent() Route {
	if len(r) == 0 {
		return nil
	}
	return slices.Clone(r[:len(r)-1])
}

// Last returns the last index of the route, or -1 for an empty route.
func (r Route) Last() int {
	if len(r) == 0 {
		return -1
	}
	return r[len(r)-1]
}

// Child returns a new route addressing the index-th child of r.
func (r Route) Child(index int) Route {
	ret := make(Route, len(r)+1)
	copy(ret, r)
	ret[len(r)] = index
	return ret
}

// Equal reports whether both routes address the same position.
func (r Route) Equal(o Route) bool {
	return slices.Equal(r, o)
}

// Resolve walks the route from the top-level list and returns the addressed
// node. It has no side effects.
func Resolve(tracks []*Node, route Route) (*Node, error) {
	if len(route) == 0 {
		return nil, ErrEmptyRoute
	}
	list := tracks
	var node *Node
	for depth, index := range route {
		if index < 0 || index >= len(list) {
			return nil, errors.Wrapf(ErrRouteOutOfBounds, "route %s: index %d at depth %d, %d nodes", route, index, depth, len(list))
		}
		node = list[index]
		list = node.Children
	}
	return node, nil
}

// ResolveParent resolves the parent of the node addressed by route. parent is
// nil when route addresses a top-level node. The addressed node itself is
// checked to exist.
func ResolveParent(tracks []*Node, route Route) (parent *Node, index int, err error) {
	if len(route) == 0 {
		return nil, 0, ErrEmptyRoute
	}
	siblings := tracks
	if len(route) > 1 {
		if parent, err = Resolve(tracks, route.Parent()); err != nil {
			return nil, 0, err
		}
		siblings = parent.Children
	}
	index = route.Last()
	if index < 0 || index >= len(siblings) {
		return nil, 0, errors.Wrapf(ErrRouteOutOfBounds, "route %s: index %d, %d nodes", route, index, len(siblings))
	}
	return parent, index, nil
}

// ResolveClip resolves a route whose last element indexes the clips of the
// node addressed by the rest of the route.
func ResolveClip(tracks []*Node, route Route) (*Clip, error) {
	node, index, err := resolveLeaf(tracks, route)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(node.Clips) {
		return nil, errors.Wrapf(ErrRouteOutOfBounds, "route %s: clip %d, %d clips", route, index, len(node.Clips))
	}
	return &node.Clips[index], nil
}

// ResolvePlugin resolves a route whose last element indexes the plugin chain
// of the node addressed by the rest of the route.
func ResolvePlugin(tracks []*Node, route Route) (*PluginSlot, error) {
	node, index, err := resolveLeaf(tracks, route)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(node.Plugins) {
		return nil, errors.Wrapf(ErrRouteOutOfBounds, "route %s: plugin %d, %d plugins", route, index, len(node.Plugins))
	}
	return &node.Plugins[index], nil
}

func resolveLeaf(tracks []*Node, route Route) (*Node, int, error) {
	if len(route) < 2 {
		return nil, 0, errors.Wrapf(ErrEmptyRoute, "route %s does not address a node", route)
	}
	node, err := Resolve(tracks, route.Parent())
	if err != nil {
		return nil, 0, err
	}
	return node, route.Last(), nil
}
