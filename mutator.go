package nestrack

import (
	"slices"

	"github.com/cockroachdb/errors"
)

// Mutator performs the structural changes of the routing tree. All
// preconditions are checked before anything is modified, and clones are
// built detached from the tree, so a failed operation leaves the tree
// untouched.
//
// The top-level list is passed as a pointer, as most operations may replace
// it. Resolved nodes are never kept between calls.
type Mutator struct {
	Host PluginHost
	// Editors, if not nil, is notified of every plugin instance of a node
	// before the node is detached from the tree.
	Editors EditorNotifier
	// Removed, if not nil, is called with every node after it has been
	// detached from the tree. The node is not used by the tree anymore.
	Removed func(*Node)
	// ReleaseSource, if not nil, replaces Host.Release for the instances of
	// the node a clone is copied from. See CopyNodeFunc.
	ReleaseSource func(PluginHandle)
}

// MoveToGroup relocates the node at moveRoute to become the last child of
// the node at groupRoute. The moved node is cloned with CopyNode and the
// original removed.
func (m *Mutator) MoveToGroup(tracks *[]*Node, moveRoute, groupRoute Route) error {
	moving, err := Resolve(*tracks, moveRoute)
	if err != nil {
		return errors.Wrap(err, "resolving node to move")
	}
	target, err := Resolve(*tracks, groupRoute)
	if err != nil {
		return errors.Wrap(err, "resolving target group")
	}
	if err := checkNesting(moving, target, moveRoute, groupRoute); err != nil {
		return err
	}
	parent, _, err := ResolveParent(*tracks, moveRoute)
	if err != nil {
		return err
	}
	clone := new(Node)
	if err := CopyNodeFunc(m.Host, m.ReleaseSource, clone, moving); err != nil {
		return errors.Wrapf(err, "moving %s into %s", moveRoute, groupRoute)
	}
	target.Children = append(target.Children, clone)
	m.detach(tracks, parent, moving)
	return nil
}

// checkNesting validates that moving can become a child of target.
func checkNesting(moving, target *Node, moveRoute, targetRoute Route) error {
	if target.IsTrack {
		return errors.Wrapf(ErrCannotNestInsideTrack, "target %s (%q) is a track", targetRoute, target.Name)
	}
	if target == moving || IsDescendant(moving, target, true) {
		return errors.Mark(errors.Wrapf(ErrSelfParenting, "moving %s into %s", moveRoute, targetRoute), ErrCycleDetected)
	}
	if IsDescendant(moving, target, false) {
		return errors.Wrapf(ErrCycleDetected, "%s is an ancestor of %s", moveRoute, targetRoute)
	}
	return nil
}

// Reorder moves the child at index source of the node at parentRoute so that
// it ends up at index insertion. An empty parentRoute addresses the top-level
// list. See ReorderIndices for the index arithmetic.
func (m *Mutator) Reorder(tracks *[]*Node, parentRoute Route, source, insertion int) error {
	list, err := m.siblings(tracks, parentRoute)
	if err != nil {
		return err
	}
	if source < 0 || source >= len(*list) {
		return errors.Wrapf(ErrIndexOutOfBounds, "reorder source %d, %d nodes", source, len(*list))
	}
	if _, _, ok := ReorderIndices(len(*list), source, insertion); !ok {
		return nil
	}
	orig := (*list)[source]
	reordered, err := Reorder(*list, source, insertion, func(n *Node) (*Node, error) {
		clone := new(Node)
		if err := CopyNodeFunc(m.Host, m.ReleaseSource, clone, n); err != nil {
			return nil, err
		}
		return clone, nil
	})
	if err != nil {
		return errors.Wrapf(err, "reordering %d to %d", source, insertion)
	}
	m.notifyEditors(orig)
	*list = reordered
	m.removed(orig)
	return nil
}

// ReorderAcross moves the node at srcRoute to the position addressed by
// dstRoute. Three cases are supported: dstRoute of length one moves the node
// into the top-level list; routes sharing the same parent reorder among
// siblings; anything else moves the node under a different parent, with the
// same nesting checks as MoveToGroup. The index in dstRoute is the final
// position of the node; for a different parent it is clamped to
// [0, len(children)].
func (m *Mutator) ReorderAcross(tracks *[]*Node, srcRoute, dstRoute Route) error {
	if len(dstRoute) == 0 {
		return errors.Wrap(ErrEmptyRoute, "reorder destination")
	}
	srcParent, _, err := ResolveParent(*tracks, srcRoute)
	if err != nil {
		return errors.Wrap(err, "resolving node to reorder")
	}
	if srcRoute.Parent().Equal(dstRoute.Parent()) {
		return m.Reorder(tracks, srcRoute.Parent(), srcRoute.Last(), dstRoute.Last())
	}
	moving, err := Resolve(*tracks, srcRoute)
	if err != nil {
		return err
	}
	dstList := tracks
	if len(dstRoute) > 1 {
		dstParent, err := Resolve(*tracks, dstRoute.Parent())
		if err != nil {
			return errors.Wrap(err, "resolving destination parent")
		}
		if err := checkNesting(moving, dstParent, srcRoute, dstRoute.Parent()); err != nil {
			return err
		}
		dstList = &dstParent.Children
	}
	index := max(0, min(dstRoute.Last(), len(*dstList)))
	clone := new(Node)
	if err := CopyNodeFunc(m.Host, m.ReleaseSource, clone, moving); err != nil {
		return errors.Wrapf(err, "moving %s to %s", srcRoute, dstRoute)
	}
	*dstList = slices.Insert(*dstList, index, clone)
	m.detach(tracks, srcParent, moving)
	return nil
}

// Insert inserts n as the index-th child of the node at parentRoute, or into
// the top-level list if parentRoute is empty. index is clamped to the valid
// insertion range.
func (m *Mutator) Insert(tracks *[]*Node, parentRoute Route, index int, n *Node) error {
	list, err := m.siblings(tracks, parentRoute)
	if err != nil {
		return err
	}
	index = max(0, min(index, len(*list)))
	*list = slices.Insert(*list, index, n)
	return nil
}

// Duplicate inserts a CopyNode clone of the node at route right after it and
// returns the route of the clone.
func (m *Mutator) Duplicate(tracks *[]*Node, route Route) (Route, error) {
	n, err := Resolve(*tracks, route)
	if err != nil {
		return nil, err
	}
	clone := new(Node)
	if err := CopyNodeFunc(m.Host, m.ReleaseSource, clone, n); err != nil {
		return nil, errors.Wrapf(err, "duplicating %s", route)
	}
	ret := route.Parent().Child(route.Last() + 1)
	if err := m.Insert(tracks, route.Parent(), ret.Last(), clone); err != nil {
		ReleasePlugins(m.Host, clone)
		return nil, err
	}
	return ret, nil
}

// Delete removes the node at route from the tree.
func (m *Mutator) Delete(tracks *[]*Node, route Route) error {
	parent, index, err := ResolveParent(*tracks, route)
	if err != nil {
		return err
	}
	list := tracks
	if parent != nil {
		list = &parent.Children
	}
	m.detach(tracks, parent, (*list)[index])
	return nil
}

// siblings returns the children list of the node at parentRoute, or the
// top-level list if parentRoute is empty.
func (m *Mutator) siblings(tracks *[]*Node, parentRoute Route) (*[]*Node, error) {
	if len(parentRoute) == 0 {
		return tracks, nil
	}
	parent, err := Resolve(*tracks, parentRoute)
	if err != nil {
		return nil, err
	}
	if parent.IsTrack {
		return nil, errors.Wrapf(ErrCannotNestInsideTrack, "%s (%q) is a track", parentRoute, parent.Name)
	}
	return &parent.Children, nil
}

// detach removes n from the children of parent, or from the top-level list if
// parent is nil. n is looked up by identity, as indices may have shifted.
func (m *Mutator) detach(tracks *[]*Node, parent *Node, n *Node) {
	list := tracks
	if parent != nil {
		list = &parent.Children
	}
	index := slices.Index(*list, n)
	if index < 0 {
		return
	}
	m.notifyEditors(n)
	*list = slices.Delete(*list, index, index+1)
	m.removed(n)
}

func (m *Mutator) notifyEditors(n *Node) {
	if m.Editors == nil {
		return
	}
	for _, h := range PluginHandles(n) {
		m.Editors.PluginEditorClosing(h)
	}
}

func (m *Mutator) removed(n *Node) {
	if m.Removed != nil {
		m.Removed(n)
	}
}
