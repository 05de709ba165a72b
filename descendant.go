package nestrack

// IsDescendant reports whether candidate appears among the children of
// parent (directOnly) or anywhere in the subtree below parent. Nodes are
// compared by identity; a node is not its own descendant.
func IsDescendant(parent, candidate *Node, directOnly bool) bool {
	if parent == nil || candidate == nil {
		return false
	}
	for _, c := range parent.Children {
		if c == candidate {
			return true
		}
		if !directOnly && IsDescendant(c, candidate, false) {
			return true
		}
	}
	return false
}
