package tree

// Toggle flips a node between Expanded and Folded. With recursive set, the
// new value is applied to every descendant unconditionally, overwriting
// their individual fold flags. Structure is never modified - folding only
// changes which nodes the layout pass selects.
func Toggle(n *Node, recursive bool) {
	if n == nil {
		return
	}
	next := Folded
	if n.Payload.Fold.IsFolded() {
		next = Expanded
	}
	if recursive {
		setFold(n, next)
		return
	}
	n.Payload.Fold = next
}

// ExpandAll expands the whole subtree rooted at n.
func ExpandAll(n *Node) { setFold(n, Expanded) }

// CollapseAll folds the whole subtree rooted at n.
func CollapseAll(n *Node) { setFold(n, Folded) }

func setFold(n *Node, f Fold) {
	if n == nil {
		return
	}
	n.Payload.Fold = f
	for _, c := range n.Children {
		setFold(c, f)
	}
}
