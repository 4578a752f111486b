package tree

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Walk visits every node reachable from n in depth-first pre-order,
// including nodes hidden under folded ancestors. Returning false from fn
// skips the node's subtree.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// Visible returns the currently visible nodes of the tree in pre-order.
// A node is visible iff every ancestor is expanded; the node's own fold flag
// only hides its children, never the node itself.
func Visible(root *Node) []*Node {
	var out []*Node
	var visit func(*Node)
	visit = func(n *Node) {
		out = append(out, n)
		if n.Payload.Fold.IsFolded() {
			return
		}
		for _, c := range n.Children {
			visit(c)
		}
	}
	if root != nil {
		visit(root)
	}
	return out
}

// FindByID returns the node with the given State.ID, or nil. State.ID is the
// canonical node identity; the payload id from the source document is kept
// only as opaque data and is never used for lookups.
func FindByID(root *Node, id int) *Node {
	var found *Node
	Walk(root, func(n *Node) bool {
		if found != nil {
			return false
		}
		if n.State.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// Count returns the number of nodes reachable from n, folded or not.
func Count(n *Node) int {
	total := 0
	Walk(n, func(*Node) bool {
		total++
		return true
	})
	return total
}

// Hash returns a stable content hash for the whole tree: structure, content,
// and fold flags. Used as a cache key component by the pipeline.
func Hash(root *Node) string {
	h := sha256.New()
	Walk(root, func(n *Node) bool {
		h.Write([]byte(n.Content))
		h.Write([]byte{0})
		h.Write([]byte(strconv.Itoa(int(n.Payload.Fold))))
		h.Write([]byte{0})
		h.Write([]byte(strconv.Itoa(len(n.Children))))
		h.Write([]byte{1})
		return true
	})
	return hex.EncodeToString(h.Sum(nil))
}
