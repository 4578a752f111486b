// Package layout computes a collision-free 2-D arrangement for the visible
// nodes of a mindmap tree.
//
// The algorithm is a flextree-style bottom-up pass over a horizontal tree:
// depth grows rightward along the main (x) axis and siblings stack downward
// along the cross (y) axis. Every node reserves a rectangular slot sized to
// its content; a parent's slot spans its children's slots, and children are
// centered on the parent's cross-axis position. Each node is visited a
// constant number of times, so a pass is O(n) in the visible node count.
//
// The engine is the sole writer of Node.State.Rect. All coordinates are in
// root space; pan and zoom are applied later by the view transform.
package layout

import (
	"math"

	"github.com/SammySnake-d/markmap-sub002/pkg/tree"
)

// Default spacing constants, matching the rendered geometry of the SVG and
// DOT encoders.
const (
	DefaultPaddingX          = 8.0
	DefaultSpacingHorizontal = 80.0
	DefaultSpacingVertical   = 5.0
)

// Options configures a layout pass.
type Options struct {
	// PaddingX is the horizontal padding added on both sides of a node's
	// content box before the next depth level starts.
	PaddingX float64
	// SpacingHorizontal is the fixed gap between a node and its children
	// along the main axis.
	SpacingHorizontal float64
	// SpacingVertical is the cross-axis gap between same-parent siblings.
	// Subtrees whose adjacent boundary nodes have different parents get
	// twice this gap, which visually groups siblings and separates cousin
	// branches.
	SpacingVertical float64
	// LineWidth optionally widens the gap below a node's subtree to keep
	// connector lines from overlapping. Nil means no extra spacing.
	LineWidth func(*tree.Node) float64
}

// DefaultOptions returns the spacing defaults.
func DefaultOptions() Options {
	return Options{
		PaddingX:          DefaultPaddingX,
		SpacingHorizontal: DefaultSpacingHorizontal,
		SpacingVertical:   DefaultSpacingVertical,
	}
}

// Result is the output of a layout pass.
type Result struct {
	// Rects maps node keys to their placed rectangles.
	Rects map[string]tree.Rect
	// Nodes lists the visible nodes in pre-order, i.e. layout order.
	Nodes []*tree.Node
	// Bounds is the bounding box over all placed rects. Zero for an empty
	// tree.
	Bounds tree.Rect
}

// Compute lays out the visible subtree of root and writes each node's rect
// back to its state. A nil root yields an empty result; zero-size content
// collapses to zero-extent rects without dividing by zero.
func Compute(root *tree.Node, opts Options) Result {
	res := Result{Rects: make(map[string]tree.Rect)}
	if root == nil {
		return res
	}

	s := measure(root, opts)
	place(s, 0, 0, opts, &res)
	res.Bounds = boundsOf(res)
	return res
}

// slot is the reserved cross-axis interval for one node and its visible
// descendants.
type slot struct {
	node     *tree.Node
	extent   float64 // cross-axis span of the whole subtree
	children []*slot
}

// leaf reports whether the slot has no visible children (a true leaf or a
// folded node).
func (s *slot) leaf() bool { return len(s.children) == 0 }

// measure computes subtree extents bottom-up. A folded node contributes
// only its own content height; an expanded node spans its children plus
// spacing, never less than its own content box so the parent's rect cannot
// spill into a sibling slot.
func measure(n *tree.Node, opts Options) *slot {
	s := &slot{node: n}
	own := contentHeight(n)

	if n.Folded() || !n.HasChildren() {
		s.extent = own
		return s
	}

	s.children = make([]*slot, len(n.Children))
	total := 0.0
	for i, c := range n.Children {
		cs := measure(c, opts)
		s.children[i] = cs
		total += cs.extent
		if i > 0 {
			total += gap(s.children[i-1], cs, opts)
		}
	}
	s.extent = math.Max(total, own)
	return s
}

// gap returns the cross-axis spacing between two adjacent sibling subtrees.
// Two plain nodes (leaf slots) sit one SpacingVertical apart; as soon as
// either side carries descendants the boundary is between cousins, which get
// double spacing plus any connector-line allowance.
func gap(prev, next *slot, opts Options) float64 {
	g := opts.SpacingVertical
	if !prev.leaf() || !next.leaf() {
		g *= 2
	}
	if opts.LineWidth != nil {
		g += opts.LineWidth(prev.node)
	}
	return g
}

// place assigns rects top-down. x is the node's main-axis offset (the
// accumulated widths of its ancestors); top is the top edge of the node's
// slot. The node's own rect sits at the top of its slot, and the children
// block is centered on the slot's cross-axis midpoint.
func place(s *slot, x, top float64, opts Options, res *Result) {
	n := s.node
	rect := tree.Rect{
		X:      x,
		Y:      top,
		Width:  n.State.Size[0],
		Height: n.State.Size[1],
	}
	n.State.Rect = rect
	res.Rects[n.State.Key] = rect
	res.Nodes = append(res.Nodes, n)

	if s.leaf() {
		return
	}

	childX := x + n.State.Size[0] + 2*opts.PaddingX + opts.SpacingHorizontal

	childrenTotal := 0.0
	for i, cs := range s.children {
		childrenTotal += cs.extent
		if i > 0 {
			childrenTotal += gap(s.children[i-1], cs, opts)
		}
	}

	childTop := top + (s.extent-childrenTotal)/2
	for i, cs := range s.children {
		if i > 0 {
			childTop += gap(s.children[i-1], cs, opts)
		}
		place(cs, childX, childTop, opts, res)
		childTop += cs.extent
	}
}

// contentHeight returns the node's measured height, clamped to non-negative
// so a bad measurement cannot produce negative extents.
func contentHeight(n *tree.Node) float64 {
	if h := n.State.Size[1]; h > 0 {
		return h
	}
	return 0
}

// boundsOf derives the global bounding box from the placed rects.
func boundsOf(res Result) tree.Rect {
	if len(res.Nodes) == 0 {
		return tree.Rect{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, n := range res.Nodes {
		r := n.State.Rect
		minX = math.Min(minX, r.X)
		minY = math.Min(minY, r.Y)
		maxX = math.Max(maxX, r.Right())
		maxY = math.Max(maxY, r.Bottom())
	}
	return tree.Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
