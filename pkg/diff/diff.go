// Package diff partitions the visible nodes of two consecutive renders into
// entering, updating, and exiting sets, and synthesizes the origin and
// destination geometry that lets newly revealed or newly hidden subtrees
// animate from and to their nearest surviving ancestor instead of popping.
//
// The partition is keyed by State.Key, so a content edit (which changes the
// key) deliberately shows up as an exit plus an enter while the surrounding
// sibling structure stays stable.
//
// Reconcile does all geometry synthesis once per render generation; render
// drivers replay the cached Change values every animation frame without
// recomputing ancestor lookups.
package diff

import (
	"strings"

	"github.com/SammySnake-d/markmap-sub002/pkg/layout"
	"github.com/SammySnake-d/markmap-sub002/pkg/tree"
)

// Frame is an immutable snapshot of one layout pass: placed rects keyed by
// node key, the key order (pre-order), and a path index for ancestor walks.
type Frame struct {
	// Generation is the render pass counter assigned by the owner.
	Generation uint64
	// Order lists keys in layout (pre-) order.
	Order []string
	// Rects maps key to placed rect.
	Rects map[string]tree.Rect
	// Bounds is the layout bounding box.
	Bounds tree.Rect

	paths  map[string]string // key -> path
	byPath map[string]string // path -> key
}

// NewFrame builds a frame from a layout result.
func NewFrame(generation uint64, res layout.Result) *Frame {
	f := &Frame{
		Generation: generation,
		Order:      make([]string, 0, len(res.Nodes)),
		Rects:      make(map[string]tree.Rect, len(res.Nodes)),
		Bounds:     res.Bounds,
		paths:      make(map[string]string, len(res.Nodes)),
		byPath:     make(map[string]string, len(res.Nodes)),
	}
	for _, n := range res.Nodes {
		key, path := n.State.Key, n.State.Path
		f.Order = append(f.Order, key)
		f.Rects[key] = res.Rects[key]
		f.paths[key] = path
		f.byPath[path] = key
	}
	return f
}

// Empty reports whether the frame holds no nodes (or is nil).
func (f *Frame) Empty() bool { return f == nil || len(f.Order) == 0 }

// Change is one animated element of a render transition.
type Change struct {
	Key string
	// From is the rect the element animates from: the previous rect for
	// updating/exiting nodes, a synthesized ancestor rect for entering ones.
	From tree.Rect
	// To is the rect the element animates to: the new rect for
	// entering/updating nodes, a synthesized ancestor rect for exiting ones.
	To tree.Rect
	// Snap marks a change whose geometry could not be synthesized (malformed
	// path); the driver should apply To immediately instead of animating.
	Snap bool
}

// Diff is the three-way partition of one render transition. The sets are
// pairwise disjoint; Entering+Updating covers the next frame exactly and
// Exiting+Updating covers the previous frame exactly.
type Diff struct {
	Generation uint64
	Entering   []Change
	Updating   []Change
	Exiting    []Change
}

// Counts returns the partition sizes, for logging and status lines.
func (d *Diff) Counts() (entering, updating, exiting int) {
	return len(d.Entering), len(d.Updating), len(d.Exiting)
}

// Reconcile computes the transition from prev to next. Either frame may be
// nil or empty: a nil prev makes everything enter (growing out of a zero
// rect), a nil next makes everything exit.
func Reconcile(prev, next *Frame) *Diff {
	d := &Diff{}
	if next != nil {
		d.Generation = next.Generation
	}

	// Next in layout order: enter or update.
	if next != nil {
		for _, key := range next.Order {
			to := next.Rects[key]
			if prev != nil {
				if from, ok := prev.Rects[key]; ok {
					d.Updating = append(d.Updating, Change{Key: key, From: from, To: to})
					continue
				}
			}
			from, snap := originRect(next.paths[key], prev)
			d.Entering = append(d.Entering, Change{Key: key, From: from, To: to, Snap: snap})
		}
	}

	// Previous-only keys: exit toward their surviving ancestor's new rect.
	if prev != nil {
		for _, key := range prev.Order {
			if next != nil {
				if _, ok := next.Rects[key]; ok {
					continue
				}
			}
			from := prev.Rects[key]
			to, snap := originRect(prev.paths[key], next)
			d.Exiting = append(d.Exiting, Change{Key: key, From: from, To: to, Snap: snap})
		}
	}

	return d
}

// originRect walks up the path chain looking for the nearest ancestor
// present in the reference frame. The fallbacks mirror the synthesis rules:
// no surviving ancestor falls back to the reference frame's bounding box,
// no reference frame at all falls back to the zero rect, and a malformed
// (empty) path degrades to a snap.
func originRect(path string, ref *Frame) (tree.Rect, bool) {
	if path == "" {
		return tree.Rect{}, true // malformed: no animation, just snap
	}
	if ref.Empty() {
		return tree.Rect{}, false
	}
	for p := parentPath(path); p != ""; p = parentPath(p) {
		if key, ok := ref.byPath[p]; ok {
			return ref.Rects[key], false
		}
	}
	return ref.Bounds, false
}

// parentPath strips the last ".id" segment of a dot-joined path. The root
// path has no parent and returns "".
func parentPath(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return ""
	}
	return path[:i]
}
