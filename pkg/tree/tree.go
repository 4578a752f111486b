// Package tree implements the mindmap node model: the recursive node type,
// its fold-state payload, and the derived per-node state (id, depth, path,
// key, size, rect) assigned by the one-time initialization walk.
//
// The tree is an owned, mutable structure. Fold toggles and content edits
// mutate nodes in place so that node identity (State.ID) survives re-renders;
// the diff engine relies on this to keep unchanged nodes stable across
// layout passes. Folding never deletes structure - a folded node keeps its
// subtree in memory and only drops out of the visible-node selection.
//
// Coordinates stored in State.Rect are always in root space (pre-pan/zoom).
// The rect is written exclusively by the layout engine; every other package
// only reads it.
package tree

import (
	"crypto/sha256"
	"encoding/hex"
	"sync/atomic"
)

// Fold is the tri-state fold flag carried in a node's payload.
type Fold int

const (
	// Expanded means the node's children participate in layout.
	Expanded Fold = 0
	// Folded means the node's children are hidden from layout but kept in
	// the tree.
	Folded Fold = 1
	// FoldRecursively is an initializer-only marker: during the init walk it
	// is consumed and converted into a cascade of Folded flags over the
	// subtree. It never survives initialization.
	FoldRecursively Fold = 2
)

// IsFolded reports whether the flag hides children (Folded or the
// not-yet-consumed FoldRecursively marker).
func (f Fold) IsFolded() bool { return f != Expanded }

// Payload carries user-authored per-node data from the parser.
type Payload struct {
	// Fold is the requested fold state (0/1/2).
	Fold Fold `json:"fold,omitempty" toml:"fold"`
	// Lines is the [start, end) source line range of the node's content,
	// when the parser provides it.
	Lines [2]int `json:"lines,omitempty" toml:"lines"`
	// ID is a document-supplied identifier. It is a legacy alias kept as
	// opaque data; the engine matches nodes only by State.ID and State.Key.
	ID string `json:"id,omitempty" toml:"id"`
}

// Input is the pure node shape supplied by parsers and other tree builders:
// content, children, and payload only. Initialize converts an Input tree
// into a Node tree with derived state.
type Input struct {
	Content  string   `json:"content"`
	Payload  Payload  `json:"payload,omitempty"`
	Children []*Input `json:"children,omitempty"`
}

// Rect is an axis-aligned rectangle in root coordinate space.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// CenterX returns the horizontal center point.
func (r Rect) CenterX() float64 { return r.X + r.Width/2 }

// CenterY returns the vertical center point.
func (r Rect) CenterY() float64 { return r.Y + r.Height/2 }

// IsZero reports whether the rect is the zero rectangle.
func (r Rect) IsZero() bool {
	return r.X == 0 && r.Y == 0 && r.Width == 0 && r.Height == 0
}

// State is the derived, engine-owned node state. It is created once per
// dataset load by Initialize and must not be re-created for surviving nodes.
type State struct {
	// ID is a process-unique integer assigned by the init walk. It is
	// assigned once and never reassigned for the lifetime of the node.
	ID int
	// Depth is the 1-based nesting level at initialization time.
	Depth int
	// Path is the dot-joined ancestor-id chain, e.g. "1.3.7". Used for
	// stable color assignment and for ancestor lookups in the diff engine.
	Path string
	// Key is Path plus a content hash. It changes when content changes,
	// deliberately making the diff engine treat content-edited nodes as
	// replaced while sibling structure stays stable.
	Key string
	// Size is the externally measured content box [width, height].
	// [0, 0] until first measured.
	Size [2]float64
	// Rect is the last layout rectangle, owned by the layout engine.
	Rect Rect
}

// Node is an initialized mindmap node.
type Node struct {
	Content  string
	Payload  Payload
	Children []*Node
	State    State
}

// HasChildren reports whether the node has any children, visible or not.
func (n *Node) HasChildren() bool { return len(n.Children) > 0 }

// Folded reports whether the node currently hides its children.
func (n *Node) Folded() bool { return n.Payload.Fold.IsFolded() }

// idCounter provides process-unique node ids across all trees.
var idCounter atomic.Int64

func nextID() int { return int(idCounter.Add(1)) }

// contentHash returns a short stable hash of the node content. The full
// digest is truncated: the key only has to be unique among siblings under
// the same parent path.
func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:4])
}

// KeyFor computes the identity key for a path and content pair. Exposed so
// tests and render drivers can predict keys without walking node state.
func KeyFor(path, content string) string {
	return path + ":" + contentHash(content)
}
