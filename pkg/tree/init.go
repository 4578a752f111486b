package tree

import (
	"fmt"
	"strconv"

	"github.com/SammySnake-d/markmap-sub002/pkg/errors"
)

// InitOptions configures the one-time initialization walk.
type InitOptions struct {
	// InitialExpandLevel folds every node deeper than the given 1-based
	// level at load time. Negative means fully expanded. Level 1 shows the
	// root and its direct children.
	InitialExpandLevel int
}

// DefaultInitOptions returns the options used when none are supplied.
func DefaultInitOptions() InitOptions {
	return InitOptions{InitialExpandLevel: -1}
}

// Initialize converts a parser-supplied Input tree into an initialized Node
// tree: it assigns process-unique ids, depths, paths, and identity keys, and
// consumes FoldRecursively markers by cascading Folded flags over their
// subtrees.
//
// The walk aborts with an INVALID_DATA error if the input contains a cycle
// (the same Input reachable twice) - this is the only fatal structural
// check; geometric edge cases are handled later by the layout guards.
func Initialize(in *Input, opts InitOptions) (*Node, error) {
	if in == nil {
		return nil, errors.New(errors.ErrCodeInvalidData, "nil root node")
	}
	w := &initWalk{
		opts:    opts,
		visited: make(map[*Input]bool),
	}
	return w.walk(in, 1, "", 0)
}

// initWalk carries the mutable state of a single initialization pass.
type initWalk struct {
	opts    InitOptions
	visited map[*Input]bool
}

// walk initializes one node. foldDepth counts the enclosing recursive-fold
// regions: a FoldRecursively marker opens a region for its descendants, and
// a nested marker starts its own region rather than being swallowed by the
// outer one.
func (w *initWalk) walk(in *Input, depth int, parentPath string, foldDepth int) (*Node, error) {
	if w.visited[in] {
		return nil, errors.New(errors.ErrCodeInvalidData,
			"cycle detected at %q (depth %d)", truncate(in.Content, 40), depth)
	}
	w.visited[in] = true

	id := nextID()
	path := strconv.Itoa(id)
	if parentPath != "" {
		path = parentPath + "." + path
	}

	n := &Node{
		Content: in.Content,
		Payload: in.Payload,
		State: State{
			ID:    id,
			Depth: depth,
			Path:  path,
			Key:   KeyFor(path, in.Content),
		},
	}

	childFoldDepth := foldDepth
	switch {
	case in.Payload.Fold == FoldRecursively:
		// Consume the marker: this node folds and starts a region.
		n.Payload.Fold = Folded
		childFoldDepth++
	case foldDepth > 0:
		n.Payload.Fold = Folded
	case w.opts.InitialExpandLevel >= 0 && depth > w.opts.InitialExpandLevel && len(in.Children) > 0:
		n.Payload.Fold = Folded
	}

	if len(in.Children) > 0 {
		n.Children = make([]*Node, 0, len(in.Children))
		for i, c := range in.Children {
			if c == nil {
				return nil, errors.New(errors.ErrCodeInvalidData,
					"nil child %d under %q", i, truncate(in.Content, 40))
			}
			child, err := w.walk(c, depth+1, path, childFoldDepth)
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, child)
		}
	}

	return n, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...", s[:n])
}
