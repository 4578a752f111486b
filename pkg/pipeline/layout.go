package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/SammySnake-d/markmap-sub002/pkg/layout"
	"github.com/SammySnake-d/markmap-sub002/pkg/mindmap"
	"github.com/SammySnake-d/markmap-sub002/pkg/observability"
	"github.com/SammySnake-d/markmap-sub002/pkg/tree"
)

// ComputeLayout measures the visible nodes and runs the layout engine.
func ComputeLayout(ctx context.Context, root *tree.Node, opts Options) layout.Result {
	visible := tree.Visible(root)
	observability.Pipeline().OnLayoutStart(ctx, len(visible))
	start := time.Now()

	measurer := mindmap.DefaultTextMeasurer()
	for _, n := range visible {
		w, h := measurer.Measure(n)
		n.State.Size = [2]float64{w, h}
	}

	res := layout.Compute(root, layout.Options{
		PaddingX:          opts.Engine.PaddingX,
		SpacingHorizontal: opts.Engine.SpacingHorizontal,
		SpacingVertical:   opts.Engine.SpacingVertical,
		LineWidth:         opts.Engine.LineWidth,
	})

	observability.Pipeline().OnLayoutComplete(ctx, time.Since(start), nil)
	return res
}

// cachedLayout is the serialized form of a layout result. Rects are stored
// in visible pre-order rather than keyed by node key: node keys embed
// process-unique ids and do not survive across runs, while the pre-order of
// a tree with the same hash does.
type cachedLayout struct {
	Rects  []tree.Rect `json:"rects"`
	Bounds tree.Rect   `json:"bounds"`
}

// marshalLayout serializes a layout result for caching.
func marshalLayout(res layout.Result) ([]byte, error) {
	c := cachedLayout{
		Rects:  make([]tree.Rect, 0, len(res.Nodes)),
		Bounds: res.Bounds,
	}
	for _, n := range res.Nodes {
		c.Rects = append(c.Rects, res.Rects[n.State.Key])
	}
	return json.Marshal(c)
}

// applyCachedLayout replays serialized rects onto the current tree's visible
// pre-order. It fails (by returning false) when the shape does not match,
// in which case the caller recomputes.
func applyCachedLayout(root *tree.Node, data []byte) (layout.Result, bool) {
	var c cachedLayout
	if err := json.Unmarshal(data, &c); err != nil {
		return layout.Result{}, false
	}

	visible := tree.Visible(root)
	if len(visible) != len(c.Rects) {
		return layout.Result{}, false
	}

	res := layout.Result{
		Rects:  make(map[string]tree.Rect, len(visible)),
		Nodes:  visible,
		Bounds: c.Bounds,
	}
	for i, n := range visible {
		n.State.Rect = c.Rects[i]
		res.Rects[n.State.Key] = c.Rects[i]
	}
	return res, true
}
