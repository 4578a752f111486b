// Package mindmap is the engine facade: one Mindmap owns one tree and
// coordinates measurement, layout, reconciliation, and the viewport
// transform into render frames that drivers consume.
//
// # Ownership
//
// Every node reachable from the root is owned by exactly one Mindmap. State
// is written in place during layout; callers mutate the tree only through
// the fold operations exposed here and then request a new render. The facade
// is not safe for concurrent use; wrap it in the caller's loop (the TUI
// model, the HTTP handler) instead of sharing it.
//
// # Render generations
//
// Each RenderData call is stamped with a monotonically increasing
// generation. A later call supersedes an earlier one wholesale; there is no
// queue of pending transitions. Drivers that are still animating an old
// generation should drop it when a newer frame arrives.
package mindmap

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/SammySnake-d/markmap-sub002/pkg/diff"
	"github.com/SammySnake-d/markmap-sub002/pkg/errors"
	"github.com/SammySnake-d/markmap-sub002/pkg/layout"
	"github.com/SammySnake-d/markmap-sub002/pkg/observability"
	"github.com/SammySnake-d/markmap-sub002/pkg/tree"
	"github.com/SammySnake-d/markmap-sub002/pkg/view"
)

// Frame is the complete output of one render pass.
type Frame struct {
	// Generation is the render pass counter; later frames supersede earlier
	// ones.
	Generation uint64
	// Layout holds the placed rects and the pre-order node list.
	Layout layout.Result
	// Diff is the transition from the previous committed frame.
	Diff *diff.Diff
	// Transform is the active pan/zoom at the time of the render.
	Transform view.Transform
}

// Driver consumes one change of a render transition. A driver error marks
// that element as failed; the engine logs it and moves on to the next
// element rather than aborting the pass.
type Driver interface {
	Apply(c diff.Change) error
}

// Mindmap owns a tree and turns fold and viewport operations into frames.
type Mindmap struct {
	opts     Options
	measurer Measurer
	logger   *log.Logger

	root       *tree.Node
	controller *view.Controller
	generation uint64
	prev       *diff.Frame
	fitted     bool
}

// New creates an engine with the given options. A nil measurer falls back to
// the text measurer.
func New(opts Options, measurer Measurer) *Mindmap {
	if measurer == nil {
		measurer = DefaultTextMeasurer()
	}
	return &Mindmap{
		opts:       opts,
		measurer:   measurer,
		logger:     log.Default(),
		controller: view.NewController(opts.FitRatio),
	}
}

// SetLogger replaces the engine logger.
func (m *Mindmap) SetLogger(logger *log.Logger) {
	if logger != nil {
		m.logger = logger
	}
}

// Options returns the engine options.
func (m *Mindmap) Options() Options { return m.opts }

// SetData loads a new dataset: the input is walked once, state is assigned,
// and the initial-expand level is applied. The previous committed frame is
// kept so the next render animates from the old dataset into the new one.
func (m *Mindmap) SetData(in *tree.Input) error {
	root, err := tree.Initialize(in, tree.InitOptions{
		InitialExpandLevel: m.opts.InitialExpandLevel,
	})
	if err != nil {
		return err
	}
	m.root = root
	return nil
}

// Root returns the owned root node, nil before the first SetData.
func (m *Mindmap) Root() *tree.Node { return m.root }

// SetViewport records the drawing surface size.
func (m *Mindmap) SetViewport(width, height float64) {
	m.controller.SetViewport(width, height)
}

// View exposes the transform controller for direct pan/zoom input.
func (m *Mindmap) View() *view.Controller { return m.controller }

// CalculateLayout measures and lays out the current tree without committing
// a frame. Repeated calls on an unchanged tree produce identical geometry.
func (m *Mindmap) CalculateLayout() (layout.Result, error) {
	if m.root == nil {
		return layout.Result{}, errors.New(errors.ErrCodeInvalidData, "no data loaded")
	}
	m.measure()
	return layout.Compute(m.root, m.opts.layoutOptions()), nil
}

// RenderData runs one full render pass: measure, layout, reconcile against
// the previously committed frame, and commit. The returned frame carries the
// transition the caller's driver should animate over Options.Duration.
func (m *Mindmap) RenderData() (*Frame, error) {
	start := time.Now()
	res, err := m.CalculateLayout()
	if err != nil {
		return nil, err
	}

	m.generation++
	next := diff.NewFrame(m.generation, res)
	d := diff.Reconcile(m.prev, next)
	m.prev = next

	entering, updating, exiting := d.Counts()
	observability.Engine().OnReconcile(context.Background(),
		m.generation, entering, updating, exiting, time.Since(start))
	m.logger.Debug("render pass",
		"generation", m.generation,
		"entering", entering, "updating", updating, "exiting", exiting)

	return &Frame{
		Generation: m.generation,
		Layout:     res,
		Diff:       d,
		Transform:  m.controller.Current(),
	}, nil
}

// Render runs a render pass and hands every change to the driver. A change
// the driver cannot apply is logged and skipped; the pass itself still
// succeeds.
func (m *Mindmap) Render(drv Driver) (*Frame, error) {
	f, err := m.RenderData()
	if err != nil {
		return nil, err
	}
	for _, set := range [][]diff.Change{f.Diff.Exiting, f.Diff.Updating, f.Diff.Entering} {
		for _, c := range set {
			if err := drv.Apply(c); err != nil {
				handoff := errors.Wrap(errors.ErrCodeRenderHandoff, err, "node %s", c.Key)
				m.logger.Warn("driver skipped element", "key", c.Key, "error", handoff)
			}
		}
	}
	return f, nil
}

// Toggle flips the fold state of a node. With recursive set, the new state
// is applied to the whole subtree.
func (m *Mindmap) Toggle(n *tree.Node, recursive bool) {
	tree.Toggle(n, recursive)
}

// ToggleByID flips the fold state of the node with the given id.
func (m *Mindmap) ToggleByID(id int, recursive bool) error {
	n := tree.FindByID(m.root, id)
	if n == nil {
		return errors.New(errors.ErrCodeNodeNotFound, "node %d", id)
	}
	tree.Toggle(n, recursive)
	return nil
}

// ExpandAll expands the subtree rooted at n, or the whole tree when n is nil.
func (m *Mindmap) ExpandAll(n *tree.Node) {
	if n == nil {
		n = m.root
	}
	tree.ExpandAll(n)
}

// CollapseAll folds the subtree rooted at n, or the whole tree when n is
// nil. The subtree root itself stays visible; only its descendants hide.
func (m *Mindmap) CollapseAll(n *tree.Node) {
	if n == nil {
		n = m.root
	}
	tree.CollapseAll(n)
}

// Fit centers the last committed layout in the viewport. The very first fit
// is clamped to Options.MaxInitialScale so a tiny map does not fill the
// screen at an absurd zoom; later fits are unclamped.
func (m *Mindmap) Fit() view.Transform {
	bounds := m.bounds()
	maxScale := 0.0
	if !m.fitted {
		maxScale = m.opts.MaxInitialScale
		m.fitted = true
	}
	return m.transformed("fit", m.controller.Fit(bounds, maxScale))
}

// CenterNode pans the viewport so the node's rect sits in the center,
// keeping the current zoom.
func (m *Mindmap) CenterNode(n *tree.Node) view.Transform {
	if n == nil {
		return m.controller.Current()
	}
	return m.transformed("center", m.controller.CenterNode(n.State.Rect))
}

// EnsureVisible scrolls the node's rect into view with the minimal pan.
func (m *Mindmap) EnsureVisible(n *tree.Node, padding float64) view.Transform {
	if n == nil {
		return m.controller.Current()
	}
	return m.transformed("ensure", m.controller.EnsureVisible(n.State.Rect, padding))
}

// transformed reports a committed transform to the engine hooks.
func (m *Mindmap) transformed(op string, t view.Transform) view.Transform {
	observability.Engine().OnTransform(context.Background(), op, t.X, t.Y, t.K)
	return t
}

// bounds returns the committed frame's bounding box, computing a layout on
// the fly when nothing has been rendered yet.
func (m *Mindmap) bounds() tree.Rect {
	if m.prev != nil {
		return m.prev.Bounds
	}
	res, err := m.CalculateLayout()
	if err != nil {
		return tree.Rect{}
	}
	return res.Bounds
}

// measure refreshes the content box of every visible node.
func (m *Mindmap) measure() {
	for _, n := range tree.Visible(m.root) {
		w, h := m.measurer.Measure(n)
		n.State.Size = [2]float64{w, h}
	}
}
