package view

import (
	"math"
	"testing"

	"github.com/SammySnake-d/markmap-sub002/pkg/tree"
)

func TestFit(t *testing.T) {
	vp := Viewport{Width: 800, Height: 600}

	tests := []struct {
		name     string
		bounds   tree.Rect
		maxScale float64
		wantK    float64
	}{
		{
			name:   "WideBox",
			bounds: tree.Rect{X: 0, Y: 0, Width: 400, Height: 100},
			wantK:  800.0 / 400 * DefaultFitRatio, // width-constrained
		},
		{
			name:   "TallBox",
			bounds: tree.Rect{X: 0, Y: 0, Width: 100, Height: 1200},
			wantK:  600.0 / 1200 * DefaultFitRatio, // height-constrained
		},
		{
			name:     "ClampedToMaxScale",
			bounds:   tree.Rect{X: 0, Y: 0, Width: 10, Height: 10},
			maxScale: 2,
			wantK:    2,
		},
		{
			name:   "DegenerateBox",
			bounds: tree.Rect{X: 50, Y: 50, Width: 0, Height: 0},
			wantK:  1, // scale computation skipped
		},
		{
			name:   "EmptyTree",
			bounds: tree.Rect{},
			wantK:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fit(tt.bounds, vp, 0, tt.maxScale)

			if !got.Valid() {
				t.Fatalf("invalid transform: %+v", got)
			}
			if math.Abs(got.K-tt.wantK) > 1e-9 {
				t.Errorf("K = %v, want %v", got.K, tt.wantK)
			}

			// The box center maps to the viewport center.
			cx, cy := got.Apply(tt.bounds.CenterX(), tt.bounds.CenterY())
			if math.Abs(cx-vp.Width/2) > 1e-9 || math.Abs(cy-vp.Height/2) > 1e-9 {
				t.Errorf("center maps to (%v, %v), want (%v, %v)", cx, cy, vp.Width/2, vp.Height/2)
			}
		})
	}
}

func TestFitIdempotent(t *testing.T) {
	vp := Viewport{Width: 800, Height: 600}
	bounds := tree.Rect{X: 10, Y: 20, Width: 300, Height: 200}

	first := Fit(bounds, vp, 0, 0)
	second := Fit(bounds, vp, 0, 0)
	if first != second {
		t.Errorf("fit is not idempotent: %+v vs %+v", first, second)
	}
}

func TestCenterNode(t *testing.T) {
	vp := Viewport{Width: 800, Height: 600}
	rect := tree.Rect{X: 100, Y: 200, Width: 40, Height: 20}
	current := Transform{X: -50, Y: 30, K: 2}

	got := CenterNode(rect, vp, current)

	if got.K != current.K {
		t.Errorf("K = %v, want unchanged %v", got.K, current.K)
	}
	cx, cy := got.Apply(rect.CenterX(), rect.CenterY())
	if math.Abs(cx-400) > 1e-9 || math.Abs(cy-300) > 1e-9 {
		t.Errorf("node center maps to (%v, %v), want (400, 300)", cx, cy)
	}
}

func TestEnsureVisible(t *testing.T) {
	vp := Viewport{Width: 800, Height: 600}
	id := Identity()

	tests := []struct {
		name    string
		rect    tree.Rect
		current Transform
		padding float64
		want    Transform
	}{
		{
			name:    "AlreadyVisible",
			rect:    tree.Rect{X: 100, Y: 100, Width: 50, Height: 20},
			current: id,
			padding: 10,
			want:    id,
		},
		{
			name:    "OffLeft",
			rect:    tree.Rect{X: -40, Y: 100, Width: 20, Height: 20},
			current: id,
			padding: 10,
			want:    Transform{X: 50, Y: 0, K: 1}, // left edge to x=10
		},
		{
			name:    "OffBottom",
			rect:    tree.Rect{X: 100, Y: 620, Width: 20, Height: 20},
			current: id,
			padding: 10,
			want:    Transform{X: 0, Y: -50, K: 1}, // bottom edge to y=590
		},
		{
			name:    "WithinPaddingBand",
			rect:    tree.Rect{X: 795, Y: 100, Width: 20, Height: 20},
			current: id,
			padding: 10,
			want:    Transform{X: -25, Y: 0, K: 1}, // right edge 815 -> 790
		},
		{
			name:    "BothAxes",
			rect:    tree.Rect{X: -30, Y: -30, Width: 20, Height: 20},
			current: id,
			padding: 10,
			want:    Transform{X: 40, Y: 40, K: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EnsureVisible(tt.rect, vp, tt.current, tt.padding)
			if got != tt.want {
				t.Errorf("EnsureVisible = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEnsureVisibleRespectsScale(t *testing.T) {
	vp := Viewport{Width: 800, Height: 600}
	current := Transform{X: 0, Y: 0, K: 2}
	// World x=-20 is screen x=-40 at K=2.
	rect := tree.Rect{X: -20, Y: 100, Width: 10, Height: 10}

	got := EnsureVisible(rect, vp, current, 10)
	sx := rect.X*got.K + got.X
	if math.Abs(sx-10) > 1e-9 {
		t.Errorf("left edge at %v, want padding 10", sx)
	}
}

func TestControllerLastKnownGood(t *testing.T) {
	c := NewController(0)
	c.SetViewport(800, 600)

	good := c.Fit(tree.Rect{X: 0, Y: 0, Width: 100, Height: 100}, 0)
	if !good.Valid() {
		t.Fatalf("fit produced invalid transform: %+v", good)
	}

	// A zero-size viewport would fit to K=0: the controller must refuse it
	// and keep the previous transform.
	c.SetViewport(0, 0)
	got := c.Fit(tree.Rect{X: 0, Y: 0, Width: 100, Height: 100}, 0)
	if got != good {
		t.Errorf("controller accepted a degenerate transform: %+v", got)
	}
	if c.Current() != good {
		t.Errorf("current = %+v, want last-known-good %+v", c.Current(), good)
	}
}

func TestControllerZoomKeepsAnchor(t *testing.T) {
	c := NewController(0)
	c.SetViewport(800, 600)

	// A world point at the anchor must stay put through a zoom.
	before := c.Current()
	wx := (400 - before.X) / before.K
	wy := (300 - before.Y) / before.K

	after := c.Zoom(1.5, 400, 300)
	ax, ay := after.Apply(wx, wy)
	if math.Abs(ax-400) > 1e-9 || math.Abs(ay-300) > 1e-9 {
		t.Errorf("anchor moved to (%v, %v), want (400, 300)", ax, ay)
	}
}

func TestTransformValid(t *testing.T) {
	tests := []struct {
		name string
		tr   Transform
		want bool
	}{
		{"Identity", Identity(), true},
		{"NaNPan", Transform{X: math.NaN(), K: 1}, false},
		{"InfPan", Transform{Y: math.Inf(1), K: 1}, false},
		{"ZeroScale", Transform{K: 0}, false},
		{"NegativeScale", Transform{K: -1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tr.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}
