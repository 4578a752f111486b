// Package view maintains the pan/zoom transform applied to a rendered
// mindmap and computes fit, center-on-node, and soft-scroll transforms from
// layout geometry.
//
// The transform is a single affine layer on top of the layout's root-space
// coordinates: screen = world*K + (X, Y). All computations here are pure
// functions of (geometry, viewport, current transform); the controller only
// adds validation so a degenerate input can never leave the viewport on a
// NaN transform - it falls back to the last-known-good value instead.
package view

import (
	"math"

	"github.com/SammySnake-d/markmap-sub002/pkg/tree"
)

// DefaultFitRatio leaves a small margin around the fitted content.
const DefaultFitRatio = 0.95

// Transform is the pan (X, Y) and zoom (K) applied to the whole diagram.
type Transform struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	K float64 `json:"k"`
}

// Identity returns the neutral transform.
func Identity() Transform { return Transform{K: 1} }

// Valid reports whether every component is finite and the scale is positive.
func (t Transform) Valid() bool {
	for _, v := range []float64{t.X, t.Y, t.K} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return t.K > 0
}

// Apply maps a root-space point to screen space.
func (t Transform) Apply(x, y float64) (float64, float64) {
	return x*t.K + t.X, y*t.K + t.Y
}

// ApplyRect maps a root-space rect to screen space.
func (t Transform) ApplyRect(r tree.Rect) tree.Rect {
	x, y := t.Apply(r.X, r.Y)
	return tree.Rect{X: x, Y: y, Width: r.Width * t.K, Height: r.Height * t.K}
}

// Viewport is the pixel size of the drawing surface.
type Viewport struct {
	Width  float64
	Height float64
}

// Fit computes the transform that centers bounds in the viewport, scaled to
// fill it up to fitRatio. A non-positive maxScale means unclamped. Degenerate
// bounds (zero width or height) skip the scale computation and center at
// K = 1, so an empty tree or a single point can never divide by zero.
func Fit(bounds tree.Rect, vp Viewport, fitRatio, maxScale float64) Transform {
	if fitRatio <= 0 {
		fitRatio = DefaultFitRatio
	}

	k := 1.0
	if bounds.Width > 0 && bounds.Height > 0 {
		k = math.Min(vp.Width/bounds.Width, vp.Height/bounds.Height) * fitRatio
	}
	if maxScale > 0 && k > maxScale {
		k = maxScale
	}

	return Transform{
		X: vp.Width/2 - k*bounds.CenterX(),
		Y: vp.Height/2 - k*bounds.CenterY(),
		K: k,
	}
}

// CenterNode computes the pan that maps rect's center to the viewport center
// at the current scale. The scale is unchanged.
func CenterNode(rect tree.Rect, vp Viewport, current Transform) Transform {
	k := current.K
	if k <= 0 {
		k = 1
	}
	return Transform{
		X: vp.Width/2 - k*rect.CenterX(),
		Y: vp.Height/2 - k*rect.CenterY(),
		K: k,
	}
}

// EnsureVisible computes the minimal pan adjustment (per axis,
// independently) that brings rect back within padding of the viewport
// edges. A rect already inside returns the current transform unchanged -
// this is a soft scroll, not a re-center.
func EnsureVisible(rect tree.Rect, vp Viewport, current Transform, padding float64) Transform {
	t := current
	if t.K <= 0 {
		t.K = 1
	}
	onScreen := t.ApplyRect(rect)

	t.X += axisShift(onScreen.X, onScreen.Right(), vp.Width, padding)
	t.Y += axisShift(onScreen.Y, onScreen.Bottom(), vp.Height, padding)
	return t
}

// axisShift returns the minimal delta that moves the interval [lo, hi] to
// within padding of [0, extent]. When the interval cannot fit, the leading
// edge wins.
func axisShift(lo, hi, extent, padding float64) float64 {
	if hi > extent-padding {
		shift := extent - padding - hi
		// Never push the leading edge out while pulling the trailing one in.
		if lo+shift < padding {
			return padding - lo
		}
		return shift
	}
	if lo < padding {
		return padding - lo
	}
	return 0
}

// Controller owns the current transform and guards every update: an invalid
// computed transform (NaN pan, non-positive scale) is discarded and the
// last-known-good transform is kept.
type Controller struct {
	viewport Viewport
	current  Transform
	fitRatio float64
}

// NewController creates a controller with an identity transform.
func NewController(fitRatio float64) *Controller {
	if fitRatio <= 0 {
		fitRatio = DefaultFitRatio
	}
	return &Controller{current: Identity(), fitRatio: fitRatio}
}

// SetViewport records the drawing surface size. Typically called on resize,
// debounced by the caller.
func (c *Controller) SetViewport(width, height float64) {
	c.viewport = Viewport{Width: width, Height: height}
}

// Viewport returns the current drawing surface size.
func (c *Controller) Viewport() Viewport { return c.viewport }

// Current returns the active transform.
func (c *Controller) Current() Transform { return c.current }

// Fit fits bounds into the viewport and makes the result current.
func (c *Controller) Fit(bounds tree.Rect, maxScale float64) Transform {
	return c.commit(Fit(bounds, c.viewport, c.fitRatio, maxScale))
}

// CenterNode centers the given rect and makes the result current.
func (c *Controller) CenterNode(rect tree.Rect) Transform {
	return c.commit(CenterNode(rect, c.viewport, c.current))
}

// EnsureVisible soft-scrolls the given rect into view and makes the result
// current.
func (c *Controller) EnsureVisible(rect tree.Rect, padding float64) Transform {
	return c.commit(EnsureVisible(rect, c.viewport, c.current, padding))
}

// Pan shifts the current transform by the given screen-space delta.
func (c *Controller) Pan(dx, dy float64) Transform {
	t := c.current
	t.X += dx
	t.Y += dy
	return c.commit(t)
}

// Zoom multiplies the current scale by factor, keeping the given screen
// point fixed.
func (c *Controller) Zoom(factor, px, py float64) Transform {
	t := c.current
	t.X = px + (t.X-px)*factor
	t.Y = py + (t.Y-py)*factor
	t.K *= factor
	return c.commit(t)
}

func (c *Controller) commit(t Transform) Transform {
	if !t.Valid() {
		return c.current // keep last-known-good
	}
	c.current = t
	return t
}
