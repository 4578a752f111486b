// Package svg encodes a computed layout as a static SVG document: rounded
// node boxes, cubic connector links, and per-branch colors. The encoder is a
// pure function of the layout result; it never touches the tree's fold state
// beyond what the layout already selected.
package svg

import (
	"bytes"
	"fmt"
	"io"

	svg "github.com/ajstarks/svgo/float"

	"github.com/SammySnake-d/markmap-sub002/pkg/errors"
	"github.com/SammySnake-d/markmap-sub002/pkg/layout"
	"github.com/SammySnake-d/markmap-sub002/pkg/mindmap"
	"github.com/SammySnake-d/markmap-sub002/pkg/tree"
)

// Options configures the SVG encoder.
type Options struct {
	// Padding is the margin around the layout bounds.
	Padding float64
	// Background fills the canvas; empty leaves it transparent.
	Background string
	// FontFamily and FontSize style the node labels.
	FontFamily string
	FontSize   float64
	// LineWidth is the stroke width of boxes and links.
	LineWidth float64
	// Color picks the branch color per node; nil uses the default palette.
	Color func(*tree.Node) string
}

// DefaultOptions returns the encoder defaults.
func DefaultOptions() Options {
	return Options{
		Padding:    16,
		Background: "#ffffff",
		FontFamily: "sans-serif",
		FontSize:   13,
		LineWidth:  1.5,
	}
}

// Render encodes the layout to w.
func Render(w io.Writer, res layout.Result, opts Options) error {
	if opts.FontSize <= 0 {
		opts.FontSize = DefaultOptions().FontSize
	}
	if opts.LineWidth <= 0 {
		opts.LineWidth = DefaultOptions().LineWidth
	}
	color := opts.Color
	if color == nil {
		color = mindmap.DefaultColor
	}

	ew := &errWriter{w: w}
	canvas := svg.New(ew)

	width := res.Bounds.Width + 2*opts.Padding
	height := res.Bounds.Height + 2*opts.Padding
	dx := opts.Padding - res.Bounds.X
	dy := opts.Padding - res.Bounds.Y

	canvas.Start(width, height)
	if opts.Background != "" {
		canvas.Rect(0, 0, width, height, "fill:"+opts.Background)
	}

	// Links first so boxes draw over them.
	for _, n := range res.Nodes {
		for _, c := range n.Children {
			to, ok := res.Rects[c.State.Key]
			if !ok {
				continue // folded away
			}
			from := res.Rects[n.State.Key]
			drawLink(canvas, from, to, dx, dy, color(c), opts.LineWidth)
		}
	}

	for _, n := range res.Nodes {
		r := res.Rects[n.State.Key]
		drawNode(canvas, n, r, dx, dy, color(n), opts)
	}

	canvas.End()

	if ew.err != nil {
		return errors.Wrap(errors.ErrCodeRenderEncode, ew.err, "write svg")
	}
	return nil
}

// RenderBytes encodes the layout into a byte slice.
func RenderBytes(res layout.Result, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, res, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// drawLink draws a cubic bezier from the parent's right edge to the child's
// left edge, with horizontal control points at the gap midpoint.
func drawLink(canvas *svg.SVG, from, to tree.Rect, dx, dy float64, color string, width float64) {
	x1, y1 := from.Right()+dx, from.CenterY()+dy
	x2, y2 := to.X+dx, to.CenterY()+dy
	mx := (x1 + x2) / 2

	d := fmt.Sprintf("M %.2f %.2f C %.2f %.2f %.2f %.2f %.2f %.2f",
		x1, y1, mx, y1, mx, y2, x2, y2)
	canvas.Path(d, fmt.Sprintf("fill:none;stroke:%s;stroke-width:%.2f", color, width))
}

func drawNode(canvas *svg.SVG, n *tree.Node, r tree.Rect, dx, dy float64, color string, opts Options) {
	style := fmt.Sprintf("fill:#ffffff;stroke:%s;stroke-width:%.2f", color, opts.LineWidth)
	canvas.Roundrect(r.X+dx, r.Y+dy, r.Width, r.Height, 4, 4, style)

	textStyle := fmt.Sprintf("font-family:%s;font-size:%.1fpx;fill:#333333",
		opts.FontFamily, opts.FontSize)
	// Baseline roughly centers single-line labels in the box.
	canvas.Text(r.X+dx+6, r.CenterY()+dy+opts.FontSize/3, n.Content, textStyle)
}

// errWriter latches the first write error; svgo itself never reports them.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) Write(p []byte) (int, error) {
	if ew.err != nil {
		return 0, ew.err
	}
	n, err := ew.w.Write(p)
	if err != nil {
		ew.err = err
	}
	return n, err
}
