package mindmap

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/SammySnake-d/markmap-sub002/pkg/tree"
)

// Measurer reports the content box of a node before layout. Render drivers
// that can measure real glyph metrics should implement this; everything else
// uses the text measurer below.
type Measurer interface {
	Measure(n *tree.Node) (width, height float64)
}

// TextMeasurer estimates node sizes from the content string using terminal
// cell widths. Wide runes (CJK) count as two cells, matching how the TUI and
// SVG renderers draw them.
type TextMeasurer struct {
	// CharWidth is the pixel width of one terminal cell.
	CharWidth float64
	// LineHeight is the pixel height of one content line.
	LineHeight float64
	// PaddingX and PaddingY grow the box around the text.
	PaddingX float64
	PaddingY float64
}

// DefaultTextMeasurer returns the measurer used when no driver provides one.
func DefaultTextMeasurer() *TextMeasurer {
	return &TextMeasurer{CharWidth: 8, LineHeight: 20, PaddingX: 8, PaddingY: 2}
}

// Measure implements Measurer.
func (m *TextMeasurer) Measure(n *tree.Node) (float64, float64) {
	widest := 0
	lines := strings.Split(n.Content, "\n")
	for _, line := range lines {
		if w := runewidth.StringWidth(line); w > widest {
			widest = w
		}
	}
	w := float64(widest)*m.CharWidth + 2*m.PaddingX
	h := float64(len(lines))*m.LineHeight + 2*m.PaddingY
	return w, h
}
