package mindmap

import (
	"hash/fnv"
	"strings"
	"time"

	"github.com/SammySnake-d/markmap-sub002/pkg/layout"
	"github.com/SammySnake-d/markmap-sub002/pkg/tree"
	"github.com/SammySnake-d/markmap-sub002/pkg/view"
)

// Options contains all recognized engine configuration.
type Options struct {
	// Layout spacing (see the layout package for semantics).
	PaddingX          float64
	SpacingHorizontal float64
	SpacingVertical   float64

	// Duration is the suggested animation length for render drivers. The
	// core itself never sleeps; it only forwards the value.
	Duration time.Duration

	// FitRatio leaves a margin when fitting the diagram to the viewport.
	FitRatio float64
	// MaxInitialScale caps the zoom applied by the initial fit.
	MaxInitialScale float64

	// InitialExpandLevel folds everything deeper than this 1-based level at
	// load time; negative expands everything.
	InitialExpandLevel int

	// LineWidth optionally widens sibling gaps to keep connector lines
	// apart. Nil disables the allowance.
	LineWidth func(*tree.Node) float64
	// Color picks the branch color for a node. Nil uses the default
	// palette keyed by the node's path.
	Color func(*tree.Node) string
}

// DefaultOptions returns the engine defaults.
func DefaultOptions() Options {
	return Options{
		PaddingX:           layout.DefaultPaddingX,
		SpacingHorizontal:  layout.DefaultSpacingHorizontal,
		SpacingVertical:    layout.DefaultSpacingVertical,
		Duration:           500 * time.Millisecond,
		FitRatio:           view.DefaultFitRatio,
		MaxInitialScale:    2,
		InitialExpandLevel: -1,
	}
}

// layoutOptions projects the engine options onto the layout engine.
func (o Options) layoutOptions() layout.Options {
	return layout.Options{
		PaddingX:          o.PaddingX,
		SpacingHorizontal: o.SpacingHorizontal,
		SpacingVertical:   o.SpacingVertical,
		LineWidth:         o.LineWidth,
	}
}

// defaultPalette are the branch colors used when no Color option is given.
var defaultPalette = []string{
	"#4e79a7", "#f28e2c", "#e15759", "#76b7b2", "#59a14f",
	"#edc949", "#af7aa1", "#ff9da7", "#9c755f", "#bab0ab",
}

// DefaultColor assigns a stable color per top-level branch: every node under
// the same depth-2 ancestor shares a palette entry. The root gets the first
// color.
var DefaultColor = PaletteColor(defaultPalette)

// PaletteColor returns a color function over a custom palette, keyed the
// same way as DefaultColor. An empty palette falls back to the default one.
func PaletteColor(palette []string) func(*tree.Node) string {
	if len(palette) == 0 {
		palette = defaultPalette
	}
	return func(n *tree.Node) string {
		if n == nil {
			return palette[0]
		}
		parts := strings.SplitN(n.State.Path, ".", 3)
		if len(parts) < 2 {
			return palette[0]
		}
		h := fnv.New32a()
		h.Write([]byte(parts[1]))
		return palette[h.Sum32()%uint32(len(palette))]
	}
}

// ColorOf resolves a node's color through the options.
func (o Options) ColorOf(n *tree.Node) string {
	if o.Color != nil {
		return o.Color(n)
	}
	return DefaultColor(n)
}
