package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/SammySnake-d/markmap-sub002/pkg/errors"
	"github.com/SammySnake-d/markmap-sub002/pkg/layout"
	"github.com/SammySnake-d/markmap-sub002/pkg/observability"
	"github.com/SammySnake-d/markmap-sub002/pkg/render/dot"
	"github.com/SammySnake-d/markmap-sub002/pkg/render/svg"
	"github.com/SammySnake-d/markmap-sub002/pkg/tree"
)

// layoutFrame is the JSON artifact: geometry keyed and ordered the way the
// diff engine sees it.
type layoutFrame struct {
	Keys   []string             `json:"keys"`
	Rects  map[string]tree.Rect `json:"rects"`
	Bounds tree.Rect            `json:"bounds"`
}

// RenderFromLayout renders all requested formats from a computed layout.
func RenderFromLayout(ctx context.Context, res layout.Result, root *tree.Node, opts Options) (map[string][]byte, error) {
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	artifacts := make(map[string][]byte, len(opts.Formats))
	var err error
	for _, format := range opts.Formats {
		var data []byte
		switch format {
		case FormatSVG:
			svgOpts := svg.DefaultOptions()
			svgOpts.Color = opts.Engine.Color
			data, err = svg.RenderBytes(res, svgOpts)
		case FormatDOT:
			data = []byte(dot.ToDOT(root, dot.Options{Color: opts.Engine.Color, ShowFolded: true}))
		case FormatPNG:
			data, err = dot.RenderPNG(ctx, dot.ToDOT(root, dot.Options{Color: opts.Engine.Color}))
		case FormatJSON:
			frame := layoutFrame{
				Keys:   make([]string, 0, len(res.Nodes)),
				Rects:  res.Rects,
				Bounds: res.Bounds,
			}
			for _, n := range res.Nodes {
				frame.Keys = append(frame.Keys, n.State.Key)
			}
			data, err = json.Marshal(frame)
			if err != nil {
				err = errors.Wrap(errors.ErrCodeRenderEncode, err, "marshal layout frame")
			}
		default:
			err = ValidateFormat(format)
		}
		if err != nil {
			observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
			return nil, err
		}
		artifacts[format] = data
	}

	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), nil)
	return artifacts, nil
}
