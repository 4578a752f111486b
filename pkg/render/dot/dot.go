// Package dot renders a mindmap through Graphviz as an alternate static
// backend: the visible tree is exported as DOT and laid out by the dot
// engine instead of the native layout. Useful for piping into other
// Graphviz tooling and for PNG output.
package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/SammySnake-d/markmap-sub002/pkg/errors"
	"github.com/SammySnake-d/markmap-sub002/pkg/mindmap"
	"github.com/SammySnake-d/markmap-sub002/pkg/tree"
)

// Options configures DOT export.
type Options struct {
	// Color picks the branch color per node; nil uses the default palette.
	Color func(*tree.Node) string
	// ShowFolded marks folded nodes with a dashed outline and a child count
	// suffix instead of hiding the marker entirely.
	ShowFolded bool
}

// ToDOT converts the visible part of the tree to Graphviz DOT format.
// The resulting string can be rendered with [RenderSVG] or [RenderPNG].
func ToDOT(root *tree.Node, opts Options) string {
	color := opts.Color
	if color == nil {
		color = mindmap.DefaultColor
	}

	var buf bytes.Buffer
	buf.WriteString("digraph mindmap {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [arrowhead=none];\n")
	buf.WriteString("\n")

	visible := tree.Visible(root)
	for _, n := range visible {
		label := n.Content
		style := "rounded,filled"
		if opts.ShowFolded && n.Folded() && n.HasChildren() {
			label = fmt.Sprintf("%s (+%d)", n.Content, tree.Count(n)-1)
			style = "rounded,filled,dashed"
		}
		fmt.Fprintf(&buf, "  %q [label=%q, color=%q, style=%q];\n",
			n.State.Key, label, color(n), style)
	}

	buf.WriteString("\n")
	for _, n := range visible {
		if n.Folded() {
			continue
		}
		for _, c := range n.Children {
			fmt.Fprintf(&buf, "  %q -> %q [color=%q];\n",
				n.State.Key, c.State.Key, color(c))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.SVG)
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderEncode, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderEncode, err, "render %s", format)
	}

	out := buf.Bytes()
	if format == graphviz.SVG {
		out = normalizeViewBox(out)
	}
	return out, nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites Graphviz's svg element so the viewBox starts at
// the origin and the pixel size matches it, which makes the output embed
// cleanly in the preview page.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
