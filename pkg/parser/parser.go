// Package parser builds mindmap input trees from markdown outlines.
//
// Headings form the upper levels of the tree (a level-3 heading nests under
// the nearest preceding level-2 heading) and list items nest below the
// heading they follow. Everything else in the document (paragraphs, code
// blocks, tables) is ignored.
//
// Fold markers are HTML comments attached to a heading or list item:
//
//	## Branch <!-- fold -->
//	- item <!-- foldAll -->
//
// `fold` folds the node itself, `foldAll` folds the whole subtree. The
// `markmap:` prefix form (`<!-- markmap: fold -->`) is accepted too.
package parser

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"

	"github.com/SammySnake-d/markmap-sub002/pkg/errors"
	"github.com/SammySnake-d/markmap-sub002/pkg/tree"
)

var foldRe = regexp.MustCompile(`(?i)<!--\s*(?:markmap:\s*)?fold(all)?\s*-->`)

// Parse builds an input tree from a markdown document. A document with
// exactly one top-level section uses that section as the root; otherwise the
// sections become children of a synthetic root named title.
func Parse(source []byte, title string) (*tree.Input, error) {
	doc := goldmark.New().Parser().Parse(gmtext.NewReader(source))
	b := &builder{source: source, lineStarts: lineStarts(source)}

	root := &tree.Input{Content: title}
	stack := []section{{level: 0, node: root}}

	for c := doc.FirstChild(); c != nil; c = c.NextSibling() {
		switch n := c.(type) {
		case *ast.Heading:
			item := b.heading(n)
			for len(stack) > 1 && stack[len(stack)-1].level >= n.Level {
				stack = stack[:len(stack)-1]
			}
			top := stack[len(stack)-1].node
			top.Children = append(top.Children, item)
			stack = append(stack, section{level: n.Level, node: item})
		case *ast.List:
			top := stack[len(stack)-1].node
			top.Children = append(top.Children, b.list(n)...)
		case *ast.HTMLBlock:
			// A standalone comment folds the section it follows.
			if len(stack) > 1 {
				if f := foldFlag(b.blockText(n)); f != tree.Expanded {
					stack[len(stack)-1].node.Payload.Fold = f
				}
			}
		}
	}

	if len(root.Children) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "no headings or list items found")
	}
	if len(root.Children) == 1 {
		return root.Children[0], nil
	}
	return root, nil
}

// ParseFile reads and parses a markdown file. The file's base name (without
// extension) becomes the root title when the document has multiple top-level
// sections.
func ParseFile(path string) (*tree.Input, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "%s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "%s", path)
	}

	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Parse(source, title)
}

type section struct {
	level int
	node  *tree.Input
}

type builder struct {
	source     []byte
	lineStarts []int
}

// heading converts a heading block into an input node.
func (b *builder) heading(n *ast.Heading) *tree.Input {
	return &tree.Input{
		Content: b.inlineText(n),
		Payload: tree.Payload{
			Fold:  b.inlineFold(n),
			Lines: b.blockLines(n),
		},
	}
}

// list converts a list block into a slice of sibling input nodes.
func (b *builder) list(n *ast.List) []*tree.Input {
	var out []*tree.Input
	for li := n.FirstChild(); li != nil; li = li.NextSibling() {
		item, ok := li.(*ast.ListItem)
		if !ok {
			continue
		}
		out = append(out, b.listItem(item))
	}
	return out
}

func (b *builder) listItem(li *ast.ListItem) *tree.Input {
	in := &tree.Input{}
	for c := li.FirstChild(); c != nil; c = c.NextSibling() {
		switch n := c.(type) {
		case *ast.TextBlock, *ast.Paragraph:
			if in.Content == "" {
				in.Content = b.inlineText(n)
				in.Payload.Fold = b.inlineFold(n)
				in.Payload.Lines = b.blockLines(n)
			}
		case *ast.List:
			in.Children = append(in.Children, b.list(n)...)
		}
	}
	return in
}

// inlineText collects the plain text of a block's inline children, skipping
// raw HTML (fold markers never become content).
func (b *builder) inlineText(n ast.Node) string {
	var sb strings.Builder
	var visit func(ast.Node)
	visit = func(n ast.Node) {
		switch t := n.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(b.source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(t.Value)
		case *ast.RawHTML:
			return
		default:
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				visit(c)
			}
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		visit(c)
	}
	return strings.TrimSpace(sb.String())
}

// inlineFold scans a block's inline raw HTML for a fold marker.
func (b *builder) inlineFold(n ast.Node) tree.Fold {
	fold := tree.Expanded
	var visit func(ast.Node)
	visit = func(n ast.Node) {
		if raw, ok := n.(*ast.RawHTML); ok {
			var sb strings.Builder
			for i := 0; i < raw.Segments.Len(); i++ {
				seg := raw.Segments.At(i)
				sb.Write(seg.Value(b.source))
			}
			if f := foldFlag(sb.String()); f != tree.Expanded {
				fold = f
			}
			return
		}
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			visit(c)
		}
	}
	visit(n)
	return fold
}

// blockText returns the raw source text of a block's lines.
func (b *builder) blockText(n ast.Node) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(b.source))
	}
	return sb.String()
}

// blockLines returns the [start, end) source line range of a block.
func (b *builder) blockLines(n ast.Node) [2]int {
	lines := n.Lines()
	if lines.Len() == 0 {
		return [2]int{}
	}
	start := b.lineAt(lines.At(0).Start)
	end := b.lineAt(lines.At(lines.Len()-1).Stop-1) + 1
	return [2]int{start, end}
}

// lineAt maps a byte offset to its 0-based line index.
func (b *builder) lineAt(offset int) int {
	return sort.Search(len(b.lineStarts), func(i int) bool {
		return b.lineStarts[i] > offset
	}) - 1
}

func lineStarts(source []byte) []int {
	starts := []int{0}
	for i, c := range source {
		if c == '\n' && i+1 < len(source) {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// foldFlag maps a fold marker comment to the payload flag.
func foldFlag(html string) tree.Fold {
	m := foldRe.FindStringSubmatch(html)
	if m == nil {
		return tree.Expanded
	}
	if m[1] != "" {
		return tree.FoldRecursively
	}
	return tree.Folded
}
