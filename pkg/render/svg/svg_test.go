package svg

import (
	"strings"
	"testing"

	"github.com/SammySnake-d/markmap-sub002/pkg/layout"
	"github.com/SammySnake-d/markmap-sub002/pkg/tree"
)

func computeLayout(t *testing.T, in *tree.Input) layout.Result {
	t.Helper()
	root, err := tree.Initialize(in, tree.DefaultInitOptions())
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	tree.Walk(root, func(n *tree.Node) bool {
		n.State.Size = [2]float64{float64(10 * len(n.Content)), 20}
		return true
	})
	return layout.Compute(root, layout.DefaultOptions())
}

func TestRenderDocument(t *testing.T) {
	res := computeLayout(t, &tree.Input{
		Content: "root",
		Children: []*tree.Input{
			{Content: "alpha"},
			{Content: "beta"},
		},
	})

	out, err := RenderBytes(res, DefaultOptions())
	if err != nil {
		t.Fatalf("RenderBytes: %v", err)
	}
	doc := string(out)

	if !strings.Contains(doc, "<svg") || !strings.Contains(doc, "</svg>") {
		t.Fatal("output is not an svg document")
	}
	for _, label := range []string{"root", "alpha", "beta"} {
		if !strings.Contains(doc, ">"+label+"<") {
			t.Errorf("missing label %q", label)
		}
	}

	// One box per node, one link per visible parent-child edge.
	if got := strings.Count(doc, "<rect"); got != 3+1 { // 3 boxes + background
		t.Errorf("rect count = %d, want 4", got)
	}
	if got := strings.Count(doc, "<path"); got != 2 {
		t.Errorf("path count = %d, want 2", got)
	}
}

func TestRenderSkipsFoldedSubtrees(t *testing.T) {
	in := &tree.Input{
		Content: "root",
		Children: []*tree.Input{
			{
				Content: "closed",
				Payload: tree.Payload{Fold: tree.Folded},
				Children: []*tree.Input{
					{Content: "hidden"},
				},
			},
		},
	}
	res := computeLayout(t, in)

	out, err := RenderBytes(res, DefaultOptions())
	if err != nil {
		t.Fatalf("RenderBytes: %v", err)
	}
	doc := string(out)

	if strings.Contains(doc, "hidden") {
		t.Error("folded node leaked into the output")
	}
	if got := strings.Count(doc, "<path"); got != 1 {
		t.Errorf("path count = %d, want 1 (root to closed only)", got)
	}
}

func TestRenderNoBackground(t *testing.T) {
	res := computeLayout(t, &tree.Input{Content: "solo"})

	opts := DefaultOptions()
	opts.Background = ""
	out, err := RenderBytes(res, opts)
	if err != nil {
		t.Fatalf("RenderBytes: %v", err)
	}

	// Only node boxes remain.
	if got := strings.Count(string(out), "<rect"); got != 1 {
		t.Errorf("rect count = %d, want 1", got)
	}
}

func TestRenderCustomColor(t *testing.T) {
	res := computeLayout(t, &tree.Input{Content: "solo"})

	opts := DefaultOptions()
	opts.Color = func(*tree.Node) string { return "#abcdef" }
	out, err := RenderBytes(res, opts)
	if err != nil {
		t.Fatalf("RenderBytes: %v", err)
	}
	if !strings.Contains(string(out), "#abcdef") {
		t.Error("custom color not applied")
	}
}
