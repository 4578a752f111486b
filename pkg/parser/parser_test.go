package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/SammySnake-d/markmap-sub002/pkg/errors"
	"github.com/SammySnake-d/markmap-sub002/pkg/tree"
)

const sampleDoc = `# Project

## Goals

- fast renders
- stable identity
  - keys survive toggles
  - content edits replace

## Risks <!-- fold -->

- scope creep

## Archive <!-- foldAll -->

- old plans
  - q1
`

func TestParseOutline(t *testing.T) {
	root, err := Parse([]byte(sampleDoc), "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if root.Content != "Project" {
		t.Errorf("root = %q, want Project (single H1 becomes root)", root.Content)
	}
	if len(root.Children) != 3 {
		t.Fatalf("sections = %d, want 3", len(root.Children))
	}

	goals := root.Children[0]
	if goals.Content != "Goals" || len(goals.Children) != 2 {
		t.Fatalf("goals = %q with %d children, want Goals with 2", goals.Content, len(goals.Children))
	}
	stable := goals.Children[1]
	if stable.Content != "stable identity" {
		t.Errorf("item = %q, want %q", stable.Content, "stable identity")
	}
	if len(stable.Children) != 2 {
		t.Errorf("nested items = %d, want 2", len(stable.Children))
	}
}

func TestParseFoldMarkers(t *testing.T) {
	root, err := Parse([]byte(sampleDoc), "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	risks := root.Children[1]
	if risks.Content != "Risks" {
		t.Errorf("content = %q, want Risks (marker stripped)", risks.Content)
	}
	if risks.Payload.Fold != tree.Folded {
		t.Errorf("risks fold = %d, want Folded", risks.Payload.Fold)
	}

	archive := root.Children[2]
	if archive.Payload.Fold != tree.FoldRecursively {
		t.Errorf("archive fold = %d, want FoldRecursively", archive.Payload.Fold)
	}
}

func TestParseListItemFold(t *testing.T) {
	doc := "# T\n\n- open\n- closed <!-- fold -->\n  - hidden\n"
	root, err := Parse([]byte(doc), "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(root.Children) != 2 {
		t.Fatalf("items = %d, want 2", len(root.Children))
	}
	closed := root.Children[1]
	if closed.Content != "closed" {
		t.Errorf("content = %q, want closed", closed.Content)
	}
	if closed.Payload.Fold != tree.Folded {
		t.Errorf("fold = %d, want Folded", closed.Payload.Fold)
	}
	if len(closed.Children) != 1 || closed.Children[0].Content != "hidden" {
		t.Errorf("children = %+v, want one item %q", closed.Children, "hidden")
	}
}

func TestParseMultipleTopSections(t *testing.T) {
	doc := "# One\n\n# Two\n"
	root, err := Parse([]byte(doc), "notes")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if root.Content != "notes" {
		t.Errorf("root = %q, want synthetic title", root.Content)
	}
	if len(root.Children) != 2 {
		t.Errorf("children = %d, want 2", len(root.Children))
	}
}

func TestParseHeadingLevelsSkip(t *testing.T) {
	// A level jump (h1 -> h3) still nests under the nearest shallower
	// heading, and a later h2 pops back up to the h1.
	doc := "# Top\n\n### Deep\n\n## Mid\n"
	root, err := Parse([]byte(doc), "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if root.Content != "Top" || len(root.Children) != 2 {
		t.Fatalf("root %q with %d children, want Top with 2", root.Content, len(root.Children))
	}
	if root.Children[0].Content != "Deep" || root.Children[1].Content != "Mid" {
		t.Errorf("children = %q, %q, want Deep, Mid", root.Children[0].Content, root.Children[1].Content)
	}
}

func TestParseInlineFormatting(t *testing.T) {
	doc := "# T\n\n- has **bold** and `code` text\n"
	root, err := Parse([]byte(doc), "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := root.Children[0].Content
	if got != "has bold and code text" {
		t.Errorf("content = %q, want plain text", got)
	}
}

func TestParseEmptyDocument(t *testing.T) {
	for _, doc := range []string{"", "just a paragraph\n", "```\ncode\n```\n"} {
		if _, err := Parse([]byte(doc), "t"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("Parse(%q) err = %v, want %s", doc, err, errors.ErrCodeInvalidFormat)
		}
	}
}

func TestParseLines(t *testing.T) {
	doc := "# Title\n\n## Section\n"
	root, err := Parse([]byte(doc), "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if root.Payload.Lines != [2]int{0, 1} {
		t.Errorf("title lines = %v, want [0, 1)", root.Payload.Lines)
	}
	if root.Children[0].Payload.Lines != [2]int{2, 3} {
		t.Errorf("section lines = %v, want [2, 3)", root.Children[0].Payload.Lines)
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.md")
	if err := os.WriteFile(path, []byte("# One\n\n# Two\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	root, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if root.Content != "plan" {
		t.Errorf("root = %q, want file base name", root.Content)
	}

	_, err = ParseFile(filepath.Join(dir, "missing.md"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("err = %v, want %s", err, errors.ErrCodeFileNotFound)
	}
}
