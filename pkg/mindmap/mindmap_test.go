package mindmap

import (
	"strings"
	"testing"

	"github.com/SammySnake-d/markmap-sub002/pkg/diff"
	"github.com/SammySnake-d/markmap-sub002/pkg/errors"
	"github.com/SammySnake-d/markmap-sub002/pkg/tree"
)

func sampleInput() *tree.Input {
	return &tree.Input{
		Content: "root",
		Children: []*tree.Input{
			{Content: "a", Children: []*tree.Input{{Content: "a1"}, {Content: "a2"}}},
			{Content: "b", Children: []*tree.Input{{Content: "b1"}}},
		},
	}
}

func newLoaded(t *testing.T) *Mindmap {
	t.Helper()
	m := New(DefaultOptions(), nil)
	if err := m.SetData(sampleInput()); err != nil {
		t.Fatalf("SetData: %v", err)
	}
	m.SetViewport(800, 600)
	return m
}

func TestRenderDataGenerations(t *testing.T) {
	m := newLoaded(t)

	first, err := m.RenderData()
	if err != nil {
		t.Fatalf("RenderData: %v", err)
	}
	if first.Generation != 1 {
		t.Errorf("generation = %d, want 1", first.Generation)
	}
	entering, updating, exiting := first.Diff.Counts()
	if entering != 6 || updating != 0 || exiting != 0 {
		t.Errorf("first render counts = (%d, %d, %d), want (6, 0, 0)",
			entering, updating, exiting)
	}

	second, err := m.RenderData()
	if err != nil {
		t.Fatalf("RenderData: %v", err)
	}
	if second.Generation != 2 {
		t.Errorf("generation = %d, want 2", second.Generation)
	}
	entering, updating, exiting = second.Diff.Counts()
	if entering != 0 || updating != 6 || exiting != 0 {
		t.Errorf("unchanged render counts = (%d, %d, %d), want (0, 6, 0)",
			entering, updating, exiting)
	}
}

func TestRenderDataNoData(t *testing.T) {
	m := New(DefaultOptions(), nil)
	if _, err := m.RenderData(); !errors.Is(err, errors.ErrCodeInvalidData) {
		t.Errorf("err = %v, want %s", err, errors.ErrCodeInvalidData)
	}
}

func TestToggleProducesExits(t *testing.T) {
	m := newLoaded(t)
	if _, err := m.RenderData(); err != nil {
		t.Fatalf("RenderData: %v", err)
	}

	m.Toggle(m.Root().Children[0], false)
	f, err := m.RenderData()
	if err != nil {
		t.Fatalf("RenderData: %v", err)
	}
	_, _, exiting := f.Diff.Counts()
	if exiting != 2 {
		t.Errorf("exiting = %d, want 2", exiting)
	}
}

func TestToggleByID(t *testing.T) {
	m := newLoaded(t)
	a := m.Root().Children[0]

	if err := m.ToggleByID(a.State.ID, false); err != nil {
		t.Fatalf("ToggleByID: %v", err)
	}
	if !a.Folded() {
		t.Error("node not folded after toggle")
	}

	err := m.ToggleByID(-1, false)
	if !errors.Is(err, errors.ErrCodeNodeNotFound) {
		t.Errorf("err = %v, want %s", err, errors.ErrCodeNodeNotFound)
	}
}

type recordingDriver struct {
	applied  []string
	failKeys map[string]bool
}

func (d *recordingDriver) Apply(c diff.Change) error {
	if d.failKeys[c.Key] {
		return errors.New(errors.ErrCodeRenderHandoff, "element not mounted")
	}
	d.applied = append(d.applied, c.Key)
	return nil
}

func TestRenderSkipsFailedElements(t *testing.T) {
	m := newLoaded(t)
	first, err := m.RenderData()
	if err != nil {
		t.Fatalf("RenderData: %v", err)
	}
	badKey := first.Layout.Nodes[1].State.Key

	drv := &recordingDriver{failKeys: map[string]bool{badKey: true}}
	f, err := m.Render(drv)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	total := len(f.Diff.Entering) + len(f.Diff.Updating) + len(f.Diff.Exiting)
	if len(drv.applied) != total-1 {
		t.Errorf("applied = %d, want %d (one skipped)", len(drv.applied), total-1)
	}
	for _, key := range drv.applied {
		if key == badKey {
			t.Error("failed element was applied anyway")
		}
	}
}

func TestFitInitialScaleClamp(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxInitialScale = 1.5
	m := New(opts, nil)
	if err := m.SetData(&tree.Input{Content: "x"}); err != nil {
		t.Fatalf("SetData: %v", err)
	}
	m.SetViewport(800, 600)
	if _, err := m.RenderData(); err != nil {
		t.Fatalf("RenderData: %v", err)
	}

	// One tiny node would fit at a huge zoom; the first fit is clamped.
	first := m.Fit()
	if first.K > opts.MaxInitialScale {
		t.Errorf("initial fit K = %v, want <= %v", first.K, opts.MaxInitialScale)
	}

	// Later fits are interactive and unclamped.
	second := m.Fit()
	if second.K <= opts.MaxInitialScale {
		t.Errorf("second fit K = %v, want > %v (unclamped)", second.K, opts.MaxInitialScale)
	}
}

func TestCenterAndEnsureVisibleNilNode(t *testing.T) {
	m := newLoaded(t)
	current := m.View().Current()
	if got := m.CenterNode(nil); got != current {
		t.Errorf("CenterNode(nil) = %+v, want current %+v", got, current)
	}
	if got := m.EnsureVisible(nil, 10); got != current {
		t.Errorf("EnsureVisible(nil) = %+v, want current %+v", got, current)
	}
}

func TestTextMeasurer(t *testing.T) {
	meas := DefaultTextMeasurer()

	tests := []struct {
		name    string
		content string
		wantW   float64
		wantH   float64
	}{
		{"Ascii", "hello", 5*8 + 16, 20 + 4},
		{"WideRunes", "日本語", 6*8 + 16, 20 + 4},
		{"TwoLines", "short\nlonger line", 11*8 + 16, 2*20 + 4},
		{"Empty", "", 16, 24},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &tree.Node{Content: tt.content}
			w, h := meas.Measure(n)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("Measure = (%v, %v), want (%v, %v)", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestDefaultColorPerBranch(t *testing.T) {
	m := newLoaded(t)
	root := m.Root()
	a, b := root.Children[0], root.Children[1]

	if got := DefaultColor(root); !strings.HasPrefix(got, "#") {
		t.Errorf("root color = %q, want a hex color", got)
	}
	// Nodes under the same branch share a color.
	if DefaultColor(a) != DefaultColor(a.Children[0]) {
		t.Error("branch child has a different color than its branch root")
	}
	if DefaultColor(a) != DefaultColor(a.Children[1]) {
		t.Error("branch children disagree on color")
	}
	_ = b // branches may collide in a small palette; only cohesion is checked
}
