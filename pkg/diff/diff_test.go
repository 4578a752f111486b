package diff

import (
	"testing"

	"github.com/SammySnake-d/markmap-sub002/pkg/layout"
	"github.com/SammySnake-d/markmap-sub002/pkg/tree"
)

func buildTree(t *testing.T) *tree.Node {
	t.Helper()
	root, err := tree.Initialize(&tree.Input{
		Content: "root",
		Children: []*tree.Input{
			{Content: "a", Children: []*tree.Input{{Content: "a1"}, {Content: "a2"}}},
			{Content: "b", Children: []*tree.Input{{Content: "b1"}}},
		},
	}, tree.DefaultInitOptions())
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	tree.Walk(root, func(n *tree.Node) bool {
		n.State.Size = [2]float64{float64(10 * len(n.Content)), 20}
		return true
	})
	return root
}

func frame(gen uint64, root *tree.Node) *Frame {
	return NewFrame(gen, layout.Compute(root, layout.DefaultOptions()))
}

func keysOf(changes []Change) map[string]bool {
	m := make(map[string]bool, len(changes))
	for _, c := range changes {
		m[c.Key] = true
	}
	return m
}

func TestReconcileFoldScenario(t *testing.T) {
	root := buildTree(t)
	a := root.Children[0]

	prev := frame(1, root)
	tree.Toggle(a, false) // fold a: a1, a2 disappear
	next := frame(2, root)

	d := Reconcile(prev, next)

	if len(d.Entering) != 0 {
		t.Errorf("entering = %d, want 0", len(d.Entering))
	}

	exiting := keysOf(d.Exiting)
	if len(exiting) != 2 {
		t.Fatalf("exiting = %d, want 2 (a's children)", len(exiting))
	}
	for _, c := range a.Children {
		if !exiting[c.State.Key] {
			t.Errorf("missing %s from exiting set", c.Content)
		}
	}

	// a itself stays visible: it updates, it does not exit.
	updating := keysOf(d.Updating)
	if !updating[a.State.Key] {
		t.Error("folded node a should be in updating")
	}
	if exiting[a.State.Key] {
		t.Error("folded node a must not be in exiting")
	}

	// Exiting children collapse into a's new rect.
	for _, c := range d.Exiting {
		if c.To != next.Rects[a.State.Key] {
			t.Errorf("%s exits to %v, want a's rect %v", c.Key, c.To, next.Rects[a.State.Key])
		}
		if c.Snap {
			t.Errorf("%s should animate, not snap", c.Key)
		}
	}
}

func TestReconcileExpandOrigin(t *testing.T) {
	root := buildTree(t)
	a := root.Children[0]
	tree.Toggle(a, false) // start folded

	prev := frame(1, root)
	tree.Toggle(a, false) // expand: a1, a2 appear
	next := frame(2, root)

	d := Reconcile(prev, next)

	entering := keysOf(d.Entering)
	if len(entering) != 2 {
		t.Fatalf("entering = %d, want 2", len(entering))
	}

	// New nodes grow out of the rect a had in the previous render.
	aPrev := prev.Rects[a.State.Key]
	for _, c := range d.Entering {
		if c.From != aPrev {
			t.Errorf("%s enters from %v, want a's previous rect %v", c.Key, c.From, aPrev)
		}
	}
}

func TestReconcileFirstRender(t *testing.T) {
	root := buildTree(t)
	next := frame(1, root)

	d := Reconcile(nil, next)

	if len(d.Updating) != 0 || len(d.Exiting) != 0 {
		t.Errorf("first render: updating = %d, exiting = %d, want 0, 0",
			len(d.Updating), len(d.Exiting))
	}
	if len(d.Entering) != len(next.Order) {
		t.Errorf("entering = %d, want %d", len(d.Entering), len(next.Order))
	}
	// No previous render at all: origin is the zero rect, still animated.
	for _, c := range d.Entering {
		if !c.From.IsZero() {
			t.Errorf("%s enters from %v, want zero rect", c.Key, c.From)
		}
		if c.Snap {
			t.Errorf("%s should not snap on first render", c.Key)
		}
	}
}

func TestReconcileUnchanged(t *testing.T) {
	root := buildTree(t)
	prev := frame(1, root)
	next := frame(2, root)

	d := Reconcile(prev, next)

	if len(d.Entering) != 0 || len(d.Exiting) != 0 {
		t.Errorf("unchanged tree: entering = %d, exiting = %d, want 0, 0",
			len(d.Entering), len(d.Exiting))
	}
	if len(d.Updating) != len(next.Order) {
		t.Errorf("updating = %d, want %d", len(d.Updating), len(next.Order))
	}
	for _, c := range d.Updating {
		if c.From != c.To {
			t.Errorf("%s moved on an unchanged tree: %v -> %v", c.Key, c.From, c.To)
		}
	}
}

func TestReconcilePartitionLaws(t *testing.T) {
	root := buildTree(t)
	prev := frame(1, root)
	tree.Toggle(root.Children[0], false)
	tree.Toggle(root.Children[1], false)
	next := frame(2, root)

	d := Reconcile(prev, next)
	entering, updating, exiting := keysOf(d.Entering), keysOf(d.Updating), keysOf(d.Exiting)

	// entering ∪ updating == next
	for _, key := range next.Order {
		if !entering[key] && !updating[key] {
			t.Errorf("%s in next but in neither entering nor updating", key)
		}
	}
	// exiting ∪ updating == prev
	for _, key := range prev.Order {
		if !exiting[key] && !updating[key] {
			t.Errorf("%s in prev but in neither exiting nor updating", key)
		}
	}
	// pairwise disjoint
	for key := range entering {
		if updating[key] || exiting[key] {
			t.Errorf("%s appears in multiple partitions", key)
		}
	}
	for key := range updating {
		if exiting[key] {
			t.Errorf("%s appears in both updating and exiting", key)
		}
	}
	if got := len(entering) + len(updating); got != len(next.Order) {
		t.Errorf("entering+updating = %d, want %d", got, len(next.Order))
	}
	if got := len(exiting) + len(updating); got != len(prev.Order) {
		t.Errorf("exiting+updating = %d, want %d", got, len(prev.Order))
	}
}

func TestOriginRectMalformedPath(t *testing.T) {
	root := buildTree(t)
	ref := frame(1, root)

	rect, snap := originRect("", ref)
	if !snap {
		t.Error("empty path should degrade to snap")
	}
	if !rect.IsZero() {
		t.Errorf("snap rect = %v, want zero", rect)
	}
}

func TestOriginRectRootFallback(t *testing.T) {
	root := buildTree(t)
	ref := frame(1, root)

	// A path with no surviving ancestors in ref falls back to the bounds.
	rect, snap := originRect("999999.999998", ref)
	if snap {
		t.Error("unexpected snap for unknown-but-wellformed path")
	}
	if rect != ref.Bounds {
		t.Errorf("fallback rect = %v, want bounds %v", rect, ref.Bounds)
	}
}
