package render

import (
	"testing"

	"github.com/rezi-tui/rezi/constraint"
	"github.com/rezi-tui/rezi/drawlist"
	"github.com/rezi-tui/rezi/instance"
	"github.com/rezi-tui/rezi/layout"
	"github.com/rezi-tui/rezi/vnode"
)

func commitTree(t *testing.T, n vnode.VNode) *instance.Instance {
	t.Helper()
	alloc := instance.NewAllocator()
	var live int64
	root, err := instance.Commit(nil, n, alloc, &live)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	return root
}

func layoutTree(t *testing.T, root *instance.Instance, w, h int) *layout.Node {
	t.Helper()
	g, err := constraint.Build(root)
	if err != nil {
		t.Fatalf("constraint.Build: %v", err)
	}
	resolver := constraint.NewResolver()
	resolved := resolver.Resolve(g, emptyBaseline{}, constraint.Metrics{W: float64(w), H: float64(h)}, constraint.Metrics{W: float64(w), H: float64(h)})
	node, err := layout.Layout(root, layout.Resolved(resolved), layout.TextMeasurer{}, 0, 0, w, h, layout.AxisColumn)
	if err != nil {
		t.Fatalf("layout.Layout: %v", err)
	}
	return node
}

type emptyBaseline struct{}

func (emptyBaseline) Layout(instance.ID, string) (float64, bool)    { return 0, false }
func (emptyBaseline) Intrinsic(instance.ID, string) (float64, bool) { return 0, false }
func (emptyBaseline) Display(instance.ID) float64                   { return 1 }
func (emptyBaseline) Parent(instance.ID) (instance.ID, bool)         { return 0, false }

func TestFullRepaintEmitsClearAndBalancedClips(t *testing.T) {
	tree := vnode.Column(nil,
		vnode.Box(map[string]interface{}{"width": 10, "height": 2, "bg": uint32(0x112233)},
			vnode.Text("hi", nil)),
	)
	root := commitTree(t, tree)
	node := layoutTree(t, root, 20, 10)

	b := drawlist.NewBuilder(drawlist.DefaultConfig())
	r := New()
	plan := Plan{Commit: true, Layout: true} // commit+layout without stability -> full repaint
	if err := r.RenderFrame(b, root, node, 20, 10, FocusState{}, plan, nil); err != nil {
		t.Fatalf("RenderFrame: %v", err)
	}
	buf, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v (clip stack likely unbalanced)", err)
	}
	dl, err := drawlist.Parse(buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if dl.Cmds[0].Op != drawlist.OpClear {
		t.Fatalf("full repaint must start with CLEAR, got %v", dl.Cmds[0].Op)
	}
}

func TestPartialCommitSkipsCleanSubtree(t *testing.T) {
	tree := vnode.Column(nil,
		vnode.Box(map[string]interface{}{"width": 10, "height": 2, "bg": uint32(0xaaaaaa)}),
	)
	root := commitTree(t, tree)
	node := layoutTree(t, root, 20, 10)
	root.MarkClean()
	for _, c := range root.Children {
		c.MarkClean()
	}

	b := drawlist.NewBuilder(drawlist.DefaultConfig())
	r := New()
	plan := Plan{Commit: true, Layout: true, CheckLayoutStability: true}
	if err := r.RenderFrame(b, root, node, 20, 10, FocusState{}, plan, nil); err != nil {
		t.Fatalf("RenderFrame: %v", err)
	}
	buf, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	dl, err := drawlist.Parse(buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for _, c := range dl.Cmds {
		if c.Op == drawlist.OpFillRect {
			t.Fatalf("expected clean subtree to be skipped in partial-commit mode, found FILL_RECT")
		}
	}
}

func TestHitTestFocusableTieBreaksLastInPreorder(t *testing.T) {
	tree := vnode.Column(nil,
		vnode.Leaf(vnode.KindButton, map[string]interface{}{"id": "first", "width": 10, "height": 1}),
	)
	root := commitTree(t, tree)
	// Overlap a second focusable button on top by laying out a fixed tree
	// by hand: two overlapping buttons at the same rect, later one wins.
	childA := root.Children[0]
	childB := &instance.Instance{ID: childA.ID + 100, VNode: vnode.New(vnode.KindButton, map[string]interface{}{"id": "second"})}
	root.Children = append(root.Children, childB)

	nodeA := &layout.Node{InstanceID: childA.ID, Rect: layout.Rect{X: 0, Y: 0, W: 10, H: 1}, ContentRect: layout.Rect{X: 0, Y: 0, W: 10, H: 1}}
	nodeB := &layout.Node{InstanceID: childB.ID, Rect: layout.Rect{X: 0, Y: 0, W: 10, H: 1}, ContentRect: layout.Rect{X: 0, Y: 0, W: 10, H: 1}}
	rootNode := &layout.Node{InstanceID: root.ID, Rect: layout.Rect{X: 0, Y: 0, W: 10, H: 1}, ContentRect: layout.Rect{X: 0, Y: 0, W: 10, H: 1}, Children: []*layout.Node{nodeA, nodeB}}

	id, ok := HitTestFocusable(root, rootNode, 2, 0)
	if !ok {
		t.Fatal("expected a hit")
	}
	if id != childB.ID {
		t.Fatalf("expected last-in-preorder (second) to win, got id %d want %d", id, childB.ID)
	}
}

func TestHitTestMissOutsideRect(t *testing.T) {
	tree := vnode.Leaf(vnode.KindButton, map[string]interface{}{"width": 5, "height": 1})
	root := commitTree(t, tree)
	node := &layout.Node{InstanceID: root.ID, Rect: layout.Rect{X: 0, Y: 0, W: 5, H: 1}, ContentRect: layout.Rect{X: 0, Y: 0, W: 5, H: 1}}
	if _, ok := HitTestFocusable(root, node, 100, 100); ok {
		t.Fatal("expected no hit far outside the rect")
	}
}
