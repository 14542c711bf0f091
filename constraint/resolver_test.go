package constraint

import (
	"testing"

	"github.com/rezi-tui/rezi/instance"
	"github.com/rezi-tui/rezi/vnode"
)

// mapBaseline is a fixed, in-memory Baseline for resolver tests.
type mapBaseline struct {
	layout    map[instance.ID]map[string]float64
	intrinsic map[instance.ID]map[string]float64
	display   map[instance.ID]float64
	parent    map[instance.ID]instance.ID
}

func newMapBaseline() *mapBaseline {
	return &mapBaseline{
		layout:    map[instance.ID]map[string]float64{},
		intrinsic: map[instance.ID]map[string]float64{},
		display:   map[instance.ID]float64{},
		parent:    map[instance.ID]instance.ID{},
	}
}

func (b *mapBaseline) Layout(id instance.ID, prop string) (float64, bool) {
	v, ok := b.layout[id][prop]
	return v, ok
}
func (b *mapBaseline) Intrinsic(id instance.ID, prop string) (float64, bool) {
	v, ok := b.intrinsic[id][prop]
	return v, ok
}
func (b *mapBaseline) Display(id instance.ID) float64 {
	if v, ok := b.display[id]; ok {
		return v
	}
	return 1
}
func (b *mapBaseline) Parent(id instance.ID) (instance.ID, bool) {
	p, ok := b.parent[id]
	return p, ok
}

func TestAggregationSumsOverSharedWidgetID(t *testing.T) {
	tree := vnode.Row(nil,
		vnode.Box(map[string]interface{}{"id": "item", "width": "10+0"}),
		vnode.Box(map[string]interface{}{"id": "item", "width": "20+0"}),
		vnode.Box(map[string]interface{}{"width": "sum_sibling(#item)"}),
	)
	root := commitTree(t, tree)
	g, err := Build(root)
	if err != nil {
		t.Fatal(err)
	}
	r := NewResolver()
	results := r.Resolve(g, newMapBaseline(), Metrics{W: 80, H: 24}, Metrics{W: 80, H: 24})
	total := root.Children[2].ID
	if got := results[NodeKey{InstanceID: total, Prop: "width"}]; got != 30 {
		t.Fatalf("sum_sibling got %v want 30", got)
	}
}

func TestHiddenNodeContributesZeroToAggregation(t *testing.T) {
	tree := vnode.Row(nil,
		vnode.Box(map[string]interface{}{"id": "item", "width": "10+0", "display": "1-1"}),
		vnode.Box(map[string]interface{}{"id": "item", "width": "20+0"}),
		vnode.Box(map[string]interface{}{"width": "sum_sibling(#item)"}),
	)
	root := commitTree(t, tree)
	g, err := Build(root)
	if err != nil {
		t.Fatal(err)
	}
	r := NewResolver()
	results := r.Resolve(g, newMapBaseline(), Metrics{W: 80, H: 24}, Metrics{W: 80, H: 24})
	total := root.Children[2].ID
	if got := results[NodeKey{InstanceID: total, Prop: "width"}]; got != 20 {
		t.Fatalf("hidden sibling should contribute 0, got %v want 20", got)
	}
}

func TestParentScopeOfRootReadsRootParentMetrics(t *testing.T) {
	tree := vnode.Box(map[string]interface{}{"width": "parent.w - 4"})
	root := commitTree(t, tree)
	g, err := Build(root)
	if err != nil {
		t.Fatal(err)
	}
	r := NewResolver()
	results := r.Resolve(g, newMapBaseline(), Metrics{W: 80, H: 24}, Metrics{W: 80, H: 24})
	if got := results[NodeKey{InstanceID: root.ID, Prop: "width"}]; got != 76 {
		t.Fatalf("root's parent.w should fall back to the supplied root parent metrics, got %v", got)
	}
}

func TestDirectWidgetRefEdgeOrdersBeforeDependent(t *testing.T) {
	tree := vnode.Row(nil,
		vnode.Box(map[string]interface{}{"id": "base", "width": "12+0"}),
		vnode.Box(map[string]interface{}{"width": "#base.w + 3"}),
	)
	root := commitTree(t, tree)
	g, err := Build(root)
	if err != nil {
		t.Fatal(err)
	}
	r := NewResolver()
	results := r.Resolve(g, newMapBaseline(), Metrics{W: 80, H: 24}, Metrics{W: 80, H: 24})
	dependent := root.Children[1].ID
	if got := results[NodeKey{InstanceID: dependent, Prop: "width"}]; got != 15 {
		t.Fatalf("got %v want 15", got)
	}
}

func TestResultCachedByFingerprintAndViewport(t *testing.T) {
	root := commitTree(t, vnode.Box(map[string]interface{}{"width": "viewport.w"}))
	g, err := Build(root)
	if err != nil {
		t.Fatal(err)
	}
	r := NewResolver()
	first := r.Resolve(g, newMapBaseline(), Metrics{W: 80, H: 24}, Metrics{W: 80, H: 24})
	second := r.Resolve(g, newMapBaseline(), Metrics{W: 80, H: 24}, Metrics{W: 80, H: 24})
	if first[NodeKey{InstanceID: root.ID, Prop: "width"}] != second[NodeKey{InstanceID: root.ID, Prop: "width"}] {
		t.Fatal("cached resolve should be stable across calls with identical keys")
	}
}
