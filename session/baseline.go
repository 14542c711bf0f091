package session

import (
	"github.com/rezi-tui/rezi/constraint"
	"github.com/rezi-tui/rezi/instance"
	"github.com/rezi-tui/rezi/layout"
)

// frameBaseline implements constraint.Baseline over the previous committed
// frame: the prior layout tree supplies the "layout value" fallback, the
// measurer supplies "intrinsic" beneath that, and the current (this-frame)
// instance tree supplies display/parent lookups, which must reflect
// whatever just came out of commit rather than stale prior-frame identity.
//
// Grounded on the constraint package's own resolver_test.go mapBaseline —
// same four methods, backed by real tree indexes instead of test fixtures.
type frameBaseline struct {
	prevRects map[instance.ID]layout.Rect
	byID      map[instance.ID]*instance.Instance
	measurer  layout.Measurer
	viewportW int
}

func newFrameBaseline(prevTree *layout.Node, cur *instance.Instance, measurer layout.Measurer, viewportW int) *frameBaseline {
	b := &frameBaseline{
		prevRects: map[instance.ID]layout.Rect{},
		byID:      map[instance.ID]*instance.Instance{},
		measurer:  measurer,
		viewportW: viewportW,
	}
	indexLayoutRects(prevTree, b.prevRects)
	indexInstances(cur, b.byID)
	return b
}

func indexLayoutRects(n *layout.Node, out map[instance.ID]layout.Rect) {
	if n == nil {
		return
	}
	out[n.InstanceID] = n.Rect
	for _, c := range n.Children {
		indexLayoutRects(c, out)
	}
}

func indexInstances(in *instance.Instance, out map[instance.ID]*instance.Instance) {
	if in == nil {
		return
	}
	out[in.ID] = in
	for _, c := range in.Children {
		indexInstances(c, out)
	}
}

func (b *frameBaseline) Layout(id instance.ID, prop string) (float64, bool) {
	rect, ok := b.prevRects[id]
	if !ok {
		return 0, false
	}
	switch prop {
	case "width":
		return float64(rect.W), true
	case "height":
		return float64(rect.H), true
	}
	return 0, false
}

func (b *frameBaseline) Intrinsic(id instance.ID, prop string) (float64, bool) {
	in, ok := b.byID[id]
	if !ok || b.measurer == nil {
		return 0, false
	}
	w, h := b.measurer.Intrinsic(in, b.viewportW)
	switch prop {
	case "width":
		return float64(w), true
	case "height":
		return float64(h), true
	}
	return 0, false
}

func (b *frameBaseline) Display(id instance.ID) float64 {
	in, ok := b.byID[id]
	if !ok {
		return 1
	}
	switch v := in.VNode.Props["display"].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 1
}

func (b *frameBaseline) Parent(id instance.ID) (instance.ID, bool) {
	in, ok := b.byID[id]
	if !ok || in.Parent == nil {
		return 0, false
	}
	return in.Parent.ID, true
}

var _ constraint.Baseline = (*frameBaseline)(nil)
