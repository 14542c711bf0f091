package session

import (
	"github.com/rezi-tui/rezi/instance"
	"github.com/rezi-tui/rezi/layout"
)

// computeOverlaps walks a frame's layout tree once and reports which
// absolutely-positioned instances overlap a scrolling container's content
// rect, so the renderer can suppress its scroll-copy blitRect fast path
// for them (an absolutely-positioned sibling isn't carried along by a
// blit the way normally-flowed content is).
//
// byID resolves a layout node's InstanceID back to its committed VNode
// for the "position" prop check, so the walk needs only the layout tree.
func computeOverlaps(tree *layout.Node, byID map[instance.ID]*instance.Instance) map[instance.ID]bool {
	var absolutes []*layout.Node
	var scrollers []*layout.Node
	collect(tree, byID, &absolutes, &scrollers)

	overlaps := map[instance.ID]bool{}
	for _, s := range scrollers {
		for _, a := range absolutes {
			if rectsIntersect(s.ContentRect, a.Rect) {
				overlaps[a.InstanceID] = true
			}
		}
	}
	return overlaps
}

func collect(node *layout.Node, byID map[instance.ID]*instance.Instance, absolutes, scrollers *[]*layout.Node) {
	if node == nil {
		return
	}
	if node.Overflow == layout.OverflowScroll {
		*scrollers = append(*scrollers, node)
	}
	if in := byID[node.InstanceID]; in != nil {
		if pos, _ := in.VNode.Props["position"].(string); pos == "absolute" {
			*absolutes = append(*absolutes, node)
		}
	}
	for _, child := range node.Children {
		collect(child, byID, absolutes, scrollers)
	}
}

func rectsIntersect(a, b layout.Rect) bool {
	if a.W <= 0 || a.H <= 0 || b.W <= 0 || b.H <= 0 {
		return false
	}
	return a.X < b.X+b.W && b.X < a.X+a.W && a.Y < b.Y+b.H && b.Y < a.Y+a.H
}
