package render

import (
	"github.com/rezi-tui/rezi/instance"
	"github.com/rezi-tui/rezi/layout"
)

// HitTestFocusable walks the tree depth-first-preorder, maintaining a
// clip stack, and returns the focusable instance under (x, y). Ties
// between overlapping focusable nodes are broken by last-in-preorder —
// a later sibling (or a nested descendant, visited after its ancestor)
// always overrides an earlier one at the same point, matching how the
// renderer itself draws later nodes on top.
func HitTestFocusable(in *instance.Instance, node *layout.Node, x, y int) (instance.ID, bool) {
	clip := layout.Rect{X: node.Rect.X, Y: node.Rect.Y, W: node.Rect.W, H: node.Rect.H}
	var found instance.ID
	var ok bool
	hitTestWalk(in, node, clip, x, y, &found, &ok)
	return found, ok
}

func hitTestWalk(in *instance.Instance, node *layout.Node, clip layout.Rect, x, y int, found *instance.ID, ok *bool) {
	if in == nil || node == nil {
		return
	}
	if !contains(clip, x, y) {
		return
	}

	childClip := clip
	if node.Overflow == layout.OverflowHidden || node.Overflow == layout.OverflowScroll {
		childClip = intersect(clip, node.ContentRect)
	}

	if in.VNode.Kind.Focusable() && contains(node.Rect, x, y) {
		*found = in.ID
		*ok = true
	}

	for i, childInst := range in.Children {
		if i >= len(node.Children) {
			break
		}
		hitTestWalk(childInst, node.Children[i], childClip, x, y, found, ok)
	}
}

func contains(r layout.Rect, x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}
