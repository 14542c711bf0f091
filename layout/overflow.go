package layout

import "github.com/rezi-tui/rezi/vnode"

// scrollInfoFor computes the content-vs-viewport extents for an
// overflow:scroll container from its laid-out children's rects (relative
// to content, so a child's extent is its offset plus its own size), and
// reserves one cell on the corresponding edge when content exceeds the
// viewport along that axis.
func scrollInfoFor(n vnode.VNode, content Rect, children []*Node, axis Axis) *ScrollInfo {
	contentW, contentH := content.W, content.H
	maxX, maxY := 0, 0
	for _, c := range children {
		right := c.Rect.X - content.X + c.Rect.W
		bottom := c.Rect.Y - content.Y + c.Rect.H
		if right > maxX {
			maxX = right
		}
		if bottom > maxY {
			maxY = bottom
		}
	}

	info := &ScrollInfo{
		ContentW:    maxX,
		ContentH:    maxY,
		ViewportW:   contentW,
		ViewportH:   contentH,
		ScrollTop:   scrollTopOf(n),
		ScrollLeft:  scrollLeftOf(n),
	}
	info.VBar = info.ContentH > info.ViewportH
	info.HBar = info.ContentW > info.ViewportW
	return info
}
