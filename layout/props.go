package layout

import "github.com/rezi-tui/rezi/vnode"

func axisOf(n vnode.VNode) Axis {
	if n.Kind == vnode.KindRow {
		return AxisRow
	}
	return AxisColumn
}

func overflowOf(n vnode.VNode) Overflow {
	s, _ := n.Props["overflow"].(string)
	switch s {
	case "hidden":
		return OverflowHidden
	case "scroll":
		return OverflowScroll
	default:
		return OverflowVisible
	}
}

func intProp(n vnode.VNode, key string) int {
	switch v := n.Props[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func gapOf(n vnode.VNode) int {
	if g, ok := n.Props["gap"]; ok {
		return intFrom(g)
	}
	return 0
}

func intFrom(v interface{}) int {
	switch x := v.(type) {
	case int:
		return x
	case int32:
		return int(x)
	case int64:
		return int(x)
	case float64:
		return int(x)
	}
	return 0
}

func alignOf(n vnode.VNode) Align {
	switch s, _ := n.Props["align"].(string); s {
	case "center":
		return AlignCenter
	case "end":
		return AlignEnd
	case "stretch":
		return AlignStretch
	default:
		return AlignStart
	}
}

func justifyOf(n vnode.VNode) Justify {
	switch s, _ := n.Props["justify"].(string); s {
	case "end":
		return JustifyEnd
	case "center":
		return JustifyCenter
	case "between":
		return JustifyBetween
	case "around":
		return JustifyAround
	case "evenly":
		return JustifyEvenly
	default:
		return JustifyStart
	}
}

// Padding is per-side padding resolved from the CSS-like shorthand chain
// p -> px/py -> pt/pr/pb/pl (each step overrides only the sides it names).
type Padding struct {
	Top, Right, Bottom, Left int
}

func paddingOf(n vnode.VNode) Padding {
	p := Padding{}
	if v, ok := n.Props["p"]; ok {
		all := intFrom(v)
		p = Padding{all, all, all, all}
	}
	if v, ok := n.Props["px"]; ok {
		x := intFrom(v)
		p.Left, p.Right = x, x
	}
	if v, ok := n.Props["py"]; ok {
		y := intFrom(v)
		p.Top, p.Bottom = y, y
	}
	if v, ok := n.Props["pt"]; ok {
		p.Top = intFrom(v)
	}
	if v, ok := n.Props["pr"]; ok {
		p.Right = intFrom(v)
	}
	if v, ok := n.Props["pb"]; ok {
		p.Bottom = intFrom(v)
	}
	if v, ok := n.Props["pl"]; ok {
		p.Left = intFrom(v)
	}
	return p
}

// Margin is per-side signed margin resolved the same shorthand way as
// Padding; negative values are valid (they pull a child outside its
// allotted slot).
type Margin struct {
	Top, Right, Bottom, Left int
}

func marginOf(n vnode.VNode) Margin {
	m := Margin{}
	if v, ok := n.Props["m"]; ok {
		all := intFrom(v)
		m = Margin{all, all, all, all}
	}
	if v, ok := n.Props["mx"]; ok {
		x := intFrom(v)
		m.Left, m.Right = x, x
	}
	if v, ok := n.Props["my"]; ok {
		y := intFrom(v)
		m.Top, m.Bottom = y, y
	}
	if v, ok := n.Props["mt"]; ok {
		m.Top = intFrom(v)
	}
	if v, ok := n.Props["mr"]; ok {
		m.Right = intFrom(v)
	}
	if v, ok := n.Props["mb"]; ok {
		m.Bottom = intFrom(v)
	}
	if v, ok := n.Props["ml"]; ok {
		m.Left = intFrom(v)
	}
	return m
}

func borderOf(n vnode.VNode) Border {
	if all, ok := n.Props["border"].(bool); ok && all {
		return Border{true, true, true, true}
	}
	b := Border{}
	if v, ok := n.Props["borderTop"].(bool); ok {
		b.Top = v
	}
	if v, ok := n.Props["borderRight"].(bool); ok {
		b.Right = v
	}
	if v, ok := n.Props["borderBottom"].(bool); ok {
		b.Bottom = v
	}
	if v, ok := n.Props["borderLeft"].(bool); ok {
		b.Left = v
	}
	return b
}

func flexOf(n vnode.VNode) int {
	return intProp(n, "flex")
}

func isAbsolute(n vnode.VNode) bool {
	s, _ := n.Props["position"].(string)
	return s == "absolute"
}

func anchor(n vnode.VNode, key string) (int, bool) {
	v, ok := n.Props[key]
	if !ok {
		return 0, false
	}
	return intFrom(v), true
}

func aspectRatioOf(n vnode.VNode) (float64, bool) {
	switch v := n.Props["aspectRatio"].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

func scrollTopOf(n vnode.VNode) int  { return intProp(n, "scrollTop") }
func scrollLeftOf(n vnode.VNode) int { return intProp(n, "scrollLeft") }
