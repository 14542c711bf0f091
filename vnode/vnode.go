// Package vnode implements the view model: an immutable tree of
// nodes built by helper functions and never mutated after construction.
// VNodes carry no identity — identity is assigned by package instance
// during commit.
package vnode

// Kind tags a VNode's structural role. The core ships the structural
// primitives and the generic container/leaf kinds named by the spec; a
// concrete widget catalog beyond these is an external concern.
type Kind string

const (
	KindRow         Kind = "row"
	KindColumn      Kind = "column"
	KindBox         Kind = "box"
	KindText        Kind = "text"
	KindSpacer      Kind = "spacer"
	KindDivider     Kind = "divider"
	KindButton      Kind = "button"
	KindInput       Kind = "input"
	KindSelect      Kind = "select"
	KindCheckbox    Kind = "checkbox"
	KindSlider      Kind = "slider"
	KindFocusZone   Kind = "focusZone"
	KindFocusTrap   Kind = "focusTrap"
	KindLayers      Kind = "layers"
	KindModal       Kind = "modal"
	KindVirtualList Kind = "virtualList"
	KindTable       Kind = "table"
	KindTree        Kind = "tree"
)

// focusable reports whether a leaf of this kind can receive focus. Used by
// render.HitTestFocusable and by focus-ring drawing.
func (k Kind) Focusable() bool {
	switch k {
	case KindButton, KindInput, KindSelect, KindCheckbox, KindSlider, KindTable, KindTree, KindVirtualList:
		return true
	}
	return false
}

// VNode is an immutable view description: a kind tag, a kind-specific prop
// bag, an ordered child sequence, and an optional key used for
// identity-preserving reconciliation among siblings of the same kind.
type VNode struct {
	Kind     Kind
	Props    map[string]interface{}
	Children []VNode
	Key      string
}

// New constructs a VNode. props may be nil, in which case an empty map is
// substituted so callers can always index it.
func New(kind Kind, props map[string]interface{}, children ...VNode) VNode {
	if props == nil {
		props = map[string]interface{}{}
	}
	return VNode{Kind: kind, Props: props, Children: children}
}

// WithKey returns a copy of n carrying the given reconciliation key.
func (n VNode) WithKey(key string) VNode {
	n.Key = key
	return n
}

// Prop builders mirror the shape of typical declarative UI helpers (the
// teacher's component constructors take a style/props struct plus
// children); REZI keeps the prop bag generic so the constraint
// and layout packages can own prop-name semantics.

func Row(props map[string]interface{}, children ...VNode) VNode {
	return New(KindRow, props, children...)
}

func Column(props map[string]interface{}, children ...VNode) VNode {
	return New(KindColumn, props, children...)
}

func Box(props map[string]interface{}, children ...VNode) VNode {
	return New(KindBox, props, children...)
}

func Text(content string, props map[string]interface{}) VNode {
	if props == nil {
		props = map[string]interface{}{}
	}
	props["content"] = content
	return New(KindText, props)
}

func Spacer(props map[string]interface{}) VNode {
	return New(KindSpacer, props)
}

func Divider(props map[string]interface{}) VNode {
	return New(KindDivider, props)
}

func Leaf(kind Kind, props map[string]interface{}) VNode {
	return New(kind, props)
}

// WidgetID returns the prop bag's "id" string, if any — the value the
// constraint graph indexes widget(id) references by (ConstraintNode).
func (n VNode) WidgetID() (string, bool) {
	v, ok := n.Props["id"]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
