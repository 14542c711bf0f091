// Package layout implements the layout engine: a recursive function
// turning a committed instance tree plus its resolved constraint values
// into a LayoutTree of absolute rectangles. Grounded on the teacher's
// tui/runtime/layout.FlexLayout (two-phase measure + distribute) and
// tui/runtime/types.go (Size/BoxConstraints), generalized from the
// teacher's fixed widget set to the spec's prop-driven stack/box model.
package layout

import (
	"github.com/rezi-tui/rezi/constraint"
	"github.com/rezi-tui/rezi/instance"
	"github.com/rezi-tui/rezi/rezierr"
	"github.com/rezi-tui/rezi/vnode"
)

// Axis is the direction children are stacked along.
type Axis int

const (
	AxisRow Axis = iota
	AxisColumn
)

// Align is the cross-axis alignment of children within the stack.
type Align int

const (
	AlignStart Align = iota
	AlignCenter
	AlignEnd
	AlignStretch
)

// Justify is the main-axis distribution of children within the stack.
type Justify int

const (
	JustifyStart Justify = iota
	JustifyEnd
	JustifyCenter
	JustifyBetween
	JustifyAround
	JustifyEvenly
)

// Overflow controls how content exceeding a container's rect is handled.
type Overflow int

const (
	OverflowVisible Overflow = iota
	OverflowHidden
	OverflowScroll
)

// Rect is an absolute, integer-cell rectangle in viewport coordinates.
type Rect struct {
	X, Y, W, H int
}

// Border records which of a box's four sides draw a border cell, each of
// which consumes one cell of outside space from the content rect.
type Border struct {
	Top, Right, Bottom, Left bool
}

func (b Border) left() int {
	if b.Left {
		return 1
	}
	return 0
}
func (b Border) right() int {
	if b.Right {
		return 1
	}
	return 0
}
func (b Border) top() int {
	if b.Top {
		return 1
	}
	return 0
}
func (b Border) bottom() int {
	if b.Bottom {
		return 1
	}
	return 0
}

// ScrollInfo carries content-vs-viewport dimensions for an
// overflow:scroll container, consulted by the renderer and hit-tester to
// clip and reserve scrollbar cells.
type ScrollInfo struct {
	ContentW, ContentH   int
	ViewportW, ViewportH int
	ScrollTop, ScrollLeft int
	VBar, HBar           bool
}

// Node is one entry of the LayoutTree: the rect assigned to an instance,
// its content rect (rect minus border/padding), and its laid-out children
// in the same order as instance.Instance.Children.
type Node struct {
	InstanceID  instance.ID
	Rect        Rect
	ContentRect Rect
	Axis        Axis
	Overflow    Overflow
	Scroll      *ScrollInfo
	Absolute    bool
	Children    []*Node
}

// Measurer supplies the intrinsic ("auto") size of a leaf instance — for a
// text node this is its grapheme-display width and line count; for any
// other kind a zero intrinsic size is a reasonable default.
type Measurer interface {
	Intrinsic(in *instance.Instance, availableW int) (w, h int)
}

// Resolved is the constraint resolver's per-node output, keyed the same
// way constraint.Graph keys its nodes.
type Resolved map[constraint.NodeKey]float64

// Layout recursively lays out in within (x, y, w, h), returning the
// resulting Node tree. A root dimension that in's props leave
// undetermined fills w or h. parentAxis is the axis of in's parent container
// (AxisRow for the conceptual viewport root). Prop validation has already
// run at commit time; Layout returns rezierr.InvalidProps only for
// size-domain values not caught there (e.g. an auto/percent mix that
// resolves to a negative path is clamped to zero, never rejected here).
func Layout(in *instance.Instance, resolved Resolved, measurer Measurer, x, y, w, h int, parentAxis Axis) (*Node, error) {
	rw, rh, err := ownSize(in, resolved, w, h, fillMeasurer{w, h})
	if err != nil {
		return nil, err
	}
	return layoutNode(in, resolved, measurer, x, y, rw, rh, parentAxis)
}

// fillMeasurer reports the space the root is laid out in as its
// intrinsic size.
type fillMeasurer struct{ w, h int }

func (f fillMeasurer) Intrinsic(*instance.Instance, int) (int, int) { return f.w, f.h }

// layoutNode lays out in with its rect already sized to (w, h) by the
// caller.
func layoutNode(in *instance.Instance, resolved Resolved, measurer Measurer, x, y, w, h int, parentAxis Axis) (*Node, error) {
	rw, rh := w, h

	border := borderOf(in.VNode)
	pad := paddingOf(in.VNode)

	contentX := x + border.left() + pad.Left
	contentY := y + border.top() + pad.Top
	contentW := rw - border.left() - border.right() - pad.Left - pad.Right
	contentH := rh - border.top() - border.bottom() - pad.Top - pad.Bottom
	if contentW < 0 {
		contentW = 0
	}
	if contentH < 0 {
		contentH = 0
	}

	axis := axisOf(in.VNode)
	overflow := overflowOf(in.VNode)

	node := &Node{
		InstanceID:  in.ID,
		Rect:        Rect{x, y, rw, rh},
		ContentRect: Rect{contentX, contentY, contentW, contentH},
		Axis:        axis,
		Overflow:    overflow,
	}

	children, err := layoutChildren(in, resolved, measurer, node.ContentRect, axis)
	if err != nil {
		return nil, err
	}
	node.Children = children

	if overflow == OverflowScroll {
		node.Scroll = scrollInfoFor(in.VNode, node.ContentRect, children, axis)
		if node.Scroll.VBar {
			node.ContentRect.W--
		}
		if node.Scroll.HBar {
			node.ContentRect.H--
		}
	}

	return node, nil
}

// ownSize resolves in's width/height within the space its parent offers
// (parentW, parentH of content-rect size), consulting the constraint
// resolver's output first, then the structural SizeValue, then (for auto)
// the Measurer, and finally deriving the other axis from aspectRatio when
// exactly one of width/height is determined.
func ownSize(in *instance.Instance, resolved Resolved, parentW, parentH int, measurer Measurer) (int, int, error) {
	w, wOK, err := resolveDimension(in, "width", resolved, parentW)
	if err != nil {
		return 0, 0, err
	}
	h, hOK, err := resolveDimension(in, "height", resolved, parentH)
	if err != nil {
		return 0, 0, err
	}

	if ar, ok := aspectRatioOf(in.VNode); ok {
		switch {
		case wOK && !hOK && ar > 0:
			h = int(float64(w) / ar)
			hOK = true
		case hOK && !wOK && ar > 0:
			w = int(float64(h) * ar)
			wOK = true
		}
	}

	if !wOK || !hOK {
		iw, ih := 0, 0
		if measurer != nil {
			iw, ih = measurer.Intrinsic(in, parentW)
		}
		if !wOK {
			w = iw
		}
		if !hOK {
			h = ih
		}
	}

	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return w, h, nil
}

// resolveDimension returns the concrete pixel size for prop ("width" or
// "height") on in, and whether a determinate (non-auto) value was found.
func resolveDimension(in *instance.Instance, prop string, resolved Resolved, parentDim int) (int, bool, error) {
	raw, ok := in.VNode.Props[prop]
	if !ok {
		return 0, false, nil
	}
	sv, err := vnode.ParseSize(prop, raw)
	if err != nil {
		return 0, false, rezierr.Wrap(rezierr.InvalidProps, "layout rejected "+prop, err)
	}
	switch sv.Kind {
	case vnode.SizeInt:
		return sv.Int, true, nil
	case vnode.SizePercent:
		return int(float64(parentDim) * sv.Percent / 100.0), true, nil
	case vnode.SizeAuto:
		return 0, false, nil
	case vnode.SizeExpr:
		key := constraint.NodeKey{InstanceID: in.ID, Prop: prop}
		if v, ok := resolved[key]; ok {
			n := int(v)
			if n < 0 {
				n = 0
			}
			return n, true, nil
		}
		return 0, false, nil
	}
	return 0, false, nil
}
