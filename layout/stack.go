package layout

import "github.com/rezi-tui/rezi/instance"

// layoutChildren arranges in's children within content (in's already
// border/padding-reduced content rect) along axis, then recurses into
// each. Absolutely-positioned children are laid out after the normal flow
// and do not participate in main-axis distribution. The returned nodes are
// in the same order as in.Children.
func layoutChildren(in *instance.Instance, resolved Resolved, measurer Measurer, content Rect, axis Axis) ([]*Node, error) {
	var flow, absolute []*instance.Instance
	var flowAt, absAt []int
	for i, c := range in.Children {
		if isAbsolute(c.VNode) {
			absolute = append(absolute, c)
			absAt = append(absAt, i)
		} else {
			flow = append(flow, c)
			flowAt = append(flowAt, i)
		}
	}

	mainDim, crossDim := content.W, content.H
	if axis == AxisColumn {
		mainDim, crossDim = content.H, content.W
	}

	gap := gapOf(in.VNode)
	justify := justifyOf(in.VNode)
	align := alignOf(in.VNode)

	mains := make([]int, len(flow))
	crosses := make([]int, len(flow))
	flexes := make([]int, len(flow))
	totalFlex := 0
	fixedMainTotal := 0

	for i, c := range flow {
		f := flexOf(c.VNode)
		flexes[i] = f
		if f > 0 {
			totalFlex += f
			continue
		}
		mw, mh, err := ownSize(c, resolved, content.W, content.H, measurer)
		if err != nil {
			return nil, err
		}
		m, cr := mw, mh
		if axis == AxisColumn {
			m, cr = mh, mw
		}
		mains[i] = m
		crosses[i] = cr
		fixedMainTotal += m
	}

	gapCount := len(flow) - 1
	if gapCount < 0 {
		gapCount = 0
	}
	totalGap := gap * gapCount
	remaining := mainDim - fixedMainTotal - totalGap
	if remaining < 0 {
		remaining = 0
	}
	distributeFlex(mains, flexes, totalFlex, remaining)

	// Cross size for flex children, measured now that we know their main
	// size (used as the fixed dimension along the main axis).
	for i, c := range flow {
		if flexes[i] <= 0 {
			continue
		}
		w, h := mains[i], crossDim
		if axis == AxisColumn {
			w, h = crossDim, mains[i]
		}
		_, measuredCross, err := ownSizeWithMainFixed(c, resolved, axis, w, h, measurer)
		if err != nil {
			return nil, err
		}
		crosses[i] = measuredCross
	}

	mainPos := distributeJustify(mains, gap, mainDim, justify)

	nodes := make([]*Node, len(in.Children))
	for i, c := range flow {
		crossSize := crosses[i]
		if align == AlignStretch {
			crossSize = crossDim
		}
		crossPos := crossOffset(align, crossDim, crossSize)

		m := marginOf(c.VNode)
		var x, y, w, h int
		if axis == AxisRow {
			x, y = content.X+mainPos[i]+m.Left, content.Y+crossPos+m.Top
			w, h = mains[i], crossSize
		} else {
			x, y = content.X+crossPos+m.Left, content.Y+mainPos[i]+m.Top
			w, h = crossSize, mains[i]
		}

		child, err := layoutNode(c, resolved, measurer, x, y, w, h, axis)
		if err != nil {
			return nil, err
		}
		nodes[flowAt[i]] = child
	}

	for j, c := range absolute {
		node, err := layoutAbsolute(c, resolved, measurer, content, axis)
		if err != nil {
			return nil, err
		}
		nodes[absAt[j]] = node
	}

	return nodes, nil
}

// ownSizeWithMainFixed resolves a child's cross-axis size given its main
// axis already fixed by flex distribution.
func ownSizeWithMainFixed(c *instance.Instance, resolved Resolved, axis Axis, availW, availH int, measurer Measurer) (int, int, error) {
	w, h, err := ownSize(c, resolved, availW, availH, measurer)
	if err != nil {
		return 0, 0, err
	}
	if axis == AxisRow {
		return w, h, nil
	}
	return h, w, nil
}

// distributeFlex assigns each flex child's main size in mains (for indices
// where flexes[i] > 0) to its proportional share of remaining, using the
// largest-remainder method (deterministic, left-to-right tie-break) so the
// sum of flex shares exactly equals remaining.
func distributeFlex(mains, flexes []int, totalFlex, remaining int) {
	if totalFlex <= 0 {
		return
	}
	type share struct {
		idx  int
		frac float64
	}
	base := make([]int, len(mains))
	shares := make([]share, 0, len(mains))
	assigned := 0
	for i, f := range flexes {
		if f <= 0 {
			continue
		}
		exact := float64(remaining) * float64(f) / float64(totalFlex)
		whole := int(exact)
		base[i] = whole
		assigned += whole
		shares = append(shares, share{idx: i, frac: exact - float64(whole)})
	}
	leftover := remaining - assigned
	// Largest fractional remainder first; ties broken by document order
	// (the scan keeps the earliest index on equal fractions, since shares
	// was built in index order and only a strictly larger one replaces it).
	for k := 0; k < leftover && len(shares) > 0; k++ {
		best := 0
		for i := 1; i < len(shares); i++ {
			if shares[i].frac > shares[best].frac {
				best = i
			}
		}
		base[shares[best].idx]++
		shares[best].frac = -1 // consumed
	}
	for i, f := range flexes {
		if f > 0 {
			mains[i] = base[i]
		}
	}
}

func sumInts(xs []int) int {
	t := 0
	for _, x := range xs {
		t += x
	}
	return t
}

// distributeJustify returns each flow child's main-axis start offset
// (relative to the content rect origin) given the stack's justify mode.
func distributeJustify(mains []int, gap, mainDim int, justify Justify) []int {
	n := len(mains)
	pos := make([]int, n)
	total := sumInts(mains) + gap*maxInt(n-1, 0)
	free := mainDim - total
	if free < 0 {
		free = 0
	}

	var start, between int
	switch justify {
	case JustifyStart:
		start, between = 0, gap
	case JustifyEnd:
		start, between = free, gap
	case JustifyCenter:
		start, between = free/2, gap
	case JustifyBetween:
		start = 0
		if n > 1 {
			between = gap + free/(n-1)
		} else {
			between = gap
		}
	case JustifyAround:
		unit := 0
		if n > 0 {
			unit = free / n
		}
		start, between = unit/2, gap+unit
	case JustifyEvenly:
		unit := free / (n + 1)
		start, between = unit, gap+unit
	}

	cursor := start
	for i, m := range mains {
		pos[i] = cursor
		cursor += m + between
	}
	return pos
}

func crossOffset(align Align, crossDim, size int) int {
	switch align {
	case AlignCenter:
		return (crossDim - size) / 2
	case AlignEnd:
		return crossDim - size
	default:
		return 0
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// layoutAbsolute positions c within content using its top/right/bottom/left
// anchors (whichever are present); an axis not anchored keeps its natural
// size and is positioned at the content origin on that axis.
func layoutAbsolute(c *instance.Instance, resolved Resolved, measurer Measurer, content Rect, axis Axis) (*Node, error) {
	w, h, err := ownSize(c, resolved, content.W, content.H, measurer)
	if err != nil {
		return nil, err
	}
	x, y := content.X, content.Y
	if left, ok := anchor(c.VNode, "left"); ok {
		x = content.X + left
	} else if right, ok := anchor(c.VNode, "right"); ok {
		x = content.X + content.W - right - w
	}
	if top, ok := anchor(c.VNode, "top"); ok {
		y = content.Y + top
	} else if bottom, ok := anchor(c.VNode, "bottom"); ok {
		y = content.Y + content.H - bottom - h
	}
	node, err := layoutNode(c, resolved, measurer, x, y, w, h, axis)
	if err != nil {
		return nil, err
	}
	node.Absolute = true
	return node, nil
}
