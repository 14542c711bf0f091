package teaprogram

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rezi-tui/rezi/drawlist"
)

// renderFrame walks a parsed drawlist and produces the string bubbletea's
// own renderer will diff and paint, using lipgloss for styling since the
// bubbletea program already owns (and diffs) the actual terminal output —
// a second cell-diffing layer here would just fight it, unlike package
// term which owns the terminal directly and needs one.
func renderFrame(dl *drawlist.Drawlist) (string, cursorPlacement) {
	g := newGrid()
	var cursor cursorPlacement
	var clipStack []clipRect

	for _, cmd := range dl.Cmds {
		switch cmd.Op {
		case drawlist.OpClear:
			g.clear()

		case drawlist.OpClearTo, drawlist.OpFillRect:
			x, y, w, h, bg := fillParams(cmd)
			x, y, w, h = intersectAll(x, y, w, h, clipStack)
			g.fill(x, y, w, h, ' ', lipgloss.NewStyle().Background(lipgloss.Color(hex(bg))))

		case drawlist.OpPushClip:
			x, y, w, h := drawlist.ClipParams(cmd)
			clipStack = append(clipStack, clipRect{x, y, w, h})

		case drawlist.OpPopClip:
			if len(clipStack) > 0 {
				clipStack = clipStack[:len(clipStack)-1]
			}

		case drawlist.OpDrawText:
			x, y, strIdx, _, _, fg, bg, attrs := drawlist.DrawTextParams(cmd)
			if int(strIdx) < len(dl.Strings) {
				g.writeText(x, y, dl.Strings[strIdx], styleFor(fg, bg, attrs), clipStack)
			}

		case drawlist.OpDrawTextRun:
			x, y, blobIdx, _ := drawlist.DrawTextRunParams(cmd)
			if int(blobIdx) >= len(dl.Blobs) {
				continue
			}
			segs, ok := drawlist.TextRunSegments(dl.Blobs[blobIdx])
			if !ok {
				continue
			}
			cx := x
			for _, seg := range segs {
				if int(seg.StrIndex) >= len(dl.Strings) {
					continue
				}
				text := dl.Strings[seg.StrIndex]
				g.writeText(cx, y, text, styleFor(seg.Fg, seg.Bg, seg.Attrs), clipStack)
				cx += len([]rune(text))
			}

		case drawlist.OpSetCursor:
			x, y, _, visible := cursorParams(cmd)
			cursor = cursorPlacement{x: x, y: y, visible: visible}

		case drawlist.OpHideCursor:
			cursor.visible = false
		}
	}

	return g.render(), cursor
}

func fillParams(cmd drawlist.Cmd) (x, y, w, h int, bg uint32) {
	x, y, w, h = drawlist.ClipParams(cmd)
	if len(cmd.Payload) >= 20 {
		bg = uint32(cmd.Payload[16]) | uint32(cmd.Payload[17])<<8 | uint32(cmd.Payload[18])<<16 | uint32(cmd.Payload[19])<<24
	}
	return
}

func cursorParams(cmd drawlist.Cmd) (x, y int, shape drawlist.CursorShape, visible bool) {
	p := cmd.Payload
	if len(p) < 12 {
		return 0, 0, drawlist.CursorBlock, false
	}
	x = int(int32(uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16 | uint32(p[3])<<24))
	y = int(int32(uint32(p[4]) | uint32(p[5])<<8 | uint32(p[6])<<16 | uint32(p[7])<<24))
	shape = drawlist.CursorShape(p[8])
	visible = p[9] != 0
	return
}

func styleFor(fg, bg, attrs uint32) lipgloss.Style {
	s := lipgloss.NewStyle().Foreground(lipgloss.Color(hex(fg))).Background(lipgloss.Color(hex(bg)))
	if attrs&drawlist.AttrBold != 0 {
		s = s.Bold(true)
	}
	if attrs&drawlist.AttrItalic != 0 {
		s = s.Italic(true)
	}
	if attrs&drawlist.AttrUnderline != 0 {
		s = s.Underline(true)
	}
	if attrs&drawlist.AttrInverse != 0 {
		s = s.Reverse(true)
	}
	if attrs&drawlist.AttrDim != 0 {
		s = s.Faint(true)
	}
	if attrs&drawlist.AttrStrikethrough != 0 {
		s = s.Strikethrough(true)
	}
	if attrs&drawlist.AttrBlink != 0 {
		s = s.Blink(true)
	}
	return s
}

func hex(v uint32) string {
	const digits = "0123456789abcdef"
	b := [7]byte{'#'}
	for i := 0; i < 6; i++ {
		shift := uint(20 - i*4)
		b[1+i] = digits[(v>>shift)&0xF]
	}
	return string(b[:])
}

type clipRect struct{ x, y, w, h int }

func intersectAll(x, y, w, h int, stack []clipRect) (int, int, int, int) {
	for _, c := range stack {
		x1, y1 := maxInt(x, c.x), maxInt(y, c.y)
		x2, y2 := minInt(x+w, c.x+c.w), minInt(y+h, c.y+c.h)
		if x2 < x1 || y2 < y1 {
			return 0, 0, 0, 0
		}
		x, y, w, h = x1, y1, x2-x1, y2-y1
	}
	return x, y, w, h
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// grid is a plain rune/style buffer; lipgloss styles each written run on
// render rather than the whole buffer, since adjacent cells routinely
// carry different colors.
type grid struct {
	cells map[[2]int]cell
	maxX  int
	maxY  int
}

type cell struct {
	r     rune
	style lipgloss.Style
}

func newGrid() *grid {
	return &grid{cells: make(map[[2]int]cell)}
}

func (g *grid) clear() {
	g.cells = make(map[[2]int]cell)
	g.maxX, g.maxY = 0, 0
}

func (g *grid) fill(x, y, w, h int, r rune, style lipgloss.Style) {
	for row := y; row < y+h; row++ {
		for col := x; col < x+w; col++ {
			g.set(col, row, r, style)
		}
	}
}

func (g *grid) writeText(x, y int, text string, style lipgloss.Style, clips []clipRect) {
	cx := x
	for _, r := range text {
		gx, gy, gw, gh := intersectAll(cx, y, 1, 1, clips)
		if gw > 0 && gh > 0 {
			g.set(cx, y, r, style)
		}
		_ = gx
		_ = gy
		cx++
	}
}

func (g *grid) set(x, y int, r rune, style lipgloss.Style) {
	if x < 0 || y < 0 {
		return
	}
	g.cells[[2]int{x, y}] = cell{r: r, style: style}
	if x > g.maxX {
		g.maxX = x
	}
	if y > g.maxY {
		g.maxY = y
	}
}

func (g *grid) render() string {
	var b strings.Builder
	for y := 0; y <= g.maxY; y++ {
		if y > 0 {
			b.WriteByte('\n')
		}
		for x := 0; x <= g.maxX; x++ {
			c, ok := g.cells[[2]int{x, y}]
			if !ok {
				b.WriteByte(' ')
				continue
			}
			b.WriteString(c.style.Render(string(c.r)))
		}
	}
	return b.String()
}
