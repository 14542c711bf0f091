package teaprogram

import (
	"strings"
	"testing"

	"github.com/rezi-tui/rezi/drawlist"
)

func buildFrame(t *testing.T) *drawlist.Drawlist {
	t.Helper()
	b := drawlist.NewBuilder(drawlist.DefaultConfig())
	b.Clear(20, 5, 0)
	b.DrawText(2, 1, "hi", 0, 0xff0000, 0x000000, drawlist.AttrBold)
	buf, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	dl, err := drawlist.Parse(buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return dl
}

func TestRenderFrameProducesVisibleText(t *testing.T) {
	dl := buildFrame(t)
	out, cursor := renderFrame(dl)
	if !strings.Contains(out, "h") || !strings.Contains(out, "i") {
		t.Fatalf("expected rendered output to contain drawn text, got %q", out)
	}
	if cursor.visible {
		t.Fatal("expected no cursor placement for a frame with no SET_CURSOR")
	}
}

func TestRenderFrameCursorPlacement(t *testing.T) {
	b := drawlist.NewBuilder(drawlist.DefaultConfig())
	b.Clear(10, 3, 0)
	b.SetCursor(3, 2, drawlist.CursorBar, true, false)
	buf, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	dl, err := drawlist.Parse(buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, cursor := renderFrame(dl)
	if !cursor.visible || cursor.x != 3 || cursor.y != 2 {
		t.Fatalf("unexpected cursor placement: %+v", cursor)
	}
}

func TestHexFormatsColor(t *testing.T) {
	if got := hex(0xff0080); got != "#ff0080" {
		t.Fatalf("hex(0xff0080) = %q", got)
	}
	if got := hex(0); got != "#000000" {
		t.Fatalf("hex(0) = %q", got)
	}
}

func TestGridClipsWrittenText(t *testing.T) {
	g := newGrid()
	clips := []clipRect{{x: 0, y: 0, w: 3, h: 1}}
	g.writeText(0, 0, "hello", styleFor(0xffffff, 0, 0), clips)
	out := g.render()
	if strings.Count(out, "h")+strings.Count(out, "e")+strings.Count(out, "l")+strings.Count(out, "o") == 0 {
		t.Fatal("expected at least some characters to render")
	}
	if strings.Contains(out, "o") {
		t.Fatalf("expected text past the 3-cell clip to be dropped, got %q", out)
	}
}
