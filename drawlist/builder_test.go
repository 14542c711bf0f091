package drawlist

import (
	"bytes"
	"testing"
)

func newTestBuilder() *Builder {
	return NewBuilder(DefaultConfig())
}

func TestRoundTripBasicFrame(t *testing.T) {
	b := newTestBuilder()
	b.Clear(80, 24, 0x000000)
	b.PushClip(0, 0, 80, 24)
	b.FillRect(0, 0, 10, 1, 0x112233)
	b.DrawText(2, 0, "hello", 0, 0xffffff, 0x000000, AttrBold)
	b.SetCursor(2, 0, CursorBar, true, false)
	b.PopClip()
	buf, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	dl, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(dl.Cmds) != 6 {
		t.Fatalf("got %d cmds want 6", len(dl.Cmds))
	}
	if dl.Cmds[0].Op != OpClear || dl.Cmds[1].Op != OpPushClip || dl.Cmds[4].Op != OpSetCursor || dl.Cmds[5].Op != OpPopClip {
		t.Fatalf("unexpected opcode sequence: %+v", dl.Cmds)
	}
	x, y, strIdx, flags, byteLen, fg, bg, attrs := DrawTextParams(dl.Cmds[3])
	if x != 2 || y != 0 || flags != 0 || fg != 0xffffff || bg != 0x000000 || attrs != AttrBold {
		t.Fatalf("unexpected DrawText params: x=%d y=%d fg=%x bg=%x attrs=%x", x, y, fg, bg, attrs)
	}
	if dl.Strings[strIdx] != "hello" {
		t.Fatalf("got string %q want hello", dl.Strings[strIdx])
	}
	if int(byteLen) != len("hello") {
		t.Fatalf("got byteLen %d want %d", byteLen, len("hello"))
	}
}

func TestUnbalancedClipFailsBuild(t *testing.T) {
	b := newTestBuilder()
	b.PushClip(0, 0, 10, 10)
	if _, err := b.Build(); err == nil {
		t.Fatal("expected error for unbalanced clip stack")
	}
}

func TestPopClipWithoutPushIsStickyFailure(t *testing.T) {
	b := newTestBuilder()
	b.PopClip()
	if !b.Failed() {
		t.Fatal("expected sticky failure after unmatched PopClip")
	}
	b.FillRect(0, 0, 1, 1, 0)
	if _, err := b.Build(); err == nil {
		t.Fatal("expected Build to surface the sticky failure")
	}
}

func TestResetClearsStickyFailureAndCommands(t *testing.T) {
	b := newTestBuilder()
	b.PopClip()
	if !b.Failed() {
		t.Fatal("expected failure")
	}
	b.Reset()
	if b.Failed() {
		t.Fatal("Reset should clear sticky failure")
	}
	b.Clear(80, 24, 0)
	buf, err := b.Build()
	if err != nil {
		t.Fatalf("Build after Reset: %v", err)
	}
	dl, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(dl.Cmds) != 1 || dl.Cmds[0].Op != OpClear {
		t.Fatalf("unexpected cmds after reset: %+v", dl.Cmds)
	}
}

func TestResetProducesIdenticalBytesForIdenticalFrames(t *testing.T) {
	b := newTestBuilder()
	build := func() []byte {
		b.Clear(40, 10, 0x010203)
		b.FillRect(1, 1, 5, 5, 0xaabbcc)
		b.DrawText(0, 0, "x", 0, 1, 2, 3)
		buf, err := b.Build()
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		out := make([]byte, len(buf))
		copy(out, buf)
		return out
	}
	first := build()
	b.Reset()
	second := build()
	if !bytes.Equal(first, second) {
		t.Fatal("identical frames after Reset produced different bytes")
	}
}

func Test128FrameResetStability(t *testing.T) {
	b := newTestBuilder()
	var prev []byte
	for i := 0; i < 128; i++ {
		b.Reset()
		b.Clear(80, 24, 0)
		b.FillRect(0, 0, 80, 1, uint32(i))
		b.DrawText(0, 0, "status", 0, 0xffffff, 0, 0)
		buf, err := b.Build()
		if err != nil {
			t.Fatalf("frame %d: Build: %v", i, err)
		}
		dl, err := Parse(buf)
		if err != nil {
			t.Fatalf("frame %d: Parse: %v", i, err)
		}
		if len(dl.Cmds) != 3 {
			t.Fatalf("frame %d: got %d cmds want 3", i, len(dl.Cmds))
		}
		prev = buf
	}
	if prev == nil {
		t.Fatal("no frames built")
	}
}

func TestAttrMaskFullRange(t *testing.T) {
	b := newTestBuilder()
	for attrs := 0; attrs <= 0xFF; attrs++ {
		b.Reset()
		b.DrawText(0, 0, "a", 0, 0, 0, uint32(attrs))
		buf, err := b.Build()
		if err != nil {
			t.Fatalf("attrs=%#x: Build: %v", attrs, err)
		}
		dl, err := Parse(buf)
		if err != nil {
			t.Fatalf("attrs=%#x: Parse: %v", attrs, err)
		}
		_, _, _, _, _, _, _, gotAttrs := DrawTextParams(dl.Cmds[0])
		if gotAttrs != uint32(attrs) {
			t.Fatalf("attrs round trip mismatch: got %#x want %#x", gotAttrs, attrs)
		}
	}
}

func TestCommandCountCapIsEnforced(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxCmdCount = 2
	b := NewBuilder(cfg)
	b.Clear(1, 1, 0)
	b.FillRect(0, 0, 1, 1, 0)
	b.FillRect(0, 0, 1, 1, 0)
	if !b.Failed() {
		t.Fatal("expected sticky failure once cmd count cap exceeded")
	}
	if _, err := b.Build(); err == nil {
		t.Fatal("expected Build to report the cap violation")
	}
}

func TestStringInterningDedupesRepeatedText(t *testing.T) {
	b := newTestBuilder()
	b.DrawText(0, 0, "same", 0, 0, 0, 0)
	b.DrawText(1, 0, "same", 0, 0, 0, 0)
	buf, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	dl, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(dl.Strings) != 1 {
		t.Fatalf("got %d interned strings want 1 (dedup)", len(dl.Strings))
	}
	_, _, idx0, _, _, _, _, _ := DrawTextParams(dl.Cmds[0])
	_, _, idx1, _, _, _, _, _ := DrawTextParams(dl.Cmds[1])
	if idx0 != idx1 {
		t.Fatalf("expected both commands to share string index, got %d and %d", idx0, idx1)
	}
}

func TestDrawTextRunRoundTrips(t *testing.T) {
	b := newTestBuilder()
	b.DrawTextRun(0, 0, 0, []TextRunSegment{
		{Text: "foo", Fg: 1, Bg: 2, Attrs: AttrBold},
		{Text: "bar", Fg: 3, Bg: 4, Attrs: AttrItalic},
	})
	buf, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	dl, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(dl.Cmds) != 1 || dl.Cmds[0].Op != OpDrawTextRun {
		t.Fatalf("unexpected cmds: %+v", dl.Cmds)
	}
	x, y, blobIdx, flags := DrawTextRunParams(dl.Cmds[0])
	if x != 0 || y != 0 || flags != 0 {
		t.Fatalf("unexpected run header: x=%d y=%d flags=%d", x, y, flags)
	}
	segs, ok := TextRunSegments(dl.Blobs[blobIdx])
	if !ok {
		t.Fatal("TextRunSegments failed to decode blob")
	}
	if len(segs) != 2 {
		t.Fatalf("got %d segments want 2", len(segs))
	}
	if dl.Strings[segs[0].StrIndex] != "foo" || dl.Strings[segs[1].StrIndex] != "bar" {
		t.Fatalf("segment strings did not round trip: %+v", segs)
	}
	if segs[0].Attrs != AttrBold || segs[1].Attrs != AttrItalic {
		t.Fatalf("segment attrs did not round trip: %+v", segs)
	}
}

func TestSetLinkEmptyHrefClearsWithoutInterning(t *testing.T) {
	b := newTestBuilder()
	b.SetLink("")
	buf, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	dl, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(dl.Strings) != 0 {
		t.Fatalf("expected no interned strings for link-clear, got %d", len(dl.Strings))
	}
	_, ok := SetLinkIndex(dl.Cmds[0])
	if ok {
		t.Fatal("expected SetLinkIndex to report link cleared")
	}
}

func TestDrawlistSizeCapIsEnforced(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxDrawlistBytes = headerSize + 4
	b := NewBuilder(cfg)
	b.Clear(1, 1, 0)
	b.FillRect(0, 0, 1, 1, 0)
	if _, err := b.Build(); err == nil {
		t.Fatal("expected drawlist size cap to be enforced at Build")
	}
}

func TestStringCacheEvictionStillInternsCorrectly(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EncodedStringCacheCap = 2
	b := NewBuilder(cfg)
	b.DrawText(0, 0, "a", 0, 0, 0, 0)
	b.DrawText(0, 0, "b", 0, 0, 0, 0)
	b.DrawText(0, 0, "c", 0, 0, 0, 0) // evicts "a" from the 2-entry cache
	b.DrawText(0, 0, "a", 0, 0, 0, 0) // re-interns "a" as a fresh span
	buf, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	dl, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, _, idx0, _, _, _, _, _ := DrawTextParams(dl.Cmds[0])
	_, _, idx3, _, _, _, _, _ := DrawTextParams(dl.Cmds[3])
	if dl.Strings[idx0] != "a" || dl.Strings[idx3] != "a" {
		t.Fatalf("expected both occurrences of \"a\" to resolve correctly, got %q and %q", dl.Strings[idx0], dl.Strings[idx3])
	}
}
