package drawlist

import (
	"bytes"

	lru "github.com/hashicorp/golang-lru"
	"github.com/rezi-tui/rezi/rezierr"
)

// TextRunSegment is one run of uniformly-styled text within a single
// DRAW_TEXT_RUN command (a line built from several styled spans, e.g. a
// syntax-highlighted row, encoded as one command instead of one per span).
type TextRunSegment struct {
	Text  string
	Fg    uint32
	Bg    uint32
	Attrs uint32
}

// Builder accumulates drawlist commands and their interned strings/blobs
// across one frame, then serializes everything into one contiguous buffer
// on Build. It never panics: once a call fails, the Builder latches into a
// sticky failure state (mirroring the teacher's RemoteOptimizer, which
// tracks its own buffer-overflow condition rather than unwinding) and every
// further mutating call becomes a no-op until Reset.
type Builder struct {
	cfg Config

	cmds     bytes.Buffer
	cmdCount int

	stringBytes bytes.Buffer
	stringSpans []span

	blobBytes bytes.Buffer
	blobSpans []span
	blobIndex map[string]uint32

	// stringCache accelerates re-interning an already-seen string within
	// this frame; it is frame-scoped (cleared on Reset along with the
	// table it indexes) and bounded, so a cache eviction merely costs a
	// duplicate span rather than correctness.
	stringCache *lru.Cache

	clipDepth int

	failed bool
	err    *rezierr.Error

	outBuf []byte
}

type span struct {
	Offset uint32
	Len    uint32
}

const linkCleared uint32 = 0xFFFFFFFF

// NewBuilder constructs a Builder with the given capacity caps.
func NewBuilder(cfg Config) *Builder {
	cfg = cfg.withDefaults()
	cache, _ := lru.New(cfg.EncodedStringCacheCap)
	return &Builder{cfg: cfg, stringCache: cache}
}

// Reset clears commands and both tables and all sticky failure state,
// including the string interning cache (its indices point into the
// table being cleared, so a stale hit would reference a span that no
// longer exists).
func (b *Builder) Reset() {
	b.cmds.Reset()
	b.cmdCount = 0
	b.stringBytes.Reset()
	b.stringSpans = b.stringSpans[:0]
	b.stringCache.Purge()
	b.blobBytes.Reset()
	b.blobSpans = b.blobSpans[:0]
	b.blobIndex = nil
	b.clipDepth = 0
	b.failed = false
	b.err = nil
}

// Failed reports whether a prior call latched a sticky failure.
func (b *Builder) Failed() bool { return b.failed }

func (b *Builder) fail(kind rezierr.Kind, format string, args ...interface{}) {
	if b.failed {
		return
	}
	b.failed = true
	b.err = rezierr.Newf(kind, format, args...)
}

func (b *Builder) checkCmdCap() bool {
	if b.failed {
		return false
	}
	if b.cmdCount+1 > b.cfg.MaxCmdCount {
		b.fail(rezierr.TooLarge, "command count would exceed cap %d", b.cfg.MaxCmdCount)
		return false
	}
	return true
}

// internString returns s's index in the string table. A cache hit reuses
// an earlier span from this frame; a miss (first use, or an evicted
// cache entry for a string seen earlier than the cache's capacity
// allows) adds a new span — duplicate spans for the same string are a
// cache-capacity cost, never a correctness issue.
func (b *Builder) internString(s string) (uint32, bool) {
	if idx, ok := b.stringCache.Get(s); ok {
		return idx.(uint32), true
	}
	if len(b.stringSpans) >= b.cfg.MaxStrings {
		b.fail(rezierr.TooLarge, "string table would exceed cap %d", b.cfg.MaxStrings)
		return 0, false
	}
	off := b.stringBytes.Len()
	b.stringBytes.WriteString(s)
	idx := uint32(len(b.stringSpans))
	b.stringSpans = append(b.stringSpans, span{Offset: uint32(off), Len: uint32(len(s))})
	b.stringCache.Add(s, idx)
	return idx, true
}

func (b *Builder) internBlob(data []byte) (uint32, bool) {
	if b.blobIndex == nil {
		b.blobIndex = make(map[string]uint32)
	}
	key := string(data)
	if idx, ok := b.blobIndex[key]; ok {
		return idx, true
	}
	off := b.blobBytes.Len()
	b.blobBytes.Write(data)
	idx := uint32(len(b.blobSpans))
	b.blobSpans = append(b.blobSpans, span{Offset: uint32(off), Len: uint32(len(data))})
	b.blobIndex[key] = idx
	return idx, true
}

// writeCmd appends one command record: u16 opcode, u16 reserved flags,
// u32 payload length, payload, then zero-padding to a 4-byte boundary.
func (b *Builder) writeCmd(op Opcode, payload []byte) {
	if !b.checkCmdCap() {
		return
	}
	var head [8]byte
	putU16(head[0:], uint16(op))
	putU16(head[2:], 0)
	putU32(head[4:], uint32(len(payload)))
	b.cmds.Write(head[:])
	b.cmds.Write(payload)
	if pad := align4(len(payload)) - len(payload); pad > 0 {
		var zeros [3]byte
		b.cmds.Write(zeros[:pad])
	}
	b.cmdCount++
}

func (b *Builder) validate(cond bool, format string, args ...interface{}) bool {
	if b.failed {
		return false
	}
	if b.cfg.ValidateParams && !cond {
		b.fail(rezierr.InvalidOp, format, args...)
		return false
	}
	return true
}

// Clear emits a full-viewport clear to bg before any other drawing this
// frame; it is always the first command a fresh frame's builder receives.
func (b *Builder) Clear(cols, rows int, bg uint32) {
	if b.failed {
		return
	}
	if !b.validate(cols >= 0 && rows >= 0, "Clear: negative dimensions %dx%d", cols, rows) {
		return
	}
	var payload [12]byte
	putI32(payload[0:], int32(cols))
	putI32(payload[4:], int32(rows))
	putU32(payload[8:], bg)
	b.writeCmd(OpClear, payload[:])
}

// ClearTo clears one rectangular region to bg without touching the rest
// of the viewport, used for targeted invalidation rather than a full
// repaint.
func (b *Builder) ClearTo(x, y, w, h int, bg uint32) {
	if b.failed {
		return
	}
	if !b.validate(w >= 0 && h >= 0, "ClearTo: negative size %dx%d", w, h) {
		return
	}
	var payload [20]byte
	putI32(payload[0:], int32(x))
	putI32(payload[4:], int32(y))
	putI32(payload[8:], int32(w))
	putI32(payload[12:], int32(h))
	putU32(payload[16:], bg)
	b.writeCmd(OpClearTo, payload[:])
}

// FillRect paints one rectangle with a solid background color.
func (b *Builder) FillRect(x, y, w, h int, color uint32) {
	if b.failed {
		return
	}
	if !b.validate(w >= 0 && h >= 0, "FillRect: negative size %dx%d", w, h) {
		return
	}
	var payload [20]byte
	putI32(payload[0:], int32(x))
	putI32(payload[4:], int32(y))
	putI32(payload[8:], int32(w))
	putI32(payload[12:], int32(h))
	putU32(payload[16:], color)
	b.writeCmd(OpFillRect, payload[:])
}

// PushClip narrows the active clip rect to the intersection of the
// current clip and (x,y,w,h). Every push must be balanced by a later
// PopClip before Build; an unbalanced stack is a builder bug, not a
// caller-recoverable error, so it fails the build rather than silently
// truncating.
func (b *Builder) PushClip(x, y, w, h int) {
	if b.failed {
		return
	}
	if !b.validate(w >= 0 && h >= 0, "PushClip: negative size %dx%d", w, h) {
		return
	}
	var payload [16]byte
	putI32(payload[0:], int32(x))
	putI32(payload[4:], int32(y))
	putI32(payload[8:], int32(w))
	putI32(payload[12:], int32(h))
	b.writeCmd(OpPushClip, payload[:])
	b.clipDepth++
}

// PopClip restores the clip rect active before the matching PushClip.
func (b *Builder) PopClip() {
	if b.failed {
		return
	}
	if !b.validate(b.clipDepth > 0, "PopClip: no matching PushClip") {
		return
	}
	b.writeCmd(OpPopClip, nil)
	b.clipDepth--
}

// DrawText draws one line of uniformly-styled text at (x,y). flags is a
// reserved bitfield for future per-command modifiers (currently always
// 0); attrs packs the eight style booleans (bold..blink) as bits 0..7.
func (b *Builder) DrawText(x, y int, text string, flags, fg, bg, attrs uint32) {
	if b.failed {
		return
	}
	idx, ok := b.internString(text)
	if !ok {
		return
	}
	var payload [32]byte
	putI32(payload[0:], int32(x))
	putI32(payload[4:], int32(y))
	putU32(payload[8:], idx)
	putU32(payload[12:], flags)
	putU32(payload[16:], uint32(len(text)))
	putU32(payload[20:], fg)
	putU32(payload[24:], bg)
	putU32(payload[28:], attrs)
	b.writeCmd(OpDrawText, payload[:])
}

// DrawTextRun draws several styled spans that together form one row, as
// one command referencing a blob of 40-byte segment records instead of
// one DRAW_TEXT command per span.
func (b *Builder) DrawTextRun(x, y int, flags uint32, segments []TextRunSegment) {
	if b.failed {
		return
	}
	if !b.validate(len(segments) > 0, "DrawTextRun: no segments") {
		return
	}
	blob := make([]byte, 4+40*len(segments))
	putU32(blob[0:], uint32(len(segments)))
	off := 4
	for _, seg := range segments {
		idx, ok := b.internString(seg.Text)
		if !ok {
			return
		}
		putU32(blob[off:], seg.Fg)
		putU32(blob[off+4:], seg.Bg)
		putU32(blob[off+8:], seg.Attrs)
		putU32(blob[off+12:], idx)
		off += 40
	}
	blobIdx, ok := b.internBlob(blob)
	if !ok {
		return
	}
	var payload [16]byte
	putI32(payload[0:], int32(x))
	putI32(payload[4:], int32(y))
	putU32(payload[8:], blobIdx)
	putU32(payload[12:], flags)
	b.writeCmd(OpDrawTextRun, payload[:])
}

// SetCursor places and styles the terminal cursor.
func (b *Builder) SetCursor(x, y int, shape CursorShape, visible, blink bool) {
	if b.failed {
		return
	}
	var payload [12]byte
	putI32(payload[0:], int32(x))
	putI32(payload[4:], int32(y))
	payload[8] = byte(shape)
	payload[9] = boolByte(visible)
	payload[10] = boolByte(blink)
	b.writeCmd(OpSetCursor, payload[:])
}

// HideCursor hides the terminal cursor entirely.
func (b *Builder) HideCursor() {
	if b.failed {
		return
	}
	b.writeCmd(OpHideCursor, nil)
}

// SetLink attaches an OSC-8-style hyperlink target to subsequently drawn
// cells until cleared; an empty href clears the active link rather than
// interning an empty string.
func (b *Builder) SetLink(href string) {
	if b.failed {
		return
	}
	if href == "" {
		var payload [4]byte
		putU32(payload[0:], linkCleared)
		b.writeCmd(OpSetLink, payload[:])
		return
	}
	idx, ok := b.internString(href)
	if !ok {
		return
	}
	var payload [4]byte
	putU32(payload[0:], idx)
	b.writeCmd(OpSetLink, payload[:])
}

// FreeString tells the renderer's string cache that index is no longer
// referenced by any retained drawlist and may be evicted.
func (b *Builder) FreeString(index uint32) {
	if b.failed {
		return
	}
	var payload [4]byte
	putU32(payload[0:], index)
	b.writeCmd(OpFreeString, payload[:])
}

// BlitRect copies one already-rendered rectangle to a new position,
// letting the renderer implement scroll-by-copy instead of a full repaint
// of the scrolled region.
func (b *Builder) BlitRect(srcX, srcY, w, h, dstX, dstY int) {
	if b.failed {
		return
	}
	if !b.validate(w >= 0 && h >= 0, "BlitRect: negative size %dx%d", w, h) {
		return
	}
	var payload [24]byte
	putI32(payload[0:], int32(srcX))
	putI32(payload[4:], int32(srcY))
	putI32(payload[8:], int32(w))
	putI32(payload[12:], int32(h))
	putI32(payload[16:], int32(dstX))
	putI32(payload[20:], int32(dstY))
	b.writeCmd(OpBlitRect, payload[:])
}

// InternBlob adds data to the blob table (backing an upcoming
// DRAW_CANVAS/DRAW_IMAGE command) and returns its index.
func (b *Builder) InternBlob(data []byte) (uint32, bool) {
	if b.failed {
		return 0, false
	}
	return b.internBlob(data)
}

// FreeBlob tells the renderer's blob cache that index may be evicted.
func (b *Builder) FreeBlob(index uint32) {
	if b.failed {
		return
	}
	var payload [4]byte
	putU32(payload[0:], index)
	b.writeCmd(OpFreeBlob, payload[:])
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

// Build serializes the accumulated frame into one contiguous buffer. A
// sticky failure from any earlier call, or an unbalanced clip stack, is
// returned here rather than at the point it occurred, matching the
// builder's no-panic, no-partial-output contract: callers either get a
// complete valid drawlist or an error, never a truncated one.
func (b *Builder) Build() ([]byte, error) {
	if b.failed {
		return nil, b.err
	}
	if b.clipDepth != 0 {
		return nil, rezierr.Newf(rezierr.InvalidOp, "unbalanced clip stack: %d still open", b.clipDepth)
	}

	cmdBytes := b.cmds.Bytes()

	stringSpansLen := len(b.stringSpans) * 8
	stringBytesLen := align4(b.stringBytes.Len())
	blobSpansLen := len(b.blobSpans) * 8
	blobBytesLen := align4(b.blobBytes.Len())

	stringsSpanOffset := headerSize + len(cmdBytes)
	stringsBytesOffset := stringsSpanOffset + stringSpansLen
	blobsSpanOffset := stringsBytesOffset + stringBytesLen
	blobsBytesOffset := blobsSpanOffset + blobSpansLen
	total := blobsBytesOffset + blobBytesLen

	if total > b.cfg.MaxDrawlistBytes {
		return nil, rezierr.Newf(rezierr.TooLarge, "drawlist size %d exceeds cap %d", total, b.cfg.MaxDrawlistBytes)
	}

	var out []byte
	if b.cfg.ReuseOutputBuffer && cap(b.outBuf) >= total {
		out = b.outBuf[:total]
		for i := range out {
			out[i] = 0
		}
	} else {
		out = make([]byte, total)
		if b.cfg.ReuseOutputBuffer {
			b.outBuf = out
		}
	}

	putU32(out[0:], Magic)
	putU32(out[4:], Version)
	putU32(out[8:], 0) // flags, reserved
	putU32(out[12:], uint32(total))
	putU32(out[16:], headerSize)
	putU32(out[20:], uint32(len(cmdBytes)))
	putU32(out[24:], uint32(b.cmdCount))
	putU32(out[28:], uint32(stringsSpanOffset))
	putU32(out[32:], uint32(len(b.stringSpans)))
	putU32(out[36:], uint32(stringsBytesOffset))
	putU32(out[40:], uint32(b.stringBytes.Len()))
	putU32(out[44:], uint32(blobsSpanOffset))
	putU32(out[48:], uint32(len(b.blobSpans)))
	putU32(out[52:], uint32(blobsBytesOffset))
	putU32(out[56:], uint32(b.blobBytes.Len()))

	copy(out[headerSize:], cmdBytes)
	for i, sp := range b.stringSpans {
		off := stringsSpanOffset + i*8
		putU32(out[off:], sp.Offset)
		putU32(out[off+4:], sp.Len)
	}
	copy(out[stringsBytesOffset:], b.stringBytes.Bytes())
	for i, sp := range b.blobSpans {
		off := blobsSpanOffset + i*8
		putU32(out[off:], sp.Offset)
		putU32(out[off+4:], sp.Len)
	}
	copy(out[blobsBytesOffset:], b.blobBytes.Bytes())

	return out, nil
}
