package drawlist

import "github.com/rezi-tui/rezi/rezierr"

// Cmd is one decoded command record: opcode plus its raw payload bytes.
// Callers that need typed fields use the per-opcode accessor helpers
// below rather than re-parsing payload by hand.
type Cmd struct {
	Op      Opcode
	Payload []byte
}

// Drawlist is a parsed buffer: the decoded command stream plus the
// resolved string and blob tables, ready for a renderer to walk.
type Drawlist struct {
	Version uint32
	Cmds    []Cmd
	Strings []string
	Blobs   [][]byte
}

// Parse decodes a buffer produced by Builder.Build. It validates the
// magic/version and every offset/length before trusting it, returning a
// ZRDL_INVALID_OP error on any structural inconsistency rather than
// panicking on a malformed or truncated buffer (e.g. from a corrupted
// repro bundle).
func Parse(buf []byte) (*Drawlist, error) {
	if len(buf) < headerSize {
		return nil, rezierr.Newf(rezierr.InvalidOp, "buffer shorter than header: %d bytes", len(buf))
	}
	if getU32(buf, 0) != Magic {
		return nil, rezierr.New(rezierr.InvalidOp, "bad magic")
	}
	version := getU32(buf, 4)
	if version > Version {
		return nil, rezierr.Newf(rezierr.InvalidOp, "unsupported version %d", version)
	}
	total := int(getU32(buf, 12))
	if total != len(buf) {
		return nil, rezierr.Newf(rezierr.InvalidOp, "declared size %d does not match buffer length %d", total, len(buf))
	}
	cmdOffset := int(getU32(buf, 16))
	cmdBytes := int(getU32(buf, 20))
	cmdCount := int(getU32(buf, 24))
	stringsSpanOffset := int(getU32(buf, 28))
	stringsCount := int(getU32(buf, 32))
	stringsBytesOffset := int(getU32(buf, 36))
	stringsBytesLen := int(getU32(buf, 40))
	blobsSpanOffset := int(getU32(buf, 44))
	blobsCount := int(getU32(buf, 48))
	blobsBytesOffset := int(getU32(buf, 52))
	blobsBytesLen := int(getU32(buf, 56))

	if err := checkRange(len(buf), cmdOffset, cmdBytes); err != nil {
		return nil, err
	}
	if err := checkRange(len(buf), stringsSpanOffset, stringsCount*8); err != nil {
		return nil, err
	}
	if err := checkRange(len(buf), stringsBytesOffset, stringsBytesLen); err != nil {
		return nil, err
	}
	if err := checkRange(len(buf), blobsSpanOffset, blobsCount*8); err != nil {
		return nil, err
	}
	if err := checkRange(len(buf), blobsBytesOffset, blobsBytesLen); err != nil {
		return nil, err
	}

	cmds, err := parseCmds(buf[cmdOffset:cmdOffset+cmdBytes], cmdCount)
	if err != nil {
		return nil, err
	}

	strTable := buf[stringsBytesOffset : stringsBytesOffset+stringsBytesLen]
	strings := make([]string, stringsCount)
	for i := 0; i < stringsCount; i++ {
		off := stringsSpanOffset + i*8
		spanOff := int(getU32(buf, off))
		spanLen := int(getU32(buf, off+4))
		if spanOff < 0 || spanLen < 0 || spanOff+spanLen > len(strTable) {
			return nil, rezierr.Newf(rezierr.InvalidOp, "string span %d out of range", i)
		}
		strings[i] = string(strTable[spanOff : spanOff+spanLen])
	}

	blobTable := buf[blobsBytesOffset : blobsBytesOffset+blobsBytesLen]
	blobs := make([][]byte, blobsCount)
	for i := 0; i < blobsCount; i++ {
		off := blobsSpanOffset + i*8
		spanOff := int(getU32(buf, off))
		spanLen := int(getU32(buf, off+4))
		if spanOff < 0 || spanLen < 0 || spanOff+spanLen > len(blobTable) {
			return nil, rezierr.Newf(rezierr.InvalidOp, "blob span %d out of range", i)
		}
		blobs[i] = blobTable[spanOff : spanOff+spanLen]
	}

	return &Drawlist{Version: version, Cmds: cmds, Strings: strings, Blobs: blobs}, nil
}

func checkRange(bufLen, offset, length int) error {
	if offset < 0 || length < 0 || offset+length > bufLen {
		return rezierr.Newf(rezierr.InvalidOp, "region [%d,%d) out of bounds for buffer of length %d", offset, offset+length, bufLen)
	}
	return nil
}

func parseCmds(region []byte, expectedCount int) ([]Cmd, error) {
	cmds := make([]Cmd, 0, expectedCount)
	pos := 0
	for pos < len(region) {
		if pos+8 > len(region) {
			return nil, rezierr.New(rezierr.InvalidOp, "truncated command header")
		}
		op := Opcode(getU16(region, pos))
		length := int(getU32(region, pos+4))
		payloadStart := pos + 8
		if length < 0 || payloadStart+length > len(region) {
			return nil, rezierr.New(rezierr.InvalidOp, "command payload out of bounds")
		}
		cmds = append(cmds, Cmd{Op: op, Payload: region[payloadStart : payloadStart+length]})
		pos = payloadStart + align4(length)
	}
	if len(cmds) != expectedCount {
		return nil, rezierr.Newf(rezierr.InvalidOp, "command count mismatch: header says %d, decoded %d", expectedCount, len(cmds))
	}
	return cmds, nil
}

// FillRectParams decodes a FILL_RECT command's payload.
func FillRectParams(c Cmd) (x, y, w, h int, color uint32) {
	return int(getI32(c.Payload, 0)), int(getI32(c.Payload, 4)), int(getI32(c.Payload, 8)), int(getI32(c.Payload, 12)), getU32(c.Payload, 16)
}

// DrawTextParams decodes a DRAW_TEXT command's payload; strIndex indexes
// Drawlist.Strings. byteLen is the source string's encoded length, kept
// on the wire so a renderer can validate it against the interned span.
func DrawTextParams(c Cmd) (x, y int, strIndex, flags, byteLen, fg, bg, attrs uint32) {
	return int(getI32(c.Payload, 0)), int(getI32(c.Payload, 4)), getU32(c.Payload, 8), getU32(c.Payload, 12), getU32(c.Payload, 16), getU32(c.Payload, 20), getU32(c.Payload, 24), getU32(c.Payload, 28)
}

// DrawTextRunParams decodes a DRAW_TEXT_RUN command's payload; blobIndex
// indexes Drawlist.Blobs, whose bytes TextRunSegments then decodes.
func DrawTextRunParams(c Cmd) (x, y int, blobIndex, flags uint32) {
	return int(getI32(c.Payload, 0)), int(getI32(c.Payload, 4)), getU32(c.Payload, 8), getU32(c.Payload, 12)
}

// TextRunSegments decodes a DRAW_TEXT_RUN blob (a u32 segment count
// followed by that many 40-byte segment records) into strIndex/fg/bg/attrs
// tuples; the caller resolves strIndex against Drawlist.Strings.
func TextRunSegments(blob []byte) (segs []DecodedSegment, ok bool) {
	if len(blob) < 4 {
		return nil, false
	}
	count := int(getU32(blob, 0))
	if 4+40*count != len(blob) {
		return nil, false
	}
	segs = make([]DecodedSegment, count)
	off := 4
	for i := 0; i < count; i++ {
		segs[i] = DecodedSegment{
			Fg:       getU32(blob, off),
			Bg:       getU32(blob, off+4),
			Attrs:    getU32(blob, off+8),
			StrIndex: getU32(blob, off+12),
		}
		off += 40
	}
	return segs, true
}

// DecodedSegment is one parsed DRAW_TEXT_RUN blob segment.
type DecodedSegment struct {
	Fg, Bg, Attrs, StrIndex uint32
}

// ClipParams decodes a PUSH_CLIP command's payload.
func ClipParams(c Cmd) (x, y, w, h int) {
	return int(getI32(c.Payload, 0)), int(getI32(c.Payload, 4)), int(getI32(c.Payload, 8)), int(getI32(c.Payload, 12))
}

// SetLinkIndex decodes a SET_LINK command's payload; ok is false when this
// command clears the active link.
func SetLinkIndex(c Cmd) (index uint32, ok bool) {
	idx := getU32(c.Payload, 0)
	return idx, idx != linkCleared
}
