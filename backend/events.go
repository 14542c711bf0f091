package backend

import "github.com/rezi-tui/rezi/rezierr"

// EventKind discriminates one packed event record.
type EventKind uint16

const (
	EventKey EventKind = iota + 1
	EventText
	EventPaste
	EventMouse
	EventResize
	EventTick
	EventFocus
	EventUser
)

// KeyAction is a key event's transition.
type KeyAction uint8

const (
	ActionDown KeyAction = iota
	ActionUp
	ActionRepeat
)

// MouseKind is a mouse event's transition.
type MouseKind uint8

const (
	MouseDown MouseKind = iota
	MouseUp
	MouseDrag
	MouseScroll
)

// Mod bits, OR'd into Event.Mods.
const (
	ModShift uint8 = 1 << iota
	ModAlt
	ModCtrl
	ModMeta
)

// Event is one decoded input event. Only the fields relevant to Kind are
// meaningful; the rest are zero. A single flat struct (rather than one
// type per kind) keeps the hot poll-and-dispatch path allocation-free.
type Event struct {
	Kind        EventKind
	TimestampMs int64 // unwrapped monotonic milliseconds

	// key
	Code   uint32
	Mods   uint8
	Action KeyAction

	// text / paste
	Text string

	// mouse
	X, Y             int
	MouseKind        MouseKind
	Buttons          uint8
	WheelDX, WheelDY int

	// resize
	Cols, Rows int

	// tick
	DtMs int64

	// focus
	Focused bool

	// user
	Tag     string
	Payload []byte
}

// EventBatch is the result of one PollEvents call.
type EventBatch struct {
	Events         []Event
	DroppedBatches uint32
	Truncated      bool
}

// TimestampUnwrapper turns a backend's raw 32-bit millisecond timestamps
// into a monotonically increasing int64 stream, the way the wire parser
// is required to. One instance must be reused across every batch from the
// same backend — a fresh instance would treat every wraparound as a
// restart.
type TimestampUnwrapper struct {
	epochMs     int64
	lastRawMs   uint32
	initialized bool
}

// Unwrap folds one raw 32-bit timestamp into the running epoch.
func (u *TimestampUnwrapper) Unwrap(rawMs uint32) int64 {
	if !u.initialized {
		u.initialized = true
		u.lastRawMs = rawMs
		return int64(rawMs)
	}
	if rawMs < u.lastRawMs {
		u.epochMs += 1 << 32
	}
	u.lastRawMs = rawMs
	return u.epochMs + int64(rawMs)
}

const (
	eventMagic   uint32 = 0x5A524556 // "ZREV" little-endian
	eventVersion uint32 = 1
	eventHeaderSize = 20
	flagTruncated uint32 = 1
)

func putU32(b []byte, off int, v uint32) {
	b[off] = byte(v)
	b[off+1] = byte(v >> 8)
	b[off+2] = byte(v >> 16)
	b[off+3] = byte(v >> 24)
}

func getU32(b []byte, off int) uint32 {
	return uint32(b[off]) | uint32(b[off+1])<<8 | uint32(b[off+2])<<16 | uint32(b[off+3])<<24
}

func align4(n int) int { return (n + 3) &^ 3 }

// EncodeBatch serializes batch into the ZREV wire format. Used by backend
// implementations that cross a process/transport boundary, and by the
// repro bundle recorder to capture a batch verbatim.
func EncodeBatch(batch EventBatch) []byte {
	var recs []byte
	for _, e := range batch.Events {
		recs = append(recs, encodeEvent(e)...)
	}
	total := eventHeaderSize + len(recs)
	buf := make([]byte, total)
	putU32(buf, 0, eventMagic)
	putU32(buf, 4, eventVersion)
	putU32(buf, 8, uint32(total))
	putU32(buf, 12, uint32(len(batch.Events)))
	flags := uint32(0)
	if batch.Truncated {
		flags |= flagTruncated
	}
	putU32(buf, 16, flags)
	copy(buf[eventHeaderSize:], recs)
	// DroppedBatches is always appended after the records as a trailing
	// u32, and the header's total size is updated to include it.
	return appendDroppedBatches(buf, batch.DroppedBatches)
}

func appendDroppedBatches(buf []byte, dropped uint32) []byte {
	tail := make([]byte, 4)
	putU32(tail, 0, dropped)
	out := append(buf, tail...)
	putU32(out, 8, uint32(len(out)))
	return out
}

func encodeEvent(e Event) []byte {
	var payload []byte
	switch e.Kind {
	case EventKey:
		payload = make([]byte, 12)
		putU32(payload, 0, e.Code)
		payload[4] = e.Mods
		payload[5] = byte(e.Action)
		putU32(payload, 8, uint32(e.TimestampMs))
	case EventText, EventPaste:
		txt := []byte(e.Text)
		payload = make([]byte, align4(8+len(txt)))
		putU32(payload, 0, uint32(e.TimestampMs))
		putU32(payload, 4, uint32(len(txt)))
		copy(payload[8:], txt)
	case EventMouse:
		payload = make([]byte, 24)
		putU32(payload, 0, uint32(int32(e.X)))
		putU32(payload, 4, uint32(int32(e.Y)))
		payload[8] = byte(e.MouseKind)
		payload[9] = e.Buttons
		payload[10] = e.Mods
		putU32(payload, 12, uint32(int32(e.WheelDX)))
		putU32(payload, 16, uint32(int32(e.WheelDY)))
		putU32(payload, 20, uint32(e.TimestampMs))
	case EventResize:
		payload = make([]byte, 8)
		putU32(payload, 0, uint32(e.Cols))
		putU32(payload, 4, uint32(e.Rows))
	case EventTick:
		payload = make([]byte, 4)
		putU32(payload, 0, uint32(e.DtMs))
	case EventFocus:
		payload = make([]byte, 4)
		if e.Focused {
			payload[0] = 1
		}
	case EventUser:
		tag := []byte(e.Tag)
		off := align4(4 + len(tag))
		payload = make([]byte, off+4+len(e.Payload))
		putU32(payload, 0, uint32(len(tag)))
		copy(payload[4:], tag)
		putU32(payload, off, uint32(len(e.Payload)))
		copy(payload[off+4:], e.Payload)
	}
	head := make([]byte, 8)
	putU32(head, 0, uint32(e.Kind))
	putU32(head, 4, uint32(len(payload)))
	return append(head, payload...)
}

// ParseBatch decodes one ZREV-formatted buffer into an EventBatch,
// unwrapping each record's raw 32-bit timestamp through unwrapper. A
// malformed buffer returns rezierr.ProtocolError; per the batch-parse
// failure policy the caller discards the batch and keeps polling.
func ParseBatch(buf []byte, unwrapper *TimestampUnwrapper) (EventBatch, error) {
	if len(buf) < eventHeaderSize {
		return EventBatch{}, rezierr.New(rezierr.ProtocolError, "event batch shorter than header")
	}
	if getU32(buf, 0) != eventMagic {
		return EventBatch{}, rezierr.New(rezierr.ProtocolError, "bad event batch magic")
	}
	if getU32(buf, 4) != eventVersion {
		return EventBatch{}, rezierr.Newf(rezierr.ProtocolError, "unsupported event batch version %d", getU32(buf, 4))
	}
	total := int(getU32(buf, 8))
	if total < eventHeaderSize+4 || total > len(buf) {
		return EventBatch{}, rezierr.New(rezierr.ProtocolError, "event batch total size out of range")
	}
	count := int(getU32(buf, 12))
	flags := getU32(buf, 16)
	dropped := getU32(buf, total-4)

	region := buf[eventHeaderSize : total-4]
	events := make([]Event, 0, count)
	off := 0
	for i := 0; i < count; i++ {
		if off+8 > len(region) {
			return EventBatch{}, rezierr.New(rezierr.ProtocolError, "truncated event record header")
		}
		kind := EventKind(getU32(region, off))
		size := int(getU32(region, off+4))
		off += 8
		if size < 0 || off+size > len(region) {
			return EventBatch{}, rezierr.New(rezierr.ProtocolError, "truncated event record payload")
		}
		payload := region[off : off+size]
		off += size
		ev, err := decodeEvent(kind, payload, unwrapper)
		if err != nil {
			return EventBatch{}, err
		}
		events = append(events, ev)
	}
	return EventBatch{
		Events:         events,
		DroppedBatches: dropped,
		Truncated:      flags&flagTruncated != 0,
	}, nil
}

func decodeEvent(kind EventKind, p []byte, unwrapper *TimestampUnwrapper) (Event, error) {
	switch kind {
	case EventKey:
		if len(p) < 12 {
			return Event{}, rezierr.New(rezierr.ProtocolError, "short key event payload")
		}
		return Event{
			Kind:        EventKey,
			Code:        getU32(p, 0),
			Mods:        p[4],
			Action:      KeyAction(p[5]),
			TimestampMs: unwrapper.Unwrap(getU32(p, 8)),
		}, nil
	case EventText, EventPaste:
		if len(p) < 8 {
			return Event{}, rezierr.New(rezierr.ProtocolError, "short text/paste event payload")
		}
		ts := unwrapper.Unwrap(getU32(p, 0))
		n := int(getU32(p, 4))
		if 8+n > len(p) {
			return Event{}, rezierr.New(rezierr.ProtocolError, "text/paste event byte length out of range")
		}
		return Event{Kind: kind, TimestampMs: ts, Text: string(p[8 : 8+n])}, nil
	case EventMouse:
		if len(p) < 24 {
			return Event{}, rezierr.New(rezierr.ProtocolError, "short mouse event payload")
		}
		return Event{
			Kind:        EventMouse,
			X:           int(int32(getU32(p, 0))),
			Y:           int(int32(getU32(p, 4))),
			MouseKind:   MouseKind(p[8]),
			Buttons:     p[9],
			Mods:        p[10],
			WheelDX:     int(int32(getU32(p, 12))),
			WheelDY:     int(int32(getU32(p, 16))),
			TimestampMs: unwrapper.Unwrap(getU32(p, 20)),
		}, nil
	case EventResize:
		if len(p) < 8 {
			return Event{}, rezierr.New(rezierr.ProtocolError, "short resize event payload")
		}
		return Event{Kind: EventResize, Cols: int(getU32(p, 0)), Rows: int(getU32(p, 4))}, nil
	case EventTick:
		if len(p) < 4 {
			return Event{}, rezierr.New(rezierr.ProtocolError, "short tick event payload")
		}
		return Event{Kind: EventTick, DtMs: int64(getU32(p, 0))}, nil
	case EventFocus:
		if len(p) < 4 {
			return Event{}, rezierr.New(rezierr.ProtocolError, "short focus event payload")
		}
		return Event{Kind: EventFocus, Focused: p[0] != 0}, nil
	case EventUser:
		if len(p) < 4 {
			return Event{}, rezierr.New(rezierr.ProtocolError, "short user event payload")
		}
		tagLen := int(getU32(p, 0))
		if 4+tagLen > len(p) {
			return Event{}, rezierr.New(rezierr.ProtocolError, "user event tag length out of range")
		}
		tag := string(p[4 : 4+tagLen])
		off := align4(4 + tagLen)
		if off+4 > len(p) {
			return Event{}, rezierr.New(rezierr.ProtocolError, "truncated user event payload length")
		}
		payloadLen := int(getU32(p, off))
		if off+4+payloadLen > len(p) {
			return Event{}, rezierr.New(rezierr.ProtocolError, "user event payload length out of range")
		}
		payload := append([]byte(nil), p[off+4:off+4+payloadLen]...)
		return Event{Kind: EventUser, Tag: tag, Payload: payload}, nil
	default:
		return Event{}, rezierr.Newf(rezierr.ProtocolError, "unknown event kind %d", kind)
	}
}
