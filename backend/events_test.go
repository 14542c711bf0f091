package backend

import (
	"bytes"
	"testing"
)

func TestEventBatchRoundTrip(t *testing.T) {
	batch := EventBatch{
		Events: []Event{
			{Kind: EventKey, Code: 13, Mods: ModShift, Action: ActionDown, TimestampMs: 1000},
			{Kind: EventText, Text: "hi", TimestampMs: 1001},
			{Kind: EventPaste, Text: "pasted block", TimestampMs: 1002},
			{Kind: EventMouse, X: 5, Y: 6, MouseKind: MouseScroll, Buttons: 1, WheelDX: 0, WheelDY: -1, TimestampMs: 1003},
			{Kind: EventResize, Cols: 80, Rows: 24},
			{Kind: EventTick, DtMs: 16},
			{Kind: EventFocus, Focused: true},
			{Kind: EventUser, Tag: "myTag", Payload: []byte{1, 2, 3, 4, 5}},
		},
		DroppedBatches: 2,
		Truncated:      true,
	}

	buf := EncodeBatch(batch)
	var unwrap TimestampUnwrapper
	got, err := ParseBatch(buf, &unwrap)
	if err != nil {
		t.Fatalf("ParseBatch: %v", err)
	}
	if got.DroppedBatches != 2 || !got.Truncated {
		t.Fatalf("metadata mismatch: %+v", got)
	}
	if len(got.Events) != len(batch.Events) {
		t.Fatalf("event count mismatch: got %d want %d", len(got.Events), len(batch.Events))
	}
	for i, want := range batch.Events {
		got := got.Events[i]
		if got.Kind != want.Kind {
			t.Fatalf("event %d kind: got %v want %v", i, got.Kind, want.Kind)
		}
		switch want.Kind {
		case EventKey:
			if got.Code != want.Code || got.Mods != want.Mods || got.Action != want.Action {
				t.Fatalf("event %d key mismatch: got %+v want %+v", i, got, want)
			}
		case EventText, EventPaste:
			if got.Text != want.Text {
				t.Fatalf("event %d text mismatch: got %q want %q", i, got.Text, want.Text)
			}
		case EventMouse:
			if got.X != want.X || got.Y != want.Y || got.MouseKind != want.MouseKind || got.WheelDY != want.WheelDY {
				t.Fatalf("event %d mouse mismatch: got %+v want %+v", i, got, want)
			}
		case EventResize:
			if got.Cols != want.Cols || got.Rows != want.Rows {
				t.Fatalf("event %d resize mismatch: got %+v want %+v", i, got, want)
			}
		case EventTick:
			if got.DtMs != want.DtMs {
				t.Fatalf("event %d tick mismatch: got %+v want %+v", i, got, want)
			}
		case EventFocus:
			if got.Focused != want.Focused {
				t.Fatalf("event %d focus mismatch: got %+v want %+v", i, got, want)
			}
		case EventUser:
			if got.Tag != want.Tag || !bytes.Equal(got.Payload, want.Payload) {
				t.Fatalf("event %d user mismatch: got %+v want %+v", i, got, want)
			}
		}
	}
}

func TestParseBatchRejectsBadMagic(t *testing.T) {
	buf := EncodeBatch(EventBatch{Events: []Event{{Kind: EventTick, DtMs: 1}}})
	buf[0] ^= 0xff
	var unwrap TimestampUnwrapper
	if _, err := ParseBatch(buf, &unwrap); err == nil {
		t.Fatal("expected protocol error for corrupted magic")
	}
}

func TestParseBatchRejectsTruncatedBuffer(t *testing.T) {
	buf := EncodeBatch(EventBatch{Events: []Event{
		{Kind: EventText, Text: "hello world", TimestampMs: 5},
	}})
	var unwrap TimestampUnwrapper
	if _, err := ParseBatch(buf[:len(buf)-3], &unwrap); err == nil {
		t.Fatal("expected protocol error for truncated buffer")
	}
}

func TestTimestampUnwrapAcrossWraparound(t *testing.T) {
	var u TimestampUnwrapper
	if got := u.Unwrap(4000000000); got != 4000000000 {
		t.Fatalf("first unwrap: got %d", got)
	}
	// raw counter wraps past 2^32
	if got := u.Unwrap(1000); got != (int64(1)<<32)+1000 {
		t.Fatalf("wrapped unwrap: got %d want %d", got, (int64(1)<<32)+1000)
	}
	if got := u.Unwrap(2000); got != (int64(1)<<32)+2000 {
		t.Fatalf("post-wrap monotonic step: got %d", got)
	}
}
