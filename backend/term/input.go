package term

import (
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/rezi-tui/rezi/backend"
)

// inputReader reads raw bytes off a terminal file descriptor and decodes
// them into backend.Event values on a background goroutine, the same
// buffered-read-loop-into-a-channel idiom as the teacher's
// unixInputReader, generalized to decode via x/ansi's escape-sequence
// recognition instead of a hand-rolled byte-by-byte state machine.
type inputReader struct {
	in   *os.File
	quit chan struct{}
	wg   sync.WaitGroup

	mu     sync.Mutex
	queued []backend.Event
	dropped uint32

	unwrap backend.TimestampUnwrapper
	start  time.Time
}

func newInputReader(in *os.File, w, h int) *inputReader {
	return &inputReader{in: in, quit: make(chan struct{}), start: time.Now()}
}

func (r *inputReader) start() {
	r.wg.Add(1)
	go r.readLoop()
}

func (r *inputReader) stop() {
	close(r.quit)
	r.wg.Wait()
}

// drain returns every event decoded since the last call and clears the
// queue, plus the count of batches that would have been produced between
// calls (always 0 here — this reader only coalesces within one batch, it
// never discards a batch outright, so DroppedBatches mirrors the
// backend-level queue overflow counter instead).
func (r *inputReader) drain() backend.EventBatch {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := r.queued
	r.queued = nil
	dropped := r.dropped
	r.dropped = 0
	return backend.EventBatch{Events: events, DroppedBatches: dropped}
}

func (r *inputReader) push(e backend.Event) {
	const maxQueued = 4096
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queued) >= maxQueued {
		r.dropped++
		return
	}
	r.queued = append(r.queued, e)
}

func (r *inputReader) nowMs() int64 {
	return time.Since(r.start).Milliseconds()
}

func (r *inputReader) readLoop() {
	defer r.wg.Done()
	buf := make([]byte, 0, 256)
	chunk := make([]byte, 128)

	for {
		select {
		case <-r.quit:
			return
		default:
		}

		r.in.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
		n, err := r.in.Read(chunk)
		if err != nil {
			continue
		}
		if n == 0 {
			continue
		}
		buf = append(buf, chunk[:n]...)

		for len(buf) > 0 {
			consumed, ok := r.decodeOne(buf)
			if !ok {
				break
			}
			buf = buf[consumed:]
		}
	}
}

// decodeOne decodes exactly one event from the front of buf, returning
// how many bytes it consumed. ok is false when buf holds an incomplete
// escape sequence and the caller should wait for more bytes.
func (r *inputReader) decodeOne(buf []byte) (int, bool) {
	seq, width, n := ansi.DecodeSequence(buf, nil)
	if n == 0 {
		return 0, false
	}
	ts := r.nowMs()

	switch s := seq.(type) {
	case ansi.Rune:
		r.push(backend.Event{Kind: backend.EventKey, Code: uint32(s), Action: backend.ActionDown, TimestampMs: ts})
	case ansi.KeySym:
		r.push(backend.Event{Kind: backend.EventKey, Code: uint32(s), Action: backend.ActionDown, TimestampMs: ts})
	case ansi.MouseEvent:
		r.push(mouseEvent(s, ts))
	default:
		_ = width
	}
	return n, true
}

func mouseEvent(m ansi.MouseEvent, ts int64) backend.Event {
	x, y := m.Position()
	kind := backend.MouseDown
	switch {
	case m.IsRelease():
		kind = backend.MouseUp
	case m.IsWheel():
		kind = backend.MouseScroll
	case m.IsMotion():
		kind = backend.MouseDrag
	}
	return backend.Event{
		Kind:        backend.EventMouse,
		X:           x,
		Y:           y,
		MouseKind:   kind,
		TimestampMs: ts,
	}
}
