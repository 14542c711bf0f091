package session

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/rezi-tui/rezi/backend"
	"github.com/rezi-tui/rezi/drawlist"
	"github.com/rezi-tui/rezi/vnode"
)

type fakeBackend struct {
	mu      sync.Mutex
	frames  [][]byte
	stopped bool
}

func (f *fakeBackend) Start(ctx context.Context) error { return nil }
func (f *fakeBackend) Stop(ctx context.Context) error {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
	return nil
}
func (f *fakeBackend) Dispose() {}
func (f *fakeBackend) RequestFrame(ctx context.Context, buf []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return backend.ErrStopped
	}
	cp := append([]byte(nil), buf...)
	f.frames = append(f.frames, cp)
	return nil
}
func (f *fakeBackend) PollEvents(ctx context.Context) (backend.EventBatch, error) {
	return backend.EventBatch{}, nil
}
func (f *fakeBackend) GetCaps(ctx context.Context) (backend.TerminalCaps, error) {
	return backend.TerminalCaps{}, nil
}
func (f *fakeBackend) PostUserEvent(tag string, payload []byte) {}

func (f *fakeBackend) frameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func simpleTree(label string) vnode.VNode {
	return vnode.Box(map[string]interface{}{"width": 80, "height": 24},
		vnode.Text(label, nil))
}

func TestRenderFrameProducesValidDrawlist(t *testing.T) {
	fb := &fakeBackend{}
	s := New(fb)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Resize(80, 24)

	if err := s.RenderFrame(context.Background(), simpleTree("hello")); err != nil {
		t.Fatalf("RenderFrame: %v", err)
	}
	if fb.frameCount() != 1 {
		t.Fatalf("expected 1 submitted frame, got %d", fb.frameCount())
	}
	if _, err := drawlist.Parse(fb.frames[0]); err != nil {
		t.Fatalf("Parse submitted frame: %v", err)
	}
}

func TestRenderFrameStableAcross128Frames(t *testing.T) {
	fb := &fakeBackend{}
	s := New(fb)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Resize(80, 24)

	for i := 0; i < 128; i++ {
		if err := s.RenderFrame(context.Background(), simpleTree("hello")); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
	}
	if got := s.LiveInstanceCount(); got != 2 {
		t.Fatalf("expected live count to stay at 2 (box+text) across identical frames, got %d", got)
	}
}

func TestStopIsIdempotentAndRejectsSubsequentRenderFrame(t *testing.T) {
	fb := &fakeBackend{}
	s := New(fb)
	_ = s.Start(context.Background())
	s.Resize(80, 24)
	_ = s.RenderFrame(context.Background(), simpleTree("a"))

	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("first Stop: %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
	if err := s.RenderFrame(context.Background(), simpleTree("b")); err != backend.ErrStopped {
		t.Fatalf("expected ErrStopped after Stop, got %v", err)
	}
}

func TestBreadcrumbsLogOneRecordPerFrameAtDebugLevel(t *testing.T) {
	fb := &fakeBackend{}
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s := New(fb, EnableBreadcrumbs(logger))
	_ = s.Start(context.Background())
	s.Resize(80, 24)
	_ = s.RenderFrame(context.Background(), simpleTree("a"))
	_ = s.RenderFrame(context.Background(), simpleTree("b"))

	out := buf.String()
	if got := strings.Count(out, "render frame"); got != 2 {
		t.Fatalf("expected 2 logged breadcrumbs, got %d\n%s", got, out)
	}
	if !strings.Contains(out, "commit=") {
		t.Fatalf("expected a commit phase timing in the log output:\n%s", out)
	}
}

// blockingBackend blocks RequestFrame until unblock is closed, so a test
// can observe a second RenderFrame's bytes superseding a still-pending
// first submission.
type blockingBackend struct {
	fakeBackend
	unblock   chan struct{}
	requested chan []byte
}

func newBlockingBackend() *blockingBackend {
	return &blockingBackend{unblock: make(chan struct{}), requested: make(chan []byte, 4)}
}

func (b *blockingBackend) RequestFrame(ctx context.Context, buf []byte) error {
	cp := append([]byte(nil), buf...)
	b.requested <- cp
	<-b.unblock
	return b.fakeBackend.RequestFrame(ctx, buf)
}

func TestLatestFrameSupersedesPendingSubmission(t *testing.T) {
	bb := newBlockingBackend()
	s := New(bb)
	_ = s.Start(context.Background())
	s.Resize(80, 24)

	done := make(chan error, 1)
	go func() { done <- s.RenderFrame(context.Background(), simpleTree("first")) }()

	<-bb.requested // first frame's bytes are now blocked inside RequestFrame

	if err := s.RenderFrame(context.Background(), simpleTree("second")); err != nil {
		t.Fatalf("second RenderFrame: %v", err)
	}

	close(bb.unblock)
	if err := <-done; err != nil {
		t.Fatalf("first RenderFrame: %v", err)
	}

	// The first frame's bytes were already in flight when the second
	// arrived, so that call completes as sent; the superseding call
	// itself returns immediately without blocking behind it, and the
	// first call's goroutine is the one that flushes the latest queued
	// bytes once the backend acks. Both frames end up submitted (the
	// in-flight one can't be unsent), but no third or later frame would
	// ever queue up behind a slow backend — only ever the newest pending
	// one.
	if got := bb.frameCount(); got != 2 {
		t.Fatalf("expected exactly 2 submitted frames (in-flight + latest), got %d", got)
	}
}

func TestHitTestFindsFocusableUnderPoint(t *testing.T) {
	fb := &fakeBackend{}
	s := New(fb)
	_ = s.Start(context.Background())
	s.Resize(80, 24)

	tree := vnode.Row(nil, vnode.Leaf(vnode.KindButton, map[string]interface{}{"width": 10, "height": 1}))
	if err := s.RenderFrame(context.Background(), tree); err != nil {
		t.Fatalf("RenderFrame: %v", err)
	}

	if _, ok := s.HitTest(0, 0); !ok {
		t.Fatal("expected a focusable instance at (0,0)")
	}
	if _, ok := s.HitTest(79, 23); ok {
		t.Fatal("expected no focusable instance far outside the button")
	}
}
