// Package session drives the six-stage frame pipeline end to end: commit,
// constraint build/resolve, layout, incremental render, and drawlist
// build, then hands the built bytes to a backend.Backend with latest-wins
// frame submission.
//
// Grounded on the teacher's core.Runtime (tui/runtime/core/runtime.go): a
// single mutex-guarded struct composing one collaborator per stage, an
// idempotent Start/Stop pair, and a staged Update/Render split — here
// collapsed into one RenderFrame call per the pipeline's single
// non-interruptible render pass.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/rezi-tui/rezi/backend"
	"github.com/rezi-tui/rezi/constraint"
	"github.com/rezi-tui/rezi/drawlist"
	"github.com/rezi-tui/rezi/instance"
	"github.com/rezi-tui/rezi/layout"
	"github.com/rezi-tui/rezi/render"
	"github.com/rezi-tui/rezi/rezierr"
	"github.com/rezi-tui/rezi/vnode"
)

// Option configures a Session at construction.
type Option func(*Session)

// EnableBreadcrumbs routes per-frame debug-trace records (phase timings,
// damage summary, focus summary) to logger at slog.LevelDebug. Breadcrumbs
// are off by default — recording one costs a traversal the steady-state
// render path otherwise skips.
func EnableBreadcrumbs(logger *slog.Logger) Option {
	return func(s *Session) { s.breadcrumbs = logger }
}

// WithBuilderConfig overrides the drawlist builder's capacity caps.
func WithBuilderConfig(cfg drawlist.Config) Option {
	return func(s *Session) { s.builderCfg = cfg }
}

// WithMeasurer overrides the text-measurement collaborator the layout
// stage and baseline fallback consult. Defaults to layout.TextMeasurer{}.
func WithMeasurer(m layout.Measurer) Option {
	return func(s *Session) { s.measurer = m }
}

// Session owns one pipeline's worth of across-frame state: the committed
// instance tree, the previous frame's layout tree (for baseline fallback
// and scroll-copy comparisons), the constraint resolver's cache, and the
// backend frame/event transport.
type Session struct {
	mu sync.Mutex

	id   uuid.UUID
	back backend.Backend

	alloc     *instance.Allocator
	liveCount int64
	resolver  *constraint.Resolver
	measurer  layout.Measurer
	renderer  *render.Renderer
	builder   *drawlist.Builder

	builderCfg  drawlist.Config
	breadcrumbs *slog.Logger

	prevInstance *instance.Instance
	prevLayout   *layout.Node
	cols, rows   int

	focus instance.ID

	started bool
	stopped bool

	frameMu     sync.Mutex
	frameInFlig bool
	latestFrame []byte
	hasLatest   bool
}

// New builds a Session over back, applying opts. The session owns back's
// lifecycle from Start through Stop/Dispose.
func New(back backend.Backend, opts ...Option) *Session {
	s := &Session{
		id:         uuid.New(),
		back:       back,
		alloc:      instance.NewAllocator(),
		resolver:   constraint.NewResolver(),
		measurer:   layout.TextMeasurer{},
		renderer:   render.New(),
		builderCfg: drawlist.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.builder = drawlist.NewBuilder(s.builderCfg)
	return s
}

// Start brings up the backend. It does not read a viewport size; the
// extent stays 0x0 until Resize is called.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	if err := s.back.Start(ctx); err != nil {
		return rezierr.Wrap(rezierr.BackendError, "backend start failed", err)
	}
	s.started = true
	return nil
}

// Stop drains no further frames, idempotently stops the backend, and
// disposes the committed tree's effects so cleanups run exactly once.
// Per the concurrency model a double Stop is a no-op, not an error.
func (s *Session) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.stopped = true

	if s.prevInstance != nil {
		instance.Dispose(s.prevInstance, &s.liveCount)
		s.prevInstance = nil
	}

	if err := s.back.Stop(ctx); err != nil {
		return rezierr.Wrap(rezierr.BackendError, "backend stop failed", err)
	}
	s.back.Dispose()
	return nil
}

// Resize updates the viewport extent the next RenderFrame lays out
// against. Typically driven by a backend.EventResize the caller polled.
func (s *Session) Resize(cols, rows int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cols, s.rows = cols, rows
}

// SetFocus marks id as the focused instance for the next frame's focus
// ring and cursor placement. Zero clears focus.
func (s *Session) SetFocus(id instance.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.focus = id
}

// ID is this session's identifier, stable for its lifetime. Surfaced in
// breadcrumb records and as repro.Recorder.SetSessionID's argument so a
// replayed bundle can be traced back to the log it was captured beside.
func (s *Session) ID() string {
	return s.id.String()
}

// LiveInstanceCount is the number of committed instances not yet
// disposed, exposed for diagnostics/tests; it is not itself part of the
// pipeline.
func (s *Session) LiveInstanceCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liveCount
}

// RenderFrame runs the full commit -> constraint -> layout -> render ->
// build pipeline over view and submits the resulting drawlist to the
// backend with latest-wins semantics: if a previous submission's ack is
// still pending, this frame's bytes replace it rather than queuing behind
// it, and RenderFrame returns as soon as its bytes are either sent or
// superseded by a still-newer call.
//
// Stages A-E run in strict order under s.mu and are the pipeline's one
// non-interruptible render pass per frame; no stage may observe a
// partially-applied result of another. The mutex is released before the
// backend frame-ack wait (stage F's submission) so a subsequent
// RenderFrame call's own A-E pass can run, and if it finishes first, its
// bytes are what the still-outstanding ack wait ultimately sends —
// exactly the "frame submission is latest-wins when an ack is pending"
// suspension point the concurrency model names, rather than every frame
// queuing strictly behind the last one's ack.
func (s *Session) RenderFrame(ctx context.Context, view vnode.VNode) error {
	frameBytes, err := s.buildFrame(view)
	if err != nil {
		return err
	}
	return s.submitFrame(ctx, frameBytes)
}

// buildFrame runs stages A-E and returns the built drawlist bytes,
// holding s.mu for the whole pass.
func (s *Session) buildFrame(view vnode.VNode) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil, backend.ErrStopped
	}

	bc := newBreadcrumb(s.breadcrumbs, s.id)

	// A. commit
	bc.mark("commit")
	next, err := instance.Commit(s.prevInstance, view, s.alloc, &s.liveCount)
	if err != nil {
		bc.flush(s.breadcrumbs)
		return nil, err
	}

	// B. constraint
	bc.mark("constraint")
	graph, err := constraint.Build(next)
	if err != nil {
		bc.flush(s.breadcrumbs)
		return nil, err
	}
	viewport := constraint.Metrics{W: float64(s.cols), H: float64(s.rows)}
	baseline := newFrameBaseline(s.prevLayout, next, s.measurer, s.cols)
	resolved := s.resolver.Resolve(graph, baseline, viewport, viewport)

	// C. layout
	bc.mark("layout")
	tree, err := layout.Layout(next, layout.Resolved(resolved), s.measurer, 0, 0, s.cols, s.rows, layout.AxisRow)
	if err != nil {
		bc.flush(s.breadcrumbs)
		return nil, err
	}

	// D. render
	bc.mark("render")
	s.builder.Reset()
	byID := map[instance.ID]*instance.Instance{}
	indexInstances(next, byID)
	overlaps := computeOverlaps(tree, byID)
	plan := render.Plan{Commit: true, Layout: true, CheckLayoutStability: s.prevLayout != nil}
	focusState := render.FocusState{FocusedID: s.focus}
	if err := s.renderer.RenderFrame(s.builder, next, tree, s.cols, s.rows, focusState, plan, overlaps); err != nil {
		bc.flush(s.breadcrumbs)
		return nil, err
	}

	// E. build
	bc.mark("build")
	frameBytes, err := s.builder.Build()
	if err != nil {
		bc.flush(s.breadcrumbs)
		return nil, err
	}

	s.prevInstance = next
	s.prevLayout = tree

	bc.mark("submit")
	bc.damage(len(frameBytes))
	bc.focusCursor(s.focus)
	bc.flush(s.breadcrumbs)

	return frameBytes, nil
}

// submitFrame implements the latest-wins backend.RequestFrame coalescing:
// at most one RequestFrame call is ever in flight; a call that arrives
// while one is outstanding replaces the pending bytes and returns
// immediately rather than blocking behind the in-flight call, matching
// the spec's "frame submission is latest-wins when an ack is pending".
func (s *Session) submitFrame(ctx context.Context, buf []byte) error {
	s.frameMu.Lock()
	if s.frameInFlig {
		s.latestFrame = buf
		s.hasLatest = true
		s.frameMu.Unlock()
		return nil
	}
	s.frameInFlig = true
	s.frameMu.Unlock()

	cur := buf
	for {
		err := s.back.RequestFrame(ctx, cur)

		s.frameMu.Lock()
		if err != nil || !s.hasLatest {
			s.frameInFlig = false
			s.frameMu.Unlock()
			if err != nil {
				return rezierr.Wrap(rezierr.BackendError, "request frame failed", err)
			}
			return nil
		}
		cur = s.latestFrame
		s.hasLatest = false
		s.frameMu.Unlock()
	}
}

// HitTest resolves a pointer coordinate against the most recently
// rendered frame's layout tree, returning the focusable instance under
// (x, y), if any. Callers typically feed this a backend.EventMouse's
// (X, Y) on a down action to drive focus changes from pointer input.
func (s *Session) HitTest(x, y int) (instance.ID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prevInstance == nil || s.prevLayout == nil {
		return 0, false
	}
	return render.HitTestFocusable(s.prevInstance, s.prevLayout, x, y)
}

// PollEvents delegates to the backend, a thin passthrough kept on Session
// so callers don't need to hold a separate reference to the backend for
// the read half of the event loop.
func (s *Session) PollEvents(ctx context.Context) (backend.EventBatch, error) {
	return s.back.PollEvents(ctx)
}

// String renders a short diagnostic summary, handy for logging a session's
// state alongside a breadcrumb record rather than dumping the struct.
func (s *Session) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("session(live=%d cols=%d rows=%d)", s.liveCount, s.cols, s.rows)
}
