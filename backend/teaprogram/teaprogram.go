// Package teaprogram is a Backend implementation that hosts the render
// pipeline inside a bubbletea program, letting bubbletea own the
// terminal (raw mode, the alternate screen, its own diffed renderer,
// resize/signal handling) instead of package term's from-scratch one.
//
// Grounded on the teacher's tui/tea/adapter package (a bubbletea Model
// wrapping a non-bubbletea widget tree) and on runtime/input.Reader's
// cancelable-read idiom, generalized from a single adapted widget to the
// whole drawlist pipeline: every frame becomes one tea.Msg carrying a
// pre-rendered string, and every bubbletea input msg becomes one
// backend.Event.
package teaprogram

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rezi-tui/rezi/backend"
	"github.com/rezi-tui/rezi/drawlist"
)

// Backend hosts the pipeline inside a *tea.Program. RequestFrame renders
// the drawlist into a styled string and hands it to the model as a
// tea.Msg; PollEvents drains the events the model has translated from
// bubbletea's own input stream.
type Backend struct {
	program *tea.Program
	model   *model

	mu      sync.Mutex
	started bool
	stopped bool
	caps    backend.TerminalCaps

	done chan struct{}
}

// New builds a bubbletea-hosted Backend. opts are passed through to
// tea.NewProgram (e.g. tea.WithAltScreen(), tea.WithMouseAllMotion()).
func New(opts ...tea.ProgramOption) *Backend {
	m := newModel()
	return &Backend{
		model:   m,
		program: tea.NewProgram(m, opts...),
		done:    make(chan struct{}),
	}
}

func (b *Backend) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return nil
	}
	b.started = true
	b.caps = backend.TerminalCaps{
		ColorDepth:         backend.ColorTrueColor,
		Mouse:              true,
		PasteBracketing:    true,
		FocusEvents:        true,
		SynchronizedUpdate: true,
		ScrollRegion:       true,
		CursorShape:        true,
		SGRMask:            0xFF,
	}
	b.mu.Unlock()

	go func() {
		defer close(b.done)
		b.program.Run()
	}()
	return nil
}

func (b *Backend) Stop(ctx context.Context) error {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return nil
	}
	b.stopped = true
	b.mu.Unlock()

	b.program.Quit()
	<-b.done
	return nil
}

func (b *Backend) Dispose() {}

func (b *Backend) RequestFrame(ctx context.Context, buf []byte) error {
	b.mu.Lock()
	stopped := b.stopped
	b.mu.Unlock()
	if stopped {
		return backend.ErrStopped
	}
	dl, err := drawlist.Parse(buf)
	if err != nil {
		return err
	}
	rendered, cursor := renderFrame(dl)
	b.program.Send(frameMsg{body: rendered, cursor: cursor})
	return nil
}

func (b *Backend) PollEvents(ctx context.Context) (backend.EventBatch, error) {
	b.mu.Lock()
	stopped := b.stopped
	b.mu.Unlock()
	if stopped {
		return backend.EventBatch{}, backend.ErrStopped
	}
	return b.model.drainEvents(), nil
}

func (b *Backend) GetCaps(ctx context.Context) (backend.TerminalCaps, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.caps, nil
}

func (b *Backend) PostUserEvent(tag string, payload []byte) {
	b.program.Send(userEventMsg{tag: tag, payload: payload})
}
