// Package term is a Backend implementation that owns a real terminal
// directly: raw mode, the alternate screen, and a diffed cell-grid
// renderer, with no bubbletea program in between.
//
// Grounded on the teacher's platform.DefaultTerminal (Init/Close,
// EnterAlternateScreen, raw-mode toggle, cursor show/hide/move, Write)
// and platform/input_unix.go's buffered read-loop-into-a-channel idiom,
// generalized from hand-built escape strings to charmbracelet's x/term
// (raw mode + size), x/ansi (escape sequence construction), x/cellbuf
// (diffed grid rendering), colorprofile + termenv (capability detection)
// and mattn/go-isatty (tty detection).
package term

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/x/ansi"
	xterm "github.com/charmbracelet/x/term"
	"github.com/mattn/go-isatty"

	"github.com/rezi-tui/rezi/backend"
	"github.com/rezi-tui/rezi/drawlist"
)

// Backend drives a real terminal on the given input/output files (almost
// always os.Stdin/os.Stdout).
type Backend struct {
	in  *os.File
	out *os.File

	mu       sync.Mutex
	started  bool
	stopped  bool
	rawState *xterm.State
	screen   *screenRenderer
	caps     backend.TerminalCaps

	reader     *inputReader
	resizeStop chan struct{}

	userMu     sync.Mutex
	userEvents []backend.Event
}

// New builds a terminal Backend over in/out. Start must be called before
// any other method.
func New(in, out *os.File) *Backend {
	return &Backend{in: in, out: out}
}

func (b *Backend) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return nil
	}

	if isatty.IsTerminal(b.out.Fd()) {
		state, err := xterm.MakeRaw(b.in.Fd())
		if err != nil {
			return fmt.Errorf("term: enable raw mode: %w", err)
		}
		b.rawState = state
	}

	w, h, err := xterm.GetSize(b.out.Fd())
	if err != nil {
		w, h = 80, 24
	}

	b.caps = detectCaps(b.out)
	b.screen = newScreenRenderer(b.out, w, h)

	b.out.WriteString(ansi.SetAltScreenSaveCursor)
	b.out.WriteString(ansi.HideCursor)
	if b.caps.Mouse {
		b.out.WriteString(ansi.EnableMouseAllMotion)
		b.out.WriteString(ansi.EnableMouseSgrExt)
	}
	if b.caps.PasteBracketing {
		b.out.WriteString(ansi.EnableBracketedPaste)
	}
	if b.caps.FocusEvents {
		b.out.WriteString(ansi.EnableFocusEvents)
	}

	b.reader = newInputReader(b.in, w, h)
	b.reader.start()
	b.resizeStop = b.watchResize()

	b.started = true
	return nil
}

func (b *Backend) Stop(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return nil
	}
	b.stopped = true

	if b.reader != nil {
		b.reader.stop()
	}
	if b.resizeStop != nil {
		close(b.resizeStop)
	}

	if b.caps.FocusEvents {
		b.out.WriteString(ansi.DisableFocusEvents)
	}
	if b.caps.PasteBracketing {
		b.out.WriteString(ansi.DisableBracketedPaste)
	}
	if b.caps.Mouse {
		b.out.WriteString(ansi.DisableMouseSgrExt)
		b.out.WriteString(ansi.DisableMouseAllMotion)
	}
	b.out.WriteString(ansi.ShowCursor)
	b.out.WriteString(ansi.RestoreScreen)

	if b.rawState != nil {
		xterm.Restore(b.in.Fd(), b.rawState)
		b.rawState = nil
	}
	return nil
}

func (b *Backend) Dispose() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.rawState != nil {
		xterm.Restore(b.in.Fd(), b.rawState)
		b.rawState = nil
	}
}

func (b *Backend) RequestFrame(ctx context.Context, buf []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return backend.ErrStopped
	}
	dl, err := drawlist.Parse(buf)
	if err != nil {
		return fmt.Errorf("term: parse drawlist: %w", err)
	}
	return b.screen.apply(dl)
}

func (b *Backend) PollEvents(ctx context.Context) (backend.EventBatch, error) {
	b.mu.Lock()
	stopped := b.stopped
	reader := b.reader
	b.mu.Unlock()
	if stopped {
		return backend.EventBatch{}, backend.ErrStopped
	}

	batch := reader.drain()

	b.userMu.Lock()
	if len(b.userEvents) > 0 {
		batch.Events = append(b.userEvents, batch.Events...)
		b.userEvents = nil
	}
	b.userMu.Unlock()

	return batch, nil
}

func (b *Backend) GetCaps(ctx context.Context) (backend.TerminalCaps, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.caps, nil
}

func (b *Backend) PostUserEvent(tag string, payload []byte) {
	ev := backend.Event{Kind: backend.EventUser, Tag: tag, Payload: payload}
	b.mu.Lock()
	reader := b.reader
	b.mu.Unlock()
	if reader != nil {
		// Same queue as device input, so arrival order is kept.
		reader.push(ev)
		return
	}
	b.userMu.Lock()
	defer b.userMu.Unlock()
	b.userEvents = append(b.userEvents, ev)
}
