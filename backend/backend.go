// Package backend defines the boundary between the render pipeline and
// whatever actually owns the screen and the input stream. The core never
// talks to a terminal, a pty, or bubbletea directly — it talks to this
// interface, and a concrete implementation (package term for a raw
// terminal, package teaprogram for a bubbletea-hosted one) does the rest.
//
// Grounded on the teacher's platform.Terminal (Init/Close, raw mode,
// cursor control, Write) generalized from a synchronous terminal-only
// shape into the task-returning, event-polling contract the render loop
// actually needs, and on runtime/core.ContextManager for the
// cancel-driven idempotent Start/Stop lifecycle.
package backend

import "context"

// Backend is implemented by whatever collaborator owns the actual
// display and input device. All methods are safe to call from the
// single render-loop goroutine only; a Backend that hands work to a
// worker does so internally.
type Backend interface {
	// Start prepares the sink and any event loop. Returns once the
	// backend is ready to accept RequestFrame/PollEvents calls.
	Start(ctx context.Context) error

	// Stop is idempotent: pending PollEvents calls reject with
	// ErrStopped, and a second Stop call after the first succeeds is a
	// no-op.
	Stop(ctx context.Context) error

	// Dispose releases OS resources. Safe to call after Stop, or after
	// a failed Start.
	Dispose()

	// RequestFrame submits one drawlist buffer; the call settles after
	// the sink acknowledges display. Submitting frame N+1 while frame
	// N's acknowledgement is still pending discards frame N (latest-wins)
	// unless the transport coalesces via slot tokens.
	RequestFrame(ctx context.Context, buf []byte) error

	// PollEvents returns the next batch of parsed input events. Rejects
	// with ErrStopped once Stop has been called.
	PollEvents(ctx context.Context) (EventBatch, error)

	// GetCaps reports what the terminal actually supports, discovered
	// once at startup (color depth, mouse, bracketed paste, etc).
	GetCaps(ctx context.Context) (TerminalCaps, error)

	// PostUserEvent injects a user-defined event into the input stream,
	// delivered to a subsequent PollEvents call in arrival order
	// relative to other injected and device-sourced events.
	PostUserEvent(tag string, payload []byte)
}

// ColorDepth is the terminal's best available color resolution.
type ColorDepth int

const (
	ColorNone ColorDepth = iota
	ColorANSI16
	ColorANSI256
	ColorTrueColor
)

func (d ColorDepth) String() string {
	switch d {
	case ColorANSI16:
		return "ansi16"
	case ColorANSI256:
		return "ansi256"
	case ColorTrueColor:
		return "truecolor"
	default:
		return "none"
	}
}

// TerminalCaps reports what the attached display actually supports.
// Widgets that degrade gracefully (e.g. falling back to ASCII box
// characters) read this once per session.
type TerminalCaps struct {
	ColorDepth         ColorDepth
	Mouse              bool
	PasteBracketing    bool
	FocusEvents        bool
	SynchronizedUpdate bool
	ScrollRegion       bool
	CursorShape        bool
	SGRMask            uint32 // bitset of supported SGR attribute codes
}
