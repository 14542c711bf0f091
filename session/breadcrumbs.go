package session

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rezi-tui/rezi/instance"
)

// PhaseTiming is one named pipeline stage's wall-clock duration within a
// single RenderFrame call.
type PhaseTiming struct {
	Phase    string
	Duration time.Duration
}

// Breadcrumb is one frame's debug-trace record: per-phase timings, a
// damage summary (bytes emitted), and a focus summary. A Session with
// breadcrumbs enabled logs exactly one of these per RenderFrame call at
// slog.LevelDebug.
type Breadcrumb struct {
	Phases      []PhaseTiming
	DamageBytes int
	FocusedID   instance.ID
}

// breadcrumbBuilder accumulates one frame's record across RenderFrame's
// stages. Built unconditionally but cheaply (a nil logger short-circuits
// every method) so RenderFrame doesn't need an enabled/disabled branch at
// every mark site.
type breadcrumbBuilder struct {
	enabled     bool
	sessionID   uuid.UUID
	lastMark    time.Time
	lastPhase   string
	phases      []PhaseTiming
	damageBytes int
	focused     instance.ID
}

func newBreadcrumb(logger *slog.Logger, sessionID uuid.UUID) *breadcrumbBuilder {
	if logger == nil {
		return &breadcrumbBuilder{}
	}
	return &breadcrumbBuilder{enabled: true, sessionID: sessionID, lastMark: time.Now()}
}

// mark closes out the previous phase's duration (if any) and opens the
// next, named phase.
func (b *breadcrumbBuilder) mark(phase string) {
	if !b.enabled {
		return
	}
	now := time.Now()
	if b.lastPhase != "" {
		b.phases = append(b.phases, PhaseTiming{Phase: b.lastPhase, Duration: now.Sub(b.lastMark)})
	}
	b.lastPhase = phase
	b.lastMark = now
}

func (b *breadcrumbBuilder) damage(bytes int) {
	if b.enabled {
		b.damageBytes = bytes
	}
}

func (b *breadcrumbBuilder) focusCursor(id instance.ID) {
	if b.enabled {
		b.focused = id
	}
}

// flush closes out the last open phase and, if breadcrumbs are enabled,
// emits the accumulated record to logger at Debug level.
func (b *breadcrumbBuilder) flush(logger *slog.Logger) {
	if !b.enabled || logger == nil {
		return
	}
	b.mark("")

	attrs := make([]any, 0, 4+2*len(b.phases))
	attrs = append(attrs, "sessionID", b.sessionID.String())
	for _, p := range b.phases {
		attrs = append(attrs, p.Phase, p.Duration)
	}
	attrs = append(attrs, "damageBytes", b.damageBytes, "focusedID", b.focused)
	logger.Debug("render frame", attrs...)
}
