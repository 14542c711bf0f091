package teaprogram

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rezi-tui/rezi/backend"
)

// frameMsg carries one already-rendered frame from Backend.RequestFrame
// into the running program; body replaces the model's View output and
// cursor is recorded on the model. View does not position the hardware
// cursor from it.
type frameMsg struct {
	body   string
	cursor cursorPlacement
}

type cursorPlacement struct {
	x, y    int
	visible bool
}

type userEventMsg struct {
	tag     string
	payload []byte
}

// model is the bubbletea Model every Backend instance wraps. It never
// computes layout or builds a view of its own — View always echoes back
// whatever frameMsg last arrived — so all of the pipeline's own state
// stays owned by the single render loop, not duplicated into bubbletea's
// Model/Update/View cycle.
type model struct {
	mu      sync.Mutex
	body    string
	cursor  cursorPlacement
	start   time.Time
	queued  []backend.Event
	dropped uint32
}

func newModel() *model {
	return &model{start: time.Now()}
}

func (m *model) Init() tea.Cmd {
	return nil
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		m.mu.Lock()
		m.body = msg.body
		m.cursor = msg.cursor
		m.mu.Unlock()
		return m, nil

	case userEventMsg:
		m.push(backend.Event{Kind: backend.EventUser, Tag: msg.tag, Payload: msg.payload, TimestampMs: m.nowMs()})
		return m, nil

	case tea.KeyMsg:
		m.push(keyEvent(msg, m.nowMs()))
		return m, nil

	case tea.MouseMsg:
		m.push(mouseEvent(msg, m.nowMs()))
		return m, nil

	case tea.WindowSizeMsg:
		m.push(backend.Event{Kind: backend.EventResize, Cols: msg.Width, Rows: msg.Height, TimestampMs: m.nowMs()})
		return m, nil

	case tea.FocusMsg:
		m.push(backend.Event{Kind: backend.EventFocus, Focused: true, TimestampMs: m.nowMs()})
		return m, nil

	case tea.BlurMsg:
		m.push(backend.Event{Kind: backend.EventFocus, Focused: false, TimestampMs: m.nowMs()})
		return m, nil

	case tea.PasteMsg:
		m.push(backend.Event{Kind: backend.EventPaste, Text: string(msg), TimestampMs: m.nowMs()})
		return m, nil
	}
	return m, nil
}

func (m *model) View() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.body
}

func (m *model) nowMs() int64 {
	return time.Since(m.start).Milliseconds()
}

const maxQueuedEvents = 4096

func (m *model) push(ev backend.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queued) >= maxQueuedEvents {
		m.dropped++
		return
	}
	m.queued = append(m.queued, ev)
}

func (m *model) drainEvents() backend.EventBatch {
	m.mu.Lock()
	defer m.mu.Unlock()
	events := m.queued
	m.queued = nil
	dropped := m.dropped
	m.dropped = 0
	return backend.EventBatch{Events: events, DroppedBatches: dropped}
}

func keyEvent(msg tea.KeyMsg, ts int64) backend.Event {
	var mods uint8
	if msg.Alt {
		mods |= backend.ModAlt
	}
	return backend.Event{
		Kind:        backend.EventKey,
		Code:        uint32(msg.Type),
		Mods:        mods,
		Action:      backend.ActionDown,
		Text:        msg.String(),
		TimestampMs: ts,
	}
}

func mouseEvent(msg tea.MouseMsg, ts int64) backend.Event {
	ev := tea.MouseEvent(msg)
	var mods uint8
	if ev.Shift {
		mods |= backend.ModShift
	}
	if ev.Alt {
		mods |= backend.ModAlt
	}
	if ev.Ctrl {
		mods |= backend.ModCtrl
	}

	kind := backend.MouseDown
	var wheelDY int
	switch ev.Type {
	case tea.MouseRelease:
		kind = backend.MouseUp
	case tea.MouseMotion:
		kind = backend.MouseDrag
	case tea.MouseWheelUp:
		kind = backend.MouseScroll
		wheelDY = -1
	case tea.MouseWheelDown:
		kind = backend.MouseScroll
		wheelDY = 1
	}

	return backend.Event{
		Kind:        backend.EventMouse,
		X:           ev.X,
		Y:           ev.Y,
		MouseKind:   kind,
		Buttons:     uint8(ev.Type),
		Mods:        mods,
		WheelDY:     wheelDY,
		TimestampMs: ts,
	}
}
