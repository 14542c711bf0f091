package main

import (
	"testing"

	"github.com/rezi-tui/rezi/backend"
	"github.com/rezi-tui/rezi/vnode"
)

func key(code uint32) backend.Event {
	return backend.Event{Kind: backend.EventKey, Action: backend.ActionDown, Code: code}
}

func TestCounterAppIncrementsAndDecrements(t *testing.T) {
	app := newCounterApp()
	app.handleEvent(key('k'))
	app.handleEvent(key('k'))
	app.handleEvent(key('j'))
	if app.count != 1 {
		t.Fatalf("expected count 1, got %d", app.count)
	}
}

func TestCounterAppQuitsOnQAndCtrlC(t *testing.T) {
	app := newCounterApp()
	app.handleEvent(key('q'))
	if !app.quit {
		t.Fatal("expected quit after 'q'")
	}

	app2 := newCounterApp()
	app2.handleEvent(key(3))
	if !app2.quit {
		t.Fatal("expected quit after ctrl-c")
	}
}

func TestCounterAppIgnoresNonKeyAndKeyUpEvents(t *testing.T) {
	app := newCounterApp()
	app.handleEvent(backend.Event{Kind: backend.EventResize, Cols: 80, Rows: 24})
	app.handleEvent(backend.Event{Kind: backend.EventKey, Action: backend.ActionUp, Code: 'k'})
	if app.count != 0 || app.quit {
		t.Fatalf("expected no state change, got count=%d quit=%v", app.count, app.quit)
	}
}

func TestCounterAppViewReflectsCount(t *testing.T) {
	app := newCounterApp()
	app.count = 5
	view := app.view()
	if view.Kind != vnode.KindBox {
		t.Fatalf("expected root box, got %s", view.Kind)
	}
	if got := view.Children[0].Children[1].Props["content"]; got != "count: 5" {
		t.Fatalf("expected count text %q, got %v", "count: 5", got)
	}
}
