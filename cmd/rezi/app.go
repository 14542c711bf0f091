// The demo app wired into both the render and replay subcommands: a
// small counter view driven by key input, just enough surface to
// exercise the full pipeline (focus, resize, repeated commits) without
// pulling in a widget catalog the core doesn't ship.
package main

import (
	"fmt"

	"github.com/rezi-tui/rezi/backend"
	"github.com/rezi-tui/rezi/vnode"
)

// counterApp is the render loop's user-code side: it owns whatever state
// the view depends on and reacts to polled input, the same division of
// labor instance.Commit assumes between a VNode tree (pure) and
// whatever produced it (not).
type counterApp struct {
	count int
	quit  bool
}

func newCounterApp() *counterApp {
	return &counterApp{}
}

// handleEvent applies one decoded input event to the app's state.
// Recognized keys: 'q' or ctrl-c quits, 'k' or '+' increments,
// 'j' or '-' decrements. Anything else is ignored.
func (a *counterApp) handleEvent(ev backend.Event) {
	if ev.Kind != backend.EventKey || ev.Action != backend.ActionDown {
		return
	}
	switch ev.Code {
	case 'q', 3: // 3 = ctrl-c
		a.quit = true
	case 'k', '+':
		a.count++
	case 'j', '-':
		a.count--
	}
}

// view renders the app's current state as a VNode tree.
func (a *counterApp) view() vnode.VNode {
	return vnode.Box(
		map[string]interface{}{"width": "full", "height": "full", "p": 1},
		vnode.Column(nil,
			vnode.Text("rezi demo — k/+ increments, j/- decrements, q quits", nil),
			vnode.Text(fmt.Sprintf("count: %d", a.count), nil),
			vnode.Leaf(vnode.KindButton, map[string]interface{}{"width": 12, "height": 1}).WithKey("counter-focus"),
		),
	)
}
