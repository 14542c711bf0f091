//go:build unix || linux || darwin || freebsd

package term

import (
	"os"
	"os/signal"
	"syscall"

	xterm "github.com/charmbracelet/x/term"

	"github.com/rezi-tui/rezi/backend"
)

// watchResize follows the teacher's DefaultSignalHandler shape (Notify
// into a channel, select against a stop channel) applied to SIGWINCH: on
// each signal it re-reads the terminal size, resizes the screen buffer,
// and queues a resize event for the next PollEvents.
func (b *Backend) watchResize() chan struct{} {
	stop := make(chan struct{})
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGWINCH)

	go func() {
		defer signal.Stop(sig)
		for {
			select {
			case <-sig:
				w, h, err := xterm.GetSize(b.out.Fd())
				if err != nil {
					continue
				}
				b.mu.Lock()
				if b.screen != nil {
					b.screen.resize(w, h)
				}
				reader := b.reader
				b.mu.Unlock()
				if reader != nil {
					reader.push(backend.Event{Kind: backend.EventResize, Cols: w, Rows: h, TimestampMs: reader.nowMs()})
				}
			case <-stop:
				return
			}
		}
	}()

	return stop
}
