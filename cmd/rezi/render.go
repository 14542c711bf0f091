package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	xterm "github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/rezi-tui/rezi/backend"
	"github.com/rezi-tui/rezi/backend/term"
	"github.com/rezi-tui/rezi/repro"
	"github.com/rezi-tui/rezi/session"
)

var recordPath string

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Run the demo app live against the current terminal",
	RunE:  runRender,
}

func init() {
	renderCmd.Flags().StringVar(&recordPath, "record", "", "capture polled input to a repro bundle at this path")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		if debug {
			infof("received interrupt, shutting down")
		}
		cancel()
	}()

	back := term.New(os.Stdin, os.Stdout)
	s := session.New(back, session.EnableBreadcrumbs(breadcrumbLogger()))
	if err := s.Start(ctx); err != nil {
		errorf("start backend: %v", err)
		return err
	}
	defer s.Stop(context.Background())

	infof("session %s started", s.ID())

	w, h, err := xterm.GetSize(os.Stdout.Fd())
	if err != nil {
		w, h = 80, 24
	}
	s.Resize(w, h)

	var rec *repro.Recorder
	if recordPath != "" {
		rec = repro.NewRecorder(time.Now().UnixMilli())
		rec.SetSessionID(s.ID())
	}

	app := newCounterApp()
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		default:
		}

		if err := s.RenderFrame(ctx, app.view()); err != nil {
			if err == backend.ErrStopped {
				break loop
			}
			errorf("render frame: %v", err)
			return err
		}

		batch, err := s.PollEvents(ctx)
		if err != nil {
			if err == backend.ErrStopped {
				break loop
			}
			errorf("poll events: %v", err)
			return err
		}
		if rec != nil {
			rec.Capture(time.Now().UnixMilli(), batch)
		}

		for _, ev := range batch.Events {
			if ev.Kind == backend.EventResize {
				s.Resize(ev.Cols, ev.Rows)
			}
			app.handleEvent(ev)
		}
		if app.quit {
			break loop
		}

		// PollEvents never blocks (it drains whatever the input reader has
		// queued so far), so without a frame cadence this loop would spin
		// a CPU core re-rendering an unchanged view.
		time.Sleep(16 * time.Millisecond)
	}

	if rec != nil {
		if err := writeBundle(recordPath, rec.Bundle()); err != nil {
			errorf("write repro bundle: %v", err)
			return err
		}
		infof("wrote repro bundle to %s (%d steps)", recordPath, len(rec.Bundle().Steps))
	}
	return nil
}

func writeBundle(path string, bundle repro.Bundle) error {
	data, err := bundle.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
