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

var replayCmd = &cobra.Command{
	Use:   "replay <bundle.json>",
	Short: "Deterministically replay a captured repro bundle",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		errorf("read bundle: %v", err)
		return err
	}
	bundle, err := repro.Unmarshal(data)
	if err != nil {
		errorf("decode bundle: %v", err)
		return err
	}
	player, err := repro.NewPlayer(bundle)
	if err != nil {
		errorf("invalid bundle: %v", err)
		return err
	}
	if bundle.SessionID != "" {
		infof("replaying bundle captured by session %s (%d steps)", bundle.SessionID, player.Remaining())
	} else {
		infof("replaying bundle (%d steps)", player.Remaining())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	back := term.New(os.Stdin, os.Stdout)
	s := session.New(back, session.EnableBreadcrumbs(breadcrumbLogger()))
	if err := s.Start(ctx); err != nil {
		errorf("start backend: %v", err)
		return err
	}
	defer s.Stop(context.Background())

	w, h, err := xterm.GetSize(os.Stdout.Fd())
	if err != nil {
		w, h = 80, 24
	}
	s.Resize(w, h)

	app := newCounterApp()
	if err := s.RenderFrame(ctx, app.view()); err != nil {
		errorf("render frame: %v", err)
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		batch, deltaMs, ok, err := player.Next()
		if err != nil {
			errorf("replay step: %v", err)
			return err
		}
		if !ok {
			break
		}
		if deltaMs > 0 {
			time.Sleep(time.Duration(deltaMs) * time.Millisecond)
		}

		for _, ev := range batch.Events {
			if ev.Kind == backend.EventResize {
				s.Resize(ev.Cols, ev.Rows)
			}
			app.handleEvent(ev)
		}
		if err := s.RenderFrame(ctx, app.view()); err != nil {
			errorf("render frame: %v", err)
			return err
		}
		if app.quit {
			break
		}
	}

	infof("replay complete")
	return nil
}
