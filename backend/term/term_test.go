package term

import (
	"testing"

	"github.com/charmbracelet/colorprofile"
	"github.com/muesli/termenv"

	"github.com/rezi-tui/rezi/backend"
)

func TestMapColorDepth(t *testing.T) {
	cases := []struct {
		in   colorprofile.Profile
		want backend.ColorDepth
	}{
		{colorprofile.TrueColor, backend.ColorTrueColor},
		{colorprofile.ANSI256, backend.ColorANSI256},
		{colorprofile.ANSI, backend.ColorANSI16},
		{colorprofile.NoTTY, backend.ColorNone},
	}
	for _, c := range cases {
		if got := mapColorDepth(c.in); got != c.want {
			t.Fatalf("mapColorDepth(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestMapTermenvProfile(t *testing.T) {
	cases := []struct {
		in   termenv.Profile
		want backend.ColorDepth
	}{
		{termenv.TrueColor, backend.ColorTrueColor},
		{termenv.ANSI256, backend.ColorANSI256},
		{termenv.ANSI, backend.ColorANSI16},
		{termenv.Ascii, backend.ColorNone},
	}
	for _, c := range cases {
		if got := mapTermenvProfile(c.in); got != c.want {
			t.Fatalf("mapTermenvProfile(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestSupportsSyncUpdateRejectsLegacyTerms(t *testing.T) {
	for _, name := range []string{"", "dumb", "vt100", "vt102"} {
		if supportsSyncUpdate(name) {
			t.Fatalf("expected %q to not support synchronized update", name)
		}
	}
	if !supportsSyncUpdate("xterm-256color") {
		t.Fatal("expected xterm-256color to support synchronized update")
	}
}

func TestInputReaderDropsBeyondCapacity(t *testing.T) {
	r := &inputReader{}
	for i := 0; i < 5000; i++ {
		r.push(backend.Event{Kind: backend.EventKey, Code: uint32(i)})
	}
	batch := r.drain()
	if len(batch.Events) != 4096 {
		t.Fatalf("expected queue capped at 4096, got %d", len(batch.Events))
	}
	if batch.DroppedBatches == 0 {
		t.Fatal("expected dropped count to be recorded once capacity is exceeded")
	}
}

func TestInputReaderDrainClearsQueue(t *testing.T) {
	r := &inputReader{}
	r.push(backend.Event{Kind: backend.EventKey, Code: 1})
	first := r.drain()
	if len(first.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(first.Events))
	}
	second := r.drain()
	if len(second.Events) != 0 {
		t.Fatalf("expected drained queue to be empty on second call, got %d", len(second.Events))
	}
}
