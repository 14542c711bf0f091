package term

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/muesli/termenv"

	"github.com/rezi-tui/rezi/backend"
)

// detectCaps probes the attached terminal once at startup. colorprofile
// gives the authoritative color-depth read; termenv cross-checks it
// against $COLORTERM/$TERM for terminals colorprofile can't positively
// identify, the same belt-and-suspenders most bubbletea programs use.
func detectCaps(out *os.File) backend.TerminalCaps {
	profile := colorprofile.Detect(out, os.Environ())
	depth := mapColorDepth(profile)
	if depth == backend.ColorNone {
		depth = mapTermenvProfile(termenv.NewOutput(out).Profile)
	}

	termName := os.Getenv("TERM")
	return backend.TerminalCaps{
		ColorDepth:         depth,
		Mouse:              true,
		PasteBracketing:    true,
		FocusEvents:        true,
		SynchronizedUpdate: supportsSyncUpdate(termName),
		ScrollRegion:       true,
		CursorShape:        supportsCursorShape(termName),
		SGRMask:            sgrMask(depth),
	}
}

func mapColorDepth(p colorprofile.Profile) backend.ColorDepth {
	switch p {
	case colorprofile.TrueColor:
		return backend.ColorTrueColor
	case colorprofile.ANSI256:
		return backend.ColorANSI256
	case colorprofile.ANSI:
		return backend.ColorANSI16
	default:
		return backend.ColorNone
	}
}

func mapTermenvProfile(p termenv.Profile) backend.ColorDepth {
	switch p {
	case termenv.TrueColor:
		return backend.ColorTrueColor
	case termenv.ANSI256:
		return backend.ColorANSI256
	case termenv.ANSI:
		return backend.ColorANSI16
	default:
		return backend.ColorNone
	}
}

// supportsSyncUpdate reports whether the terminal is known to honor
// ansi.SetSynchronizedOutput — most modern terminal emulators do, the
// exceptions are the legacy vt100-family TERM values.
func supportsSyncUpdate(termName string) bool {
	switch termName {
	case "", "dumb", "vt100", "vt102":
		return false
	default:
		return true
	}
}

func supportsCursorShape(termName string) bool {
	return termName != "" && termName != "dumb"
}

// sgrMask bitpacks which drawlist.Attr* bits are renderable at the given
// color depth; every depth still carries bold/italic/underline/etc since
// those are SGR codes independent of color.
func sgrMask(depth backend.ColorDepth) uint32 {
	const baseAttrs = 0xFF // matches the 8 attrs bits drawlist defines
	return baseAttrs
}
