// Package clock turns the backend's tick events (event kind "tick", with
// a dtMs delta) into a monotonic frame clock and exposes harmonica-based
// springs
// for animated widgets (progress bars, sliders, focus transitions) — the
// same physical-animation idiom charmbracelet's bubbles components build
// on top of harmonica.Spring.
package clock

import "github.com/charmbracelet/harmonica"

// Clock accumulates tick deltas (milliseconds) into a monotonic elapsed
// time, the single time source every animated widget in a frame must
// read so they stay in lockstep within that frame.
type Clock struct {
	elapsedMs int64
	lastDtMs  int64
}

// Advance folds one tick event's delta into the clock.
func (c *Clock) Advance(dtMs int64) {
	if dtMs < 0 {
		dtMs = 0
	}
	c.elapsedMs += dtMs
	c.lastDtMs = dtMs
}

// ElapsedMs is the total milliseconds advanced since the clock was
// created.
func (c *Clock) ElapsedMs() int64 { return c.elapsedMs }

// LastDeltaMs is the most recently advanced tick's delta, the value a
// Spring.Update call should be driven with.
func (c *Clock) LastDeltaMs() int64 { return c.lastDtMs }

// Spring wraps harmonica.Spring with float64-seconds plumbing so callers
// can drive it directly from a Clock's millisecond deltas.
type Spring struct {
	inner harmonica.Spring
}

// NewSpring builds a Spring driven by a tick delta (milliseconds), an
// angular frequency (Hz-like responsiveness) and a damping ratio (1.0 =
// critically damped, no overshoot; < 1.0 springs past target and settles).
func NewSpring(dtMs int64, angularFrequency, damping float64) Spring {
	deltaSeconds := float64(dtMs) / 1000.0
	if deltaSeconds <= 0 {
		deltaSeconds = 1.0 / 60.0
	}
	return Spring{inner: harmonica.NewSpring(deltaSeconds, angularFrequency, damping)}
}

// Update advances pos/vel one step toward target and returns the new
// (pos, vel) pair, mirroring harmonica.Spring.Update's contract.
func (s Spring) Update(pos, vel, target float64) (float64, float64) {
	return s.inner.Update(pos, vel, target)
}

// EaseLinear maps t (0..1, typically elapsed/duration) to itself, clamped.
func EaseLinear(t float64) float64 {
	return clamp01(t)
}

// EaseOutQuad is a common deceleration curve for focus-ring and highlight
// transitions where an abrupt linear snap looks mechanical.
func EaseOutQuad(t float64) float64 {
	t = clamp01(t)
	return 1 - (1-t)*(1-t)
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
