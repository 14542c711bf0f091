package instance

import (
	"runtime/debug"

	"github.com/rezi-tui/rezi/rezierr"
)

// SafeRun invokes fn and traps any panic, converting it into a
// rezierr.UserCodeThrow instead of letting it cross the render loop.
// Grounded on the teacher's core.SafeRunner.Run — error handling requires "the core
// never raises into user callbacks; all failures are values returned by
// the failing operation."
func SafeRun(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = rezierr.Newf(rezierr.UserCodeThrow, "panic: %v\n%s", r, debug.Stack())
		}
	}()
	return fn()
}

// SafeRunView calls a view function and recovers a panic into a
// rezierr.UserCodeThrow, returning a nil result on failure so the caller
// can keep the previous committed tree on screen.
func SafeRunView(fn func() (result interface{}, err error)) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = rezierr.Newf(rezierr.UserCodeThrow, "panic in view: %v", r)
		}
	}()
	return fn()
}

// RunEffect executes an Effect, trapping a panic the same way, and reports
// whether it panicked so the caller can log it without retrying (
// "Effects that raise are reported but not retried").
func RunEffect(e Effect) (cleanup func(), panicked bool) {
	defer func() {
		if recover() != nil {
			panicked = true
			cleanup = nil
		}
	}()
	return e(), false
}
