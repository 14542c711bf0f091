package backend

import "errors"

// ErrStopped is returned by RequestFrame/PollEvents once Stop has
// completed; GetCaps keeps returning the caps. It is a sentinel rather
// than an *rezierr.Error. session.Session wraps a failed RequestFrame into
// rezierr.BackendError, and returns ErrStopped itself, unwrapped, from
// RenderFrame after its own Stop.
var ErrStopped = errors.New("backend: stopped")
