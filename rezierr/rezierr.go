// Package rezierr defines the stable error-kind vocabulary shared by every
// stage of the REZI render pipeline. Failures are values, never panics that
// cross a stage boundary — see instance.SafeRun for the one place a user
// callback's panic is trapped and converted into one of these kinds.
package rezierr

import "fmt"

// Kind is a stable string error code. Consumers may switch on it; the exact
// strings are part of the wire contract (repro bundles reference them) and
// must not change.
type Kind string

const (
	InvalidProps       Kind = "ZRUI_INVALID_PROPS"
	InvalidConstraint  Kind = "ZRUI_INVALID_CONSTRAINT"
	CircularConstraint Kind = "ZRUI_CIRCULAR_CONSTRAINT"
	UserCodeThrow      Kind = "ZRUI_USER_CODE_THROW"
	DrawlistBuildError Kind = "ZRUI_DRAWLIST_BUILD_ERROR"
	BackendError       Kind = "ZRUI_BACKEND_ERROR"
	ProtocolError      Kind = "ZRUI_PROTOCOL_ERROR"

	// Drawlist builder sticky-failure sub-kinds, wrapped by DrawlistBuildError
	// at the pipeline boundary but surfaced standalone from drawlist.Builder.
	InvalidOp Kind = "ZRDL_INVALID_OP"
	TooLarge  Kind = "ZRDL_TOO_LARGE"
)

// Error is the value type every fallible core operation returns instead of
// an exception. Detail is human-readable; Cause chains an underlying error
// (e.g. a wrapped ZRDL_* kind inside a DrawlistBuildError) without losing it.
type Error struct {
	Kind   Kind
	Detail string
	Cause  error
}

func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, detail string, cause error) *Error {
	return &Error{Kind: kind, Detail: detail, Cause: cause}
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is reports whether err is a *Error of the given kind, unwrapping wrapped
// drawlist errors (DrawlistBuildError wrapping InvalidOp/TooLarge) one level.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	if e.Kind == kind {
		return true
	}
	if cause, ok := e.Cause.(*Error); ok {
		return cause.Kind == kind
	}
	return false
}
