// Package engine implements the bed lifecycle core: the status state
// machine and the assignment engine that binds admissions to beds.
// All domain failures are reported as *Error values carrying one of
// exactly four kinds, so handlers can map outcomes to stable HTTP
// responses without string matching and repositories never leak raw
// sql errors past this package.
package engine

import "fmt"

// Kind classifies a domain failure.
type Kind uint8

const (
    // KindNotFound means a referenced bed, room, admission or
    // assignment does not exist.
    KindNotFound Kind = iota + 1
    // KindInvalidTransition means the requested status change is not
    // reachable from the bed's current status, including the
    // forbidden direct-to-occupied path.
    KindInvalidTransition
    // KindConflict means a precondition about current state was
    // violated: bed not available when assigning, admission already
    // discharged, and so on.
    KindConflict
    // KindInternal covers unexpected failures such as storage errors.
    // The cause is logged before the generic error surfaces.
    KindInternal
)

// String returns the kind's stable name.
func (k Kind) String() string {
    switch k {
    case KindNotFound:
        return "not_found"
    case KindInvalidTransition:
        return "invalid_transition"
    case KindConflict:
        return "conflict"
    default:
        return "internal"
    }
}

// Error is the domain error type raised by the engine.  Message is
// safe to show to callers; Err holds the underlying cause for
// internal errors only.
type Error struct {
    Kind    Kind
    Message string
    Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
    if e.Err != nil {
        return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
    }
    return e.Message
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error { return e.Err }

// NotFound builds a not-found domain error.
func NotFound(msg string) *Error {
    return &Error{Kind: KindNotFound, Message: msg}
}

// InvalidTransition builds an invalid-transition domain error.
func InvalidTransition(msg string) *Error {
    return &Error{Kind: KindInvalidTransition, Message: msg}
}

// Conflict builds a state-conflict domain error.
func Conflict(msg string) *Error {
    return &Error{Kind: KindConflict, Message: msg}
}

// Internal wraps an unexpected failure.  The message shown to callers
// stays generic; the cause travels in Err for logging.
func Internal(err error) *Error {
    return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

// KindOf extracts the kind of a domain error, defaulting to
// KindInternal for anything that is not an *Error.
func KindOf(err error) Kind {
    if e, ok := err.(*Error); ok {
        return e.Kind
    }
    return KindInternal
}
