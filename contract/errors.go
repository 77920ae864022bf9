package contract

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies every failure a program operation can surface.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindNotInitialized
	KindAlreadyInitialized
	KindUnauthorized
	KindNotAdmin
	KindInvalidArgument
	KindNotFound
	KindIllegalState
	KindExpired
	KindExhausted
	KindCooldown
	KindThreshold
	KindOverflow
	KindReentrancy
	KindFraud
)

// String prints the kind as the stable code clients match on.
func (k Kind) String() string {
	switch k {
	case KindNotInitialized:
		return "not_initialized"
	case KindAlreadyInitialized:
		return "already_initialized"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotAdmin:
		return "not_admin"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindNotFound:
		return "not_found"
	case KindIllegalState:
		return "illegal_state"
	case KindExpired:
		return "expired"
	case KindExhausted:
		return "exhausted"
	case KindCooldown:
		return "cooldown_active"
	case KindThreshold:
		return "threshold_failed"
	case KindOverflow:
		return "overflow"
	case KindReentrancy:
		return "reentrancy"
	case KindFraud:
		return "fraud"
	default:
		return "unknown"
	}
}

// Error is the typed failure returned by every operation: a kind plus a short literal message.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Msg
}

// Is matches on kind when the target carries no message, so errors.Is(err, ErrExpired) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Msg == "" {
		return t.Kind == e.Kind
	}
	return t.Kind == e.Kind && t.Msg == e.Msg
}

var (
	ErrNotInitialized     = &Error{Kind: KindNotInitialized}
	ErrAlreadyInitialized = &Error{Kind: KindAlreadyInitialized}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized}
	ErrNotAdmin           = &Error{Kind: KindNotAdmin}
	ErrInvalidArgument    = &Error{Kind: KindInvalidArgument}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrIllegalState       = &Error{Kind: KindIllegalState}
	ErrExpired            = &Error{Kind: KindExpired}
	ErrExhausted          = &Error{Kind: KindExhausted}
	ErrCooldown           = &Error{Kind: KindCooldown}
	ErrThreshold          = &Error{Kind: KindThreshold}
	ErrOverflow           = &Error{Kind: KindOverflow}
	ErrReentrancy         = &Error{Kind: KindReentrancy}
	ErrFraud              = &Error{Kind: KindFraud}
)

// Fail builds a typed error.
// Example payload: contract.Fail(contract.KindNotFound, "listing not found")
func Fail(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Failf is Fail with formatting, keep the format stable since tests match messages.
func Failf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf digs the kind out of a (possibly wrapped) error. Untyped errors report KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Shorthands for the failures every program raises.
func NotFound(what string) error    { return &Error{Kind: KindNotFound, Msg: what + " not found"} }
func Invalid(msg string) error      { return &Error{Kind: KindInvalidArgument, Msg: msg} }
func Illegal(msg string) error      { return &Error{Kind: KindIllegalState, Msg: msg} }
func Unauthorized(msg string) error { return &Error{Kind: KindUnauthorized, Msg: msg} }
