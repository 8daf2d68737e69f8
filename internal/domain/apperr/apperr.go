// Package apperr defines the error kinds shared by all domain services.
// Domain errors wrap one of the kind sentinels so transport code can map
// them to a response without knowing every domain error.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrForbidden           = errors.New("forbidden")
)

type Kind int

const (
	KindInternal Kind = iota
	KindInvalidArgument
	KindNotFound
	KindConflict
	KindInsufficientBalance
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInsufficientBalance:
		return "insufficient_balance"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// KindOf reports the kind of err. Errors that wrap no kind sentinel are internal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidArgument
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrInsufficientBalance):
		return KindInsufficientBalance
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	default:
		return KindInternal
	}
}

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string {
	return e.msg
}

func (e *kindError) Unwrap() error {
	return e.kind
}

// New returns an error of the given kind whose message is safe to show to the caller.
func New(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// Invalid returns a validation error.
func Invalid(format string, args ...any) error {
	return New(ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// Message returns the user-facing message of a domain error. Internal errors
// never leak their text.
func Message(err error) string {
	if KindOf(err) == KindInternal {
		return "internal error"
	}
	var kerr *kindError
	if errors.As(err, &kerr) {
		return kerr.msg
	}
	return err.Error()
}
