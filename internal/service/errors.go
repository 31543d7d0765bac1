package service

import (
	"errors"
	"fmt"
)

// Error kinds. Every error a service returns to a caller wraps exactly one of these.
var (
	ErrBadRequest       = errors.New("bad request")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrUpstreamFailure  = errors.New("upstream failure")
	ErrSignatureInvalid = errors.New("signature invalid")
)

// Error is a caller-facing failure: Message is safe to show, Kind classifies it.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func newError(kind error, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func wrapError(kind error, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func badRequest(format string, args ...any) *Error {
	return newError(ErrBadRequest, fmt.Sprintf(format, args...))
}
