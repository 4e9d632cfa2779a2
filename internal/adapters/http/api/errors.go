package api

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingBearer marks requests that arrive without a bearer token.
	ErrMissingBearer = errors.New("missing bearer token")
	// ErrInvalidToken marks bearer tokens that fail local verification.
	ErrInvalidToken = errors.New("invalid bearer token")
	// ErrBadRequest marks malformed request parameters.
	ErrBadRequest = errors.New("bad request")
)

// Wrap annotates err with the operation that observed it.
func Wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}

// NewKind builds an error of the given kind for the operation.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// WrapKind annotates err with both the operation and an error kind, so
// callers can match the kind with errors.Is while keeping the cause.
func WrapKind(op string, kind, err error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}
