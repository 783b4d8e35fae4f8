// Package common defines shared constants and sentinel errors used across
// the client layers of gophstudy. Callers should use errors.Is / errors.As to
// match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// ErrValidation is wrapped by every ValidationError so callers can match
	// local input problems without caring about the field.
	ErrValidation = errors.New("validation error")

	// Flow control errors.
	ErrNoActiveSession = errors.New("no active session")
	ErrInvalidState    = errors.New("action not allowed in current state")
)

// ValidationError reports a local, user-correctable input problem. It is
// raised before any network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Reason)
	}
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
