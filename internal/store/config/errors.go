package config

import (
	"errors"
	"fmt"
)

// ErrInvalid matches every configuration error with errors.Is.
var ErrInvalid = errors.New("invalid configuration")

// Error is a configuration problem detected before any resource is
// acquired.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *Error) Is(target error) bool {
	return target == ErrInvalid
}

func invalid(field string, err error) *Error {
	return &Error{Field: field, Reason: err.Error()}
}
