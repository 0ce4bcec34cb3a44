package sanitize

import (
	"errors"
	"fmt"
)

// ErrInvalidDocument is the root of every rejection.
var ErrInvalidDocument = errors.New("invalid project document")

// FieldError names the field that caused a rejection.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return ErrInvalidDocument
}

func missing(field string) error {
	return &FieldError{Field: field, Reason: "required"}
}

func notAllowed(field, value string) error {
	return &FieldError{Field: field, Reason: fmt.Sprintf("value %q not allowed", value)}
}
