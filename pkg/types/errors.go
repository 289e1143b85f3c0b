package types

import (
	"errors"
	"fmt"
	"strings"
)

// Provider operation errors.
var (
	// ErrNotFound is returned when a referenced entity, relationship, or
	// type definition does not exist. Delete operations report absence
	// through their boolean return instead.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidDirection is returned for a direction token outside
	// {out, in, both}.
	ErrInvalidDirection = errors.New("invalid traversal direction")

	ErrInvalidID   = errors.New("invalid id")
	ErrInvalidName = errors.New("invalid name")

	// ErrConflict is reserved for future unique-constraint violations.
	ErrConflict = errors.New("conflict")

	// ErrRestoreUnsupported is returned by the durability layer when the
	// target provider does not implement Restorer.
	ErrRestoreUnsupported = errors.New("provider does not support restore")
)

// Validation error codes carried by FieldError.Code.
const (
	CodeRequiredField = "REQUIRED_FIELD"
	CodeTypeMismatch  = "TYPE_MISMATCH"
)

// FieldError describes one schema violation in a payload. Field is a
// dot-path for nested objects ("author.age").
type FieldError struct {
	Field      string `json:"field"`
	Code       string `json:"code"`
	Expected   string `json:"expected,omitempty"`
	Received   string `json:"received,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func (e FieldError) String() string {
	switch e.Code {
	case CodeRequiredField:
		return fmt.Sprintf("%s: required field is missing", e.Field)
	case CodeTypeMismatch:
		return fmt.Sprintf("%s: expected %s, got %s", e.Field, e.Expected, e.Received)
	default:
		return fmt.Sprintf("%s: %s", e.Field, e.Code)
	}
}

// ValidationError reports every schema violation found in a payload.
// Violations are collected, not short-circuited on the first failure.
type ValidationError struct {
	Type   string       `json:"type"`
	Errors []FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.String()
	}
	return fmt.Sprintf("validation failed for %q: %s", e.Type, strings.Join(msgs, "; "))
}

// AsValidationError unwraps err to a *ValidationError if one is present.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
