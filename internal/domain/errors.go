package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")

	ErrInvalidInterval  = errors.New("interval must be a positive number of days")
	ErrInvalidBirthDate = errors.New("birth date is not possible")
	ErrEventInPast      = errors.New("event date is in the past")
	ErrInvalidPosition  = errors.New("unknown position")
	ErrEmpty            = errors.New("value is required")
	ErrBadDateFormat    = errors.New("date must look like DD.MM.YYYY")
)

// ValidationError reports malformed or out-of-range input. It is returned
// before anything is persisted or scheduled.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid input: %v", e.Err)
	}
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func Invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
