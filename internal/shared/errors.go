package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates a missing or malformed input field.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrPersistence indicates a backend or transport failure, constraint violations included.
	ErrPersistence = errors.New("persistence failure")
)

// Validationf builds an ErrValidation carrying a formatted detail.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Persistence wraps a driver error as ErrPersistence. Errors already
// classified are returned untouched.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) || errors.Is(err, ErrPersistence) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}

// UserSafeMessage returns the message that may be shown to a user for err.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound):
		return err.Error()
	case errors.Is(err, ErrPersistence):
		return "the database rejected the operation"
	default:
		return "unexpected error"
	}
}
