package models

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when a user, URL or short code does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned by storage when a unique constraint is violated.
	ErrConflict = errors.New("already exists")

	// ErrForbidden is returned when the acting principal lacks ownership or role.
	ErrForbidden = errors.New("forbidden")

	// ErrStoreUnavailable wraps connectivity and query failures of the store.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// FieldError describes one failed constraint of an input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is the structured error list returned for invalid input.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, fe := range v {
		msgs = append(msgs, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// IsValidation reports whether err carries a ValidationErrors list.
func IsValidation(err error) (ValidationErrors, bool) {
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return verrs, true
	}
	return nil, false
}
