package models

import (
	"errors"
	"fmt"
)

var (
	ErrNoRecord         = errors.New("models: no matching record found")
	ErrPropertyNotFound = fmt.Errorf("property not found: %w", ErrNoRecord)
	ErrReviewNotFound   = fmt.Errorf("review not found: %w", ErrNoRecord)
	ErrStoreUnavailable = errors.New("models: store unavailable")
	ErrUnauthenticated  = errors.New("models: no token provided")
	ErrInvalidToken     = errors.New("models: invalid token")
	ErrMissingIdentity  = errors.New("models: identity has no email")
)

// ForbiddenError is returned when the ownership policy denies an action.
type ForbiddenError struct {
	Reason  string
	Message string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden (%s): %s", e.Reason, e.Message)
}

// ValidationError describes a rejected write payload. Field is the JSON name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
