package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the target row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists means a membership or follow pair is already present.
	ErrAlreadyExists = errors.New("already exists")
	// ErrForbidden means the capability check failed for the requester.
	ErrForbidden = errors.New("forbidden")
	// ErrShortLinkExhausted means short-link generation ran out of attempts.
	ErrShortLinkExhausted = errors.New("short link space exhausted")
)

// ValidationError is a field-scoped input failure, detected before any write.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
