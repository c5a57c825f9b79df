package core

import (
	"errors"
	"fmt"
)

// Error codes for domain errors.
const (
	ErrCodeInvalidSessionID = "invalid_session_id"
	ErrCodeSessionNotFound  = "session_not_found"
	ErrCodePersistence      = "persistence_failure"
	ErrCodeValidation       = "validation_failure"
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnknownEvent     = "unknown_event"
	ErrCodeRateLimited      = "rate_limited"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeInternal         = "internal"
)

var (
	ErrInvalidSessionID = errors.New("invalid session ID")
	ErrSessionNotFound  = errors.New("session not found")
	ErrPersistence      = errors.New("persistence failure")
	ErrValidation       = errors.New("validation failure")
)

// PersistenceError records which store step failed.
type PersistenceError struct {
	Step string
	Err  error
}

func (e *PersistenceError) Error() string {
	return e.Step + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrPersistence) hold for every PersistenceError.
func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

func persistenceError(step string, err error) error {
	return &PersistenceError{Step: step, Err: err}
}

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

// NewCoreError builds a wire-level error outside of command handling.
func NewCoreError(code, msg string) *CoreError {
	return coreError(code, msg)
}

// ErrorCode maps an error to its wire code.
func ErrorCode(err error) string {
	var ce *CoreError
	switch {
	case errors.As(err, &ce):
		return ce.Code
	case errors.Is(err, ErrInvalidSessionID):
		return ErrCodeInvalidSessionID
	case errors.Is(err, ErrSessionNotFound):
		return ErrCodeSessionNotFound
	case errors.Is(err, ErrValidation):
		return ErrCodeValidation
	case errors.Is(err, ErrPersistence):
		return ErrCodePersistence
	default:
		return ErrCodeInternal
	}
}
