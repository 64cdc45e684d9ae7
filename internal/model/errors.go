package model

import (
	"errors"
	"fmt"
)

// Common errors used across the application
var (
	// Input errors
	ErrValidation = errors.New("validation failed")

	// Participant errors
	ErrParticipantNotFound = errors.New("participant not found")
	ErrDuplicateEmail      = errors.New("email is already registered")
	ErrAlreadyCheckedIn    = errors.New("participant is already checked in")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
)

// ValidationError describes a single invalid input field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Is lets errors.Is match ErrValidation
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a validation error for a field
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// AlreadyCheckedInError is returned when a participant has already arrived.
// It carries the participant so callers can build a user-facing message.
type AlreadyCheckedInError struct {
	Participant *Participant
}

func (e *AlreadyCheckedInError) Error() string {
	return fmt.Sprintf("%s is already checked in.", e.Participant.Name)
}

// Is lets errors.Is match ErrAlreadyCheckedIn
func (e *AlreadyCheckedInError) Is(target error) bool {
	return target == ErrAlreadyCheckedIn
}
