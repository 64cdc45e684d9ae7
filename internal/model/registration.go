package model

import "strings"

// Field length limits for submitted registrations
const (
	MaxNameLength  = 200
	MaxEmailLength = 254
)

// Registration holds a submitted name and email. Build it with
// NewRegistration to get the required-field checks.
type Registration struct {
	Name  string
	Email string
}

// NewRegistration checks that name and email are present and within the
// length limits. Values are kept exactly as submitted.
func NewRegistration(name, email string) (Registration, error) {
	switch {
	case strings.TrimSpace(name) == "":
		return Registration{}, NewValidationError("name", "is required")
	case len(name) > MaxNameLength:
		return Registration{}, NewValidationError("name", "is too long")
	case strings.TrimSpace(email) == "":
		return Registration{}, NewValidationError("email", "is required")
	case len(email) > MaxEmailLength:
		return Registration{}, NewValidationError("email", "is too long")
	}

	return Registration{Name: name, Email: email}, nil
}
