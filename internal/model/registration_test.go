package model

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistrationAcceptsAnyNonEmptyInput(t *testing.T) {
	tests := []struct {
		name    string
		inName  string
		inEmail string
	}{
		{"plain", "Ada Lovelace", "ada@example.com"},
		{"no at sign", "Ada", "ada"},
		{"undotted domain", "Ada", "ada@localhost"},
		{"mixed case", "Ada", "Ada@X.com"},
		{"surrounding space", "  Ada ", " ada@x.com "},
		{"two ats", "Ada", "ada@x@y.com"},
		{"inner space", "Ada", "a da@x.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := NewRegistration(tt.inName, tt.inEmail)
			require.NoError(t, err)
			assert.Equal(t, tt.inName, reg.Name)
			assert.Equal(t, tt.inEmail, reg.Email)
		})
	}
}

func TestNewRegistrationRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name      string
		inName    string
		inEmail   string
		wantField string
	}{
		{"empty name", "", "ada@x.com", "name"},
		{"whitespace name", "   ", "ada@x.com", "name"},
		{"empty email", "Ada", "", "email"},
		{"whitespace email", "Ada", " \t ", "email"},
		{"long name", strings.Repeat("a", MaxNameLength+1), "ada@x.com", "name"},
		{"long email", "Ada", strings.Repeat("a", MaxEmailLength+1), "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistration(tt.inName, tt.inEmail)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.wantField, ve.Field)
		})
	}
}

func TestAlreadyCheckedInErrorMessage(t *testing.T) {
	err := error(&AlreadyCheckedInError{Participant: &Participant{Name: "Ada"}})
	assert.Equal(t, "Ada is already checked in.", err.Error())
	assert.ErrorIs(t, err, ErrAlreadyCheckedIn)
}
