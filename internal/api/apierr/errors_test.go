package apierr

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/eventsphere/internal/model"
	"github.com/mcoot/eventsphere/internal/services/auth"
)

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"validation", model.NewValidationError("name", "is required"), http.StatusBadRequest, CodeInvalidRequest, "name is required"},
		{"duplicate", fmt.Errorf("create: %w", model.ErrDuplicateEmail), http.StatusConflict, CodeDuplicateEmail, "Email is already registered"},
		{"not found", model.ErrParticipantNotFound, http.StatusNotFound, CodeParticipantNotFound, "Participant not found!"},
		{"already checked in", &model.AlreadyCheckedInError{Participant: &model.Participant{Name: "Ada"}}, http.StatusConflict, CodeAlreadyCheckedIn, "Ada is already checked in."},
		{"credentials", auth.ErrInvalidCredentials, http.StatusUnauthorized, CodeInvalidCredentials, "Invalid username or password"},
		{"unauthorized", auth.ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized, "Unauthorized"},
		{"session", fmt.Errorf("%w: boom", auth.ErrSession), http.StatusInternalServerError, CodeSessionError, "Session error"},
		{"internal", errors.New("pq: relation does not exist"), http.StatusInternalServerError, CodeInternalError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body APIError
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func TestInternalErrorsAreLoggedNotLeaked(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	rec := httptest.NewRecorder()
	WriteError(rec, httptest.NewRequest(http.MethodGet, "/stats", nil), logger, errors.New("dial tcp 10.0.0.5:5432: refused"))

	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
	assert.Contains(t, logs.String(), "10.0.0.5")
	assert.Contains(t, logs.String(), "/stats")
}

func TestClientErrorsAreNotLogged(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	WriteError(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), logger, model.ErrParticipantNotFound)
	assert.Empty(t, logs.String())
}
