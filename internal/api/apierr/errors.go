package apierr

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mcoot/eventsphere/internal/model"
	"github.com/mcoot/eventsphere/internal/services/auth"
)

// APIError is the body of every error response
type APIError struct {
	Message string `json:"error"`
	Code    string `json:"code"`
}

// Error codes
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeDuplicateEmail      = "DUPLICATE_EMAIL"
	CodeParticipantNotFound = "PARTICIPANT_NOT_FOUND"
	CodeAlreadyCheckedIn    = "ALREADY_CHECKED_IN"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbiddenOrigin     = "FORBIDDEN_ORIGIN"
	CodeNotFound            = "NOT_FOUND"
	CodeMethodNotAllowed    = "METHOD_NOT_ALLOWED"
	CodeSessionError        = "SESSION_ERROR"
	CodeInternalError       = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response. Server-side failures are logged with
// their full detail; the client only sees the generic message.
func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	he := toHTTPError(err)
	if he.status >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("code", he.apiError.Code),
			slog.Any("error", err),
		)
	}
	write(w, he)
}

func write(w http.ResponseWriter, he *httpError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(he.apiError)
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	var ve *model.ValidationError
	if errors.As(err, &ve) {
		return &httpError{http.StatusBadRequest, APIError{ve.Error(), CodeInvalidRequest}}
	}

	var already *model.AlreadyCheckedInError
	if errors.As(err, &already) {
		return &httpError{http.StatusConflict, APIError{already.Error(), CodeAlreadyCheckedIn}}
	}

	switch {
	case errors.Is(err, model.ErrValidation):
		return &httpError{http.StatusBadRequest, APIError{"Invalid request", CodeInvalidRequest}}
	case errors.Is(err, model.ErrDuplicateEmail):
		return &httpError{http.StatusConflict, APIError{"Email is already registered", CodeDuplicateEmail}}
	case errors.Is(err, model.ErrParticipantNotFound):
		return &httpError{http.StatusNotFound, APIError{"Participant not found!", CodeParticipantNotFound}}
	case errors.Is(err, model.ErrAlreadyCheckedIn):
		return &httpError{http.StatusConflict, APIError{"Participant is already checked in.", CodeAlreadyCheckedIn}}

	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{"Invalid username or password", CodeInvalidCredentials}}
	case errors.Is(err, auth.ErrUnauthorized):
		return &httpError{http.StatusUnauthorized, APIError{"Unauthorized", CodeUnauthorized}}
	case errors.Is(err, auth.ErrSession):
		return &httpError{http.StatusInternalServerError, APIError{"Session error", CodeSessionError}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{"Internal server error", CodeInternalError}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{message, CodeInvalidRequest}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{"Unauthorized", CodeUnauthorized}}
}

// NewForbiddenOriginError rejects a cross-origin preflight from an unlisted origin
func NewForbiddenOriginError() error {
	return &httpError{http.StatusForbidden, APIError{"Origin not allowed", CodeForbiddenOrigin}}
}

// NewNotFoundError is returned for unknown routes
func NewNotFoundError() error {
	return &httpError{http.StatusNotFound, APIError{"Not found", CodeNotFound}}
}

// NewMethodNotAllowedError is returned when a route exists but not for the method
func NewMethodNotAllowedError() error {
	return &httpError{http.StatusMethodNotAllowed, APIError{"Method not allowed", CodeMethodNotAllowed}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{"Internal server error", CodeInternalError}}
}
