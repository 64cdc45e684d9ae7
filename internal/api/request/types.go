package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mcoot/eventsphere/internal/model"
)

// MaxBodyBytes caps request bodies
const MaxBodyBytes = 1 << 20

// RegisterRequest is the request body for registering a participant
type RegisterRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Validate returns the validated registration
func (r RegisterRequest) Validate() (model.Registration, error) {
	return model.NewRegistration(r.Name, r.Email)
}

// LoginRequest is the request body for admin login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Credentials is a login request with both fields present
type Credentials struct {
	Username string
	Password string
}

// Validate requires both fields. Neither is trimmed; the username must match exactly.
func (r LoginRequest) Validate() (Credentials, error) {
	if strings.TrimSpace(r.Username) == "" {
		return Credentials{}, model.NewValidationError("username", "is required")
	}
	if r.Password == "" {
		return Credentials{}, model.NewValidationError("password", "is required")
	}
	return Credentials{Username: r.Username, Password: r.Password}, nil
}

// Decode reads a JSON body into dst, rejecting unknown fields, trailing data
// and bodies over MaxBodyBytes. Failures are validation errors on "body".
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return model.NewValidationError("body", fmt.Sprintf("must not exceed %d bytes", MaxBodyBytes))
		case errors.Is(err, io.EOF):
			return model.NewValidationError("body", "is required")
		default:
			return model.NewValidationError("body", "must be a valid JSON object")
		}
	}

	if dec.More() {
		return model.NewValidationError("body", "must contain a single JSON object")
	}
	return nil
}
