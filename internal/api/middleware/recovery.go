package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/eventsphere/internal/api/apierr"
	"github.com/mcoot/eventsphere/internal/middleware"
)

// Recovery creates panic recovery middleware for the API
// Returns JSON error responses on panic
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, func(w http.ResponseWriter, r *http.Request, _ any) {
		apierr.WriteError(w, r, nil, apierr.NewInternalError())
	})
}

// Logging logs every request
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Logging(logger)
}
