package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/eventsphere/internal/api/apierr"
)

// errorWriter is embedded by handlers to write error responses
type errorWriter struct {
	logger *slog.Logger
}

func (e errorWriter) writeError(w http.ResponseWriter, r *http.Request, err error) {
	apierr.WriteError(w, r, e.logger, err)
}
