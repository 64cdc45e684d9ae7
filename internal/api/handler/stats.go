package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/eventsphere/internal/api/response"
	"github.com/mcoot/eventsphere/internal/services/stats"
)

// StatsHandler serves attendance counts
type StatsHandler struct {
	errorWriter
	stats *stats.Service
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(statsService *stats.Service, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{
		errorWriter: errorWriter{logger: logger},
		stats:       statsService,
	}
}

// Get handles GET /stats
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.stats.GetStats(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.StatsFromModel(s))
}

// Health handles GET /health
func Health(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}
