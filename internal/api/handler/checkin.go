package handler

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"github.com/mcoot/eventsphere/internal/api/response"
	"github.com/mcoot/eventsphere/internal/model"
	"github.com/mcoot/eventsphere/internal/services/checkin"
)

// CheckInHandler handles check-in by registration id
type CheckInHandler struct {
	errorWriter
	checkIn *checkin.Service
}

// NewCheckInHandler creates a new check-in handler
func NewCheckInHandler(checkInService *checkin.Service, logger *slog.Logger) *CheckInHandler {
	return &CheckInHandler{
		errorWriter: errorWriter{logger: logger},
		checkIn:     checkInService,
	}
}

// CheckIn handles POST /checkin/{id}
func (h *CheckInHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	id, err := url.PathUnescape(mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, model.ErrParticipantNotFound)
		return
	}

	result, err := h.checkIn.CheckIn(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.CheckIn{
		Message:     result.Message,
		Participant: response.ParticipantFromModel(result.Participant),
	})
}
