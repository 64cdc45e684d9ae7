package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/eventsphere/internal/api/request"
	"github.com/mcoot/eventsphere/internal/api/response"
	"github.com/mcoot/eventsphere/internal/services/registration"
)

// ParticipantHandler handles registration and listing
type ParticipantHandler struct {
	errorWriter
	registration *registration.Service
}

// NewParticipantHandler creates a new participant handler
func NewParticipantHandler(registrationService *registration.Service, logger *slog.Logger) *ParticipantHandler {
	return &ParticipantHandler{
		errorWriter:  errorWriter{logger: logger},
		registration: registrationService,
	}
}

// Register handles POST /register
func (h *ParticipantHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := request.Decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	reg, err := req.Validate()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	p, err := h.registration.Register(r.Context(), reg)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.ParticipantFromModel(p))
}

// List handles GET /participants
func (h *ParticipantHandler) List(w http.ResponseWriter, r *http.Request) {
	participants, err := h.registration.ListParticipants(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ParticipantsFromModel(participants))
}
