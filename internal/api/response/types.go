package response

import (
	"time"

	"github.com/mcoot/eventsphere/internal/model"
)

// Participant represents a participant in API responses
type Participant struct {
	RegistrationID string     `json:"registration_id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Attended       bool       `json:"attended"`
	Timestamp      *time.Time `json:"timestamp"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ParticipantFromModel converts a model.Participant to a response Participant
func ParticipantFromModel(p *model.Participant) Participant {
	return Participant{
		RegistrationID: string(p.RegistrationID),
		Name:           p.Name,
		Email:          p.Email,
		Attended:       p.Attended,
		Timestamp:      p.Timestamp,
		CreatedAt:      p.CreatedAt,
	}
}

// ParticipantsFromModel converts a list, never returning nil so it encodes as []
func ParticipantsFromModel(ps []*model.Participant) []Participant {
	out := make([]Participant, 0, len(ps))
	for _, p := range ps {
		out = append(out, ParticipantFromModel(p))
	}
	return out
}

// Message is a plain acknowledgement
type Message struct {
	Message string `json:"message"`
}

// CheckIn is the response for a successful check-in
type CheckIn struct {
	Message     string      `json:"message"`
	Participant Participant `json:"participant"`
}

// Stats is the attendance summary. checked_in duplicates checkedIn for
// older dashboard clients.
type Stats struct {
	Total          int `json:"total"`
	CheckedIn      int `json:"checkedIn"`
	CheckedInSnake int `json:"checked_in"`
}

// StatsFromModel converts model.Stats
func StatsFromModel(s *model.Stats) Stats {
	return Stats{
		Total:          s.Total,
		CheckedIn:      s.CheckedIn,
		CheckedInSnake: s.CheckedIn,
	}
}

// Health is the health check response
type Health struct {
	Status string `json:"status"`
}

// Session describes the caller's admin session
type Session struct {
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
}
