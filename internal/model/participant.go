package model

import "time"

// RegistrationID uniquely identifies a participant and doubles as the check-in key
type RegistrationID string

// Participant is a registered attendee
type Participant struct {
	RegistrationID RegistrationID `json:"registration_id"`
	Name           string         `json:"name"`
	Email          string         `json:"email"`
	Attended       bool           `json:"attended"`
	Timestamp      *time.Time     `json:"timestamp"` // set iff Attended
	CreatedAt      time.Time      `json:"created_at"`
}

// CheckedIn returns a copy of the participant marked as attended at the given time
func (p Participant) CheckedIn(at time.Time) *Participant {
	ts := at
	p.Attended = true
	p.Timestamp = &ts
	return &p
}

// Stats holds aggregate attendance counts
type Stats struct {
	Total     int
	CheckedIn int
}
