package storage

import (
	"context"
	"time"

	"github.com/mcoot/eventsphere/internal/model"
)

// ParticipantStore persists registrations and attendance state
type ParticipantStore interface {
	// CreateParticipant inserts a new participant.
	// Returns model.ErrDuplicateEmail if the email is already registered.
	CreateParticipant(ctx context.Context, p *model.Participant) error

	// GetParticipant returns model.ErrParticipantNotFound for unknown IDs.
	GetParticipant(ctx context.Context, id model.RegistrationID) (*model.Participant, error)

	// MarkAttended performs a single conditional write flipping attended
	// false -> true and setting the timestamp. Exactly one concurrent caller
	// wins; the others get a *model.AlreadyCheckedInError. Unknown IDs yield
	// model.ErrParticipantNotFound and nothing is written.
	MarkAttended(ctx context.Context, id model.RegistrationID, at time.Time) (*model.Participant, error)

	// ListParticipants returns all participants, newest registration first
	ListParticipants(ctx context.Context) ([]*model.Participant, error)

	// GetStats counts all participants and those checked in
	GetStats(ctx context.Context) (*model.Stats, error)
}

// SessionStore holds admin sessions keyed by token
type SessionStore interface {
	SaveSession(ctx context.Context, session *model.AdminSession) error

	// GetSession returns model.ErrSessionNotFound for unknown tokens.
	// Expiry is checked by the caller.
	GetSession(ctx context.Context, token string) (*model.AdminSession, error)

	// DeleteSession is a no-op for unknown tokens
	DeleteSession(ctx context.Context, token string) error

	// DeleteExpiredSessions purges sessions expired at now and returns how many were removed
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error)
}

// Storage is a backend providing both participant and session persistence
type Storage interface {
	ParticipantStore
	SessionStore

	// Close releases connections held by the backend
	Close() error
}
