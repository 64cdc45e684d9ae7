package checkin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mcoot/eventsphere/internal/dependencies/clock"
	"github.com/mcoot/eventsphere/internal/metrics"
	"github.com/mcoot/eventsphere/internal/model"
	"github.com/mcoot/eventsphere/internal/storage"
)

// MaxIDLength bounds the ids accepted from scanners and clients.
// Anything longer cannot be a registration id.
const MaxIDLength = 128

// Result is a successful check-in
type Result struct {
	Participant *model.Participant
	Message     string
}

// Service moves participants from not-arrived to arrived, exactly once
type Service struct {
	store   storage.ParticipantStore
	clock   clock.Clock
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a new check-in service
func New(store storage.ParticipantStore, clock clock.Clock, metrics *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:   store,
		clock:   clock,
		metrics: metrics,
		logger:  logger,
	}
}

// CheckIn marks the participant with the given id as attended.
//
// The id is untrusted input (typed by staff or decoded from a scan); anything
// that does not match a registration yields model.ErrParticipantNotFound.
// A participant already checked in yields *model.AlreadyCheckedInError and
// the store is left unchanged. Concurrent calls for one id produce exactly
// one success.
func (s *Service) CheckIn(ctx context.Context, id string) (*Result, error) {
	id = strings.TrimSpace(id)
	if id == "" || len(id) > MaxIDLength {
		s.metrics.CheckIn(metrics.OutcomeNotFound)
		return nil, model.ErrParticipantNotFound
	}

	p, err := s.store.MarkAttended(ctx, model.RegistrationID(id), s.clock.Now())
	if err != nil {
		switch {
		case errors.Is(err, model.ErrParticipantNotFound):
			s.metrics.CheckIn(metrics.OutcomeNotFound)
			return nil, err
		case errors.Is(err, model.ErrAlreadyCheckedIn):
			s.metrics.CheckIn(metrics.OutcomeAlreadyCheckedIn)
			return nil, err
		default:
			s.metrics.CheckIn(metrics.OutcomeError)
			return nil, fmt.Errorf("mark attended: %w", err)
		}
	}

	s.metrics.CheckIn(metrics.OutcomeSuccess)
	s.logger.Info("participant checked in", "registration_id", p.RegistrationID)

	return &Result{
		Participant: p,
		Message:     WelcomeMessage(p.Name),
	}, nil
}

// WelcomeMessage is the greeting shown after a successful check-in
func WelcomeMessage(name string) string {
	return fmt.Sprintf("Welcome, %s! Check-in successful.", name)
}
