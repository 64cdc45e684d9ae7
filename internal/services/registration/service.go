package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/eventsphere/internal/dependencies/clock"
	"github.com/mcoot/eventsphere/internal/dependencies/random"
	"github.com/mcoot/eventsphere/internal/metrics"
	"github.com/mcoot/eventsphere/internal/model"
	"github.com/mcoot/eventsphere/internal/storage"
)

// Service creates and lists participant registrations
type Service struct {
	store   storage.ParticipantStore
	clock   clock.Clock
	random  random.Random
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a new registration service
func New(
	store storage.ParticipantStore,
	clock clock.Clock,
	random random.Random,
	metrics *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:   store,
		clock:   clock,
		random:  random,
		metrics: metrics,
		logger:  logger,
	}
}

// Register stores a new, unattended participant and returns it.
// A second registration with the same email fails with model.ErrDuplicateEmail.
func (s *Service) Register(ctx context.Context, reg model.Registration) (*model.Participant, error) {
	p := &model.Participant{
		RegistrationID: model.RegistrationID(s.random.UUID()),
		Name:           reg.Name,
		Email:          reg.Email,
		CreatedAt:      s.clock.Now(),
	}

	if err := s.store.CreateParticipant(ctx, p); err != nil {
		if errors.Is(err, model.ErrDuplicateEmail) {
			s.metrics.Registration(metrics.OutcomeDuplicateEmail)
			return nil, err
		}
		s.metrics.Registration(metrics.OutcomeError)
		return nil, fmt.Errorf("create participant: %w", err)
	}

	s.metrics.Registration(metrics.OutcomeSuccess)
	s.logger.Info("participant registered", "registration_id", p.RegistrationID)
	return p, nil
}

// ListParticipants returns every participant, most recent registration first
func (s *Service) ListParticipants(ctx context.Context) ([]*model.Participant, error) {
	participants, err := s.store.ListParticipants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return participants, nil
}
