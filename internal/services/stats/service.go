package stats

import (
	"context"
	"fmt"

	"github.com/mcoot/eventsphere/internal/model"
	"github.com/mcoot/eventsphere/internal/storage"
)

// Service reports attendance counts straight from the store
type Service struct {
	store storage.ParticipantStore
}

// New creates a new stats service
func New(store storage.ParticipantStore) *Service {
	return &Service{store: store}
}

// GetStats returns the total and checked-in counts at the time of the call
func (s *Service) GetStats(ctx context.Context) (*model.Stats, error) {
	stats, err := s.store.GetStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	return stats, nil
}
