package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mcoot/eventsphere/internal/model"
	"github.com/mcoot/eventsphere/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// It is only suitable for a single process.
type Storage struct {
	mu sync.RWMutex

	participants map[model.RegistrationID]*model.Participant
	emailIndex   map[string]model.RegistrationID
	sessions     map[string]*model.AdminSession
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		participants: make(map[model.RegistrationID]*model.Participant),
		emailIndex:   make(map[string]model.RegistrationID),
		sessions:     make(map[string]*model.AdminSession),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Close is a no-op for memory storage
func (s *Storage) Close() error {
	return nil
}

// Participant operations

func (s *Storage) CreateParticipant(ctx context.Context, p *model.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.emailIndex[p.Email]; ok {
		return model.ErrDuplicateEmail
	}
	stored := *p
	s.participants[p.RegistrationID] = &stored
	s.emailIndex[p.Email] = p.RegistrationID
	return nil
}

func (s *Storage) GetParticipant(ctx context.Context, id model.RegistrationID) (*model.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.participants[id]
	if !ok {
		return nil, model.ErrParticipantNotFound
	}
	result := *p
	return &result, nil
}

func (s *Storage) MarkAttended(ctx context.Context, id model.RegistrationID, at time.Time) (*model.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.participants[id]
	if !ok {
		return nil, model.ErrParticipantNotFound
	}
	if p.Attended {
		existing := *p
		return nil, &model.AlreadyCheckedInError{Participant: &existing}
	}
	updated := p.CheckedIn(at)
	s.participants[id] = updated
	result := *updated
	return &result, nil
}

func (s *Storage) ListParticipants(ctx context.Context) ([]*model.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*model.Participant, 0, len(s.participants))
	for _, p := range s.participants {
		cp := *p
		result = append(result, &cp)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].RegistrationID > result[j].RegistrationID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *Storage) GetStats(ctx context.Context) (*model.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := &model.Stats{Total: len(s.participants)}
	for _, p := range s.participants {
		if p.Attended {
			stats.CheckedIn++
		}
	}
	return stats, nil
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.AdminSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *session
	s.sessions[session.Token] = &stored
	return nil
}

func (s *Storage) GetSession(ctx context.Context, token string) (*model.AdminSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[token]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	result := *session
	return &result, nil
}

func (s *Storage) DeleteSession(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *Storage) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for token, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed, nil
}
