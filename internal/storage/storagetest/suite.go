// Package storagetest holds the behavioural contract every storage backend must satisfy.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/eventsphere/internal/model"
	"github.com/mcoot/eventsphere/internal/storage"
)

// Suite runs the shared storage contract against a backend.
// Embed it in a backend-specific suite and set NewStorage.
type Suite struct {
	suite.Suite

	// NewStorage returns an empty store for each test
	NewStorage func() storage.Storage

	Storage storage.Storage
	Ctx     context.Context
	Base    time.Time
}

func (s *Suite) SetupTest() {
	s.Require().NotNil(s.NewStorage, "NewStorage must be set")
	s.Storage = s.NewStorage()
	s.Ctx = context.Background()
	s.Base = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *Suite) TearDownTest() {
	if s.Storage != nil {
		_ = s.Storage.Close()
	}
}

// NewParticipant builds an unattended participant created offset after Base
func (s *Suite) NewParticipant(id, name, email string, offset time.Duration) *model.Participant {
	return &model.Participant{
		RegistrationID: model.RegistrationID(id),
		Name:           name,
		Email:          email,
		CreatedAt:      s.Base.Add(offset),
	}
}

func (s *Suite) mustCreate(p *model.Participant) {
	s.Require().NoError(s.Storage.CreateParticipant(s.Ctx, p))
}

// Participant tests

func (s *Suite) TestCreateAndGetParticipant() {
	s.mustCreate(s.NewParticipant("id-1", "Ada", "ada@x.com", 0))

	p, err := s.Storage.GetParticipant(s.Ctx, "id-1")
	s.Require().NoError(err)
	s.Equal(model.RegistrationID("id-1"), p.RegistrationID)
	s.Equal("Ada", p.Name)
	s.Equal("ada@x.com", p.Email)
	s.False(p.Attended)
	s.Nil(p.Timestamp)
	s.True(p.CreatedAt.Equal(s.Base), "created_at %v", p.CreatedAt)
}

func (s *Suite) TestGetParticipantNotFound() {
	_, err := s.Storage.GetParticipant(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrParticipantNotFound)
}

func (s *Suite) TestCreateParticipantRejectsDuplicateEmail() {
	s.mustCreate(s.NewParticipant("id-1", "Ada", "ada@x.com", 0))

	err := s.Storage.CreateParticipant(s.Ctx, s.NewParticipant("id-2", "Other Ada", "ada@x.com", time.Second))
	s.ErrorIs(err, model.ErrDuplicateEmail)

	// The losing insert leaves no trace
	_, err = s.Storage.GetParticipant(s.Ctx, "id-2")
	s.ErrorIs(err, model.ErrParticipantNotFound)
	stats, err := s.Storage.GetStats(s.Ctx)
	s.Require().NoError(err)
	s.Equal(1, stats.Total)
}

func (s *Suite) TestMarkAttendedSucceedsOnce() {
	s.mustCreate(s.NewParticipant("id-1", "Ada", "ada@x.com", 0))
	at := s.Base.Add(time.Hour)

	p, err := s.Storage.MarkAttended(s.Ctx, "id-1", at)
	s.Require().NoError(err)
	s.True(p.Attended)
	s.Require().NotNil(p.Timestamp)
	s.True(p.Timestamp.Equal(at))

	_, err = s.Storage.MarkAttended(s.Ctx, "id-1", at.Add(time.Minute))
	s.ErrorIs(err, model.ErrAlreadyCheckedIn)

	var already *model.AlreadyCheckedInError
	s.Require().True(errors.As(err, &already))
	s.Equal("Ada", already.Participant.Name)

	// Second attempt must not move the timestamp
	stored, err := s.Storage.GetParticipant(s.Ctx, "id-1")
	s.Require().NoError(err)
	s.True(stored.Attended)
	s.Require().NotNil(stored.Timestamp)
	s.True(stored.Timestamp.Equal(at))
}

func (s *Suite) TestMarkAttendedUnknownID() {
	s.mustCreate(s.NewParticipant("id-1", "Ada", "ada@x.com", 0))

	_, err := s.Storage.MarkAttended(s.Ctx, "bogus-id", s.Base)
	s.ErrorIs(err, model.ErrParticipantNotFound)

	stats, err := s.Storage.GetStats(s.Ctx)
	s.Require().NoError(err)
	s.Equal(0, stats.CheckedIn)
}

func (s *Suite) TestMarkAttendedConcurrentCallersOnlyOneWins() {
	s.mustCreate(s.NewParticipant("id-1", "Ada", "ada@x.com", 0))

	const callers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
		others    []error
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Storage.MarkAttended(s.Ctx, "id-1", s.Base.Add(time.Duration(i+1)*time.Second))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, model.ErrAlreadyCheckedIn):
				conflicts++
			default:
				others = append(others, err)
			}
		}(i)
	}
	wg.Wait()

	s.Empty(others)
	s.Equal(1, successes)
	s.Equal(callers-1, conflicts)

	stats, err := s.Storage.GetStats(s.Ctx)
	s.Require().NoError(err)
	s.Equal(1, stats.CheckedIn)
}

func (s *Suite) TestListParticipantsNewestFirst() {
	s.mustCreate(s.NewParticipant("id-a", "First", "first@x.com", 0))
	s.mustCreate(s.NewParticipant("id-c", "Third", "third@x.com", 2*time.Minute))
	s.mustCreate(s.NewParticipant("id-b", "Second", "second@x.com", time.Minute))

	list, err := s.Storage.ListParticipants(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.Equal("Third", list[0].Name)
	s.Equal("Second", list[1].Name)
	s.Equal("First", list[2].Name)
}

func (s *Suite) TestListParticipantsEmpty() {
	list, err := s.Storage.ListParticipants(s.Ctx)
	s.Require().NoError(err)
	s.Empty(list)
}

func (s *Suite) TestListParticipantsReflectsAttendance() {
	s.mustCreate(s.NewParticipant("id-1", "Ada", "ada@x.com", 0))
	_, err := s.Storage.MarkAttended(s.Ctx, "id-1", s.Base.Add(time.Hour))
	s.Require().NoError(err)

	list, err := s.Storage.ListParticipants(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.True(list[0].Attended)
	s.NotNil(list[0].Timestamp)
}

func (s *Suite) TestGetStatsCounts() {
	stats, err := s.Storage.GetStats(s.Ctx)
	s.Require().NoError(err)
	s.Equal(0, stats.Total)
	s.Equal(0, stats.CheckedIn)

	for i := 0; i < 4; i++ {
		s.mustCreate(s.NewParticipant(fmt.Sprintf("id-%d", i), "P", fmt.Sprintf("p%d@x.com", i), time.Duration(i)*time.Second))
	}
	_, err = s.Storage.MarkAttended(s.Ctx, "id-1", s.Base)
	s.Require().NoError(err)
	_, err = s.Storage.MarkAttended(s.Ctx, "id-3", s.Base)
	s.Require().NoError(err)

	stats, err = s.Storage.GetStats(s.Ctx)
	s.Require().NoError(err)
	s.Equal(4, stats.Total)
	s.Equal(2, stats.CheckedIn)
}

// Session tests

func (s *Suite) newSession(token string, ttl time.Duration) *model.AdminSession {
	return &model.AdminSession{
		Token:     token,
		IsAdmin:   true,
		CreatedAt: s.Base,
		ExpiresAt: s.Base.Add(ttl),
	}
}

func (s *Suite) TestSaveAndGetSession() {
	s.Require().NoError(s.Storage.SaveSession(s.Ctx, s.newSession("tok-1", 24*time.Hour)))

	session, err := s.Storage.GetSession(s.Ctx, "tok-1")
	s.Require().NoError(err)
	s.Equal("tok-1", session.Token)
	s.True(session.IsAdmin)
	s.True(session.ExpiresAt.Equal(s.Base.Add(24 * time.Hour)))
}

func (s *Suite) TestGetSessionNotFound() {
	_, err := s.Storage.GetSession(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *Suite) TestDeleteSession() {
	s.Require().NoError(s.Storage.SaveSession(s.Ctx, s.newSession("tok-1", 24*time.Hour)))
	s.Require().NoError(s.Storage.DeleteSession(s.Ctx, "tok-1"))

	_, err := s.Storage.GetSession(s.Ctx, "tok-1")
	s.ErrorIs(err, model.ErrSessionNotFound)

	// Deleting again is harmless
	s.NoError(s.Storage.DeleteSession(s.Ctx, "tok-1"))
}
