package draft

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"numerano/internal/registration/models"
	"numerano/pkg/platform/sentinel"
)

type DraftStoreSuite struct {
	suite.Suite
	now   time.Time
	store *InMemory
	ctx   context.Context
}

func TestDraftStoreSuite(t *testing.T) {
	suite.Run(t, new(DraftStoreSuite))
}

func (s *DraftStoreSuite) SetupTest() {
	s.now = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	s.store = NewInMemory(time.Hour, WithClock(func() time.Time { return s.now }))
	s.ctx = context.Background()
}

func newSession() *models.DraftSession {
	return &models.DraftSession{
		ID:    uuid.New(),
		State: models.WizardState{Draft: *models.NewDraft()},
	}
}

func (s *DraftStoreSuite) TestCreateAndGet() {
	session := newSession()
	s.Require().NoError(s.store.Create(s.ctx, session))
	s.Equal(int64(1), session.Version)

	got, err := s.store.Get(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(session.ID, got.ID)

	s.ErrorIs(s.store.Create(s.ctx, session), sentinel.ErrConflict)
}

func (s *DraftStoreSuite) TestSaveChecksVersion() {
	session := newSession()
	s.Require().NoError(s.store.Create(s.ctx, session))

	first, err := s.store.Get(s.ctx, session.ID)
	s.Require().NoError(err)
	second, err := s.store.Get(s.ctx, session.ID)
	s.Require().NoError(err)

	first.State.Draft.TeamName = "First"
	s.Require().NoError(s.store.Save(s.ctx, first))
	s.Equal(int64(2), first.Version)

	second.State.Draft.TeamName = "Second"
	s.ErrorIs(s.store.Save(s.ctx, second), sentinel.ErrConflict)

	got, err := s.store.Get(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Equal("First", got.State.Draft.TeamName)
}

func (s *DraftStoreSuite) TestExpiry() {
	session := newSession()
	s.Require().NoError(s.store.Create(s.ctx, session))

	s.now = s.now.Add(59 * time.Minute)
	s.Require().NoError(s.store.Save(s.ctx, session), "save refreshes the ttl")

	s.now = s.now.Add(59 * time.Minute)
	_, err := s.store.Get(s.ctx, session.ID)
	s.Require().NoError(err)

	s.now = s.now.Add(2 * time.Minute)
	_, err = s.store.Get(s.ctx, session.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.Save(s.ctx, session), sentinel.ErrNotFound)
}

func (s *DraftStoreSuite) TestDelete() {
	session := newSession()
	s.Require().NoError(s.store.Create(s.ctx, session))
	s.Require().NoError(s.store.Delete(s.ctx, session.ID))
	_, err := s.store.Get(s.ctx, session.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
