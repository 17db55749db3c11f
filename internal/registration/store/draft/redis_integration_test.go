//go:build integration

package draft_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"numerano/internal/registration/models"
	"numerano/internal/registration/store/draft"
	"numerano/pkg/platform/sentinel"
	"numerano/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *draft.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.store = draft.NewRedis(s.redis.Client, time.Hour)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestRoundTripAndVersioning() {
	ctx := context.Background()
	session := &models.DraftSession{
		ID:        uuid.New(),
		State:     models.WizardState{Step: models.StepTeamDetails, Draft: *models.NewDraft()},
		CreatedAt: time.Now().UTC(),
	}
	s.Require().NoError(s.store.Create(ctx, session))
	s.ErrorIs(s.store.Create(ctx, session), sentinel.ErrConflict)

	stale, err := s.store.Get(ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(models.StepTeamDetails, stale.State.Step)

	session.State.Draft.TeamName = "Frost Giants"
	s.Require().NoError(s.store.Save(ctx, session))
	s.Equal(int64(2), session.Version)

	s.ErrorIs(s.store.Save(ctx, stale), sentinel.ErrConflict)

	got, err := s.store.Get(ctx, session.ID)
	s.Require().NoError(err)
	s.Equal("Frost Giants", got.State.Draft.TeamName)
}

func (s *RedisStoreSuite) TestMissingDraft() {
	ctx := context.Background()
	_, err := s.store.Get(ctx, uuid.New())
	s.ErrorIs(err, sentinel.ErrNotFound)

	err = s.store.Save(ctx, &models.DraftSession{ID: uuid.New(), Version: 1})
	s.ErrorIs(err, sentinel.ErrNotFound)
}
