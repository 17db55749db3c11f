package registration

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"numerano/internal/registration/models"
	"numerano/pkg/platform/sentinel"
)

type RegistrationStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *RegistrationStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestRegistrationStoreSuite(t *testing.T) {
	suite.Run(t, new(RegistrationStoreSuite))
}

func newRegistration(teamID string, createdAt time.Time, emails ...string) *models.Registration {
	members := make([]models.TeamMember, 0, len(emails))
	for i, addr := range emails {
		role := models.DefaultMemberRole
		if i == 0 {
			role = models.DefaultLeadRole
		}
		members = append(members, models.TeamMember{Name: "Member", Email: addr, Role: role})
	}
	return &models.Registration{
		ID:     uuid.New(),
		TeamID: teamID,
		Draft: models.Draft{
			TeamName:     "Team " + teamID,
			TeamSize:     len(members),
			Members:      members,
			ProjectTitle: "Project",
			Domain:       models.DomainIoT,
			ProjectIdea:  "Idea",
			AgreeToRules: true,
			IsVerified:   true,
		},
		Status:         models.StatusPending,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
		SubmissionTime: createdAt,
	}
}

// TestCreationAndLookups verifies records can be found by id and team id.
func (s *RegistrationStoreSuite) TestCreationAndLookups() {
	reg := newRegistration("ICE-AAAAAA-0001", time.Now(), "bob@example.com")
	s.Require().NoError(s.store.Create(s.ctx, reg))

	s.Run("finds by id", func() {
		found, err := s.store.FindByID(s.ctx, reg.ID)
		s.Require().NoError(err)
		s.Equal(reg.TeamName, found.TeamName)
	})

	s.Run("finds by team id", func() {
		found, err := s.store.FindByTeamID(s.ctx, reg.TeamID)
		s.Require().NoError(err)
		s.Equal(reg.ID, found.ID)
	})

	s.Run("unknown ids return ErrNotFound", func() {
		_, err := s.store.FindByID(s.ctx, uuid.New())
		s.ErrorIs(err, sentinel.ErrNotFound)
		_, err = s.store.FindByTeamID(s.ctx, "ICE-NOPE")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("duplicate team id is a conflict", func() {
		dup := newRegistration(reg.TeamID, time.Now(), "other@example.com")
		s.ErrorIs(s.store.Create(s.ctx, dup), sentinel.ErrConflict)
	})

	s.Run("returned records are copies", func() {
		found, err := s.store.FindByID(s.ctx, reg.ID)
		s.Require().NoError(err)
		found.Members[0].Name = "Mutated"

		again, err := s.store.FindByID(s.ctx, reg.ID)
		s.Require().NoError(err)
		s.Equal("Member", again.Members[0].Name)
	})
}

func (s *RegistrationStoreSuite) TestListNewestFirst() {
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.Create(s.ctx, newRegistration("ICE-1", base, "a@x.com")))
	s.Require().NoError(s.store.Create(s.ctx, newRegistration("ICE-3", base.Add(2*time.Minute), "c@x.com")))
	s.Require().NoError(s.store.Create(s.ctx, newRegistration("ICE-2", base.Add(time.Minute), "b@x.com")))

	all, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal("ICE-3", all[0].TeamID)
	s.Equal("ICE-2", all[1].TeamID)
	s.Equal("ICE-1", all[2].TeamID)
}

func (s *RegistrationStoreSuite) TestExistingMemberEmails() {
	s.Require().NoError(s.store.Create(s.ctx, newRegistration("ICE-1", time.Now(), "A@X.com ", "b@y.org")))

	found, err := s.store.ExistingMemberEmails(s.ctx, []string{"new@z.io", " B@Y.org", "a@x.com"})
	s.Require().NoError(err)
	s.Equal([]string{"b@y.org", "a@x.com"}, found)

	found, err = s.store.ExistingMemberEmails(s.ctx, []string{"nobody@z.io"})
	s.Require().NoError(err)
	s.Empty(found)
}

func (s *RegistrationStoreSuite) TestUpdateStatus() {
	reg := newRegistration("ICE-1", time.Now(), "a@x.com")
	s.Require().NoError(s.store.Create(s.ctx, reg))
	at := time.Now().Add(time.Hour)

	s.Run("pending to approved", func() {
		updated, err := s.store.UpdateStatus(s.ctx, reg.ID, models.StatusPending, models.StatusApproved, at)
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, updated.Status)
		s.True(at.Equal(updated.UpdatedAt))
		s.Equal(reg.CreatedAt, updated.CreatedAt)
	})

	s.Run("stale from status is rejected", func() {
		_, err := s.store.UpdateStatus(s.ctx, reg.ID, models.StatusPending, models.StatusRejected, at)
		s.ErrorIs(err, sentinel.ErrInvalidState)

		found, err := s.store.FindByID(s.ctx, reg.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, found.Status)
	})

	s.Run("unknown id", func() {
		_, err := s.store.UpdateStatus(s.ctx, uuid.New(), models.StatusPending, models.StatusRejected, at)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestConcurrentReviewsOnlyOneWins verifies the conditional update under contention.
func (s *RegistrationStoreSuite) TestConcurrentReviewsOnlyOneWins() {
	reg := newRegistration("ICE-RACE", time.Now(), "a@x.com")
	s.Require().NoError(s.store.Create(s.ctx, reg))

	var wg sync.WaitGroup
	var wins atomic.Int32
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			to := models.StatusApproved
			if i%2 == 1 {
				to = models.StatusRejected
			}
			if _, err := s.store.UpdateStatus(s.ctx, reg.ID, models.StatusPending, to, time.Now()); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), wins.Load())
}
