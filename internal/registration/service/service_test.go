package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks RegistrationStore,DraftStore,TeamIDGenerator,Verifier,AuditPublisher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"numerano/internal/registration/metrics"
	"numerano/internal/registration/models"
	"numerano/internal/registration/service/mocks"
	registrationstore "numerano/internal/registration/store/registration"
	dErrors "numerano/pkg/domain-errors"
	"numerano/pkg/platform/audit"
	"numerano/pkg/platform/sentinel"
	"numerano/pkg/requestcontext"
)

// =============================================================================
// Registration Service Test Suite
// =============================================================================
// Justification for unit tests: submission is fail-fast and must not touch
// the store for incomplete drafts. Mocked stores make "zero store calls"
// and the team id regeneration bound observable.

type ServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	store     *mocks.MockRegistrationStore
	drafts    *mocks.MockDraftStore
	teamIDs   *mocks.MockTeamIDGenerator
	publisher *mocks.MockAuditPublisher
	metrics   *metrics.Metrics
	service   *Service
	now       time.Time
	ctx       context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockRegistrationStore(s.ctrl)
	s.drafts = mocks.NewMockDraftStore(s.ctrl)
	s.teamIDs = mocks.NewMockTeamIDGenerator(s.ctrl)
	s.publisher = mocks.NewMockAuditPublisher(s.ctrl)
	s.metrics = metrics.NewWithRegisterer(prometheus.NewRegistry())
	s.service = New(s.store, s.drafts, s.teamIDs,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(s.publisher),
		WithMetrics(s.metrics),
	)
	s.now = time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func completeDraft() *models.Draft {
	return &models.Draft{
		TeamName: "  Frost Giants ",
		TeamSize: 2,
		Members: []models.TeamMember{
			{Name: " Bob ", Email: " Bob@Example.com", Role: models.DefaultLeadRole},
			{Name: "Ann", Email: "ann@example.com", Role: models.DefaultMemberRole},
		},
		ProjectTitle: "Glacier",
		Domain:       models.DomainAIML,
		ProjectIdea:  "Predict ice melt",
		AgreeToRules: true,
		IsVerified:   true,
		StudentIDCard: &models.IDCard{
			FileName:    "id.pdf",
			FileSize:    8,
			EncodedData: "JVBERi0xLjQ=",
			UploadedAt:  time.Date(2026, 2, 14, 9, 0, 0, 0, time.UTC),
		},
	}
}

// =============================================================================
// Submit
// =============================================================================

func (s *ServiceSuite) TestSubmitRefusesIncompleteDraftWithoutStoreCalls() {
	s.Run("rules not accepted", func() {
		d := completeDraft()
		d.AgreeToRules = false
		reg, err := s.service.Submit(s.ctx, d)
		s.Nil(reg)
		s.True(dErrors.HasCode(err, dErrors.CodeIncompleteSubmission))
		de, _ := dErrors.As(err)
		s.Equal("confirm", de.Details["step"])
	})

	s.Run("not verified names the first step", func() {
		d := completeDraft()
		d.IsVerified = false
		d.AgreeToRules = false
		_, err := s.service.Submit(s.ctx, d)
		de, ok := dErrors.As(err)
		s.Require().True(ok)
		s.Equal(dErrors.CodeIncompleteSubmission, de.Code)
		s.Equal("verification", de.Details["step"])
	})

	s.Run("missing id card", func() {
		d := completeDraft()
		d.StudentIDCard = nil
		_, err := s.service.Submit(s.ctx, d)
		s.True(dErrors.HasCode(err, dErrors.CodeIncompleteSubmission))
	})

	s.Equal(float64(3), testutil.ToFloat64(s.metrics.SubmissionFailures.WithLabelValues(string(dErrors.CodeIncompleteSubmission))))
}

func (s *ServiceSuite) TestSubmitRefusesDuplicateEmailInTeam() {
	d := completeDraft()
	d.Members[1].Email = "bob@example.com "
	_, err := s.service.Submit(s.ctx, d)
	s.True(dErrors.HasCode(err, dErrors.CodeDuplicateEmailInTeam))
	de, _ := dErrors.As(err)
	s.Equal([]int{0, 1}, de.Details["member_indexes"])
}

func (s *ServiceSuite) TestSubmitReportsEarlierTeamRuleBeforeSharedEmail() {
	d := completeDraft()
	d.TeamName = " "
	d.Members[1].Email = "bob@example.com"
	_, err := s.service.Submit(s.ctx, d)
	de, ok := dErrors.As(err)
	s.Require().True(ok)
	s.Equal(dErrors.CodeIncompleteSubmission, de.Code)
	s.Equal("team_details", de.Details["step"])
	s.Contains(de.Message, "team name is required")
}

func (s *ServiceSuite) TestSubmitCompletesAfterClientLeaves() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	s.teamIDs.EXPECT().Generate().Return("ICE-ABC123-WXYZ")
	s.store.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ *models.Registration) error {
			s.NoError(ctx.Err(), "the write must not inherit the request cancellation")
			_, hasDeadline := ctx.Deadline()
			s.True(hasDeadline)
			return nil
		})
	s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

	reg, err := s.service.Submit(ctx, completeDraft())
	s.Require().NoError(err)
	s.Equal("ICE-ABC123-WXYZ", reg.TeamID)
	s.True(s.now.Equal(reg.SubmissionTime), "request values survive the detach")
}

func (s *ServiceSuite) TestSubmitStoresNormalizedPendingRecord() {
	var stored *models.Registration
	s.teamIDs.EXPECT().Generate().Return("ICE-ABC123-WXYZ")
	s.store.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, reg *models.Registration) error {
			stored = reg.Clone()
			return nil
		})
	s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, e audit.Event) error {
			s.Equal(string(audit.EventRegistrationSubmitted), e.Action)
			s.Equal("ICE-ABC123-WXYZ", e.TeamID)
			s.Equal("Frost Giants", e.Subject)
			return nil
		})

	reg, err := s.service.Submit(s.ctx, completeDraft())
	s.Require().NoError(err)
	s.Require().NotNil(stored)

	s.Equal("ICE-ABC123-WXYZ", reg.TeamID)
	s.Equal(models.StatusPending, reg.Status)
	s.Equal("Frost Giants", reg.TeamName)
	s.Equal("bob@example.com", reg.Members[0].Email)
	s.Equal("Bob", reg.Members[0].Name)
	s.Equal(2, reg.TeamSize)
	s.True(s.now.Equal(reg.CreatedAt))
	s.True(s.now.Equal(reg.UpdatedAt))
	s.True(s.now.Equal(reg.SubmissionTime))
	s.Equal(reg.ID, stored.ID)
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.SubmittedTotal))
}

func (s *ServiceSuite) TestSubmitRegeneratesTeamIDOnCollision() {
	s.Run("succeeds on the third id", func() {
		gomock.InOrder(
			s.teamIDs.EXPECT().Generate().Return("ICE-AAAAAA-0001"),
			s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(sentinel.ErrConflict),
			s.teamIDs.EXPECT().Generate().Return("ICE-AAAAAA-0002"),
			s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(sentinel.ErrConflict),
			s.teamIDs.EXPECT().Generate().Return("ICE-AAAAAA-0003"),
			s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil),
		)
		s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		reg, err := s.service.Submit(s.ctx, completeDraft())
		s.Require().NoError(err)
		s.Equal("ICE-AAAAAA-0003", reg.TeamID)
	})

	s.Run("gives up after three collisions", func() {
		s.teamIDs.EXPECT().Generate().Return("ICE-AAAAAA-0001").Times(3)
		s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(sentinel.ErrConflict).Times(3)

		_, err := s.service.Submit(s.ctx, completeDraft())
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestSubmitClassifiesStoreFailures() {
	cases := []struct {
		name string
		err  error
		code dErrors.Code
	}{
		{"permission denied", errors.Join(sentinel.ErrPermissionDenied, errors.New("42501")), dErrors.CodePermissionDenied},
		{"unavailable", errors.Join(sentinel.ErrUnavailable, errors.New("dial tcp")), dErrors.CodeStoreUnavailable},
		{"missing table", errors.Join(sentinel.ErrNotFound, errors.New("42P01")), dErrors.CodeNotFound},
		{"unknown", errors.New("boom"), dErrors.CodeInternal},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.teamIDs.EXPECT().Generate().Return("ICE-AAAAAA-0001")
			s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(tc.err)

			_, err := s.service.Submit(s.ctx, completeDraft())
			de, ok := dErrors.As(err)
			s.Require().True(ok)
			s.Equal(tc.code, de.Code)
			s.NotContains(de.Message, "42501")
			s.NotContains(de.Message, "dial tcp")
		})
	}
}

// =============================================================================
// CheckEmailUniqueness
// =============================================================================

func (s *ServiceSuite) TestCheckEmailUniqueness() {
	s.Run("normalizes candidates before lookup", func() {
		s.store.EXPECT().ExistingMemberEmails(gomock.Any(), []string{"a@x.com", "b@y.org"}).Return(nil, nil)
		res, err := s.service.CheckEmailUniqueness(s.ctx, []string{" A@X.com", "b@y.org", "a@x.com", ""})
		s.Require().NoError(err)
		s.True(res.IsUnique)
		s.Empty(res.DuplicateEmails)
	})

	s.Run("no candidates skips the store", func() {
		res, err := s.service.CheckEmailUniqueness(s.ctx, []string{"", "  "})
		s.Require().NoError(err)
		s.True(res.IsUnique)
	})

	s.Run("store failure is unavailable", func() {
		s.store.EXPECT().ExistingMemberEmails(gomock.Any(), gomock.Any()).
			Return(nil, errors.Join(sentinel.ErrUnavailable, errors.New("timeout")))
		_, err := s.service.CheckEmailUniqueness(s.ctx, []string{"a@x.com"})
		s.True(dErrors.HasCode(err, dErrors.CodeStoreUnavailable))
	})
}

func TestCheckEmailUniquenessAgainstStoredRegistration(t *testing.T) {
	ctx := context.Background()
	store := registrationstore.NewInMemory()
	stored := &models.Registration{
		TeamID: "ICE-STORED-0001",
		Draft: models.Draft{
			TeamName: "Existing",
			TeamSize: 1,
			Members:  []models.TeamMember{{Name: "A", Email: "A@X.com ", Role: models.DefaultLeadRole}},
		},
		Status: models.StatusPending,
	}
	if err := store.Create(ctx, stored); err != nil {
		t.Fatalf("seed: %v", err)
	}
	svc := New(store, nil, nil)

	res, err := svc.CheckEmailUniqueness(ctx, []string{"a@x.com"})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.IsUnique {
		t.Fatal("expected a conflict")
	}
	if len(res.DuplicateEmails) != 1 || res.DuplicateEmails[0] != "a@x.com" {
		t.Fatalf("duplicates = %v, want [a@x.com]", res.DuplicateEmails)
	}
}
