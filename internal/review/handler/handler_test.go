package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Registrations,Reviewer

import (
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	notificationModels "numerano/internal/notification/models"
	"numerano/internal/registration/models"
	registrationService "numerano/internal/registration/service"
	"numerano/internal/review/handler/mocks"
	reviewService "numerano/internal/review/service"
	dErrors "numerano/pkg/domain-errors"
	"numerano/pkg/testutil"
)

// =============================================================================
// Review Handler Test Suite
// =============================================================================
// Justification: the handler maps decisions and store errors onto HTTP and
// serves the decoded ID card. Services are mocked.

type HandlerSuite struct {
	suite.Suite
	ctrl          *gomock.Controller
	registrations *mocks.MockRegistrations
	reviewer      *mocks.MockReviewer
	router        chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.registrations = mocks.NewMockRegistrations(s.ctrl)
	s.reviewer = mocks.NewMockReviewer(s.ctrl)
	s.router = chi.NewRouter()
	New(s.registrations, s.reviewer, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func sampleRegistration(status models.Status) *models.Registration {
	return &models.Registration{
		ID:     uuid.New(),
		TeamID: "ICE-ABC123-WXYZ",
		Draft: models.Draft{
			TeamName: "Frost Giants",
			TeamSize: 1,
			Members:  []models.TeamMember{{Name: "Bob", Email: "bob@example.com", Role: models.DefaultLeadRole}},
			StudentIDCard: &models.IDCard{
				FileName:    "id.pdf",
				FileSize:    8,
				EncodedData: base64.StdEncoding.EncodeToString([]byte("%PDF-1.4")),
				UploadedAt:  time.Date(2026, 2, 14, 9, 0, 0, 0, time.UTC),
			},
		},
		Status: status,
	}
}

func (s *HandlerSuite) TestList() {
	reg := sampleRegistration(models.StatusPending)
	s.registrations.EXPECT().ListRegistrations(gomock.Any(), registrationService.ListFilter{Query: "frost", Status: models.StatusPending}).
		Return(&registrationService.ListResult{
			Registrations: []*models.Registration{reg},
			Counts:        models.StatusCounts{Total: 3, Pending: 1, Approved: 2},
		}, nil)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/admin/registrations?q=frost&status=pending"))
	s.Equal(http.StatusOK, rr.Code)

	resp := testutil.UnmarshalResponse[ListResponse](s.T(), rr)
	s.Require().Len(resp.Registrations, 1)
	s.Equal("ICE-ABC123-WXYZ", resp.Registrations[0].TeamID)
	s.Equal(2, resp.Counts.Approved)
	s.NotContains(rr.Body.String(), "encoded_data")
}

func (s *HandlerSuite) TestListUnknownStatus() {
	s.registrations.EXPECT().ListRegistrations(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeBadRequest, "unknown status filter"))

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/admin/registrations?status=archived"))
	s.Equal(http.StatusBadRequest, rr.Code)
}

func (s *HandlerSuite) TestReview() {
	reg := sampleRegistration(models.StatusApproved)

	s.Run("approve", func() {
		s.reviewer.EXPECT().Review(gomock.Any(), reg.ID, reviewService.DecisionApprove).Return(&reviewService.ReviewResult{
			Registration: reg,
			Notification: notificationModels.OutcomeRecord{Outcome: notificationModels.OutcomeSending},
		}, nil)

		req := testutil.WithAdmin(testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/registrations/"+reg.ID.String()+"/review", map[string]string{"decision": "approve"}), "admin")
		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusOK, rr.Code)
		resp := testutil.UnmarshalResponse[ReviewResponse](s.T(), rr)
		s.Equal(models.StatusApproved, resp.Registration.Status)
		s.Equal(notificationModels.OutcomeSending, resp.Notification.Outcome)
	})

	s.Run("already reviewed", func() {
		s.reviewer.EXPECT().Review(gomock.Any(), reg.ID, reviewService.DecisionReject).
			Return(nil, dErrors.New(dErrors.CodeInvalidTransition, "registration is already approved"))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/registrations/"+reg.ID.String()+"/review", map[string]string{"decision": "reject"})
		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusConflict, rr.Code)
		testutil.AssertErrorCode(s.T(), rr, string(dErrors.CodeInvalidTransition))
	})

	s.Run("no notifiable recipient", func() {
		s.reviewer.EXPECT().Review(gomock.Any(), reg.ID, reviewService.DecisionApprove).
			Return(nil, dErrors.New(dErrors.CodeNoNotifiableRecipient, "team lead has no email address"))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/registrations/"+reg.ID.String()+"/review", map[string]string{"decision": "approve"})
		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusUnprocessableEntity, rr.Code)
	})

	s.Run("malformed body", func() {
		req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/admin/registrations/"+reg.ID.String()+"/review", `{"decision":`)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
	})

	s.Run("unknown field", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/registrations/"+reg.ID.String()+"/review", map[string]string{"verdict": "approve"})
		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusBadRequest, rr.Code)
	})
}

func (s *HandlerSuite) TestNotify() {
	reg := sampleRegistration(models.StatusRejected)
	s.reviewer.EXPECT().ResendNotification(gomock.Any(), reg.ID).Return(&reviewService.ReviewResult{
		Registration: reg,
		Notification: notificationModels.OutcomeRecord{Outcome: notificationModels.OutcomeSending},
	}, nil)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, "/admin/registrations/"+reg.ID.String()+"/notify"))
	s.Equal(http.StatusAccepted, rr.Code)
}

func (s *HandlerSuite) TestNotificationOutcome() {
	id := uuid.New()
	s.reviewer.EXPECT().NotificationOutcome(gomock.Any(), id).Return(&notificationModels.OutcomeRecord{
		Outcome: notificationModels.OutcomeFailed,
		Error:   "emailjs: status 400",
	}, nil)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/admin/registrations/"+id.String()+"/notification"))
	s.Equal(http.StatusOK, rr.Code)
	resp := testutil.UnmarshalResponse[notificationModels.OutcomeRecord](s.T(), rr)
	s.Equal(notificationModels.OutcomeFailed, resp.Outcome)
	s.Equal("emailjs: status 400", resp.Error)
}

func (s *HandlerSuite) TestIDCardDownload() {
	reg := sampleRegistration(models.StatusPending)
	s.registrations.EXPECT().IDCard(gomock.Any(), reg.ID).Return(reg.StudentIDCard, nil)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/admin/registrations/"+reg.ID.String()+"/id-card"))
	s.Equal(http.StatusOK, rr.Code)
	s.Equal("application/pdf", rr.Header().Get("Content-Type"))
	s.Equal(`inline; filename="id.pdf"`, rr.Header().Get("Content-Disposition"))
	s.Equal("%PDF-1.4", rr.Body.String())
}

func (s *HandlerSuite) TestInvalidRegistrationID() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/admin/registrations/nope"))
	s.Equal(http.StatusBadRequest, rr.Code)
}

func (s *HandlerSuite) TestGetNotFound() {
	id := uuid.New()
	s.registrations.EXPECT().GetRegistration(gomock.Any(), id).
		Return(nil, dErrors.New(dErrors.CodeNotFound, "registration not found"))

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/admin/registrations/"+id.String()))
	s.Equal(http.StatusNotFound, rr.Code)
}
