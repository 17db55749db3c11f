package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"bytes"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"numerano/internal/registration/handler/mocks"
	"numerano/internal/registration/models"
	"numerano/internal/registration/service"
	"numerano/internal/registration/wizard"
	dErrors "numerano/pkg/domain-errors"
	"numerano/pkg/testutil"
)

// =============================================================================
// Registration Handler Test Suite
// =============================================================================
// Justification: handlers own path parsing, the multipart upload and the
// error to status mapping. The service is mocked.

type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.router = chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func sampleSession(id uuid.UUID) *models.DraftSession {
	return &models.DraftSession{
		ID:      id,
		Version: 3,
		State: models.WizardState{
			Step:  models.StepTeamDetails,
			Draft: *models.NewDraft(),
		},
		UpdatedAt: time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC),
	}
}

func (s *HandlerSuite) TestCreateDraft() {
	id := uuid.New()
	s.service.EXPECT().CreateDraft(gomock.Any()).Return(sampleSession(id), nil)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, "/registrations/drafts"))
	s.Equal(http.StatusCreated, rr.Code)

	resp := testutil.UnmarshalResponse[DraftResponse](s.T(), rr)
	s.Equal(id.String(), resp.ID)
	s.Equal("team_details", resp.Step)
	s.Equal(int64(3), resp.Version)
	s.False(resp.StepValid)
}

func (s *HandlerSuite) TestInvalidDraftID() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/registrations/drafts/not-a-uuid"))
	s.Equal(http.StatusBadRequest, rr.Code)
	testutil.AssertErrorCode(s.T(), rr, string(dErrors.CodeBadRequest))
}

func (s *HandlerSuite) TestAdvanceUniquenessConflict() {
	id := uuid.New()
	s.service.EXPECT().AdvanceDraft(gomock.Any(), id).
		Return(nil, wizard.UniquenessConflict([]string{"ann@example.com"}))

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, "/registrations/drafts/"+id.String()+"/advance"))
	s.Equal(http.StatusConflict, rr.Code)

	resp := testutil.UnmarshalErrorResponse(s.T(), rr)
	s.Equal(string(dErrors.CodeUniquenessConflict), resp.Error)
	s.Equal([]any{"ann@example.com"}, resp.Details["duplicate_emails"])
}

func (s *HandlerSuite) TestUpdateDraftRejectsNonJSON() {
	id := uuid.New()
	req := httptest.NewRequest(http.MethodPatch, "/registrations/drafts/"+id.String(), bytes.NewBufferString("team_name=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rr := testutil.DoRequest(s.router, req)
	s.Equal(http.StatusUnsupportedMediaType, rr.Code)
}

func (s *HandlerSuite) TestUpdateMember() {
	id := uuid.New()
	name := "Ann"
	s.service.EXPECT().UpdateMember(gomock.Any(), id, 1, models.MemberPatch{Name: &name}).
		Return(sampleSession(id), nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPatch, "/registrations/drafts/"+id.String()+"/members/1", map[string]string{"name": "Ann"})
	rr := testutil.DoRequest(s.router, req)
	s.Equal(http.StatusOK, rr.Code)

	s.Run("bad index", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPatch, "/registrations/drafts/"+id.String()+"/members/x", map[string]string{"name": "Ann"})
		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusBadRequest, rr.Code)
	})
}

func (s *HandlerSuite) TestUploadIDCard() {
	id := uuid.New()
	pdf := []byte("%PDF-1.4 test")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {`form-data; name="file"; filename="bob.pdf"`},
		"Content-Type":        {"application/pdf"},
	})
	s.Require().NoError(err)
	_, err = part.Write(pdf)
	s.Require().NoError(err)
	s.Require().NoError(mw.Close())

	s.service.EXPECT().AttachIDCard(gomock.Any(), id, service.IDCardUpload{
		FileName:    "bob.pdf",
		ContentType: "application/pdf",
		Data:        pdf,
	}).Return(sampleSession(id), nil)

	req := httptest.NewRequest(http.MethodPut, "/registrations/drafts/"+id.String()+"/id-card", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := testutil.DoRequest(s.router, req)
	s.Equal(http.StatusOK, rr.Code)
}

func (s *HandlerSuite) TestUploadIDCardMissingFile() {
	id := uuid.New()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	s.Require().NoError(mw.WriteField("other", "x"))
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPut, "/registrations/drafts/"+id.String()+"/id-card", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := testutil.DoRequest(s.router, req)
	s.Equal(http.StatusBadRequest, rr.Code)
}

func (s *HandlerSuite) TestSubmit() {
	id := uuid.New()
	submitted := time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC)

	s.Run("created", func() {
		s.service.EXPECT().SubmitDraft(gomock.Any(), id).Return(&models.Registration{
			ID:             uuid.New(),
			TeamID:         "ICE-ABC123-WXYZ",
			Draft:          models.Draft{TeamName: "Frost Giants"},
			Status:         models.StatusPending,
			SubmissionTime: submitted,
		}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, "/registrations/drafts/"+id.String()+"/submit"))
		s.Equal(http.StatusCreated, rr.Code)
		resp := testutil.UnmarshalResponse[SubmitResponse](s.T(), rr)
		s.Equal("ICE-ABC123-WXYZ", resp.TeamID)
		s.Equal(models.StatusPending, resp.Status)
	})

	s.Run("store unavailable", func() {
		s.service.EXPECT().SubmitDraft(gomock.Any(), id).
			Return(nil, dErrors.New(dErrors.CodeStoreUnavailable, "Registration service is temporarily unavailable."))

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, "/registrations/drafts/"+id.String()+"/submit"))
		s.Equal(http.StatusServiceUnavailable, rr.Code)
	})

	s.Run("internal errors hide details", func() {
		s.service.EXPECT().SubmitDraft(gomock.Any(), id).
			Return(nil, dErrors.New(dErrors.CodeInternal, "pq: relation missing"))

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, "/registrations/drafts/"+id.String()+"/submit"))
		s.Equal(http.StatusInternalServerError, rr.Code)
		s.NotContains(rr.Body.String(), "relation")
	})
}

func (s *HandlerSuite) TestEmailCheck() {
	s.service.EXPECT().CheckEmailUniqueness(gomock.Any(), []string{"a@x.com"}).
		Return(&models.UniquenessResult{IsUnique: false, DuplicateEmails: []string{"a@x.com"}}, nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/registrations/email-check", map[string][]string{"emails": {"a@x.com"}})
	rr := testutil.DoRequest(s.router, req)
	s.Equal(http.StatusOK, rr.Code)
	resp := testutil.UnmarshalResponse[models.UniquenessResult](s.T(), rr)
	s.False(resp.IsUnique)
	s.Equal([]string{"a@x.com"}, resp.DuplicateEmails)
}

func (s *HandlerSuite) TestStatus() {
	s.service.EXPECT().StatusByTeamID(gomock.Any(), "ICE-NOPE00-0000").
		Return(nil, dErrors.New(dErrors.CodeNotFound, "registration not found"))

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/registrations/status/ICE-NOPE00-0000"))
	s.Equal(http.StatusNotFound, rr.Code)
}

func (s *HandlerSuite) TestWriteLimiterGuardsWrites() {
	blocked := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}
	router := chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)), WithWriteLimiter(blocked)).Register(router)

	rr := testutil.DoRequest(router, testutil.NewRequest(s.T(), http.MethodPost, "/registrations/drafts"))
	s.Equal(http.StatusTooManyRequests, rr.Code)

	id := uuid.New()
	s.service.EXPECT().GetDraft(gomock.Any(), id).Return(sampleSession(id), nil)
	rr = testutil.DoRequest(router, testutil.NewRequest(s.T(), http.MethodGet, "/registrations/drafts/"+id.String()))
	s.Equal(http.StatusOK, rr.Code)
}
