package service

import (
	"context"
	"encoding/base64"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"numerano/internal/registration/models"
	draftstore "numerano/internal/registration/store/draft"
	registrationstore "numerano/internal/registration/store/registration"
	"numerano/internal/registration/teamid"
	"numerano/internal/registration/verification"
	dErrors "numerano/pkg/domain-errors"
	"numerano/pkg/platform/sentinel"
	"numerano/pkg/requestcontext"
)

// =============================================================================
// Draft Wizard Flow Suite
// =============================================================================
// Justification: the wizard is persisted between requests, so the tests run
// the service against the in-memory stores to cover save and reload.

var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n%%EOF\n")

// hookedStore runs hooks inside the uniqueness lookup and the insert,
// standing in for a request that lands while either is outstanding.
type hookedStore struct {
	*registrationstore.InMemory
	onLookup func()
	onCreate func() error
}

func (h *hookedStore) Create(ctx context.Context, reg *models.Registration) error {
	if h.onCreate != nil {
		if err := h.onCreate(); err != nil {
			return err
		}
	}
	return h.InMemory.Create(ctx, reg)
}

func (h *hookedStore) ExistingMemberEmails(ctx context.Context, candidates []string) ([]string, error) {
	if h.onLookup != nil {
		h.onLookup()
	}
	return h.InMemory.ExistingMemberEmails(ctx, candidates)
}

type DraftFlowSuite struct {
	suite.Suite
	registrations *hookedStore
	drafts        *draftstore.InMemory
	service       *Service
	ctx           context.Context
}

func TestDraftFlowSuite(t *testing.T) {
	suite.Run(t, new(DraftFlowSuite))
}

func (s *DraftFlowSuite) SetupTest() {
	s.registrations = &hookedStore{InMemory: registrationstore.NewInMemory()}
	s.drafts = draftstore.NewInMemory(time.Hour)
	s.service = New(s.registrations, s.drafts, teamid.New(), WithVerifier(verification.AcceptAll{}))
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC))
}

func (s *DraftFlowSuite) ptr(v string) *string { return &v }

// draftAtTeamStep returns a verified draft with a valid two member team.
func (s *DraftFlowSuite) draftAtTeamStep() uuid.UUID {
	session, err := s.service.CreateDraft(s.ctx)
	s.Require().NoError(err)
	id := session.ID

	_, err = s.service.VerifyHuman(s.ctx, id, "token")
	s.Require().NoError(err)
	session, err = s.service.AdvanceDraft(s.ctx, id)
	s.Require().NoError(err)
	s.Require().Equal(models.StepTeamDetails, session.State.Step)

	_, err = s.service.UpdateDraft(s.ctx, id, models.DraftPatch{TeamName: s.ptr("Frost Giants")})
	s.Require().NoError(err)
	_, err = s.service.UpdateMember(s.ctx, id, 0, models.MemberPatch{Name: s.ptr("Bob"), Email: s.ptr("bob@example.com")})
	s.Require().NoError(err)
	_, err = s.service.AddMember(s.ctx, id)
	s.Require().NoError(err)
	_, err = s.service.UpdateMember(s.ctx, id, 1, models.MemberPatch{Name: s.ptr("Ann"), Email: s.ptr("ann@example.com")})
	s.Require().NoError(err)
	return id
}

// draftAtConfirm walks a draft to the confirm step with the rules accepted.
func (s *DraftFlowSuite) draftAtConfirm() uuid.UUID {
	id := s.draftAtTeamStep()
	_, err := s.service.AdvanceDraft(s.ctx, id)
	s.Require().NoError(err)

	domain := models.DomainIoT
	_, err = s.service.UpdateDraft(s.ctx, id, models.DraftPatch{
		ProjectTitle: s.ptr("Snow Sensor"),
		ProjectIdea:  s.ptr("Mesh of cheap snow depth sensors"),
		Domain:       &domain,
	})
	s.Require().NoError(err)
	_, err = s.service.AttachIDCard(s.ctx, id, IDCardUpload{FileName: "id.pdf", ContentType: "application/pdf", Data: samplePDF})
	s.Require().NoError(err)
	_, err = s.service.AdvanceDraft(s.ctx, id)
	s.Require().NoError(err)

	agree := true
	session, err := s.service.UpdateDraft(s.ctx, id, models.DraftPatch{AgreeToRules: &agree})
	s.Require().NoError(err)
	s.Require().Equal(models.StepConfirm, session.State.Step)
	return id
}

func (s *DraftFlowSuite) storeEarlierRegistration(addr string) {
	s.Require().NoError(s.registrations.InMemory.Create(s.ctx, &models.Registration{
		ID:     uuid.New(),
		TeamID: "ICE-OLDONE-" + uuid.NewString()[:4],
		Draft: models.Draft{
			TeamName: "Earlier",
			TeamSize: 1,
			Members:  []models.TeamMember{{Name: "Old", Email: addr, Role: models.DefaultLeadRole}},
		},
		Status: models.StatusPending,
	}))
}

func (s *DraftFlowSuite) storedCount() int {
	all, err := s.registrations.List(s.ctx)
	s.Require().NoError(err)
	return len(all)
}

func (s *DraftFlowSuite) TestFullFlowSubmitsAndDiscardsDraft() {
	id := s.draftAtTeamStep()

	session, err := s.service.AdvanceDraft(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(models.StepProjectDetails, session.State.Step)
	s.Nil(session.State.PendingAdvance)

	domain := models.DomainIoT
	_, err = s.service.UpdateDraft(s.ctx, id, models.DraftPatch{
		ProjectTitle: s.ptr("Snow Sensor"),
		ProjectIdea:  s.ptr("Mesh of cheap snow depth sensors"),
		Domain:       &domain,
	})
	s.Require().NoError(err)
	session, err = s.service.AttachIDCard(s.ctx, id, IDCardUpload{FileName: "../bob id.pdf", ContentType: "application/pdf", Data: samplePDF})
	s.Require().NoError(err)
	s.Equal("bob id.pdf", session.State.Draft.StudentIDCard.FileName)
	s.Equal(base64.StdEncoding.EncodeToString(samplePDF), session.State.Draft.StudentIDCard.EncodedData)

	session, err = s.service.AdvanceDraft(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(models.StepConfirm, session.State.Step)

	agree := true
	_, err = s.service.UpdateDraft(s.ctx, id, models.DraftPatch{AgreeToRules: &agree})
	s.Require().NoError(err)

	reg, err := s.service.SubmitDraft(s.ctx, id)
	s.Require().NoError(err)
	s.Regexp(`^ICE-[0-9A-Z]{6}-[0-9A-Z]{4}$`, reg.TeamID)

	found, err := s.service.StatusByTeamID(s.ctx, reg.TeamID)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, found.Status)
	s.Equal("Frost Giants", found.TeamName)
	s.Equal("Bob", found.Members[0].Name)

	_, err = s.service.GetDraft(s.ctx, id)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *DraftFlowSuite) TestAdvanceRefusesEmailOfEarlierRegistration() {
	s.Require().NoError(s.registrations.Create(s.ctx, &models.Registration{
		ID:     uuid.New(),
		TeamID: "ICE-OLDONE-0001",
		Draft: models.Draft{
			TeamName: "Earlier",
			TeamSize: 1,
			Members:  []models.TeamMember{{Name: "Ann", Email: "ANN@example.com", Role: models.DefaultLeadRole}},
		},
		Status: models.StatusPending,
	}))
	id := s.draftAtTeamStep()

	_, err := s.service.AdvanceDraft(s.ctx, id)
	s.Require().True(dErrors.HasCode(err, dErrors.CodeUniquenessConflict))
	de, _ := dErrors.As(err)
	s.Equal([]string{"ann@example.com"}, de.Details["duplicate_emails"])

	session, err := s.service.GetDraft(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(models.StepTeamDetails, session.State.Step)
	s.Nil(session.State.PendingAdvance)
	s.Equal("ann@example.com", session.State.Draft.Members[1].Email)
}

func (s *DraftFlowSuite) TestEditDuringCheckDiscardsResult() {
	id := s.draftAtTeamStep()
	s.registrations.onLookup = func() {
		s.registrations.onLookup = nil
		_, err := s.service.UpdateMember(s.ctx, id, 1, models.MemberPatch{Email: s.ptr("ann2@example.com")})
		s.Require().NoError(err)
	}

	_, err := s.service.AdvanceDraft(s.ctx, id)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	session, err := s.service.GetDraft(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(models.StepTeamDetails, session.State.Step)
	s.Equal("ann2@example.com", session.State.Draft.Members[1].Email)

	session, err = s.service.AdvanceDraft(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(models.StepProjectDetails, session.State.Step)
}

func (s *DraftFlowSuite) TestSecondAdvanceDuringCheckIsRefused() {
	id := s.draftAtTeamStep()
	var nestedErr error
	s.registrations.onLookup = func() {
		s.registrations.onLookup = nil
		_, nestedErr = s.service.AdvanceDraft(s.ctx, id)
	}

	session, err := s.service.AdvanceDraft(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(models.StepProjectDetails, session.State.Step)
	s.True(dErrors.HasCode(nestedErr, dErrors.CodeConflict))
}

func (s *DraftFlowSuite) TestMembers() {
	id := s.draftAtTeamStep()

	s.Run("lead cannot be removed", func() {
		session, err := s.service.RemoveMember(s.ctx, id, 0)
		s.Require().NoError(err)
		s.Equal(2, session.State.Draft.TeamSize)
		s.Len(session.State.Draft.Members, 2)
	})

	s.Run("team size follows members", func() {
		for range 2 {
			_, err := s.service.AddMember(s.ctx, id)
			s.Require().NoError(err)
		}
		_, err := s.service.AddMember(s.ctx, id)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		session, err := s.service.RemoveMember(s.ctx, id, 3)
		s.Require().NoError(err)
		s.Equal(3, session.State.Draft.TeamSize)
		s.Len(session.State.Draft.Members, 3)
	})

	s.Run("unknown member index", func() {
		_, err := s.service.UpdateMember(s.ctx, id, 7, models.MemberPatch{Name: s.ptr("Zed")})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *DraftFlowSuite) TestAttachIDCardValidation() {
	session, err := s.service.CreateDraft(s.ctx)
	s.Require().NoError(err)

	cases := []struct {
		name   string
		upload IDCardUpload
	}{
		{"wrong content type", IDCardUpload{FileName: "id.png", ContentType: "image/png", Data: samplePDF}},
		{"not a pdf body", IDCardUpload{FileName: "id.pdf", ContentType: "application/pdf", Data: []byte("GIF89a")}},
		{"empty", IDCardUpload{FileName: "id.pdf", ContentType: "application/pdf"}},
		{"too large", IDCardUpload{FileName: "id.pdf", ContentType: "application/pdf",
			Data: append(append([]byte{}, pdfMagic...), make([]byte, models.MaxIDCardBytes)...)}},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.service.AttachIDCard(s.ctx, session.ID, tc.upload)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}

	stored, err := s.service.GetDraft(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Nil(stored.State.Draft.StudentIDCard)
}

func (s *DraftFlowSuite) TestSubmitDraftBeforeConfirm() {
	id := s.draftAtTeamStep()
	_, err := s.service.SubmitDraft(s.ctx, id)
	s.True(dErrors.HasCode(err, dErrors.CodeIncompleteSubmission))

	all, err := s.registrations.List(s.ctx)
	s.Require().NoError(err)
	s.Empty(all)
}

func (s *DraftFlowSuite) TestVerifyRequiresToken() {
	session, err := s.service.CreateDraft(s.ctx)
	s.Require().NoError(err)
	_, err = s.service.VerifyHuman(s.ctx, session.ID, " ")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *DraftFlowSuite) TestRetreatAndReset() {
	id := s.draftAtTeamStep()

	session, err := s.service.RetreatDraft(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(models.StepVerification, session.State.Step)

	session, err = s.service.ResetDraft(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(models.StepVerification, session.State.Step)
	s.Equal("", session.State.Draft.TeamName)
	s.Len(session.State.Draft.Members, 1)
}

func (s *DraftFlowSuite) TestUnknownDraft() {
	_, err := s.service.GetDraft(s.ctx, uuid.New())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *DraftFlowSuite) TestTeamEditAfterTeamStepIsCheckedAgain() {
	s.storeEarlierRegistration("taken@example.com")
	id := s.draftAtTeamStep()
	session, err := s.service.AdvanceDraft(s.ctx, id)
	s.Require().NoError(err)
	s.Require().Equal(models.StepProjectDetails, session.State.Step)

	session, err = s.service.UpdateMember(s.ctx, id, 1, models.MemberPatch{Email: s.ptr("TAKEN@example.com")})
	s.Require().NoError(err)
	s.Equal(models.StepTeamDetails, session.State.Step)

	_, err = s.service.AdvanceDraft(s.ctx, id)
	s.True(dErrors.HasCode(err, dErrors.CodeUniquenessConflict))

	_, err = s.service.SubmitDraft(s.ctx, id)
	s.True(dErrors.HasCode(err, dErrors.CodeIncompleteSubmission))
	s.Equal(1, s.storedCount())
}

func (s *DraftFlowSuite) TestSubmitRechecksUniqueness() {
	id := s.draftAtConfirm()
	s.storeEarlierRegistration("ANN@example.com")

	_, err := s.service.SubmitDraft(s.ctx, id)
	s.Require().True(dErrors.HasCode(err, dErrors.CodeUniquenessConflict))
	de, _ := dErrors.As(err)
	s.Equal([]string{"ann@example.com"}, de.Details["duplicate_emails"])
	s.Equal(1, s.storedCount())

	session, err := s.service.GetDraft(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(models.StepTeamDetails, session.State.Step)
	s.Nil(session.State.SubmittingSince)

	_, err = s.service.UpdateMember(s.ctx, id, 1, models.MemberPatch{Email: s.ptr("ann.new@example.com")})
	s.Require().NoError(err)
	session, err = s.service.AdvanceDraft(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(models.StepProjectDetails, session.State.Step)
}

func (s *DraftFlowSuite) TestRepeatedSubmitDuringWriteIsRefused() {
	id := s.draftAtConfirm()
	var nestedSubmitErr, nestedEditErr error
	s.registrations.onCreate = func() error {
		s.registrations.onCreate = nil
		_, nestedSubmitErr = s.service.SubmitDraft(s.ctx, id)
		_, nestedEditErr = s.service.UpdateDraft(s.ctx, id, models.DraftPatch{TeamName: s.ptr("Renamed")})
		return nil
	}

	reg, err := s.service.SubmitDraft(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("Frost Giants", reg.TeamName)
	s.True(dErrors.HasCode(nestedSubmitErr, dErrors.CodeConflict))
	s.True(dErrors.HasCode(nestedEditErr, dErrors.CodeConflict))
	s.Equal(1, s.storedCount())
}

func (s *DraftFlowSuite) TestConcurrentSubmitsStoreOneRegistration() {
	id := s.draftAtConfirm()
	s.registrations.onCreate = func() error {
		time.Sleep(20 * time.Millisecond)
		return nil
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.service.SubmitDraft(s.ctx, id)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		// The loser either finds the claim or, if it loads late, no draft.
		s.True(dErrors.HasCode(err, dErrors.CodeConflict) || dErrors.HasCode(err, dErrors.CodeNotFound), "got %v", err)
	}
	s.Equal(1, succeeded)
	s.Equal(1, s.storedCount())
}

func (s *DraftFlowSuite) TestFailedSubmitReleasesClaim() {
	id := s.draftAtConfirm()
	s.registrations.onCreate = func() error {
		s.registrations.onCreate = nil
		return sentinel.ErrUnavailable
	}

	_, err := s.service.SubmitDraft(s.ctx, id)
	s.True(dErrors.HasCode(err, dErrors.CodeStoreUnavailable))

	session, err := s.service.GetDraft(s.ctx, id)
	s.Require().NoError(err)
	s.Nil(session.State.SubmittingSince)
	s.Equal(models.StepConfirm, session.State.Step)

	reg, err := s.service.SubmitDraft(s.ctx, id)
	s.Require().NoError(err)
	s.NotEmpty(reg.TeamID)
}
