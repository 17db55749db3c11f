package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"numerano/internal/registration/models"
	"numerano/internal/registration/wizard"
	dErrors "numerano/pkg/domain-errors"
	"numerano/pkg/platform/sentinel"
	"numerano/pkg/requestcontext"
)

// maxCompleteAttempts bounds reload-and-save rounds when another request
// saves the draft while an advance is finishing.
const maxCompleteAttempts = 3

var pdfMagic = []byte("%PDF-")

// IDCardUpload is a student ID document as received from the client.
type IDCardUpload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// CreateDraft starts a new wizard session at the verification step.
func (s *Service) CreateDraft(ctx context.Context) (*models.DraftSession, error) {
	now := requestcontext.Now(ctx)
	session := &models.DraftSession{
		ID:        uuid.New(),
		State:     wizard.New(s).Snapshot(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.drafts.Create(ctx, session); err != nil {
		return nil, draftError(err)
	}
	if s.metrics != nil {
		s.metrics.DraftsCreated.Inc()
	}
	return session, nil
}

func (s *Service) GetDraft(ctx context.Context, id uuid.UUID) (*models.DraftSession, error) {
	return s.loadDraft(ctx, id)
}

func (s *Service) UpdateDraft(ctx context.Context, id uuid.UUID, patch models.DraftPatch) (*models.DraftSession, error) {
	return s.mutate(ctx, id, func(w *wizard.Wizard) (bool, error) {
		if patch.IsEmpty() {
			return false, nil
		}
		return true, w.UpdateField(patch)
	})
}

func (s *Service) AddMember(ctx context.Context, id uuid.UUID) (*models.DraftSession, error) {
	return s.mutate(ctx, id, func(w *wizard.Wizard) (bool, error) {
		if !w.AddMember() {
			return false, dErrors.New(dErrors.CodeValidation,
				fmt.Sprintf("a team has at most %d members", models.MaxTeamSize))
		}
		return true, nil
	})
}

func (s *Service) UpdateMember(ctx context.Context, id uuid.UUID, index int, patch models.MemberPatch) (*models.DraftSession, error) {
	return s.mutate(ctx, id, func(w *wizard.Wizard) (bool, error) {
		return true, w.UpdateMember(index, patch)
	})
}

// RemoveMember drops a member. Removing the lead or an unknown index leaves
// the draft unchanged.
func (s *Service) RemoveMember(ctx context.Context, id uuid.UUID, index int) (*models.DraftSession, error) {
	return s.mutate(ctx, id, func(w *wizard.Wizard) (bool, error) {
		return w.RemoveMember(index), nil
	})
}

// VerifyHuman checks a challenge token and marks the draft verified.
func (s *Service) VerifyHuman(ctx context.Context, id uuid.UUID, token string) (*models.DraftSession, error) {
	if strings.TrimSpace(token) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "verification token is required").
			WithDetail("step", models.StepVerification.String())
	}
	if s.verifier != nil {
		if err := s.verifier.Verify(ctx, token, requestcontext.ClientIP(ctx)); err != nil {
			if _, ok := dErrors.As(err); ok {
				return nil, err
			}
			return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "verification service did not respond; please try again")
		}
	}
	return s.mutate(ctx, id, func(w *wizard.Wizard) (bool, error) {
		w.SetVerified(true)
		return true, nil
	})
}

// AttachIDCard stores a PDF of the lead's student ID on the draft.
func (s *Service) AttachIDCard(ctx context.Context, id uuid.UUID, upload IDCardUpload) (*models.DraftSession, error) {
	if err := validateIDCard(upload); err != nil {
		return nil, err
	}
	name := filepath.Base(strings.TrimSpace(upload.FileName))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "student-id.pdf"
	}
	card := models.IDCard{
		FileName:    name,
		FileSize:    int64(len(upload.Data)),
		EncodedData: base64.StdEncoding.EncodeToString(upload.Data),
		UploadedAt:  requestcontext.Now(ctx),
	}
	return s.mutate(ctx, id, func(w *wizard.Wizard) (bool, error) {
		return true, w.AttachIDCard(card)
	})
}

func (s *Service) RemoveIDCard(ctx context.Context, id uuid.UUID) (*models.DraftSession, error) {
	return s.mutate(ctx, id, func(w *wizard.Wizard) (bool, error) {
		w.RemoveIDCard()
		return true, nil
	})
}

func (s *Service) RetreatDraft(ctx context.Context, id uuid.UUID) (*models.DraftSession, error) {
	return s.mutate(ctx, id, func(w *wizard.Wizard) (bool, error) {
		w.Retreat()
		return true, nil
	})
}

func (s *Service) ResetDraft(ctx context.Context, id uuid.UUID) (*models.DraftSession, error) {
	return s.mutate(ctx, id, func(w *wizard.Wizard) (bool, error) {
		w.Reset()
		return true, nil
	})
}

// AdvanceDraft moves the wizard forward. Leaving the team step records an
// outstanding check on the stored draft, runs the uniqueness lookup without
// holding anything, then applies the result to a fresh copy of the draft.
// Edits saved in the meantime make the result stale.
func (s *Service) AdvanceDraft(ctx context.Context, id uuid.UUID) (*models.DraftSession, error) {
	session, err := s.loadDraft(ctx, id)
	if err != nil {
		return nil, err
	}
	w := wizard.Restore(session.State, s)
	ticket, emails, err := w.BeginAdvance(requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	session, err = s.saveDraft(ctx, session, w)
	if err != nil || ticket == nil {
		return session, err
	}

	result, checkErr := s.CheckEmailUniqueness(ctx, emails)

	for attempt := 1; ; attempt++ {
		current, err := s.loadDraft(ctx, id)
		if err != nil {
			return nil, err
		}
		w := wizard.Restore(current.State, s)
		advanceErr := w.CompleteAdvance(*ticket, result, checkErr)
		saved, err := s.saveDraft(ctx, current, w)
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeConflict) && attempt < maxCompleteAttempts {
				continue
			}
			return nil, err
		}
		if advanceErr != nil {
			return nil, advanceErr
		}
		return saved, nil
	}
}

// SubmitDraft submits a draft that reached the confirm step and discards the
// draft once the registration is stored. The draft is claimed first, so a
// repeated submit gets a conflict rather than a second registration. Member
// emails are checked against stored registrations again before the write.
func (s *Service) SubmitDraft(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	ctx, cancel := s.commitContext(ctx)
	defer cancel()

	session, err := s.claimDraft(ctx, id)
	if err != nil {
		return nil, err
	}
	draft := session.State.Draft

	reg, err := s.submitClaimed(ctx, &draft)
	if err != nil {
		s.releaseDraft(ctx, id, dErrors.HasCode(err, dErrors.CodeUniquenessConflict))
		return nil, err
	}
	if err := s.drafts.Delete(ctx, id); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to discard submitted draft",
			"draft_id", id,
			"team_id", reg.TeamID,
			"error", err,
		)
	}
	return reg, nil
}

func (s *Service) submitClaimed(ctx context.Context, draft *models.Draft) (*models.Registration, error) {
	result, err := s.CheckEmailUniqueness(ctx, draft.MemberEmails())
	if err != nil {
		return nil, err
	}
	if !result.IsUnique {
		return nil, wizard.UniquenessConflict(result.DuplicateEmails)
	}
	return s.Submit(ctx, draft)
}

// claimDraft marks the draft as being submitted. The versioned save makes
// exactly one of two racing claims win.
func (s *Service) claimDraft(ctx context.Context, id uuid.UUID) (*models.DraftSession, error) {
	session, err := s.loadDraft(ctx, id)
	if err != nil {
		return nil, err
	}
	w := wizard.Restore(session.State, s)
	if err := w.BeginSubmit(requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	return s.saveDraft(ctx, session, w)
}

// releaseDraft drops the submit claim after a failed submit. toTeam sends
// the wizard back to TeamDetails so taken emails can be changed.
func (s *Service) releaseDraft(ctx context.Context, id uuid.UUID, toTeam bool) {
	var err error
	for attempt := 1; attempt <= maxCompleteAttempts; attempt++ {
		var session *models.DraftSession
		session, err = s.loadDraft(ctx, id)
		if err != nil {
			break
		}
		w := wizard.Restore(session.State, s)
		w.EndSubmit()
		if toTeam {
			w.ReturnToTeam()
		}
		if _, err = s.saveDraft(ctx, session, w); !dErrors.HasCode(err, dErrors.CodeConflict) {
			break
		}
	}
	if err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to release submit claim",
			"draft_id", id,
			"error", err,
		)
	}
}

func (s *Service) mutate(ctx context.Context, id uuid.UUID, fn func(w *wizard.Wizard) (bool, error)) (*models.DraftSession, error) {
	session, err := s.loadDraft(ctx, id)
	if err != nil {
		return nil, err
	}
	w := wizard.Restore(session.State, s)
	if w.SubmitInProgress(requestcontext.Now(ctx)) {
		return nil, dErrors.New(dErrors.CodeConflict, "draft is being submitted")
	}
	changed, err := fn(w)
	if err != nil {
		return nil, err
	}
	if !changed {
		return session, nil
	}
	return s.saveDraft(ctx, session, w)
}

func (s *Service) loadDraft(ctx context.Context, id uuid.UUID) (*models.DraftSession, error) {
	session, err := s.drafts.Get(ctx, id)
	if err != nil {
		return nil, draftError(err)
	}
	return session, nil
}

func (s *Service) saveDraft(ctx context.Context, session *models.DraftSession, w *wizard.Wizard) (*models.DraftSession, error) {
	session.State = w.Snapshot()
	session.UpdatedAt = requestcontext.Now(ctx)
	if err := s.drafts.Save(ctx, session); err != nil {
		return nil, draftError(err)
	}
	return session, nil
}

func validateIDCard(upload IDCardUpload) error {
	mediaType, _, err := mime.ParseMediaType(upload.ContentType)
	if err != nil || mediaType != "application/pdf" {
		return dErrors.New(dErrors.CodeValidation, "student ID card must be a PDF file").
			WithDetail("step", models.StepProjectDetails.String())
	}
	if len(upload.Data) == 0 {
		return dErrors.New(dErrors.CodeValidation, "student ID card file is empty").
			WithDetail("step", models.StepProjectDetails.String())
	}
	if len(upload.Data) > models.MaxIDCardBytes {
		return dErrors.New(dErrors.CodeValidation, "student ID card must be 5 MB or smaller").
			WithDetail("step", models.StepProjectDetails.String())
	}
	if !bytes.HasPrefix(upload.Data, pdfMagic) {
		return dErrors.New(dErrors.CodeValidation, "student ID card is not a valid PDF").
			WithDetail("step", models.StepProjectDetails.String())
	}
	return nil
}

func draftError(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "draft not found or expired")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "draft was changed by another request; reload and try again")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "draft storage is temporarily unavailable")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to access draft")
	}
}
