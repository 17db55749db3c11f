// Package wizard holds the four-step registration state machine.
//
// Steps run Verification -> TeamDetails -> ProjectDetails -> Confirm. Moving
// forward requires the current step to be valid; leaving TeamDetails also
// requires that no member email belongs to an earlier registration. That
// check runs without holding the wizard lock, so the draft stays readable
// and editable while it is outstanding. An edit made in the meantime makes
// the result stale and it is discarded. Team edits made after TeamDetails
// send the wizard back there so the check runs again.
package wizard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"numerano/internal/registration/models"
	dErrors "numerano/pkg/domain-errors"
	"numerano/pkg/requestcontext"
)

// abandonedAdvanceAfter lets a new advance replace one whose caller never
// reported back.
const abandonedAdvanceAfter = time.Minute

// abandonedSubmitAfter lets a new submit replace a claim whose caller never
// released it.
const abandonedSubmitAfter = 2 * time.Minute

// UniquenessChecker reports which emails already belong to a registration.
type UniquenessChecker interface {
	CheckEmailUniqueness(ctx context.Context, emails []string) (*models.UniquenessResult, error)
}

// Wizard is safe for concurrent use.
type Wizard struct {
	mu       sync.Mutex
	step     models.Step
	draft    *models.Draft
	revision uint64
	pending  *models.AdvanceTicket
	checker  UniquenessChecker

	// submitting is when a submit claimed the draft.
	submitting *time.Time
}

// New returns a wizard at the verification step with an empty draft.
func New(checker UniquenessChecker) *Wizard {
	return &Wizard{
		step:    models.StepVerification,
		draft:   models.NewDraft(),
		checker: checker,
	}
}

// Restore rebuilds a wizard from a snapshot.
func Restore(state models.WizardState, checker UniquenessChecker) *Wizard {
	w := &Wizard{
		step:     state.Step,
		draft:    state.Draft.Clone(),
		revision: state.Revision,
		checker:  checker,
	}
	if state.PendingAdvance != nil {
		ticket := *state.PendingAdvance
		w.pending = &ticket
	}
	if state.SubmittingSince != nil {
		since := *state.SubmittingSince
		w.submitting = &since
	}
	if !w.step.IsValid() {
		w.step = models.StepVerification
	}
	w.normalizeTeam()
	return w
}

// Snapshot returns the persisted form of the wizard.
func (w *Wizard) Snapshot() models.WizardState {
	w.mu.Lock()
	defer w.mu.Unlock()
	state := models.WizardState{
		Step:     w.step,
		Draft:    *w.draft.Clone(),
		Revision: w.revision,
	}
	if w.pending != nil {
		ticket := *w.pending
		state.PendingAdvance = &ticket
	}
	if w.submitting != nil {
		since := *w.submitting
		state.SubmittingSince = &since
	}
	return state
}

func (w *Wizard) Step() models.Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Draft returns a copy of the draft.
func (w *Wizard) Draft() *models.Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft.Clone()
}

// AdvanceInFlight reports whether a uniqueness check is outstanding.
func (w *Wizard) AdvanceInFlight() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending != nil
}

// CurrentStepValid reports whether Advance would pass local validation.
func (w *Wizard) CurrentStepValid() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return models.IsStepValid(w.step, w.draft)
}

// UpdateField applies a partial edit to the draft.
func (w *Wizard) UpdateField(patch models.DraftPatch) error {
	if patch.Domain != nil && *patch.Domain != "" && !patch.Domain.IsValid() {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown domain %q", *patch.Domain))
	}
	if patch.TeamSize != nil && (*patch.TeamSize < models.MinTeamSize || *patch.TeamSize > models.MaxTeamSize) {
		return dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("team size must be between %d and %d", models.MinTeamSize, models.MaxTeamSize))
	}
	if patch.IsEmpty() {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	d := w.draft
	if patch.TeamName != nil {
		d.TeamName = *patch.TeamName
	}
	if patch.ProjectTitle != nil {
		d.ProjectTitle = *patch.ProjectTitle
	}
	if patch.Domain != nil {
		d.Domain = *patch.Domain
	}
	if patch.ProjectIdea != nil {
		d.ProjectIdea = *patch.ProjectIdea
	}
	if patch.AgreeToRules != nil {
		d.AgreeToRules = *patch.AgreeToRules
	}
	if patch.TeamSize != nil && *patch.TeamSize != len(d.Members) {
		w.resize(*patch.TeamSize)
		w.rewindToTeam()
	}
	w.touch()
	return nil
}

// UpdateMember applies a partial edit to the member at index.
func (w *Wizard) UpdateMember(index int, patch models.MemberPatch) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if index < 0 || index >= len(w.draft.Members) {
		return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("member %d does not exist", index)).
			WithDetail("member_index", index)
	}
	w.draft.Members[index] = patch.Apply(w.draft.Members[index])
	w.rewindToTeam()
	w.touch()
	return nil
}

// AddMember appends an empty member. It does nothing once the team is full
// and reports whether a member was added.
func (w *Wizard) AddMember() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.draft.Members) >= models.MaxTeamSize {
		return false
	}
	w.resize(len(w.draft.Members) + 1)
	w.rewindToTeam()
	w.touch()
	return true
}

// RemoveMember drops the member at index. The lead (index 0) and unknown
// indexes are left alone. It reports whether a member was removed.
func (w *Wizard) RemoveMember(index int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if index <= 0 || index >= len(w.draft.Members) {
		return false
	}
	w.draft.Members = append(w.draft.Members[:index], w.draft.Members[index+1:]...)
	w.draft.TeamSize = len(w.draft.Members)
	w.rewindToTeam()
	w.touch()
	return true
}

// SetVerified records the outcome of the human verification step.
func (w *Wizard) SetVerified(verified bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.IsVerified = verified
	w.touch()
}

// AttachIDCard stores the uploaded student ID document.
func (w *Wizard) AttachIDCard(card models.IDCard) error {
	if !card.IsComplete() {
		return dErrors.New(dErrors.CodeValidation, "student ID card is incomplete")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.StudentIDCard = &card
	w.touch()
	return nil
}

// RemoveIDCard clears the uploaded document.
func (w *Wizard) RemoveIDCard() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.StudentIDCard = nil
	w.touch()
}

// Retreat moves back one step. It does nothing at the first step.
func (w *Wizard) Retreat() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step == models.StepVerification {
		return
	}
	w.step--
	w.touch()
}

// Reset discards the draft and returns to the first step.
func (w *Wizard) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.step = models.StepVerification
	w.draft = models.NewDraft()
	w.pending = nil
	w.submitting = nil
	w.touch()
}

// Advance moves to the next step when the current one is valid. Leaving
// TeamDetails waits for the uniqueness check.
func (w *Wizard) Advance(ctx context.Context) error {
	ticket, emails, err := w.BeginAdvance(requestcontext.Now(ctx))
	if err != nil || ticket == nil {
		return err
	}
	if w.checker == nil {
		w.AbortAdvance(*ticket)
		return dErrors.New(dErrors.CodeStoreUnavailable, "email uniqueness check is not available")
	}
	result, checkErr := w.checker.CheckEmailUniqueness(ctx, emails)
	return w.CompleteAdvance(*ticket, result, checkErr)
}

// BeginAdvance validates the current step. Steps other than TeamDetails
// advance immediately and return a nil ticket. For TeamDetails it records an
// outstanding check and returns the ticket with the emails to check; the
// caller must finish with CompleteAdvance or AbortAdvance.
func (w *Wizard) BeginAdvance(now time.Time) (*models.AdvanceTicket, []string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending != nil && now.Sub(w.pending.StartedAt) < abandonedAdvanceAfter {
		return nil, nil, dErrors.New(dErrors.CodeConflict, "advance already in progress")
	}
	w.pending = nil

	if w.step == models.StepConfirm {
		return nil, nil, dErrors.New(dErrors.CodeValidation, "already at the final step").
			WithDetail("step", w.step.String())
	}
	if err := models.ValidateStep(w.step, w.draft); err != nil {
		return nil, nil, err
	}

	if w.step != models.StepTeamDetails {
		w.step++
		w.touch()
		return nil, nil, nil
	}

	ticket := models.AdvanceTicket{Revision: w.revision, Step: w.step, StartedAt: now}
	w.pending = &ticket
	return &ticket, w.draft.MemberEmails(), nil
}

// CompleteAdvance applies the uniqueness result for ticket. The transition is
// refused when the check failed, found conflicts, or the wizard changed since
// the ticket was issued.
func (w *Wizard) CompleteAdvance(ticket models.AdvanceTicket, result *models.UniquenessResult, checkErr error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending == nil || !w.pending.Matches(ticket) {
		return dErrors.New(dErrors.CodeConflict, "advance was superseded")
	}
	w.pending = nil

	if w.revision != ticket.Revision || w.step != ticket.Step {
		return dErrors.New(dErrors.CodeConflict, "draft changed during the uniqueness check; try again")
	}
	if checkErr != nil {
		if _, ok := dErrors.As(checkErr); ok {
			return checkErr
		}
		return dErrors.Wrap(checkErr, dErrors.CodeStoreUnavailable, "could not verify email uniqueness")
	}
	if result == nil {
		return dErrors.New(dErrors.CodeStoreUnavailable, "could not verify email uniqueness")
	}
	if !result.IsUnique {
		return UniquenessConflict(result.DuplicateEmails)
	}

	w.step++
	w.touch()
	return nil
}

// AbortAdvance clears an outstanding check without moving.
func (w *Wizard) AbortAdvance(ticket models.AdvanceTicket) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending != nil && w.pending.Matches(ticket) {
		w.pending = nil
	}
}

// BeginSubmit claims the draft for submission. It fails unless the wizard is
// at Confirm with no other live claim. The caller must finish with EndSubmit
// unless the draft is discarded.
func (w *Wizard) BeginSubmit(now time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.submitLive(now) {
		return dErrors.New(dErrors.CodeConflict, "submission already in progress")
	}
	if w.step != models.StepConfirm {
		return dErrors.New(dErrors.CodeIncompleteSubmission, "finish every step before submitting").
			WithDetail("step", w.step.String())
	}
	w.submitting = &now
	return nil
}

// EndSubmit releases the submit claim.
func (w *Wizard) EndSubmit() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.submitting = nil
}

// SubmitInProgress reports whether a live submit claim holds the draft.
func (w *Wizard) SubmitInProgress(now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submitLive(now)
}

// ReturnToTeam moves the wizard back to TeamDetails when it is past it.
func (w *Wizard) ReturnToTeam() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step > models.StepTeamDetails {
		w.step = models.StepTeamDetails
		w.touch()
	}
}

func (w *Wizard) submitLive(now time.Time) bool {
	return w.submitting != nil && now.Sub(*w.submitting) < abandonedSubmitAfter
}

// UniquenessConflict builds the error returned when emails are taken.
func UniquenessConflict(duplicates []string) error {
	return dErrors.New(dErrors.CodeUniquenessConflict,
		"already registered: "+strings.Join(duplicates, ", ")).
		WithDetail("duplicate_emails", duplicates)
}

// resize grows or shrinks the member list to n, keeping the lead.
func (w *Wizard) resize(n int) {
	d := w.draft
	for len(d.Members) < n {
		d.Members = append(d.Members, models.TeamMember{Role: models.DefaultMemberRole})
	}
	if len(d.Members) > n {
		d.Members = d.Members[:n]
	}
	d.TeamSize = len(d.Members)
}

// normalizeTeam restores the team size invariant on restored drafts.
func (w *Wizard) normalizeTeam() {
	d := w.draft
	if len(d.Members) == 0 {
		d.Members = []models.TeamMember{{Role: models.DefaultLeadRole}}
	}
	if len(d.Members) > models.MaxTeamSize {
		d.Members = d.Members[:models.MaxTeamSize]
	}
	d.TeamSize = len(d.Members)
}

// rewindToTeam returns to TeamDetails after a team edit made at a later
// step. Callers hold mu.
func (w *Wizard) rewindToTeam() {
	if w.step > models.StepTeamDetails {
		w.step = models.StepTeamDetails
	}
}

func (w *Wizard) touch() {
	w.revision++
}
