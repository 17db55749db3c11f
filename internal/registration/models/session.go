package models

import (
	"time"

	"github.com/google/uuid"
)

// AdvanceTicket marks a TeamDetails -> ProjectDetails transition whose
// uniqueness check is still outstanding. The result only applies if the
// wizard is still at Step and Revision when it arrives.
type AdvanceTicket struct {
	Revision  uint64    `json:"revision"`
	Step      Step      `json:"step"`
	StartedAt time.Time `json:"started_at"`
}

// WizardState is the persisted form of a wizard.
type WizardState struct {
	Step           Step           `json:"step"`
	Draft          Draft          `json:"draft"`
	Revision       uint64         `json:"revision"`
	PendingAdvance *AdvanceTicket `json:"pending_advance,omitempty"`

	// SubmittingSince is set while a submit holds the draft.
	SubmittingSince *time.Time `json:"submitting_since,omitempty"`
}

// DraftSession is a wizard kept server-side between requests. Version is
// bumped by the draft store on every save.
type DraftSession struct {
	ID        uuid.UUID   `json:"id"`
	Version   int64       `json:"version"`
	State     WizardState `json:"state"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Clone returns a deep copy of the session.
func (s *DraftSession) Clone() *DraftSession {
	if s == nil {
		return nil
	}
	cp := *s
	cp.State.Draft = *s.State.Draft.Clone()
	if s.State.PendingAdvance != nil {
		ticket := *s.State.PendingAdvance
		cp.State.PendingAdvance = &ticket
	}
	if s.State.SubmittingSince != nil {
		since := *s.State.SubmittingSince
		cp.State.SubmittingSince = &since
	}
	return &cp
}

// Matches reports whether two tickets name the same outstanding check.
func (t AdvanceTicket) Matches(other AdvanceTicket) bool {
	return t.Revision == other.Revision && t.Step == other.Step && t.StartedAt.Equal(other.StartedAt)
}
