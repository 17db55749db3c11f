package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MinTeamSize = 1
	MaxTeamSize = 4

	// MaxIDCardBytes caps the decoded student ID document.
	MaxIDCardBytes = 5 << 20

	DefaultLeadRole   = "Team Lead"
	DefaultMemberRole = "Member"
)

// Status is the review lifecycle of a stored registration.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further review transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// CanTransitionTo allows pending -> approved|rejected only.
func (s Status) CanTransitionTo(to Status) bool {
	return s == StatusPending && to.IsTerminal()
}

// Domain is the project category chosen in the project step.
type Domain string

const (
	DomainWebDevelopment    Domain = "Web Development"
	DomainMobileDevelopment Domain = "Mobile Development"
	DomainAIML              Domain = "AI/ML"
	DomainBlockchain        Domain = "Blockchain"
	DomainIoT               Domain = "IoT"
	DomainCybersecurity     Domain = "Cybersecurity"
	DomainCloudComputing    Domain = "Cloud Computing"
	DomainOpenInnovation    Domain = "Open Innovation"
)

// Domains lists the selectable categories in display order.
var Domains = []Domain{
	DomainWebDevelopment,
	DomainMobileDevelopment,
	DomainAIML,
	DomainBlockchain,
	DomainIoT,
	DomainCybersecurity,
	DomainCloudComputing,
	DomainOpenInnovation,
}

func (d Domain) IsValid() bool {
	for _, known := range Domains {
		if d == known {
			return true
		}
	}
	return false
}

// TeamMember is one participant. Email is optional for non-lead members.
type TeamMember struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// IsLead reports whether the role names the team lead or captain.
func (m TeamMember) IsLead() bool {
	role := strings.ToLower(m.Role)
	return strings.Contains(role, "lead") || strings.Contains(role, "captain")
}

// IDCard is an uploaded student ID document. It is either absent from a draft
// or complete.
type IDCard struct {
	FileName    string    `json:"file_name"`
	FileSize    int64     `json:"file_size"`
	EncodedData string    `json:"encoded_data"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// IsComplete reports whether every field of the document is populated.
func (c *IDCard) IsComplete() bool {
	return c != nil && c.FileName != "" && c.FileSize > 0 && c.EncodedData != "" && !c.UploadedAt.IsZero()
}

// Draft is an in-progress registration.
//
// Invariants:
//   - TeamSize == len(Members)
//   - MinTeamSize <= TeamSize <= MaxTeamSize
//   - Members[0] is the team lead and is never removed
type Draft struct {
	TeamName      string       `json:"team_name"`
	TeamSize      int          `json:"team_size"`
	Members       []TeamMember `json:"members"`
	ProjectTitle  string       `json:"project_title"`
	Domain        Domain       `json:"domain"`
	ProjectIdea   string       `json:"project_idea"`
	AgreeToRules  bool         `json:"agree_to_rules"`
	IsVerified    bool         `json:"is_verified"`
	StudentIDCard *IDCard      `json:"student_id_card,omitempty"`
}

// NewDraft returns an empty draft holding only the lead member slot.
func NewDraft() *Draft {
	return &Draft{
		TeamSize: MinTeamSize,
		Members:  []TeamMember{{Role: DefaultLeadRole}},
	}
}

// Clone returns a deep copy of the draft.
func (d *Draft) Clone() *Draft {
	if d == nil {
		return nil
	}
	cp := *d
	cp.Members = append([]TeamMember(nil), d.Members...)
	if d.StudentIDCard != nil {
		card := *d.StudentIDCard
		cp.StudentIDCard = &card
	}
	return &cp
}

// MemberEmails returns every non-empty member email as entered.
func (d *Draft) MemberEmails() []string {
	emails := make([]string, 0, len(d.Members))
	for _, m := range d.Members {
		if strings.TrimSpace(m.Email) != "" {
			emails = append(emails, m.Email)
		}
	}
	return emails
}

// Registration is a submitted draft as persisted by the registration store.
// Only Status and UpdatedAt change after creation.
type Registration struct {
	ID     uuid.UUID `json:"id"`
	TeamID string    `json:"team_id"`
	Draft
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	SubmissionTime time.Time `json:"submission_time"`
}

// Clone returns a deep copy so stores never share member slices with callers.
func (r *Registration) Clone() *Registration {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Draft = *r.Draft.Clone()
	return &cp
}

// Lead returns the member notifications go to: the first member whose role
// names a lead or captain, else the first member.
func (r *Registration) Lead() (TeamMember, bool) {
	for _, m := range r.Members {
		if m.IsLead() {
			return m, true
		}
	}
	if len(r.Members) == 0 {
		return TeamMember{}, false
	}
	return r.Members[0], true
}

// UniquenessResult reports which candidate emails already belong to a
// stored registration.
type UniquenessResult struct {
	IsUnique        bool     `json:"is_unique"`
	DuplicateEmails []string `json:"duplicate_emails"`
}

// StatusCounts summarises registrations per status.
type StatusCounts struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

// Add counts one registration.
func (c *StatusCounts) Add(s Status) {
	c.Total++
	switch s {
	case StatusPending:
		c.Pending++
	case StatusApproved:
		c.Approved++
	case StatusRejected:
		c.Rejected++
	}
}
