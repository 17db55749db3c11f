package models

// DraftPatch carries the draft fields a client may edit directly. Nil fields
// are left untouched. Verification and the ID card have their own operations.
type DraftPatch struct {
	TeamName     *string `json:"team_name,omitempty"`
	TeamSize     *int    `json:"team_size,omitempty"`
	ProjectTitle *string `json:"project_title,omitempty"`
	Domain       *Domain `json:"domain,omitempty"`
	ProjectIdea  *string `json:"project_idea,omitempty"`
	AgreeToRules *bool   `json:"agree_to_rules,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p DraftPatch) IsEmpty() bool {
	return p.TeamName == nil && p.TeamSize == nil && p.ProjectTitle == nil &&
		p.Domain == nil && p.ProjectIdea == nil && p.AgreeToRules == nil
}

// MemberPatch carries member fields to overwrite.
type MemberPatch struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Role  *string `json:"role,omitempty"`
}

// Apply returns m with the patch's non-nil fields applied.
func (p MemberPatch) Apply(m TeamMember) TeamMember {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Email != nil {
		m.Email = *p.Email
	}
	if p.Role != nil {
		m.Role = *p.Role
	}
	return m
}
