package models

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	dErrors "numerano/pkg/domain-errors"
	"numerano/pkg/email"
)

// Step is a wizard position.
type Step int

const (
	StepVerification Step = iota
	StepTeamDetails
	StepProjectDetails
	StepConfirm
)

// Steps lists the wizard steps in order.
var Steps = []Step{StepVerification, StepTeamDetails, StepProjectDetails, StepConfirm}

func (s Step) String() string {
	switch s {
	case StepVerification:
		return "verification"
	case StepTeamDetails:
		return "team_details"
	case StepProjectDetails:
		return "project_details"
	case StepConfirm:
		return "confirm"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

func (s Step) IsValid() bool {
	return s >= StepVerification && s <= StepConfirm
}

// FindIntraTeamDuplicateEmails returns the index of every member whose
// non-empty email, trimmed and lower-cased, is shared with another member.
func FindIntraTeamDuplicateEmails(members []TeamMember) map[int]struct{} {
	groups := make(map[string][]int, len(members))
	for i, m := range members {
		normalized := email.Normalize(m.Email)
		if normalized == "" {
			continue
		}
		groups[normalized] = append(groups[normalized], i)
	}

	dups := make(map[int]struct{})
	for _, indexes := range groups {
		if len(indexes) < 2 {
			continue
		}
		for _, i := range indexes {
			dups[i] = struct{}{}
		}
	}
	return dups
}

// IsStepValid reports whether the draft satisfies the rules of step.
func IsStepValid(step Step, d *Draft) bool {
	return ValidateStep(step, d) == nil
}

// ValidateStep returns a validation error describing the first rule of step
// the draft breaks, or nil.
func ValidateStep(step Step, d *Draft) error {
	if d == nil {
		return stepError(step, "draft is required")
	}
	switch step {
	case StepVerification:
		if !d.IsVerified {
			return stepError(step, "human verification is required")
		}
	case StepTeamDetails:
		return validateTeam(d)
	case StepProjectDetails:
		switch {
		case strings.TrimSpace(d.ProjectTitle) == "":
			return stepError(step, "project title is required")
		case strings.TrimSpace(d.ProjectIdea) == "":
			return stepError(step, "project idea is required")
		case d.Domain == "":
			return stepError(step, "domain is required")
		case !d.Domain.IsValid():
			return stepError(step, fmt.Sprintf("unknown domain %q", d.Domain))
		case !d.StudentIDCard.IsComplete():
			return stepError(step, "student ID card is required")
		}
	case StepConfirm:
		if !d.AgreeToRules {
			return stepError(step, "you must agree to the rules")
		}
	default:
		return stepError(step, "unknown step")
	}
	return nil
}

func validateTeam(d *Draft) error {
	step := StepTeamDetails
	if strings.TrimSpace(d.TeamName) == "" {
		return stepError(step, "team name is required")
	}
	if len(d.Members) == 0 {
		return stepError(step, "team lead is required")
	}
	lead := d.Members[0]
	if strings.TrimSpace(lead.Name) == "" {
		return stepError(step, "team lead name is required")
	}
	if strings.TrimSpace(lead.Email) == "" {
		return stepError(step, "team lead email is required")
	}
	for i, m := range d.Members {
		addr := strings.TrimSpace(m.Email)
		if addr != "" && !email.IsValidFormat(addr) {
			return stepError(step, fmt.Sprintf("member %d has an invalid email", i+1)).
				WithDetail("member_index", i)
		}
	}
	if dups := FindIntraTeamDuplicateEmails(d.Members); len(dups) > 0 {
		return stepError(step, "each team member must use a different email").
			WithDetail("member_indexes", sortedIndexes(dups))
	}
	return nil
}

// FirstTeamFailureIsDuplicateEmail reports whether the shared email rule is the
// first TeamDetails rule the draft breaks.
func FirstTeamFailureIsDuplicateEmail(d *Draft) bool {
	de, ok := dErrors.As(ValidateStep(StepTeamDetails, d))
	if !ok {
		return false
	}
	_, dup := de.Details["member_indexes"]
	return dup
}

// FirstInvalidStep returns the earliest step the draft fails, if any.
func FirstInvalidStep(d *Draft) (Step, bool) {
	for _, step := range Steps {
		if !IsStepValid(step, d) {
			return step, true
		}
	}
	return 0, false
}

func stepError(step Step, msg string) *dErrors.Error {
	return dErrors.New(dErrors.CodeValidation, msg).WithDetail("step", step.String())
}

func sortedIndexes(set map[int]struct{}) []int {
	return slices.Sorted(maps.Keys(set))
}
