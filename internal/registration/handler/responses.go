package handler

import (
	"time"

	"numerano/internal/registration/models"
)

type idCardView struct {
	FileName   string    `json:"file_name"`
	FileSize   int64     `json:"file_size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type draftView struct {
	TeamName      string              `json:"team_name"`
	TeamSize      int                 `json:"team_size"`
	Members       []models.TeamMember `json:"members"`
	ProjectTitle  string              `json:"project_title"`
	Domain        models.Domain       `json:"domain"`
	ProjectIdea   string              `json:"project_idea"`
	AgreeToRules  bool                `json:"agree_to_rules"`
	IsVerified    bool                `json:"is_verified"`
	StudentIDCard *idCardView         `json:"student_id_card,omitempty"`
}

// DraftResponse is the wizard state returned by every draft endpoint. The
// uploaded document is summarized, never echoed back.
type DraftResponse struct {
	ID              string    `json:"id"`
	Version         int64     `json:"version"`
	Step            string    `json:"step"`
	StepIndex       int       `json:"step_index"`
	StepValid       bool      `json:"step_valid"`
	AdvanceInFlight bool      `json:"advance_in_flight"`
	Draft           draftView `json:"draft"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toDraftResponse(session *models.DraftSession) DraftResponse {
	d := session.State.Draft
	view := draftView{
		TeamName:     d.TeamName,
		TeamSize:     d.TeamSize,
		Members:      d.Members,
		ProjectTitle: d.ProjectTitle,
		Domain:       d.Domain,
		ProjectIdea:  d.ProjectIdea,
		AgreeToRules: d.AgreeToRules,
		IsVerified:   d.IsVerified,
	}
	if d.StudentIDCard != nil {
		view.StudentIDCard = &idCardView{
			FileName:   d.StudentIDCard.FileName,
			FileSize:   d.StudentIDCard.FileSize,
			UploadedAt: d.StudentIDCard.UploadedAt,
		}
	}
	return DraftResponse{
		ID:              session.ID.String(),
		Version:         session.Version,
		Step:            session.State.Step.String(),
		StepIndex:       int(session.State.Step),
		StepValid:       models.IsStepValid(session.State.Step, &d),
		AdvanceInFlight: session.State.PendingAdvance != nil,
		Draft:           view,
		UpdatedAt:       session.UpdatedAt,
	}
}

// SubmitResponse confirms a stored registration.
type SubmitResponse struct {
	RegistrationID string        `json:"registration_id"`
	TeamID         string        `json:"team_id"`
	TeamName       string        `json:"team_name"`
	Status         models.Status `json:"status"`
	SubmissionTime time.Time     `json:"submission_time"`
}

// StatusResponse is the public view of a registration.
type StatusResponse struct {
	TeamID         string        `json:"team_id"`
	TeamName       string        `json:"team_name"`
	Status         models.Status `json:"status"`
	SubmissionTime time.Time     `json:"submission_time"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

type verifyRequest struct {
	Token string `json:"token"`
}

type emailCheckRequest struct {
	Emails []string `json:"emails"`
}
