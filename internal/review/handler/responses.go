package handler

import (
	"time"

	notificationModels "numerano/internal/notification/models"
	"numerano/internal/registration/models"
)

type idCardSummary struct {
	FileName   string    `json:"file_name"`
	FileSize   int64     `json:"file_size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// RegistrationResponse is the admin view of a registration. The ID card is
// summarized here and served by the download route.
type RegistrationResponse struct {
	ID             string              `json:"id"`
	TeamID         string              `json:"team_id"`
	TeamName       string              `json:"team_name"`
	TeamSize       int                 `json:"team_size"`
	Members        []models.TeamMember `json:"members"`
	ProjectTitle   string              `json:"project_title"`
	Domain         models.Domain       `json:"domain"`
	ProjectIdea    string              `json:"project_idea"`
	StudentIDCard  *idCardSummary      `json:"student_id_card,omitempty"`
	Status         models.Status       `json:"status"`
	SubmissionTime time.Time           `json:"submission_time"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

func toRegistrationResponse(reg *models.Registration) RegistrationResponse {
	resp := RegistrationResponse{
		ID:             reg.ID.String(),
		TeamID:         reg.TeamID,
		TeamName:       reg.TeamName,
		TeamSize:       reg.TeamSize,
		Members:        reg.Members,
		ProjectTitle:   reg.ProjectTitle,
		Domain:         reg.Domain,
		ProjectIdea:    reg.ProjectIdea,
		Status:         reg.Status,
		SubmissionTime: reg.SubmissionTime,
		CreatedAt:      reg.CreatedAt,
		UpdatedAt:      reg.UpdatedAt,
	}
	if reg.StudentIDCard != nil {
		resp.StudentIDCard = &idCardSummary{
			FileName:   reg.StudentIDCard.FileName,
			FileSize:   reg.StudentIDCard.FileSize,
			UploadedAt: reg.StudentIDCard.UploadedAt,
		}
	}
	return resp
}

// ListResponse is a filtered page of the control room.
type ListResponse struct {
	Registrations []RegistrationResponse `json:"registrations"`
	Counts        models.StatusCounts    `json:"counts"`
}

// ReviewResponse is the reviewed record and the notification state at
// hand-off.
type ReviewResponse struct {
	Registration RegistrationResponse             `json:"registration"`
	Notification notificationModels.OutcomeRecord `json:"notification"`
}

type reviewRequest struct {
	Decision string `json:"decision"`
}
