package models

import "time"

// Status is the review decision being announced.
type Status string

const (
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// StatusNotification is everything a provider needs to tell a team about a
// review decision.
type StatusNotification struct {
	RegistrationID string `json:"registration_id"`
	RecipientEmail string `json:"recipient_email"`
	RecipientName  string `json:"recipient_name"`
	TeamName       string `json:"team_name"`
	TeamID         string `json:"team_id"`
	Status         Status `json:"status"`
	PreviousStatus string `json:"previous_status"`
	ProjectTitle   string `json:"project_title"`
	Domain         string `json:"domain"`
}

// Outcome is the ephemeral delivery state of the latest notification for a
// registration.
type Outcome string

const (
	OutcomeSending Outcome = "sending"
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
)

// OutcomeRecord is an Outcome with the time it was recorded and, for
// failures, the reason.
type OutcomeRecord struct {
	Outcome   Outcome   `json:"outcome"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is a rendered notification.
type Message struct {
	To      string
	Subject string
	// Params are the template variables sent to template-based providers.
	Params map[string]string
	// Body is a plain text rendering of the same content.
	Body string
}
