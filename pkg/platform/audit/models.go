package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventCategory classifies audit events so sinks can route them.
type EventCategory string

const (
	// CategoryCompliance covers decisions that change a registration.
	CategoryCompliance EventCategory = "compliance"
	// CategoryOperations covers side effects such as notifications.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID             uuid.UUID     `json:"id"`
	Category       EventCategory `json:"category"`
	Timestamp      time.Time     `json:"timestamp"`
	Action         string        `json:"action"`
	RegistrationID string        `json:"registration_id,omitempty"`
	TeamID         string        `json:"team_id,omitempty"`
	// Subject is who acted: the admin for reviews, the team name for
	// submissions.
	Subject   string `json:"subject,omitempty"`
	Decision  string `json:"decision,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	ClientIP  string `json:"client_ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

type AuditEvent string

const (
	EventRegistrationSubmitted AuditEvent = "registration_submitted"
	EventRegistrationReviewed  AuditEvent = "registration_reviewed"
	EventNotificationSent      AuditEvent = "notification_sent"
	EventNotificationFailed    AuditEvent = "notification_failed"
	EventAdminLoggedIn         AuditEvent = "admin_logged_in"
	EventAdminLoginFailed      AuditEvent = "admin_login_failed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventRegistrationSubmitted: CategoryCompliance,
	EventRegistrationReviewed:  CategoryCompliance,
	EventAdminLoggedIn:         CategoryCompliance,
	EventAdminLoginFailed:      CategoryCompliance,
	EventNotificationSent:      CategoryOperations,
	EventNotificationFailed:    CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByRegistration(ctx context.Context, registrationID string) ([]Event, error)
}

// Prepare fills the id, category and timestamp of an event when unset.
func Prepare(event Event, now time.Time) Event {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = now
	}
	if event.Category == "" {
		event.Category = AuditEvent(event.Action).Category()
	}
	return event
}
