// Package render turns status notifications into message copy.
package render

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"numerano/internal/notification/models"
)

const notSpecified = "Not specified"

const (
	keySubjectApproved = "subject.approved"
	keySubjectRejected = "subject.rejected"
	keyStatusApproved  = "status.approved"
	keyStatusRejected  = "status.rejected"
	keyActionApproved  = "action.approved"
	keyActionRejected  = "action.rejected"
	keyBody            = "body"
)

var englishMessages = map[string]string{
	keySubjectApproved: "Team Approved - %s",
	keySubjectRejected: "Team Rejected - %s",
	keyStatusApproved:  "Congratulations! Your team has been approved for the %s!",
	keyStatusRejected:  "We regret to inform you that your team application has been rejected.",
	keyActionApproved:  "Please prepare for the upcoming challenge and stay tuned for further instructions.",
	keyActionRejected:  "You may resubmit your application after reviewing the requirements.",
	keyBody: "Dear %s,\n\n%s\n\nTeam Details:\n- Team Name: %s\n- Team Captain: %s\n" +
		"- Team ID: %s\n- Project Title: %s\n- Domain: %s\n\n%s\n\nBest regards,\n%s Team\n",
}

// Renderer builds notification copy from an x/text catalog.
type Renderer struct {
	printer       *message.Printer
	challengeName string
}

// New returns an English renderer naming the given challenge.
func New(challengeName string) *Renderer {
	builder := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, msg := range englishMessages {
		// SetString only fails on malformed tags; language.English is fixed.
		_ = builder.SetString(language.English, key, msg)
	}
	return &Renderer{
		printer:       message.NewPrinter(language.English, message.Catalog(builder)),
		challengeName: challengeName,
	}
}

// Render produces the subject, template params and plain text body.
func (r *Renderer) Render(n models.StatusNotification) models.Message {
	approved := n.Status == models.StatusApproved
	subjectKey, statusKey, actionKey := keySubjectRejected, keyStatusRejected, keyActionRejected
	if approved {
		subjectKey, statusKey, actionKey = keySubjectApproved, keyStatusApproved, keyActionApproved
	}

	projectTitle := orNotSpecified(n.ProjectTitle)
	domain := orNotSpecified(n.Domain)
	subject := r.printer.Sprintf(subjectKey, n.TeamName)
	statusMessage := r.printer.Sprintf(statusKey)
	if approved {
		statusMessage = r.printer.Sprintf(statusKey, r.challengeName)
	}
	actionNeeded := r.printer.Sprintf(actionKey)

	return models.Message{
		To:      n.RecipientEmail,
		Subject: subject,
		Params: map[string]string{
			"to_email":       n.RecipientEmail,
			"team_name":      n.TeamName,
			"team_captain":   n.RecipientName,
			"team_id":        n.TeamID,
			"status":         string(n.Status),
			"project_title":  projectTitle,
			"domain":         domain,
			"status_message": statusMessage,
			"action_needed":  actionNeeded,
			"subject":        subject,
		},
		Body: r.printer.Sprintf(keyBody,
			n.RecipientName, statusMessage, n.TeamName, n.RecipientName,
			n.TeamID, projectTitle, domain, actionNeeded, r.challengeName),
	}
}

func orNotSpecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return notSpecified
	}
	return s
}
