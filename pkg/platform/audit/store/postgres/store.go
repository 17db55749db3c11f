package postgres

import (
	"context"
	"database/sql"
	"fmt"

	audit "numerano/pkg/platform/audit"
)

// Store persists audit events in the audit_events table.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append inserts an event. Replays of the same event id are ignored.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO audit_events (
			id, category, action, registration_id, team_id, subject,
			decision, reason, request_id, client_ip, user_agent, timestamp
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		string(event.Category),
		event.Action,
		event.RegistrationID,
		event.TeamID,
		event.Subject,
		event.Decision,
		event.Reason,
		event.RequestID,
		event.ClientIP,
		event.UserAgent,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByRegistration returns a registration's events, oldest first.
func (s *Store) ListByRegistration(ctx context.Context, registrationID string) ([]audit.Event, error) {
	query := `
		SELECT id, category, action, registration_id, team_id, subject,
			   decision, reason, request_id, client_ip, user_agent, timestamp
		FROM audit_events
		WHERE registration_id = $1
		ORDER BY timestamp
	`
	rows, err := s.db.QueryContext(ctx, query, registrationID)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			e        audit.Event
			category string
			regID    sql.NullString
			teamID   sql.NullString
			subject  sql.NullString
			decision sql.NullString
			reason   sql.NullString
			reqID    sql.NullString
			ip       sql.NullString
			ua       sql.NullString
		)
		if err := rows.Scan(&e.ID, &category, &e.Action, &regID, &teamID, &subject,
			&decision, &reason, &reqID, &ip, &ua, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Category = audit.EventCategory(category)
		e.RegistrationID = regID.String
		e.TeamID = teamID.String
		e.Subject = subject.String
		e.Decision = decision.String
		e.Reason = reason.String
		e.RequestID = reqID.String
		e.ClientIP = ip.String
		e.UserAgent = ua.String
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
