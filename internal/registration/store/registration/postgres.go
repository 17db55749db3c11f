package registration

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"numerano/internal/registration/models"
	"numerano/pkg/email"
	"numerano/pkg/platform/sentinel"
)

const registrationColumns = `
	id, team_id, team_name, team_size, members, project_title, domain, project_idea,
	agree_to_rules, is_verified, id_card_file_name, id_card_file_size, id_card_data,
	id_card_uploaded, status, created_at, updated_at, submission_time`

// PostgresStore persists registrations in PostgreSQL. Member emails are
// mirrored, normalized, into registration_member_emails for indexed
// uniqueness lookups.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, reg *models.Registration) error {
	members, err := json.Marshal(reg.Members)
	if err != nil {
		return fmt.Errorf("marshal members: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify("begin create registration", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var (
		cardName     sql.NullString
		cardSize     sql.NullInt64
		cardData     sql.NullString
		cardUploaded sql.NullTime
	)
	if card := reg.StudentIDCard; card != nil {
		cardName = sql.NullString{String: card.FileName, Valid: true}
		cardSize = sql.NullInt64{Int64: card.FileSize, Valid: true}
		cardData = sql.NullString{String: card.EncodedData, Valid: true}
		cardUploaded = sql.NullTime{Time: card.UploadedAt, Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO registrations (`+registrationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`, reg.ID, reg.TeamID, reg.TeamName, reg.TeamSize, string(members), reg.ProjectTitle, string(reg.Domain),
		reg.ProjectIdea, reg.AgreeToRules, reg.IsVerified, cardName, cardSize, cardData, cardUploaded,
		string(reg.Status), reg.CreatedAt, reg.UpdatedAt, reg.SubmissionTime)
	if err != nil {
		return classify("insert registration", err)
	}

	if emails := email.NormalizeAll(reg.MemberEmails()); len(emails) > 0 {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO registration_member_emails (registration_id, email)
			SELECT $1, unnest($2::text[])
			ON CONFLICT DO NOTHING
		`, reg.ID, pq.Array(emails))
		if err != nil {
			return classify("index member emails", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return classify("commit registration", err)
	}
	return nil
}

// List returns every registration, newest first.
func (s *PostgresStore) List(ctx context.Context) ([]*models.Registration, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+registrationColumns+` FROM registrations ORDER BY created_at DESC, team_id`)
	if err != nil {
		return nil, classify("list registrations", err)
	}
	defer rows.Close()

	var out []*models.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list registrations", err)
	}
	return out, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, id)
	return scanOne(row, "find registration")
}

func (s *PostgresStore) FindByTeamID(ctx context.Context, teamID string) (*models.Registration, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE team_id = $1`, teamID)
	return scanOne(row, "find registration by team id")
}

// UpdateStatus applies the transition only while the stored status is still
// from, so concurrent reviews cannot both succeed.
func (s *PostgresStore) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.Status, at time.Time) (*models.Registration, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE registrations SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2
		RETURNING `+registrationColumns,
		id, string(from), string(to), at)
	reg, err := scanOne(row, "update registration status")
	if err == nil {
		return reg, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, err
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM registrations WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, classify("check registration exists", err)
	}
	if exists {
		return nil, sentinel.ErrInvalidState
	}
	return nil, sentinel.ErrNotFound
}

// ExistingMemberEmails returns the normalized candidates already indexed, in
// candidate order.
func (s *PostgresStore) ExistingMemberEmails(ctx context.Context, candidates []string) ([]string, error) {
	normalized := email.NormalizeAll(candidates)
	if len(normalized) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT email FROM registration_member_emails WHERE email = ANY($1)
	`, pq.Array(normalized))
	if err != nil {
		return nil, classify("lookup member emails", err)
	}
	defer rows.Close()

	existing := make(map[string]struct{})
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, classify("scan member email", err)
		}
		existing[addr] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, classify("lookup member emails", err)
	}

	var found []string
	for _, addr := range normalized {
		if _, ok := existing[addr]; ok {
			found = append(found, addr)
		}
	}
	return found, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOne(row *sql.Row, op string) (*models.Registration, error) {
	reg, err := scanRegistration(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, classify(op, err)
	}
	return reg, nil
}

func scanRegistration(row rowScanner) (*models.Registration, error) {
	var (
		reg          models.Registration
		members      []byte
		domain       string
		status       string
		cardName     sql.NullString
		cardSize     sql.NullInt64
		cardData     sql.NullString
		cardUploaded sql.NullTime
	)
	err := row.Scan(&reg.ID, &reg.TeamID, &reg.TeamName, &reg.TeamSize, &members, &reg.ProjectTitle,
		&domain, &reg.ProjectIdea, &reg.AgreeToRules, &reg.IsVerified, &cardName, &cardSize, &cardData,
		&cardUploaded, &status, &reg.CreatedAt, &reg.UpdatedAt, &reg.SubmissionTime)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(members, &reg.Members); err != nil {
		return nil, fmt.Errorf("unmarshal members: %w", err)
	}
	reg.Domain = models.Domain(domain)
	reg.Status = models.Status(status)
	if cardName.Valid {
		reg.StudentIDCard = &models.IDCard{
			FileName:    cardName.String,
			FileSize:    cardSize.Int64,
			EncodedData: cardData.String,
			UploadedAt:  cardUploaded.Time,
		}
	}
	return &reg, nil
}

// classify maps driver failures onto the sentinel errors services translate
// for users.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if cause := Classify(err); cause != nil {
		return fmt.Errorf("%s: %w: %w", op, cause, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Classify returns the sentinel matching a driver error, or nil when the
// cause is unknown.
func Classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505":
			return sentinel.ErrConflict
		case pgErr.Code == "42501" || pgErr.Code == "28000" || pgErr.Code == "28P01":
			return sentinel.ErrPermissionDenied
		case pgErr.Code == "3D000" || pgErr.Code == "42P01":
			return sentinel.ErrNotFound
		case len(pgErr.Code) == 5 && (pgErr.Code[:2] == "08" || pgErr.Code[:2] == "57" || pgErr.Code[:2] == "53"):
			return sentinel.ErrUnavailable
		}
		return nil
	}

	var connectErr *pgconn.ConnectError
	switch {
	case errors.As(err, &connectErr),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, sql.ErrConnDone),
		pgconn.Timeout(err):
		return sentinel.ErrUnavailable
	}
	return nil
}
