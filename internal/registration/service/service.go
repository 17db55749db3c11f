package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"numerano/internal/registration/metrics"
	"numerano/internal/registration/models"
	"numerano/pkg/attrs"
	dErrors "numerano/pkg/domain-errors"
	"numerano/pkg/email"
	"numerano/pkg/platform/audit"
	"numerano/pkg/platform/middleware/metadata"
	"numerano/pkg/platform/sentinel"
	"numerano/pkg/requestcontext"
)

// maxTeamIDAttempts bounds regeneration when a generated team id collides
// with a stored one.
const maxTeamIDAttempts = 3

// defaultCommitTimeout bounds a submission once it no longer follows the
// caller's cancellation.
const defaultCommitTimeout = 20 * time.Second

var tracer = otel.Tracer("numerano/registration")

type RegistrationStore interface {
	Create(ctx context.Context, reg *models.Registration) error
	List(ctx context.Context) ([]*models.Registration, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Registration, error)
	FindByTeamID(ctx context.Context, teamID string) (*models.Registration, error)
	ExistingMemberEmails(ctx context.Context, candidates []string) ([]string, error)
}

type DraftStore interface {
	Create(ctx context.Context, session *models.DraftSession) error
	Get(ctx context.Context, id uuid.UUID) (*models.DraftSession, error)
	Save(ctx context.Context, session *models.DraftSession) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type TeamIDGenerator interface {
	Generate() string
}

type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service runs registration intake: the draft wizard, the uniqueness check,
// submission and the read side used by the status page and admins.
type Service struct {
	registrations  RegistrationStore
	drafts         DraftStore
	teamIDs        TeamIDGenerator
	verifier       Verifier
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	commitTimeout  time.Duration
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithVerifier(v Verifier) Option {
	return func(s *Service) {
		s.verifier = v
	}
}

// WithCommitTimeout bounds a submission after it is detached from the
// request.
func WithCommitTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.commitTimeout = d
		}
	}
}

// New constructs a Service.
func New(registrations RegistrationStore, drafts DraftStore, teamIDs TeamIDGenerator, opts ...Option) *Service {
	s := &Service{
		registrations: registrations,
		drafts:        drafts,
		teamIDs:       teamIDs,
		commitTimeout: defaultCommitTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckEmailUniqueness reports which of emails already belong to a stored
// registration. Comparison is on trimmed, lower-cased addresses and the
// duplicates are returned in that form.
func (s *Service) CheckEmailUniqueness(ctx context.Context, emails []string) (*models.UniquenessResult, error) {
	ctx, span := tracer.Start(ctx, "registration.check_email_uniqueness")
	defer span.End()
	start := time.Now()
	defer s.observeUniquenessCheck(start)

	candidates := email.NormalizeAll(emails)
	span.SetAttributes(attribute.Int("emails.count", len(candidates)))
	if len(candidates) == 0 {
		return &models.UniquenessResult{IsUnique: true, DuplicateEmails: []string{}}, nil
	}

	found, err := s.registrations.ExistingMemberEmails(ctx, candidates)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		if errors.Is(err, sentinel.ErrPermissionDenied) {
			return nil, dErrors.Wrap(err, dErrors.CodePermissionDenied, msgPermissionDenied)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "could not verify email uniqueness")
	}
	if found == nil {
		found = []string{}
	}
	return &models.UniquenessResult{IsUnique: len(found) == 0, DuplicateEmails: found}, nil
}

// Submit validates a complete draft and stores it as a pending registration.
// Nothing is written unless every step is valid. A collision on the
// generated team id regenerates it; no other failure is retried. The write
// completes even if ctx is cancelled once it has started.
func (s *Service) Submit(ctx context.Context, draft *models.Draft) (*models.Registration, error) {
	ctx, cancel := s.commitContext(ctx)
	defer cancel()
	ctx, span := tracer.Start(ctx, "registration.submit")
	defer span.End()
	start := time.Now()
	defer s.observeSubmit(start)

	reg, err := s.submit(ctx, draft)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		s.incrementSubmissionFailure(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("registration.team_id", reg.TeamID))

	s.logAudit(ctx, string(audit.EventRegistrationSubmitted),
		"registration_id", reg.ID.String(),
		"team_id", reg.TeamID,
		"team_name", reg.TeamName,
		"team_size", reg.TeamSize,
	)
	s.incrementSubmitted()
	return reg, nil
}

func (s *Service) submit(ctx context.Context, draft *models.Draft) (*models.Registration, error) {
	if draft == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "draft is required")
	}
	if step, invalid := models.FirstInvalidStep(draft); invalid {
		if step == models.StepTeamDetails && models.FirstTeamFailureIsDuplicateEmail(draft) {
			return nil, duplicateEmailInTeam(models.FindIntraTeamDuplicateEmails(draft.Members))
		}
		return nil, incompleteSubmission(step, draft)
	}

	reg := buildRegistration(draft, requestcontext.Now(ctx))

	var err error
	for attempt := 1; attempt <= maxTeamIDAttempts; attempt++ {
		reg.ID = uuid.New()
		reg.TeamID = s.teamIDs.Generate()
		err = s.registrations.Create(ctx, reg)
		if err == nil {
			return reg, nil
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			break
		}
		if s.logger != nil {
			s.logger.WarnContext(ctx, "team id collision, regenerating",
				"team_id", reg.TeamID,
				"attempt", attempt,
			)
		}
	}
	return nil, storeError(err)
}

// commitContext keeps ctx's values and drops its cancellation, so a client
// that goes away cannot abort a write halfway.
func (s *Service) commitContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.commitTimeout)
}

// buildRegistration copies the draft into a pending record with trimmed text
// and normalized member emails.
func buildRegistration(draft *models.Draft, now time.Time) *models.Registration {
	d := draft.Clone()
	d.TeamName = strings.TrimSpace(d.TeamName)
	d.ProjectTitle = strings.TrimSpace(d.ProjectTitle)
	d.ProjectIdea = strings.TrimSpace(d.ProjectIdea)
	for i := range d.Members {
		d.Members[i].Name = strings.TrimSpace(d.Members[i].Name)
		d.Members[i].Email = email.Normalize(d.Members[i].Email)
		d.Members[i].Role = strings.TrimSpace(d.Members[i].Role)
	}
	d.TeamSize = len(d.Members)
	return &models.Registration{
		Draft:          *d,
		Status:         models.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
		SubmissionTime: now,
	}
}

func incompleteSubmission(step models.Step, draft *models.Draft) error {
	msg := fmt.Sprintf("registration is incomplete: %s step is not valid", step)
	if de, ok := dErrors.As(models.ValidateStep(step, draft)); ok {
		msg = fmt.Sprintf("registration is incomplete: %s", de.Message)
	}
	return dErrors.New(dErrors.CodeIncompleteSubmission, msg).WithDetail("step", step.String())
}

func duplicateEmailInTeam(dups map[int]struct{}) error {
	indexes := slices.Sorted(maps.Keys(dups))
	return dErrors.New(dErrors.CodeDuplicateEmailInTeam, "each team member must use a different email").
		WithDetail("member_indexes", indexes)
}

// User-facing messages for store failures. They are shown verbatim, so they
// never carry driver text.
const (
	msgPermissionDenied = "Registration storage refused the request. Please contact the organisers."
	msgUnavailable      = "Registration service is temporarily unavailable. Please try again in a moment."
	msgStoreMissing     = "Registration storage is not set up. Please contact the organisers."
	msgUnknown          = "Something went wrong while saving your registration. Please try again."
)

// storeError classifies a registration store failure.
func storeError(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrPermissionDenied):
		return dErrors.Wrap(err, dErrors.CodePermissionDenied, msgPermissionDenied)
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeStoreUnavailable, msgUnavailable)
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, msgStoreMissing)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msgUnknown)
	}
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	requestID := requestcontext.RequestID(ctx)
	if requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, event, args...)
	}
	if s.auditPublisher == nil {
		return
	}
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		Action:         event,
		RegistrationID: attrs.ExtractString(attributes, "registration_id"),
		TeamID:         attrs.ExtractString(attributes, "team_id"),
		Subject:        attrs.ExtractString(attributes, "team_name"),
		RequestID:      requestID,
		ClientIP:       requestcontext.ClientIP(ctx),
		UserAgent:      metadata.DescribeUserAgent(requestcontext.UserAgent(ctx)),
	})
}

func (s *Service) incrementSubmitted() {
	if s.metrics != nil {
		s.metrics.SubmittedTotal.Inc()
	}
}

func (s *Service) incrementSubmissionFailure(err error) {
	if s.metrics != nil {
		s.metrics.IncrementSubmissionFailure(string(dErrors.CodeOf(err)))
	}
}

func (s *Service) observeSubmit(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveSubmit(start)
	}
}

func (s *Service) observeUniquenessCheck(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveUniquenessCheck(start)
	}
}
