// Package service runs the admin review workflow: a pending registration is
// approved or rejected once, and the team lead is notified in the background.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"numerano/internal/notification/dispatcher"
	notificationModels "numerano/internal/notification/models"
	"numerano/internal/registration/models"
	"numerano/internal/review/metrics"
	dErrors "numerano/pkg/domain-errors"
	"numerano/pkg/email"
	"numerano/pkg/platform/audit"
	"numerano/pkg/platform/sentinel"
	"numerano/pkg/requestcontext"
)

var tracer = otel.Tracer("numerano/review")

const defaultCommitTimeout = 20 * time.Second

// Decision is what an administrator chose.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Status maps the decision to the terminal status it produces.
func (d Decision) Status() (models.Status, bool) {
	switch d {
	case DecisionApprove:
		return models.StatusApproved, true
	case DecisionReject:
		return models.StatusRejected, true
	}
	return "", false
}

type Store interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Registration, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.Status, at time.Time) (*models.Registration, error)
}

type Dispatcher interface {
	Enqueue(ctx context.Context, job dispatcher.Job) error
}

type OutcomeStore interface {
	Set(ctx context.Context, registrationID uuid.UUID, record notificationModels.OutcomeRecord) error
	Get(ctx context.Context, registrationID uuid.UUID) (*notificationModels.OutcomeRecord, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// ReviewResult is the updated record and the notification state right after
// the hand-off.
type ReviewResult struct {
	Registration *models.Registration
	Notification notificationModels.OutcomeRecord
}

type Service struct {
	store          Store
	dispatcher     Dispatcher
	outcomes       OutcomeStore
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	commitTimeout  time.Duration
}

type Option func(*Service)

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

// WithCommitTimeout bounds a review after it is detached from the request.
func WithCommitTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.commitTimeout = d
		}
	}
}

func New(store Store, d Dispatcher, outcomes OutcomeStore, opts ...Option) *Service {
	s := &Service{store: store, dispatcher: d, outcomes: outcomes, commitTimeout: defaultCommitTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Review moves a pending registration to approved or rejected and queues the
// notification. The status change stands even if the notification later
// fails, and it is not abandoned when ctx is cancelled.
func (s *Service) Review(ctx context.Context, id uuid.UUID, decision Decision) (*ReviewResult, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.commitTimeout)
	defer cancel()
	ctx, span := tracer.Start(ctx, "review.review")
	defer span.End()
	start := time.Now()
	defer s.observeReview(start)
	span.SetAttributes(
		attribute.String("registration.id", id.String()),
		attribute.String("review.decision", string(decision)),
	)

	result, err := s.review(ctx, id, decision)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		return nil, err
	}
	return result, nil
}

func (s *Service) review(ctx context.Context, id uuid.UUID, decision Decision) (*ReviewResult, error) {
	to, ok := decision.Status()
	if !ok {
		return nil, dErrors.New(dErrors.CodeBadRequest, "decision must be approve or reject")
	}

	reg, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if reg.Status.IsTerminal() {
		return nil, alreadyReviewed(reg.Status)
	}
	recipient, err := recipientOf(reg)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateStatus(ctx, id, models.StatusPending, to, requestcontext.Now(ctx))
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrInvalidState):
			return nil, dErrors.New(dErrors.CodeInvalidTransition, "registration was reviewed by someone else")
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "registration not found")
		default:
			return nil, storeError(err, "failed to update registration status")
		}
	}

	s.logAudit(ctx, string(audit.EventRegistrationReviewed), updated, string(to))
	if s.metrics != nil {
		s.metrics.ReviewsTotal.WithLabelValues(string(decision)).Inc()
	}

	outcome := s.dispatch(ctx, updated, recipient, reg.Status)
	return &ReviewResult{Registration: updated, Notification: outcome}, nil
}

// ResendNotification queues the notification of a reviewed registration again.
func (s *Service) ResendNotification(ctx context.Context, id uuid.UUID) (*ReviewResult, error) {
	ctx, span := tracer.Start(ctx, "review.resend_notification")
	defer span.End()

	reg, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !reg.Status.IsTerminal() {
		return nil, dErrors.New(dErrors.CodeInvalidTransition, "only reviewed registrations can be notified")
	}
	recipient, err := recipientOf(reg)
	if err != nil {
		return nil, err
	}
	outcome := s.dispatch(ctx, reg, recipient, reg.Status)
	return &ReviewResult{Registration: reg, Notification: outcome}, nil
}

// NotificationOutcome reports the latest delivery state for a registration.
func (s *Service) NotificationOutcome(ctx context.Context, id uuid.UUID) (*notificationModels.OutcomeRecord, error) {
	record, err := s.outcomes.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no notification recorded for this registration")
		}
		return nil, storeError(err, "failed to read notification outcome")
	}
	return record, nil
}

// dispatch marks the outcome as sending and queues delivery. A refused
// hand-off is recorded as failed instead of returned.
func (s *Service) dispatch(ctx context.Context, reg *models.Registration, recipient models.TeamMember, previous models.Status) notificationModels.OutcomeRecord {
	now := requestcontext.Now(ctx)
	record := notificationModels.OutcomeRecord{Outcome: notificationModels.OutcomeSending, UpdatedAt: now}
	if err := s.outcomes.Set(ctx, reg.ID, record); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to record notification outcome",
			"registration_id", reg.ID,
			"error", err,
		)
	}

	job := dispatcher.Job{RegistrationID: reg.ID, Notification: notificationFor(reg, recipient, previous)}
	if err := s.dispatcher.Enqueue(ctx, job); err != nil {
		record = notificationModels.OutcomeRecord{
			Outcome:   notificationModels.OutcomeFailed,
			Error:     err.Error(),
			UpdatedAt: now,
		}
		if setErr := s.outcomes.Set(ctx, reg.ID, record); setErr != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "failed to record notification outcome",
				"registration_id", reg.ID,
				"error", setErr,
			)
		}
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "notification could not be queued",
				"registration_id", reg.ID,
				"team_id", reg.TeamID,
				"error", err,
			)
		}
		if s.metrics != nil {
			s.metrics.DispatchRefused.Inc()
		}
	}
	return record
}

func notificationFor(reg *models.Registration, recipient models.TeamMember, previous models.Status) notificationModels.StatusNotification {
	name := strings.TrimSpace(recipient.Name)
	if name == "" {
		name = email.DeriveNameFromEmail(recipient.Email)
	}
	return notificationModels.StatusNotification{
		RegistrationID: reg.ID.String(),
		RecipientEmail: strings.TrimSpace(recipient.Email),
		RecipientName:  name,
		TeamName:       reg.TeamName,
		TeamID:         reg.TeamID,
		Status:         notificationModels.Status(reg.Status),
		PreviousStatus: string(previous),
		ProjectTitle:   reg.ProjectTitle,
		Domain:         string(reg.Domain),
	}
}

// recipientOf resolves who is told about the decision. Checked before any
// write so a record without a reachable lead stays pending.
func recipientOf(reg *models.Registration) (models.TeamMember, error) {
	lead, ok := reg.Lead()
	if !ok || strings.TrimSpace(lead.Email) == "" {
		return models.TeamMember{}, dErrors.New(dErrors.CodeNoNotifiableRecipient,
			"team lead has no email address; the team cannot be notified")
	}
	return lead, nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	reg, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "registration not found")
		}
		return nil, storeError(err, "failed to load registration")
	}
	return reg, nil
}

func alreadyReviewed(status models.Status) error {
	return dErrors.New(dErrors.CodeInvalidTransition, fmt.Sprintf("registration is already %s", status)).
		WithDetail("status", string(status))
}

func storeError(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrPermissionDenied):
		return dErrors.Wrap(err, dErrors.CodePermissionDenied, "storage refused the request")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "storage is temporarily unavailable; try again")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}

func (s *Service) logAudit(ctx context.Context, event string, reg *models.Registration, decision string) {
	admin := requestcontext.Admin(ctx)
	requestID := requestcontext.RequestID(ctx)
	if s.logger != nil {
		s.logger.InfoContext(ctx, event,
			"registration_id", reg.ID,
			"team_id", reg.TeamID,
			"decision", decision,
			"admin", admin,
			"request_id", requestID,
			"event", event,
			"log_type", "audit",
		)
	}
	if s.auditPublisher == nil {
		return
	}
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		Action:         event,
		RegistrationID: reg.ID.String(),
		TeamID:         reg.TeamID,
		Subject:        admin,
		Decision:       decision,
		RequestID:      requestID,
		ClientIP:       requestcontext.ClientIP(ctx),
	})
}

func (s *Service) observeReview(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveReview(start)
	}
}
