// Package dispatcher delivers status notifications in the background so a
// review never waits on, or is rolled back by, the email provider.
package dispatcher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"numerano/internal/notification/metrics"
	"numerano/internal/notification/models"
	"numerano/pkg/platform/audit"
	"numerano/pkg/requestcontext"
)

// ErrQueueFull is returned by Enqueue when no worker can take the job.
var ErrQueueFull = errors.New("notification queue full")

// ErrClosed is returned by Enqueue after the dispatcher stopped.
var ErrClosed = errors.New("notification dispatcher closed")

var tracer = otel.Tracer("numerano/notification")

type Sender interface {
	Send(ctx context.Context, n models.StatusNotification) error
}

type OutcomeStore interface {
	Set(ctx context.Context, registrationID uuid.UUID, record models.OutcomeRecord) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Job is one notification to deliver.
type Job struct {
	RegistrationID uuid.UUID
	Notification   models.StatusNotification
}

type envelope struct {
	// ctx keeps request values (request id, admin) without the request's
	// cancellation.
	ctx context.Context
	job Job
}

// Dispatcher runs a single worker over a bounded queue.
type Dispatcher struct {
	sender   Sender
	outcomes OutcomeStore
	logger   *slog.Logger
	audit    AuditPublisher
	metrics  *metrics.Metrics
	now      func() time.Time
	queue    chan envelope

	mu     sync.RWMutex
	closed bool
}

type Option func(*Dispatcher)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(d *Dispatcher) {
		d.audit = p
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

func WithQueueSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.queue = make(chan envelope, n)
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

func New(sender Sender, outcomes OutcomeStore, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sender:   sender,
		outcomes: outcomes,
		logger:   slog.Default(),
		now:      time.Now,
		queue:    make(chan envelope, 64),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Enqueue hands a job to the worker without blocking. The job runs on a
// context detached from ctx, so a client disconnect does not cancel it.
func (d *Dispatcher) Enqueue(ctx context.Context, job Job) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	select {
	case d.queue <- envelope{ctx: context.WithoutCancel(ctx), job: job}:
		d.observeDepth()
		return nil
	default:
		return ErrQueueFull
	}
}

// Run delivers queued jobs until ctx is done, then stops accepting work and
// drains what is already queued.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case env := <-d.queue:
			d.observeDepth()
			d.Deliver(env.ctx, env.job)
		case <-ctx.Done():
			d.mu.Lock()
			d.closed = true
			d.mu.Unlock()
			for {
				select {
				case env := <-d.queue:
					d.Deliver(env.ctx, env.job)
				default:
					d.observeDepth()
					return nil
				}
			}
		}
	}
}

// Deliver sends one notification and records the outcome. It never returns
// an error: failures only change the recorded outcome.
func (d *Dispatcher) Deliver(ctx context.Context, job Job) {
	ctx, span := tracer.Start(ctx, "notification.deliver", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()
	span.SetAttributes(
		attribute.String("registration.id", job.RegistrationID.String()),
		attribute.String("notification.status", string(job.Notification.Status)),
	)

	start := time.Now()
	err := d.sender.Send(ctx, job.Notification)
	record := models.OutcomeRecord{Outcome: models.OutcomeSuccess, UpdatedAt: d.now()}
	event := audit.EventNotificationSent
	if err != nil {
		record.Outcome = models.OutcomeFailed
		record.Error = err.Error()
		event = audit.EventNotificationFailed
		span.RecordError(err)
		span.SetStatus(codes.Error, "send failed")
		d.logger.WarnContext(ctx, "notification delivery failed",
			"registration_id", job.RegistrationID,
			"team_id", job.Notification.TeamID,
			"error", err,
		)
	}
	if d.metrics != nil {
		d.metrics.ObserveSend(string(record.Outcome), start)
	}

	if setErr := d.outcomes.Set(ctx, job.RegistrationID, record); setErr != nil {
		d.logger.ErrorContext(ctx, "failed to record notification outcome",
			"registration_id", job.RegistrationID,
			"outcome", string(record.Outcome),
			"error", setErr,
		)
	}
	d.logAudit(ctx, event, job, record.Error)
}

func (d *Dispatcher) logAudit(ctx context.Context, event audit.AuditEvent, job Job, reason string) {
	requestID := requestcontext.RequestID(ctx)
	d.logger.InfoContext(ctx, string(event),
		"event", string(event),
		"log_type", "audit",
		"registration_id", job.RegistrationID,
		"team_id", job.Notification.TeamID,
		"request_id", requestID,
	)
	if d.audit == nil {
		return
	}
	_ = d.audit.Emit(ctx, audit.Event{
		Action:         string(event),
		RegistrationID: job.RegistrationID.String(),
		TeamID:         job.Notification.TeamID,
		Subject:        requestcontext.Admin(ctx),
		Decision:       string(job.Notification.Status),
		Reason:         reason,
		RequestID:      requestID,
	})
}

func (d *Dispatcher) observeDepth() {
	if d.metrics != nil {
		d.metrics.QueueDepth.Set(float64(len(d.queue)))
	}
}
