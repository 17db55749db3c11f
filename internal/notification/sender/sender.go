// Package sender delivers rendered status notifications.
package sender

import (
	"context"
	"errors"
	"log/slog"

	"numerano/internal/notification/models"
	"numerano/internal/notification/render"
	"numerano/pkg/platform/circuit"
)

// ErrCircuitOpen is returned while the provider is considered down.
var ErrCircuitOpen = errors.New("notification provider circuit open")

// Sender delivers one notification. Implementations return an error instead
// of panicking so callers can record the outcome.
type Sender interface {
	Send(ctx context.Context, n models.StatusNotification) error
}

// LogSender only logs the rendered message. Used when no provider is
// configured.
type LogSender struct {
	renderer *render.Renderer
	logger   *slog.Logger
}

func NewLogSender(renderer *render.Renderer, logger *slog.Logger) *LogSender {
	return &LogSender{renderer: renderer, logger: logger}
}

func (s *LogSender) Send(ctx context.Context, n models.StatusNotification) error {
	msg := s.renderer.Render(n)
	s.logger.InfoContext(ctx, "notification (log only)",
		"to", msg.To,
		"subject", msg.Subject,
		"team_id", n.TeamID,
		"status", string(n.Status),
	)
	return nil
}

// Guarded wraps a Sender with a circuit breaker so a failing provider is not
// hammered by every review.
type Guarded struct {
	next    Sender
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewGuarded(next Sender, breaker *circuit.Breaker, logger *slog.Logger) *Guarded {
	return &Guarded{next: next, breaker: breaker, logger: logger}
}

func (g *Guarded) Send(ctx context.Context, n models.StatusNotification) error {
	if !g.breaker.Allow() {
		return ErrCircuitOpen
	}
	err := g.next.Send(ctx, n)
	if err != nil {
		if _, change := g.breaker.RecordFailure(); change.Opened {
			g.logger.WarnContext(ctx, "notification circuit opened",
				"breaker", g.breaker.Name(),
				"error", err,
			)
		}
		return err
	}
	if _, change := g.breaker.RecordSuccess(); change.Closed {
		g.logger.InfoContext(ctx, "notification circuit closed", "breaker", g.breaker.Name())
	}
	return nil
}
