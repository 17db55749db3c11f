// Package service authenticates the admin portal.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	dErrors "numerano/pkg/domain-errors"
	"numerano/pkg/platform/audit"
	"numerano/pkg/requestcontext"
)

type CredentialChecker interface {
	Check(username, password string) error
}

type TokenIssuer interface {
	Issue(subject string) (string, time.Time, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Session is a granted admin token.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Subject   string
}

type Service struct {
	checker        CredentialChecker
	tokens         TokenIssuer
	logger         *slog.Logger
	auditPublisher AuditPublisher
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

func New(checker CredentialChecker, tokens TokenIssuer, opts ...Option) *Service {
	s := &Service{checker: checker, tokens: tokens}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login exchanges admin credentials for a bearer token.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "username and password are required")
	}
	if err := s.checker.Check(username, password); err != nil {
		s.logAudit(ctx, audit.EventAdminLoginFailed, username, string(dErrors.CodeOf(err)))
		return nil, err
	}
	signed, expiresAt, err := s.tokens.Issue(username)
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, audit.EventAdminLoggedIn, username, "")
	return &Session{Token: signed, ExpiresAt: expiresAt, Subject: username}, nil
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, username, reason string) {
	requestID := requestcontext.RequestID(ctx)
	clientIP := requestcontext.ClientIP(ctx)
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(event),
			"username", username,
			"reason", reason,
			"client_ip", clientIP,
			"request_id", requestID,
			"event", string(event),
			"log_type", "audit",
		)
	}
	if s.auditPublisher == nil {
		return
	}
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		Action:    string(event),
		Subject:   username,
		Reason:    reason,
		RequestID: requestID,
		ClientIP:  clientIP,
		UserAgent: requestcontext.UserAgent(ctx),
	})
}
