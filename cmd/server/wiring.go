package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/twmb/franz-go/pkg/kgo"

	adminCredentials "numerano/internal/admin/credentials"
	adminHandler "numerano/internal/admin/handler"
	adminService "numerano/internal/admin/service"
	adminToken "numerano/internal/admin/token"
	"numerano/internal/notification/dispatcher"
	notificationMetrics "numerano/internal/notification/metrics"
	"numerano/internal/notification/outcome"
	"numerano/internal/notification/render"
	"numerano/internal/notification/sender"
	"numerano/internal/platform/config"
	"numerano/internal/platform/metrics"
	"numerano/internal/platform/middleware"
	"numerano/internal/platform/postgres"
	platformRedis "numerano/internal/platform/redis"
	ratelimitMetrics "numerano/internal/ratelimit/metrics"
	ratelimit "numerano/internal/ratelimit/middleware"
	"numerano/internal/ratelimit/store/bucket"
	registrationHandler "numerano/internal/registration/handler"
	registrationMetrics "numerano/internal/registration/metrics"
	registrationService "numerano/internal/registration/service"
	draftstore "numerano/internal/registration/store/draft"
	registrationstore "numerano/internal/registration/store/registration"
	"numerano/internal/registration/teamid"
	"numerano/internal/registration/verification"
	reviewHandler "numerano/internal/review/handler"
	reviewMetrics "numerano/internal/review/metrics"
	reviewService "numerano/internal/review/service"
	"numerano/pkg/platform/audit"
	"numerano/pkg/platform/audit/publisher"
	kafkaAudit "numerano/pkg/platform/audit/store/kafka"
	"numerano/pkg/platform/audit/store/memory"
	postgresAudit "numerano/pkg/platform/audit/store/postgres"
	"numerano/pkg/platform/circuit"
	"numerano/pkg/platform/httputil"
	adminmw "numerano/pkg/platform/middleware/admin"
	"numerano/pkg/platform/middleware/metadata"
	"numerano/pkg/platform/middleware/requesttime"
)

// infra is the set of external connections. Nil members mean the in-memory
// fallback is in use.
type infra struct {
	db    *sql.DB
	redis *platformRedis.Client
	kafka *kgo.Client
}

func (i *infra) Close() {
	if i.kafka != nil {
		i.kafka.Close()
	}
	if i.redis != nil {
		_ = i.redis.Close()
	}
	if i.db != nil {
		_ = i.db.Close()
	}
}

func connect(ctx context.Context, cfg config.Server, logger *slog.Logger) (*infra, error) {
	in := &infra{}
	if cfg.Database.DSN != "" {
		db, err := postgres.Open(ctx, postgres.Config{
			DSN:             cfg.Database.DSN,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		in.db = db
		if err := postgres.Migrate(ctx, db); err != nil {
			in.Close()
			return nil, err
		}
		logger.Info("registration store: postgres")
	} else {
		logger.Warn("registration store: in-memory, data is lost on restart")
	}

	client, err := platformRedis.New(ctx, cfg.Redis)
	if err != nil {
		in.Close()
		return nil, err
	}
	in.redis = client
	if client == nil {
		logger.Warn("draft and notification outcome stores: in-memory")
	}

	if len(cfg.Audit.KafkaBrokers) > 0 {
		kc, err := kafkaAudit.NewClient(cfg.Audit.KafkaBrokers, cfg.Audit.KafkaTopic)
		if err != nil {
			in.Close()
			return nil, err
		}
		in.kafka = kc
		logger.Info("audit sink: kafka", "topic", cfg.Audit.KafkaTopic)
	}
	return in, nil
}

func newAuditPublisher(cfg config.Server, in *infra, logger *slog.Logger) *publisher.Publisher {
	var store audit.Store = memory.NewInMemoryStore()
	if in.db != nil {
		store = postgresAudit.New(in.db)
	}
	if in.kafka != nil {
		store = kafkaAudit.New(in.kafka, cfg.Audit.KafkaTopic, store)
	}
	return publisher.NewPublisher(store,
		publisher.WithAsyncBuffer(cfg.Audit.BufferSize),
		publisher.WithLogger(logger),
	)
}

func newSender(cfg config.NotificationConfig, logger *slog.Logger) sender.Sender {
	renderer := render.New(cfg.ChallengeName)
	var next sender.Sender
	if cfg.ServiceID == "" {
		logger.Warn("notification provider not configured, notifications are only logged")
		next = sender.NewLogSender(renderer, logger)
	} else {
		next = sender.NewEmailJS(sender.EmailJSConfig{
			Endpoint:   cfg.Endpoint,
			ServiceID:  cfg.ServiceID,
			TemplateID: cfg.TemplateID,
			PublicKey:  cfg.PublicKey,
			PrivateKey: cfg.PrivateKey,
			Timeout:    cfg.Timeout,
		}, renderer)
	}
	return sender.NewGuarded(next, newBreaker("notification", cfg.Breaker), logger)
}

func newBreaker(name string, cfg config.BreakerConfig) *circuit.Breaker {
	return circuit.New(name,
		circuit.WithFailureThreshold(cfg.Failures),
		circuit.WithSuccessThreshold(cfg.Successes),
		circuit.WithCooldown(cfg.Cooldown),
	)
}

func newVerifier(cfg config.VerificationConfig, logger *slog.Logger) registrationService.Verifier {
	if cfg.RecaptchaSecret == "" {
		logger.Warn("human verification not configured, any token is accepted")
		return verification.AcceptAll{}
	}
	return verification.NewRecaptcha(cfg.RecaptchaSecret, cfg.RecaptchaEndpoint, cfg.Timeout)
}

type registrationStore interface {
	registrationService.RegistrationStore
	reviewService.Store
}

type outcomeStore interface {
	dispatcher.OutcomeStore
	reviewService.OutcomeStore
}

// app holds the wired router and the background workers main must run.
type app struct {
	router     http.Handler
	dispatcher *dispatcher.Dispatcher
	audit      *publisher.Publisher
}

func build(cfg config.Server, in *infra, logger *slog.Logger) *app {
	auditPublisher := newAuditPublisher(cfg, in, logger)

	var records registrationStore = registrationstore.NewInMemory()
	if in.db != nil {
		records = registrationstore.NewPostgres(in.db)
	}

	var drafts registrationService.DraftStore
	var outcomes outcomeStore
	if in.redis != nil {
		drafts = draftstore.NewRedis(in.redis.Client, cfg.Redis.DraftTTL)
		outcomes = outcome.NewRedis(in.redis.Client, cfg.Redis.OutcomeTTL)
	} else {
		drafts = draftstore.NewInMemory(cfg.Redis.DraftTTL)
		outcomes = outcome.NewInMemory(cfg.Redis.OutcomeTTL)
	}

	registrations := registrationService.New(records, drafts, teamid.New(),
		registrationService.WithLogger(logger),
		registrationService.WithAuditPublisher(auditPublisher),
		registrationService.WithMetrics(registrationMetrics.New()),
		registrationService.WithVerifier(newVerifier(cfg.Verification, logger)),
		registrationService.WithCommitTimeout(cfg.CommitTimeout),
	)

	notifications := dispatcher.New(newSender(cfg.Notification, logger), outcomes,
		dispatcher.WithLogger(logger),
		dispatcher.WithAuditPublisher(auditPublisher),
		dispatcher.WithMetrics(notificationMetrics.New()),
		dispatcher.WithQueueSize(cfg.Notification.QueueSize),
	)
	reviews := reviewService.New(records, notifications, outcomes,
		reviewService.WithLogger(logger),
		reviewService.WithAuditPublisher(auditPublisher),
		reviewService.WithMetrics(reviewMetrics.New()),
		reviewService.WithCommitTimeout(cfg.CommitTimeout),
	)

	tokens := adminToken.New(cfg.Admin.JWTSigningKey, cfg.Admin.JWTIssuer, cfg.Admin.TokenTTL)
	checker := adminCredentials.NewChecker(cfg.Admin.Username, cfg.Admin.PasswordHash)
	if !checker.Enabled() {
		logger.Warn("NUMERANO_ADMIN_PASSWORD_HASH not set, admin login is disabled")
	}
	login := adminService.New(checker, tokens,
		adminService.WithLogger(logger),
		adminService.WithAuditPublisher(auditPublisher),
	)

	limiter := newRateLimiter(cfg.RateLimit, in, logger)
	httpMetrics := metrics.New()

	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.LatencyMiddleware(httpMetrics))

	r.Get("/health", healthHandler(in))
	r.Handle("/metrics", promhttp.Handler())

	registrationHandler.New(registrations, logger,
		registrationHandler.WithWriteLimiter(limiter.RateLimit("public_write")),
	).Register(r)
	adminHandler.New(login, logger,
		adminHandler.WithLoginLimiter(limiter.RateLimit("admin_login")),
	).Register(r)
	r.Group(func(r chi.Router) {
		r.Use(adminmw.RequireAdmin(tokens, logger))
		reviewHandler.New(registrations, reviews, logger).Register(r)
	})

	return &app{router: r, dispatcher: notifications, audit: auditPublisher}
}

func newRateLimiter(cfg config.RateLimitConfig, in *infra, logger *slog.Logger) *ratelimit.Middleware {
	opts := []ratelimit.Option{
		ratelimit.WithDisabled(!cfg.Enabled),
		ratelimit.WithMetrics(ratelimitMetrics.New()),
	}
	var store ratelimit.BucketStore = bucket.New()
	if in.redis != nil {
		store = bucket.NewRedis(in.redis.Client)
		opts = append(opts, ratelimit.WithFallback(bucket.New(), newBreaker("ratelimit", cfg.Breaker)))
	}
	return ratelimit.New(store, cfg.Limit, cfg.Window, logger, opts...)
}

type healthResponse struct {
	Status   string            `json:"status"`
	Backends map[string]string `json:"backends"`
}

func healthHandler(in *infra) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		resp := healthResponse{Status: "ok", Backends: map[string]string{}}
		check := func(name string, err error) {
			if err != nil {
				resp.Status = "degraded"
				resp.Backends[name] = fmt.Sprintf("error: %v", err)
				return
			}
			resp.Backends[name] = "ok"
		}
		if in.db != nil {
			check("postgres", in.db.PingContext(ctx))
		}
		if in.redis != nil {
			check("redis", in.redis.Health(ctx))
		}
		if in.kafka != nil {
			check("kafka", in.kafka.Ping(ctx))
		}
		status := http.StatusOK
		if resp.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, status, resp)
	}
}
