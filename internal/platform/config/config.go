package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Server captures process level configuration, read from the environment.
type Server struct {
	Addr            string        `env:"NUMERANO_ADDR" envDefault:":8080"`
	LogLevel        string        `env:"NUMERANO_LOG_LEVEL" envDefault:"info"`
	RequestTimeout  time.Duration `env:"NUMERANO_REQUEST_TIMEOUT" envDefault:"15s"`
	ShutdownTimeout time.Duration `env:"NUMERANO_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	Environment     string        `env:"NUMERANO_ENV" envDefault:"development"`

	// CommitTimeout bounds submissions and reviews, which run to completion
	// even when the client goes away.
	CommitTimeout time.Duration `env:"NUMERANO_COMMIT_TIMEOUT" envDefault:"20s"`

	HTTP         HTTPConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Notification NotificationConfig
	Admin        AdminConfig
	Verification VerificationConfig
	Audit        AuditConfig
	RateLimit    RateLimitConfig
}

// HTTPConfig holds listener timeouts. WriteTimeout must outlast
// RequestTimeout or slow handlers lose their response.
type HTTPConfig struct {
	ReadHeaderTimeout time.Duration `env:"NUMERANO_HTTP_READ_HEADER_TIMEOUT" envDefault:"5s"`
	ReadTimeout       time.Duration `env:"NUMERANO_HTTP_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout      time.Duration `env:"NUMERANO_HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout       time.Duration `env:"NUMERANO_HTTP_IDLE_TIMEOUT" envDefault:"2m"`
	MaxHeaderBytes    int           `env:"NUMERANO_HTTP_MAX_HEADER_BYTES" envDefault:"65536"`
}

// BreakerConfig tunes a circuit breaker around a flaky backend.
type BreakerConfig struct {
	Failures  int           `env:"FAILURES" envDefault:"5"`
	Successes int           `env:"SUCCESSES" envDefault:"2"`
	Cooldown  time.Duration `env:"COOLDOWN" envDefault:"30s"`
}

// DatabaseConfig selects the registration store. An empty DSN keeps
// registrations in memory.
type DatabaseConfig struct {
	DSN             string        `env:"NUMERANO_DATABASE_URL"`
	MaxOpenConns    int           `env:"NUMERANO_DATABASE_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"NUMERANO_DATABASE_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"NUMERANO_DATABASE_CONN_MAX_LIFETIME" envDefault:"30m"`
	QueryTimeout    time.Duration `env:"NUMERANO_DATABASE_QUERY_TIMEOUT" envDefault:"5s"`
}

// RedisConfig backs drafts and notification outcomes. An empty URL keeps
// both in memory.
type RedisConfig struct {
	URL          string        `env:"NUMERANO_REDIS_URL"`
	PoolSize     int           `env:"NUMERANO_REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"NUMERANO_REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"NUMERANO_REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"NUMERANO_REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"NUMERANO_REDIS_WRITE_TIMEOUT" envDefault:"3s"`
	DraftTTL     time.Duration `env:"NUMERANO_DRAFT_TTL" envDefault:"24h"`
	OutcomeTTL   time.Duration `env:"NUMERANO_NOTIFICATION_OUTCOME_TTL" envDefault:"1h"`
}

// NotificationConfig configures the EmailJS-compatible provider. Without a
// service id notifications are only logged.
type NotificationConfig struct {
	Endpoint      string        `env:"NUMERANO_EMAILJS_ENDPOINT" envDefault:"https://api.emailjs.com/api/v1.0/email/send"`
	ServiceID     string        `env:"NUMERANO_EMAILJS_SERVICE_ID"`
	TemplateID    string        `env:"NUMERANO_EMAILJS_TEMPLATE_ID"`
	PublicKey     string        `env:"NUMERANO_EMAILJS_PUBLIC_KEY"`
	PrivateKey    string        `env:"NUMERANO_EMAILJS_PRIVATE_KEY"`
	Timeout       time.Duration `env:"NUMERANO_EMAILJS_TIMEOUT" envDefault:"10s"`
	QueueSize     int           `env:"NUMERANO_NOTIFICATION_QUEUE_SIZE" envDefault:"64"`
	ChallengeName string        `env:"NUMERANO_CHALLENGE_NAME" envDefault:"Numerano Code Challenge"`

	Breaker BreakerConfig `envPrefix:"NUMERANO_NOTIFICATION_BREAKER_"`
}

// AdminConfig holds the admin portal credentials and token settings.
type AdminConfig struct {
	Username      string        `env:"NUMERANO_ADMIN_USERNAME" envDefault:"admin"`
	PasswordHash  string        `env:"NUMERANO_ADMIN_PASSWORD_HASH"`
	JWTSigningKey string        `env:"NUMERANO_JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	JWTIssuer     string        `env:"NUMERANO_JWT_ISSUER" envDefault:"numerano"`
	TokenTTL      time.Duration `env:"NUMERANO_ADMIN_TOKEN_TTL" envDefault:"1h"`
}

// VerificationConfig configures the human verification step. Without a
// secret every token is accepted.
type VerificationConfig struct {
	RecaptchaSecret   string        `env:"NUMERANO_RECAPTCHA_SECRET"`
	RecaptchaEndpoint string        `env:"NUMERANO_RECAPTCHA_ENDPOINT" envDefault:"https://www.google.com/recaptcha/api/siteverify"`
	Timeout           time.Duration `env:"NUMERANO_RECAPTCHA_TIMEOUT" envDefault:"5s"`
}

// AuditConfig selects the audit sink. Brokers take precedence over the
// database; with neither, events stay in memory.
type AuditConfig struct {
	KafkaBrokers []string `env:"NUMERANO_AUDIT_KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"NUMERANO_AUDIT_KAFKA_TOPIC" envDefault:"registration-audit"`
	BufferSize   int      `env:"NUMERANO_AUDIT_BUFFER_SIZE" envDefault:"256"`
}

// RateLimitConfig bounds public write endpoints per client IP.
type RateLimitConfig struct {
	Enabled bool          `env:"NUMERANO_RATE_LIMIT_ENABLED" envDefault:"true"`
	Limit   int           `env:"NUMERANO_RATE_LIMIT_WRITES" envDefault:"30"`
	Window  time.Duration `env:"NUMERANO_RATE_LIMIT_WINDOW" envDefault:"1m"`

	// Breaker guards the Redis buckets; while open the in-memory fallback
	// counts requests.
	Breaker BreakerConfig `envPrefix:"NUMERANO_RATE_LIMIT_BREAKER_"`
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// IsProduction reports whether the server runs with production settings.
func (s Server) IsProduction() bool {
	return s.Environment == "production"
}
