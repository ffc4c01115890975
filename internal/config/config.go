package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	RateLimit    RateLimitConfig
	Mail         MailConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	FrontendURL           string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret                  string
	RefreshSecret              string
	AccessTokenTTLMinutes      int
	AdminAccessTokenTTLMinutes int
	RefreshTokenTTLHours       int
	PasswordResetTTLMinutes    int
	BcryptCost                 int
	PasswordMinLength          int
	OTPTTLMinutes              int
	OTPMaxAttempts             int
	LockoutThreshold           int
	LockoutMinutes             int
	// AdminEmails is the allowlist consulted for every admin decision.
	AdminEmails []string
}

// RateLimitConfig tunes the sensitive-endpoint request limiter.
type RateLimitConfig struct {
	Enabled       bool
	Backend       string
	MaxRequests   int
	WindowMinutes int
	SweepSeconds  int
}

// MailConfig selects and configures the outbound mail transport.
type MailConfig struct {
	Driver           string
	From             string
	FromName         string
	SMTPHost         string
	SMTPPort         int
	SMTPUser         string
	SMTPPassword     string
	SMTPUseTLS       bool
	MailerSendAPIKey string
}

// NotificationConfig controls the notification outbox worker.
type NotificationConfig struct {
	PollIntervalSeconds int
	BatchSize           int
	MaxAttempts         int
	BackoffSeconds      int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "studio-booking-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			FrontendURL:           strings.TrimRight(getEnv("APP_FRONTEND_URL", "http://localhost:3000"), "/"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:  os.Getenv("REDIS_PASSWORD"),
			DB:        redisDB,
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "studio"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:                  getEnv("AUTH_JWT_SECRET", "dev-secret"),
			RefreshSecret:              getEnv("AUTH_REFRESH_SECRET", "dev-refresh-secret"),
			AccessTokenTTLMinutes:      getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 15),
			AdminAccessTokenTTLMinutes: getEnvAsInt("AUTH_ADMIN_ACCESS_TOKEN_TTL_MINUTES", 24*60),
			RefreshTokenTTLHours:       getEnvAsInt("AUTH_REFRESH_TOKEN_TTL_HOURS", 7*24),
			PasswordResetTTLMinutes:    getEnvAsInt("AUTH_PASSWORD_RESET_TTL_MINUTES", 60),
			BcryptCost:                 getEnvAsInt("AUTH_BCRYPT_COST", 10),
			PasswordMinLength:          getEnvAsInt("AUTH_PASSWORD_MIN_LENGTH", 8),
			OTPTTLMinutes:              getEnvAsInt("AUTH_OTP_TTL_MINUTES", 10),
			OTPMaxAttempts:             getEnvAsInt("AUTH_OTP_MAX_ATTEMPTS", 5),
			LockoutThreshold:           getEnvAsInt("AUTH_LOCKOUT_THRESHOLD", 5),
			LockoutMinutes:             getEnvAsInt("AUTH_LOCKOUT_MINUTES", 30),
			AdminEmails:                getEnvAsList("ADMIN_EMAILS"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getEnvAsBool("RATE_LIMIT_ENABLED", true),
			Backend:       strings.ToLower(getEnv("RATE_LIMIT_BACKEND", "memory")),
			MaxRequests:   getEnvAsInt("RATE_LIMIT_MAX_REQUESTS", 5),
			WindowMinutes: getEnvAsInt("RATE_LIMIT_WINDOW_MINUTES", 15),
			SweepSeconds:  getEnvAsInt("RATE_LIMIT_SWEEP_SECONDS", 60),
		},
		Mail: MailConfig{
			Driver:           strings.ToLower(getEnv("MAIL_DRIVER", "log")),
			From:             getEnv("MAIL_FROM", "noreply@example.com"),
			FromName:         getEnv("MAIL_FROM_NAME", "Studio Bookings"),
			SMTPHost:         os.Getenv("SMTP_HOST"),
			SMTPPort:         smtpPort,
			SMTPUser:         os.Getenv("SMTP_USER"),
			SMTPPassword:     os.Getenv("SMTP_PASSWORD"),
			SMTPUseTLS:       getEnvAsBool("SMTP_USE_TLS", false),
			MailerSendAPIKey: os.Getenv("MAILERSEND_API_KEY"),
		},
		Notification: NotificationConfig{
			PollIntervalSeconds: getEnvAsInt("NOTIFY_POLL_INTERVAL_SECONDS", 5),
			BatchSize:           getEnvAsInt("NOTIFY_BATCH_SIZE", 20),
			MaxAttempts:         getEnvAsInt("NOTIFY_MAX_ATTEMPTS", 5),
			BackoffSeconds:      getEnvAsInt("NOTIFY_BACKOFF_SECONDS", 30),
		},
	}

	if cfg.App.Env == "production" {
		if cfg.Auth.JWTSecret == "dev-secret" || cfg.Auth.RefreshSecret == "dev-refresh-secret" {
			return nil, fmt.Errorf("AUTH_JWT_SECRET and AUTH_REFRESH_SECRET must be set in production")
		}
		if cfg.Auth.JWTSecret == cfg.Auth.RefreshSecret {
			return nil, fmt.Errorf("AUTH_JWT_SECRET and AUTH_REFRESH_SECRET must differ")
		}
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Window returns the limiter window.
func (r RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowMinutes) * time.Minute
}

// SweepInterval returns how often stale limiter keys are pruned.
func (r RateLimitConfig) SweepInterval() time.Duration {
	return time.Duration(r.SweepSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
