package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/m-mizutani/goerr/v2"
)

type Config struct {
	Addr              string `env:"APP_ADDR" envDefault:":8080"`
	Environment       string `env:"APP_ENV" envDefault:"development"`
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"`
	DatabaseURL       string `env:"DATABASE_URL"`
	MigrationsDir     string `env:"MIGRATIONS_DIR" envDefault:"migrations"`
	RunMigrations     bool   `env:"RUN_MIGRATIONS" envDefault:"true"`
	RunSeed           bool   `env:"RUN_SEED" envDefault:"true"`
	JWTSecret         string `env:"JWT_SECRET"`
	EncryptionKey     string `env:"DATA_ENCRYPTION_KEY"`
	SeedTenantName    string `env:"SEED_TENANT_NAME" envDefault:"Default Tenant"`
	SeedAdminEmail    string `env:"SEED_ADMIN_EMAIL"`
	SeedAdminPassword string `env:"SEED_ADMIN_PASSWORD"`

	TokenTTL      time.Duration `env:"TOKEN_TTL" envDefault:"1h"`
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string        `env:"REDIS_PREFIX" envDefault:"pto"`
	LeaveInfoTTL  time.Duration `env:"LEAVE_INFO_CACHE_TTL" envDefault:"5m"`
	LoadTimeout   time.Duration `env:"PTO_LOAD_TIMEOUT" envDefault:"10s"`
	SessionTTL    time.Duration `env:"PTO_SESSION_TTL" envDefault:"30m"`
	SweepInterval time.Duration `env:"PTO_SWEEP_INTERVAL" envDefault:"1m"`

	EmailFrom    string `env:"EMAIL_FROM" envDefault:"no-reply@example.com"`
	EmailEnabled bool   `env:"EMAIL_ENABLED" envDefault:"false"`
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPUseTLS   bool   `env:"SMTP_USE_TLS" envDefault:"true"`

	MaxBodyBytes       int64 `env:"MAX_BODY_BYTES" envDefault:"1048576"`
	RateLimitPerMinute int   `env:"RATE_LIMIT_PER_MINUTE" envDefault:"60"`
	MetricsEnabled     bool  `env:"METRICS_ENABLED" envDefault:"true"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("dotenv load failed", "err", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, goerr.Wrap(err, "failed to parse environment")
	}
	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) CacheEnabled() bool {
	return strings.TrimSpace(c.RedisAddr) != ""
}

func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.IsProduction() {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedAdminPassword) == "" {
			return fmt.Errorf("SEED_ADMIN_PASSWORD must be changed or RUN_SEED disabled in production")
		}
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.LoadTimeout <= 0 {
		return fmt.Errorf("PTO_LOAD_TIMEOUT must be positive")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("PTO_SESSION_TTL must be positive")
	}
	if c.EmailEnabled && c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST must be set when EMAIL_ENABLED is true")
	}
	return nil
}
