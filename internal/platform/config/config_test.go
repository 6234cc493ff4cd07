package config

import (
	"log/slog"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		DatabaseURL:        "postgres://localhost/pto",
		Environment:        "development",
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 60,
		LoadTimeout:        10 * time.Second,
		SessionTTL:         30 * time.Minute,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing database url", mutate: func(c *Config) { c.DatabaseURL = " " }, wantErr: true},
		{name: "production without jwt secret", mutate: func(c *Config) { c.Environment = "production"; c.RunSeed = false }, wantErr: true},
		{name: "production seed without password", mutate: func(c *Config) {
			c.Environment = "production"
			c.JWTSecret = "s3cret"
			c.RunSeed = true
		}, wantErr: true},
		{name: "production ok", mutate: func(c *Config) {
			c.Environment = "production"
			c.JWTSecret = "s3cret"
			c.RunSeed = false
		}},
		{name: "tiny body limit", mutate: func(c *Config) { c.MaxBodyBytes = 10 }, wantErr: true},
		{name: "zero rate limit", mutate: func(c *Config) { c.RateLimitPerMinute = 0 }, wantErr: true},
		{name: "zero load timeout", mutate: func(c *Config) { c.LoadTimeout = 0 }, wantErr: true},
		{name: "zero session ttl", mutate: func(c *Config) { c.SessionTTL = 0 }, wantErr: true},
		{name: "email without smtp host", mutate: func(c *Config) { c.EmailEnabled = true }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/pto")
	t.Setenv("PTO_LOAD_TIMEOUT", "3s")
	t.Setenv("REDIS_ADDR", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.DatabaseURL != "postgres://localhost/pto" {
		t.Fatalf("expected database url from env, got %q", cfg.DatabaseURL)
	}
	if cfg.LoadTimeout != 3*time.Second {
		t.Fatalf("expected 3s load timeout, got %v", cfg.LoadTimeout)
	}
	if cfg.LeaveInfoTTL != 5*time.Minute {
		t.Fatalf("expected 5m cache ttl, got %v", cfg.LeaveInfoTTL)
	}
	if cfg.CacheEnabled() {
		t.Fatal("cache should be disabled without REDIS_ADDR")
	}
}

func TestSlogLevel(t *testing.T) {
	if (Config{LogLevel: "DEBUG"}).SlogLevel() != slog.LevelDebug {
		t.Fatal("expected debug level")
	}
	if (Config{LogLevel: "bogus"}).SlogLevel() != slog.LevelInfo {
		t.Fatal("expected info fallback")
	}
}
