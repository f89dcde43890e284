package config

import (
	"testing"
	"time"
)

func setAll(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/db")
	t.Setenv("REDIS_ADDRESS", "localhost:6379")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ACCESS_TOKEN_TTL", "2m")
	t.Setenv("REFRESH_TOKEN_TTL", "3h")
	t.Setenv("RESET_TOKEN_TTL", "10m")
	t.Setenv("JWT_ISSUER", "jobfolio-auth")
	t.Setenv("JWT_AUDIENCE", "jobfolio-api")
	t.Setenv("PASSWORD_PEPPER", "pepper")
	t.Setenv("SMTP_HOST", "localhost")
	t.Setenv("SMTP_FROM", "no-reply@jobfolio.local")
}

func TestLoad_Success(t *testing.T) {
	setAll(t)
	t.Setenv("ALLOWED_ORIGINS", "https://app.jobfolio.io")
	t.Setenv("ALLOW_CREDENTIALS", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.AccessTokenTTL != 2*time.Minute {
		t.Fatalf("AccessTokenTTL want 2m, got %v", cfg.AccessTokenTTL)
	}
	if cfg.RefreshTokenTTL != 3*time.Hour {
		t.Fatalf("RefreshTokenTTL want 3h, got %v", cfg.RefreshTokenTTL)
	}
	if cfg.ResetTokenTTL != 10*time.Minute {
		t.Fatalf("ResetTokenTTL want 10m, got %v", cfg.ResetTokenTTL)
	}
	if !cfg.RefreshRotation {
		t.Fatal("rotation should default to on")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setAll(t)
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error due to missing JWT_SECRET, got nil")
	}
}
