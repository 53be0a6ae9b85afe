package config_test

import (
	"testing"

	"github.com/civicsync/backend/internal/config"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_PATH", "/tmp/civicsync.db")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.AllowedOrigin != "*" {
		t.Fatalf("expected default origin *, got %q", cfg.AllowedOrigin)
	}
	if cfg.BcryptCost != 12 {
		t.Fatalf("expected default bcrypt cost 12, got %d", cfg.BcryptCost)
	}
	if cfg.DatabasePath != "/tmp/civicsync.db" {
		t.Fatalf("unexpected database path %q", cfg.DatabasePath)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_PATH", "/tmp/civicsync.db")
	t.Setenv("JWT_SECRET", "")

	if _, err := config.Load(); err == nil {
		t.Fatal("expected an error when JWT_SECRET is unset")
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9000")
	t.Setenv("ALLOWED_ORIGIN", "https://app.example.com")
	t.Setenv("BCRYPT_COST", "10")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9000" || cfg.AllowedOrigin != "https://app.example.com" || cfg.BcryptCost != 10 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoad_BcryptCostBounds(t *testing.T) {
	for _, cost := range []string{"3", "15"} {
		t.Run(cost, func(t *testing.T) {
			setRequired(t)
			t.Setenv("BCRYPT_COST", cost)

			if _, err := config.Load(); err == nil {
				t.Fatalf("expected an error for BCRYPT_COST=%s", cost)
			}
		})
	}
}
