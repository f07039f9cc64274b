package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	creds := filepath.Join(t.TempDir(), "credentials.json")
	if err := os.WriteFile(creds, []byte("{}"), 0o600); err != nil {
		t.Fatalf("writing credentials stub: %v", err)
	}

	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("DB_USER", "bot")
	t.Setenv("DB_PASS", "pw")
	t.Setenv("DB_NAME", "tasks")
	t.Setenv("GOOGLE_SHEETS_CREDENTIALS_FILE", creds)
	t.Setenv("GOOGLE_SHEETS_URL", "https://docs.google.com/spreadsheets/d/abc123/edit")
	t.Setenv("ADMIN_IDS", "1, 2,3")
	t.Setenv("MAX_RETRIES", "")
	t.Setenv("RETRY_DELAY", "")
	t.Setenv("CACHE_TTL", "")
	t.Setenv("PORT", "")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.MaxRetries != 3 || cfg.RetryDelay != 5*time.Second || cfg.CacheTTL != 300*time.Second {
		t.Fatalf("unexpected retry/cache defaults: %+v", cfg)
	}
	if len(cfg.AdminIDs) != 3 || cfg.AdminIDs[0] != 1 || cfg.AdminIDs[2] != 3 {
		t.Fatalf("unexpected admin ids: %v", cfg.AdminIDs)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BOT_TOKEN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing BOT_TOKEN")
	}
}

func TestLoad_MissingCredentialsFile(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GOOGLE_SHEETS_CREDENTIALS_FILE", "/nonexistent/credentials.json")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing credentials file")
	}
}

func TestLoad_BadAdminIDs(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ADMIN_IDS", "1,notanumber")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for malformed ADMIN_IDS")
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("MAX_RETRIES", "7")
	t.Setenv("RETRY_DELAY", "2")
	t.Setenv("CACHE_TTL", "60")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9000" || cfg.MaxRetries != 7 || cfg.RetryDelay != 2*time.Second || cfg.CacheTTL != time.Minute {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}
