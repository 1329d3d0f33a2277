package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"CONFIG_FILE", "DB_PATH", "GRPC_ADDRESS", "HTTP_ADDRESS", "JWT_SECRET",
		"REDIS_ADDR", "SCHEDULE_OPENING_HOUR", "SCHEDULE_CLOSING_HOUR", "SCHEDULE_SLOT_MINUTES",
		"SCHEDULE_REVIEW_THRESHOLD", "SCHEDULE_TIMEZONE"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadWithDefaults_Succeeds(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadWithDefaults()
	if err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}
	if cfg.GRPC.Address == "" || cfg.Database.Path == "" || cfg.Auth.JWTSecret == "" {
		t.Fatalf("unexpected empty defaults: %+v", cfg)
	}
	if cfg.Schedule.OpeningHour != 8 || cfg.Schedule.ClosingHour != 18 || cfg.Schedule.SlotMinutes != 15 {
		t.Fatalf("unexpected operating day: %+v", cfg.Schedule)
	}
	if cfg.Schedule.ReviewThreshold != 80 {
		t.Fatalf("review threshold = %d", cfg.Schedule.ReviewThreshold)
	}
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_PATH", "test.db")
	t.Setenv("GRPC_ADDRESS", ":1234")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error when JWT_SECRET is not set")
	}
	// When set, it should succeed
	t.Setenv("JWT_SECRET", "x")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load with secret set: %v", err)
	}
	if cfg.Database.Path != "test.db" || cfg.GRPC.Address != ":1234" {
		t.Fatalf("env not applied: %+v", cfg)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
database:
  path: from-file.db
schedule:
  opening_hour: 6
  closing_hour: 14
redis:
  lock_ttl: 2s
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SCHEDULE_CLOSING_HOUR", "16")

	cfg, err := LoadWithDefaults()
	if err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}
	if cfg.Database.Path != "from-file.db" {
		t.Fatalf("file value not applied: %s", cfg.Database.Path)
	}
	if cfg.Schedule.OpeningHour != 6 || cfg.Schedule.ClosingHour != 16 {
		t.Fatalf("env must override file: %+v", cfg.Schedule)
	}
	if cfg.Redis.LockTTL != 2*time.Second {
		t.Fatalf("lock ttl = %v", cfg.Redis.LockTTL)
	}
	if cfg.Schedule.SlotMinutes != 15 {
		t.Fatalf("default lost: %d", cfg.Schedule.SlotMinutes)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"SCHEDULE_OPENING_HOUR": "x",
		"SCHEDULE_CLOSING_HOUR": "7",
		"SCHEDULE_SLOT_MINUTES": "7",
		"SCHEDULE_TIMEZONE":     "Mars/Olympus",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, val)
			if _, err := LoadWithDefaults(); err == nil {
				t.Fatalf("expected error for %s=%s", key, val)
			}
		})
	}
}

func TestString_MasksSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "super-secret")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(cfg.String(), "super-secret") {
		t.Fatalf("secret leaked: %s", cfg.String())
	}
}
