package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Listen != ":8080" {
		t.Errorf("expected :8080, got %s", cfg.Listen)
	}
	if cfg.Cache.TTL != time.Minute {
		t.Errorf("expected 1m TTL, got %v", cfg.Cache.TTL)
	}
	if cfg.ActivityDBPath() != cfg.DBPath {
		t.Errorf("expected activity db to default to %s, got %s", cfg.DBPath, cfg.ActivityDBPath())
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_DB_DIR", "/var/lib/internhub")

	content := `
listen: ":9090"
db_path: "${TEST_DB_DIR}/main.db"
log_level: debug
fetch_timeout: 3s
cache:
  ttl: 30s
  single_flight: true
activity:
  enabled: true
  db_path: activity.db
  retention_days: 7
`
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Listen != ":9090" {
		t.Errorf("expected :9090, got %s", cfg.Listen)
	}
	if cfg.DBPath != "/var/lib/internhub/main.db" {
		t.Errorf("env var not expanded: got %s", cfg.DBPath)
	}
	if cfg.FetchTimeout != 3*time.Second {
		t.Errorf("expected 3s fetch timeout, got %v", cfg.FetchTimeout)
	}
	if cfg.Cache.TTL != 30*time.Second {
		t.Errorf("expected 30s TTL, got %v", cfg.Cache.TTL)
	}
	if !cfg.Cache.SingleFlight {
		t.Error("expected single flight enabled")
	}
	if cfg.ActivityDBPath() != "activity.db" {
		t.Errorf("expected activity.db, got %s", cfg.ActivityDBPath())
	}
	if cfg.Activity.RetentionDays != 7 {
		t.Errorf("expected 7 retention days, got %d", cfg.Activity.RetentionDays)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != ":8080" {
		t.Errorf("expected defaults, got %s", cfg.Listen)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("INTERNHUB_LISTEN", ":7070")
	t.Setenv("INTERNHUB_CACHE_TTL", "45s")
	t.Setenv("INTERNHUB_CACHE_SINGLE_FLIGHT", "true")
	t.Setenv("INTERNHUB_ACTIVITY_RETENTION_DAYS", "3")

	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != ":7070" {
		t.Errorf("expected :7070, got %s", cfg.Listen)
	}
	if cfg.Cache.TTL != 45*time.Second {
		t.Errorf("expected 45s TTL, got %v", cfg.Cache.TTL)
	}
	if !cfg.Cache.SingleFlight {
		t.Error("expected single flight from env")
	}
	if cfg.Activity.RetentionDays != 3 {
		t.Errorf("expected 3 retention days, got %d", cfg.Activity.RetentionDays)
	}
	if cfg.DBPath != "internhub.db" {
		t.Errorf("unset variables must keep defaults, got %s", cfg.DBPath)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("INTERNHUB_LOG_LEVEL", "warn")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("log_level: debug\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("expected env to win over file, got %s", cfg.LogLevel)
	}
}

func TestEnvInvalid(t *testing.T) {
	t.Setenv("INTERNHUB_FETCH_TIMEOUT", "soon")
	if _, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for malformed duration")
	}
}
