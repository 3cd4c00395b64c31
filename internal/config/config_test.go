package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":8080" {
		t.Fatalf("unexpected listen: %s", cfg.Listen)
	}
	if len(cfg.Feeds) != len(DefaultFeeds) {
		t.Fatalf("want default feeds, got %v", cfg.Feeds)
	}
	if cfg.FeedTimeoutSeconds != 15 {
		t.Fatalf("unexpected feed timeout: %d", cfg.FeedTimeoutSeconds)
	}
	if cfg.TriggerSecret != "" && os.Getenv("BUZZMARKET_TRIGGER_SECRET") == "" {
		t.Fatal("trigger secret should default to empty")
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
listen: ":9090"
dbPath: "/tmp/test.db"
triggerSecret: "from-file"
feeds:
  - "https://example.com/a.xml"
feedTimeoutSeconds: 5
tickIntervalSeconds: 300
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("BUZZMARKET_TRIGGER_SECRET", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":9090" || cfg.DBPath != "/tmp/test.db" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.TriggerSecret != "from-env" {
		t.Fatalf("env must win over file, got %q", cfg.TriggerSecret)
	}
	if len(cfg.Feeds) != 1 || cfg.Feeds[0] != "https://example.com/a.xml" {
		t.Fatalf("unexpected feeds: %v", cfg.Feeds)
	}
	if cfg.TickInterval().Seconds() != 300 {
		t.Fatalf("unexpected tick interval: %v", cfg.TickInterval())
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("unexpected log level: %s", cfg.Log.Level)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("want error for missing config file")
	}
}
