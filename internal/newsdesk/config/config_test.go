package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/RobinCoderZhao/quicknews/internal/ledger"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quicknews.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Server.Port != "3000" {
		t.Errorf("port = %s", cfg.Server.Port)
	}
	if cfg.Feeds.TTL != 8*time.Minute {
		t.Errorf("ttl = %s", cfg.Feeds.TTL)
	}
	if len(cfg.Feeds.URLs) != 12 {
		t.Errorf("expected 12 default feeds, got %d", len(cfg.Feeds.URLs))
	}
	if cfg.News.ListLimit != 20 || cfg.News.AskLimit != 6 {
		t.Errorf("limits = %d/%d", cfg.News.ListLimit, cfg.News.AskLimit)
	}
	if cfg.Ledger.Driver != ledger.DriverFile || cfg.Ledger.Path != "./data.json" {
		t.Errorf("ledger = %+v", cfg.Ledger)
	}
	if cfg.Admin.Enabled() {
		t.Error("admin auth should be off by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}

	cfg.Feeds.URLs[0] = "changed"
	if DefaultFeeds[0] == "changed" {
		t.Fatal("DefaultConfig must copy the feed list")
	}
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, `
server:
  port: "8080"
  public_base_url: https://news.example
feeds:
  urls:
    - https://a.example/rss
  ttl: 2m
ledger:
  driver: sqlite
  path: /tmp/ledger.db
schedule:
  summary: "0 23 * * *"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != "8080" || cfg.Server.PublicBaseURL != "https://news.example" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if len(cfg.Feeds.URLs) != 1 || cfg.Feeds.TTL != 2*time.Minute {
		t.Errorf("feeds = %+v", cfg.Feeds)
	}
	if cfg.Feeds.Timeout != 15*time.Second {
		t.Errorf("unset keys should keep defaults, timeout = %s", cfg.Feeds.Timeout)
	}
	if cfg.Ledger.Driver != ledger.DriverSQLite {
		t.Errorf("driver = %s", cfg.Ledger.Driver)
	}
	if cfg.Schedule.Summary != "0 23 * * *" {
		t.Errorf("schedule = %+v", cfg.Schedule)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != "3000" {
		t.Fatalf("port = %s", cfg.Server.Port)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("EMAIL_USER", "bot@example.com")
	t.Setenv("EMAIL_PASS", "app-password")
	t.Setenv("EMAIL_TO", "ops@example.com")
	t.Setenv("FEED_URLS", "https://x.example/rss, https://y.example/rss")
	t.Setenv("LEDGER_DRIVER", "redis")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("port = %s", cfg.Server.Port)
	}
	if cfg.Email.From != "bot@example.com" || cfg.Email.Password != "app-password" || cfg.Email.To != "ops@example.com" {
		t.Errorf("email = %+v", cfg.Email)
	}
	if !cfg.Email.Enabled() {
		t.Error("email should be enabled")
	}
	if len(cfg.Feeds.URLs) != 2 || cfg.Feeds.URLs[1] != "https://y.example/rss" {
		t.Errorf("feeds = %v", cfg.Feeds.URLs)
	}
	if cfg.Ledger.Driver != ledger.DriverRedis {
		t.Errorf("driver = %s", cfg.Ledger.Driver)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no feeds", func(c *Config) { c.Feeds.URLs = nil }},
		{"zero ttl", func(c *Config) { c.Feeds.TTL = 0 }},
		{"zero limit", func(c *Config) { c.News.AskLimit = 0 }},
		{"secret without hash", func(c *Config) { c.Admin.JWTSecret = "s" }},
		{"bad timezone", func(c *Config) { c.Schedule.Timezone = "Mars/Olympus" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	cfg := DefaultConfig()
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug, "WARN": slog.LevelWarn, "error": slog.LevelError, "": slog.LevelInfo,
	} {
		cfg.Log.Level = in
		if got := cfg.SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
