// Package config holds the news service configuration.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/RobinCoderZhao/quicknews/internal/feeds"
	"github.com/RobinCoderZhao/quicknews/internal/ledger"
	"github.com/RobinCoderZhao/quicknews/internal/rank"
	appconfig "github.com/RobinCoderZhao/quicknews/pkg/config"
	"github.com/RobinCoderZhao/quicknews/pkg/notify"
)

// DefaultPath is the config file read when --config is not given.
const DefaultPath = "quicknews.yaml"

// DefaultFeeds are the English and Hindi sources aggregated out of the box.
var DefaultFeeds = []string{
	"https://feeds.bbci.co.uk/news/rss.xml",
	"https://timesofindia.indiatimes.com/rssfeedstopstories.cms",
	"https://www.thehindu.com/news/rssfeedfrontpage.xml",
	"https://indianexpress.com/section/india/feed/",
	"https://in.reuters.com/rssFeed/topNews",
	"https://www.hindustantimes.com/rss/topnews/rssfeed.xml",
	"https://www.ndtv.com/rss",
	"https://www.indiatoday.in/rss/home",
	"https://khabar.ndtv.com/rss?cat=India",
	"https://aajtak.intoday.in/rss/0/0/top-stories.xml",
	"https://www.jagran.com/rss/home.xml",
	"https://www.bhaskar.com/rss-feed",
}

// Config is the complete service configuration.
type Config struct {
	Server   ServerConfig          `yaml:"server"`
	Log      LogConfig             `yaml:"log"`
	Feeds    FeedsConfig           `yaml:"feeds"`
	News     NewsConfig            `yaml:"news"`
	Ledger   ledger.Config         `yaml:"ledger"`
	Stats    StatsConfig           `yaml:"stats"`
	Email    notify.EmailConfig    `yaml:"email"`
	Webhook  notify.WebhookConfig  `yaml:"webhook"`
	Telegram notify.TelegramConfig `yaml:"telegram"`
	Schedule ScheduleConfig        `yaml:"schedule"`
	Admin    AdminConfig           `yaml:"admin"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port string `yaml:"port" env:"PORT"`
	// PublicBaseURL prefixes tracking links. Empty means derive it from
	// each request.
	PublicBaseURL   string        `yaml:"public_base_url" env:"PUBLIC_BASE_URL"`
	CORSOrigin      string        `yaml:"cors_origin" env:"CORS_ORIGIN"`
	RateLimit       int           `yaml:"rate_limit" env:"RATE_LIMIT"` // tracking requests per IP per minute, 0 = off
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`   // debug, info, warn, error
	Format string `yaml:"format" env:"LOG_FORMAT"` // text, json
}

// FeedsConfig configures fetching and caching.
type FeedsConfig struct {
	URLs         []string      `yaml:"urls" env:"FEED_URLS"`
	TTL          time.Duration `yaml:"ttl" env:"FEEDS_TTL"`
	Timeout      time.Duration `yaml:"timeout" env:"FEEDS_TIMEOUT"`
	Concurrency  int           `yaml:"concurrency" env:"FEEDS_CONCURRENCY"`
	HostInterval time.Duration `yaml:"host_interval" env:"FEEDS_HOST_INTERVAL"`
	UserAgent    string        `yaml:"user_agent" env:"FEEDS_USER_AGENT"`
}

// NewsConfig sets result sizes.
type NewsConfig struct {
	ListLimit int `yaml:"list_limit" env:"NEWS_LIST_LIMIT"`
	AskLimit  int `yaml:"ask_limit" env:"NEWS_ASK_LIMIT"`
}

// StatsConfig shapes the /stats response.
type StatsConfig struct {
	IncludeUptime bool `yaml:"include_uptime" env:"STATS_INCLUDE_UPTIME"`
}

// ScheduleConfig holds cron expressions; empty disables a job.
type ScheduleConfig struct {
	Summary  string `yaml:"summary" env:"SCHEDULE_SUMMARY"`
	Warmup   string `yaml:"warmup" env:"SCHEDULE_WARMUP"`
	Timezone string `yaml:"timezone" env:"SCHEDULE_TZ"`
}

// AdminConfig protects the stats and summary routes when JWTSecret is set.
type AdminConfig struct {
	Username     string        `yaml:"username" env:"ADMIN_USERNAME"`
	PasswordHash string        `yaml:"password_hash" env:"ADMIN_PASSWORD_HASH"`
	JWTSecret    string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	TokenTTL     time.Duration `yaml:"token_ttl" env:"ADMIN_TOKEN_TTL"`
}

// Enabled reports whether admin routes require a token.
func (a AdminConfig) Enabled() bool {
	return a.JWTSecret != ""
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:            "3000",
			CORSOrigin:      "*",
			ShutdownTimeout: 5 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "text"},
		Feeds: FeedsConfig{
			URLs:      append([]string(nil), DefaultFeeds...),
			TTL:       feeds.DefaultTTL,
			Timeout:   feeds.DefaultTimeout,
			UserAgent: feeds.DefaultUserAgent,
		},
		News: NewsConfig{
			ListLimit: rank.ListLimit,
			AskLimit:  rank.AskLimit,
		},
		Ledger: ledger.Config{
			Driver: ledger.DriverFile,
			Path:   "./data.json",
		},
		Email: notify.EmailConfig{
			SMTPHost: "smtp.gmail.com",
			SMTPPort: "587",
			FromName: "Quick NewsGPT",
		},
		Admin: AdminConfig{
			Username: "admin",
			TokenTTL: 24 * time.Hour,
		},
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = DefaultPath
	}
	if err := appconfig.LoadOrDefault(path, &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c Config) Validate() error {
	if len(c.Feeds.URLs) == 0 {
		return fmt.Errorf("feeds.urls: at least one feed is required")
	}
	if c.Feeds.TTL <= 0 {
		return fmt.Errorf("feeds.ttl must be positive, got %s", c.Feeds.TTL)
	}
	if c.News.ListLimit <= 0 || c.News.AskLimit <= 0 {
		return fmt.Errorf("news limits must be positive")
	}
	if c.Admin.Enabled() && c.Admin.PasswordHash == "" {
		return fmt.Errorf("admin.jwt_secret is set but admin.password_hash is empty")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Schedule.Timezone, defaulting to UTC.
func (c Config) Location() (*time.Location, error) {
	if c.Schedule.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("schedule.timezone: %w", err)
	}
	return loc, nil
}

// SlogLevel maps Log.Level to a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
