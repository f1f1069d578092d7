package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/RobinCoderZhao/quicknews/internal/newsdesk/config"
	"github.com/RobinCoderZhao/quicknews/pkg/notify"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Ledger.Path = filepath.Join(t.TempDir(), "data.json")
	return cfg
}

func TestNewDispatcher(t *testing.T) {
	cfg := testConfig(t)
	if chs := newDispatcher(cfg).Channels(); len(chs) != 0 {
		t.Fatalf("nothing configured, got %v", chs)
	}

	cfg.Email.From = "bot@example.com"
	cfg.Email.To = "ops@example.com"
	cfg.Webhook.URL = "https://hooks.example/summary"
	cfg.Telegram.BotToken = "tok"
	chs := newDispatcher(cfg).Channels()
	if len(chs) != 2 || chs[0] != notify.ChannelEmail || chs[1] != notify.ChannelWebhook {
		t.Fatalf("telegram needs a channel id too, got %v", chs)
	}
}

func TestNewScheduler(t *testing.T) {
	cfg := testConfig(t)
	cfg.Schedule.Summary = "0 23 * * *"
	cfg.Schedule.Warmup = "@every 7m"

	a, err := newApp(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	s, err := a.newScheduler()
	if err != nil {
		t.Fatal(err)
	}
	jobs := s.Jobs()
	if len(jobs) != 2 || jobs[0].Name != "click-summary" || jobs[1].Name != "feed-warmup" {
		t.Fatalf("unexpected jobs: %+v", jobs)
	}
}

func TestNewScheduler_BadSpec(t *testing.T) {
	cfg := testConfig(t)
	cfg.Schedule.Summary = "whenever"

	a, err := newApp(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	if _, err := a.newScheduler(); err == nil {
		t.Fatal("expected invalid cron expression to fail")
	}
}
