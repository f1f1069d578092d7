package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/RobinCoderZhao/quicknews/internal/feeds"
	"github.com/RobinCoderZhao/quicknews/internal/ledger"
	"github.com/RobinCoderZhao/quicknews/internal/newsdesk/config"
	"github.com/RobinCoderZhao/quicknews/internal/scheduler"
	"github.com/RobinCoderZhao/quicknews/internal/summary"
	"github.com/RobinCoderZhao/quicknews/internal/tracking"
	"github.com/RobinCoderZhao/quicknews/pkg/notify"
)

// app wires the service components from a Config.
type app struct {
	cfg      config.Config
	registry *feeds.Registry
	cache    *feeds.Cache
	store    ledger.Store
	tracker  *tracking.Service
	notifier *notify.Dispatcher
	summary  *summary.Service
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	store, err := ledger.Open(ctx, cfg.Ledger)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	fetcher := feeds.NewFeedFetcher(feeds.FetcherOptions{
		Timeout:      cfg.Feeds.Timeout,
		UserAgent:    cfg.Feeds.UserAgent,
		HostInterval: cfg.Feeds.HostInterval,
	})
	registry := feeds.NewRegistry(fetcher, cfg.Feeds.URLs, cfg.Feeds.Concurrency)
	dispatcher := newDispatcher(cfg)

	return &app{
		cfg:      cfg,
		registry: registry,
		cache:    feeds.NewCache(registry, cfg.Feeds.TTL),
		store:    store,
		tracker:  tracking.NewService(store),
		notifier: dispatcher,
		summary:  summary.NewService(store, dispatcher, summary.WithProductName(cfg.Email.FromName)),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// newDispatcher registers every channel with enough configuration to send.
func newDispatcher(cfg config.Config) *notify.Dispatcher {
	d := notify.NewDispatcher()
	if cfg.Email.Enabled() {
		d.Register(notify.NewEmailNotifier(cfg.Email))
	}
	if cfg.Webhook.URL != "" {
		d.Register(notify.NewWebhookNotifier(cfg.Webhook))
	}
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChannelID != "" {
		d.Register(notify.NewTelegramNotifier(cfg.Telegram))
	}
	return d
}

// newScheduler registers the configured periodic jobs.
func (a *app) newScheduler() (*scheduler.Scheduler, error) {
	loc, err := a.cfg.Location()
	if err != nil {
		return nil, err
	}
	s := scheduler.New(loc)
	if spec := a.cfg.Schedule.Summary; spec != "" {
		err := s.Add(scheduler.Job{
			Name:     "click-summary",
			Schedule: spec,
			Fn: func(ctx context.Context) error {
				_, err := a.summary.Send(ctx)
				return err
			},
		})
		if err != nil {
			return nil, err
		}
	}
	if spec := a.cfg.Schedule.Warmup; spec != "" {
		err := s.Add(scheduler.Job{
			Name:     "feed-warmup",
			Schedule: spec,
			Fn: func(ctx context.Context) error {
				snap := a.cache.Refresh(ctx)
				if len(snap.Items) == 0 {
					return fmt.Errorf("warm-up produced no items")
				}
				return nil
			},
		})
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

// setupLogger installs the configured slog handler as the default.
func setupLogger(cfg config.Config, w io.Writer) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var h slog.Handler
	if strings.EqualFold(cfg.Log.Format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(h))
}

func withTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d)
}

var stderr io.Writer = os.Stderr
