// Package api provides the HTTP surface of the news service.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/RobinCoderZhao/quicknews/internal/feeds"
	"github.com/RobinCoderZhao/quicknews/internal/ledger"
	"github.com/RobinCoderZhao/quicknews/internal/newsdesk/config"
	"github.com/RobinCoderZhao/quicknews/internal/rank"
	"github.com/RobinCoderZhao/quicknews/internal/summary"
	"github.com/RobinCoderZhao/quicknews/internal/tracking"
)

// NewsSource serves the aggregated, recency-sorted item list.
type NewsSource interface {
	Items(ctx context.Context) []feeds.Item
	Snapshot() feeds.Snapshot
}

// Summarizer sends today's click summary.
type Summarizer interface {
	Send(ctx context.Context) (summary.Summary, error)
}

// Options tunes the server. Zero values fall back to the service defaults.
type Options struct {
	PublicBaseURL string
	CORSOrigin    string
	ListLimit     int
	AskLimit      int
	IncludeUptime bool
	RateLimit     int // tracking requests per client IP per minute, 0 is off
	Admin         config.AdminConfig
	Started       time.Time
}

// OptionsFromConfig maps the service configuration onto Options.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		PublicBaseURL: cfg.Server.PublicBaseURL,
		CORSOrigin:    cfg.Server.CORSOrigin,
		ListLimit:     cfg.News.ListLimit,
		AskLimit:      cfg.News.AskLimit,
		IncludeUptime: cfg.Stats.IncludeUptime,
		RateLimit:     cfg.Server.RateLimit,
		Admin:         cfg.Admin,
	}
}

// Server holds the dependencies for the API.
type Server struct {
	news    NewsSource
	tracker *tracking.Service
	store   ledger.Store
	summary Summarizer
	opts    Options
	now     func() time.Time
	logger  *slog.Logger
	jwtKey  []byte
}

// NewServer creates a new API Server instance.
func NewServer(news NewsSource, tracker *tracking.Service, store ledger.Store, sum Summarizer, opts Options) *Server {
	if opts.ListLimit <= 0 {
		opts.ListLimit = rank.ListLimit
	}
	if opts.AskLimit <= 0 {
		opts.AskLimit = rank.AskLimit
	}
	if opts.CORSOrigin == "" {
		opts.CORSOrigin = "*"
	}
	if opts.Started.IsZero() {
		opts.Started = time.Now()
	}
	return &Server{
		news:    news,
		tracker: tracker,
		store:   store,
		summary: sum,
		opts:    opts,
		now:     time.Now,
		logger:  slog.Default(),
		jwtKey:  []byte(opts.Admin.JWTSecret),
	}
}

// Routes returns the configured http.Handler for the API, CORS included.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot())
	mux.HandleFunc("GET /health", s.handleHealth())

	// News
	mux.HandleFunc("GET /news", s.handleNews())
	mux.HandleFunc("POST /ask", s.handleAsk())

	// Tracking
	mux.Handle("GET /r/{id}", s.rateLimit(s.opts.RateLimit, s.handleRedirect()))
	mux.Handle("POST /create-link", s.rateLimit(s.opts.RateLimit, s.handleCreateLink()))

	// Admin
	mux.Handle("GET /stats", s.requireAdmin(s.handleStats()))
	mux.Handle("GET /send-summary", s.requireAdmin(s.handleSendSummary()))
	if s.opts.Admin.Enabled() {
		mux.HandleFunc("POST /admin/login", s.handleAdminLogin())
	}

	return s.cors(mux)
}

// cors mirrors the permissive defaults of the public API: every route,
// any configured origin, preflights answered directly.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", s.opts.CORSOrigin)
		if s.opts.CORSOrigin != "*" {
			h.Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			h.Set("Access-Control-Allow-Methods", "GET,HEAD,PUT,PATCH,POST,DELETE")
			if req := r.Header.Get("Access-Control-Request-Headers"); req != "" {
				h.Set("Access-Control-Allow-Headers", req)
			} else {
				h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// baseURL is the scheme://host tracking links are rooted at.
func (s *Server) baseURL(r *http.Request) string {
	if s.opts.PublicBaseURL != "" {
		return s.opts.PublicBaseURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func (s *Server) uptime() float64 {
	return s.now().Sub(s.opts.Started).Seconds()
}

// --- Helpers ---

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(text))
}

// stringField decodes a JSON object body and returns the named field when
// it is a string. Missing bodies, other types and null yield "".
func stringField(r *http.Request, name string) string {
	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return ""
	}
	raw, ok := body[name]
	if !ok {
		return ""
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	return v
}
