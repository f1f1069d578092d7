// Package tracking mints click-tracking links and counts their use.
//
// The redirect target is not stored server-side: it travels in the link's
// "to" query parameter and is trusted as-is when the link is followed. An id
// is only a counting bucket, so any id may be paired with any target.
package tracking

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/RobinCoderZhao/quicknews/internal/ledger"
)

// IDBytes is the number of random bytes in a tracking id (rendered as hex).
const IDBytes = 4

// ErrMissingTarget is returned when a link is created or followed without a
// redirect target.
var ErrMissingTarget = errors.New("missing redirect target")

// Link is a freshly minted tracking link.
type Link struct {
	ID        string `json:"id"`
	TrackLink string `json:"trackLink"`
}

// Service creates tracking links and records clicks in a ledger.
type Service struct {
	store  ledger.Store
	now    func() time.Time
	newID  func() (string, error)
	logger *slog.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces the random id source.
func WithIDGenerator(gen func() (string, error)) Option {
	return func(s *Service) { s.newID = gen }
}

// NewService creates a Service backed by store.
func NewService(store ledger.Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		now:    time.Now,
		newID:  NewID,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewID returns IDBytes cryptographically random bytes as lower-case hex.
func NewID() (string, error) {
	b := make([]byte, IDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// CreateLink mints an id, records a zero count for it under today's date
// and returns the redirect URL rooted at baseURL (scheme://host).
func (s *Service) CreateLink(ctx context.Context, baseURL, target string) (Link, error) {
	if target == "" {
		return Link{}, ErrMissingTarget
	}
	id, err := s.newID()
	if err != nil {
		return Link{}, err
	}
	if err := s.store.Ensure(ctx, ledger.DateKey(s.now()), id); err != nil {
		return Link{}, fmt.Errorf("record link %s: %w", id, err)
	}
	s.logger.Debug("tracking link created", "id", id)
	return Link{ID: id, TrackLink: RedirectURL(baseURL, id, target)}, nil
}

// Dereference counts a click on id under today's date and returns the
// target to redirect to. The ledger is left untouched when target is empty.
func (s *Service) Dereference(ctx context.Context, id, target string) (string, error) {
	if target == "" {
		return "", ErrMissingTarget
	}
	n, err := s.store.Increment(ctx, ledger.DateKey(s.now()), id)
	if err != nil {
		return "", fmt.Errorf("count click %s: %w", id, err)
	}
	s.logger.Debug("tracking link followed", "id", id, "count", n)
	return target, nil
}

// RedirectURL builds <baseURL>/r/<id>?to=<escaped target>.
func RedirectURL(baseURL, id, target string) string {
	return strings.TrimRight(baseURL, "/") + "/r/" + url.PathEscape(id) + "?to=" + url.QueryEscape(target)
}
