// Package summary computes the daily click report from the ledger and hands
// it to the notification sink.
package summary

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/RobinCoderZhao/quicknews/internal/ledger"
	"github.com/RobinCoderZhao/quicknews/pkg/notify"
)

// ErrDelivery wraps failures of the notification sink.
var ErrDelivery = errors.New("summary delivery failed")

// DefaultTopLinks is how many of the busiest links the report lists.
const DefaultTopLinks = 5

// Summary is the click report for one date.
type Summary struct {
	Date   string             `json:"date"`
	Total  int64              `json:"total"`
	Unique int                `json:"unique"`
	Top    []notify.LinkCount `json:"-"`
}

// Sink delivers a rendered report.
type Sink interface {
	SendAll(ctx context.Context, msg notify.Message) error
}

// Service builds and sends summaries.
type Service struct {
	store     ledger.Store
	sink      Sink
	formatter *notify.ClickEmailFormatter
	now       func() time.Time
	topLinks  int
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithProductName sets the name shown in the report header and footer.
func WithProductName(name string) Option {
	return func(s *Service) { s.formatter = notify.NewClickEmailFormatter(name) }
}

// WithTopLinks sets how many links the report lists; 0 lists none.
func WithTopLinks(n int) Option {
	return func(s *Service) { s.topLinks = n }
}

func NewService(store ledger.Store, sink Sink, opts ...Option) *Service {
	s := &Service{
		store:     store,
		sink:      sink,
		formatter: notify.NewClickEmailFormatter(""),
		now:       time.Now,
		topLinks:  DefaultTopLinks,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns the ledger date key for the current time.
func (s *Service) Today() string {
	return ledger.DateKey(s.now())
}

// Compute reads the ledger and summarises date. Dates with no clicks give a
// zero summary.
func (s *Service) Compute(ctx context.Context, date string) Summary {
	l := s.store.Read(ctx)
	sum := Summary{
		Date:   date,
		Total:  l.Total(date),
		Unique: l.Unique(date),
	}
	if s.topLinks > 0 {
		sum.Top = topLinks(l[date], s.topLinks)
	}
	return sum
}

// Render produces the notification for sum.
func (s *Service) Render(sum Summary) notify.Message {
	return s.formatter.Format(notify.ClickSummaryData{
		Date:     sum.Date,
		Total:    sum.Total,
		Unique:   sum.Unique,
		TopLinks: sum.Top,
	})
}

// Send summarises today and delivers it. The summary is returned even when
// delivery fails.
func (s *Service) Send(ctx context.Context) (Summary, error) {
	return s.SendFor(ctx, s.Today())
}

// SendFor summarises date and delivers it.
func (s *Service) SendFor(ctx context.Context, date string) (Summary, error) {
	sum := s.Compute(ctx, date)
	if err := s.sink.SendAll(ctx, s.Render(sum)); err != nil {
		return sum, fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	s.logger.Info("click summary sent", "date", sum.Date, "total", sum.Total, "unique", sum.Unique)
	return sum, nil
}

// topLinks returns the n busiest ids of day, ties broken by id.
func topLinks(day map[string]int64, n int) []notify.LinkCount {
	out := make([]notify.LinkCount, 0, len(day))
	for id, clicks := range day {
		if clicks > 0 {
			out = append(out, notify.LinkCount{ID: id, Clicks: clicks})
		}
	}
	slices.SortFunc(out, func(a, b notify.LinkCount) int {
		if c := cmp.Compare(b.Clicks, a.Clicks); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
