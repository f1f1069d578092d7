package feeds

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome of fetching one source: either Items or Err.
type Result struct {
	Source   string
	Items    []Item
	Err      error
	Duration time.Duration
}

// Registry holds the configured sources and fans fetches out across them.
type Registry struct {
	fetcher     Fetcher
	sources     []string
	concurrency int
	logger      *slog.Logger
}

// NewRegistry creates a registry. A concurrency of 0 or less fetches every
// source at once.
func NewRegistry(fetcher Fetcher, sources []string, concurrency int) *Registry {
	return &Registry{
		fetcher:     fetcher,
		sources:     append([]string(nil), sources...),
		concurrency: concurrency,
		logger:      slog.Default(),
	}
}

// Sources returns the configured source URLs.
func (r *Registry) Sources() []string {
	return append([]string(nil), r.sources...)
}

// FetchAll fetches every source and returns one Result per source, in
// source order. It blocks until all fetches have settled. A failing or
// panicking source yields a Result with Err set and never affects the others.
func (r *Registry) FetchAll(ctx context.Context) []Result {
	results := make([]Result, len(r.sources))

	var g errgroup.Group
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}
	for i, src := range r.sources {
		g.Go(func() error {
			results[i] = r.fetchOne(ctx, src)
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range results {
		if res.Err != nil {
			r.logger.Warn("feed fetch failed", "source", res.Source, "error", res.Err, "duration", res.Duration)
		}
	}
	return results
}

func (r *Registry) fetchOne(ctx context.Context, src string) (res Result) {
	start := time.Now()
	res.Source = src
	defer func() {
		if p := recover(); p != nil {
			res.Items = nil
			res.Err = fmt.Errorf("fetcher panic: %v", p)
		}
		res.Duration = time.Since(start)
	}()

	res.Items, res.Err = r.fetcher.Fetch(ctx, src)
	if res.Err != nil {
		res.Items = nil
	}
	return res
}

// Merge concatenates the items of every successful Result and sorts them
// newest first.
func Merge(results []Result) []Item {
	n := 0
	for _, res := range results {
		if res.Err == nil {
			n += len(res.Items)
		}
	}
	items := make([]Item, 0, n)
	for _, res := range results {
		if res.Err == nil {
			items = append(items, res.Items...)
		}
	}
	SortByRecency(items)
	return items
}
