package feeds

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/RobinCoderZhao/quicknews/pkg/htmltext"
	"github.com/mmcdole/gofeed"
)

const (
	// DefaultTimeout bounds a single source fetch, parse included.
	DefaultTimeout   = 15 * time.Second
	DefaultUserAgent = "QuickNews/1.0 (+https://github.com/RobinCoderZhao/quicknews)"
)

// Fetcher retrieves and normalizes the entries of one source.
type Fetcher interface {
	Fetch(ctx context.Context, sourceURL string) ([]Item, error)
}

// FetcherOptions configures a FeedFetcher.
type FetcherOptions struct {
	Timeout   time.Duration
	UserAgent string
	// HostInterval, when positive, allows one request per interval per host.
	HostInterval time.Duration
	Client       *http.Client
}

// FeedFetcher parses RSS, Atom and JSON Feed documents over HTTP.
type FeedFetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	limiter   *HostLimiter
}

// NewFeedFetcher creates a fetcher, filling unset options with defaults.
func NewFeedFetcher(opts FetcherOptions) *FeedFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	f := &FeedFetcher{
		client:    client,
		timeout:   opts.Timeout,
		userAgent: opts.UserAgent,
	}
	if opts.HostInterval > 0 {
		f.limiter = NewHostLimiter(opts.HostInterval)
	}
	return f
}

// Fetch downloads and parses sourceURL.
func (f *FeedFetcher) Fetch(ctx context.Context, sourceURL string) ([]Item, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, sourceURL); err != nil {
			return nil, fmt.Errorf("wait for host slot: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	fp := gofeed.NewParser()
	fp.Client = f.client
	fp.UserAgent = f.userAgent

	feed, err := fp.ParseURLWithContext(sourceURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", sourceURL, err)
	}
	return Normalize(feed, sourceURL), nil
}

// Normalize converts a parsed document into Items. The source label is the
// feed's declared title, or sourceURL when the feed has none.
func Normalize(feed *gofeed.Feed, sourceURL string) []Item {
	source := feed.Title
	if source == "" {
		source = sourceURL
	}

	items := make([]Item, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it == nil {
			continue
		}
		items = append(items, Item{
			Title:       it.Title,
			Link:        it.Link,
			PublishedAt: publishedAt(it),
			Description: describe(it),
			Source:      source,
		})
	}
	return items
}

// describe picks the first non-empty of: a plain-text snippet of the entry
// content, the summary, the raw content.
func describe(it *gofeed.Item) string {
	content := it.Content
	if content == "" {
		content = it.Description
	}
	if s := htmltext.Snippet(content); s != "" {
		return s
	}
	if it.Description != "" {
		return it.Description
	}
	return content
}

func publishedAt(it *gofeed.Item) *time.Time {
	var src *time.Time
	switch {
	case it.PublishedParsed != nil:
		src = it.PublishedParsed
	case it.UpdatedParsed != nil:
		src = it.UpdatedParsed
	default:
		return nil
	}
	t := *src
	return &t
}
