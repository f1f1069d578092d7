// Package feeds fetches syndication documents from many sources concurrently,
// normalizes their entries and keeps a freshness-ordered, time-bounded cache
// of the merged result.
package feeds

import (
	"cmp"
	"slices"
	"time"
)

// Item is a normalized feed entry. Items are never mutated after a fetch.
type Item struct {
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	PublishedAt *time.Time `json:"pubDate"`
	Description string     `json:"description"`
	Source      string     `json:"source"`
}

// Millis returns the publication time in Unix milliseconds, or 0 when the
// entry carried no usable timestamp.
func (it Item) Millis() int64 {
	if it.PublishedAt == nil {
		return 0
	}
	return it.PublishedAt.UnixMilli()
}

// SortByRecency orders items newest first. Items without a timestamp sort
// last and ties keep their input order.
func SortByRecency(items []Item) {
	slices.SortStableFunc(items, func(a, b Item) int {
		return cmp.Compare(b.Millis(), a.Millis())
	})
}
