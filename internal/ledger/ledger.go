// Package ledger stores click counts partitioned by calendar date.
//
// A Ledger is always read and written as a whole. Backends differ in how
// they make the read-modify-write of Ensure and Increment safe; see each
// Store implementation.
package ledger

import (
	"context"
	"errors"
	"maps"
	"slices"
	"time"
)

// DateLayout is the ISO calendar date used for ledger keys.
const DateLayout = "2006-01-02"

// ErrWrite marks failures on the write path. Callers surface these instead
// of silently losing a click.
var ErrWrite = errors.New("ledger write failed")

// Ledger maps an ISO date to the click count of every tracking id seen on
// that date.
type Ledger map[string]map[string]int64

// DateKey returns the ledger key for t, using the UTC calendar date.
func DateKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// Clone returns a deep copy. Cloning nil yields an empty ledger.
func (l Ledger) Clone() Ledger {
	out := make(Ledger, len(l))
	for date, day := range l {
		out[date] = maps.Clone(day)
		if out[date] == nil {
			out[date] = map[string]int64{}
		}
	}
	return out
}

// Ensure creates a zero counter for (date, id) unless one exists.
func (l Ledger) Ensure(date, id string) {
	day := l.day(date)
	if _, ok := day[id]; !ok {
		day[id] = 0
	}
}

// Increment adds one click to (date, id) and returns the new count.
func (l Ledger) Increment(date, id string) int64 {
	day := l.day(date)
	day[id]++
	return day[id]
}

func (l Ledger) day(date string) map[string]int64 {
	day := l[date]
	if day == nil {
		day = map[string]int64{}
		l[date] = day
	}
	return day
}

// Total returns the sum of all counts recorded on date.
func (l Ledger) Total(date string) int64 {
	var total int64
	for _, n := range l[date] {
		total += n
	}
	return total
}

// Unique returns the number of distinct ids recorded on date.
func (l Ledger) Unique(date string) int {
	return len(l[date])
}

// Dates returns the ledger's dates in ascending order.
func (l Ledger) Dates() []string {
	return slices.Sorted(maps.Keys(l))
}

// Store persists a Ledger.
type Store interface {
	// Read loads the whole ledger. Missing or unreadable state yields an
	// empty ledger, never an error.
	Read(ctx context.Context) Ledger
	// Write replaces the persisted ledger with l.
	Write(ctx context.Context, l Ledger) error
	// Ensure records a zero count for (date, id) if none exists.
	Ensure(ctx context.Context, date, id string) error
	// Increment adds one to (date, id), creating it if needed, and returns
	// the new count.
	Increment(ctx context.Context, date, id string) (int64, error)
	Close() error
}
