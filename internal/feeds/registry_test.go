package feeds

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type stubFetcher struct {
	mu     sync.Mutex
	calls  int
	items  map[string][]Item
	errs   map[string]error
	panics map[string]bool
}

func (s *stubFetcher) Fetch(ctx context.Context, src string) ([]Item, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.panics[src] {
		panic("parser exploded")
	}
	if err := s.errs[src]; err != nil {
		return []Item{{Title: "partial"}}, err
	}
	return s.items[src], nil
}

func (s *stubFetcher) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func at(sec int64) *time.Time {
	t := time.Unix(sec, 0).UTC()
	return &t
}

func TestRegistry_FetchAll_IsolatesFailures(t *testing.T) {
	f := &stubFetcher{
		items: map[string][]Item{
			"a": {{Title: "a1", PublishedAt: at(100)}},
			"d": {{Title: "d1", PublishedAt: at(300)}},
		},
		errs:   map[string]error{"b": errors.New("dns failure")},
		panics: map[string]bool{"c": true},
	}
	reg := NewRegistry(f, []string{"a", "b", "c", "d"}, 2)

	results := reg.FetchAll(context.Background())
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for i, src := range []string{"a", "b", "c", "d"} {
		if results[i].Source != src {
			t.Fatalf("result %d: expected source %s, got %s", i, src, results[i].Source)
		}
	}
	if results[1].Err == nil || results[1].Items != nil {
		t.Fatalf("expected failed source to contribute nothing, got %+v", results[1])
	}
	if results[2].Err == nil {
		t.Fatal("expected panic to be converted to error")
	}

	merged := Merge(results)
	if len(merged) != 2 {
		t.Fatalf("expected 2 merged items, got %d", len(merged))
	}
	if merged[0].Title != "d1" || merged[1].Title != "a1" {
		t.Fatalf("expected newest first, got %v, %v", merged[0].Title, merged[1].Title)
	}
}

func TestMerge_UndatedLastAndStable(t *testing.T) {
	results := []Result{
		{Source: "x", Items: []Item{{Title: "undated-x"}, {Title: "old", PublishedAt: at(10)}}},
		{Source: "y", Items: []Item{{Title: "undated-y"}, {Title: "new", PublishedAt: at(20)}, {Title: "tie", PublishedAt: at(10)}}},
		{Source: "z", Err: errors.New("down"), Items: []Item{{Title: "ignored", PublishedAt: at(99)}}},
	}

	merged := Merge(results)
	want := []string{"new", "old", "tie", "undated-x", "undated-y"}
	if len(merged) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(merged))
	}
	for i, title := range want {
		if merged[i].Title != title {
			t.Fatalf("position %d: expected %s, got %s", i, title, merged[i].Title)
		}
	}
}

func TestRegistry_Sources(t *testing.T) {
	src := []string{"a", "b"}
	reg := NewRegistry(&stubFetcher{}, src, 0)
	src[0] = "mutated"
	if got := reg.Sources(); got[0] != "a" {
		t.Fatalf("expected registry to own its source list, got %v", got)
	}
}
