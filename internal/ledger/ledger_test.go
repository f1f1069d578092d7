package ledger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestDateKey(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	// 02:00 IST on the 20th is still the 19th in UTC.
	got := DateKey(time.Date(2026, 10, 20, 2, 0, 0, 0, ist))
	if got != "2026-10-19" {
		t.Fatalf("expected UTC date, got %s", got)
	}
}

func TestLedger_Helpers(t *testing.T) {
	l := Ledger{}
	l.Ensure("2026-10-19", "a1b2c3d4")
	l.Increment("2026-10-19", "deadbeef")
	l.Increment("2026-10-19", "deadbeef")
	l.Ensure("2026-10-19", "deadbeef")
	l.Increment("2026-10-18", "cafebabe")

	if got := l["2026-10-19"]["a1b2c3d4"]; got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if got := l["2026-10-19"]["deadbeef"]; got != 2 {
		t.Fatalf("ensure must not reset a counter, got %d", got)
	}
	if got := l.Total("2026-10-19"); got != 2 {
		t.Fatalf("expected total 2, got %d", got)
	}
	if got := l.Unique("2026-10-19"); got != 2 {
		t.Fatalf("expected 2 unique ids, got %d", got)
	}
	if got := l.Total("2001-01-01"); got != 0 {
		t.Fatalf("expected 0 for unknown date, got %d", got)
	}
	if got := l.Dates(); !reflect.DeepEqual(got, []string{"2026-10-18", "2026-10-19"}) {
		t.Fatalf("unexpected dates: %v", got)
	}

	c := l.Clone()
	c.Increment("2026-10-19", "deadbeef")
	if l["2026-10-19"]["deadbeef"] != 2 {
		t.Fatal("clone shares state with original")
	}
}

func TestParse_Malformed(t *testing.T) {
	for _, in := range []string{"", "   ", "not json", "[]", "null", `{"2026-10-19": 5}`, `{"2026-10-19": {"x": "y"}}`} {
		l := Parse([]byte(in))
		if l == nil || len(l) != 0 {
			t.Errorf("Parse(%q): expected empty ledger, got %v", in, l)
		}
	}
}

func TestParse_NullDay(t *testing.T) {
	l := Parse([]byte(`{"2026-10-19": null}`))
	if l["2026-10-19"] == nil {
		t.Fatal("expected null day to become an empty map")
	}
}

// runStoreSuite checks the behaviour every backend must share.
func runStoreSuite(t *testing.T, open func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		s := open(t)
		l := s.Read(ctx)
		if l == nil || len(l) != 0 {
			t.Fatalf("expected empty ledger, got %v", l)
		}
	})

	t.Run("round trip", func(t *testing.T) {
		cases := []Ledger{
			{},
			{"2026-10-19": {}},
			{"2026-10-18": {"a1b2c3d4": 3}, "2026-10-19": {"a1b2c3d4": 0, "deadbeef": 7}},
		}
		for _, want := range cases {
			s := open(t)
			if err := s.Write(ctx, want); err != nil {
				t.Fatalf("write: %v", err)
			}
			if got := s.Read(ctx); !reflect.DeepEqual(got, want) {
				t.Fatalf("round trip mismatch: got %v, want %v", got, want)
			}
		}
	})

	t.Run("write replaces", func(t *testing.T) {
		s := open(t)
		if err := s.Write(ctx, Ledger{"2026-10-18": {"old": 1}}); err != nil {
			t.Fatal(err)
		}
		want := Ledger{"2026-10-19": {"new": 2}}
		if err := s.Write(ctx, want); err != nil {
			t.Fatal(err)
		}
		if got := s.Read(ctx); !reflect.DeepEqual(got, want) {
			t.Fatalf("expected full replace, got %v", got)
		}
	})

	t.Run("increment", func(t *testing.T) {
		s := open(t)
		const n = 5
		for i := 1; i <= n; i++ {
			got, err := s.Increment(ctx, "2026-10-19", "deadbeef")
			if err != nil {
				t.Fatal(err)
			}
			if got != int64(i) {
				t.Fatalf("increment %d returned %d", i, got)
			}
		}
		if got := s.Read(ctx)["2026-10-19"]["deadbeef"]; got != n {
			t.Fatalf("expected %d, got %d", n, got)
		}
	})

	t.Run("ensure", func(t *testing.T) {
		s := open(t)
		if err := s.Ensure(ctx, "2026-10-19", "a1b2c3d4"); err != nil {
			t.Fatal(err)
		}
		day, ok := s.Read(ctx)["2026-10-19"]
		if !ok {
			t.Fatal("expected date entry")
		}
		if n, ok := day["a1b2c3d4"]; !ok || n != 0 {
			t.Fatalf("expected zero entry, got %d (present=%v)", n, ok)
		}

		if _, err := s.Increment(ctx, "2026-10-19", "a1b2c3d4"); err != nil {
			t.Fatal(err)
		}
		if err := s.Ensure(ctx, "2026-10-19", "a1b2c3d4"); err != nil {
			t.Fatal(err)
		}
		if got := s.Read(ctx)["2026-10-19"]["a1b2c3d4"]; got != 1 {
			t.Fatalf("ensure reset the counter to %d", got)
		}
	})

	t.Run("concurrent increments", func(t *testing.T) {
		s := open(t)
		const workers = 20
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := s.Increment(ctx, "2026-10-19", "hot"); err != nil {
					t.Error(err)
				}
			}()
		}
		wg.Wait()
		if got := s.Read(ctx)["2026-10-19"]["hot"]; got != workers {
			t.Fatalf("expected %d, got %d", workers, got)
		}
	})
}

func TestFileStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store {
		return NewFileStore(filepath.Join(t.TempDir(), "data.json"))
	})
}

func TestFileStore_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte("{corrupt"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewFileStore(path)
	if l := s.Read(context.Background()); len(l) != 0 {
		t.Fatalf("expected empty ledger, got %v", l)
	}

	// Writes recover the file.
	if _, err := s.Increment(context.Background(), "2026-10-19", "x"); err != nil {
		t.Fatal(err)
	}
	if got := s.Read(context.Background())["2026-10-19"]["x"]; got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
}

func TestFileStore_UnreadablePath(t *testing.T) {
	s := NewFileStore(t.TempDir())
	if l := s.Read(context.Background()); len(l) != 0 {
		t.Fatalf("expected empty ledger for a directory path, got %v", l)
	}
}

func TestFileStore_WriteFailure(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "missing", "data.json"))
	_, err := s.Increment(context.Background(), "2026-10-19", "x")
	if !errors.Is(err, ErrWrite) {
		t.Fatalf("expected ErrWrite, got %v", err)
	}
}

func TestFileStore_PrettyJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	s := NewFileStore(path)
	if err := s.Ensure(context.Background(), "2026-10-19", "a1b2c3d4"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "{\n  \"2026-10-19\": {\n    \"a1b2c3d4\": 0\n  }\n}"
	if strings.TrimSpace(string(data)) != want {
		t.Fatalf("unexpected file content:\n%s", data)
	}
}

func TestSQLiteStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store {
		s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "ledger.db"))
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("QUICKNEWS_TEST_REDIS")
	if addr == "" {
		t.Skip("QUICKNEWS_TEST_REDIS not set")
	}
	runStoreSuite(t, func(t *testing.T) Store {
		prefix := "quicknews:test:" + strings.ReplaceAll(t.Name(), "/", ":") + ":" + time.Now().Format("150405.000000") + ":"
		s, err := NewRedisStore(context.Background(), RedisOptions{Addr: addr, Prefix: prefix})
		if err != nil {
			t.Fatalf("open redis: %v", err)
		}
		t.Cleanup(func() {
			_ = s.Write(context.Background(), Ledger{})
			s.Close()
		})
		return s
	})
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(context.Background(), Config{Path: filepath.Join(dir, "data.json")})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*FileStore); !ok {
		t.Fatalf("expected file store by default, got %T", s)
	}

	if _, err := Open(context.Background(), Config{Driver: "cassandra"}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
