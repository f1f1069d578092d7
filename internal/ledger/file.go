package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps the ledger in a single JSON document.
//
// Ensure and Increment hold a mutex across read, mutate and write, so
// concurrent callers in one process never lose an update. Separate
// processes sharing the file still race, last writer wins.
type FileStore struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

// NewFileStore returns a store backed by path. The file is created on the
// first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, logger: slog.Default()}
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Read(ctx context.Context) Ledger {
	return s.read()
}

func (s *FileStore) read() Ledger {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("ledger unreadable, using empty state", "path", s.path, "error", err)
		}
		return Ledger{}
	}
	return Parse(data)
}

// Parse decodes a persisted ledger. Empty or malformed input yields an
// empty ledger.
func Parse(data []byte) Ledger {
	if len(bytes.TrimSpace(data)) == 0 {
		return Ledger{}
	}
	var l Ledger
	if err := json.Unmarshal(data, &l); err != nil || l == nil {
		return Ledger{}
	}
	return l.Clone()
}

func (s *FileStore) Write(ctx context.Context, l Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(l)
}

// write replaces the file atomically through a temp file and rename.
func (s *FileStore) write(l Ledger) error {
	if l == nil {
		l = Ledger{}
	}
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrWrite, err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".ledger-*.json")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %w", ErrWrite, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: chmod %s: %w", ErrWrite, tmpName, err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %w", ErrWrite, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrWrite, tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("%w: replace %s: %w", ErrWrite, s.path, err)
	}
	return nil
}

func (s *FileStore) Ensure(ctx context.Context, date, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.read()
	l.Ensure(date, id)
	return s.write(l)
}

func (s *FileStore) Increment(ctx context.Context, date, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.read()
	n := l.Increment(date, id)
	if err := s.write(l); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *FileStore) Close() error { return nil }
