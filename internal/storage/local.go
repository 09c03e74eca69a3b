package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/transcribepro/transcribepro/internal/metrics"
)

// LocalStore stores transcripts as text files in a directory.
type LocalStore struct {
	dir string
	now func() time.Time

	mu sync.Mutex // serializes name allocation in Save
}

// NewLocalStore creates a local filesystem transcript store.
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{dir: dir, now: time.Now}
}

func (s *LocalStore) Save(ctx context.Context, text string) (Transcript, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Transcript{}, fmt.Errorf("mkdir %s: %w", s.dir, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Bump the timestamp until the name is free.
	created := s.now()
	name := NameFor(created)
	for s.exists(name) {
		created = created.Add(time.Millisecond)
		name = NameFor(created)
	}

	// Atomic write: temp file + rename
	tmp, err := os.CreateTemp(s.dir, ".transcript-*.tmp")
	if err != nil {
		return Transcript{}, fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return Transcript{}, fmt.Errorf("write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return Transcript{}, fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmpPath, filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmpPath)
		return Transcript{}, fmt.Errorf("rename: %w", err)
	}

	metrics.TranscriptsSavedTotal.Inc()
	return Transcript{Name: name, Text: text, CreatedAt: time.UnixMilli(created.UnixMilli())}, nil
}

func (s *LocalStore) List(ctx context.Context) ([]Transcript, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []Transcript{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", s.dir, err)
	}

	out := make([]Transcript, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !nameRe.MatchString(e.Name()) {
			continue
		}
		t, err := s.Get(ctx, e.Name())
		if errors.Is(err, ErrNotFound) {
			continue // deleted while listing
		}
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *LocalStore) Get(ctx context.Context, name string) (Transcript, error) {
	created, err := ParseName(name)
	if err != nil {
		return Transcript{}, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return Transcript{}, ErrNotFound
	}
	if err != nil {
		return Transcript{}, fmt.Errorf("read %s: %w", name, err)
	}
	return Transcript{Name: name, Text: string(data), CreatedAt: created}, nil
}

func (s *LocalStore) Delete(ctx context.Context, name string) error {
	if _, err := ParseName(name); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

func (s *LocalStore) Type() string { return "local" }

// Dir returns the transcript directory path.
func (s *LocalStore) Dir() string { return s.dir }

func (s *LocalStore) exists(name string) bool {
	_, err := os.Stat(filepath.Join(s.dir, name))
	return err == nil
}
