package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/transcribepro/transcribepro/internal/config"
)

var (
	// ErrNotFound is returned when a transcript does not exist.
	ErrNotFound = errors.New("transcript not found")
	// ErrInvalidName is returned for names that are not transcription_<millis>.txt.
	ErrInvalidName = errors.New("invalid transcript name")
)

var nameRe = regexp.MustCompile(`^transcription_(\d+)\.txt$`)

// Transcript is a saved transcription result.
type Transcript struct {
	Name      string    `json:"name"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// TranscriptStore abstracts transcript storage backends.
type TranscriptStore interface {
	// Save stores text under a new transcription_<unix-millis>.txt name.
	Save(ctx context.Context, text string) (Transcript, error)

	// List returns all transcripts, newest first.
	List(ctx context.Context) ([]Transcript, error)

	// Get returns a single transcript by name.
	Get(ctx context.Context, name string) (Transcript, error)

	// Delete removes a transcript by name.
	Delete(ctx context.Context, name string) error

	// Type returns "local" or "s3".
	Type() string
}

// New creates a TranscriptStore based on config. S3 is used when a bucket is
// configured; the bucket is checked at startup.
func New(cfg config.S3Config, dir string, log zerolog.Logger) (TranscriptStore, error) {
	if !cfg.Enabled() {
		return NewLocalStore(dir), nil
	}

	s3store, err := NewS3Store(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("S3 init failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s3store.HeadBucket(ctx); err != nil {
		return nil, fmt.Errorf("S3 startup check failed (bucket=%q endpoint=%q): %w",
			cfg.Bucket, cfg.Endpoint, err)
	}
	log.Info().Str("bucket", cfg.Bucket).Str("endpoint", cfg.Endpoint).Msg("S3 connection verified")

	return s3store, nil
}

// NameFor returns the transcript name for a timestamp.
func NameFor(t time.Time) string {
	return "transcription_" + strconv.FormatInt(t.UnixMilli(), 10) + ".txt"
}

// ParseName validates a transcript name and returns its creation time.
func ParseName(name string) (time.Time, error) {
	m := nameRe.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	ms, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		// Digits that overflow int64 are still a valid name, just undated.
		return time.Time{}, nil
	}
	return time.UnixMilli(ms), nil
}

// sortNewestFirst orders transcripts by creation time, newest first.
func sortNewestFirst(ts []Transcript) {
	sort.Slice(ts, func(i, j int) bool {
		if !ts[i].CreatedAt.Equal(ts[j].CreatedAt) {
			return ts[i].CreatedAt.After(ts[j].CreatedAt)
		}
		return ts[i].Name > ts[j].Name
	})
}
