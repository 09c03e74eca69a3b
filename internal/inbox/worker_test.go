package inbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/transcribepro/transcribepro/internal/storage"
)

type fakeTranscriber struct {
	mu     sync.Mutex
	result string
	calls  []string
	keys   []string
	langs  []string
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, filePath, language, apiKey string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, filePath)
	f.keys = append(f.keys, apiKey)
	f.langs = append(f.langs, language)
	return f.result
}

func (f *fakeTranscriber) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeSaver struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (f *fakeSaver) Save(ctx context.Context, text string) (storage.Transcript, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return storage.Transcript{}, f.err
	}
	f.texts = append(f.texts, text)
	return storage.Transcript{Name: "transcription_1.txt", Text: text}, nil
}

func (f *fakeSaver) saved() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

func newTestPool(tr Transcriber, s Saver, workers, queueSize int) *WorkerPool {
	return NewWorkerPool(WorkerPoolOptions{
		Transcriber: tr,
		Store:       s,
		APIKey:      "sk-test",
		Language:    "en",
		Workers:     workers,
		QueueSize:   queueSize,
		Log:         zerolog.Nop(),
	})
}

func TestWorkerPool_EnqueueFull(t *testing.T) {
	wp := newTestPool(&fakeTranscriber{}, &fakeSaver{}, 1, 2) // not started, nobody draining

	wp.Enqueue(Job{Path: "a"})
	wp.Enqueue(Job{Path: "b"})

	if wp.Enqueue(Job{Path: "c"}) {
		t.Error("Enqueue should return false when queue is full")
	}
	if wp.Pending() != 2 {
		t.Errorf("Pending = %d, want 2", wp.Pending())
	}
}

func TestWorkerPool_EnqueueAfterStop(t *testing.T) {
	wp := newTestPool(&fakeTranscriber{}, &fakeSaver{}, 1, 10)
	wp.Start()
	wp.Stop()

	if wp.Enqueue(Job{Path: "a"}) {
		t.Error("Enqueue should return false after Stop()")
	}
	// Second Stop is a no-op
	wp.Stop()
}

func TestWorkerPool_SavesSuccessfulResults(t *testing.T) {
	tr := &fakeTranscriber{result: "hello world"}
	s := &fakeSaver{}
	wp := newTestPool(tr, s, 2, 10)
	wp.Start()

	wp.Enqueue(Job{Path: "/in/a.mp3"})
	wp.Enqueue(Job{Path: "/in/b.mp3"})
	wp.Stop()

	if wp.Processed() != 2 {
		t.Errorf("Processed = %d, want 2", wp.Processed())
	}
	if wp.Failed() != 0 {
		t.Errorf("Failed = %d, want 0", wp.Failed())
	}
	if got := s.saved(); len(got) != 2 || got[0] != "hello world" {
		t.Errorf("saved = %v, want two copies of hello world", got)
	}
	if tr.keys[0] != "sk-test" || tr.langs[0] != "en" {
		t.Errorf("forwarded key/lang = %q/%q, want sk-test/en", tr.keys[0], tr.langs[0])
	}
}

func TestWorkerPool_ErrorResultsNotSaved(t *testing.T) {
	for _, result := range []string{"Error: File not found", "API Error: 401 - invalid api key"} {
		s := &fakeSaver{}
		wp := newTestPool(&fakeTranscriber{result: result}, s, 1, 10)
		wp.Start()
		wp.Enqueue(Job{Path: "/in/a.mp3"})
		wp.Stop()

		if wp.Failed() != 1 {
			t.Errorf("%q: Failed = %d, want 1", result, wp.Failed())
		}
		if len(s.saved()) != 0 {
			t.Errorf("%q: error result should not be saved", result)
		}
	}
}

func TestWorkerPool_SaveFailure(t *testing.T) {
	wp := newTestPool(&fakeTranscriber{result: "text"}, &fakeSaver{err: errors.New("disk full")}, 1, 10)
	wp.Start()
	wp.Enqueue(Job{Path: "/in/a.mp3"})
	wp.Stop()

	if wp.Failed() != 1 {
		t.Errorf("Failed = %d, want 1", wp.Failed())
	}
}

func TestWorkerPool_StopDrains(t *testing.T) {
	wp := newTestPool(&fakeTranscriber{result: "x"}, &fakeSaver{}, 2, 10)
	wp.Start()

	done := make(chan struct{})
	go func() {
		wp.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop() did not return within 5 seconds")
	}
}

func TestWorkerPool_ZeroWorkersStillDrains(t *testing.T) {
	s := &fakeSaver{}
	wp := newTestPool(&fakeTranscriber{result: "text"}, s, 0, 10)
	wp.Start()
	wp.Enqueue(Job{Path: "/in/a.mp3"})
	wp.Stop()

	if wp.Processed() != 1 {
		t.Errorf("Processed = %d, want 1", wp.Processed())
	}
	if wp.Pending() != 0 {
		t.Errorf("Pending = %d, want 0", wp.Pending())
	}
}
