package inbox

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/transcribepro/transcribepro/internal/storage"
	"github.com/transcribepro/transcribepro/internal/transcribe"
)

// Transcriber turns an audio file into text or an error string.
// *transcribe.Client implements it.
type Transcriber interface {
	Transcribe(ctx context.Context, filePath, language, apiKey string) string
}

// Saver persists successful transcripts.
type Saver interface {
	Save(ctx context.Context, text string) (storage.Transcript, error)
}

// Job is an audio file waiting to be transcribed.
type Job struct {
	Path string
}

// WorkerPoolOptions configures the inbox worker pool.
type WorkerPoolOptions struct {
	Transcriber Transcriber
	Store       Saver
	APIKey      string
	Language    string
	Workers     int
	QueueSize   int
	// OnResult, if set, is called with each file and its result string.
	OnResult func(path, result string)
	Log      zerolog.Logger
}

// WorkerPool transcribes inbox files in the background.
type WorkerPool struct {
	jobs   chan Job
	opts   WorkerPoolOptions
	log    zerolog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex // guards stopped against concurrent Enqueue
	stopped bool

	processed atomic.Int64
	failed    atomic.Int64
}

// NewWorkerPool creates a new inbox worker pool.
func NewWorkerPool(opts WorkerPoolOptions) *WorkerPool {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		jobs:   make(chan Job, opts.QueueSize),
		opts:   opts,
		log:    opts.Log,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.opts.Workers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
	wp.log.Info().Int("workers", wp.opts.Workers).Int("queue_size", cap(wp.jobs)).Msg("inbox worker pool started")
}

// Stop signals workers to drain and waits for completion.
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	if wp.stopped {
		wp.mu.Unlock()
		return
	}
	wp.stopped = true
	close(wp.jobs)
	wp.mu.Unlock()

	wp.wg.Wait()
	wp.cancel()
	wp.log.Info().
		Int64("processed", wp.processed.Load()).
		Int64("failed", wp.failed.Load()).
		Msg("inbox worker pool stopped")
}

// Enqueue adds a job to the queue. Returns false if the queue is full or
// the pool is stopped.
func (wp *WorkerPool) Enqueue(j Job) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.stopped {
		return false
	}
	select {
	case wp.jobs <- j:
		return true
	default:
		return false
	}
}

// Pending returns the number of queued jobs.
func (wp *WorkerPool) Pending() int { return len(wp.jobs) }

// Processed returns the number of files transcribed and saved.
func (wp *WorkerPool) Processed() int64 { return wp.processed.Load() }

// Failed returns the number of files that could not be transcribed or saved.
func (wp *WorkerPool) Failed() int64 { return wp.failed.Load() }

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()
	log := wp.log.With().Int("worker", id).Logger()

	for job := range wp.jobs {
		if wp.processJob(log, job) {
			wp.processed.Add(1)
		} else {
			wp.failed.Add(1)
		}
	}
}

func (wp *WorkerPool) processJob(log zerolog.Logger, job Job) bool {
	start := time.Now()
	name := filepath.Base(job.Path)

	result := wp.opts.Transcriber.Transcribe(wp.ctx, job.Path, wp.opts.Language, wp.opts.APIKey)
	if wp.opts.OnResult != nil {
		wp.opts.OnResult(job.Path, result)
	}
	if transcribe.IsError(result) {
		log.Warn().Str("file", name).Str("result", result).Msg("inbox transcription failed")
		return false
	}

	t, err := wp.opts.Store.Save(wp.ctx, result)
	if err != nil {
		log.Error().Err(err).Str("file", name).Msg("failed to save transcript")
		return false
	}

	log.Info().
		Str("file", name).
		Str("transcript", t.Name).
		Dur("duration", time.Since(start)).
		Msg("inbox file transcribed")
	return true
}
