package inbox

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce is how long a file must stay quiet before it is queued.
const DefaultDebounce = 2 * time.Second

// audioExts are the upload formats accepted by the transcription API.
var audioExts = map[string]bool{
	".flac": true, ".m4a": true, ".mp3": true, ".mp4": true, ".mpeg": true,
	".mpga": true, ".oga": true, ".ogg": true, ".wav": true, ".webm": true,
}

// IsAudioFile reports whether path has an extension the API accepts.
func IsAudioFile(path string) bool {
	return audioExts[strings.ToLower(filepath.Ext(path))]
}

// Watcher monitors a drop folder and queues new audio files on a WorkerPool.
// Each file is queued at most once per Watcher lifetime.
type Watcher struct {
	dir      string
	pool     *WorkerPool
	debounce time.Duration
	log      zerolog.Logger

	watcher *fsnotify.Watcher
	done    chan struct{}

	// Debounce: coalesce rapid Create+Write events on the same file.
	debounceMu     sync.Mutex
	debounceTimers map[string]*time.Timer
	seen           map[string]bool

	skipped atomic.Int64
}

// NewWatcher creates a watcher for dir. debounce <= 0 uses DefaultDebounce.
func NewWatcher(dir string, pool *WorkerPool, debounce time.Duration, log zerolog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		dir:            dir,
		pool:           pool,
		debounce:       debounce,
		log:            log.With().Str("component", "inbox").Logger(),
		done:           make(chan struct{}),
		debounceTimers: make(map[string]*time.Timer),
		seen:           make(map[string]bool),
	}
}

// Start creates the inbox directory if needed, starts the worker pool and
// begins watching.
func (w *Watcher) Start() error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(w.dir); err != nil {
		fw.Close()
		return err
	}
	w.watcher = fw

	w.pool.Start()
	go w.watchLoop()

	w.log.Info().Str("dir", w.dir).Dur("debounce", w.debounce).Msg("inbox watcher started")
	return nil
}

// Stop closes the watcher, cancels pending debounces and drains the pool.
func (w *Watcher) Stop() {
	if w.watcher != nil {
		w.watcher.Close()
		<-w.done
	}

	w.debounceMu.Lock()
	for path, t := range w.debounceTimers {
		t.Stop()
		delete(w.debounceTimers, path)
	}
	w.debounceMu.Unlock()

	w.pool.Stop()
	w.log.Info().Int64("skipped", w.skipped.Load()).Msg("inbox watcher stopped")
}

// Pending, Processed and Failed expose pool counters for metrics.
func (w *Watcher) Pending() int     { return w.pool.Pending() }
func (w *Watcher) Processed() int64 { return w.pool.Processed() }
func (w *Watcher) Failed() int64    { return w.pool.Failed() }

func (w *Watcher) watchLoop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !IsAudioFile(event.Name) {
				continue
			}
			if info, err := os.Stat(event.Name); err != nil || !info.Mode().IsRegular() {
				continue
			}
			w.schedule(event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("fsnotify error")
		}
	}
}

// schedule debounces a file so it is only queued once writes have settled.
func (w *Watcher) schedule(path string) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.seen[path] {
		return
	}
	if t, ok := w.debounceTimers[path]; ok {
		t.Reset(w.debounce)
		return
	}

	w.debounceTimers[path] = time.AfterFunc(w.debounce, func() {
		w.debounceMu.Lock()
		if _, ok := w.debounceTimers[path]; !ok {
			// Cancelled by Stop.
			w.debounceMu.Unlock()
			return
		}
		delete(w.debounceTimers, path)
		w.seen[path] = true
		w.debounceMu.Unlock()

		if !w.pool.Enqueue(Job{Path: path}) {
			w.skipped.Add(1)
			w.log.Warn().Str("file", filepath.Base(path)).Msg("inbox queue full, file skipped")

			// Allow a later write to retry.
			w.debounceMu.Lock()
			delete(w.seen, path)
			w.debounceMu.Unlock()
			return
		}
		w.log.Debug().Str("file", filepath.Base(path)).Msg("inbox file queued")
	})
}
