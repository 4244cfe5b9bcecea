package diskcache

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hszk-dev/recipebox/internal/infrastructure/metrics"
)

const (
	defaultWriteWorkers   = 2
	defaultWriteQueueSize = 64
)

// saver abstracts Store for testability.
type saver interface {
	Save(ctx context.Context, rawURL string, data []byte) error
}

type writeJob struct {
	url  string
	data []byte
}

// WriterConfig holds configuration for AsyncWriter.
type WriterConfig struct {
	Workers   int
	QueueSize int
}

// AsyncWriter performs fire-and-forget disk writes on a bounded queue.
// Outcomes are logged and counted, never reported to the enqueuer.
type AsyncWriter struct {
	store  saver
	jobs   chan writeJob
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewAsyncWriter starts cfg.Workers goroutines writing through store.
func NewAsyncWriter(store saver, cfg WriterConfig, logger *slog.Logger) *AsyncWriter {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWriteWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultWriteQueueSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &AsyncWriter{
		store:  store,
		jobs:   make(chan writeJob, cfg.QueueSize),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}

	for range cfg.Workers {
		w.wg.Add(1)
		go w.run()
	}

	return w
}

// Enqueue schedules data to be written for rawURL. It never blocks: when the
// queue is full or the writer is closed the job is dropped and false is
// returned.
func (w *AsyncWriter) Enqueue(rawURL string, data []byte) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		w.drop(rawURL, "writer closed")
		return false
	}

	select {
	case w.jobs <- writeJob{url: rawURL, data: data}:
		return true
	default:
		w.drop(rawURL, "queue full")
		return false
	}
}

// Close stops intake and waits for queued writes to finish.
// If ctx expires first, remaining writes are abandoned and ctx.Err() is
// returned.
func (w *AsyncWriter) Close(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.jobs)
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.cancel()
		return nil
	case <-ctx.Done():
		w.cancel()
		return ctx.Err()
	}
}

func (w *AsyncWriter) run() {
	defer w.wg.Done()

	for job := range w.jobs {
		if err := w.store.Save(w.ctx, job.url, job.data); err != nil {
			metrics.DiskWritesTotal.WithLabelValues(metrics.ResultError).Inc()
			w.logger.Warn("background disk write failed",
				"url", job.url,
				"error", err,
			)
			continue
		}
		metrics.DiskWritesTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	}
}

func (w *AsyncWriter) drop(rawURL, reason string) {
	metrics.DiskWritesTotal.WithLabelValues(metrics.ResultDropped).Inc()
	w.logger.Warn("background disk write dropped",
		"url", rawURL,
		"reason", reason,
	)
}
