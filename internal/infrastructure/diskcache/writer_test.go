package diskcache

import (
	"bytes"
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// mockSaver implements saver for testing.
type mockSaver struct {
	saveFunc func(ctx context.Context, rawURL string, data []byte) error
	calls    atomic.Int32
}

func (m *mockSaver) Save(ctx context.Context, rawURL string, data []byte) error {
	m.calls.Add(1)
	if m.saveFunc != nil {
		return m.saveFunc(ctx, rawURL, data)
	}
	return nil
}

func TestAsyncWriter_WritesToStore(t *testing.T) {
	s := NewStore(t.TempDir(), nil)
	w := NewAsyncWriter(s, WriterConfig{Workers: 2, QueueSize: 4}, nil)

	data := pngBytes(t)
	if !w.Enqueue("https://example.com/photos/abc123/small.jpg", data) {
		t.Fatal("Enqueue rejected job on empty queue")
	}

	if err := w.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	got, err := os.ReadFile(s.Path("https://example.com/photos/abc123/small.jpg"))
	if err != nil {
		t.Fatalf("read cache file: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("written bytes differ from enqueued bytes")
	}
}

func TestAsyncWriter_DropsWhenFull(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	saver := &mockSaver{
		saveFunc: func(ctx context.Context, rawURL string, data []byte) error {
			select {
			case started <- struct{}{}:
			default:
			}
			<-release
			return nil
		},
	}

	w := NewAsyncWriter(saver, WriterConfig{Workers: 1, QueueSize: 1}, nil)

	if !w.Enqueue("a", nil) {
		t.Fatal("first Enqueue rejected")
	}
	<-started // worker holds job a

	if !w.Enqueue("b", nil) {
		t.Fatal("second Enqueue rejected, queue has room for one")
	}

	start := time.Now()
	if w.Enqueue("c", nil) {
		t.Error("third Enqueue accepted, want drop on full queue")
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("Enqueue blocked for %v on full queue", elapsed)
	}

	close(release)
	if err := w.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if got := saver.calls.Load(); got != 2 {
		t.Errorf("Save called %d times, want 2", got)
	}
}

func TestAsyncWriter_FailuresNotReported(t *testing.T) {
	saver := &mockSaver{
		saveFunc: func(ctx context.Context, rawURL string, data []byte) error {
			return errors.New("disk full")
		},
	}
	w := NewAsyncWriter(saver, WriterConfig{Workers: 1, QueueSize: 2}, nil)

	if !w.Enqueue("a", []byte("x")) {
		t.Fatal("Enqueue rejected")
	}
	if err := w.Close(context.Background()); err != nil {
		t.Errorf("Close returned %v, write failures must not surface", err)
	}
	if saver.calls.Load() != 1 {
		t.Errorf("Save called %d times, want 1", saver.calls.Load())
	}
}

func TestAsyncWriter_EnqueueAfterClose(t *testing.T) {
	saver := &mockSaver{}
	w := NewAsyncWriter(saver, WriterConfig{}, nil)

	if err := w.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if w.Enqueue("a", nil) {
		t.Error("Enqueue accepted after Close")
	}

	// Close is idempotent
	if err := w.Close(context.Background()); err != nil {
		t.Errorf("second Close returned %v", err)
	}
}

func TestAsyncWriter_CloseDrainsQueue(t *testing.T) {
	var mu sync.Mutex
	var saved []string
	saver := &mockSaver{
		saveFunc: func(ctx context.Context, rawURL string, data []byte) error {
			time.Sleep(5 * time.Millisecond)
			mu.Lock()
			saved = append(saved, rawURL)
			mu.Unlock()
			return nil
		},
	}
	w := NewAsyncWriter(saver, WriterConfig{Workers: 1, QueueSize: 8}, nil)

	for _, u := range []string{"a", "b", "c", "d"} {
		if !w.Enqueue(u, nil) {
			t.Fatalf("Enqueue(%s) rejected", u)
		}
	}

	if err := w.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(saved) != 4 {
		t.Errorf("saved %d jobs, want 4", len(saved))
	}
}

func TestAsyncWriter_CloseTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	started := make(chan struct{})
	saver := &mockSaver{
		saveFunc: func(ctx context.Context, rawURL string, data []byte) error {
			close(started)
			<-release
			return nil
		},
	}
	w := NewAsyncWriter(saver, WriterConfig{Workers: 1, QueueSize: 1}, nil)
	w.Enqueue("a", nil)
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := w.Close(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Close error = %v, want context.DeadlineExceeded", err)
	}
}
