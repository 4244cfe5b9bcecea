package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hszk-dev/recipebox/internal/domain/model"
	"github.com/hszk-dev/recipebox/internal/domain/repository"
)

func newWarmTask(retry int) repository.WarmTask {
	return repository.WarmTask{
		ID:         uuid.New(),
		RecipeID:   "1",
		ImageURL:   testImageURL,
		RetryCount: retry,
	}
}

func TestWarmService_ProcessTask_Success(t *testing.T) {
	loader := &mockImageLoader{
		loadImageFn: func(ctx context.Context, rawURL string) (*model.Image, error) {
			if rawURL != testImageURL {
				t.Errorf("LoadImage(%q), want %q", rawURL, testImageURL)
			}
			return &model.Image{Format: "png"}, nil
		},
	}
	lock := &mockWarmLock{}
	svc := NewWarmService(loader, lock, DefaultWarmServiceConfig(), nil)

	if err := svc.ProcessTask(context.Background(), newWarmTask(0)); err != nil {
		t.Fatalf("ProcessTask failed: %v", err)
	}

	if loader.loadCount.Load() != 1 {
		t.Errorf("LoadImage called %d times, want 1", loader.loadCount.Load())
	}
	if len(lock.acquired) != 1 || lock.acquired[0] != "abc123_small.jpg" {
		t.Errorf("acquired = %v, want [abc123_small.jpg]", lock.acquired)
	}
	if len(lock.released) != 1 || lock.released[0] != "abc123_small.jpg" {
		t.Errorf("released = %v, want [abc123_small.jpg]", lock.released)
	}
}

func TestWarmService_ProcessTask_LockHeld(t *testing.T) {
	loader := &mockImageLoader{}
	lock := &mockWarmLock{
		acquireFn: func(ctx context.Context, key string, ttl time.Duration) (bool, error) {
			return false, nil
		},
	}
	svc := NewWarmService(loader, lock, DefaultWarmServiceConfig(), nil)

	if err := svc.ProcessTask(context.Background(), newWarmTask(0)); err != nil {
		t.Fatalf("ProcessTask failed: %v", err)
	}
	if loader.loadCount.Load() != 0 {
		t.Errorf("LoadImage called %d times, want 0 when lock held", loader.loadCount.Load())
	}
	if len(lock.released) != 0 {
		t.Errorf("released a lock that was not acquired: %v", lock.released)
	}
}

func TestWarmService_ProcessTask_LockError(t *testing.T) {
	loader := &mockImageLoader{}
	lock := &mockWarmLock{
		acquireFn: func(ctx context.Context, key string, ttl time.Duration) (bool, error) {
			return false, errors.New("redis down")
		},
	}
	svc := NewWarmService(loader, lock, DefaultWarmServiceConfig(), nil)

	if err := svc.ProcessTask(context.Background(), newWarmTask(0)); err == nil {
		t.Fatal("expected error when lock backend fails")
	}
	if loader.loadCount.Load() != 0 {
		t.Errorf("LoadImage called %d times, want 0", loader.loadCount.Load())
	}
}

func TestWarmService_ProcessTask_LockTTL(t *testing.T) {
	var gotTTL time.Duration
	lock := &mockWarmLock{
		acquireFn: func(ctx context.Context, key string, ttl time.Duration) (bool, error) {
			gotTTL = ttl
			return true, nil
		},
	}
	cfg := WarmServiceConfig{MaxRetries: 3, LockTTL: 5 * time.Second}
	svc := NewWarmService(&mockImageLoader{}, lock, cfg, nil)

	_ = svc.ProcessTask(context.Background(), newWarmTask(0))

	if gotTTL != 5*time.Second {
		t.Errorf("ttl = %v, want 5s", gotTTL)
	}
}

func TestWarmService_ProcessTask_ErrorPolicy(t *testing.T) {
	tests := []struct {
		name      string
		loadErr   error
		wantRetry bool
	}{
		{
			name:      "invalid url is permanent",
			loadErr:   repository.ErrInvalidURL,
			wantRetry: false,
		},
		{
			name:      "invalid data is permanent",
			loadErr:   repository.ErrInvalidData,
			wantRetry: false,
		},
		{
			name:      "network error is transient",
			loadErr:   errors.Join(repository.ErrNetwork, context.DeadlineExceeded),
			wantRetry: true,
		},
		{
			name:      "upstream status is transient",
			loadErr:   errors.Join(repository.ErrNetwork, &repository.StatusError{Code: 503}),
			wantRetry: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := &mockImageLoader{
				loadImageFn: func(ctx context.Context, rawURL string) (*model.Image, error) {
					return nil, tt.loadErr
				},
			}
			lock := &mockWarmLock{}
			svc := NewWarmService(loader, lock, DefaultWarmServiceConfig(), nil)

			err := svc.ProcessTask(context.Background(), newWarmTask(0))

			if tt.wantRetry {
				if err == nil {
					t.Fatal("expected error to trigger retry")
				}
				if !errors.Is(err, tt.loadErr) {
					t.Errorf("error = %v, want it to wrap %v", err, tt.loadErr)
				}
			} else if err != nil {
				t.Errorf("error = %v, want nil for permanent failure", err)
			}

			// Lock is always released after an attempt
			if len(lock.released) != 1 {
				t.Errorf("released %d locks, want 1", len(lock.released))
			}
		})
	}
}

func TestWarmService_ProcessTask_MaxRetriesExceeded(t *testing.T) {
	loader := &mockImageLoader{}
	lock := &mockWarmLock{}
	svc := NewWarmService(loader, lock, WarmServiceConfig{MaxRetries: 3}, nil)

	if err := svc.ProcessTask(context.Background(), newWarmTask(3)); err != nil {
		t.Fatalf("ProcessTask returned %v, want nil so the task is acked", err)
	}
	if loader.loadCount.Load() != 0 {
		t.Errorf("LoadImage called %d times, want 0", loader.loadCount.Load())
	}
	if len(lock.acquired) != 0 {
		t.Errorf("lock acquired for dropped task: %v", lock.acquired)
	}
}

func TestWarmService_ProcessTask_NoLock(t *testing.T) {
	loader := &mockImageLoader{}
	svc := NewWarmService(loader, nil, DefaultWarmServiceConfig(), nil)

	if err := svc.ProcessTask(context.Background(), newWarmTask(0)); err != nil {
		t.Fatalf("ProcessTask failed: %v", err)
	}
	if loader.loadCount.Load() != 1 {
		t.Errorf("LoadImage called %d times, want 1", loader.loadCount.Load())
	}
}
