package usecase

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hszk-dev/recipebox/internal/domain/model"
	"github.com/hszk-dev/recipebox/internal/domain/repository"
)

// mockRecipeCatalog provides a configurable mock for RecipeCatalog.
type mockRecipeCatalog struct {
	fetchRecipesFn func(ctx context.Context, endpoint model.Endpoint) ([]model.Recipe, error)
	fetchCount     atomic.Int32
}

func (m *mockRecipeCatalog) FetchRecipes(ctx context.Context, endpoint model.Endpoint) ([]model.Recipe, error) {
	m.fetchCount.Add(1)
	if m.fetchRecipesFn != nil {
		return m.fetchRecipesFn(ctx, endpoint)
	}
	return []model.Recipe{}, nil
}

// mockImageFetcher provides a configurable mock for ImageFetcher.
type mockImageFetcher struct {
	fetchFn    func(ctx context.Context, u *url.URL) ([]byte, error)
	fetchCount atomic.Int32
}

func (m *mockImageFetcher) Fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	m.fetchCount.Add(1)
	if m.fetchFn != nil {
		return m.fetchFn(ctx, u)
	}
	return nil, nil
}

// mockMessageQueue provides a configurable mock for MessageQueue.
type mockMessageQueue struct {
	publishWarmTaskFn  func(ctx context.Context, task repository.WarmTask) error
	consumeWarmTasksFn func(ctx context.Context, handler func(task repository.WarmTask) error) error

	mu        sync.Mutex
	published []repository.WarmTask
}

func (m *mockMessageQueue) PublishWarmTask(ctx context.Context, task repository.WarmTask) error {
	if m.publishWarmTaskFn != nil {
		if err := m.publishWarmTaskFn(ctx, task); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.published = append(m.published, task)
	m.mu.Unlock()
	return nil
}

func (m *mockMessageQueue) ConsumeWarmTasks(ctx context.Context, handler func(task repository.WarmTask) error) error {
	if m.consumeWarmTasksFn != nil {
		return m.consumeWarmTasksFn(ctx, handler)
	}
	return nil
}

func (m *mockMessageQueue) Close() error {
	return nil
}

func (m *mockMessageQueue) Published() []repository.WarmTask {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]repository.WarmTask(nil), m.published...)
}

// mockWarmLock provides a configurable mock for WarmLock.
type mockWarmLock struct {
	acquireFn func(ctx context.Context, key string, ttl time.Duration) (bool, error)
	releaseFn func(ctx context.Context, key string) error

	mu       sync.Mutex
	acquired []string
	released []string
}

func (m *mockWarmLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	m.acquired = append(m.acquired, key)
	m.mu.Unlock()
	if m.acquireFn != nil {
		return m.acquireFn(ctx, key, ttl)
	}
	return true, nil
}

func (m *mockWarmLock) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	m.released = append(m.released, key)
	m.mu.Unlock()
	if m.releaseFn != nil {
		return m.releaseFn(ctx, key)
	}
	return nil
}

// mockImageLoader provides a configurable mock for ImageLoader.
type mockImageLoader struct {
	loadImageFn func(ctx context.Context, rawURL string) (*model.Image, error)
	loadCount   atomic.Int32
}

func (m *mockImageLoader) LoadImage(ctx context.Context, rawURL string) (*model.Image, error) {
	m.loadCount.Add(1)
	if m.loadImageFn != nil {
		return m.loadImageFn(ctx, rawURL)
	}
	return &model.Image{}, nil
}

func (m *mockImageLoader) LoadFromDisk(ctx context.Context, rawURL string) (*model.Image, error) {
	return nil, repository.ErrDiskRead
}

func (m *mockImageLoader) SaveToDisk(ctx context.Context, rawURL string, data []byte) error {
	return nil
}

func (m *mockImageLoader) CachedImage(rawURL string) (*model.Image, bool) {
	return nil, false
}

func (m *mockImageLoader) Close(ctx context.Context) error {
	return nil
}

// testPNG returns a small valid PNG.
func testPNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{G: 200, A: 255})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
