package cache

import "github.com/hszk-dev/recipebox/internal/domain/model"

// ImageCache defines the interface for the in-process image tier.
// Keys are the URL strings the images were requested with.
type ImageCache interface {
	// Get retrieves an image by key.
	// Returns nil, false on cache miss.
	Get(key string) (*model.Image, bool)

	// Set stores an image under key, replacing any previous entry.
	Set(key string, img *model.Image)
}
