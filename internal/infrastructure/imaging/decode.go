// Package imaging turns raw bytes into model.Image values.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/hszk-dev/recipebox/internal/domain/model"
	"github.com/hszk-dev/recipebox/internal/domain/repository"
)

// Decode decodes jpeg, png, gif or webp bytes.
// Returns repository.ErrInvalidData when data is empty or not an image.
func Decode(data []byte) (*model.Image, error) {
	if len(data) == 0 {
		return nil, repository.ErrInvalidData
	}

	decoded, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrInvalidData, err)
	}

	return &model.Image{
		Data:    data,
		Format:  format,
		Decoded: decoded,
	}, nil
}
