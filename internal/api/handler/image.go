package handler

import (
	"net/http"
	"strconv"

	"github.com/hszk-dev/recipebox/internal/api/middleware"
	"github.com/hszk-dev/recipebox/internal/usecase"
)

// imageMaxAge is how long clients may cache a served image.
const imageMaxAge = "public, max-age=86400"

// ImageHandler serves images through the tiered image cache.
type ImageHandler struct {
	loader usecase.ImageLoader
}

// NewImageHandler creates a new ImageHandler.
func NewImageHandler(loader usecase.ImageLoader) *ImageHandler {
	return &ImageHandler{loader: loader}
}

// Get handles GET /v1/images?url=...
func (h *ImageHandler) Get(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		Error(w, http.StatusBadRequest, "invalid_url", "Query parameter url is required")
		return
	}

	img, err := h.loader.LoadImage(r.Context(), rawURL)
	if err != nil {
		status, code := errorCode(err)
		middleware.RequestLogger(r.Context()).Warn("image load failed",
			"url", rawURL,
			"status", status,
			"error", err,
		)
		Error(w, status, code, errorMessage(status, err))
		return
	}

	width, height := img.Bounds()
	w.Header().Set("Content-Type", img.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Header().Set("Cache-Control", imageMaxAge)
	w.Header().Set("X-Image-Width", strconv.Itoa(width))
	w.Header().Set("X-Image-Height", strconv.Itoa(height))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Data)
}
