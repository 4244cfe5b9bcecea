package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hszk-dev/recipebox/internal/domain/repository"
)

func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, "failed to encode response", http.StatusInternalServerError)
		}
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func Error(w http.ResponseWriter, status int, err string, message string) {
	JSON(w, status, ErrorResponse{
		Error:   err,
		Message: message,
	})
}

// errorCode maps a domain error to an HTTP status and a stable error code.
// Caller input problems are 4xx; anything the upstream did wrong is 502.
func errorCode(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrInvalidEndpoint):
		return http.StatusBadRequest, "invalid_endpoint"
	case errors.Is(err, repository.ErrInvalidURL):
		return http.StatusBadRequest, "invalid_url"
	case errors.Is(err, repository.ErrHTTPStatus):
		return http.StatusBadGateway, "upstream_status"
	case errors.Is(err, repository.ErrDecoding):
		return http.StatusBadGateway, "upstream_decoding"
	case errors.Is(err, repository.ErrInvalidResponse):
		return http.StatusBadGateway, "upstream_invalid_response"
	case errors.Is(err, repository.ErrTransport), errors.Is(err, repository.ErrNetwork):
		return http.StatusBadGateway, "upstream_unreachable"
	case errors.Is(err, repository.ErrInvalidData):
		return http.StatusBadGateway, "invalid_image_data"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// errorMessage returns the error text for upstream failures only.
// Internal errors are not echoed to clients.
func errorMessage(status int, err error) string {
	if status == http.StatusInternalServerError {
		return "An unexpected error occurred"
	}
	return err.Error()
}
