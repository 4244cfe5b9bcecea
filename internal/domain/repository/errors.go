package repository

import (
	"errors"
	"fmt"
)

// Catalog client errors.
var (
	// ErrInvalidEndpoint is returned when an endpoint selector has no usable URL.
	ErrInvalidEndpoint = errors.New("invalid catalog endpoint")

	// ErrInvalidResponse is returned when the reply is not a usable HTTP response.
	ErrInvalidResponse = errors.New("invalid server response")

	// ErrHTTPStatus is matched by every *StatusError.
	ErrHTTPStatus = errors.New("unexpected http status")

	// ErrDecoding is returned when the catalog body cannot be decoded.
	ErrDecoding = errors.New("catalog decoding failed")

	// ErrTransport is returned when the request could not complete.
	ErrTransport = errors.New("catalog transport failed")
)

// Image pipeline errors.
var (
	// ErrInvalidURL is returned when an image URL has no scheme or host.
	ErrInvalidURL = errors.New("invalid image url")

	// ErrNetwork wraps failures of the network tier.
	ErrNetwork = errors.New("image network fetch failed")

	// ErrInvalidData is returned when bytes do not decode as an image.
	ErrInvalidData = errors.New("invalid image data")

	// ErrDiskRead wraps filesystem failures reading the disk tier.
	ErrDiskRead = errors.New("image disk read failed")

	// ErrDiskWrite wraps filesystem failures writing the disk tier.
	ErrDiskWrite = errors.New("image disk write failed")
)

// StatusError carries a non-2xx HTTP status code.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d", e.Code)
}

// Is reports ErrHTTPStatus as a match so callers can test the kind
// without caring about the code.
func (e *StatusError) Is(target error) bool {
	return target == ErrHTTPStatus
}
