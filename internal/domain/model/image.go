package model

import "image"

// Image is a decoded image together with the bytes it was decoded from.
// Data is kept verbatim so it can be served or written to disk without
// re-encoding.
type Image struct {
	Data    []byte
	Format  string
	Decoded image.Image
}

// ContentType returns the MIME type for the decoded format.
func (i *Image) ContentType() string {
	switch i.Format {
	case "jpeg", "png", "gif", "webp":
		return "image/" + i.Format
	default:
		return "application/octet-stream"
	}
}

// Bounds returns the pixel dimensions of the decoded image.
func (i *Image) Bounds() (width, height int) {
	if i.Decoded == nil {
		return 0, 0
	}
	b := i.Decoded.Bounds()
	return b.Dx(), b.Dy()
}
