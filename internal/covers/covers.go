// Package covers produces display thumbnails for uploaded cover images.
package covers

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"

	"github.com/Nick-McCarthy/M-Stash-sub001/internal/services"
)

const (
	// DefaultWidth and DefaultHeight bound library grid thumbnails.
	DefaultWidth  = 320
	DefaultHeight = 480

	jpegQuality = 85
)

// Thumbnail decodes an uploaded cover image, fits it inside maxWidth x
// maxHeight preserving aspect ratio, and re-encodes it as JPEG. Images
// already inside the bounds are re-encoded unchanged in size.
func Thumbnail(data []byte, maxWidth, maxHeight int) ([]byte, error) {
	if maxWidth <= 0 {
		maxWidth = DefaultWidth
	}
	if maxHeight <= 0 {
		maxHeight = DefaultHeight
	}

	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "covers", "decode", "unsupported cover image", err)
	}

	var thumb image.Image = src
	bounds := src.Bounds()
	if bounds.Dx() > maxWidth || bounds.Dy() > maxHeight {
		thumb = imaging.Fit(src, maxWidth, maxHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, services.Wrap(services.ErrValidation, "covers", "encode", "encode thumbnail", err)
	}
	return buf.Bytes(), nil
}
