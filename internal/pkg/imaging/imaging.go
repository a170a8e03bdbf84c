// Package imaging normalizes uploaded profile pictures: it sniffs the
// format, decodes, center-crops to a square and re-encodes as JPEG.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"

	// Registered decoders for image.Decode.
	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// Size is the edge length of the normalized square image.
	Size = 500
	// Quality is the JPEG quality of the normalized image.
	Quality = 90
	// ContentType is the media type of every normalized image.
	ContentType = "image/jpeg"
	// MaxPixels bounds the decoded source to keep memory in check.
	MaxPixels = 40_000_000
)

var (
	// ErrUnsupportedFormat is returned when the content is not jpeg, png, gif or webp.
	ErrUnsupportedFormat = errors.New("imaging: unsupported image format")
	// ErrTooManyPixels is returned when the declared dimensions exceed MaxPixels.
	ErrTooManyPixels = errors.New("imaging: image dimensions too large")
)

var allowed = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
}

// Sniff reports the media type of head and whether it is an accepted image
// type. Only the first 512 bytes are consulted.
func Sniff(head []byte) (string, bool) {
	ct := http.DetectContentType(head)
	_, ok := allowed[ct]
	return ct, ok
}

// Normalize decodes r and returns a Size x Size JPEG covering the source,
// cropped around its center.
func Normalize(r io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("imaging: read: %w", err)
	}
	if _, ok := Sniff(raw); !ok {
		return nil, ErrUnsupportedFormat
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Join(ErrUnsupportedFormat, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > MaxPixels {
		return nil, ErrTooManyPixels
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Join(ErrUnsupportedFormat, err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, Size, Size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, coverRect(src.Bounds()), draw.Src, nil)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: Quality}); err != nil {
		return nil, fmt.Errorf("imaging: encode: %w", err)
	}

	return out.Bytes(), nil
}

// coverRect returns the largest centered square inside b.
func coverRect(b image.Rectangle) image.Rectangle {
	side := min(b.Dx(), b.Dy())
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2

	return image.Rect(x0, y0, x0+side, y0+side)
}
