package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/chai2010/webp"
	"golang.org/x/image/draw"
)

const (
	MaxUploadBytes = 8 << 20
	MaxDimension   = 1600
	maxSourcePixel = 40_000_000
	webpQuality    = 80
)

var (
	ErrUnsupportedImage = errors.New("unsupported image")
	ErrImageTooLarge    = errors.New("image too large")
)

// Processed is a studio photo normalized to WebP.
type Processed struct {
	Data   []byte
	Width  int
	Height int
}

// Process decodes a JPEG, PNG or WebP upload, shrinks it so the longest
// side is at most MaxDimension and re-encodes it as WebP.
func Process(r io.Reader) (*Processed, error) {
	raw, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, err
	}
	if len(raw) > MaxUploadBytes {
		return nil, ErrImageTooLarge
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if cfg.Width*cfg.Height > maxSourcePixel {
		return nil, ErrImageTooLarge
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	img := resize(src, MaxDimension)

	var out bytes.Buffer
	if err := webp.Encode(&out, img, &webp.Options{Quality: webpQuality}); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}

	b := img.Bounds()
	return &Processed{Data: out.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}

func resize(src image.Image, max int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= max && h <= max {
		return src
	}

	if w >= h {
		h = h * max / w
		w = max
	} else {
		w = w * max / h
		h = max
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
