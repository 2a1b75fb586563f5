package media

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngOf(t *testing.T, w, h int) *bytes.Buffer {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 7 {
		img.Set(x, x%h, color.RGBA{R: 200, G: 100, B: 50, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &buf
}

func TestProcess_DownscalesLongSide(t *testing.T) {
	p, err := Process(pngOf(t, 3200, 1600))
	require.NoError(t, err)

	assert.Equal(t, MaxDimension, p.Width)
	assert.Equal(t, 800, p.Height)
	assert.Equal(t, "RIFF", string(p.Data[:4]))
}

func TestProcess_KeepsSmallImages(t *testing.T) {
	p, err := Process(pngOf(t, 300, 400))
	require.NoError(t, err)

	assert.Equal(t, 300, p.Width)
	assert.Equal(t, 400, p.Height)
}

func TestProcess_RejectsGarbage(t *testing.T) {
	_, err := Process(strings.NewReader("definitely not an image"))
	assert.True(t, errors.Is(err, ErrUnsupportedImage))
}
