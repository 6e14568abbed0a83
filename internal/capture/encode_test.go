package capture

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeDataURL(t *testing.T, s string) image.Image {
	t.Helper()
	require.True(t, strings.HasPrefix(s, DataURLPrefix))
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(s, DataURLPrefix))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	return img
}

func TestEncodeFrame_KeepsSmallFrames(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 40, 30))

	out, err := EncodeFrame(src, 100)

	require.NoError(t, err)
	img := decodeDataURL(t, out)
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.Equal(t, 30, img.Bounds().Dy())
}

func TestEncodeFrame_DownscalesWideFrames(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 400, 200))

	out, err := EncodeFrame(src, 100)

	require.NoError(t, err)
	img := decodeDataURL(t, out)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())
}

func TestDownscale(t *testing.T) {
	tests := []struct {
		name     string
		w, h     int
		maxWidth int
		wantW    int
		wantH    int
	}{
		{"zero max keeps size", 3000, 1000, 0, 3000, 1000},
		{"within bounds", 800, 600, 1920, 800, 600},
		{"exact width", 1920, 1080, 1920, 1920, 1080},
		{"4k", 3840, 2160, 1920, 1920, 1080},
		{"very flat", 1000, 1, 10, 10, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Downscale(image.NewRGBA(image.Rect(0, 0, tt.w, tt.h)), tt.maxWidth)
			assert.Equal(t, tt.wantW, got.Bounds().Dx())
			assert.Equal(t, tt.wantH, got.Bounds().Dy())
		})
	}
}
