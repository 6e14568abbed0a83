package capture

import (
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))))
	require.NoError(t, f.Close())
}

func TestFileCapture_StartErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name  string
		paths []string
	}{
		{"no paths", nil},
		{"missing file", []string{filepath.Join(dir, "nope.png")}},
		{"directory", []string{dir}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFileCapture(tt.paths...).Start(context.Background())

			var de *DeviceError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, CategoryNotFound, de.Category)
		})
	}
}

func TestFileCapture_ReplaysInOrderThenRepeatsLast(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	writePNG(t, a, 10, 10)
	writePNG(t, b, 20, 10)

	src, err := NewFileCapture(a, b).Start(context.Background())
	require.NoError(t, err)

	var widths []int
	for i := 0; i < 3; i++ {
		img, err := src.NextFrame(context.Background())
		require.NoError(t, err)
		widths = append(widths, img.Bounds().Dx())
	}
	assert.Equal(t, []int{10, 20, 20}, widths)
	assert.Equal(t, 1, src.ActiveTracks())

	require.NoError(t, src.Stop())
	require.NoError(t, src.Stop())
	assert.Equal(t, 0, src.ActiveTracks())

	_, err = src.NextFrame(context.Background())
	var de *DeviceError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, CategoryInvalidState, de.Category)
}

func TestFileCapture_UndecodableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	require.NoError(t, os.WriteFile(path, []byte("not a png"), 0o644))

	src, err := NewFileCapture(path).Start(context.Background())
	require.NoError(t, err)

	_, err = src.NextFrame(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrFrameNotReady)
}

func TestFileCapture_DrivesSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "screen.png")
	writePNG(t, path, 64, 32)
	sub := &fakeSubmitter{}

	s := NewSession(NewFileCapture(path), sub, fastOptions(), Observer{})
	res, err := s.Run(context.Background(), "what is on screen?")

	require.NoError(t, err)
	assert.Equal(t, "looks fine", res.Analysis)
	assert.Len(t, sub.req.ImageBase64List, 3)
	assert.Equal(t, 0, s.ActiveTracks())
}
