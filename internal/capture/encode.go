package capture

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/draw"
)

// DataURLPrefix precedes every encoded frame.
const DataURLPrefix = "data:image/png;base64,"

// EncodeFrame encodes img as a base64 PNG data URL, scaling it down first when
// it is wider than maxWidth. A maxWidth of zero keeps the original size.
func EncodeFrame(img image.Image, maxWidth int) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, Downscale(img, maxWidth)); err != nil {
		return "", fmt.Errorf("encoding frame: %w", err)
	}
	return DataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Downscale resizes img to maxWidth keeping its aspect ratio. Images already
// within bounds are returned unchanged.
func Downscale(img image.Image, maxWidth int) image.Image {
	b := img.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return img
	}
	h := b.Dy() * maxWidth / b.Dx()
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
