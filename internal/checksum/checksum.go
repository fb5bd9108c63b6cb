// Package checksum computes the content digests used to identify boards.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"image"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Pixels returns the hex-encoded SHA-256 of the image's raw RGB buffer:
// three bytes per pixel, row-major, alpha dropped and stride padding
// ignored. Encoder settings therefore never influence the result.
func Pixels(img *image.RGBA) string {
	h := sha256.New()
	b := img.Bounds()
	row := make([]byte, 0, 3*b.Dx())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row = row[:0]
		off := img.PixOffset(b.Min.X, y)
		for x := 0; x < b.Dx(); x++ {
			p := img.Pix[off+4*x : off+4*x+3]
			row = append(row, p[0], p[1], p[2])
		}
		h.Write(row)
	}
	return hex.EncodeToString(h.Sum(nil))
}
