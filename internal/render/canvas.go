package render

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/starford/chessboards/internal/models"
)

// Canvas is an RGB drawing surface with the handful of primitives a board
// needs. Coordinates outside the surface are clipped.
type Canvas struct {
	img *image.RGBA
}

// NewCanvas allocates a w×h canvas filled with opaque black.
func NewCanvas(w, h int) *Canvas {
	c := &Canvas{img: image.NewRGBA(image.Rect(0, 0, w, h))}
	c.FillRect(c.img.Bounds(), models.RGB(0, 0, 0))
	return c
}

// Image returns the backing raster.
func (c *Canvas) Image() *image.RGBA {
	return c.img
}

// Bounds returns the canvas rectangle.
func (c *Canvas) Bounds() image.Rectangle {
	return c.img.Bounds()
}

func rgba(col models.ColorRGB) color.RGBA {
	return color.RGBA{R: col.R, G: col.G, B: col.B, A: 0xff}
}

// FillRect paints r (half-open) with a solid colour.
func (c *Canvas) FillRect(r image.Rectangle, col models.ColorRGB) {
	draw.Draw(c.img, r, image.NewUniform(rgba(col)), image.Point{}, draw.Src)
}

// FillVerticalGradient blends from top at row 0 towards bottom; row y gets
// the fraction y/height of bottom, quantised to 1/255 steps.
func (c *Canvas) FillVerticalGradient(top, bottom models.ColorRGB) {
	b := c.img.Bounds()
	h := b.Dy()
	t, bo := top.Channels(), bottom.Channels()
	for y := 0; y < h; y++ {
		m := 255 * y / h
		var ch [3]uint8
		for i := range ch {
			ch[i] = uint8((int(t[i])*(255-m) + int(bo[i])*m) / 255)
		}
		c.FillRect(image.Rect(b.Min.X, b.Min.Y+y, b.Max.X, b.Min.Y+y+1), models.RGB(ch[0], ch[1], ch[2]))
	}
}

// SetPoint paints a single pixel.
func (c *Canvas) SetPoint(x, y int, col models.ColorRGB) {
	if !(image.Point{X: x, Y: y}).In(c.img.Bounds()) {
		return
	}
	c.img.SetRGBA(x, y, rgba(col))
}

// Line draws a segment with Bresenham's algorithm. Widths above one stamp
// a width×width square centred on every step.
func (c *Canvas) Line(x0, y0, x1, y1, width int, col models.ColorRGB) {
	if width < 1 {
		width = 1
	}
	lo := -(width - 1) / 2
	hi := lo + width

	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := sign(x1-x0), sign(y1-y0)
	e := dx + dy
	for {
		if width == 1 {
			c.SetPoint(x0, y0, col)
		} else {
			c.FillRect(image.Rect(x0+lo, y0+lo, x0+hi, y0+hi).Intersect(c.img.Bounds()), col)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// DrawTextCentered draws s so that its bounding box is centred on (cx, cy).
func (c *Canvas) DrawTextCentered(face font.Face, cx, cy int, s string, col models.ColorRGB) {
	width := font.MeasureString(face, s).Ceil()
	m := face.Metrics()
	baseline := cy + (m.Ascent.Ceil()-m.Descent.Ceil())/2

	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(rgba(col)),
		Face: face,
		Dot:  fixed.P(cx-width/2, baseline),
	}
	d.DrawString(s)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
