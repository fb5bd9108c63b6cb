// Package render draws chessboards from trait sets.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"math/rand/v2"
	"os"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/starford/chessboards/internal/checksum"
	"github.com/starford/chessboards/internal/models"
)

// BoardSquares is the number of squares along each side of the board.
const BoardSquares = 8

// Options holds the fixed geometry and styling shared by every board.
type Options struct {
	SquareDim           int
	BorderSize          int
	LineWidth           int
	PockmarkProbability float64
	LabelColor          models.ColorRGB
	FontSize            float64
	// FontPath points at a TrueType file; empty selects Go Regular.
	FontPath string
}

// Board is one rendered image and its pixel fingerprint.
type Board struct {
	Image       *image.RGBA
	Fingerprint models.Fingerprint
}

// Point is a node position inside a single square, in pixels.
type Point struct {
	X, Y float64
}

// Renderer draws boards. It is not safe for concurrent use because the
// font face caches glyphs.
type Renderer struct {
	opts Options
	face font.Face
}

// NewRenderer validates opts and loads the label font.
func NewRenderer(opts Options) (*Renderer, error) {
	if opts.SquareDim < 2 {
		return nil, fmt.Errorf("render: square dimension %d too small", opts.SquareDim)
	}
	if opts.BorderSize < 0 {
		return nil, fmt.Errorf("render: negative border size %d", opts.BorderSize)
	}
	if opts.LineWidth < 1 {
		return nil, fmt.Errorf("render: line width %d must be positive", opts.LineWidth)
	}
	if opts.PockmarkProbability < 0 || opts.PockmarkProbability > 1 {
		return nil, fmt.Errorf("render: pockmark probability %v outside [0,1]", opts.PockmarkProbability)
	}
	if opts.FontSize <= 0 {
		return nil, errors.New("render: font size must be positive")
	}

	ttf := goregular.TTF
	if opts.FontPath != "" {
		data, err := os.ReadFile(opts.FontPath)
		if err != nil {
			return nil, fmt.Errorf("render: read font: %w", err)
		}
		ttf = data
	}
	f, err := truetype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("render: parse font: %w", err)
	}
	face := truetype.NewFace(f, &truetype.Options{
		Size:    opts.FontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	return &Renderer{opts: opts, face: face}, nil
}

// Size returns the side length of the square canvas.
func (r *Renderer) Size() int {
	return BoardSquares*r.opts.SquareDim + 2*r.opts.BorderSize
}

// Render draws ts. rng supplies the pockmark noise and the edge trials, so
// the same trait set can yield different boards on different draws.
func (r *Renderer) Render(ts models.TraitSet, rng *rand.Rand) (*Board, error) {
	size := r.Size()
	c := NewCanvas(size, size)

	switch ts.BorderStyle {
	case models.BorderFlat, models.BorderPockmarked:
		c.FillRect(c.Bounds(), ts.BorderColor)
	case models.BorderGradient:
		c.FillVerticalGradient(ts.BorderColor, models.RGB(0, 0, 0))
	default:
		return nil, fmt.Errorf("render: unknown border style %d", ts.BorderStyle)
	}

	if ts.BorderStyle == models.BorderPockmarked {
		r.pockmark(c, rng)
	}

	r.checkerboard(c, ts.LightColor, ts.DarkColor)
	r.edges(c, Nodes(ts.NodesPerSide, r.opts.SquareDim), ts, rng)
	r.labels(c)

	img := c.Image()
	return &Board{
		Image:       img,
		Fingerprint: models.Fingerprint(checksum.Pixels(img)),
	}, nil
}

func (r *Renderer) pockmark(c *Canvas, rng *rand.Rand) {
	white := models.RGB(255, 255, 255)
	b := c.Bounds()
	for x := b.Min.X; x < b.Max.X; x++ {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			if rng.Float64() < r.opts.PockmarkProbability {
				c.SetPoint(x, y, white)
			}
		}
	}
}

// square returns the pixel rectangle of board square (col, row).
func (r *Renderer) square(col, row int) image.Rectangle {
	s, b := r.opts.SquareDim, r.opts.BorderSize
	return image.Rect(b+col*s, b+row*s, b+(col+1)*s, b+(row+1)*s)
}

func (r *Renderer) checkerboard(c *Canvas, light, dark models.ColorRGB) {
	for i := 0; i < BoardSquares; i += 2 {
		for j := 0; j < BoardSquares; j += 2 {
			c.FillRect(r.square(i, j), light)
			c.FillRect(r.square(i+1, j), dark)
			c.FillRect(r.square(i+1, j+1), light)
			c.FillRect(r.square(i, j+1), dark)
		}
	}
}

// Nodes returns the boundary points of a square of side dim: n evenly
// spaced points on each edge followed by the four corners.
func Nodes(n, dim int) []Point {
	far := float64(dim - 1)
	out := make([]Point, 0, 4+4*n)
	for k := 1; k <= n; k++ {
		loc := float64(dim) / float64(n+1) * float64(k)
		out = append(out,
			Point{loc, 0},
			Point{0, loc},
			Point{loc, far},
			Point{far, loc},
		)
	}
	return append(out,
		Point{0, 0},
		Point{0, far},
		Point{far, 0},
		Point{far, far},
	)
}

// edges runs two trials per node pair. The first stamps the segment in
// light-line colour on the light squares, the second in dark-line colour
// on the dark squares.
func (r *Renderer) edges(c *Canvas, nodes []Point, ts models.TraitSet, rng *rand.Rand) {
	for i := range nodes {
		for j := i + 1; j < len(nodes); j++ {
			if rng.Float64() < ts.EdgeProbability {
				r.stamp(c, nodes[i], nodes[j], ts.LightLine, 0)
			}
			if rng.Float64() < ts.EdgeProbability {
				r.stamp(c, nodes[i], nodes[j], ts.DarkLine, 1)
			}
		}
	}
}

// stamp draws a→b once in every square whose (col+row) parity equals
// parity, walking the 2×2 super-cells the same way the checkerboard does.
func (r *Renderer) stamp(c *Canvas, a, b Point, col models.ColorRGB, parity int) {
	for m := 0; m < BoardSquares; m += 2 {
		for n := 0; n < BoardSquares; n += 2 {
			if parity == 0 {
				r.segment(c, a, b, m, n, col)
				r.segment(c, a, b, m+1, n+1, col)
			} else {
				r.segment(c, a, b, m+1, n, col)
				r.segment(c, a, b, m, n+1, col)
			}
		}
	}
}

func (r *Renderer) segment(c *Canvas, a, b Point, col, row int, clr models.ColorRGB) {
	o := r.square(col, row).Min
	c.Line(
		o.X+round(a.X), o.Y+round(a.Y),
		o.X+round(b.X), o.Y+round(b.Y),
		r.opts.LineWidth, clr,
	)
}

func round(v float64) int {
	return int(math.Round(v))
}

// labels writes ranks 8..1 down the right margin and files a..h along the
// bottom margin.
func (r *Renderer) labels(c *Canvas) {
	s, b := r.opts.SquareDim, r.opts.BorderSize
	margin := b + BoardSquares*s + b/2
	for i := 0; i < BoardSquares; i++ {
		mid := b + i*s + s/2
		c.DrawTextCentered(r.face, margin, mid, string(rune('8'-i)), r.opts.LabelColor)
		c.DrawTextCentered(r.face, mid, margin, string(rune('a'+i)), r.opts.LabelColor)
	}
}

// EncodePNG writes img as a PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("render: encode png: %w", err)
	}
	return nil
}

// DecodePNG reads a PNG back into an RGBA image so its fingerprint can be
// recomputed.
func DecodePNG(r io.Reader) (*image.RGBA, error) {
	img, err := png.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("render: decode png: %w", err)
	}
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	return rgba, nil
}
