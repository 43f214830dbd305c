// Package image provides the immutable RGBA8 pixel grid consumed by the
// snapping engine, plus loading, rotation, and preprocessing filters.
package image

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"chart-tracer/pkg/geometry"
)

// Grid is an immutable RGBA8 pixel grid. Pixels are stored row-major,
// four bytes per pixel (R, G, B, A). The snapping engine never mutates it,
// so a Grid is safe to share across goroutines.
type Grid struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewGrid creates an empty grid of the given size.
func NewGrid(width, height int) *Grid {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Grid{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*4),
	}
}

// FromImage converts any decoded image into a Grid.
func FromImage(img image.Image) *Grid {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return &Grid{Width: w, Height: h, Pix: rgba.Pix}
}

// Empty reports whether the grid has no pixels.
func (g *Grid) Empty() bool {
	return g == nil || g.Width == 0 || g.Height == 0
}

// RGBAAt returns the color at (x, y). Out-of-bounds coordinates return black.
func (g *Grid) RGBAAt(x, y int) color.RGBA {
	if g == nil || x < 0 || y < 0 || x >= g.Width || y >= g.Height {
		return color.RGBA{A: 255}
	}
	i := (y*g.Width + x) * 4
	return color.RGBA{R: g.Pix[i], G: g.Pix[i+1], B: g.Pix[i+2], A: g.Pix[i+3]}
}

// SampleColor returns the pixel color at a fractional position, rounding and
// clamping into bounds. Returns false for an empty grid.
func (g *Grid) SampleColor(p geometry.Point2D) (color.RGBA, bool) {
	if g.Empty() {
		return color.RGBA{}, false
	}
	x := clampRound(p.X, g.Width)
	y := clampRound(p.Y, g.Height)
	return g.RGBAAt(x, y), true
}

// Contains reports whether a fractional position lies inside the grid.
func (g *Grid) Contains(p geometry.Point2D) bool {
	if g.Empty() {
		return false
	}
	return p.X >= 0 && p.X <= float64(g.Width-1) &&
		p.Y >= 0 && p.Y <= float64(g.Height-1)
}

// ToRGBA copies the grid into a standard library RGBA image.
func (g *Grid) ToRGBA() *image.RGBA {
	rgba := image.NewRGBA(image.Rect(0, 0, g.Width, g.Height))
	copy(rgba.Pix, g.Pix)
	return rgba
}

// Rotate90CW returns a new grid rotated 90 degrees clockwise.
func (g *Grid) Rotate90CW() *Grid {
	if g.Empty() {
		return NewGrid(0, 0)
	}
	out := NewGrid(g.Height, g.Width)
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			srcX := y
			srcY := out.Width - 1 - x
			copyPixel(out, g, x, y, srcX, srcY)
		}
	}
	return out
}

// Rotate90CCW returns a new grid rotated 90 degrees counter-clockwise.
func (g *Grid) Rotate90CCW() *Grid {
	if g.Empty() {
		return NewGrid(0, 0)
	}
	out := NewGrid(g.Height, g.Width)
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			srcX := out.Height - 1 - y
			srcY := x
			copyPixel(out, g, x, y, srcX, srcY)
		}
	}
	return out
}

func copyPixel(dst, src *Grid, dx, dy, sx, sy int) {
	di := (dy*dst.Width + dx) * 4
	si := (sy*src.Width + sx) * 4
	copy(dst.Pix[di:di+4], src.Pix[si:si+4])
}

func clampRound(v float64, length int) int {
	if length <= 0 {
		return 0
	}
	rounded := int(math.Round(v))
	if rounded < 0 {
		return 0
	}
	if rounded > length-1 {
		return length - 1
	}
	return rounded
}
