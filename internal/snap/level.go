package snap

import (
	"image/color"
	"math"

	img "chart-tracer/internal/image"
	"chart-tracer/pkg/colorutil"
)

// Level holds the per-pixel feature maps for one pyramid resolution:
// luminance gradient magnitude and color similarity to the target color.
type Level struct {
	width      int
	height     int
	scale      int
	gradient   []float64
	similarity []float64
}

// Width returns the level width in level pixels.
func (l *Level) Width() int { return l.width }

// Height returns the level height in level pixels.
func (l *Level) Height() int { return l.height }

// Scale returns the cumulative downsample factor relative to the base image.
func (l *Level) Scale() int { return l.scale }

// buildBaseLevel computes the full-resolution feature maps for a pixel grid.
// Gradient magnitude uses central differences of luminance and is only
// defined on interior pixels; the outermost 1px border stays zero.
func buildBaseLevel(grid *img.Grid, target color.RGBA, tolerance float64) *Level {
	w, h := grid.Width, grid.Height
	length := w * h
	luminance := make([]float64, length)
	similarity := make([]float64, length)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := grid.RGBAAt(x, y)
			idx := y*w + x
			luminance[idx] = colorutil.LuminanceRGBA(c)
			similarity[idx] = colorutil.Similarity(c, target, tolerance)
		}
	}

	gradient := make([]float64, length)
	if w >= 3 && h >= 3 {
		for y := 1; y < h-1; y++ {
			for x := 1; x < w-1; x++ {
				idx := y*w + x
				gx := luminance[idx+1] - luminance[idx-1]
				gy := luminance[idx+w] - luminance[idx-w]
				gradient[idx] = math.Min(math.Hypot(gx, gy), 255.0)
			}
		}
	}

	return &Level{
		width:      w,
		height:     h,
		scale:      1,
		gradient:   gradient,
		similarity: similarity,
	}
}

// downsample produces the next coarser level by averaging non-overlapping
// 2x2 blocks of both feature maps. Partial blocks at odd edges average only
// the pixels present. Returns nil when the level is too small to halve.
func (l *Level) downsample() *Level {
	w, h := l.width, l.height
	if w < 2 || h < 2 {
		return nil
	}
	newW := (w + 1) / 2
	newH := (h + 1) / 2
	if newW < 2 || newH < 2 {
		return nil
	}

	gradient := make([]float64, newW*newH)
	similarity := make([]float64, newW*newH)
	for y := 0; y < newH; y++ {
		for x := 0; x < newW; x++ {
			var gSum, sSum float64
			var count int
			for dy := 0; dy < 2; dy++ {
				for dx := 0; dx < 2; dx++ {
					sx := x*2 + dx
					sy := y*2 + dy
					if sx < w && sy < h {
						idx := sy*w + sx
						gSum += l.gradient[idx]
						sSum += l.similarity[idx]
						count++
					}
				}
			}
			if count > 0 {
				gradient[y*newW+x] = gSum / float64(count)
				similarity[y*newW+x] = sSum / float64(count)
			}
		}
	}

	return &Level{
		width:      newW,
		height:     newH,
		scale:      l.scale * 2,
		gradient:   gradient,
		similarity: similarity,
	}
}

// gradientAt returns the gradient magnitude at (x, y), clamping coordinates
// into bounds.
func (l *Level) gradientAt(x, y int) float64 {
	if len(l.gradient) == 0 {
		return 0
	}
	return l.gradient[clampIndex(y, l.height)*l.width+clampIndex(x, l.width)]
}

// similarityAt returns the color similarity at (x, y), clamping coordinates
// into bounds.
func (l *Level) similarityAt(x, y int) float64 {
	if len(l.similarity) == 0 {
		return 0
	}
	return l.similarity[clampIndex(y, l.height)*l.width+clampIndex(x, l.width)]
}

func clampIndex(v, length int) int {
	if length <= 0 {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > length-1 {
		return length - 1
	}
	return v
}
