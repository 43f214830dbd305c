// Package colorutil provides shared color utilities for the chart tracer application.
package colorutil

import (
	"image/color"
	"math"
)

// MaxRGBDistance is the largest possible Euclidean distance between two RGB colors.
const MaxRGBDistance = 441.67294

// Luminance returns the Rec. 709 luminance of 8-bit RGB components (0-255 scale).
func Luminance(r, g, b float64) float64 {
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// LuminanceRGBA returns the Rec. 709 luminance of a color (0-255 scale).
func LuminanceRGBA(c color.RGBA) float64 {
	return Luminance(float64(c.R), float64(c.G), float64(c.B))
}

// Distance returns the Euclidean distance between two colors in RGB space.
func Distance(a, b color.RGBA) float64 {
	dr := float64(a.R) - float64(b.R)
	dg := float64(a.G) - float64(b.G)
	db := float64(a.B) - float64(b.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// Similarity returns how close a color is to a target within a tolerance,
// normalized to [0, 1]. A tolerance below 1.0 is treated as 1.0.
func Similarity(c, target color.RGBA, tolerance float64) float64 {
	tol := math.Max(tolerance, 1.0)
	value := (tol - Distance(c, target)) / tol
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}

// RGBToHSV converts RGB (0-255) to HSV with H in 0-360, S and V in 0-1.
func RGBToHSV(r, g, b float64) (h, s, v float64) {
	r /= 255.0
	g /= 255.0
	b /= 255.0

	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	diff := maxC - minC

	v = maxC

	if maxC == 0 {
		s = 0
	} else {
		s = diff / maxC
	}

	if diff == 0 {
		h = 0
	} else if maxC == r {
		h = 60 * math.Mod((g-b)/diff, 6)
	} else if maxC == g {
		h = 60 * ((b-r)/diff + 2)
	} else {
		h = 60 * ((r-g)/diff + 4)
	}

	if h < 0 {
		h += 360
	}

	return h, s, v
}

// HSVToRGBA converts HSV (H in 0-360, S and V in 0-1) to an opaque RGBA color.
func HSVToRGBA(h, s, v float64) color.RGBA {
	h = WrapHue(h)
	chroma := v * s
	sector := math.Mod(h/60.0, 6)
	secondary := chroma * (1 - math.Abs(math.Mod(sector, 2)-1))
	m := v - chroma

	var r1, g1, b1 float64
	switch {
	case sector < 1:
		r1, g1, b1 = chroma, secondary, 0
	case sector < 2:
		r1, g1, b1 = secondary, chroma, 0
	case sector < 3:
		r1, g1, b1 = 0, chroma, secondary
	case sector < 4:
		r1, g1, b1 = 0, secondary, chroma
	case sector < 5:
		r1, g1, b1 = secondary, 0, chroma
	default:
		r1, g1, b1 = chroma, 0, secondary
	}

	toByte := func(v float64) uint8 {
		scaled := math.Round(v * 255.0)
		if scaled < 0 {
			return 0
		}
		if scaled > 255 {
			return 255
		}
		return uint8(scaled)
	}
	return color.RGBA{
		R: toByte(r1 + m),
		G: toByte(g1 + m),
		B: toByte(b1 + m),
		A: 255,
	}
}

// WrapHue normalizes a hue angle into [0, 360). Non-finite input maps to 0.
func WrapHue(h float64) float64 {
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return 0
	}
	wrapped := math.Mod(h, 360)
	if wrapped < 0 {
		wrapped += 360
	}
	return wrapped
}
