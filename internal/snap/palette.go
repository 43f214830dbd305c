package snap

import (
	"image/color"
	"math"
	"sort"

	img "chart-tracer/internal/image"
	"chart-tracer/pkg/colorutil"
)

// Sampling target for color statistics; large images are strided down to
// roughly this many samples.
const colorSampleTarget = 50000

var hueOffsets = [5]float64{-45, -10, 15, 40, 70}

// ColorStats summarizes an image's average color properties, used to pick
// overlay colors that stand out against the chart background.
type ColorStats struct {
	AvgRGB     [3]float64
	AvgLuma    float64
	Hue        float64
	Saturation float64
}

// StatsFromGrid samples the grid and computes average color statistics.
// Returns false for an empty grid.
func StatsFromGrid(grid *img.Grid) (ColorStats, bool) {
	if grid.Empty() {
		return ColorStats{}, false
	}
	total := grid.Width * grid.Height
	step := total / colorSampleTarget
	if step < 1 {
		step = 1
	}

	var sumR, sumG, sumB, sumLuma float64
	samples := 0
	for i := 0; i < total; i += step {
		base := i * 4
		r := float64(grid.Pix[base])
		g := float64(grid.Pix[base+1])
		b := float64(grid.Pix[base+2])
		sumR += r
		sumG += g
		sumB += b
		sumLuma += colorutil.Luminance(r, g, b)
		samples++
	}
	if samples == 0 {
		return ColorStats{}, false
	}

	n := float64(samples)
	avgR, avgG, avgB := sumR/n, sumG/n, sumB/n
	hue, saturation, _ := colorutil.RGBToHSV(avgR, avgG, avgB)
	return ColorStats{
		AvgRGB:     [3]float64{avgR, avgG, avgB},
		AvgLuma:    sumLuma / n,
		Hue:        hue,
		Saturation: saturation,
	}, true
}

// SuggestOverlayColors derives up to four overlay colors that contrast well
// with the image's average color, for highlighting snap candidates on top of
// the chart. Returns nil for an empty image.
func SuggestOverlayColors(grid *img.Grid) []color.RGBA {
	stats, ok := StatsFromGrid(grid)
	if !ok {
		return nil
	}

	var baseHue float64
	if stats.Saturation < 0.08 {
		// Near-grayscale image: use a fixed hue by brightness instead of
		// the meaningless average hue.
		if stats.AvgLuma >= 128 {
			baseHue = 215
		} else {
			baseHue = 35
		}
	} else {
		baseHue = colorutil.WrapHue(stats.Hue + 180)
	}
	saturation := math.Min(math.Max((1-stats.Saturation)*0.35+0.45, 0.35), 0.7)
	values := highlightValueCandidates(stats.AvgLuma)

	type option struct {
		color color.RGBA
		score float64
	}
	options := make([]option, 0, len(hueOffsets)+2)
	for idx, offset := range hueOffsets {
		hue := colorutil.WrapHue(baseHue + offset)
		value := values[idx%len(values)]
		c := colorutil.HSVToRGBA(hue, saturation, value)
		options = append(options, option{color: c, score: contrastScore(c, stats)})
	}
	for _, neutral := range []color.RGBA{
		{R: 240, G: 240, B: 240, A: 255},
		{R: 32, G: 32, B: 32, A: 255},
	} {
		options = append(options, option{color: neutral, score: contrastScore(neutral, stats)})
	}

	sort.SliceStable(options, func(i, j int) bool {
		return options[i].score > options[j].score
	})
	out := make([]color.RGBA, 0, 4)
	for _, opt := range options[:4] {
		out = append(out, opt.color)
	}
	return out
}

func highlightValueCandidates(avgLuma float64) [3]float64 {
	normalized := math.Min(math.Max(avgLuma/255.0, 0), 1)
	switch {
	case normalized > 0.75:
		return [3]float64{0.2, 0.35, 0.5}
	case normalized > 0.55:
		return [3]float64{0.3, 0.48, 0.64}
	case normalized > 0.35:
		return [3]float64{0.45, 0.62, 0.8}
	default:
		return [3]float64{0.92, 0.78, 0.62}
	}
}

// contrastScore rates how strongly a color stands out against the image
// average; higher is better.
func contrastScore(c color.RGBA, stats ColorStats) float64 {
	lumaDiff := math.Abs(colorutil.LuminanceRGBA(c)-stats.AvgLuma) / 255.0
	dr := float64(c.R) - stats.AvgRGB[0]
	dg := float64(c.G) - stats.AvgRGB[1]
	db := float64(c.B) - stats.AvgRGB[2]
	colorDiff := math.Sqrt(dr*dr+dg*dg+db*db) / colorutil.MaxRGBDistance
	return math.Min(math.Max(lumaDiff*0.7+colorDiff*0.3, 0), 1)
}
