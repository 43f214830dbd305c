package snap

import (
	"math"

	"chart-tracer/pkg/geometry"
)

// Candidates whose scores differ by less than this are considered tied, and
// the one closer to the query center wins.
const scoreTieBand = 0.1

// candidate is a scored search hit within a single level.
type candidate struct {
	pos   geometry.Point2D
	score float64
	dist  float64
}

// searchInLevel scans the radius-bounded neighborhood of center for the
// best-scoring pixel under the policy. The center is clamped into the level
// interior so gradient values are always defined. Returns false when the
// radius is non-positive, the level is smaller than 3x3, or no pixel passes
// the policy gates.
func searchInLevel(level *Level, center geometry.Point2D, radius float64, policy Policy) (candidate, bool) {
	if radius <= 0 || level.width < 3 || level.height < 3 {
		return candidate{}, false
	}
	radius = math.Max(radius, 1.0)
	radiusSq := radius * radius
	reach := int(math.Ceil(radius))

	centerX := clampFloat(center.X, 1, float64(level.width-2))
	centerY := clampFloat(center.Y, 1, float64(level.height-2))
	cx := int(math.Round(centerX))
	cy := int(math.Round(centerY))
	minX := maxInt(cx-reach, 1)
	maxX := minInt(cx+reach, level.width-2)
	minY := maxInt(cy-reach, 1)
	maxY := minInt(cy+reach, level.height-2)

	var best candidate
	found := false
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			dx := float64(x) - centerX
			dy := float64(y) - centerY
			distSq := dx*dx + dy*dy
			if distSq > radiusSq {
				continue
			}
			strength := policy.featureStrength(level.gradientAt(x, y), level.similarityAt(x, y))
			if strength <= 0 {
				continue
			}
			if !policy.thresholdPasses(level.gradientAt(x, y), strength) {
				continue
			}
			dist := math.Sqrt(distSq)
			closeness := math.Max(1.0-dist/radius, 0.05)
			score := strength * closeness

			if !found ||
				score > best.score+scoreTieBand ||
				(math.Abs(score-best.score) <= scoreTieBand && dist < best.dist) {
				best = candidate{
					pos:   geometry.Point2D{X: float64(x), Y: float64(y)},
					score: score,
					dist:  dist,
				}
				found = true
			}
		}
	}

	return best, found
}

// refinePosition nudges an integer-pixel candidate to a fractional position
// using a strength-weighted centroid over its 3x3 neighborhood. The result
// never deviates from the input by more than one pixel per axis; zero total
// weight returns the input unchanged.
func refinePosition(level *Level, approx geometry.Point2D, policy Policy) geometry.Point2D {
	if level.width < 3 || level.height < 3 {
		return approx
	}
	ax := int(math.Round(clampFloat(approx.X, 1, float64(level.width-2))))
	ay := int(math.Round(clampFloat(approx.Y, 1, float64(level.height-2))))

	var sum, sx, sy float64
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			px := clampIndex(ax+dx, level.width)
			py := clampIndex(ay+dy, level.height)
			strength := policy.featureStrength(level.gradientAt(px, py), level.similarityAt(px, py))
			if strength <= 0 {
				continue
			}
			sum += strength
			sx += strength * float64(px)
			sy += strength * float64(py)
		}
	}
	if sum <= 0 {
		return approx
	}
	return geometry.Point2D{
		X: clampFloat(sx/sum, 0, float64(level.width-1)),
		Y: clampFloat(sy/sum, 0, float64(level.height-1)),
	}
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
