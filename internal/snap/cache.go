// Package snap implements the curve-snapping engine: a multi-resolution
// feature pyramid over a pixel grid and a radius-bounded candidate search
// that resolves a click to the best nearby curve pixel.
package snap

import (
	"image/color"
	"math"

	img "chart-tracer/internal/image"
	"chart-tracer/pkg/geometry"
)

// Queries whose level-scaled radius is at or below this bound can be served
// by that level, keeping per-query scan cost independent of the caller's
// radius.
const coarseRadiusBound = 12.0

// Cache holds the multi-resolution feature pyramid for one combination of
// image, target color, and tolerance. Once built it is immutable and safe to
// share across goroutines; rebuilds swap in a whole new Cache.
type Cache struct {
	levels []*Level
}

// Build computes the feature pyramid for the given grid and target color.
// Level 0 matches the image resolution; each further level is a 2x2 box
// downsample, stopping once either dimension drops below 4. Returns nil for
// an empty image.
func Build(grid *img.Grid, target color.RGBA, tolerance float64) *Cache {
	if grid.Empty() {
		return nil
	}
	levels := []*Level{buildBaseLevel(grid, target, tolerance)}
	for {
		prev := levels[len(levels)-1]
		if prev.width < 4 || prev.height < 4 {
			break
		}
		next := prev.downsample()
		if next == nil {
			break
		}
		levels = append(levels, next)
	}
	return &Cache{levels: levels}
}

// LevelCount returns the number of pyramid levels.
func (c *Cache) LevelCount() int {
	if c == nil {
		return 0
	}
	return len(c.levels)
}

// LevelAt returns the level at index k (finest first), or nil if out of range.
func (c *Cache) LevelAt(k int) *Level {
	if c == nil || k < 0 || k >= len(c.levels) {
		return nil
	}
	return c.levels[k]
}

// FindPoint resolves the best snap position near pixelHint within radius.
//
// The search runs on a coarse level chosen from the radius, projects the hit
// back to base resolution, re-searches the base level to recover precision
// lost to coarse quantization, and applies subpixel refinement. Returns
// false when no pixel in range passes the policy.
func (c *Cache) FindPoint(pixelHint geometry.Point2D, radius float64, policy Policy) (geometry.Point2D, bool) {
	if c == nil || len(c.levels) == 0 {
		return geometry.Point2D{}, false
	}
	radius = math.Max(radius, 1.0)
	level := c.levelForRadius(radius)
	scale := float64(level.scale)
	coarseCenter := geometry.Point2D{X: pixelHint.X / scale, Y: pixelHint.Y / scale}
	coarseRadius := math.Max(radius/scale, 1.0)

	coarse, ok := searchInLevel(level, coarseCenter, coarseRadius, policy)
	if !ok {
		return geometry.Point2D{}, false
	}
	projected := coarse.pos.Scale(scale)

	base := c.levels[0]
	refineRadius := math.Max(scale*2.5, 3.0)
	position := projected
	if refined, ok := searchInLevel(base, projected, refineRadius, policy); ok {
		position = refined.pos
	}
	return refinePosition(base, position, policy), true
}

// levelForRadius picks the coarsest level whose scaled radius stays within
// the per-query scan bound, or the coarsest available level.
func (c *Cache) levelForRadius(radius float64) *Level {
	for _, level := range c.levels {
		if radius/float64(level.scale) <= coarseRadiusBound {
			return level
		}
	}
	return c.levels[len(c.levels)-1]
}
