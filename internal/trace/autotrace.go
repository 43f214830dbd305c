// Package trace implements the auto-trace stepper: repeated directional
// snap queries that walk along a curve and emit an ordered polyline.
package trace

import (
	"math"

	"chart-tracer/internal/snap"
	"chart-tracer/pkg/geometry"
)

// Direction selects which way the tracer walks along the axis.
type Direction int

const (
	// Forward walks toward increasing calibrated X.
	Forward Direction = iota
	// Backward walks toward decreasing calibrated X.
	Backward
	// Both walks both ways and merges the results around the start point.
	Both
)

// Directions lists the trace directions in display order.
var Directions = [3]Direction{Forward, Backward, Both}

func (d Direction) String() string {
	switch d {
	case Forward:
		return "Forward (+X)"
	case Backward:
		return "Backward (-X)"
	case Both:
		return "Both"
	default:
		return "Unknown"
	}
}

// Config holds the auto-trace stepping parameters. Values outside the
// documented ranges are clamped by Sanitized at time of use.
type Config struct {
	Direction    Direction `json:"direction"`
	StepPx       float64   `json:"step_px"`
	SearchRadius float64   `json:"search_radius"`
	MaxPoints    int       `json:"max_points"`
	MaxMisses    int       `json:"max_misses"`
	MinAdvance   float64   `json:"min_advance"`
	DedupRadius  float64   `json:"dedup_radius"`
}

// DefaultConfig returns the default auto-trace parameters.
func DefaultConfig() Config {
	return Config{
		Direction:    Forward,
		StepPx:       6.0,
		SearchRadius: 12.0,
		MaxPoints:    800,
		MaxMisses:    8,
		MinAdvance:   1.0,
		DedupRadius:  1.5,
	}
}

// Sanitized returns a copy of the config with every field clamped to its
// documented range: stepPx [1,80], searchRadius [2,120], maxPoints
// [2,20000], maxMisses <=1000, minAdvance [0.1, max(stepPx, 0.1)],
// dedupRadius [0,50].
func (c Config) Sanitized() Config {
	out := c
	out.StepPx = clampFloat(c.StepPx, 1, 80)
	out.SearchRadius = clampFloat(c.SearchRadius, 2, 120)
	out.MaxPoints = clampInt(c.MaxPoints, 2, 20000)
	out.MaxMisses = clampInt(c.MaxMisses, 0, 1000)
	out.MinAdvance = clampFloat(c.MinAdvance, 0.1, math.Max(out.StepPx, 0.1))
	out.DedupRadius = clampFloat(c.DedupRadius, 0, 50)
	return out
}

// Run walks the curve from an already-snapped start point and returns the
// merged, deduplicated polyline. axisDir must be a unit vector pointing
// toward increasing calibrated X; width and height bound the probe to the
// image.
//
// For Both, the result is reverse(backward) + start + forward with no
// re-sorting; a curve that is not monotonic along the axis can interleave
// across the merge boundary. That is a known limitation of near-straight
// curve tracing.
func Run(cache *snap.Cache, cfg Config, start, axisDir geometry.Point2D, width, height int, policy snap.Policy) []geometry.Point2D {
	cfg = cfg.Sanitized()

	var points []geometry.Point2D
	switch cfg.Direction {
	case Backward:
		points = append(points, start)
		points = append(points, traceDirection(cache, cfg, start, axisDir, -1, width, height, policy)...)
	case Both:
		backward := traceDirection(cache, cfg, start, axisDir, -1, width, height, policy)
		forward := traceDirection(cache, cfg, start, axisDir, 1, width, height, policy)
		reverseInPlace(backward)
		points = append(points, backward...)
		points = append(points, start)
		points = append(points, forward...)
	default:
		points = append(points, start)
		points = append(points, traceDirection(cache, cfg, start, axisDir, 1, width, height, policy)...)
	}

	return dedupPolyline(points, cfg.DedupRadius)
}

// traceDirection steps the probe along the axis in one direction, snapping
// at each step. Accepted points are strictly increasing along the signed
// axis; stalls and dedup-range hits count as misses without moving the
// anchor.
func traceDirection(cache *snap.Cache, cfg Config, start, axisDir geometry.Point2D, sign float64, width, height int, policy snap.Policy) []geometry.Point2D {
	if width == 0 || height == 0 {
		return nil
	}
	var points []geometry.Point2D
	anchor := start
	probe := start
	misses := 0
	step := axisDir.Scale(cfg.StepPx * sign)
	maxX := float64(width - 1)
	maxY := float64(height - 1)

	for i := 0; i < cfg.MaxPoints; i++ {
		probe = probe.Add(step)
		if probe.X < 0 || probe.X > maxX || probe.Y < 0 || probe.Y > maxY {
			break
		}

		pos, found := cache.FindPoint(probe, cfg.SearchRadius, policy)
		if found {
			progress := pos.Sub(anchor).Dot(axisDir) * sign
			if progress < cfg.MinAdvance || pos.Distance(anchor) <= cfg.DedupRadius {
				misses++
				if misses > cfg.MaxMisses {
					break
				}
				continue
			}
			points = append(points, pos)
			anchor = pos
			probe = anchor
			misses = 0
		} else {
			misses++
			if misses > cfg.MaxMisses {
				break
			}
		}
	}

	return points
}

// dedupPolyline keeps a point only if it is farther than radius from the
// last kept point. Runs across the Both merge boundary as well.
func dedupPolyline(points []geometry.Point2D, radius float64) []geometry.Point2D {
	var out []geometry.Point2D
	for _, p := range points {
		if len(out) == 0 || out[len(out)-1].Distance(p) > radius {
			out = append(out, p)
		}
	}
	return out
}

func reverseInPlace(points []geometry.Point2D) {
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
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

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
