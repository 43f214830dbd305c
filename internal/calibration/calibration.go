// Package calibration maps pixel positions to axis values via user-placed
// calibration points.
package calibration

import (
	"math"

	"chart-tracer/pkg/geometry"
)

// ScaleKind is the interpolation scale for an axis.
type ScaleKind int

const (
	// ScaleLinear interpolates linearly in value space.
	ScaleLinear ScaleKind = iota
	// ScaleLog10 interpolates in log10 space; values must be positive.
	ScaleLog10
)

func (s ScaleKind) String() string {
	switch s {
	case ScaleLog10:
		return "Log10"
	default:
		return "Linear"
	}
}

// CoordSystem is the coordinate system of the calibrated chart.
type CoordSystem int

const (
	// Cartesian charts map pixels to (x, y) values.
	Cartesian CoordSystem = iota
	// Polar charts map pixels to (angle, radius) values.
	Polar
)

func (c CoordSystem) String() string {
	switch c {
	case Polar:
		return "Polar"
	default:
		return "Cartesian"
	}
}

// AxisMapping relates two calibration pixel points to their axis values.
type AxisMapping struct {
	P1    geometry.Point2D `json:"p1"`
	P2    geometry.Point2D `json:"p2"`
	V1    float64          `json:"v1"`
	V2    float64          `json:"v2"`
	Scale ScaleKind        `json:"scale"`
}

// Valid reports whether the mapping has a usable calibration segment and
// two distinct values.
func (m AxisMapping) Valid() bool {
	return m.P1.Distance(m.P2) > epsilon && m.V1 != m.V2
}

// TOfPoint projects a pixel position onto the calibration segment and
// returns its parameter t (0 at P1, 1 at P2). Degenerate segments return 0
// to avoid dividing by zero.
func (m AxisMapping) TOfPoint(p geometry.Point2D) float64 {
	d := m.P2.Sub(m.P1)
	denom := d.Dot(d)
	if denom <= epsilon {
		return 0
	}
	return p.Sub(m.P1).Dot(d) / denom
}

// NumericAtT returns the axis value at parameter t along the segment.
// Log10 scaling is undefined for non-positive endpoint values.
func (m AxisMapping) NumericAtT(t float64) (float64, bool) {
	switch m.Scale {
	case ScaleLog10:
		if m.V1 <= 0 || m.V2 <= 0 {
			return 0, false
		}
		l1 := math.Log10(m.V1)
		l2 := math.Log10(m.V2)
		return math.Pow(10, l1+(l2-l1)*t), true
	default:
		return m.V1 + (m.V2-m.V1)*t, true
	}
}

// NumericAt returns the axis value for a pixel position.
func (m AxisMapping) NumericAt(p geometry.Point2D) (float64, bool) {
	return m.NumericAtT(m.TOfPoint(p))
}

// Direction returns the unit vector along the calibration segment in pixel
// space, sign-flipped so the vector points toward increasing axis value.
// Returns false for a degenerate (zero-length) segment.
func (m AxisMapping) Direction() (geometry.Point2D, bool) {
	delta := m.P2.Sub(m.P1)
	length := delta.Length()
	if length <= epsilon {
		return geometry.Point2D{}, false
	}
	dir := delta.Scale(1 / length)
	if m.V2 < m.V1 {
		dir = dir.Scale(-1)
	}
	return dir, true
}

// Calibration holds the two axis mappings and the coordinate system.
type Calibration struct {
	X      AxisMapping `json:"x"`
	Y      AxisMapping `json:"y"`
	System CoordSystem `json:"system"`
	XSet   bool        `json:"x_set"`
	YSet   bool        `json:"y_set"`
}

// Ready reports whether both axes are calibrated with valid mappings.
func (c Calibration) Ready() bool {
	return c.XSet && c.YSet && c.X.Valid() && c.Y.Valid()
}

// ValueAt maps a pixel position to calibrated (x, y) values. Returns false
// if either axis mapping fails (e.g. log scale with non-positive values).
func (c Calibration) ValueAt(p geometry.Point2D) (x, y float64, ok bool) {
	x, okX := c.X.NumericAt(p)
	y, okY := c.Y.NumericAt(p)
	return x, y, okX && okY
}

const epsilon = 1e-9
