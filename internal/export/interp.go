package export

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/interp"
)

// Algorithm selects how resampling interpolates between points.
type Algorithm int

const (
	// Linear interpolates linearly between neighbors.
	Linear Algorithm = iota
	// StepHold holds the previous point's value until the next one.
	StepHold
	// NaturalCubic fits a natural cubic spline through the points.
	NaturalCubic
)

// Algorithms lists the interpolation algorithms in display order.
var Algorithms = [3]Algorithm{Linear, StepHold, NaturalCubic}

func (a Algorithm) String() string {
	switch a {
	case StepHold:
		return "Step (previous)"
	case NaturalCubic:
		return "Natural cubic spline"
	default:
		return "Linear"
	}
}

// Resample evaluates the curve at count uniformly spaced X positions across
// the data range. Points are sorted by X first; duplicate X values are
// averaged so the interpolators see strictly increasing abscissae.
func Resample(points []XYPoint, algorithm Algorithm, count int) ([]XYPoint, error) {
	xs, ys := prepareSeries(points)
	if len(xs) < 2 {
		return nil, fmt.Errorf("resampling needs at least 2 distinct x values, got %d", len(xs))
	}
	if count < 2 {
		count = 2
	}

	var predictor interp.FittablePredictor
	switch algorithm {
	case StepHold:
		predictor = &holdPrevious{}
	case NaturalCubic:
		predictor = &interp.NaturalCubic{}
	default:
		predictor = &interp.PiecewiseLinear{}
	}
	if err := predictor.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("failed to fit %s interpolator: %w", algorithm, err)
	}

	lo := xs[0]
	hi := xs[len(xs)-1]
	out := make([]XYPoint, count)
	for i := 0; i < count; i++ {
		x := lo + (hi-lo)*float64(i)/float64(count-1)
		out[i] = XYPoint{X: x, Y: predictor.Predict(x)}
	}
	return out, nil
}

// prepareSeries sorts points by X and averages duplicates.
func prepareSeries(points []XYPoint) (xs, ys []float64) {
	sorted := make([]XYPoint, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	for i := 0; i < len(sorted); {
		j := i
		sum := 0.0
		for j < len(sorted) && sorted[j].X == sorted[i].X {
			sum += sorted[j].Y
			j++
		}
		xs = append(xs, sorted[i].X)
		ys = append(ys, sum/float64(j-i))
		i = j
	}
	return xs, ys
}

// holdPrevious is a step interpolator that holds each point's value until
// the next point, matching the export semantics of step charts. It plugs
// into the same FittablePredictor slot as the gonum interpolators.
type holdPrevious struct {
	xs []float64
	ys []float64
}

// Fit stores the node positions. xs must be sorted and strictly increasing.
func (h *holdPrevious) Fit(xs, ys []float64) error {
	if len(xs) < 2 || len(xs) != len(ys) {
		return fmt.Errorf("step interpolator needs matching xs/ys with at least 2 entries")
	}
	h.xs = append([]float64(nil), xs...)
	h.ys = append([]float64(nil), ys...)
	return nil
}

// Predict returns the value of the last node at or before x. Positions
// before the first node clamp to the first value.
func (h *holdPrevious) Predict(x float64) float64 {
	idx := sort.SearchFloat64s(h.xs, x)
	if idx < len(h.xs) && h.xs[idx] == x {
		return h.ys[idx]
	}
	if idx == 0 {
		return h.ys[0]
	}
	return h.ys[idx-1]
}
