package calibration

import (
	"math"
	"testing"

	"chart-tracer/pkg/geometry"
)

func linearX() AxisMapping {
	return AxisMapping{
		P1: geometry.NewPoint2D(0, 0),
		P2: geometry.NewPoint2D(100, 0),
		V1: 0, V2: 10,
	}
}

func TestAxisMappingValid(t *testing.T) {
	if !linearX().Valid() {
		t.Error("distinct points and values should be valid")
	}

	degenerate := linearX()
	degenerate.P2 = degenerate.P1
	if degenerate.Valid() {
		t.Error("coincident calibration points should be invalid")
	}

	flat := linearX()
	flat.V2 = flat.V1
	if flat.Valid() {
		t.Error("equal axis values should be invalid")
	}
}

func TestTOfPoint(t *testing.T) {
	m := linearX()

	// Projection ignores the off-axis component.
	if got := m.TOfPoint(geometry.NewPoint2D(50, 17)); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("t = %v, want 0.5", got)
	}
	if got := m.TOfPoint(geometry.NewPoint2D(-25, 0)); math.Abs(got+0.25) > 1e-12 {
		t.Errorf("t = %v, want -0.25 beyond P1", got)
	}

	degenerate := m
	degenerate.P2 = degenerate.P1
	if got := degenerate.TOfPoint(geometry.NewPoint2D(50, 0)); got != 0 {
		t.Errorf("degenerate segment t = %v, want 0", got)
	}
}

func TestNumericAtLinear(t *testing.T) {
	m := linearX()
	got, ok := m.NumericAt(geometry.NewPoint2D(25, 0))
	if !ok {
		t.Fatal("linear mapping should always succeed")
	}
	if math.Abs(got-2.5) > 1e-12 {
		t.Errorf("value = %v, want 2.5", got)
	}
}

func TestNumericAtLog10(t *testing.T) {
	m := linearX()
	m.V1, m.V2 = 1, 100
	m.Scale = ScaleLog10

	got, ok := m.NumericAt(geometry.NewPoint2D(50, 0))
	if !ok {
		t.Fatal("positive log mapping should succeed")
	}
	// Geometric midpoint of 1..100.
	if math.Abs(got-10) > 1e-9 {
		t.Errorf("log midpoint = %v, want 10", got)
	}

	m.V1 = -1
	if _, ok := m.NumericAt(geometry.NewPoint2D(50, 0)); ok {
		t.Error("log scale with a non-positive endpoint should fail")
	}
	m.V1, m.V2 = 1, 0
	if _, ok := m.NumericAt(geometry.NewPoint2D(50, 0)); ok {
		t.Error("log scale with a zero endpoint should fail")
	}
}

func TestDirection(t *testing.T) {
	m := linearX()
	dir, ok := m.Direction()
	if !ok || dir != geometry.NewPoint2D(1, 0) {
		t.Errorf("Direction = %v,%v, want (1,0)", dir, ok)
	}

	// The vector points toward increasing value, not toward P2.
	m.V1, m.V2 = 10, 0
	dir, ok = m.Direction()
	if !ok || dir != geometry.NewPoint2D(-1, 0) {
		t.Errorf("Direction with descending values = %v, want (-1,0)", dir)
	}

	diag := AxisMapping{
		P1: geometry.NewPoint2D(0, 0),
		P2: geometry.NewPoint2D(3, 4),
		V1: 0, V2: 1,
	}
	dir, ok = diag.Direction()
	if !ok || math.Abs(dir.X-0.6) > 1e-12 || math.Abs(dir.Y-0.8) > 1e-12 {
		t.Errorf("diagonal Direction = %v, want (0.6,0.8)", dir)
	}

	degenerate := linearX()
	degenerate.P2 = degenerate.P1
	if _, ok := degenerate.Direction(); ok {
		t.Error("degenerate segment should have no direction")
	}
}

func TestCalibrationReady(t *testing.T) {
	y := AxisMapping{
		P1: geometry.NewPoint2D(0, 100),
		P2: geometry.NewPoint2D(0, 0),
		V1: 0, V2: 5,
	}
	cal := Calibration{X: linearX(), Y: y, XSet: true, YSet: true}
	if !cal.Ready() {
		t.Error("both axes set and valid should be ready")
	}

	cal.YSet = false
	if cal.Ready() {
		t.Error("unset axis should not be ready")
	}

	cal.YSet = true
	cal.Y.V2 = cal.Y.V1
	if cal.Ready() {
		t.Error("invalid axis mapping should not be ready")
	}
}

func TestValueAt(t *testing.T) {
	y := AxisMapping{
		P1: geometry.NewPoint2D(0, 100),
		P2: geometry.NewPoint2D(0, 0),
		V1: 0, V2: 5,
	}
	cal := Calibration{X: linearX(), Y: y, XSet: true, YSet: true}

	vx, vy, ok := cal.ValueAt(geometry.NewPoint2D(50, 50))
	if !ok {
		t.Fatal("linear calibration should always map")
	}
	if math.Abs(vx-5) > 1e-12 || math.Abs(vy-2.5) > 1e-12 {
		t.Errorf("value = (%v,%v), want (5,2.5)", vx, vy)
	}

	cal.Y.Scale = ScaleLog10
	cal.Y.V1 = 0
	if _, _, ok := cal.ValueAt(geometry.NewPoint2D(50, 50)); ok {
		t.Error("failing axis should make ValueAt fail")
	}
}
