package trace

import (
	"image/color"
	"math"
	"testing"

	img "chart-tracer/internal/image"
	"chart-tracer/internal/snap"
	"chart-tracer/pkg/geometry"
)

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// lineGrid builds a 64x64 black chart with a 3px-wide white horizontal line
// centered at y=32 spanning x=10..54.
func lineGrid() *img.Grid {
	grid := img.NewGrid(64, 64)
	for i := 3; i < len(grid.Pix); i += 4 {
		grid.Pix[i] = 255
	}
	for y := 31; y <= 33; y++ {
		for x := 10; x <= 54; x++ {
			i := (y*grid.Width + x) * 4
			grid.Pix[i] = 255
			grid.Pix[i+1] = 255
			grid.Pix[i+2] = 255
		}
	}
	return grid
}

func lineCache(t *testing.T) *snap.Cache {
	t.Helper()
	cache := snap.Build(lineGrid(), white, 40)
	if cache == nil {
		t.Fatal("failed to build snap cache")
	}
	return cache
}

func testConfig(direction Direction) Config {
	cfg := DefaultConfig()
	cfg.Direction = direction
	cfg.StepPx = 6
	cfg.SearchRadius = 10
	return cfg
}

func TestConfigSanitized(t *testing.T) {
	cfg := Config{
		StepPx:       500,
		SearchRadius: 0.1,
		MaxPoints:    1,
		MaxMisses:    99999,
		MinAdvance:   300,
		DedupRadius:  -4,
	}
	got := cfg.Sanitized()
	if got.StepPx != 80 {
		t.Errorf("StepPx = %v, want 80", got.StepPx)
	}
	if got.SearchRadius != 2 {
		t.Errorf("SearchRadius = %v, want 2", got.SearchRadius)
	}
	if got.MaxPoints != 2 {
		t.Errorf("MaxPoints = %v, want 2", got.MaxPoints)
	}
	if got.MaxMisses != 1000 {
		t.Errorf("MaxMisses = %v, want 1000", got.MaxMisses)
	}
	if got.MinAdvance != 80 {
		t.Errorf("MinAdvance = %v, want clamped to StepPx", got.MinAdvance)
	}
	if got.DedupRadius != 0 {
		t.Errorf("DedupRadius = %v, want 0", got.DedupRadius)
	}
}

func TestRunForwardAlongLine(t *testing.T) {
	cache := lineCache(t)
	policy := snap.Centerline(50)
	axis := geometry.NewPoint2D(1, 0)

	start, ok := cache.FindPoint(geometry.NewPoint2D(10, 32), 10, policy)
	if !ok {
		t.Fatal("no start point")
	}

	points := Run(cache, testConfig(Forward), start, axis, 64, 64, policy)
	if len(points) < 5 {
		t.Fatalf("got %d points, want at least 5", len(points))
	}
	if points[0] != start {
		t.Errorf("first point = %v, want the start point %v", points[0], start)
	}
	for i, p := range points {
		if math.Abs(p.Y-32) > 0.5 {
			t.Errorf("point %d y = %v, want near the line center", i, p.Y)
		}
		if i > 0 {
			gap := p.X - points[i-1].X
			if gap < 4 || gap > 8 {
				t.Errorf("gap %d->%d is %vpx, want roughly the 6px step", i-1, i, gap)
			}
		}
	}
	last := points[len(points)-1]
	if last.X < 50 {
		t.Errorf("trace stopped at x=%v, want near the line end (54)", last.X)
	}
	if last.X > 54 {
		t.Errorf("trace overshot the line end: x=%v", last.X)
	}
}

func TestRunBackward(t *testing.T) {
	cache := lineCache(t)
	policy := snap.Centerline(50)
	axis := geometry.NewPoint2D(1, 0)

	start, ok := cache.FindPoint(geometry.NewPoint2D(50, 32), 10, policy)
	if !ok {
		t.Fatal("no start point")
	}

	points := Run(cache, testConfig(Backward), start, axis, 64, 64, policy)
	if len(points) < 5 {
		t.Fatalf("got %d points, want at least 5", len(points))
	}
	if points[0] != start {
		t.Errorf("first point = %v, want the start point", points[0])
	}
	for i := 1; i < len(points); i++ {
		if points[i].X >= points[i-1].X {
			t.Errorf("backward trace not decreasing at %d: %v -> %v",
				i, points[i-1].X, points[i].X)
		}
	}
}

func TestRunBothMergesAroundStart(t *testing.T) {
	cache := lineCache(t)
	policy := snap.Centerline(50)
	axis := geometry.NewPoint2D(1, 0)

	start, ok := cache.FindPoint(geometry.NewPoint2D(32, 32), 10, policy)
	if !ok {
		t.Fatal("no start point")
	}

	points := Run(cache, testConfig(Both), start, axis, 64, 64, policy)
	if len(points) < 8 {
		t.Fatalf("got %d points, want both sides of the line", len(points))
	}
	// The merged polyline must be monotonically increasing along the axis.
	for i := 1; i < len(points); i++ {
		if points[i].X <= points[i-1].X {
			t.Errorf("merged trace not increasing at %d: %v -> %v",
				i, points[i-1].X, points[i].X)
		}
	}
	if points[0].X >= start.X || points[len(points)-1].X <= start.X {
		t.Error("merged trace should extend to both sides of the start point")
	}
}

func TestRunDedupSpacing(t *testing.T) {
	cache := lineCache(t)
	policy := snap.Centerline(50)
	axis := geometry.NewPoint2D(1, 0)

	cfg := testConfig(Both)
	cfg.DedupRadius = 5

	start, _ := cache.FindPoint(geometry.NewPoint2D(32, 32), 10, policy)
	points := Run(cache, cfg, start, axis, 64, 64, policy)
	for i := 1; i < len(points); i++ {
		if points[i].Distance(points[i-1]) <= cfg.DedupRadius {
			t.Errorf("points %d and %d are %vpx apart, closer than the dedup radius",
				i-1, i, points[i].Distance(points[i-1]))
		}
	}
}

func TestRunEmptyImageKeepsOnlyStart(t *testing.T) {
	cache := lineCache(t)
	policy := snap.Centerline(50)

	start := geometry.NewPoint2D(30, 32)
	points := Run(cache, testConfig(Forward), start, geometry.NewPoint2D(1, 0), 0, 0, policy)
	if len(points) != 1 || points[0] != start {
		t.Errorf("zero-sized image trace = %v, want just the start point", points)
	}
}

func TestRunStaysInBounds(t *testing.T) {
	cache := lineCache(t)
	policy := snap.Centerline(50)
	axis := geometry.NewPoint2D(1, 0)

	cfg := testConfig(Forward)
	cfg.MaxPoints = 20000
	cfg.MaxMisses = 1000

	start, _ := cache.FindPoint(geometry.NewPoint2D(10, 32), 10, policy)
	points := Run(cache, cfg, start, axis, 64, 64, policy)
	for i, p := range points {
		if p.X < 0 || p.X > 63 || p.Y < 0 || p.Y > 63 {
			t.Errorf("point %d at (%v,%v) is outside the image", i, p.X, p.Y)
		}
	}
}

func TestDirectionLabels(t *testing.T) {
	want := map[Direction]string{
		Forward:  "Forward (+X)",
		Backward: "Backward (-X)",
		Both:     "Both",
	}
	for dir, label := range want {
		if dir.String() != label {
			t.Errorf("%d.String() = %q, want %q", dir, dir.String(), label)
		}
	}
}
