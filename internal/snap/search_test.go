package snap

import (
	"math"
	"testing"

	"chart-tracer/pkg/geometry"
)

func TestSearchRejectsBadInput(t *testing.T) {
	level := buildBaseLevel(lineGrid(), white, 40)
	policy := Contrast(SourceLumaGradient, ThresholdGradient, 20)

	if _, ok := searchInLevel(level, geometry.NewPoint2D(30, 30), 0, policy); ok {
		t.Error("zero radius should find nothing")
	}
	if _, ok := searchInLevel(level, geometry.NewPoint2D(30, 30), -5, policy); ok {
		t.Error("negative radius should find nothing")
	}

	tiny := buildBaseLevel(solidGrid(2, 2, white), white, 40)
	if _, ok := searchInLevel(tiny, geometry.NewPoint2D(1, 1), 5, policy); ok {
		t.Error("levels smaller than 3x3 should find nothing")
	}
}

func TestSearchThresholdGating(t *testing.T) {
	level := buildBaseLevel(lineGrid(), white, 40)

	// Gradient-mode: a threshold above every gradient in range blocks all
	// candidates regardless of color similarity.
	strict := Contrast(SourceLumaGradient, ThresholdGradient, 300)
	if _, ok := searchInLevel(level, geometry.NewPoint2D(30, 30), 10, strict); ok {
		t.Error("no pixel should pass a gradient threshold above 255")
	}

	permissive := Contrast(SourceLumaGradient, ThresholdGradient, 20)
	cand, ok := searchInLevel(level, geometry.NewPoint2D(30, 30), 10, permissive)
	if !ok {
		t.Fatal("expected a candidate near the line")
	}
	if g := level.gradientAt(int(cand.pos.X), int(cand.pos.Y)); g < 20 {
		t.Errorf("selected pixel gradient %v below threshold", g)
	}
}

func TestSearchScoreModeThreshold(t *testing.T) {
	level := buildBaseLevel(lineGrid(), white, 40)

	// In score-mode with the ColorMatch source, gradient is irrelevant; the
	// line interior (similarity 1 -> strength 255) qualifies.
	policy := Contrast(SourceColorMatch, ThresholdScore, 200)
	cand, ok := searchInLevel(level, geometry.NewPoint2D(30, 32), 6, policy)
	if !ok {
		t.Fatal("expected a color-match candidate")
	}
	if s := level.similarityAt(int(cand.pos.X), int(cand.pos.Y)); s != 1 {
		t.Errorf("selected pixel similarity = %v, want 1", s)
	}
}

func TestSearchTieBreakPrefersCloser(t *testing.T) {
	level := buildBaseLevel(lineGrid(), white, 40)
	policy := Centerline(50)

	// All interior line pixels have the same strength; closeness decides,
	// and within the tie band the closer candidate must win.
	cand, ok := searchInLevel(level, geometry.NewPoint2D(30, 32), 10, policy)
	if !ok {
		t.Fatal("expected a candidate")
	}
	if cand.pos.X != 30 || cand.pos.Y != 32 {
		t.Errorf("best candidate = (%v,%v), want the nearest line pixel (30,32)",
			cand.pos.X, cand.pos.Y)
	}
}

func TestSearchDistanceWithinRadius(t *testing.T) {
	level := buildBaseLevel(lineGrid(), white, 40)
	policy := Centerline(50)

	cand, ok := searchInLevel(level, geometry.NewPoint2D(30, 28), 7, policy)
	if !ok {
		t.Fatal("expected a candidate")
	}
	if cand.dist > 7 {
		t.Errorf("candidate distance %v exceeds radius", cand.dist)
	}
	if cand.score <= 0 {
		t.Errorf("candidate score %v should be positive", cand.score)
	}
}

func TestRefinePositionBounded(t *testing.T) {
	level := buildBaseLevel(lineGrid(), white, 40)
	policies := []Policy{
		Centerline(50),
		Contrast(SourceLumaGradient, ThresholdGradient, 20),
		Contrast(SourceHybrid, ThresholdScore, 10),
	}
	starts := []geometry.Point2D{
		geometry.NewPoint2D(30, 32),
		geometry.NewPoint2D(30, 30),
		geometry.NewPoint2D(12, 31),
		geometry.NewPoint2D(54, 33),
	}
	for _, policy := range policies {
		for _, start := range starts {
			refined := refinePosition(level, start, policy)
			if math.Abs(refined.X-start.X) > 1 || math.Abs(refined.Y-start.Y) > 1 {
				t.Errorf("refine moved (%v,%v) -> (%v,%v), more than 1px per axis",
					start.X, start.Y, refined.X, refined.Y)
			}
		}
	}
}

func TestRefineZeroWeightReturnsInput(t *testing.T) {
	level := buildBaseLevel(lineGrid(), white, 40)
	policy := Centerline(50)

	// Deep in the background every strength is zero.
	input := geometry.NewPoint2D(5, 5)
	if got := refinePosition(level, input, policy); got != input {
		t.Errorf("refine in empty region = (%v,%v), want input back", got.X, got.Y)
	}
}

func TestRefineCentersOnLine(t *testing.T) {
	level := buildBaseLevel(lineGrid(), white, 40)

	// Centerline weights pull the y coordinate onto the stroke middle.
	refined := refinePosition(level, geometry.NewPoint2D(30, 32), Centerline(50))
	if refined.Y != 32 {
		t.Errorf("refined y = %v, want 32", refined.Y)
	}
}
