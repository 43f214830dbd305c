package app

import (
	"fmt"

	"chart-tracer/internal/calibration"
	"chart-tracer/internal/trace"
	"chart-tracer/pkg/geometry"
)

// AutoTraceFrom walks the curve starting at the user's click and appends the
// resulting polyline to the point collection. Preconditions (image loaded,
// calibration complete, Cartesian system, snap mode active) fail with a
// status message and no state change.
func (s *State) AutoTraceFrom(pixelHint geometry.Point2D) {
	s.mu.Lock()
	grid := s.grid
	cal := s.calibration
	cfg := s.traceConfig.Sanitized()
	radius := cfg.SearchRadius
	policy, snapping := s.currentPolicyLocked()
	s.mu.Unlock()

	if grid.Empty() {
		s.setStatus("Auto-trace requires an image.")
		return
	}
	if !cal.Ready() {
		s.setStatus("Auto-trace requires completed calibration.")
		return
	}
	if cal.System != calibration.Cartesian {
		s.setStatus("Auto-trace currently supports Cartesian calibration only.")
		return
	}
	if !snapping {
		s.setStatus("Auto-trace requires snapping (Contrast/Centerline).")
		return
	}

	// Walk along the calibrated X axis; fall back to the image +X unit
	// vector when the calibration segment is degenerate.
	axisDir, ok := cal.X.Direction()
	if !ok {
		axisDir = geometry.Point2D{X: 1, Y: 0}
	}

	s.mu.Lock()
	cache := s.ensureCacheLocked()
	s.mu.Unlock()
	if cache == nil {
		s.setStatus("Auto-trace failed: no snap cache available.")
		return
	}

	start, ok := cache.FindPoint(pixelHint, radius, policy)
	if !ok {
		s.setStatus("Auto-trace failed: no snap candidate near the click.")
		return
	}

	points := trace.Run(cache, cfg, start, axisDir, grid.Width, grid.Height, policy)
	if len(points) == 0 {
		s.setStatus("Auto-trace found no points.")
		return
	}

	s.AddPoints(points)
	s.setStatus(fmt.Sprintf("Auto-trace added %d points.", len(points)))
}
