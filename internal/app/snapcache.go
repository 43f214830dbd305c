package app

import (
	"fmt"

	"chart-tracer/internal/snap"
	"chart-tracer/pkg/geometry"
)

// buildJob is one in-flight background cache build. The channel has
// capacity 1 so the worker never blocks on delivery.
type buildJob struct {
	generation uint64
	result     chan *snap.Cache
}

// MarkCacheDirty invalidates the snap cache. The generation bump makes any
// in-flight build stale; its result will be discarded when it arrives.
func (s *State) MarkCacheDirty() {
	s.mu.Lock()
	s.cacheDirty = true
	s.cache = nil
	s.pending = nil
	s.generation++
	s.mu.Unlock()
}

// StartCacheBuild kicks off a background cache build if one is needed and
// none is in flight. A second request while one is pending is a no-op.
func (s *State) StartCacheBuild() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startCacheBuildLocked()
}

func (s *State) startCacheBuildLocked() {
	if s.pending != nil || !s.cacheDirty {
		return
	}
	if s.grid.Empty() {
		s.cacheDirty = false
		s.cache = nil
		return
	}
	job := &buildJob{
		generation: s.generation,
		result:     make(chan *snap.Cache, 1),
	}
	grid := s.grid
	target := s.snapSettings.TargetColor
	tolerance := s.snapSettings.ColorTolerance
	go func() {
		job.result <- snap.Build(grid, target, tolerance)
	}()
	s.pending = job
	s.cacheDirty = false
}

// PollCacheBuild collects a finished background build, if any. Results from
// builds started before the last MarkCacheDirty are discarded. A closed or
// dead worker is treated the same as "no cache yet".
func (s *State) PollCacheBuild() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pollCacheBuildLocked()
}

func (s *State) pollCacheBuildLocked() {
	job := s.pending
	if job == nil {
		return
	}
	select {
	case cache, ok := <-job.result:
		s.pending = nil
		if !ok || job.generation != s.generation {
			return
		}
		s.cache = cache
	default:
	}
}

// ensureCacheLocked makes sure a usable cache exists, falling back to a
// synchronous inline build when a query arrives before any background build
// has delivered. This is the only blocking path in the engine.
func (s *State) ensureCacheLocked() *snap.Cache {
	s.pollCacheBuildLocked()
	if s.cache != nil {
		return s.cache
	}
	if s.cacheDirty && s.pending == nil {
		s.startCacheBuildLocked()
	}
	s.pollCacheBuildLocked()
	if s.cache != nil {
		return s.cache
	}
	if s.grid.Empty() {
		return nil
	}
	s.cache = snap.Build(s.grid, s.snapSettings.TargetColor, s.snapSettings.ColorTolerance)
	s.pending = nil
	s.cacheDirty = false
	return s.cache
}

// CurrentPolicy returns the snap policy for the active input mode, or false
// in free mode.
func (s *State) CurrentPolicy() (snap.Policy, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentPolicyLocked()
}

func (s *State) currentPolicyLocked() (snap.Policy, bool) {
	switch s.snapSettings.InputMode {
	case ModeContrastSnap:
		return snap.Contrast(
			s.snapSettings.FeatureSource,
			s.snapSettings.ThresholdKind,
			s.snapSettings.ContrastThreshold,
		), true
	case ModeCenterlineSnap:
		return snap.Centerline(s.snapSettings.CenterlineThreshold), true
	default:
		return snap.Policy{}, false
	}
}

// FindSnapPoint resolves a click to a snapped position using the active
// policy and the configured search radius. Returns false in free mode or
// when nothing qualifies in range.
func (s *State) FindSnapPoint(pixelHint geometry.Point2D) (geometry.Point2D, bool) {
	s.mu.Lock()
	policy, ok := s.currentPolicyLocked()
	if !ok {
		s.mu.Unlock()
		return geometry.Point2D{}, false
	}
	radius := s.snapSettings.SearchRadius
	cache := s.ensureCacheLocked()
	s.mu.Unlock()
	if cache == nil {
		return geometry.Point2D{}, false
	}
	return cache.FindPoint(pixelHint, radius, policy)
}

// SnapPixelIfRequested snaps the click when a snap mode is active, falling
// back to the raw click position.
func (s *State) SnapPixelIfRequested(pixelHint geometry.Point2D) geometry.Point2D {
	if snapped, ok := s.FindSnapPoint(pixelHint); ok {
		return snapped
	}
	return pixelHint
}

// PickCurveColorAt samples the image color under the cursor and makes it
// the snap target color.
func (s *State) PickCurveColorAt(pixel geometry.Point2D) {
	s.mu.RLock()
	grid := s.grid
	s.mu.RUnlock()

	c, ok := grid.SampleColor(pixel)
	if !ok {
		s.setStatus("Unable to pick color at cursor.")
		return
	}
	s.mu.Lock()
	s.snapSettings.TargetColor = c
	s.mu.Unlock()
	s.MarkCacheDirty()
	s.setStatus(fmt.Sprintf("Picked curve color #%02X%02X%02X", c.R, c.G, c.B))
}
