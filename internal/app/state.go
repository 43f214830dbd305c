// Package app provides the stateful orchestration around the snapping
// engine: snap settings, the background-built feature cache, the shared
// point collection, and status reporting.
package app

import (
	"image/color"
	"sync"

	"chart-tracer/internal/calibration"
	img "chart-tracer/internal/image"
	"chart-tracer/internal/snap"
	"chart-tracer/internal/trace"
	"chart-tracer/pkg/geometry"
)

// PointInputMode selects how a click is turned into a point.
type PointInputMode int

const (
	// ModeFree records the click position unmodified.
	ModeFree PointInputMode = iota
	// ModeContrastSnap snaps the click to the strongest nearby feature.
	ModeContrastSnap
	// ModeCenterlineSnap snaps the click to the middle of a matching stroke.
	ModeCenterlineSnap
)

func (m PointInputMode) String() string {
	switch m {
	case ModeContrastSnap:
		return "Contrast snap"
	case ModeCenterlineSnap:
		return "Centerline snap"
	default:
		return "Free"
	}
}

// EventType identifies application events.
type EventType int

const (
	EventImageChanged EventType = iota
	EventPointsChanged
	EventStatusChanged
	EventCacheRebuilt
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// PickedPoint is a single recorded pixel position.
type PickedPoint struct {
	Pos geometry.Point2D `json:"pos"`
}

// SnapSettings holds the user-tunable snapping parameters.
type SnapSettings struct {
	InputMode           PointInputMode
	TargetColor         color.RGBA
	ColorTolerance      float64
	SearchRadius        float64
	ContrastThreshold   float64
	CenterlineThreshold float64
	FeatureSource       snap.FeatureSource
	ThresholdKind       snap.ThresholdKind
}

// DefaultSnapSettings returns the settings used for a fresh session.
func DefaultSnapSettings() SnapSettings {
	return SnapSettings{
		InputMode:           ModeContrastSnap,
		TargetColor:         color.RGBA{R: 200, G: 60, B: 60, A: 255},
		ColorTolerance:      30.0,
		SearchRadius:        12.0,
		ContrastThreshold:   20.0,
		CenterlineThreshold: 50.0,
		FeatureSource:       snap.SourceLumaGradient,
		ThresholdKind:       snap.ThresholdGradient,
	}
}

// State is the application state shared between the UI-facing surface and
// the snapping engine. All exported methods are safe for concurrent use.
type State struct {
	mu sync.RWMutex

	grid        *img.Grid
	calibration calibration.Calibration
	points      []PickedPoint
	status      string

	snapSettings SnapSettings
	traceConfig  trace.Config

	cache      *snap.Cache
	pending    *buildJob
	cacheDirty bool
	generation uint64

	listeners map[EventType][]EventListener
}

// NewState creates a fresh application state with default settings.
func NewState() *State {
	return &State{
		snapSettings: DefaultSnapSettings(),
		traceConfig:  trace.DefaultConfig(),
		cacheDirty:   true,
		listeners:    make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetImage replaces the source image and invalidates the snap cache.
func (s *State) SetImage(grid *img.Grid) {
	s.mu.Lock()
	s.grid = grid
	s.mu.Unlock()
	s.MarkCacheDirty()
	s.Emit(EventImageChanged, grid)
}

// Image returns the current pixel grid (may be nil).
func (s *State) Image() *img.Grid {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.grid
}

// SetCalibration replaces the calibration.
func (s *State) SetCalibration(c calibration.Calibration) {
	s.mu.Lock()
	s.calibration = c
	s.mu.Unlock()
}

// Calibration returns the current calibration.
func (s *State) Calibration() calibration.Calibration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calibration
}

// SnapSettings returns the current snap settings.
func (s *State) SnapSettings() SnapSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapSettings
}

// SetSnapSettings replaces the snap settings, invalidating the cache when
// the target color or tolerance changed.
func (s *State) SetSnapSettings(settings SnapSettings) {
	s.mu.Lock()
	rebuild := settings.TargetColor != s.snapSettings.TargetColor ||
		settings.ColorTolerance != s.snapSettings.ColorTolerance
	s.snapSettings = settings
	s.mu.Unlock()
	if rebuild {
		s.MarkCacheDirty()
	}
}

// TraceConfig returns the current auto-trace configuration.
func (s *State) TraceConfig() trace.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.traceConfig
}

// SetTraceConfig replaces the auto-trace configuration.
func (s *State) SetTraceConfig(cfg trace.Config) {
	s.mu.Lock()
	s.traceConfig = cfg
	s.mu.Unlock()
}

// Points returns a copy of the recorded points.
func (s *State) Points() []PickedPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]PickedPoint, len(s.points))
	copy(out, s.points)
	return out
}

// AddPoints appends points to the shared collection and notifies listeners.
func (s *State) AddPoints(points []geometry.Point2D) {
	if len(points) == 0 {
		return
	}
	s.mu.Lock()
	for _, p := range points {
		s.points = append(s.points, PickedPoint{Pos: p})
	}
	count := len(s.points)
	s.mu.Unlock()
	s.Emit(EventPointsChanged, count)
}

// ClearPoints removes all recorded points.
func (s *State) ClearPoints() {
	s.mu.Lock()
	s.points = nil
	s.mu.Unlock()
	s.Emit(EventPointsChanged, 0)
}

// Status returns the last status message.
func (s *State) Status() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *State) setStatus(status string) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
	s.Emit(EventStatusChanged, status)
}
