// Command snaptrace runs the curve-snapping engine against a chart image:
// snap a single click or auto-trace a whole curve, then export the points.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"chart-tracer/internal/app"
	"chart-tracer/internal/calibration"
	"chart-tracer/internal/export"
	img "chart-tracer/internal/image"
	"chart-tracer/internal/project"
	"chart-tracer/internal/snap"
	"chart-tracer/internal/trace"
	"chart-tracer/internal/version"
	"chart-tracer/pkg/geometry"
)

func main() {
	imagePath := flag.String("image", "", "Path to chart image (PNG, JPEG, TIFF, or BMP)")
	target := flag.String("target", "#C83C3C", "Target curve color as #RRGGBB")
	tolerance := flag.Float64("tolerance", 30, "Color tolerance for the target color")
	mode := flag.String("mode", "contrast", "Snap mode: contrast or centerline")
	source := flag.String("source", "luma", "Contrast feature source: luma, color, or hybrid")
	thresholdKind := flag.String("threshold-kind", "gradient", "Contrast threshold kind: gradient or score")
	threshold := flag.Float64("threshold", 20, "Snap acceptance threshold")
	radius := flag.Float64("radius", 12, "Snap search radius in pixels")
	click := flag.String("click", "", "Click position as x,y in image pixels")

	doTrace := flag.Bool("trace", false, "Auto-trace the curve from the click instead of a single snap")
	direction := flag.String("direction", "both", "Trace direction: forward, backward, or both")
	stepPx := flag.Float64("step", 6, "Trace step in pixels")
	maxPoints := flag.Int("max-points", 800, "Trace point limit per direction")
	maxMisses := flag.Int("max-misses", 8, "Consecutive misses before a trace direction stops")
	minAdvance := flag.Float64("min-advance", 1, "Minimum axis progress per accepted point")
	dedupRadius := flag.Float64("dedup", 1.5, "Minimum spacing between kept points")

	calX := flag.String("cal-x", "", "X calibration as x1,y1,x2,y2,v1,v2 (defaults to image width 0..1)")
	calY := flag.String("cal-y", "", "Y calibration as x1,y1,x2,y2,v1,v2 (defaults to image height 0..1)")

	gray := flag.Bool("gray", false, "Convert the image to grayscale before snapping")
	blur := flag.Int("blur", 0, "Gaussian blur kernel size (0 = off)")
	invert := flag.Bool("invert", false, "Invert image colors before snapping")
	rotate := flag.Int("rotate", 0, "Rotate the image by 90 or -90 degrees before snapping")
	suggestColors := flag.Bool("suggest-colors", false, "Print overlay colors that contrast with the image")

	saveProject := flag.String("save-project", "", "Save calibration, settings, and traced points to this project file")
	loadProject := flag.String("load-project", "", "Restore calibration, settings, and trace config from a project file")

	csvPath := flag.String("csv", "", "Write traced points to this CSV file")
	jsonPath := flag.String("json", "", "Write traced points to this JSON file")
	resample := flag.Int("resample", 0, "Resample exported points at N uniform X steps (0 = off)")
	interpName := flag.String("interp", "linear", "Resampling algorithm: linear, step, or cubic")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("snaptrace", version.Version)
		return
	}
	if *imagePath == "" || *click == "" {
		fmt.Println("Usage: snaptrace -image <path> -click x,y [-trace] [options]")
		os.Exit(1)
	}

	grid, err := img.Load(*imagePath)
	if err != nil {
		fatalf("Failed to load image: %v", err)
	}
	fmt.Printf("Loaded image: %dx%d pixels\n", grid.Width, grid.Height)

	grid = applyFilters(grid, *gray, *blur, *invert)
	switch *rotate {
	case 0:
	case 90:
		grid = grid.Rotate90CW()
	case -90, 270:
		grid = grid.Rotate90CCW()
	default:
		fatalf("Invalid -rotate: %d (expected 90 or -90)", *rotate)
	}

	if *suggestColors {
		fmt.Println("Suggested overlay colors:")
		for _, c := range snap.SuggestOverlayColors(grid) {
			fmt.Printf("  #%02X%02X%02X\n", c.R, c.G, c.B)
		}
	}

	clickPoint, err := parsePoint(*click)
	if err != nil {
		fatalf("Invalid -click: %v", err)
	}
	targetColor, err := parseHexColor(*target)
	if err != nil {
		fatalf("Invalid -target: %v", err)
	}

	state := app.NewState()
	state.SetImage(grid)
	state.SetCalibration(buildCalibration(*calX, *calY, grid))

	settings := app.DefaultSnapSettings()
	settings.TargetColor = targetColor
	settings.ColorTolerance = *tolerance
	settings.SearchRadius = *radius
	settings.ContrastThreshold = *threshold
	settings.CenterlineThreshold = *threshold
	settings.InputMode = parseMode(*mode)
	settings.FeatureSource = parseSource(*source)
	settings.ThresholdKind = parseThresholdKind(*thresholdKind)
	state.SetSnapSettings(settings)

	state.SetTraceConfig(trace.Config{
		Direction:    parseDirection(*direction),
		StepPx:       *stepPx,
		SearchRadius: *radius,
		MaxPoints:    *maxPoints,
		MaxMisses:    *maxMisses,
		MinAdvance:   *minAdvance,
		DedupRadius:  *dedupRadius,
	})

	if *loadProject != "" {
		applyProject(state, *loadProject)
	}

	if !*doTrace {
		snapped, ok := state.FindSnapPoint(clickPoint)
		if !ok {
			fmt.Println("No snap candidate in range.")
			os.Exit(1)
		}
		fmt.Printf("Snapped (%.2f, %.2f) -> (%.3f, %.3f)\n",
			clickPoint.X, clickPoint.Y, snapped.X, snapped.Y)
		return
	}

	state.AutoTraceFrom(clickPoint)
	fmt.Println(state.Status())
	points := state.Points()
	if len(points) == 0 {
		os.Exit(1)
	}

	printPointTable(state, points)

	if *csvPath != "" || *jsonPath != "" {
		payload := buildPayload(state, points, *resample, *interpName)
		if *csvPath != "" {
			if err := export.WriteCSV(*csvPath, payload); err != nil {
				fatalf("CSV export failed: %v", err)
			}
			fmt.Printf("Wrote %s\n", *csvPath)
		}
		if *jsonPath != "" {
			if err := export.WriteJSON(*jsonPath, payload); err != nil {
				fatalf("JSON export failed: %v", err)
			}
			fmt.Printf("Wrote %s\n", *jsonPath)
		}
	}

	if *saveProject != "" {
		writeProject(state, *saveProject, *imagePath, points)
	}
}

// applyProject restores calibration, snap settings, and the trace config from
// a saved project, overriding the corresponding flags.
func applyProject(state *app.State, path string) {
	outcome, err := project.Load(path)
	if err != nil {
		fatalf("Failed to load project: %v", err)
	}
	for _, warning := range outcome.Warnings {
		fmt.Printf("Warning: %s\n", warning)
	}
	p := outcome.Payload

	state.SetCalibration(p.Calibration)
	state.SetTraceConfig(p.Trace)
	state.SetSnapSettings(app.SnapSettings{
		InputMode:           app.PointInputMode(p.Snap.InputMode),
		TargetColor:         color.RGBA{R: p.Snap.TargetR, G: p.Snap.TargetG, B: p.Snap.TargetB, A: 255},
		ColorTolerance:      p.Snap.ColorTolerance,
		SearchRadius:        p.Snap.SearchRadius,
		ContrastThreshold:   p.Snap.ContrastThreshold,
		CenterlineThreshold: p.Snap.CenterlineThreshold,
		FeatureSource:       snap.FeatureSource(p.Snap.FeatureSource),
		ThresholdKind:       snap.ThresholdKind(p.Snap.ThresholdKind),
	})
	fmt.Printf("Restored project %q\n", p.Name)
}

func writeProject(state *app.State, path, imagePath string, points []app.PickedPoint) {
	settings := state.SnapSettings()
	pixels := make([]geometry.Point2D, 0, len(points))
	for _, p := range points {
		pixels = append(pixels, p.Pos)
	}
	payload := &project.Payload{
		Name:        strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Created:     time.Now().UTC(),
		ImagePath:   imagePath,
		Calibration: state.Calibration(),
		Snap: project.SnapSettingsRecord{
			InputMode:           int(settings.InputMode),
			TargetR:             settings.TargetColor.R,
			TargetG:             settings.TargetColor.G,
			TargetB:             settings.TargetColor.B,
			ColorTolerance:      settings.ColorTolerance,
			SearchRadius:        settings.SearchRadius,
			ContrastThreshold:   settings.ContrastThreshold,
			CenterlineThreshold: settings.CenterlineThreshold,
			FeatureSource:       int(settings.FeatureSource),
			ThresholdKind:       int(settings.ThresholdKind),
		},
		Trace:  state.TraceConfig(),
		Points: pixels,
	}
	if crc, err := project.ComputeImageCRC32(imagePath); err == nil {
		payload.ImageCRC32 = crc
	}
	if err := project.Save(path, payload); err != nil {
		fatalf("Failed to save project: %v", err)
	}
	fmt.Printf("Wrote %s\n", path)
}

func applyFilters(grid *img.Grid, gray bool, blur int, invert bool) *img.Grid {
	var err error
	if gray {
		if grid, err = img.Grayscale(grid); err != nil {
			fatalf("Grayscale filter failed: %v", err)
		}
	}
	if blur > 0 {
		if grid, err = img.GaussianBlur(grid, blur); err != nil {
			fatalf("Blur filter failed: %v", err)
		}
	}
	if invert {
		if grid, err = img.Invert(grid); err != nil {
			fatalf("Invert filter failed: %v", err)
		}
	}
	return grid
}

// buildCalibration parses the calibration flags, defaulting each axis to
// the image edges mapped onto 0..1.
func buildCalibration(calX, calY string, grid *img.Grid) calibration.Calibration {
	cal := calibration.Calibration{System: calibration.Cartesian}

	cal.X = calibration.AxisMapping{
		P2: geometry.Point2D{X: float64(grid.Width - 1)},
		V2: 1,
	}
	cal.Y = calibration.AxisMapping{
		P1: geometry.Point2D{Y: float64(grid.Height - 1)},
		V2: 1,
	}
	if calX != "" {
		mapping, err := parseMapping(calX)
		if err != nil {
			fatalf("Invalid -cal-x: %v", err)
		}
		cal.X = mapping
	}
	if calY != "" {
		mapping, err := parseMapping(calY)
		if err != nil {
			fatalf("Invalid -cal-y: %v", err)
		}
		cal.Y = mapping
	}
	cal.XSet = true
	cal.YSet = true
	return cal
}

func printPointTable(state *app.State, points []app.PickedPoint) {
	cal := state.Calibration()
	fmt.Printf("%-6s %10s %10s %12s %12s\n", "#", "px", "py", "x", "y")
	for i, p := range points {
		x, y, ok := cal.ValueAt(p.Pos)
		if ok {
			fmt.Printf("%-6d %10.2f %10.2f %12.5g %12.5g\n", i+1, p.Pos.X, p.Pos.Y, x, y)
		} else {
			fmt.Printf("%-6d %10.2f %10.2f %12s %12s\n", i+1, p.Pos.X, p.Pos.Y, "-", "-")
		}
	}
}

func buildPayload(state *app.State, points []app.PickedPoint, resample int, interpName string) *export.Payload {
	cal := state.Calibration()
	values := make([]export.XYPoint, 0, len(points))
	for _, p := range points {
		x, y, ok := cal.ValueAt(p.Pos)
		if !ok {
			continue
		}
		values = append(values, export.XYPoint{X: x, Y: y})
	}

	if resample > 0 {
		resampled, err := export.Resample(values, parseInterp(interpName), resample)
		if err != nil {
			fatalf("Resampling failed: %v", err)
		}
		values = resampled
	}

	return &export.Payload{
		XHeader: "x",
		YHeader: "y",
		Points:  values,
		Extras: []export.ExtraColumn{
			{Header: "distance", Values: export.SequentialDistances(values)},
			{Header: "turn_deg", Values: export.TurningAngles(values)},
		},
	}
}

func parsePoint(s string) (geometry.Point2D, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return geometry.Point2D{}, fmt.Errorf("expected x,y")
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return geometry.Point2D{}, err
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return geometry.Point2D{}, err
	}
	return geometry.Point2D{X: x, Y: y}, nil
}

func parseMapping(s string) (calibration.AxisMapping, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 6 {
		return calibration.AxisMapping{}, fmt.Errorf("expected x1,y1,x2,y2,v1,v2")
	}
	nums := make([]float64, 6)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return calibration.AxisMapping{}, err
		}
		nums[i] = v
	}
	return calibration.AxisMapping{
		P1: geometry.Point2D{X: nums[0], Y: nums[1]},
		P2: geometry.Point2D{X: nums[2], Y: nums[3]},
		V1: nums[4],
		V2: nums[5],
	}, nil
}

func parseHexColor(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("expected #RRGGBB")
	}
	value, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, err
	}
	return color.RGBA{
		R: uint8(value >> 16),
		G: uint8(value >> 8),
		B: uint8(value),
		A: 255,
	}, nil
}

func parseMode(s string) app.PointInputMode {
	if strings.EqualFold(s, "centerline") {
		return app.ModeCenterlineSnap
	}
	return app.ModeContrastSnap
}

func parseSource(s string) snap.FeatureSource {
	switch strings.ToLower(s) {
	case "color":
		return snap.SourceColorMatch
	case "hybrid":
		return snap.SourceHybrid
	default:
		return snap.SourceLumaGradient
	}
}

func parseThresholdKind(s string) snap.ThresholdKind {
	if strings.EqualFold(s, "score") {
		return snap.ThresholdScore
	}
	return snap.ThresholdGradient
}

func parseDirection(s string) trace.Direction {
	switch strings.ToLower(s) {
	case "forward":
		return trace.Forward
	case "backward":
		return trace.Backward
	default:
		return trace.Both
	}
}

func parseInterp(s string) export.Algorithm {
	switch strings.ToLower(s) {
	case "step":
		return export.StepHold
	case "cubic":
		return export.NaturalCubic
	default:
		return export.Linear
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
