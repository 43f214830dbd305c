package snap

import "math"

// FeatureSource selects the feature map used to score candidate pixels.
type FeatureSource int

const (
	// SourceLumaGradient scores pixels by luminance edge strength.
	SourceLumaGradient FeatureSource = iota
	// SourceColorMatch scores pixels by similarity to the target color.
	SourceColorMatch
	// SourceHybrid blends gradient and color similarity (0.6 / 0.4).
	SourceHybrid
)

// FeatureSources lists the sources in display order.
var FeatureSources = [3]FeatureSource{SourceLumaGradient, SourceColorMatch, SourceHybrid}

func (s FeatureSource) String() string {
	switch s {
	case SourceLumaGradient:
		return "Luma gradient"
	case SourceColorMatch:
		return "Color mask"
	case SourceHybrid:
		return "Gradient + color"
	default:
		return "Unknown"
	}
}

// ThresholdKind selects how the acceptance threshold is interpreted.
type ThresholdKind int

const (
	// ThresholdGradient requires the raw gradient to reach the threshold.
	ThresholdGradient ThresholdKind = iota
	// ThresholdScore requires the feature strength to reach the threshold.
	ThresholdScore
)

func (k ThresholdKind) String() string {
	switch k {
	case ThresholdGradient:
		return "Gradient only"
	case ThresholdScore:
		return "Feature score"
	default:
		return "Unknown"
	}
}

// PolicyKind identifies the top-level snapping behavior.
type PolicyKind int

const (
	// KindContrast snaps to strong features (edges or color matches).
	KindContrast PolicyKind = iota
	// KindCenterline snaps to flat, color-matched stroke interiors.
	KindCenterline
)

// Policy is a closed scoring and threshold rule consumed by candidate search.
// There are exactly two kinds; Source and ThresholdKind only apply to Contrast.
type Policy struct {
	Kind          PolicyKind
	Source        FeatureSource
	ThresholdKind ThresholdKind
	Threshold     float64
}

// Contrast builds a contrast-snapping policy.
func Contrast(source FeatureSource, kind ThresholdKind, threshold float64) Policy {
	return Policy{Kind: KindContrast, Source: source, ThresholdKind: kind, Threshold: threshold}
}

// Centerline builds a centerline-snapping policy. Centerline rewards flat,
// color-matched interior pixels and penalizes edges, biasing toward the
// middle of a stroke rather than its boundary.
func Centerline(threshold float64) Policy {
	return Policy{Kind: KindCenterline, Threshold: threshold}
}

// featureStrength scores a pixel given its gradient magnitude and color
// similarity. Zero or negative strength excludes the pixel outright.
func (p Policy) featureStrength(gradient, similarity float64) float64 {
	switch p.Kind {
	case KindCenterline:
		colorStrength := clamp(similarity*255.0, 0, 255)
		if colorStrength <= epsilon {
			return 0
		}
		gradNorm := clamp(gradient/255.0, 0, 1)
		return colorStrength * (1 - gradNorm)
	default:
		switch p.Source {
		case SourceColorMatch:
			return clamp(similarity*255.0, 0, 255)
		case SourceHybrid:
			gradStrength := clamp(gradient, 0, 255)
			colorStrength := clamp(similarity*255.0, 0, 255)
			return 0.6*gradStrength + 0.4*colorStrength
		default:
			return clamp(gradient, 0, 255)
		}
	}
}

// thresholdPasses reports whether a pixel passes the policy's acceptance gate.
func (p Policy) thresholdPasses(gradient, strength float64) bool {
	if p.Kind == KindCenterline {
		return strength >= p.Threshold
	}
	if p.ThresholdKind == ThresholdGradient {
		return gradient >= p.Threshold
	}
	return strength >= p.Threshold
}

const epsilon = 1e-7

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
