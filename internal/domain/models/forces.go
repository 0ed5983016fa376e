package models

import "time"

// FlowDirection classifies the combined multi-horizon momentum.
type FlowDirection string

const (
	FlowUp      FlowDirection = "ascendente"
	FlowDown    FlowDirection = "descendente"
	FlowNeutral FlowDirection = "lateral"
)

// MagneticZone is a contiguous price range with volume/price concentration
// above baseline. Zones from one pass are sorted by PriceLow and pairwise
// non-overlapping.
type MagneticZone struct {
	PriceLow      float64   `json:"price_low"`
	PriceHigh     float64   `json:"price_high"`
	Intensity     float64   `json:"intensity"` // [0,100]
	VolumeDensity float64   `json:"volume_density"`
	Compression   float64   `json:"compression"` // [0,1], 1 = tightest span
	DetectedAt    time.Time `json:"detected_at"`
}

// Center returns the zone's price midpoint.
func (z MagneticZone) Center() float64 {
	return (z.PriceLow + z.PriceHigh) / 2
}

// ResonancePair links a query window to a statistically similar historical
// window. Similarity of an identical pair at lag 0 is exactly 1.
type ResonancePair struct {
	WindowA    WindowRef `json:"window_a"`
	WindowB    WindowRef `json:"window_b"`
	Similarity float64   `json:"similarity"` // [0,1]
	Lag        int       `json:"lag"`        // bars between window starts
}

// FlowVector is the combined directional momentum across horizons.
type FlowVector struct {
	Direction  FlowDirection `json:"direction"`
	Magnitude  float64       `json:"magnitude"`  // >= 0, clipped
	Confidence float64       `json:"confidence"` // [0,1], sign agreement
	Horizon    int           `json:"horizon"`    // longest horizon used, bars
}

// FractalEcho is a motif recurring self-similarly at two or more scales.
type FractalEcho struct {
	ScaleRatio      int       `json:"scale_ratio"` // ratio with highest similarity
	PatternRef      WindowRef `json:"pattern_ref"`
	OccurrenceCount int       `json:"occurrence_count"` // qualifying scales, >= 2
	Similarity      float64   `json:"similarity"`       // mean over qualifying scales
}

// ZoneResult carries a zone detector pass output.
type ZoneResult struct {
	Zones   []MagneticZone
	Partial bool
}

// ResonanceResult carries a resonance matcher pass output.
type ResonanceResult struct {
	Pairs   []ResonancePair
	Partial bool
}

// FlowResult carries a flow estimator pass output. OK is false when the
// window was too short for any configured horizon.
type FlowResult struct {
	Vector  FlowVector
	OK      bool
	Partial bool
}

// EchoResult carries a fractal echo detector pass output.
type EchoResult struct {
	Echoes  []FractalEcho
	Partial bool
}
