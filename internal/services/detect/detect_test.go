package detect

import (
	"time"

	"ForceField/internal/domain/models"
	"ForceField/pkg/config"
)

// testCfg returns a detection configuration with library defaults, the
// same values pkg/config applies to an empty YAML section.
func testCfg() config.DetectionConfig {
	return config.DetectionConfig{
		MinPoints:           20,
		BucketWidth:         25,
		IntensityThreshold:  50,
		BaselineWindow:      8,
		BaselineMultiple:    1.5,
		MergeGapTolerance:   2,
		SimilarityThreshold: 0.7,
		TopK:                5,
		ResonanceWindow:     20,
		ResonanceStride:     5,
		Horizons:            []int{5, 10, 20, 40},
		NeutralBand:         0.001,
		MaxMagnitude:        0.2,
		ScaleRatios:         []int{2, 4, 8},
		EchoThreshold:       0.6,
		InterpretationTTL:   time.Hour,
		PassTimeout:         5 * time.Second,
	}
}

// window builds a window over synthetic closes with uniform volume.
func window(closes []float64, volume float64) models.Window {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	pts := make([]models.PricePoint, len(closes))
	for i, c := range closes {
		pts[i] = models.PricePoint{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Open:      c, High: c, Low: c, Close: c,
			Volume: volume,
		}
	}
	return models.Window{
		Ref:    models.WindowRef{Version: 1, Start: 0, Length: len(pts)},
		Points: pts,
	}
}

func flatCloses(n int, price float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = price
	}
	return out
}

func rampCloses(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}
