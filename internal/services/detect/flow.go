package detect

import (
	"context"
	"math"
	"sort"

	"ForceField/internal/domain/models"
	"ForceField/pkg/config"
)

// FlowEstimator computes gravitational flow: the combined directional
// momentum of price over multiple lookback horizons.
type FlowEstimator struct {
	cfg config.DetectionConfig
}

// NewFlowEstimator creates a flow estimator from validated configuration.
func NewFlowEstimator(cfg config.DetectionConfig) *FlowEstimator {
	return &FlowEstimator{cfg: cfg}
}

// EstimateFlow computes per-horizon normalized price change, combines them
// with exponentially decayed weights favoring shorter horizons, and
// classifies direction against the neutrality band. A zero-variance window
// yields magnitude 0 and a neutral direction.
func (d *FlowEstimator) EstimateFlow(ctx context.Context, w models.Window) models.FlowResult {
	n := len(w.Points)
	if n < d.cfg.MinPoints {
		return models.FlowResult{}
	}
	_ = ctx // flow is O(len(horizons)); no deadline checkpoint needed

	horizons := append([]int(nil), d.cfg.Horizons...)
	sort.Ints(horizons)

	last := w.Points[n-1].Close
	type momentum struct {
		horizon int
		value   float64
	}
	var moms []momentum
	for _, h := range horizons {
		if h >= n {
			continue // InsufficientData for this horizon only
		}
		ref := w.Points[n-1-h].Close
		if ref == 0 {
			continue
		}
		moms = append(moms, momentum{horizon: h, value: (last - ref) / ref})
	}
	if len(moms) == 0 {
		return models.FlowResult{}
	}

	// Shorter horizons carry heavier weight: w_i = 2^-i in ascending
	// horizon order.
	var combined, weightSum float64
	for i, m := range moms {
		weight := math.Pow(2, -float64(i))
		combined += weight * m.value
		weightSum += weight
	}
	combined /= weightSum

	vec := models.FlowVector{
		Direction: models.FlowNeutral,
		Horizon:   moms[len(moms)-1].horizon,
	}
	if combined > d.cfg.NeutralBand {
		vec.Direction = models.FlowUp
	} else if combined < -d.cfg.NeutralBand {
		vec.Direction = models.FlowDown
	}

	mag := math.Abs(combined)
	if vec.Direction == models.FlowNeutral {
		mag = 0
	}
	if mag > d.cfg.MaxMagnitude {
		mag = d.cfg.MaxMagnitude
	}
	vec.Magnitude = mag

	if vec.Direction != models.FlowNeutral {
		agree := 0
		for _, m := range moms {
			if (combined > 0) == (m.value > 0) && m.value != 0 {
				agree++
			}
		}
		vec.Confidence = float64(agree) / float64(len(moms))
	}

	return models.FlowResult{Vector: vec, OK: true}
}
