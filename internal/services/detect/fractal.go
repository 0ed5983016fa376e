package detect

import (
	"context"
	"sort"

	"ForceField/internal/domain/models"
	"ForceField/pkg/config"
)

// minEchoLen is the shortest resampled series worth correlating; below
// this the comparison is numerically meaningless.
const minEchoLen = 8

// EchoDetector finds temporal echoes: motifs recurring self-similarly at
// two or more time scales.
type EchoDetector struct {
	cfg config.DetectionConfig
}

// NewEchoDetector creates a fractal echo detector from validated
// configuration.
func NewEchoDetector(cfg config.DetectionConfig) *EchoDetector {
	return &EchoDetector{cfg: cfg}
}

// DetectEchoes resamples the window at each scale ratio by block-mean
// aggregation (preserving shape, unlike plain subsampling) and compares
// each coarse series against the most recent equal-length stretch of the
// original. An echo is flagged only when two or more distinct scales
// qualify simultaneously; a single-scale match is coincidence, not
// self-similarity. Degenerate (flat) windows yield no echoes.
func (d *EchoDetector) DetectEchoes(ctx context.Context, w models.Window) models.EchoResult {
	n := len(w.Points)
	if n < d.cfg.MinPoints {
		return models.EchoResult{}
	}

	closes := w.Closes()
	ratios := append([]int(nil), d.cfg.ScaleRatios...)
	sort.Ints(ratios)

	type qualifying struct {
		ratio int
		sim   float64
	}
	var quals []qualifying
	partial := false
	for _, r := range ratios {
		if ctx.Err() != nil {
			partial = true
			break
		}
		blocks := n / r
		if blocks < minEchoLen {
			continue
		}
		coarse := resample(closes, r, blocks)
		fine := closes[n-blocks:]
		sim, ok := Similarity(zscore(coarse), zscore(fine))
		if !ok {
			continue
		}
		if sim >= d.cfg.EchoThreshold {
			quals = append(quals, qualifying{ratio: r, sim: sim})
		}
	}

	if len(quals) < 2 {
		return models.EchoResult{Partial: partial}
	}

	best := quals[0]
	var simSum float64
	for _, q := range quals {
		simSum += q.sim
		if q.sim > best.sim {
			best = q
		}
	}
	echo := models.FractalEcho{
		ScaleRatio:      best.ratio,
		PatternRef:      w.Ref,
		OccurrenceCount: len(quals),
		Similarity:      simSum / float64(len(quals)),
	}
	return models.EchoResult{Echoes: []models.FractalEcho{echo}, Partial: partial}
}

// resample aggregates xs into `blocks` block means of size r, aligned to
// the end of the series.
func resample(xs []float64, r, blocks int) []float64 {
	out := make([]float64, blocks)
	offset := len(xs) - blocks*r
	for j := 0; j < blocks; j++ {
		var sum float64
		for i := 0; i < r; i++ {
			sum += xs[offset+j*r+i]
		}
		out[j] = sum / float64(r)
	}
	return out
}
