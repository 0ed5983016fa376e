package detect

import (
	"context"
	"sort"

	"ForceField/internal/domain/models"
	"ForceField/pkg/config"
)

// ResonanceMatcher finds historical windows statistically similar to the
// most recent window of the series.
type ResonanceMatcher struct {
	cfg config.DetectionConfig
}

// NewResonanceMatcher creates a resonance matcher from validated
// configuration.
func NewResonanceMatcher(cfg config.DetectionConfig) *ResonanceMatcher {
	return &ResonanceMatcher{cfg: cfg}
}

// Compare scores two equal-length series. Both are z-normalized first to
// remove absolute-scale bias. Identical series always score exactly 1,
// including degenerate flat ones, which fall back to element equality.
func (d *ResonanceMatcher) Compare(a, b []float64) float64 {
	if equalSeries(a, b) && len(a) > 0 {
		return 1
	}
	sim, ok := Similarity(zscore(a), zscore(b))
	if !ok {
		return 0
	}
	return sim
}

// Match slides candidate windows over the history preceding the query (the
// trailing ResonanceWindow points) and keeps the TopK candidates above the
// similarity threshold. Ties break toward the smaller lag: the more recent
// match wins.
func (d *ResonanceMatcher) Match(ctx context.Context, w models.Window) models.ResonanceResult {
	n := len(w.Points)
	wl := d.cfg.ResonanceWindow
	if n < d.cfg.MinPoints || n < 2*wl {
		return models.ResonanceResult{}
	}

	closes := w.Closes()
	queryStart := n - wl
	query := closes[queryStart:]
	queryRef := models.WindowRef{
		Version: w.Ref.Version,
		Start:   w.Ref.Start + queryStart,
		Length:  wl,
	}

	var pairs []models.ResonancePair
	partial := false
	for start, checked := 0, 0; start <= queryStart-wl; start, checked = start+d.cfg.ResonanceStride, checked+1 {
		if checked%32 == 0 && ctx.Err() != nil {
			partial = true
			break
		}
		cand := closes[start : start+wl]
		sim := d.Compare(query, cand)
		if sim < d.cfg.SimilarityThreshold {
			continue
		}
		pairs = append(pairs, models.ResonancePair{
			WindowA: queryRef,
			WindowB: models.WindowRef{
				Version: w.Ref.Version,
				Start:   w.Ref.Start + start,
				Length:  wl,
			},
			Similarity: sim,
			Lag:        queryStart - start,
		})
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Similarity != pairs[j].Similarity {
			return pairs[i].Similarity > pairs[j].Similarity
		}
		return pairs[i].Lag < pairs[j].Lag
	})
	if len(pairs) > d.cfg.TopK {
		pairs = pairs[:d.cfg.TopK]
	}
	return models.ResonanceResult{Pairs: pairs, Partial: partial}
}
