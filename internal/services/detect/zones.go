package detect

import (
	"context"
	"math"
	"sort"

	"ForceField/internal/domain/models"
	"ForceField/pkg/config"
)

// ZoneDetector clusters close prices into magnetic zones using a
// volume-weighted histogram against a rolling baseline density.
type ZoneDetector struct {
	cfg config.DetectionConfig
}

// NewZoneDetector creates a zone detector from validated configuration.
func NewZoneDetector(cfg config.DetectionConfig) *ZoneDetector {
	return &ZoneDetector{cfg: cfg}
}

// DetectZones builds the histogram, qualifies buckets above baseline,
// merges near-adjacent candidates and scores intensity. Output zones are
// sorted ascending by PriceLow and pairwise non-overlapping. A window
// below the minimum point count, or with no price spread, yields an empty
// list rather than an error.
func (d *ZoneDetector) DetectZones(ctx context.Context, w models.Window) models.ZoneResult {
	if len(w.Points) < d.cfg.MinPoints {
		return models.ZoneResult{}
	}

	low, high := w.PriceRange()
	windowRange := high - low
	if windowRange <= 0 {
		// Constant price carries no concentration structure.
		return models.ZoneResult{}
	}

	width := d.cfg.BucketWidth
	nb := int(math.Ceil(windowRange / width))
	if nb < 1 {
		nb = 1
	}

	buckets := make([]float64, nb)
	var totalVolume float64
	for i, p := range w.Points {
		if i%256 == 0 && ctx.Err() != nil {
			return models.ZoneResult{Partial: true}
		}
		idx := int((p.Close - low) / width)
		if idx >= nb {
			idx = nb - 1 // top edge is inclusive
		}
		buckets[idx] += p.Volume
		totalVolume += p.Volume
	}
	if totalVolume <= 0 {
		return models.ZoneResult{}
	}

	qualifying := d.qualify(buckets)

	// Contiguous qualifying buckets form candidates; candidates separated
	// by fewer than MergeGapTolerance buckets are merged.
	type span struct{ from, to int }
	var spans []span
	gap := d.cfg.MergeGapTolerance
	for i := 0; i < nb; i++ {
		if !qualifying[i] {
			continue
		}
		if len(spans) > 0 {
			sep := i - spans[len(spans)-1].to - 1
			if sep == 0 || sep < gap {
				spans[len(spans)-1].to = i
				continue
			}
		}
		spans = append(spans, span{from: i, to: i})
	}

	detectedAt := w.LastTimestamp()
	zones := make([]models.MagneticZone, 0, len(spans))
	for _, sp := range spans {
		var vol float64
		for i := sp.from; i <= sp.to; i++ {
			vol += buckets[i]
		}
		zLow := low + float64(sp.from)*width
		zHigh := low + float64(sp.to+1)*width
		if zHigh > high {
			zHigh = high
		}
		if zLow < low {
			zLow = low
		}

		volumeShare := vol / totalVolume
		compression := 1 - (zHigh-zLow)/windowRange
		if compression < 0 {
			compression = 0
		}
		intensity := 100 * (0.85*volumeShare + 0.15*compression)
		if intensity > 100 {
			intensity = 100
		}
		if intensity < d.cfg.IntensityThreshold {
			continue
		}
		zones = append(zones, models.MagneticZone{
			PriceLow:      zLow,
			PriceHigh:     zHigh,
			Intensity:     intensity,
			VolumeDensity: vol / float64(sp.to-sp.from+1),
			Compression:   compression,
			DetectedAt:    detectedAt,
		})
	}

	sort.Slice(zones, func(i, j int) bool { return zones[i].PriceLow < zones[j].PriceLow })
	return models.ZoneResult{Zones: zones}
}

// qualify marks buckets whose volume density exceeds the rolling baseline
// by the configured multiple. The baseline for the first bucket is the
// mean of all remaining buckets, since it has no trailing history.
func (d *ZoneDetector) qualify(buckets []float64) []bool {
	nb := len(buckets)
	out := make([]bool, nb)
	n := d.cfg.BaselineWindow
	mult := d.cfg.BaselineMultiple

	for i := range buckets {
		if buckets[i] <= 0 {
			continue
		}
		var baseline float64
		if i == 0 {
			var sum float64
			for j := 1; j < nb; j++ {
				sum += buckets[j]
			}
			if nb > 1 {
				baseline = sum / float64(nb-1)
			}
		} else {
			from := i - n
			if from < 0 {
				from = 0
			}
			var sum float64
			for j := from; j < i; j++ {
				sum += buckets[j]
			}
			baseline = sum / float64(i-from)
		}
		out[i] = buckets[i] >= mult*baseline
	}
	return out
}
