package compose

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"time"

	"ForceField/internal/domain/models"
)

// compressionDominance is the compression score above which a magnetic
// zone additionally reads as stored energy rather than plain attraction.
const compressionDominance = 0.75

// DetectorOutputs is everything the four detectors produced for one pass
// over a single window.
type DetectorOutputs struct {
	Zones     models.ZoneResult
	Resonance models.ResonanceResult
	Flow      models.FlowResult
	Echoes    models.EchoResult
}

// Composer turns raw detector outputs into interpretations through a
// fixed rule table. Composition is pure: the same window and outputs
// always yield the byte-identical interpretation set.
type Composer struct{}

func NewComposer() *Composer {
	return &Composer{}
}

// Compose builds the pass result for one snapshot version. Every
// interpretation carries the window's final timestamp, so repeated runs
// over the same version are indistinguishable. Output is ordered by
// timestamp, then type name, then id.
func (c *Composer) Compose(w models.Window, out DetectorOutputs) models.PassResult {
	ts := w.LastTimestamp()
	low, high := w.PriceRange()
	var last float64
	if n := len(w.Points); n > 0 {
		last = w.Points[n-1].Close
	}
	windowLoc := models.Location{PriceCenter: last, Range: [2]float64{low, high}}

	var interps []models.Interpretation

	for _, z := range out.Zones.Zones {
		loc := models.Location{PriceCenter: z.Center(), Range: [2]float64{z.PriceLow, z.PriceHigh}}
		interps = append(interps, build(
			models.TypeMagneticZone, loc, ts, z.Intensity,
			fmt.Sprintf("Campo magnético ativo detectado na zona %.0f USDT", z.Center()),
			analyzeZone(z.Intensity),
			recommendZone(z.Intensity),
		))
		if z.Compression >= compressionDominance {
			ci := z.Intensity * z.Compression
			interps = append(interps, build(
				models.TypeMagneticCompression, loc, ts, ci,
				fmt.Sprintf("Compressão magnética detectada na zona %.0f USDT", z.Center()),
				analyzeCompression(ci),
				recommendCompression(ci),
			))
		}
	}

	if n := len(out.Resonance.Pairs); n > 0 {
		best := out.Resonance.Pairs[0].Similarity
		interps = append(interps, build(
			models.TypeResonance, windowLoc, ts, best*100,
			fmt.Sprintf("Ressonância temporal detectada em %.2f USDT", last),
			analyzeResonance(n),
			recommendResonance(n),
		))
	}

	if out.Flow.OK {
		v := out.Flow.Vector
		interps = append(interps, build(
			models.TypeGravitationalFlow, windowLoc, ts, v.Confidence*100,
			fmt.Sprintf("Fluxo gravitacional %s detectado", v.Direction),
			analyzeFlow(v.Direction, v.Confidence),
			recommendFlow(v.Direction, v.Confidence),
		))
	}

	for _, e := range out.Echoes.Echoes {
		interps = append(interps, build(
			models.TypeFractalEcho, windowLoc, ts, e.Similarity*100,
			fmt.Sprintf("Eco temporal detectado em %d escalas", e.OccurrenceCount),
			analyzeEcho(e.OccurrenceCount),
			recommendEcho(e.OccurrenceCount),
		))
	}

	sort.Slice(interps, func(i, j int) bool {
		a, b := interps[i], interps[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.ID < b.ID
	})

	return models.PassResult{
		Version:          w.Ref.Version,
		Timestamp:        ts,
		Interpretations:  interps,
		PartialDetectors: partialTypes(out),
	}
}

// build fills one interpretation and derives its id from the identity
// fields, so equal detections always hash to the same record.
func build(t models.InterpretationType, loc models.Location, ts time.Time, intensity float64, desc, analysis string, recs []string) models.Interpretation {
	return models.Interpretation{
		ID:              interpretationID(t, loc, ts, intensity),
		Timestamp:       ts,
		Type:            t,
		Location:        loc,
		Intensity:       intensity,
		Description:     desc,
		Analysis:        analysis,
		Recommendations: recs,
	}
}

// interpretationID hashes the identity of a detection. Intensity is
// rounded to two decimals first so float jitter below presentation
// precision cannot split ids.
func interpretationID(t models.InterpretationType, loc models.Location, ts time.Time, intensity float64) string {
	rounded := math.Round(intensity*100) / 100
	key := fmt.Sprintf("%s|%.8f|%.8f|%.8f|%s|%.2f",
		t, loc.PriceCenter, loc.Range[0], loc.Range[1],
		ts.UTC().Format(time.RFC3339Nano), rounded)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:16])
}

// partialTypes names the detectors that hit the pass deadline, in
// stable order.
func partialTypes(out DetectorOutputs) []string {
	var types []string
	if out.Zones.Partial {
		types = append(types, string(models.TypeMagneticZone))
	}
	if out.Resonance.Partial {
		types = append(types, string(models.TypeResonance))
	}
	if out.Flow.Partial {
		types = append(types, string(models.TypeGravitationalFlow))
	}
	if out.Echoes.Partial {
		types = append(types, string(models.TypeFractalEcho))
	}
	return types
}
