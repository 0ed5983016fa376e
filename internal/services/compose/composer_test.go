package compose

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"ForceField/internal/domain/models"
)

func testWindow() models.Window {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	pts := make([]models.PricePoint, 30)
	for i := range pts {
		c := 45000 + float64(i)*10
		pts[i] = models.PricePoint{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Open:      c, High: c, Low: c, Close: c,
			Volume: 100,
		}
	}
	return models.Window{
		Ref:    models.WindowRef{Version: 3, Start: 0, Length: len(pts)},
		Points: pts,
	}
}

func testOutputs() DetectorOutputs {
	return DetectorOutputs{
		Zones: models.ZoneResult{Zones: []models.MagneticZone{
			{PriceLow: 45000, PriceHigh: 45100, Intensity: 85, VolumeDensity: 0.6, Compression: 0.9},
			{PriceLow: 45200, PriceHigh: 45290, Intensity: 40, VolumeDensity: 0.2, Compression: 0.1},
		}},
		Resonance: models.ResonanceResult{Pairs: []models.ResonancePair{
			{Similarity: 0.92, Lag: 40},
			{Similarity: 0.81, Lag: 80},
			{Similarity: 0.75, Lag: 120},
		}},
		Flow: models.FlowResult{
			Vector: models.FlowVector{Direction: models.FlowUp, Magnitude: 0.02, Confidence: 1, Horizon: 20},
			OK:     true,
		},
		Echoes: models.EchoResult{Echoes: []models.FractalEcho{
			{ScaleRatio: 4, OccurrenceCount: 3, Similarity: 0.95},
		}},
	}
}

func TestComposeDeterministic(t *testing.T) {
	c := NewComposer()
	w := testWindow()
	out := testOutputs()

	a, err := json.Marshal(c.Compose(w, out))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b, err := json.Marshal(c.Compose(w, out))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("repeated composition differs:\n%s\n%s", a, b)
	}
}

func TestComposeOrderingAndIDs(t *testing.T) {
	c := NewComposer()
	res := c.Compose(testWindow(), testOutputs())

	// 2 zones + 1 compression + 1 resonance + 1 flow + 1 echo.
	if len(res.Interpretations) != 6 {
		t.Fatalf("got %d interpretations, want 6", len(res.Interpretations))
	}
	seen := map[string]bool{}
	for i, in := range res.Interpretations {
		if in.ID == "" {
			t.Fatalf("interpretation %d has empty id", i)
		}
		if seen[in.ID] {
			t.Fatalf("duplicate id %s", in.ID)
		}
		seen[in.ID] = true
		if i > 0 {
			prev := res.Interpretations[i-1]
			if in.Timestamp.Before(prev.Timestamp) {
				t.Fatalf("not ordered by timestamp at %d", i)
			}
			if in.Timestamp.Equal(prev.Timestamp) && in.Type < prev.Type {
				t.Fatalf("type tie-break violated at %d: %s before %s", i, prev.Type, in.Type)
			}
		}
		if !in.Timestamp.Equal(res.Timestamp) {
			t.Fatalf("interpretation timestamp differs from pass timestamp")
		}
	}
}

func TestComposeCompressionOnlyWhenDominant(t *testing.T) {
	c := NewComposer()
	out := testOutputs()
	out.Resonance = models.ResonanceResult{}
	out.Flow = models.FlowResult{}
	out.Echoes = models.EchoResult{}

	res := c.Compose(testWindow(), out)
	var comp, zones int
	for _, in := range res.Interpretations {
		switch in.Type {
		case models.TypeMagneticCompression:
			comp++
		case models.TypeMagneticZone:
			zones++
		}
	}
	if zones != 2 {
		t.Fatalf("got %d zone interpretations, want 2", zones)
	}
	if comp != 1 {
		t.Fatalf("got %d compression interpretations, want 1 (only the tight zone)", comp)
	}
}

func TestComposeRecordsPartialDetectors(t *testing.T) {
	c := NewComposer()
	out := testOutputs()
	out.Resonance.Partial = true
	out.Echoes.Partial = true

	res := c.Compose(testWindow(), out)
	if !res.Partial() {
		t.Fatalf("pass should be marked partial")
	}
	want := []string{"ponto_ressonancia", "eco_temporal"}
	if len(res.PartialDetectors) != len(want) {
		t.Fatalf("partial detectors = %v, want %v", res.PartialDetectors, want)
	}
	for i := range want {
		if res.PartialDetectors[i] != want[i] {
			t.Fatalf("partial detectors = %v, want %v", res.PartialDetectors, want)
		}
	}
}

func TestComposeEmptyOutputs(t *testing.T) {
	c := NewComposer()
	res := c.Compose(testWindow(), DetectorOutputs{})
	if len(res.Interpretations) != 0 {
		t.Fatalf("empty outputs must compose to zero interpretations")
	}
	if res.Partial() {
		t.Fatalf("empty outputs are complete, not partial")
	}
}

func TestFlowInterpretationCarriesDirection(t *testing.T) {
	c := NewComposer()
	out := DetectorOutputs{Flow: models.FlowResult{
		Vector: models.FlowVector{Direction: models.FlowDown, Magnitude: 0.05, Confidence: 0.9, Horizon: 40},
		OK:     true,
	}}
	res := c.Compose(testWindow(), out)
	if len(res.Interpretations) != 1 {
		t.Fatalf("want one flow interpretation, got %d", len(res.Interpretations))
	}
	in := res.Interpretations[0]
	if in.Type != models.TypeGravitationalFlow {
		t.Fatalf("type = %s", in.Type)
	}
	if in.Description != "Fluxo gravitacional descendente detectado" {
		t.Fatalf("description = %q", in.Description)
	}
	if len(in.Recommendations) == 0 {
		t.Fatalf("flow interpretation must carry recommendations")
	}
}
