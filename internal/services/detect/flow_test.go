package detect

import (
	"context"
	"testing"

	"ForceField/internal/domain/models"
)

func TestFlowFlatSeriesIsNeutral(t *testing.T) {
	d := NewFlowEstimator(testCfg())
	res := d.EstimateFlow(context.Background(), window(flatCloses(100, 45000), 100))
	if !res.OK {
		t.Fatalf("expected a flow vector")
	}
	if res.Vector.Direction != models.FlowNeutral {
		t.Fatalf("direction = %v, want neutral", res.Vector.Direction)
	}
	if res.Vector.Magnitude != 0 {
		t.Fatalf("magnitude = %v, want 0", res.Vector.Magnitude)
	}
}

func TestFlowRisingSeriesIsUp(t *testing.T) {
	d := NewFlowEstimator(testCfg())
	res := d.EstimateFlow(context.Background(), window(rampCloses(100, 45000, 10), 100))
	if !res.OK {
		t.Fatalf("expected a flow vector")
	}
	if res.Vector.Direction != models.FlowUp {
		t.Fatalf("direction = %v, want up", res.Vector.Direction)
	}
	if res.Vector.Magnitude <= 0 {
		t.Fatalf("magnitude = %v, want > 0", res.Vector.Magnitude)
	}
	if res.Vector.Confidence != 1 {
		t.Fatalf("confidence = %v, want 1 for monotone rise", res.Vector.Confidence)
	}
}

func TestFlowFallingSeriesIsDown(t *testing.T) {
	d := NewFlowEstimator(testCfg())
	res := d.EstimateFlow(context.Background(), window(rampCloses(100, 45000, -10), 100))
	if res.Vector.Direction != models.FlowDown {
		t.Fatalf("direction = %v, want down", res.Vector.Direction)
	}
}

func TestFlowMagnitudeClipped(t *testing.T) {
	cfg := testCfg()
	cfg.MaxMagnitude = 0.01
	d := NewFlowEstimator(cfg)
	res := d.EstimateFlow(context.Background(), window(rampCloses(100, 1000, 100), 100))
	if res.Vector.Magnitude != 0.01 {
		t.Fatalf("magnitude = %v, want clipped to 0.01", res.Vector.Magnitude)
	}
}

func TestFlowShortWindowYieldsNothing(t *testing.T) {
	d := NewFlowEstimator(testCfg())
	res := d.EstimateFlow(context.Background(), window(rampCloses(5, 45000, 1), 100))
	if res.OK {
		t.Fatalf("expected no flow vector for a short window")
	}
}

func TestFlowUsesOnlyFittingHorizons(t *testing.T) {
	cfg := testCfg()
	cfg.Horizons = []int{5, 500}
	d := NewFlowEstimator(cfg)
	res := d.EstimateFlow(context.Background(), window(rampCloses(100, 45000, 10), 100))
	if !res.OK {
		t.Fatalf("expected a flow vector from the fitting horizon")
	}
	if res.Vector.Horizon != 5 {
		t.Fatalf("horizon = %d, want 5 (500 does not fit)", res.Vector.Horizon)
	}
}
