package detect

import (
	"context"
	"testing"
	"time"

	"ForceField/internal/domain/models"
)

func TestZonesFlatSeriesYieldsNone(t *testing.T) {
	d := NewZoneDetector(testCfg())
	res := d.DetectZones(context.Background(), window(flatCloses(100, 45000), 100))
	if len(res.Zones) != 0 {
		t.Fatalf("flat series must yield no zones, got %v", res.Zones)
	}
	if res.Partial {
		t.Fatalf("unexpected partial result")
	}
}

func TestZonesShortWindowYieldsNone(t *testing.T) {
	d := NewZoneDetector(testCfg())
	res := d.DetectZones(context.Background(), window(rampCloses(10, 45000, 10), 100))
	if len(res.Zones) != 0 {
		t.Fatalf("short window must yield empty list, got %v", res.Zones)
	}
}

func TestZonesCompressionWithVolumeSpike(t *testing.T) {
	// 90 flat points at 45000, then 10 points compressing into
	// [44950, 45050] with a 3x volume spike.
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	pts := make([]models.PricePoint, 0, 100)
	for i := 0; i < 90; i++ {
		pts = append(pts, models.PricePoint{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Open:      45000, High: 45000, Low: 45000, Close: 45000,
			Volume: 100,
		})
	}
	spike := []float64{44950, 44960, 44970, 44980, 44990, 45010, 45020, 45030, 45040, 45050}
	for i, c := range spike {
		pts = append(pts, models.PricePoint{
			Timestamp: base.Add(time.Duration(90+i) * time.Minute),
			Open:      c, High: c, Low: c, Close: c,
			Volume: 300,
		})
	}

	cfg := testCfg()
	cfg.BucketWidth = 50
	cfg.BaselineMultiple = 0.1

	d := NewZoneDetector(cfg)
	res := d.DetectZones(context.Background(), models.Window{
		Ref:    models.WindowRef{Version: 1, Length: len(pts)},
		Points: pts,
	})

	if len(res.Zones) != 1 {
		t.Fatalf("expected exactly one zone, got %d: %+v", len(res.Zones), res.Zones)
	}
	z := res.Zones[0]
	if z.PriceLow != 44950 || z.PriceHigh != 45050 {
		t.Fatalf("zone bounds = [%v, %v], want [44950, 45050]", z.PriceLow, z.PriceHigh)
	}
	if z.Intensity <= 80 {
		t.Fatalf("intensity = %v, want > 80", z.Intensity)
	}
}

func TestZonesSortedAndNonOverlapping(t *testing.T) {
	// Two separated clusters of activity with dead space between.
	closes := make([]float64, 0, 120)
	closes = append(closes, rampCloses(50, 44000, 1)...) // cluster ~[44000, 44050]
	closes = append(closes, rampCloses(20, 44500, 1)...) // thin bridge
	closes = append(closes, rampCloses(50, 45000, 1)...) // cluster ~[45000, 45050]

	cfg := testCfg()
	cfg.BucketWidth = 50
	cfg.IntensityThreshold = 0
	cfg.BaselineMultiple = 1.2

	d := NewZoneDetector(cfg)
	res := d.DetectZones(context.Background(), window(closes, 100))

	for i := 1; i < len(res.Zones); i++ {
		prev, cur := res.Zones[i-1], res.Zones[i]
		if cur.PriceLow < prev.PriceLow {
			t.Fatalf("zones not sorted by price_low: %+v", res.Zones)
		}
		if cur.PriceLow < prev.PriceHigh {
			t.Fatalf("zones overlap: %+v and %+v", prev, cur)
		}
	}
	for _, z := range res.Zones {
		if z.Intensity < 0 || z.Intensity > 100 {
			t.Fatalf("intensity out of range: %v", z.Intensity)
		}
	}
}

func TestZonesCancelledContextReturnsPartial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewZoneDetector(testCfg())
	res := d.DetectZones(ctx, window(rampCloses(1000, 44000, 1), 100))
	if !res.Partial {
		t.Fatalf("expected partial result under cancelled context")
	}
}
