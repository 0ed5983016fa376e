package detect

import (
	"context"
	"math"
	"testing"
)

// motif returns a length-20 non-degenerate shape.
func motif() []float64 {
	out := make([]float64, 20)
	for i := range out {
		out[i] = 45000 + 50*math.Sin(float64(i)/3) + float64(i)
	}
	return out
}

func TestCompareIdenticalIsExactlyOne(t *testing.T) {
	d := NewResonanceMatcher(testCfg())
	m := motif()
	if sim := d.Compare(m, m); sim != 1 {
		t.Fatalf("self-comparison similarity = %v, want exactly 1", sim)
	}
}

func TestCompareIdenticalFlatIsOne(t *testing.T) {
	d := NewResonanceMatcher(testCfg())
	a := flatCloses(20, 45000)
	b := flatCloses(20, 45000)
	if sim := d.Compare(a, b); sim != 1 {
		t.Fatalf("identical flat windows = %v, want 1", sim)
	}
	c := flatCloses(20, 44000)
	if sim := d.Compare(a, c); sim != 0 {
		t.Fatalf("different flat windows = %v, want 0", sim)
	}
}

func TestCompareIsSymmetric(t *testing.T) {
	d := NewResonanceMatcher(testCfg())
	a := motif()
	b := rampCloses(20, 44000, 7)
	if d.Compare(a, b) != d.Compare(b, a) {
		t.Fatalf("similarity must be symmetric")
	}
}

func TestMatchFindsRepeatedMotif(t *testing.T) {
	cfg := testCfg()
	cfg.ResonanceWindow = 20
	cfg.ResonanceStride = 20
	cfg.TopK = 3

	// The motif repeated four times; the query is the last repetition.
	m := motif()
	series := make([]float64, 0, 80)
	for i := 0; i < 4; i++ {
		series = append(series, m...)
	}

	d := NewResonanceMatcher(cfg)
	res := d.Match(context.Background(), window(series, 100))

	if len(res.Pairs) != 3 {
		t.Fatalf("expected 3 pairs, got %d", len(res.Pairs))
	}
	for _, p := range res.Pairs {
		if p.Similarity < 0.999 {
			t.Fatalf("repeated motif similarity = %v", p.Similarity)
		}
		if p.Lag <= 0 {
			t.Fatalf("lag must be positive, got %d", p.Lag)
		}
	}
	// Equal similarity ties break toward the smaller lag.
	if res.Pairs[0].Lag != 20 {
		t.Fatalf("most recent match must win ties, first lag = %d", res.Pairs[0].Lag)
	}
}

func TestMatchRespectsThreshold(t *testing.T) {
	cfg := testCfg()
	cfg.SimilarityThreshold = 0.99
	d := NewResonanceMatcher(cfg)

	// History is noise-free downtrend, query is the sine motif. No
	// candidate reaches 0.99.
	series := rampCloses(60, 46000, -10)
	series = append(series, motif()...)
	res := d.Match(context.Background(), window(series, 100))
	for _, p := range res.Pairs {
		if p.Similarity < 0.99 {
			t.Fatalf("pair below threshold leaked through: %v", p.Similarity)
		}
	}
}

func TestMatchShortWindowYieldsNone(t *testing.T) {
	d := NewResonanceMatcher(testCfg())
	res := d.Match(context.Background(), window(motif(), 100))
	if len(res.Pairs) != 0 {
		t.Fatalf("window shorter than 2x resonance window must yield no pairs")
	}
}

func TestMatchCancelledContextIsPartial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewResonanceMatcher(testCfg())
	series := make([]float64, 0, 200)
	for i := 0; i < 10; i++ {
		series = append(series, motif()...)
	}
	res := d.Match(ctx, window(series, 100))
	if !res.Partial {
		t.Fatalf("expected partial result under cancelled context")
	}
}
