package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"ForceField/internal/codex"
	"ForceField/internal/domain/models"
	"ForceField/internal/services/compose"
	"ForceField/internal/snapshot"
	"ForceField/pkg/logger"
)

type stubZones struct{ res models.ZoneResult }

func (s stubZones) DetectZones(ctx context.Context, w models.Window) models.ZoneResult {
	return s.res
}

type stubResonance struct{ res models.ResonanceResult }

func (s stubResonance) Match(ctx context.Context, w models.Window) models.ResonanceResult {
	return s.res
}

// slowResonance blocks until the pass deadline fires, then reports a
// partial result, the way a real detector honors cancellation.
type slowResonance struct{}

func (slowResonance) Match(ctx context.Context, w models.Window) models.ResonanceResult {
	<-ctx.Done()
	return models.ResonanceResult{Partial: true}
}

type stubFlow struct{ res models.FlowResult }

func (s stubFlow) EstimateFlow(ctx context.Context, w models.Window) models.FlowResult {
	return s.res
}

type stubEchoes struct{ res models.EchoResult }

func (s stubEchoes) DetectEchoes(ctx context.Context, w models.Window) models.EchoResult {
	return s.res
}

func seedStore(t *testing.T) (*snapshot.Store, uint64) {
	t.Helper()
	store := snapshot.NewStore(0.2, logger.Nop(), nil)
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
	v, _, err := store.Ingest(pts)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	return store, v
}

func passUC(store *snapshot.Store, reso interface {
	Match(context.Context, models.Window) models.ResonanceResult
}, timeout time.Duration) (*DetectionPassUseCase, *codex.Log) {
	log := codex.NewLog(time.Hour)
	uc := NewDetectionPassUseCase(
		store,
		stubZones{res: models.ZoneResult{Zones: []models.MagneticZone{
			{PriceLow: 45000, PriceHigh: 45100, Intensity: 85, Compression: 0.2},
		}}},
		reso,
		stubFlow{res: models.FlowResult{
			Vector: models.FlowVector{Direction: models.FlowUp, Magnitude: 0.01, Confidence: 1, Horizon: 20},
			OK:     true,
		}},
		stubEchoes{},
		compose.NewComposer(),
		log,
		nil, nil, nil,
		logger.Nop(),
		timeout,
	)
	return uc, log
}

func TestDetectionPassComplete(t *testing.T) {
	store, v := seedStore(t)
	uc, log := passUC(store, stubResonance{}, time.Second)

	res, err := uc.Run(context.Background(), v)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Partial() {
		t.Fatalf("pass unexpectedly partial: %v", res.PartialDetectors)
	}
	// zone + flow interpretations
	if len(res.Interpretations) != 2 {
		t.Fatalf("got %d interpretations, want 2", len(res.Interpretations))
	}
	if got := len(log.List(true)); got != 2 {
		t.Fatalf("codex holds %d entries, want 2", got)
	}
}

func TestDetectionPassDeadlinePartial(t *testing.T) {
	store, v := seedStore(t)
	uc, _ := passUC(store, slowResonance{}, 50*time.Millisecond)

	res, err := uc.Run(context.Background(), v)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.Partial() {
		t.Fatalf("pass should be partial when a detector hits the deadline")
	}
	if len(res.PartialDetectors) != 1 || res.PartialDetectors[0] != "ponto_ressonancia" {
		t.Fatalf("partial detectors = %v", res.PartialDetectors)
	}
	// Completed detectors still produce interpretations.
	if len(res.Interpretations) != 2 {
		t.Fatalf("got %d interpretations, want 2 from completed detectors", len(res.Interpretations))
	}
}

type capturingPublisher struct {
	mu     sync.Mutex
	ctxErr error
	sent   int
}

func (p *capturingPublisher) PublishInterpretations(ctx context.Context, batch []models.Interpretation) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ctxErr = ctx.Err()
	p.sent += len(batch)
	return nil
}

func (p *capturingPublisher) Close() error { return nil }

func TestDeliveryOutlivesPassDeadline(t *testing.T) {
	store, v := seedStore(t)
	log := codex.NewLog(time.Hour)
	pub := &capturingPublisher{}
	uc := NewDetectionPassUseCase(
		store,
		stubZones{res: models.ZoneResult{Zones: []models.MagneticZone{
			{PriceLow: 45000, PriceHigh: 45100, Intensity: 85, Compression: 0.2},
		}}},
		slowResonance{},
		stubFlow{},
		stubEchoes{},
		compose.NewComposer(),
		log,
		pub, nil, nil,
		logger.Nop(),
		50*time.Millisecond,
	)

	res, err := uc.Run(context.Background(), v)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.Partial() {
		t.Fatalf("pass should be partial")
	}
	pub.mu.Lock()
	defer pub.mu.Unlock()
	if pub.sent != len(res.Interpretations) {
		t.Fatalf("published %d interpretations, want %d", pub.sent, len(res.Interpretations))
	}
	// The pass deadline already fired; delivery must run on a live context.
	if pub.ctxErr != nil {
		t.Fatalf("publisher saw dead context: %v", pub.ctxErr)
	}
}

func TestDetectionPassUnknownVersionFatal(t *testing.T) {
	store, _ := seedStore(t)
	uc, _ := passUC(store, stubResonance{}, time.Second)

	if _, err := uc.Run(context.Background(), 99); err == nil {
		t.Fatalf("unknown version must fail the pass")
	}
}

func TestDetectionPassRepeatedRunsIdempotent(t *testing.T) {
	store, v := seedStore(t)
	uc, log := passUC(store, stubResonance{}, time.Second)

	if _, err := uc.Run(context.Background(), v); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := uc.Run(context.Background(), v); err != nil {
		t.Fatalf("run: %v", err)
	}
	// Deterministic ids collapse the second pass into zero new entries.
	if got := len(log.List(true)); got != 2 {
		t.Fatalf("codex holds %d entries after repeat pass, want 2", got)
	}
}
