package snapshot

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"ForceField/internal/domain/models"
	"ForceField/pkg/metrics"
)

func makePoints(n int, start time.Time) []models.PricePoint {
	pts := make([]models.PricePoint, n)
	for i := range pts {
		pts[i] = models.PricePoint{
			Timestamp: start.Add(time.Duration(i) * time.Minute),
			Open:      45000, High: 45010, Low: 44990, Close: 45000,
			Volume: 100,
		}
	}
	return pts
}

func newTestStore() *Store {
	return NewStore(0.2, nil, metrics.Nop{})
}

func TestIngestPublishesMonotonicVersions(t *testing.T) {
	s := newTestStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	v1, rep, err := s.Ingest(makePoints(10, base))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if v1 != 1 || rep.Accepted != 10 {
		t.Fatalf("v=%d accepted=%d", v1, rep.Accepted)
	}

	v2, _, err := s.Ingest(makePoints(5, base.Add(time.Hour)))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if v2 != 2 {
		t.Fatalf("expected version 2, got %d", v2)
	}

	snap1, err := s.Read(v1)
	if err != nil {
		t.Fatalf("read v1: %v", err)
	}
	snap2, err := s.Read(v2)
	if err != nil {
		t.Fatalf("read v2: %v", err)
	}
	if len(snap1.Points) != 10 {
		t.Fatalf("v1 must stay at 10 points, got %d", len(snap1.Points))
	}
	if len(snap2.Points) != 15 {
		t.Fatalf("v2 must append, got %d points", len(snap2.Points))
	}
}

func TestIngestDropsSingleCorruptPoint(t *testing.T) {
	s := newTestStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	pts := makePoints(100, base)
	pts[42].Volume = -1

	v, rep, err := s.Ingest(pts)
	if err != nil {
		t.Fatalf("ingest should tolerate one corrupt point: %v", err)
	}
	if rep.Accepted != 99 || rep.Dropped != 1 {
		t.Fatalf("accepted=%d dropped=%d", rep.Accepted, rep.Dropped)
	}
	if len(rep.Warnings) != 1 {
		t.Fatalf("expected one warning, got %v", rep.Warnings)
	}
	snap, err := s.Read(v)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(snap.Points) != 99 {
		t.Fatalf("expected 99 ingested points, got %d", len(snap.Points))
	}
}

func TestIngestRejectsBatchOverCorruptCeiling(t *testing.T) {
	s := newTestStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	pts := makePoints(10, base)
	for i := 0; i < 3; i++ {
		pts[i].Close = math.NaN()
	}

	_, _, err := s.Ingest(pts)
	if !errors.Is(err, ErrBatchRejected) {
		t.Fatalf("expected ErrBatchRejected, got %v", err)
	}
	if _, ok := s.Latest(); ok {
		t.Fatalf("rejected batch must not publish a version")
	}
}

func TestIngestDropsNonMonotonicTimestamps(t *testing.T) {
	s := NewStore(0.5, nil, metrics.Nop{})
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	pts := makePoints(10, base)
	pts[5].Timestamp = pts[4].Timestamp // duplicate, not after

	_, rep, err := s.Ingest(pts)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if rep.Dropped != 1 {
		t.Fatalf("expected the duplicate-timestamp point dropped, got %d", rep.Dropped)
	}
}

func TestReadUnknownVersion(t *testing.T) {
	s := newTestStore()
	if _, err := s.Read(7); !errors.Is(err, ErrUnknownVersion) {
		t.Fatalf("expected ErrUnknownVersion, got %v", err)
	}
}

func TestWindowBounds(t *testing.T) {
	s := newTestStore()
	v, _, err := s.Ingest(makePoints(20, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	snap, _ := s.Read(v)

	w, err := snap.Window(5, 10)
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if w.Ref.Start != 5 || w.Ref.Length != 10 || len(w.Points) != 10 {
		t.Fatalf("bad window %+v", w.Ref)
	}
	if _, err := snap.Window(15, 10); err == nil {
		t.Fatalf("expected out-of-range error")
	}
}

func TestConcurrentIngestAndRead(t *testing.T) {
	s := newTestStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	v1, _, err := s.Ingest(makePoints(50, base))
	if err != nil {
		t.Fatalf("seed ingest: %v", err)
	}

	const batches = 80
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for b := 0; b < batches; b++ {
			start := base.Add(time.Duration(1+b) * time.Hour)
			if _, _, err := s.Ingest(makePoints(10, start)); err != nil {
				t.Errorf("ingest: %v", err)
				return
			}
		}
	}()

	// Readers hammer the seeded version while ingestion runs; a published
	// snapshot is immutable and must stay readable throughout.
	stop := make(chan struct{})
	var rg sync.WaitGroup
	for r := 0; r < 4; r++ {
		rg.Add(1)
		go func() {
			defer rg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap, err := s.Read(v1)
				if err != nil {
					t.Errorf("read v1: %v", err)
					return
				}
				if len(snap.Points) != 50 {
					t.Errorf("v1 has %d points, want 50", len(snap.Points))
					return
				}
			}
		}()
	}

	wg.Wait()
	close(stop)
	rg.Wait()

	latest, ok := s.Latest()
	if !ok || latest != v1+batches {
		t.Fatalf("latest = %d, want %d", latest, v1+batches)
	}
}
