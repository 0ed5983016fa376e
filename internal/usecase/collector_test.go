package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ForceField/internal/domain/models"
	"ForceField/internal/snapshot"
	"ForceField/pkg/logger"
)

// fakeStream tears down its first read loop with an error, then serves
// one live candle on the channels handed out after reconnecting.
type fakeStream struct {
	mu         sync.Mutex
	reads      int
	reconnects int
	point      models.PricePoint
}

func (f *fakeStream) Connect(ctx context.Context) error   { return nil }
func (f *fakeStream) Subscribe(ctx context.Context) error { return nil }
func (f *fakeStream) Close() error                        { return nil }
func (f *fakeStream) IsConnected() bool                   { return true }

func (f *fakeStream) Reconnect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reconnects++
	return nil
}

func (f *fakeStream) Read(ctx context.Context) (<-chan models.PricePoint, <-chan error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	pts := make(chan models.PricePoint, 1)
	errs := make(chan error, 1)
	if f.reads == 1 {
		errs <- errors.New("connection reset")
		close(pts)
		close(errs)
		return pts, errs
	}
	pts <- f.point
	return pts, errs
}

func (f *fakeStream) counts() (reads, reconnects int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads, f.reconnects
}

func TestCollectorReconnectsAfterStreamFailure(t *testing.T) {
	store := snapshot.NewStore(0.2, logger.Nop(), nil)
	ingest := NewIngestUseCase(store, logger.Nop())
	fs := &fakeStream{point: models.PricePoint{
		Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Open:      45000, High: 45000, Low: 45000, Close: 45000,
		Volume: 100,
	}}
	c := NewPointCollector(fs, ingest, nil, nil, logger.Nop(), "BTCUSDT", 1, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	// The candle only arrives on the post-reconnect channels; ingestion
	// surviving the failure is the whole point.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := store.Latest(); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("no snapshot published after stream failure")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	v, _ := store.Latest()
	snap, err := store.Read(v)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(snap.Points) != 1 {
		t.Fatalf("snapshot has %d points, want only the live candle", len(snap.Points))
	}
	if snap.Points[0].Close != 45000 {
		t.Fatalf("ingested close = %v, want 45000", snap.Points[0].Close)
	}

	reads, reconnects := fs.counts()
	if reconnects != 1 {
		t.Fatalf("reconnects = %d, want 1", reconnects)
	}
	if reads != 2 {
		t.Fatalf("read loops started = %d, want 2", reads)
	}
}
