package repository

import (
	"context"

	"ForceField/internal/domain/models"
)

// MarketStream delivers closed candles from a live market feed.
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan models.PricePoint, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Publisher delivers interpretation batches to downstream consumers.
type Publisher interface {
	PublishInterpretations(ctx context.Context, batch []models.Interpretation) error
	Close() error
}

// Archive persists interpretation batches for long-term queryability.
// Archiving is best effort at the pass boundary; the in-process codex
// remains the source of truth for a running engine.
type Archive interface {
	Init(ctx context.Context) error
	ArchiveInterpretations(ctx context.Context, batch []models.Interpretation) error
	Close() error
}

// Metrics records engine observability counters.
type Metrics interface {
	RecordPass(result string)
	RecordInterpretation(tipo string)
	RecordCorruptPoint(reason string)
	RecordDetectorLatency(detector string, seconds float64)
	RecordLastPrice(symbol string, price float64)
	RecordSnapshotVersion(version uint64)
}
