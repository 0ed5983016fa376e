package usecase

import (
	"context"
	"time"

	"ForceField/internal/domain/models"
	drepo "ForceField/internal/domain/repository"
	"ForceField/internal/snapshot"
	"ForceField/pkg/logger"
)

// IngestUseCase feeds validated point batches into the snapshot store.
type IngestUseCase struct {
	store *snapshot.Store
	l     *logger.Logger
}

func NewIngestUseCase(store *snapshot.Store, l *logger.Logger) *IngestUseCase {
	if l == nil {
		l = logger.Nop()
	}
	return &IngestUseCase{store: store, l: l}
}

// Ingest publishes a new snapshot version from the batch. Corrupt-point
// handling lives in the store; this layer only reports the outcome.
func (uc *IngestUseCase) Ingest(ctx context.Context, points []models.PricePoint) (uint64, snapshot.IngestReport, error) {
	version, report, err := uc.store.Ingest(points)
	if err != nil {
		uc.l.Error("ingest batch failed",
			logger.Int("points", len(points)),
			logger.Int("dropped", report.Dropped),
			logger.Error(err),
		)
		return 0, report, err
	}
	return version, report, nil
}

// PointCollector pulls closed candles off a market stream, batches them,
// and triggers a detection pass after each published snapshot version.
type PointCollector struct {
	stream  drepo.MarketStream
	ingest  *IngestUseCase
	pass    *DetectionPassUseCase
	metrics drepo.Metrics
	l       *logger.Logger

	symbol        string
	batchSize     int
	flushInterval time.Duration
}

func NewPointCollector(
	stream drepo.MarketStream,
	ingest *IngestUseCase,
	pass *DetectionPassUseCase,
	metrics drepo.Metrics,
	l *logger.Logger,
	symbol string,
	batchSize int,
	flushInterval time.Duration,
) *PointCollector {
	if l == nil {
		l = logger.Nop()
	}
	return &PointCollector{
		stream:        stream,
		ingest:        ingest,
		pass:          pass,
		metrics:       metrics,
		l:             l,
		symbol:        symbol,
		batchSize:     batchSize,
		flushInterval: flushInterval,
	}
}

// IsConnected reports the stream connection state.
func (c *PointCollector) IsConnected() bool { return c.stream.IsConnected() }

func (c *PointCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	ptCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, ptCh, errCh)
	return nil
}

func (c *PointCollector) consume(ctx context.Context, ptCh <-chan models.PricePoint, errCh <-chan error) {
	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	batch := make([]models.PricePoint, 0, c.batchSize)
	for {
		select {
		case <-ctx.Done():
			c.flush(ctx, &batch)
			return
		case err, ok := <-errCh:
			if !ok {
				// Read loop is winding down; the point channel closing is
				// the reconnect trigger.
				errCh = nil
				continue
			}
			if err != nil {
				c.l.Warn("stream error", logger.Error(err))
			}
		case p, ok := <-ptCh:
			if !ok {
				ptCh, errCh = c.reopen(ctx)
				if ptCh == nil {
					c.flush(ctx, &batch)
					return
				}
				continue
			}
			if c.metrics != nil {
				c.metrics.RecordLastPrice(c.symbol, p.Close)
			}
			batch = append(batch, p)
			if len(batch) >= c.batchSize {
				c.flush(ctx, &batch)
			}
		case <-ticker.C:
			c.flush(ctx, &batch)
		}
	}
}

// reopen re-establishes the stream after its read loop terminated and
// returns fresh channels. A nil point channel means the context ended.
func (c *PointCollector) reopen(ctx context.Context) (<-chan models.PricePoint, <-chan error) {
	for ctx.Err() == nil {
		if err := c.stream.Reconnect(ctx); err != nil {
			c.l.Warn("stream reconnect failed", logger.Error(err))
			continue
		}
		c.l.Info("stream reconnected")
		return c.stream.Read(ctx)
	}
	return nil, nil
}

func (c *PointCollector) flush(ctx context.Context, batch *[]models.PricePoint) {
	if len(*batch) == 0 {
		return
	}
	points := *batch
	*batch = make([]models.PricePoint, 0, c.batchSize)

	version, _, err := c.ingest.Ingest(ctx, points)
	if err != nil {
		return
	}
	if c.pass == nil {
		return
	}
	if _, err := c.pass.Run(ctx, version); err != nil {
		c.l.Error("detection pass failed",
			logger.Uint64("version", version),
			logger.Error(err),
		)
	}
}

func (c *PointCollector) Stop() error { return c.stream.Close() }
