package snapshot

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"ForceField/internal/domain/models"
	drepo "ForceField/internal/domain/repository"
	"ForceField/pkg/logger"
)

var (
	// ErrUnknownVersion is returned for reads against a version that was
	// never published. It is the only pass-fatal snapshot error.
	ErrUnknownVersion = errors.New("snapshot: unknown version")

	// ErrBatchRejected is returned when the corrupt fraction of an
	// incoming batch exceeds the configured ceiling.
	ErrBatchRejected = errors.New("snapshot: batch rejected")

	// ErrEmptyBatch is returned when ingestion receives no points.
	ErrEmptyBatch = errors.New("snapshot: empty batch")
)

// Snapshot is an immutable, versioned view of the ingested series.
// The points slice is shared copy-on-append; callers must not mutate it.
type Snapshot struct {
	Version uint64
	Points  []models.PricePoint
}

// Window returns a read view over [start, start+length). It fails when the
// range falls outside the snapshot.
func (s *Snapshot) Window(start, length int) (models.Window, error) {
	if start < 0 || length < 0 || start+length > len(s.Points) {
		return models.Window{}, fmt.Errorf("window [%d,%d) out of range for %d points", start, start+length, len(s.Points))
	}
	return models.Window{
		Ref:    models.WindowRef{Version: s.Version, Start: start, Length: length},
		Points: s.Points[start : start+length],
	}, nil
}

// Full returns a window over the whole snapshot.
func (s *Snapshot) Full() models.Window {
	w, _ := s.Window(0, len(s.Points))
	return w
}

// IngestReport summarizes one ingestion batch.
type IngestReport struct {
	Accepted int
	Dropped  int
	Warnings []string
}

// Store holds immutable, monotonically versioned snapshots. ingestMu
// serializes whole ingest calls; mu covers only the version map, so a
// read of an already-published version never waits on batch validation
// or the copy-on-append merge.
type Store struct {
	ingestMu sync.Mutex

	mu       sync.RWMutex
	versions map[uint64]*Snapshot
	latest   uint64

	corruptCeiling float64
	log            *logger.Logger
	metrics        drepo.Metrics
}

// NewStore creates a snapshot store. corruptCeiling is the max tolerated
// fraction of corrupt points per batch before rejection.
func NewStore(corruptCeiling float64, log *logger.Logger, metrics drepo.Metrics) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{
		versions:       make(map[uint64]*Snapshot),
		corruptCeiling: corruptCeiling,
		log:            log,
		metrics:        metrics,
	}
}

// Ingest validates and appends a batch of points, producing a new snapshot
// version. Corrupt points (NaN fields, negative volume, non-monotonic
// timestamps) are skipped with a recorded warning; if the corrupt fraction
// exceeds the ceiling the whole batch is rejected and no version is
// published.
func (s *Store) Ingest(points []models.PricePoint) (uint64, IngestReport, error) {
	if len(points) == 0 {
		return 0, IngestReport{}, ErrEmptyBatch
	}

	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()

	s.mu.RLock()
	prev := s.versions[s.latest]
	s.mu.RUnlock()

	var base []models.PricePoint
	var lastTS time.Time
	if prev != nil {
		base = prev.Points
		if len(base) > 0 {
			lastTS = base[len(base)-1].Timestamp
		}
	}

	report := IngestReport{}
	valid := make([]models.PricePoint, 0, len(points))
	for i, p := range points {
		if reason := corruptReason(p, lastTS); reason != "" {
			report.Dropped++
			report.Warnings = append(report.Warnings, fmt.Sprintf("point %d dropped: %s", i, reason))
			if s.metrics != nil {
				s.metrics.RecordCorruptPoint(reason)
			}
			s.log.Warn("corrupt point dropped",
				logger.Int("index", i),
				logger.String("reason", reason),
				logger.Time("timestamp", p.Timestamp),
			)
			continue
		}
		valid = append(valid, p)
		lastTS = p.Timestamp
	}
	report.Accepted = len(valid)

	frac := float64(report.Dropped) / float64(len(points))
	if frac > s.corruptCeiling {
		return 0, report, fmt.Errorf("%w: %d/%d corrupt points (ceiling %.2f)",
			ErrBatchRejected, report.Dropped, len(points), s.corruptCeiling)
	}
	if len(valid) == 0 {
		return 0, report, fmt.Errorf("%w: no valid points in batch", ErrBatchRejected)
	}

	// Copy-on-append: the previous version keeps its own backing array.
	// Built outside the write lock; only publication takes it.
	merged := make([]models.PricePoint, 0, len(base)+len(valid))
	merged = append(merged, base...)
	merged = append(merged, valid...)

	s.mu.Lock()
	s.latest++
	version := s.latest
	s.versions[version] = &Snapshot{Version: version, Points: merged}
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordSnapshotVersion(version)
	}
	s.log.Info("snapshot published",
		logger.Uint64("version", version),
		logger.Int("accepted", report.Accepted),
		logger.Int("dropped", report.Dropped),
		logger.Int("total_points", len(merged)),
	)
	return version, report, nil
}

// Read returns the snapshot for a published version.
func (s *Store) Read(version uint64) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.versions[version]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVersion, version)
	}
	return snap, nil
}

// Latest returns the most recent published version, or false if none.
func (s *Store) Latest() (uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == 0 {
		return 0, false
	}
	return s.latest, true
}

func corruptReason(p models.PricePoint, lastTS time.Time) string {
	for _, v := range [5]float64{p.Open, p.High, p.Low, p.Close, p.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "nan_field"
		}
	}
	if p.Volume < 0 {
		return "negative_volume"
	}
	if p.Close <= 0 || p.Open <= 0 || p.High <= 0 || p.Low <= 0 {
		return "non_positive_price"
	}
	if p.Timestamp.IsZero() {
		return "zero_timestamp"
	}
	if !lastTS.IsZero() && !p.Timestamp.After(lastTS) {
		return "non_monotonic_timestamp"
	}
	return ""
}
