package usecase

import (
	"context"
	"sync"
	"time"

	"ForceField/internal/codex"
	"ForceField/internal/domain/models"
	drepo "ForceField/internal/domain/repository"
	dservice "ForceField/internal/domain/service"
	"ForceField/internal/services/compose"
	"ForceField/internal/snapshot"
	"ForceField/pkg/logger"
)

// DetectionPassUseCase runs one full detection pass: read an immutable
// snapshot version, fan the four detectors out on parallel goroutines,
// compose interpretations, append them to the codex, and hand the batch
// to the publisher and archive. Publishing and archiving are best effort;
// only an unknown snapshot version fails the pass.
type DetectionPassUseCase struct {
	store    *snapshot.Store
	zones    dservice.ZoneDetector
	reso     dservice.ResonanceMatcher
	flow     dservice.FlowEstimator
	echoes   dservice.EchoDetector
	composer *compose.Composer
	log      *codex.Log

	publisher drepo.Publisher
	archive   drepo.Archive
	metrics   drepo.Metrics
	l         *logger.Logger

	timeout time.Duration
}

// NewDetectionPassUseCase wires a pass runner. publisher and archive may
// be nil when the corresponding transport is disabled.
func NewDetectionPassUseCase(
	store *snapshot.Store,
	zones dservice.ZoneDetector,
	reso dservice.ResonanceMatcher,
	flow dservice.FlowEstimator,
	echoes dservice.EchoDetector,
	composer *compose.Composer,
	codexLog *codex.Log,
	publisher drepo.Publisher,
	archive drepo.Archive,
	metrics drepo.Metrics,
	l *logger.Logger,
	timeout time.Duration,
) *DetectionPassUseCase {
	if l == nil {
		l = logger.Nop()
	}
	return &DetectionPassUseCase{
		store:     store,
		zones:     zones,
		reso:      reso,
		flow:      flow,
		echoes:    echoes,
		composer:  composer,
		log:       codexLog,
		publisher: publisher,
		archive:   archive,
		metrics:   metrics,
		l:         l,
		timeout:   timeout,
	}
}

// RunLatest runs a pass over the most recent snapshot version.
func (uc *DetectionPassUseCase) RunLatest(ctx context.Context) (models.PassResult, error) {
	v, ok := uc.store.Latest()
	if !ok {
		return models.PassResult{}, snapshot.ErrUnknownVersion
	}
	return uc.Run(ctx, v)
}

// Run executes a detection pass over one snapshot version.
func (uc *DetectionPassUseCase) Run(ctx context.Context, version uint64) (models.PassResult, error) {
	snap, err := uc.store.Read(version)
	if err != nil {
		if uc.metrics != nil {
			uc.metrics.RecordPass("unknown_version")
		}
		return models.PassResult{}, err
	}
	w := snap.Full()

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	out := uc.detect(ctx, w)
	res := uc.composer.Compose(w, out)

	now := time.Now()
	uc.log.MarkExpired(now)
	appended := uc.log.Append(res.Interpretations, now)

	if uc.metrics != nil {
		result := "complete"
		if res.Partial() {
			result = "partial"
		}
		uc.metrics.RecordPass(result)
		for _, in := range res.Interpretations {
			uc.metrics.RecordInterpretation(string(in.Type))
		}
	}

	uc.l.Info("detection pass finished",
		logger.Uint64("version", version),
		logger.Int("interpretations", len(res.Interpretations)),
		logger.Int("appended", appended),
		logger.Strings("partial_detectors", res.PartialDetectors),
	)

	uc.deliver(ctx, res.Interpretations)
	return res, nil
}

// detect fans the four detectors out over the same window and collects
// their results. Each detector owns its output buffer; the window is
// never written.
func (uc *DetectionPassUseCase) detect(ctx context.Context, w models.Window) compose.DetectorOutputs {
	var out compose.DetectorOutputs
	var wg sync.WaitGroup

	run := func(name string, fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			fn()
			if uc.metrics != nil {
				uc.metrics.RecordDetectorLatency(name, time.Since(start).Seconds())
			}
		}()
	}

	run("zones", func() { out.Zones = uc.zones.DetectZones(ctx, w) })
	run("resonance", func() { out.Resonance = uc.reso.Match(ctx, w) })
	run("flow", func() { out.Flow = uc.flow.EstimateFlow(ctx, w) })
	run("echoes", func() { out.Echoes = uc.echoes.DetectEchoes(ctx, w) })

	wg.Wait()
	return out
}

// deliverTimeout bounds downstream publish/archive calls. Delivery runs
// on its own deadline: the pass deadline may already have fired on a
// partial pass, and those interpretations still have to go out.
const deliverTimeout = 10 * time.Second

// deliver hands the batch to downstream transports. Failures are logged
// and absorbed; the codex already holds the interpretations.
func (uc *DetectionPassUseCase) deliver(ctx context.Context, batch []models.Interpretation) {
	if len(batch) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliverTimeout)
	defer cancel()
	if uc.publisher != nil {
		if err := uc.publisher.PublishInterpretations(ctx, batch); err != nil {
			uc.l.Error("publish interpretations failed",
				logger.Int("batch", len(batch)),
				logger.Error(err),
			)
		}
	}
	if uc.archive != nil {
		if err := uc.archive.ArchiveInterpretations(ctx, batch); err != nil {
			uc.l.Error("archive interpretations failed",
				logger.Int("batch", len(batch)),
				logger.Error(err),
			)
		}
	}
}
