package service

import (
	"context"

	"ForceField/internal/domain/models"
)

// Detectors are pure functions over an immutable window: no I/O, no shared
// state, deterministic output for identical input. Each honors the context
// deadline at bounded granularity and tags its result Partial on expiry
// instead of returning an error.

// ZoneDetector clusters price/volume into magnetic zones.
type ZoneDetector interface {
	DetectZones(ctx context.Context, w models.Window) models.ZoneResult
}

// ResonanceMatcher finds historical windows similar to the current one.
type ResonanceMatcher interface {
	Match(ctx context.Context, w models.Window) models.ResonanceResult
}

// FlowEstimator computes directional momentum across horizons.
type FlowEstimator interface {
	EstimateFlow(ctx context.Context, w models.Window) models.FlowResult
}

// EchoDetector finds self-similar motifs across time scales.
type EchoDetector interface {
	DetectEchoes(ctx context.Context, w models.Window) models.EchoResult
}
