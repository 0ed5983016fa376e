//go:build wireinject
// +build wireinject

package di

import (
	"ForceField/pkg/config"
	"ForceField/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation in wire_gen.go.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Core engine
		ProvideSnapshotStore,
		ProvideZoneDetector,
		ProvideResonanceMatcher,
		ProvideFlowEstimator,
		ProvideEchoDetector,
		ProvideComposer,
		ProvideCodexLog,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideCache,

		// Repositories
		ProvideArchive,
		ProvidePublisher,
		ProvideMarketStream,
		ProvideBackfillClient,

		// Use cases
		ProvideDetectionPass,
		ProvideIngest,
		ProvidePointCollector,
		ProvideKafkaPointsHandler,

		// HTTP + application
		ProvideForcesHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
