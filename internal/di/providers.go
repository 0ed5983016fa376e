package di

import (
	"fmt"
	"hash/fnv"

	"ForceField/internal/codex"
	"ForceField/internal/domain/repository"
	dservice "ForceField/internal/domain/service"
	"ForceField/internal/handler/api"
	"ForceField/internal/service/binance"
	"ForceField/internal/services/compose"
	"ForceField/internal/services/detect"
	"ForceField/internal/snapshot"
	"ForceField/internal/usecase"
	pkgcache "ForceField/pkg/cache"
	pkgch "ForceField/pkg/clickhouse"
	"ForceField/pkg/config"
	xhttp "ForceField/pkg/http"
	pkgkafka "ForceField/pkg/kafka"
	applogger "ForceField/pkg/logger"
	"ForceField/pkg/metrics"
	"ForceField/pkg/server"

	"time"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideSnapshotStore creates the versioned snapshot store.
func ProvideSnapshotStore(cfg *config.Config, l *applogger.Logger, m repository.Metrics) *snapshot.Store {
	return snapshot.NewStore(cfg.Ingest.CorruptCeiling, l, m)
}

// ProvideZoneDetector creates the magnetic zone detector.
func ProvideZoneDetector(cfg *config.Config) dservice.ZoneDetector {
	return detect.NewZoneDetector(cfg.Detection)
}

// ProvideResonanceMatcher creates the temporal resonance matcher.
func ProvideResonanceMatcher(cfg *config.Config) dservice.ResonanceMatcher {
	return detect.NewResonanceMatcher(cfg.Detection)
}

// ProvideFlowEstimator creates the gravitational flow estimator.
func ProvideFlowEstimator(cfg *config.Config) dservice.FlowEstimator {
	return detect.NewFlowEstimator(cfg.Detection)
}

// ProvideEchoDetector creates the fractal echo detector.
func ProvideEchoDetector(cfg *config.Config) dservice.EchoDetector {
	return detect.NewEchoDetector(cfg.Detection)
}

// ProvideComposer creates the interpretation composer.
func ProvideComposer() *compose.Composer {
	return compose.NewComposer()
}

// ProvideCodexLog creates the append-only interpretation log.
func ProvideCodexLog(cfg *config.Config) *codex.Log {
	return codex.NewLog(cfg.Detection.InterpretationTTL)
}

// ProvideClickHouseClient connects to ClickHouse, or returns nil when
// the archive is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, 10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideArchive creates the interpretation archive over ClickHouse.
func ProvideArchive(ch *pkgch.Client, cfg *config.Config, l *applogger.Logger) repository.Archive {
	if ch == nil {
		return nil
	}
	table := cfg.ClickHouse.Database + ".interpretations"
	return codex.NewClickHouseArchive(ch, table, l)
}

// ProvideKafkaProducer creates a producer, or nil when Kafka is off.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvidePublisher creates the interpretation publisher.
func ProvidePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	if producer == nil {
		return nil
	}
	return codex.NewKafkaPublisher(producer, cfg.Kafka.CodexTopic)
}

// ProvideKafkaConsumer creates a consumer, or nil when Kafka is off.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideDetectionPass wires the pass runner.
func ProvideDetectionPass(
	store *snapshot.Store,
	zones dservice.ZoneDetector,
	reso dservice.ResonanceMatcher,
	flow dservice.FlowEstimator,
	echoes dservice.EchoDetector,
	composer *compose.Composer,
	codexLog *codex.Log,
	publisher repository.Publisher,
	archive repository.Archive,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.DetectionPassUseCase {
	return usecase.NewDetectionPassUseCase(
		store, zones, reso, flow, echoes, composer, codexLog,
		publisher, archive, m, l, cfg.Detection.PassTimeout,
	)
}

// ProvideIngest wires the ingest usecase.
func ProvideIngest(store *snapshot.Store, l *applogger.Logger) *usecase.IngestUseCase {
	return usecase.NewIngestUseCase(store, l)
}

// ProvideMarketStream creates the Binance kline stream.
func ProvideMarketStream(cfg *config.Config, l *applogger.Logger) repository.MarketStream {
	return binance.NewStream(
		cfg.Binance.WebSocketURL,
		cfg.Binance.Symbol,
		cfg.Binance.Interval,
		cfg.Binance.Reconnect,
		cfg.Binance.PingInterval,
		l,
	)
}

// ProvideBackfillClient creates the Binance REST backfill client.
func ProvideBackfillClient(cfg *config.Config) *binance.Client {
	return binance.NewClient(
		cfg.Binance.RESTURL,
		cfg.Binance.Symbol,
		cfg.Binance.Interval,
		xhttp.NewClient(xhttp.WithTimeout(15*time.Second)),
	)
}

// ProvidePointCollector wires the stream collector.
func ProvidePointCollector(
	stream repository.MarketStream,
	ingest *usecase.IngestUseCase,
	pass *usecase.DetectionPassUseCase,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.PointCollector {
	return usecase.NewPointCollector(
		stream, ingest, pass, m, l,
		cfg.Binance.Symbol,
		cfg.Ingest.BatchSize,
		cfg.Ingest.FlushInterval,
	)
}

// ProvideKafkaPointsHandler registers the points-topic handler.
func ProvideKafkaPointsHandler(ingest *usecase.IngestUseCase, pass *usecase.DetectionPassUseCase, m repository.Metrics, l *applogger.Logger, cfg *config.Config) *usecase.KafkaPointsHandler {
	return usecase.NewKafkaPointsHandler(cfg.Kafka.PointsTopic, ingest, pass, m, l)
}

// ProvideCache picks the analysis cache backend.
func ProvideCache(cfg *config.Config) (pkgcache.Cache, error) {
	if cfg.Redis.Enabled {
		return pkgcache.NewRedisCache(pkgcache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
	}
	return pkgcache.NewMemoryCache(5 * time.Minute), nil
}

// ProvideForcesHandler wires the HTTP API.
func ProvideForcesHandler(
	cfg *config.Config,
	l *applogger.Logger,
	store *snapshot.Store,
	pass *usecase.DetectionPassUseCase,
	codexLog *codex.Log,
	cache pkgcache.Cache,
) *api.ForcesHandler {
	h := api.NewForcesHandler(l, store, pass, codexLog)
	h.SetCache(cache, detectionConfigTag(cfg.Detection))
	return h
}

// detectionConfigTag fingerprints the detector options so cached
// analysis results are invalidated by configuration changes.
func detectionConfigTag(d config.DetectionConfig) string {
	sum := fnv.New32a()
	fmt.Fprintf(sum, "%+v", d)
	return fmt.Sprintf("%08x", sum.Sum32())
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	backfill *binance.Client,
	ingest *usecase.IngestUseCase,
	collector *usecase.PointCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaPointsHandler,
	chClient *pkgch.Client,
	archive repository.Archive,
	handler *api.ForcesHandler,
) *server.App {
	var mh pkgkafka.MessageHandler
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
		mh = kh
	}
	return server.New(cfg, l, backfill, ingest, collector, consumer, mh, chClient, archive, handler)
}
