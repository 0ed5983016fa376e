package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"ForceField/internal/domain/repository"
	"ForceField/internal/handler/api"
	"ForceField/internal/service/binance"
	"ForceField/internal/usecase"
	pkgch "ForceField/pkg/clickhouse"
	"ForceField/pkg/config"
	xhttp "ForceField/pkg/http"
	pkgkafka "ForceField/pkg/kafka"
	applogger "ForceField/pkg/logger"
)

// App owns the engine lifecycle: REST backfill, stream collection,
// optional Kafka consumption, the HTTP API, and graceful teardown.
type App struct {
	cfg       *config.Config
	l         *applogger.Logger
	backfill  *binance.Client
	ingest    *usecase.IngestUseCase
	collector *usecase.PointCollector
	consumer  *pkgkafka.Consumer
	kh        pkgkafka.MessageHandler
	chClient  *pkgch.Client
	archive   repository.Archive
	handler   *api.ForcesHandler

	httpServer *xhttp.Server
}

// New assembles an App from wired dependencies. consumer, chClient and
// archive may be nil when the corresponding transport is disabled.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	backfill *binance.Client,
	ingest *usecase.IngestUseCase,
	collector *usecase.PointCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	archive repository.Archive,
	handler *api.ForcesHandler,
) *App {
	return &App{
		cfg:       cfg,
		l:         l,
		backfill:  backfill,
		ingest:    ingest,
		collector: collector,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
		archive:   archive,
		handler:   handler,
	}
}

// Run starts everything and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.archive != nil {
		if err := a.archive.Init(ctx); err != nil {
			a.l.Warn("archive init failed, continuing without it", applogger.Error(err))
			a.archive = nil
		}
	}

	// Backfill gives the first pass enough depth before live data lands.
	if a.backfill != nil {
		points, err := a.backfill.Backfill(ctx, a.cfg.Binance.BackfillN)
		if err != nil {
			a.l.Warn("backfill failed, starting from empty snapshot", applogger.Error(err))
		} else if version, report, err := a.ingest.Ingest(ctx, points); err == nil {
			a.l.Info("backfill ingested",
				applogger.Uint64("version", version),
				applogger.Int("accepted", report.Accepted),
				applogger.Int("dropped", report.Dropped),
			)
		}
	}

	go func() {
		if err := a.collector.Start(ctx); err != nil {
			a.l.Error("collector error", applogger.Error(err))
		}
	}()
	a.l.Info("collector started",
		applogger.String("symbol", a.cfg.Binance.Symbol),
		applogger.String("interval", a.cfg.Binance.Interval),
	)

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.l),
	)
	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

func (a *App) shutdown(ctx context.Context) error {
	if err := a.collector.Stop(); err != nil {
		a.l.Warn("collector stop error", applogger.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	if a.archive != nil {
		if err := a.archive.Close(); err != nil {
			a.l.Warn("archive close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
