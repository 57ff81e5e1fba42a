package client

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/MKhiriev/go-farm-sync/internal/adapter"
	"github.com/MKhiriev/go-farm-sync/internal/config"
	"github.com/MKhiriev/go-farm-sync/internal/connectivity"
	"github.com/MKhiriev/go-farm-sync/internal/logger"
	"github.com/MKhiriev/go-farm-sync/internal/service"
	"github.com/MKhiriev/go-farm-sync/internal/store"
	"github.com/MKhiriev/go-farm-sync/internal/workers"
)

// App is a running sync node: the local store, the offline-first
// repositories and the background workers that keep them in sync.
type App struct {
	storages *store.NodeStorages
	monitor  *connectivity.Monitor
	services *service.NodeServices
	workers  *workers.Workers

	logger *logger.Logger
}

// NewApp opens the local database and wires the node. Nothing runs until
// [App.Run].
func NewApp(ctx context.Context, cfg *config.NodeConfig, log *logger.Logger) (*App, error) {
	log.Info().Msg("creating sync node...")

	storages, err := store.NewNodeStorages(ctx, cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}

	documents, err := adapter.NewHTTPDocumentClient(cfg.Adapter, log)
	if err != nil {
		storages.Close()
		return nil, fmt.Errorf("create document client: %w", err)
	}

	monitor := connectivity.NewMonitor(documents, cfg.Workers.ConnectivityInterval, cfg.Adapter.RequestTimeout, log)
	services := service.NewNodeServices(storages, documents, monitor, cfg.Sync, log)

	monitor.OnChange(func(ctx context.Context, online bool) {
		if !online {
			return
		}
		result, err := services.Processor.Drain(ctx)
		if err != nil {
			log.Err(err).Str("func", "App.onReconnect").Msg("outbox drain after reconnect failed")
			return
		}
		log.Info().Str("func", "App.onReconnect").Int("processed", result.Processed).Int("failed", result.Failed).Msg("outbox drained after reconnect")
	})

	return &App{
		storages: storages,
		monitor:  monitor,
		services: services,
		workers: workers.NewWorkers(
			monitor,
			workers.NewSyncJob(services.Processor, monitor, cfg.Workers.SyncInterval, log),
			workers.NewCleanupJob(services.Processor, cfg.Workers.CleanupInterval, log),
		),
		logger: log,
	}, nil
}

// Services exposes the node's repositories to embedding code.
func (a *App) Services() *service.NodeServices {
	return a.services
}

// Run starts the workers and blocks until SIGINT, SIGTERM or ctx is done,
// then stops everything and closes the local store.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if report, err := a.services.Processor.Status(ctx); err == nil {
		a.logger.Info().
			Any("outbox", report.Outbox).
			Any("pending", report.PendingEntities).
			Msg("sync node starting")
	}

	a.workers.Start(ctx)
	<-ctx.Done()

	a.logger.Info().Msg("sync node stopping")
	return a.Close()
}

// Close stops the workers and live queries and closes the local store. It is
// safe to call after Run returns.
func (a *App) Close() error {
	a.workers.Stop()
	a.services.Close()

	if err := a.storages.Close(); err != nil {
		return fmt.Errorf("close local storage: %w", err)
	}
	return nil
}
