package workers

import (
	"context"
	"time"

	"github.com/MKhiriev/go-farm-sync/internal/logger"
)

// NewSyncJob drains the outbox every interval while the remote store is
// reachable, and once on start. Offline ticks are skipped.
func NewSyncJob(processor OutboxProcessor, online OnlineChecker, interval time.Duration, log *logger.Logger) Worker {
	return NewTicker("sync", interval, true, func(ctx context.Context) {
		if !online.IsOnline() {
			log.Debug().Str("func", "SyncJob").Msg("offline, skipping outbox drain")
			return
		}

		result, err := processor.Drain(ctx)
		if err != nil {
			log.Err(err).Str("func", "SyncJob").Msg("outbox drain failed")
			return
		}
		if result.Processed > 0 {
			log.Info().
				Str("func", "SyncJob").
				Int("processed", result.Processed).
				Int("succeeded", result.Succeeded).
				Int("failed", result.Failed).
				Int("skipped", result.Skipped).
				Msg("outbox drained")
		}
	}, log)
}

// NewCleanupJob runs the outbox and local store cleanup every interval.
func NewCleanupJob(processor OutboxProcessor, interval time.Duration, log *logger.Logger) Worker {
	return NewTicker("cleanup", interval, false, func(ctx context.Context) {
		result, err := processor.Cleanup(ctx)
		if err != nil {
			log.Err(err).Str("func", "CleanupJob").Msg("cleanup failed")
			return
		}
		log.Info().
			Str("func", "CleanupJob").
			Int64("outbox_succeeded", result.OutboxSucceeded).
			Int64("outbox_exhausted", result.OutboxExhausted).
			Int64("entities_purged", result.EntitiesPurged).
			Int64("entities_evicted", result.EntitiesEvicted).
			Msg("cleanup finished")
	}, log)
}
