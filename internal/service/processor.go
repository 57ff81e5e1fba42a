// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/MKhiriev/go-farm-sync/internal/config"
	"github.com/MKhiriev/go-farm-sync/internal/connectivity"
	"github.com/MKhiriev/go-farm-sync/internal/logger"
	"github.com/MKhiriev/go-farm-sync/internal/store"
	"github.com/MKhiriev/go-farm-sync/models"
)

// syncProcessor drains the outbox one entity at a time through the
// [EntitySyncer] registered for the entry's type.
type syncProcessor struct {
	outbox  store.OutboxRepository
	syncers map[models.EntityType]EntitySyncer
	online  connectivity.Connectivity

	maxRetries       int
	batchSize        int
	evictLimit       int
	deletedRetention time.Duration
	outboxRetention  time.Duration
	syncedRetention  time.Duration

	// drains never overlap
	mu sync.Mutex

	now    func() time.Time
	logger *logger.Logger
}

// NewSyncProcessor builds a [SyncProcessor] for the given syncers. Zero
// tunables in cfg fall back to the config package defaults.
func NewSyncProcessor(outbox store.OutboxRepository, online connectivity.Connectivity, cfg config.Sync, logger *logger.Logger, syncers ...EntitySyncer) SyncProcessor {
	p := &syncProcessor{
		outbox:           outbox,
		syncers:          make(map[models.EntityType]EntitySyncer, len(syncers)),
		online:           online,
		maxRetries:       cmp.Or(cfg.MaxRetries, defaultMaxRetries),
		batchSize:        cmp.Or(cfg.BatchSize, config.DefaultBatchSize),
		evictLimit:       cfg.EvictLimit,
		deletedRetention: cmp.Or(cfg.DeletedRetention, config.DefaultDeletedRetention),
		outboxRetention:  cmp.Or(cfg.OutboxRetention, config.DefaultOutboxRetention),
		syncedRetention:  cmp.Or(cfg.SyncedRetention, config.DefaultSyncedRetention),
		now:              time.Now,
		logger:           logger,
	}
	for _, s := range syncers {
		p.syncers[s.EntityType()] = s
	}
	return p
}

// entryGroup is every retryable outbox entry of one entity. The lead entry
// decides priority and operation; the outcome applies to all ids.
type entryGroup struct {
	lead     models.OutboxEntry
	oldest   time.Time
	entryIDs []string
}

// groupEntries dedupes entries by entity, keeping the highest priority and
// then the most recent entry as lead. Groups are ordered by lead priority,
// then by their oldest entry so that an entity edited over and over does not
// starve.
func groupEntries(entries []models.OutboxEntry) []*entryGroup {
	byEntity := make(map[string]*entryGroup, len(entries))
	groups := make([]*entryGroup, 0, len(entries))

	for _, e := range entries {
		g, ok := byEntity[e.EntityKey()]
		if !ok {
			g = &entryGroup{lead: e, oldest: e.CreatedAt}
			byEntity[e.EntityKey()] = g
			groups = append(groups, g)
		}
		g.entryIDs = append(g.entryIDs, e.ID)

		if e.CreatedAt.Before(g.oldest) {
			g.oldest = e.CreatedAt
		}
		if e.Priority > g.lead.Priority || (e.Priority == g.lead.Priority && e.CreatedAt.After(g.lead.CreatedAt)) {
			g.lead = e
		}
	}

	slices.SortStableFunc(groups, func(a, b *entryGroup) int {
		if c := cmp.Compare(b.lead.Priority, a.lead.Priority); c != 0 {
			return c
		}
		if c := a.oldest.Compare(b.oldest); c != 0 {
			return c
		}
		return cmp.Compare(a.lead.EntityKey(), b.lead.EntityKey())
	})

	return groups
}

// Drain processes up to the batch size of entities with PENDING entries or
// FAILED entries that still have retry budget. A failure marks the entity's
// entries FAILED and moves on.
func (p *syncProcessor) Drain(ctx context.Context) (models.DrainResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	log := logger.FromContext(ctx)
	var result models.DrainResult

	if !p.online.IsOnline() {
		return result, ErrOffline
	}

	entries, err := p.outbox.GetRetryable(ctx, p.maxRetries, 0)
	if err != nil {
		log.Err(err).Str("func", "syncProcessor.Drain").Msg("failed to read outbox")
		return result, fmt.Errorf("reading outbox: %w", err)
	}

	groups := groupEntries(entries)
	if len(groups) > p.batchSize {
		result.Skipped = len(groups) - p.batchSize
		groups = groups[:p.batchSize]
	}

	for i, g := range groups {
		if err = ctx.Err(); err != nil {
			result.Skipped += len(groups) - i
			return result, err
		}

		result.Processed++
		if pushErr := p.process(ctx, g); pushErr != nil {
			result.Failed++
			result.Errors = append(result.Errors, models.SyncError{
				EntityID:  g.lead.EntityID,
				ErrorType: classifyRemoteError(pushErr),
				Message:   pushErr.Error(),
			})
			continue
		}
		result.Succeeded++
	}

	return result, nil
}

func (p *syncProcessor) process(ctx context.Context, g *entryGroup) error {
	log := logger.FromContext(ctx)
	lead := g.lead

	var pushErr error
	syncer, ok := p.syncers[lead.EntityType]
	if ok {
		pushErr = syncer.Push(ctx, lead.OperationType, lead.EntityID)
	} else {
		pushErr = fmt.Errorf("%w: %s", ErrUnknownEntityType, lead.EntityType)
	}

	attemptAt := p.now()

	if pushErr == nil {
		if err := p.outbox.MarkSuccess(ctx, attemptAt, g.entryIDs...); err != nil {
			// the entity is synced; the entries are retried and push is a no-op
			log.Err(err).Str("func", "syncProcessor.process").Str("entity", lead.EntityKey()).Msg("failed to mark entries succeeded")
		}
		return nil
	}

	log.Warn().Err(pushErr).
		Str("func", "syncProcessor.process").
		Str("entity", lead.EntityKey()).
		Str("operation", string(lead.OperationType)).
		Int("retry_count", lead.RetryCount).
		Msg("outbox entry failed")

	for _, id := range g.entryIDs {
		if err := p.outbox.MarkFailed(ctx, id, pushErr.Error(), attemptAt); err != nil {
			log.Err(err).Str("func", "syncProcessor.process").Str("id", id).Msg("failed to mark entry failed")
		}
	}

	return pushErr
}

// ResetFailedToQueued gives every FAILED entry, including exhausted ones, a
// fresh retry budget, and does the same for exhausted entities.
func (p *syncProcessor) ResetFailedToQueued(ctx context.Context) (int64, error) {
	log := logger.FromContext(ctx)

	reset, err := p.outbox.ResetFailedToQueued(ctx)
	if err != nil {
		return 0, fmt.Errorf("resetting outbox: %w", err)
	}

	var errs []error
	for _, s := range p.sortedSyncers() {
		n, err := s.ResetExhausted(ctx, p.maxRetries)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.EntityType(), err))
			continue
		}
		if n > 0 {
			log.Info().Str("func", "syncProcessor.ResetFailedToQueued").Str("entity_type", string(s.EntityType())).Int64("entities", n).Msg("exhausted entities reset")
		}
	}

	return reset, errors.Join(errs...)
}

// Cleanup removes succeeded outbox entries, exhausted entries past the outbox
// retention and, per entity type, purges confirmed deletions and evicts old
// synced rows.
func (p *syncProcessor) Cleanup(ctx context.Context) (models.CleanupResult, error) {
	var (
		result models.CleanupResult
		errs   []error
	)
	now := p.now()

	n, err := p.outbox.DeleteSucceeded(ctx)
	result.OutboxSucceeded = n
	errs = append(errs, err)

	n, err = p.outbox.DeleteExhausted(ctx, p.maxRetries, now.Add(-p.outboxRetention))
	result.OutboxExhausted = n
	errs = append(errs, err)

	for _, s := range p.sortedSyncers() {
		r, err := s.Cleanup(ctx, now.Add(-p.deletedRetention), now.Add(-p.syncedRetention), p.evictLimit)
		result.EntitiesPurged += r.EntitiesPurged
		result.EntitiesEvicted += r.EntitiesEvicted
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.EntityType(), err))
		}
	}

	return result, errors.Join(errs...)
}

// Status reports the outbox backlog and the pending entities per type.
func (p *syncProcessor) Status(ctx context.Context) (models.StatusReport, error) {
	report := models.StatusReport{
		Online:          p.online.IsOnline(),
		PendingEntities: make(map[models.EntityType]int, len(p.syncers)),
	}

	counts, err := p.outbox.CountByStatus(ctx)
	if err != nil {
		return report, fmt.Errorf("counting outbox: %w", err)
	}
	report.Outbox = counts

	for _, s := range p.sortedSyncers() {
		n, err := s.CountPending(ctx)
		if err != nil {
			return report, fmt.Errorf("counting %s: %w", s.EntityType(), err)
		}
		report.PendingEntities[s.EntityType()] = n
	}

	return report, nil
}

func (p *syncProcessor) sortedSyncers() []EntitySyncer {
	out := make([]EntitySyncer, 0, len(p.syncers))
	for _, s := range p.syncers {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b EntitySyncer) int {
		return cmp.Compare(a.EntityType(), b.EntityType())
	})
	return out
}
