// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/MKhiriev/go-farm-sync/internal/adapter"
	"github.com/MKhiriev/go-farm-sync/internal/config"
	"github.com/MKhiriev/go-farm-sync/internal/connectivity"
	"github.com/MKhiriev/go-farm-sync/internal/logger"
	"github.com/MKhiriev/go-farm-sync/internal/store"
	"github.com/MKhiriev/go-farm-sync/internal/utils"
	"github.com/MKhiriev/go-farm-sync/internal/validators"
	"github.com/MKhiriev/go-farm-sync/models"
)

const (
	defaultMaxRetries       = config.DefaultMaxRetries
	defaultListenerInterval = config.DefaultListenerInterval
)

// ShouldUpdateLocal decides whether a remote copy replaces the local row.
type ShouldUpdateLocal[E models.Syncable] func(local, remote E) bool

// RepositoryOption customises a repository built by [NewRepository].
type RepositoryOption[E models.Syncable] func(*offlineFirstRepository[E])

// WithShouldUpdateLocal replaces [NewerRemote] as the refresh predicate.
func WithShouldUpdateLocal[E models.Syncable](fn ShouldUpdateLocal[E]) RepositoryOption[E] {
	return func(r *offlineFirstRepository[E]) {
		r.shouldUpdateLocal = fn
	}
}

// WithClock sets the time source used for timestamps.
func WithClock[E models.Syncable](now func() time.Time) RepositoryOption[E] {
	return func(r *offlineFirstRepository[E]) {
		r.now = now
	}
}

// WithIDGenerator sets the generator used for entities created without an id.
func WithIDGenerator[E models.Syncable](newID func() string) RepositoryOption[E] {
	return func(r *offlineFirstRepository[E]) {
		r.newID = newID
	}
}

// NewerRemote is the default [ShouldUpdateLocal]. A local row waiting for
// upload is never overwritten. Otherwise the remote copy wins when its
// version is higher, or equal with a later UpdatedAt.
//
// Versions are not compared before writes: the last write to reach the
// remote store wins.
func NewerRemote[E models.Syncable](local, remote E) bool {
	lm, rm := local.Meta(), remote.Meta()

	switch lm.SyncStatus {
	case models.SyncStatusPendingUpload, models.SyncStatusError:
		return false
	}

	if rm.ConflictVersion != lm.ConflictVersion {
		return rm.ConflictVersion > lm.ConflictVersion
	}
	return rm.UpdatedAt.After(lm.UpdatedAt)
}

// offlineFirstRepository implements [Repository] over a local store, a
// remote store and the outbox.
type offlineFirstRepository[E models.Syncable] struct {
	entityType models.EntityType

	local     store.LocalRepository[E]
	remote    adapter.RemoteStore[E]
	outbox    store.OutboxRepository
	online    connectivity.Connectivity
	validator validators.Validator

	shouldUpdateLocal ShouldUpdateLocal[E]
	maxRetries        int

	locks     *keyedMutex
	progress  sync.Map
	listeners *listenerRegistry[E]

	now    func() time.Time
	newID  func() string
	logger *logger.Logger
}

// NewRepository wires an offline-first [Repository] for E. E must be a
// pointer type whose EntityType method does not dereference its receiver.
func NewRepository[E models.Syncable](
	local store.LocalRepository[E],
	remote adapter.RemoteStore[E],
	outbox store.OutboxRepository,
	online connectivity.Connectivity,
	validator validators.Validator,
	cfg config.Sync,
	logger *logger.Logger,
	opts ...RepositoryOption[E],
) Repository[E] {
	var zero E

	r := &offlineFirstRepository[E]{
		entityType:        zero.EntityType(),
		local:             local,
		remote:            remote,
		outbox:            outbox,
		online:            online,
		validator:         validator,
		shouldUpdateLocal: NewerRemote[E],
		maxRetries:        cfg.MaxRetries,
		locks:             newKeyedMutex(),
		now:               time.Now,
		newID:             utils.NewID,
		logger:            logger,
	}
	if r.maxRetries <= 0 {
		r.maxRetries = defaultMaxRetries
	}
	for _, opt := range opts {
		opt(r)
	}

	interval := cfg.ListenerInterval
	if interval <= 0 {
		interval = defaultListenerInterval
	}
	r.listeners = newListenerRegistry(r.pollQuery, online, interval, logger)

	return r
}

func (r *offlineFirstRepository[E]) fn(method string) string {
	return "offlineFirstRepository[" + string(r.entityType) + "]." + method
}

// EntityType implements [EntitySyncer].
func (r *offlineFirstRepository[E]) EntityType() models.EntityType {
	return r.entityType
}

// ── Reads ────────────────────────────────────────────────────────────────────

// GetByID yields the local copy first. When online it then yields the
// remote copy if that replaced the local row, or "not found" if the remote
// store deleted it. A miss while online is resolved remotely; a miss while
// offline yields "not found".
func (r *offlineFirstRepository[E]) GetByID(ctx context.Context, id string) iter.Seq[models.Result[E]] {
	return func(yield func(models.Result[E]) bool) {
		online := r.online.IsOnline()

		local, err := r.local.GetByID(ctx, id, true)
		switch {
		case errors.Is(err, store.ErrEntityNotFound):
			if !online {
				yield(models.Missing[E](models.SourceLocal))
				return
			}
			yield(r.fetchMissing(ctx, id))
			return
		case err != nil:
			yield(models.Failure[E](fmt.Errorf("%w: %w", ErrLocalRead, err), models.SourceLocal))
			return
		case local.Meta().IsDeleted:
			yield(models.Missing[E](models.SourceLocal))
			return
		}

		if !online {
			yield(models.Success(local, models.SourceLocal))
			return
		}

		refreshed := make(chan E, 1)
		go func() {
			defer close(refreshed)
			if fresh, ok := r.refresh(ctx, id); ok {
				refreshed <- fresh
			}
		}()

		if !yield(models.Success(local, models.SourceLocal)) {
			return
		}

		fresh, ok := <-refreshed
		switch {
		case !ok:
		case fresh.Meta().IsDeleted:
			yield(models.Missing[E](models.SourceRemote))
		default:
			yield(models.Success(fresh, models.SourceRemote))
		}
	}
}

// refresh fetches the remote copy of id and stores it when the predicate
// allows. A synced row the remote store no longer has is tombstoned and
// returned deleted. Failures are logged and reported as "no update".
func (r *offlineFirstRepository[E]) refresh(ctx context.Context, id string) (E, bool) {
	var zero E
	log := logger.FromContext(ctx)

	done := r.trackProgress(id, models.SyncStatusDownloading)
	remote, err := r.remote.FetchByID(ctx, id)
	done()
	if errors.Is(err, adapter.ErrRemoteNotFound) {
		gone, deleted, err := r.tombstone(ctx, id)
		if err != nil {
			log.Err(err).Str("func", r.fn("refresh")).Str("id", id).Msg("failed to tombstone entity deleted remotely")
			return zero, false
		}
		return gone, deleted
	}
	if err != nil {
		log.Debug().Err(err).Str("func", r.fn("refresh")).Str("id", id).Msg("background refresh failed")
		return zero, false
	}

	stored, updated, err := r.persistRemote(ctx, remote)
	if err != nil {
		log.Err(err).Str("func", r.fn("refresh")).Str("id", id).Msg("failed to store refreshed entity")
		return zero, false
	}

	return stored, updated
}

func (r *offlineFirstRepository[E]) fetchMissing(ctx context.Context, id string) models.Result[E] {
	remote, err := r.remote.FetchByID(ctx, id)
	switch {
	case errors.Is(err, adapter.ErrRemoteNotFound):
		return models.Missing[E](models.SourceRemote)
	case err != nil:
		return models.Failure[E](err, models.SourceRemote)
	case remote.Meta().IsDeleted:
		return models.Missing[E](models.SourceRemote)
	}

	stored, updated, err := r.persistRemote(ctx, remote)
	if err != nil {
		return models.Failure[E](err, models.SourceLocal)
	}
	if !updated {
		// a local write landed while the fetch was in flight
		if stored.Meta().IsDeleted {
			return models.Missing[E](models.SourceLocal)
		}
		return models.Success(stored, models.SourceLocal)
	}

	return models.Success(stored, models.SourceRemote)
}

// tombstone soft-deletes the local row id after the remote store reported it
// missing. Only SYNCED rows are touched: a local edit waiting for upload
// recreates the document on the next push. The row stays SYNCED so that
// cleanup purges it after the deleted retention.
func (r *offlineFirstRepository[E]) tombstone(ctx context.Context, id string) (E, bool, error) {
	var zero E

	unlock := r.locks.Lock(id)
	defer unlock()

	current, err := r.local.GetByID(ctx, id, true)
	switch {
	case errors.Is(err, store.ErrEntityNotFound):
		return zero, false, nil
	case err != nil:
		return zero, false, fmt.Errorf("%w: %w", ErrLocalRead, err)
	}

	m := current.Meta()
	if m.IsDeleted || m.SyncStatus != models.SyncStatusSynced {
		return current, false, nil
	}

	m.IsDeleted = true
	m.UpdatedAt = r.now()
	if err = r.local.Upsert(ctx, current); err != nil {
		return zero, false, fmt.Errorf("%w: %w", ErrLocalWrite, err)
	}

	logger.FromContext(ctx).Debug().Str("func", r.fn("tombstone")).Str("id", id).Msg("entity deleted remotely")
	return current, true, nil
}

// persistRemote stores remote unless the current local row must be kept.
// It returns whichever copy is now authoritative and whether it was the
// remote one.
func (r *offlineFirstRepository[E]) persistRemote(ctx context.Context, remote E) (E, bool, error) {
	var zero E
	rm := remote.Meta()

	unlock := r.locks.Lock(rm.ID)
	defer unlock()

	current, err := r.local.GetByID(ctx, rm.ID, true)
	switch {
	case errors.Is(err, store.ErrEntityNotFound):
	case err != nil:
		return zero, false, fmt.Errorf("%w: %w", ErrLocalRead, err)
	case !r.shouldUpdateLocal(current, remote):
		return current, false, nil
	}

	r.adopt(remote, r.now())
	if err = r.local.Upsert(ctx, remote); err != nil {
		return zero, false, fmt.Errorf("%w: %w", ErrLocalWrite, err)
	}

	return remote, true, nil
}

// GetAll yields the cached page, then the remote page once it is stored.
// Synced cached rows missing from the remote page are checked one by one and
// tombstoned when the remote store deleted them. Remote failures are
// swallowed when a cached page was already yielded, unless opts.ForceRefresh
// is set.
func (r *offlineFirstRepository[E]) GetAll(ctx context.Context, opts ListOptions) iter.Seq[models.Result[[]E]] {
	return func(yield func(models.Result[[]E]) bool) {
		log := logger.FromContext(ctx)
		page := models.Page{Limit: opts.Limit, Offset: opts.Offset}.Normalize()
		online := r.online.IsOnline()
		yielded := false

		var cached []E
		if !opts.ForceRefresh {
			var err error
			cached, err = r.local.GetPage(ctx, page.Limit, page.Offset)
			switch {
			case err != nil && !online:
				yield(models.Failure[[]E](fmt.Errorf("%w: %w", ErrLocalRead, err), models.SourceLocal))
				return
			case err != nil:
				log.Warn().Err(err).Str("func", r.fn("GetAll")).Msg("cached page unavailable, reading remote")
			case len(cached) > 0 || !online:
				if !yield(models.Success(cached, models.SourceLocal)) {
					return
				}
				yielded = true
			}
		}

		if !online {
			if opts.ForceRefresh {
				yield(models.Failure[[]E](ErrOffline, models.SourceRemote))
			}
			return
		}

		items, err := r.remote.FetchAll(ctx, page)
		if err != nil {
			if yielded && !opts.ForceRefresh {
				log.Debug().Err(err).Str("func", r.fn("GetAll")).Msg("remote page unavailable, keeping cached page")
				return
			}
			yield(models.Failure[[]E](err, models.SourceRemote))
			return
		}

		fresh, err := r.storeSnapshot(ctx, items)
		if err != nil {
			yield(models.Failure[[]E](err, models.SourceLocal))
			return
		}
		r.dropVanished(ctx, cached, items)

		yield(models.Success(fresh, models.SourceRemote))
	}
}

// storeSnapshot persists a remote result set in one batch and returns what
// the caller should see: rows waiting for upload keep their local state and
// deleted rows are dropped.
func (r *offlineFirstRepository[E]) storeSnapshot(ctx context.Context, items []E) ([]E, error) {
	ids := make([]string, 0, len(items))
	for _, e := range items {
		ids = append(ids, e.Meta().ID)
	}

	unlock := r.lockAll(ids)
	defer unlock()

	pending, err := r.local.GetAllPendingSync(ctx, store.PendingFilter{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLocalRead, err)
	}
	pendingByID := make(map[string]E, len(pending))
	for _, p := range pending {
		pendingByID[p.Meta().ID] = p
	}

	now := r.now()
	visible := make([]E, 0, len(items))
	toStore := make([]E, 0, len(items))
	for _, e := range items {
		if p, ok := pendingByID[e.Meta().ID]; ok {
			if !p.Meta().IsDeleted {
				visible = append(visible, p)
			}
			continue
		}

		r.adopt(e, now)
		toStore = append(toStore, e)
		if !e.Meta().IsDeleted {
			visible = append(visible, e)
		}
	}

	if err = r.local.Upsert(ctx, toStore...); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLocalWrite, err)
	}

	return visible, nil
}

// dropVanished tombstones the synced cached rows that the remote page left
// out and the remote store no longer has. A row missing from the page may
// only have moved to another page, so each one is fetched before it is
// dropped.
func (r *offlineFirstRepository[E]) dropVanished(ctx context.Context, cached, items []E) {
	log := logger.FromContext(ctx)

	seen := make(map[string]struct{}, len(items))
	for _, e := range items {
		seen[e.Meta().ID] = struct{}{}
	}

	for _, c := range cached {
		m := c.Meta()
		if _, ok := seen[m.ID]; ok || m.SyncStatus != models.SyncStatusSynced {
			continue
		}

		_, err := r.remote.FetchByID(ctx, m.ID)
		switch {
		case err == nil:
			continue
		case !errors.Is(err, adapter.ErrRemoteNotFound):
			log.Debug().Err(err).Str("func", r.fn("dropVanished")).Str("id", m.ID).Msg("failed to check cached entity")
			continue
		}

		if _, _, err = r.tombstone(ctx, m.ID); err != nil {
			log.Err(err).Str("func", r.fn("dropVanished")).Str("id", m.ID).Msg("failed to tombstone entity deleted remotely")
		}
	}
}

// ── Writes ───────────────────────────────────────────────────────────────────

// Create validates entity, tries the remote store when online and falls
// back to a PENDING_UPLOAD local row plus an outbox entry. A missing id is
// generated.
func (r *offlineFirstRepository[E]) Create(ctx context.Context, entity E) (E, error) {
	var zero E
	log := logger.FromContext(ctx)

	if isNil(entity) {
		return zero, fmt.Errorf("%w: %w", ErrValidation, validators.ErrNilEntity)
	}

	m := entity.Meta()
	if m.ID == "" {
		m.ID = r.newID()
	}
	if m.Priority == models.PriorityUnset {
		m.Priority = r.entityType.DefaultPriority()
	}

	if err := r.validator.Validate(ctx, entity); err != nil {
		log.Warn().Err(err).Str("func", r.fn("Create")).Str("id", m.ID).Msg("entity rejected")
		return zero, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	unlock := r.locks.Lock(m.ID)
	defer unlock()

	now := r.now()
	m.Touch(now)
	m.IsDeleted = false

	if r.online.IsOnline() {
		done := r.trackProgress(m.ID, models.SyncStatusUploading)
		created, err := r.remote.Create(ctx, entity)
		done()
		if err == nil {
			r.adopt(created, now)
			if err = r.local.Upsert(ctx, created); err != nil {
				log.Err(err).Str("func", r.fn("Create")).Str("id", m.ID).Msg("failed to store created entity")
				return zero, fmt.Errorf("%w: %w", ErrLocalWrite, err)
			}
			return created, nil
		}

		log.Warn().Err(err).Str("func", r.fn("Create")).Str("id", m.ID).Msg("remote create failed, queued for sync")
	}

	return r.savePending(ctx, entity, models.OperationCreate)
}

// Update replaces an existing, non-deleted entity. Creation time and
// version are taken from the stored row, not from entity.
func (r *offlineFirstRepository[E]) Update(ctx context.Context, entity E) (E, error) {
	var zero E
	log := logger.FromContext(ctx)

	if isNil(entity) {
		return zero, fmt.Errorf("%w: %w", ErrValidation, validators.ErrNilEntity)
	}

	m := entity.Meta()
	if err := r.validator.Validate(ctx, entity); err != nil {
		log.Warn().Err(err).Str("func", r.fn("Update")).Str("id", m.ID).Msg("entity rejected")
		return zero, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	unlock := r.locks.Lock(m.ID)
	defer unlock()

	current, err := r.local.GetByID(ctx, m.ID, false)
	if errors.Is(err, store.ErrEntityNotFound) {
		return zero, fmt.Errorf("%w: %s", ErrNotFound, m.ID)
	}
	if err != nil {
		return zero, fmt.Errorf("%w: %w", ErrLocalRead, err)
	}

	cm := current.Meta()
	m.CreatedAt = cm.CreatedAt
	m.ConflictVersion = cm.ConflictVersion
	m.LastSyncTime = cm.LastSyncTime
	m.IsDeleted = false
	if m.Priority == models.PriorityUnset {
		m.Priority = cm.Priority
	}

	now := r.now()
	m.Touch(now)

	if r.online.IsOnline() {
		done := r.trackProgress(m.ID, models.SyncStatusUploading)
		updated, err := r.remote.Update(ctx, entity)
		done()
		if err == nil {
			r.adopt(updated, now)
			if err = r.local.Upsert(ctx, updated); err != nil {
				log.Err(err).Str("func", r.fn("Update")).Str("id", m.ID).Msg("failed to store updated entity")
				return zero, fmt.Errorf("%w: %w", ErrLocalWrite, err)
			}
			return updated, nil
		}

		log.Warn().Err(err).Str("func", r.fn("Update")).Str("id", m.ID).Msg("remote update failed, queued for sync")
	}

	return r.savePending(ctx, entity, models.OperationUpdate)
}

// Delete soft-deletes id. The row stays readable for sync until cleanup
// purges it.
func (r *offlineFirstRepository[E]) Delete(ctx context.Context, id string) error {
	log := logger.FromContext(ctx)

	unlock := r.locks.Lock(id)
	defer unlock()

	current, err := r.local.GetByID(ctx, id, false)
	if errors.Is(err, store.ErrEntityNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLocalRead, err)
	}

	now := r.now()
	cm := current.Meta()
	cm.IsDeleted = true
	cm.Touch(now)

	if r.online.IsOnline() {
		done := r.trackProgress(id, models.SyncStatusUploading)
		deleted, err := r.remote.Delete(ctx, id)
		done()

		// a document the remote store never saw has nothing to delete
		if err == nil || errors.Is(err, adapter.ErrRemoteNotFound) {
			version := cm.ConflictVersion
			if err == nil {
				version = deleted.Meta().ConflictVersion
			}
			cm.MarkSynced(now, version)

			if err = r.local.Upsert(ctx, current); err != nil {
				log.Err(err).Str("func", r.fn("Delete")).Str("id", id).Msg("failed to store deleted entity")
				return fmt.Errorf("%w: %w", ErrLocalWrite, err)
			}
			return nil
		}

		log.Warn().Err(err).Str("func", r.fn("Delete")).Str("id", id).Msg("remote delete failed, queued for sync")
	}

	if err = r.local.Delete(ctx, id, now); err != nil {
		log.Err(err).Str("func", r.fn("Delete")).Str("id", id).Msg("failed to mark entity deleted")
		return fmt.Errorf("%w: %w", ErrLocalWrite, err)
	}

	// mirror what the local store just did for the outbox snapshot
	cm.MarkPending()
	cm.ConflictVersion++

	if err = r.enqueue(ctx, current, models.OperationDelete); err != nil {
		return err
	}

	return nil
}

// savePending stores entity as PENDING_UPLOAD and enqueues op. Updates bump
// the local version so that concurrent readers see the change.
func (r *offlineFirstRepository[E]) savePending(ctx context.Context, entity E, op models.OperationType) (E, error) {
	var zero E
	log := logger.FromContext(ctx)
	m := entity.Meta()

	m.MarkPending()
	if op != models.OperationCreate {
		m.ConflictVersion++
	}

	if err := r.local.Upsert(ctx, entity); err != nil {
		log.Err(err).Str("func", r.fn("savePending")).Str("id", m.ID).Msg("failed to store pending entity")
		return zero, fmt.Errorf("%w: %w", ErrLocalWrite, err)
	}

	if err := r.enqueue(ctx, entity, op); err != nil {
		return zero, err
	}

	return entity, nil
}

func (r *offlineFirstRepository[E]) enqueue(ctx context.Context, entity E, op models.OperationType) error {
	log := logger.FromContext(ctx)
	m := entity.Meta()

	payload, err := json.Marshal(entity)
	if err != nil {
		log.Err(err).Str("func", r.fn("enqueue")).Str("id", m.ID).Msg("failed to encode outbox payload")
		return fmt.Errorf("%w: encoding outbox payload: %w", ErrLocalWrite, err)
	}

	entry := &models.OutboxEntry{
		EntityType:    r.entityType,
		EntityID:      m.ID,
		OperationType: op,
		Payload:       payload,
		Priority:      m.Priority,
	}
	if err = r.outbox.Enqueue(ctx, entry); err != nil {
		return fmt.Errorf("%w: %w", ErrLocalWrite, err)
	}

	return nil
}

// ── Sync ─────────────────────────────────────────────────────────────────────

// Push implements [EntitySyncer]. It re-reads the local row, so the remote
// store receives the latest local state rather than the outbox snapshot.
// Rows that are already synced or gone are a no-op.
func (r *offlineFirstRepository[E]) Push(ctx context.Context, op models.OperationType, id string) error {
	return r.syncOne(ctx, op, id)
}

// SyncPendingToServer pushes every pending entity with retry budget left.
func (r *offlineFirstRepository[E]) SyncPendingToServer(ctx context.Context) (models.SyncResult, error) {
	return r.SyncPending(ctx, SyncOptions{})
}

// SyncPendingByPriority pushes the pending entities of one priority band.
func (r *offlineFirstRepository[E]) SyncPendingByPriority(ctx context.Context, priority models.Priority) (models.SyncResult, error) {
	return r.SyncPending(ctx, SyncOptions{Priority: priority})
}

// SyncPending pushes pending entities HIGH priority first, oldest first
// within a band. A failing entity is counted and skipped; it never aborts
// the batch. Only a failure to list pending rows or a cancelled ctx is
// returned as an error.
func (r *offlineFirstRepository[E]) SyncPending(ctx context.Context, opts SyncOptions) (models.SyncResult, error) {
	log := logger.FromContext(ctx)
	result := models.SyncResult{EntityType: r.entityType}

	pending, err := r.local.GetAllPendingSync(ctx, store.PendingFilter{
		MaxRetries: r.maxRetries,
		Priority:   opts.Priority,
		Limit:      opts.Limit,
	})
	if err != nil {
		log.Err(err).Str("func", r.fn("SyncPending")).Msg("failed to list pending entities")
		return result, fmt.Errorf("%w: %w", ErrLocalRead, err)
	}
	result.TotalItems = len(pending)

	for _, e := range pending {
		if err = ctx.Err(); err != nil {
			return result, err
		}

		id := e.Meta().ID
		if err = r.syncOne(ctx, "", id); err != nil {
			result.FailureCount++
			result.Errors = append(result.Errors, models.SyncError{
				EntityID:  id,
				ErrorType: classifyRemoteError(err),
				Message:   err.Error(),
			})
			log.Warn().Err(err).Str("func", r.fn("SyncPending")).Str("id", id).Msg("entity sync failed")
			continue
		}
		result.SuccessCount++
	}

	if result.TotalItems > 0 {
		log.Info().
			Str("func", r.fn("SyncPending")).
			Int("total", result.TotalItems).
			Int("succeeded", result.SuccessCount).
			Int("failed", result.FailureCount).
			Msg("pending entities synced")
	}

	return result, nil
}

// syncOne pushes the current local state of id. An empty op checks the
// remote store to choose between create and update.
func (r *offlineFirstRepository[E]) syncOne(ctx context.Context, op models.OperationType, id string) error {
	log := logger.FromContext(ctx)

	unlock := r.locks.Lock(id)
	defer unlock()

	current, err := r.local.GetByID(ctx, id, true)
	if errors.Is(err, store.ErrEntityNotFound) {
		log.Debug().Str("func", r.fn("syncOne")).Str("id", id).Msg("entity no longer stored, nothing to push")
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLocalRead, err)
	}
	if current.Meta().SyncStatus == models.SyncStatusSynced {
		return nil
	}

	done := r.trackProgress(id, models.SyncStatusUploading)
	version, err := r.pushRemote(ctx, current, op)
	done()
	if err != nil {
		if incErr := r.local.IncrementRetryCount(ctx, id); incErr != nil {
			log.Err(incErr).Str("func", r.fn("syncOne")).Str("id", id).Msg("failed to record retry")
		}
		return err
	}

	if err = r.local.MarkSynced(ctx, id, r.now(), version); err != nil {
		log.Err(err).Str("func", r.fn("syncOne")).Str("id", id).Msg("failed to mark entity synced")
		return fmt.Errorf("%w: %w", ErrLocalWrite, err)
	}

	return nil
}

// pushRemote writes e to the remote store and returns the version the
// remote store assigned. Create falls back to update on a conflict and
// update falls back to create when the document is missing, so a push is
// an idempotent upsert.
func (r *offlineFirstRepository[E]) pushRemote(ctx context.Context, e E, op models.OperationType) (int64, error) {
	m := e.Meta()

	if m.IsDeleted {
		deleted, err := r.remote.Delete(ctx, m.ID)
		if errors.Is(err, adapter.ErrRemoteNotFound) {
			return m.ConflictVersion, nil
		}
		if err != nil {
			return 0, err
		}
		return deleted.Meta().ConflictVersion, nil
	}

	var (
		saved E
		err   error
	)
	switch op {
	case models.OperationCreate:
		saved, err = r.remote.Create(ctx, e)
		if errors.Is(err, adapter.ErrRemoteConflict) {
			saved, err = r.remote.Update(ctx, e)
		}
	case models.OperationUpdate, models.OperationDelete:
		saved, err = r.remote.Update(ctx, e)
		if errors.Is(err, adapter.ErrRemoteNotFound) {
			saved, err = r.remote.Create(ctx, e)
		}
	default:
		_, err = r.remote.FetchByID(ctx, m.ID)
		switch {
		case err == nil:
			saved, err = r.remote.Update(ctx, e)
		case errors.Is(err, adapter.ErrRemoteNotFound):
			saved, err = r.remote.Create(ctx, e)
		}
	}
	if err != nil {
		return 0, err
	}

	return saved.Meta().ConflictVersion, nil
}

// ResetExhausted implements [EntitySyncer].
func (r *offlineFirstRepository[E]) ResetExhausted(ctx context.Context, maxRetries int) (int64, error) {
	return r.local.ResetExhausted(ctx, maxRetries)
}

// Cleanup implements [EntitySyncer]. Every step runs even if an earlier one
// failed; the errors are joined.
func (r *offlineFirstRepository[E]) Cleanup(ctx context.Context, deletedBefore, syncedBefore time.Time, evictLimit int) (models.CleanupResult, error) {
	var (
		result models.CleanupResult
		errs   []error
	)

	purged, err := r.local.PurgeDeleted(ctx, deletedBefore)
	result.EntitiesPurged += purged
	errs = append(errs, err)

	evicted, err := r.local.DeleteOldSyncedItems(ctx, syncedBefore)
	result.EntitiesEvicted += evicted
	errs = append(errs, err)

	evicted, err = r.local.DeleteLowPriorityItems(ctx, evictLimit)
	result.EntitiesEvicted += evicted
	errs = append(errs, err)

	return result, errors.Join(errs...)
}

// CountPending implements [EntitySyncer].
func (r *offlineFirstRepository[E]) CountPending(ctx context.Context) (int, error) {
	return r.local.CountPending(ctx)
}

// ── Live queries ─────────────────────────────────────────────────────────────

// Observe yields a snapshot of q every time the result set changes. Queries
// with the same signature share one poller. While offline no snapshots are
// produced.
func (r *offlineFirstRepository[E]) Observe(ctx context.Context, q models.Query) iter.Seq[models.Result[[]E]] {
	return func(yield func(models.Result[[]E]) bool) {
		snapshots, cancel := r.listeners.subscribe(q)
		defer cancel()

		for {
			select {
			case <-ctx.Done():
				return
			case res, ok := <-snapshots:
				if !ok || !yield(res) {
					return
				}
			}
		}
	}
}

func (r *offlineFirstRepository[E]) pollQuery(ctx context.Context, q models.Query) ([]E, error) {
	items, err := r.remote.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return r.storeSnapshot(ctx, items)
}

// Close implements [Repository].
func (r *offlineFirstRepository[E]) Close() {
	r.listeners.Close()
}

// ── Helpers ──────────────────────────────────────────────────────────────────

// Progress implements [Repository]. The hint is kept in memory only.
func (r *offlineFirstRepository[E]) Progress(id string) (models.SyncStatus, bool) {
	v, ok := r.progress.Load(id)
	if !ok {
		return "", false
	}
	return v.(models.SyncStatus), true
}

// trackProgress records status for id until the returned func is called.
func (r *offlineFirstRepository[E]) trackProgress(id string, status models.SyncStatus) func() {
	r.progress.Store(id, status)
	return func() {
		r.progress.CompareAndDelete(id, status)
	}
}

// adopt marks a copy received from the remote store as synced.
func (r *offlineFirstRepository[E]) adopt(e E, now time.Time) {
	m := e.Meta()
	m.MarkSynced(now, m.ConflictVersion)
	if m.Priority == models.PriorityUnset {
		m.Priority = r.entityType.DefaultPriority()
	}
}

// lockAll takes the per-entity locks for ids in a fixed order.
func (r *offlineFirstRepository[E]) lockAll(ids []string) func() {
	ids = slices.Compact(slices.Sorted(slices.Values(ids)))

	unlocks := make([]func(), 0, len(ids))
	for _, id := range ids {
		unlocks = append(unlocks, r.locks.Lock(id))
	}

	return func() {
		for _, unlock := range slices.Backward(unlocks) {
			unlock()
		}
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
