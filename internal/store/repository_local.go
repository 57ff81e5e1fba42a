package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-farm-sync/internal/logger"
	"github.com/MKhiriev/go-farm-sync/models"
)

// upsertChunkSize bounds the number of rows per multi-row INSERT so a batch
// stays well below SQLite's bound-variable limit.
const upsertChunkSize = 100

var pendingStatuses = []string{
	string(models.SyncStatusPendingUpload),
	string(models.SyncStatusError),
}

// localRepository is the SQLite-backed implementation of [LocalRepository].
// One instance serves one entity table described by its [Schema].
type localRepository[E models.Syncable] struct {
	*DB
	schema Schema[E]
	logger *logger.Logger
}

// NewLocalRepository constructs a [LocalRepository] for the entity type
// described by schema.
func NewLocalRepository[E models.Syncable](db *DB, schema Schema[E], logger *logger.Logger) LocalRepository[E] {
	return &localRepository[E]{
		DB:     db,
		schema: schema,
		logger: logger,
	}
}

func (r *localRepository[E]) fn(method string) string {
	return "localRepository[" + r.schema.Table + "]." + method
}

func (r *localRepository[E]) selectBuilder() sq.SelectBuilder {
	return sq.Select(r.schema.allColumns()...).From(r.schema.Table)
}

// GetByID returns the row with the given id. Soft-deleted rows are returned
// only when includeDeleted is set; otherwise they yield [ErrEntityNotFound].
func (r *localRepository[E]) GetByID(ctx context.Context, id string, includeDeleted bool) (E, error) {
	log := logger.FromContext(ctx)
	var zero E

	builder := r.selectBuilder().Where(sq.Eq{"id": id})
	if !includeDeleted {
		builder = builder.Where(sq.Eq{"is_deleted": false})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		log.Err(err).Str("func", r.fn("GetByID")).Str("id", id).Msg("failed to build query")
		return zero, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	entity := r.schema.New()
	err = r.DB.QueryRowContext(ctx, query, args...).Scan(r.schema.scanDest(entity)...)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, ErrEntityNotFound
	}
	if err != nil {
		log.Err(err).Str("func", r.fn("GetByID")).Str("id", id).Msg("failed to scan entity row")
		return zero, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return entity, nil
}

// GetPage returns non-deleted rows in creation order.
func (r *localRepository[E]) GetPage(ctx context.Context, limit, offset int) ([]E, error) {
	builder := r.selectBuilder().
		Where(sq.Eq{"is_deleted": false}).
		OrderBy("created_at ASC", "id ASC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	if offset > 0 {
		builder = builder.Offset(uint64(offset))
	}

	return r.query(ctx, "GetPage", builder)
}

// GetAllPendingSync returns rows waiting for upload, HIGH priority first and
// oldest first within a priority. Soft-deleted rows are included because
// their deletion still has to reach the remote store.
func (r *localRepository[E]) GetAllPendingSync(ctx context.Context, filter PendingFilter) ([]E, error) {
	builder := r.selectBuilder().
		Where(sq.Eq{"sync_status": pendingStatuses}).
		OrderBy("priority DESC", "created_at ASC", "id ASC")
	if filter.MaxRetries > 0 {
		builder = builder.Where(sq.Lt{"retry_count": filter.MaxRetries})
	}
	if filter.Priority != models.PriorityUnset {
		builder = builder.Where(sq.Eq{"priority": int(filter.Priority)})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}

	return r.query(ctx, "GetAllPendingSync", builder)
}

func (r *localRepository[E]) query(ctx context.Context, method string, builder sq.SelectBuilder) ([]E, error) {
	log := logger.FromContext(ctx)

	query, args, err := builder.ToSql()
	if err != nil {
		log.Err(err).Str("func", r.fn(method)).Msg("failed to build query")
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", r.fn(method)).Bool("retryable", r.Classify(err) == Retryable).Msg("failed to execute query")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	result := make([]E, 0)
	for rows.Next() {
		entity := r.schema.New()
		if err := rows.Scan(r.schema.scanDest(entity)...); err != nil {
			log.Err(err).Str("func", r.fn(method)).Msg("failed to scan entity row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		result = append(result, entity)
	}

	if err := rows.Err(); err != nil {
		log.Err(err).Str("func", r.fn(method)).Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return result, nil
}

// Upsert inserts or fully replaces the given rows. A single entity is written
// with one statement; batches run in one transaction.
func (r *localRepository[E]) Upsert(ctx context.Context, entities ...E) error {
	switch len(entities) {
	case 0:
		return nil
	case 1:
		return r.upsertSingle(ctx, entities[0])
	default:
		return r.upsertMultiple(ctx, entities)
	}
}

func (r *localRepository[E]) upsertBuilder(entities []E) sq.InsertBuilder {
	cols := r.schema.allColumns()
	builder := sq.Insert(r.schema.Table).Columns(cols...)
	for _, e := range entities {
		builder = builder.Values(r.schema.values(e)...)
	}

	set := make([]string, 0, len(cols)-1)
	for _, c := range cols[1:] {
		set = append(set, c+" = excluded."+c)
	}

	return builder.Suffix("ON CONFLICT(id) DO UPDATE SET " + strings.Join(set, ", "))
}

func (r *localRepository[E]) upsertSingle(ctx context.Context, entity E) error {
	log := logger.FromContext(ctx)

	query, args, err := r.upsertBuilder([]E{entity}).ToSql()
	if err != nil {
		log.Err(err).Str("func", r.fn("Upsert")).Str("id", entity.Meta().ID).Msg("failed to build query")
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = r.DB.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).
			Str("func", r.fn("Upsert")).
			Str("id", entity.Meta().ID).
			Str("sync_status", string(entity.Meta().SyncStatus)).
			Bool("retryable", r.Classify(err) == Retryable).
			Msg("failed to upsert entity")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

func (r *localRepository[E]) upsertMultiple(ctx context.Context, entities []E) error {
	log := logger.FromContext(ctx)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", r.fn("Upsert")).Int("count", len(entities)).Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	for start := 0; start < len(entities); start += upsertChunkSize {
		end := min(start+upsertChunkSize, len(entities))

		query, args, err := r.upsertBuilder(entities[start:end]).ToSql()
		if err != nil {
			log.Err(err).Str("func", r.fn("Upsert")).Msg("failed to build query")
			return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
		}

		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			log.Err(err).
				Str("func", r.fn("Upsert")).
				Int("from", start).
				Int("to", end).
				Bool("retryable", r.Classify(err) == Retryable).
				Msg("failed to upsert entity chunk")
			return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
	}

	if err = tx.Commit(); err != nil {
		log.Err(err).Str("func", r.fn("Upsert")).Int("count", len(entities)).Bool("retryable", r.Classify(err) == Retryable).Msg("failed to commit transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	return nil
}

// Delete soft-deletes the row and queues the deletion for upload: the row is
// flagged deleted, marked PENDING_UPLOAD with a fresh retry budget and its
// conflict version is bumped.
func (r *localRepository[E]) Delete(ctx context.Context, id string, deletedAt time.Time) error {
	return r.update(ctx, "Delete", id, sq.Update(r.schema.Table).
		Set("is_deleted", true).
		Set("sync_status", string(models.SyncStatusPendingUpload)).
		Set("retry_count", 0).
		Set("conflict_version", sq.Expr("conflict_version + 1")).
		Set("updated_at", deletedAt.UTC()))
}

// MarkSynced records a confirmed remote write and adopts the server version.
func (r *localRepository[E]) MarkSynced(ctx context.Context, id string, syncedAt time.Time, version int64) error {
	return r.update(ctx, "MarkSynced", id, sq.Update(r.schema.Table).
		Set("sync_status", string(models.SyncStatusSynced)).
		Set("retry_count", 0).
		Set("conflict_version", version).
		Set("last_sync_time", syncedAt.UTC()))
}

// IncrementRetryCount records one more failed upload. The row stays pending.
func (r *localRepository[E]) IncrementRetryCount(ctx context.Context, id string) error {
	return r.update(ctx, "IncrementRetryCount", id, sq.Update(r.schema.Table).
		Set("retry_count", sq.Expr("retry_count + 1")))
}

func (r *localRepository[E]) ClearRetryCount(ctx context.Context, id string) error {
	return r.update(ctx, "ClearRetryCount", id, sq.Update(r.schema.Table).
		Set("retry_count", 0))
}

func (r *localRepository[E]) update(ctx context.Context, method, id string, builder sq.UpdateBuilder) error {
	affected, err := r.exec(ctx, method, builder.Where(sq.Eq{"id": id}))
	if err != nil {
		return err
	}

	if affected == 0 {
		logger.FromContext(ctx).Warn().
			Str("func", r.fn(method)).
			Str("id", id).
			Msg("no rows affected: entity not found")
		return ErrEntityNotFound
	}

	return nil
}

// ResetExhausted gives pending rows that ran out of retries a fresh budget.
func (r *localRepository[E]) ResetExhausted(ctx context.Context, maxRetries int) (int64, error) {
	return r.exec(ctx, "ResetExhausted", sq.Update(r.schema.Table).
		Set("retry_count", 0).
		Where(sq.Eq{"sync_status": pendingStatuses}).
		Where(sq.GtOrEq{"retry_count": maxRetries}))
}

// DeleteOldSyncedItems evicts synced rows not touched since olderThan.
// Pending rows are never evicted.
func (r *localRepository[E]) DeleteOldSyncedItems(ctx context.Context, olderThan time.Time) (int64, error) {
	return r.exec(ctx, "DeleteOldSyncedItems", sq.Delete(r.schema.Table).
		Where(sq.Eq{"sync_status": string(models.SyncStatusSynced)}).
		Where(sq.Lt{"updated_at": olderThan.UTC()}))
}

// DeleteLowPriorityItems evicts up to limit synced LOW priority rows, least
// recently updated first.
func (r *localRepository[E]) DeleteLowPriorityItems(ctx context.Context, limit int) (int64, error) {
	if limit <= 0 {
		return 0, nil
	}

	sub, subArgs, err := sq.Select("id").
		From(r.schema.Table).
		Where(sq.Eq{"sync_status": string(models.SyncStatusSynced)}).
		Where(sq.Eq{"priority": int(models.PriorityLow)}).
		OrderBy("updated_at ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", r.fn("DeleteLowPriorityItems")).Msg("failed to build query")
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return r.exec(ctx, "DeleteLowPriorityItems", sq.Delete(r.schema.Table).
		Where(sq.Expr("id IN ("+sub+")", subArgs...)))
}

// PurgeDeleted physically removes soft-deleted rows whose deletion has been
// confirmed by the remote store before olderThan.
func (r *localRepository[E]) PurgeDeleted(ctx context.Context, olderThan time.Time) (int64, error) {
	return r.exec(ctx, "PurgeDeleted", sq.Delete(r.schema.Table).
		Where(sq.Eq{"is_deleted": true, "sync_status": string(models.SyncStatusSynced)}).
		Where(sq.Lt{"updated_at": olderThan.UTC()}))
}

func (r *localRepository[E]) exec(ctx context.Context, method string, builder sq.Sqlizer) (int64, error) {
	log := logger.FromContext(ctx)

	query, args, err := builder.ToSql()
	if err != nil {
		log.Err(err).Str("func", r.fn(method)).Msg("failed to build query")
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	result, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", r.fn(method)).Bool("retryable", r.Classify(err) == Retryable).Msg("failed to execute statement")
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		log.Err(err).Str("func", r.fn(method)).Msg("failed to get rows affected")
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return affected, nil
}

// CountPending returns the number of rows waiting for upload regardless of
// their retry budget.
func (r *localRepository[E]) CountPending(ctx context.Context) (int, error) {
	log := logger.FromContext(ctx)

	query, args, err := sq.Select("COUNT(*)").
		From(r.schema.Table).
		Where(sq.Eq{"sync_status": pendingStatuses}).
		ToSql()
	if err != nil {
		log.Err(err).Str("func", r.fn("CountPending")).Msg("failed to build query")
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var count int
	if err = r.DB.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		log.Err(err).Str("func", r.fn("CountPending")).Bool("retryable", r.Classify(err) == Retryable).Msg("failed to count pending rows")
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return count, nil
}
