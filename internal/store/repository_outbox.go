package store

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/MKhiriev/go-farm-sync/internal/logger"
	"github.com/MKhiriev/go-farm-sync/models"
)

const (
	outboxTable    = "outbox"
	outboxIDPrefix = "obx"
)

var outboxColumns = []string{
	"id",
	"entity_type",
	"entity_id",
	"operation_type",
	"payload",
	"status",
	"retry_count",
	"priority",
	"created_at",
	"last_attempt_at",
	"error_message",
}

// outboxRepository is the SQLite-backed implementation of [OutboxRepository].
type outboxRepository struct {
	*DB
	logger *logger.Logger
	now    func() time.Time
}

// NewOutboxRepository constructs an [OutboxRepository] on the node database.
func NewOutboxRepository(db *DB, logger *logger.Logger) OutboxRepository {
	return &outboxRepository{
		DB:     db,
		logger: logger,
		now:    time.Now,
	}
}

// newOutboxID returns a prefixed NanoID such as "obx-V1StGXR8_Z5jdHi6B-myT".
func newOutboxID() (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	return outboxIDPrefix + "-" + id, nil
}

// Enqueue appends entry to the queue. Missing id, status, priority and
// creation time are filled in and written back into entry.
func (o *outboxRepository) Enqueue(ctx context.Context, entry *models.OutboxEntry) error {
	log := logger.FromContext(ctx)

	if entry.ID == "" {
		id, err := newOutboxID()
		if err != nil {
			log.Err(err).Str("func", "outboxRepository.Enqueue").Msg("failed to generate outbox id")
			return fmt.Errorf("generating outbox id: %w", err)
		}
		entry.ID = id
	}
	if entry.Status == "" {
		entry.Status = models.OutboxStatusPending
	}
	if entry.Priority == models.PriorityUnset {
		entry.Priority = entry.EntityType.DefaultPriority()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = o.now()
	}

	query, args, err := sq.Insert(outboxTable).
		Columns(outboxColumns...).
		Values(
			entry.ID,
			string(entry.EntityType),
			entry.EntityID,
			string(entry.OperationType),
			entry.Payload,
			string(entry.Status),
			entry.RetryCount,
			int(entry.Priority),
			entry.CreatedAt.UTC(),
			utcPtr(entry.LastAttemptAt),
			entry.ErrorMessage,
		).
		ToSql()
	if err != nil {
		log.Err(err).Str("func", "outboxRepository.Enqueue").Msg("failed to build query")
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = o.DB.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).
			Str("func", "outboxRepository.Enqueue").
			Str("entity_type", string(entry.EntityType)).
			Str("entity_id", entry.EntityID).
			Str("operation", string(entry.OperationType)).
			Bool("retryable", o.Classify(err) == Retryable).
			Msg("failed to enqueue outbox entry")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	log.Debug().
		Str("func", "outboxRepository.Enqueue").
		Str("id", entry.ID).
		Str("entity_id", entry.EntityID).
		Str("operation", string(entry.OperationType)).
		Msg("outbox entry enqueued")

	return nil
}

func outboxSelect() sq.SelectBuilder {
	return sq.Select(outboxColumns...).
		From(outboxTable).
		OrderBy("priority DESC", "created_at ASC", "id ASC")
}

// GetByStatus returns entries in the given status, HIGH priority first.
func (o *outboxRepository) GetByStatus(ctx context.Context, status models.OutboxStatus, limit int) ([]models.OutboxEntry, error) {
	builder := outboxSelect().Where(sq.Eq{"status": string(status)})
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	return o.query(ctx, "GetByStatus", builder)
}

// GetRetryable returns every PENDING entry plus FAILED entries that still
// have retry budget, HIGH priority first and oldest first within a band.
func (o *outboxRepository) GetRetryable(ctx context.Context, maxRetries, limit int) ([]models.OutboxEntry, error) {
	builder := outboxSelect().Where(sq.Or{
		sq.Eq{"status": string(models.OutboxStatusPending)},
		sq.And{
			sq.Eq{"status": string(models.OutboxStatusFailed)},
			sq.Lt{"retry_count": maxRetries},
		},
	})
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	return o.query(ctx, "GetRetryable", builder)
}

func (o *outboxRepository) query(ctx context.Context, method string, builder sq.SelectBuilder) ([]models.OutboxEntry, error) {
	log := logger.FromContext(ctx)

	query, args, err := builder.ToSql()
	if err != nil {
		log.Err(err).Str("func", "outboxRepository."+method).Msg("failed to build query")
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := o.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "outboxRepository."+method).Bool("retryable", o.Classify(err) == Retryable).Msg("failed to execute query")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	entries := make([]models.OutboxEntry, 0)
	for rows.Next() {
		var e models.OutboxEntry
		err := rows.Scan(
			&e.ID,
			&e.EntityType,
			&e.EntityID,
			&e.OperationType,
			&e.Payload,
			&e.Status,
			&e.RetryCount,
			&e.Priority,
			&e.CreatedAt,
			&e.LastAttemptAt,
			&e.ErrorMessage,
		)
		if err != nil {
			log.Err(err).Str("func", "outboxRepository."+method).Msg("failed to scan outbox row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		log.Err(err).Str("func", "outboxRepository."+method).Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return entries, nil
}

// MarkSuccess moves the given entries to SUCCESS.
func (o *outboxRepository) MarkSuccess(ctx context.Context, attemptAt time.Time, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := o.exec(ctx, "MarkSuccess", sq.Update(outboxTable).
		Set("status", string(models.OutboxStatusSuccess)).
		Set("last_attempt_at", attemptAt.UTC()).
		Set("error_message", "").
		Where(sq.Eq{"id": ids}))
	return err
}

// MarkFailed moves the entry to FAILED, increments its retry count and
// records the failure message.
func (o *outboxRepository) MarkFailed(ctx context.Context, id, message string, attemptAt time.Time) error {
	affected, err := o.exec(ctx, "MarkFailed", sq.Update(outboxTable).
		Set("status", string(models.OutboxStatusFailed)).
		Set("retry_count", sq.Expr("retry_count + 1")).
		Set("last_attempt_at", attemptAt.UTC()).
		Set("error_message", message).
		Where(sq.Eq{"id": id}))
	if err != nil {
		return err
	}

	if affected == 0 {
		return ErrOutboxEntryNotFound
	}
	return nil
}

// DeleteSucceeded removes every SUCCESS entry.
func (o *outboxRepository) DeleteSucceeded(ctx context.Context) (int64, error) {
	return o.exec(ctx, "DeleteSucceeded", sq.Delete(outboxTable).
		Where(sq.Eq{"status": string(models.OutboxStatusSuccess)}))
}

// DeleteExhausted removes FAILED entries without retry budget that were
// created before olderThan.
func (o *outboxRepository) DeleteExhausted(ctx context.Context, maxRetries int, olderThan time.Time) (int64, error) {
	return o.exec(ctx, "DeleteExhausted", sq.Delete(outboxTable).
		Where(sq.Eq{"status": string(models.OutboxStatusFailed)}).
		Where(sq.GtOrEq{"retry_count": maxRetries}).
		Where(sq.Lt{"created_at": olderThan.UTC()}))
}

// ResetFailedToQueued moves every FAILED entry back to PENDING with a fresh
// retry budget.
func (o *outboxRepository) ResetFailedToQueued(ctx context.Context) (int64, error) {
	return o.exec(ctx, "ResetFailedToQueued", sq.Update(outboxTable).
		Set("status", string(models.OutboxStatusPending)).
		Set("retry_count", 0).
		Set("error_message", "").
		Where(sq.Eq{"status": string(models.OutboxStatusFailed)}))
}

func (o *outboxRepository) exec(ctx context.Context, method string, builder sq.Sqlizer) (int64, error) {
	log := logger.FromContext(ctx)

	query, args, err := builder.ToSql()
	if err != nil {
		log.Err(err).Str("func", "outboxRepository."+method).Msg("failed to build query")
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	result, err := o.DB.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "outboxRepository."+method).Bool("retryable", o.Classify(err) == Retryable).Msg("failed to execute statement")
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		log.Err(err).Str("func", "outboxRepository."+method).Msg("failed to get rows affected")
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return affected, nil
}

// CountByStatus returns the number of entries per status.
func (o *outboxRepository) CountByStatus(ctx context.Context) (models.OutboxStatusCounts, error) {
	log := logger.FromContext(ctx)

	query, args, err := sq.Select("status", "COUNT(*)").
		From(outboxTable).
		GroupBy("status").
		ToSql()
	if err != nil {
		log.Err(err).Str("func", "outboxRepository.CountByStatus").Msg("failed to build query")
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := o.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "outboxRepository.CountByStatus").Bool("retryable", o.Classify(err) == Retryable).Msg("failed to execute query")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	counts := make(models.OutboxStatusCounts)
	for rows.Next() {
		var (
			status models.OutboxStatus
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			log.Err(err).Str("func", "outboxRepository.CountByStatus").Msg("failed to scan count row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return counts, nil
}
