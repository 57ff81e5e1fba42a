package store

import (
	"context"
	"time"

	"github.com/MKhiriev/go-farm-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock -exclude_interfaces=ErrorClassificator

// ErrorClassification tells a repository whether a failed statement may
// succeed on a later attempt.
type ErrorClassification int

const (
	NonRetryable ErrorClassification = iota
	Retryable
)

// ErrorClassificator decides whether a database error is transient.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}

// PendingFilter narrows [LocalRepository.GetAllPendingSync].
type PendingFilter struct {
	// MaxRetries excludes rows whose retry_count has reached this value.
	// Zero disables the check.
	MaxRetries int
	// Priority restricts the result to one band. PriorityUnset means all.
	Priority models.Priority
	// Limit caps the number of rows. Zero means no limit.
	Limit int
}

// LocalRepository is the node's embedded store for one entity type. It is the
// authoritative offline view: soft-deleted rows are retained until purged and
// pending rows are never dropped by cache eviction.
type LocalRepository[E models.Syncable] interface {
	GetByID(ctx context.Context, id string, includeDeleted bool) (E, error)
	GetPage(ctx context.Context, limit, offset int) ([]E, error)
	GetAllPendingSync(ctx context.Context, filter PendingFilter) ([]E, error)
	Upsert(ctx context.Context, entities ...E) error
	Delete(ctx context.Context, id string, deletedAt time.Time) error
	MarkSynced(ctx context.Context, id string, syncedAt time.Time, version int64) error
	IncrementRetryCount(ctx context.Context, id string) error
	ClearRetryCount(ctx context.Context, id string) error
	ResetExhausted(ctx context.Context, maxRetries int) (int64, error)
	DeleteOldSyncedItems(ctx context.Context, olderThan time.Time) (int64, error)
	DeleteLowPriorityItems(ctx context.Context, limit int) (int64, error)
	PurgeDeleted(ctx context.Context, olderThan time.Time) (int64, error)
	CountPending(ctx context.Context) (int, error)
}

// OutboxRepository persists the durable queue of pending remote writes.
type OutboxRepository interface {
	Enqueue(ctx context.Context, entry *models.OutboxEntry) error
	GetByStatus(ctx context.Context, status models.OutboxStatus, limit int) ([]models.OutboxEntry, error)
	GetRetryable(ctx context.Context, maxRetries, limit int) ([]models.OutboxEntry, error)
	MarkSuccess(ctx context.Context, attemptAt time.Time, ids ...string) error
	MarkFailed(ctx context.Context, id, message string, attemptAt time.Time) error
	DeleteSucceeded(ctx context.Context) (int64, error)
	DeleteExhausted(ctx context.Context, maxRetries int, olderThan time.Time) (int64, error)
	ResetFailedToQueued(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context) (models.OutboxStatusCounts, error)
}

// DocumentRepository is the document server's PostgreSQL-backed store.
type DocumentRepository interface {
	Get(ctx context.Context, collection, id string) (models.Document, error)
	List(ctx context.Context, collection string, page models.Page) (models.DocumentList, error)
	Query(ctx context.Context, q models.Query) (models.DocumentList, error)
	Create(ctx context.Context, collection string, write models.DocumentWrite) (models.Document, error)
	Update(ctx context.Context, collection string, write models.DocumentWrite) (models.Document, error)
	Delete(ctx context.Context, collection, id string) (models.Document, error)
}
