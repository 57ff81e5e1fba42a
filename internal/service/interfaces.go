// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"iter"
	"time"

	"github.com/MKhiriev/go-farm-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/service_mock.go -package=mock -exclude_interfaces=Repository,DocumentServiceWrapper

// ListOptions controls [Repository.GetAll].
type ListOptions struct {
	Limit  int
	Offset int
	// ForceRefresh skips the cached page and surfaces remote failures.
	ForceRefresh bool
}

// SyncOptions narrows a bulk sync.
type SyncOptions struct {
	// Priority restricts the sync to one band. PriorityUnset means all.
	Priority models.Priority
	// Limit caps the number of entities pushed. Zero means no limit.
	Limit int
}

// Repository is the offline-first view over one entity type.
//
// Reads are lazy sequences: every call re-runs the read algorithm, and a
// sequence may yield a cached value followed by a fresher one. Writes
// succeed once the local store accepts them; remote delivery is retried in
// the background.
type Repository[E models.Syncable] interface {
	EntitySyncer

	GetByID(ctx context.Context, id string) iter.Seq[models.Result[E]]
	GetAll(ctx context.Context, opts ListOptions) iter.Seq[models.Result[[]E]]

	Create(ctx context.Context, entity E) (E, error)
	Update(ctx context.Context, entity E) (E, error)
	Delete(ctx context.Context, id string) error

	SyncPendingToServer(ctx context.Context) (models.SyncResult, error)
	SyncPendingByPriority(ctx context.Context, priority models.Priority) (models.SyncResult, error)
	SyncPending(ctx context.Context, opts SyncOptions) (models.SyncResult, error)

	// Observe streams snapshots of a remote query until ctx is done or the
	// consumer stops.
	Observe(ctx context.Context, q models.Query) iter.Seq[models.Result[[]E]]

	// Progress returns the in-flight transfer hint for id, if any.
	Progress(id string) (models.SyncStatus, bool)

	// Close stops every live query.
	Close()
}

// EntitySyncer is the type-erased part of a [Repository] used by the
// [SyncProcessor].
type EntitySyncer interface {
	EntityType() models.EntityType

	// Push sends the current local state of id to the remote store. The
	// operation is a hint for which remote call to try first.
	Push(ctx context.Context, op models.OperationType, id string) error

	ResetExhausted(ctx context.Context, maxRetries int) (int64, error)
	Cleanup(ctx context.Context, deletedBefore, syncedBefore time.Time, evictLimit int) (models.CleanupResult, error)
	CountPending(ctx context.Context) (int, error)
}

// SyncProcessor drains the outbox.
type SyncProcessor interface {
	Drain(ctx context.Context) (models.DrainResult, error)
	ResetFailedToQueued(ctx context.Context) (int64, error)
	Cleanup(ctx context.Context) (models.CleanupResult, error)
	Status(ctx context.Context) (models.StatusReport, error)
}

// DocumentService is the document server's business layer.
type DocumentService interface {
	Get(ctx context.Context, collection, id string) (models.Document, error)
	List(ctx context.Context, collection string, page models.Page) (models.DocumentList, error)
	Query(ctx context.Context, q models.Query) (models.DocumentList, error)
	Create(ctx context.Context, collection string, write models.DocumentWrite) (models.Document, error)
	Update(ctx context.Context, collection string, write models.DocumentWrite) (models.Document, error)
	Delete(ctx context.Context, collection, id string) (models.Document, error)
}

// DocumentServiceWrapper defines middleware composition for DocumentService.
// Implementations wrap an existing DocumentService to add behavior such as
// validation.
type DocumentServiceWrapper interface {
	Wrap(DocumentService) DocumentService
}

// AuthService issues and verifies node tokens.
type AuthService interface {
	CreateToken(ctx context.Context, subject string, collections []string) (models.Token, error)
	ParseToken(ctx context.Context, tokenString string) (models.Token, error)
}
