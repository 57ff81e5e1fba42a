// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides the transport layer between a sync node and the
// remote document server.
//
// [DocumentClient] is the untyped REST client: it speaks JSON documents keyed
// by (collection, id) and knows nothing about entity types. [RemoteStore]
// is the typed view used by the offline-first repositories; it encodes
// entities into document bodies and copies the server-assigned version back
// into the entity's conflict version.
//
// Every failure is mapped onto the remote error taxonomy in errors.go so that
// callers can match with [errors.Is] without looking at HTTP status codes.
// Neither type retries on its own: retry policy belongs to the sync layer.
package adapter

import (
	"context"

	"github.com/MKhiriev/go-farm-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/adapter_mock.go -package=mock

// DocumentClient is the transport contract with the document server.
type DocumentClient interface {
	// SetToken stores the bearer token attached to every subsequent request.
	SetToken(token string)

	// Token returns the bearer token currently in use.
	Token() string

	// Get fetches a live document. A missing or deleted document yields
	// [ErrRemoteNotFound].
	Get(ctx context.Context, collection, id string) (models.Document, error)

	// List fetches one page of live documents in creation order.
	List(ctx context.Context, collection string, page models.Page) (models.DocumentList, error)

	// Query evaluates a filtered range query on the server.
	Query(ctx context.Context, q models.Query) (models.DocumentList, error)

	// Create stores a new document and returns it with its server version.
	Create(ctx context.Context, collection string, write models.DocumentWrite) (models.Document, error)

	// Update replaces a document body and returns it with its new version.
	Update(ctx context.Context, collection string, write models.DocumentWrite) (models.Document, error)

	// Delete soft-deletes a document and returns its final state.
	Delete(ctx context.Context, collection, id string) (models.Document, error)

	// Ping checks that the server is reachable.
	Ping(ctx context.Context) error
}

// RemoteStore is the typed view of one remote collection.
//
// Returned entities carry the server version in ConflictVersion and are
// marked SYNCED; they are not yet persisted locally.
type RemoteStore[E models.Syncable] interface {
	// FetchByID returns the live entity or [ErrRemoteNotFound].
	FetchByID(ctx context.Context, id string) (E, error)

	// FetchAll returns one page of live entities.
	FetchAll(ctx context.Context, page models.Page) ([]E, error)

	// Query evaluates q against this store's collection. q.Collection is
	// ignored.
	Query(ctx context.Context, q models.Query) ([]E, error)

	Create(ctx context.Context, entity E) (E, error)
	Update(ctx context.Context, entity E) (E, error)

	// Delete soft-deletes the entity on the server and returns its final
	// state.
	Delete(ctx context.Context, id string) (E, error)
}
