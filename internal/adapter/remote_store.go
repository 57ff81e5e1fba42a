package adapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MKhiriev/go-farm-sync/models"
)

type remoteStore[E models.Syncable] struct {
	client     DocumentClient
	collection string
	newEntity  func() E
}

// NewRemoteStore returns the typed view of collection on client. newEntity
// allocates an empty entity to decode documents into.
func NewRemoteStore[E models.Syncable](client DocumentClient, collection models.EntityType, newEntity func() E) RemoteStore[E] {
	return &remoteStore[E]{
		client:     client,
		collection: string(collection),
		newEntity:  newEntity,
	}
}

// FetchByID implements [RemoteStore].
func (r *remoteStore[E]) FetchByID(ctx context.Context, id string) (E, error) {
	doc, err := r.client.Get(ctx, r.collection, id)
	if err != nil {
		var zero E
		return zero, err
	}
	return r.fromDocument(doc)
}

// FetchAll implements [RemoteStore].
func (r *remoteStore[E]) FetchAll(ctx context.Context, page models.Page) ([]E, error) {
	list, err := r.client.List(ctx, r.collection, page)
	if err != nil {
		return nil, err
	}
	return r.fromDocuments(list.Documents)
}

// Query implements [RemoteStore].
func (r *remoteStore[E]) Query(ctx context.Context, q models.Query) ([]E, error) {
	q.Collection = r.collection

	list, err := r.client.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return r.fromDocuments(list.Documents)
}

// Create implements [RemoteStore].
func (r *remoteStore[E]) Create(ctx context.Context, entity E) (E, error) {
	write, err := r.toWrite(entity)
	if err != nil {
		var zero E
		return zero, err
	}

	doc, err := r.client.Create(ctx, r.collection, write)
	if err != nil {
		var zero E
		return zero, err
	}
	return r.fromDocument(doc)
}

// Update implements [RemoteStore].
func (r *remoteStore[E]) Update(ctx context.Context, entity E) (E, error) {
	write, err := r.toWrite(entity)
	if err != nil {
		var zero E
		return zero, err
	}

	doc, err := r.client.Update(ctx, r.collection, write)
	if err != nil {
		var zero E
		return zero, err
	}
	return r.fromDocument(doc)
}

// Delete implements [RemoteStore].
func (r *remoteStore[E]) Delete(ctx context.Context, id string) (E, error) {
	doc, err := r.client.Delete(ctx, r.collection, id)
	if err != nil {
		var zero E
		return zero, err
	}
	return r.fromDocument(doc)
}

func (r *remoteStore[E]) toWrite(entity E) (models.DocumentWrite, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return models.DocumentWrite{}, fmt.Errorf("%w: %w", ErrEncodingEntity, err)
	}
	return models.DocumentWrite{ID: entity.Meta().ID, Data: data}, nil
}

// fromDocument decodes doc into a fresh entity. Document identity, version
// and deletion flag win over whatever the body says.
func (r *remoteStore[E]) fromDocument(doc models.Document) (E, error) {
	entity := r.newEntity()
	if len(doc.Data) > 0 {
		if err := json.Unmarshal(doc.Data, entity); err != nil {
			var zero E
			return zero, fmt.Errorf("%w: document %s/%s: %w", ErrEncodingEntity, doc.Collection, doc.ID, err)
		}
	}

	meta := entity.Meta()
	meta.ID = doc.ID
	meta.ConflictVersion = doc.Version
	meta.IsDeleted = doc.Deleted
	meta.SyncStatus = models.SyncStatusSynced
	meta.RetryCount = 0
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = doc.CreatedAt
	}
	if meta.UpdatedAt.IsZero() {
		meta.UpdatedAt = doc.UpdatedAt
	}

	return entity, nil
}

func (r *remoteStore[E]) fromDocuments(docs []models.Document) ([]E, error) {
	out := make([]E, 0, len(docs))
	for _, doc := range docs {
		entity, err := r.fromDocument(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	return out, nil
}
