package service

import (
	"context"
	"errors"

	"github.com/MKhiriev/go-farm-sync/internal/logger"
	"github.com/MKhiriev/go-farm-sync/internal/store"
	"github.com/MKhiriev/go-farm-sync/models"
)

// documentService is the document server's business layer. Versioning and
// soft deletion are enforced by the repository; this layer maps its
// errors and logs failures.
type documentService struct {
	documents store.DocumentRepository
	logger    *logger.Logger
}

// NewDocumentService returns a DocumentService over documents.
func NewDocumentService(documents store.DocumentRepository, logger *logger.Logger) DocumentService {
	return &documentService{
		documents: documents,
		logger:    logger,
	}
}

func (d *documentService) Get(ctx context.Context, collection, id string) (models.Document, error) {
	doc, err := d.documents.Get(ctx, collection, id)
	if err != nil {
		d.logFailure(ctx, "documentService.Get", collection, id, err)
		return models.Document{}, mapStoreError(err)
	}

	return doc, nil
}

func (d *documentService) List(ctx context.Context, collection string, page models.Page) (models.DocumentList, error) {
	list, err := d.documents.List(ctx, collection, page.Normalize())
	if err != nil {
		d.logFailure(ctx, "documentService.List", collection, "", err)
		return models.DocumentList{}, mapStoreError(err)
	}

	return list, nil
}

func (d *documentService) Query(ctx context.Context, q models.Query) (models.DocumentList, error) {
	list, err := d.documents.Query(ctx, q)
	if err != nil {
		d.logFailure(ctx, "documentService.Query", q.Collection, "", err)
		return models.DocumentList{}, mapStoreError(err)
	}

	return list, nil
}

func (d *documentService) Create(ctx context.Context, collection string, write models.DocumentWrite) (models.Document, error) {
	doc, err := d.documents.Create(ctx, collection, write)
	if err != nil {
		d.logFailure(ctx, "documentService.Create", collection, write.ID, err)
		return models.Document{}, mapStoreError(err)
	}

	return doc, nil
}

func (d *documentService) Update(ctx context.Context, collection string, write models.DocumentWrite) (models.Document, error) {
	doc, err := d.documents.Update(ctx, collection, write)
	if err != nil {
		d.logFailure(ctx, "documentService.Update", collection, write.ID, err)
		return models.Document{}, mapStoreError(err)
	}

	return doc, nil
}

func (d *documentService) Delete(ctx context.Context, collection, id string) (models.Document, error) {
	doc, err := d.documents.Delete(ctx, collection, id)
	if err != nil {
		d.logFailure(ctx, "documentService.Delete", collection, id, err)
		return models.Document{}, mapStoreError(err)
	}

	return doc, nil
}

// logFailure logs expected misses at debug level and everything else as an
// error.
func (d *documentService) logFailure(ctx context.Context, fn, collection, id string, err error) {
	log := logger.FromContext(ctx)

	ev := log.Err(err)
	if errors.Is(err, store.ErrDocumentNotFound) || errors.Is(err, store.ErrDocumentExists) || errors.Is(err, store.ErrInvalidFilter) {
		ev = log.Debug().Err(err)
	}

	ev.Str("func", fn).Str("collection", collection).Str("id", id).Msg("document operation failed")
}
