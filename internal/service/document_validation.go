package service

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-farm-sync/internal/validators"
	"github.com/MKhiriev/go-farm-sync/models"
)

// DocumentValidationService rejects malformed requests before they reach
// the wrapped DocumentService. Every rejection wraps ErrInvalidDataProvided.
type DocumentValidationService struct {
	inner     DocumentService
	validator validators.Validator
}

func NewDocumentValidationService() DocumentServiceWrapper {
	return &DocumentValidationService{
		validator: validators.NewEntityValidator(),
	}
}

func (v *DocumentValidationService) Get(ctx context.Context, collection, id string) (models.Document, error) {
	if err := v.validateTarget(ctx, collection, id); err != nil {
		return models.Document{}, err
	}

	return v.inner.Get(ctx, collection, id)
}

func (v *DocumentValidationService) List(ctx context.Context, collection string, page models.Page) (models.DocumentList, error) {
	if err := v.validateCollection(ctx, collection); err != nil {
		return models.DocumentList{}, err
	}
	if page.Limit < 0 || page.Offset < 0 {
		return models.DocumentList{}, fmt.Errorf("%w: limit and offset must not be negative", ErrInvalidDataProvided)
	}

	return v.inner.List(ctx, collection, page)
}

func (v *DocumentValidationService) Query(ctx context.Context, q models.Query) (models.DocumentList, error) {
	if err := v.validator.Validate(ctx, q); err != nil {
		return models.DocumentList{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}

	return v.inner.Query(ctx, q)
}

func (v *DocumentValidationService) Create(ctx context.Context, collection string, write models.DocumentWrite) (models.Document, error) {
	if err := v.validateWrite(ctx, collection, write); err != nil {
		return models.Document{}, err
	}

	return v.inner.Create(ctx, collection, write)
}

func (v *DocumentValidationService) Update(ctx context.Context, collection string, write models.DocumentWrite) (models.Document, error) {
	if err := v.validateWrite(ctx, collection, write); err != nil {
		return models.Document{}, err
	}

	return v.inner.Update(ctx, collection, write)
}

func (v *DocumentValidationService) Delete(ctx context.Context, collection, id string) (models.Document, error) {
	if err := v.validateTarget(ctx, collection, id); err != nil {
		return models.Document{}, err
	}

	return v.inner.Delete(ctx, collection, id)
}

func (v *DocumentValidationService) Wrap(inner DocumentService) DocumentService {
	v.inner = inner
	return v
}

func (v *DocumentValidationService) validateCollection(ctx context.Context, collection string) error {
	if err := v.validator.Validate(ctx, validators.CollectionName(collection)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}
	return nil
}

func (v *DocumentValidationService) validateTarget(ctx context.Context, collection, id string) error {
	if err := v.validateCollection(ctx, collection); err != nil {
		return err
	}
	if id == "" || len(id) > 64 {
		return fmt.Errorf("%w: id must be 1 to 64 characters", ErrInvalidDataProvided)
	}
	return nil
}

func (v *DocumentValidationService) validateWrite(ctx context.Context, collection string, write models.DocumentWrite) error {
	if err := v.validateCollection(ctx, collection); err != nil {
		return err
	}
	if err := v.validator.Validate(ctx, write); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}
	return nil
}
