// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"errors"
	"fmt"

	"github.com/MKhiriev/go-farm-sync/internal/adapter"
	"github.com/MKhiriev/go-farm-sync/internal/store"
	"github.com/MKhiriev/go-farm-sync/models"
)

// classifyRemoteError labels a failed push for the sync summary. The label is
// informational: every failure is retried the same way.
func classifyRemoteError(err error) models.SyncErrorType {
	switch {
	case errors.Is(err, ErrLocalWrite), errors.Is(err, ErrLocalRead):
		return models.SyncErrorLocal
	case errors.Is(err, adapter.ErrRemoteAuth):
		return models.SyncErrorAuth
	case errors.Is(err, adapter.ErrRemotePermission):
		return models.SyncErrorPermission
	case errors.Is(err, adapter.ErrRemoteValidation), errors.Is(err, adapter.ErrEncodingEntity):
		return models.SyncErrorValidation
	default:
		return models.SyncErrorNetwork
	}
}

// mapStoreError translates document repository errors into service errors.
func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrDocumentNotFound):
		return fmt.Errorf("%w: %w", ErrDocumentNotFound, err)
	case errors.Is(err, store.ErrDocumentExists):
		return fmt.Errorf("%w: %w", ErrDocumentExists, err)
	case errors.Is(err, store.ErrInvalidFilter):
		return fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}

	return err
}
