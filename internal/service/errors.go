package service

import "errors"

// Sync node errors. Remote failures keep their adapter sentinels
// (adapter.ErrRemoteTransient and friends) so callers can tell them apart.
var (
	// ErrValidation is returned when an entity fails validation. Nothing was
	// written anywhere.
	ErrValidation = errors.New("validation failed")

	// ErrLocalWrite is returned when the local store or the outbox rejects a
	// write. The operation did not take effect.
	ErrLocalWrite = errors.New("local write failed")

	// ErrLocalRead is returned when the local store cannot be read.
	ErrLocalRead = errors.New("local read failed")

	// ErrNotFound is returned when the target entity does not exist locally
	// or has been deleted.
	ErrNotFound = errors.New("entity not found")

	// ErrOffline is returned by operations that need the remote store while
	// the node is offline.
	ErrOffline = errors.New("remote store is unreachable")

	// ErrUnknownEntityType is returned when an outbox entry names an entity
	// type no repository is registered for.
	ErrUnknownEntityType = errors.New("unknown entity type")
)

// Document server errors.
var (
	ErrInvalidDataProvided = errors.New("invalid data provided")
	ErrDocumentNotFound    = errors.New("document not found")
	ErrDocumentExists      = errors.New("document already exists")

	ErrTokenIsExpiredOrInvalid = errors.New("token is expired or invalid")
	ErrTokenCreationFailed     = errors.New("token creation failed")
)
