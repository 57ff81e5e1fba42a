package adapter

import "errors"

// Remote error taxonomy. Every error returned by this package wraps exactly
// one of these.
var (
	// ErrRemoteTransient covers network failures, timeouts, rate limiting and
	// 5xx responses.
	ErrRemoteTransient = errors.New("remote store unavailable")

	ErrRemoteAuth       = errors.New("remote store rejected credentials")
	ErrRemotePermission = errors.New("remote store denied access")
	ErrRemoteValidation = errors.New("remote store rejected payload")
	ErrRemoteNotFound   = errors.New("remote document not found")
	ErrRemoteConflict   = errors.New("remote document conflict")
)

// ErrEncodingEntity is returned when an entity cannot be turned into a
// document body or a document body back into an entity.
var ErrEncodingEntity = errors.New("error encoding entity")
