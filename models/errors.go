package models

import "errors"

// Reserved members of the error taxonomy. Neither is produced by the current
// algorithms: conflicts resolve as last-write-wins and exhausted entries are
// only reported through status counts.
var (
	ErrConflict      = errors.New("sync conflict")
	ErrSyncExhausted = errors.New("sync retries exhausted")
)
