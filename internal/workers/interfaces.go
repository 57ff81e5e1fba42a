// Package workers provides the background jobs of a sync node and the
// Workers aggregate that starts and stops them together.
//
// Every job is a [Ticker]: a goroutine that calls a function on a fixed
// interval until its context is cancelled or Stop is called.
package workers

import (
	"context"

	"github.com/MKhiriev/go-farm-sync/models"
)

// Worker is a background job with an explicit lifecycle.
//
// Start launches the job and returns immediately. Stop cancels it and
// blocks until the job's goroutine has exited. Both are safe to call more
// than once.
type Worker interface {
	Start(ctx context.Context)
	Stop()
}

// OutboxProcessor is the part of the sync processor the jobs drive.
type OutboxProcessor interface {
	Drain(ctx context.Context) (models.DrainResult, error)
	Cleanup(ctx context.Context) (models.CleanupResult, error)
}

// OnlineChecker reports whether the remote store is currently reachable.
type OnlineChecker interface {
	IsOnline() bool
}
