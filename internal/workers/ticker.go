// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/go-farm-sync/internal/logger"
)

const defaultInterval = 5 * time.Minute

// Ticker calls fn every interval on its own goroutine.
type Ticker struct {
	name       string
	interval   time.Duration
	runOnStart bool
	fn         func(ctx context.Context)
	logger     *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewTicker creates an idle Ticker. A non-positive interval defaults to five
// minutes. When runOnStart is set fn is also called once right after Start.
func NewTicker(name string, interval time.Duration, runOnStart bool, fn func(ctx context.Context), logger *logger.Logger) *Ticker {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Ticker{
		name:       name,
		interval:   interval,
		runOnStart: runOnStart,
		fn:         fn,
		logger:     logger,
	}
}

// Start implements [Worker]. A running ticker is stopped first. The goroutine
// exits when ctx is cancelled or Stop is called.
func (t *Ticker) Start(ctx context.Context) {
	t.Stop()

	t.mu.Lock()
	jobCtx, cancel := context.WithCancel(t.logger.WithContext(ctx))
	t.cancel = cancel
	t.wg.Add(1)
	t.mu.Unlock()

	t.logger.Info().Str("worker", t.name).Dur("interval", t.interval).Msg("worker started")

	go func() {
		defer t.wg.Done()
		tick := time.NewTicker(t.interval)
		defer tick.Stop()

		if t.runOnStart {
			t.fn(jobCtx)
		}

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-tick.C:
				t.fn(jobCtx)
			}
		}
	}()
}

// Stop implements [Worker]. It is a no-op when the ticker is not running.
func (t *Ticker) Stop() {
	t.mu.Lock()
	cancel := t.cancel
	t.cancel = nil
	t.mu.Unlock()

	if cancel != nil {
		cancel()
		t.wg.Wait()
		t.logger.Info().Str("worker", t.name).Msg("worker stopped")
	}
}
