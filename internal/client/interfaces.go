// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import "context"

// Client defines the lifecycle contract of a runnable sync node.
type Client interface {
	// Run starts the node and blocks until ctx is done or the process is
	// signalled to stop.
	Run(ctx context.Context) error
}

var _ Client = (*App)(nil)
