// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client implements the sync node runtime.
//
// It wires the local store, the remote document client, connectivity
// monitoring, the offline-first repositories and the background workers
// into a single process lifecycle.
package client
