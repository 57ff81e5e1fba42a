// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container for both the
// sync node and the document server. It is populated by merging values from
// environment variables, command-line flags, and an optional JSON file.
//
// Struct tags:
//   - envPrefix: prefix applied to all nested env tag lookups (caarlos0/env).
//   - env      : direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds process-level settings (name, version, log destination).
	App App `envPrefix:"APP_"`

	// Storage holds the database connection settings. The node points it at
	// an SQLite file, the document server at PostgreSQL.
	Storage Storage `envPrefix:"STORAGE_"`

	// Server holds network address and timeout settings for the document
	// server's HTTP listener.
	Server Server `envPrefix:"SERVER_"`

	// Adapter holds the node's outbound settings for the remote document store.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// Auth holds JWT signing parameters used by the document server.
	Auth Auth `envPrefix:"AUTH_"`

	// Workers holds background job intervals.
	Workers Workers `envPrefix:"WORKERS_"`

	// Sync holds outbox and retention tunables.
	Sync Sync `envPrefix:"SYNC_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// App holds process-level settings.
type App struct {
	// Name labels every log entry (the "role" field).
	// Env: APP_NAME
	Name string `env:"NAME"`

	// Version is the semantic version string of the running binary.
	// Env: APP_VERSION
	Version string `env:"VERSION"`

	// LogFile, when set, routes logs to a rotating file instead of stdout.
	// Env: APP_LOG_FILE
	LogFile string `env:"LOG_FILE"`
}

// Storage groups the configuration for all storage backends.
type Storage struct {
	// DB holds the relational database connection settings.
	DB DB `envPrefix:"DB_"`
}

// DB holds connection settings for the relational database backend.
type DB struct {
	// DSN is an SQLite file path for the node
	// (e.g. "file:farm.db?_foreign_keys=on") or a PostgreSQL URL for the
	// document server.
	// Env: STORAGE_DB_DATABASE_URI
	DSN string `env:"DATABASE_URI"`
}

// Server holds network and timeout settings for the inbound transport layer.
type Server struct {
	// HTTPAddress is the TCP address the document server listens on,
	// in "host:port" format.
	// Env: SERVER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout bounds a single inbound request.
	// Env: SERVER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Adapter holds the node's settings for talking to the document server.
type Adapter struct {
	// HTTPAddress is the base address of the document server.
	// Env: ADAPTER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout bounds a single outbound request.
	// Env: ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// AuthToken is the bearer token presented to the document server.
	// Env: ADAPTER_AUTH_TOKEN
	AuthToken string `env:"AUTH_TOKEN"`

	// RateLimit is the sustained number of outbound requests per second.
	// Env: ADAPTER_RATE_LIMIT
	RateLimit float64 `env:"RATE_LIMIT"`

	// RateBurst is the token bucket size for outbound requests.
	// Env: ADAPTER_RATE_BURST
	RateBurst int `env:"RATE_BURST"`
}

// Auth holds token parameters for the document server.
type Auth struct {
	// TokenSignKey is the HMAC key used to sign and verify JWTs.
	// Env: AUTH_TOKEN_SIGN_KEY
	TokenSignKey string `env:"TOKEN_SIGN_KEY"`

	// TokenIssuer is the expected "iss" claim.
	// Env: AUTH_TOKEN_ISSUER
	TokenIssuer string `env:"TOKEN_ISSUER"`

	// TokenDuration is the lifetime of tokens minted by the server binary.
	// Env: AUTH_TOKEN_DURATION
	TokenDuration time.Duration `env:"TOKEN_DURATION"`
}

// Workers holds background job intervals for the node.
type Workers struct {
	// SyncInterval is how often the outbox is drained.
	// Env: WORKERS_SYNC_INTERVAL
	SyncInterval time.Duration `env:"SYNC_INTERVAL"`

	// CleanupInterval is how often maintenance cleanup runs.
	// Env: WORKERS_CLEANUP_INTERVAL
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL"`

	// ConnectivityInterval is how often the document server is pinged.
	// Env: WORKERS_CONNECTIVITY_INTERVAL
	ConnectivityInterval time.Duration `env:"CONNECTIVITY_INTERVAL"`
}

// Sync holds outbox and retention tunables.
type Sync struct {
	// MaxRetries is the number of failed remote writes after which an entry
	// stops being drained until reset.
	// Env: SYNC_MAX_RETRIES
	MaxRetries int `env:"MAX_RETRIES"`

	// BatchSize caps the number of outbox entries processed per drain.
	// Env: SYNC_BATCH_SIZE
	BatchSize int `env:"BATCH_SIZE"`

	// DeletedRetention is how long synced soft-deleted rows are kept.
	// Env: SYNC_DELETED_RETENTION
	DeletedRetention time.Duration `env:"DELETED_RETENTION"`

	// OutboxRetention is how long exhausted outbox entries are kept.
	// Env: SYNC_OUTBOX_RETENTION
	OutboxRetention time.Duration `env:"OUTBOX_RETENTION"`

	// SyncedRetention is the age after which synced rows may be evicted from
	// the local cache.
	// Env: SYNC_SYNCED_RETENTION
	SyncedRetention time.Duration `env:"SYNCED_RETENTION"`

	// EvictLimit caps the number of synced LOW priority rows evicted per
	// entity type on every cleanup pass. Zero disables eviction by priority.
	// Env: SYNC_EVICT_LIMIT
	EvictLimit int `env:"EVICT_LIMIT"`

	// ListenerInterval is the polling period of live query listeners.
	// Env: SYNC_LISTENER_INTERVAL
	ListenerInterval time.Duration `env:"LISTENER_INTERVAL"`
}

// GetStructuredConfig loads, merges, and validates the configuration from all
// available sources. Sources are merged in the order below; a field set by an
// earlier source is not overwritten by a later one:
//  1. Environment variables (after loading an optional .env file)
//  2. Command-line flags
//  3. JSON file (path resolved from sources 1 and 2)
func GetStructuredConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags(commandLineArgs()).
		withJSON().
		build()
}
