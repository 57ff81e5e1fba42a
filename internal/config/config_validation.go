// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"strings"
	"time"
)

// Defaults applied by the node and server views when a field is left unset.
const (
	DefaultRequestTimeout       = 10 * time.Second
	DefaultRateLimit            = 20.0
	DefaultRateBurst            = 10
	DefaultTokenDuration        = 24 * time.Hour
	DefaultSyncInterval         = 30 * time.Second
	DefaultCleanupInterval      = time.Hour
	DefaultConnectivityInterval = 15 * time.Second
	DefaultMaxRetries           = 3
	DefaultBatchSize            = 50
	DefaultDeletedRetention     = 7 * 24 * time.Hour
	DefaultOutboxRetention      = 30 * 24 * time.Hour
	DefaultSyncedRetention      = 90 * 24 * time.Hour
	DefaultListenerInterval     = 5 * time.Second
)

// NodeConfig is the subset of [StructuredConfig] consumed by the
// offline-first node.
type NodeConfig struct {
	App     App
	Storage Storage
	Adapter Adapter
	Workers Workers
	Sync    Sync
}

// ServerConfig is the subset of [StructuredConfig] consumed by the document
// server.
type ServerConfig struct {
	App     App
	Storage Storage
	Server  Server
	Auth    Auth
}

// GetNodeConfig loads the structured configuration and returns the validated
// node view.
func GetNodeConfig() (*NodeConfig, error) {
	cfg, err := GetStructuredConfig()
	if err != nil {
		return nil, err
	}

	return cfg.NodeConfig()
}

// GetServerConfig loads the structured configuration and returns the
// validated document server view.
func GetServerConfig() (*ServerConfig, error) {
	cfg, err := GetStructuredConfig()
	if err != nil {
		return nil, err
	}

	return cfg.ServerConfig()
}

// NodeConfig projects cfg onto the node view, fills defaults and validates.
func (cfg *StructuredConfig) NodeConfig() (*NodeConfig, error) {
	node := &NodeConfig{
		App:     cfg.App,
		Storage: cfg.Storage,
		Adapter: cfg.Adapter,
		Workers: cfg.Workers,
		Sync:    cfg.Sync,
	}
	if node.App.Name == "" {
		node.App.Name = "node"
	}

	setDefault(&node.Adapter.RequestTimeout, DefaultRequestTimeout)
	setDefault(&node.Adapter.RateLimit, DefaultRateLimit)
	setDefault(&node.Adapter.RateBurst, DefaultRateBurst)
	setDefault(&node.Workers.SyncInterval, DefaultSyncInterval)
	setDefault(&node.Workers.CleanupInterval, DefaultCleanupInterval)
	setDefault(&node.Workers.ConnectivityInterval, DefaultConnectivityInterval)
	node.Sync.withDefaults()

	if err := node.validate(); err != nil {
		return nil, err
	}

	return node, nil
}

// ServerConfig projects cfg onto the document server view, fills defaults
// and validates.
func (cfg *StructuredConfig) ServerConfig() (*ServerConfig, error) {
	server := &ServerConfig{
		App:     cfg.App,
		Storage: cfg.Storage,
		Server:  cfg.Server,
		Auth:    cfg.Auth,
	}
	if server.App.Name == "" {
		server.App.Name = "server"
	}

	setDefault(&server.Server.RequestTimeout, DefaultRequestTimeout)
	setDefault(&server.Auth.TokenDuration, DefaultTokenDuration)

	if err := server.validate(); err != nil {
		return nil, err
	}

	return server, nil
}

func (s *Sync) withDefaults() {
	setDefault(&s.MaxRetries, DefaultMaxRetries)
	setDefault(&s.BatchSize, DefaultBatchSize)
	setDefault(&s.DeletedRetention, DefaultDeletedRetention)
	setDefault(&s.OutboxRetention, DefaultOutboxRetention)
	setDefault(&s.SyncedRetention, DefaultSyncedRetention)
	setDefault(&s.ListenerInterval, DefaultListenerInterval)
}

func setDefault[T comparable](field *T, value T) {
	var zero T
	if *field == zero {
		*field = value
	}
}

// validate checks that the merged [StructuredConfig] is usable by at least
// one of the views. Role-specific rules live on the views.
func (cfg *StructuredConfig) validate() error {
	if cfg.Sync.MaxRetries < 0 || cfg.Sync.BatchSize < 0 {
		return fmt.Errorf("%w: negative retry or batch size", ErrInvalidSyncConfigs)
	}

	return nil
}

func (cfg *NodeConfig) validate() error {
	if cfg.Storage.DB.DSN == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.Adapter.HTTPAddress == "" {
		return fmt.Errorf("%w: document server address is required", ErrInvalidAdapterConfigs)
	}
	if !strings.HasPrefix(cfg.Adapter.HTTPAddress, "http://") && !strings.HasPrefix(cfg.Adapter.HTTPAddress, "https://") {
		return fmt.Errorf("%w: address must start with http:// or https://", ErrInvalidAdapterConfigs)
	}
	if cfg.Adapter.RateLimit < 0 || cfg.Adapter.RateBurst < 0 {
		return fmt.Errorf("%w: negative rate limit", ErrInvalidAdapterConfigs)
	}

	if cfg.Workers.SyncInterval < 0 || cfg.Workers.CleanupInterval < 0 || cfg.Workers.ConnectivityInterval < 0 {
		return ErrInvalidWorkerConfigs
	}

	if cfg.Sync.MaxRetries < 1 || cfg.Sync.BatchSize < 1 || cfg.Sync.ListenerInterval <= 0 || cfg.Sync.EvictLimit < 0 {
		return ErrInvalidSyncConfigs
	}

	return nil
}

func (cfg *ServerConfig) validate() error {
	if cfg.Storage.DB.DSN == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.Server.HTTPAddress == "" {
		return ErrInvalidServerConfigs
	}

	if cfg.Auth.TokenSignKey == "" || cfg.Auth.TokenIssuer == "" {
		return ErrInvalidAuthConfigs
	}

	return nil
}
