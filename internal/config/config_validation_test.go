package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validNodeStructured() *StructuredConfig {
	return &StructuredConfig{
		Storage: Storage{DB: DB{DSN: "file:farm.db"}},
		Adapter: Adapter{HTTPAddress: "http://localhost:8080"},
	}
}

func TestNodeConfig_FillsDefaults(t *testing.T) {
	node, err := validNodeStructured().NodeConfig()
	require.NoError(t, err)

	assert.Equal(t, "node", node.App.Name)
	assert.Equal(t, DefaultRequestTimeout, node.Adapter.RequestTimeout)
	assert.Equal(t, DefaultRateBurst, node.Adapter.RateBurst)
	assert.Equal(t, DefaultSyncInterval, node.Workers.SyncInterval)
	assert.Equal(t, DefaultCleanupInterval, node.Workers.CleanupInterval)
	assert.Equal(t, DefaultConnectivityInterval, node.Workers.ConnectivityInterval)
	assert.Equal(t, 3, node.Sync.MaxRetries)
	assert.Equal(t, 50, node.Sync.BatchSize)
	assert.Equal(t, 7*24*time.Hour, node.Sync.DeletedRetention)
	assert.Equal(t, 30*24*time.Hour, node.Sync.OutboxRetention)
	assert.Equal(t, 90*24*time.Hour, node.Sync.SyncedRetention)
	assert.Equal(t, 5*time.Second, node.Sync.ListenerInterval)
}

func TestNodeConfig_KeepsExplicitValues(t *testing.T) {
	cfg := validNodeStructured()
	cfg.Sync.MaxRetries = 9
	cfg.Workers.SyncInterval = time.Minute

	node, err := cfg.NodeConfig()
	require.NoError(t, err)
	assert.Equal(t, 9, node.Sync.MaxRetries)
	assert.Equal(t, time.Minute, node.Workers.SyncInterval)
}

func TestNodeConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *StructuredConfig)
		wantErr error
	}{
		{
			name:    "missing dsn",
			mutate:  func(cfg *StructuredConfig) { cfg.Storage.DB.DSN = "" },
			wantErr: ErrInvalidStorageConfigs,
		},
		{
			name:    "missing remote address",
			mutate:  func(cfg *StructuredConfig) { cfg.Adapter.HTTPAddress = "" },
			wantErr: ErrInvalidAdapterConfigs,
		},
		{
			name:    "remote address without scheme",
			mutate:  func(cfg *StructuredConfig) { cfg.Adapter.HTTPAddress = "localhost:8080" },
			wantErr: ErrInvalidAdapterConfigs,
		},
		{
			name:    "negative rate limit",
			mutate:  func(cfg *StructuredConfig) { cfg.Adapter.RateLimit = -1 },
			wantErr: ErrInvalidAdapterConfigs,
		},
		{
			name:    "negative interval",
			mutate:  func(cfg *StructuredConfig) { cfg.Workers.CleanupInterval = -time.Second },
			wantErr: ErrInvalidWorkerConfigs,
		},
		{
			name:    "negative listener interval",
			mutate:  func(cfg *StructuredConfig) { cfg.Sync.ListenerInterval = -time.Second },
			wantErr: ErrInvalidSyncConfigs,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validNodeStructured()
			tt.mutate(cfg)

			node, err := cfg.NodeConfig()
			assert.Nil(t, node)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestServerConfig_Validation(t *testing.T) {
	valid := func() *StructuredConfig {
		return &StructuredConfig{
			Storage: Storage{DB: DB{DSN: "postgres://localhost/farm"}},
			Server:  Server{HTTPAddress: "localhost:8080"},
			Auth:    Auth{TokenSignKey: "key", TokenIssuer: "farm"},
		}
	}

	server, err := valid().ServerConfig()
	require.NoError(t, err)
	assert.Equal(t, "server", server.App.Name)
	assert.Equal(t, DefaultTokenDuration, server.Auth.TokenDuration)
	assert.Equal(t, DefaultRequestTimeout, server.Server.RequestTimeout)

	cfg := valid()
	cfg.Storage.DB.DSN = ""
	_, err = cfg.ServerConfig()
	assert.ErrorIs(t, err, ErrInvalidStorageConfigs)

	cfg = valid()
	cfg.Server.HTTPAddress = ""
	_, err = cfg.ServerConfig()
	assert.ErrorIs(t, err, ErrInvalidServerConfigs)

	cfg = valid()
	cfg.Auth.TokenSignKey = ""
	_, err = cfg.ServerConfig()
	assert.ErrorIs(t, err, ErrInvalidAuthConfigs)
}
