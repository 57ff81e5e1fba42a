package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-farm-sync/internal/config"
	"github.com/MKhiriev/go-farm-sync/internal/handler"
	"github.com/MKhiriev/go-farm-sync/internal/logger"
	"github.com/MKhiriev/go-farm-sync/internal/mock"
	"github.com/MKhiriev/go-farm-sync/internal/service"
)

func newTestHandlers(t *testing.T, cfg config.ServerConfig) *handler.Handlers {
	t.Helper()
	ctrl := gomock.NewController(t)

	h, err := handler.NewHandlers(&service.ServerServices{
		DocumentService: mock.NewMockDocumentService(ctrl),
		AuthService:     mock.NewMockAuthService(ctrl),
	}, cfg, logger.Nop())
	require.NoError(t, err)
	return h
}

func TestNewServer_NoHandlers(t *testing.T) {
	_, err := NewServer(nil, config.Server{HTTPAddress: ":0"}, logger.Nop())

	assert.ErrorIs(t, err, errNoServersAreCreated)
}

func TestServer_RunStopsOnContext(t *testing.T) {
	cfg := config.ServerConfig{Server: config.Server{HTTPAddress: "127.0.0.1:0"}}
	srv, err := NewServer(newTestHandlers(t, cfg), cfg.Server, logger.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_RunReportsListenError(t *testing.T) {
	cfg := config.ServerConfig{Server: config.Server{HTTPAddress: "256.0.0.1:bad"}}
	srv, err := NewServer(newTestHandlers(t, cfg), cfg.Server, logger.Nop())
	require.NoError(t, err)

	err = srv.Run(context.Background())

	assert.ErrorIs(t, err, errListenAndServe)
}
