package handler

import (
	"github.com/MKhiriev/go-farm-sync/internal/config"
	"github.com/MKhiriev/go-farm-sync/internal/handler/http"
	"github.com/MKhiriev/go-farm-sync/internal/logger"
	"github.com/MKhiriev/go-farm-sync/internal/service"
)

type Handlers struct {
	HTTP *http.Handler
}

func NewHandlers(services *service.ServerServices, cfg config.ServerConfig, logger *logger.Logger) (*Handlers, error) {
	logger.Info().Msg("creating new handlers...")

	if services == nil || services.DocumentService == nil || services.AuthService == nil {
		return nil, errMissingServices
	}
	if cfg.Server.HTTPAddress == "" {
		return nil, errNoHandlersAreCreated
	}

	return &Handlers{HTTP: http.NewHandler(services, cfg, logger)}, nil
}
