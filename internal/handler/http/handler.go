package http

import (
	"time"

	"github.com/MKhiriev/go-farm-sync/internal/config"
	"github.com/MKhiriev/go-farm-sync/internal/logger"
	"github.com/MKhiriev/go-farm-sync/internal/service"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

type Handler struct {
	documents service.DocumentService
	tokens    service.AuthService

	version        string
	requestTimeout time.Duration

	logger *logger.Logger
}

func NewHandler(services *service.ServerServices, cfg config.ServerConfig, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		documents:      services.DocumentService,
		tokens:         services.AuthService,
		version:        cfg.App.Version,
		requestTimeout: cfg.Server.RequestTimeout,
		logger:         logger,
	}
}
