package main

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-farm-sync/internal/client"
	"github.com/MKhiriev/go-farm-sync/internal/config"
	"github.com/MKhiriev/go-farm-sync/internal/logger"
	"github.com/MKhiriev/go-farm-sync/migrations"
	"github.com/MKhiriev/go-farm-sync/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	info := models.NewBuildInfo(buildVersion, buildDate, buildCommit, migrations.LocalSchemaVersion())
	for _, line := range info.Lines() {
		fmt.Println(line)
	}

	cfg, err := config.GetNodeConfig()
	if err != nil {
		logger.NewLogger("node").Fatal().Err(err).Msg("error getting configs")
	}

	log := logger.NewFileLogger(cfg.App.Name, cfg.App.LogFile)

	ctx := context.Background()
	app, err := client.NewApp(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init sync node error")
	}

	if err = app.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("sync node run error")
	}
}
