package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/MKhiriev/go-farm-sync/internal/config"
	"github.com/MKhiriev/go-farm-sync/internal/handler"
	"github.com/MKhiriev/go-farm-sync/internal/logger"
	"github.com/MKhiriev/go-farm-sync/internal/server"
	"github.com/MKhiriev/go-farm-sync/internal/service"
	"github.com/MKhiriev/go-farm-sync/internal/store"
	"github.com/MKhiriev/go-farm-sync/migrations"
	"github.com/MKhiriev/go-farm-sync/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	info := models.NewBuildInfo(buildVersion, buildDate, buildCommit, migrations.RemoteSchemaVersion())
	for _, line := range info.Lines() {
		fmt.Println(line)
	}

	cfg, err := config.GetServerConfig()
	if err != nil {
		logger.NewLogger("server").Fatal().Err(err).Msg("error getting configs")
	}
	if cfg.App.Version == "" {
		cfg.App.Version = info.Version
	}

	log := logger.NewFileLogger(cfg.App.Name, cfg.App.LogFile)

	// "mint-token <subject> [collection,...]" prints a node token and exits
	if args := mintTokenArgs(os.Args[1:]); args != nil {
		mintToken(cfg, args, log)
		return
	}

	ctx := context.Background()
	storages, err := store.NewServerStorages(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating storages")
	}
	defer storages.Close()

	services := service.NewServerServices(storages, cfg.Auth, log)

	handlers, err := handler.NewHandlers(services, *cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating handlers")
	}

	srv, err := server.NewServer(handlers, cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server")
	}

	srv.RunServer()
}

// mintTokenArgs returns the arguments after the mint-token command, or nil
// when the command is absent. Configuration flags may precede it.
func mintTokenArgs(args []string) []string {
	for i, arg := range args {
		if arg == "mint-token" {
			return append([]string{}, args[i+1:]...)
		}
	}
	return nil
}

func mintToken(cfg *config.ServerConfig, args []string, log *logger.Logger) {
	fs := flag.NewFlagSet("mint-token", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: server [flags] mint-token <subject> [collection,...]")
		os.Exit(2)
	}

	var collections []string
	if fs.NArg() > 1 {
		collections = strings.Split(fs.Arg(1), ",")
	}

	token, err := service.NewAuthService(cfg.Auth, log).CreateToken(context.Background(), fs.Arg(0), collections)
	if err != nil {
		log.Fatal().Err(err).Msg("error minting token")
	}

	fmt.Println(token.SignedString)
}
