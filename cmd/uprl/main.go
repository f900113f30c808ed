package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/uprl-lab/uprl/internal/core/config"
	"github.com/uprl-lab/uprl/internal/core/storage"
	"github.com/uprl-lab/uprl/internal/core/storage/memory"
	"github.com/uprl-lab/uprl/internal/core/storage/postgres"
	"github.com/uprl-lab/uprl/internal/ingestion"
	"github.com/uprl-lab/uprl/internal/migrations"
	"github.com/uprl-lab/uprl/internal/projection"
	"github.com/uprl-lab/uprl/internal/server"
)

func main() {
	configPath := flag.String("config", "uprl.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded config", "config", cfg)

	// 2. Initialize Storage
	var (
		store  storage.FactStore
		health *sql.DB
	)
	switch cfg.Database.Type {
	case "memory":
		slog.Warn("Using in-memory fact store, facts will not survive restarts")
		store = memory.NewStore()
	default:
		dbAdapter, err := postgres.NewAdapter(
			cfg.Database.DSN,
			cfg.Database.MaxOpenConns,
			cfg.Database.MaxIdleConns,
		)
		if err != nil {
			slog.Error("Failed to initialize database", "error", err)
			os.Exit(1)
		}
		defer dbAdapter.Close()

		if err := migrations.RunMigrations(dbAdapter.DB(), cfg.Database.AutoMigrate); err != nil {
			slog.Error("Failed to run database migrations", "error", err)
			os.Exit(1)
		}

		store = dbAdapter
		health = dbAdapter.DB()
	}

	// 3. Initialize Ingestion (write side)
	ingestionSvc := ingestion.NewService(store, cfg.Server.MaxBodySizeMB)

	// 4. Initialize Projection (query API)
	projectionSvc := projection.NewService(store)

	// 5. Initialize Server
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), health, cfg.Server.Mode)
	ingestionSvc.RegisterRoutes(srv.Engine)
	projectionSvc.RegisterRoutes(srv.Engine)

	// 6. Start Services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Signal handler triggers the shutdown sequence below.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	// HTTP server blocks until ctx is cancelled.
	if err := srv.Run(ctx); err != nil {
		slog.Error("Server stopped with error", "error", err)
	}

	slog.Info("Shutdown complete")
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
