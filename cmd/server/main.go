// Package main is the entry point for the Bird Tracker API server.
//
// main only reads configuration, builds the logger and hands over to
// internal/server. Flags:
//
//	-config path   optional YAML file with per-profile overrides
//	-seed          replace the database contents with the dev fixtures first
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/bird-tracker/internal/config"
	"github.com/sakif/bird-tracker/internal/repository/sqlstore"
	"github.com/sakif/bird-tracker/internal/seed"
	"github.com/sakif/bird-tracker/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	withSeed := flag.Bool("seed", false, "load the development fixtures before serving")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// A file-backed SQLite database needs its directory to exist.
	if cfg.Database.Driver == sqlstore.DriverSQLite && cfg.Database.DSN != ":memory:" {
		dir := filepath.Dir(cfg.Database.DSN)
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if *withSeed {
		fx, err := seed.Default()
		if err == nil {
			_, err = seed.Apply(context.Background(), srv.Store(), fx, logger)
		}
		if err != nil {
			logger.Error("failed to seed database", slog.String("error", err.Error()))
			srv.Close()
			os.Exit(1)
		}
	}

	// Start blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
