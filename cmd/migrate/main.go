// Command migrate manages the database schema and seed data for the profile
// selected by BIRDTRACKER_ENV.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/sakif/bird-tracker/internal/config"
	"github.com/sakif/bird-tracker/internal/repository/sqlstore"
	"github.com/sakif/bird-tracker/internal/seed"
)

// errUsage means the command line was wrong; main prints usage for it.
var errUsage = errors.New("usage")

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	fixtures := flag.String("fixtures", "", "YAML fixtures for seed (default: built-in dev data)")
	flag.Usage = usage
	flag.Parse()

	if err := run(*configPath, *fixtures, flag.Args()); err != nil {
		if errors.Is(err, errUsage) {
			usage()
		} else {
			slog.Error(err.Error())
		}
		os.Exit(1)
	}
}

// run does the work so that deferred closes happen before main exits.
func run(configPath, fixtures string, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	store, err := sqlstore.Open(sqlstore.Config{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
	}, logger)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer store.Close()

	if args[0] == "seed" {
		return runSeed(store, fixtures, logger)
	}

	mg, err := store.NewMigrator()
	if err != nil {
		return fmt.Errorf("migration init failed: %w", err)
	}
	defer mg.Close()

	switch args[0] {
	case "up":
		if err := mg.Up(); err != nil {
			return fmt.Errorf("up failed: %w", err)
		}
		slog.Info("migrations: up completed", "env", cfg.Env)

	case "down":
		steps := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				return fmt.Errorf("down: invalid steps argument %q", args[1])
			}
			steps = n
		}
		if err := mg.Down(steps); err != nil {
			return fmt.Errorf("down failed: %w", err)
		}
		slog.Info("migrations: down completed", "steps", steps)

	case "version":
		v, dirty, err := mg.Version()
		if err != nil {
			return fmt.Errorf("version failed: %w", err)
		}
		fmt.Printf("version: %d  dirty: %v\n", v, dirty)

	case "force":
		if len(args) < 2 {
			return errors.New("force: version argument required")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("force: invalid version %q", args[1])
		}
		if err := mg.Force(v); err != nil {
			return fmt.Errorf("force failed: %w", err)
		}
		slog.Info("migrations: forced", "version", v)

	default:
		return errUsage
	}
	return nil
}

func runSeed(store *sqlstore.Store, path string, logger *slog.Logger) error {
	fx, err := loadFixtures(path)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	sum, err := seed.Apply(context.Background(), store, fx, logger)
	if err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}
	fmt.Printf("seeded %d users, %d categories, %d sightings\n", sum.Users, sum.Categories, sum.Sightings)
	return nil
}

func loadFixtures(path string) (*seed.Fixtures, error) {
	if path == "" {
		return seed.Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return seed.Parse(f)
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: migrate [-config file] [-fixtures file] <command> [args]

Commands:
  up           Apply all pending migrations
  down [N]     Rollback N migrations (default: 1)
  version      Print current migration version
  force <V>    Force set migration version (bypass dirty state)
  seed         Replace all rows with the seed fixtures

Environment:
  BIRDTRACKER_ENV             development (default), test or production
  BIRDTRACKER_DATABASE_DSN    Overrides the profile's database DSN`)
}
