package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"insert-benchmark/internal/bench"
	"insert-benchmark/internal/config"
	"insert-benchmark/internal/runner"
	"insert-benchmark/internal/store"
)

func main() {
	var exitCode int
	defer func() {
		os.Exit(exitCode)
	}()

	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	rows := flag.Int("rows", 0, "rows per trial (overrides the config value)")
	backendName := flag.String("backend", "sqlite", "store backend (sqlite, postgres, or mysql)")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		exitCode = 1
		return
	}
	if *rows > 0 {
		cfg.Benchmark.Rows = *rows
	}

	logger := setupLogging(cfg.LogLevel)

	backend, err := selectBackend(*backendName, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("backend selection failed")
		exitCode = 1
		return
	}

	bench.Banner(os.Stdout)

	trials := runner.DefaultTrials(cfg.Benchmark.Rows, cfg.Benchmark.ChunkSize, cfg.Benchmark.FlushEvery)

	logger.Info().
		Str("backend", backend.Name()).
		Int("rows", cfg.Benchmark.Rows).
		Int("trials", len(trials)).
		Msg("starting benchmark")

	results, err := runner.RunAll(context.Background(), backend, trials, os.Stdout, logger)
	if err != nil {
		logger.Error().Err(err).Msg("benchmark aborted")
		exitCode = 1
		return
	}

	logger.Info().Int("trials", len(results)).Msg("benchmark complete")
}

func setupLogging(level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	zlevel := zerolog.InfoLevel
	switch level {
	case "debug":
		zlevel = zerolog.DebugLevel
	case "warn":
		zlevel = zerolog.WarnLevel
	case "disabled":
		zlevel = zerolog.Disabled
	}

	return zerolog.New(os.Stderr).Level(zlevel).With().Timestamp().Logger()
}

func selectBackend(name string, cfg *config.Config) (store.Backend, error) {
	switch name {
	case "sqlite":
		return &store.SQLiteBackend{Dir: cfg.Databases.SQLiteDir}, nil
	case "postgres":
		if cfg.Databases.Postgres == "" {
			return nil, fmt.Errorf("postgres backend needs databases.postgres in the config")
		}
		return &store.PostgresBackend{AdminDSN: cfg.Databases.Postgres}, nil
	case "mysql":
		if cfg.Databases.MySQL == "" {
			return nil, fmt.Errorf("mysql backend needs databases.mysql in the config")
		}
		return &store.MySQLBackend{AdminDSN: cfg.Databases.MySQL}, nil
	default:
		return nil, fmt.Errorf("unsupported backend: %s", name)
	}
}
