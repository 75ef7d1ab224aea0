// Package runner sequences trials: provision an isolated store, time
// one strategy against it, report, tear the store down, move on.
package runner

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/rs/zerolog"

	"insert-benchmark/internal/bench"
	"insert-benchmark/internal/store"
	"insert-benchmark/internal/strategy"
)

// Trial pairs one strategy configuration with its row count and the
// schema to provision for it.
type Trial struct {
	Strategy strategy.Config
	Rows     int
	Schema   store.Schema
}

// Run executes a single trial. The store lives exactly as long as the
// trial and is released on every exit path; only the strategy body is
// timed.
func Run(ctx context.Context, backend store.Backend, trial Trial, out io.Writer, logger zerolog.Logger) (res *bench.Result, err error) {
	st, err := backend.Provision(ctx, trial.Schema)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rerr := st.Release(); rerr != nil {
			logger.Error().Err(rerr).Str("store", st.Label()).Msg("store release failed")
			if err == nil {
				err = rerr
				res = nil
			}
		}
	}()

	logger.Debug().
		Str("strategy", trial.Strategy.Label).
		Str("store", st.Label()).
		Int("rows", trial.Rows).
		Msg("trial starting")

	// Per-batch latency spread, µs resolution. Debug-only: the report
	// format stays a single elapsed duration per trial.
	hist := hdrhistogram.New(1, time.Minute.Microseconds(), 3)
	cfg := trial.Strategy
	cfg.ChunkObserver = func(_ int, elapsed time.Duration) {
		hist.RecordValue(elapsed.Microseconds())
	}

	res, err = bench.Measure(cfg.Label, trial.Rows, func() error {
		return strategy.Run(ctx, st, trial.Rows, cfg)
	})
	if err != nil {
		return nil, fmt.Errorf("trial %s: %w", trial.Strategy.Label, err)
	}

	bench.Report(out, res)

	if hist.TotalCount() > 0 {
		logger.Debug().
			Str("strategy", cfg.Label).
			Int64("batches", hist.TotalCount()).
			Int64("p50_us", hist.ValueAtQuantile(50)).
			Int64("p95_us", hist.ValueAtQuantile(95)).
			Int64("max_us", hist.Max()).
			Msg("batch latency spread")
	}
	return res, nil
}

// RunAll executes trials in order, stopping at the first failure.
// Results already reported stand; no retry, no partial-result
// suppression.
func RunAll(ctx context.Context, backend store.Backend, trials []Trial, out io.Writer, logger zerolog.Logger) ([]bench.Result, error) {
	results := make([]bench.Result, 0, len(trials))
	for _, trial := range trials {
		res, err := Run(ctx, backend, trial, out, logger)
		if err != nil {
			return results, err
		}
		results = append(results, *res)
	}
	return results, nil
}

// DefaultTrials is the fixed ordered sequence the harness runs: the
// second object mapper in transacted and unmanaged modes, the ORM in
// its per-object, bulk-object and bulk-map styles, then the
// driver-level variants.
func DefaultTrials(rows, chunkSize, flushEvery int) []Trial {
	schema := store.CustomerSchema()
	configs := []strategy.Config{
		{Label: "beego atomic", Adapter: strategy.AdapterBeego, Batching: strategy.PerRow, TxPolicy: strategy.AtomicBlock},
		{Label: "beego simple", Adapter: strategy.AdapterBeego, Batching: strategy.PerRow, TxPolicy: strategy.AutoCommit},
		{Label: "gorm orm", Adapter: strategy.AdapterGorm, Batching: strategy.PerRow, TxPolicy: strategy.PeriodicFlush, FlushEvery: flushEvery},
		{Label: "gorm orm pk given", Adapter: strategy.AdapterGorm, IDMode: strategy.CallerSupplied, Batching: strategy.PerRow, TxPolicy: strategy.PeriodicFlush, FlushEvery: flushEvery},
		{Label: "gorm bulk save objects", Adapter: strategy.AdapterGorm, Batching: strategy.Chunked, TxPolicy: strategy.DeferredCommit, ChunkSize: chunkSize},
		{Label: "gorm bulk save objects, return defaults", Adapter: strategy.AdapterGorm, Batching: strategy.Chunked, TxPolicy: strategy.DeferredCommit, ChunkSize: chunkSize, ReturnDefaults: true},
		{Label: "gorm bulk insert maps", Adapter: strategy.AdapterGorm, Batching: strategy.Chunked, TxPolicy: strategy.DeferredCommit, ChunkSize: chunkSize, UseMaps: true},
		{Label: "gorm bulk insert maps, return defaults", Adapter: strategy.AdapterGorm, Batching: strategy.Chunked, TxPolicy: strategy.DeferredCommit, ChunkSize: chunkSize, UseMaps: true, ReturnDefaults: true},
		{Label: "database/sql prepared", Adapter: strategy.AdapterRaw, Batching: strategy.SingleCall, TxPolicy: strategy.DeferredCommit},
		{Label: "database/sql", Adapter: strategy.AdapterRaw, Batching: strategy.PerRow, TxPolicy: strategy.DeferredCommit},
	}

	trials := make([]Trial, len(configs))
	for i, cfg := range configs {
		trials[i] = Trial{Strategy: cfg, Rows: rows, Schema: schema}
	}
	return trials
}
