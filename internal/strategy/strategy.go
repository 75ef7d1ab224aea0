// Package strategy implements the insertion strategy family as one
// generalized routine parameterized by identifier mode, batching
// granularity and transaction policy, executed through interchangeable
// access-layer adapters (raw database/sql, GORM, beego orm).
package strategy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"insert-benchmark/internal/rowgen"
	"insert-benchmark/internal/store"
)

// Error kinds. Neither is recovered locally; the run driver stops at the
// first failing trial.
var (
	ErrPersistence   = errors.New("persistence failed")
	ErrConfiguration = errors.New("invalid strategy configuration")
)

// Adapter selects the access layer driving the inserts.
type Adapter string

const (
	AdapterRaw   Adapter = "raw"   // database/sql statements
	AdapterGorm  Adapter = "gorm"  // GORM session
	AdapterBeego Adapter = "beego" // beego orm
)

// IDMode selects who assigns primary keys.
type IDMode int

const (
	// StoreAssigned omits ids and lets the engine assign them.
	StoreAssigned IDMode = iota
	// CallerSupplied pre-computes sequential ids 1..n.
	CallerSupplied
)

// Batching selects how many rows each persistence call carries.
type Batching int

const (
	// PerRow issues one persistence call per record.
	PerRow Batching = iota
	// Chunked groups records into fixed-size batches.
	Chunked
	// SingleCall hands the whole dataset to one prepared statement
	// executed over every record inside one transaction.
	SingleCall
)

// TxPolicy selects the commit semantics. Only AtomicBlock guarantees
// all-or-nothing behavior; the other policies may leave
// partially-committed rows behind when a mid-run failure occurs.
type TxPolicy int

const (
	// AutoCommit uses the engine default: every statement commits.
	AutoCommit TxPolicy = iota
	// PeriodicFlush sends buffered rows to the store every FlushEvery
	// rows and commits once at the end.
	PeriodicFlush
	// DeferredCommit accumulates all work and commits once at the end.
	DeferredCommit
	// AtomicBlock wraps the whole run in one explicit transaction that
	// rolls back on failure.
	AtomicBlock
)

const (
	defaultChunkSize  = 10000
	defaultFlushEvery = 1000
)

// Config selects one concrete strategy out of the family.
type Config struct {
	Label    string
	Adapter  Adapter
	IDMode   IDMode
	Batching Batching
	TxPolicy TxPolicy

	// ChunkSize applies to Chunked batching; 0 means 10000.
	ChunkSize int
	// FlushEvery applies to PeriodicFlush; 0 means 1000.
	FlushEvery int
	// ReturnDefaults fetches the engine-assigned ids after each batch,
	// one extra query per batch. Only effective for Chunked batching
	// with StoreAssigned ids; otherwise a no-op.
	ReturnDefaults bool
	// UseMaps drives the GORM adapter through its map-based bulk insert
	// instead of model objects.
	UseMaps bool

	// ChunkObserver, when set, receives the size and elapsed time of
	// every batch-level persistence call.
	ChunkObserver func(rows int, elapsed time.Duration)
}

// Validate rejects axis combinations no adapter can honor.
func (c Config) Validate() error {
	switch c.Adapter {
	case AdapterRaw, AdapterGorm, AdapterBeego:
	default:
		return fmt.Errorf("%w: unknown adapter %q", ErrConfiguration, c.Adapter)
	}
	if c.Adapter == AdapterBeego && c.IDMode == CallerSupplied {
		return fmt.Errorf("%w: %s: beego adapter only supports store-assigned ids", ErrConfiguration, c.Label)
	}
	if c.Batching == SingleCall && c.Adapter != AdapterRaw {
		return fmt.Errorf("%w: %s: single-call batching requires the raw adapter", ErrConfiguration, c.Label)
	}
	if c.TxPolicy == PeriodicFlush && c.Batching != PerRow {
		return fmt.Errorf("%w: %s: periodic flush only applies to per-row batching", ErrConfiguration, c.Label)
	}
	if c.UseMaps && c.Adapter != AdapterGorm {
		return fmt.Errorf("%w: %s: map-based inserts are a GORM mode", ErrConfiguration, c.Label)
	}
	return nil
}

func (c Config) chunkSize() int {
	if c.ChunkSize <= 0 {
		return defaultChunkSize
	}
	return c.ChunkSize
}

func (c Config) flushEvery() int {
	if c.FlushEvery <= 0 {
		return defaultFlushEvery
	}
	return c.FlushEvery
}

func (c Config) fetchAssigned() bool {
	return c.ReturnDefaults && c.Batching == Chunked && c.IDMode == StoreAssigned
}

func (c Config) observe(rows int, elapsed time.Duration) {
	if c.ChunkObserver != nil {
		c.ChunkObserver(rows, elapsed)
	}
}

// session is the narrow surface each adapter exposes to the generalized
// insert loop. Write calls go to the open transaction once Begin has
// been called, and straight to the store otherwise.
type session interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	// InsertOne persists a single record.
	InsertOne(ctx context.Context, rec rowgen.Record) error
	// InsertBatch persists a batch in one bulk call.
	InsertBatch(ctx context.Context, recs []rowgen.Record) error
	// InsertPrepared runs the whole sequence through one prepared statement.
	InsertPrepared(ctx context.Context, gen rowgen.Generator) error
	// Flush pushes buffered rows to the store without committing.
	Flush(ctx context.Context) error
	// FetchAssigned retrieves engine-assigned ids for records [lo, hi).
	FetchAssigned(ctx context.Context, lo, hi int) error
	Close() error
}

func newSession(st *store.Store, cfg Config) (session, error) {
	switch cfg.Adapter {
	case AdapterRaw:
		return newRawSession(st), nil
	case AdapterGorm:
		return newGormSession(st, cfg)
	case AdapterBeego:
		return newBeegoSession(st)
	default:
		return nil, fmt.Errorf("%w: unknown adapter %q", ErrConfiguration, cfg.Adapter)
	}
}

// Run persists exactly n generated records into st according to cfg.
// On success all work is committed before it returns. Under AtomicBlock
// any failure rolls the store back to zero rows from this attempt.
func Run(ctx context.Context, st *store.Store, n int, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if n < 0 {
		return fmt.Errorf("%w: %s: negative row count %d", ErrConfiguration, cfg.Label, n)
	}

	gen := rowgen.New(n, cfg.IDMode == CallerSupplied)

	sess, err := newSession(st, cfg)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPersistence, cfg.Label, err)
	}
	defer sess.Close()

	transacted := cfg.TxPolicy != AutoCommit
	if transacted {
		if err := sess.Begin(ctx); err != nil {
			return fmt.Errorf("%w: %s: begin: %w", ErrPersistence, cfg.Label, err)
		}
	}

	if err := insert(ctx, sess, gen, cfg); err != nil {
		if transacted {
			if rbErr := sess.Rollback(ctx); rbErr != nil {
				return fmt.Errorf("%w: %s: %w (rollback: %v)", ErrPersistence, cfg.Label, err, rbErr)
			}
		}
		return fmt.Errorf("%w: %s: %w", ErrPersistence, cfg.Label, err)
	}

	if transacted {
		if err := sess.Commit(ctx); err != nil {
			return fmt.Errorf("%w: %s: commit: %w", ErrPersistence, cfg.Label, err)
		}
	}
	return nil
}

// insert is the single generalized loop behind every strategy variant.
func insert(ctx context.Context, sess session, gen rowgen.Generator, cfg Config) error {
	switch cfg.Batching {
	case PerRow:
		flushEvery := cfg.flushEvery()
		inserted := 0
		return gen.Each(func(rec rowgen.Record) error {
			if err := sess.InsertOne(ctx, rec); err != nil {
				return err
			}
			inserted++
			if cfg.TxPolicy == PeriodicFlush && inserted%flushEvery == 0 {
				return sess.Flush(ctx)
			}
			return nil
		})

	case Chunked:
		for _, chunk := range gen.Chunks(cfg.chunkSize()) {
			batch := gen.Slice(chunk.Lo, chunk.Hi)
			start := time.Now()
			if err := sess.InsertBatch(ctx, batch); err != nil {
				return err
			}
			if cfg.fetchAssigned() {
				if err := sess.FetchAssigned(ctx, chunk.Lo, chunk.Hi); err != nil {
					return err
				}
			}
			cfg.observe(len(batch), time.Since(start))
		}
		return nil

	case SingleCall:
		start := time.Now()
		if err := sess.InsertPrepared(ctx, gen); err != nil {
			return err
		}
		cfg.observe(gen.Count, time.Since(start))
		return nil

	default:
		return fmt.Errorf("%w: unknown batching mode %d", ErrConfiguration, cfg.Batching)
	}
}
