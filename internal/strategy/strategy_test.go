package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insert-benchmark/internal/store"
)

func newTestStore(t *testing.T, schema store.Schema) *store.Store {
	t.Helper()
	b := &store.SQLiteBackend{Dir: t.TempDir()}
	st, err := b.Provision(context.Background(), schema)
	require.NoError(t, err)
	t.Cleanup(func() { st.Release() })
	return st
}

// failingSchema rejects the 51st generated name, forcing a persistence
// error partway through a run.
func failingSchema() store.Schema {
	s := store.CustomerSchema()
	s.DDL[store.DialectSQLite] = `CREATE TABLE customer (id INTEGER PRIMARY KEY, name VARCHAR(255) CHECK (name <> 'NAME 50'))`
	return s
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"unknown adapter", Config{Adapter: "odbc"}},
		{"beego caller-supplied", Config{Adapter: AdapterBeego, IDMode: CallerSupplied}},
		{"single-call gorm", Config{Adapter: AdapterGorm, Batching: SingleCall}},
		{"periodic flush chunked", Config{Adapter: AdapterGorm, Batching: Chunked, TxPolicy: PeriodicFlush}},
		{"maps on raw", Config{Adapter: AdapterRaw, UseMaps: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestValidateAccepts(t *testing.T) {
	cfg := Config{Adapter: AdapterGorm, IDMode: CallerSupplied, Batching: PerRow, TxPolicy: PeriodicFlush}
	require.NoError(t, cfg.Validate())
}

func TestRunNegativeRows(t *testing.T) {
	st := newTestStore(t, store.CustomerSchema())
	err := Run(context.Background(), st, -1, Config{Adapter: AdapterRaw})
	assert.ErrorIs(t, err, ErrConfiguration)
}

func runConfigs() []Config {
	return []Config{
		{Label: "beego atomic", Adapter: AdapterBeego, Batching: PerRow, TxPolicy: AtomicBlock},
		{Label: "beego simple", Adapter: AdapterBeego, Batching: PerRow, TxPolicy: AutoCommit},
		{Label: "beego bulk", Adapter: AdapterBeego, Batching: Chunked, TxPolicy: DeferredCommit, ChunkSize: 10, ReturnDefaults: true},
		{Label: "gorm flush", Adapter: AdapterGorm, Batching: PerRow, TxPolicy: PeriodicFlush, FlushEvery: 7},
		{Label: "gorm pk given", Adapter: AdapterGorm, IDMode: CallerSupplied, Batching: PerRow, TxPolicy: PeriodicFlush, FlushEvery: 7},
		{Label: "gorm bulk save", Adapter: AdapterGorm, Batching: Chunked, TxPolicy: DeferredCommit, ChunkSize: 10},
		{Label: "gorm bulk save defaults", Adapter: AdapterGorm, Batching: Chunked, TxPolicy: DeferredCommit, ChunkSize: 10, ReturnDefaults: true},
		{Label: "gorm bulk maps", Adapter: AdapterGorm, Batching: Chunked, TxPolicy: DeferredCommit, ChunkSize: 10, UseMaps: true},
		{Label: "raw prepared", Adapter: AdapterRaw, Batching: SingleCall, TxPolicy: DeferredCommit},
		{Label: "raw per row", Adapter: AdapterRaw, Batching: PerRow, TxPolicy: DeferredCommit},
		{Label: "raw chunked", Adapter: AdapterRaw, IDMode: CallerSupplied, Batching: Chunked, TxPolicy: DeferredCommit, ChunkSize: 10},
	}
}

func TestRunInsertsExactly(t *testing.T) {
	const n = 25
	for _, cfg := range runConfigs() {
		t.Run(cfg.Label, func(t *testing.T) {
			st := newTestStore(t, store.CustomerSchema())
			require.NoError(t, Run(context.Background(), st, n, cfg))

			count, err := st.Count(context.Background())
			require.NoError(t, err)
			assert.Equal(t, n, count)
		})
	}
}

func TestRunZeroRows(t *testing.T) {
	for _, cfg := range runConfigs() {
		t.Run(cfg.Label, func(t *testing.T) {
			st := newTestStore(t, store.CustomerSchema())
			require.NoError(t, Run(context.Background(), st, 0, cfg))

			count, err := st.Count(context.Background())
			require.NoError(t, err)
			assert.Zero(t, count)
		})
	}
}

func TestCallerSuppliedContent(t *testing.T) {
	st := newTestStore(t, store.CustomerSchema())
	cfg := Config{
		Label:    "gorm pk given",
		Adapter:  AdapterGorm,
		IDMode:   CallerSupplied,
		Batching: PerRow,
		TxPolicy: PeriodicFlush,
	}
	require.NoError(t, Run(context.Background(), st, 5, cfg))

	rows, err := st.DB().Query("SELECT id, name FROM customer ORDER BY id")
	require.NoError(t, err)
	defer rows.Close()

	want := map[int64]string{1: "NAME 0", 2: "NAME 1", 3: "NAME 2", 4: "NAME 3", 5: "NAME 4"}
	seen := 0
	for rows.Next() {
		var id int64
		var name string
		require.NoError(t, rows.Scan(&id, &name))
		assert.Equal(t, want[id], name)
		seen++
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, 5, seen)
}

func TestStoreAssignedIDsUnique(t *testing.T) {
	st := newTestStore(t, store.CustomerSchema())
	cfg := Config{Label: "beego simple", Adapter: AdapterBeego, Batching: PerRow, TxPolicy: AutoCommit}
	require.NoError(t, Run(context.Background(), st, 20, cfg))

	var distinct int
	require.NoError(t, st.DB().QueryRow("SELECT COUNT(DISTINCT id) FROM customer").Scan(&distinct))
	assert.Equal(t, 20, distinct)
}

func TestChunkedBatchSplit(t *testing.T) {
	st := newTestStore(t, store.CustomerSchema())

	var sizes []int
	cfg := Config{
		Label:     "raw chunked",
		Adapter:   AdapterRaw,
		Batching:  Chunked,
		TxPolicy:  DeferredCommit,
		ChunkSize: 10000,
		ChunkObserver: func(rows int, _ time.Duration) {
			sizes = append(sizes, rows)
		},
	}
	require.NoError(t, Run(context.Background(), st, 25000, cfg))

	assert.Equal(t, []int{10000, 10000, 5000}, sizes)

	count, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 25000, count)
}

func TestAtomicBlockRollsBack(t *testing.T) {
	atomics := []Config{
		{Label: "beego atomic", Adapter: AdapterBeego, Batching: PerRow, TxPolicy: AtomicBlock},
		{Label: "gorm atomic", Adapter: AdapterGorm, Batching: PerRow, TxPolicy: AtomicBlock},
		{Label: "raw atomic", Adapter: AdapterRaw, Batching: PerRow, TxPolicy: AtomicBlock},
	}
	for _, cfg := range atomics {
		t.Run(cfg.Label, func(t *testing.T) {
			st := newTestStore(t, failingSchema())

			err := Run(context.Background(), st, 100, cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrPersistence)

			count, err := st.Count(context.Background())
			require.NoError(t, err)
			assert.Zero(t, count, "atomic block must leave no rows behind")
		})
	}
}

func TestAutoCommitLeavesPartialRows(t *testing.T) {
	st := newTestStore(t, failingSchema())
	cfg := Config{Label: "beego simple", Adapter: AdapterBeego, Batching: PerRow, TxPolicy: AutoCommit}

	err := Run(context.Background(), st, 100, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)

	count, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 50, count, "auto-commit keeps the rows persisted before the failure")
}

func TestReturnDefaultsIsNoopPerRow(t *testing.T) {
	st := newTestStore(t, store.CustomerSchema())
	cfg := Config{
		Label:          "raw per row",
		Adapter:        AdapterRaw,
		Batching:       PerRow,
		TxPolicy:       DeferredCommit,
		ReturnDefaults: true,
	}
	require.NoError(t, Run(context.Background(), st, 10, cfg))

	count, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, count)
}
