package store

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteProvisionEmptyTable(t *testing.T) {
	b := &SQLiteBackend{Dir: t.TempDir()}
	s, err := b.Provision(context.Background(), CustomerSchema())
	require.NoError(t, err)
	defer s.Release()

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, "customer", s.Table())
	assert.Equal(t, DialectSQLite, s.Dialect())
}

func TestSQLiteProvisionIsolated(t *testing.T) {
	b := &SQLiteBackend{Dir: t.TempDir()}
	ctx := context.Background()

	first, err := b.Provision(ctx, CustomerSchema())
	require.NoError(t, err)
	defer first.Release()

	_, err = first.DB().ExecContext(ctx, "INSERT INTO customer (name) VALUES (?)", "NAME 0")
	require.NoError(t, err)

	second, err := b.Provision(ctx, CustomerSchema())
	require.NoError(t, err)
	defer second.Release()

	assert.NotEqual(t, first.Label(), second.Label())

	n, err := second.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "fresh store must not see a prior trial's rows")
}

func TestSQLiteReleaseRemovesFile(t *testing.T) {
	b := &SQLiteBackend{Dir: t.TempDir()}
	s, err := b.Provision(context.Background(), CustomerSchema())
	require.NoError(t, err)

	path := s.Label()
	_, err = os.Stat(path)
	require.NoError(t, err)

	require.NoError(t, s.Release())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestReleaseIdempotent(t *testing.T) {
	b := &SQLiteBackend{Dir: t.TempDir()}
	s, err := b.Provision(context.Background(), CustomerSchema())
	require.NoError(t, err)

	require.NoError(t, s.Release())
	require.NoError(t, s.Release())
}

func TestProvisionFailsWithoutDir(t *testing.T) {
	b := &SQLiteBackend{Dir: "/nonexistent/path/for/trials"}
	_, err := b.Provision(context.Background(), CustomerSchema())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProvisioning)
}

func TestProvisionFailsWithoutDDL(t *testing.T) {
	b := &SQLiteBackend{Dir: t.TempDir()}
	_, err := b.Provision(context.Background(), Schema{Table: "customer"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProvisioning)
}
