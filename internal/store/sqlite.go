package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteBackend provisions one uniquely named database file per trial.
// It is the default backend and needs no external server.
type SQLiteBackend struct {
	// Dir is where trial files are created. Empty means os.TempDir().
	Dir string
}

func (b *SQLiteBackend) Name() string { return "sqlite" }

func (b *SQLiteBackend) Provision(ctx context.Context, schema Schema) (*Store, error) {
	dir := b.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, fmt.Sprintf("trial-%s.db", uuid.New().String()))

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrProvisioning, path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		os.Remove(path)
		return nil, fmt.Errorf("%w: open %s: %w", ErrProvisioning, path, err)
	}

	// The harness is single-threaded; one connection keeps every access
	// layer on the same SQLite handle.
	db.SetMaxOpenConns(1)

	if err := applySchema(ctx, db, DialectSQLite, schema); err != nil {
		db.Close()
		os.Remove(path)
		return nil, fmt.Errorf("%w: %w", ErrProvisioning, err)
	}

	return &Store{
		db:      db,
		dialect: DialectSQLite,
		table:   schema.Table,
		label:   path,
		release: func() error {
			// Sidecar files only exist under WAL mode, remove best-effort.
			os.Remove(path + "-wal")
			os.Remove(path + "-shm")
			return os.Remove(path)
		},
	}, nil
}
