// Package store provisions an isolated backing database for exactly one
// trial and guarantees its teardown afterwards. Each Provision call
// yields a fresh store with its own schema; nothing survives Release.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrProvisioning marks failures to create or destroy a trial store.
var ErrProvisioning = errors.New("store provisioning failed")

// Dialect identifies the SQL flavor of a store. The values double as
// database/sql driver names where that holds (sqlite3, mysql).
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

// Schema is the explicit table definition applied at provision time.
// It is passed in by the caller rather than declared at package level,
// so no schema state is shared across trials.
type Schema struct {
	Table string
	DDL   map[Dialect]string
}

// CustomerSchema returns the benchmark's single-table schema: an integer
// primary key the engine assigns unless the caller supplies it, plus a
// short text name.
func CustomerSchema() Schema {
	return Schema{
		Table: "customer",
		DDL: map[Dialect]string{
			DialectSQLite:   `CREATE TABLE customer (id INTEGER PRIMARY KEY, name VARCHAR(255))`,
			DialectPostgres: `CREATE TABLE customer (id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY, name VARCHAR(255))`,
			DialectMySQL:    `CREATE TABLE customer (id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY, name VARCHAR(255))`,
		},
	}
}

// Backend creates isolated stores of one engine type.
type Backend interface {
	Name() string
	Provision(ctx context.Context, schema Schema) (*Store, error)
}

// Store is an ownership-isolated database scoped to a single trial.
// The embedded *sql.DB is shared by every access layer in that trial
// (raw statements, and the object mappers via their Conn options).
type Store struct {
	db       *sql.DB
	dialect  Dialect
	table    string
	label    string
	released bool
	release  func() error
}

// DB returns the underlying connection pool.
func (s *Store) DB() *sql.DB { return s.db }

// Dialect reports the store's SQL flavor.
func (s *Store) Dialect() Dialect { return s.dialect }

// Table returns the name of the trial's table.
func (s *Store) Table() string { return s.table }

// Label uniquely identifies this store (file path or database name).
func (s *Store) Label() string { return s.label }

// Count returns the number of rows currently in the trial table.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+s.table).Scan(&n)
	return n, err
}

// Release closes the store and destroys its backing database. It must be
// called on every exit path; calling it twice is a no-op.
func (s *Store) Release() error {
	if s.released {
		return nil
	}
	s.released = true

	closeErr := s.db.Close()
	if err := s.release(); err != nil {
		return fmt.Errorf("%w: destroy %s: %w", ErrProvisioning, s.label, err)
	}
	if closeErr != nil {
		return fmt.Errorf("%w: close %s: %w", ErrProvisioning, s.label, closeErr)
	}
	return nil
}

func applySchema(ctx context.Context, db *sql.DB, dialect Dialect, schema Schema) error {
	ddl, ok := schema.DDL[dialect]
	if !ok {
		return fmt.Errorf("schema for table %s has no %s DDL", schema.Table, dialect)
	}
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", schema.Table, err)
	}
	return nil
}
