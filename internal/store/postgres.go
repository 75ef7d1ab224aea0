package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresBackend provisions one database per trial through an admin
// connection, so no trial ever sees another trial's schema or rows.
type PostgresBackend struct {
	// AdminDSN is a URL-form DSN with rights to CREATE/DROP DATABASE.
	AdminDSN string
}

func (b *PostgresBackend) Name() string { return "postgres" }

func (b *PostgresBackend) Provision(ctx context.Context, schema Schema) (*Store, error) {
	name := "trial_" + strings.ReplaceAll(uuid.New().String(), "-", "")

	if err := b.adminExec(ctx, "CREATE DATABASE "+name); err != nil {
		return nil, fmt.Errorf("%w: create database %s: %w", ErrProvisioning, name, err)
	}

	dsn, err := b.trialDSN(name)
	if err != nil {
		b.adminExec(ctx, "DROP DATABASE IF EXISTS "+name)
		return nil, fmt.Errorf("%w: %w", ErrProvisioning, err)
	}

	db, err := sql.Open("pgx", dsn)
	if err == nil {
		err = db.PingContext(ctx)
	}
	if err == nil {
		err = applySchema(ctx, db, DialectPostgres, schema)
	}
	if err != nil {
		if db != nil {
			db.Close()
		}
		b.adminExec(ctx, "DROP DATABASE IF EXISTS "+name)
		return nil, fmt.Errorf("%w: open database %s: %w", ErrProvisioning, name, err)
	}

	return &Store{
		db:      db,
		dialect: DialectPostgres,
		table:   schema.Table,
		label:   name,
		release: func() error {
			return b.adminExec(context.Background(), "DROP DATABASE IF EXISTS "+name)
		},
	}, nil
}

func (b *PostgresBackend) adminExec(ctx context.Context, stmt string) error {
	admin, err := sql.Open("pgx", b.AdminDSN)
	if err != nil {
		return err
	}
	defer admin.Close()

	_, err = admin.ExecContext(ctx, stmt)
	return err
}

func (b *PostgresBackend) trialDSN(name string) (string, error) {
	u, err := url.Parse(b.AdminDSN)
	if err != nil {
		return "", fmt.Errorf("parse admin DSN: %w", err)
	}
	u.Path = "/" + name
	return u.String(), nil
}
