package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
)

// MySQLBackend provisions one database per trial, mirroring the Postgres
// backend over the mysql driver's DSN config.
type MySQLBackend struct {
	// AdminDSN is a go-sql-driver DSN with rights to CREATE/DROP DATABASE.
	AdminDSN string
}

func (b *MySQLBackend) Name() string { return "mysql" }

func (b *MySQLBackend) Provision(ctx context.Context, schema Schema) (*Store, error) {
	cfg, err := mysql.ParseDSN(b.AdminDSN)
	if err != nil {
		return nil, fmt.Errorf("%w: parse admin DSN: %w", ErrProvisioning, err)
	}

	name := "trial_" + strings.ReplaceAll(uuid.New().String(), "-", "")

	if err := b.adminExec(ctx, "CREATE DATABASE "+name); err != nil {
		return nil, fmt.Errorf("%w: create database %s: %w", ErrProvisioning, name, err)
	}

	trial := cfg.Clone()
	trial.DBName = name

	db, err := sql.Open("mysql", trial.FormatDSN())
	if err == nil {
		err = db.PingContext(ctx)
	}
	if err == nil {
		err = applySchema(ctx, db, DialectMySQL, schema)
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
		dialect: DialectMySQL,
		table:   schema.Table,
		label:   name,
		release: func() error {
			return b.adminExec(context.Background(), "DROP DATABASE IF EXISTS "+name)
		},
	}, nil
}

func (b *MySQLBackend) adminExec(ctx context.Context, stmt string) error {
	admin, err := sql.Open("mysql", b.AdminDSN)
	if err != nil {
		return err
	}
	defer admin.Close()

	_, err = admin.ExecContext(ctx, stmt)
	return err
}
