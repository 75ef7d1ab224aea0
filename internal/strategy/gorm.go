package strategy

import (
	"context"
	"fmt"

	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"insert-benchmark/internal/rowgen"
	"insert-benchmark/internal/store"
)

// Customer is the GORM mapping of the trial table.
type Customer struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"size:255"`
}

func (Customer) TableName() string { return "customer" }

// gormSession drives inserts through a GORM session bound to the
// trial store's connection pool. Under PeriodicFlush it plays the role
// of an unflushed unit of work: per-row inserts accumulate in a buffer
// that Flush pushes into the open transaction.
type gormSession struct {
	gdb       *gorm.DB
	tx        *gorm.DB
	cfg       Config
	buffering bool
	buf       []rowgen.Record
}

func newGormSession(st *store.Store, cfg Config) (*gormSession, error) {
	var dialector gorm.Dialector
	switch st.Dialect() {
	case store.DialectSQLite:
		dialector = gormsqlite.Dialector{Conn: st.DB()}
	case store.DialectPostgres:
		dialector = gormpostgres.New(gormpostgres.Config{Conn: st.DB()})
	case store.DialectMySQL:
		dialector = gormmysql.New(gormmysql.Config{Conn: st.DB()})
	default:
		return nil, fmt.Errorf("no GORM dialector for %s", st.Dialect())
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Discard,
	})
	if err != nil {
		return nil, err
	}

	return &gormSession{
		gdb:       gdb,
		cfg:       cfg,
		buffering: cfg.TxPolicy == PeriodicFlush,
	}, nil
}

func (s *gormSession) target() *gorm.DB {
	if s.tx != nil {
		return s.tx
	}
	return s.gdb
}

func (s *gormSession) Begin(ctx context.Context) error {
	tx := s.gdb.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	s.tx = tx
	return nil
}

func (s *gormSession) Commit(ctx context.Context) error {
	if err := s.Flush(ctx); err != nil {
		return err
	}
	tx := s.tx
	s.tx = nil
	return tx.Commit().Error
}

func (s *gormSession) Rollback(context.Context) error {
	s.buf = nil
	tx := s.tx
	s.tx = nil
	return tx.Rollback().Error
}

func (s *gormSession) InsertOne(ctx context.Context, rec rowgen.Record) error {
	if s.buffering {
		s.buf = append(s.buf, rec)
		return nil
	}
	c := Customer{ID: rec.ID, Name: rec.Name}
	return s.target().WithContext(ctx).Create(&c).Error
}

func (s *gormSession) InsertBatch(ctx context.Context, recs []rowgen.Record) error {
	if s.cfg.UseMaps {
		rows := make([]map[string]any, len(recs))
		for i, rec := range recs {
			row := map[string]any{"name": rec.Name}
			if rec.ID != 0 {
				row["id"] = rec.ID
			}
			rows[i] = row
		}
		return s.target().WithContext(ctx).Table(Customer{}.TableName()).Create(rows).Error
	}
	return s.createRecords(ctx, recs)
}

func (s *gormSession) InsertPrepared(context.Context, rowgen.Generator) error {
	return fmt.Errorf("single-call batching is not a GORM mode")
}

func (s *gormSession) Flush(ctx context.Context) error {
	if len(s.buf) == 0 {
		return nil
	}
	recs := s.buf
	s.buf = nil
	return s.createRecords(ctx, recs)
}

func (s *gormSession) FetchAssigned(ctx context.Context, lo, hi int) error {
	var ids []int64
	return s.target().WithContext(ctx).
		Table(Customer{}.TableName()).
		Order("id").
		Limit(hi - lo).
		Offset(lo).
		Pluck("id", &ids).Error
}

func (s *gormSession) Close() error {
	if s.tx != nil {
		return s.tx.Rollback().Error
	}
	return nil
}

func (s *gormSession) createRecords(ctx context.Context, recs []rowgen.Record) error {
	customers := make([]Customer, len(recs))
	for i, rec := range recs {
		customers[i] = Customer{ID: rec.ID, Name: rec.Name}
	}
	return s.target().WithContext(ctx).Create(&customers).Error
}
