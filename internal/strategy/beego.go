package strategy

import (
	"context"
	"fmt"
	"sync"

	"github.com/beego/beego/v2/client/orm"
	"github.com/google/uuid"

	"insert-benchmark/internal/rowgen"
	"insert-benchmark/internal/store"
)

// BeegoCustomer is the beego orm mapping of the trial table.
type BeegoCustomer struct {
	Id   int64  `orm:"auto"`
	Name string `orm:"size(255)"`
}

func (*BeegoCustomer) TableName() string { return "customer" }

var (
	registerBeegoModel sync.Once
	beegoDefaultAlias  sync.Once
)

// beegoSession drives inserts through beego orm, the second,
// independent object mapper. Each trial registers the store's
// connection pool under a fresh alias because beego keeps alias
// registrations for the life of the process.
type beegoSession struct {
	o  orm.Ormer
	tx orm.TxOrmer
}

func newBeegoSession(st *store.Store) (*beegoSession, error) {
	registerBeegoModel.Do(func() {
		orm.RegisterModel(new(BeegoCustomer))
	})

	alias := "trial_" + uuid.New().String()
	if err := orm.AddAliasWthDB(alias, string(st.Dialect()), st.DB()); err != nil {
		return nil, fmt.Errorf("register beego alias: %w", err)
	}

	// beego's bootstrap insists on a "default" alias existing. Inserts
	// always go through the per-trial alias, never this one.
	beegoDefaultAlias.Do(func() {
		orm.AddAliasWthDB("default", string(st.Dialect()), st.DB())
	})

	return &beegoSession{o: orm.NewOrmUsingDB(alias)}, nil
}

func (s *beegoSession) Begin(ctx context.Context) error {
	tx, err := s.o.BeginWithCtx(ctx)
	if err != nil {
		return err
	}
	s.tx = tx
	return nil
}

func (s *beegoSession) Commit(context.Context) error {
	tx := s.tx
	s.tx = nil
	return tx.Commit()
}

func (s *beegoSession) Rollback(context.Context) error {
	tx := s.tx
	s.tx = nil
	return tx.Rollback()
}

func (s *beegoSession) InsertOne(ctx context.Context, rec rowgen.Record) error {
	c := BeegoCustomer{Name: rec.Name}
	var err error
	if s.tx != nil {
		_, err = s.tx.InsertWithCtx(ctx, &c)
	} else {
		_, err = s.o.InsertWithCtx(ctx, &c)
	}
	return err
}

func (s *beegoSession) InsertBatch(ctx context.Context, recs []rowgen.Record) error {
	customers := make([]BeegoCustomer, len(recs))
	for i, rec := range recs {
		customers[i] = BeegoCustomer{Name: rec.Name}
	}
	var err error
	if s.tx != nil {
		_, err = s.tx.InsertMultiWithCtx(ctx, len(customers), customers)
	} else {
		_, err = s.o.InsertMultiWithCtx(ctx, len(customers), customers)
	}
	return err
}

func (s *beegoSession) InsertPrepared(context.Context, rowgen.Generator) error {
	return fmt.Errorf("single-call batching is not a beego mode")
}

func (s *beegoSession) Flush(context.Context) error {
	// beego sends every insert immediately.
	return nil
}

func (s *beegoSession) FetchAssigned(ctx context.Context, lo, hi int) error {
	var ids []int64
	raw := s.o.RawWithCtx
	if s.tx != nil {
		raw = s.tx.RawWithCtx
	}
	_, err := raw(ctx, fmt.Sprintf(
		"SELECT id FROM customer ORDER BY id LIMIT %d OFFSET %d", hi-lo, lo,
	)).QueryRows(&ids)
	return err
}

func (s *beegoSession) Close() error {
	if s.tx != nil {
		return s.tx.Rollback()
	}
	return nil
}
