package strategy

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"insert-benchmark/internal/rowgen"
	"insert-benchmark/internal/store"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// rawSession drives inserts through plain database/sql statements.
type rawSession struct {
	st *store.Store
	tx *sql.Tx
}

func newRawSession(st *store.Store) *rawSession {
	return &rawSession{st: st}
}

func (s *rawSession) target() execer {
	if s.tx != nil {
		return s.tx
	}
	return s.st.DB()
}

func (s *rawSession) Begin(ctx context.Context) error {
	tx, err := s.st.DB().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	s.tx = tx
	return nil
}

func (s *rawSession) Commit(context.Context) error {
	tx := s.tx
	s.tx = nil
	return tx.Commit()
}

func (s *rawSession) Rollback(context.Context) error {
	tx := s.tx
	s.tx = nil
	return tx.Rollback()
}

func (s *rawSession) InsertOne(ctx context.Context, rec rowgen.Record) error {
	if rec.ID != 0 {
		_, err := s.target().ExecContext(ctx, s.insertSQL(true, 1), rec.ID, rec.Name)
		return err
	}
	_, err := s.target().ExecContext(ctx, s.insertSQL(false, 1), rec.Name)
	return err
}

func (s *rawSession) InsertBatch(ctx context.Context, recs []rowgen.Record) error {
	if len(recs) == 0 {
		return nil
	}
	withID := recs[0].ID != 0
	args := make([]any, 0, len(recs)*2)
	for _, rec := range recs {
		if withID {
			args = append(args, rec.ID, rec.Name)
		} else {
			args = append(args, rec.Name)
		}
	}
	_, err := s.target().ExecContext(ctx, s.insertSQL(withID, len(recs)), args...)
	return err
}

func (s *rawSession) InsertPrepared(ctx context.Context, gen rowgen.Generator) error {
	stmt, err := s.target().PrepareContext(ctx, s.insertSQL(gen.WithIDs, 1))
	if err != nil {
		return err
	}
	defer stmt.Close()

	return gen.Each(func(rec rowgen.Record) error {
		if gen.WithIDs {
			_, err := stmt.ExecContext(ctx, rec.ID, rec.Name)
			return err
		}
		_, err := stmt.ExecContext(ctx, rec.Name)
		return err
	})
}

func (s *rawSession) Flush(context.Context) error {
	// Statements are sent to the store as they are issued.
	return nil
}

func (s *rawSession) FetchAssigned(ctx context.Context, lo, hi int) error {
	query := fmt.Sprintf("SELECT id FROM %s ORDER BY id LIMIT %d OFFSET %d",
		s.st.Table(), hi-lo, lo)
	rows, err := s.target().QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *rawSession) Close() error {
	if s.tx != nil {
		return s.tx.Rollback()
	}
	return nil
}

// insertSQL builds an INSERT statement for nrows value tuples in the
// store's placeholder style.
func (s *rawSession) insertSQL(withID bool, nrows int) string {
	cols := "(name)"
	perRow := 1
	if withID {
		cols = "(id, name)"
		perRow = 2
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(s.st.Table())
	sb.WriteString(" ")
	sb.WriteString(cols)
	sb.WriteString(" VALUES ")

	numbered := s.st.Dialect() == store.DialectPostgres
	arg := 1
	for row := 0; row < nrows; row++ {
		if row > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for col := 0; col < perRow; col++ {
			if col > 0 {
				sb.WriteString(", ")
			}
			if numbered {
				fmt.Fprintf(&sb, "$%d", arg)
				arg++
			} else {
				sb.WriteString("?")
			}
		}
		sb.WriteString(")")
	}
	return sb.String()
}
