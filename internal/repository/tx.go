package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/kanban-board/internal/model"
)

// withTx runs fn inside a transaction.  The transaction is committed when
// fn returns nil and rolled back otherwise.  fn must only use tx: the
// SQLite pool holds a single connection, so touching the *sqlx.DB while a
// transaction is open would block forever.
func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	return fn(tx)
}

// now returns the current time at the precision both drivers store.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// normTime converts an optional instant to storage precision.
func normTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC().Truncate(time.Microsecond)
	return &v
}

// setList accumulates the assignments of a partial UPDATE.
type setList struct {
	cols []string
	args []interface{}
}

func (s *setList) add(col string, v interface{}) {
	s.cols = append(s.cols, col+" = ?")
	s.args = append(s.args, v)
}

// exec runs UPDATE table SET ... WHERE id = ?, always touching updated_at.
func (s *setList) exec(ctx context.Context, ex sqlx.ExecerContext, table string, id uint64, at time.Time) error {
	s.add("updated_at", at)
	q := "UPDATE " + table + " SET " + strings.Join(s.cols, ", ") + " WHERE id = ?"
	_, err := ex.ExecContext(ctx, q, append(s.args, id)...)
	return err
}

// checkPosition rejects positions the schema cannot store.
func checkPosition(p int) error {
	if !model.ValidPosition(p) {
		return fmt.Errorf("%w: position must be between 0 and %d", ErrInvalid, model.MaxPosition)
	}
	return nil
}

// requireAffected turns a write that touched no rows into ErrNotFound.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
