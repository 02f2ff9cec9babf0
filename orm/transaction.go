package orm

import (
	"context"
	"database/sql"
	"errors"
)

var (
	_ Session = &Tx{}
)

// Session 是 DB 和 Tx 的公共抽象
type Session interface {
	getCore() core
	queryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	execContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Tx struct {
	tx *sql.Tx
	db *DB
}

func (t *Tx) getCore() core {
	return t.db.core
}

func (t *Tx) queryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, query, args...)
}

func (t *Tx) execContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, query, args...)
}

func (t *Tx) Query(ctx context.Context, id string, param any, bounds RowBounds) (any, error) {
	return Query(ctx, t, id, param, bounds)
}

func (t *Tx) SelectList(ctx context.Context, id string, param any, bounds RowBounds) ([]any, error) {
	return SelectList(ctx, t, id, param, bounds)
}

func (t *Tx) Exec(ctx context.Context, id string, param any) (sql.Result, error) {
	return Exec(ctx, t, id, param)
}

func (t *Tx) Commit() error {
	return t.tx.Commit()
}

func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

// RollbackIfNotCommit 事务已经提交或者回滚会得到 sql.ErrTxDone, 忽略掉
func (t *Tx) RollbackIfNotCommit() error {
	err := t.tx.Rollback()
	if !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}
