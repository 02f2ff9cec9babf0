package orm

import (
	"context"
	"database/sql"
)

// Query 返回中间件链处理后的结果, 不做类型转换
func Query(ctx context.Context, sess Session, id string, param any, bounds RowBounds) (any, error) {
	res := query(ctx, sess, sess.getCore(), id, param, bounds)
	return res.Result, res.Err
}

func SelectList(ctx context.Context, sess Session, id string, param any, bounds RowBounds) ([]any, error) {
	res, err := Query(ctx, sess, id, param, bounds)
	if err != nil {
		return nil, err
	}
	return toRows(res)
}

// SelectOne 没有数据返回 ErrNoRows, 多行只取第一行
func SelectOne(ctx context.Context, sess Session, id string, param any) (any, error) {
	rows, err := SelectList(ctx, sess, id, param, NoRowBounds)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return rows[0], nil
}

// SelectAs 把结果转换成 []T, 类型不符的行会被丢弃
func SelectAs[T any](ctx context.Context, sess Session, id string, param any, bounds RowBounds) ([]T, error) {
	rows, err := SelectList(ctx, sess, id, param, bounds)
	if err != nil {
		return nil, err
	}
	res := make([]T, 0, len(rows))
	for _, row := range rows {
		if val, ok := row.(T); ok {
			res = append(res, val)
		}
	}
	return res, nil
}

func Exec(ctx context.Context, sess Session, id string, param any) (sql.Result, error) {
	res := exec(ctx, sess, sess.getCore(), id, param)
	var sqlRes sql.Result
	if val, ok := res.Result.(sql.Result); ok {
		sqlRes = val
	}
	return sqlRes, res.Err
}
