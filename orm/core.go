package orm

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/startdusk/pagehelper/cache"
	"github.com/startdusk/pagehelper/internal/errs"
)

type core struct {
	cfg         *Configuration
	source      DataSource
	placeholder squirrel.PlaceholderFormat
	resultCache *cache.ReadThroughCache

	mdls []Middleware
}

func (c core) newQueryContext(typ string, id string, param any, bounds RowBounds) (*QueryContext, error) {
	st, ok := c.cfg.Statement(id)
	if !ok {
		return nil, errs.NewErrStatementNotFound(id)
	}
	qc := &QueryContext{
		Type:          typ,
		Statement:     st,
		Param:         param,
		RowBounds:     bounds,
		Configuration: c.cfg,
		DataSource:    c.source,
	}
	if err := qc.Prepare(); err != nil {
		return nil, err
	}
	return qc, nil
}

func (c core) chain(root Handler) Handler {
	for i := len(c.mdls) - 1; i >= 0; i-- {
		root = c.mdls[i](root)
	}
	return root
}

func query(ctx context.Context, sess Session, c core, id string, param any, bounds RowBounds) *QueryResult {
	qc, err := c.newQueryContext(TypeSelect, id, param, bounds)
	if err != nil {
		return &QueryResult{Err: err}
	}
	root := c.chain(func(ctx context.Context, qc *QueryContext) *QueryResult {
		return queryHandler(ctx, sess, c, qc)
	})
	return root(ctx, qc)
}

func queryHandler(ctx context.Context, sess Session, c core, qc *QueryContext) *QueryResult {
	if err := qc.Prepare(); err != nil {
		return &QueryResult{Err: err}
	}
	st := qc.Statement
	if !st.UseCache || c.resultCache == nil {
		rows, err := selectRows(ctx, sess, c, qc)
		return &QueryResult{Result: rows, Err: err}
	}

	key := qc.CacheKey.String()
	if st.FlushCache {
		if err := c.resultCache.Delete(ctx, key); err != nil {
			return &QueryResult{Err: err}
		}
	}
	res, err := c.resultCache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		return selectRows(ctx, sess, c, qc)
	})
	return &QueryResult{Result: res, Err: err}
}

// selectRows 执行查询, RowBounds 不是 NoRowBounds 时在内存里跳过和截断
func selectRows(ctx context.Context, sess Session, c core, qc *QueryContext) ([]any, error) {
	st := qc.Statement
	if st.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, st.Timeout)
		defer cancel()
	}
	q, err := c.placeholder.ReplacePlaceholders(qc.BoundSQL.SQL)
	if err != nil {
		return nil, err
	}
	rows, err := sess.queryContext(ctx, q, qc.BoundSQL.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	offset, limit := 0, NoRowLimit
	if !IsNoRowBounds(qc.RowBounds) {
		offset, limit = qc.RowBounds.Offset(), qc.RowBounds.Limit()
	}
	mapper := st.ResultMapper
	if mapper == nil {
		mapper = MapMapper{}
	}
	res := make([]any, 0, max(st.FetchSize, 0))
	for skipped := 0; rows.Next(); {
		if skipped < offset {
			skipped++
			continue
		}
		if len(res) >= limit {
			break
		}
		val, err := mapper.MapRow(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, val)
	}
	return res, rows.Err()
}

func exec(ctx context.Context, sess Session, c core, id string, param any) *QueryResult {
	qc, err := c.newQueryContext(TypeExec, id, param, NoRowBounds)
	if err != nil {
		return &QueryResult{Err: err}
	}
	root := c.chain(func(ctx context.Context, qc *QueryContext) *QueryResult {
		return execHandler(ctx, sess, c, qc)
	})
	return root(ctx, qc)
}

func execHandler(ctx context.Context, sess Session, c core, qc *QueryContext) *QueryResult {
	if err := qc.Prepare(); err != nil {
		return &QueryResult{Err: err}
	}
	st := qc.Statement
	if st.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, st.Timeout)
		defer cancel()
	}
	q, err := c.placeholder.ReplacePlaceholders(qc.BoundSQL.SQL)
	if err != nil {
		return &QueryResult{Err: err}
	}
	res, err := sess.execContext(ctx, q, qc.BoundSQL.Args...)
	if err != nil {
		return &QueryResult{Err: err}
	}
	if err = setGeneratedKey(st, qc.Param, res); err != nil {
		return &QueryResult{Result: res, Err: err}
	}
	return &QueryResult{Result: res}
}

// setGeneratedKey 只支持 map 参数, 结构体请自己读 sql.Result
func setGeneratedKey(st *Statement, param any, res sql.Result) error {
	if len(st.KeyProperties) == 0 {
		return nil
	}
	m, ok := param.(map[string]any)
	if !ok {
		return nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("orm: 获取自增主键失败: %w", err)
	}
	m[st.KeyProperties[0]] = id
	return nil
}

func toRows(res any) ([]any, error) {
	switch v := res.(type) {
	case nil:
		return nil, nil
	case []any:
		return v, nil
	case Rows:
		return v.Rows(), nil
	default:
		return nil, errs.NewErrUnsupportedResult(res)
	}
}
