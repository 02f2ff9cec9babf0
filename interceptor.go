// Package pagehelper 是 orm 的分页中间件
//
// 调用 StartPage 之后, 使用返回的 ctx 执行的下一次查询会先执行 count 查询, 再执行分页查询,
// 结果是 *Page. 也可以通过 RowBounds 或者参数对象传递分页参数.
package pagehelper

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cast"
	"github.com/startdusk/pagehelper/cache"
	"github.com/startdusk/pagehelper/internal/errs"
	"github.com/startdusk/pagehelper/orm"
	"go.uber.org/zap"
)

var (
	ErrMultiplePagination = errs.ErrMultiplePagination
	ErrUnknownDialect     = errs.ErrUnknownDialect
	ErrDialectUndetected  = errs.ErrDialectUndetected
	ErrCountResult        = errs.ErrCountResult
)

type Interceptor struct {
	dialect     Dialect
	countSuffix string
	// msCountCache 自动生成的 count 语句
	msCountCache *StatementCache
	countCache   cache.Cache
	// ownCache 为 true 时 countCache 由 NewInterceptor 按配置创建, Close 负责关闭
	ownCache bool
	logger   *zap.Logger
}

type InterceptorOption func(i *Interceptor)

func InterceptorWithLogger(logger *zap.Logger) InterceptorOption {
	return func(i *Interceptor) {
		i.logger = logger
	}
}

// InterceptorWithCountCache 使用指定的缓存保存 count 语句, 不再按配置创建
func InterceptorWithCountCache(c cache.Cache) InterceptorOption {
	return func(i *Interceptor) {
		i.countCache = c
	}
}

// InterceptorWithDialect 直接指定 Dialect, 忽略配置里的 dialect
func InterceptorWithDialect(d Dialect) InterceptorOption {
	return func(i *Interceptor) {
		i.dialect = d
	}
}

// NewInterceptor 配置错误在这里返回, 之后每次查询不会再检查
func NewInterceptor(cfg Config, opts ...InterceptorOption) (*Interceptor, error) {
	cfg.fillDefaults()
	res := &Interceptor{
		countSuffix: cfg.CountSuffix,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(res)
	}

	if res.countCache == nil {
		c, err := cache.New(cfg.cacheOptions())
		if err != nil {
			return nil, err
		}
		res.countCache = c
		res.ownCache = true
	}
	res.msCountCache = NewStatementCache(res.countCache, res.logger)

	if res.dialect == nil {
		d, err := newDialect(cfg, res.logger)
		if err != nil {
			return nil, err
		}
		res.dialect = d
	}
	return res, nil
}

// MustNewInterceptor 配置错误时 panic
func MustNewInterceptor(cfg Config, opts ...InterceptorOption) *Interceptor {
	res, err := NewInterceptor(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return res
}

// Close 关闭按配置创建的 count 缓存, 例如 map 缓存的过期清理协程.
// 通过 InterceptorWithCountCache 传入的缓存由调用方自己关闭
func (i *Interceptor) Close() error {
	if !i.ownCache {
		return nil
	}
	if c, ok := i.countCache.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Build 只处理 SELECT, count 和分页查询交给 next 执行, 不会再经过这个中间件
func (i *Interceptor) Build() orm.Middleware {
	return func(next orm.Handler) orm.Handler {
		return func(ctx context.Context, qc *orm.QueryContext) *orm.QueryResult {
			if qc.Type != orm.TypeSelect {
				return next(ctx, qc)
			}
			return i.intercept(ctx, qc, next)
		}
	}
}

func (i *Interceptor) intercept(ctx context.Context, qc *orm.QueryContext, next orm.Handler) *orm.QueryResult {
	ctx = withCall(ctx, qc.DataSource)
	// 不管成功还是失败, 分页参数都只能用一次
	defer i.dialect.AfterAll(ctx)

	if err := qc.Prepare(); err != nil {
		return &orm.QueryResult{Err: err}
	}
	st, param, bounds := qc.Statement, qc.Param, qc.RowBounds
	skip, err := i.dialect.Skip(ctx, st, param, bounds)
	if err != nil {
		return &orm.QueryResult{Err: err}
	}
	if skip {
		// 不分页时 RowBounds 由 orm 在内存中处理
		return next(ctx, qc)
	}

	if i.dialect.BeforeCount(ctx, st, param, bounds) {
		count, err := i.count(ctx, qc, next)
		if err != nil {
			return &orm.QueryResult{Err: err}
		}
		if !i.dialect.AfterCount(ctx, count, param, bounds) {
			return &orm.QueryResult{Result: i.dialect.AfterPage(ctx, []any{}, param, bounds)}
		}
	}

	rows, err := i.pageQuery(ctx, qc, next)
	if err != nil {
		return &orm.QueryResult{Err: err}
	}
	return &orm.QueryResult{Result: i.dialect.AfterPage(ctx, rows, param, bounds)}
}

// count 优先使用手写的 <id>_COUNT 语句, 没有就自动生成
func (i *Interceptor) count(ctx context.Context, qc *orm.QueryContext, next orm.Handler) (int64, error) {
	countID := qc.Statement.ID + i.countSuffix
	if qc.Configuration != nil {
		if countSt, ok := qc.Configuration.Statement(countID); ok {
			i.logger.Debug("pagehelper: 使用手写的 count 语句", zap.String("statement", countID))
			sub := qc.WithStatement(countSt, nil, nil, orm.NoRowBounds)
			if err := sub.Prepare(); err != nil {
				return 0, err
			}
			return countResult(countID, next(ctx, sub))
		}
	}

	countSt, err := i.msCountCache.GetOrCreate(ctx, countID, func() (*orm.Statement, error) {
		return newCountStatement(qc.Statement, countID), nil
	})
	if err != nil {
		return 0, err
	}
	countKey := orm.NewCacheKey(countID, 0, orm.NoRowLimit, qc.BoundSQL.SQL)
	for _, arg := range qc.BoundSQL.Args {
		countKey.Update(arg)
	}
	countSQL, err := i.dialect.CountSQL(ctx, qc.Statement, qc.BoundSQL, qc.Param, qc.RowBounds, countKey)
	if err != nil {
		return 0, err
	}
	i.logger.Debug("pagehelper: count 查询", zap.String("statement", countID), zap.String("sql", countSQL))
	countBound := qc.BoundSQL.Clone()
	countBound.SQL = countSQL
	return countResult(countID, next(ctx, qc.WithStatement(countSt, countBound, countKey, orm.NoRowBounds)))
}

// pageQuery BeforePage 返回 false 时执行不分页的原查询
func (i *Interceptor) pageQuery(ctx context.Context, qc *orm.QueryContext, next orm.Handler) ([]any, error) {
	st := qc.Statement
	var sub *orm.QueryContext
	if i.dialect.BeforePage(ctx, st, qc.Param, qc.RowBounds) {
		pageBound := qc.BoundSQL.Clone()
		pageKey := qc.CacheKey.Clone()
		param := i.dialect.ProcessParameterObject(ctx, st, qc.Param, pageBound, pageKey)
		pageSQL, err := i.dialect.PageSQL(ctx, st, pageBound, param, qc.RowBounds, pageKey)
		if err != nil {
			return nil, err
		}
		i.logger.Debug("pagehelper: 分页查询", zap.String("statement", st.ID), zap.String("sql", pageSQL))
		pageBound.SQL = pageSQL
		sub = qc.WithStatement(st, pageBound, pageKey, orm.NoRowBounds)
		sub.Param = param
	} else {
		sub = qc.WithStatement(st, qc.BoundSQL, qc.CacheKey, orm.NoRowBounds)
	}
	res := next(ctx, sub)
	if res.Err != nil {
		return nil, res.Err
	}
	return resultRows(res.Result)
}

func resultRows(res any) ([]any, error) {
	switch v := res.(type) {
	case nil:
		return []any{}, nil
	case []any:
		return v, nil
	case orm.Rows:
		return v.Rows(), nil
	default:
		return nil, fmt.Errorf("pagehelper: 不支持的查询结果类型 %T", res)
	}
}

// countResult 手写的 count 语句可能返回 map, 只取唯一的一列
func countResult(id string, res *orm.QueryResult) (int64, error) {
	if res.Err != nil {
		return 0, res.Err
	}
	rows, err := resultRows(res.Result)
	if err != nil {
		return 0, err
	}
	if len(rows) != 1 {
		return 0, errs.NewErrCountResult(id, len(rows))
	}
	val := rows[0]
	if m, ok := val.(map[string]any); ok {
		if len(m) != 1 {
			return 0, errs.NewErrCountResult(id, m)
		}
		for _, v := range m {
			val = v
		}
	}
	count, err := cast.ToInt64E(val)
	if err != nil {
		return 0, errs.NewErrCountResult(id, val)
	}
	return count, nil
}
