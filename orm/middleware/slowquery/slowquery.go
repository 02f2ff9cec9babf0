package slowquery

import (
	"context"
	"time"

	"github.com/startdusk/pagehelper/orm"
	"go.uber.org/zap"
)

type MiddlewareBuilder struct {
	logger *zap.Logger
	// 慢查询阈值, 需要考虑公司实际情况, 如100ms
	threshold time.Duration
	// logFunc 不为 nil 时替代 logger
	logFunc func(id string, query string, duration time.Duration)
}

func NewMiddlewareBuilder(threshold time.Duration, logger *zap.Logger) *MiddlewareBuilder {
	return &MiddlewareBuilder{
		logger:    logger,
		threshold: threshold,
	}
}

func (m *MiddlewareBuilder) LogFunc(fn func(id string, query string, duration time.Duration)) *MiddlewareBuilder {
	m.logFunc = fn
	return m
}

func (m MiddlewareBuilder) Build() orm.Middleware {
	return func(next orm.Handler) orm.Handler {
		return func(ctx context.Context, qc *orm.QueryContext) *orm.QueryResult {
			startTime := time.Now()
			defer func() {
				duration := time.Since(startTime)
				if duration <= m.threshold {
					return
				}
				// BoundSQL 可能被后面的中间件替换过, 记录的是最终执行的 SQL
				var query string
				if qc.BoundSQL != nil {
					query = qc.BoundSQL.SQL
				}
				if m.logFunc != nil {
					m.logFunc(qc.Statement.ID, query, duration)
					return
				}
				if m.logger != nil {
					m.logger.Warn("orm: 慢查询",
						zap.String("statement", qc.Statement.ID),
						zap.String("sql", query),
						zap.Duration("duration", duration))
				}
			}()

			// 不调用next就是dry run
			return next(ctx, qc)
		}
	}
}
