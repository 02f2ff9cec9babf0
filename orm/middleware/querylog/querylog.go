package querylog

import (
	"context"

	"github.com/startdusk/pagehelper/orm"
	"go.uber.org/zap"
)

type MiddlewareBuilder struct {
	logger *zap.Logger
	// SQL 参数里可能有敏感数据, 默认不打印
	logArgs bool
	// logFunc 不为 nil 时替代 logger
	logFunc func(id string, query string, args []any)
}

func NewMiddlewareBuilder(logger *zap.Logger) *MiddlewareBuilder {
	return &MiddlewareBuilder{
		logger: logger,
	}
}

func (m *MiddlewareBuilder) LogArgs() *MiddlewareBuilder {
	m.logArgs = true
	return m
}

func (m *MiddlewareBuilder) LogFunc(fn func(id string, query string, args []any)) *MiddlewareBuilder {
	m.logFunc = fn
	return m
}

func (m MiddlewareBuilder) Build() orm.Middleware {
	return func(next orm.Handler) orm.Handler {
		return func(ctx context.Context, qc *orm.QueryContext) *orm.QueryResult {
			if err := qc.Prepare(); err != nil {
				return &orm.QueryResult{
					Err: err,
				}
			}
			m.log(qc)
			return next(ctx, qc)
		}
	}
}

func (m MiddlewareBuilder) log(qc *orm.QueryContext) {
	if m.logFunc != nil {
		m.logFunc(qc.Statement.ID, qc.BoundSQL.SQL, qc.BoundSQL.Args)
		return
	}
	if m.logger == nil {
		return
	}
	fields := []zap.Field{
		zap.String("type", qc.Type),
		zap.String("statement", qc.Statement.ID),
		zap.String("sql", qc.BoundSQL.SQL),
	}
	if m.logArgs {
		fields = append(fields, zap.Any("args", qc.BoundSQL.Args))
	}
	m.logger.Debug("orm: 执行语句", fields...)
}
