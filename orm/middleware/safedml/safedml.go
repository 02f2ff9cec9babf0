package safedml

import (
	"context"
	"fmt"
	"strings"

	"github.com/startdusk/pagehelper/orm"
	"go.uber.org/zap"
)

// MiddlewareBuilder 拦截危险的写语句
// 1. UPDATE, DELETE 必须带 WHERE
// 2. 禁用 DELETE 之后所有 DELETE 都会被拦截
type MiddlewareBuilder struct {
	logger        *zap.Logger
	disableDelete bool
}

func NewMiddlewareBuilder(logger *zap.Logger) *MiddlewareBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MiddlewareBuilder{
		logger: logger,
	}
}

func (m *MiddlewareBuilder) DisableDelete() *MiddlewareBuilder {
	m.disableDelete = true
	return m
}

func (m *MiddlewareBuilder) Build() orm.Middleware {
	return func(next orm.Handler) orm.Handler {
		return func(ctx context.Context, qc *orm.QueryContext) *orm.QueryResult {
			if qc.Type != orm.TypeExec {
				return next(ctx, qc)
			}
			if err := qc.Prepare(); err != nil {
				return &orm.QueryResult{
					Err: err,
				}
			}
			if err := m.check(qc.BoundSQL.SQL); err != nil {
				m.logger.Warn("orm: 拦截写语句",
					zap.String("statement", qc.Statement.ID), zap.Error(err))
				return &orm.QueryResult{
					Err: err,
				}
			}
			return next(ctx, qc)
		}
	}
}

func (m *MiddlewareBuilder) check(sql string) error {
	words := strings.Fields(strings.ToUpper(sql))
	if len(words) == 0 {
		return nil
	}
	typ := words[0]
	if typ != "UPDATE" && typ != "DELETE" {
		return nil
	}
	if typ == "DELETE" && m.disableDelete {
		return fmt.Errorf("%w: 禁止使用 DELETE 语句", ErrUnsafeDML)
	}
	for _, w := range words[1:] {
		if w == "WHERE" {
			return nil
		}
	}
	return fmt.Errorf("%w: 禁止执行没有 WHERE 的 %s 语句", ErrUnsafeDML, typ)
}
