package opentelemetry

import (
	"context"
	"fmt"

	"github.com/startdusk/pagehelper/orm"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/startdusk/pagehelper/orm/middleware/opentelemetry"

// MiddlewareBuilder 每执行一条语句创建一个 span
// 放在分页拦截器后面时, count 查询和分页查询各有一个 span
type MiddlewareBuilder struct {
	Tracer trace.Tracer
}

func (m MiddlewareBuilder) Build() orm.Middleware {
	if m.Tracer == nil {
		m.Tracer = otel.GetTracerProvider().Tracer(instrumentationName)
	}
	return func(next orm.Handler) orm.Handler {
		return func(ctx context.Context, qc *orm.QueryContext) *orm.QueryResult {
			// span name: SELECT-users.list
			spanCtx, span := m.Tracer.Start(ctx, fmt.Sprintf("%s-%s", qc.Type, qc.Statement.ID),
				trace.WithSpanKind(trace.SpanKindClient))
			defer span.End()

			// 不记录参数, 参数里可能有敏感数据
			span.SetAttributes(
				attribute.String("component", "orm"),
				attribute.String("statement", qc.Statement.ID),
				attribute.String("db.system", qc.DataSource.DriverName),
			)
			if !orm.IsNoRowBounds(qc.RowBounds) {
				span.SetAttributes(
					attribute.Int("row_bounds.offset", qc.RowBounds.Offset()),
					attribute.Int("row_bounds.limit", qc.RowBounds.Limit()),
				)
			}

			res := next(spanCtx, qc)
			// BoundSQL 可能在下游才生成
			if qc.BoundSQL != nil {
				span.SetAttributes(attribute.String("sql", qc.BoundSQL.SQL))
			}
			if res.Err != nil {
				span.RecordError(res.Err)
				span.SetStatus(codes.Error, res.Err.Error())
				return res
			}
			if n, ok := rowCount(res.Result); ok {
				span.SetAttributes(attribute.Int("rows", n))
			}
			return res
		}
	}
}

func rowCount(result any) (int, bool) {
	switch rows := result.(type) {
	case []any:
		return len(rows), true
	case orm.Rows:
		return len(rows.Rows()), true
	default:
		return 0, false
	}
}
