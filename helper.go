package pagehelper

import (
	"context"
	"strings"

	"github.com/startdusk/pagehelper/internal/countsql"
	"github.com/startdusk/pagehelper/internal/errs"
	"github.com/startdusk/pagehelper/orm"
	"go.uber.org/zap"
)

var _ Dialect = &Helper{}

// Helper 是默认的 Dialect, 负责找分页参数和选择数据库方言
// 真正生成 SQL 的是每次查询选出来的 HelperDialect
type Helper struct {
	params      *pageParams
	auto        *autoDialect
	countSuffix string
}

// NewHelper 配置有问题时返回错误, 例如未知的方言或者非法的聚合函数名
func NewHelper(cfg Config, logger *zap.Logger) (*Helper, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	parser := countsql.NewParser()
	if err := parser.AddAggregateFunctions(cfg.AggregateFunctions); err != nil {
		return nil, err
	}
	params, err := newPageParams(cfg, logger)
	if err != nil {
		return nil, err
	}
	auto, err := newAutoDialect(cfg, parser, logger)
	if err != nil {
		return nil, err
	}
	return &Helper{
		params:      params,
		auto:        auto,
		countSuffix: cfg.CountSuffix,
	}, nil
}

func (h *Helper) Skip(ctx context.Context, st *orm.Statement, param any, bounds orm.RowBounds) (bool, error) {
	page := h.params.getPage(ctx, param, bounds)
	if page == nil {
		return true, nil
	}
	// count 语句又进了分页流程, 说明叠加了多个分页拦截器
	if strings.HasSuffix(st.ID, h.countSuffix) {
		return false, errs.NewErrMultiplePagination(st.ID)
	}
	if err := h.auto.initDelegate(ctx, st); err != nil {
		return false, err
	}
	return false, nil
}

func (h *Helper) BeforeCount(ctx context.Context, st *orm.Statement, param any, bounds orm.RowBounds) bool {
	return h.auto.delegate(ctx).BeforeCount(ctx, st, param, bounds)
}

func (h *Helper) CountSQL(ctx context.Context, st *orm.Statement, bound *orm.BoundSQL,
	param any, bounds orm.RowBounds, key *orm.CacheKey) (string, error) {
	return h.auto.delegate(ctx).CountSQL(ctx, st, bound, param, bounds, key)
}

func (h *Helper) AfterCount(ctx context.Context, count int64, param any, bounds orm.RowBounds) bool {
	return h.auto.delegate(ctx).AfterCount(ctx, count, param, bounds)
}

func (h *Helper) ProcessParameterObject(ctx context.Context, st *orm.Statement, param any,
	bound *orm.BoundSQL, key *orm.CacheKey) any {
	return h.auto.delegate(ctx).ProcessParameterObject(ctx, st, param, bound, key)
}

func (h *Helper) BeforePage(ctx context.Context, st *orm.Statement, param any, bounds orm.RowBounds) bool {
	return h.auto.delegate(ctx).BeforePage(ctx, st, param, bounds)
}

func (h *Helper) PageSQL(ctx context.Context, st *orm.Statement, bound *orm.BoundSQL,
	param any, bounds orm.RowBounds, key *orm.CacheKey) (string, error) {
	return h.auto.delegate(ctx).PageSQL(ctx, st, bound, param, bounds, key)
}

// AfterPage 不分页时也会调用
func (h *Helper) AfterPage(ctx context.Context, rows []any, param any, bounds orm.RowBounds) any {
	delegate := h.auto.delegate(ctx)
	if delegate == nil {
		return rows
	}
	return delegate.AfterPage(ctx, rows, param, bounds)
}

// AfterAll 不分页时也会调用, 分页参数只能使用一次
func (h *Helper) AfterAll(ctx context.Context) {
	if delegate := h.auto.delegate(ctx); delegate != nil {
		delegate.AfterAll(ctx)
		h.auto.clearDelegate(ctx)
	}
	ClearPage(ctx)
}
