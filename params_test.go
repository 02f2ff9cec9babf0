package pagehelper

import (
	"context"
	"testing"

	"github.com/samber/lo"
	"github.com/startdusk/pagehelper/orm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type userQuery struct {
	Name     string
	PageNum  int
	PageSize int
	OrderBy  string
}

type pageableQuery struct {
	num, size int
	orderBy   string
}

func (p pageableQuery) Pagination() (int, int, string) {
	return p.num, p.size, p.orderBy
}

func Test_pageParams_getPage(t *testing.T) {
	cases := []struct {
		name   string
		cfg    func(cfg *Config)
		ctx    func() context.Context
		param  any
		bounds orm.RowBounds

		wantNil        bool
		wantPageNum    int
		wantPageSize   int
		wantStartRow   int
		wantCount      bool
		wantReasonable bool
		wantOrderBy    string
		wantOrderOnly  bool
	}{
		{
			name:    "no pagination",
			param:   map[string]any{"pageNum": 1, "pageSize": 10},
			wantNil: true,
		},
		{
			name: "local page first",
			ctx: func() context.Context {
				ctx, _ := StartPage(context.Background(), 2, 20)
				return ctx
			},
			bounds:       orm.NewRowBounds(0, 5),
			wantPageNum:  2,
			wantPageSize: 20,
			wantStartRow: 20,
			wantCount:    true,
		},
		{
			name:         "offset to page",
			bounds:       orm.NewRowBounds(20, 10),
			wantPageNum:  3,
			wantPageSize: 10,
			wantStartRow: 20,
		},
		{
			name: "offset to page ignores reasonable",
			cfg: func(cfg *Config) {
				cfg.Reasonable = true
				cfg.RowBoundsWithCount = true
			},
			bounds:       orm.NewRowBounds(20, 10),
			wantPageNum:  3,
			wantPageSize: 10,
			wantStartRow: 20,
			wantCount:    true,
		},
		{
			name: "offset as page num",
			cfg: func(cfg *Config) {
				cfg.OffsetAsPageNum = true
				cfg.Reasonable = true
			},
			bounds:         orm.NewRowBounds(2, 10),
			wantPageNum:    2,
			wantPageSize:   10,
			wantStartRow:   10,
			wantReasonable: true,
		},
		{
			name:         "page row bounds counts by default",
			bounds:       NewPageRowBounds(0, 10),
			wantPageNum:  1,
			wantPageSize: 10,
			wantCount:    true,
		},
		{
			name: "page row bounds without count",
			bounds: &PageRowBounds{
				offset: 0,
				limit:  10,
				Count:  lo.ToPtr(false),
			},
			wantPageNum:  1,
			wantPageSize: 10,
		},
		{
			name:         "pageable",
			param:        pageableQuery{num: 3, size: 5, orderBy: "id"},
			wantPageNum:  3,
			wantPageSize: 5,
			wantStartRow: 10,
			wantCount:    true,
			wantOrderBy:  "id",
		},
		{
			name:          "pageable order by only",
			param:         pageableQuery{orderBy: "id"},
			wantPageNum:   1,
			wantOrderBy:   "id",
			wantOrderOnly: true,
		},
		{
			name:    "pageable without anything",
			param:   pageableQuery{},
			wantNil: true,
		},
		{
			name: "map arguments",
			cfg: func(cfg *Config) {
				cfg.SupportMethodsArguments = true
			},
			param: map[string]any{
				"pageNum":    "2",
				"pageSize":   10,
				"countSql":   "false",
				"reasonable": true,
			},
			wantPageNum:    2,
			wantPageSize:   10,
			wantStartRow:   10,
			wantReasonable: true,
		},
		{
			name: "struct arguments",
			cfg: func(cfg *Config) {
				cfg.SupportMethodsArguments = true
			},
			param:        &userQuery{Name: "Tom", PageNum: 2, PageSize: 5, OrderBy: "name"},
			wantPageNum:  2,
			wantPageSize: 5,
			wantStartRow: 5,
			wantCount:    true,
			wantOrderBy:  "name",
		},
		{
			name: "renamed params",
			cfg: func(cfg *Config) {
				cfg.SupportMethodsArguments = true
				cfg.Params = "pageNum=pn;pageSize=ps"
			},
			param:        map[string]any{"pn": 4, "ps": 5},
			wantPageNum:  4,
			wantPageSize: 5,
			wantStartRow: 15,
			wantCount:    true,
		},
		{
			name: "missing page size",
			cfg: func(cfg *Config) {
				cfg.SupportMethodsArguments = true
			},
			param:   map[string]any{"pageNum": 1},
			wantNil: true,
		},
		{
			name: "scalar argument",
			cfg: func(cfg *Config) {
				cfg.SupportMethodsArguments = true
			},
			param:   12,
			wantNil: true,
		},
		{
			name: "bad number fails soft",
			cfg: func(cfg *Config) {
				cfg.SupportMethodsArguments = true
			},
			param:   map[string]any{"pageNum": "abc", "pageSize": 10},
			wantNil: true,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := DefaultConfig()
			if c.cfg != nil {
				c.cfg(&cfg)
			}
			p, err := newPageParams(cfg, zap.NewNop())
			require.NoError(t, err)
			ctx := context.Background()
			if c.ctx != nil {
				ctx = c.ctx()
			}
			ctx = withSlot(ctx)
			bounds := c.bounds
			if bounds == nil {
				bounds = orm.NoRowBounds
			}

			page := p.getPage(ctx, c.param, bounds)
			if c.wantNil {
				assert.Nil(t, page)
				assert.Nil(t, LocalPage(ctx))
				return
			}
			require.NotNil(t, page)
			assert.Same(t, page, LocalPage(ctx))
			assert.Equal(t, c.wantPageNum, page.PageNum)
			assert.Equal(t, c.wantPageSize, page.PageSize)
			assert.Equal(t, c.wantStartRow, page.StartRow)
			assert.Equal(t, c.wantCount, page.Count)
			assert.Equal(t, c.wantReasonable, page.isReasonable())
			assert.Equal(t, c.wantOrderBy, page.OrderBy)
			assert.Equal(t, c.wantOrderOnly, page.OrderByOnly)
			assert.Equal(t, cfg.CountColumn, page.CountColumn)
			assert.NotNil(t, page.PageSizeZero)
		})
	}
}

func Test_pageParams_SoftFailureLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	cfg := DefaultConfig()
	cfg.SupportMethodsArguments = true
	p, err := newPageParams(cfg, zap.New(core))
	require.NoError(t, err)

	page := p.getPage(withSlot(context.Background()), map[string]any{"pageNum": 1, "pageSize": "ten"}, orm.NoRowBounds)
	assert.Nil(t, page)
	assert.Equal(t, 1, logs.Len())
}

func Test_parseParams(t *testing.T) {
	params, err := parseParams("pageNum=pn; pageSize=ps&count=c")
	require.NoError(t, err)
	assert.Equal(t, "pn", params[paramPageNum])
	assert.Equal(t, "ps", params[paramPageSize])
	assert.Equal(t, "c", params[paramCount])
	assert.Equal(t, "reasonable", params[paramReasonable])
	// 默认映射不受影响
	assert.Equal(t, "countSql", defaultParams[paramCount])

	_, err = parseParams("pageNum")
	assert.Error(t, err)
}
