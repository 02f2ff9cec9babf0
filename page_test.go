package pagehelper

import (
	"context"
	"sync"
	"testing"

	"github.com/samber/lo"
	"github.com/startdusk/pagehelper/orm"
	"github.com/stretchr/testify/assert"
)

func TestNewPage(t *testing.T) {
	cases := []struct {
		name         string
		pageNum      int
		pageSize     int
		wantStartRow int
		wantEndRow   int
		wantSize     int
		wantZero     bool
	}{
		{
			name:         "first page",
			pageNum:      1,
			pageSize:     10,
			wantStartRow: 0,
			wantEndRow:   10,
			wantSize:     10,
		},
		{
			name:         "second page",
			pageNum:      2,
			pageSize:     10,
			wantStartRow: 10,
			wantEndRow:   20,
			wantSize:     10,
		},
		{
			name:         "zero page num",
			pageNum:      0,
			pageSize:     10,
			wantStartRow: 0,
			wantEndRow:   0,
			wantSize:     10,
		},
		{
			name:     "all rows",
			pageNum:  1,
			pageSize: orm.NoRowLimit,
			wantZero: true,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := NewPage(c.pageNum, c.pageSize, true)
			assert.Equal(t, c.wantStartRow, p.StartRow)
			assert.Equal(t, c.wantEndRow, p.EndRow)
			assert.Equal(t, c.wantSize, p.PageSize)
			assert.Equal(t, c.wantZero, p.isPageSizeZero())
		})
	}
}

func TestNewOffsetPage(t *testing.T) {
	cases := []struct {
		name        string
		offset      int
		limit       int
		wantPageNum int
		wantStart   int
		wantEnd     int
	}{
		{
			name:        "aligned",
			offset:      20,
			limit:       10,
			wantPageNum: 3,
			wantStart:   20,
			wantEnd:     30,
		},
		{
			name:        "not aligned",
			offset:      15,
			limit:       10,
			wantPageNum: 3,
			wantStart:   15,
			wantEnd:     25,
		},
		{
			name:        "offset inside first page",
			offset:      5,
			limit:       10,
			wantPageNum: 2,
			wantStart:   5,
			wantEnd:     15,
		},
		{
			name:        "zero limit",
			offset:      5,
			limit:       0,
			wantPageNum: 1,
			wantStart:   5,
			wantEnd:     5,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := newOffsetPage(c.offset, c.limit, false)
			assert.Equal(t, c.wantPageNum, p.PageNum)
			assert.Equal(t, c.wantStart, p.StartRow)
			assert.Equal(t, c.wantEnd, p.EndRow)
		})
	}
}

func TestPage_setTotal(t *testing.T) {
	cases := []struct {
		name        string
		page        *Page
		reasonable  bool
		total       int64
		wantPages   int
		wantPageNum int
		wantStart   int
	}{
		{
			name:        "in range",
			page:        NewPage(2, 10, true),
			total:       23,
			wantPages:   3,
			wantPageNum: 2,
			wantStart:   10,
		},
		{
			name:        "out of range not reasonable",
			page:        NewPage(5, 10, true),
			total:       23,
			wantPages:   3,
			wantPageNum: 5,
			wantStart:   40,
		},
		{
			name:        "out of range reasonable",
			page:        NewPage(5, 10, true),
			reasonable:  true,
			total:       23,
			wantPages:   3,
			wantPageNum: 3,
			wantStart:   20,
		},
		{
			name:        "empty reasonable",
			page:        NewPage(5, 10, true),
			reasonable:  true,
			total:       0,
			wantPages:   0,
			wantPageNum: 1,
			wantStart:   0,
		},
		{
			name:        "unknown total",
			page:        NewPage(2, 10, false),
			total:       TotalUnknown,
			wantPages:   1,
			wantPageNum: 2,
			wantStart:   10,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			c.page.setReasonable(c.reasonable)
			c.page.setTotal(c.total)
			assert.Equal(t, c.wantPages, c.page.Pages)
			assert.Equal(t, c.wantPageNum, c.page.PageNum)
			assert.Equal(t, c.wantStart, c.page.StartRow)
		})
	}
}

func TestPage_Navigation(t *testing.T) {
	p := NewPage(2, 10, true)
	p.setTotal(23)
	assert.True(t, p.HasNextPage())
	assert.False(t, p.IsLastPage())

	p = NewPage(3, 10, true)
	p.setTotal(23)
	assert.False(t, p.HasNextPage())
	assert.True(t, p.IsLastPage())
}

func TestItemsOf(t *testing.T) {
	p := &Page{Items: []any{int64(1), "a", int64(2)}}
	assert.Equal(t, []int64{1, 2}, ItemsOf[int64](p))
	assert.Equal(t, []any{int64(1), "a", int64(2)}, p.Rows())
}

func TestStartPage(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, LocalPage(ctx))

	ctx, page := StartPage(ctx, 2, 10,
		PageWithCount(false),
		PageWithReasonable(true),
		PageWithPageSizeZero(true),
		PageWithOrderBy("id DESC"),
		PageWithCountColumn("id"))
	assert.Same(t, page, LocalPage(ctx))
	assert.False(t, page.Count)
	assert.True(t, page.isReasonable())
	assert.True(t, page.isPageSizeZero())
	assert.Equal(t, "id DESC", page.OrderBy)
	assert.Equal(t, "id", page.CountColumn)

	// 同一个 ctx 上再次调用会覆盖
	ctx2, page2 := StartPage(ctx, 3, 10)
	assert.Equal(t, ctx, ctx2)
	assert.Same(t, page2, LocalPage(ctx))

	ClearPage(ctx)
	assert.Nil(t, LocalPage(ctx))
}

func TestStartPage_ReasonableFixesPageNum(t *testing.T) {
	_, page := StartPage(context.Background(), 0, 10, PageWithReasonable(true))
	assert.Equal(t, 1, page.PageNum)
	assert.Equal(t, 0, page.StartRow)
	assert.Equal(t, 10, page.EndRow)
}

func TestStartOrderBy(t *testing.T) {
	ctx, page := StartOrderBy(context.Background(), "name")
	assert.True(t, page.OrderByOnly)
	assert.Equal(t, "name", LocalPage(ctx).OrderBy)

	// 先排序后分页, 排序保留下来
	ctx, page = StartPage(ctx, 1, 10)
	assert.False(t, page.OrderByOnly)
	assert.Equal(t, "name", page.OrderBy)

	// 先分页后排序, 直接修改已有的分页参数
	ctx, page2 := StartOrderBy(ctx, "age")
	assert.Same(t, page, page2)
	assert.Equal(t, "age", LocalPage(ctx).OrderBy)
}

func TestStartOffsetPage(t *testing.T) {
	ctx, page := StartOffsetPage(context.Background(), 15, 10, true)
	assert.Same(t, page, LocalPage(ctx))
	assert.Equal(t, 15, page.StartRow)
	assert.False(t, page.isReasonable())
}

func TestStartPage_Isolation(t *testing.T) {
	// 不同调用方的分页参数互不影响
	var wg sync.WaitGroup
	base := context.Background()
	for i := 1; i <= 32; i++ {
		wg.Add(1)
		go func(num int) {
			defer wg.Done()
			ctx, _ := StartPage(base, num, 10)
			page := LocalPage(ctx)
			if !assert.NotNil(t, page) {
				return
			}
			assert.Equal(t, num, page.PageNum)
			ClearPage(ctx)
			assert.Nil(t, LocalPage(ctx))
		}(i)
	}
	wg.Wait()
	assert.Nil(t, LocalPage(base))
}

func TestPageRowBounds(t *testing.T) {
	pb := NewPageRowBounds(10, 5)
	pb.Count = lo.ToPtr(false)
	assert.Equal(t, 10, pb.Offset())
	assert.Equal(t, 5, pb.Limit())
	assert.False(t, orm.IsNoRowBounds(pb))
}
