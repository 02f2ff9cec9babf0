package pagehelper

import (
	"context"
	"sync/atomic"

	"github.com/startdusk/pagehelper/orm"
)

type slotKey struct{}

// slot 保存当前调用链上生效的分页参数, 只对下一次查询生效
type slot struct {
	page atomic.Pointer[Page]
}

func slotOf(ctx context.Context) *slot {
	s, _ := ctx.Value(slotKey{}).(*slot)
	return s
}

// withSlot ctx 里已经有 slot 时原样返回
func withSlot(ctx context.Context) context.Context {
	if slotOf(ctx) != nil {
		return ctx
	}
	return context.WithValue(ctx, slotKey{}, &slot{})
}

// StartPage 开始分页, 使用返回的 ctx 执行的下一次查询会被分页
// 查询结束后返回的 Page 里有查询结果和总数
func StartPage(ctx context.Context, pageNum int, pageSize int, opts ...PageOption) (context.Context, *Page) {
	page := NewPage(pageNum, pageSize, true)
	for _, opt := range opts {
		opt(page)
	}
	ctx = withSlot(ctx)
	s := slotOf(ctx)
	// 之前调用过 StartOrderBy
	if old := s.page.Load(); old != nil && old.OrderByOnly && page.OrderBy == "" {
		page.OrderBy = old.OrderBy
	}
	s.page.Store(page)
	return ctx, page
}

// StartOffsetPage 按 offset 和 limit 分页, offset 不一定在页的边界上, 所以不支持合理化
func StartOffsetPage(ctx context.Context, offset int, limit int, count bool) (context.Context, *Page) {
	page := newOffsetPage(offset, limit, count)
	page.setReasonable(false)
	ctx = withSlot(ctx)
	slotOf(ctx).page.Store(page)
	return ctx, page
}

// StartOrderBy 只排序, 已经调用过 StartPage 时给它加上排序
func StartOrderBy(ctx context.Context, orderBy string) (context.Context, *Page) {
	ctx = withSlot(ctx)
	s := slotOf(ctx)
	if page := s.page.Load(); page != nil && page.PageSize > 0 {
		page.OrderBy = orderBy
		return ctx, page
	}
	page := &Page{
		PageNum:     1,
		OrderBy:     orderBy,
		OrderByOnly: true,
	}
	s.page.Store(page)
	return ctx, page
}

// LocalPage 返回当前生效的分页参数, 查询执行完之后为 nil
func LocalPage(ctx context.Context) *Page {
	if s := slotOf(ctx); s != nil {
		return s.page.Load()
	}
	return nil
}

// ClearPage 取消还没有被查询使用的分页参数
func ClearPage(ctx context.Context) {
	if s := slotOf(ctx); s != nil {
		s.page.Store(nil)
	}
}

func setLocalPage(ctx context.Context, page *Page) {
	if s := slotOf(ctx); s != nil {
		s.page.Store(page)
	}
}

type callKey struct{}

// call 是一次查询的私有状态, 不会跨查询共享
type call struct {
	source   orm.DataSource
	delegate *HelperDialect
}

func withCall(ctx context.Context, source orm.DataSource) context.Context {
	ctx = withSlot(ctx)
	return context.WithValue(ctx, callKey{}, &call{source: source})
}

func callOf(ctx context.Context) *call {
	c, _ := ctx.Value(callKey{}).(*call)
	return c
}
