package pagehelper

import (
	"github.com/samber/lo"
	"github.com/startdusk/pagehelper/orm"
)

// TotalUnknown 不做 count 查询时的总数
const TotalUnknown int64 = -1

var _ orm.Rows = &Page{}

// Page 既是分页参数, 也是分页查询的结果
type Page struct {
	// PageNum 从 1 开始
	PageNum  int
	PageSize int
	// StartRow 和 EndRow 由 PageNum 和 PageSize 算出来, 左闭右开
	StartRow int
	EndRow   int

	Total int64
	// Pages 总页数
	Pages int

	// Count 是否执行 count 查询
	Count bool
	// Reasonable 和 PageSizeZero 为 nil 时使用全局配置
	Reasonable   *bool
	PageSizeZero *bool
	// CountColumn 为空时使用全局配置, 默认 COUNT(0)
	CountColumn string
	// OrderBy 替换查询最外层的 ORDER BY
	OrderBy string
	// OrderByOnly 只排序, 不做 count 也不分页
	OrderByOnly bool

	Items []any
}

// NewPage pageNum 为 1 并且 pageSize 为 orm.NoRowLimit 时等同于查询全部
func NewPage(pageNum int, pageSize int, count bool) *Page {
	p := &Page{
		PageNum:  pageNum,
		PageSize: pageSize,
		Count:    count,
	}
	if pageNum == 1 && pageSize == orm.NoRowLimit {
		p.PageSizeZero = lo.ToPtr(true)
		p.PageSize = 0
	}
	p.calculateStartAndEndRow()
	return p
}

// newOffsetPage 把 offset 和 limit 换算成页码, offset 不一定落在页的边界上
func newOffsetPage(offset int, limit int, count bool) *Page {
	p := &Page{
		Count:    count,
		PageNum:  1,
		PageSize: limit,
		StartRow: offset,
		EndRow:   offset + limit,
	}
	if offset == 0 && limit == orm.NoRowLimit {
		p.PageSizeZero = lo.ToPtr(true)
		p.PageSize = 0
		p.EndRow = 0
		return p
	}
	if limit > 0 {
		p.PageNum = (offset+limit-1)/limit + 1
	}
	return p
}

func (p *Page) calculateStartAndEndRow() {
	p.StartRow = 0
	if p.PageNum > 0 {
		p.StartRow = (p.PageNum - 1) * p.PageSize
	}
	p.EndRow = p.StartRow
	if p.PageNum > 0 {
		p.EndRow += p.PageSize
	}
}

// setReasonable 打开合理化时页码最小为 1
func (p *Page) setReasonable(reasonable bool) {
	p.Reasonable = lo.ToPtr(reasonable)
	if reasonable && p.PageNum <= 0 {
		p.PageNum = 1
		p.calculateStartAndEndRow()
	}
}

func (p *Page) isReasonable() bool {
	return p.Reasonable != nil && *p.Reasonable
}

func (p *Page) isPageSizeZero() bool {
	return p.PageSizeZero != nil && *p.PageSizeZero
}

// setTotal 计算总页数, 合理化时把超出范围的页码修正到最后一页
func (p *Page) setTotal(total int64) {
	p.Total = total
	switch {
	case total == TotalUnknown:
		p.Pages = 1
		return
	case p.PageSize > 0:
		p.Pages = int((total + int64(p.PageSize) - 1) / int64(p.PageSize))
	default:
		p.Pages = 0
	}
	if p.isReasonable() && p.PageNum > p.Pages {
		p.PageNum = max(p.Pages, 1)
		p.calculateStartAndEndRow()
	}
}

func (p *Page) Rows() []any {
	return p.Items
}

func (p *Page) HasNextPage() bool {
	return p.PageNum < p.Pages
}

func (p *Page) IsLastPage() bool {
	return p.PageNum >= p.Pages
}

// ItemsOf 把结果转换成具体类型, 类型不符的行会被丢掉
func ItemsOf[T any](p *Page) []T {
	return lo.FilterMap(p.Items, func(item any, _ int) (T, bool) {
		t, ok := item.(T)
		return t, ok
	})
}

// PageOption 设置 StartPage 创建的分页参数
type PageOption func(p *Page)

func PageWithCount(count bool) PageOption {
	return func(p *Page) {
		p.Count = count
	}
}

func PageWithReasonable(reasonable bool) PageOption {
	return func(p *Page) {
		p.setReasonable(reasonable)
	}
}

func PageWithPageSizeZero(pageSizeZero bool) PageOption {
	return func(p *Page) {
		p.PageSizeZero = lo.ToPtr(pageSizeZero)
	}
}

func PageWithOrderBy(orderBy string) PageOption {
	return func(p *Page) {
		p.OrderBy = orderBy
	}
}

func PageWithCountColumn(column string) PageOption {
	return func(p *Page) {
		p.CountColumn = column
	}
}
