package pagehelper

import (
	"github.com/startdusk/pagehelper/orm"
)

var _ orm.RowBounds = &PageRowBounds{}

// PageRowBounds 可以单独控制是否 count, 查询结束后 Total 是 count 的结果
type PageRowBounds struct {
	offset int
	limit  int

	// Count 为 nil 时执行 count 查询
	Count *bool
	Total int64
}

func NewPageRowBounds(offset int, limit int) *PageRowBounds {
	return &PageRowBounds{
		offset: offset,
		limit:  limit,
	}
}

func (p *PageRowBounds) Offset() int {
	return p.offset
}

func (p *PageRowBounds) Limit() int {
	return p.limit
}
