package orm

import (
	"math"
)

// NoRowLimit 代表不限制行数
const NoRowLimit = math.MaxInt32

// RowBounds 查询时跳过 Offset 行, 最多返回 Limit 行
type RowBounds interface {
	Offset() int
	Limit() int
}

// NoRowBounds 代表调用方没有传入 RowBounds, 只能用 == 比较
var NoRowBounds RowBounds = &DefaultRowBounds{offset: 0, limit: NoRowLimit}

type DefaultRowBounds struct {
	offset int
	limit  int
}

func NewRowBounds(offset int, limit int) *DefaultRowBounds {
	return &DefaultRowBounds{
		offset: offset,
		limit:  limit,
	}
}

func (r *DefaultRowBounds) Offset() int {
	return r.offset
}

func (r *DefaultRowBounds) Limit() int {
	return r.limit
}

// IsNoRowBounds nil 也当作没有传
func IsNoRowBounds(bounds RowBounds) bool {
	return bounds == nil || bounds == NoRowBounds
}
