package orm

import (
	"fmt"
	"strings"
)

// CacheKey 标识一次查询, 由语句 id, RowBounds, SQL 和参数组成
// 同一条语句的不同分页必须得到不同的 CacheKey
type CacheKey struct {
	parts []any
}

func NewCacheKey(parts ...any) *CacheKey {
	res := &CacheKey{
		parts: make([]any, 0, len(parts)+4),
	}
	res.parts = append(res.parts, parts...)
	return res
}

// Update 追加组成部分
func (k *CacheKey) Update(part any) {
	k.parts = append(k.parts, part)
}

func (k *CacheKey) Clone() *CacheKey {
	return NewCacheKey(k.parts...)
}

func (k *CacheKey) String() string {
	var sb strings.Builder
	for i, p := range k.parts {
		if i > 0 {
			sb.WriteByte(':')
		}
		sb.WriteString(fmt.Sprint(p))
	}
	return sb.String()
}
