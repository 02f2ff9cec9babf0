package orm

import (
	"database/sql"

	"github.com/startdusk/pagehelper/orm/internal/valuer"
	"github.com/startdusk/pagehelper/orm/model"
)

// ResultMapper 把 rows 的当前行映射成一个结果
type ResultMapper interface {
	MapRow(rows *sql.Rows) (any, error)
}

var _ ResultMapper = MapMapper{}

// MapMapper 每行映射成 列名 -> 值, []byte 转成 string
type MapMapper struct{}

func (MapMapper) MapRow(rows *sql.Rows) (any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	vals := make([]any, len(columns))
	for i := range vals {
		vals[i] = new(any)
	}
	if err = rows.Scan(vals...); err != nil {
		return nil, err
	}
	res := make(map[string]any, len(columns))
	for i, col := range columns {
		val := *(vals[i].(*any))
		if bs, ok := val.([]byte); ok {
			val = string(bs)
		}
		res[col] = val
	}
	return res, nil
}

// Int64Mapper count 语句使用的结果映射
var Int64Mapper ResultMapper = ScalarMapper[int64]{}

// ScalarMapper 只取第一列
type ScalarMapper[T any] struct{}

func (ScalarMapper[T]) MapRow(rows *sql.Rows) (any, error) {
	var val T
	if err := rows.Scan(&val); err != nil {
		return nil, err
	}
	return val, nil
}

type StructMapperOption func(m *structMapper)

// StructMapperUseReflect 用反射代替 unsafe 给字段赋值
func StructMapperUseReflect() StructMapperOption {
	return func(m *structMapper) {
		m.creator = valuer.NewReflectValue
	}
}

func StructMapperWithRegistry(r model.Registry) StructMapperOption {
	return func(m *structMapper) {
		m.r = r
	}
}

type structMapper struct {
	newEntity func() any
	r         model.Registry
	creator   valuer.Creator
}

// NewStructMapper 每行映射成 *T, 列名按 orm 标签或者字段名的下划线形式匹配
func NewStructMapper[T any](opts ...StructMapperOption) ResultMapper {
	m := &structMapper{
		newEntity: func() any { return new(T) },
		r:         defaultRegistry,
		creator:   valuer.NewUnsafeValue,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (s *structMapper) MapRow(rows *sql.Rows) (any, error) {
	entity := s.newEntity()
	m, err := s.r.Get(entity)
	if err != nil {
		return nil, err
	}
	if err = s.creator(m, entity).SetColumns(rows); err != nil {
		return nil, err
	}
	return entity, nil
}
