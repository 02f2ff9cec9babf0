package valuer

import (
	"database/sql"
	"reflect"

	"github.com/startdusk/pagehelper/orm/model"
)

// Value 是对结构体实例的内部抽象
type Value interface {
	// SetColumns 把当前行的数据写到结构体上
	// 结构体上没有的列会被丢弃, 例如分页包装出来的行号列
	// 值为 NULL 的列保留字段的零值
	SetColumns(rows *sql.Rows) error
}

type Creator func(model *model.Model, entity any) Value

// scanTargets 按列的顺序准备接收变量, fields[i] 为 nil 代表这一列被丢弃
func scanTargets(m *model.Model, columns []string) ([]any, []*model.Field) {
	vals := make([]any, len(columns))
	fields := make([]*model.Field, len(columns))
	for i, col := range columns {
		fd, ok := m.FieldByColumn(col)
		if !ok {
			vals[i] = new(any)
			continue
		}
		fields[i] = fd
		// **T, 扫到 NULL 时指针为 nil
		vals[i] = reflect.New(reflect.PointerTo(fd.Type)).Interface()
	}
	return vals, fields
}

// scanned 返回扫描到的值, NULL 返回 false
func scanned(val any) (reflect.Value, bool) {
	ptr := reflect.ValueOf(val).Elem()
	if ptr.IsNil() {
		return reflect.Value{}, false
	}
	return ptr.Elem(), true
}
