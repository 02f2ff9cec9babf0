package valuer

import (
	"database/sql"
	"reflect"
	"unsafe"

	"github.com/startdusk/pagehelper/orm/model"
)

// unsafeValue 按偏移量直接定位字段, 省掉 FieldByName 的查找
type unsafeValue struct {
	model *model.Model
	// address 结构体的起始地址
	address unsafe.Pointer
}

var _ Creator = NewUnsafeValue

func NewUnsafeValue(model *model.Model, entity any) Value {
	return unsafeValue{
		model:   model,
		address: reflect.ValueOf(entity).UnsafePointer(),
	}
}

func (u unsafeValue) SetColumns(rows *sql.Rows) error {
	columns, err := rows.Columns()
	if err != nil {
		return err
	}
	vals, fields := scanTargets(u.model, columns)
	if err = rows.Scan(vals...); err != nil {
		return err
	}
	for i, fd := range fields {
		if fd == nil {
			continue
		}
		val, ok := scanned(vals[i])
		if !ok {
			continue
		}
		fdAddress := unsafe.Add(u.address, fd.Offset)
		reflect.NewAt(fd.Type, fdAddress).Elem().Set(val)
	}
	return rows.Err()
}
