package valuer

import (
	"database/sql"
	"reflect"

	"github.com/startdusk/pagehelper/orm/model"
)

type reflectValue struct {
	model *model.Model
	// entity 指向结构体的指针
	entity reflect.Value
}

var _ Creator = NewReflectValue

func NewReflectValue(model *model.Model, entity any) Value {
	return reflectValue{
		model:  model,
		entity: reflect.ValueOf(entity).Elem(),
	}
}

func (r reflectValue) SetColumns(rows *sql.Rows) error {
	columns, err := rows.Columns()
	if err != nil {
		return err
	}
	vals, fields := scanTargets(r.model, columns)
	if err = rows.Scan(vals...); err != nil {
		return err
	}
	for i, fd := range fields {
		if fd == nil {
			continue
		}
		if val, ok := scanned(vals[i]); ok {
			r.entity.FieldByName(fd.GoName).Set(val)
		}
	}
	return rows.Err()
}
