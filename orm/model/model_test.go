package model

import (
	"database/sql"
	"reflect"
	"testing"

	"github.com/startdusk/pagehelper/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_RegistryGet(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string

		entity    any
		wantModel *Model
		wantErr   error

		fields []*Field
	}{
		{
			name:   "test pointer model",
			entity: &TestModel{},
			wantModel: &Model{
				TableName: "test_model",
			},
			fields: []*Field{
				{
					ColName: "id",
					GoName:  "ID",
					Type:    reflect.TypeOf(int64(0)),
				},
				{
					ColName: "first_name",
					GoName:  "FirstName",
					Type:    reflect.TypeOf(""),
					Offset:  8,
				},
				{
					ColName: "age",
					GoName:  "Age",
					Type:    reflect.TypeOf(int8(0)),
					Offset:  24,
				},
				{
					ColName: "last_name",
					GoName:  "LastName",
					Type:    reflect.TypeOf(&sql.NullString{}),
					Offset:  32,
				},
			},
		},
		{
			name: "tag",
			entity: func() any {
				type TagTable struct {
					FirstName string `orm:"column=first_name_t"`
				}
				return &TagTable{}
			}(),
			wantModel: &Model{
				TableName: "tag_table",
			},
			fields: []*Field{
				{
					ColName: "first_name_t",
					GoName:  "FirstName",
					Type:    reflect.TypeOf(""),
				},
			},
		},
		{
			name: "empty column",
			entity: func() any {
				type TagTable struct {
					FirstName string `orm:"column="`
				}
				return &TagTable{}
			}(),
			wantModel: &Model{
				TableName: "tag_table",
			},
			fields: []*Field{
				{
					ColName: "first_name",
					GoName:  "FirstName",
					Type:    reflect.TypeOf(""),
				},
			},
		},
		{
			name: "initialism",
			entity: func() any {
				type UserID struct {
					OrderID int64
				}
				return &UserID{}
			}(),
			wantModel: &Model{
				TableName: "user_id",
			},
			fields: []*Field{
				{
					ColName: "order_id",
					GoName:  "OrderID",
					Type:    reflect.TypeOf(int64(0)),
				},
			},
		},
		{
			name: "invalid column",
			entity: func() any {
				type TagTable struct {
					FirstName string `orm:"column"`
				}
				return &TagTable{}
			}(),
			wantErr: errs.NewErrInvalidTagContent("column"),
		},
		{
			name:    "test struct model",
			entity:  TestModel{},
			wantErr: errs.ErrPointerOnly,
		},
		{
			name:    "map",
			entity:  map[string]string{"1": "1"},
			wantErr: errs.ErrPointerOnly,
		},
		{
			name:    "nil",
			entity:  nil,
			wantErr: errs.ErrPointerOnly,
		},
	}

	r := NewRegistry().(*registry)
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			m, err := r.Get(c.entity)
			assert.Equal(t, c.wantErr, err)
			if err != nil {
				return
			}

			fieldMap := make(map[string]*Field)
			columnMap := make(map[string]*Field)
			for _, field := range c.fields {
				fieldMap[field.GoName] = field
				columnMap[field.ColName] = field
			}
			c.wantModel.FieldMap = fieldMap
			c.wantModel.ColumnMap = columnMap
			assert.Equal(t, c.wantModel, m)

			// 第二次直接从缓存里面拿
			typ := reflect.TypeOf(c.entity)
			cached, ok := r.models[typ]
			assert.True(t, ok)
			assert.Same(t, m, cached)
		})
	}
}

type TestModel struct {
	ID        int64
	FirstName string
	Age       int8
	LastName  *sql.NullString
}

func TestModel_FieldByColumn(t *testing.T) {
	type Order struct {
		ID      int64
		BuyerID int64 `orm:"column=buyer"`
	}
	m, err := NewRegistry().Get(&Order{})
	require.NoError(t, err)

	cases := []struct {
		name   string
		col    string
		wantGo string
	}{
		{name: "exact", col: "id", wantGo: "ID"},
		{name: "tag", col: "buyer", wantGo: "BuyerID"},
		{name: "upper case", col: "BUYER", wantGo: "BuyerID"},
		{name: "unknown", col: "ROW_ID"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			fd, ok := m.FieldByColumn(c.col)
			if c.wantGo == "" {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, c.wantGo, fd.GoName)
		})
	}
}
