// Package model 解析结构体的元数据, 用于把查询结果的列映射到结构体字段上
package model

import (
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/startdusk/pagehelper/internal/errs"
)

const (
	tagName       = "orm"
	tagColumnName = "column"
)

type Registry interface {
	Get(val any) (*Model, error)
}

type Model struct {
	TableName string
	// FieldMap 字段名 -> 字段
	FieldMap map[string]*Field
	// ColumnMap 列名 -> 字段
	ColumnMap map[string]*Field
}

// FieldByColumn 先精确匹配列名, 再忽略大小写匹配
// Oracle 和 DB2 不加引号的列名都是大写
func (m *Model) FieldByColumn(col string) (*Field, bool) {
	if fd, ok := m.ColumnMap[col]; ok {
		return fd, true
	}
	for name, fd := range m.ColumnMap {
		if strings.EqualFold(name, col) {
			return fd, true
		}
	}
	return nil, false
}

type Field struct {
	ColName string
	GoName  string
	Type    reflect.Type
	// Offset 字段相对于结构体起始地址的偏移量
	Offset uintptr
}

var _ Registry = &registry{}

// registry 用 reflect.Type 作为 key, 同名的结构体(不同包下)不会冲突
type registry struct {
	models map[reflect.Type]*Model
	lock   sync.RWMutex
}

func NewRegistry() Registry {
	return &registry{
		models: make(map[reflect.Type]*Model, 64),
	}
}

func (r *registry) Get(val any) (*Model, error) {
	typ := reflect.TypeOf(val)
	r.lock.RLock()
	m, ok := r.models[typ]
	r.lock.RUnlock()
	if ok {
		return m, nil
	}

	r.lock.Lock()
	defer r.lock.Unlock()
	// double check, 保证同一个类型只解析一次
	m, ok = r.models[typ]
	if ok {
		return m, nil
	}
	m, err := r.parseModel(val)
	if err != nil {
		return nil, err
	}
	r.models[typ] = m
	return m, nil
}

// parseModel 只支持指向结构体的一级指针
func (r *registry) parseModel(entity any) (*Model, error) {
	typ := reflect.TypeOf(entity)
	if typ == nil || typ.Kind() != reflect.Ptr || typ.Elem().Kind() != reflect.Struct {
		return nil, errs.ErrPointerOnly
	}
	typ = typ.Elem()
	numField := typ.NumField()
	fieldMap := make(map[string]*Field, numField)
	columnMap := make(map[string]*Field, numField)
	for i := 0; i < numField; i++ {
		fd := typ.Field(i)
		pair, err := r.parseTag(fd.Tag)
		if err != nil {
			return nil, err
		}
		colName := pair[tagColumnName]
		if colName == "" {
			colName = underscoreName(fd.Name)
		}
		f := &Field{
			ColName: colName,
			GoName:  fd.Name,
			Type:    fd.Type,
			Offset:  fd.Offset,
		}
		fieldMap[fd.Name] = f
		columnMap[colName] = f
	}

	return &Model{
		TableName: underscoreName(typ.Name()),
		FieldMap:  fieldMap,
		ColumnMap: columnMap,
	}, nil
}

func (r *registry) parseTag(tag reflect.StructTag) (map[string]string, error) {
	ormTag, ok := tag.Lookup(tagName)
	if !ok {
		return map[string]string{}, nil
	}
	pairs := strings.Split(ormTag, ",")
	res := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		segs := strings.Split(pair, "=")
		if len(segs) != 2 {
			return nil, errs.NewErrInvalidTagContent(pair)
		}
		res[segs[0]] = segs[1]
	}
	return res, nil
}

// underscoreName 驼峰转下划线, 连续的大写字母视为一个单词, 例如 UserID -> user_id
func underscoreName(name string) string {
	runes := []rune(name)
	var buf []rune
	for i, v := range runes {
		if unicode.IsUpper(v) {
			if i != 0 && (!unicode.IsUpper(runes[i-1]) ||
				(i+1 < len(runes) && !unicode.IsUpper(runes[i+1]))) {
				buf = append(buf, '_')
			}
			buf = append(buf, unicode.ToLower(v))
		} else {
			buf = append(buf, v)
		}
	}
	return string(buf)
}
