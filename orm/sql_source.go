package orm

import (
	"reflect"
	"strings"

	"github.com/samber/lo"
	"github.com/startdusk/pagehelper/internal/errs"
	"github.com/startdusk/pagehelper/orm/model"
)

// SQLSource 根据参数对象生成最终执行的 SQL 和参数
type SQLSource interface {
	BoundSQL(param any) (*BoundSQL, error)
}

// BoundSQL 是一次执行真正发给数据库的 SQL, 占位符统一用 ?
type BoundSQL struct {
	SQL  string
	Args []any
}

func (b *BoundSQL) Clone() *BoundSQL {
	return &BoundSQL{
		SQL:  b.SQL,
		Args: append([]any(nil), b.Args...),
	}
}

var _ SQLSource = StaticSQL("")

// StaticSQL 位置参数, 参数对象是 []any 时按顺序绑定, 单个值就绑定一个参数
type StaticSQL string

func (s StaticSQL) BoundSQL(param any) (*BoundSQL, error) {
	var args []any
	switch p := param.(type) {
	case nil:
	case []any:
		args = append(args, p...)
	default:
		args = []any{p}
	}
	return &BoundSQL{SQL: string(s), Args: args}, nil
}

var _ SQLSource = &NamedSQL{}

// NamedSQL 用 #{name} 声明参数, 例如 SELECT * FROM users WHERE id = #{id}
type NamedSQL struct {
	sql   string
	names []string
}

func NewNamedSQL(text string) *NamedSQL {
	var sb strings.Builder
	names := make([]string, 0, 4)
	for {
		start := strings.Index(text, "#{")
		if start < 0 {
			break
		}
		end := strings.IndexByte(text[start:], '}')
		if end < 0 {
			break
		}
		sb.WriteString(text[:start])
		sb.WriteByte('?')
		names = append(names, strings.TrimSpace(text[start+2:start+end]))
		text = text[start+end+1:]
	}
	sb.WriteString(text)
	return &NamedSQL{
		sql:   sb.String(),
		names: names,
	}
}

func (n *NamedSQL) SQL() string {
	return n.sql
}

func (n *NamedSQL) BoundSQL(param any) (*BoundSQL, error) {
	if len(n.names) == 0 {
		return &BoundSQL{SQL: n.sql}, nil
	}
	values, single, err := paramValues(param)
	if err != nil {
		return nil, err
	}
	args := make([]any, 0, len(n.names))
	for _, name := range n.names {
		if values == nil {
			// 只有一个参数时不管叫什么名字都用参数对象本身
			if len(n.names) != 1 {
				return nil, errs.NewErrParameterNotFound(name)
			}
			args = append(args, single)
			continue
		}
		val, ok := lookup(values, name)
		if !ok {
			return nil, errs.NewErrParameterNotFound(name)
		}
		args = append(args, val)
	}
	return &BoundSQL{SQL: n.sql, Args: args}, nil
}

// paramValues 把 map 或者结构体参数转成 map, 其余类型当作单个参数
func paramValues(param any) (map[string]any, any, error) {
	switch p := param.(type) {
	case nil:
		return map[string]any{}, nil, nil
	case map[string]any:
		return p, nil, nil
	}
	val := reflect.ValueOf(param)
	if val.Kind() == reflect.Ptr && !val.IsNil() {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil, param, nil
	}
	// 结构体按字段名和列名都能取到值
	ptr := reflect.New(val.Type())
	ptr.Elem().Set(val)
	m, err := defaultRegistry.Get(ptr.Interface())
	if err != nil {
		return nil, nil, err
	}
	res := make(map[string]any, len(m.FieldMap)*2)
	for _, fd := range m.FieldMap {
		fv := val.FieldByName(fd.GoName)
		if !fv.CanInterface() {
			continue
		}
		res[fd.GoName] = fv.Interface()
		res[fd.ColName] = fv.Interface()
	}
	return res, nil, nil
}

var defaultRegistry = model.NewRegistry()

// lookup 先精确匹配, 再忽略大小写匹配
func lookup(values map[string]any, name string) (any, bool) {
	if val, ok := values[name]; ok {
		return val, true
	}
	key, ok := lo.FindKeyBy(values, func(key string, _ any) bool {
		return strings.EqualFold(key, name)
	})
	if !ok {
		return nil, false
	}
	return values[key], true
}
