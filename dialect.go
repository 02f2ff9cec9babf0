package pagehelper

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/startdusk/pagehelper/internal/countsql"
	"github.com/startdusk/pagehelper/internal/errs"
	"github.com/startdusk/pagehelper/orm"
)

// Dialect 拦截器按下面的顺序调用:
// Skip -> BeforeCount -> CountSQL -> AfterCount -> ProcessParameterObject -> BeforePage -> PageSQL -> AfterPage
// 不管中间是否出错, 最后都会调用 AfterAll
type Dialect interface {
	// Skip 返回 true 时不分页, 直接执行原查询
	Skip(ctx context.Context, st *orm.Statement, param any, bounds orm.RowBounds) (bool, error)
	// BeforeCount 返回 false 时不执行 count 查询
	BeforeCount(ctx context.Context, st *orm.Statement, param any, bounds orm.RowBounds) bool
	CountSQL(ctx context.Context, st *orm.Statement, bound *orm.BoundSQL, param any, bounds orm.RowBounds, key *orm.CacheKey) (string, error)
	// AfterCount 返回 false 时不再分页查询, 直接返回空结果
	AfterCount(ctx context.Context, count int64, param any, bounds orm.RowBounds) bool
	// ProcessParameterObject 把分页参数绑定到 bound 上, 返回分页查询使用的参数对象
	ProcessParameterObject(ctx context.Context, st *orm.Statement, param any, bound *orm.BoundSQL, key *orm.CacheKey) any
	// BeforePage 返回 false 时执行不分页的原查询
	BeforePage(ctx context.Context, st *orm.Statement, param any, bounds orm.RowBounds) bool
	PageSQL(ctx context.Context, st *orm.Statement, bound *orm.BoundSQL, param any, bounds orm.RowBounds, key *orm.CacheKey) (string, error)
	// AfterPage 把查询结果包装成返回给调用方的结果
	AfterPage(ctx context.Context, rows []any, param any, bounds orm.RowBounds) any
	AfterAll(ctx context.Context)
}

// Pager 生成某种数据库的分页 SQL
// 分页参数尽量用 ? 绑定, 真正的占位符由 orm 在执行时替换
type Pager interface {
	PageSQL(sql string, page *Page) (string, error)
	// PageArgs 返回绑定了分页参数之后的 args
	PageArgs(args []any, page *Page) []any
}

var _ Dialect = &HelperDialect{}

// HelperDialect 和数据库无关的分页流程, 分页 SQL 交给 Pager
type HelperDialect struct {
	name   string
	pager  Pager
	parser *countsql.Parser
}

func newHelperDialect(name string, pager Pager, parser *countsql.Parser) *HelperDialect {
	return &HelperDialect{
		name:   name,
		pager:  pager,
		parser: parser,
	}
}

// LookupDialect 不经过拦截器, 单独生成某种数据库的 count 和分页 SQL
// 分页参数同样从 ctx 里读取, 先调用 StartPage
func LookupDialect(name string, aggregateFunctions string) (*HelperDialect, error) {
	name, pager, err := LookupHelperDialect(name)
	if err != nil {
		return nil, err
	}
	parser := countsql.NewParser()
	if err = parser.AddAggregateFunctions(aggregateFunctions); err != nil {
		return nil, err
	}
	return newHelperDialect(name, pager, parser), nil
}

func (h *HelperDialect) Name() string {
	return h.name
}

func (h *HelperDialect) Skip(ctx context.Context, _ *orm.Statement, _ any, _ orm.RowBounds) (bool, error) {
	return LocalPage(ctx) == nil, nil
}

func (h *HelperDialect) BeforeCount(ctx context.Context, _ *orm.Statement, _ any, _ orm.RowBounds) bool {
	page := LocalPage(ctx)
	return !page.OrderByOnly && page.Count
}

func (h *HelperDialect) CountSQL(ctx context.Context, _ *orm.Statement, bound *orm.BoundSQL,
	_ any, _ orm.RowBounds, key *orm.CacheKey) (string, error) {
	page := LocalPage(ctx)
	key.Update(page.CountColumn)
	return h.parser.SmartCountSQL(bound.SQL, page.CountColumn)
}

func (h *HelperDialect) AfterCount(ctx context.Context, count int64, _ any, bounds orm.RowBounds) bool {
	page := LocalPage(ctx)
	page.setTotal(count)
	if pb, ok := bounds.(*PageRowBounds); ok {
		pb.Total = count
	}
	// pageSize 为 0 时还要继续查询, 只是不分页
	if page.PageSize < 0 {
		return false
	}
	return count > int64(page.StartRow)
}

func (h *HelperDialect) ProcessParameterObject(ctx context.Context, _ *orm.Statement, param any,
	bound *orm.BoundSQL, key *orm.CacheKey) any {
	page := LocalPage(ctx)
	if page.OrderByOnly {
		return param
	}
	bound.Args = h.pager.PageArgs(bound.Args, page)
	key.Update(page.StartRow)
	key.Update(page.PageSize)
	return param
}

func (h *HelperDialect) BeforePage(ctx context.Context, _ *orm.Statement, _ any, _ orm.RowBounds) bool {
	page := LocalPage(ctx)
	return page.OrderByOnly || page.PageSize > 0
}

func (h *HelperDialect) PageSQL(ctx context.Context, _ *orm.Statement, bound *orm.BoundSQL,
	_ any, _ orm.RowBounds, key *orm.CacheKey) (string, error) {
	page := LocalPage(ctx)
	sql := bound.SQL
	if page.OrderBy != "" {
		key.Update(page.OrderBy)
		var err error
		if sql, err = countsql.ReplaceOrderBy(sql, page.OrderBy); err != nil {
			return "", err
		}
	}
	if page.OrderByOnly {
		return sql, nil
	}
	return h.pager.PageSQL(sql, page)
}

func (h *HelperDialect) AfterPage(ctx context.Context, rows []any, _ any, _ orm.RowBounds) any {
	page := LocalPage(ctx)
	if page == nil {
		return rows
	}
	page.Items = rows
	switch {
	case !page.Count:
		page.setTotal(TotalUnknown)
	case page.isPageSizeZero() && page.PageSize == 0:
		page.setTotal(int64(len(rows)))
	}
	return page
}

func (h *HelperDialect) AfterAll(context.Context) {}

var (
	helperMutex   sync.RWMutex
	helperPagers  = map[string]Pager{}
	helperAliases = map[string]string{}
)

// RegisterHelperDialect 注册数据库分页实现, aliases 是自动识别时的别名, 例如驱动名
func RegisterHelperDialect(name string, pager Pager, aliases ...string) {
	helperMutex.Lock()
	defer helperMutex.Unlock()
	name = strings.ToLower(name)
	helperPagers[name] = pager
	for _, alias := range aliases {
		helperAliases[strings.ToLower(alias)] = name
	}
}

// LookupHelperDialect 按名字或者别名查找, 返回注册的名字
func LookupHelperDialect(name string) (string, Pager, error) {
	helperMutex.RLock()
	defer helperMutex.RUnlock()
	name = strings.ToLower(strings.TrimSpace(name))
	if target, ok := helperAliases[name]; ok {
		name = target
	}
	pager, ok := helperPagers[name]
	if !ok {
		return "", nil, errs.NewErrUnknownDialect(name)
	}
	return name, pager, nil
}

// HelperDialects 已注册的数据库方言, 按名字排序, 不含别名
func HelperDialects() []string {
	helperMutex.RLock()
	defer helperMutex.RUnlock()
	res := lo.Keys(helperPagers)
	slices.Sort(res)
	return res
}
