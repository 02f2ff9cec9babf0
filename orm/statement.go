package orm

import (
	"strings"
	"sync"
	"time"

	"github.com/startdusk/pagehelper/internal/errs"
	"github.com/startdusk/pagehelper/internal/syncx"
)

// Statement 是一条注册好的语句, 注册之后不应该再修改
type Statement struct {
	ID        string
	SQLSource SQLSource

	// Timeout 大于 0 时, 执行语句使用带超时的 context
	Timeout time.Duration
	// FetchSize 预估的返回行数, 用来预分配结果切片
	FetchSize int
	// KeyProperties 执行插入后把自增主键写回参数对象的哪个 key
	KeyProperties []string
	// ResultMapper 为 nil 时每行映射成 map[string]any
	ResultMapper ResultMapper

	UseCache bool
	// FlushCache 查询前先删掉结果缓存
	FlushCache bool
}

// Clone 浅拷贝, 修改 id 得到派生语句, 其余设置保持一致
func (s *Statement) Clone(id string) *Statement {
	res := *s
	res.ID = id
	res.KeyProperties = append([]string(nil), s.KeyProperties...)
	return &res
}

// Configuration 语句和结果映射的注册中心
type Configuration struct {
	statements *syncx.Map[string, *Statement]

	mutex         sync.RWMutex
	resultMappers map[string]ResultMapper
}

func NewConfiguration() *Configuration {
	return &Configuration{
		statements: syncx.NewMap[string, *Statement](64),
		resultMappers: map[string]ResultMapper{
			"map":    MapMapper{},
			"int64":  Int64Mapper,
			"long":   Int64Mapper,
			"string": ScalarMapper[string]{},
		},
	}
}

// AddStatement 同一个 id 只能注册一次
func (c *Configuration) AddStatement(st *Statement) error {
	if st == nil || st.SQLSource == nil {
		return errs.ErrNilSQLSource
	}
	_, loaded, err := c.statements.LoadOrCreate(st.ID, func() (*Statement, error) {
		return st, nil
	})
	if err != nil {
		return err
	}
	if loaded {
		return errs.NewErrDuplicateStatement(st.ID)
	}
	return nil
}

func (c *Configuration) MustAddStatement(st *Statement) {
	if err := c.AddStatement(st); err != nil {
		panic(err)
	}
}

func (c *Configuration) Statement(id string) (*Statement, bool) {
	return c.statements.Get(id)
}

func (c *Configuration) HasStatement(id string) bool {
	_, ok := c.statements.Get(id)
	return ok
}

// RegisterResultMapper 注册结果映射, mapper 文件里用 resultType 引用
func (c *Configuration) RegisterResultMapper(name string, mapper ResultMapper) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.resultMappers[strings.ToLower(name)] = mapper
}

func (c *Configuration) ResultMapper(name string) (ResultMapper, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	m, ok := c.resultMappers[strings.ToLower(name)]
	return m, ok
}
