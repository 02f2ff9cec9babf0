package pagehelper

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/mattn/go-sqlite3"
	"github.com/startdusk/pagehelper/internal/countsql"
	"github.com/startdusk/pagehelper/internal/errs"
	"github.com/startdusk/pagehelper/internal/syncx"
	"github.com/startdusk/pagehelper/orm"
	"go.uber.org/zap"
	"modernc.org/sqlite"
)

// autoDialect 给每条语句选择具体的 HelperDialect
// 配置了 helperDialect 时所有语句都用它, 否则按数据源自动识别, 结果按语句 id 缓存
type autoDialect struct {
	helper      *HelperDialect
	autoRuntime bool
	// aliases 是 dialectAlias 配置的别名, 优先于注册的别名
	aliases   map[string]string
	parser    *countsql.Parser
	delegates *syncx.Map[string, *HelperDialect]
	logger    *zap.Logger
}

func newAutoDialect(cfg Config, parser *countsql.Parser, logger *zap.Logger) (*autoDialect, error) {
	a := &autoDialect{
		autoRuntime: cfg.AutoRuntimeDialect,
		parser:      parser,
		delegates:   syncx.NewMap[string, *HelperDialect](64),
		logger:      logger,
	}
	aliases, err := parseAliases(cfg.DialectAlias)
	if err != nil {
		return nil, err
	}
	a.aliases = aliases
	if cfg.HelperDialect != "" {
		h, err := a.newDelegate(cfg.HelperDialect)
		if err != nil {
			return nil, err
		}
		a.helper = h
	}
	return a, nil
}

// parseAliases 解析 alias1=dialect1;alias2=dialect2, 指向的方言必须已经注册
func parseAliases(text string) (map[string]string, error) {
	res := make(map[string]string, 4)
	for _, pair := range strings.Split(text, ";") {
		if strings.TrimSpace(pair) == "" {
			continue
		}
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("pagehelper: 非法的 dialectAlias 配置 %q", pair)
		}
		name, _, err := LookupHelperDialect(kv[1])
		if err != nil {
			return nil, err
		}
		res[strings.ToLower(strings.TrimSpace(kv[0]))] = name
	}
	return res, nil
}

func (a *autoDialect) newDelegate(name string) (*HelperDialect, error) {
	if target, ok := a.aliases[strings.ToLower(name)]; ok {
		name = target
	}
	name, pager, err := LookupHelperDialect(name)
	if err != nil {
		return nil, err
	}
	return newHelperDialect(name, pager, a.parser), nil
}

// initDelegate 选出这次查询使用的方言, 保存在 ctx 的 call 里
func (a *autoDialect) initDelegate(ctx context.Context, st *orm.Statement) error {
	c := callOf(ctx)
	if c == nil {
		return fmt.Errorf("pagehelper: 语句 %s 没有经过分页拦截器", st.ID)
	}
	if a.helper != nil {
		c.delegate = a.helper
		return nil
	}
	if a.autoRuntime {
		h, err := a.detect(st.ID, c.source)
		if err != nil {
			return err
		}
		c.delegate = h
		return nil
	}
	h, loaded, err := a.delegates.LoadOrCreate(st.ID, func() (*HelperDialect, error) {
		return a.detect(st.ID, c.source)
	})
	if err != nil {
		return err
	}
	if !loaded {
		a.logger.Debug("pagehelper: 识别数据库方言",
			zap.String("statement", st.ID), zap.String("dialect", h.Name()))
	}
	c.delegate = h
	return nil
}

func (a *autoDialect) detect(id string, source orm.DataSource) (*HelperDialect, error) {
	name := productName(source)
	if name == "" {
		return nil, errs.NewErrDialectUndetected(id)
	}
	h, err := a.newDelegate(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.NewErrDialectUndetected(id), err)
	}
	return h, nil
}

// productName 优先按驱动类型识别, 包装过的驱动再看驱动名
func productName(source orm.DataSource) string {
	switch source.Driver.(type) {
	case *mysql.MySQLDriver:
		return DialectMySQL
	case *stdlib.Driver:
		return DialectPostgreSQL
	case *sqlite3.SQLiteDriver, *sqlite.Driver:
		return DialectSQLite
	}
	return strings.ToLower(source.DriverName)
}

func (a *autoDialect) delegate(ctx context.Context) *HelperDialect {
	if c := callOf(ctx); c != nil {
		return c.delegate
	}
	return nil
}

// clearDelegate 只清理这次查询的方言, 按语句缓存的不变
func (a *autoDialect) clearDelegate(ctx context.Context) {
	if c := callOf(ctx); c != nil {
		c.delegate = nil
	}
}
