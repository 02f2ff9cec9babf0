package pagehelper

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"github.com/startdusk/pagehelper/cache"
	"github.com/startdusk/pagehelper/internal/countsql"
	"github.com/startdusk/pagehelper/internal/errs"
	"go.uber.org/zap"
)

const (
	DefaultDialect     = "pagehelper"
	DefaultCountSuffix = "_COUNT"
)

type Config struct {
	// Dialect 使用的 Dialect 实现, 默认 pagehelper, 即 Helper
	Dialect string `mapstructure:"dialect"`
	// HelperDialect 固定使用的数据库方言, 为空时自动识别
	HelperDialect string `mapstructure:"helperDialect"`
	// AutoRuntimeDialect 每次查询都重新识别方言, 适用于一条语句在多个数据源上执行
	AutoRuntimeDialect bool `mapstructure:"autoRuntimeDialect"`
	// DialectAlias 自动识别时的额外别名, 格式 alias1=dialect1;alias2=dialect2
	DialectAlias string `mapstructure:"dialectAlias"`

	CountSuffix             string `mapstructure:"countSuffix"`
	OffsetAsPageNum         bool   `mapstructure:"offsetAsPageNum"`
	RowBoundsWithCount      bool   `mapstructure:"rowBoundsWithCount"`
	PageSizeZero            bool   `mapstructure:"pageSizeZero"`
	Reasonable              bool   `mapstructure:"reasonable"`
	SupportMethodsArguments bool   `mapstructure:"supportMethodsArguments"`
	CountColumn             string `mapstructure:"countColumn"`
	// Params 参数对象里分页字段的名字, 例如 pageNum=pn;pageSize=ps
	Params string `mapstructure:"params"`

	// MSCountCache count 语句缓存的实现, 不为空时覆盖 MS.TypeClass
	MSCountCache string        `mapstructure:"msCountCache"`
	MS           cache.Options `mapstructure:"ms"`

	// AggregateFunctions 额外的聚合函数, 逗号分隔
	AggregateFunctions string `mapstructure:"aggregateFunctions"`
}

func DefaultConfig() Config {
	return Config{
		Dialect:     DefaultDialect,
		CountSuffix: DefaultCountSuffix,
		CountColumn: countsql.DefaultCountColumn,
		MS: cache.Options{
			TypeClass: cache.TypeLRU,
			Size:      cache.DefaultSize,
		},
	}
}

// LoadConfig 没有配置的项使用 DefaultConfig 的值
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("pagehelper: 解析配置失败: %w", err)
	}
	cfg.fillDefaults()
	return cfg, nil
}

func (c *Config) fillDefaults() {
	if c.Dialect == "" {
		c.Dialect = DefaultDialect
	}
	if c.CountSuffix == "" {
		c.CountSuffix = DefaultCountSuffix
	}
	if c.CountColumn == "" {
		c.CountColumn = countsql.DefaultCountColumn
	}
}

func (c *Config) cacheOptions() cache.Options {
	opts := c.MS
	if c.MSCountCache != "" {
		opts.TypeClass = c.MSCountCache
	}
	return opts
}

// DialectFactory 按配置创建 Dialect
type DialectFactory func(cfg Config, logger *zap.Logger) (Dialect, error)

var (
	dialectMutex     sync.RWMutex
	dialectFactories = map[string]DialectFactory{
		DefaultDialect: func(cfg Config, logger *zap.Logger) (Dialect, error) {
			return NewHelper(cfg, logger)
		},
	}
)

// RegisterDialect 注册自定义的 Dialect, 通过配置 dialect 使用
func RegisterDialect(name string, factory DialectFactory) {
	dialectMutex.Lock()
	defer dialectMutex.Unlock()
	dialectFactories[strings.ToLower(name)] = factory
}

func newDialect(cfg Config, logger *zap.Logger) (Dialect, error) {
	dialectMutex.RLock()
	factory, ok := dialectFactories[strings.ToLower(cfg.Dialect)]
	dialectMutex.RUnlock()
	if !ok {
		return nil, errs.NewErrUnknownDialect(cfg.Dialect)
	}
	return factory(cfg, logger)
}
