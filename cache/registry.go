package cache

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/startdusk/pagehelper/internal/errs"
)

const (
	TypeLRU     = "lru"
	TypeMap     = "map"
	TypeGoCache = "gocache"

	EvictionFIFO = "fifo"
	EvictionNone = "none"

	DefaultSize = 1024
)

// Options 对应配置里的 typeClass, evictionClass, flushInterval, size
type Options struct {
	// TypeClass 底层实现, 默认 lru
	TypeClass string `mapstructure:"typeClass"`
	// EvictionClass 给没有容量限制的实现(map, gocache)套上淘汰策略, 默认 fifo
	EvictionClass string `mapstructure:"evictionClass"`
	// FlushInterval 键的存活时间, 0 代表永不过期
	FlushInterval time.Duration `mapstructure:"flushInterval"`
	Size          int           `mapstructure:"size"`
}

// Factory 根据配置创建一个缓存实例
type Factory func(opts Options) (Cache, error)

var (
	mutex     sync.RWMutex
	factories = map[string]Factory{
		TypeLRU: func(opts Options) (Cache, error) {
			return NewLRUCache(opts.Size, opts.FlushInterval)
		},
		TypeMap: func(opts Options) (Cache, error) {
			return NewBuildInMapCache(opts.FlushInterval,
				BuildInMapCacheWithDefaultExpiration(opts.FlushInterval)), nil
		},
		TypeGoCache: func(opts Options) (Cache, error) {
			return NewGoCache(opts.FlushInterval), nil
		},
	}
)

// Register 注册自定义的缓存实现, 同名覆盖
func Register(name string, factory Factory) {
	mutex.Lock()
	defer mutex.Unlock()
	factories[strings.ToLower(name)] = factory
}

// New 按 Options 创建缓存, 未知的实现或者淘汰策略返回错误
func New(opts Options) (Cache, error) {
	if opts.TypeClass == "" {
		opts.TypeClass = TypeLRU
	}
	if opts.Size <= 0 {
		opts.Size = DefaultSize
	}
	typ := strings.ToLower(opts.TypeClass)
	mutex.RLock()
	factory, ok := factories[typ]
	mutex.RUnlock()
	if !ok {
		return nil, errs.NewErrUnknownCache(opts.TypeClass)
	}
	c, err := factory(opts)
	if err != nil {
		return nil, fmt.Errorf("cache: 创建 %s 失败: %w", opts.TypeClass, err)
	}
	if typ == TypeLRU {
		return c, nil
	}
	return withEviction(c, opts)
}

func withEviction(c Cache, opts Options) (Cache, error) {
	switch strings.ToLower(opts.EvictionClass) {
	case "", EvictionFIFO:
		if m, ok := c.(*BuildInMapCache); ok {
			return NewFIFOCache(m, opts.Size), nil
		}
		// 其它实现自己负责容量
		return c, nil
	case EvictionNone:
		return c, nil
	default:
		return nil, errs.NewErrUnknownCache(opts.EvictionClass)
	}
}
