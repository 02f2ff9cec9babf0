package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

var _ Cache = new(LRUCache)

// lruStore 是 lru.Cache 和 expirable.LRU 的公共部分
type lruStore interface {
	Add(key string, value any) bool
	Get(key string) (any, bool)
	Remove(key string) bool
	Len() int
}

// LRUCache 容量固定, 满了淘汰最久没有访问的键
// golang-lru 不支持单个键的过期时间, Set 的 expiration 会被忽略,
// 需要过期就用 ttl 创建, 所有键共用一个过期时间
type LRUCache struct {
	store lruStore
}

// NewLRUCache ttl 为 0 代表永不过期
func NewLRUCache(size int, ttl time.Duration) (*LRUCache, error) {
	if ttl > 0 {
		return &LRUCache{store: expirable.NewLRU[string, any](size, nil, ttl)}, nil
	}
	c, err := lru.New[string, any](size)
	if err != nil {
		return nil, err
	}
	return &LRUCache{store: c}, nil
}

func (l *LRUCache) Set(ctx context.Context, key string, val any, expiration time.Duration) error {
	l.store.Add(key, val)
	return nil
}

func (l *LRUCache) Get(ctx context.Context, key string) (any, error) {
	val, ok := l.store.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w, key: %s", ErrKeyNotFound, key)
	}
	return val, nil
}

func (l *LRUCache) Delete(ctx context.Context, key string) error {
	l.store.Remove(key)
	return nil
}

func (l *LRUCache) Len() int {
	return l.store.Len()
}
