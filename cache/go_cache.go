package cache

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

var _ Cache = new(GoCache)

// GoCache 基于 patrickmn/go-cache, 自带过期清理
type GoCache struct {
	store *gocache.Cache
}

// NewGoCache expiration 是默认过期时间, 为 0 代表永不过期
func NewGoCache(expiration time.Duration) *GoCache {
	if expiration <= 0 {
		return &GoCache{store: gocache.New(gocache.NoExpiration, 0)}
	}
	return &GoCache{store: gocache.New(expiration, expiration)}
}

func (g *GoCache) Set(ctx context.Context, key string, val any, expiration time.Duration) error {
	if expiration <= 0 {
		expiration = gocache.DefaultExpiration
	}
	g.store.Set(key, val, expiration)
	return nil
}

func (g *GoCache) Get(ctx context.Context, key string) (any, error) {
	val, ok := g.store.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w, key: %s", ErrKeyNotFound, key)
	}
	return val, nil
}

func (g *GoCache) Delete(ctx context.Context, key string) error {
	g.store.Delete(key)
	return nil
}

func (g *GoCache) Len() int {
	return g.store.ItemCount()
}
