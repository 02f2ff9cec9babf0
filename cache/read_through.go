package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ReadThroughCache 缓存中读不到数据就调用 load 去加载, 加载成功后写回缓存
// Expiration 是写回时使用的过期时间
type ReadThroughCache struct {
	Cache
	Expiration time.Duration
}

func NewReadThroughCache(c Cache, expiration time.Duration) *ReadThroughCache {
	return &ReadThroughCache{
		Cache:      c,
		Expiration: expiration,
	}
}

func (r *ReadThroughCache) GetOrLoad(ctx context.Context, key string,
	load func(ctx context.Context) (any, error)) (any, error) {
	val, err := r.Cache.Get(ctx, key)
	if !errors.Is(err, ErrKeyNotFound) {
		return val, err
	}
	return r.load(ctx, key, load)
}

func (r *ReadThroughCache) load(ctx context.Context, key string,
	load func(ctx context.Context) (any, error)) (any, error) {
	val, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.Cache.Set(ctx, key, val, r.Expiration); err != nil {
		return val, fmt.Errorf("%w, 原因: %s", ErrFailedToRefreshCache, err)
	}
	return val, nil
}
