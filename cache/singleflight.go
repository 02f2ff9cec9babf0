package cache

import (
	"context"
	"errors"

	"golang.org/x/sync/singleflight"
)

// SingleflightCache 同一个 key 同时只有一个 goroutine 在加载, 其余的等待并共享结果
// 加载成功写回缓存后, 之后的 Get 都拿到同一个值
type SingleflightCache struct {
	*ReadThroughCache
	g singleflight.Group
}

func NewSingleflightCache(c Cache) *SingleflightCache {
	return &SingleflightCache{
		ReadThroughCache: NewReadThroughCache(c, 0),
	}
}

func (s *SingleflightCache) GetOrLoad(ctx context.Context, key string,
	load func(ctx context.Context) (any, error)) (any, error) {
	val, err := s.Cache.Get(ctx, key)
	if !errors.Is(err, ErrKeyNotFound) {
		return val, err
	}
	val, err, _ = s.g.Do(key, func() (any, error) {
		// double check, 上一轮 Do 可能刚刚写完缓存
		v, err := s.Cache.Get(ctx, key)
		if !errors.Is(err, ErrKeyNotFound) {
			return v, err
		}
		return s.load(ctx, key, load)
	})
	return val, err
}
