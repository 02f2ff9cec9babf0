package cache

import (
	"context"
	"errors"
	"time"

	"github.com/startdusk/pagehelper/internal/errs"
)

//go:generate mockgen -source=types.go -destination=mocks/cache.mock.go -package=mocks Cache

var (
	ErrKeyNotFound          = errors.New("cache: 键不存在")
	ErrFailedToRefreshCache = errors.New("cache: 刷新缓存失败")
	ErrUnknownCache         = errs.ErrUnknownCache
)

// Cache 缓存的值类型各不相同, 所以用 any 加类型断言而不是泛型
// expiration 为 0 代表使用实现自身的默认过期策略(默认永不过期)
type Cache interface {
	Set(ctx context.Context, key string, val any, expiration time.Duration) error
	Get(ctx context.Context, key string) (any, error)
	Delete(ctx context.Context, key string) error
}
