package cache

import (
	"context"
	"fmt"
	"sync"
	"time"
)

var _ Cache = new(BuildInMapCache)

type BuildInMapCacheOption func(cache *BuildInMapCache)

func BuildInMapCacheWithEvictedCallback(fn func(key string, val any)) BuildInMapCacheOption {
	return func(cache *BuildInMapCache) {
		cache.onEvicted = fn
	}
}

// BuildInMapCacheWithDefaultExpiration 调用 Set 时 expiration 为 0 就使用这个过期时间
func BuildInMapCacheWithDefaultExpiration(expiration time.Duration) BuildInMapCacheOption {
	return func(cache *BuildInMapCache) {
		cache.defaultExpiration = expiration
	}
}

// BuildInMapCache 基于 map 的本地缓存, 不设置过期时间就是永久缓存
type BuildInMapCache struct {
	data      map[string]*item
	mutex     sync.RWMutex
	close     chan struct{}
	closeOnce sync.Once

	defaultExpiration time.Duration

	// 键被删除(包括过期)时的回调
	onEvicted func(key string, val any)
}

// NewBuildInMapCache interval 是轮询清理过期键的间隔, 为 0 时不启动轮询
func NewBuildInMapCache(interval time.Duration, opts ...BuildInMapCacheOption) *BuildInMapCache {
	b := &BuildInMapCache{
		data:  make(map[string]*item, 100),
		close: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(b)
	}

	if interval > 0 {
		go b.loop(interval)
	}
	return b
}

// loop 定时轮询不保证过期的键都能被及时删除, 所以 Get 的时候还要再检查一遍
func (b *BuildInMapCache) loop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			b.mutex.Lock()
			var i int
			for key, val := range b.data {
				// 每次最多遍历 1000 个, map 的遍历是随机的
				if i > 1000 {
					break
				}
				if val.expired(now) {
					b.delete(key)
				}
				i++
			}
			b.mutex.Unlock()
		case <-b.close:
			return
		}
	}
}

func (b *BuildInMapCache) Set(ctx context.Context, key string, val any, expiration time.Duration) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.set(key, val, expiration)
}

func (b *BuildInMapCache) Get(ctx context.Context, key string) (any, error) {
	b.mutex.RLock()
	val, ok := b.data[key]
	b.mutex.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w, key: %s", ErrKeyNotFound, key)
	}

	now := time.Now()
	if val.expired(now) {
		// double check
		b.mutex.Lock()
		defer b.mutex.Unlock()
		val, ok = b.data[key]
		if !ok {
			return nil, fmt.Errorf("%w, key: %s", ErrKeyNotFound, key)
		}
		if val.expired(now) {
			b.delete(key)
			// 过期和找不到对用户来说没有区别
			return nil, fmt.Errorf("%w, key: %s", ErrKeyNotFound, key)
		}
	}
	return val.val, nil
}

func (b *BuildInMapCache) Delete(ctx context.Context, key string) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.delete(key)
	return nil
}

// Len 返回当前缓存的键数量, 包括已经过期还没被清理的
func (b *BuildInMapCache) Len() int {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return len(b.data)
}

func (b *BuildInMapCache) Close() error {
	b.closeOnce.Do(func() {
		close(b.close)
	})
	return nil
}

func (b *BuildInMapCache) delete(key string) {
	itm, ok := b.data[key]
	if !ok {
		return
	}
	delete(b.data, key)
	if b.onEvicted != nil {
		b.onEvicted(key, itm.val)
	}
}

func (b *BuildInMapCache) set(key string, val any, expiration time.Duration) error {
	if expiration == 0 {
		expiration = b.defaultExpiration
	}
	var dl time.Time
	if expiration > 0 {
		dl = time.Now().Add(expiration)
	}
	b.data[key] = &item{
		val:      val,
		deadline: dl,
	}
	return nil
}

type item struct {
	val      any
	deadline time.Time // 过期的时间点, 零值代表永不过期
}

func (i *item) expired(now time.Time) bool {
	return !i.deadline.IsZero() && i.deadline.Before(now)
}
