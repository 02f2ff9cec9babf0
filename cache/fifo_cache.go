package cache

import (
	"context"
	"time"

	"github.com/samber/lo"
)

var _ Cache = new(FIFOCache)

// FIFOCache 控制住缓存的键值对数量, 超过容量时淘汰最早写入的键
type FIFOCache struct {
	*BuildInMapCache
	// 按写入顺序排列, 和 data 里的键一一对应
	keys   []string
	maxCnt int
}

func NewFIFOCache(c *BuildInMapCache, maxCnt int) *FIFOCache {
	cache := &FIFOCache{
		BuildInMapCache: c,
		keys:            make([]string, 0, maxCnt),
		maxCnt:          maxCnt,
	}

	// 不管是过期, 主动删除还是被淘汰, 都要从队列里拿掉
	origin := c.onEvicted
	cache.onEvicted = func(key string, val any) {
		cache.keys = lo.Without(cache.keys, key)
		if origin != nil {
			origin(key, val)
		}
	}
	return cache
}

func (c *FIFOCache) Set(ctx context.Context, key string, val any, expiration time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if _, ok := c.data[key]; !ok {
		for c.maxCnt > 0 && len(c.keys) >= c.maxCnt {
			oldest := c.keys[0]
			if _, exist := c.data[oldest]; !exist {
				c.keys = c.keys[1:]
				continue
			}
			c.delete(oldest)
		}
		c.keys = append(c.keys, key)
	}
	return c.set(key, val, expiration)
}
