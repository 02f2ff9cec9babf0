package syncx

import (
	"sync"
)

// Map 用读写锁保护的泛型 map
// sync.Map 的 LoadOrStore 需要先把新值构造出来, 这里改成按需构造
type Map[K comparable, V any] struct {
	data  map[K]V
	mutex sync.RWMutex
}

func NewMap[K comparable, V any](capacity int) *Map[K, V] {
	return &Map[K, V]{
		data: make(map[K]V, capacity),
	}
}

func (m *Map[K, V]) Get(key K) (V, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	val, ok := m.data[key]
	return val, ok
}

func (m *Map[K, V]) Len() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.data)
}

// LoadOrCreate 使用RWMutex实现double check
// 加读锁先检查一遍
// 释放读锁
// 加写锁
// 再检查一遍, 这样 create 对同一个 key 最多只会成功执行一次
func (m *Map[K, V]) LoadOrCreate(key K, create func() (V, error)) (V, bool, error) {
	m.mutex.RLock()
	val, ok := m.data[key]
	m.mutex.RUnlock()
	if ok {
		return val, true, nil
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	// double check 避免线程覆盖问题
	val, ok = m.data[key]
	if ok {
		return val, true, nil
	}

	val, err := create()
	if err != nil {
		return val, false, err
	}
	m.data[key] = val
	return val, false, nil
}
