package pagehelper

import (
	"context"
	"errors"
	"fmt"

	"github.com/startdusk/pagehelper/cache"
	"github.com/startdusk/pagehelper/orm"
	"go.uber.org/zap"
)

// StatementCache 缓存自动生成的 count 语句, 同一个 id 并发第一次使用时也只生成一次
type StatementCache struct {
	c      *cache.SingleflightCache
	logger *zap.Logger
}

func NewStatementCache(c cache.Cache, logger *zap.Logger) *StatementCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatementCache{
		c:      cache.NewSingleflightCache(c),
		logger: logger,
	}
}

func (s *StatementCache) Get(ctx context.Context, id string) (*orm.Statement, bool) {
	val, err := s.c.Get(ctx, id)
	if err != nil {
		return nil, false
	}
	st, ok := val.(*orm.Statement)
	return st, ok
}

func (s *StatementCache) Put(ctx context.Context, id string, st *orm.Statement) error {
	return s.c.Set(ctx, id, st, s.c.Expiration)
}

// GetOrCreate 缓存里没有时调用 create, 并发调用只有一个会执行 create
func (s *StatementCache) GetOrCreate(ctx context.Context, id string,
	create func() (*orm.Statement, error)) (*orm.Statement, error) {
	created := false
	val, err := s.c.GetOrLoad(ctx, id, func(ctx context.Context) (any, error) {
		created = true
		return create()
	})
	// 写回缓存失败不影响这次查询
	if errors.Is(err, cache.ErrFailedToRefreshCache) {
		s.logger.Warn("pagehelper: count 语句写回缓存失败", zap.String("statement", id), zap.Error(err))
	} else if err != nil {
		return nil, err
	}
	st, ok := val.(*orm.Statement)
	if !ok {
		return nil, fmt.Errorf("pagehelper: 缓存中 %s 的类型 %T 不是语句", id, val)
	}
	if created {
		s.logger.Debug("pagehelper: 生成 count 语句", zap.String("statement", id))
	} else {
		s.logger.Debug("pagehelper: 命中 count 语句缓存", zap.String("statement", id))
	}
	return st, nil
}

// newCountStatement 和原语句只有 id 和返回值不同
func newCountStatement(st *orm.Statement, id string) *orm.Statement {
	res := st.Clone(id)
	res.ResultMapper = orm.Int64Mapper
	res.KeyProperties = nil
	return res
}
