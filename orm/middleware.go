package orm

import (
	"context"
	"database/sql/driver"
)

const (
	TypeSelect = "SELECT"
	TypeExec   = "EXEC"
)

// DataSource 描述当前连接的数据库, 分页插件靠它识别方言
type DataSource struct {
	DriverName string
	Driver     driver.Driver
}

type QueryContext struct {
	// Type 声明查询类型, SELECT 或者 EXEC
	Type string

	Statement *Statement
	Param     any
	RowBounds RowBounds

	// BoundSQL 和 CacheKey 由 DB 在进入中间件之前生成
	// 中间件可以替换它们, 例如分页插件替换成 count 和分页 SQL
	BoundSQL *BoundSQL
	CacheKey *CacheKey

	Configuration *Configuration
	DataSource    DataSource
}

// Prepare 补齐 BoundSQL 和 CacheKey, 已经有的不会重新生成
func (qc *QueryContext) Prepare() error {
	if qc.RowBounds == nil {
		qc.RowBounds = NoRowBounds
	}
	if qc.BoundSQL == nil {
		bound, err := qc.Statement.SQLSource.BoundSQL(qc.Param)
		if err != nil {
			return err
		}
		qc.BoundSQL = bound
	}
	if qc.CacheKey == nil {
		qc.CacheKey = NewCacheKey(qc.Statement.ID, qc.RowBounds.Offset(), qc.RowBounds.Limit(), qc.BoundSQL.SQL)
		for _, arg := range qc.BoundSQL.Args {
			qc.CacheKey.Update(arg)
		}
	}
	return nil
}

// WithStatement 派生一个执行其它语句的 QueryContext, 数据源和注册中心不变
func (qc *QueryContext) WithStatement(st *Statement, bound *BoundSQL, key *CacheKey, bounds RowBounds) *QueryContext {
	return &QueryContext{
		Type:          qc.Type,
		Statement:     st,
		Param:         qc.Param,
		RowBounds:     bounds,
		BoundSQL:      bound,
		CacheKey:      key,
		Configuration: qc.Configuration,
		DataSource:    qc.DataSource,
	}
}

type Middleware func(next Handler) Handler

type Handler func(ctx context.Context, qc *QueryContext) *QueryResult

type QueryResult struct {
	// Result 在不同的查询里面, 类型是不同的
	// SELECT 是 []any, 经过分页插件之后可能是分页结果
	// EXEC 是 sql.Result
	Result any
	Err    error
}

// Rows 由包装了查询结果的类型实现, 例如分页结果
type Rows interface {
	Rows() []any
}
