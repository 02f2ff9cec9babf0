package errs

import (
	"errors"
	"fmt"
)

var (
	ErrMultiplePagination = errors.New("pagehelper: 在系统中发现了多个分页拦截器, 请检查系统配置")
	ErrUnknownDialect     = errors.New("pagehelper: 未知的数据库方言")
	ErrDialectUndetected  = errors.New("pagehelper: 无法自动识别数据库方言, 请配置 helperDialect")
	ErrUnknownCache       = errors.New("pagehelper: 未知的缓存实现")
	ErrCountResult        = errors.New("pagehelper: count 查询没有返回可用的总数")

	ErrUnsupportedSQL           = errors.New("countsql: 只支持 SELECT 语句")
	ErrMalformedSQL             = errors.New("countsql: SQL 语句不完整")
	ErrInvalidAggregateFunction = errors.New("countsql: 非法的聚合函数名")

	ErrStatementNotFound  = errors.New("orm: 未注册的语句")
	ErrDuplicateStatement = errors.New("orm: 语句重复注册")
	ErrNilSQLSource       = errors.New("orm: 语句没有 SQL")
	ErrPointerOnly        = errors.New("orm: 只支持指向结构体的一级指针")
	ErrNoRows             = errors.New("orm: 没有数据")
	ErrParameterNotFound  = errors.New("orm: 找不到参数")
	ErrUnknownResultType  = errors.New("orm: 未知的结果类型")
)

func NewErrUnknownDialect(name string) error {
	return fmt.Errorf("%w %s", ErrUnknownDialect, name)
}

func NewErrDialectUndetected(statementID string) error {
	return fmt.Errorf("%w, 语句: %s", ErrDialectUndetected, statementID)
}

func NewErrMultiplePagination(statementID string) error {
	return fmt.Errorf("%w, 语句: %s", ErrMultiplePagination, statementID)
}

func NewErrUnknownCache(name string) error {
	return fmt.Errorf("%w %s", ErrUnknownCache, name)
}

func NewErrCountResult(statementID string, val any) error {
	return fmt.Errorf("%w, 语句: %s, 结果: %v", ErrCountResult, statementID, val)
}

func NewErrMalformedSQL(reason string) error {
	return fmt.Errorf("%w: %s", ErrMalformedSQL, reason)
}

func NewErrInvalidAggregateFunction(name string) error {
	return fmt.Errorf("%w %q", ErrInvalidAggregateFunction, name)
}

func NewErrStatementNotFound(id string) error {
	return fmt.Errorf("%w %s", ErrStatementNotFound, id)
}

func NewErrDuplicateStatement(id string) error {
	return fmt.Errorf("%w %s", ErrDuplicateStatement, id)
}

func NewErrUnknownColumn(name string) error {
	return fmt.Errorf("orm: 未知数据库列名 %s", name)
}

func NewErrInvalidTagContent(pair string) error {
	return fmt.Errorf("orm: 非法标签值 %s", pair)
}

func NewErrUnknownResultType(name string) error {
	return fmt.Errorf("%w %s", ErrUnknownResultType, name)
}

func NewErrParameterNotFound(name string) error {
	return fmt.Errorf("%w %s", ErrParameterNotFound, name)
}

func NewErrUnsupportedResult(val any) error {
	return fmt.Errorf("orm: 不支持的查询结果类型 %T", val)
}
