package orm

import (
	"github.com/startdusk/pagehelper/internal/errs"
)

// 通过桥接的方式将内部错误导出外部
var (
	ErrNoRows             = errs.ErrNoRows
	ErrStatementNotFound  = errs.ErrStatementNotFound
	ErrDuplicateStatement = errs.ErrDuplicateStatement
	ErrNilSQLSource       = errs.ErrNilSQLSource
	ErrParameterNotFound  = errs.ErrParameterNotFound
	ErrUnknownResultType  = errs.ErrUnknownResultType
)
