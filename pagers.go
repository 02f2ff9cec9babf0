package pagehelper

import (
	"strconv"
	"strings"

	"github.com/startdusk/pagehelper/internal/countsql"
)

const (
	DialectMySQL      = "mysql"
	DialectPostgreSQL = "postgresql"
	DialectSQLite     = "sqlite"
	DialectHSQLDB     = "hsqldb"
	DialectOracle     = "oracle"
	DialectSQLServer  = "sqlserver"
	DialectDB2        = "db2"
	DialectInformix   = "informix"
)

func init() {
	RegisterHelperDialect(DialectMySQL, mysqlPager{}, "mariadb", "clickhouse", "tidb")
	RegisterHelperDialect(DialectPostgreSQL, postgresqlPager{}, "postgres", "pgx", "opengauss", "kingbase")
	RegisterHelperDialect(DialectSQLite, postgresqlPager{}, "sqlite3")
	RegisterHelperDialect(DialectHSQLDB, hsqldbPager{}, "h2", "phoenix")
	RegisterHelperDialect(DialectOracle, oraclePager{}, "dm", "godror", "oci8")
	RegisterHelperDialect(DialectSQLServer, sqlServerPager{}, "mssql")
	RegisterHelperDialect(DialectDB2, db2Pager{})
	RegisterHelperDialect(DialectInformix, informixPager{})
}

type mysqlPager struct{}

func (mysqlPager) PageSQL(sql string, page *Page) (string, error) {
	if page.StartRow == 0 {
		return sql + " LIMIT ?", nil
	}
	return sql + " LIMIT ?, ?", nil
}

func (mysqlPager) PageArgs(args []any, page *Page) []any {
	if page.StartRow == 0 {
		return append(args, page.PageSize)
	}
	return append(args, page.StartRow, page.PageSize)
}

// postgresqlPager 同时用于 SQLite
type postgresqlPager struct{}

func (postgresqlPager) PageSQL(sql string, page *Page) (string, error) {
	if page.StartRow == 0 {
		return sql + " LIMIT ?", nil
	}
	return sql + " LIMIT ? OFFSET ?", nil
}

func (postgresqlPager) PageArgs(args []any, page *Page) []any {
	if page.StartRow == 0 {
		return append(args, page.PageSize)
	}
	return append(args, page.PageSize, page.StartRow)
}

type hsqldbPager struct{}

func (hsqldbPager) PageSQL(sql string, page *Page) (string, error) {
	var sb strings.Builder
	sb.WriteString(sql)
	if page.PageSize > 0 {
		sb.WriteString(" LIMIT ?")
	}
	if page.StartRow > 0 {
		sb.WriteString(" OFFSET ?")
	}
	return sb.String(), nil
}

func (hsqldbPager) PageArgs(args []any, page *Page) []any {
	if page.PageSize > 0 {
		args = append(args, page.PageSize)
	}
	if page.StartRow > 0 {
		args = append(args, page.StartRow)
	}
	return args
}

// oraclePager 用 ROWNUM 分页, 结果会多出 PAGEHELPER_ROW_ID 列
type oraclePager struct{}

func (oraclePager) PageSQL(sql string, page *Page) (string, error) {
	var sb strings.Builder
	if page.StartRow > 0 {
		sb.WriteString("SELECT * FROM ( ")
	}
	if page.EndRow > 0 {
		sb.WriteString("SELECT TMP_PAGE.*, ROWNUM PAGEHELPER_ROW_ID FROM ( ")
	}
	sb.WriteString(sql)
	if page.EndRow > 0 {
		sb.WriteString(" ) TMP_PAGE WHERE ROWNUM <= ?")
	}
	if page.StartRow > 0 {
		sb.WriteString(" ) WHERE PAGEHELPER_ROW_ID > ?")
	}
	return sb.String(), nil
}

func (oraclePager) PageArgs(args []any, page *Page) []any {
	if page.EndRow > 0 {
		args = append(args, page.EndRow)
	}
	if page.StartRow > 0 {
		args = append(args, page.StartRow)
	}
	return args
}

// sqlServerPager 第一页用 TOP, 其余用 OFFSET FETCH, 都是字面量
type sqlServerPager struct{}

func (sqlServerPager) PageSQL(sql string, page *Page) (string, error) {
	if page.StartRow == 0 {
		return countsql.InsertAfterSelect(sql, "TOP "+strconv.Itoa(page.PageSize))
	}
	// OFFSET FETCH 必须有 ORDER BY
	ordered, err := countsql.HasOrderBy(sql)
	if err != nil {
		return "", err
	}
	if !ordered {
		sql += " ORDER BY CURRENT_TIMESTAMP"
	}
	return sql + " OFFSET " + strconv.Itoa(page.StartRow) + " ROWS FETCH NEXT " +
		strconv.Itoa(page.PageSize) + " ROWS ONLY", nil
}

func (sqlServerPager) PageArgs(args []any, _ *Page) []any {
	return args
}

type db2Pager struct{}

func (db2Pager) PageSQL(sql string, _ *Page) (string, error) {
	return "SELECT * FROM (SELECT TMP_PAGE.*, ROWNUMBER() OVER() AS PAGEHELPER_ROW_ID FROM ( " +
		sql + " ) AS TMP_PAGE) TMP_PAGE WHERE PAGEHELPER_ROW_ID BETWEEN ? AND ?", nil
}

func (db2Pager) PageArgs(args []any, page *Page) []any {
	return append(args, page.StartRow+1, page.EndRow)
}

// informixPager 的分页参数在 SQL 最前面
type informixPager struct{}

func (informixPager) PageSQL(sql string, page *Page) (string, error) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	if page.StartRow > 0 {
		sb.WriteString("SKIP ? ")
	}
	if page.PageSize > 0 {
		sb.WriteString("FIRST ? ")
	}
	sb.WriteString("* FROM ( ")
	sb.WriteString(sql)
	sb.WriteString(" ) TEMP_T")
	return sb.String(), nil
}

func (informixPager) PageArgs(args []any, page *Page) []any {
	res := make([]any, 0, len(args)+2)
	if page.StartRow > 0 {
		res = append(res, page.StartRow)
	}
	if page.PageSize > 0 {
		res = append(res, page.PageSize)
	}
	return append(res, args...)
}
