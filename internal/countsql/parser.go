// Package countsql 把一条 SELECT 语句改写成 count 查询, 以及替换语句最外层的 ORDER BY
//
// 这里不是 SQL 解析器, 只在最外层括号上识别少量关键字:
// 简单查询直接把查询列替换成 COUNT(列), 其余情况(DISTINCT, GROUP BY, UNION, 聚合函数...)
// 整体包成子查询 SELECT COUNT(列) FROM (...) tmp_count
package countsql

import (
	"strings"
	"sync"

	"github.com/samber/lo"
	"github.com/startdusk/pagehelper/internal/errs"
)

const (
	DefaultCountColumn = "0"
	countAlias         = "tmp_count"
)

// 聚合函数按前缀匹配, 例如 COUNT 同时匹配 COUNT_BIG, GROUP 匹配 GROUP_CONCAT
var defaultAggregateFunctions = []string{
	"APPROX_COUNT_DISTINCT", "ARRAY_AGG", "AVG", "BIT_", "BOOL_", "CHECKSUM_AGG",
	"COLLECT", "CORR", "COUNT", "COVAR", "CUME_DIST", "DENSE_RANK", "EVERY", "FIRST",
	"GROUP", "JSON_", "LAST", "LISTAGG", "MAX", "MEDIAN", "MIN", "PERCENT_", "RANK",
	"REGR_", "SELECTIVITY", "STATS_", "STDDEV", "SUM", "SYS_OP_ZONE_ID", "SYS_XMLAGG",
	"VAR", "XMLAGG",
}

// 出现在最外层就只能包子查询的关键字
var complexKeywords = map[string]struct{}{
	"HAVING":    {},
	"UNION":     {},
	"INTERSECT": {},
	"EXCEPT":    {},
	"MINUS":     {},
	"LIMIT":     {},
	"OFFSET":    {},
	"FETCH":     {},
	"WINDOW":    {},
	"INTO":      {},
}

// 紧跟在 SELECT 后面就只能包子查询的修饰词
var selectModifiers = map[string]struct{}{
	"DISTINCT":            {},
	"DISTINCTROW":         {},
	"TOP":                 {},
	"SQL_CALC_FOUND_ROWS": {},
}

type Parser struct {
	mutex      sync.RWMutex
	aggregates []string
}

func NewParser() *Parser {
	return &Parser{
		aggregates: append([]string(nil), defaultAggregateFunctions...),
	}
}

// AddAggregateFunctions 添加额外的聚合函数名, 多个用逗号分隔
// 含有这些函数的查询在 count 时会被包成子查询, 否则查询列会被直接替换掉
func (p *Parser) AddAggregateFunctions(functions string) error {
	if strings.TrimSpace(functions) == "" {
		return nil
	}
	names := make([]string, 0, 4)
	for _, fn := range strings.Split(functions, ",") {
		fn = strings.ToUpper(strings.TrimSpace(fn))
		if !isIdentifier(fn) {
			return errs.NewErrInvalidAggregateFunction(fn)
		}
		names = append(names, fn)
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.aggregates = lo.Uniq(append(p.aggregates, names...))
	return nil
}

func (p *Parser) isAggregateFunction(name string) bool {
	name = strings.ToUpper(name)
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	for _, fn := range p.aggregates {
		if strings.HasPrefix(name, fn) {
			return true
		}
	}
	return false
}

// SmartCountSQL 生成 count 查询, countColumn 为空时使用 COUNT(0)
func (p *Parser) SmartCountSQL(sql string, countColumn string) (string, error) {
	if countColumn == "" {
		countColumn = DefaultCountColumn
	}
	sql = trimSQL(sql)
	tokens, err := tokenize(sql)
	if err != nil {
		return "", err
	}
	if len(tokens) == 0 {
		return "", errs.ErrUnsupportedSQL
	}

	first := tokens[0]
	switch {
	case first.kind == tokenLParen:
		// (SELECT ...) UNION (SELECT ...)
		return wrapCount(sql, countColumn), nil
	case first.isKeyword("SELECT"), first.isKeyword("WITH"):
	default:
		return "", errs.ErrUnsupportedSQL
	}

	sql = stripLocking(sql, tokens)
	prefix := ""
	if first.isKeyword("WITH") {
		idx := mainSelect(tokens)
		if idx < 0 {
			return "", errs.NewErrMalformedSQL("WITH 之后没有 SELECT")
		}
		prefix = sql[:tokens[idx].start]
		sql = sql[tokens[idx].start:]
	}
	// 截掉锁定子句或者 WITH 之后位置都变了, 重新切一次
	tokens, err = tokenize(sql)
	if err != nil {
		return "", err
	}
	body, err := p.countBody(sql, tokens, countColumn)
	if err != nil {
		return "", err
	}
	return prefix + body, nil
}

func (p *Parser) countBody(sql string, tokens []token, countColumn string) (string, error) {
	fromIdx := -1
	orderIdx := -1
	complex := false
	for i, t := range tokens {
		if t.depth != 0 || t.kind != tokenWord {
			continue
		}
		kw := t.upper()
		if i == 1 {
			if _, ok := selectModifiers[kw]; ok {
				complex = true
			}
		}
		switch {
		case kw == "FROM" && fromIdx < 0:
			fromIdx = i
		case kw == "GROUP" && nextIsKeyword(tokens, i, "BY"):
			complex = true
		case kw == "ORDER" && nextIsKeyword(tokens, i, "BY"):
			orderIdx = i
		default:
			if _, ok := complexKeywords[kw]; ok {
				complex = true
			}
		}
	}
	if fromIdx < 0 {
		complex = true
	} else if p.selectListNeedsWrap(tokens[1:fromIdx]) {
		complex = true
	}

	if orderIdx >= 0 {
		end := tailStart(sql, tokens, orderIdx+2)
		if hasParam(tokens, orderIdx, end) {
			// ORDER BY 里面有参数, 去掉会导致参数对不上
			complex = true
		} else {
			sql = joinSQL(sql[:tokens[orderIdx].start], sql[end:])
		}
	}

	if complex {
		return wrapCount(sql, countColumn), nil
	}
	return "SELECT COUNT(" + countColumn + ") " + sql[tokens[fromIdx].start:], nil
}

// selectListNeedsWrap 查询列里有聚合函数或者参数时不能直接替换
func (p *Parser) selectListNeedsWrap(items []token) bool {
	for i, t := range items {
		if t.kind == tokenParam {
			return true
		}
		if t.depth == 0 && t.kind == tokenWord && i+1 < len(items) && items[i+1].kind == tokenLParen {
			if p.isAggregateFunction(t.text) {
				return true
			}
		}
	}
	return false
}

// ReplaceOrderBy 用 orderBy 替换最外层的 ORDER BY, 原语句没有排序就追加
func ReplaceOrderBy(sql string, orderBy string) (string, error) {
	sql = trimSQL(sql)
	tokens, err := tokenize(sql)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(orderBy) == "" {
		return sql, nil
	}
	orderIdx := lastOrderBy(tokens)
	if orderIdx >= 0 {
		end := tailStart(sql, tokens, orderIdx+2)
		if hasParam(tokens, orderIdx, end) {
			return "", errs.NewErrMalformedSQL("ORDER BY 中含有参数, 无法替换")
		}
		return joinSQL(sql[:tokens[orderIdx].start], "ORDER BY "+orderBy, sql[end:]), nil
	}
	start := 0
	if idx := mainSelect(tokens); idx > 0 {
		start = idx
	}
	pos := tailStart(sql, tokens, start)
	return joinSQL(sql[:pos], "ORDER BY "+orderBy, sql[pos:]), nil
}

// HasOrderBy 判断最外层是否有 ORDER BY
func HasOrderBy(sql string) (bool, error) {
	tokens, err := tokenize(trimSQL(sql))
	if err != nil {
		return false, err
	}
	return lastOrderBy(tokens) >= 0, nil
}

// InsertAfterSelect 在最外层 SELECT [DISTINCT] 之后插入片段, 例如 SQL Server 的 TOP n
func InsertAfterSelect(sql string, fragment string) (string, error) {
	sql = trimSQL(sql)
	tokens, err := tokenize(sql)
	if err != nil {
		return "", err
	}
	idx := mainSelect(tokens)
	if idx < 0 {
		return "", errs.ErrUnsupportedSQL
	}
	pos := tokens[idx].end
	if idx+1 < len(tokens) {
		next := tokens[idx+1]
		if next.isKeyword("DISTINCT") || next.isKeyword("ALL") {
			pos = next.end
		}
	}
	return joinSQL(sql[:pos], fragment, sql[pos:]), nil
}

// mainSelect 返回最外层第一个 SELECT, WITH 子句里的 SELECT 都在括号里
func mainSelect(tokens []token) int {
	for i, t := range tokens {
		if t.depth == 0 && t.isKeyword("SELECT") {
			return i
		}
	}
	return -1
}

func lastOrderBy(tokens []token) int {
	idx := -1
	for i, t := range tokens {
		if t.depth == 0 && t.isKeyword("ORDER") && nextIsKeyword(tokens, i, "BY") {
			idx = i
		}
	}
	return idx
}

// tailStart 返回 from 之后第一个分页/锁定子句的位置, 没有就是语句末尾
func tailStart(sql string, tokens []token, from int) int {
	for i := from; i < len(tokens); i++ {
		t := tokens[i]
		if t.depth != 0 || t.kind != tokenWord {
			continue
		}
		switch t.upper() {
		case "LIMIT", "OFFSET", "FETCH":
			return t.start
		case "FOR", "LOCK":
			if isLockingClause(tokens, i) {
				return t.start
			}
		}
	}
	return len(sql)
}

// stripLocking 去掉 FOR UPDATE / FOR SHARE / LOCK IN SHARE MODE, count 不需要锁
func stripLocking(sql string, tokens []token) string {
	for i, t := range tokens {
		if i == 0 || t.depth != 0 {
			continue
		}
		if (t.isKeyword("FOR") || t.isKeyword("LOCK")) && isLockingClause(tokens, i) {
			return strings.TrimSpace(sql[:t.start])
		}
	}
	return sql
}

func isLockingClause(tokens []token, i int) bool {
	if tokens[i].isKeyword("LOCK") {
		return nextIsKeyword(tokens, i, "IN")
	}
	return nextIsKeyword(tokens, i, "UPDATE") || nextIsKeyword(tokens, i, "SHARE") ||
		nextIsKeyword(tokens, i, "NO") || nextIsKeyword(tokens, i, "KEY")
}

func hasParam(tokens []token, from int, endPos int) bool {
	for i := from; i < len(tokens) && tokens[i].start < endPos; i++ {
		if tokens[i].kind == tokenParam {
			return true
		}
	}
	return false
}

func nextIsKeyword(tokens []token, i int, kw string) bool {
	return i+1 < len(tokens) && tokens[i+1].isKeyword(kw)
}

func wrapCount(sql string, countColumn string) string {
	return "SELECT COUNT(" + countColumn + ") FROM (" + sql + ") " + countAlias
}

func joinSQL(parts ...string) string {
	parts = lo.FilterMap(parts, func(p string, _ int) (string, bool) {
		p = strings.TrimSpace(p)
		return p, p != ""
	})
	return strings.Join(parts, " ")
}

func trimSQL(sql string) string {
	sql = strings.TrimSpace(sql)
	for strings.HasSuffix(sql, ";") {
		sql = strings.TrimSpace(strings.TrimSuffix(sql, ";"))
	}
	return sql
}

func isIdentifier(name string) bool {
	if name == "" || !isWordStart(name[0]) {
		return false
	}
	for i := 1; i < len(name); i++ {
		if !isWordPart(name[i]) || name[i] == '$' {
			return false
		}
	}
	return true
}
