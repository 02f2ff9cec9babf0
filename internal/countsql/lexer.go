package countsql

import (
	"strings"

	"github.com/startdusk/pagehelper/internal/errs"
)

type tokenKind uint8

const (
	tokenWord tokenKind = iota
	tokenLParen
	tokenRParen
	tokenComma
	tokenParam
	tokenQuoted
	tokenOther
)

type token struct {
	kind  tokenKind
	text  string
	start int
	end   int
	// depth 是 token 所在的括号层级, 0 代表最外层
	depth int
}

// upper 只对关键字比较有意义
func (t token) upper() string {
	return strings.ToUpper(t.text)
}

func (t token) isKeyword(kw string) bool {
	return t.kind == tokenWord && strings.EqualFold(t.text, kw)
}

// tokenize 不是完整的 SQL 词法分析, 只识别改写 count 需要的部分:
// 关键字/标识符、括号、逗号、参数占位符, 字符串和注释整体跳过
func tokenize(sql string) ([]token, error) {
	tokens := make([]token, 0, 64)
	depth := 0
	i := 0
	for i < len(sql) {
		c := sql[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '-' && i+1 < len(sql) && sql[i+1] == '-':
			end := strings.IndexByte(sql[i:], '\n')
			if end < 0 {
				i = len(sql)
			} else {
				i += end + 1
			}
		case c == '/' && i+1 < len(sql) && sql[i+1] == '*':
			end := strings.Index(sql[i+2:], "*/")
			if end < 0 {
				return nil, errs.NewErrMalformedSQL("注释没有结束")
			}
			i += end + 4
		case c == '\'' || c == '"' || c == '`' || c == '[':
			end, err := skipQuoted(sql, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokenQuoted, text: sql[i:end], start: i, end: end, depth: depth})
			i = end
		case c == '(':
			tokens = append(tokens, token{kind: tokenLParen, text: "(", start: i, end: i + 1, depth: depth})
			depth++
			i++
		case c == ')':
			depth--
			if depth < 0 {
				return nil, errs.NewErrMalformedSQL("括号不匹配")
			}
			tokens = append(tokens, token{kind: tokenRParen, text: ")", start: i, end: i + 1, depth: depth})
			i++
		case c == ',':
			tokens = append(tokens, token{kind: tokenComma, text: ",", start: i, end: i + 1, depth: depth})
			i++
		case c == '?':
			tokens = append(tokens, token{kind: tokenParam, text: "?", start: i, end: i + 1, depth: depth})
			i++
		case isWordStart(c):
			j := i + 1
			for j < len(sql) && isWordPart(sql[j]) {
				j++
			}
			tokens = append(tokens, token{kind: tokenWord, text: sql[i:j], start: i, end: j, depth: depth})
			i = j
		default:
			tokens = append(tokens, token{kind: tokenOther, text: sql[i : i+1], start: i, end: i + 1, depth: depth})
			i++
		}
	}
	if depth != 0 {
		return nil, errs.NewErrMalformedSQL("括号不匹配")
	}
	return tokens, nil
}

// skipQuoted 返回引号结束后的位置, 两个连续的引号视为转义
func skipQuoted(sql string, start int) (int, error) {
	open := sql[start]
	closing := open
	if open == '[' {
		closing = ']'
	}
	for i := start + 1; i < len(sql); i++ {
		if sql[i] != closing {
			continue
		}
		if closing != ']' && i+1 < len(sql) && sql[i+1] == closing {
			i++
			continue
		}
		return i + 1, nil
	}
	return 0, errs.NewErrMalformedSQL("引号没有结束")
}

func isWordStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isWordPart(c byte) bool {
	return isWordStart(c) || c == '$' || (c >= '0' && c <= '9')
}
