// Package pagehttp 从请求的 query string 里读取分页参数, 在请求的 ctx 上调用 pagehelper.StartPage
//
//	GET /users?pageNum=2&pageSize=20&orderBy=name+desc
//
// handler 里用 r.Context() 执行的第一次查询会被分页
package pagehttp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cast"
	"github.com/startdusk/pagehelper"
	"go.uber.org/zap"
)

const (
	DefaultPageSize    = 10
	DefaultMaxPageSize = 1000
)

type MiddlewareBuilder struct {
	pageNum  string
	pageSize string
	orderBy  string

	defaultPageSize int
	maxPageSize     int
	// pageSizeZero 为 true 时 pageSize=0 表示查询全部
	pageSizeZero bool
	// orderByColumns 为空时忽略 orderBy 参数, 排序会原样拼进 SQL
	orderByColumns map[string]struct{}
	opts           []pagehelper.PageOption
	logger         *zap.Logger
}

func NewMiddlewareBuilder() *MiddlewareBuilder {
	return &MiddlewareBuilder{
		pageNum:         "pageNum",
		pageSize:        "pageSize",
		orderBy:         "orderBy",
		defaultPageSize: DefaultPageSize,
		maxPageSize:     DefaultMaxPageSize,
		logger:          zap.NewNop(),
	}
}

// Params 修改 query string 里的参数名
func (m *MiddlewareBuilder) Params(pageNum string, pageSize string, orderBy string) *MiddlewareBuilder {
	m.pageNum, m.pageSize, m.orderBy = pageNum, pageSize, orderBy
	return m
}

func (m *MiddlewareBuilder) DefaultPageSize(size int) *MiddlewareBuilder {
	m.defaultPageSize = size
	return m
}

// MaxPageSize 超过的 pageSize 按最大值处理
func (m *MiddlewareBuilder) MaxPageSize(size int) *MiddlewareBuilder {
	m.maxPageSize = size
	return m
}

// AllowPageSizeZero 允许客户端传 pageSize=0 查询全部数据
func (m *MiddlewareBuilder) AllowPageSizeZero() *MiddlewareBuilder {
	m.pageSizeZero = true
	return m
}

// OrderByColumns 允许排序的列, 列名不区分大小写
func (m *MiddlewareBuilder) OrderByColumns(columns ...string) *MiddlewareBuilder {
	m.orderByColumns = lo.SliceToMap(columns, func(col string) (string, struct{}) {
		return strings.ToLower(col), struct{}{}
	})
	return m
}

// PageOptions 应用到每一个 StartPage 上, 例如 pagehelper.PageWithReasonable(true)
func (m *MiddlewareBuilder) PageOptions(opts ...pagehelper.PageOption) *MiddlewareBuilder {
	m.opts = append(m.opts, opts...)
	return m
}

func (m *MiddlewareBuilder) Logger(logger *zap.Logger) *MiddlewareBuilder {
	m.logger = logger
	return m
}

func (m MiddlewareBuilder) Build() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req, err := m.parse(r)
			if err != nil {
				m.logger.Debug("pagehttp: 分页参数错误", zap.String("path", r.URL.Path), zap.Error(err))
				writeProblem(w, http.StatusBadRequest, err.Error())
				return
			}
			if req == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			if req.pageNum > 0 {
				opts := m.opts
				if req.orderBy != "" {
					opts = append(opts[:len(opts):len(opts)], pagehelper.PageWithOrderBy(req.orderBy))
				}
				if req.pageSize == 0 {
					opts = append(opts[:len(opts):len(opts)], pagehelper.PageWithPageSizeZero(true))
				}
				ctx, _ = pagehelper.StartPage(ctx, req.pageNum, req.pageSize, opts...)
			} else {
				ctx, _ = pagehelper.StartOrderBy(ctx, req.orderBy)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type pageRequest struct {
	pageNum  int
	pageSize int
	orderBy  string
}

// parse 没有 pageNum 也没有可用的 orderBy 时返回 nil
func (m MiddlewareBuilder) parse(r *http.Request) (*pageRequest, error) {
	query := r.URL.Query()
	req := &pageRequest{pageSize: m.defaultPageSize}
	if s := query.Get(m.pageNum); s != "" {
		n, err := cast.ToIntE(s)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%s 必须是正整数: %q", m.pageNum, s)
		}
		req.pageNum = n
	}
	if s := query.Get(m.pageSize); s != "" {
		n, err := cast.ToIntE(s)
		if err != nil || n < 0 || (n == 0 && !m.pageSizeZero) {
			return nil, fmt.Errorf("%s 不合法: %q", m.pageSize, s)
		}
		req.pageSize = min(n, m.maxPageSize)
	}
	if s := query.Get(m.orderBy); s != "" && len(m.orderByColumns) > 0 {
		orderBy, err := m.checkOrderBy(s)
		if err != nil {
			return nil, err
		}
		req.orderBy = orderBy
	}
	if req.pageNum == 0 && req.orderBy == "" {
		return nil, nil
	}
	return req, nil
}

// checkOrderBy 只接受 "列 [ASC|DESC]" 的列表
func (m MiddlewareBuilder) checkOrderBy(text string) (string, error) {
	items := strings.Split(text, ",")
	res := make([]string, 0, len(items))
	for _, item := range items {
		fields := strings.Fields(item)
		if len(fields) == 0 || len(fields) > 2 {
			return "", fmt.Errorf("非法的排序 %q", item)
		}
		if _, ok := m.orderByColumns[strings.ToLower(fields[0])]; !ok {
			return "", fmt.Errorf("不支持按 %s 排序", fields[0])
		}
		if len(fields) == 2 {
			dir := strings.ToUpper(fields[1])
			if dir != "ASC" && dir != "DESC" {
				return "", fmt.Errorf("非法的排序方向 %q", fields[1])
			}
			fields[1] = dir
		}
		res = append(res, strings.Join(fields, " "))
	}
	return strings.Join(res, ", "), nil
}

type problem struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func writeProblem(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(problem{
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}
