package pagehelper

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/samber/lo"
	"github.com/spf13/cast"
	"github.com/startdusk/pagehelper/orm"
	"go.uber.org/zap"
)

// Pageable 由自带分页参数的参数对象实现, pageNum 小于等于 0 代表没有分页参数
type Pageable interface {
	Pagination() (pageNum int, pageSize int, orderBy string)
}

const (
	paramPageNum      = "pageNum"
	paramPageSize     = "pageSize"
	paramCount        = "count"
	paramReasonable   = "reasonable"
	paramPageSizeZero = "pageSizeZero"
	paramOrderBy      = "orderBy"
)

var defaultParams = map[string]string{
	paramPageNum:      paramPageNum,
	paramPageSize:     paramPageSize,
	paramCount:        "countSql",
	paramReasonable:   paramReasonable,
	paramPageSizeZero: paramPageSizeZero,
	paramOrderBy:      paramOrderBy,
}

// parseParams 解析 pageNum=pn;pageSize=ps, 分隔符可以是 ; , &
func parseParams(text string) (map[string]string, error) {
	res := lo.Assign(defaultParams)
	text = strings.TrimSpace(text)
	if text == "" {
		return res, nil
	}
	pairs := strings.FieldsFunc(text, func(r rune) bool {
		return r == ';' || r == ',' || r == '&'
	})
	for _, pair := range pairs {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 || strings.TrimSpace(kv[0]) == "" || strings.TrimSpace(kv[1]) == "" {
			return nil, fmt.Errorf("pagehelper: 非法的 params 配置 %q", pair)
		}
		res[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
	}
	return res, nil
}

// pageParams 决定一次查询使用什么分页参数
type pageParams struct {
	offsetAsPageNum         bool
	rowBoundsWithCount      bool
	pageSizeZero            bool
	reasonable              bool
	supportMethodsArguments bool
	countColumn             string
	params                  map[string]string

	logger *zap.Logger
}

func newPageParams(cfg Config, logger *zap.Logger) (*pageParams, error) {
	params, err := parseParams(cfg.Params)
	if err != nil {
		return nil, err
	}
	return &pageParams{
		offsetAsPageNum:         cfg.OffsetAsPageNum,
		rowBoundsWithCount:      cfg.RowBoundsWithCount,
		pageSizeZero:            cfg.PageSizeZero,
		reasonable:              cfg.Reasonable,
		supportMethodsArguments: cfg.SupportMethodsArguments,
		countColumn:             cfg.CountColumn,
		params:                  params,
		logger:                  logger,
	}, nil
}

// getPage 按顺序查找分页参数: ctx 里已有的, RowBounds, 参数对象
// 找到之后写回 ctx, 找不到返回 nil
func (p *pageParams) getPage(ctx context.Context, param any, bounds orm.RowBounds) *Page {
	page := LocalPage(ctx)
	if page == nil {
		switch {
		case !orm.IsNoRowBounds(bounds):
			page = p.pageFromRowBounds(bounds)
		case p.supportMethodsArguments || isPageable(param):
			var err error
			page, err = p.pageFromParam(param)
			if err != nil {
				p.logger.Warn("pagehelper: 无法从参数中获取分页参数, 不分页", zap.Error(err))
				return nil
			}
		}
		if page == nil {
			return nil
		}
		setLocalPage(ctx, page)
	}
	if page.Reasonable == nil {
		page.setReasonable(p.reasonable)
	}
	if page.PageSizeZero == nil {
		page.PageSizeZero = lo.ToPtr(p.pageSizeZero)
	}
	if page.CountColumn == "" {
		page.CountColumn = p.countColumn
	}
	return page
}

func (p *pageParams) pageFromRowBounds(bounds orm.RowBounds) *Page {
	var page *Page
	if p.offsetAsPageNum {
		page = NewPage(bounds.Offset(), bounds.Limit(), p.rowBoundsWithCount)
	} else {
		page = newOffsetPage(bounds.Offset(), bounds.Limit(), p.rowBoundsWithCount)
		// offset 不一定落在页的边界上, 合理化会算错页码
		page.setReasonable(false)
	}
	if pb, ok := bounds.(*PageRowBounds); ok {
		page.Count = pb.Count == nil || *pb.Count
	}
	return page
}

func isPageable(param any) bool {
	_, ok := param.(Pageable)
	return ok
}

func (p *pageParams) pageFromParam(param any) (*Page, error) {
	if param == nil {
		return nil, nil
	}
	if pa, ok := param.(Pageable); ok {
		pageNum, pageSize, orderBy := pa.Pagination()
		return pageOf(pageNum > 0, pageNum, pageSize, orderBy), nil
	}

	values, err := toValues(param)
	if err != nil {
		return nil, err
	}
	orderBy, err := p.stringValue(values, paramOrderBy)
	if err != nil {
		return nil, err
	}
	rawNum, hasNum := p.value(values, paramPageNum)
	rawSize, hasSize := p.value(values, paramPageSize)
	if !hasNum || !hasSize {
		return pageOf(false, 0, 0, orderBy), nil
	}
	pageNum, err := cast.ToIntE(rawNum)
	if err != nil {
		return nil, fmt.Errorf("pagehelper: 分页参数不是合法的数字: %w", err)
	}
	pageSize, err := cast.ToIntE(rawSize)
	if err != nil {
		return nil, fmt.Errorf("pagehelper: 分页参数不是合法的数字: %w", err)
	}

	page := pageOf(true, pageNum, pageSize, orderBy)
	if raw, ok := p.value(values, paramCount); ok {
		if page.Count, err = cast.ToBoolE(raw); err != nil {
			return nil, err
		}
	}
	if raw, ok := p.value(values, paramReasonable); ok {
		reasonable, err := cast.ToBoolE(raw)
		if err != nil {
			return nil, err
		}
		page.setReasonable(reasonable)
	}
	if raw, ok := p.value(values, paramPageSizeZero); ok {
		pageSizeZero, err := cast.ToBoolE(raw)
		if err != nil {
			return nil, err
		}
		page.PageSizeZero = lo.ToPtr(pageSizeZero)
	}
	return page, nil
}

// pageOf 没有页码但是有排序时只排序
func pageOf(paged bool, pageNum int, pageSize int, orderBy string) *Page {
	if paged {
		page := NewPage(pageNum, pageSize, true)
		page.OrderBy = orderBy
		return page
	}
	if orderBy == "" {
		return nil
	}
	return &Page{
		PageNum:     1,
		OrderBy:     orderBy,
		OrderByOnly: true,
	}
}

// value 按 params 的映射取值, nil 和空字符串当作没有
func (p *pageParams) value(values map[string]any, name string) (any, bool) {
	key := p.params[name]
	val, ok := values[key]
	if !ok {
		key, ok = lo.FindKeyBy(values, func(k string, _ any) bool {
			return strings.EqualFold(k, p.params[name])
		})
		val = values[key]
	}
	if !ok || val == nil {
		return nil, false
	}
	if s, isStr := val.(string); isStr && strings.TrimSpace(s) == "" {
		return nil, false
	}
	return val, true
}

func (p *pageParams) stringValue(values map[string]any, name string) (string, error) {
	val, ok := p.value(values, name)
	if !ok {
		return "", nil
	}
	return cast.ToStringE(val)
}

// toValues map 直接使用, 结构体用 mapstructure 展开
func toValues(param any) (map[string]any, error) {
	if m, ok := param.(map[string]any); ok {
		return m, nil
	}
	val := reflect.Indirect(reflect.ValueOf(param))
	// 单个值不可能带分页参数
	if val.Kind() != reflect.Struct && val.Kind() != reflect.Map {
		return nil, nil
	}
	res := make(map[string]any, 8)
	if err := mapstructure.Decode(param, &res); err != nil {
		return nil, err
	}
	return res, nil
}
