package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/samber/lo"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/startdusk/pagehelper"
	"github.com/startdusk/pagehelper/orm"
	"go.uber.org/zap"
)

type result struct {
	Dialect string `json:"dialect"`
	SQL     string `json:"sql"`
	Args    []any  `json:"args,omitempty"`
}

func newCountCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "count <sql>",
		Short: "生成 count 查询",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			h, err := pagehelper.LookupDialect(cfg.HelperDialect, cfg.AggregateFunctions)
			if err != nil {
				return err
			}
			ctx, _ := pagehelper.StartPage(context.Background(), 1, 10,
				pagehelper.PageWithCountColumn(cfg.CountColumn))
			sql, err := h.CountSQL(ctx, nil, &orm.BoundSQL{SQL: args[0]}, nil,
				orm.NoRowBounds, orm.NewCacheKey(args[0]))
			if err != nil {
				return err
			}
			opts.logger(cmd.ErrOrStderr()).Debug("pagesql: 生成 count 查询",
				zap.String("dialect", h.Name()), zap.String("countColumn", cfg.CountColumn))
			return write(cmd.OutOrStdout(), opts.format, result{Dialect: h.Name(), SQL: sql})
		},
	}
}

type pageOptions struct {
	pageNum  int
	pageSize int
	orderBy  string
	args     []string
}

func newPageCommand(opts *rootOptions) *cobra.Command {
	po := &pageOptions{}
	cmd := &cobra.Command{
		Use:   "page <sql>",
		Short: "生成分页查询和绑定参数",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			h, err := pagehelper.LookupDialect(cfg.HelperDialect, cfg.AggregateFunctions)
			if err != nil {
				return err
			}
			var pageOpts []pagehelper.PageOption
			if po.orderBy != "" {
				pageOpts = append(pageOpts, pagehelper.PageWithOrderBy(po.orderBy))
			}
			ctx, page := pagehelper.StartPage(context.Background(), po.pageNum, po.pageSize, pageOpts...)
			bound := &orm.BoundSQL{SQL: args[0], Args: bindArgs(po.args)}
			// pageSize 为 0 时不分页
			if !h.BeforePage(ctx, nil, nil, orm.NoRowBounds) {
				return write(cmd.OutOrStdout(), opts.format, result{Dialect: h.Name(), SQL: bound.SQL, Args: bound.Args})
			}
			key := orm.NewCacheKey(args[0])
			h.ProcessParameterObject(ctx, nil, nil, bound, key)
			sql, err := h.PageSQL(ctx, nil, bound, nil, orm.NoRowBounds, key)
			if err != nil {
				return err
			}
			opts.logger(cmd.ErrOrStderr()).Debug("pagesql: 生成分页查询",
				zap.String("dialect", h.Name()),
				zap.Int("startRow", page.StartRow), zap.Int("endRow", page.EndRow))
			return write(cmd.OutOrStdout(), opts.format, result{Dialect: h.Name(), SQL: sql, Args: bound.Args})
		},
	}
	cmd.Flags().IntVarP(&po.pageNum, "page-num", "n", 1, "页码, 从 1 开始")
	cmd.Flags().IntVarP(&po.pageSize, "page-size", "s", 10, "每页条数")
	cmd.Flags().StringVar(&po.orderBy, "order-by", "", "替换原查询的 ORDER BY")
	cmd.Flags().StringSliceVar(&po.args, "args", nil, "原查询的绑定参数, 逗号分隔")
	return cmd
}

func newDialectsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dialects",
		Short: "列出支持的数据库方言",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := pagehelper.HelperDialects()
			if opts.format == formatJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(names)
			}
			for _, name := range names {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// bindArgs 能转成整数的参数按整数绑定
func bindArgs(args []string) []any {
	return lo.Map(args, func(arg string, _ int) any {
		if n, err := cast.ToInt64E(arg); err == nil {
			return n
		}
		return arg
	})
}

func write(w io.Writer, format string, res result) error {
	if format == formatJSON {
		return json.NewEncoder(w).Encode(res)
	}
	_, err := fmt.Fprintf(w, "dialect: %s\nsql: %s\nargs: %v\n", res.Dialect, res.SQL, res.Args)
	return err
}
