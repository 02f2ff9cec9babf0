package main

import (
	"fmt"
	"io"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/startdusk/pagehelper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	formatText = "text"
	formatJSON = "json"
)

type rootOptions struct {
	configFile string
	format     string
	verbose    bool
	v          *viper.Viper
}

// config 命令行参数覆盖配置文件, helperDialect 为空时按 mysql 处理
func (o *rootOptions) config() (pagehelper.Config, error) {
	cfg, err := pagehelper.LoadConfig(o.v)
	if err != nil {
		return cfg, err
	}
	if cfg.HelperDialect == "" {
		cfg.HelperDialect = pagehelper.DialectMySQL
	}
	return cfg, nil
}

func (o *rootOptions) logger(w io.Writer) *zap.Logger {
	if !o.verbose {
		return zap.NewNop()
	}
	enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), zap.DebugLevel))
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{v: viper.New()}
	cmd := &cobra.Command{
		Use:   "pagesql",
		Short: "打印查询在各个数据库上的 count SQL 和分页 SQL",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !lo.Contains([]string{formatText, formatJSON}, opts.format) {
				return fmt.Errorf("非法的输出格式 %q, 只支持 text 和 json", opts.format)
			}
			if opts.configFile == "" {
				return nil
			}
			opts.v.SetConfigFile(opts.configFile)
			if err := opts.v.ReadInConfig(); err != nil {
				return fmt.Errorf("读取配置文件失败: %w", err)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "pagehelper 配置文件, 支持 yaml, json, toml")
	flags.StringVar(&opts.format, "format", formatText, "输出格式 (text|json)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "在 stderr 输出调试日志")
	flags.StringP("dialect", "d", "", "数据库方言或者别名, 例如 mysql, postgres, oracle")
	flags.String("count-column", "", "count 的列, 默认 0")
	flags.String("aggregate-functions", "", "额外的聚合函数, 逗号分隔")
	_ = opts.v.BindPFlag("helperDialect", flags.Lookup("dialect"))
	_ = opts.v.BindPFlag("countColumn", flags.Lookup("count-column"))
	_ = opts.v.BindPFlag("aggregateFunctions", flags.Lookup("aggregate-functions"))

	cmd.AddCommand(newCountCommand(opts))
	cmd.AddCommand(newPageCommand(opts))
	cmd.AddCommand(newDialectsCommand(opts))
	return cmd
}
