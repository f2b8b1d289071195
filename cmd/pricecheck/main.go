package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pricecheck/internal/config"
)

// rootOptions 全局参数
type rootOptions struct {
	configPath string
	dataDir    string
	dev        bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "错误:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "pricecheck",
		Short: "活动价格核对工具",
		Long: `pricecheck 将活动价格提交表与 SKU 表、工具价格表对账：
按 SKU 工具价格 -> Parent SKU 工具价格 -> 推荐价格 的顺序确定活动价格，
标记需要人工审核的行，并把最终价格与价格标记写回原始提交表。`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultPath(), "配置文件路径")
	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "数据目录 (覆盖配置文件)")
	root.PersistentFlags().BoolVar(&opts.dev, "dev", false, "开发模式")

	root.AddCommand(newServeCommand(opts), newRunCommand(opts))
	return root
}

// loadConfig 加载配置并应用全局参数
func (o *rootOptions) loadConfig() (*config.AppConfig, config.LoadConfigInfo, error) {
	cfg, info, err := config.LoadConfigWithInfo(o.configPath)
	if err != nil {
		return nil, info, err
	}
	if o.dev {
		cfg.Server.DevMode = true
	}
	if o.dataDir != "" {
		cfg.Data.DataDir = o.dataDir
	}
	return cfg, info, nil
}

// newLogger 开发模式使用可读格式，否则使用 JSON
func newLogger(dev bool) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if dev {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}
