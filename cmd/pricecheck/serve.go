package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pricecheck/internal/server"
	"pricecheck/internal/util"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 Web 服务",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, info, err := root.loadConfig()
			if err != nil {
				return err
			}
			// config.toml 中显式配置的端口优先
			if port > 0 && !info.PortSpecified {
				cfg.Server.Port = port
			}
			if !info.PortSpecified {
				if p, err := util.FindAvailablePort(cfg.Server.Port, 20); err == nil {
					cfg.Server.Port = p
				}
			}

			logger, err := newLogger(cfg.Server.DevMode)
			if err != nil {
				return err
			}
			defer logger.Sync()

			srv, err := server.NewServer(cfg, logger)
			if err != nil {
				return err
			}

			addr := fmt.Sprintf(":%d", cfg.Server.Port)
			url := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)

			errCh := make(chan error, 1)
			go func() {
				logger.Info("server listening", zap.Int("port", cfg.Server.Port))
				errCh <- srv.Run(addr)
			}()

			if !cfg.Server.DevMode {
				if err := util.OpenBrowserWithFallback(url); err != nil {
					fmt.Printf("无法自动打开浏览器，请手动访问: %s\n", url)
				}
			} else {
				fmt.Printf("开发模式: 请访问 %s\n", url)
			}

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				if err != nil {
					return err
				}
			case <-quit:
				logger.Info("shutting down")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "服务端口 (config.toml 优先；仅当未显式配置 port 时生效)")
	return cmd
}
