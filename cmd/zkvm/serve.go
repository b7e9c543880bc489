package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/weisyn/zkvm/internal/app"
)

var serveListen string

// serveCmd 启动节点并暴露指标
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动节点并暴露 Prometheus 指标",
	Long:  "按配置打开区块存储并装配虚拟机，在 --listen 上提供 /metrics，收到 SIGINT/SIGTERM 后退出",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := app.Start(app.WithAppConfig(cfg))
		if err != nil {
			return err
		}
		logger := a.Logger()

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(a.Metrics().Registry(), promhttp.HandlerOpts{}))
		server := &http.Server{Addr: serveListen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		serveErr := make(chan error, 1)
		go func() {
			logger.Infof("指标服务监听于 %s", serveListen)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
			close(serveErr)
		}()

		go func() {
			app.WaitForSignal()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
		}()

		err = <-serveErr
		if stopErr := a.Stop(); err == nil {
			err = stopErr
		}
		return err
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", ":9464", "指标监听地址")
}
