package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/fx"

	badgerconfig "github.com/weisyn/zkvm/internal/config/storage/badger"
	"github.com/weisyn/zkvm/internal/core/infrastructure/metrics"
	"github.com/weisyn/zkvm/internal/core/vm"
	"github.com/weisyn/zkvm/pkg/interfaces/config"
	"github.com/weisyn/zkvm/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkvm/pkg/types"
)

// ConfigPathEnv 配置文件路径环境变量
const ConfigPathEnv = "ZKVM_CONFIG_PATH"

// stopTimeout 停止时留给存储落盘的时间
const stopTimeout = 60 * time.Second

// ProvideAppOptions 提供应用配置选项实例
func (b *Bootstrap) ProvideAppOptions() config.AppOptions {
	return b.opts
}

// loadAppConfig 解析应用配置
//
// 优先级：嵌入配置 > 显式配置文件 > ZKVM_CONFIG_PATH > WithAppConfig > 默认空配置。
//
// 🔧 零值陷阱处理说明：
// 配置字段均为指针，nil 表示用户未设置，使用系统默认值；
// &value 表示用户明确设置，即使是零值（如 0、false、""）也会被采用。
func loadAppConfig(opts *options) error {
	data := opts.embeddedConfig
	source := "embedded"
	if len(data) == 0 {
		path := opts.configFilePath
		if path == "" {
			path = os.Getenv(ConfigPathEnv)
		}
		if path == "" {
			if opts.appConfig == nil {
				opts.appConfig = &types.AppConfig{}
			}
			return nil
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
		}
		data, source = raw, path
	}

	// 解析JSON配置为标准的AppConfig结构
	var appConfig types.AppConfig
	if err := json.Unmarshal(data, &appConfig); err != nil {
		return fmt.Errorf("解析配置 %s 失败: %w", source, err)
	}
	opts.appConfig = &appConfig
	return nil
}

// LoadConfigFile 读取并解析配置文件，path 为空时返回默认空配置
func LoadConfigFile(path string) (*types.AppConfig, error) {
	opts := newOptions(WithConfigFile(path))
	if path == "" {
		opts.appConfig = &types.AppConfig{}
		return opts.appConfig, nil
	}
	if err := loadAppConfig(opts); err != nil {
		return nil, &configError{err}
	}
	return opts.appConfig, nil
}

// createDataDirectories 根据配置自动创建数据目录结构
func createDataDirectories(provider config.Provider) error {
	var directories []string

	// 1. 存储目录（纯内存引擎不落盘）
	if provider.GetStorageEngine() != badgerconfig.EngineMemory {
		directories = append(directories, provider.GetBadger().Path)
	}

	// 2. 日志目录
	if logPath := provider.GetLog().FilePath; logPath != "" {
		directories = append(directories, filepath.Dir(logPath))
	}

	for _, dir := range directories {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建目录 %s 失败: %w", dir, err)
		}
	}
	return nil
}

// App 是zkvm应用的对外接口
type App interface {
	// Stop 停止应用
	Stop() error

	// Wait 等待应用收到退出信号
	Wait()

	// VM 获取虚拟机实例
	VM() *vm.VM

	// Metrics 获取指标收集器
	Metrics() *metrics.Collector

	// Config 获取配置提供者
	Config() config.Provider

	// Logger 获取根日志记录器
	Logger() log.Logger
}

// components 启动后从依赖图中取出的组件
type components struct {
	fx.In

	VM       *vm.VM
	Metrics  *metrics.Collector
	Provider config.Provider
	Logger   log.Logger
}

// internalApp zkvm应用的内部实现
type internalApp struct {
	bootstrap *Bootstrap
	parts     components
}

// Stop 停止应用
func (a *internalApp) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return a.bootstrap.StopApp(ctx)
}

// Wait 等待应用收到退出信号
func (a *internalApp) Wait() {
	sig := WaitForSignal()
	a.parts.Logger.Infof("收到信号 %v，正在优雅退出...", sig)
	if err := a.Stop(); err != nil {
		a.parts.Logger.Errorf("停止应用时出错: %v", err)
	}
}

func (a *internalApp) VM() *vm.VM                  { return a.parts.VM }
func (a *internalApp) Metrics() *metrics.Collector { return a.parts.Metrics }
func (a *internalApp) Config() config.Provider     { return a.parts.Provider }
func (a *internalApp) Logger() log.Logger          { return a.parts.Logger }

// Start 启动zkvm应用
func Start(appOptions ...Option) (App, error) {
	return BootstrapApp(appOptions...)
}

// WaitForSignal 等待退出信号
func WaitForSignal() os.Signal {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)
	return <-signals
}

// IsConfigError 判断启动失败是否源于配置
func IsConfigError(err error) bool {
	var target *configError
	return errors.As(err, &target)
}

type configError struct{ err error }

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }
