package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/fx"

	internalconfig "github.com/weisyn/zkvm/internal/config"
	log "github.com/weisyn/zkvm/internal/core/infrastructure/log"
	"github.com/weisyn/zkvm/internal/core/infrastructure/metrics"
	"github.com/weisyn/zkvm/internal/core/infrastructure/storage"
	"github.com/weisyn/zkvm/internal/core/vm"
)

// Framework layers
const (
	// 基础设施层
	LayerInfrastructure = "infrastructure"
	// 通信与数据层
	LayerCommunication = "communication"
	// 业务逻辑层
	LayerBusiness = "business"
	// 应用层
	LayerApplication = "application"
)

// startTimeout 启动超时
const startTimeout = 120 * time.Second

// Bootstrap 应用引导程序
type Bootstrap struct {
	opts  *options
	fxApp *fx.App
	parts components
}

// NewBootstrap 创建引导程序
func NewBootstrap(opts *options) *Bootstrap {
	return &Bootstrap{
		opts: opts,
	}
}

// SetupInfrastructureLayer 设置基础设施层模块
func (b *Bootstrap) SetupInfrastructureLayer() []fx.Option {
	return []fx.Option{
		fx.Provide(b.ProvideAppOptions),
		internalconfig.Module(), // 1. 配置(不依赖其他)
		log.Module(),            // 2. 日志(依赖配置)
		metrics.Module(),        // 3. 指标(依赖日志)
	}
}

// SetupCommunicationLayer 设置通信与数据层模块
func (b *Bootstrap) SetupCommunicationLayer() []fx.Option {
	return []fx.Option{
		storage.Module(), // 持久存储与路径缓存(依赖配置和日志)
	}
}

// SetupBusinessLayer 设置业务逻辑层模块
//
// 执行引擎 -> 区块存储 -> 查询源 -> 证明后端 由 vm 模块按序装配。
func (b *Bootstrap) SetupBusinessLayer() []fx.Option {
	return []fx.Option{
		vm.Module(),
	}
}

// SetupApplicationLayer 设置应用层模块
func (b *Bootstrap) SetupApplicationLayer() []fx.Option {
	modules := []fx.Option{
		fx.Populate(&b.parts),
	}
	return append(modules, b.opts.extra...)
}

// SetupModules 设置所有应用模块
func (b *Bootstrap) SetupModules() []fx.Option {
	var allModules []fx.Option
	allModules = append(allModules, b.SetupInfrastructureLayer()...)
	allModules = append(allModules, b.SetupCommunicationLayer()...)
	allModules = append(allModules, b.SetupBusinessLayer()...)
	allModules = append(allModules, b.SetupApplicationLayer()...)
	return allModules
}

// CreateFxApp 创建并配置fx应用
func (b *Bootstrap) CreateFxApp() error {
	b.fxApp = fx.New(
		fx.Options(b.SetupModules()...),
		// 禁用fx内部日志
		fx.NopLogger,
	)
	return b.fxApp.Err()
}

// StartApp 启动应用程序
func (b *Bootstrap) StartApp(ctx context.Context) error {
	if err := b.fxApp.Start(ctx); err != nil {
		return fmt.Errorf("启动应用失败: %w", err)
	}
	return nil
}

// StopApp 停止应用程序
func (b *Bootstrap) StopApp(ctx context.Context) error {
	if err := b.fxApp.Stop(ctx); err != nil {
		return fmt.Errorf("停止应用失败: %w", err)
	}
	return nil
}

// BootstrapApp 执行完整的引导过程并返回应用实例
func BootstrapApp(options ...Option) (App, error) {
	opts := newOptions(options...)

	if err := loadAppConfig(opts); err != nil {
		return nil, &configError{err}
	}
	if err := internalconfig.ValidateMandatoryConfig(opts.appConfig); err != nil {
		return nil, &configError{err}
	}
	if err := createDataDirectories(internalconfig.NewProvider(opts.appConfig)); err != nil {
		return nil, err
	}

	bootstrap := NewBootstrap(opts)
	if err := bootstrap.CreateFxApp(); err != nil {
		return nil, fmt.Errorf("创建应用失败: %w", err)
	}

	startupCtx, startupCancel := context.WithTimeout(context.Background(), startTimeout)
	defer startupCancel()
	if err := bootstrap.StartApp(startupCtx); err != nil {
		return nil, err
	}

	bootstrap.parts.Logger.Infof("应用已启动: name=%s, network=%s, scheme=%s",
		bootstrap.parts.Provider.GetAppName(), bootstrap.parts.VM.Network().Name(), bootstrap.parts.Provider.GetVM().ProvingScheme)

	return &internalApp{bootstrap: bootstrap, parts: bootstrap.parts}, nil
}
