// Package config 提供应用配置管理功能
package config

import (
	"github.com/weisyn/zkvm/pkg/interfaces/config"
	"github.com/weisyn/zkvm/pkg/types"
	"go.uber.org/fx"
)

// ConfigParams 定义配置模块的依赖参数
type ConfigParams struct {
	fx.In

	// 应用配置选项
	AppOptions config.AppOptions `optional:"true"`
}

// ConfigOutput 定义配置模块的输出结构
//
// 用户配置段落以指针形式注入 log / storage / vm 模块，未配置时为 nil。
type ConfigOutput struct {
	fx.Out

	// 配置提供者
	Provider config.Provider

	LogConfig     *types.UserLogConfig
	StorageConfig *types.UserStorageConfig
	VMConfig      *types.UserVMConfig
}

// Module 返回配置模块
func Module() fx.Option {
	return fx.Module("config",
		fx.Provide(ProvideConfigServices),
	)
}

// ProvideConfigServices 提供配置服务
func ProvideConfigServices(params ConfigParams) (ConfigOutput, error) {
	// 从应用配置选项获取用户配置
	var appConfig *types.AppConfig
	if params.AppOptions != nil {
		appConfig = params.AppOptions.GetAppConfig()
	}

	if err := ValidateMandatoryConfig(appConfig); err != nil {
		return ConfigOutput{}, err
	}

	// 创建配置提供者
	provider := NewProvider(appConfig).(*Provider)
	return ConfigOutput{
		Provider:      provider,
		LogConfig:     provider.appConfig.Log,
		StorageConfig: provider.UserStorage(),
		VMConfig:      provider.appConfig.VM,
	}, nil
}
