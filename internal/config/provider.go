package config

import (
	"strings"

	logconfig "github.com/weisyn/zkvm/internal/config/log"
	badgerconfig "github.com/weisyn/zkvm/internal/config/storage/badger"
	memoryconfig "github.com/weisyn/zkvm/internal/config/storage/memory"
	vmconfig "github.com/weisyn/zkvm/internal/config/vm"
	"github.com/weisyn/zkvm/pkg/interfaces/config"
	"github.com/weisyn/zkvm/pkg/types"
)

const (
	defaultAppName = "zkvm"
	defaultDataDir = "./data"
)

// Provider 实现配置提供者接口
type Provider struct {
	appConfig *types.AppConfig
}

// NewProvider 创建配置提供者
//
// appConfig 为空时全部使用默认值。
func NewProvider(appConfig *types.AppConfig) config.Provider {
	if appConfig == nil {
		appConfig = &types.AppConfig{}
	}
	return &Provider{
		appConfig: appConfig,
	}
}

// GetAppName 获取应用名称
func (p *Provider) GetAppName() string {
	if p.appConfig.AppName != nil && strings.TrimSpace(*p.appConfig.AppName) != "" {
		return *p.appConfig.AppName
	}
	return defaultAppName
}

// GetDataDir 获取数据目录
//
// 优先级：storage.data_root > data_dir > 默认值。
func (p *Provider) GetDataDir() string {
	if s := p.appConfig.Storage; s != nil && s.DataRoot != nil && *s.DataRoot != "" {
		return *s.DataRoot
	}
	if p.appConfig.DataDir != nil && *p.appConfig.DataDir != "" {
		return *p.appConfig.DataDir
	}
	return defaultDataDir
}

// GetLog 获取日志配置
func (p *Provider) GetLog() *logconfig.LogOptions {
	return logconfig.New(p.userLog()).GetOptions()
}

// GetStorageEngine 获取存储引擎名称
func (p *Provider) GetStorageEngine() string {
	if s := p.appConfig.Storage; s != nil && s.Engine != nil && *s.Engine != "" {
		return strings.ToLower(*s.Engine)
	}
	return badgerconfig.EngineBadger
}

// GetBadger 获取BadgerDB存储配置
func (p *Provider) GetBadger() *badgerconfig.BadgerOptions {
	return badgerconfig.New(p.UserStorage()).GetOptions()
}

// GetMemory 获取路径缓存配置
func (p *Provider) GetMemory() *memoryconfig.MemoryOptions {
	return memoryconfig.New(p.userVM()).GetOptions()
}

// GetVM 获取虚拟机配置
func (p *Provider) GetVM() *vmconfig.VMOptions {
	return vmconfig.New(p.userVM()).GetOptions()
}

// GetAppConfig 获取原始应用配置
func (p *Provider) GetAppConfig() *types.AppConfig {
	return p.appConfig
}

// UserStorage 返回补全 data_root 后的存储配置
//
// 只配置了顶层 data_dir 时，存储落在 {data_dir}/badger/。
func (p *Provider) UserStorage() *types.UserStorageConfig {
	storage := types.UserStorageConfig{}
	if p.appConfig.Storage != nil {
		storage = *p.appConfig.Storage
	}
	if storage.DataRoot == nil && p.appConfig.DataDir != nil {
		dir := *p.appConfig.DataDir
		storage.DataRoot = &dir
	}
	return &storage
}

// 以 interface{} 返回，未配置时为无类型 nil，配置实现据此走默认值
func (p *Provider) userLog() interface{} {
	if p.appConfig.Log == nil {
		return nil
	}
	return p.appConfig.Log
}

func (p *Provider) userVM() interface{} {
	if p.appConfig.VM == nil {
		return nil
	}
	return p.appConfig.VM
}
