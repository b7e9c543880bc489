// Package config provides configuration provider interfaces.
package config

import (
	logconfig "github.com/weisyn/zkvm/internal/config/log"
	badgerconfig "github.com/weisyn/zkvm/internal/config/storage/badger"
	memoryconfig "github.com/weisyn/zkvm/internal/config/storage/memory"
	vmconfig "github.com/weisyn/zkvm/internal/config/vm"
	"github.com/weisyn/zkvm/pkg/types"
)

// ════════════════════════════════════════════════════════════════════════════════════════════════
//                                  ⚙️ 配置提供者
// ════════════════════════════════════════════════════════════════════════════════════════════════

// Provider 配置提供者接口
//
// 各 Get 方法返回已合并默认值的完整配置；用户未配置的段落使用默认值。
type Provider interface {
	// GetAppName 获取应用名称
	GetAppName() string

	// GetDataDir 获取数据目录
	GetDataDir() string

	// GetLog 获取日志配置
	GetLog() *logconfig.LogOptions

	// === 存储引擎配置 ===

	// GetStorageEngine 获取存储引擎名称：badger | memory
	GetStorageEngine() string

	// GetBadger 获取BadgerDB存储配置
	GetBadger() *badgerconfig.BadgerOptions

	// GetMemory 获取路径缓存配置
	GetMemory() *memoryconfig.MemoryOptions

	// === 虚拟机配置 ===

	// GetVM 获取虚拟机配置
	GetVM() *vmconfig.VMOptions

	// === 原始配置访问 ===

	// GetAppConfig 获取原始应用配置（用于验证等场景）
	GetAppConfig() *types.AppConfig
}
