package memory

import (
	"time"

	configtypes "github.com/weisyn/zkvm/pkg/types"
)

// MemoryOptions 内存缓存配置选项
type MemoryOptions struct {
	// === 基础配置 ===
	MaxEntries   int           `json:"max_entries"`    // 窗口内最大条目数
	MaxEntrySize int           `json:"max_entry_size"` // 单条目最大字节数
	HardMaxMB    int           `json:"hard_max_mb"`    // 缓存总量上限（MB），0 表示不限
	DefaultTTL   time.Duration `json:"default_ttl"`    // 生命周期窗口

	// === 清理配置 ===
	CleanupInterval time.Duration `json:"cleanup_interval"` // 清理间隔
}

// Config 内存缓存配置实现
type Config struct {
	options *MemoryOptions
}

// New 创建内存缓存配置；*types.UserVMConfig 的 PathCacheMB 覆盖总量上限
func New(userConfig interface{}) *Config {
	options := createDefaultMemoryOptions()
	if vmConfig, ok := userConfig.(*configtypes.UserVMConfig); ok && vmConfig != nil {
		if vmConfig.PathCacheMB != nil {
			options.HardMaxMB = *vmConfig.PathCacheMB
		}
	}
	return &Config{options: options}
}

func createDefaultMemoryOptions() *MemoryOptions {
	return &MemoryOptions{
		MaxEntries:      defaultMaxEntries,
		MaxEntrySize:    defaultMaxEntrySize,
		HardMaxMB:       defaultHardMaxMB,
		DefaultTTL:      defaultDefaultTTL,
		CleanupInterval: defaultCleanupInterval,
	}
}

// GetOptions 获取完整的配置选项
func (c *Config) GetOptions() *MemoryOptions {
	return c.options
}

// GetMaxEntriesInWindow 窗口内最大条目数
func (c *Config) GetMaxEntriesInWindow() int {
	return c.options.MaxEntries
}

// GetMaxEntrySize 单条目最大字节数
func (c *Config) GetMaxEntrySize() int {
	return c.options.MaxEntrySize
}

// GetHardMaxCacheSize 缓存总量上限（MB）
func (c *Config) GetHardMaxCacheSize() int {
	return c.options.HardMaxMB
}

// GetLifeWindow 生命周期窗口
func (c *Config) GetLifeWindow() time.Duration {
	return c.options.DefaultTTL
}

// GetCleanWindow 清理间隔
func (c *Config) GetCleanWindow() time.Duration {
	return c.options.CleanupInterval
}
