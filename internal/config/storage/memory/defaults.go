package memory

import "time"

// 内存缓存默认配置值
const (
	// defaultMaxEntries 状态路径缓存的预分配条目数
	defaultMaxEntries = 4096

	// defaultMaxEntrySize 深度 32 的状态路径约 1.1KB
	defaultMaxEntrySize = 2 * 1024

	// defaultHardMaxMB 默认缓存总量上限
	defaultHardMaxMB = 64

	// defaultDefaultTTL 默认生命周期窗口
	defaultDefaultTTL = time.Hour

	// defaultCleanupInterval 默认清理间隔
	defaultCleanupInterval = 10 * time.Minute
)
