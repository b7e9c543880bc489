package storage

import (
	"context"
	"time"
)

// ============================================================================
// MemoryStore 接口定义
// ============================================================================

// MemoryStore 内存缓存
//
// 条目可能被淘汰，调用方必须能从持久层重建。
type MemoryStore interface {
	// Get 获取缓存值，exists 为 false 表示未命中
	Get(ctx context.Context, key string) (value []byte, exists bool, err error)

	// Set 写入缓存值；ttl 为 0 时使用缓存的生命周期窗口
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete 删除缓存值
	Delete(ctx context.Context, key string) error

	// Clear 清空缓存
	Clear(ctx context.Context) error

	// Len 当前条目数
	Len() int

	// Close 释放资源
	Close() error
}
