// Package storage 定义键值存储与内存缓存接口
package storage

import (
	"context"
)

// ============================================================================
// BadgerStore 接口定义
// ============================================================================

// BadgerStore 有序键值存储
//
// 区块存储的持久层：区块行、承诺叶子与序列号均以前缀键保存。
// 键不存在时 Get 返回 (nil, nil)。
type BadgerStore interface {
	// Close 关闭存储
	Close() error

	// Get 获取值
	Get(ctx context.Context, key []byte) ([]byte, error)

	// Set 写入值
	Set(ctx context.Context, key, value []byte) error

	// Delete 删除键
	Delete(ctx context.Context, key []byte) error

	// Exists 键是否存在
	Exists(ctx context.Context, key []byte) (bool, error)

	// PrefixScan 按前缀扫描，返回键到值的映射
	PrefixScan(ctx context.Context, prefix []byte) (map[string][]byte, error)

	// RunInTransaction 在读写事务中执行 fn；fn 返回错误时回滚
	RunInTransaction(ctx context.Context, fn func(tx BadgerTransaction) error) error
}

// BadgerTransaction 读写事务
type BadgerTransaction interface {
	Get(key []byte) ([]byte, error)

	Set(key, value []byte) error

	Delete(key []byte) error

	Exists(key []byte) (bool, error)
}
