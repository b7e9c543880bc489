// Package memory 提供基于BigCache的内存缓存实现
package memory

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/allegro/bigcache/v3"
	memoryconfig "github.com/weisyn/zkvm/internal/config/storage/memory"
	logimpl "github.com/weisyn/zkvm/internal/core/infrastructure/log"
	log "github.com/weisyn/zkvm/pkg/interfaces/infrastructure/log"
	storage "github.com/weisyn/zkvm/pkg/interfaces/infrastructure/storage"
)

var _ storage.MemoryStore = (*Store)(nil)

// 值前缀的过期时间戳宽度
const expiryHeader = 8

// Store 基于BigCache的MemoryStore实现
//
// 每个值前置 8 字节过期时间（UnixNano，0 表示沿用生命周期窗口）。
type Store struct {
	cache  *bigcache.BigCache
	logger log.Logger
	config *memoryconfig.Config

	mutex  sync.RWMutex
	closed bool
}

// New 创建BigCache内存缓存
func New(config *memoryconfig.Config, logger log.Logger) (*Store, error) {
	if logger == nil {
		logger = logimpl.NewNop()
	}
	if config == nil {
		config = memoryconfig.New(nil)
	}
	cacheConfig := bigcache.DefaultConfig(config.GetLifeWindow())
	cacheConfig.MaxEntriesInWindow = config.GetMaxEntriesInWindow()
	cacheConfig.MaxEntrySize = config.GetMaxEntrySize()
	cacheConfig.HardMaxCacheSize = config.GetHardMaxCacheSize()
	cacheConfig.CleanWindow = config.GetCleanWindow()
	cacheConfig.Shards = 64
	cacheConfig.Verbose = false

	cache, err := bigcache.New(context.Background(), cacheConfig)
	if err != nil {
		return nil, fmt.Errorf("创建BigCache实例失败: %w", err)
	}
	return &Store{cache: cache, logger: logger, config: config}, nil
}

// Get 获取缓存值
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.closed {
		return nil, false, nil
	}

	raw, err := s.cache.Get(key)
	if err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			return nil, false, nil
		}
		s.logger.Warnf("获取缓存键[%s]失败: %v", key, err)
		return nil, false, err
	}
	if len(raw) < expiryHeader {
		return nil, false, nil
	}
	if expiry := int64(binary.LittleEndian.Uint64(raw)); expiry != 0 && time.Now().UnixNano() > expiry {
		_ = s.cache.Delete(key)
		return nil, false, nil
	}
	value := make([]byte, len(raw)-expiryHeader)
	copy(value, raw[expiryHeader:])
	return value, true, nil
}

// Set 写入缓存值
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.closed {
		return nil
	}

	raw := make([]byte, expiryHeader+len(value))
	if ttl > 0 {
		binary.LittleEndian.PutUint64(raw, uint64(time.Now().Add(ttl).UnixNano()))
	}
	copy(raw[expiryHeader:], value)
	if err := s.cache.Set(key, raw); err != nil {
		s.logger.Warnf("设置缓存键[%s]失败: %v", key, err)
		return err
	}
	return nil
}

// Delete 删除缓存值
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.closed {
		return nil
	}
	if err := s.cache.Delete(key); err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		return err
	}
	return nil
}

// Clear 清空缓存
func (s *Store) Clear(ctx context.Context) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.closed {
		return nil
	}
	return s.cache.Reset()
}

// Len 当前条目数
func (s *Store) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.closed {
		return 0
	}
	return s.cache.Len()
}

// Close 关闭缓存并释放资源
func (s *Store) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.cache.Close()
}
