// Package query 提供费用包含证明使用的全局状态查询源
//
//   - Store: 绑定本地区块存储的只读视图，路径经内存缓存
//   - Static: 固定状态根与路径表，用于离线证明与测试
package query

import (
	"context"
	"fmt"

	logimpl "github.com/weisyn/zkvm/internal/core/infrastructure/log"
	"github.com/weisyn/zkvm/internal/core/vm/network"
	"github.com/weisyn/zkvm/internal/core/vm/store"
	log "github.com/weisyn/zkvm/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkvm/pkg/interfaces/infrastructure/storage"
	vmiface "github.com/weisyn/zkvm/pkg/interfaces/vm"
)

var (
	_ vmiface.Query = (*Store)(nil)
	_ vmiface.Query = (*Static)(nil)
)

// ============================================================================
//                              区块存储视图
// ============================================================================

// Store 区块存储查询
type Store struct {
	blocks *store.BlockStore
	cache  storage.MemoryStore
	logger log.Logger
}

// NewStore 创建区块存储查询；cache 为 nil 时不缓存路径
func NewStore(blocks *store.BlockStore, cache storage.MemoryStore, logger log.Logger) *Store {
	return &Store{
		blocks: blocks,
		cache:  cache,
		logger: logimpl.NewModuleLogger(logger, "query"),
	}
}

// CurrentStateRoot 当前全局状态根
func (q *Store) CurrentStateRoot(ctx context.Context) (network.Field, error) {
	if err := ctx.Err(); err != nil {
		return network.Field{}, err
	}
	return q.blocks.CurrentStateRoot()
}

// GetStatePath 承诺的成员路径；缓存键含状态根，新区块后旧条目自然失效
func (q *Store) GetStatePath(ctx context.Context, commitment network.Field) (*store.StatePath, error) {
	root, err := q.CurrentStateRoot(ctx)
	if err != nil {
		return nil, err
	}
	key := cacheKey(root, commitment)

	if q.cache != nil {
		if raw, ok, err := q.cache.Get(ctx, key); err != nil {
			q.logger.Warnf("路径缓存读取失败: %v", err)
		} else if ok {
			if path, err := store.StatePathFromBytes(raw); err == nil && path.Root == root {
				return path, nil
			}
			q.logger.Debugf("丢弃损坏的路径缓存: %s", key)
		}
	}

	path, err := q.blocks.StatePath(commitment)
	if err != nil {
		return nil, err
	}
	if q.cache != nil && path.Root == root {
		if err := q.cache.Set(ctx, key, path.Bytes(), 0); err != nil {
			q.logger.Warnf("路径缓存写入失败: %v", err)
		}
	}
	return path, nil
}

func cacheKey(root, commitment network.Field) string {
	return fmt.Sprintf("path/%x/%x", root[:], commitment[:])
}

// ============================================================================
//                              静态视图
// ============================================================================

// Static 固定状态根与路径表
type Static struct {
	root  network.Field
	paths map[network.Field]*store.StatePath
}

// NewStatic 由路径构造静态查询；全部路径须共享同一状态根
func NewStatic(root network.Field, paths ...*store.StatePath) (*Static, error) {
	s := &Static{root: root, paths: make(map[network.Field]*store.StatePath, len(paths))}
	for _, p := range paths {
		if p.Root != root {
			return nil, fmt.Errorf("static query: path for %s has root %s, want %s", p.Leaf, p.Root, root)
		}
		s.paths[p.Leaf] = p
	}
	return s, nil
}

// CurrentStateRoot 固定状态根
func (s *Static) CurrentStateRoot(ctx context.Context) (network.Field, error) {
	return s.root, nil
}

// GetStatePath 查表
func (s *Static) GetStatePath(ctx context.Context, commitment network.Field) (*store.StatePath, error) {
	p, ok := s.paths[commitment]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrCommitmentNotFound, commitment)
	}
	return p, nil
}
