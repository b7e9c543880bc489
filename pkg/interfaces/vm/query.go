package vm

import (
	"context"

	"github.com/weisyn/zkvm/internal/core/vm/network"
	"github.com/weisyn/zkvm/internal/core/vm/store"
)

// ════════════════════════════════════════════════════════════════════════════════════════════════
// Query - 全局状态查询
// ════════════════════════════════════════════════════════════════════════════════════════════════
//
// 📋 **接口说明**：
//   - 为费用的包含证明提供当前全局状态根与承诺路径
//   - 默认实现见 internal/core/vm/query（区块存储 + 路径缓存）
//
// 🔒 **约束**：
//   - GetStatePath 返回的路径根必须等于调用时刻的 CurrentStateRoot
//   - 承诺不存在时返回 store.ErrCommitmentNotFound
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

type Query interface {
	// CurrentStateRoot 当前全局状态根
	CurrentStateRoot(ctx context.Context) (network.Field, error)

	// GetStatePath 承诺在当前状态根下的成员路径
	GetStatePath(ctx context.Context, commitment network.Field) (*store.StatePath, error)
}
