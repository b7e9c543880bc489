// Package inclusion 为消费记录的转换准备成员路径赋值
//
// 执行引擎在构造转换时登记每个记录输入的承诺；证明前由查询源取回承诺在当前全局状态根下的路径，
// 证明后端以此约束被消费的记录确实存在于账本中。
package inclusion

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/weisyn/zkvm/internal/core/vm/console"
	"github.com/weisyn/zkvm/internal/core/vm/network"
	"github.com/weisyn/zkvm/internal/core/vm/store"
	"github.com/weisyn/zkvm/internal/core/vm/transition"
	vmiface "github.com/weisyn/zkvm/pkg/interfaces/vm"
)

// 包含证明错误定义
var (
	// ErrTransitionNotRegistered 转换未登记
	ErrTransitionNotRegistered = errors.New("transition not registered for inclusion")
	// ErrStateRootMismatch 多条路径的全局状态根不一致
	ErrStateRootMismatch = errors.New("inclusion state roots differ")
	// ErrInvalidStatePath 路径不能重算出根或叶子不匹配
	ErrInvalidStatePath = errors.New("invalid state path")
)

// Assignment 单个被消费记录的包含赋值
type Assignment struct {
	Commitment      network.Field
	SerialNumber    network.Field
	Tag             network.Field
	Path            *store.StatePath
	GlobalStateRoot network.Field
}

// Verify 校验路径与承诺、状态根一致
func (a Assignment) Verify(net network.Network) error {
	if a.Path == nil {
		return fmt.Errorf("%w: missing path for %s", ErrInvalidStatePath, a.Commitment)
	}
	if a.Path.Leaf != a.Commitment {
		return fmt.Errorf("%w: leaf %s != commitment %s", ErrInvalidStatePath, a.Path.Leaf, a.Commitment)
	}
	if a.Path.Root != a.GlobalStateRoot {
		return fmt.Errorf("%w: root %s != %s", ErrInvalidStatePath, a.Path.Root, a.GlobalStateRoot)
	}
	if !a.Path.Verify(net) {
		return fmt.Errorf("%w: path does not hash to root", ErrInvalidStatePath)
	}
	return nil
}

type consumed struct {
	commitment   network.Field
	serialNumber network.Field
	tag          network.Field
}

// Inclusion 转换的记录输入登记表
type Inclusion struct {
	mu          sync.RWMutex
	net         network.Network
	transitions map[network.Field][]consumed
}

// New 创建空登记表
func New(net network.Network) *Inclusion {
	return &Inclusion{net: net, transitions: make(map[network.Field][]consumed)}
}

// InsertTransition 登记转换的记录输入
//
// 记录输入的承诺取自请求；序列号须与转换公开的序列号逐一对应。
func (i *Inclusion) InsertTransition(req *console.Request, tr *transition.Transition) error {
	var entries []consumed
	for _, id := range req.InputIDs {
		if id.Kind != console.ValueRecord {
			continue
		}
		entries = append(entries, consumed{commitment: id.Commitment, serialNumber: id.ID, tag: id.Tag})
	}
	serials := tr.SerialNumbers()
	if len(serials) != len(entries) {
		return console.WrapTypeError("record inputs", len(serials), len(entries))
	}
	for j, sn := range serials {
		if entries[j].serialNumber != sn {
			return console.WrapRequestError(fmt.Sprintf("record input %d serial number", j), nil)
		}
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	i.transitions[tr.ID()] = entries
	return nil
}

// PrepareFee 为费用转换取回每个记录输入的成员路径
func (i *Inclusion) PrepareFee(ctx context.Context, tr *transition.Transition, query vmiface.Query) ([]Assignment, error) {
	i.mu.RLock()
	entries, ok := i.transitions[tr.ID()]
	i.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTransitionNotRegistered, tr.ID())
	}

	assignments := make([]Assignment, 0, len(entries))
	for _, e := range entries {
		path, err := query.GetStatePath(ctx, e.commitment)
		if err != nil {
			return nil, fmt.Errorf("state path for %s: %w", e.commitment, err)
		}
		a := Assignment{
			Commitment:      e.commitment,
			SerialNumber:    e.serialNumber,
			Tag:             e.tag,
			Path:            path,
			GlobalStateRoot: path.Root,
		}
		if err := a.Verify(i.net); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, nil
}

// FeeGlobalStateRoot 全部赋值共享的全局状态根；无赋值时为零元素
func FeeGlobalStateRoot(assignments []Assignment) (network.Field, error) {
	var root network.Field
	for j, a := range assignments {
		if j == 0 {
			root = a.GlobalStateRoot
			continue
		}
		if a.GlobalStateRoot != root {
			return network.Field{}, fmt.Errorf("%w: assignment %d", ErrStateRootMismatch, j)
		}
	}
	return root, nil
}

// Spends 转为证明后端的包含材料；空列表折叠为 nil（不附带包含证明）
func Spends(assignments []Assignment) []vmiface.Spend {
	if len(assignments) == 0 {
		return nil
	}
	spends := make([]vmiface.Spend, len(assignments))
	for j, a := range assignments {
		spends[j] = vmiface.Spend{
			SpentRecord: vmiface.SpentRecord{SerialNumber: a.SerialNumber, Tag: a.Tag},
			Path:        a.Path,
		}
	}
	return spends
}

// SpentRecords 转换公开的被消费记录标识，按输入顺序排列
func SpentRecords(tr *transition.Transition) []vmiface.SpentRecord {
	var spent []vmiface.SpentRecord
	for _, in := range tr.Inputs() {
		sn, ok := in.SerialNumber()
		if !ok {
			continue
		}
		tag, _ := in.Tag()
		spent = append(spent, vmiface.SpentRecord{SerialNumber: sn, Tag: tag})
	}
	return spent
}
