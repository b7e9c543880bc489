package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/weisyn/zkvm/internal/core/vm/console"
	"github.com/weisyn/zkvm/internal/core/vm/network"
)

// 承诺树错误定义
var (
	// ErrTreeFull 叶子数达到 2^depth
	ErrTreeFull = errors.New("commitment tree is full")
	// ErrCommitmentNotFound 承诺不在树中
	ErrCommitmentNotFound = errors.New("commitment not found")
	// ErrInvalidDepth 深度超出范围
	ErrInvalidDepth = errors.New("invalid tree depth")
)

// MaxDepth 承诺树最大深度
const MaxDepth = 32

// ============================================================================
//                              承诺树
// ============================================================================

// CommitmentTree 仅追加的定深 Merkle 树
//
// 内部节点为 HashRaw(left, right)，空叶子为零元素；与证明电路中的 MiMC 路径校验一致。
type CommitmentTree struct {
	mu sync.RWMutex

	net    network.Network
	depth  int
	leaves []network.Field
	index  map[network.Field]uint64
	empty  []network.Field

	root  network.Field
	dirty bool
}

// NewCommitmentTree 创建空树
func NewCommitmentTree(net network.Network, depth int) (*CommitmentTree, error) {
	if depth < 1 || depth > MaxDepth {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDepth, depth)
	}
	empty := make([]network.Field, depth+1)
	for i := 1; i <= depth; i++ {
		h, err := net.HashRaw([]network.Field{empty[i-1], empty[i-1]})
		if err != nil {
			return nil, err
		}
		empty[i] = h
	}
	return &CommitmentTree{
		net:   net,
		depth: depth,
		index: make(map[network.Field]uint64),
		empty: empty,
		root:  empty[depth],
	}, nil
}

// Depth 树深度
func (t *CommitmentTree) Depth() int { return t.depth }

// Len 叶子数
func (t *CommitmentTree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.leaves)
}

// Append 追加叶子
func (t *CommitmentTree) Append(leaves ...network.Field) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	capacity := uint64(1) << uint(t.depth)
	if uint64(len(t.leaves)+len(leaves)) > capacity {
		return fmt.Errorf("%w: capacity=%d", ErrTreeFull, capacity)
	}
	for _, leaf := range leaves {
		if err := t.net.CheckField(leaf); err != nil {
			return err
		}
		if _, exists := t.index[leaf]; !exists {
			t.index[leaf] = uint64(len(t.leaves))
		}
		t.leaves = append(t.leaves, leaf)
	}
	if len(leaves) > 0 {
		t.dirty = true
	}
	return nil
}

// truncate 回滚到前 n 个叶子
func (t *CommitmentTree) truncate(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n >= len(t.leaves) {
		return
	}
	for _, leaf := range t.leaves[n:] {
		if idx, ok := t.index[leaf]; ok && idx >= uint64(n) {
			delete(t.index, leaf)
		}
	}
	t.leaves = t.leaves[:n]
	t.dirty = true
}

// Contains 承诺是否在树中
func (t *CommitmentTree) Contains(commitment network.Field) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.index[commitment]
	return ok
}

// Root 当前根
func (t *CommitmentTree) Root() (network.Field, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.dirty {
		return t.root, nil
	}
	root, _, err := t.compute(-1)
	if err != nil {
		return network.Field{}, err
	}
	t.root, t.dirty = root, false
	return root, nil
}

// Path 承诺的成员路径
func (t *CommitmentTree) Path(commitment network.Field) (*StatePath, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	idx, ok := t.index[commitment]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCommitmentNotFound, commitment)
	}
	root, siblings, err := t.compute(int64(idx))
	if err != nil {
		return nil, err
	}
	t.root, t.dirty = root, false
	return &StatePath{Root: root, Leaf: commitment, Index: idx, Siblings: siblings}, nil
}

// compute 逐层计算根；target >= 0 时同时收集该叶子的兄弟节点
func (t *CommitmentTree) compute(target int64) (network.Field, []network.Field, error) {
	var siblings []network.Field
	if target >= 0 {
		siblings = make([]network.Field, t.depth)
	}
	level := append([]network.Field(nil), t.leaves...)
	pos := target
	for l := 0; l < t.depth; l++ {
		if target >= 0 {
			sib := pos ^ 1
			if sib < int64(len(level)) {
				siblings[l] = level[sib]
			} else {
				siblings[l] = t.empty[l]
			}
			pos >>= 1
		}
		next := make([]network.Field, (len(level)+1)/2)
		for j := range next {
			left := level[2*j]
			right := t.empty[l]
			if 2*j+1 < len(level) {
				right = level[2*j+1]
			}
			h, err := t.net.HashRaw([]network.Field{left, right})
			if err != nil {
				return network.Field{}, nil, err
			}
			next[j] = h
		}
		level = next
	}
	if len(level) == 0 {
		return t.empty[t.depth], siblings, nil
	}
	return level[0], siblings, nil
}

// ============================================================================
//                              状态路径
// ============================================================================

// StatePath 承诺到全局状态根的成员路径
type StatePath struct {
	Root     network.Field
	Leaf     network.Field
	Index    uint64
	Siblings []network.Field
}

// Directions 每层方向：true 表示当前节点为右子节点
func (p *StatePath) Directions() []bool {
	dirs := make([]bool, len(p.Siblings))
	for i := range dirs {
		dirs[i] = (p.Index>>uint(i))&1 == 1
	}
	return dirs
}

// Verify 重新计算根并比较
func (p *StatePath) Verify(net network.Network) bool {
	current := p.Leaf
	for i, sibling := range p.Siblings {
		pair := []network.Field{current, sibling}
		if (p.Index>>uint(i))&1 == 1 {
			pair = []network.Field{sibling, current}
		}
		h, err := net.HashRaw(pair)
		if err != nil {
			return false
		}
		current = h
	}
	return current == p.Root
}

// Bytes 规范字节编码（路径缓存使用）
func (p *StatePath) Bytes() []byte {
	w := console.NewWriter()
	w.Field(p.Root)
	w.Field(p.Leaf)
	w.U32(uint32(p.Index >> 32))
	w.U32(uint32(p.Index))
	w.U8(uint8(len(p.Siblings)))
	for _, s := range p.Siblings {
		w.Field(s)
	}
	return w.Bytes()
}

// StatePathFromBytes 解码状态路径
func StatePathFromBytes(b []byte) (*StatePath, error) {
	r := console.NewReader(b)
	p := &StatePath{Root: r.Field(), Leaf: r.Field()}
	hi, lo := r.U32(), r.U32()
	p.Index = uint64(hi)<<32 | uint64(lo)
	n := int(r.U8())
	if n > MaxDepth {
		r.Fail(fmt.Sprintf("path depth %d", n))
	}
	for i := 0; i < n && r.Err() == nil; i++ {
		p.Siblings = append(p.Siblings, r.Field())
	}
	if err := r.Finish(); err != nil {
		return nil, err
	}
	return p, nil
}
