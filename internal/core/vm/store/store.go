// Package store 实现区块存储：承诺树、序列号集合与区块行
//
// 持久层为 BadgerStore；承诺树在打开时由叶子行重建并常驻内存。
package store

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	logimpl "github.com/weisyn/zkvm/internal/core/infrastructure/log"
	"github.com/weisyn/zkvm/internal/core/vm/network"
	"github.com/weisyn/zkvm/internal/core/vm/transition"
	log "github.com/weisyn/zkvm/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkvm/pkg/interfaces/infrastructure/storage"
)

// 区块存储错误定义
var (
	// ErrInvalidHeight 区块高度不连续
	ErrInvalidHeight = errors.New("invalid block height")
	// ErrDoubleSpend 序列号已存在
	ErrDoubleSpend = errors.New("serial number already spent")
	// ErrBlockNotFound 区块不存在
	ErrBlockNotFound = errors.New("block not found")
	// ErrInvalidTransition 转换校验失败
	ErrInvalidTransition = errors.New("invalid transition")
)

// 键前缀
var (
	prefixBlock  = []byte("zkvm/b/")
	prefixLeaf   = []byte("zkvm/c/")
	prefixSerial = []byte("zkvm/s/")
	prefixRoot   = []byte("zkvm/r/")
	keyHeight    = []byte("zkvm/height")
)

func keyWith(prefix []byte, suffix []byte) []byte {
	k := make([]byte, 0, len(prefix)+len(suffix))
	return append(append(k, prefix...), suffix...)
}

func be64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// BlockStore 区块存储
type BlockStore struct {
	mu sync.RWMutex

	net    network.Network
	kv     storage.BadgerStore
	tree   *CommitmentTree
	logger log.Logger
	runID  string
	// resumedFrom 写入最新区块的上一次运行标识；空存储为空串
	resumedFrom string

	latest *Block
}

// Open 打开区块存储并重建承诺树
func Open(ctx context.Context, net network.Network, kv storage.BadgerStore, depth int, logger log.Logger) (*BlockStore, error) {
	if logger == nil {
		logger = logimpl.NewNop()
	}
	tree, err := NewCommitmentTree(net, depth)
	if err != nil {
		return nil, err
	}
	s := &BlockStore{
		net:    net,
		kv:     kv,
		tree:   tree,
		logger: logger,
		runID:  uuid.New().String(),
	}

	rows, err := kv.PrefixScan(ctx, prefixLeaf)
	if err != nil {
		return nil, fmt.Errorf("load commitments: %w", err)
	}
	keys := make([]string, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var leaf network.Field
		if len(rows[k]) != network.FieldSize {
			return nil, fmt.Errorf("load commitments: bad leaf row %x", k)
		}
		copy(leaf[:], rows[k])
		if err := tree.Append(leaf); err != nil {
			return nil, err
		}
	}

	if raw, err := kv.Get(ctx, keyHeight); err != nil {
		return nil, err
	} else if raw != nil {
		latest, writer, err := s.readBlock(ctx, binary.BigEndian.Uint64(raw))
		if err != nil {
			return nil, err
		}
		s.latest, s.resumedFrom = latest, writer
	}
	s.logger.Infof("block store opened: run=%s resumed_from=%q leaves=%d height=%d", s.runID, s.resumedFrom, tree.Len(), s.heightLocked())
	return s, nil
}

// Network 网络参数
func (s *BlockStore) Network() network.Network { return s.net }

// RunID 本次打开的运行标识
func (s *BlockStore) RunID() string { return s.runID }

// ResumedFrom 写入最新区块的运行标识（打开时读取）
func (s *BlockStore) ResumedFrom() string { return s.resumedFrom }

// Tree 承诺树
func (s *BlockStore) Tree() *CommitmentTree { return s.tree }

func (s *BlockStore) heightLocked() int64 {
	if s.latest == nil {
		return -1
	}
	return int64(s.latest.Height)
}

// Latest 最新区块
func (s *BlockStore) Latest() (*Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.latest != nil
}

// CurrentStateRoot 当前全局状态根
func (s *BlockStore) CurrentStateRoot() (network.Field, error) {
	return s.tree.Root()
}

// StatePath 承诺在当前根下的路径
func (s *BlockStore) StatePath(commitment network.Field) (*StatePath, error) {
	return s.tree.Path(commitment)
}

// ContainsCommitment 承诺是否已上链
func (s *BlockStore) ContainsCommitment(commitment network.Field) bool {
	return s.tree.Contains(commitment)
}

// ContainsSerialNumber 序列号是否已被消费
func (s *BlockStore) ContainsSerialNumber(ctx context.Context, sn network.Field) (bool, error) {
	return s.kv.Exists(ctx, keyWith(prefixSerial, sn[:]))
}

// ContainsStateRoot 是否为某个已接受区块的状态根
func (s *BlockStore) ContainsStateRoot(ctx context.Context, root network.Field) (bool, error) {
	return s.kv.Exists(ctx, keyWith(prefixRoot, root[:]))
}

// GetBlock 按高度读取区块
func (s *BlockStore) GetBlock(ctx context.Context, height uint64) (*Block, error) {
	b, _, err := s.readBlock(ctx, height)
	return b, err
}

// BlockRunID 写入该高度区块的运行标识
func (s *BlockStore) BlockRunID(ctx context.Context, height uint64) (string, error) {
	_, runID, err := s.readBlock(ctx, height)
	return runID, err
}

func (s *BlockStore) readBlock(ctx context.Context, height uint64) (*Block, string, error) {
	raw, err := s.kv.Get(ctx, keyWith(prefixBlock, be64(height)))
	if err != nil {
		return nil, "", err
	}
	if raw == nil {
		return nil, "", fmt.Errorf("%w: height=%d", ErrBlockNotFound, height)
	}
	return decodeBlock(raw)
}

// AddNextBlock 接受下一批转换
//
// 校验转换、拒绝重复序列号，将记录承诺追加到承诺树并原子写入区块行、叶子、序列号与状态根。
func (s *BlockStore) AddNextBlock(ctx context.Context, transitions []*transition.Transition) (*Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := &Block{Timestamp: nowUnix(), Transitions: transitions}
	if s.latest != nil {
		b.Height = s.latest.Height + 1
		b.Previous = s.latest.hash
	}

	seen := make(map[network.Field]bool)
	for _, t := range transitions {
		if !t.Verify(s.net) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidTransition, t.ID())
		}
		for _, sn := range t.SerialNumbers() {
			spent, err := s.ContainsSerialNumber(ctx, sn)
			if err != nil {
				return nil, err
			}
			if spent || seen[sn] {
				return nil, fmt.Errorf("%w: %s", ErrDoubleSpend, sn)
			}
			seen[sn] = true
		}
	}

	base := s.tree.Len()
	commitments := b.Commitments()
	if err := s.tree.Append(commitments...); err != nil {
		return nil, err
	}
	root, err := s.tree.Root()
	if err != nil {
		s.tree.truncate(base)
		return nil, err
	}
	b.StateRoot = root
	if b.hash, err = b.computeHash(s.net); err != nil {
		s.tree.truncate(base)
		return nil, err
	}
	row, err := encodeBlock(b, s.runID)
	if err != nil {
		s.tree.truncate(base)
		return nil, err
	}

	err = s.kv.RunInTransaction(ctx, func(tx storage.BadgerTransaction) error {
		if err := tx.Set(keyWith(prefixBlock, be64(b.Height)), row); err != nil {
			return err
		}
		for i, c := range commitments {
			c := c
			if err := tx.Set(keyWith(prefixLeaf, be64(uint64(base+i))), c[:]); err != nil {
				return err
			}
		}
		for sn := range seen {
			sn := sn
			if err := tx.Set(keyWith(prefixSerial, sn[:]), be64(b.Height)); err != nil {
				return err
			}
		}
		if err := tx.Set(keyWith(prefixRoot, root[:]), be64(b.Height)); err != nil {
			return err
		}
		return tx.Set(keyHeight, be64(b.Height))
	})
	if err != nil {
		s.tree.truncate(base)
		return nil, fmt.Errorf("persist block %d: %w", b.Height, err)
	}

	s.latest = b
	s.logger.Infof("block %d accepted: transitions=%d commitments=%d root=%s", b.Height, len(transitions), len(commitments), root)
	return b, nil
}
