package store

import (
	"fmt"
	"time"

	"github.com/blockberries/cramberry/pkg/cramberry"
	"github.com/golang/snappy"

	"github.com/weisyn/zkvm/internal/core/vm/console"
	"github.com/weisyn/zkvm/internal/core/vm/network"
	"github.com/weisyn/zkvm/internal/core/vm/transition"
)

var domainBlock = network.Domain("zkvm.Block")

// Block 已接受的转换批次
type Block struct {
	Height      uint64
	Previous    network.Field
	StateRoot   network.Field
	Transitions []*transition.Transition
	Timestamp   int64

	hash network.Field
}

// Hash 区块哈希
func (b *Block) Hash() network.Field { return b.hash }

// Commitments 区块产生的全部记录承诺，按转换与输出顺序
func (b *Block) Commitments() []network.Field {
	var out []network.Field
	for _, t := range b.Transitions {
		out = append(out, t.Commitments()...)
	}
	return out
}

// SerialNumbers 区块消费的全部序列号
func (b *Block) SerialNumbers() []network.Field {
	var out []network.Field
	for _, t := range b.Transitions {
		out = append(out, t.SerialNumbers()...)
	}
	return out
}

// computeHash Hash(domain, height, previous, state root, transition ids...)
func (b *Block) computeHash(net network.Network) (network.Field, error) {
	preimage := []network.Field{domainBlock, network.FieldFromUint64(b.Height), b.Previous, b.StateRoot}
	for _, t := range b.Transitions {
		preimage = append(preimage, t.ID())
	}
	return net.HashFields(preimage)
}

// ============================================================================
//                              存储行
// ============================================================================

// maxBlockRowBytes 解压后区块行的上限，先于解码拒绝损坏的长度头
const maxBlockRowBytes = 64 << 20

// blockRow 区块的持久化形式，cramberry 编码后经 snappy 压缩写入
type blockRow struct {
	Height      uint64   `cramberry:"1"`
	Hash        []byte   `cramberry:"2"`
	Previous    []byte   `cramberry:"3"`
	StateRoot   []byte   `cramberry:"4"`
	Transitions [][]byte `cramberry:"5"`
	RunID       string   `cramberry:"6"`
	Timestamp   int64    `cramberry:"7"`
}

func encodeBlock(b *Block, runID string) ([]byte, error) {
	row := blockRow{
		Height:    b.Height,
		Hash:      b.hash[:],
		Previous:  b.Previous[:],
		StateRoot: b.StateRoot[:],
		RunID:     runID,
		Timestamp: b.Timestamp,
	}
	for _, t := range b.Transitions {
		row.Transitions = append(row.Transitions, t.Bytes())
	}
	data, err := cramberry.Marshal(row)
	if err != nil {
		return nil, console.WrapSerializationError("block row", err)
	}
	return snappy.Encode(nil, data), nil
}

func decodeBlock(compressed []byte) (*Block, string, error) {
	n, err := snappy.DecodedLen(compressed)
	if err != nil {
		return nil, "", console.WrapSerializationError("block row", err)
	}
	if n > maxBlockRowBytes {
		return nil, "", console.WrapSerializationError(fmt.Sprintf("block row too large: %d > %d", n, maxBlockRowBytes), nil)
	}
	data, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, "", console.WrapSerializationError("block row", err)
	}
	var row blockRow
	if err := cramberry.Unmarshal(data, &row); err != nil {
		return nil, "", console.WrapSerializationError("block row", err)
	}
	b := &Block{Height: row.Height, Timestamp: row.Timestamp}
	for _, f := range []struct {
		dst *network.Field
		src []byte
	}{{&b.hash, row.Hash}, {&b.Previous, row.Previous}, {&b.StateRoot, row.StateRoot}} {
		if len(f.src) != network.FieldSize {
			return nil, "", console.WrapSerializationError(fmt.Sprintf("block %d field length %d", row.Height, len(f.src)), nil)
		}
		copy(f.dst[:], f.src)
	}
	for i, raw := range row.Transitions {
		t, err := transition.FromBytes(raw)
		if err != nil {
			return nil, "", fmt.Errorf("block %d transition %d: %w", row.Height, i, err)
		}
		b.Transitions = append(b.Transitions, t)
	}
	return b, row.RunID, nil
}

func nowUnix() int64 { return time.Now().Unix() }
