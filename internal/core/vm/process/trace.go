package process

import (
	"fmt"
	"sync"

	"github.com/weisyn/zkvm/internal/core/vm/console"
	"github.com/weisyn/zkvm/internal/core/vm/network"
)

var domainTrace = network.Domain("zkvm.Trace")

// Trace 单次执行的轨迹累加器
//
// 按输出顺序收集叶子，Finalize 之后只读。
type Trace struct {
	mu sync.Mutex

	net          network.Network
	programID    console.ProgramID
	functionName console.Identifier
	tcm          network.Field

	leaves    []network.Field
	finalized bool
	digest    network.Field
}

// NewTrace 绑定请求创建轨迹
func NewTrace(net network.Network, req *console.Request) *Trace {
	return &Trace{
		net:          net,
		programID:    req.ProgramID,
		functionName: req.FunctionName,
		tcm:          req.TCM,
	}
}

// AddOutput 追加一个输出叶子；Finalize 之后调用属于编程错误
func (t *Trace) AddOutput(leaf network.Field) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finalized {
		panic(fmt.Sprintf("trace %s/%s: AddOutput after Finalize", t.programID, t.functionName))
	}
	t.leaves = append(t.leaves, leaf)
}

// Finalize 计算摘要 Hash(domain, tcm, leaves...)，叶子本身不变
func (t *Trace) Finalize() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finalized {
		return ErrTraceFinalized
	}
	preimage := append([]network.Field{domainTrace, t.tcm}, t.leaves...)
	digest, err := t.net.HashFields(preimage)
	if err != nil {
		return fmt.Errorf("trace digest: %w", err)
	}
	t.digest = digest
	t.finalized = true
	return nil
}

// IsFinalized 是否已完成
func (t *Trace) IsFinalized() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.finalized
}

// Leaves 叶子副本
func (t *Trace) Leaves() []network.Field {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]network.Field(nil), t.leaves...)
}

// Digest 完成后的摘要
func (t *Trace) Digest() (network.Field, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.digest, t.finalized
}

// TCM 绑定的交易承诺
func (t *Trace) TCM() network.Field { return t.tcm }
