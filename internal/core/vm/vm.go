// Package vm 组装执行引擎、区块存储、查询源与证明后端
//
// 🎯 **专门职责**：
//   - 创世：向调用者发行 credits 记录并写入第 0 个区块
//   - 费用组装：余额检查 → credits.zk/fee 电路执行 → 包含赋值 → 费用证明
//   - 区块推进：接受转换并更新承诺树与序列号集合
package vm

import (
	"context"
	"fmt"
	"io"
	"time"

	logimpl "github.com/weisyn/zkvm/internal/core/infrastructure/log"
	"github.com/weisyn/zkvm/internal/core/vm/console"
	"github.com/weisyn/zkvm/internal/core/vm/inclusion"
	"github.com/weisyn/zkvm/internal/core/vm/network"
	"github.com/weisyn/zkvm/internal/core/vm/process"
	"github.com/weisyn/zkvm/internal/core/vm/query"
	"github.com/weisyn/zkvm/internal/core/vm/store"
	"github.com/weisyn/zkvm/internal/core/vm/transition"
	log "github.com/weisyn/zkvm/pkg/interfaces/infrastructure/log"
	metricsiface "github.com/weisyn/zkvm/pkg/interfaces/infrastructure/metrics"
	vmiface "github.com/weisyn/zkvm/pkg/interfaces/vm"
)

// VM 虚拟机
//
// 并发安全：执行引擎、区块存储与证明后端各自加锁；每次费用组装使用独立的电路环境。
type VM struct {
	net     network.Network
	process *process.Process
	blocks  *store.BlockStore
	query   vmiface.Query
	prover  vmiface.ProvingBackend
	fees    metricsiface.FeeRecorder
	logger  log.Logger
}

// Option 虚拟机选项
type Option func(*VM)

// WithLogger 设置日志记录器
func WithLogger(logger log.Logger) Option {
	return func(v *VM) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithFeeRecorder 设置费用指标收集器
func WithFeeRecorder(r metricsiface.FeeRecorder) Option {
	return func(v *VM) {
		if r != nil {
			v.fees = r
		}
	}
}

// New 创建虚拟机
//
// q 为空时使用不带缓存的区块存储查询视图。
func New(proc *process.Process, blocks *store.BlockStore, q vmiface.Query, prover vmiface.ProvingBackend, opts ...Option) (*VM, error) {
	net := proc.Network()
	if blocks.Network() != net {
		return nil, WrapNetworkError("block store", net.Name(), blocks.Network().Name())
	}
	v := &VM{
		net:     net,
		process: proc,
		blocks:  blocks,
		query:   q,
		prover:  prover,
		fees:    metricsiface.NopFeeRecorder{},
		logger:  logimpl.NewModuleLogger(nil, "vm"),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.query == nil {
		v.query = query.NewStore(blocks, nil, v.logger)
	}
	return v, nil
}

// Network 网络参数
func (v *VM) Network() network.Network { return v.net }

// Process 执行引擎
func (v *VM) Process() *process.Process { return v.process }

// BlockStore 区块存储
func (v *VM) BlockStore() *store.BlockStore { return v.blocks }

// Query 默认查询源
func (v *VM) Query() vmiface.Query { return v.query }

// ============================================================================
//                              区块
// ============================================================================

// Genesis 向 key 的地址发行 amount 并写入第 0 个区块
func (v *VM) Genesis(ctx context.Context, key console.PrivateKey, amount uint64, rng io.Reader) (*store.Block, error) {
	if latest, ok := v.blocks.Latest(); ok {
		return nil, fmt.Errorf("%w: height=%d", ErrGenesisExists, latest.Height)
	}
	call, err := v.process.Mint(key, key.Address(v.net), amount, rng)
	if err != nil {
		return nil, fmt.Errorf("mint genesis credits: %w", err)
	}
	if !call.IsSatisfied() {
		return nil, process.WrapConstraintError("genesis mint", call.Assignment.Unsatisfied(), nil)
	}
	block, err := v.blocks.AddNextBlock(ctx, []*transition.Transition{call.Transition})
	if err != nil {
		return nil, err
	}
	v.logger.Infof("创世区块已写入: hash=%s, amount=%d", block.Hash(), amount)
	return block, nil
}

// AddNextBlock 接受一批转换
func (v *VM) AddNextBlock(ctx context.Context, transitions []*transition.Transition) (*store.Block, error) {
	return v.blocks.AddNextBlock(ctx, transitions)
}

// ============================================================================
//                              费用
// ============================================================================

// feeExecution 一次费用组装的全部产物
type feeExecution struct {
	response     *console.Response
	fee          *transition.Fee
	metrics      []process.CallMetrics
	publicInputs []network.Field
}

// ExecuteFee 组装费用并包装为独立交易
func (v *VM) ExecuteFee(ctx context.Context, key console.PrivateKey, record *console.Record, fee uint64, q vmiface.Query, rng io.Reader) (*transition.Transaction, error) {
	exec, err := v.executeFee(ctx, key, record, fee, q, rng)
	if err != nil {
		return nil, err
	}
	return transition.FromFee(v.net, exec.fee)
}

// ExecuteFeeRaw 组装费用，返回响应、附带证明的费用与调用统计
//
// q 为空时使用默认查询源。余额检查先于任何电路工作。
func (v *VM) ExecuteFeeRaw(ctx context.Context, key console.PrivateKey, record *console.Record, fee uint64, q vmiface.Query, rng io.Reader) (*console.Response, *transition.Fee, []process.CallMetrics, error) {
	exec, err := v.executeFee(ctx, key, record, fee, q, rng)
	if err != nil {
		return nil, nil, nil, err
	}
	return exec.response, exec.fee, exec.metrics, nil
}

func (v *VM) executeFee(ctx context.Context, key console.PrivateKey, record *console.Record, fee uint64, q vmiface.Query, rng io.Reader) (exec *feeExecution, err error) {
	start := time.Now()
	defer func() {
		proofBytes := 0
		if exec != nil {
			proof, _ := exec.fee.Proof()
			proofBytes = len(proof)
		}
		v.fees.ObserveFee(v.prover.Scheme(), time.Since(start), proofBytes, err)
	}()

	if q == nil {
		q = v.query
	}
	if err := process.CheckFeeRecord(record, fee); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	call, err := v.process.PrepareFee(key, record, fee, rng)
	if err != nil {
		return nil, err
	}

	assignments, err := call.Inclusion.PrepareFee(ctx, call.Transition, q)
	if err != nil {
		return nil, err
	}
	root, err := inclusion.FeeGlobalStateRoot(assignments)
	if err != nil {
		return nil, err
	}
	spends := inclusion.Spends(assignments)

	draft := transition.NewFee(call.Transition, root, nil)
	proof, err := v.prover.ProveFee(ctx, call.Assignment, spends, root)
	if err != nil {
		return nil, err
	}
	v.logger.Debugf("费用组装完成: transition=%s, amount=%d, inclusion=%d, 耗时=%v",
		call.Transition.ID(), fee, len(assignments), time.Since(start))

	return &feeExecution{
		response:     call.Response,
		fee:          draft.WithProof(proof),
		metrics:      []process.CallMetrics{call.Metrics},
		publicInputs: call.Assignment.PublicInputs,
	}, nil
}

// VerifyFee 校验费用的转换负载与证明
//
// publicInputs 为费用调用电路的公开输入，由执行方随费用一并提供；
// 被消费记录的序列号与标签取自转换，证明须把它们绑定到状态根下的成员路径。
func (v *VM) VerifyFee(ctx context.Context, fee *transition.Fee, publicInputs []network.Field) error {
	if !fee.Transition().Verify(v.net) {
		return fmt.Errorf("%w: fee %s", store.ErrInvalidTransition, fee.ID())
	}
	proof, ok := fee.Proof()
	if !ok {
		return fmt.Errorf("%w: %s", ErrFeeNotProven, fee.ID())
	}
	if root := fee.GlobalStateRoot(); !root.IsZero() {
		known, err := v.blocks.ContainsStateRoot(ctx, root)
		if err != nil {
			return err
		}
		if !known {
			return fmt.Errorf("%w: unknown global state root %s", inclusion.ErrStateRootMismatch, root)
		}
	}
	return v.prover.VerifyFee(ctx, v.net, publicInputs, fee.GlobalStateRoot(), inclusion.SpentRecords(fee.Transition()), proof)
}
