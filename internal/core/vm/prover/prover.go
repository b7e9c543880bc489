// Package prover 实现基于 gnark 的费用证明后端
//
// 🎯 **专门职责**：将费用调用的电路赋值与被消费记录的成员路径绑定为简洁证明
// 🏗️ **技术栈**：gnark Groth16（默认）/ PlonK，电路内哈希为 MiMC
package prover

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	gnarklogger "github.com/consensys/gnark/logger"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	logimpl "github.com/weisyn/zkvm/internal/core/infrastructure/log"
	"github.com/weisyn/zkvm/internal/core/vm/circuit"
	"github.com/weisyn/zkvm/internal/core/vm/network"
	"github.com/weisyn/zkvm/internal/core/vm/process"
	log "github.com/weisyn/zkvm/pkg/interfaces/infrastructure/log"
	vmiface "github.com/weisyn/zkvm/pkg/interfaces/vm"
)

var _ vmiface.ProvingBackend = (*Backend)(nil)

// 默认参数
const (
	DefaultMaxPublicInputs = 64
	DefaultSetupCacheSize  = 4
)

// Options 证明后端选项
type Options struct {
	Scheme          string
	MerkleDepth     int
	MaxPublicInputs int
	SetupCacheSize  int
}

// Stats 费用电路规模（仅用于诊断）
type Stats struct {
	Constraints int
	Public      int
	Secret      int
}

type setupEntry struct {
	ccs constraint.ConstraintSystem
	pk  ProvingKey
	vk  VerifyingKey
}

// Backend 费用证明后端
//
// 可信设置按曲线缓存（LRU，容量 SetupCacheSize）；并发安全。
type Backend struct {
	scheme    Scheme
	depth     int
	maxPublic int
	cacheSize int
	logger    log.Logger

	// setupMu 串行化编译与可信设置，避免同一电路重复生成
	setupMu sync.Mutex
	setups  *lru.Cache[string, *setupEntry]
}

// New 创建证明后端
func New(opts Options, logger log.Logger) (*Backend, error) {
	scheme, err := SchemeByName(opts.Scheme)
	if err != nil {
		return nil, err
	}
	if opts.MaxPublicInputs == 0 {
		opts.MaxPublicInputs = DefaultMaxPublicInputs
	}
	if opts.SetupCacheSize <= 0 {
		opts.SetupCacheSize = DefaultSetupCacheSize
	}
	if _, err := NewFeeCircuit(opts.MerkleDepth, opts.MaxPublicInputs); err != nil {
		return nil, err
	}
	setups, err := lru.New[string, *setupEntry](opts.SetupCacheSize)
	if err != nil {
		return nil, err
	}
	return &Backend{
		scheme:    scheme,
		depth:     opts.MerkleDepth,
		maxPublic: opts.MaxPublicInputs,
		cacheSize: opts.SetupCacheSize,
		logger:    logimpl.NewModuleLogger(logger, "prover"),
		setups:    setups,
	}, nil
}

// Scheme 证明方案名称
func (b *Backend) Scheme() string { return b.scheme.Name() }

// silenceGnark 关闭 gnark 内部的 zerolog 输出，返回恢复函数
func silenceGnark() func() {
	old := gnarklogger.Logger()
	gnarklogger.Set(zerolog.New(io.Discard).Level(zerolog.Disabled))
	return func() { gnarklogger.Set(old) }
}

// getSetup 返回曲线对应的编译电路与密钥，首次调用时编译并生成
func (b *Backend) getSetup(net network.Network) (*setupEntry, error) {
	key := circuitKey(net, b.depth, b.maxPublic) + "/" + b.scheme.Name()

	if entry, ok := b.setups.Get(key); ok {
		return entry, nil
	}

	b.setupMu.Lock()
	defer b.setupMu.Unlock()
	if entry, ok := b.setups.Get(key); ok {
		return entry, nil
	}

	start := time.Now()
	shape, err := NewFeeCircuit(b.depth, b.maxPublic)
	if err != nil {
		return nil, err
	}
	ccs, err := frontend.Compile(net.Curve().ScalarField(), b.scheme.Builder(), shape)
	if err != nil {
		return nil, WrapCompilationError(key, err)
	}
	pk, vk, err := b.scheme.Setup(ccs)
	if err != nil {
		return nil, WrapSetupError(key, err)
	}

	entry := &setupEntry{ccs: ccs, pk: pk, vk: vk}
	if b.setups.Add(key, entry) {
		b.logger.Debugf("可信设置缓存已满，淘汰最久未用的电路 (容量=%d)", b.cacheSize)
	}
	b.logger.Debugf("费用电路可信设置完成: %s, 约束数=%d, 耗时=%v", key, ccs.GetNbConstraints(), time.Since(start))
	return entry, nil
}

// Stats 费用电路规模
func (b *Backend) Stats(net network.Network) (Stats, error) {
	restore := silenceGnark()
	defer restore()
	entry, err := b.getSetup(net)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Constraints: entry.ccs.GetNbConstraints(),
		Public:      entry.ccs.GetNbPublicVariables(),
		Secret:      entry.ccs.GetNbSecretVariables(),
	}, nil
}

// ProveFee 生成费用证明
//
// 调用电路不可满足时不进入证明系统，直接返回 ErrConstraintUnsatisfied。
func (b *Backend) ProveFee(ctx context.Context, assignment *circuit.Assignment, spends []vmiface.Spend, globalStateRoot network.Field) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if assignment == nil {
		return nil, WrapWitnessError("fee", "nil assignment")
	}
	if !assignment.IsSatisfied() {
		return nil, process.WrapConstraintError("fee", assignment.Unsatisfied(), nil)
	}
	net := assignment.Network
	key := circuitKey(net, b.depth, b.maxPublic)

	var spend vmiface.Spend
	switch len(spends) {
	case 0:
		if !globalStateRoot.IsZero() {
			return nil, WrapWitnessError(key, "global state root without inclusion path")
		}
	case 1:
		spend = spends[0]
		if spend.Path == nil || spend.Path.Root != globalStateRoot || globalStateRoot.IsZero() {
			return nil, WrapWitnessError(key, "inclusion path root differs from global state root")
		}
	default:
		return nil, WrapWitnessError(key, fmt.Sprintf("%d inclusion paths, fee consumes one record", len(spends)))
	}

	restore := silenceGnark()
	defer restore()

	entry, err := b.getSetup(net)
	if err != nil {
		return nil, err
	}
	w, err := assign(net, b.depth, b.maxPublic, assignment.PublicInputs, globalStateRoot, spend.SpentRecord, spend.Path)
	if err != nil {
		return nil, err
	}
	full, err := frontend.NewWitness(w, net.Curve().ScalarField())
	if err != nil {
		return nil, WrapWitnessError(key, err.Error())
	}

	start := time.Now()
	proof, err := b.scheme.Prove(entry.ccs, entry.pk, full)
	if err != nil {
		return nil, WrapProofGenerationError(key, err)
	}
	b.logger.Debugf("费用证明生成完成: 方案=%s, 耗时=%v, 大小=%d字节", b.scheme.Name(), time.Since(start), len(proof))
	return proof, nil
}

// VerifyFee 校验费用证明
//
// 非零状态根要求恰好一个被消费记录；零状态根不允许声明被消费记录。
func (b *Backend) VerifyFee(ctx context.Context, net network.Network, publicInputs []network.Field, globalStateRoot network.Field, spent []vmiface.SpentRecord, proof []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := circuitKey(net, b.depth, b.maxPublic)

	var record vmiface.SpentRecord
	switch {
	case globalStateRoot.IsZero() && len(spent) == 0:
	case !globalStateRoot.IsZero() && len(spent) == 1:
		record = spent[0]
	default:
		return WrapVerificationError(key, fmt.Errorf("%d spent records for state root %s", len(spent), globalStateRoot))
	}

	restore := silenceGnark()
	defer restore()

	entry, err := b.getSetup(net)
	if err != nil {
		return err
	}
	w, err := assign(net, b.depth, b.maxPublic, publicInputs, globalStateRoot, record, nil)
	if err != nil {
		return err
	}
	public, err := frontend.NewWitness(w, net.Curve().ScalarField(), frontend.PublicOnly())
	if err != nil {
		return WrapWitnessError(key, err.Error())
	}
	if err := b.scheme.Verify(proof, entry.vk, public, net.Curve()); err != nil {
		return WrapVerificationError(key, err)
	}
	return nil
}
