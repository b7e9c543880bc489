package vm

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	vmconfig "github.com/weisyn/zkvm/internal/config/vm"
	logimpl "github.com/weisyn/zkvm/internal/core/infrastructure/log"
	"github.com/weisyn/zkvm/internal/core/vm/process"
	"github.com/weisyn/zkvm/internal/core/vm/prover"
	"github.com/weisyn/zkvm/internal/core/vm/query"
	"github.com/weisyn/zkvm/internal/core/vm/store"
	"github.com/weisyn/zkvm/pkg/interfaces/infrastructure/log"
	metricsiface "github.com/weisyn/zkvm/pkg/interfaces/infrastructure/metrics"
	"github.com/weisyn/zkvm/pkg/interfaces/infrastructure/storage"
	vmiface "github.com/weisyn/zkvm/pkg/interfaces/vm"
	"github.com/weisyn/zkvm/pkg/types"
)

// ModuleParams 定义虚拟机模块的依赖参数
type ModuleParams struct {
	fx.In

	Logger      log.Logger          `optional:"true"`
	VMConfig    *types.UserVMConfig `optional:"true"`
	BadgerStore storage.BadgerStore
	MemoryStore storage.MemoryStore      `optional:"true"`
	Recorder    process.Recorder         `optional:"true"`
	FeeRecorder metricsiface.FeeRecorder `optional:"true"`
}

// ModuleOutput 定义虚拟机模块的输出结构
type ModuleOutput struct {
	fx.Out

	VM      *VM
	Process *process.Process
	Blocks  *store.BlockStore
	Query   vmiface.Query
	Prover  vmiface.ProvingBackend
}

// Module 返回虚拟机模块
//
// 依赖 storage 模块提供的 BadgerStore（必需）与 MemoryStore（路径缓存，可选）。
func Module() fx.Option {
	return fx.Module("vm",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 按配置装配执行引擎、区块存储、查询源与证明后端
func ProvideServices(params ModuleParams) (ModuleOutput, error) {
	var userConfig interface{}
	if params.VMConfig != nil {
		userConfig = params.VMConfig
	}
	config := vmconfig.New(userConfig)
	if err := config.Validate(); err != nil {
		return ModuleOutput{}, fmt.Errorf("虚拟机配置无效: %w", err)
	}
	net, err := config.GetNetwork()
	if err != nil {
		return ModuleOutput{}, err
	}
	logger := logimpl.NewModuleLogger(params.Logger, "vm")

	opts := []process.Option{
		process.WithLogger(logimpl.NewModuleLogger(params.Logger, "process")),
		process.WithCircuitLogging(config.IsCircuitLoggingEnabled()),
	}
	if params.Recorder != nil {
		opts = append(opts, process.WithRecorder(params.Recorder))
	}
	proc := process.New(net, opts...)

	blocks, err := store.Open(context.Background(), net, params.BadgerStore, config.GetMerkleDepth(), params.Logger)
	if err != nil {
		return ModuleOutput{}, fmt.Errorf("打开区块存储失败: %w", err)
	}
	q := query.NewStore(blocks, params.MemoryStore, params.Logger)

	backend, err := prover.New(prover.Options{
		Scheme:          config.GetProvingScheme(),
		MerkleDepth:     config.GetMerkleDepth(),
		MaxPublicInputs: config.GetMaxPublicInputs(),
		SetupCacheSize:  config.GetSetupCacheSize(),
	}, params.Logger)
	if err != nil {
		return ModuleOutput{}, fmt.Errorf("创建证明后端失败: %w", err)
	}

	v, err := New(proc, blocks, q, backend, WithLogger(logger), WithFeeRecorder(params.FeeRecorder))
	if err != nil {
		return ModuleOutput{}, err
	}
	logger.Infof("虚拟机已就绪: network=%s, scheme=%s, merkle_depth=%d", net.Name(), backend.Scheme(), config.GetMerkleDepth())

	return ModuleOutput{VM: v, Process: proc, Blocks: blocks, Query: q, Prover: backend}, nil
}
