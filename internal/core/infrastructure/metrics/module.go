package metrics

import (
	"go.uber.org/fx"

	"github.com/weisyn/zkvm/internal/core/vm/process"
	"github.com/weisyn/zkvm/pkg/interfaces/infrastructure/log"
	metricsiface "github.com/weisyn/zkvm/pkg/interfaces/infrastructure/metrics"
)

// ModuleParams 定义指标模块的依赖参数
type ModuleParams struct {
	fx.In

	Logger log.Logger `optional:"true"`
}

// ModuleOutput 定义指标模块的输出结构
type ModuleOutput struct {
	fx.Out

	Collector   *Collector
	Recorder    process.Recorder
	FeeRecorder metricsiface.FeeRecorder
}

// Module 返回指标模块
func Module() fx.Option {
	return fx.Module("metrics",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 创建指标收集器，同时以调用与费用两个接口导出
func ProvideServices(params ModuleParams) ModuleOutput {
	c := New(params.Logger)
	return ModuleOutput{Collector: c, Recorder: c, FeeRecorder: c}
}
