// Package metrics 提供虚拟机的 Prometheus 指标收集
//
// 📋 **虚拟机指标基础设施模块 (VM Metrics Infrastructure Module)**
//
// 本模块提供：
// - 电路调用计数与约束规模分布（实现 process.Recorder）
// - 费用组装计数、耗时与证明大小（实现 metrics.FeeRecorder）
//
// 每个 Collector 持有独立的 Registry，多实例之间互不冲突。
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	logimpl "github.com/weisyn/zkvm/internal/core/infrastructure/log"
	"github.com/weisyn/zkvm/internal/core/vm/process"
	"github.com/weisyn/zkvm/pkg/interfaces/infrastructure/log"
	metricsiface "github.com/weisyn/zkvm/pkg/interfaces/infrastructure/metrics"
)

const namespace = "zkvm"

// 费用结果标签
const (
	ResultOK                  = "ok"
	ResultInsufficientBalance = "insufficient_balance"
	ResultMalformedRecord     = "malformed_record"
	ResultUnsatisfied         = "unsatisfied"
	ResultError               = "error"
)

var (
	_ process.Recorder         = (*Collector)(nil)
	_ metricsiface.FeeRecorder = (*Collector)(nil)
)

// Collector 虚拟机指标收集器
type Collector struct {
	logger   log.Logger
	registry *prometheus.Registry

	calls        *prometheus.CounterVec
	constraints  *prometheus.HistogramVec
	instructions *prometheus.HistogramVec

	fees        *prometheus.CounterVec
	feeDuration *prometheus.HistogramVec
	proofSize   *prometheus.SummaryVec
}

// New 创建指标收集器
func New(logger log.Logger) *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collector{
		logger:   logimpl.NewModuleLogger(logger, "metrics"),
		registry: registry,

		calls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "process",
				Name:      "calls_total",
				Help:      "Total number of circuit executions",
			},
			[]string{"program", "function", "satisfied"},
		),
		constraints: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "process",
				Name:      "constraints",
				Help:      "Constraints synthesized per circuit execution",
				Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
			},
			[]string{"program", "function"},
		),
		instructions: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "process",
				Name:      "instructions",
				Help:      "Instructions per executed function",
				Buckets:   prometheus.LinearBuckets(1, 4, 8),
			},
			[]string{"program", "function"},
		),

		fees: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "fee",
				Name:      "assemblies_total",
				Help:      "Total number of fee assemblies by result",
			},
			[]string{"scheme", "result"},
		),
		feeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "fee",
				Name:      "duration_seconds",
				Help:      "Fee assembly duration in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"scheme"},
		),
		proofSize: factory.NewSummaryVec(
			prometheus.SummaryOpts{
				Namespace:  namespace,
				Subsystem:  "fee",
				Name:       "proof_size_bytes",
				Help:       "Fee proof size in bytes",
				Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
			},
			[]string{"scheme"},
		),
	}
}

// Registry 指标注册表，供外部导出
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveCall 记录一次电路执行
func (c *Collector) ObserveCall(m process.CallMetrics, satisfied bool) {
	program, function := m.ProgramID.String(), m.FunctionName.String()
	c.calls.WithLabelValues(program, function, strconv.FormatBool(satisfied)).Inc()
	c.constraints.WithLabelValues(program, function).Observe(float64(m.TotalConstraints))
	c.instructions.WithLabelValues(program, function).Observe(float64(m.NumInstructions))
}

// ObserveFee 记录一次费用组装
func (c *Collector) ObserveFee(scheme string, elapsed time.Duration, proofBytes int, err error) {
	result := FeeResult(err)
	c.fees.WithLabelValues(scheme, result).Inc()
	if err != nil {
		c.logger.Debugf("fee assembly failed: scheme=%s result=%s err=%v", scheme, result, err)
		return
	}
	c.feeDuration.WithLabelValues(scheme).Observe(elapsed.Seconds())
	c.proofSize.WithLabelValues(scheme).Observe(float64(proofBytes))
}

// FeeResult 将费用错误归类为结果标签
func FeeResult(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, process.ErrInsufficientBalance):
		return ResultInsufficientBalance
	case errors.Is(err, process.ErrMalformedFeeRecord):
		return ResultMalformedRecord
	case errors.Is(err, process.ErrConstraintUnsatisfied):
		return ResultUnsatisfied
	default:
		return ResultError
	}
}
