// Package metrics 定义虚拟机指标上报接口
//
// 实现位于 internal/core/infrastructure/metrics（Prometheus）。
package metrics

import "time"

// ════════════════════════════════════════════════════════════════════════════════════════════════
// 📊 费用指标
// ════════════════════════════════════════════════════════════════════════════════════════════════

// FeeRecorder 费用组装的指标收集器
type FeeRecorder interface {
	// ObserveFee 记录一次费用组装
	//
	// err 为空表示成功；proofBytes 为证明字节数，失败时为 0。
	ObserveFee(scheme string, elapsed time.Duration, proofBytes int, err error)
}

// NopFeeRecorder 丢弃所有指标
type NopFeeRecorder struct{}

// ObserveFee 实现 FeeRecorder
func (NopFeeRecorder) ObserveFee(string, time.Duration, int, error) {}
