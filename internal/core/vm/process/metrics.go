package process

import (
	"fmt"

	"github.com/weisyn/zkvm/internal/core/vm/circuit"
	"github.com/weisyn/zkvm/internal/core/vm/console"
)

// CallMetrics 单次调用的规模统计
type CallMetrics struct {
	ProgramID        console.ProgramID
	FunctionName     console.Identifier
	NumInstructions  int
	NumRequest       circuit.Count
	NumFunction      circuit.Count
	NumResponse      circuit.Count
	TotalConstraints uint64
}

// String 诊断输出
func (m CallMetrics) String() string {
	return fmt.Sprintf("%s/%s instructions=%d request=[%s] function=[%s] response=[%s]",
		m.ProgramID, m.FunctionName, m.NumInstructions, m.NumRequest, m.NumFunction, m.NumResponse)
}

// Recorder 调用统计的外部收集器
type Recorder interface {
	ObserveCall(m CallMetrics, satisfied bool)
}
