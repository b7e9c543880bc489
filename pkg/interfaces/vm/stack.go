// Package vm 定义执行核心与外部协作方之间的接口
package vm

import (
	"github.com/weisyn/zkvm/internal/core/vm/circuit"
	"github.com/weisyn/zkvm/internal/core/vm/console"
	"github.com/weisyn/zkvm/internal/core/vm/program"
)

// ════════════════════════════════════════════════════════════════════════════════════════════════
// Stack - 程序求值器
// ════════════════════════════════════════════════════════════════════════════════════════════════
//
// 📋 **接口说明**：
//   - 由 internal/core/vm/program.Stack 默认实现
//   - 执行引擎只通过该接口求值函数，不解析指令
//
// 🔒 **约束**：
//   - EvaluateFunction 与 ExecuteFunction 对同一输入必须产生相同的输出值
//   - ExecuteFunction 只能向传入的 Environment 写入约束
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

type Stack interface {
	// Program 所属程序
	Program() *program.Program

	// EvaluateFunction 明文求值，返回按声明顺序排列的输出
	EvaluateFunction(fn *program.Function, inputs []console.Value) ([]console.Value, error)

	// ExecuteFunction 在电路环境中执行，返回电路输出
	ExecuteFunction(env *circuit.Environment, fn *program.Function, inputs []circuit.Value) ([]circuit.Value, error)

	// InstructionCount 函数执行的指令数
	InstructionCount(fn *program.Function) int
}
