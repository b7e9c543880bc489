package process

import (
	"errors"
	"fmt"

	"github.com/weisyn/zkvm/internal/core/vm/console"
	"github.com/weisyn/zkvm/internal/core/vm/program"
)

// ============================================================================
//                              错误定义
// ============================================================================

// 执行引擎错误定义
var (
	// ErrInvalidRequest 请求签名或输入标识校验失败
	ErrInvalidRequest = console.ErrInvalidRequest
	// ErrFunctionNotFound 程序中不存在该函数
	ErrFunctionNotFound = program.ErrFunctionNotFound
	// ErrProgramNotFound 未加载该程序
	ErrProgramNotFound = errors.New("program not found")
	// ErrArityMismatch 输入个数与函数声明不符
	ErrArityMismatch = errors.New("arity mismatch")
	// ErrTypeMismatch 值与声明类型不一致
	ErrTypeMismatch = console.ErrTypeMismatch
	// ErrMalformedFeeRecord 费用记录缺少余额条目或类型不符
	ErrMalformedFeeRecord = errors.New("malformed fee record")
	// ErrInsufficientBalance 余额不足以支付费用
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrConstraintUnsatisfied 电路约束未满足
	ErrConstraintUnsatisfied = errors.New("constraint system is not satisfied")
	// ErrTraceFinalized 轨迹已完成
	ErrTraceFinalized = errors.New("trace already finalized")
)

// WrapArityError 包装输入个数错误
func WrapArityError(locator string, expected, actual int) error {
	return fmt.Errorf("%w: %s expects %d inputs, got %d", ErrArityMismatch, locator, expected, actual)
}

// WrapProgramError 包装程序缺失错误
func WrapProgramError(programID string) error {
	return fmt.Errorf("%w: %s", ErrProgramNotFound, programID)
}

// WrapConstraintError 包装约束未满足错误，附带首个失败的约束名
func WrapConstraintError(locator string, unsatisfied []string, cause error) error {
	first := "-"
	if len(unsatisfied) > 0 {
		first = unsatisfied[0]
	}
	if cause != nil {
		return fmt.Errorf("%w: %s, first=%s, count=%d, cause=%v", ErrConstraintUnsatisfied, locator, first, len(unsatisfied), cause)
	}
	return fmt.Errorf("%w: %s, first=%s, count=%d", ErrConstraintUnsatisfied, locator, first, len(unsatisfied))
}

// WrapFeeRecordError 包装费用记录错误
func WrapFeeRecordError(reason string) error {
	return fmt.Errorf("%w: %s", ErrMalformedFeeRecord, reason)
}

// WrapBalanceError 包装余额不足错误
func WrapBalanceError(balance, fee uint64) error {
	return fmt.Errorf("%w: balance=%d, fee=%d", ErrInsufficientBalance, balance, fee)
}
