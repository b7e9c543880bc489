package prover

import (
	"errors"
	"fmt"
)

// ============================================================================
//                            证明后端错误定义
// ============================================================================

var (
	// ErrCircuitCompilationFailed 电路编译失败
	ErrCircuitCompilationFailed = errors.New("circuit compilation failed")

	// ErrSetupFailed 可信设置失败
	ErrSetupFailed = errors.New("trusted setup failed")

	// ErrProofGenerationFailed 证明生成失败
	ErrProofGenerationFailed = errors.New("proof generation failed")

	// ErrProofVerificationFailed 证明校验失败
	ErrProofVerificationFailed = errors.New("proof verification failed")

	// ErrInvalidWitness 见证不合法
	ErrInvalidWitness = errors.New("invalid witness")

	// ErrTooManyPublicInputs 调用电路公开输入超过费用电路容量
	ErrTooManyPublicInputs = errors.New("too many public inputs")

	// ErrUnsupportedScheme 不支持的证明方案
	ErrUnsupportedScheme = errors.New("unsupported proving scheme")
)

// ============================================================================
//                               错误包装函数
// ============================================================================

// WrapCompilationError 包装电路编译错误
func WrapCompilationError(circuitKey string, err error) error {
	return fmt.Errorf("%w: circuit=%s, cause=%v", ErrCircuitCompilationFailed, circuitKey, err)
}

// WrapSetupError 包装可信设置错误
func WrapSetupError(circuitKey string, err error) error {
	return fmt.Errorf("%w: circuit=%s, cause=%v", ErrSetupFailed, circuitKey, err)
}

// WrapProofGenerationError 包装证明生成错误
func WrapProofGenerationError(circuitKey string, err error) error {
	return fmt.Errorf("%w: circuit=%s, cause=%v", ErrProofGenerationFailed, circuitKey, err)
}

// WrapVerificationError 包装证明校验错误
func WrapVerificationError(circuitKey string, err error) error {
	return fmt.Errorf("%w: circuit=%s, cause=%v", ErrProofVerificationFailed, circuitKey, err)
}

// WrapWitnessError 包装见证错误
func WrapWitnessError(circuitKey, reason string) error {
	return fmt.Errorf("%w: circuit=%s, reason=%s", ErrInvalidWitness, circuitKey, reason)
}

// WrapPublicInputsError 包装公开输入容量错误
func WrapPublicInputsError(limit, actual int) error {
	return fmt.Errorf("%w: limit=%d, actual=%d", ErrTooManyPublicInputs, limit, actual)
}
