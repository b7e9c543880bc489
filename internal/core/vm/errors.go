package vm

import (
	"errors"
	"fmt"
)

// ============================================================================
//                              错误定义
// ============================================================================

// 虚拟机错误定义
var (
	// ErrGenesisExists 区块存储已有区块，不能再次创世
	ErrGenesisExists = errors.New("genesis block already exists")
	// ErrFeeNotProven 费用未附带证明
	ErrFeeNotProven = errors.New("fee carries no proof")
	// ErrNetworkMismatch 组件的网络参数集不一致
	ErrNetworkMismatch = errors.New("network mismatch")
)

// WrapNetworkError 包装网络参数集不一致错误
func WrapNetworkError(component, expected, actual string) error {
	return fmt.Errorf("%w: %s uses %s, vm uses %s", ErrNetworkMismatch, component, actual, expected)
}
