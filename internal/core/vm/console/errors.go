package console

import (
	"errors"
	"fmt"
)

// 控制台值层错误定义
var (
	// ErrInvalidIdentifier 非法标识符或程序标识
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrInvalidLiteral 字面量取值超出其类型范围
	ErrInvalidLiteral = errors.New("invalid literal")
	// ErrTypeMismatch 值与声明类型不一致
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrInvalidRequest 请求签名、承诺或输入标识校验失败
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotOwner 视图密钥与记录所有者不匹配
	ErrNotOwner = errors.New("record is not owned by this view key")
	// ErrInvalidAddress 地址字符串无法解析
	ErrInvalidAddress = errors.New("invalid address")
	// ErrSerialization 字节解码失败
	ErrSerialization = errors.New("serialization error")
)

// WrapRequestError 包装请求校验错误，附带失败的检查项
func WrapRequestError(check string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, check)
	}
	return fmt.Errorf("%w: %s: %v", ErrInvalidRequest, check, err)
}

// WrapTypeError 包装类型错误
func WrapTypeError(what string, expected, actual interface{}) error {
	return fmt.Errorf("%w: %s expected %v, got %v", ErrTypeMismatch, what, expected, actual)
}

// WrapSerializationError 包装解码错误
func WrapSerializationError(what string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrSerialization, what)
	}
	return fmt.Errorf("%w: %s: %v", ErrSerialization, what, err)
}
