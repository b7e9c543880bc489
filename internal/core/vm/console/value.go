package console

import "fmt"

// Value 函数输入/输出值：Plaintext 或 *Record
type Value interface {
	isValue()
}

// ValueKind 值类型种类
//
// 数值同时是 Output/Input 变体标签，序列化依赖，禁止重新编号。
type ValueKind uint8

const (
	ValueConstant       ValueKind = 0
	ValuePublic         ValueKind = 1
	ValuePrivate        ValueKind = 2
	ValueRecord         ValueKind = 3
	ValueExternalRecord ValueKind = 4
)

func (k ValueKind) String() string {
	switch k {
	case ValueConstant:
		return "constant"
	case ValuePublic:
		return "public"
	case ValuePrivate:
		return "private"
	case ValueRecord:
		return "record"
	case ValueExternalRecord:
		return "external_record"
	default:
		return fmt.Sprintf("value_kind(%d)", uint8(k))
	}
}

// ValueType 声明的值类型
type ValueType struct {
	Kind ValueKind
	// Literal 仅对 Constant/Public/Private 有效
	Literal LiteralType
	// Record 仅对 Record 有效
	Record Identifier
	// Locator 仅对 ExternalRecord 有效
	Locator Locator
}

// ConstantType 常量字面量类型
func ConstantType(t LiteralType) ValueType { return ValueType{Kind: ValueConstant, Literal: t} }

// PublicType 公开字面量类型
func PublicType(t LiteralType) ValueType { return ValueType{Kind: ValuePublic, Literal: t} }

// PrivateType 私有字面量类型
func PrivateType(t LiteralType) ValueType { return ValueType{Kind: ValuePrivate, Literal: t} }

// RecordType 本程序记录类型
func RecordType(name Identifier) ValueType { return ValueType{Kind: ValueRecord, Record: name} }

// ExternalRecordType 外部程序记录类型
func ExternalRecordType(l Locator) ValueType { return ValueType{Kind: ValueExternalRecord, Locator: l} }

// IsRecord 是否为记录类（含外部记录）
func (t ValueType) IsRecord() bool {
	return t.Kind == ValueRecord || t.Kind == ValueExternalRecord
}

func (t ValueType) String() string {
	switch t.Kind {
	case ValueConstant, ValuePublic, ValuePrivate:
		return t.Literal.String() + "." + t.Kind.String()
	case ValueRecord:
		return string(t.Record) + ".record"
	case ValueExternalRecord:
		return t.Locator.String() + ".record"
	default:
		return t.Kind.String()
	}
}

// CheckValue 检查值与声明类型是否匹配
func (t ValueType) CheckValue(v Value) error {
	switch val := v.(type) {
	case Plaintext:
		if t.IsRecord() {
			return WrapTypeError("value", t, "plaintext "+val.Type.String())
		}
		if val.Type != t.Literal {
			return WrapTypeError("literal", t.Literal, val.Type)
		}
	case *Record:
		if !t.IsRecord() {
			return WrapTypeError("value", t, "record")
		}
		if val == nil {
			return WrapTypeError("value", t, "nil record")
		}
	default:
		return WrapTypeError("value", t, fmt.Sprintf("%T", v))
	}
	return nil
}
