package console

import (
	"fmt"
	"math/big"

	"github.com/weisyn/zkvm/internal/core/vm/network"
)

// LiteralType 字面量类型
type LiteralType uint8

const (
	// LiteralAddress 账户地址（曲线点，两个域元素）
	LiteralAddress LiteralType = iota
	// LiteralBoolean 布尔值
	LiteralBoolean
	// LiteralField 标量域元素
	LiteralField
	// LiteralU64 64位无符号整数
	LiteralU64
)

func (t LiteralType) String() string {
	switch t {
	case LiteralAddress:
		return "address"
	case LiteralBoolean:
		return "boolean"
	case LiteralField:
		return "field"
	case LiteralU64:
		return "u64"
	default:
		return fmt.Sprintf("literal(%d)", uint8(t))
	}
}

// NumFields 该类型占用的域元素个数
func (t LiteralType) NumFields() int {
	if t == LiteralAddress {
		return 2
	}
	return 1
}

// BitWidth 单个域元素在位编码中的宽度
func (t LiteralType) BitWidth(net network.Network) int {
	switch t {
	case LiteralBoolean:
		return 1
	case LiteralU64:
		return 64
	default:
		return net.FieldBits()
	}
}

// Plaintext 明文字面量
type Plaintext struct {
	Type   LiteralType
	Fields []network.Field
}

func (Plaintext) isValue() {}

// NewU64 构造 u64 字面量
func NewU64(v uint64) Plaintext {
	return Plaintext{Type: LiteralU64, Fields: []network.Field{network.FieldFromUint64(v)}}
}

// NewBoolean 构造布尔字面量
func NewBoolean(b bool) Plaintext {
	return Plaintext{Type: LiteralBoolean, Fields: []network.Field{network.FieldFromBool(b)}}
}

// NewFieldLiteral 构造域元素字面量
func NewFieldLiteral(f network.Field) Plaintext {
	return Plaintext{Type: LiteralField, Fields: []network.Field{f}}
}

// NewFieldFromUint64 构造小整数域元素字面量
func NewFieldFromUint64(v uint64) Plaintext {
	return NewFieldLiteral(network.FieldFromUint64(v))
}

// NewAddress 构造地址字面量
func NewAddress(a network.Group) Plaintext {
	return Plaintext{Type: LiteralAddress, Fields: []network.Field{a.X, a.Y}}
}

// Validate 检查取值与类型一致
func (p Plaintext) Validate(net network.Network) error {
	if len(p.Fields) != p.Type.NumFields() {
		return fmt.Errorf("%w: %s expects %d field(s), got %d", ErrInvalidLiteral, p.Type, p.Type.NumFields(), len(p.Fields))
	}
	for _, f := range p.Fields {
		if err := net.CheckField(f); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidLiteral, err)
		}
	}
	switch p.Type {
	case LiteralAddress:
		if !net.IsOnCurve(p.Address()) {
			return fmt.Errorf("%w: address is not on the curve", ErrInvalidLiteral)
		}
	case LiteralBoolean:
		if p.Fields[0].BigInt().Cmp(big.NewInt(1)) > 0 {
			return fmt.Errorf("%w: boolean out of range", ErrInvalidLiteral)
		}
	case LiteralU64:
		if _, ok := p.Fields[0].Uint64(); !ok {
			return fmt.Errorf("%w: u64 out of range", ErrInvalidLiteral)
		}
	case LiteralField:
	default:
		return fmt.Errorf("%w: unknown literal type %d", ErrInvalidLiteral, p.Type)
	}
	return nil
}

// Address 地址字面量的曲线点
func (p Plaintext) Address() network.Group {
	if len(p.Fields) < 2 {
		return network.Group{}
	}
	return network.Group{X: p.Fields[0], Y: p.Fields[1]}
}

// Uint64 u64 字面量的值
func (p Plaintext) Uint64() (uint64, bool) {
	if p.Type != LiteralU64 || len(p.Fields) != 1 {
		return 0, false
	}
	return p.Fields[0].Uint64()
}

// Field 单元素字面量的域值
func (p Plaintext) Field() network.Field {
	if len(p.Fields) == 0 {
		return network.Field{}
	}
	return p.Fields[0]
}

// Equal 值相等
func (p Plaintext) Equal(o Plaintext) bool {
	if p.Type != o.Type || len(p.Fields) != len(o.Fields) {
		return false
	}
	for i := range p.Fields {
		if p.Fields[i] != o.Fields[i] {
			return false
		}
	}
	return true
}

// Bits 规范位编码：8位类型标签 + 各元素按类型宽度展开
func (p Plaintext) Bits(net network.Network) []bool {
	bits := AppendTag(nil, uint8(p.Type))
	width := p.Type.BitWidth(net)
	for _, f := range p.Fields {
		bits = AppendField(bits, f, width)
	}
	return bits
}

// Write 规范字节编码
func (p Plaintext) Write(w *Writer) {
	w.U8(uint8(p.Type))
	for _, f := range p.Fields {
		w.Field(f)
	}
}

// ReadPlaintext 解码明文字面量
func ReadPlaintext(r *Reader) Plaintext {
	t := LiteralType(r.U8())
	if t > LiteralU64 {
		r.Fail(fmt.Sprintf("unknown literal type %d", t))
		return Plaintext{}
	}
	p := Plaintext{Type: t, Fields: make([]network.Field, t.NumFields())}
	for i := range p.Fields {
		p.Fields[i] = r.Field()
	}
	return p
}

func (p Plaintext) String() string {
	switch p.Type {
	case LiteralU64:
		v, _ := p.Uint64()
		return fmt.Sprintf("%du64", v)
	case LiteralBoolean:
		return fmt.Sprintf("%t", !p.Field().IsZero())
	case LiteralField:
		return p.Field().BigInt().String() + "field"
	case LiteralAddress:
		return "address(" + p.Fields[0].String() + ")"
	default:
		return "unknown"
	}
}

// Ciphertext 私有明文的密文（逐元素加密）
type Ciphertext struct {
	Fields []network.Field
}

// Bits 密文位编码：每个元素取完整域宽度
func (c Ciphertext) Bits(net network.Network) []bool {
	var bits []bool
	for _, f := range c.Fields {
		bits = AppendField(bits, f, net.FieldBits())
	}
	return bits
}

// Write 规范字节编码
func (c Ciphertext) Write(w *Writer) {
	w.U16(uint16(len(c.Fields)))
	for _, f := range c.Fields {
		w.Field(f)
	}
}

// ReadCiphertext 解码密文
func ReadCiphertext(r *Reader) Ciphertext {
	n := r.U16()
	c := Ciphertext{Fields: make([]network.Field, 0, n)}
	for i := 0; i < int(n) && r.Err() == nil; i++ {
		c.Fields = append(c.Fields, r.Field())
	}
	return c
}

// EncryptPlaintext 以对称密钥逐元素加密：c_i = m_i + H(key, i)
func EncryptPlaintext(net network.Network, p Plaintext, key network.Field) (Ciphertext, error) {
	c := Ciphertext{Fields: make([]network.Field, len(p.Fields))}
	for i, f := range p.Fields {
		pad, err := net.HashFields([]network.Field{key, network.FieldFromUint64(uint64(i))})
		if err != nil {
			return Ciphertext{}, err
		}
		c.Fields[i] = net.Add(f, pad)
	}
	return c, nil
}

// Decrypt 以对称密钥解密为指定类型的明文
func (c Ciphertext) Decrypt(net network.Network, key network.Field, t LiteralType) (Plaintext, error) {
	if len(c.Fields) != t.NumFields() {
		return Plaintext{}, WrapTypeError("ciphertext length", t.NumFields(), len(c.Fields))
	}
	p := Plaintext{Type: t, Fields: make([]network.Field, len(c.Fields))}
	for i, f := range c.Fields {
		pad, err := net.HashFields([]network.Field{key, network.FieldFromUint64(uint64(i))})
		if err != nil {
			return Plaintext{}, err
		}
		p.Fields[i] = net.Sub(f, pad)
	}
	return p, p.Validate(net)
}
