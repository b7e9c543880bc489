package network

import (
	"encoding/binary"
	"encoding/hex"
	"math/big"
)

// ============================================================================
//                              基础代数类型
// ============================================================================

// FieldSize 域元素的规范编码长度（大端）
const FieldSize = 32

// Field 标量域元素，采用32字节大端规范编码
//
// Field 是值类型，可直接比较（==）并作为 map 键。
// 规范性（小于模数）由构造它的 Network 保证。
type Field [FieldSize]byte

// Scalar 扭曲爱德华曲线子群上的标量（小于子群阶）
type Scalar [FieldSize]byte

// Group 扭曲爱德华曲线上的仿射点
type Group struct {
	X Field
	Y Field
}

// FieldFromUint64 构造小整数域元素
func FieldFromUint64(v uint64) Field {
	var f Field
	binary.BigEndian.PutUint64(f[FieldSize-8:], v)
	return f
}

// FieldFromBool 布尔值的域表示（0 或 1）
func FieldFromBool(b bool) Field {
	if b {
		return FieldFromUint64(1)
	}
	return Field{}
}

// BigInt 返回域元素的整数值
func (f Field) BigInt() *big.Int {
	return new(big.Int).SetBytes(f[:])
}

// IsZero 是否为零元
func (f Field) IsZero() bool {
	return f == Field{}
}

// Uint64 若元素可以用 u64 表示，返回其值
func (f Field) Uint64() (uint64, bool) {
	for _, b := range f[:FieldSize-8] {
		if b != 0 {
			return 0, false
		}
	}
	return binary.BigEndian.Uint64(f[FieldSize-8:]), true
}

// Bits 小端位序的 n 位分解
func (f Field) Bits(n int) []bool {
	v := f.BigInt()
	bits := make([]bool, n)
	for i := 0; i < n; i++ {
		bits[i] = v.Bit(i) == 1
	}
	return bits
}

// String 十六进制表示
func (f Field) String() string {
	return "0x" + hex.EncodeToString(f[:])
}

// ToField 标量转换为域元素（子群阶小于域模数）
func (s Scalar) ToField() Field {
	return Field(s)
}

// BigInt 返回标量的整数值
func (s Scalar) BigInt() *big.Int {
	return new(big.Int).SetBytes(s[:])
}

// IsZero 是否为零标量
func (s Scalar) IsZero() bool {
	return s == Scalar{}
}

// String 十六进制表示
func (s Scalar) String() string {
	return "0x" + hex.EncodeToString(s[:])
}

// Identity 扭曲爱德华曲线的单位元 (0, 1)
func Identity() Group {
	return Group{Y: FieldFromUint64(1)}
}

// Bytes 64字节编码：X || Y
func (g Group) Bytes() []byte {
	out := make([]byte, 0, 2*FieldSize)
	out = append(out, g.X[:]...)
	return append(out, g.Y[:]...)
}

// GroupFromBytes 解析64字节点编码（不检查曲线归属）
func GroupFromBytes(b []byte) (Group, bool) {
	if len(b) != 2*FieldSize {
		return Group{}, false
	}
	var g Group
	copy(g.X[:], b[:FieldSize])
	copy(g.Y[:], b[FieldSize:])
	return g, true
}

// Domain 将短字符串打包成域元素，用于哈希域分离
//
// 名称最长31字节，保证结果小于任何支持曲线的模数。
func Domain(name string) Field {
	var f Field
	b := []byte(name)
	if len(b) > FieldSize-1 {
		b = b[:FieldSize-1]
	}
	copy(f[FieldSize-len(b):], b)
	return f
}

// PackBits 将小端位序的位串按每元素 PackedBits 位打包成域元素
func PackBits(bits []bool) []Field {
	out := make([]Field, 0, (len(bits)+PackedBits-1)/PackedBits)
	for start := 0; start < len(bits); start += PackedBits {
		end := start + PackedBits
		if end > len(bits) {
			end = len(bits)
		}
		v := new(big.Int)
		for i := end - 1; i >= start; i-- {
			v.Lsh(v, 1)
			if bits[i] {
				v.SetBit(v, 0, 1)
			}
		}
		var f Field
		v.FillBytes(f[:])
		out = append(out, f)
	}
	return out
}

// PackedBits 每个打包域元素承载的位数
const PackedBits = 248
