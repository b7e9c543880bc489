// Package network 定义执行核心使用的密码学参数集
//
// 每个 Network 固定一条 SNARK 友好曲线：标量域运算、MiMC 哈希族、
// 以及嵌入式扭曲爱德华曲线上的群运算。上层模块通过 Network 接口值分发，
// 不做运行时类型转换。
package network

import (
	"errors"
	"fmt"
	"hash"
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
)

var (
	// ErrNonCanonicalField 域元素不小于模数
	ErrNonCanonicalField = errors.New("non-canonical field element")
	// ErrPointNotOnCurve 点不在曲线上
	ErrPointNotOnCurve = errors.New("point is not on the curve")
	// ErrUnknownNetwork 未知网络标识
	ErrUnknownNetwork = errors.New("unknown network")
)

// 哈希域分离标签
var (
	domainHashBits     = Domain("zkvm.HashBits")
	domainCommitBits   = Domain("zkvm.CommitBits")
	domainHashToScalar = Domain("zkvm.HashToScalar")
	domainHashFields   = Domain("zkvm.HashFields")
)

// Network 密码学参数集
type Network interface {
	// ID 网络编号（序列化使用）
	ID() uint16
	// Name 网络名称
	Name() string
	// Curve gnark 证明系统使用的曲线
	Curve() ecc.ID
	// FieldModulus 标量域模数
	FieldModulus() *big.Int
	// FieldBits 模数位长
	FieldBits() int
	// ScalarOrder 嵌入曲线素数阶子群的阶
	ScalarOrder() *big.Int
	// MaxInputs 单次调用允许的最大输入数
	MaxInputs() int
	// MaxOutputs 单次调用允许的最大输出数
	MaxOutputs() int

	// NewField 约减整数得到域元素
	NewField(v *big.Int) Field
	// CheckField 检查规范性
	CheckField(f Field) error
	Add(a, b Field) Field
	Sub(a, b Field) Field
	Mul(a, b Field) Field
	Neg(a Field) Field

	// NewScalar 约减整数得到标量
	NewScalar(v *big.Int) Scalar
	ScalarAdd(a, b Scalar) Scalar
	ScalarMul(a, b Scalar) Scalar
	// RandomScalar 从随机源采样非零标量
	RandomScalar(rng io.Reader) (Scalar, error)

	// HashRaw 不带域分离的 MiMC，与电路内 gnark MiMC 逐位一致
	HashRaw(inputs []Field) (Field, error)
	// HashFields 带域分离的域元素哈希
	HashFields(inputs []Field) (Field, error)
	// HashBits 位串哈希
	HashBits(bits []bool) (Field, error)
	// CommitBits 位串在随机数 r 下的承诺
	CommitBits(bits []bool, r Scalar) (Field, error)
	// HashToScalar 哈希到标量
	HashToScalar(inputs []Field) (Scalar, error)

	// Generator 子群生成元
	Generator() Group
	// IsOnCurve 点是否在曲线上
	IsOnCurve(p Group) bool
	// GScalarMultiply 生成元的标量乘
	GScalarMultiply(s Scalar) Group
	// ScalarMultiply 任意点的标量乘
	ScalarMultiply(p Group, s Scalar) (Group, error)
	// AddPoints 点加
	AddPoints(a, b Group) (Group, error)
}

// curveOps 曲线相关的底层实现
type curveOps struct {
	newHash    func() hash.Hash
	scalarMul  func(p Group, s *big.Int) (Group, error)
	addPoints  func(a, b Group) (Group, error)
	isOnCurve  func(p Group) bool
	generator  Group
	order      *big.Int
	modulus    *big.Int
	curve      ecc.ID
	id         uint16
	name       string
	maxInputs  int
	maxOutputs int
}

// parameters 由 curveOps 驱动的通用 Network 实现
type parameters struct {
	ops curveOps
}

var _ Network = (*parameters)(nil)

func (p *parameters) ID() uint16             { return p.ops.id }
func (p *parameters) Name() string           { return p.ops.name }
func (p *parameters) Curve() ecc.ID          { return p.ops.curve }
func (p *parameters) FieldModulus() *big.Int { return new(big.Int).Set(p.ops.modulus) }
func (p *parameters) FieldBits() int         { return p.ops.modulus.BitLen() }
func (p *parameters) ScalarOrder() *big.Int  { return new(big.Int).Set(p.ops.order) }
func (p *parameters) MaxInputs() int         { return p.ops.maxInputs }
func (p *parameters) MaxOutputs() int        { return p.ops.maxOutputs }
func (p *parameters) Generator() Group       { return p.ops.generator }

func (p *parameters) String() string { return p.ops.name }

// ============================================================================
//                              域运算
// ============================================================================

func (p *parameters) NewField(v *big.Int) Field {
	r := new(big.Int).Mod(v, p.ops.modulus)
	var f Field
	r.FillBytes(f[:])
	return f
}

func (p *parameters) CheckField(f Field) error {
	if f.BigInt().Cmp(p.ops.modulus) >= 0 {
		return fmt.Errorf("%w: %s", ErrNonCanonicalField, f)
	}
	return nil
}

func (p *parameters) Add(a, b Field) Field {
	return p.NewField(new(big.Int).Add(a.BigInt(), b.BigInt()))
}

func (p *parameters) Sub(a, b Field) Field {
	return p.NewField(new(big.Int).Sub(a.BigInt(), b.BigInt()))
}

func (p *parameters) Mul(a, b Field) Field {
	return p.NewField(new(big.Int).Mul(a.BigInt(), b.BigInt()))
}

func (p *parameters) Neg(a Field) Field {
	return p.NewField(new(big.Int).Neg(a.BigInt()))
}

// ============================================================================
//                              标量运算
// ============================================================================

func (p *parameters) NewScalar(v *big.Int) Scalar {
	r := new(big.Int).Mod(v, p.ops.order)
	var s Scalar
	r.FillBytes(s[:])
	return s
}

func (p *parameters) ScalarAdd(a, b Scalar) Scalar {
	return p.NewScalar(new(big.Int).Add(a.BigInt(), b.BigInt()))
}

func (p *parameters) ScalarMul(a, b Scalar) Scalar {
	return p.NewScalar(new(big.Int).Mul(a.BigInt(), b.BigInt()))
}

func (p *parameters) RandomScalar(rng io.Reader) (Scalar, error) {
	for {
		buf := make([]byte, FieldSize+16)
		if _, err := io.ReadFull(rng, buf); err != nil {
			return Scalar{}, fmt.Errorf("sample scalar: %w", err)
		}
		s := p.NewScalar(new(big.Int).SetBytes(buf))
		if !s.IsZero() {
			return s, nil
		}
	}
}

// ============================================================================
//                              哈希族
// ============================================================================

func (p *parameters) HashRaw(inputs []Field) (Field, error) {
	h := p.ops.newHash()
	for _, in := range inputs {
		if _, err := h.Write(in[:]); err != nil {
			return Field{}, fmt.Errorf("%w: %v", ErrNonCanonicalField, err)
		}
	}
	var out Field
	copy(out[:], h.Sum(nil))
	return out, nil
}

func (p *parameters) HashFields(inputs []Field) (Field, error) {
	return p.HashRaw(append(HashFieldsPrefix(len(inputs)), inputs...))
}

// HashFieldsPrefix HashFields 在原始哈希前写入的域分离前缀（电路内重算时使用）
func HashFieldsPrefix(n int) []Field {
	return []Field{domainHashFields, FieldFromUint64(uint64(n))}
}

func (p *parameters) HashBits(bits []bool) (Field, error) {
	preimage := []Field{domainHashBits, FieldFromUint64(uint64(len(bits)))}
	return p.HashRaw(append(preimage, PackBits(bits)...))
}

func (p *parameters) CommitBits(bits []bool, r Scalar) (Field, error) {
	preimage := []Field{domainCommitBits, FieldFromUint64(uint64(len(bits)))}
	preimage = append(preimage, PackBits(bits)...)
	return p.HashRaw(append(preimage, r.ToField()))
}

func (p *parameters) HashToScalar(inputs []Field) (Scalar, error) {
	h, err := p.HashRaw(append([]Field{domainHashToScalar, FieldFromUint64(uint64(len(inputs)))}, inputs...))
	if err != nil {
		return Scalar{}, err
	}
	return p.NewScalar(h.BigInt()), nil
}

// ============================================================================
//                              群运算
// ============================================================================

func (p *parameters) IsOnCurve(g Group) bool {
	return p.ops.isOnCurve(g)
}

func (p *parameters) GScalarMultiply(s Scalar) Group {
	g, err := p.ops.scalarMul(p.ops.generator, s.BigInt())
	if err != nil {
		// 生成元必然在曲线上
		panic(err)
	}
	return g
}

func (p *parameters) ScalarMultiply(g Group, s Scalar) (Group, error) {
	return p.ops.scalarMul(g, s.BigInt())
}

func (p *parameters) AddPoints(a, b Group) (Group, error) {
	return p.ops.addPoints(a, b)
}

// ============================================================================
//                              注册表
// ============================================================================

var registry = map[uint16]Network{}

func register(n Network) Network {
	registry[n.ID()] = n
	return n
}

// ByID 按编号查找网络
func ByID(id uint16) (Network, error) {
	if n, ok := registry[id]; ok {
		return n, nil
	}
	return nil, fmt.Errorf("%w: id=%d", ErrUnknownNetwork, id)
}

// ByName 按名称查找网络
func ByName(name string) (Network, error) {
	for _, n := range registry {
		if n.Name() == name {
			return n, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownNetwork, name)
}
