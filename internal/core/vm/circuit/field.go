package circuit

import (
	"fmt"
	"math/big"

	"github.com/weisyn/zkvm/internal/core/vm/network"
)

// Field 电路域元素变量
type Field struct {
	env   *Environment
	index int
}

// Value 当前赋值
func (f Field) Value() network.Field { return f.env.values[f.index] }

// Mode 可见性
func (f Field) Mode() Mode { return f.env.modes[f.index] }

// IsConstant 是否为常量
func (f Field) IsConstant() bool { return f.Mode() == Constant }

// Env 所属上下文
func (f Field) Env() *Environment { return f.env }

func bothConstant(a, b Field) bool { return a.IsConstant() && b.IsConstant() }

// Add a + b
func (f Field) Add(g Field) Field {
	e := f.env
	v := e.net.Add(f.Value(), g.Value())
	if bothConstant(f, g) {
		return e.Constant(v)
	}
	out := e.alloc(Private, v)
	e.enforce("add", lcOf(f).plus(lcOf(g), 1), lcConst(1), lcOf(out))
	return out
}

// Sub a - b
func (f Field) Sub(g Field) Field {
	e := f.env
	v := e.net.Sub(f.Value(), g.Value())
	if bothConstant(f, g) {
		return e.Constant(v)
	}
	out := e.alloc(Private, v)
	e.enforce("sub", lcOf(f).plus(lcOf(g), -1), lcConst(1), lcOf(out))
	return out
}

// Mul a * b
func (f Field) Mul(g Field) Field {
	e := f.env
	v := e.net.Mul(f.Value(), g.Value())
	if bothConstant(f, g) {
		return e.Constant(v)
	}
	out := e.alloc(Private, v)
	e.enforce("mul", lcOf(f), lcOf(g), lcOf(out))
	return out
}

// IsEqual a == b
func (f Field) IsEqual(g Field) Boolean {
	e := f.env
	out := e.gadget("is_equal", 2, []Field{f, g}, 1, func(in []network.Field) ([]network.Field, error) {
		return []network.Field{network.FieldFromBool(in[0] == in[1])}, nil
	})[0]
	if !out.IsConstant() {
		e.enforceBoolean(out)
	}
	return Boolean{out}
}

// ToBits n 位小端分解，同时约束取值小于 2^n
func (f Field) ToBits(n int) []Boolean {
	e := f.env
	bits := f.Value().Bits(n)
	out := make([]Boolean, n)
	if f.IsConstant() {
		for i, b := range bits {
			out[i] = Boolean{e.Constant(network.FieldFromBool(b))}
		}
		// 常量超出位宽时直接判定失败
		if recompose(bits).Cmp(f.Value().BigInt()) != 0 {
			e.fail(fmt.Errorf("constant %s does not fit in %d bits", f.Value(), n))
		}
		return out
	}
	sum := lc{constant: new(big.Int)}
	coeff := big.NewInt(1)
	for i, b := range bits {
		bit := e.alloc(Private, network.FieldFromBool(b))
		e.enforceBoolean(bit)
		out[i] = Boolean{bit}
		sum.terms = append(sum.terms, term{coeff: new(big.Int).Set(coeff), index: bit.index})
		coeff.Lsh(coeff, 1)
	}
	e.enforce("to_bits", sum, lcConst(1), lcOf(f))
	return out
}

func recompose(bits []bool) *big.Int {
	v := new(big.Int)
	for i := len(bits) - 1; i >= 0; i-- {
		v.Lsh(v, 1)
		if bits[i] {
			v.SetBit(v, 0, 1)
		}
	}
	return v
}

// AssertEq 约束 a == b
func (e *Environment) AssertEq(a, b Field) {
	e.assertEq("assert_eq", a, b)
}

func (e *Environment) assertEq(label string, a, b Field) {
	e.enforce(label, lcOf(a).plus(lcOf(b), -1), lcConst(1), lcConst(0))
}

// AssertEqLabeled 带诊断标签的相等约束
func (e *Environment) AssertEqLabeled(label string, a, b Field) {
	e.assertEq(label, a, b)
}

// ============================================================================
//                              布尔变量
// ============================================================================

// Boolean 取值为 0/1 的电路变量
type Boolean struct {
	Field
}

// NewBoolean 注入布尔变量
func (e *Environment) NewBoolean(mode Mode, b bool) Boolean {
	f := e.alloc(mode, network.FieldFromBool(b))
	if mode != Constant {
		e.enforceBoolean(f)
	}
	return Boolean{f}
}

// enforceBoolean b * (b - 1) = 0
func (e *Environment) enforceBoolean(f Field) {
	e.enforce("boolean", lcOf(f), lcOf(f).plus(lcConst(1), -1), lcConst(0))
}

// Bool 当前赋值
func (b Boolean) Bool() bool { return !b.Value().IsZero() }

// And a ∧ b
func (b Boolean) And(o Boolean) Boolean {
	return Boolean{b.Mul(o.Field)}
}

// Not ¬b
func (b Boolean) Not() Boolean {
	return Boolean{b.env.One().Sub(b.Field)}
}

// Assert 约束 b == 1
func (e *Environment) Assert(b Boolean) {
	e.enforce("assert", lcOf(b.Field), lcConst(1), lcConst(1))
}

// ============================================================================
//                              标量与群元素
// ============================================================================

// Scalar 嵌入曲线标量变量
type Scalar struct {
	Field
}

// NewScalar 注入标量
func (e *Environment) NewScalar(mode Mode, s network.Scalar) Scalar {
	return Scalar{e.alloc(mode, s.ToField())}
}

// ScalarValue 当前赋值
func (s Scalar) ScalarValue() network.Scalar { return network.Scalar(s.Value()) }

// Group 嵌入曲线仿射点变量
type Group struct {
	X Field
	Y Field
}

// NewGroup 注入曲线点
func (e *Environment) NewGroup(mode Mode, g network.Group) Group {
	return Group{X: e.alloc(mode, g.X), Y: e.alloc(mode, g.Y)}
}

// Value 当前赋值
func (g Group) Value() network.Group { return network.Group{X: g.X.Value(), Y: g.Y.Value()} }

// AssertEqGroup 约束两点相等
func (e *Environment) AssertEqGroup(label string, a, b Group) {
	e.assertEq(label+".x", a.X, b.X)
	e.assertEq(label+".y", a.Y, b.Y)
}

// IsEqual 两点是否相等
func (g Group) IsEqual(o Group) Boolean {
	return g.X.IsEqual(o.X).And(g.Y.IsEqual(o.Y))
}
