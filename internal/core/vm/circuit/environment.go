// Package circuit 提供按调用隔离的电路构造上下文
//
// 每次 Execute 创建一个新的 Environment，独占其变量与约束，调用结束即丢弃。
// 约束分两类：R1CS 线性组合约束 a*b=c，以及对原生函数重新求值的 gadget 约束。
package circuit

import (
	"fmt"
	"math/big"

	"github.com/weisyn/zkvm/internal/core/vm/network"
)

// Mode 电路变量可见性
type Mode uint8

const (
	// Constant 编译期常量
	Constant Mode = iota
	// Public 验证者提供的公开输入
	Public
	// Private 证明者私有见证
	Private
)

func (m Mode) String() string {
	switch m {
	case Constant:
		return "constant"
	case Public:
		return "public"
	case Private:
		return "private"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// Count 约束系统规模统计（仅用于诊断）
type Count struct {
	Constant    uint64
	Public      uint64
	Private     uint64
	Constraints uint64
	Gates       uint64
}

// Sub 两次统计的差值
func (c Count) Sub(o Count) Count {
	return Count{
		Constant:    c.Constant - o.Constant,
		Public:      c.Public - o.Public,
		Private:     c.Private - o.Private,
		Constraints: c.Constraints - o.Constraints,
		Gates:       c.Gates - o.Gates,
	}
}

func (c Count) String() string {
	return fmt.Sprintf("constant=%d public=%d private=%d constraints=%d gates=%d",
		c.Constant, c.Public, c.Private, c.Constraints, c.Gates)
}

// Environment 电路构造上下文
type Environment struct {
	net         network.Network
	values      []network.Field
	modes       []Mode
	constraints []constraint
	gates       uint64
	err         error
}

// NewEnvironment 创建空的电路上下文
func NewEnvironment(net network.Network) *Environment {
	return &Environment{net: net}
}

// Network 返回上下文绑定的网络参数
func (e *Environment) Network() network.Network { return e.net }

// alloc 分配变量
func (e *Environment) alloc(mode Mode, v network.Field) Field {
	e.values = append(e.values, v)
	e.modes = append(e.modes, mode)
	return Field{env: e, index: len(e.values) - 1}
}

// NewField 以指定可见性注入域元素
func (e *Environment) NewField(mode Mode, v network.Field) Field {
	return e.alloc(mode, v)
}

// Constant 注入常量
func (e *Environment) Constant(v network.Field) Field {
	return e.alloc(Constant, v)
}

// Zero 常量 0
func (e *Environment) Zero() Field { return e.Constant(network.Field{}) }

// One 常量 1
func (e *Environment) One() Field { return e.Constant(network.FieldFromUint64(1)) }

// fail 记录见证生成阶段的首个错误
func (e *Environment) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

// Err 见证生成阶段的首个错误
func (e *Environment) Err() error { return e.err }

// Count 当前规模统计
func (e *Environment) Count() Count {
	var c Count
	for _, m := range e.modes {
		switch m {
		case Constant:
			c.Constant++
		case Public:
			c.Public++
		case Private:
			c.Private++
		}
	}
	c.Constraints = uint64(len(e.constraints))
	c.Gates = e.gates
	return c
}

// IsSatisfied 所有约束在当前赋值下是否成立
func (e *Environment) IsSatisfied() bool {
	if e.err != nil {
		return false
	}
	for _, c := range e.constraints {
		if !c.satisfied(e) {
			return false
		}
	}
	return true
}

// Unsatisfied 不成立约束的名称（诊断用）
func (e *Environment) Unsatisfied() []string {
	var names []string
	for _, c := range e.constraints {
		if !c.satisfied(e) {
			names = append(names, c.name())
		}
	}
	return names
}

// Assignment 导出证明后端使用的赋值
func (e *Environment) Assignment() *Assignment {
	a := &Assignment{
		Network:        e.net,
		NumConstraints: uint64(len(e.constraints)),
		env:            e,
	}
	for i, m := range e.modes {
		switch m {
		case Public:
			a.PublicInputs = append(a.PublicInputs, e.values[i])
		case Private:
			a.PrivateInputs = append(a.PrivateInputs, e.values[i])
		}
	}
	return a
}

// Assignment 一次电路执行的赋值快照
type Assignment struct {
	Network network.Network
	// PublicInputs 按分配顺序排列的公开输入
	PublicInputs []network.Field
	// PrivateInputs 按分配顺序排列的私有见证
	PrivateInputs  []network.Field
	NumConstraints uint64

	env *Environment
}

// IsSatisfied 重新检查全部约束
func (a *Assignment) IsSatisfied() bool {
	if a == nil || a.env == nil {
		return false
	}
	return a.env.IsSatisfied()
}

// Unsatisfied 不成立约束的名称
func (a *Assignment) Unsatisfied() []string {
	if a == nil || a.env == nil {
		return nil
	}
	return a.env.Unsatisfied()
}

// ============================================================================
//                              约束表示
// ============================================================================

type constraint interface {
	name() string
	satisfied(e *Environment) bool
}

type term struct {
	coeff *big.Int
	index int
}

// lc 线性组合 constant + Σ coeff·x
type lc struct {
	terms    []term
	constant *big.Int
}

func lcOf(f Field) lc {
	return lc{terms: []term{{coeff: big.NewInt(1), index: f.index}}, constant: new(big.Int)}
}

func lcConst(v int64) lc {
	return lc{constant: big.NewInt(v)}
}

func (l lc) plus(o lc, sign int64) lc {
	out := lc{constant: new(big.Int).Set(l.constant)}
	out.terms = append(out.terms, l.terms...)
	for _, t := range o.terms {
		out.terms = append(out.terms, term{coeff: new(big.Int).Mul(t.coeff, big.NewInt(sign)), index: t.index})
	}
	out.constant.Add(out.constant, new(big.Int).Mul(o.constant, big.NewInt(sign)))
	return out
}

func (l lc) eval(e *Environment) *big.Int {
	sum := new(big.Int).Set(l.constant)
	for _, t := range l.terms {
		sum.Add(sum, new(big.Int).Mul(t.coeff, e.values[t.index].BigInt()))
	}
	return sum.Mod(sum, e.net.FieldModulus())
}

// r1cs a*b = c
type r1cs struct {
	label   string
	a, b, c lc
}

func (c *r1cs) name() string { return c.label }

func (c *r1cs) satisfied(e *Environment) bool {
	lhs := new(big.Int).Mul(c.a.eval(e), c.b.eval(e))
	lhs.Mod(lhs, e.net.FieldModulus())
	return lhs.Cmp(c.c.eval(e)) == 0
}

func (e *Environment) enforce(label string, a, b, c lc) {
	e.constraints = append(e.constraints, &r1cs{label: label, a: a, b: b, c: c})
	e.gates++
}

// gadget 原生函数求值约束：outputs == eval(inputs)
type gadget struct {
	label   string
	inputs  []int
	outputs []int
	eval    func([]network.Field) ([]network.Field, error)
}

func (g *gadget) name() string { return g.label }

func (g *gadget) satisfied(e *Environment) bool {
	in := make([]network.Field, len(g.inputs))
	for i, idx := range g.inputs {
		in[i] = e.values[idx]
	}
	out, err := g.eval(in)
	if err != nil || len(out) != len(g.outputs) {
		return false
	}
	for i, idx := range g.outputs {
		if e.values[idx] != out[i] {
			return false
		}
	}
	return true
}

// gadget 注册原生求值约束并分配输出变量
//
// 全部输入为常量时输出也为常量，不产生约束。
func (e *Environment) gadget(label string, cost uint64, inputs []Field, numOutputs int, eval func([]network.Field) ([]network.Field, error)) []Field {
	in := make([]network.Field, len(inputs))
	allConstant := true
	for i, f := range inputs {
		in[i] = f.Value()
		if f.Mode() != Constant {
			allConstant = false
		}
	}
	out, err := eval(in)
	if err == nil && len(out) != numOutputs {
		err = fmt.Errorf("%s: expected %d outputs, got %d", label, numOutputs, len(out))
	}
	if err != nil {
		e.fail(fmt.Errorf("%s: %w", label, err))
		out = make([]network.Field, numOutputs)
	}

	outputs := make([]Field, numOutputs)
	if allConstant {
		for i := range outputs {
			outputs[i] = e.Constant(out[i])
		}
		return outputs
	}
	g := &gadget{label: label, eval: eval}
	for _, f := range inputs {
		g.inputs = append(g.inputs, f.index)
	}
	for i := range outputs {
		outputs[i] = e.alloc(Private, out[i])
		g.outputs = append(g.outputs, outputs[i].index)
	}
	e.constraints = append(e.constraints, g)
	e.gates += cost
	return outputs
}
