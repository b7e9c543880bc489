package program

import (
	"fmt"
	"strings"

	"github.com/weisyn/zkvm/internal/core/vm/console"
)

// OperandKind 操作数种类
type OperandKind uint8

const (
	// OperandRegister 寄存器 rN
	OperandRegister OperandKind = iota
	// OperandMember 记录成员 rN.name
	OperandMember
	// OperandLiteral 字面量常量
	OperandLiteral
)

// Operand 指令操作数
type Operand struct {
	Kind     OperandKind
	Register uint64
	Member   console.Identifier
	Literal  console.Plaintext
}

// Reg 寄存器操作数
func Reg(r uint64) Operand { return Operand{Kind: OperandRegister, Register: r} }

// Member 记录成员操作数，"owner" 指向记录所有者
func Member(r uint64, name string) Operand {
	return Operand{Kind: OperandMember, Register: r, Member: console.MustIdentifier(name)}
}

// Lit 字面量操作数
func Lit(p console.Plaintext) Operand { return Operand{Kind: OperandLiteral, Literal: p} }

func (o Operand) String() string {
	switch o.Kind {
	case OperandRegister:
		return fmt.Sprintf("r%d", o.Register)
	case OperandMember:
		return fmt.Sprintf("r%d.%s", o.Register, o.Member)
	default:
		return o.Literal.String()
	}
}

// Opcode 指令操作码
type Opcode uint8

const (
	OpAdd Opcode = iota
	OpSub
	OpMul
	OpCall
	OpCast
)

func (op Opcode) String() string {
	switch op {
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpCall:
		return "call"
	case OpCast:
		return "cast"
	default:
		return fmt.Sprintf("op(%d)", uint8(op))
	}
}

// Instruction 单条指令
type Instruction struct {
	Op           Opcode
	Operands     []Operand
	Destinations []uint64
	// Target call 的闭包名或 cast 的记录类型名
	Target console.Identifier
}

// Add add a b into dst
func Add(a, b Operand, dst uint64) Instruction {
	return Instruction{Op: OpAdd, Operands: []Operand{a, b}, Destinations: []uint64{dst}}
}

// Sub sub a b into dst
func Sub(a, b Operand, dst uint64) Instruction {
	return Instruction{Op: OpSub, Operands: []Operand{a, b}, Destinations: []uint64{dst}}
}

// Mul mul a b into dst
func Mul(a, b Operand, dst uint64) Instruction {
	return Instruction{Op: OpMul, Operands: []Operand{a, b}, Destinations: []uint64{dst}}
}

// Call call closure args... into dsts...
func Call(closure string, args []Operand, dsts ...uint64) Instruction {
	return Instruction{Op: OpCall, Operands: args, Destinations: dsts, Target: console.MustIdentifier(closure)}
}

// Cast cast owner entries... into dst as record
func Cast(record string, args []Operand, dst uint64) Instruction {
	return Instruction{Op: OpCast, Operands: args, Destinations: []uint64{dst}, Target: console.MustIdentifier(record)}
}

func (i Instruction) String() string {
	ops := make([]string, len(i.Operands))
	for j, o := range i.Operands {
		ops[j] = o.String()
	}
	dsts := make([]string, len(i.Destinations))
	for j, d := range i.Destinations {
		dsts[j] = fmt.Sprintf("r%d", d)
	}
	s := i.Op.String()
	if i.Op == OpCall {
		s += " " + string(i.Target)
	}
	s += " " + strings.Join(ops, " ") + " into " + strings.Join(dsts, " ")
	if i.Op == OpCast {
		s += " as " + string(i.Target)
	}
	return s
}
