package program

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/weisyn/zkvm/internal/core/vm/console"
	"github.com/weisyn/zkvm/internal/core/vm/network"
)

// ErrArity 输入个数与声明不符
var ErrArity = errors.New("arity mismatch")

// Stack 程序的默认求值器
//
// Stack 只读持有 Program，可在并发调用间共享。
type Stack struct {
	net     network.Network
	program *Program
}

// NewStack 为程序创建求值器
func NewStack(net network.Network, p *Program) *Stack {
	return &Stack{net: net, program: p}
}

// Program 所属程序
func (s *Stack) Program() *Program { return s.program }

// Network 网络参数
func (s *Stack) Network() network.Network { return s.net }

// InstructionCount 函数执行的指令数（含被调用闭包）
func (s *Stack) InstructionCount(fn *Function) int {
	count := 0
	var walk func([]Instruction)
	walk = func(instructions []Instruction) {
		for _, inst := range instructions {
			count++
			if inst.Op == OpCall {
				if c, err := s.program.GetClosure(inst.Target); err == nil {
					walk(c.Instructions)
				}
			}
		}
	}
	walk(fn.Instructions)
	return count
}

// ============================================================================
//                              明文求值
// ============================================================================

type frame map[uint64]console.Value

// EvaluateFunction 明文求值函数
func (s *Stack) EvaluateFunction(fn *Function, inputs []console.Value) ([]console.Value, error) {
	if len(inputs) != len(fn.Inputs) {
		return nil, fmt.Errorf("%w: %s expects %d inputs, got %d", ErrArity, fn.Name, len(fn.Inputs), len(inputs))
	}
	regs := frame{}
	for i, in := range fn.Inputs {
		if err := s.checkValue(in.Type, inputs[i]); err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		regs[in.Register] = inputs[i]
	}
	if err := s.evaluateInstructions(fn.Instructions, regs); err != nil {
		return nil, fmt.Errorf("function %s: %w", fn.Name, err)
	}
	outputs := make([]console.Value, len(fn.Outputs))
	for i, out := range fn.Outputs {
		v, err := regs.load(out.Operand)
		if err != nil {
			return nil, err
		}
		if err := s.checkValue(out.Type, v); err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		outputs[i] = v
	}
	return outputs, nil
}

func (regs frame) load(o Operand) (console.Value, error) {
	switch o.Kind {
	case OperandLiteral:
		return o.Literal, nil
	case OperandRegister:
		v, ok := regs[o.Register]
		if !ok {
			return nil, fmt.Errorf("%w: r%d", ErrRegisterNotFound, o.Register)
		}
		return v, nil
	case OperandMember:
		v, ok := regs[o.Register]
		if !ok {
			return nil, fmt.Errorf("%w: r%d", ErrRegisterNotFound, o.Register)
		}
		record, isRecord := v.(*console.Record)
		if !isRecord {
			return nil, console.WrapTypeError(o.String(), "record", "plaintext")
		}
		if o.Member == "owner" {
			return console.NewAddress(record.Owner), nil
		}
		entry, found := record.Find(o.Member)
		if !found {
			return nil, fmt.Errorf("%w: %s has no member %s", console.ErrTypeMismatch, o, o.Member)
		}
		return entry.Value, nil
	default:
		return nil, fmt.Errorf("%w: operand kind %d", ErrInvalidProgram, o.Kind)
	}
}

func (regs frame) loadPlaintext(o Operand) (console.Plaintext, error) {
	v, err := regs.load(o)
	if err != nil {
		return console.Plaintext{}, err
	}
	p, ok := v.(console.Plaintext)
	if !ok {
		return console.Plaintext{}, console.WrapTypeError(o.String(), "plaintext", "record")
	}
	return p, nil
}

func (s *Stack) evaluateInstructions(instructions []Instruction, regs frame) error {
	for _, inst := range instructions {
		if err := s.evaluateInstruction(inst, regs); err != nil {
			return fmt.Errorf("'%s': %w", inst, err)
		}
	}
	return nil
}

func (s *Stack) evaluateInstruction(inst Instruction, regs frame) error {
	switch inst.Op {
	case OpAdd, OpSub, OpMul:
		if len(inst.Operands) != 2 || len(inst.Destinations) != 1 {
			return fmt.Errorf("%w: %s takes two operands and one destination", ErrInvalidProgram, inst.Op)
		}
		a, err := regs.loadPlaintext(inst.Operands[0])
		if err != nil {
			return err
		}
		b, err := regs.loadPlaintext(inst.Operands[1])
		if err != nil {
			return err
		}
		out, err := s.evaluateArithmetic(inst.Op, a, b)
		if err != nil {
			return err
		}
		regs[inst.Destinations[0]] = out
		return nil

	case OpCall:
		closure, err := s.program.GetClosure(inst.Target)
		if err != nil {
			return err
		}
		args := make([]console.Plaintext, len(inst.Operands))
		for i, o := range inst.Operands {
			if args[i], err = regs.loadPlaintext(o); err != nil {
				return err
			}
		}
		outs, err := s.evaluateClosure(closure, args)
		if err != nil {
			return err
		}
		if len(outs) != len(inst.Destinations) {
			return fmt.Errorf("%w: closure %s returns %d values into %d registers", ErrInvalidProgram, closure.Name, len(outs), len(inst.Destinations))
		}
		for i, dst := range inst.Destinations {
			regs[dst] = outs[i]
		}
		return nil

	case OpCast:
		rt, err := s.program.GetRecord(inst.Target)
		if err != nil {
			return err
		}
		if len(inst.Operands) != 1+len(rt.Entries) || len(inst.Destinations) != 1 {
			return fmt.Errorf("%w: cast into %s expects %d operands", ErrInvalidProgram, rt.Name, 1+len(rt.Entries))
		}
		owner, err := regs.loadPlaintext(inst.Operands[0])
		if err != nil {
			return err
		}
		if owner.Type != console.LiteralAddress {
			return console.WrapTypeError("record owner", console.LiteralAddress, owner.Type)
		}
		record := &console.Record{Owner: owner.Address(), OwnerMode: rt.OwnerMode, Nonce: network.Identity()}
		for i, et := range rt.Entries {
			v, err := regs.loadPlaintext(inst.Operands[1+i])
			if err != nil {
				return err
			}
			if v.Type != et.Type {
				return console.WrapTypeError(fmt.Sprintf("entry %s", et.Name), et.Type, v.Type)
			}
			record.Entries = append(record.Entries, console.Entry{Name: et.Name, Mode: et.Mode, Value: v})
		}
		regs[inst.Destinations[0]] = record
		return nil

	default:
		return fmt.Errorf("%w: unknown opcode %d", ErrInvalidProgram, inst.Op)
	}
}

func (s *Stack) evaluateClosure(c *Closure, args []console.Plaintext) ([]console.Plaintext, error) {
	if len(args) != len(c.Inputs) {
		return nil, fmt.Errorf("%w: closure %s expects %d inputs, got %d", ErrArity, c.Name, len(c.Inputs), len(args))
	}
	regs := frame{}
	for i, in := range c.Inputs {
		if args[i].Type != in.Type {
			return nil, console.WrapTypeError(fmt.Sprintf("closure %s input %d", c.Name, i), in.Type, args[i].Type)
		}
		regs[in.Register] = args[i]
	}
	if err := s.evaluateInstructions(c.Instructions, regs); err != nil {
		return nil, fmt.Errorf("closure %s: %w", c.Name, err)
	}
	outs := make([]console.Plaintext, len(c.Outputs))
	for i, out := range c.Outputs {
		v, err := regs.loadPlaintext(out.Operand)
		if err != nil {
			return nil, err
		}
		if v.Type != out.Type {
			return nil, console.WrapTypeError(fmt.Sprintf("closure %s output %d", c.Name, i), out.Type, v.Type)
		}
		outs[i] = v
	}
	return outs, nil
}

func (s *Stack) evaluateArithmetic(op Opcode, a, b console.Plaintext) (console.Plaintext, error) {
	if a.Type != b.Type {
		return console.Plaintext{}, console.WrapTypeError(op.String()+" operands", a.Type, b.Type)
	}
	switch a.Type {
	case console.LiteralField:
		x, y := a.Field(), b.Field()
		switch op {
		case OpAdd:
			return console.NewFieldLiteral(s.net.Add(x, y)), nil
		case OpSub:
			return console.NewFieldLiteral(s.net.Sub(x, y)), nil
		default:
			return console.NewFieldLiteral(s.net.Mul(x, y)), nil
		}
	case console.LiteralU64:
		x, _ := a.Uint64()
		y, _ := b.Uint64()
		switch op {
		case OpAdd:
			sum, carry := bits.Add64(x, y, 0)
			if carry != 0 {
				return console.Plaintext{}, fmt.Errorf("%w: u64 overflow in %d + %d", ErrArithmetic, x, y)
			}
			return console.NewU64(sum), nil
		case OpSub:
			diff, borrow := bits.Sub64(x, y, 0)
			if borrow != 0 {
				return console.Plaintext{}, fmt.Errorf("%w: u64 underflow in %d - %d", ErrArithmetic, x, y)
			}
			return console.NewU64(diff), nil
		default:
			hi, lo := bits.Mul64(x, y)
			if hi != 0 {
				return console.Plaintext{}, fmt.Errorf("%w: u64 overflow in %d * %d", ErrArithmetic, x, y)
			}
			return console.NewU64(lo), nil
		}
	default:
		return console.Plaintext{}, console.WrapTypeError(op.String()+" operand", "field or u64", a.Type)
	}
}

// checkValue 校验值与声明类型，记录类型还需匹配条目结构
func (s *Stack) checkValue(t console.ValueType, v console.Value) error {
	if err := t.CheckValue(v); err != nil {
		return err
	}
	if t.Kind != console.ValueRecord {
		return nil
	}
	rt, err := s.program.GetRecord(t.Record)
	if err != nil {
		return err
	}
	record := v.(*console.Record)
	if record.OwnerMode != rt.OwnerMode || len(record.Entries) != len(rt.Entries) {
		return console.WrapTypeError("record shape", rt.Name, "mismatched record")
	}
	for i, et := range rt.Entries {
		e := record.Entries[i]
		if e.Name != et.Name || e.Mode != et.Mode || e.Value.Type != et.Type {
			return console.WrapTypeError(fmt.Sprintf("record %s entry %d", rt.Name, i), et.Name, e.Name)
		}
	}
	return nil
}
