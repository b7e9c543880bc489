package program

import (
	"fmt"

	"github.com/weisyn/zkvm/internal/core/vm/circuit"
	"github.com/weisyn/zkvm/internal/core/vm/console"
	"github.com/weisyn/zkvm/internal/core/vm/network"
)

// ============================================================================
//                              电路执行
// ============================================================================

type circuitFrame map[uint64]circuit.Value

// ExecuteFunction 在电路环境中执行函数
//
// 指令语义与 EvaluateFunction 一致；u64 运算结果通过 64 位分解约束范围。
func (s *Stack) ExecuteFunction(env *circuit.Environment, fn *Function, inputs []circuit.Value) ([]circuit.Value, error) {
	if len(inputs) != len(fn.Inputs) {
		return nil, fmt.Errorf("%w: %s expects %d inputs, got %d", ErrArity, fn.Name, len(fn.Inputs), len(inputs))
	}
	regs := circuitFrame{}
	for i, in := range fn.Inputs {
		if err := s.checkCircuitValue(in.Type, inputs[i]); err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		regs[in.Register] = inputs[i]
	}
	if err := s.executeInstructions(env, fn.Instructions, regs); err != nil {
		return nil, fmt.Errorf("function %s: %w", fn.Name, err)
	}
	outputs := make([]circuit.Value, len(fn.Outputs))
	for i, out := range fn.Outputs {
		v, err := regs.load(env, out.Operand)
		if err != nil {
			return nil, err
		}
		if err := s.checkCircuitValue(out.Type, v); err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		outputs[i] = v
	}
	return outputs, nil
}

func (regs circuitFrame) load(env *circuit.Environment, o Operand) (circuit.Value, error) {
	switch o.Kind {
	case OperandLiteral:
		return env.InjectPlaintext(circuit.Constant, o.Literal), nil
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
		record, isRecord := v.(*circuit.Record)
		if !isRecord {
			return nil, console.WrapTypeError(o.String(), "record", "plaintext")
		}
		if o.Member == "owner" {
			return record.OwnerPlaintext(), nil
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

func (regs circuitFrame) loadPlaintext(env *circuit.Environment, o Operand) (circuit.Plaintext, error) {
	v, err := regs.load(env, o)
	if err != nil {
		return circuit.Plaintext{}, err
	}
	p, ok := v.(circuit.Plaintext)
	if !ok {
		return circuit.Plaintext{}, console.WrapTypeError(o.String(), "plaintext", "record")
	}
	return p, nil
}

func (s *Stack) executeInstructions(env *circuit.Environment, instructions []Instruction, regs circuitFrame) error {
	for _, inst := range instructions {
		if err := s.executeInstruction(env, inst, regs); err != nil {
			return fmt.Errorf("'%s': %w", inst, err)
		}
	}
	return nil
}

func (s *Stack) executeInstruction(env *circuit.Environment, inst Instruction, regs circuitFrame) error {
	switch inst.Op {
	case OpAdd, OpSub, OpMul:
		if len(inst.Operands) != 2 || len(inst.Destinations) != 1 {
			return fmt.Errorf("%w: %s takes two operands and one destination", ErrInvalidProgram, inst.Op)
		}
		a, err := regs.loadPlaintext(env, inst.Operands[0])
		if err != nil {
			return err
		}
		b, err := regs.loadPlaintext(env, inst.Operands[1])
		if err != nil {
			return err
		}
		out, err := executeArithmetic(inst.Op, a, b)
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
		args := make([]circuit.Plaintext, len(inst.Operands))
		for i, o := range inst.Operands {
			if args[i], err = regs.loadPlaintext(env, o); err != nil {
				return err
			}
		}
		outs, err := s.executeClosure(env, closure, args)
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
		owner, err := regs.loadPlaintext(env, inst.Operands[0])
		if err != nil {
			return err
		}
		if owner.Type != console.LiteralAddress {
			return console.WrapTypeError("record owner", console.LiteralAddress, owner.Type)
		}
		identity := network.Identity()
		record := &circuit.Record{
			Owner:     circuit.Group{X: owner.Fields[0], Y: owner.Fields[1]},
			OwnerMode: rt.OwnerMode,
			Nonce:     circuit.Group{X: env.Constant(identity.X), Y: env.Constant(identity.Y)},
		}
		for i, et := range rt.Entries {
			v, err := regs.loadPlaintext(env, inst.Operands[1+i])
			if err != nil {
				return err
			}
			if v.Type != et.Type {
				return console.WrapTypeError(fmt.Sprintf("entry %s", et.Name), et.Type, v.Type)
			}
			record.Entries = append(record.Entries, circuit.Entry{Name: et.Name, Mode: et.Mode, Value: v})
		}
		regs[inst.Destinations[0]] = record
		return nil

	default:
		return fmt.Errorf("%w: unknown opcode %d", ErrInvalidProgram, inst.Op)
	}
}

func (s *Stack) executeClosure(env *circuit.Environment, c *Closure, args []circuit.Plaintext) ([]circuit.Plaintext, error) {
	if len(args) != len(c.Inputs) {
		return nil, fmt.Errorf("%w: closure %s expects %d inputs, got %d", ErrArity, c.Name, len(c.Inputs), len(args))
	}
	regs := circuitFrame{}
	for i, in := range c.Inputs {
		if args[i].Type != in.Type {
			return nil, console.WrapTypeError(fmt.Sprintf("closure %s input %d", c.Name, i), in.Type, args[i].Type)
		}
		regs[in.Register] = args[i]
	}
	if err := s.executeInstructions(env, c.Instructions, regs); err != nil {
		return nil, fmt.Errorf("closure %s: %w", c.Name, err)
	}
	outs := make([]circuit.Plaintext, len(c.Outputs))
	for i, out := range c.Outputs {
		v, err := regs.loadPlaintext(env, out.Operand)
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

func executeArithmetic(op Opcode, a, b circuit.Plaintext) (circuit.Plaintext, error) {
	if a.Type != b.Type {
		return circuit.Plaintext{}, console.WrapTypeError(op.String()+" operands", a.Type, b.Type)
	}
	if a.Type != console.LiteralField && a.Type != console.LiteralU64 {
		return circuit.Plaintext{}, console.WrapTypeError(op.String()+" operand", "field or u64", a.Type)
	}
	x, y := a.Fields[0], b.Fields[0]
	var r circuit.Field
	switch op {
	case OpAdd:
		r = x.Add(y)
	case OpSub:
		r = x.Sub(y)
	default:
		r = x.Mul(y)
	}
	if a.Type == console.LiteralU64 {
		// 溢出或下溢时无法分解为 64 位
		r.ToBits(64)
	}
	return circuit.Plaintext{Type: a.Type, Fields: []circuit.Field{r}}, nil
}

func (s *Stack) checkCircuitValue(t console.ValueType, v circuit.Value) error {
	switch val := v.(type) {
	case circuit.Plaintext:
		if t.IsRecord() {
			return console.WrapTypeError("value", t, "plaintext")
		}
		if val.Type != t.Literal {
			return console.WrapTypeError("value", t.Literal, val.Type)
		}
		return nil
	case *circuit.Record:
		if !t.IsRecord() {
			return console.WrapTypeError("value", t, "record")
		}
		if t.Kind == console.ValueExternalRecord {
			return nil
		}
		rt, err := s.program.GetRecord(t.Record)
		if err != nil {
			return err
		}
		if val.OwnerMode != rt.OwnerMode || len(val.Entries) != len(rt.Entries) {
			return console.WrapTypeError("record shape", rt.Name, "mismatched record")
		}
		for i, et := range rt.Entries {
			e := val.Entries[i]
			if e.Name != et.Name || e.Mode != et.Mode || e.Value.Type != et.Type {
				return console.WrapTypeError(fmt.Sprintf("record %s entry %d", rt.Name, i), et.Name, e.Name)
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: unexpected value %T", console.ErrTypeMismatch, v)
	}
}
