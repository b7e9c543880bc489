// Package program 定义程序结构并提供默认 Stack 实现
//
// 程序由记录类型、闭包与函数组成，通过构建器 API 声明，不包含文本解析。
// Stack 负责逐条指令的明文求值与电路执行。
package program

import (
	"errors"
	"fmt"

	"github.com/weisyn/zkvm/internal/core/vm/console"
)

// 程序层错误定义
var (
	// ErrFunctionNotFound 函数不存在
	ErrFunctionNotFound = errors.New("function not found")
	// ErrClosureNotFound 闭包不存在
	ErrClosureNotFound = errors.New("closure not found")
	// ErrRecordTypeNotFound 记录类型不存在
	ErrRecordTypeNotFound = errors.New("record type not found")
	// ErrDuplicateDefinition 重复定义
	ErrDuplicateDefinition = errors.New("duplicate definition")
	// ErrInvalidProgram 程序结构非法
	ErrInvalidProgram = errors.New("invalid program")
	// ErrRegisterNotFound 寄存器未赋值
	ErrRegisterNotFound = errors.New("register not found")
	// ErrArithmetic 算术溢出或下溢
	ErrArithmetic = errors.New("arithmetic error")
)

// EntryType 记录条目声明
type EntryType struct {
	Name console.Identifier
	Mode console.EntryMode
	Type console.LiteralType
}

// RecordType 记录类型声明
type RecordType struct {
	Name      console.Identifier
	OwnerMode console.EntryMode
	Entries   []EntryType
}

// Input 函数输入声明
type Input struct {
	Register uint64
	Type     console.ValueType
}

// Output 函数输出声明
type Output struct {
	Operand Operand
	Type    console.ValueType
}

// ClosureInput 闭包输入声明（仅字面量）
type ClosureInput struct {
	Register uint64
	Type     console.LiteralType
}

// ClosureOutput 闭包输出声明
type ClosureOutput struct {
	Operand Operand
	Type    console.LiteralType
}

// Closure 无副作用的子过程，只处理字面量
type Closure struct {
	Name         console.Identifier
	Inputs       []ClosureInput
	Instructions []Instruction
	Outputs      []ClosureOutput
}

// Function 可被请求调用的函数
type Function struct {
	Name         console.Identifier
	Inputs       []Input
	Instructions []Instruction
	Outputs      []Output
}

// InputTypes 输入类型列表
func (f *Function) InputTypes() []console.ValueType {
	types := make([]console.ValueType, len(f.Inputs))
	for i, in := range f.Inputs {
		types[i] = in.Type
	}
	return types
}

// OutputTypes 输出类型列表
func (f *Function) OutputTypes() []console.ValueType {
	types := make([]console.ValueType, len(f.Outputs))
	for i, out := range f.Outputs {
		types[i] = out.Type
	}
	return types
}

// Program 程序定义，构建完成后只读，可在并发调用间共享
type Program struct {
	id        console.ProgramID
	records   []*RecordType
	closures  []*Closure
	functions []*Function
}

// New 创建空程序
func New(id console.ProgramID) *Program {
	return &Program{id: id}
}

// ID 程序标识
func (p *Program) ID() console.ProgramID { return p.id }

// AddRecord 声明记录类型
func (p *Program) AddRecord(r *RecordType) error {
	if _, err := p.GetRecord(r.Name); err == nil {
		return fmt.Errorf("%w: record %s", ErrDuplicateDefinition, r.Name)
	}
	seen := map[console.Identifier]bool{"owner": true}
	for _, e := range r.Entries {
		if seen[e.Name] {
			return fmt.Errorf("%w: record %s entry %s", ErrDuplicateDefinition, r.Name, e.Name)
		}
		seen[e.Name] = true
	}
	p.records = append(p.records, r)
	return nil
}

// AddClosure 声明闭包
func (p *Program) AddClosure(c *Closure) error {
	if _, err := p.GetClosure(c.Name); err == nil {
		return fmt.Errorf("%w: closure %s", ErrDuplicateDefinition, c.Name)
	}
	p.closures = append(p.closures, c)
	return nil
}

// AddFunction 声明函数
func (p *Program) AddFunction(f *Function) error {
	if _, err := p.GetFunction(f.Name); err == nil {
		return fmt.Errorf("%w: function %s", ErrDuplicateDefinition, f.Name)
	}
	for _, in := range f.Inputs {
		if in.Type.Kind == console.ValueRecord {
			if _, err := p.GetRecord(in.Type.Record); err != nil {
				return fmt.Errorf("function %s input: %w", f.Name, err)
			}
		}
	}
	for _, out := range f.Outputs {
		if out.Type.Kind == console.ValueRecord {
			if _, err := p.GetRecord(out.Type.Record); err != nil {
				return fmt.Errorf("function %s output: %w", f.Name, err)
			}
		}
	}
	p.functions = append(p.functions, f)
	return nil
}

// GetRecord 查找记录类型
func (p *Program) GetRecord(name console.Identifier) (*RecordType, error) {
	for _, r := range p.records {
		if r.Name == name {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%w: %s/%s", ErrRecordTypeNotFound, p.id, name)
}

// GetClosure 查找闭包
func (p *Program) GetClosure(name console.Identifier) (*Closure, error) {
	for _, c := range p.closures {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s/%s", ErrClosureNotFound, p.id, name)
}

// GetFunction 查找函数
func (p *Program) GetFunction(name console.Identifier) (*Function, error) {
	for _, f := range p.functions {
		if f.Name == name {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: %s/%s", ErrFunctionNotFound, p.id, name)
}

// Functions 全部函数（声明顺序）
func (p *Program) Functions() []*Function {
	return append([]*Function(nil), p.functions...)
}
