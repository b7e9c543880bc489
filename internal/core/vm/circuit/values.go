package circuit

import (
	"fmt"

	"github.com/weisyn/zkvm/internal/core/vm/console"
	"github.com/weisyn/zkvm/internal/core/vm/network"
)

// Value 电路中的函数值：Plaintext 或 *Record
type Value interface {
	isCircuitValue()
}

// Plaintext 电路字面量
type Plaintext struct {
	Type   console.LiteralType
	Fields []Field
}

func (Plaintext) isCircuitValue() {}

// Entry 电路记录条目
type Entry struct {
	Name  console.Identifier
	Mode  console.EntryMode
	Value Plaintext
}

// Record 电路记录
type Record struct {
	Owner     Group
	OwnerMode console.EntryMode
	Entries   []Entry
	Nonce     Group
}

func (*Record) isCircuitValue() {}

// Find 按名称查找条目
func (r *Record) Find(name console.Identifier) (Entry, bool) {
	for _, e := range r.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// OwnerPlaintext 所有者作为地址字面量
func (r *Record) OwnerPlaintext() Plaintext {
	return Plaintext{Type: console.LiteralAddress, Fields: []Field{r.Owner.X, r.Owner.Y}}
}

// WithNonce 替换随机数点（浅拷贝条目）
func (r *Record) WithNonce(nonce Group) *Record {
	c := *r
	c.Entries = append([]Entry(nil), r.Entries...)
	c.Nonce = nonce
	return &c
}

// ============================================================================
//                              注入与导出
// ============================================================================

// InjectPlaintext 注入字面量
func (e *Environment) InjectPlaintext(mode Mode, p console.Plaintext) Plaintext {
	out := Plaintext{Type: p.Type, Fields: make([]Field, len(p.Fields))}
	for i, f := range p.Fields {
		out.Fields[i] = e.alloc(mode, f)
	}
	return out
}

// InjectRecord 注入记录
func (e *Environment) InjectRecord(mode Mode, r *console.Record) *Record {
	out := &Record{
		Owner:     e.NewGroup(mode, r.Owner),
		OwnerMode: r.OwnerMode,
		Entries:   make([]Entry, len(r.Entries)),
		Nonce:     e.NewGroup(mode, r.Nonce),
	}
	for i, entry := range r.Entries {
		out.Entries[i] = Entry{Name: entry.Name, Mode: entry.Mode, Value: e.InjectPlaintext(mode, entry.Value)}
	}
	return out
}

// InjectValue 注入任意值
func (e *Environment) InjectValue(mode Mode, v console.Value) (Value, error) {
	switch val := v.(type) {
	case console.Plaintext:
		return e.InjectPlaintext(mode, val), nil
	case *console.Record:
		return e.InjectRecord(mode, val), nil
	default:
		return nil, fmt.Errorf("%w: cannot inject %T", console.ErrTypeMismatch, v)
	}
}

// ModeOf 按声明类型确定注入可见性
func ModeOf(t console.ValueType) Mode {
	switch t.Kind {
	case console.ValueConstant:
		return Constant
	case console.ValuePublic:
		return Public
	default:
		return Private
	}
}

// Eject 导出字面量当前赋值
func (p Plaintext) Eject() console.Plaintext {
	out := console.Plaintext{Type: p.Type, Fields: make([]network.Field, len(p.Fields))}
	for i, f := range p.Fields {
		out.Fields[i] = f.Value()
	}
	return out
}

// Eject 导出记录当前赋值
func (r *Record) Eject() *console.Record {
	out := &console.Record{
		Owner:     r.Owner.Value(),
		OwnerMode: r.OwnerMode,
		Entries:   make([]console.Entry, len(r.Entries)),
		Nonce:     r.Nonce.Value(),
	}
	for i, entry := range r.Entries {
		out.Entries[i] = console.Entry{Name: entry.Name, Mode: entry.Mode, Value: entry.Value.Eject()}
	}
	return out
}

// Eject 导出任意电路值
func Eject(v Value) console.Value {
	switch val := v.(type) {
	case Plaintext:
		return val.Eject()
	case *Record:
		return val.Eject()
	default:
		return nil
	}
}

// ============================================================================
//                              位编码
// ============================================================================

func (e *Environment) tagBits(tag uint8) []Boolean {
	return e.Constant(network.FieldFromUint64(uint64(tag))).ToBits(8)
}

func (e *Environment) constantFieldBits(f network.Field) []Boolean {
	return e.Constant(f).ToBits(e.net.FieldBits())
}

// Bits 与 console.Plaintext.Bits 一致的位编码
func (p Plaintext) Bits(e *Environment) []Boolean {
	bits := e.tagBits(uint8(p.Type))
	width := p.Type.BitWidth(e.net)
	for _, f := range p.Fields {
		bits = append(bits, f.ToBits(width)...)
	}
	return bits
}

// Bits 与 console.Record.Bits 一致的位编码
func (r *Record) Bits(e *Environment) []Boolean {
	fb := e.net.FieldBits()
	bits := e.tagBits(uint8(r.OwnerMode))
	bits = append(bits, r.Owner.X.ToBits(fb)...)
	bits = append(bits, r.Owner.Y.ToBits(fb)...)
	bits = append(bits, e.tagBits(uint8(len(r.Entries)))...)
	for _, entry := range r.Entries {
		bits = append(bits, e.constantFieldBits(entry.Name.ToField())...)
		bits = append(bits, e.tagBits(uint8(entry.Mode))...)
		bits = append(bits, entry.Value.Bits(e)...)
	}
	bits = append(bits, r.Nonce.X.ToBits(fb)...)
	return append(bits, r.Nonce.Y.ToBits(fb)...)
}

// Commitment 与 console.Record.Commitment 一致的记录承诺
func (r *Record) Commitment(e *Environment, programID console.ProgramID, name console.Identifier) Field {
	bits := e.constantFieldBits(programID.ToField())
	bits = append(bits, e.constantFieldBits(name.ToField())...)
	return e.HashBits(append(bits, r.Bits(e)...))
}

// CipherEntry 电路加密记录条目
type CipherEntry struct {
	Name   console.Identifier
	Mode   console.EntryMode
	Type   console.LiteralType
	Fields []Field
}

// RecordCiphertext 电路加密记录
type RecordCiphertext struct {
	OwnerMode console.EntryMode
	Owner     []Field
	Entries   []CipherEntry
	Nonce     Group
}

// Encrypt 在随机数 r 下加密记录的私有部分
func (r *Record) Encrypt(e *Environment, randomizer Scalar) *RecordCiphertext {
	rvk := e.ScalarMultiply(r.Owner, randomizer).X
	counter := 0
	seal := func(mode console.EntryMode, fields []Field) []Field {
		out := append([]Field(nil), fields...)
		if mode != console.EntryPrivate {
			return out
		}
		for i := range out {
			pad := e.HashFields([]Field{rvk, e.Constant(network.FieldFromUint64(uint64(counter)))})
			out[i] = out[i].Add(pad)
			counter++
		}
		return out
	}

	c := &RecordCiphertext{OwnerMode: r.OwnerMode, Nonce: r.Nonce}
	c.Owner = seal(r.OwnerMode, []Field{r.Owner.X, r.Owner.Y})
	c.Entries = make([]CipherEntry, len(r.Entries))
	for i, entry := range r.Entries {
		c.Entries[i] = CipherEntry{Name: entry.Name, Mode: entry.Mode, Type: entry.Value.Type, Fields: seal(entry.Mode, entry.Value.Fields)}
	}
	return c
}

// Bits 与 console.RecordCiphertext.Bits 一致的位编码
func (c *RecordCiphertext) Bits(e *Environment) []Boolean {
	fb := e.net.FieldBits()
	bits := e.tagBits(uint8(c.OwnerMode))
	for _, f := range c.Owner {
		bits = append(bits, f.ToBits(fb)...)
	}
	bits = append(bits, e.tagBits(uint8(len(c.Entries)))...)
	for _, entry := range c.Entries {
		bits = append(bits, e.constantFieldBits(entry.Name.ToField())...)
		bits = append(bits, e.tagBits(uint8(entry.Mode))...)
		bits = append(bits, e.tagBits(uint8(entry.Type))...)
		for _, f := range entry.Fields {
			bits = append(bits, f.ToBits(fb)...)
		}
	}
	bits = append(bits, c.Nonce.X.ToBits(fb)...)
	return append(bits, c.Nonce.Y.ToBits(fb)...)
}

// Checksum 加密记录哈希
func (c *RecordCiphertext) Checksum(e *Environment) Field {
	return e.HashBits(c.Bits(e))
}

// Eject 导出加密记录
func (c *RecordCiphertext) Eject() *console.RecordCiphertext {
	out := &console.RecordCiphertext{OwnerMode: c.OwnerMode, Nonce: c.Nonce.Value()}
	for _, f := range c.Owner {
		out.Owner = append(out.Owner, f.Value())
	}
	for _, entry := range c.Entries {
		ce := console.CipherEntry{Name: entry.Name, Mode: entry.Mode, Type: entry.Type}
		for _, f := range entry.Fields {
			ce.Fields = append(ce.Fields, f.Value())
		}
		out.Entries = append(out.Entries, ce)
	}
	return out
}
