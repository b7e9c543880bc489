package console

import (
	"fmt"

	"github.com/weisyn/zkvm/internal/core/vm/network"
)

// EntryMode 记录条目可见性
type EntryMode uint8

const (
	EntryConstant EntryMode = iota
	EntryPublic
	EntryPrivate
)

func (m EntryMode) String() string {
	switch m {
	case EntryConstant:
		return "constant"
	case EntryPublic:
		return "public"
	case EntryPrivate:
		return "private"
	default:
		return fmt.Sprintf("entry_mode(%d)", uint8(m))
	}
}

// 序列号与记录标签的哈希域分离标签
var (
	DomainSerialNumber = network.Domain("zkvm.SerialNumber")
	DomainRecordTag    = network.Domain("zkvm.RecordTag")
)

// Entry 记录条目
type Entry struct {
	Name  Identifier
	Mode  EntryMode
	Value Plaintext
}

// Record 明文记录：所有者、条目与随机数点
type Record struct {
	Owner     network.Group
	OwnerMode EntryMode
	Entries   []Entry
	Nonce     network.Group
}

func (*Record) isValue() {}

// Find 按名称查找条目
func (r *Record) Find(name Identifier) (Entry, bool) {
	for _, e := range r.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Clone 深拷贝
func (r *Record) Clone() *Record {
	c := &Record{Owner: r.Owner, OwnerMode: r.OwnerMode, Nonce: r.Nonce}
	c.Entries = make([]Entry, len(r.Entries))
	for i, e := range r.Entries {
		c.Entries[i] = Entry{Name: e.Name, Mode: e.Mode, Value: Plaintext{Type: e.Value.Type, Fields: append([]network.Field(nil), e.Value.Fields...)}}
	}
	return c
}

// WithNonce 返回替换随机数点后的副本
func (r *Record) WithNonce(nonce network.Group) *Record {
	c := r.Clone()
	c.Nonce = nonce
	return c
}

// Equal 值相等
func (r *Record) Equal(o *Record) bool {
	if r == nil || o == nil {
		return r == o
	}
	if r.Owner != o.Owner || r.OwnerMode != o.OwnerMode || r.Nonce != o.Nonce || len(r.Entries) != len(o.Entries) {
		return false
	}
	for i := range r.Entries {
		a, b := r.Entries[i], o.Entries[i]
		if a.Name != b.Name || a.Mode != b.Mode || !a.Value.Equal(b.Value) {
			return false
		}
	}
	return true
}

// Validate 检查所有者与各条目取值
func (r *Record) Validate(net network.Network) error {
	if !net.IsOnCurve(r.Owner) {
		return fmt.Errorf("%w: record owner is not on the curve", ErrInvalidLiteral)
	}
	if !net.IsOnCurve(r.Nonce) {
		return fmt.Errorf("%w: record nonce is not on the curve", ErrInvalidLiteral)
	}
	for _, e := range r.Entries {
		if err := e.Value.Validate(net); err != nil {
			return fmt.Errorf("entry %s: %w", e.Name, err)
		}
	}
	return nil
}

// Bits 规范位编码
func (r *Record) Bits(net network.Network) []bool {
	fb := net.FieldBits()
	bits := AppendTag(nil, uint8(r.OwnerMode))
	bits = AppendField(bits, r.Owner.X, fb)
	bits = AppendField(bits, r.Owner.Y, fb)
	bits = AppendTag(bits, uint8(len(r.Entries)))
	for _, e := range r.Entries {
		bits = AppendField(bits, e.Name.ToField(), fb)
		bits = AppendTag(bits, uint8(e.Mode))
		bits = append(bits, e.Value.Bits(net)...)
	}
	bits = AppendField(bits, r.Nonce.X, fb)
	return AppendField(bits, r.Nonce.Y, fb)
}

// CommitmentBits 记录承诺的原像：程序标识、记录名与记录本身
func CommitmentBits(net network.Network, programID ProgramID, name Identifier, recordBits []bool) []bool {
	fb := net.FieldBits()
	bits := AppendField(nil, programID.ToField(), fb)
	bits = AppendField(bits, name.ToField(), fb)
	return append(bits, recordBits...)
}

// Commitment 记录承诺（包含随机数点，后续花费方可重新计算）
func (r *Record) Commitment(net network.Network, programID ProgramID, name Identifier) (network.Field, error) {
	return net.HashBits(CommitmentBits(net, programID, name, r.Bits(net)))
}

// SerialNumber 记录被花费时公开的序列号
func SerialNumber(net network.Network, commitment network.Field, owner network.Group) (network.Field, error) {
	return net.HashFields([]network.Field{DomainSerialNumber, commitment, owner.X, owner.Y})
}

// RecordTag 记录输入标签
func RecordTag(net network.Network, serialNumber, commitment network.Field) (network.Field, error) {
	return net.HashFields([]network.Field{DomainRecordTag, serialNumber, commitment})
}

// RecordViewKey 记录视图密钥：(owner * r).x，等价于 (nonce * view_key).x
func RecordViewKey(net network.Network, point network.Group, s network.Scalar) (network.Field, error) {
	p, err := net.ScalarMultiply(point, s)
	if err != nil {
		return network.Field{}, err
	}
	return p.X, nil
}

// recordPad 第 i 个私有域元素的加密填充
func recordPad(net network.Network, rvk network.Field, i int) (network.Field, error) {
	return net.HashFields([]network.Field{rvk, network.FieldFromUint64(uint64(i))})
}

// Encrypt 在随机数 r 下加密记录的私有部分
//
// 调用方需保证 Nonce == G*r。
func (r *Record) Encrypt(net network.Network, randomizer network.Scalar) (*RecordCiphertext, error) {
	rvk, err := RecordViewKey(net, r.Owner, randomizer)
	if err != nil {
		return nil, err
	}
	counter := 0
	seal := func(mode EntryMode, fields []network.Field) ([]network.Field, error) {
		out := append([]network.Field(nil), fields...)
		if mode != EntryPrivate {
			return out, nil
		}
		for i := range out {
			pad, err := recordPad(net, rvk, counter)
			if err != nil {
				return nil, err
			}
			out[i] = net.Add(out[i], pad)
			counter++
		}
		return out, nil
	}

	c := &RecordCiphertext{OwnerMode: r.OwnerMode, Nonce: r.Nonce}
	if c.Owner, err = seal(r.OwnerMode, []network.Field{r.Owner.X, r.Owner.Y}); err != nil {
		return nil, err
	}
	c.Entries = make([]CipherEntry, len(r.Entries))
	for i, e := range r.Entries {
		fields, err := seal(e.Mode, e.Value.Fields)
		if err != nil {
			return nil, err
		}
		c.Entries[i] = CipherEntry{Name: e.Name, Mode: e.Mode, Type: e.Value.Type, Fields: fields}
	}
	return c, nil
}

// CipherEntry 加密记录条目
type CipherEntry struct {
	Name   Identifier
	Mode   EntryMode
	Type   LiteralType
	Fields []network.Field
}

// RecordCiphertext 加密记录
type RecordCiphertext struct {
	OwnerMode EntryMode
	Owner     []network.Field
	Entries   []CipherEntry
	Nonce     network.Group
}

// Bits 规范位编码（密文元素取完整域宽度）
func (c *RecordCiphertext) Bits(net network.Network) []bool {
	fb := net.FieldBits()
	bits := AppendTag(nil, uint8(c.OwnerMode))
	for _, f := range c.Owner {
		bits = AppendField(bits, f, fb)
	}
	bits = AppendTag(bits, uint8(len(c.Entries)))
	for _, e := range c.Entries {
		bits = AppendField(bits, e.Name.ToField(), fb)
		bits = AppendTag(bits, uint8(e.Mode))
		bits = AppendTag(bits, uint8(e.Type))
		for _, f := range e.Fields {
			bits = AppendField(bits, f, fb)
		}
	}
	bits = AppendField(bits, c.Nonce.X, fb)
	return AppendField(bits, c.Nonce.Y, fb)
}

// Checksum 密文校验和
func (c *RecordCiphertext) Checksum(net network.Network) (network.Field, error) {
	return net.HashBits(c.Bits(net))
}

// Decrypt 用视图密钥解密
func (c *RecordCiphertext) Decrypt(net network.Network, viewKey network.Scalar) (*Record, error) {
	rvk, err := RecordViewKey(net, c.Nonce, viewKey)
	if err != nil {
		return nil, err
	}
	counter := 0
	open := func(mode EntryMode, fields []network.Field) ([]network.Field, error) {
		out := append([]network.Field(nil), fields...)
		if mode != EntryPrivate {
			return out, nil
		}
		for i := range out {
			pad, err := recordPad(net, rvk, counter)
			if err != nil {
				return nil, err
			}
			out[i] = net.Sub(out[i], pad)
			counter++
		}
		return out, nil
	}

	if len(c.Owner) != 2 {
		return nil, WrapSerializationError("record owner must have two fields", nil)
	}
	owner, err := open(c.OwnerMode, c.Owner)
	if err != nil {
		return nil, err
	}
	r := &Record{Owner: network.Group{X: owner[0], Y: owner[1]}, OwnerMode: c.OwnerMode, Nonce: c.Nonce}
	if r.Owner != net.GScalarMultiply(viewKey) {
		return nil, ErrNotOwner
	}
	r.Entries = make([]Entry, len(c.Entries))
	for i, e := range c.Entries {
		fields, err := open(e.Mode, e.Fields)
		if err != nil {
			return nil, err
		}
		r.Entries[i] = Entry{Name: e.Name, Mode: e.Mode, Value: Plaintext{Type: e.Type, Fields: fields}}
	}
	if err := r.Validate(net); err != nil {
		return nil, err
	}
	return r, nil
}

// Write 规范字节编码
func (c *RecordCiphertext) Write(w *Writer) {
	w.U8(uint8(c.OwnerMode))
	for _, f := range c.Owner {
		w.Field(f)
	}
	w.U8(uint8(len(c.Entries)))
	for _, e := range c.Entries {
		w.Name(string(e.Name))
		w.U8(uint8(e.Mode))
		w.U8(uint8(e.Type))
		for _, f := range e.Fields {
			w.Field(f)
		}
	}
	w.Group(c.Nonce)
}

// ReadRecordCiphertext 解码加密记录
func ReadRecordCiphertext(r *Reader) *RecordCiphertext {
	c := &RecordCiphertext{OwnerMode: EntryMode(r.U8())}
	if c.OwnerMode > EntryPrivate {
		r.Fail("invalid owner mode")
		return c
	}
	c.Owner = []network.Field{r.Field(), r.Field()}
	n := int(r.U8())
	for i := 0; i < n && r.Err() == nil; i++ {
		name, err := NewIdentifier(r.Name())
		if err != nil {
			r.Fail(err.Error())
			return c
		}
		mode := EntryMode(r.U8())
		t := LiteralType(r.U8())
		if mode > EntryPrivate || t > LiteralU64 {
			r.Fail("invalid record entry header")
			return c
		}
		e := CipherEntry{Name: name, Mode: mode, Type: t, Fields: make([]network.Field, t.NumFields())}
		for j := range e.Fields {
			e.Fields[j] = r.Field()
		}
		c.Entries = append(c.Entries, e)
	}
	c.Nonce = r.Group()
	return c
}

// Equal 值相等
func (c *RecordCiphertext) Equal(o *RecordCiphertext) bool {
	if c == nil || o == nil {
		return c == o
	}
	w1, w2 := NewWriter(), NewWriter()
	c.Write(w1)
	o.Write(w2)
	return string(w1.Bytes()) == string(w2.Bytes())
}
