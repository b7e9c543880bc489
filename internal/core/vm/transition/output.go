// Package transition 定义状态转换及其输入输出模型、费用与交易
//
// 所有类型均可规范字节编码，变体标签 0..4 与 console.ValueKind 一致。
package transition

import (
	"fmt"

	"github.com/weisyn/zkvm/internal/core/infrastructure/log"
	"github.com/weisyn/zkvm/internal/core/vm/console"
	"github.com/weisyn/zkvm/internal/core/vm/network"
)

// Output 函数输出的公开形式
//
//   - Constant/Public: (哈希, 可选明文)
//   - Private: (承诺, 可选密文)
//   - Record: (承诺, 校验和, 可选加密记录)
//   - ExternalRecord: (哈希)
type Output struct {
	kind       console.ValueKind
	id         network.Field
	checksum   network.Field
	plaintext  *console.Plaintext
	ciphertext *console.Ciphertext
	record     *console.RecordCiphertext
}

// ConstantOutput 常量输出
func ConstantOutput(id network.Field, payload *console.Plaintext) *Output {
	return &Output{kind: console.ValueConstant, id: id, plaintext: payload}
}

// PublicOutput 公开输出
func PublicOutput(id network.Field, payload *console.Plaintext) *Output {
	return &Output{kind: console.ValuePublic, id: id, plaintext: payload}
}

// PrivateOutput 私有输出
func PrivateOutput(id network.Field, payload *console.Ciphertext) *Output {
	return &Output{kind: console.ValuePrivate, id: id, ciphertext: payload}
}

// RecordOutput 记录输出；payload 为空表示仅公开承诺的引用
func RecordOutput(commitment, checksum network.Field, payload *console.RecordCiphertext) *Output {
	return &Output{kind: console.ValueRecord, id: commitment, checksum: checksum, record: payload}
}

// ExternalRecordOutput 外部记录输出
func ExternalRecordOutput(id network.Field) *Output {
	return &Output{kind: console.ValueExternalRecord, id: id}
}

// Variant 变体标签，序列化依赖，禁止重新编号
func (o *Output) Variant() uint8 { return uint8(o.kind) }

// Kind 变体种类
func (o *Output) Kind() console.ValueKind { return o.kind }

// ID 输出标识；记录返回承诺而非校验和
func (o *Output) ID() network.Field { return o.id }

// Plaintext Constant/Public 的明文
func (o *Output) Plaintext() (*console.Plaintext, bool) {
	return o.plaintext, o.plaintext != nil
}

// Ciphertext Private 的密文
func (o *Output) Ciphertext() (*console.Ciphertext, bool) {
	return o.ciphertext, o.ciphertext != nil
}

// Commitment 记录承诺，仅 Record 变体
func (o *Output) Commitment() (network.Field, bool) {
	if o.kind != console.ValueRecord {
		return network.Field{}, false
	}
	return o.id, true
}

// Record 加密记录，仅 Record 变体且携带负载
func (o *Output) Record() (*console.RecordCiphertext, bool) {
	if o.kind != console.ValueRecord || o.record == nil {
		return nil, false
	}
	return o.record, true
}

// Nonce 记录随机数点，仅 Record 变体且携带负载
func (o *Output) Nonce() (network.Group, bool) {
	if r, ok := o.Record(); ok {
		return r.Nonce, true
	}
	return network.Group{}, false
}

// Checksum 加密记录校验和，仅 Record 变体且携带负载
func (o *Output) Checksum() (network.Field, bool) {
	if _, ok := o.Record(); ok {
		return o.checksum, true
	}
	return network.Field{}, false
}

// VerifierInputs 该输出贡献的公开输入：标识在前，携带负载的记录再追加校验和
func (o *Output) VerifierInputs() []network.Field {
	inputs := []network.Field{o.id}
	if checksum, ok := o.Checksum(); ok {
		inputs = append(inputs, checksum)
	}
	return inputs
}

// Verify 负载存在时校验其哈希与标识一致；哈希失败记录日志并返回 false
func (o *Output) Verify(net network.Network) bool {
	var (
		bits     []bool
		expected network.Field
	)
	switch o.kind {
	case console.ValueConstant, console.ValuePublic:
		if o.plaintext == nil {
			return true
		}
		bits, expected = o.plaintext.Bits(net), o.id
	case console.ValuePrivate:
		if o.ciphertext == nil {
			return true
		}
		bits, expected = o.ciphertext.Bits(net), o.id
	case console.ValueRecord:
		if o.record == nil {
			return true
		}
		bits, expected = o.record.Bits(net), o.checksum
	case console.ValueExternalRecord:
		return true
	default:
		log.Warnf("output verification: unknown variant %d", o.kind)
		return false
	}
	candidate, err := net.HashBits(bits)
	if err != nil {
		log.Warnf("output verification: hash of %s payload failed: %v", o.kind, err)
		return false
	}
	return candidate == expected
}

// Equal 值相等
func (o *Output) Equal(other *Output) bool {
	return string(o.Bytes()) == string(other.Bytes())
}

// Write 规范字节编码
func (o *Output) Write(w *console.Writer) {
	w.U8(o.Variant())
	w.Field(o.id)
	switch o.kind {
	case console.ValueConstant, console.ValuePublic:
		w.Bool(o.plaintext != nil)
		if o.plaintext != nil {
			o.plaintext.Write(w)
		}
	case console.ValuePrivate:
		w.Bool(o.ciphertext != nil)
		if o.ciphertext != nil {
			o.ciphertext.Write(w)
		}
	case console.ValueRecord:
		w.Field(o.checksum)
		w.Bool(o.record != nil)
		if o.record != nil {
			o.record.Write(w)
		}
	}
}

// Bytes 规范字节编码
func (o *Output) Bytes() []byte {
	w := console.NewWriter()
	o.Write(w)
	return w.Bytes()
}

// ReadOutput 解码输出
func ReadOutput(r *console.Reader) *Output {
	o := &Output{kind: console.ValueKind(r.U8())}
	o.id = r.Field()
	switch o.kind {
	case console.ValueConstant, console.ValuePublic:
		if r.Bool() {
			p := console.ReadPlaintext(r)
			o.plaintext = &p
		}
	case console.ValuePrivate:
		if r.Bool() {
			c := console.ReadCiphertext(r)
			o.ciphertext = &c
		}
	case console.ValueRecord:
		o.checksum = r.Field()
		if r.Bool() {
			o.record = console.ReadRecordCiphertext(r)
		}
	case console.ValueExternalRecord:
	default:
		r.Fail(fmt.Sprintf("unknown output variant %d", o.kind))
	}
	return o
}

// OutputFromBytes 解码单个输出
func OutputFromBytes(b []byte) (*Output, error) {
	r := console.NewReader(b)
	o := ReadOutput(r)
	if err := r.Finish(); err != nil {
		return nil, err
	}
	return o, nil
}
