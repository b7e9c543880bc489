package transition

import (
	"fmt"

	"github.com/weisyn/zkvm/internal/core/infrastructure/log"
	"github.com/weisyn/zkvm/internal/core/vm/console"
	"github.com/weisyn/zkvm/internal/core/vm/network"
)

// Input 函数输入的公开形式
//
//   - Constant/Public: (哈希, 可选明文)
//   - Private: (承诺, 可选密文)
//   - Record: (序列号, 标签)
//   - ExternalRecord: (哈希)
type Input struct {
	kind       console.ValueKind
	id         network.Field
	tag        network.Field
	plaintext  *console.Plaintext
	ciphertext *console.Ciphertext
}

// ConstantInput 常量输入
func ConstantInput(id network.Field, payload *console.Plaintext) *Input {
	return &Input{kind: console.ValueConstant, id: id, plaintext: payload}
}

// PublicInput 公开输入
func PublicInput(id network.Field, payload *console.Plaintext) *Input {
	return &Input{kind: console.ValuePublic, id: id, plaintext: payload}
}

// PrivateInput 私有输入
func PrivateInput(id network.Field, payload *console.Ciphertext) *Input {
	return &Input{kind: console.ValuePrivate, id: id, ciphertext: payload}
}

// RecordInput 被消费的记录
func RecordInput(serialNumber, tag network.Field) *Input {
	return &Input{kind: console.ValueRecord, id: serialNumber, tag: tag}
}

// ExternalRecordInput 外部记录输入
func ExternalRecordInput(id network.Field) *Input {
	return &Input{kind: console.ValueExternalRecord, id: id}
}

// Variant 变体标签
func (in *Input) Variant() uint8 { return uint8(in.kind) }

// Kind 变体种类
func (in *Input) Kind() console.ValueKind { return in.kind }

// ID 输入标识；记录为序列号
func (in *Input) ID() network.Field { return in.id }

// Plaintext Constant/Public 的明文
func (in *Input) Plaintext() (*console.Plaintext, bool) {
	return in.plaintext, in.plaintext != nil
}

// SerialNumber 记录序列号
func (in *Input) SerialNumber() (network.Field, bool) {
	if in.kind != console.ValueRecord {
		return network.Field{}, false
	}
	return in.id, true
}

// Tag 记录标签
func (in *Input) Tag() (network.Field, bool) {
	if in.kind != console.ValueRecord {
		return network.Field{}, false
	}
	return in.tag, true
}

// VerifierInputs 该输入贡献的公开输入
func (in *Input) VerifierInputs() []network.Field {
	if in.kind == console.ValueRecord {
		return []network.Field{in.id, in.tag}
	}
	return []network.Field{in.id}
}

// Verify 负载存在时校验其哈希与标识一致
func (in *Input) Verify(net network.Network) bool {
	var bits []bool
	switch in.kind {
	case console.ValueConstant, console.ValuePublic:
		if in.plaintext == nil {
			return true
		}
		bits = in.plaintext.Bits(net)
	case console.ValuePrivate:
		if in.ciphertext == nil {
			return true
		}
		bits = in.ciphertext.Bits(net)
	case console.ValueRecord, console.ValueExternalRecord:
		return true
	default:
		log.Warnf("input verification: unknown variant %d", in.kind)
		return false
	}
	candidate, err := net.HashBits(bits)
	if err != nil {
		log.Warnf("input verification: hash of %s payload failed: %v", in.kind, err)
		return false
	}
	return candidate == in.id
}

// Write 规范字节编码
func (in *Input) Write(w *console.Writer) {
	w.U8(in.Variant())
	w.Field(in.id)
	switch in.kind {
	case console.ValueConstant, console.ValuePublic:
		w.Bool(in.plaintext != nil)
		if in.plaintext != nil {
			in.plaintext.Write(w)
		}
	case console.ValuePrivate:
		w.Bool(in.ciphertext != nil)
		if in.ciphertext != nil {
			in.ciphertext.Write(w)
		}
	case console.ValueRecord:
		w.Field(in.tag)
	}
}

// ReadInput 解码输入
func ReadInput(r *console.Reader) *Input {
	in := &Input{kind: console.ValueKind(r.U8())}
	in.id = r.Field()
	switch in.kind {
	case console.ValueConstant, console.ValuePublic:
		if r.Bool() {
			p := console.ReadPlaintext(r)
			in.plaintext = &p
		}
	case console.ValuePrivate:
		if r.Bool() {
			c := console.ReadCiphertext(r)
			in.ciphertext = &c
		}
	case console.ValueRecord:
		in.tag = r.Field()
	case console.ValueExternalRecord:
	default:
		r.Fail(fmt.Sprintf("unknown input variant %d", in.kind))
	}
	return in
}
