package transition

import (
	"fmt"

	"github.com/weisyn/zkvm/internal/core/vm/console"
	"github.com/weisyn/zkvm/internal/core/vm/network"
)

// 编码版本
const (
	transitionVersion  uint8 = 1
	feeVersion         uint8 = 1
	transactionVersion uint8 = 1
)

var domainTransition = network.Domain("zkvm.Transition")

// Transition 一次函数调用的公开状态转换
type Transition struct {
	id           network.Field
	programID    console.ProgramID
	functionName console.Identifier
	inputs       []*Input
	outputs      []*Output
	tpk          network.Group
	tcm          network.Field
}

// New 由组件构造转换并计算标识
func New(
	net network.Network,
	programID console.ProgramID,
	functionName console.Identifier,
	inputs []*Input,
	outputs []*Output,
	tpk network.Group,
	tcm network.Field,
) (*Transition, error) {
	t := &Transition{
		programID:    programID,
		functionName: functionName,
		inputs:       inputs,
		outputs:      outputs,
		tpk:          tpk,
		tcm:          tcm,
	}
	id, err := t.computeID(net)
	if err != nil {
		return nil, err
	}
	t.id = id
	return t, nil
}

// FromExecution 由请求与响应构造转换
//
// 私有输入输出只公开承诺；记录输出携带加密记录。
func FromExecution(net network.Network, req *console.Request, resp *console.Response) (*Transition, error) {
	inputs := make([]*Input, len(req.InputIDs))
	for i, id := range req.InputIDs {
		switch id.Kind {
		case console.ValueConstant, console.ValuePublic:
			p, ok := req.Inputs[i].(console.Plaintext)
			if !ok {
				return nil, console.WrapTypeError(fmt.Sprintf("input %d", i), "plaintext", "record")
			}
			if id.Kind == console.ValueConstant {
				inputs[i] = ConstantInput(id.ID, &p)
			} else {
				inputs[i] = PublicInput(id.ID, &p)
			}
		case console.ValuePrivate:
			inputs[i] = PrivateInput(id.ID, nil)
		case console.ValueRecord:
			inputs[i] = RecordInput(id.ID, id.Tag)
		case console.ValueExternalRecord:
			inputs[i] = ExternalRecordInput(id.ID)
		default:
			return nil, console.WrapTypeError(fmt.Sprintf("input %d kind", i), "0..4", id.Kind)
		}
	}

	outputs := make([]*Output, len(resp.OutputIDs))
	for i, id := range resp.OutputIDs {
		switch id.Kind {
		case console.ValueConstant, console.ValuePublic:
			p, ok := resp.Outputs[i].(console.Plaintext)
			if !ok {
				return nil, console.WrapTypeError(fmt.Sprintf("output %d", i), "plaintext", "record")
			}
			if id.Kind == console.ValueConstant {
				outputs[i] = ConstantOutput(id.ID, &p)
			} else {
				outputs[i] = PublicOutput(id.ID, &p)
			}
		case console.ValuePrivate:
			outputs[i] = PrivateOutput(id.ID, nil)
		case console.ValueRecord:
			outputs[i] = RecordOutput(id.ID, id.Checksum, resp.Ciphertexts[i])
		case console.ValueExternalRecord:
			outputs[i] = ExternalRecordOutput(id.ID)
		default:
			return nil, console.WrapTypeError(fmt.Sprintf("output %d kind", i), "0..4", id.Kind)
		}
	}
	return New(net, req.ProgramID, req.FunctionName, inputs, outputs, req.TPK, req.TCM)
}

// computeID Hash(domain, program, function, 输入公开值, 输出公开值, tpk, tcm)
func (t *Transition) computeID(net network.Network) (network.Field, error) {
	preimage := []network.Field{domainTransition, t.programID.ToField(), t.functionName.ToField()}
	for _, in := range t.inputs {
		preimage = append(preimage, in.VerifierInputs()...)
	}
	for _, out := range t.outputs {
		preimage = append(preimage, out.VerifierInputs()...)
	}
	preimage = append(preimage, t.tpk.X, t.tpk.Y, t.tcm)
	return net.HashFields(preimage)
}

// ID 转换标识
func (t *Transition) ID() network.Field { return t.id }

// ProgramID 程序标识
func (t *Transition) ProgramID() console.ProgramID { return t.programID }

// FunctionName 函数名
func (t *Transition) FunctionName() console.Identifier { return t.functionName }

// Inputs 输入
func (t *Transition) Inputs() []*Input { return t.inputs }

// Outputs 输出
func (t *Transition) Outputs() []*Output { return t.outputs }

// TPK 交易公钥
func (t *Transition) TPK() network.Group { return t.tpk }

// TCM 交易承诺
func (t *Transition) TCM() network.Field { return t.tcm }

// RecordEntry 转换产生的记录
type RecordEntry struct {
	Commitment network.Field
	Record     *console.RecordCiphertext
}

// Records 携带负载的记录输出
func (t *Transition) Records() []RecordEntry {
	var out []RecordEntry
	for _, o := range t.outputs {
		if r, ok := o.Record(); ok {
			out = append(out, RecordEntry{Commitment: o.id, Record: r})
		}
	}
	return out
}

// Commitments 全部记录输出承诺（含无负载引用）
func (t *Transition) Commitments() []network.Field {
	var out []network.Field
	for _, o := range t.outputs {
		if c, ok := o.Commitment(); ok {
			out = append(out, c)
		}
	}
	return out
}

// SerialNumbers 被消费记录的序列号
func (t *Transition) SerialNumbers() []network.Field {
	var out []network.Field
	for _, in := range t.inputs {
		if sn, ok := in.SerialNumber(); ok {
			out = append(out, sn)
		}
	}
	return out
}

// VerifierInputs 全部输入输出的公开值，顺序与电路一致
func (t *Transition) VerifierInputs() []network.Field {
	var out []network.Field
	for _, in := range t.inputs {
		out = append(out, in.VerifierInputs()...)
	}
	for _, o := range t.outputs {
		out = append(out, o.VerifierInputs()...)
	}
	return out
}

// Verify 校验全部输入输出负载与转换标识
func (t *Transition) Verify(net network.Network) bool {
	for _, in := range t.inputs {
		if !in.Verify(net) {
			return false
		}
	}
	for _, o := range t.outputs {
		if !o.Verify(net) {
			return false
		}
	}
	id, err := t.computeID(net)
	return err == nil && id == t.id
}

// Write 规范字节编码
func (t *Transition) Write(w *console.Writer) {
	w.U8(transitionVersion)
	w.Field(t.id)
	w.Name(t.programID.String())
	w.Name(string(t.functionName))
	w.U8(uint8(len(t.inputs)))
	for _, in := range t.inputs {
		in.Write(w)
	}
	w.U8(uint8(len(t.outputs)))
	for _, o := range t.outputs {
		o.Write(w)
	}
	w.Group(t.tpk)
	w.Field(t.tcm)
}

// Bytes 规范字节编码
func (t *Transition) Bytes() []byte {
	w := console.NewWriter()
	t.Write(w)
	return w.Bytes()
}

// ReadTransition 解码转换（不重新计算标识）
func ReadTransition(r *console.Reader) *Transition {
	t := &Transition{}
	if v := r.U8(); v != transitionVersion {
		r.Fail(fmt.Sprintf("unsupported transition version %d", v))
		return t
	}
	t.id = r.Field()
	pid, err := console.NewProgramID(r.Name())
	if err != nil && r.Err() == nil {
		r.Fail(err.Error())
	}
	t.programID = pid
	fn, err := console.NewIdentifier(r.Name())
	if err != nil && r.Err() == nil {
		r.Fail(err.Error())
	}
	t.functionName = fn
	n := int(r.U8())
	for i := 0; i < n && r.Err() == nil; i++ {
		t.inputs = append(t.inputs, ReadInput(r))
	}
	n = int(r.U8())
	for i := 0; i < n && r.Err() == nil; i++ {
		t.outputs = append(t.outputs, ReadOutput(r))
	}
	t.tpk = r.Group()
	t.tcm = r.Field()
	return t
}

// FromBytes 解码转换
func FromBytes(b []byte) (*Transition, error) {
	r := console.NewReader(b)
	t := ReadTransition(r)
	if err := r.Finish(); err != nil {
		return nil, err
	}
	return t, nil
}
