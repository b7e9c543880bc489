package transition

import (
	"fmt"

	"github.com/weisyn/zkvm/internal/core/vm/console"
	"github.com/weisyn/zkvm/internal/core/vm/network"
)

// Fee 费用转换、全局状态根与可选证明
type Fee struct {
	transition      *Transition
	globalStateRoot network.Field
	proof           []byte
}

// NewFee 构造费用；proof 为 nil 表示尚未证明
func NewFee(t *Transition, globalStateRoot network.Field, proof []byte) *Fee {
	return &Fee{transition: t, globalStateRoot: globalStateRoot, proof: proof}
}

// Transition 费用转换
func (f *Fee) Transition() *Transition { return f.transition }

// GlobalStateRoot 全局状态根
func (f *Fee) GlobalStateRoot() network.Field { return f.globalStateRoot }

// Proof 证明字节
func (f *Fee) Proof() ([]byte, bool) { return f.proof, f.proof != nil }

// WithProof 返回附带证明的副本
func (f *Fee) WithProof(proof []byte) *Fee {
	return &Fee{transition: f.transition, globalStateRoot: f.globalStateRoot, proof: proof}
}

// ID 费用转换标识
func (f *Fee) ID() network.Field { return f.transition.ID() }

// Amount 公开的费用金额（credits.zk/fee 的第二个输入）
func (f *Fee) Amount() (uint64, bool) {
	inputs := f.transition.Inputs()
	if len(inputs) < 2 {
		return 0, false
	}
	p, ok := inputs[1].Plaintext()
	if !ok {
		return 0, false
	}
	return p.Uint64()
}

// Write 规范字节编码：版本 | 转换 | 状态根 | 证明标记 [| 证明]
func (f *Fee) Write(w *console.Writer) {
	w.U8(feeVersion)
	f.transition.Write(w)
	w.Field(f.globalStateRoot)
	w.Bool(f.proof != nil)
	if f.proof != nil {
		w.Blob(f.proof)
	}
}

// Bytes 规范字节编码，长度对固定参数集稳定
func (f *Fee) Bytes() []byte {
	w := console.NewWriter()
	f.Write(w)
	return w.Bytes()
}

// ReadFee 解码费用
func ReadFee(r *console.Reader) *Fee {
	f := &Fee{}
	if v := r.U8(); v != feeVersion {
		r.Fail(fmt.Sprintf("unsupported fee version %d", v))
		return f
	}
	f.transition = ReadTransition(r)
	f.globalStateRoot = r.Field()
	if r.Bool() {
		f.proof = r.Blob()
	}
	return f
}

// FeeFromBytes 解码费用
func FeeFromBytes(b []byte) (*Fee, error) {
	r := console.NewReader(b)
	f := ReadFee(r)
	if err := r.Finish(); err != nil {
		return nil, err
	}
	return f, nil
}

// ============================================================================
//                              交易
// ============================================================================

// TransactionKind 交易种类
type TransactionKind uint8

const (
	// TransactionFee 独立费用交易
	TransactionFee TransactionKind = 1
)

var domainTransaction = network.Domain("zkvm.Transaction")

// Transaction 面向用户的交易
type Transaction struct {
	id   network.Field
	kind TransactionKind
	fee  *Fee
}

// FromFee 将费用包装为独立交易
func FromFee(net network.Network, fee *Fee) (*Transaction, error) {
	id, err := net.HashFields([]network.Field{domainTransaction, fee.ID(), fee.GlobalStateRoot()})
	if err != nil {
		return nil, err
	}
	return &Transaction{id: id, kind: TransactionFee, fee: fee}, nil
}

// ID 交易标识
func (t *Transaction) ID() network.Field { return t.id }

// Kind 交易种类
func (t *Transaction) Kind() TransactionKind { return t.kind }

// Fee 费用
func (t *Transaction) Fee() *Fee { return t.fee }

// Transitions 交易包含的全部转换
func (t *Transaction) Transitions() []*Transition {
	return []*Transition{t.fee.Transition()}
}

// Bytes 规范字节编码
func (t *Transaction) Bytes() []byte {
	w := console.NewWriter()
	w.U8(transactionVersion)
	w.U8(uint8(t.kind))
	w.Field(t.id)
	t.fee.Write(w)
	return w.Bytes()
}

// TransactionFromBytes 解码交易
func TransactionFromBytes(b []byte) (*Transaction, error) {
	r := console.NewReader(b)
	t := &Transaction{}
	if v := r.U8(); v != transactionVersion {
		r.Fail(fmt.Sprintf("unsupported transaction version %d", v))
	}
	t.kind = TransactionKind(r.U8())
	if t.kind != TransactionFee && r.Err() == nil {
		r.Fail(fmt.Sprintf("unknown transaction kind %d", t.kind))
	}
	t.id = r.Field()
	t.fee = ReadFee(r)
	if err := r.Finish(); err != nil {
		return nil, err
	}
	return t, nil
}
