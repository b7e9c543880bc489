package console

import (
	"fmt"
	"io"

	"github.com/weisyn/zkvm/internal/core/vm/network"
)

// InputID 请求输入的公开标识
//
//   - Constant/Public: 明文位串哈希
//   - Private: 明文位串在 HashToScalar(tvk, i) 下的承诺
//   - Record: 序列号 ID 与记录承诺 Commitment、标签 Tag
//   - ExternalRecord: 记录位串哈希
type InputID struct {
	Kind       ValueKind
	ID         network.Field
	Commitment network.Field
	Tag        network.Field
}

// Request 已签名的函数调用请求
type Request struct {
	Caller       network.Group
	ProgramID    ProgramID
	FunctionName Identifier
	InputIDs     []InputID
	Inputs       []Value
	Signature    Signature
	// TPK 交易公钥 G*r，接收方可由 (tpk * view_key).x 恢复 tvk
	TPK network.Group
	// TVK 交易视图密钥 (caller * r).x
	TVK network.Field
	// TCM 交易承诺 Hash(tvk)
	TCM network.Field
}

// InputRandomizer 第 index 个输入/输出的随机数：HashToScalar(tvk, index)
//
// 输出的 index 为 num_inputs + position，与记录解密约定一致。
func InputRandomizer(net network.Network, tvk network.Field, index int) (network.Scalar, error) {
	return net.HashToScalar([]network.Field{tvk, network.FieldFromUint64(uint64(index))})
}

// SignRequest 构造并签名请求
func SignRequest(
	net network.Network,
	privateKey PrivateKey,
	programID ProgramID,
	functionName Identifier,
	inputs []Value,
	inputTypes []ValueType,
	rng io.Reader,
) (*Request, error) {
	if len(inputs) != len(inputTypes) {
		return nil, WrapRequestError(fmt.Sprintf("expected %d inputs, got %d", len(inputTypes), len(inputs)), nil)
	}
	caller := privateKey.Address(net)

	r, err := net.RandomScalar(rng)
	if err != nil {
		return nil, err
	}
	tpk := net.GScalarMultiply(r)
	tvkPoint, err := net.ScalarMultiply(caller, r)
	if err != nil {
		return nil, err
	}
	tvk := tvkPoint.X
	tcm, err := net.HashFields([]network.Field{tvk})
	if err != nil {
		return nil, err
	}

	req := &Request{
		Caller:       caller,
		ProgramID:    programID,
		FunctionName: functionName,
		Inputs:       inputs,
		TPK:          tpk,
		TVK:          tvk,
		TCM:          tcm,
	}
	for i := range inputs {
		id, err := computeInputID(net, programID, caller, tvk, i, inputs[i], inputTypes[i])
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		req.InputIDs = append(req.InputIDs, id)
	}

	req.Signature, err = privateKey.Sign(net, req.SignatureMessage(), rng)
	if err != nil {
		return nil, err
	}
	return req, nil
}

// computeInputID 按声明类型计算输入标识
func computeInputID(
	net network.Network,
	programID ProgramID,
	caller network.Group,
	tvk network.Field,
	index int,
	input Value,
	inputType ValueType,
) (InputID, error) {
	if err := inputType.CheckValue(input); err != nil {
		return InputID{}, err
	}
	id := InputID{Kind: inputType.Kind}
	var err error
	switch inputType.Kind {
	case ValueConstant, ValuePublic:
		id.ID, err = net.HashBits(input.(Plaintext).Bits(net))
	case ValuePrivate:
		var randomizer network.Scalar
		if randomizer, err = InputRandomizer(net, tvk, index); err != nil {
			return InputID{}, err
		}
		id.ID, err = net.CommitBits(input.(Plaintext).Bits(net), randomizer)
	case ValueRecord:
		record := input.(*Record)
		if record.Owner != caller {
			return InputID{}, WrapRequestError("record owner", ErrNotOwner)
		}
		if id.Commitment, err = record.Commitment(net, programID, inputType.Record); err != nil {
			return InputID{}, err
		}
		if id.ID, err = SerialNumber(net, id.Commitment, caller); err != nil {
			return InputID{}, err
		}
		id.Tag, err = RecordTag(net, id.ID, id.Commitment)
	case ValueExternalRecord:
		id.ID, err = net.HashBits(input.(*Record).Bits(net))
	default:
		return InputID{}, WrapTypeError("input kind", "0..4", inputType.Kind)
	}
	return id, err
}

// SignatureMessage 签名消息：[tcm, program, function, input ids...]
func (r *Request) SignatureMessage() []network.Field {
	msg := []network.Field{r.TCM, r.ProgramID.ToField(), r.FunctionName.ToField()}
	for _, id := range r.InputIDs {
		msg = append(msg, id.ID)
		if id.Kind == ValueRecord {
			msg = append(msg, id.Commitment, id.Tag)
		}
	}
	return msg
}

// Verify 校验签名、交易承诺与每个输入标识
func (r *Request) Verify(net network.Network, inputTypes []ValueType) error {
	if len(r.Inputs) != len(inputTypes) || len(r.InputIDs) != len(inputTypes) {
		return WrapRequestError(fmt.Sprintf("expected %d inputs, got %d values and %d ids", len(inputTypes), len(r.Inputs), len(r.InputIDs)), nil)
	}
	tcm, err := net.HashFields([]network.Field{r.TVK})
	if err != nil {
		return WrapRequestError("tcm", err)
	}
	if tcm != r.TCM {
		return WrapRequestError("tcm", nil)
	}
	if !r.Signature.Verify(net, r.Caller, r.SignatureMessage()) {
		return WrapRequestError("signature", nil)
	}
	for i := range r.Inputs {
		expected, err := computeInputID(net, r.ProgramID, r.Caller, r.TVK, i, r.Inputs[i], inputTypes[i])
		if err != nil {
			return WrapRequestError(fmt.Sprintf("input %d", i), err)
		}
		if expected != r.InputIDs[i] {
			return WrapRequestError(fmt.Sprintf("input %d id", i), nil)
		}
	}
	return nil
}
