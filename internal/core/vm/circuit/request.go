package circuit

import (
	"fmt"

	"github.com/weisyn/zkvm/internal/core/vm/console"
	"github.com/weisyn/zkvm/internal/core/vm/network"
)

// InputID 电路请求输入标识
type InputID struct {
	Kind       console.ValueKind
	ID         Field
	Commitment Field
	Tag        Field
}

// Signature 电路签名
type Signature struct {
	Challenge Scalar
	Response  Scalar
}

// Request 电路请求
type Request struct {
	Caller       Group
	ProgramID    console.ProgramID
	FunctionName console.Identifier
	InputIDs     []InputID
	Inputs       []Value
	Signature    Signature
	TPK          Group
	TVK          Field
	TCM          Field
}

// InjectRequest 注入请求
//
// 输入标识、tpk 与 tcm 为公开输入；调用者、签名与 tvk 为私有见证；
// 输入值按声明类型决定可见性。
func (e *Environment) InjectRequest(req *console.Request, inputTypes []console.ValueType) (*Request, error) {
	if len(req.Inputs) != len(inputTypes) || len(req.InputIDs) != len(inputTypes) {
		return nil, console.WrapRequestError(fmt.Sprintf("expected %d inputs", len(inputTypes)), nil)
	}
	out := &Request{
		Caller:       e.NewGroup(Private, req.Caller),
		ProgramID:    req.ProgramID,
		FunctionName: req.FunctionName,
		TPK:          e.NewGroup(Public, req.TPK),
		TVK:          e.NewField(Private, req.TVK),
		TCM:          e.NewField(Public, req.TCM),
		Signature: Signature{
			Challenge: e.NewScalar(Private, req.Signature.Challenge),
			Response:  e.NewScalar(Private, req.Signature.Response),
		},
	}
	for i, id := range req.InputIDs {
		cid := InputID{Kind: id.Kind, ID: e.NewField(Public, id.ID)}
		if id.Kind == console.ValueRecord {
			cid.Commitment = e.NewField(Public, id.Commitment)
			cid.Tag = e.NewField(Public, id.Tag)
		}
		out.InputIDs = append(out.InputIDs, cid)

		value, err := e.InjectValue(ModeOf(inputTypes[i]), req.Inputs[i])
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		out.Inputs = append(out.Inputs, value)
	}
	return out, nil
}

// signatureMessage 与 console.Request.SignatureMessage 一致
func (r *Request) signatureMessage(e *Environment) []Field {
	msg := []Field{r.TCM, e.Constant(r.ProgramID.ToField()), e.Constant(r.FunctionName.ToField())}
	for _, id := range r.InputIDs {
		msg = append(msg, id.ID)
		if id.Kind == console.ValueRecord {
			msg = append(msg, id.Commitment, id.Tag)
		}
	}
	return msg
}

// Verify 电路内校验交易承诺、签名与输入标识
func (r *Request) Verify(e *Environment, inputTypes []console.ValueType) (Boolean, error) {
	if len(inputTypes) != len(r.Inputs) {
		return Boolean{}, console.WrapRequestError(fmt.Sprintf("expected %d inputs", len(inputTypes)), nil)
	}

	// tcm == Hash(tvk)
	ok := e.HashFields([]Field{r.TVK}).IsEqual(r.TCM)

	// R = G*s + pk*e，e == HashToScalar(R, pk, msg)
	gs := e.GScalarMultiply(r.Signature.Response)
	pe := e.ScalarMultiply(r.Caller, r.Signature.Challenge)
	commitment := e.AddPoints(gs, pe)
	preimage := []Field{commitment.X, commitment.Y, r.Caller.X, r.Caller.Y}
	challenge := e.HashToScalar(append(preimage, r.signatureMessage(e)...))
	ok = ok.And(challenge.IsEqual(r.Signature.Challenge.Field))

	for i, input := range r.Inputs {
		id := r.InputIDs[i]
		if id.Kind != inputTypes[i].Kind {
			return Boolean{}, console.WrapTypeError(fmt.Sprintf("input %d id kind", i), inputTypes[i].Kind, id.Kind)
		}
		switch inputTypes[i].Kind {
		case console.ValueConstant, console.ValuePublic:
			p, isPlain := input.(Plaintext)
			if !isPlain {
				return Boolean{}, console.WrapTypeError(fmt.Sprintf("input %d", i), "plaintext", "record")
			}
			ok = ok.And(e.HashBits(p.Bits(e)).IsEqual(id.ID))
		case console.ValuePrivate:
			p, isPlain := input.(Plaintext)
			if !isPlain {
				return Boolean{}, console.WrapTypeError(fmt.Sprintf("input %d", i), "plaintext", "record")
			}
			randomizer := e.HashToScalar([]Field{r.TVK, e.Constant(network.FieldFromUint64(uint64(i)))})
			ok = ok.And(e.CommitBits(p.Bits(e), randomizer).IsEqual(id.ID))
		case console.ValueRecord:
			record, isRecord := input.(*Record)
			if !isRecord {
				return Boolean{}, console.WrapTypeError(fmt.Sprintf("input %d", i), "record", "plaintext")
			}
			commitment := record.Commitment(e, r.ProgramID, inputTypes[i].Record)
			ok = ok.And(commitment.IsEqual(id.Commitment))
			ok = ok.And(record.Owner.IsEqual(r.Caller))
			serial := e.HashFields([]Field{e.Constant(console.DomainSerialNumber), commitment, r.Caller.X, r.Caller.Y})
			ok = ok.And(serial.IsEqual(id.ID))
			tag := e.HashFields([]Field{e.Constant(console.DomainRecordTag), serial, commitment})
			ok = ok.And(tag.IsEqual(id.Tag))
		case console.ValueExternalRecord:
			record, isRecord := input.(*Record)
			if !isRecord {
				return Boolean{}, console.WrapTypeError(fmt.Sprintf("input %d", i), "record", "plaintext")
			}
			ok = ok.And(e.HashBits(record.Bits(e)).IsEqual(id.ID))
		default:
			return Boolean{}, console.WrapTypeError(fmt.Sprintf("input %d kind", i), "0..4", inputTypes[i].Kind)
		}
	}
	return ok, nil
}
