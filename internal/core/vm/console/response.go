package console

import (
	"fmt"

	"github.com/weisyn/zkvm/internal/core/vm/network"
)

// OutputID 输出的公开标识
type OutputID struct {
	Kind ValueKind
	// ID 哈希（Constant/Public/ExternalRecord）或承诺（Private/Record）
	ID network.Field
	// Nonce 记录随机数点 G*r
	Nonce network.Group
	// Checksum 加密记录的哈希
	Checksum network.Field
}

// Response 一次调用的输出
type Response struct {
	NumInputs   int
	TVK         network.Field
	Outputs     []Value
	OutputTypes []ValueType
	OutputIDs   []OutputID
	// Ciphertexts 与 Outputs 对齐，仅记录输出非空
	Ciphertexts []*RecordCiphertext
}

// NewResponse 计算每个输出的标识
//
// 记录输出在此处被赋予随机数点 G*r，r = HashToScalar(tvk, num_inputs + i)。
func NewResponse(
	net network.Network,
	programID ProgramID,
	numInputs int,
	tvk network.Field,
	outputs []Value,
	outputTypes []ValueType,
) (*Response, error) {
	if len(outputs) != len(outputTypes) {
		return nil, WrapTypeError("output count", len(outputTypes), len(outputs))
	}
	resp := &Response{
		NumInputs:   numInputs,
		TVK:         tvk,
		Outputs:     make([]Value, len(outputs)),
		OutputTypes: append([]ValueType(nil), outputTypes...),
		OutputIDs:   make([]OutputID, len(outputs)),
		Ciphertexts: make([]*RecordCiphertext, len(outputs)),
	}
	for i, output := range outputs {
		outputType := outputTypes[i]
		if err := outputType.CheckValue(output); err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		id := OutputID{Kind: outputType.Kind}
		var err error
		switch outputType.Kind {
		case ValueConstant, ValuePublic:
			id.ID, err = net.HashBits(output.(Plaintext).Bits(net))
			resp.Outputs[i] = output
		case ValuePrivate:
			var randomizer network.Scalar
			if randomizer, err = InputRandomizer(net, tvk, numInputs+i); err != nil {
				return nil, err
			}
			id.ID, err = net.CommitBits(output.(Plaintext).Bits(net), randomizer)
			resp.Outputs[i] = output
		case ValueRecord:
			var randomizer network.Scalar
			if randomizer, err = InputRandomizer(net, tvk, numInputs+i); err != nil {
				return nil, err
			}
			record := output.(*Record).WithNonce(net.GScalarMultiply(randomizer))
			id.Nonce = record.Nonce
			if id.ID, err = record.Commitment(net, programID, outputType.Record); err != nil {
				return nil, fmt.Errorf("output %d commitment: %w", i, err)
			}
			ciphertext, err := record.Encrypt(net, randomizer)
			if err != nil {
				return nil, fmt.Errorf("output %d encryption: %w", i, err)
			}
			if id.Checksum, err = ciphertext.Checksum(net); err != nil {
				return nil, fmt.Errorf("output %d checksum: %w", i, err)
			}
			resp.Outputs[i] = record
			resp.Ciphertexts[i] = ciphertext
		case ValueExternalRecord:
			id.ID, err = net.HashBits(output.(*Record).Bits(net))
			resp.Outputs[i] = output
		default:
			return nil, WrapTypeError(fmt.Sprintf("output %d kind", i), "0..4", outputType.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		resp.OutputIDs[i] = id
	}
	return resp, nil
}
