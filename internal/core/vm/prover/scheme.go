package prover

import (
	"bytes"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/plonk"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/consensys/gnark/frontend/cs/scs"
	"github.com/consensys/gnark/test/unsafekzg"
)

// 证明方案名称
const (
	SchemeGroth16 = "groth16"
	SchemePlonK   = "plonk"
)

// ============================================================================
// 证明方案抽象
// ============================================================================
//
// 🎯 **目的**：
//   - 费用电路在 Groth16（默认）与 PlonK 之间切换，由配置选择
//   - 密钥与证明以类型擦除形式在后端内部流转
//
// ============================================================================

// Scheme 证明方案
type Scheme interface {
	// Name 方案名称
	Name() string

	// Builder 电路构建器
	Builder() frontend.NewBuilder

	// Setup 生成证明密钥与验证密钥
	Setup(ccs constraint.ConstraintSystem) (ProvingKey, VerifyingKey, error)

	// Prove 生成证明并序列化
	Prove(ccs constraint.ConstraintSystem, pk ProvingKey, full witness.Witness) ([]byte, error)

	// Verify 反序列化并校验证明
	Verify(proof []byte, vk VerifyingKey, public witness.Witness, curve ecc.ID) error
}

// ProvingKey 证明密钥（类型擦除）
type ProvingKey interface{}

// VerifyingKey 验证密钥（类型擦除）
type VerifyingKey interface{}

// SchemeByName 按名称查找证明方案
func SchemeByName(name string) (Scheme, error) {
	switch name {
	case "", SchemeGroth16:
		return groth16Scheme{}, nil
	case SchemePlonK:
		return plonkScheme{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, name)
	}
}

// ============================================================================
//                              Groth16
// ============================================================================

type groth16Scheme struct{}

func (groth16Scheme) Name() string                 { return SchemeGroth16 }
func (groth16Scheme) Builder() frontend.NewBuilder { return r1cs.NewBuilder }

func (groth16Scheme) Setup(ccs constraint.ConstraintSystem) (ProvingKey, VerifyingKey, error) {
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, nil, err
	}
	return pk, vk, nil
}

func (groth16Scheme) Prove(ccs constraint.ConstraintSystem, pk ProvingKey, full witness.Witness) ([]byte, error) {
	key, ok := pk.(groth16.ProvingKey)
	if !ok {
		return nil, fmt.Errorf("invalid groth16 proving key %T", pk)
	}
	proof, err := groth16.Prove(ccs, key, full)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (groth16Scheme) Verify(data []byte, vk VerifyingKey, public witness.Witness, curve ecc.ID) error {
	key, ok := vk.(groth16.VerifyingKey)
	if !ok {
		return fmt.Errorf("invalid groth16 verifying key %T", vk)
	}
	proof := groth16.NewProof(curve)
	if _, err := proof.ReadFrom(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("decode proof: %w", err)
	}
	return groth16.Verify(proof, key, public)
}

// ============================================================================
//                              PlonK
// ============================================================================

type plonkScheme struct{}

func (plonkScheme) Name() string                 { return SchemePlonK }
func (plonkScheme) Builder() frontend.NewBuilder { return scs.NewBuilder }

// Setup 使用本地生成的 KZG SRS；仅适用于开发与测试网络
func (plonkScheme) Setup(ccs constraint.ConstraintSystem) (ProvingKey, VerifyingKey, error) {
	srs, srsLagrange, err := unsafekzg.NewSRS(ccs)
	if err != nil {
		return nil, nil, err
	}
	pk, vk, err := plonk.Setup(ccs, srs, srsLagrange)
	if err != nil {
		return nil, nil, err
	}
	return pk, vk, nil
}

func (plonkScheme) Prove(ccs constraint.ConstraintSystem, pk ProvingKey, full witness.Witness) ([]byte, error) {
	key, ok := pk.(plonk.ProvingKey)
	if !ok {
		return nil, fmt.Errorf("invalid plonk proving key %T", pk)
	}
	proof, err := plonk.Prove(ccs, key, full)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (plonkScheme) Verify(data []byte, vk VerifyingKey, public witness.Witness, curve ecc.ID) error {
	key, ok := vk.(plonk.VerifyingKey)
	if !ok {
		return fmt.Errorf("invalid plonk verifying key %T", vk)
	}
	proof := plonk.NewProof(curve)
	if _, err := proof.ReadFrom(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("decode proof: %w", err)
	}
	return plonk.Verify(proof, key, public)
}
