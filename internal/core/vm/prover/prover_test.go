package prover

import (
	"context"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/zkvm/internal/core/vm/circuit"
	"github.com/weisyn/zkvm/internal/core/vm/console"
	"github.com/weisyn/zkvm/internal/core/vm/network"
	"github.com/weisyn/zkvm/internal/core/vm/process"
	"github.com/weisyn/zkvm/internal/core/vm/store"
	vmiface "github.com/weisyn/zkvm/pkg/interfaces/vm"
)

const (
	testDepth     = 4
	testMaxPublic = 8
)

var testNet = network.BN254

func sampleTree(t *testing.T) *store.CommitmentTree {
	t.Helper()
	tree, err := store.NewCommitmentTree(testNet, testDepth)
	require.NoError(t, err)
	for i := uint64(1); i <= 5; i++ {
		require.NoError(t, tree.Append(network.FieldFromUint64(i*7)))
	}
	return tree
}

// sampleSpend 消费承诺 21 的包含材料，序列号为 sn
func sampleSpend(t *testing.T, sn uint64) vmiface.Spend {
	t.Helper()
	path, err := sampleTree(t).Path(network.FieldFromUint64(21))
	require.NoError(t, err)
	serial := network.FieldFromUint64(sn)
	tag, err := console.RecordTag(testNet, serial, path.Leaf)
	require.NoError(t, err)
	return vmiface.Spend{SpentRecord: vmiface.SpentRecord{SerialNumber: serial, Tag: tag}, Path: path}
}

// sampleAssignment 满足的调用电路赋值，公开输入为 values
func sampleAssignment(values ...uint64) *circuit.Assignment {
	env := circuit.NewEnvironment(testNet)
	for _, v := range values {
		f := env.NewField(circuit.Public, network.FieldFromUint64(v))
		env.AssertEqLabeled("value", f, env.Constant(network.FieldFromUint64(v)))
	}
	return env.Assignment()
}

func TestFeeCircuit(t *testing.T) {
	assert := test.NewAssert(t)
	spend := sampleSpend(t, 77)
	root := spend.Path.Root
	public := []network.Field{network.FieldFromUint64(3), network.FieldFromUint64(4)}

	// 同一棵树中另一条记录的路径
	foreignPath, err := sampleTree(t).Path(network.FieldFromUint64(14))
	require.NoError(t, err)

	shape, err := NewFeeCircuit(testDepth, testMaxPublic)
	require.NoError(t, err)

	build := func(root network.Field, spent vmiface.SpentRecord, path *store.StatePath) *FeeCircuit {
		w, err := assign(testNet, testDepth, testMaxPublic, public, root, spent, path)
		require.NoError(t, err)
		return w
	}

	valid := build(root, spend.SpentRecord, spend.Path)
	noInclusion := build(network.Field{}, vmiface.SpentRecord{}, nil)
	// 非零状态根必须附带成员路径
	rootWithoutPath := build(root, spend.SpentRecord, nil)
	bogusRootWithoutPath := build(network.FieldFromUint64(999), vmiface.SpentRecord{}, nil)
	wrongRoot := build(network.FieldFromUint64(123), spend.SpentRecord, spend.Path)
	// 路径指向账本中的其他承诺
	foreignLeaf := build(root, spend.SpentRecord, foreignPath)
	// 零状态根不得声明被消费记录
	serialWithoutRoot := build(network.Field{}, spend.SpentRecord, nil)
	wrongDigest := build(root, spend.SpentRecord, spend.Path)
	wrongDigest.PublicInputs[0] = 5

	assert.CheckCircuit(
		shape,
		test.WithValidAssignment(valid),
		test.WithValidAssignment(noInclusion),
		test.WithInvalidAssignment(rootWithoutPath),
		test.WithInvalidAssignment(bogusRootWithoutPath),
		test.WithInvalidAssignment(wrongRoot),
		test.WithInvalidAssignment(foreignLeaf),
		test.WithInvalidAssignment(serialWithoutRoot),
		test.WithInvalidAssignment(wrongDigest),
		test.WithCurves(ecc.BN254),
		test.WithBackends(backend.GROTH16),
	)
}

func TestPublicDigestCapacity(t *testing.T) {
	inputs := make([]network.Field, testMaxPublic+1)
	_, err := PublicDigest(testNet, inputs, testMaxPublic)
	assert.ErrorIs(t, err, ErrTooManyPublicInputs)

	// 补零不改变长度前缀
	a, err := PublicDigest(testNet, inputs[:2], testMaxPublic)
	require.NoError(t, err)
	b, err := PublicDigest(testNet, inputs[:3], testMaxPublic)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestNewFeeCircuitBounds(t *testing.T) {
	_, err := NewFeeCircuit(0, testMaxPublic)
	assert.ErrorIs(t, err, store.ErrInvalidDepth)
	_, err = NewFeeCircuit(testDepth, 0)
	assert.ErrorIs(t, err, ErrTooManyPublicInputs)

	_, err = New(Options{Scheme: "stark", MerkleDepth: testDepth}, nil)
	assert.ErrorIs(t, err, ErrUnsupportedScheme)
}

func TestBackendProveVerify(t *testing.T) {
	ctx := context.Background()
	b, err := New(Options{MerkleDepth: testDepth, MaxPublicInputs: testMaxPublic}, nil)
	require.NoError(t, err)
	assert.Equal(t, SchemeGroth16, b.Scheme())

	spend := sampleSpend(t, 77)
	root := spend.Path.Root
	spent := []vmiface.SpentRecord{spend.SpentRecord}
	a := sampleAssignment(11, 12, 13)
	require.True(t, a.IsSatisfied())

	proof, err := b.ProveFee(ctx, a, []vmiface.Spend{spend}, root)
	require.NoError(t, err)
	assert.NotEmpty(t, proof)

	require.NoError(t, b.VerifyFee(ctx, testNet, a.PublicInputs, root, spent, proof))

	// 篡改公开输入、状态根或被消费记录
	tampered := append([]network.Field(nil), a.PublicInputs...)
	tampered[1] = network.FieldFromUint64(99)
	assert.ErrorIs(t, b.VerifyFee(ctx, testNet, tampered, root, spent, proof), ErrProofVerificationFailed)
	assert.ErrorIs(t, b.VerifyFee(ctx, testNet, a.PublicInputs, network.FieldFromUint64(1), spent, proof), ErrProofVerificationFailed)
	other := sampleSpend(t, 78)
	assert.ErrorIs(t, b.VerifyFee(ctx, testNet, a.PublicInputs, root, []vmiface.SpentRecord{other.SpentRecord}, proof), ErrProofVerificationFailed)
	assert.ErrorIs(t, b.VerifyFee(ctx, testNet, a.PublicInputs, root, nil, proof), ErrProofVerificationFailed)

	// 无包含证明
	proof, err = b.ProveFee(ctx, a, nil, network.Field{})
	require.NoError(t, err)
	require.NoError(t, b.VerifyFee(ctx, testNet, a.PublicInputs, network.Field{}, nil, proof))

	stats, err := b.Stats(testNet)
	require.NoError(t, err)
	assert.Greater(t, stats.Constraints, 0)
	// PublicDigest、GlobalStateRoot、SerialNumber、Tag 与常数 1
	assert.Equal(t, 5, stats.Public)
}

func TestInclusionFreeProofCannotClaimRoot(t *testing.T) {
	ctx := context.Background()
	b, err := New(Options{MerkleDepth: testDepth, MaxPublicInputs: testMaxPublic}, nil)
	require.NoError(t, err)

	spend := sampleSpend(t, 77)
	a := sampleAssignment(21)

	// 后端拒绝为非零状态根生成无路径的证明
	_, err = b.ProveFee(ctx, a, nil, spend.Path.Root)
	assert.ErrorIs(t, err, ErrInvalidWitness)

	// 零状态根的证明不能被当作账本中记录的花费
	proof, err := b.ProveFee(ctx, a, nil, network.Field{})
	require.NoError(t, err)
	spent := []vmiface.SpentRecord{spend.SpentRecord}
	assert.ErrorIs(t, b.VerifyFee(ctx, testNet, a.PublicInputs, spend.Path.Root, spent, proof), ErrProofVerificationFailed)
	assert.ErrorIs(t, b.VerifyFee(ctx, testNet, a.PublicInputs, network.FieldFromUint64(999), spent, proof), ErrProofVerificationFailed)
	assert.ErrorIs(t, b.VerifyFee(ctx, testNet, a.PublicInputs, network.Field{}, spent, proof), ErrProofVerificationFailed)
}

func TestBackendRejectsUnsatisfied(t *testing.T) {
	b, err := New(Options{MerkleDepth: testDepth, MaxPublicInputs: testMaxPublic}, nil)
	require.NoError(t, err)

	env := circuit.NewEnvironment(testNet)
	env.AssertEqLabeled("mismatch", env.NewField(circuit.Public, network.FieldFromUint64(1)), env.Constant(network.FieldFromUint64(2)))

	_, err = b.ProveFee(context.Background(), env.Assignment(), nil, network.Field{})
	assert.ErrorIs(t, err, process.ErrConstraintUnsatisfied)
}

func TestBackendRejectsForeignRoot(t *testing.T) {
	b, err := New(Options{MerkleDepth: testDepth, MaxPublicInputs: testMaxPublic}, nil)
	require.NoError(t, err)
	spend := sampleSpend(t, 77)

	_, err = b.ProveFee(context.Background(), sampleAssignment(1), []vmiface.Spend{spend}, network.FieldFromUint64(5))
	assert.ErrorIs(t, err, ErrInvalidWitness)

	_, err = b.ProveFee(context.Background(), sampleAssignment(1), []vmiface.Spend{spend, spend}, spend.Path.Root)
	assert.ErrorIs(t, err, ErrInvalidWitness)
}

func TestSetupCacheEvictsLeastRecentlyUsed(t *testing.T) {
	b, err := New(Options{MerkleDepth: testDepth, MaxPublicInputs: testMaxPublic, SetupCacheSize: 1}, nil)
	require.NoError(t, err)

	_, err = b.Stats(network.BN254)
	require.NoError(t, err)
	_, err = b.Stats(network.BLS12381)
	require.NoError(t, err)

	assert.Equal(t, 1, b.setups.Len())
	bls := circuitKey(network.BLS12381, testDepth, testMaxPublic) + "/" + b.scheme.Name()
	assert.True(t, b.setups.Contains(bls))
}
