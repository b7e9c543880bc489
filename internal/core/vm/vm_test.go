package vm

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	badgerconfig "github.com/weisyn/zkvm/internal/config/storage/badger"
	badgerstore "github.com/weisyn/zkvm/internal/core/infrastructure/storage/badger"
	"github.com/weisyn/zkvm/internal/core/vm/console"
	"github.com/weisyn/zkvm/internal/core/vm/network"
	"github.com/weisyn/zkvm/internal/core/vm/process"
	"github.com/weisyn/zkvm/internal/core/vm/program"
	"github.com/weisyn/zkvm/internal/core/vm/prover"
	"github.com/weisyn/zkvm/internal/core/vm/query"
	"github.com/weisyn/zkvm/internal/core/vm/store"
	"github.com/weisyn/zkvm/internal/core/vm/testutil"
	"github.com/weisyn/zkvm/internal/core/vm/transition"
)

const (
	testDepth         = 8
	testGenesisAmount = 100

	// feeBytesBN254Groth16 fee=1、深度 8、创世记录下的费用字节长度
	feeBytesBN254Groth16 = 723
)

var (
	testNet = network.BN254

	backendOnce sync.Once
	backend     *prover.Backend
	backendErr  error
)

// sharedBackend 测试共用的证明后端，可信设置只做一次
func sharedBackend(t *testing.T) *prover.Backend {
	t.Helper()
	backendOnce.Do(func() {
		backend, backendErr = prover.New(prover.Options{MerkleDepth: testDepth, MaxPublicInputs: 32}, nil)
	})
	require.NoError(t, backendErr)
	return backend
}

type feeSample struct {
	scheme     string
	proofBytes int
	err        error
}

type feeRecorder struct {
	mu      sync.Mutex
	samples []feeSample
}

func (r *feeRecorder) ObserveFee(scheme string, _ time.Duration, proofBytes int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, feeSample{scheme, proofBytes, err})
}

type callCounter struct {
	mu sync.Mutex
	n  int
}

func (c *callCounter) ObserveCall(process.CallMetrics, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
}

type fixture struct {
	vm     *VM
	key    console.PrivateKey
	record *console.Record
	fees   *feeRecorder
	calls  *callCounter
}

// newFixture 创世后返回可花费的 credits 记录
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	kv, err := badgerstore.New(badgerconfig.NewInMemory(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	blocks, err := store.Open(ctx, testNet, kv, testDepth, nil)
	require.NoError(t, err)

	calls := &callCounter{}
	fees := &feeRecorder{}
	v, err := New(process.New(testNet, process.WithRecorder(calls)), blocks, nil, sharedBackend(t), WithFeeRecorder(fees))
	require.NoError(t, err)

	key := testutil.PrivateKey(t, testNet, 42)
	genesis, err := v.Genesis(ctx, key, testGenesisAmount, testutil.RNG(42))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), genesis.Height)

	records := genesis.Transitions[0].Records()
	require.Len(t, records, 1)
	record, err := records[0].Record.Decrypt(testNet, key.ViewKey())
	require.NoError(t, err)
	commitment, err := record.Commitment(testNet, console.MustProgramID(program.CreditsProgramID), console.MustIdentifier(program.CreditsRecordName))
	require.NoError(t, err)
	require.Equal(t, records[0].Commitment, commitment)

	return &fixture{vm: v, key: key, record: record, fees: fees, calls: calls}
}

func TestExecuteFeeExactBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, fee, metrics, err := f.vm.ExecuteFeeRaw(ctx, f.key, f.record, testGenesisAmount, nil, testutil.RNG(1))
	require.NoError(t, err)
	require.NotNil(t, resp)
	require.Len(t, metrics, 1)
	assert.Equal(t, program.FeeFunction, metrics[0].FunctionName.String())

	amount, ok := fee.Amount()
	require.True(t, ok)
	assert.Equal(t, uint64(testGenesisAmount), amount)

	root, err := f.vm.BlockStore().CurrentStateRoot()
	require.NoError(t, err)
	assert.Equal(t, root, fee.GlobalStateRoot())

	proof, ok := fee.Proof()
	require.True(t, ok)
	assert.NotEmpty(t, proof)
	assert.True(t, fee.Transition().Verify(testNet))

	require.Len(t, f.fees.samples, 1)
	assert.NoError(t, f.fees.samples[0].err)
	assert.Equal(t, prover.SchemeGroth16, f.fees.samples[0].scheme)
	assert.Equal(t, len(proof), f.fees.samples[0].proofBytes)
}

func TestExecuteFeeInsufficientBalance(t *testing.T) {
	f := newFixture(t)
	before := f.calls.n

	_, _, _, err := f.vm.ExecuteFeeRaw(context.Background(), f.key, f.record, testGenesisAmount+1, nil, testutil.RNG(2))
	assert.ErrorIs(t, err, process.ErrInsufficientBalance)

	_, err = f.vm.ExecuteFee(context.Background(), f.key, f.record, testGenesisAmount+1, nil, testutil.RNG(2))
	assert.ErrorIs(t, err, process.ErrInsufficientBalance)

	// 余额检查先于电路执行
	assert.Equal(t, before, f.calls.n)
	require.Len(t, f.fees.samples, 2)
	assert.ErrorIs(t, f.fees.samples[0].err, process.ErrInsufficientBalance)
}

func TestExecuteFeeMalformedRecord(t *testing.T) {
	f := newFixture(t)

	wrongEntry := testutil.Record(testNet, f.key, testutil.TokenEntry, testGenesisAmount, f.record.Nonce)
	_, _, _, err := f.vm.ExecuteFeeRaw(context.Background(), f.key, wrongEntry, 1, nil, testutil.RNG(3))
	assert.ErrorIs(t, err, process.ErrMalformedFeeRecord)

	wrongType := f.record.Clone()
	wrongType.Entries[0].Value = console.NewFieldFromUint64(testGenesisAmount)
	_, _, _, err = f.vm.ExecuteFeeRaw(context.Background(), f.key, wrongType, 1, nil, testutil.RNG(3))
	assert.ErrorIs(t, err, process.ErrMalformedFeeRecord)
}

func TestFeeSizeIsDeterministic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, a, _, err := f.vm.ExecuteFeeRaw(ctx, f.key, f.record, 1, nil, testutil.RNG(4))
	require.NoError(t, err)
	_, b, _, err := f.vm.ExecuteFeeRaw(ctx, f.key, f.record, 1, nil, testutil.RNG(5))
	require.NoError(t, err)
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, len(a.Bytes()), len(b.Bytes()))
	assert.Len(t, a.Bytes(), feeBytesBN254Groth16)

	// 版本 | 转换 | 状态根 | 证明标记 | 长度前缀 + 证明
	proof, _ := a.Proof()
	expected := 1 + len(a.Transition().Bytes()) + network.FieldSize + 1 + 4 + len(proof)
	assert.Equal(t, expected, len(a.Bytes()))

	decoded, err := transition.FeeFromBytes(a.Bytes())
	require.NoError(t, err)
	assert.Equal(t, a.Bytes(), decoded.Bytes())

	tx, err := f.vm.ExecuteFee(ctx, f.key, f.record, 1, nil, testutil.RNG(4))
	require.NoError(t, err)
	assert.Equal(t, transition.TransactionFee, tx.Kind())
	assert.Len(t, tx.Fee().Bytes(), len(a.Bytes()))
}

func TestFeeProofVerifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	exec, err := f.vm.executeFee(ctx, f.key, f.record, 10, nil, testutil.RNG(6))
	require.NoError(t, err)
	require.NoError(t, f.vm.VerifyFee(ctx, exec.fee, exec.publicInputs))

	tampered := append([]network.Field(nil), exec.publicInputs...)
	tampered[0] = network.FieldFromUint64(1)
	assert.ErrorIs(t, f.vm.VerifyFee(ctx, exec.fee, tampered), prover.ErrProofVerificationFailed)

	unproven := transition.NewFee(exec.fee.Transition(), exec.fee.GlobalStateRoot(), nil)
	assert.ErrorIs(t, f.vm.VerifyFee(ctx, unproven, exec.publicInputs), ErrFeeNotProven)
}

func TestFeeProofBoundToStateRoot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	exec, err := f.vm.executeFee(ctx, f.key, f.record, 10, nil, testutil.RNG(6))
	require.NoError(t, err)
	proof, ok := exec.fee.Proof()
	require.True(t, ok)

	// 去掉状态根：花费记录的费用必须带包含证明
	rootless := transition.NewFee(exec.fee.Transition(), network.Field{}, proof)
	assert.ErrorIs(t, f.vm.VerifyFee(ctx, rootless, exec.publicInputs), prover.ErrProofVerificationFailed)

	// 换成之后区块的已知状态根
	_, err = f.vm.AddNextBlock(ctx, []*transition.Transition{exec.fee.Transition()})
	require.NoError(t, err)
	later, err := f.vm.blocks.CurrentStateRoot()
	require.NoError(t, err)
	require.NotEqual(t, exec.fee.GlobalStateRoot(), later)
	moved := transition.NewFee(exec.fee.Transition(), later, proof)
	assert.ErrorIs(t, f.vm.VerifyFee(ctx, moved, exec.publicInputs), prover.ErrProofVerificationFailed)
}

func TestFeeSpendsRecordOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, first, _, err := f.vm.ExecuteFeeRaw(ctx, f.key, f.record, 5, nil, testutil.RNG(7))
	require.NoError(t, err)
	block, err := f.vm.AddNextBlock(ctx, []*transition.Transition{first.Transition()})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), block.Height)

	// 同一记录的第二笔费用在入块时被拒绝
	_, second, _, err := f.vm.ExecuteFeeRaw(ctx, f.key, f.record, 5, nil, testutil.RNG(8))
	require.NoError(t, err)
	_, err = f.vm.AddNextBlock(ctx, []*transition.Transition{second.Transition()})
	assert.ErrorIs(t, err, store.ErrDoubleSpend)
}

func TestExecuteFeeWithStaticQuery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 不含该记录的静态视图
	other, err := store.NewCommitmentTree(testNet, testDepth)
	require.NoError(t, err)
	require.NoError(t, other.Append(network.FieldFromUint64(9)))
	otherRoot, err := other.Root()
	require.NoError(t, err)
	static, err := query.NewStatic(otherRoot)
	require.NoError(t, err)

	_, _, _, err = f.vm.ExecuteFeeRaw(ctx, f.key, f.record, 1, static, testutil.RNG(9))
	assert.ErrorIs(t, err, store.ErrCommitmentNotFound)

	// 以区块存储导出的路径构造静态视图
	require.Equal(t, 1, f.vm.BlockStore().Tree().Len())
	root, err := f.vm.BlockStore().CurrentStateRoot()
	require.NoError(t, err)
	block, err := f.vm.BlockStore().GetBlock(ctx, 0)
	require.NoError(t, err)
	path, err := f.vm.BlockStore().StatePath(block.Commitments()[0])
	require.NoError(t, err)
	static, err = query.NewStatic(root, path)
	require.NoError(t, err)

	_, fee, _, err := f.vm.ExecuteFeeRaw(ctx, f.key, f.record, 1, static, testutil.RNG(10))
	require.NoError(t, err)
	assert.Equal(t, root, fee.GlobalStateRoot())
}

func TestGenesisOnlyOnce(t *testing.T) {
	f := newFixture(t)
	_, err := f.vm.Genesis(context.Background(), f.key, 1, testutil.RNG(11))
	assert.ErrorIs(t, err, ErrGenesisExists)
}

func TestNewRejectsNetworkMismatch(t *testing.T) {
	kv, err := badgerstore.New(badgerconfig.NewInMemory(), nil)
	require.NoError(t, err)
	defer kv.Close()
	blocks, err := store.Open(context.Background(), network.BLS12381, kv, testDepth, nil)
	require.NoError(t, err)

	_, err = New(process.New(testNet), blocks, nil, sharedBackend(t))
	assert.ErrorIs(t, err, ErrNetworkMismatch)
}
