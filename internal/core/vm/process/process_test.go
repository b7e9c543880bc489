package process_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/zkvm/internal/core/vm/circuit"
	"github.com/weisyn/zkvm/internal/core/vm/console"
	"github.com/weisyn/zkvm/internal/core/vm/network"
	"github.com/weisyn/zkvm/internal/core/vm/process"
	"github.com/weisyn/zkvm/internal/core/vm/program"
	"github.com/weisyn/zkvm/internal/core/vm/testutil"
)

var testNet = network.BN254

type recorder struct {
	mu    sync.Mutex
	calls []process.CallMetrics
	sat   []bool
}

func (r *recorder) ObserveCall(m process.CallMetrics, satisfied bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, m)
	r.sat = append(r.sat, satisfied)
}

func newProcess(t *testing.T, opts ...process.Option) *process.Process {
	t.Helper()
	p := process.New(testNet, opts...)
	require.NoError(t, p.AddProgram(testutil.TokenProgram()))
	return p
}

func plainField(t *testing.T, v console.Value) network.Field {
	t.Helper()
	p, ok := v.(console.Plaintext)
	require.True(t, ok, "expected plaintext, got %T", v)
	return p.Field()
}

func TestEvaluateCompute(t *testing.T) {
	p := newProcess(t)
	key := testutil.PrivateKey(t, testNet, 1)
	req := testutil.ComputeRequest(t, testNet, key, 100, testutil.RNG(1))

	resp, err := p.Evaluate(req)
	require.NoError(t, err)
	require.Len(t, resp.Outputs, 4)

	// r2 = 3+5, r3 = 3+r2, r4 = r2+r3；函数输出顺序为 r4, r3, r2
	assert.Equal(t, network.FieldFromUint64(19), plainField(t, resp.Outputs[1]))
	assert.Equal(t, network.FieldFromUint64(11), plainField(t, resp.Outputs[2]))
	assert.Equal(t, network.FieldFromUint64(8), plainField(t, resp.Outputs[3]))

	record, ok := resp.Outputs[0].(*console.Record)
	require.True(t, ok)
	entry, found := record.Find(console.MustIdentifier(testutil.TokenEntry))
	require.True(t, found)
	amount, _ := entry.Value.Uint64()
	assert.Equal(t, uint64(100), amount)
}

func TestExecuteAgreesWithEvaluate(t *testing.T) {
	rec := &recorder{}
	p := newProcess(t, process.WithRecorder(rec), process.WithCircuitLogging(true))
	key := testutil.PrivateKey(t, testNet, 2)
	req := testutil.ComputeRequest(t, testNet, key, 42, testutil.RNG(2))

	resp, err := p.Evaluate(req)
	require.NoError(t, err)
	call, err := p.ExecuteCall(req)
	require.NoError(t, err)
	require.True(t, call.IsSatisfied(), "unsatisfied: %v", call.Assignment.Unsatisfied())

	require.Len(t, call.Outputs, len(resp.Outputs))
	for i := 1; i < 4; i++ {
		out, ok := call.Outputs[i].(circuit.Plaintext)
		require.True(t, ok)
		assert.Equal(t, resp.Outputs[i], out.Eject(), "output %d", i)
	}
	record, ok := call.Outputs[0].(*circuit.Record)
	require.True(t, ok)
	assert.True(t, record.Eject().Equal(resp.Outputs[0].(*console.Record)))

	// 轨迹叶子即输出标识
	require.True(t, call.Trace.IsFinalized())
	leaves := call.Trace.Leaves()
	require.Len(t, leaves, 4)
	for i, id := range call.Response.OutputIDs {
		assert.Equal(t, id.ID, leaves[i])
	}

	// 转换与响应一致
	assert.Equal(t, []network.Field{resp.OutputIDs[0].ID}, call.Transition.Commitments())
	assert.Len(t, call.Transition.SerialNumbers(), 1)
	assert.True(t, call.Transition.Verify(testNet))

	require.Len(t, rec.calls, 1)
	assert.True(t, rec.sat[0])
	assert.Equal(t, testutil.ComputeFn, rec.calls[0].FunctionName.String())
	assert.Greater(t, rec.calls[0].NumInstructions, 0)
	assert.Greater(t, rec.calls[0].NumResponse.Constraints, uint64(0))
	assert.Equal(t, call.Assignment.NumConstraints, rec.calls[0].TotalConstraints)

	outputs, err := p.Execute(req)
	require.NoError(t, err)
	assert.Len(t, outputs, 4)
}

func TestOutputRandomizerIndex(t *testing.T) {
	key := testutil.PrivateKey(t, testNet, 3)
	req := testutil.ComputeRequest(t, testNet, key, 7, testutil.RNG(3))

	a, err := newProcess(t).Evaluate(req)
	require.NoError(t, err)
	b, err := newProcess(t).Evaluate(req)
	require.NoError(t, err)
	assert.Equal(t, a.OutputIDs, b.OutputIDs)

	// 记录输出位于第 0 位，共 3 个输入：下标 3
	r, err := console.InputRandomizer(testNet, req.TVK, len(req.Inputs)+0)
	require.NoError(t, err)
	assert.Equal(t, testNet.GScalarMultiply(r), a.OutputIDs[0].Nonce)

	// 私有输出位于第 1 位：下标 4
	r, err = console.InputRandomizer(testNet, req.TVK, len(req.Inputs)+1)
	require.NoError(t, err)
	expected, err := testNet.CommitBits(a.Outputs[1].(console.Plaintext).Bits(testNet), r)
	require.NoError(t, err)
	assert.Equal(t, expected, a.OutputIDs[1].ID)
}

func TestExecuteExternalRecordOutput(t *testing.T) {
	p := process.New(testNet)
	require.NoError(t, p.AddProgram(testutil.RelayProgram()))
	key := testutil.PrivateKey(t, testNet, 11)
	req := testutil.RelayRequest(t, testNet, key, 33, testutil.RNG(11))

	call, err := p.ExecuteCall(req)
	require.NoError(t, err)
	require.True(t, call.IsSatisfied(), "unsatisfied: %v", call.Assignment.Unsatisfied())

	// 外部记录输出以记录位串哈希作为轨迹叶子
	leaves := call.Trace.Leaves()
	require.Len(t, leaves, 2)
	assert.Equal(t, call.Response.OutputIDs[0].ID, leaves[0])
	expected, err := testNet.HashBits(req.Inputs[0].(*console.Record).Bits(testNet))
	require.NoError(t, err)
	assert.Equal(t, expected, leaves[0])

	outputs := call.Transition.Outputs()
	require.Len(t, outputs, 2)
	assert.Equal(t, uint8(console.ValueExternalRecord), outputs[0].Variant())
	assert.Equal(t, leaves[0], outputs[0].ID())
	assert.True(t, outputs[0].Verify(testNet))
}

// plaintextRecordStack 在电路路径中把记录输出替换为明文
type plaintextRecordStack struct {
	*program.Stack
}

func (s plaintextRecordStack) ExecuteFunction(env *circuit.Environment, fn *program.Function, inputs []circuit.Value) ([]circuit.Value, error) {
	outputs, err := s.Stack.ExecuteFunction(env, fn, inputs)
	if err != nil {
		return nil, err
	}
	outputs[0] = outputs[1]
	return outputs, nil
}

func TestExecuteRejectsPlaintextForRecordOutput(t *testing.T) {
	p := process.New(testNet)
	require.NoError(t, p.AddStack(plaintextRecordStack{program.NewStack(testNet, testutil.TokenProgram())}))
	key := testutil.PrivateKey(t, testNet, 12)
	req := testutil.ComputeRequest(t, testNet, key, 5, testutil.RNG(12))

	// 明文路径不受影响
	_, err := p.Evaluate(req)
	require.NoError(t, err)

	_, err = p.ExecuteCall(req)
	assert.ErrorIs(t, err, process.ErrTypeMismatch)
}

func TestRequestFailures(t *testing.T) {
	p := newProcess(t)
	key := testutil.PrivateKey(t, testNet, 4)

	t.Run("tampered tcm", func(t *testing.T) {
		req := testutil.ComputeRequest(t, testNet, key, 5, testutil.RNG(4))
		req.TCM = network.FieldFromUint64(1)
		_, err := p.Evaluate(req)
		assert.ErrorIs(t, err, process.ErrInvalidRequest)
		_, err = p.Execute(req)
		assert.ErrorIs(t, err, process.ErrInvalidRequest)
	})

	t.Run("arity", func(t *testing.T) {
		req := testutil.ComputeRequest(t, testNet, key, 5, testutil.RNG(5))
		req.Inputs = req.Inputs[:2]
		_, err := p.Evaluate(req)
		assert.ErrorIs(t, err, process.ErrArityMismatch)
		_, err = p.Execute(req)
		assert.ErrorIs(t, err, process.ErrArityMismatch)
	})

	t.Run("program not found", func(t *testing.T) {
		req := testutil.ComputeRequest(t, testNet, key, 5, testutil.RNG(6))
		req.ProgramID = console.MustProgramID("missing.zk")
		_, err := p.Evaluate(req)
		assert.ErrorIs(t, err, process.ErrProgramNotFound)
	})

	t.Run("function not found", func(t *testing.T) {
		req := testutil.ComputeRequest(t, testNet, key, 5, testutil.RNG(7))
		req.FunctionName = console.MustIdentifier("transfer")
		_, err := p.Execute(req)
		assert.ErrorIs(t, err, process.ErrFunctionNotFound)
	})
}

func TestAddProgram(t *testing.T) {
	p := newProcess(t)
	assert.True(t, p.ContainsProgram(console.MustProgramID(testutil.TokenProgramID)))
	assert.True(t, p.ContainsProgram(console.MustProgramID(program.CreditsProgramID)))
	assert.ErrorIs(t, p.AddProgram(testutil.TokenProgram()), program.ErrDuplicateDefinition)

	_, err := p.GetStack(console.MustProgramID("missing.zk"))
	assert.ErrorIs(t, err, process.ErrProgramNotFound)
}

func TestTrace(t *testing.T) {
	key := testutil.PrivateKey(t, testNet, 5)
	req := testutil.ComputeRequest(t, testNet, key, 1, testutil.RNG(8))

	trace := process.NewTrace(testNet, req)
	trace.AddOutput(network.FieldFromUint64(1))
	trace.AddOutput(network.FieldFromUint64(2))
	_, ok := trace.Digest()
	assert.False(t, ok)

	require.NoError(t, trace.Finalize())
	digest, ok := trace.Digest()
	assert.True(t, ok)
	assert.NotEqual(t, network.Field{}, digest)

	assert.ErrorIs(t, trace.Finalize(), process.ErrTraceFinalized)
	assert.Panics(t, func() { trace.AddOutput(network.FieldFromUint64(3)) })

	other := process.NewTrace(testNet, req)
	other.AddOutput(network.FieldFromUint64(2))
	other.AddOutput(network.FieldFromUint64(1))
	require.NoError(t, other.Finalize())
	reordered, _ := other.Digest()
	assert.NotEqual(t, digest, reordered)
}

func TestCheckFeeRecord(t *testing.T) {
	key := testutil.PrivateKey(t, testNet, 6)
	record := testutil.Record(testNet, key, program.BalanceEntry, 50, testNet.Generator())

	assert.NoError(t, process.CheckFeeRecord(record, 49))
	assert.NoError(t, process.CheckFeeRecord(record, 50))
	assert.ErrorIs(t, process.CheckFeeRecord(record, 51), process.ErrInsufficientBalance)

	missing := testutil.Record(testNet, key, "balance", 50, testNet.Generator())
	assert.ErrorIs(t, process.CheckFeeRecord(missing, 1), process.ErrMalformedFeeRecord)

	wrongType := record.Clone()
	wrongType.Entries[0].Value = console.NewFieldFromUint64(50)
	assert.ErrorIs(t, process.CheckFeeRecord(wrongType, 1), process.ErrMalformedFeeRecord)

	public := record.Clone()
	public.Entries[0].Mode = console.EntryPublic
	assert.ErrorIs(t, process.CheckFeeRecord(public, 1), process.ErrMalformedFeeRecord)

	assert.ErrorIs(t, process.CheckFeeRecord(nil, 1), process.ErrMalformedFeeRecord)
}

func TestPrepareFee(t *testing.T) {
	p := newProcess(t)
	key := testutil.PrivateKey(t, testNet, 7)
	record := testutil.Record(testNet, key, program.BalanceEntry, 20, testNet.Generator())

	call, err := p.PrepareFee(key, record, 20, testutil.RNG(9))
	require.NoError(t, err)
	require.True(t, call.IsSatisfied(), "unsatisfied: %v", call.Assignment.Unsatisfied())
	require.NotNil(t, call.Inclusion)

	inputs := call.Transition.Inputs()
	require.Len(t, inputs, 2)
	amount, ok := inputs[1].Plaintext()
	require.True(t, ok)
	value, _ := amount.Uint64()
	assert.Equal(t, uint64(20), value)

	// 找零记录余额为 0
	change, ok := call.Outputs[0].(*circuit.Record)
	require.True(t, ok)
	entry, found := change.Eject().Find(console.MustIdentifier(program.BalanceEntry))
	require.True(t, found)
	balance, _ := entry.Value.Uint64()
	assert.Equal(t, uint64(0), balance)
	assert.Len(t, call.Transition.SerialNumbers(), 1)
	assert.Len(t, call.Transition.Commitments(), 1)

	_, err = p.PrepareFee(key, record, 21, testutil.RNG(10))
	assert.ErrorIs(t, err, process.ErrInsufficientBalance)
}

func TestMint(t *testing.T) {
	p := newProcess(t)
	key := testutil.PrivateKey(t, testNet, 8)

	call, err := p.Mint(key, key.Address(testNet), 1000, testutil.RNG(11))
	require.NoError(t, err)
	require.True(t, call.IsSatisfied())

	records := call.Transition.Records()
	require.Len(t, records, 1)
	decrypted, err := records[0].Record.Decrypt(testNet, key.ViewKey())
	require.NoError(t, err)
	entry, found := decrypted.Find(console.MustIdentifier(program.BalanceEntry))
	require.True(t, found)
	balance, _ := entry.Value.Uint64()
	assert.Equal(t, uint64(1000), balance)
}
