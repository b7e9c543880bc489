package program_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/zkvm/internal/core/vm/circuit"
	"github.com/weisyn/zkvm/internal/core/vm/console"
	"github.com/weisyn/zkvm/internal/core/vm/network"
	"github.com/weisyn/zkvm/internal/core/vm/program"
	"github.com/weisyn/zkvm/internal/core/vm/testutil"
)

var testNet = network.BN254

func TestProgramDefinitions(t *testing.T) {
	p := program.Credits()
	assert.Equal(t, program.CreditsProgramID, p.ID().String())

	_, err := p.GetFunction(console.MustIdentifier("transfer"))
	assert.ErrorIs(t, err, program.ErrFunctionNotFound)

	err = p.AddRecord(&program.RecordType{Name: console.MustIdentifier(program.CreditsRecordName)})
	assert.ErrorIs(t, err, program.ErrDuplicateDefinition)

	err = p.AddRecord(&program.RecordType{
		Name:    console.MustIdentifier("bad"),
		Entries: []program.EntryType{{Name: console.MustIdentifier("owner"), Type: console.LiteralU64}},
	})
	assert.ErrorIs(t, err, program.ErrDuplicateDefinition)

	err = p.AddFunction(&program.Function{
		Name:   console.MustIdentifier("burn"),
		Inputs: []program.Input{{Register: 0, Type: console.RecordType(console.MustIdentifier("missing"))}},
	})
	assert.ErrorIs(t, err, program.ErrRecordTypeNotFound)
}

func TestEvaluateCreditsFee(t *testing.T) {
	stack := program.NewStack(testNet, program.Credits())
	fn, err := stack.Program().GetFunction(console.MustIdentifier(program.FeeFunction))
	require.NoError(t, err)

	key := testutil.PrivateKey(t, testNet, 1)
	record := testutil.Record(testNet, key, program.BalanceEntry, 10, testNet.Generator())

	outputs, err := stack.EvaluateFunction(fn, []console.Value{record, console.NewU64(3)})
	require.NoError(t, err)
	require.Len(t, outputs, 1)

	out, ok := outputs[0].(*console.Record)
	require.True(t, ok)
	assert.Equal(t, key.Address(testNet), out.Owner)
	assert.Equal(t, network.Identity(), out.Nonce)
	entry, found := out.Find(console.MustIdentifier(program.BalanceEntry))
	require.True(t, found)
	balance, _ := entry.Value.Uint64()
	assert.Equal(t, uint64(7), balance)

	_, err = stack.EvaluateFunction(fn, []console.Value{record, console.NewU64(11)})
	assert.ErrorIs(t, err, program.ErrArithmetic)

	_, err = stack.EvaluateFunction(fn, []console.Value{record})
	assert.ErrorIs(t, err, program.ErrArity)

	_, err = stack.EvaluateFunction(fn, []console.Value{console.NewU64(1), console.NewU64(3)})
	assert.ErrorIs(t, err, console.ErrTypeMismatch)
}

func TestU64Overflow(t *testing.T) {
	p := program.New(console.MustProgramID("math.zk"))
	require.NoError(t, p.AddFunction(&program.Function{
		Name: console.MustIdentifier("double"),
		Inputs: []program.Input{
			{Register: 0, Type: console.PublicType(console.LiteralU64)},
		},
		Instructions: []program.Instruction{
			program.Mul(program.Reg(0), program.Lit(console.NewU64(2)), 1),
		},
		Outputs: []program.Output{{Operand: program.Reg(1), Type: console.PublicType(console.LiteralU64)}},
	}))
	stack := program.NewStack(testNet, p)
	fn, err := p.GetFunction(console.MustIdentifier("double"))
	require.NoError(t, err)

	out, err := stack.EvaluateFunction(fn, []console.Value{console.NewU64(21)})
	require.NoError(t, err)
	assert.True(t, console.NewU64(42).Equal(out[0].(console.Plaintext)))

	_, err = stack.EvaluateFunction(fn, []console.Value{console.NewU64(1 << 63)})
	assert.ErrorIs(t, err, program.ErrArithmetic)

	// 电路中溢出表现为约束不满足
	env := circuit.NewEnvironment(testNet)
	in := env.InjectPlaintext(circuit.Public, console.NewU64(1<<63))
	_, err = stack.ExecuteFunction(env, fn, []circuit.Value{in})
	require.NoError(t, err)
	assert.False(t, env.IsSatisfied())
}

func TestExecuteMatchesEvaluate(t *testing.T) {
	stack := program.NewStack(testNet, testutil.TokenProgram())
	fn, err := stack.Program().GetFunction(console.MustIdentifier(testutil.ComputeFn))
	require.NoError(t, err)
	assert.Equal(t, 5, stack.InstructionCount(fn))

	key := testutil.PrivateKey(t, testNet, 2)
	inputs := []console.Value{
		console.NewFieldFromUint64(3),
		console.NewFieldFromUint64(5),
		testutil.Record(testNet, key, testutil.TokenEntry, 100, testNet.Generator()),
	}
	plain, err := stack.EvaluateFunction(fn, inputs)
	require.NoError(t, err)
	require.Len(t, plain, 4)
	assert.True(t, console.NewFieldFromUint64(19).Equal(plain[1].(console.Plaintext)))
	assert.True(t, console.NewFieldFromUint64(11).Equal(plain[2].(console.Plaintext)))
	assert.True(t, console.NewFieldFromUint64(8).Equal(plain[3].(console.Plaintext)))

	env := circuit.NewEnvironment(testNet)
	cinputs := make([]circuit.Value, len(inputs))
	for i, in := range inputs {
		cinputs[i], err = env.InjectValue(circuit.ModeOf(fn.Inputs[i].Type), in)
		require.NoError(t, err)
	}
	outs, err := stack.ExecuteFunction(env, fn, cinputs)
	require.NoError(t, err)
	require.Len(t, outs, len(plain))
	assert.True(t, plain[0].(*console.Record).Equal(circuit.Eject(outs[0]).(*console.Record)))
	for i := 1; i < len(plain); i++ {
		assert.True(t, plain[i].(console.Plaintext).Equal(circuit.Eject(outs[i]).(console.Plaintext)), "output %d", i)
	}
	assert.True(t, env.IsSatisfied())
}

func TestExecuteRejectsShapeMismatch(t *testing.T) {
	stack := program.NewStack(testNet, program.Credits())
	fn, err := stack.Program().GetFunction(console.MustIdentifier(program.FeeFunction))
	require.NoError(t, err)

	env := circuit.NewEnvironment(testNet)
	_, err = stack.ExecuteFunction(env, fn, []circuit.Value{
		env.InjectPlaintext(circuit.Private, console.NewU64(1)),
		env.InjectPlaintext(circuit.Public, console.NewU64(1)),
	})
	assert.ErrorIs(t, err, console.ErrTypeMismatch)
}
