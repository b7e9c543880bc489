package circuit

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/zkvm/internal/core/vm/console"
	"github.com/weisyn/zkvm/internal/core/vm/network"
)

var testNet = network.BN254

func TestEnvironmentArithmetic(t *testing.T) {
	env := NewEnvironment(testNet)
	a := env.NewField(Private, network.FieldFromUint64(3))
	b := env.NewField(Public, network.FieldFromUint64(5))

	r2 := a.Add(b)
	r3 := a.Add(r2)
	r4 := r2.Add(r3)
	assert.Equal(t, network.FieldFromUint64(8), r2.Value())
	assert.Equal(t, network.FieldFromUint64(11), r3.Value())
	assert.Equal(t, network.FieldFromUint64(19), r4.Value())
	assert.Equal(t, network.FieldFromUint64(15), a.Mul(b).Value())
	assert.True(t, env.IsSatisfied())

	count := env.Count()
	assert.Equal(t, uint64(1), count.Public)
	assert.Equal(t, uint64(5), count.Private)
	assert.Equal(t, uint64(4), count.Constraints)
}

func TestConstantFolding(t *testing.T) {
	env := NewEnvironment(testNet)
	c := env.Constant(network.FieldFromUint64(2)).Add(env.Constant(network.FieldFromUint64(3)))
	assert.True(t, c.IsConstant())
	assert.Equal(t, uint64(0), env.Count().Constraints)
}

func TestAssertEqUnsatisfied(t *testing.T) {
	env := NewEnvironment(testNet)
	a := env.NewField(Private, network.FieldFromUint64(1))
	b := env.NewField(Public, network.FieldFromUint64(2))
	env.AssertEqLabeled("mismatch", a, b)
	assert.False(t, env.IsSatisfied())
	assert.Equal(t, []string{"mismatch"}, env.Unsatisfied())
	assert.False(t, env.Assignment().IsSatisfied())
}

func TestToBitsRangeCheck(t *testing.T) {
	env := NewEnvironment(testNet)
	small := env.NewField(Private, network.FieldFromUint64(255))
	bits := small.ToBits(8)
	require.Len(t, bits, 8)
	for _, b := range bits {
		assert.True(t, b.Bool())
	}
	assert.True(t, env.IsSatisfied())

	// 超出位宽的取值无法重组
	big := env.NewField(Private, network.FieldFromUint64(256))
	big.ToBits(8)
	assert.False(t, env.IsSatisfied())
}

func TestBooleanOps(t *testing.T) {
	env := NewEnvironment(testNet)
	tr := env.NewBoolean(Private, true)
	fa := env.NewBoolean(Private, false)
	assert.False(t, tr.And(fa).Bool())
	assert.True(t, fa.Not().Bool())
	env.Assert(tr)
	assert.True(t, env.IsSatisfied())
	env.Assert(fa)
	assert.False(t, env.IsSatisfied())
}

func TestGadgetsMatchNative(t *testing.T) {
	env := NewEnvironment(testNet)
	s, err := testNet.RandomScalar(rand.Reader)
	require.NoError(t, err)

	g := env.GScalarMultiply(env.NewScalar(Private, s))
	assert.Equal(t, testNet.GScalarMultiply(s), g.Value())

	p := console.NewU64(42)
	bits := env.InjectPlaintext(Private, p).Bits(env)
	native, err := testNet.HashBits(p.Bits(testNet))
	require.NoError(t, err)
	assert.Equal(t, native, env.HashBits(bits).Value())
	assert.True(t, env.IsSatisfied())
}

func TestGadgetFailureMarksUnsatisfied(t *testing.T) {
	env := NewEnvironment(testNet)
	bad := env.NewGroup(Private, network.Group{X: network.FieldFromUint64(1), Y: network.FieldFromUint64(1)})
	env.ScalarMultiply(bad, env.NewScalar(Private, network.Scalar(network.FieldFromUint64(2))))
	assert.Error(t, env.Err())
	assert.False(t, env.IsSatisfied())
}

func TestRecordCircuitMatchesConsole(t *testing.T) {
	key, err := console.NewPrivateKey(testNet, rand.Reader)
	require.NoError(t, err)
	r, err := testNet.RandomScalar(rand.Reader)
	require.NoError(t, err)

	record := &console.Record{
		Owner:     key.Address(testNet),
		OwnerMode: console.EntryPrivate,
		Entries: []console.Entry{
			{Name: console.MustIdentifier("microcredits"), Mode: console.EntryPrivate, Value: console.NewU64(9)},
		},
		Nonce: testNet.GScalarMultiply(r),
	}
	pid := console.MustProgramID("credits.zk")
	name := console.MustIdentifier("credits")

	env := NewEnvironment(testNet)
	cr := env.InjectRecord(Private, record)
	rs := env.NewScalar(Private, r)

	commitment, err := record.Commitment(testNet, pid, name)
	require.NoError(t, err)
	assert.Equal(t, commitment, cr.Commitment(env, pid, name).Value())

	ciphertext, err := record.Encrypt(testNet, r)
	require.NoError(t, err)
	cc := cr.Encrypt(env, rs)
	assert.True(t, ciphertext.Equal(cc.Eject()))

	checksum, err := ciphertext.Checksum(testNet)
	require.NoError(t, err)
	assert.Equal(t, checksum, cc.Checksum(env).Value())
	assert.True(t, record.Equal(cr.Eject()))
	assert.True(t, env.IsSatisfied())
}

func TestRequestVerifyInCircuit(t *testing.T) {
	key, err := console.NewPrivateKey(testNet, rand.Reader)
	require.NoError(t, err)
	record := &console.Record{
		Owner:     key.Address(testNet),
		OwnerMode: console.EntryPrivate,
		Entries: []console.Entry{
			{Name: console.MustIdentifier("microcredits"), Mode: console.EntryPrivate, Value: console.NewU64(9)},
		},
		Nonce: testNet.Generator(),
	}
	types := []console.ValueType{
		console.RecordType(console.MustIdentifier("credits")),
		console.PublicType(console.LiteralU64),
		console.PrivateType(console.LiteralField),
	}
	inputs := []console.Value{record, console.NewU64(1), console.NewFieldFromUint64(5)}
	req, err := console.SignRequest(testNet, key, console.MustProgramID("credits.zk"), console.MustIdentifier("fee"), inputs, types, rand.Reader)
	require.NoError(t, err)

	env := NewEnvironment(testNet)
	creq, err := env.InjectRequest(req, types)
	require.NoError(t, err)
	ok, err := creq.Verify(env, types)
	require.NoError(t, err)
	assert.True(t, ok.Bool())
	env.Assert(ok)
	assert.True(t, env.IsSatisfied())

	// 伪造签名响应
	req.Signature.Response = testNet.ScalarAdd(req.Signature.Response, network.Scalar(network.FieldFromUint64(1)))
	env = NewEnvironment(testNet)
	creq, err = env.InjectRequest(req, types)
	require.NoError(t, err)
	ok, err = creq.Verify(env, types)
	require.NoError(t, err)
	assert.False(t, ok.Bool())
}

func TestAssignmentOrdering(t *testing.T) {
	env := NewEnvironment(testNet)
	env.NewField(Public, network.FieldFromUint64(1))
	env.NewField(Private, network.FieldFromUint64(2))
	env.NewField(Public, network.FieldFromUint64(3))
	env.Constant(network.FieldFromUint64(4))

	a := env.Assignment()
	assert.Equal(t, []network.Field{network.FieldFromUint64(1), network.FieldFromUint64(3)}, a.PublicInputs)
	assert.Equal(t, []network.Field{network.FieldFromUint64(2)}, a.PrivateInputs)
	assert.True(t, a.IsSatisfied())
}
