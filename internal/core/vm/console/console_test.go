package console

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/zkvm/internal/core/vm/network"
)

var testNet = network.BN254

func newTestKey(t *testing.T) PrivateKey {
	t.Helper()
	key, err := NewPrivateKey(testNet, rand.Reader)
	require.NoError(t, err)
	return key
}

func sampleRecord(owner network.Group, amount uint64) *Record {
	return &Record{
		Owner:     owner,
		OwnerMode: EntryPrivate,
		Entries: []Entry{
			{Name: MustIdentifier("microcredits"), Mode: EntryPrivate, Value: NewU64(amount)},
			{Name: MustIdentifier("memo"), Mode: EntryPublic, Value: NewFieldFromUint64(7)},
		},
		Nonce: network.Identity(),
	}
}

func TestIdentifierValidation(t *testing.T) {
	_, err := NewIdentifier("microcredits")
	assert.NoError(t, err)
	_, err = NewIdentifier("1abc")
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
	_, err = NewIdentifier("has.dot")
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
	_, err = NewIdentifier("")
	assert.ErrorIs(t, err, ErrInvalidIdentifier)

	pid, err := NewProgramID("credits.zk")
	require.NoError(t, err)
	assert.Equal(t, "credits.zk", pid.String())
	_, err = NewProgramID("credits")
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
}

func TestPlaintextValidate(t *testing.T) {
	assert.NoError(t, NewU64(10).Validate(testNet))
	assert.NoError(t, NewBoolean(true).Validate(testNet))

	bad := Plaintext{Type: LiteralU64, Fields: []network.Field{network.Domain("big")}}
	assert.ErrorIs(t, bad.Validate(testNet), ErrInvalidLiteral)

	notOnCurve := NewAddress(network.Group{X: network.FieldFromUint64(1), Y: network.FieldFromUint64(1)})
	assert.ErrorIs(t, notOnCurve.Validate(testNet), ErrInvalidLiteral)
}

func TestPlaintextBitsWidth(t *testing.T) {
	assert.Len(t, NewU64(1).Bits(testNet), 8+64)
	assert.Len(t, NewBoolean(true).Bits(testNet), 8+1)
	assert.Len(t, NewFieldFromUint64(1).Bits(testNet), 8+testNet.FieldBits())
}

func TestRecordEncryptDecrypt(t *testing.T) {
	key := newTestKey(t)
	r, err := testNet.RandomScalar(rand.Reader)
	require.NoError(t, err)

	record := sampleRecord(key.Address(testNet), 100).WithNonce(testNet.GScalarMultiply(r))
	ciphertext, err := record.Encrypt(testNet, r)
	require.NoError(t, err)

	// 私有条目被加密，公开条目保持明文
	assert.NotEqual(t, record.Entries[0].Value.Fields[0], ciphertext.Entries[0].Fields[0])
	assert.Equal(t, record.Entries[1].Value.Fields[0], ciphertext.Entries[1].Fields[0])

	decrypted, err := ciphertext.Decrypt(testNet, key.ViewKey())
	require.NoError(t, err)
	assert.True(t, record.Equal(decrypted))

	other := newTestKey(t)
	_, err = ciphertext.Decrypt(testNet, other.ViewKey())
	assert.Error(t, err)
}

func TestRecordCiphertextCodec(t *testing.T) {
	key := newTestKey(t)
	r, err := testNet.RandomScalar(rand.Reader)
	require.NoError(t, err)
	record := sampleRecord(key.Address(testNet), 5).WithNonce(testNet.GScalarMultiply(r))
	ciphertext, err := record.Encrypt(testNet, r)
	require.NoError(t, err)

	w := NewWriter()
	ciphertext.Write(w)
	reader := NewReader(w.Bytes())
	decoded := ReadRecordCiphertext(reader)
	require.NoError(t, reader.Finish())
	assert.True(t, ciphertext.Equal(decoded))

	truncated := NewReader(w.Bytes()[:len(w.Bytes())-1])
	ReadRecordCiphertext(truncated)
	assert.ErrorIs(t, truncated.Err(), ErrSerialization)
}

func TestCommitmentDependsOnNonce(t *testing.T) {
	key := newTestKey(t)
	pid := MustProgramID("credits.zk")
	name := MustIdentifier("credits")

	record := sampleRecord(key.Address(testNet), 1)
	c1, err := record.Commitment(testNet, pid, name)
	require.NoError(t, err)
	c2, err := record.WithNonce(testNet.Generator()).Commitment(testNet, pid, name)
	require.NoError(t, err)
	assert.NotEqual(t, c1, c2)
}

func TestSignatureSignVerify(t *testing.T) {
	key := newTestKey(t)
	msg := []network.Field{network.FieldFromUint64(1), network.FieldFromUint64(2)}
	sig, err := key.Sign(testNet, msg, rand.Reader)
	require.NoError(t, err)
	assert.True(t, sig.Verify(testNet, key.Address(testNet), msg))

	msg[1] = network.FieldFromUint64(3)
	assert.False(t, sig.Verify(testNet, key.Address(testNet), msg))
}

func TestSignRequestAndVerify(t *testing.T) {
	key := newTestKey(t)
	pid := MustProgramID("credits.zk")
	record := sampleRecord(key.Address(testNet), 50)
	inputs := []Value{record, NewU64(3), NewFieldFromUint64(9)}
	types := []ValueType{RecordType(MustIdentifier("credits")), PublicType(LiteralU64), PrivateType(LiteralField)}

	req, err := SignRequest(testNet, key, pid, MustIdentifier("fee"), inputs, types, rand.Reader)
	require.NoError(t, err)
	require.NoError(t, req.Verify(testNet, types))

	tcm, err := testNet.HashFields([]network.Field{req.TVK})
	require.NoError(t, err)
	assert.Equal(t, tcm, req.TCM)

	// tvk 可由接收方通过 tpk 恢复
	recovered, err := testNet.ScalarMultiply(req.TPK, key.ViewKey())
	require.NoError(t, err)
	assert.Equal(t, req.TVK, recovered.X)

	// 篡改输入后校验失败
	req.Inputs[1] = NewU64(4)
	assert.ErrorIs(t, req.Verify(testNet, types), ErrInvalidRequest)
}

func TestSignRequestRejectsForeignRecord(t *testing.T) {
	key := newTestKey(t)
	other := newTestKey(t)
	record := sampleRecord(other.Address(testNet), 50)
	_, err := SignRequest(testNet, key, MustProgramID("credits.zk"), MustIdentifier("fee"),
		[]Value{record}, []ValueType{RecordType(MustIdentifier("credits"))}, rand.Reader)
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestNewResponseRandomizerIndex(t *testing.T) {
	key := newTestKey(t)
	pid := MustProgramID("token.zk")
	tvk := network.FieldFromUint64(77)
	outputs := []Value{NewFieldFromUint64(8), sampleRecord(key.Address(testNet), 1)}
	types := []ValueType{PrivateType(LiteralField), RecordType(MustIdentifier("token"))}

	resp, err := NewResponse(testNet, pid, 3, tvk, outputs, types)
	require.NoError(t, err)

	// 私有输出在索引 3+0 下承诺
	r0, err := InputRandomizer(testNet, tvk, 3)
	require.NoError(t, err)
	expected, err := testNet.CommitBits(NewFieldFromUint64(8).Bits(testNet), r0)
	require.NoError(t, err)
	assert.Equal(t, expected, resp.OutputIDs[0].ID)

	// 记录输出在索引 3+1 下赋予随机数点
	r1, err := InputRandomizer(testNet, tvk, 4)
	require.NoError(t, err)
	assert.Equal(t, testNet.GScalarMultiply(r1), resp.OutputIDs[1].Nonce)
	record := resp.Outputs[1].(*Record)
	assert.Equal(t, resp.OutputIDs[1].Nonce, record.Nonce)

	checksum, err := resp.Ciphertexts[1].Checksum(testNet)
	require.NoError(t, err)
	assert.Equal(t, checksum, resp.OutputIDs[1].Checksum)

	// 同一输入得到同一结果
	again, err := NewResponse(testNet, pid, 3, tvk, outputs, types)
	require.NoError(t, err)
	assert.Equal(t, resp.OutputIDs, again.OutputIDs)
}

func TestCheckValue(t *testing.T) {
	assert.NoError(t, PublicType(LiteralU64).CheckValue(NewU64(1)))
	assert.ErrorIs(t, PublicType(LiteralU64).CheckValue(NewBoolean(true)), ErrTypeMismatch)
	assert.ErrorIs(t, RecordType(MustIdentifier("credits")).CheckValue(NewU64(1)), ErrTypeMismatch)
	assert.ErrorIs(t, PrivateType(LiteralField).CheckValue(&Record{}), ErrTypeMismatch)
}

func TestAddressEncoding(t *testing.T) {
	addr := newTestKey(t).Address(testNet)
	s := EncodeAddress(testNet, addr)

	decoded, err := DecodeAddress(testNet, s)
	require.NoError(t, err)
	assert.Equal(t, addr, decoded)

	// 网络编号不同
	_, err = DecodeAddress(network.BLS12381, s)
	assert.ErrorIs(t, err, ErrInvalidAddress)

	// 篡改单个字符
	tampered := []byte(s)
	if tampered[5] == '2' {
		tampered[5] = '3'
	} else {
		tampered[5] = '2'
	}
	_, err = DecodeAddress(testNet, string(tampered))
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = DecodeAddress(testNet, "")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}
