// Package testutil 提供虚拟机测试共用的程序、账户与请求夹具
package testutil

import (
	"io"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/weisyn/zkvm/internal/core/vm/console"
	"github.com/weisyn/zkvm/internal/core/vm/network"
	"github.com/weisyn/zkvm/internal/core/vm/program"
)

// 示例程序常量
const (
	TokenProgramID = "token.zk"
	TokenRecord    = "token"
	TokenEntry     = "amount"
	ComputeFn      = "compute"
	ExecuteClosure = "execute"

	RelayProgramID = "relay.zk"
	ForwardFn      = "forward"
)

// RNG 确定性随机源
func RNG(seed int64) io.Reader {
	return rand.New(rand.NewSource(seed))
}

// PrivateKey 由种子派生的确定性私钥
func PrivateKey(t testing.TB, net network.Network, seed uint64) console.PrivateKey {
	t.Helper()
	key, err := console.PrivateKeyFromSeed(net, network.FieldFromUint64(seed))
	require.NoError(t, err)
	return key
}

// TokenProgram 示例程序
//
//	record token:
//	    owner as address.private;
//	    amount as u64.private;
//
//	closure execute:
//	    input r0 as field;
//	    input r1 as field;
//	    add r0 r1 into r2;
//	    add r0 r2 into r3;
//	    add r2 r3 into r4;
//	    output r4 as field;
//	    output r3 as field;
//	    output r2 as field;
//
//	function compute:
//	    input r0 as field.private;
//	    input r1 as field.public;
//	    input r2 as token.record;
//	    call execute r0 r1 into r3 r4 r5;
//	    cast r2.owner r2.amount into r6 as token;
//	    output r6 as token.record;
//	    output r3 as field.private;
//	    output r4 as field.public;
//	    output r5 as field.constant;
func TokenProgram() *program.Program {
	p := program.New(console.MustProgramID(TokenProgramID))
	record := console.MustIdentifier(TokenRecord)
	must(p.AddRecord(&program.RecordType{
		Name:      record,
		OwnerMode: console.EntryPrivate,
		Entries: []program.EntryType{
			{Name: console.MustIdentifier(TokenEntry), Mode: console.EntryPrivate, Type: console.LiteralU64},
		},
	}))
	must(p.AddClosure(&program.Closure{
		Name: console.MustIdentifier(ExecuteClosure),
		Inputs: []program.ClosureInput{
			{Register: 0, Type: console.LiteralField},
			{Register: 1, Type: console.LiteralField},
		},
		Instructions: []program.Instruction{
			program.Add(program.Reg(0), program.Reg(1), 2),
			program.Add(program.Reg(0), program.Reg(2), 3),
			program.Add(program.Reg(2), program.Reg(3), 4),
		},
		Outputs: []program.ClosureOutput{
			{Operand: program.Reg(4), Type: console.LiteralField},
			{Operand: program.Reg(3), Type: console.LiteralField},
			{Operand: program.Reg(2), Type: console.LiteralField},
		},
	}))
	must(p.AddFunction(&program.Function{
		Name: console.MustIdentifier(ComputeFn),
		Inputs: []program.Input{
			{Register: 0, Type: console.PrivateType(console.LiteralField)},
			{Register: 1, Type: console.PublicType(console.LiteralField)},
			{Register: 2, Type: console.RecordType(record)},
		},
		Instructions: []program.Instruction{
			program.Call(ExecuteClosure, []program.Operand{program.Reg(0), program.Reg(1)}, 3, 4, 5),
			program.Cast(TokenRecord, []program.Operand{program.Member(2, "owner"), program.Member(2, TokenEntry)}, 6),
		},
		Outputs: []program.Output{
			{Operand: program.Reg(6), Type: console.RecordType(record)},
			{Operand: program.Reg(3), Type: console.PrivateType(console.LiteralField)},
			{Operand: program.Reg(4), Type: console.PublicType(console.LiteralField)},
			{Operand: program.Reg(5), Type: console.ConstantType(console.LiteralField)},
		},
	}))
	return p
}

// TokenLocator token.zk/token 记录的外部定位
func TokenLocator() console.Locator {
	return console.Locator{Program: console.MustProgramID(TokenProgramID), Resource: console.MustIdentifier(TokenRecord)}
}

// RelayProgram 原样转发外部记录的程序
//
//	function forward:
//	    input r0 as token.zk/token.record;
//	    input r1 as field.public;
//	    output r0 as token.zk/token.record;
//	    output r1 as field.public;
func RelayProgram() *program.Program {
	p := program.New(console.MustProgramID(RelayProgramID))
	external := console.ExternalRecordType(TokenLocator())
	must(p.AddFunction(&program.Function{
		Name: console.MustIdentifier(ForwardFn),
		Inputs: []program.Input{
			{Register: 0, Type: external},
			{Register: 1, Type: console.PublicType(console.LiteralField)},
		},
		Outputs: []program.Output{
			{Operand: program.Reg(0), Type: external},
			{Operand: program.Reg(1), Type: console.PublicType(console.LiteralField)},
		},
	}))
	return p
}

// RelayRequest 对 relay.zk/forward 签名的请求，转发 token{amount}
func RelayRequest(t testing.TB, net network.Network, key console.PrivateKey, amount uint64, rng io.Reader) *console.Request {
	t.Helper()
	fn, err := RelayProgram().GetFunction(console.MustIdentifier(ForwardFn))
	require.NoError(t, err)
	inputs := []console.Value{
		Record(net, key, TokenEntry, amount, net.Generator()),
		console.NewFieldFromUint64(9),
	}
	req, err := console.SignRequest(net, key, console.MustProgramID(RelayProgramID), fn.Name, inputs, fn.InputTypes(), rng)
	require.NoError(t, err)
	return req
}

// Record 构造单条目私有记录
func Record(net network.Network, owner console.PrivateKey, entry string, amount uint64, nonce network.Group) *console.Record {
	return &console.Record{
		Owner:     owner.Address(net),
		OwnerMode: console.EntryPrivate,
		Entries: []console.Entry{
			{Name: console.MustIdentifier(entry), Mode: console.EntryPrivate, Value: console.NewU64(amount)},
		},
		Nonce: nonce,
	}
}

// ComputeRequest 对 token.zk/compute 签名的请求，输入为 (3, 5, token{amount})
func ComputeRequest(t testing.TB, net network.Network, key console.PrivateKey, amount uint64, rng io.Reader) *console.Request {
	t.Helper()
	fn, err := TokenProgram().GetFunction(console.MustIdentifier(ComputeFn))
	require.NoError(t, err)
	inputs := []console.Value{
		console.NewFieldFromUint64(3),
		console.NewFieldFromUint64(5),
		Record(net, key, TokenEntry, amount, net.Generator()),
	}
	req, err := console.SignRequest(net, key, console.MustProgramID(TokenProgramID), fn.Name, inputs, fn.InputTypes(), rng)
	require.NoError(t, err)
	return req
}

// FeeRequest 对 credits.zk/fee 签名的请求
func FeeRequest(t testing.TB, net network.Network, key console.PrivateKey, record *console.Record, amount uint64, rng io.Reader) *console.Request {
	t.Helper()
	fn, err := program.Credits().GetFunction(console.MustIdentifier(program.FeeFunction))
	require.NoError(t, err)
	inputs := []console.Value{record, console.NewU64(amount)}
	req, err := console.SignRequest(net, key, console.MustProgramID(program.CreditsProgramID), fn.Name, inputs, fn.InputTypes(), rng)
	require.NoError(t, err)
	return req
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
