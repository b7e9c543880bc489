package program

import (
	"github.com/weisyn/zkvm/internal/core/vm/console"
)

// 内置 credits 程序
const (
	// CreditsProgramID 费用程序标识
	CreditsProgramID = "credits.zk"
	// CreditsRecordName 余额记录类型
	CreditsRecordName = "credits"
	// BalanceEntry 余额条目名
	BalanceEntry = "microcredits"
	// MintFunction 铸造函数
	MintFunction = "mint"
	// FeeFunction 费用函数
	FeeFunction = "fee"
)

// Credits 构建内置 credits 程序
//
//	record credits:
//	    owner as address.private;
//	    microcredits as u64.private;
//
//	function mint:
//	    input r0 as address.public;
//	    input r1 as u64.public;
//	    cast r0 r1 into r2 as credits;
//	    output r2 as credits.record;
//
//	function fee:
//	    input r0 as credits.record;
//	    input r1 as u64.public;
//	    sub r0.microcredits r1 into r2;
//	    cast r0.owner r2 into r3 as credits;
//	    output r3 as credits.record;
func Credits() *Program {
	p := New(console.MustProgramID(CreditsProgramID))
	record := console.MustIdentifier(CreditsRecordName)
	mustAdd(p.AddRecord(&RecordType{
		Name:      record,
		OwnerMode: console.EntryPrivate,
		Entries: []EntryType{
			{Name: console.MustIdentifier(BalanceEntry), Mode: console.EntryPrivate, Type: console.LiteralU64},
		},
	}))
	mustAdd(p.AddFunction(&Function{
		Name: console.MustIdentifier(MintFunction),
		Inputs: []Input{
			{Register: 0, Type: console.PublicType(console.LiteralAddress)},
			{Register: 1, Type: console.PublicType(console.LiteralU64)},
		},
		Instructions: []Instruction{
			Cast(CreditsRecordName, []Operand{Reg(0), Reg(1)}, 2),
		},
		Outputs: []Output{{Operand: Reg(2), Type: console.RecordType(record)}},
	}))
	mustAdd(p.AddFunction(&Function{
		Name: console.MustIdentifier(FeeFunction),
		Inputs: []Input{
			{Register: 0, Type: console.RecordType(record)},
			{Register: 1, Type: console.PublicType(console.LiteralU64)},
		},
		Instructions: []Instruction{
			Sub(Member(0, BalanceEntry), Reg(1), 2),
			Cast(CreditsRecordName, []Operand{Member(0, "owner"), Reg(2)}, 3),
		},
		Outputs: []Output{{Operand: Reg(3), Type: console.RecordType(record)}},
	}))
	return p
}

func mustAdd(err error) {
	if err != nil {
		panic(err)
	}
}
