package process

import (
	"io"

	"github.com/weisyn/zkvm/internal/core/vm/console"
	"github.com/weisyn/zkvm/internal/core/vm/inclusion"
	"github.com/weisyn/zkvm/internal/core/vm/network"
	"github.com/weisyn/zkvm/internal/core/vm/program"
)

// ============================================================================
//                              credits 调用
// ============================================================================

// FeeCall 费用调用：电路执行产物与记录输入的包含登记
type FeeCall struct {
	*Call
	Inclusion *inclusion.Inclusion
}

// CheckFeeRecord 校验费用记录的余额条目
//
// 余额条目须为私有 u64；余额等于费用时允许。
func CheckFeeRecord(record *console.Record, fee uint64) error {
	if record == nil {
		return WrapFeeRecordError("nil record")
	}
	entry, ok := record.Find(console.MustIdentifier(program.BalanceEntry))
	if !ok {
		return WrapFeeRecordError("missing " + program.BalanceEntry)
	}
	if entry.Mode != console.EntryPrivate {
		return WrapFeeRecordError(program.BalanceEntry + " is not private")
	}
	balance, ok := entry.Value.Uint64()
	if !ok {
		return WrapFeeRecordError(program.BalanceEntry + " is not u64")
	}
	if balance < fee {
		return WrapBalanceError(balance, fee)
	}
	return nil
}

// PrepareFee 对 credits.zk/fee 签名、执行并登记记录输入
//
// 余额检查先于任何电路工作。
func (p *Process) PrepareFee(key console.PrivateKey, record *console.Record, fee uint64, rng io.Reader) (*FeeCall, error) {
	if err := CheckFeeRecord(record, fee); err != nil {
		return nil, err
	}
	inputs := []console.Value{record, console.NewU64(fee)}
	call, err := p.callCredits(key, program.FeeFunction, inputs, rng)
	if err != nil {
		return nil, err
	}
	inc := inclusion.New(p.net)
	if err := inc.InsertTransition(call.Request, call.Transition); err != nil {
		return nil, err
	}
	p.logger.Debugf("fee prepared: amount=%d transition=%s", fee, call.Transition.ID())
	return &FeeCall{Call: call, Inclusion: inc}, nil
}

// Mint 对 credits.zk/mint 签名并执行，向 owner 发行 amount
func (p *Process) Mint(key console.PrivateKey, owner network.Group, amount uint64, rng io.Reader) (*Call, error) {
	inputs := []console.Value{console.NewAddress(owner), console.NewU64(amount)}
	return p.callCredits(key, program.MintFunction, inputs, rng)
}

func (p *Process) callCredits(key console.PrivateKey, function string, inputs []console.Value, rng io.Reader) (*Call, error) {
	stack, err := p.GetStack(console.MustProgramID(program.CreditsProgramID))
	if err != nil {
		return nil, err
	}
	fn, err := stack.Program().GetFunction(console.MustIdentifier(function))
	if err != nil {
		return nil, err
	}
	req, err := console.SignRequest(p.net, key, stack.Program().ID(), fn.Name, inputs, fn.InputTypes(), rng)
	if err != nil {
		return nil, err
	}
	return p.ExecuteCall(req)
}
