package vm

import (
	"context"

	"github.com/weisyn/zkvm/internal/core/vm/circuit"
	"github.com/weisyn/zkvm/internal/core/vm/network"
	"github.com/weisyn/zkvm/internal/core/vm/store"
)

// ════════════════════════════════════════════════════════════════════════════════════════════════
// ProvingBackend - 费用证明后端
// ════════════════════════════════════════════════════════════════════════════════════════════════
//
// 📋 **接口说明**：
//   - 将一次费用调用的电路赋值与被消费记录的成员路径绑定为简洁证明
//   - 默认实现见 internal/core/vm/prover（gnark Groth16 / PlonK）
//
// 🔒 **约束**：
//   - 赋值不可满足时返回 process.ErrConstraintUnsatisfied，不产出证明
//   - spends 为空表示不附带包含证明，此时 globalStateRoot 必须为零元素
//   - globalStateRoot 非零时证明必须包含一条到该根的成员路径，且路径叶子与公开的序列号、标签绑定
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

type ProvingBackend interface {
	// Scheme 证明方案名称
	Scheme() string

	// ProveFee 生成费用证明
	ProveFee(ctx context.Context, assignment *circuit.Assignment, spends []Spend, globalStateRoot network.Field) ([]byte, error)

	// VerifyFee 校验费用证明；publicInputs 为调用电路的公开输入，spent 取自转换的记录输入
	VerifyFee(ctx context.Context, net network.Network, publicInputs []network.Field, globalStateRoot network.Field, spent []SpentRecord, proof []byte) error
}

// SpentRecord 转换公开的被消费记录标识
type SpentRecord struct {
	SerialNumber network.Field
	Tag          network.Field
}

// Spend 被消费记录的证明材料：公开标识与承诺的成员路径
type Spend struct {
	SpentRecord
	Path *store.StatePath
}
