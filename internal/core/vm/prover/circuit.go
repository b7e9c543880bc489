package prover

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"

	"github.com/weisyn/zkvm/internal/core/vm/console"
	"github.com/weisyn/zkvm/internal/core/vm/network"
	"github.com/weisyn/zkvm/internal/core/vm/store"
	vmiface "github.com/weisyn/zkvm/pkg/interfaces/vm"
)

// ============================================================================
//                              费用电路
// ============================================================================
//
// 公开输入：
//   - PublicDigest = MiMC(n, p_0, ..., p_{N-1})，p_i 为调用电路的公开输入，不足 N 个补零
//   - GlobalStateRoot 全局状态根
//   - SerialNumber、Tag 被消费记录在转换中公开的序列号与标签
//
// 私有部分为公开输入本身与被消费记录承诺（Leaf）的成员路径。
// 是否约束包含由公开的状态根决定，证明方无法选择：has = 1 - IsZero(GlobalStateRoot)
//   (root(path) - GlobalStateRoot) * has = 0
//   (HashFields(DomainRecordTag, SerialNumber, Leaf) - Tag) * has = 0
//   SerialNumber * (1 - has) = 0, Tag * (1 - has) = 0
//
// ⚠️ 切片长度在编译时固定，必须通过 NewFeeCircuit 创建实例。
//
// ============================================================================

// FeeCircuit 费用证明电路
type FeeCircuit struct {
	PublicDigest    frontend.Variable `gnark:",public"`
	GlobalStateRoot frontend.Variable `gnark:",public"`
	SerialNumber    frontend.Variable `gnark:",public"`
	Tag             frontend.Variable `gnark:",public"`

	NumPublic    frontend.Variable
	PublicInputs []frontend.Variable

	Leaf       frontend.Variable
	Siblings   []frontend.Variable
	Directions []frontend.Variable
}

// NewFeeCircuit 按树深度与公开输入容量创建电路实例
func NewFeeCircuit(depth, maxPublic int) (*FeeCircuit, error) {
	if depth < 1 || depth > store.MaxDepth {
		return nil, fmt.Errorf("%w: %d", store.ErrInvalidDepth, depth)
	}
	if maxPublic < 1 {
		return nil, WrapPublicInputsError(maxPublic, 0)
	}
	return &FeeCircuit{
		PublicInputs: make([]frontend.Variable, maxPublic),
		Siblings:     make([]frontend.Variable, depth),
		Directions:   make([]frontend.Variable, depth),
	}, nil
}

// Define 定义电路约束
func (c *FeeCircuit) Define(api frontend.API) error {
	h, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}

	h.Write(c.NumPublic)
	h.Write(c.PublicInputs...)
	api.AssertIsEqual(h.Sum(), c.PublicDigest)

	has := api.Sub(1, api.IsZero(c.GlobalStateRoot))
	current := c.Leaf
	for i := range c.Siblings {
		api.AssertIsBoolean(c.Directions[i])
		left := api.Select(c.Directions[i], c.Siblings[i], current)
		right := api.Select(c.Directions[i], current, c.Siblings[i])
		h.Reset()
		h.Write(left, right)
		current = h.Sum()
	}
	api.AssertIsEqual(api.Mul(api.Sub(current, c.GlobalStateRoot), has), 0)

	// 叶子须是公开序列号所对应的记录承诺
	h.Reset()
	for _, f := range network.HashFieldsPrefix(3) {
		h.Write(toBig(f))
	}
	h.Write(toBig(console.DomainRecordTag), c.SerialNumber, c.Leaf)
	api.AssertIsEqual(api.Mul(api.Sub(h.Sum(), c.Tag), has), 0)

	none := api.Sub(1, has)
	api.AssertIsEqual(api.Mul(c.SerialNumber, none), 0)
	api.AssertIsEqual(api.Mul(c.Tag, none), 0)
	return nil
}

// ============================================================================
//                              见证构造
// ============================================================================

// PublicDigest 调用电路公开输入的摘要，与电路内 MiMC 一致
func PublicDigest(net network.Network, publicInputs []network.Field, maxPublic int) (network.Field, error) {
	if len(publicInputs) > maxPublic {
		return network.Field{}, WrapPublicInputsError(maxPublic, len(publicInputs))
	}
	preimage := make([]network.Field, 1+maxPublic)
	preimage[0] = network.FieldFromUint64(uint64(len(publicInputs)))
	copy(preimage[1:], publicInputs)
	return net.HashRaw(preimage)
}

func toBig(f network.Field) *big.Int {
	return new(big.Int).SetBytes(f[:])
}

// assign 填充赋值；path 为 nil 时路径部分置零（仅用于公开部分或无包含的费用）
func assign(net network.Network, depth, maxPublic int, publicInputs []network.Field, root network.Field, spent vmiface.SpentRecord, path *store.StatePath) (*FeeCircuit, error) {
	w, err := NewFeeCircuit(depth, maxPublic)
	if err != nil {
		return nil, err
	}
	digest, err := PublicDigest(net, publicInputs, maxPublic)
	if err != nil {
		return nil, err
	}
	w.PublicDigest = toBig(digest)
	w.GlobalStateRoot = toBig(root)
	w.SerialNumber = toBig(spent.SerialNumber)
	w.Tag = toBig(spent.Tag)
	w.NumPublic = len(publicInputs)
	for i := range w.PublicInputs {
		w.PublicInputs[i] = 0
		if i < len(publicInputs) {
			w.PublicInputs[i] = toBig(publicInputs[i])
		}
	}

	w.Leaf = 0
	for i := range w.Siblings {
		w.Siblings[i], w.Directions[i] = 0, 0
	}
	if path == nil {
		return w, nil
	}
	if len(path.Siblings) != depth {
		return nil, WrapWitnessError(circuitKey(net, depth, maxPublic), fmt.Sprintf("path depth %d", len(path.Siblings)))
	}
	w.Leaf = toBig(path.Leaf)
	for i, dir := range path.Directions() {
		w.Siblings[i] = toBig(path.Siblings[i])
		if dir {
			w.Directions[i] = 1
		}
	}
	return w, nil
}

func circuitKey(net network.Network, depth, maxPublic int) string {
	return fmt.Sprintf("fee.d%d.p%d:%s", depth, maxPublic, net.Curve())
}
