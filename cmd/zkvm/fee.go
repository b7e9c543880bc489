package main

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/weisyn/zkvm/internal/app"
	"github.com/weisyn/zkvm/internal/core/vm/console"
	"github.com/weisyn/zkvm/internal/core/vm/network"
	"github.com/weisyn/zkvm/internal/core/vm/program"
	"github.com/weisyn/zkvm/pkg/types"
)

var (
	feeBalance uint64
	feeAmount  uint64
	feeSeed    uint64
)

// feeResult fee 命令输出
type feeResult struct {
	Network         string `json:"network"`
	Scheme          string `json:"scheme"`
	Owner           string `json:"owner"`
	TransitionID    string `json:"transition_id"`
	Amount          uint64 `json:"amount"`
	GlobalStateRoot string `json:"global_state_root"`
	FeeBytes        int    `json:"fee_bytes"`
	ProofBytes      int    `json:"proof_bytes"`
	TransitionValid bool   `json:"transition_valid"`
	Elapsed         string `json:"elapsed"`
}

// feeCmd 费用演示
var feeCmd = &cobra.Command{
	Use:   "fee",
	Short: "组装并校验一笔费用",
	Long: `在纯内存存储上创世，向种子私钥发行 --balance 微额度，
再以该记录支付 --amount 的费用，输出费用大小与证明大小。`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// 演示总是从空链开始
		if cfg.Storage == nil {
			cfg.Storage = &types.UserStorageConfig{}
		}
		cfg.Storage.Engine = types.StringPtr("memory")

		a, err := app.Start(app.WithAppConfig(cfg))
		if err != nil {
			return err
		}
		defer a.Stop()

		ctx := cmd.Context()
		v := a.VM()
		net := v.Network()

		key, err := console.PrivateKeyFromSeed(net, network.FieldFromUint64(feeSeed))
		if err != nil {
			return err
		}
		genesis, err := v.Genesis(ctx, key, feeBalance, rand.Reader)
		if err != nil {
			return err
		}
		entries := genesis.Transitions[0].Records()
		if len(entries) != 1 {
			return fmt.Errorf("创世区块应恰有一条记录，实际 %d", len(entries))
		}
		record, err := entries[0].Record.Decrypt(net, key.ViewKey())
		if err != nil {
			return fmt.Errorf("解密创世记录失败: %w", err)
		}

		start := time.Now()
		tx, err := v.ExecuteFee(ctx, key, record, feeAmount, nil, rand.Reader)
		if err != nil {
			return err
		}
		fee := tx.Fee()
		proof, _ := fee.Proof()

		return printJSON(cmd, feeResult{
			Network:         net.Name(),
			Scheme:          a.Config().GetVM().ProvingScheme,
			Owner:           console.EncodeAddress(net, key.Address(net)),
			TransitionID:    fee.ID().String(),
			Amount:          feeAmount,
			GlobalStateRoot: fee.GlobalStateRoot().String(),
			FeeBytes:        len(fee.Bytes()),
			ProofBytes:      len(proof),
			TransitionValid: fee.Transition().Verify(net),
			Elapsed:         time.Since(start).String(),
		})
	},
}

func init() {
	feeCmd.Flags().Uint64Var(&feeBalance, "balance", 1_000_000, "创世记录的 "+program.BalanceEntry)
	feeCmd.Flags().Uint64Var(&feeAmount, "amount", 1_000, "费用金额")
	feeCmd.Flags().Uint64Var(&feeSeed, "seed", 1, "私钥种子")
}
