package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/weisyn/zkvm/internal/app"
	"github.com/weisyn/zkvm/internal/core/vm/prover"
	vmiface "github.com/weisyn/zkvm/pkg/interfaces/vm"
	"github.com/weisyn/zkvm/pkg/types"
)

// statsResult stats 命令输出
type statsResult struct {
	Network         string `json:"network"`
	Scheme          string `json:"scheme"`
	MerkleDepth     int    `json:"merkle_depth"`
	MaxPublicInputs int    `json:"max_public_inputs"`
	Constraints     int    `json:"constraints"`
	Public          int    `json:"public"`
	Secret          int    `json:"secret"`
}

// statsCmd 电路规模
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "输出费用电路规模",
	Long:  "编译费用电路并执行可信设置，输出约束数与变量数",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Storage == nil {
			cfg.Storage = &types.UserStorageConfig{}
		}
		cfg.Storage.Engine = types.StringPtr("memory")

		var backend vmiface.ProvingBackend
		a, err := app.Start(app.WithAppConfig(cfg), app.WithFxOptions(fx.Populate(&backend)))
		if err != nil {
			return err
		}
		defer a.Stop()

		b, ok := backend.(*prover.Backend)
		if !ok {
			return fmt.Errorf("证明后端 %T 不提供电路统计", backend)
		}
		stats, err := b.Stats(a.VM().Network())
		if err != nil {
			return err
		}
		opts := a.Config().GetVM()
		return printJSON(cmd, statsResult{
			Network:         opts.Network,
			Scheme:          b.Scheme(),
			MerkleDepth:     opts.MerkleDepth,
			MaxPublicInputs: opts.MaxPublicInputs,
			Constraints:     stats.Constraints,
			Public:          stats.Public,
			Secret:          stats.Secret,
		})
	},
}
