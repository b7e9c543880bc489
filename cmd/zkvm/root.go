package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/weisyn/zkvm/internal/app"
	"github.com/weisyn/zkvm/pkg/types"
)

// GlobalFlags 全局标志
type GlobalFlags struct {
	ConfigPath string // 配置文件路径
	LogLevel   string // 覆盖日志级别
	Network    string // 覆盖网络参数集
	Scheme     string // 覆盖证明方案
}

var globalFlags GlobalFlags

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "zkvm",
	Short: "零知识执行引擎",
	Long: `zkvm - 记录模型的零知识执行引擎

在进程内装配执行引擎、区块存储与费用证明后端：
- fee    创世后为一条 credits 记录组装并校验费用
- stats  输出费用电路规模
- serve  启动节点并通过 HTTP 暴露 Prometheus 指标`,
	SilenceUsage: true,
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&globalFlags.ConfigPath, "config", "c", "", "配置文件路径 (默认读取 $"+app.ConfigPathEnv+")")
	rootCmd.PersistentFlags().StringVar(&globalFlags.LogLevel, "log-level", "", "日志级别: debug|info|warn|error")
	rootCmd.PersistentFlags().StringVar(&globalFlags.Network, "network", "", "网络参数集: bn254|bls12-381")
	rootCmd.PersistentFlags().StringVar(&globalFlags.Scheme, "scheme", "", "证明方案: groth16|plonk")

	rootCmd.AddCommand(feeCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig 读取配置文件并叠加命令行覆盖项
func loadConfig() (*types.AppConfig, error) {
	path := globalFlags.ConfigPath
	if path == "" {
		path = os.Getenv(app.ConfigPathEnv)
	}
	cfg, err := app.LoadConfigFile(path)
	if err != nil {
		return nil, err
	}
	if globalFlags.LogLevel != "" {
		if cfg.Log == nil {
			cfg.Log = &types.UserLogConfig{}
		}
		cfg.Log.Level = types.StringPtr(globalFlags.LogLevel)
	}
	if globalFlags.Network != "" || globalFlags.Scheme != "" {
		if cfg.VM == nil {
			cfg.VM = &types.UserVMConfig{}
		}
		if globalFlags.Network != "" {
			cfg.VM.Network = types.StringPtr(globalFlags.Network)
		}
		if globalFlags.Scheme != "" {
			cfg.VM.ProvingScheme = types.StringPtr(globalFlags.Scheme)
		}
	}
	return cfg, nil
}

// printJSON 以缩进JSON输出结果
func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
