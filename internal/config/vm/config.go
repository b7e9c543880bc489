// Package vm 提供虚拟机配置
package vm

import (
	"fmt"
	"strings"

	"github.com/weisyn/zkvm/internal/core/vm/network"
	configtypes "github.com/weisyn/zkvm/pkg/types"
)

// VMOptions 虚拟机配置选项
type VMOptions struct {
	// === 基础配置 ===
	Network    string `json:"network"`     // 网络参数集名称
	LogCircuit bool   `json:"log_circuit"` // 电路规模诊断日志

	// === 证明配置 ===
	ProvingScheme   string `json:"proving_scheme"`    // groth16 | plonk
	MerkleDepth     int    `json:"merkle_depth"`      // 承诺树深度
	MaxPublicInputs int    `json:"max_public_inputs"` // 费用电路公开输入上限
	SetupCacheSize  int    `json:"setup_cache_size"`  // 可信设置缓存条目数
}

// Config 虚拟机配置实现
type Config struct {
	options *VMOptions
}

// New 创建虚拟机配置
//
// userConfig 为 *types.UserVMConfig 时覆盖默认值，其他类型忽略。
func New(userConfig interface{}) *Config {
	options := createDefaultVMOptions()
	if userConfig != nil {
		applyUserVMConfig(options, userConfig)
	}
	return &Config{options: options}
}

// NewFromOptions 从完整选项创建配置
func NewFromOptions(options *VMOptions) *Config {
	return &Config{options: options}
}

func createDefaultVMOptions() *VMOptions {
	return &VMOptions{
		Network:         defaultNetwork,
		LogCircuit:      defaultLogCircuit,
		ProvingScheme:   defaultProvingScheme,
		MerkleDepth:     defaultMerkleDepth,
		MaxPublicInputs: defaultMaxPublicInputs,
		SetupCacheSize:  defaultSetupCacheSize,
	}
}

func applyUserVMConfig(options *VMOptions, userConfig interface{}) {
	vmConfig, ok := userConfig.(*configtypes.UserVMConfig)
	if !ok || vmConfig == nil {
		return
	}
	if vmConfig.Network != nil && *vmConfig.Network != "" {
		options.Network = strings.ToLower(*vmConfig.Network)
	}
	if vmConfig.LogCircuit != nil {
		options.LogCircuit = *vmConfig.LogCircuit
	}
	if vmConfig.ProvingScheme != nil && *vmConfig.ProvingScheme != "" {
		options.ProvingScheme = strings.ToLower(*vmConfig.ProvingScheme)
	}
	if vmConfig.MerkleDepth != nil {
		options.MerkleDepth = *vmConfig.MerkleDepth
	}
	if vmConfig.MaxPublicInputs != nil {
		options.MaxPublicInputs = *vmConfig.MaxPublicInputs
	}
	if vmConfig.SetupCacheSize != nil {
		options.SetupCacheSize = *vmConfig.SetupCacheSize
	}
}

// Validate 校验配置取值
func (c *Config) Validate() error {
	if _, err := network.ByName(c.options.Network); err != nil {
		return err
	}
	if c.options.MerkleDepth < minMerkleDepth || c.options.MerkleDepth > maxMerkleDepth {
		return fmt.Errorf("merkle_depth 超出范围 [%d, %d]: %d", minMerkleDepth, maxMerkleDepth, c.options.MerkleDepth)
	}
	if c.options.MaxPublicInputs <= 0 {
		return fmt.Errorf("max_public_inputs 必须为正数: %d", c.options.MaxPublicInputs)
	}
	if c.options.SetupCacheSize <= 0 {
		return fmt.Errorf("setup_cache_size 必须为正数: %d", c.options.SetupCacheSize)
	}
	return nil
}

// GetOptions 获取完整的配置选项
func (c *Config) GetOptions() *VMOptions {
	return c.options
}

// GetNetwork 解析网络参数集
func (c *Config) GetNetwork() (network.Network, error) {
	return network.ByName(c.options.Network)
}

// IsCircuitLoggingEnabled 是否输出电路诊断
func (c *Config) IsCircuitLoggingEnabled() bool {
	return c.options.LogCircuit
}

// GetProvingScheme 证明方案名称
func (c *Config) GetProvingScheme() string {
	return c.options.ProvingScheme
}

// GetMerkleDepth 承诺树深度
func (c *Config) GetMerkleDepth() int {
	return c.options.MerkleDepth
}

// GetMaxPublicInputs 费用电路公开输入上限
func (c *Config) GetMaxPublicInputs() int {
	return c.options.MaxPublicInputs
}

// GetSetupCacheSize 可信设置缓存条目数
func (c *Config) GetSetupCacheSize() int {
	return c.options.SetupCacheSize
}
