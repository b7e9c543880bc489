// Package types provides configuration type definitions.
package types

// AppConfig 应用程序根配置
// 只包含JSON配置文件解析所需的结构，不包含任何内部字段
// 默认值和完整配置结构在 internal/config/*/defaults.go 和 internal/config/*/config.go 中定义
type AppConfig struct {
	// 应用程序基本信息
	AppName *string `json:"app_name,omitempty"` // 应用名称
	DataDir *string `json:"data_dir,omitempty"` // 数据目录路径

	// 存储配置
	Storage *UserStorageConfig `json:"storage,omitempty"`

	// 日志配置
	Log *UserLogConfig `json:"log,omitempty"`

	// 虚拟机配置
	VM *UserVMConfig `json:"vm,omitempty"`
}

// UserStorageConfig 用户存储配置
// 只包含JSON配置文件中实际出现的字段
type UserStorageConfig struct {
	DataRoot *string `json:"data_root,omitempty"` // 数据根目录（data_root）
	// Engine 存储引擎：badger | memory
	Engine *string `json:"engine,omitempty"`
}

// UserLogConfig 用户日志配置
// 只包含JSON配置文件中实际出现的字段
type UserLogConfig struct {
	Level    *string `json:"level,omitempty"`     // 日志级别：debug, info, warn, error, fatal
	FilePath *string `json:"file_path,omitempty"` // 日志文件路径
}

// UserVMConfig 用户虚拟机配置
// 只包含JSON配置文件中实际出现的字段
type UserVMConfig struct {
	// Network 网络参数集名称：bn254 | bls12-381
	Network *string `json:"network,omitempty"`

	// LogCircuit 是否在 Debug 级别输出电路规模诊断
	LogCircuit *bool `json:"log_circuit,omitempty"`

	// MerkleDepth 承诺树深度
	MerkleDepth *int `json:"merkle_depth,omitempty"`

	// MaxPublicInputs 费用电路可折叠的公开输入上限
	MaxPublicInputs *int `json:"max_public_inputs,omitempty"`

	// PathCacheMB 状态路径缓存大小（MB）
	PathCacheMB *int `json:"path_cache_mb,omitempty"`

	// ProvingScheme 费用证明方案：groth16 | plonk
	ProvingScheme *string `json:"proving_scheme,omitempty"`

	// SetupCacheSize 可信设置缓存条目数
	SetupCacheSize *int `json:"setup_cache_size,omitempty"`
}

// IntPtr 创建int指针，用于明确表示用户设置了该值
func IntPtr(v int) *int {
	return &v
}

// StringPtr 创建string指针，用于明确表示用户设置了该值
func StringPtr(v string) *string {
	return &v
}

// BoolPtr 创建bool指针，用于明确表示用户设置了该值
func BoolPtr(v bool) *bool {
	return &v
}
