package vm

// 虚拟机默认配置值
const (
	// defaultNetwork 默认网络参数集
	defaultNetwork = "bn254"

	// defaultLogCircuit 默认关闭电路诊断日志
	defaultLogCircuit = false

	// defaultProvingScheme 默认证明方案
	defaultProvingScheme = "groth16"

	// defaultMerkleDepth 默认承诺树深度，容量 2^20 个承诺
	defaultMerkleDepth = 20

	// defaultMaxPublicInputs 费用电路可折叠的公开输入上限
	defaultMaxPublicInputs = 64

	// defaultSetupCacheSize 可信设置缓存条目数
	defaultSetupCacheSize = 4

	// 承诺树深度范围
	minMerkleDepth = 1
	maxMerkleDepth = 32
)
