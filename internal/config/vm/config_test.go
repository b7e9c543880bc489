package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/zkvm/internal/core/vm/network"
	configtypes "github.com/weisyn/zkvm/pkg/types"
)

// TestNew 测试默认配置
func TestNew(t *testing.T) {
	config := New(nil)
	require.NotNil(t, config.GetOptions())
	require.NoError(t, config.Validate())

	net, err := config.GetNetwork()
	require.NoError(t, err)
	assert.Equal(t, network.BN254, net)
	assert.False(t, config.IsCircuitLoggingEnabled())
	assert.Equal(t, defaultProvingScheme, config.GetProvingScheme())
	assert.Equal(t, defaultMerkleDepth, config.GetMerkleDepth())
	assert.Equal(t, defaultMaxPublicInputs, config.GetMaxPublicInputs())
	assert.Equal(t, defaultSetupCacheSize, config.GetSetupCacheSize())
}

// TestUserOverrides 测试用户配置覆盖
func TestUserOverrides(t *testing.T) {
	name := "BLS12-381"
	scheme := "PlonK"
	logCircuit := true
	depth := 8
	maxPublic := 16
	cacheSize := 1

	config := New(&configtypes.UserVMConfig{
		Network:         &name,
		LogCircuit:      &logCircuit,
		ProvingScheme:   &scheme,
		MerkleDepth:     &depth,
		MaxPublicInputs: &maxPublic,
		SetupCacheSize:  &cacheSize,
	})
	require.NoError(t, config.Validate())

	net, err := config.GetNetwork()
	require.NoError(t, err)
	assert.Equal(t, network.BLS12381, net)
	assert.True(t, config.IsCircuitLoggingEnabled())
	assert.Equal(t, "plonk", config.GetProvingScheme())
	assert.Equal(t, 8, config.GetMerkleDepth())
	assert.Equal(t, 16, config.GetMaxPublicInputs())
	assert.Equal(t, 1, config.GetSetupCacheSize())
}

// TestIgnoresForeignConfig 非虚拟机配置不影响默认值
func TestIgnoresForeignConfig(t *testing.T) {
	config := New(&configtypes.UserLogConfig{})
	assert.Equal(t, createDefaultVMOptions(), config.GetOptions())
}

// TestValidate 测试取值校验
func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*VMOptions)
	}{
		{"未知网络", func(o *VMOptions) { o.Network = "secp256k1" }},
		{"深度为零", func(o *VMOptions) { o.MerkleDepth = 0 }},
		{"深度过大", func(o *VMOptions) { o.MerkleDepth = 33 }},
		{"公开输入上限为零", func(o *VMOptions) { o.MaxPublicInputs = 0 }},
		{"缓存为零", func(o *VMOptions) { o.SetupCacheSize = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			options := createDefaultVMOptions()
			tc.mutate(options)
			assert.Error(t, NewFromOptions(options).Validate())
		})
	}
}
