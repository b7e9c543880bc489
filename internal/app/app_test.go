package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"

	"github.com/weisyn/zkvm/internal/core/vm/store"
	"github.com/weisyn/zkvm/internal/core/vm/testutil"
	"github.com/weisyn/zkvm/pkg/types"
)

func memoryConfig() *types.AppConfig {
	return &types.AppConfig{
		Storage: &types.UserStorageConfig{Engine: types.StringPtr("memory")},
		Log:     &types.UserLogConfig{Level: types.StringPtr("error")},
		VM: &types.UserVMConfig{
			MerkleDepth:     types.IntPtr(8),
			MaxPublicInputs: types.IntPtr(16),
			PathCacheMB:     types.IntPtr(1),
		},
	}
}

func TestStartWithMemoryStorage(t *testing.T) {
	var blocks *store.BlockStore
	a, err := Start(WithAppConfig(memoryConfig()), WithFxOptions(fx.Populate(&blocks)))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, a.Stop()) })

	require.NotNil(t, a.VM())
	assert.Same(t, blocks, a.VM().BlockStore())
	assert.Equal(t, "bn254", a.VM().Network().Name())
	assert.True(t, a.Config().GetBadger().InMemory)

	key := testutil.PrivateKey(t, a.VM().Network(), 7)
	genesis, err := a.VM().Genesis(context.Background(), key, 50, testutil.RNG(7))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), genesis.Height)

	// 指标模块接入了执行引擎
	families, err := a.Metrics().Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestStartFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{
  "app_name": "fee-node",
  "storage": {"engine": "memory"},
  "log": {"level": "error"},
  "vm": {"network": "bls12-381", "merkle_depth": 8, "proving_scheme": "plonk"}
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	a, err := Start(WithConfigFile(path))
	require.NoError(t, err)
	defer a.Stop()

	assert.Equal(t, "fee-node", a.Config().GetAppName())
	assert.Equal(t, "bls12-381", a.VM().Network().Name())
	assert.Equal(t, "plonk", a.Config().GetVM().ProvingScheme)
}

func TestStartRejectsBadConfig(t *testing.T) {
	t.Run("非法取值", func(t *testing.T) {
		cfg := memoryConfig()
		cfg.VM.Network = types.StringPtr("secp256k1")
		_, err := Start(WithAppConfig(cfg))
		require.Error(t, err)
		assert.True(t, IsConfigError(err))
	})

	t.Run("配置文件不存在", func(t *testing.T) {
		_, err := Start(WithConfigFile(filepath.Join(t.TempDir(), "missing.json")))
		require.Error(t, err)
		assert.True(t, IsConfigError(err))
	})

	t.Run("嵌入配置格式错误", func(t *testing.T) {
		_, err := Start(WithEmbeddedConfig([]byte("{")))
		require.Error(t, err)
		assert.True(t, IsConfigError(err))
	})
}

func TestLoadAppConfigPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"app_name":"from-file"}`), 0o600))

	opts := newOptions(
		WithConfigFile(path),
		WithEmbeddedConfig([]byte(`{"app_name":"embedded"}`)),
	)
	require.NoError(t, loadAppConfig(opts))
	assert.Equal(t, "embedded", *opts.GetAppConfig().AppName)

	t.Setenv(ConfigPathEnv, path)
	opts = newOptions(WithAppConfig(&types.AppConfig{AppName: types.StringPtr("inline")}))
	require.NoError(t, loadAppConfig(opts))
	assert.Equal(t, "from-file", *opts.GetAppConfig().AppName)

	t.Setenv(ConfigPathEnv, "")
	opts = newOptions()
	require.NoError(t, loadAppConfig(opts))
	assert.NotNil(t, opts.GetAppConfig())
}
