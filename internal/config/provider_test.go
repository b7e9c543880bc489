package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	badgerconfig "github.com/weisyn/zkvm/internal/config/storage/badger"
	"github.com/weisyn/zkvm/pkg/types"
)

// TestProviderDefaults 测试未配置时的默认值
func TestProviderDefaults(t *testing.T) {
	provider := NewProvider(nil)

	assert.Equal(t, "zkvm", provider.GetAppName())
	assert.Equal(t, "./data", provider.GetDataDir())
	assert.Equal(t, badgerconfig.EngineBadger, provider.GetStorageEngine())
	assert.False(t, provider.GetBadger().InMemory)
	assert.Equal(t, types.InfoLevel, provider.GetLog().Level)

	vm := provider.GetVM()
	assert.Equal(t, "bn254", vm.Network)
	assert.Equal(t, "groth16", vm.ProvingScheme)
	assert.Equal(t, 20, vm.MerkleDepth)
	require.NotNil(t, provider.GetAppConfig())
}

// TestProviderOverrides 测试用户配置覆盖默认值
func TestProviderOverrides(t *testing.T) {
	cfg := &types.AppConfig{
		AppName: types.StringPtr("fee-node"),
		DataDir: types.StringPtr("/var/lib/zkvm"),
		Log:     &types.UserLogConfig{Level: types.StringPtr("debug")},
		Storage: &types.UserStorageConfig{Engine: types.StringPtr("MEMORY")},
		VM: &types.UserVMConfig{
			Network:     types.StringPtr("bls12-381"),
			MerkleDepth: types.IntPtr(16),
			PathCacheMB: types.IntPtr(8),
		},
	}
	provider := NewProvider(cfg)

	assert.Equal(t, "fee-node", provider.GetAppName())
	assert.Equal(t, "/var/lib/zkvm", provider.GetDataDir())
	assert.Equal(t, types.DebugLevel, provider.GetLog().Level)
	assert.Equal(t, badgerconfig.EngineMemory, provider.GetStorageEngine())
	assert.True(t, provider.GetBadger().InMemory)
	assert.Equal(t, 8, provider.GetMemory().HardMaxMB)
	assert.Equal(t, "bls12-381", provider.GetVM().Network)
	assert.Equal(t, 16, provider.GetVM().MerkleDepth)
}

// TestDataDirFallsBackToStorage 测试 data_dir 与 storage.data_root 的优先级
func TestDataDirFallsBackToStorage(t *testing.T) {
	t.Run("仅配置 data_dir 时存储落在其下", func(t *testing.T) {
		provider := NewProvider(&types.AppConfig{DataDir: types.StringPtr("/tmp/zk")})
		assert.Equal(t, filepath.Join("/tmp/zk", "badger"), provider.GetBadger().Path)
	})

	t.Run("storage.data_root 优先", func(t *testing.T) {
		provider := NewProvider(&types.AppConfig{
			DataDir: types.StringPtr("/tmp/zk"),
			Storage: &types.UserStorageConfig{DataRoot: types.StringPtr("/srv/zk")},
		})
		assert.Equal(t, "/srv/zk", provider.GetDataDir())
		assert.Equal(t, filepath.Join("/srv/zk", "badger"), provider.GetBadger().Path)
	})

	t.Run("补全不修改原始配置", func(t *testing.T) {
		cfg := &types.AppConfig{DataDir: types.StringPtr("/tmp/zk")}
		NewProvider(cfg).(*Provider).UserStorage()
		assert.Nil(t, cfg.Storage)
	})
}

// TestValidateMandatoryConfig 测试配置校验
func TestValidateMandatoryConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *types.AppConfig
		wantErr []string
	}{
		{name: "空配置", cfg: nil},
		{name: "默认配置", cfg: &types.AppConfig{}},
		{
			name: "合法配置",
			cfg: &types.AppConfig{
				Storage: &types.UserStorageConfig{Engine: types.StringPtr("badger")},
				Log:     &types.UserLogConfig{Level: types.StringPtr("WARN")},
				VM:      &types.UserVMConfig{ProvingScheme: types.StringPtr("plonk")},
			},
		},
		{
			name:    "未知存储引擎",
			cfg:     &types.AppConfig{Storage: &types.UserStorageConfig{Engine: types.StringPtr("sqlite")}},
			wantErr: []string{"storage.engine"},
		},
		{
			name: "多项错误一并报告",
			cfg: &types.AppConfig{
				Log: &types.UserLogConfig{Level: types.StringPtr("verbose")},
				VM: &types.UserVMConfig{
					Network:       types.StringPtr("secp256k1"),
					ProvingScheme: types.StringPtr("stark"),
				},
			},
			wantErr: []string{"log.level", "vm", "vm.proving_scheme"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMandatoryConfig(tt.cfg)
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			var errs *ValidationErrors
			require.True(t, errors.As(err, &errs))
			fields := make([]string, 0, len(errs.Errors))
			for _, e := range errs.Errors {
				var ve *ValidationError
				require.True(t, errors.As(e, &ve))
				fields = append(fields, ve.Field)
			}
			assert.Equal(t, tt.wantErr, fields)
		})
	}
}

// TestProvideConfigServices 测试配置模块输出
func TestProvideConfigServices(t *testing.T) {
	t.Run("无应用配置", func(t *testing.T) {
		out, err := ProvideConfigServices(ConfigParams{})
		require.NoError(t, err)
		assert.Nil(t, out.LogConfig)
		assert.Nil(t, out.VMConfig)
		require.NotNil(t, out.StorageConfig)
		assert.Nil(t, out.StorageConfig.Engine)
	})

	t.Run("非法配置启动失败", func(t *testing.T) {
		opts := staticOptions{&types.AppConfig{VM: &types.UserVMConfig{MerkleDepth: types.IntPtr(0)}}}
		_, err := ProvideConfigServices(ConfigParams{AppOptions: opts})
		assert.Error(t, err)
	})
}

type staticOptions struct {
	cfg *types.AppConfig
}

func (o staticOptions) GetAppConfig() *types.AppConfig { return o.cfg }
