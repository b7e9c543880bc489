package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"vm":{"network":"bn254","merkle_depth":12}}`), 0o600))

	globalFlags = GlobalFlags{ConfigPath: path, Network: "bls12-381", LogLevel: "warn"}
	t.Cleanup(func() { globalFlags = GlobalFlags{} })

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "bls12-381", *cfg.VM.Network)
	assert.Equal(t, 12, *cfg.VM.MerkleDepth)
	assert.Equal(t, "warn", *cfg.Log.Level)
	assert.Nil(t, cfg.VM.ProvingScheme)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "zkvm")
}
