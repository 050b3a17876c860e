package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/dualchain/pkg/types"
)

func TestDefaultsWithoutUserConfig(t *testing.T) {
	p := NewProvider(nil)

	assert.Equal(t, "info", p.GetLog().Level)
	assert.True(t, p.GetBadger().SyncWrites)
	assert.True(t, filepath.IsAbs(p.GetBadger().Path))
	assert.Equal(t, 288, p.GetChain().MaxReorgDepth)
	assert.True(t, p.GetEvent().Enabled)
	assert.Equal(t, "dualchain", p.GetMetrics().Namespace)
	assert.True(t, p.GetMemory().Enabled)
}

func TestUserConfigOverrides(t *testing.T) {
	root := t.TempDir()
	cfg := &types.AppConfig{
		Storage: &types.UserStorageConfig{DataRoot: types.StringPtr(root), InMemory: types.BoolPtr(true), GCInterval: types.StringPtr("0s")},
		Chain: &types.UserChainConfig{
			MaxReorgDepth: types.IntPtr(6),
			MaxOrphans:    types.IntPtr(3),
			OrphanTTL:     types.StringPtr("not-a-duration"),
		},
		Event:   &types.UserEventConfig{Enabled: types.BoolPtr(false)},
		Metrics: &types.UserMetricsConfig{Namespace: types.StringPtr("test")},
	}
	p := NewProvider(cfg)

	badger := p.GetBadger()
	assert.Equal(t, filepath.Join(root, "badger"), badger.Path)
	assert.True(t, badger.InMemory)
	assert.Equal(t, time.Duration(0), badger.GCInterval)

	chain := p.GetChain()
	assert.Equal(t, 6, chain.MaxReorgDepth)
	assert.Equal(t, 3, chain.MaxOrphans)
	// 非法时长保留默认值
	assert.Equal(t, time.Hour, chain.OrphanTTL)

	assert.False(t, p.GetEvent().Enabled)
	assert.Equal(t, "test", p.GetMetrics().Namespace)
}

func TestDataDirFallback(t *testing.T) {
	root := t.TempDir()
	p := NewProvider(&types.AppConfig{DataDir: types.StringPtr(root)})
	assert.Equal(t, filepath.Join(root, "badger"), p.GetBadger().Path)
}

func TestLoadAppConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dualchain.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"log": {"level": "debug", "file_path": "stdout"},
		"chain": {"max_reorg_depth": 12, "orphan_ttl": "5m"}
	}`), 0600))

	cfg, err := LoadAppConfig(path)
	require.NoError(t, err)
	p := NewProvider(cfg)
	assert.Equal(t, "debug", p.GetLog().Level)
	assert.Equal(t, "stdout", p.GetLog().FilePath)
	assert.Equal(t, 12, p.GetChain().MaxReorgDepth)
	assert.Equal(t, 5*time.Minute, p.GetChain().OrphanTTL)

	require.NoError(t, os.WriteFile(path, []byte(`{"chain": `), 0600))
	_, err = LoadAppConfig(path)
	assert.Error(t, err)

	_, err = LoadAppConfig(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
