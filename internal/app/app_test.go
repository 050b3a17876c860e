package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/dualchain/internal/core/chain/testutil"
	"github.com/weisyn/dualchain/pkg/types"
)

func testConfig(t *testing.T) *types.AppConfig {
	return &types.AppConfig{
		DataDir: types.StringPtr(t.TempDir()),
		Log:     &types.UserLogConfig{Level: types.StringPtr("error"), FilePath: types.StringPtr("stderr")},
		Storage: &types.UserStorageConfig{InMemory: types.BoolPtr(true), GCInterval: types.StringPtr("0s")},
	}
}

func TestStartProposeStop(t *testing.T) {
	a, err := Start(WithAppConfig(testConfig(t)), WithRecoverOnStart())
	require.NoError(t, err)

	ctx := context.Background()
	genesis := testutil.ReferenceChild(nil, 0, 1)
	result, err := a.ForkChoice().ProposeHeader(ctx, types.ReferenceMagic, genesis, genesis.ParentHash())
	require.NoError(t, err)
	assert.True(t, result.Accepted())

	n, err := a.Backend().ChangeLog().Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)
	assert.NotNil(t, a.Metrics())
	assert.NotNil(t, a.Logger())

	require.NoError(t, a.Stop(ctx))
}

func TestOptionsOverrideConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"data_dir":"/should/be/overridden","log":{"level":"debug"}}`), 0o600))

	cfg, err := loadConfigFile(path)
	require.NoError(t, err)
	opts := newOptions(WithAppConfig(cfg), WithDataDir(dir), WithLogLevel("warn"))
	assert.Equal(t, dir, *opts.GetAppConfig().DataDir)
	assert.Equal(t, "warn", *opts.GetAppConfig().Log.Level)
}

func TestMissingConfigFile(t *testing.T) {
	_, err := loadConfigFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
