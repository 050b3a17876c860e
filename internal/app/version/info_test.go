package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildInfoListsBothChains(t *testing.T) {
	info := GetBuildInfo()
	assert.Equal(t, []string{"BTCR", "PRIM"}, info.Chains)
	assert.Contains(t, info.String(), "dualchain "+Version)
	assert.Contains(t, info.String(), "BTCR, PRIM")
}

func TestInjectedCommitIsShortened(t *testing.T) {
	prev := Commit
	t.Cleanup(func() { Commit = prev })

	Commit = "0123456789abcdef0123"
	info := GetBuildInfo()
	assert.Equal(t, "0123456789ab", info.Commit)
	assert.Contains(t, info.String(), "(0123456789ab)")
}
