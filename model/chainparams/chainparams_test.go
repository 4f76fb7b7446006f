package chainparams

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelect(t *testing.T) {
	for _, name := range []string{"main", "test", "regtest"} {
		params, err := Select(name)
		require.NoError(t, err)
		assert.Equal(t, name, params.Name)
		assert.Equal(t, 1, params.PowLimit.Sign())
		assert.False(t, params.GenesisHash.IsNull())
	}

	_, err := Select("devnet")
	assert.Error(t, err)
}

func TestPowLimits(t *testing.T) {
	assert.Equal(t, 236, MainNetParams.PowLimit.BitLen())
	assert.Equal(t, 255, RegressionNetParams.PowLimit.BitLen())
	// genesis hashes meet their own limits
	assert.True(t, MainNetParams.GenesisHash.ToBigInt().Cmp(MainNetParams.PowLimit) <= 0)
	assert.True(t, TestNetParams.GenesisHash.ToBigInt().Cmp(TestNetParams.PowLimit) <= 0)
}
