package pow

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/UdjinM6/dash-sub001/model/chainparams"
	"github.com/UdjinM6/dash-sub001/util"
)

// TestBigToCompact ensures BigToCompact converts big integers to the expected
// compact representation.
func TestBigToCompact(t *testing.T) {
	tests := []struct {
		in  int64
		out uint32
	}{
		{0, 0},
		{-1, 25231360},
		{0x12, 0x01120000},
		{0x80, 0x02008000},
	}

	for x, test := range tests {
		n := big.NewInt(test.in)
		r := BigToCompact(n)
		if r != test.out {
			t.Errorf("TestBigToCompact test #%d failed: got %d want %d\n",
				x, r, test.out)
			return
		}
	}
}

// TestCompactToBig ensures CompactToBig converts numbers using the compact
// representation to the expected big intergers.
func TestCompactToBig(t *testing.T) {
	tests := []struct {
		in  uint32
		out int64
	}{
		{10000000, 0},
		{0x01120000, 0x12},
		{0x02008000, 0x80},
		{0x05009234, 0x92340000},
		{0x01fedcba, -0x7e},
	}

	for x, test := range tests {
		n := CompactToBig(test.in)
		want := big.NewInt(test.out)
		if n.Cmp(want) != 0 {
			t.Errorf("TestCompactToBig test #%d failed: got %d want %d\n",
				x, n.Int64(), want.Int64())
			return
		}
	}
}

func TestCompactOverflows(t *testing.T) {
	assert.True(t, CompactOverflows(0xff123456))
	assert.False(t, CompactOverflows(0x1e0ffff0))
	assert.False(t, CompactOverflows(0x207fffff))
}

func TestCheckProofOfWork(t *testing.T) {
	pow := Pow{}
	main := &chainparams.MainNetParams

	assert.True(t, pow.CheckProofOfWork(&main.GenesisHash, main.GenesisBlock.Bits, main))

	// hash above target
	high := util.HashFromString("00001ffd590b1485b3caadc19b22e6379c733355108f107a430458cdf3407ab6")
	assert.False(t, pow.CheckProofOfWork(high, main.GenesisBlock.Bits, main))

	// target above the network limit
	assert.False(t, pow.CheckProofOfWork(&main.GenesisHash, 0x207fffff, main))

	// negative and zero targets
	assert.False(t, pow.CheckProofOfWork(&util.HashZero, 0x01fedcba, main))
	assert.False(t, pow.CheckProofOfWork(&util.HashZero, 0, main))

	reg := &chainparams.RegressionNetParams
	assert.True(t, pow.CheckProofOfWork(util.HashFromString("01"), 0x207fffff, reg))
}

func TestGetBlockProof(t *testing.T) {
	assert.Equal(t, int64(0), GetBlockProof(0).Int64())
	// regtest target 0x7fffff<<232 gives two expected hashes
	assert.Equal(t, int64(2), GetBlockProof(0x207fffff).Int64())
	assert.Equal(t, 1, GetBlockProof(0x1e0ffff0).Cmp(GetBlockProof(0x207fffff)))
}
