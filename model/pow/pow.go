package pow

import (
	"math/big"

	"github.com/UdjinM6/dash-sub001/model/chainparams"
	"github.com/UdjinM6/dash-sub001/util"
)

type Pow struct{}

// CheckProofOfWork reports whether hash satisfies the target encoded in
// bits and the target itself is within the network limit.
func (pow *Pow) CheckProofOfWork(hash *util.Hash, bits uint32, params *chainparams.ChainParams) bool {
	if CompactOverflows(bits) {
		return false
	}
	target := CompactToBig(bits)
	if target.Sign() <= 0 || target.Cmp(params.PowLimit) > 0 ||
		hash.ToBigInt().Cmp(target) > 0 {
		return false
	}

	return true
}

// GetBlockProof is the expected number of hashes needed for a block with
// the given bits: 2^256 / (target+1).
func GetBlockProof(bits uint32) *big.Int {
	if CompactOverflows(bits) {
		return big.NewInt(0)
	}
	target := CompactToBig(bits)
	if target.Sign() <= 0 {
		return big.NewInt(0)
	}
	denominator := new(big.Int).Add(target, bigOne)
	return new(big.Int).Div(oneLsh256, denominator)
}
