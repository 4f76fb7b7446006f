package chainparams

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/UdjinM6/dash-sub001/model/block"
	"github.com/UdjinM6/dash-sub001/util"
)

var (
	bigOne = big.NewInt(1)
	// 2^236 - 1
	mainPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 236), bigOne)
	// 2^255 - 1
	regressingPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)
)

// ChainParams holds the network constants the chain-state layer consults.
type ChainParams struct {
	Name        string
	DefaultPort string
	PowLimit    *big.Int

	GenesisHash  util.Hash
	GenesisBlock block.BlockHeader
}

var MainNetParams = ChainParams{
	Name:        "main",
	DefaultPort: "9999",
	PowLimit:    mainPowLimit,
	GenesisHash: *util.HashFromString("00000ffd590b1485b3caadc19b22e6379c733355108f107a430458cdf3407ab6"),
	GenesisBlock: block.BlockHeader{
		Version:    1,
		MerkleRoot: genesisMerkleRoot,
		Time:       1390095618,
		Bits:       0x1e0ffff0,
		Nonce:      28917698,
	},
}

var TestNetParams = ChainParams{
	Name:        "test",
	DefaultPort: "19999",
	PowLimit:    mainPowLimit,
	GenesisHash: *util.HashFromString("00000bafbc94add76cb75e2ec92894837288a481e5c005f6563d91623bf8bc2c"),
	GenesisBlock: block.BlockHeader{
		Version:    1,
		MerkleRoot: genesisMerkleRoot,
		Time:       1390666206,
		Bits:       0x1e0ffff0,
		Nonce:      3861367235,
	},
}

var RegressionNetParams = ChainParams{
	Name:        "regtest",
	DefaultPort: "19899",
	PowLimit:    regressingPowLimit,
	GenesisHash: *util.HashFromString("000008ca1832a4baf228eb1553c03d3a2c8e02399550dd6ea8d65cec3ef23d2e"),
	GenesisBlock: block.BlockHeader{
		Version:    1,
		MerkleRoot: genesisMerkleRoot,
		Time:       1417713337,
		Bits:       0x207fffff,
		Nonce:      1096447,
	},
}

var genesisMerkleRoot = *util.HashFromString("e0028eb9648db56b1ac77cf090b99048a8007e2bb64b68f092c03c7f56a662c7")

var ActiveNetParams = &MainNetParams

// Select returns the parameters registered under name.
func Select(name string) (*ChainParams, error) {
	switch name {
	case MainNetParams.Name:
		return &MainNetParams, nil
	case TestNetParams.Name:
		return &TestNetParams, nil
	case RegressionNetParams.Name:
		return &RegressionNetParams, nil
	}
	return nil, errors.Errorf("unknown network %q", name)
}
