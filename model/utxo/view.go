package utxo

import (
	"github.com/UdjinM6/dash-sub001/model/outpoint"
	"github.com/UdjinM6/dash-sub001/util"
)

// CoinsView is a layer of the coin set. The database is the bottom layer
// and a CoinsCache decorates whatever view sits below it.
type CoinsView interface {
	// GetCoin returns nil without error when the outpoint is unspent
	// nowhere in the view.
	GetCoin(outPoint *outpoint.OutPoint) (*Coin, error)
	HaveCoin(outPoint *outpoint.OutPoint) (bool, error)
	// GetBestBlock returns the hash of the block the view reflects, or the
	// zero hash when no block has been applied or a flush is in progress.
	GetBestBlock() (util.Hash, error)
	// GetHeadBlocks returns [new, old] while a flush is in progress and nil
	// otherwise.
	GetHeadBlocks() ([]util.Hash, error)
	EstimateSize() (uint64, error)
}

// CoinsMap holds the mutations handed to CoinsDB.Apply. A spent coin erases
// the outpoint.
type CoinsMap map[outpoint.OutPoint]*Coin
