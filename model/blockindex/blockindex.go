package blockindex

import (
	"fmt"
	"math/big"

	"github.com/UdjinM6/dash-sub001/model/block"
	"github.com/UdjinM6/dash-sub001/util"
)

// NoIndex marks a missing parent or skip link.
const NoIndex int32 = -1

// BlockIndex is one node of the block tree. The tree lives in an Arena;
// Prev and Skip are positions in that arena rather than pointers.
type BlockIndex struct {
	Header    block.BlockHeader
	BlockHash util.Hash

	// arena position of the predecessor of this block
	Prev int32
	// arena position of some further predecessor, for fast ancestor lookup
	Skip int32

	// height of the entry in the chain. The genesis block has height 0
	Height int32
	// which # file this block is stored in (blk?????.dat)
	File int32
	// byte offset within blk?????.dat where this block's data is stored
	DataPos uint32
	// byte offset within rev?????.dat where this block's undo data is stored
	UndoPos uint32
	// number of transactions in this block
	TxCount int32
	Status  uint32

	// (memory only) total work in the chain up to and including this block
	ChainWork big.Int
	// (memory only) number of transactions in the chain up to and including
	// this block; zero unless all ancestors have their transactions
	ChainTxCount int32
	// (memory only) maximum time in the chain up to and including this block
	TimeMax uint32
}

func NewBlockIndex(blkHeader *block.BlockHeader) *BlockIndex {
	bIndex := new(BlockIndex)
	bIndex.SetNull()
	bIndex.Header = *blkHeader
	return bIndex
}

func (bIndex *BlockIndex) SetNull() {
	*bIndex = BlockIndex{
		Prev: NoIndex,
		Skip: NoIndex,
	}
}

func (bIndex *BlockIndex) HaveData() bool {
	return bIndex.Status&BlockHaveData != 0
}

func (bIndex *BlockIndex) HaveUndo() bool {
	return bIndex.Status&BlockHaveUndo != 0
}

func (bIndex *BlockIndex) Failed() bool {
	return bIndex.Status&BlockInvalidMask != 0
}

func (bIndex *BlockIndex) AddStatus(status uint32) {
	bIndex.Status |= status
}

func (bIndex *BlockIndex) SubStatus(status uint32) {
	bIndex.Status &= ^status
}

// IsValid checks whether this block index entry is valid up to the passed
// validity level.
func (bIndex *BlockIndex) IsValid(upto uint32) bool {
	if upto&^BlockValidityMask != 0 {
		panic("only validity flags allowed")
	}
	if bIndex.Failed() {
		return false
	}
	return bIndex.Status&BlockValidityMask >= upto
}

// RaiseValidity raises the validity level of this block index entry and
// reports whether it changed.
func (bIndex *BlockIndex) RaiseValidity(upto uint32) bool {
	if upto&^BlockValidityMask != 0 {
		panic("only validity flags allowed")
	}
	if bIndex.Failed() {
		return false
	}
	if bIndex.Status&BlockValidityMask < upto {
		bIndex.Status = (bIndex.Status &^ BlockValidityMask) | upto
		return true
	}
	return false
}

func (bIndex *BlockIndex) GetUndoPos() block.DiskBlockPos {
	if !bIndex.HaveUndo() {
		return block.DiskBlockPos{File: -1}
	}
	return block.DiskBlockPos{File: bIndex.File, Pos: bIndex.UndoPos}
}

func (bIndex *BlockIndex) GetBlockPos() block.DiskBlockPos {
	if !bIndex.HaveData() {
		return block.DiskBlockPos{File: -1}
	}
	return block.DiskBlockPos{File: bIndex.File, Pos: bIndex.DataPos}
}

func (bIndex *BlockIndex) GetBlockHeader() *block.BlockHeader {
	return &bIndex.Header
}

func (bIndex *BlockIndex) GetBlockHash() *util.Hash {
	return &bIndex.BlockHash
}

func (bIndex *BlockIndex) GetBlockTime() uint32 {
	return bIndex.Header.Time
}

func (bIndex *BlockIndex) String() string {
	return fmt.Sprintf("BlockIndex(prev=%d, height=%d, merkle=%s, hashBlock=%s)",
		bIndex.Prev, bIndex.Height, bIndex.Header.MerkleRoot, bIndex.BlockHash)
}
