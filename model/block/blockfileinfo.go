package block

import (
	"fmt"
	"io"
	"time"

	"github.com/UdjinM6/dash-sub001/util"
)

// BlockFileInfo is the summary kept for every blk?????.dat file.
type BlockFileInfo struct {
	Blocks      uint32 // number of blocks stored in file
	Size        uint32 // number of used bytes of block file
	UndoSize    uint32 // number of used bytes in the undo file
	HeightFirst uint32 // lowest height of block in file
	HeightLast  uint32 // highest height of block in file
	TimeFirst   uint64 // earliest time of block in file
	TimeLast    uint64 // latest time of block in file
}

func NewBlockFileInfo() *BlockFileInfo {
	return new(BlockFileInfo)
}

func (bfi *BlockFileInfo) Serialize(w io.Writer) error {
	for _, v := range []uint64{uint64(bfi.Blocks), uint64(bfi.Size), uint64(bfi.UndoSize),
		uint64(bfi.HeightFirst), uint64(bfi.HeightLast), bfi.TimeFirst, bfi.TimeLast} {
		if err := util.WriteVarLenInt(w, v); err != nil {
			return err
		}
	}
	return nil
}

func (bfi *BlockFileInfo) Unserialize(r io.Reader) error {
	var vals [7]uint64
	for i := range vals {
		v, err := util.ReadVarLenInt(r)
		if err != nil {
			return err
		}
		vals[i] = v
	}
	bfi.Blocks = uint32(vals[0])
	bfi.Size = uint32(vals[1])
	bfi.UndoSize = uint32(vals[2])
	bfi.HeightFirst = uint32(vals[3])
	bfi.HeightLast = uint32(vals[4])
	bfi.TimeFirst = vals[5]
	bfi.TimeLast = vals[6]
	return nil
}

func (bfi *BlockFileInfo) SetNull() {
	*bfi = BlockFileInfo{}
}

// AddBlock updates the statistics for a block stored in this file.
func (bfi *BlockFileInfo) AddBlock(height uint32, blockTime uint64) {
	if bfi.Blocks == 0 || bfi.HeightFirst > height {
		bfi.HeightFirst = height
	}
	if bfi.Blocks == 0 || bfi.TimeFirst > blockTime {
		bfi.TimeFirst = blockTime
	}
	bfi.Blocks++
	if height > bfi.HeightLast {
		bfi.HeightLast = height
	}
	if blockTime > bfi.TimeLast {
		bfi.TimeLast = blockTime
	}
}

func (bfi *BlockFileInfo) String() string {
	return fmt.Sprintf("BlockFileInfo(blocks=%d, size=%d, heights=%d...%d, time=%s...%s)",
		bfi.Blocks, bfi.Size, bfi.HeightFirst, bfi.HeightLast,
		time.Unix(int64(bfi.TimeFirst), 0).UTC().Format("2006-01-02"),
		time.Unix(int64(bfi.TimeLast), 0).UTC().Format("2006-01-02"))
}
