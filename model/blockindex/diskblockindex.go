package blockindex

import (
	"io"

	"github.com/UdjinM6/dash-sub001/util"
)

// ClientVersion is written at the front of every block index record.
const ClientVersion = 180000

// Serialize writes the persisted form of the node: VARINT(version), height,
// status and tx count, the file positions the status says exist, the block
// hash and the header fields. The parent is stored by hash only; the arena
// link is resolved when the index is loaded.
func (bIndex *BlockIndex) Serialize(w io.Writer) error {
	vals := []uint64{ClientVersion, uint64(bIndex.Height), uint64(bIndex.Status), uint64(bIndex.TxCount)}
	if bIndex.Status&BlockHaveMask != 0 {
		vals = append(vals, uint64(bIndex.File))
	}
	if bIndex.Status&BlockHaveData != 0 {
		vals = append(vals, uint64(bIndex.DataPos))
	}
	if bIndex.Status&BlockHaveUndo != 0 {
		vals = append(vals, uint64(bIndex.UndoPos))
	}
	for _, v := range vals {
		if err := util.WriteVarLenInt(w, v); err != nil {
			return err
		}
	}

	h := &bIndex.Header
	return util.WriteElements(w, &bIndex.BlockHash, h.Version, &h.HashPrevBlock, &h.MerkleRoot,
		h.Time, h.Bits, h.Nonce)
}

func (bIndex *BlockIndex) Unserialize(r io.Reader) error {
	readInt := func() (uint64, error) {
		return util.ReadVarLenInt(r)
	}

	// client version is informational only
	if _, err := readInt(); err != nil {
		return err
	}
	height, err := readInt()
	if err != nil {
		return err
	}
	status, err := readInt()
	if err != nil {
		return err
	}
	txCount, err := readInt()
	if err != nil {
		return err
	}
	bIndex.Height = int32(height)
	bIndex.Status = uint32(status)
	bIndex.TxCount = int32(txCount)
	bIndex.File, bIndex.DataPos, bIndex.UndoPos = 0, 0, 0

	if bIndex.Status&BlockHaveMask != 0 {
		file, err := readInt()
		if err != nil {
			return err
		}
		bIndex.File = int32(file)
	}
	if bIndex.Status&BlockHaveData != 0 {
		pos, err := readInt()
		if err != nil {
			return err
		}
		bIndex.DataPos = uint32(pos)
	}
	if bIndex.Status&BlockHaveUndo != 0 {
		pos, err := readInt()
		if err != nil {
			return err
		}
		bIndex.UndoPos = uint32(pos)
	}

	h := &bIndex.Header
	err = util.ReadElements(r, &bIndex.BlockHash, &h.Version, &h.HashPrevBlock, &h.MerkleRoot,
		&h.Time, &h.Bits, &h.Nonce)
	return err
}
