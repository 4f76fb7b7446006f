package block

import (
	"fmt"
	"io"

	"github.com/UdjinM6/dash-sub001/util"
)

// DiskBlockPos locates a block or its undo data inside the numbered
// blk/rev files.
type DiskBlockPos struct {
	File int32
	Pos  uint32
}

// Serialize writes the position as two VARINTs. A null position is never
// serialized.
func (dbp *DiskBlockPos) Serialize(w io.Writer) error {
	if err := util.WriteVarLenInt(w, uint64(dbp.File)); err != nil {
		return err
	}
	return util.WriteVarLenInt(w, uint64(dbp.Pos))
}

func (dbp *DiskBlockPos) Unserialize(r io.Reader) error {
	file, err := util.ReadVarLenInt(r)
	if err != nil {
		return err
	}
	pos, err := util.ReadVarLenInt(r)
	if err != nil {
		return err
	}
	dbp.File = int32(file)
	dbp.Pos = uint32(pos)
	return nil
}

func (dbp *DiskBlockPos) SetNull() {
	dbp.File = -1
	dbp.Pos = 0
}

func (dbp *DiskBlockPos) Equal(other *DiskBlockPos) bool {
	return dbp.Pos == other.Pos && dbp.File == other.File
}

func (dbp *DiskBlockPos) IsNull() bool {
	return dbp.File == -1
}

func (dbp *DiskBlockPos) String() string {
	return fmt.Sprintf("DiskBlockPos(File=%d, Pos=%d)", dbp.File, dbp.Pos)
}

func NewDiskBlockPos(file int32, pos uint32) *DiskBlockPos {
	return &DiskBlockPos{File: file, Pos: pos}
}
