package outpoint

import (
	"fmt"
	"io"
	"math"

	"github.com/UdjinM6/dash-sub001/util"
)

// OutPoint identifies a transaction output by txid and output index.
type OutPoint struct {
	Hash  util.Hash
	Index uint32
}

func NewOutPoint(hash util.Hash, index uint32) *OutPoint {
	return &OutPoint{
		Hash:  hash,
		Index: index,
	}
}

func (outPoint *OutPoint) SerializeSize() uint32 {
	return util.Hash256Size + 4
}

// Serialize writes the txid followed by the little-endian index.
func (outPoint *OutPoint) Serialize(writer io.Writer) error {
	return util.WriteElements(writer, &outPoint.Hash, outPoint.Index)
}

func (outPoint *OutPoint) Unserialize(reader io.Reader) error {
	return util.ReadElements(reader, &outPoint.Hash, &outPoint.Index)
}

func (outPoint *OutPoint) String() string {
	return fmt.Sprintf("OutPoint ( hash:%s index: %d)", outPoint.Hash.String(), outPoint.Index)
}

func (outPoint *OutPoint) IsNull() bool {
	if outPoint == nil {
		return true
	}
	if outPoint.Index != math.MaxUint32 {
		return false
	}
	return outPoint.Hash.IsEqual(&util.HashZero)
}
