package block

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UdjinM6/dash-sub001/util"
)

func TestBlockHeaderSerialize(t *testing.T) {
	bh := &BlockHeader{
		Version:       1,
		HashPrevBlock: *util.HashFromString("00000ffd590b1485b3caadc19b22e6379c733355108f107a430458cdf3407ab6"),
		MerkleRoot:    *util.HashFromString("e0028eb9648db56b1ac77cf090b99048a8007e2bb64b68f092c03c7f56a662c7"),
		Time:          1390095618,
		Bits:          0x1e0ffff0,
		Nonce:         28917698,
	}
	buf := bytes.NewBuffer(nil)
	require.NoError(t, bh.Serialize(buf))
	assert.Equal(t, BlockHeaderLength, buf.Len())

	raw := append([]byte(nil), buf.Bytes()...)
	var out BlockHeader
	require.NoError(t, out.Unserialize(buf))
	assert.Equal(t, *bh, out)

	assert.Equal(t, util.DoubleSha256Hash(raw), bh.GetHash())
	assert.False(t, bh.IsNull())
	bh.SetNull()
	assert.True(t, bh.IsNull())
}
