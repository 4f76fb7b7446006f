package blockindex

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UdjinM6/dash-sub001/model/block"
	"github.com/UdjinM6/dash-sub001/util"
)

const SkipListLength = 30000

func hashOf(i int) util.Hash {
	var h util.Hash
	h[0] = byte(i)
	h[1] = byte(i >> 8)
	h[2] = byte(i >> 16)
	h[31] = 0x01
	return h
}

// buildChain inserts a single chain of n blocks into a fresh arena.
func buildChain(n int) *Arena {
	arena := NewArena()
	prev := NoIndex
	for i := 0; i < n; i++ {
		idx := arena.Insert(hashOf(i))
		node := arena.Get(idx)
		node.Height = int32(i)
		node.Prev = prev
		node.Header.Bits = 0x207fffff
		node.Header.Time = uint32(1000 + i)
		node.TxCount = 1
		node.Status = BlockValidTree
		if prev != NoIndex {
			node.Header.HashPrevBlock = hashOf(i - 1)
		}
		prev = idx
	}
	return arena
}

func TestBlockIndexGetAncestor(t *testing.T) {
	arena := buildChain(SkipListLength)
	arena.ComputeChainState()

	for i := int32(1); i < SkipListLength; i++ {
		node := arena.Get(i)
		skip := arena.Get(node.Skip)
		require.NotNil(t, skip)
		assert.True(t, skip.Height < node.Height)
		assert.Equal(t, node.Skip, skip.Height)
	}
	assert.Equal(t, NoIndex, arena.Get(0).Skip)

	r := rand.New(rand.NewSource(0))
	tip := int32(SkipListLength - 1)
	for i := 0; i < 1000; i++ {
		from := r.Int31n(SkipListLength - 1)
		to := r.Int31n(from + 1)

		assert.Equal(t, from, arena.GetAncestor(tip, from))
		assert.Equal(t, to, arena.GetAncestor(from, to))
		assert.Equal(t, int32(0), arena.GetAncestor(from, 0))
	}
	assert.Equal(t, NoIndex, arena.GetAncestor(10, 11))
	assert.Equal(t, NoIndex, arena.GetAncestor(10, -1))
}

func TestArenaInsertIdempotent(t *testing.T) {
	arena := NewArena()
	h := hashOf(7)
	first := arena.Insert(h)
	second := arena.Insert(h)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, arena.Len())

	assert.Equal(t, NoIndex, arena.Insert(util.HashZero))
	assert.Nil(t, arena.Get(NoIndex))

	i, ok := arena.Lookup(&h)
	assert.True(t, ok)
	assert.Equal(t, first, i)
	_, ok = arena.Lookup(&util.HashZero)
	assert.False(t, ok)
	assert.Equal(t, h, *arena.Get(first).GetBlockHash())
}

func TestSortedByHeight(t *testing.T) {
	arena := NewArena()
	for i, height := range []int32{5, 1, 3, 1, 0} {
		arena.Get(arena.Insert(hashOf(i))).Height = height
	}
	sorted := arena.SortedByHeight()
	assert.Equal(t, []int32{4, 1, 3, 2, 0}, sorted)
}

func TestComputeChainState(t *testing.T) {
	arena := buildChain(10)
	// block 5 has no transactions yet, so the chain count stops there
	arena.Get(5).TxCount = 0
	arena.Get(3).Header.Time = 5000
	arena.ComputeChainState()

	assert.Equal(t, int32(1), arena.Get(0).ChainTxCount)
	assert.Equal(t, int32(5), arena.Get(4).ChainTxCount)
	assert.Equal(t, int32(0), arena.Get(5).ChainTxCount)
	assert.Equal(t, int32(0), arena.Get(9).ChainTxCount)

	// regtest blocks are worth two hashes each
	assert.Equal(t, int64(2), arena.Get(0).ChainWork.Int64())
	assert.Equal(t, int64(20), arena.Get(9).ChainWork.Int64())

	assert.Equal(t, uint32(1002), arena.Get(2).TimeMax)
	assert.Equal(t, uint32(5000), arena.Get(9).TimeMax)

	assert.Equal(t, int32(9), arena.BestByWork())
	assert.Equal(t, arena.Get(8), arena.Parent(9))

	arena.Get(9).AddStatus(BlockFailed)
	assert.Equal(t, int32(8), arena.BestByWork())
}

func TestStatus(t *testing.T) {
	var bIndex BlockIndex
	bIndex.SetNull()
	assert.Equal(t, NoIndex, bIndex.Prev)

	assert.True(t, bIndex.RaiseValidity(BlockValidTree))
	assert.False(t, bIndex.RaiseValidity(BlockValidHeader))
	assert.True(t, bIndex.IsValid(BlockValidHeader))
	assert.True(t, bIndex.IsValid(BlockValidTree))
	assert.False(t, bIndex.IsValid(BlockValidScripts))

	bIndex.AddStatus(BlockHaveData)
	assert.True(t, bIndex.HaveData())
	assert.False(t, bIndex.HaveUndo())
	bIndex.SubStatus(BlockHaveData)
	assert.False(t, bIndex.HaveData())

	bIndex.AddStatus(BlockFailedParent)
	assert.True(t, bIndex.Failed())
	assert.False(t, bIndex.IsValid(BlockValidHeader))
	assert.False(t, bIndex.RaiseValidity(BlockValidScripts))
}

func TestGetBlockPos(t *testing.T) {
	bIndex := NewBlockIndex(&block.BlockHeader{Time: 7})
	dataPos, undoPos := bIndex.GetBlockPos(), bIndex.GetUndoPos()
	assert.True(t, dataPos.IsNull())
	assert.True(t, undoPos.IsNull())
	assert.Equal(t, uint32(7), bIndex.GetBlockTime())

	bIndex.File = 34536
	bIndex.DataPos = 53645
	bIndex.UndoPos = 11
	bIndex.AddStatus(BlockHaveData | BlockHaveUndo)
	assert.Equal(t, block.DiskBlockPos{File: 34536, Pos: 53645}, bIndex.GetBlockPos())
	assert.Equal(t, block.DiskBlockPos{File: 34536, Pos: 11}, bIndex.GetUndoPos())
}

func TestSerialize(t *testing.T) {
	r := rand.New(rand.NewSource(0))
	buf := bytes.NewBuffer(nil)
	for i := 0; i < 100; i++ {
		var bIndex1, bIndex2 BlockIndex
		bIndex1.Height = r.Int31()
		bIndex1.Status = r.Uint32() & 0x7f
		bIndex1.TxCount = r.Int31()
		if bIndex1.Status&BlockHaveMask != 0 {
			bIndex1.File = r.Int31()
		}
		if bIndex1.HaveData() {
			bIndex1.DataPos = r.Uint32()
		}
		if bIndex1.HaveUndo() {
			bIndex1.UndoPos = r.Uint32()
		}
		bIndex1.BlockHash = hashOf(i)
		bIndex1.Header = block.BlockHeader{
			Version:       r.Int31(),
			HashPrevBlock: hashOf(i + 1),
			MerkleRoot:    hashOf(i + 2),
			Time:          r.Uint32(),
			Bits:          r.Uint32(),
			Nonce:         r.Uint32(),
		}

		buf.Reset()
		require.NoError(t, bIndex1.Serialize(buf))
		require.NoError(t, bIndex2.Unserialize(buf))
		assert.Equal(t, 0, buf.Len())

		assert.Equal(t, bIndex1.Height, bIndex2.Height)
		assert.Equal(t, bIndex1.Status, bIndex2.Status)
		assert.Equal(t, bIndex1.TxCount, bIndex2.TxCount)
		assert.Equal(t, bIndex1.File, bIndex2.File)
		assert.Equal(t, bIndex1.DataPos, bIndex2.DataPos)
		assert.Equal(t, bIndex1.UndoPos, bIndex2.UndoPos)
		assert.Equal(t, bIndex1.BlockHash, bIndex2.BlockHash)
		assert.Equal(t, bIndex1.Header, bIndex2.Header)
	}
}

func TestSerializeOmitsMissingPositions(t *testing.T) {
	var bIndex BlockIndex
	bIndex.SetNull()
	bIndex.Height = 1
	bIndex.File = 9
	bIndex.DataPos = 9

	buf := bytes.NewBuffer(nil)
	require.NoError(t, bIndex.Serialize(buf))
	// version (3 bytes) + height + status + tx count, then hash and header
	assert.Equal(t, 3+1+1+1+32+4+32+32+4+4+4, buf.Len())

	var out BlockIndex
	require.NoError(t, out.Unserialize(buf))
	assert.Equal(t, int32(0), out.File)
	assert.Equal(t, uint32(0), out.DataPos)

	assert.Error(t, out.Unserialize(bytes.NewReader([]byte{0x80})))
}
