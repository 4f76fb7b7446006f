package blkdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UdjinM6/dash-sub001/errcode"
	"github.com/UdjinM6/dash-sub001/model/block"
	"github.com/UdjinM6/dash-sub001/model/blockindex"
	"github.com/UdjinM6/dash-sub001/model/chainparams"
	"github.com/UdjinM6/dash-sub001/persist/chainlock"
	"github.com/UdjinM6/dash-sub001/util"
)

func TestFileTracker(t *testing.T) {
	btdb, gate := newMemBlockTreeDB(t)
	tracker := NewFileTracker()
	assert.True(t, tracker.Empty())

	arena := blockindex.NewArena()
	for _, node := range []*blockindex.BlockIndex{newNode("01", "", 0), newNode("02", "01", 1)} {
		pos := arena.Insert(node.BlockHash)
		*arena.Get(pos) = *node
		tracker.MarkIndexDirty(node.BlockHash)
	}
	infos := []*block.BlockFileInfo{block.NewBlockFileInfo(), block.NewBlockFileInfo(), block.NewBlockFileInfo()}
	infos[2].AddBlock(1, 1500000150)
	tracker.MarkFileDirty(2)
	tracker.MarkFileDirty(0)
	tracker.MarkFileDirty(2)

	assert.Equal(t, []int32{0, 2}, tracker.DirtyFiles())
	assert.True(t, tracker.IsFileDirty(2))
	assert.False(t, tracker.IsFileDirty(1))
	assert.True(t, tracker.IsIndexDirty(*util.HashFromString("02")))

	// without the guard nothing is written and nothing is forgotten
	err := tracker.Flush(nil, btdb, infos, 2, arena)
	assert.True(t, errcode.IsErrorCode(err, errcode.ErrorNoGuard))
	assert.False(t, tracker.Empty())

	require.NoError(t, gate.With(func(guard *chainlock.Guard) error {
		return tracker.Flush(guard, btdb, infos, 2, arena)
	}))
	assert.True(t, tracker.Empty())

	got, ok, err := btdb.ReadBlockFileInfo(2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, infos[2], got)
	_, ok, err = btdb.ReadBlockFileInfo(1)
	require.NoError(t, err)
	assert.False(t, ok)

	loaded := blockindex.NewArena()
	require.NoError(t, btdb.LoadBlockIndexGuts(&chainparams.RegressionNetParams, loaded))
	assert.Equal(t, 2, loaded.Len())
}
