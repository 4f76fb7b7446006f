package blkdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UdjinM6/dash-sub001/errcode"
	"github.com/UdjinM6/dash-sub001/persist/db"
)

func TestCheckLegacyTxindexClean(t *testing.T) {
	btdb, _ := newMemBlockTreeDB(t)
	warning, err := btdb.CheckLegacyTxindex()
	require.NoError(t, err)
	assert.Empty(t, warning)
}

func TestCheckLegacyTxindexFlag(t *testing.T) {
	btdb, _ := newMemBlockTreeDB(t)
	require.NoError(t, btdb.WriteFlag(FlagTxIndex, true))

	warning, err := btdb.CheckLegacyTxindex()
	require.NoError(t, err)
	assert.Contains(t, warning, "legacy 'txindex'")

	value, ok, err := btdb.ReadFlag(FlagTxIndex)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, value)

	// the warning is only shown once
	warning, err = btdb.CheckLegacyTxindex()
	require.NoError(t, err)
	assert.Empty(t, warning)
}

func TestCheckLegacyTxindexUpgrade(t *testing.T) {
	btdb, _ := newMemBlockTreeDB(t)
	require.NoError(t, btdb.Store().Write(db.Key(db.TagLegacyTxIndex), []byte{0x00}, false))
	require.NoError(t, btdb.WriteFlag(FlagTxIndex, true))

	for i := 0; i < 2; i++ {
		_, err := btdb.CheckLegacyTxindex()
		require.Error(t, err)
		assert.True(t, errcode.IsErrorCode(err, errcode.ErrorLegacyTxIndexUpgrade))
		assert.Contains(t, err.Error(), "run a full -reindex")
	}

	// an unfinished upgrade leaves the legacy flag alone
	value, _, err := btdb.ReadFlag(FlagTxIndex)
	require.NoError(t, err)
	assert.True(t, value)
}
