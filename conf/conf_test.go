package conf

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UdjinM6/dash-sub001/errcode"
)

var confData = []byte(`
network: test
log:
  level: error
  module:
    - coindb
cache:
  dbcache: 100
batch:
  size: 4096
index:
  address: true
`)

func TestInitConfigDefaults(t *testing.T) {
	dir, err := ioutil.TempDir("", "conftest")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	config, err := InitConfig([]string{"--datadir=" + dir})
	require.NoError(t, err)

	assert.Equal(t, dir, config.DataDir)
	assert.Equal(t, NetworkMain, config.Network)
	assert.Equal(t, "info", config.Log.Level)
	assert.Equal(t, []string{"coindb", "blkdb", "indexdb", "chainstate"}, config.Log.Module)
	assert.Equal(t, int64(300), config.Cache.DbCache)
	assert.Equal(t, int64(8), config.Cache.MaxCoinsDBCache)
	assert.Equal(t, int64(2), config.Cache.MaxBlockDBCache)
	assert.Equal(t, int64(16<<20), config.Batch.Size)
	assert.Equal(t, 0, config.Batch.CrashRatio)
	assert.False(t, config.Index.Address)
	assert.False(t, config.Reindex)
	assert.Equal(t, dir, config.NetDataDir())
}

func TestInitConfigFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "conftest")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, confFileName), confData, 0664))

	config, err := InitConfig([]string{"--datadir=" + dir, "--dbcache=50", "--timestampindex"})
	require.NoError(t, err)

	assert.Equal(t, NetworkTest, config.Network)
	assert.Equal(t, "error", config.Log.Level)
	assert.Equal(t, []string{"coindb"}, config.Log.Module)
	// command line wins over the file
	assert.Equal(t, int64(50), config.Cache.DbCache)
	assert.Equal(t, int64(4096), config.Batch.Size)
	assert.True(t, config.Index.Address)
	assert.True(t, config.Index.Timestamp)
	assert.Equal(t, filepath.Join(dir, "testnet3"), config.NetDataDir())
}

func TestInitConfigEnv(t *testing.T) {
	dir, err := ioutil.TempDir("", "conftest")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	os.Setenv("CHAINSTATE_BATCH_CRASHRATIO", "7")
	defer os.Unsetenv("CHAINSTATE_BATCH_CRASHRATIO")

	config, err := InitConfig([]string{"--datadir=" + dir, "--regtest"})
	require.NoError(t, err)
	assert.Equal(t, 7, config.Batch.CrashRatio)
	assert.Equal(t, NetworkRegTest, config.Network)
}

func TestValidate(t *testing.T) {
	c := &Configuration{DataDir: "/tmp", Network: "moon"}
	c.Cache.DbCache = 1
	c.Batch.Size = 1
	assert.True(t, errcode.IsErrorCode(c.Validate(), errcode.ErrorBadNetwork))

	c.Network = NetworkMain
	assert.NoError(t, c.Validate())

	c.Batch.Size = 0
	assert.True(t, errcode.IsErrorCode(c.Validate(), errcode.ErrorBadCacheSize))

	c.Batch.Size = 1
	c.DataDir = ""
	assert.True(t, errcode.IsErrorCode(c.Validate(), errcode.ErrorBadDataDir))
}

func TestSplitCache(t *testing.T) {
	c := &Configuration{}
	c.Cache.DbCache = 300
	c.Cache.MaxBlockDBCache = 2
	c.Cache.MaxCoinsDBCache = 8

	sizes := c.SplitCache()
	assert.Equal(t, int64(2<<20), sizes.BlockTreeDB)
	assert.Equal(t, int64(8<<20), sizes.CoinsDB)
	assert.Equal(t, int64(290<<20), sizes.CoinsTip)

	// clamped to the minimum
	c.Cache.DbCache = 1
	sizes = c.SplitCache()
	assert.Equal(t, int64(MinDbCache<<20), sizes.BlockTreeDB+sizes.CoinsDB+sizes.CoinsTip)
	assert.Equal(t, int64(512<<10), sizes.BlockTreeDB)
}
