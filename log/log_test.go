package log

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/astaxie/beego/logs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var level = []string{"emergency", "Alert", "critical", "error", "warn", "info", "debug", "Notice"}

func TestGetLevel(t *testing.T) {
	for _, levelStr := range level {
		num := GetLevel(levelStr)
		assert.True(t, num >= 0 && num <= 7, "level %s", levelStr)
	}
	assert.Equal(t, logs.LevelError, GetLevel("ERROR"))
	assert.Equal(t, defaultLogLevel, GetLevel("default"))
}

func TestModules(t *testing.T) {
	SetModules([]string{"persist", "utxo"})
	defer SetModules(nil)

	assert.True(t, IsIncludeModule("persist"))
	assert.True(t, IsIncludeModule("utxo"))
	assert.False(t, IsIncludeModule("rpc"))
}

func TestInitLogger(t *testing.T) {
	dir, err := ioutil.TempDir("", "logtest")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	assert.Error(t, InitLogger(dir, "verbose", nil))

	require.NoError(t, InitLogger(dir, "debug", []string{"persist"}))
	Print("persist", "info", "flushed %d coins", 3)
	Info("chain state at %s", "genesis")
	_ = Closure(func() string { return "lazy" }).String()

	// beego's file writer creates the file on the first write
	logs.GetBeeLogger().Flush()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err = os.Stat(filepath.Join(dir, "debug.log")); err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	assert.NoError(t, err)
}

func TestInit(t *testing.T) {
	dir, err := ioutil.TempDir("", "initLog")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	configuration, err := json.Marshal(logConfig{
		Filename: filepath.Join(dir, "init.log"),
		Level:    GetLevel("error"),
	})
	require.NoError(t, err)
	assert.NoError(t, Init(string(configuration)))
	// a second logger replaces the first one
	assert.NoError(t, Init(string(configuration)))
}
