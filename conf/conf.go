package conf

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/UdjinM6/dash-sub001/errcode"
)

const (
	tagName = "default"

	// ConfEnv names the environment variable that points at a config file.
	ConfEnv = "CHAINSTATE_CONF"

	envPrefix    = "chainstate"
	confFileName = "conf.yml"
)

const (
	NetworkMain    = "main"
	NetworkTest    = "test"
	NetworkRegTest = "regtest"
)

var Cfg *Configuration

type Configuration struct {
	DataDir string
	Network string `default:"main"`
	Reindex bool   `default:"false"`

	Log struct {
		Level  string   `default:"info"`
		Module []string `default:"coindb,blkdb,indexdb,chainstate"`
	}
	Cache struct {
		DbCache           int64 `default:"300"` // MiB
		MaxCoinsDBCache   int64 `default:"8"`   // MiB
		MaxBlockDBCache   int64 `default:"2"`   // MiB
		CoinsCacheEntries int   `default:"100000"`
	}
	Batch struct {
		Size       int64 `default:"16777216"`
		CrashRatio int   `default:"0"`
	}
	Index struct {
		Address   bool `default:"false"`
		Spent     bool `default:"false"`
		Timestamp bool `default:"false"`
	}
}

// setDefaults walks the struct tags and registers every default under its
// dotted, lower-cased key.
func setDefaults(v *viper.Viper, prefix string, t reflect.Type) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		key := strings.ToLower(field.Name)
		if prefix != "" {
			key = prefix + "." + key
		}
		if field.Type.Kind() == reflect.Struct {
			setDefaults(v, key, field.Type)
			continue
		}
		value, ok := field.Tag.Lookup(tagName)
		if !ok {
			continue
		}
		if field.Type.Kind() == reflect.Slice {
			v.SetDefault(key, strings.Split(value, ","))
			continue
		}
		v.SetDefault(key, value)
	}
}

// InitConfig builds the configuration from defaults, an optional yaml file,
// CHAINSTATE_* environment variables and finally the command line.
func InitConfig(args []string) (*Configuration, error) {
	opts, err := InitArgs(args)
	if err != nil {
		return nil, err
	}
	return LoadConfig(opts)
}

// LoadConfig is InitConfig for options that were already parsed, as done by
// commands that embed Opts in their own parser.
func LoadConfig(opts *Opts) (*Configuration, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigType("yaml")
	setDefaults(v, "", reflect.TypeOf(Configuration{}))

	dataDir := opts.DataDir
	if dataDir == "" {
		dataDir = v.GetString("datadir")
	}
	if dataDir == "" {
		dataDir = GetDataPath()
	}
	v.Set("datadir", dataDir)

	confFile := os.Getenv(ConfEnv)
	if confFile == "" {
		confFile = filepath.Join(dataDir, confFileName)
	}
	if file, err := os.Open(confFile); err == nil {
		err = v.ReadConfig(file)
		file.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "parse config file %s", confFile)
		}
	}

	config := new(Configuration)
	if err := v.Unmarshal(config); err != nil {
		return nil, errors.Wrap(err, "unmarshal configuration")
	}
	config.DataDir = dataDir
	opts.apply(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Configuration) Validate() error {
	switch c.Network {
	case NetworkMain, NetworkTest, NetworkRegTest:
	default:
		return errcode.NewWithDesc(errcode.ErrorBadNetwork, "unknown network %q", c.Network)
	}
	if c.DataDir == "" {
		return errcode.New(errcode.ErrorBadDataDir)
	}
	if c.Cache.DbCache <= 0 || c.Batch.Size <= 0 || c.Cache.CoinsCacheEntries < 0 {
		return errcode.NewWithDesc(errcode.ErrorBadCacheSize,
			"dbcache %d, dbbatchsize %d", c.Cache.DbCache, c.Batch.Size)
	}
	return nil
}

// NetDataDir is the data directory of the selected network.
func (c *Configuration) NetDataDir() string {
	switch c.Network {
	case NetworkTest:
		return filepath.Join(c.DataDir, "testnet3")
	case NetworkRegTest:
		return filepath.Join(c.DataDir, "regtest")
	}
	return c.DataDir
}

func GetDataPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".chainstate")
	}
	return filepath.Join(home, ".chainstate")
}
