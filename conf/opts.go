package conf

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
)

type Opts struct {
	DataDir string `long:"datadir" description:"specified program data dir"`
	Reindex bool   `long:"reindex" description:"rebuild chain state and block index from the blk*.dat files on disk"`

	RegTest bool `long:"regtest" description:"initiate regtest"`
	TestNet bool `long:"testnet" description:"initiate testnet"`

	DbCache      int64 `long:"dbcache" description:"database cache size in MiB"`
	DbBatchSize  int64 `long:"dbbatchsize" description:"maximum database write batch size in bytes"`
	DbCrashRatio int   `long:"dbcrashratio" description:"randomly crash while writing a partial coin flush, one in this many batches"`

	AddressIndex   bool `long:"addressindex" description:"maintain a full address index"`
	SpentIndex     bool `long:"spentindex" description:"maintain a full spent index"`
	TimestampIndex bool `long:"timestampindex" description:"maintain a timestamp index for block hashes"`
}

func InitArgs(args []string) (*Opts, error) {
	opts := new(Opts)
	_, err := flags.ParseArgs(opts, args)
	if err != nil {
		flagsErr, ok := err.(*flags.Error)
		if ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		// the regtest harness passes options this tool does not know about
		if !ok || flagsErr.Type != flags.ErrUnknownFlag || !opts.RegTest {
			return nil, err
		}
		opts = new(Opts)
		if _, err = flags.NewParser(opts, flags.IgnoreUnknown).ParseArgs(args); err != nil {
			return nil, err
		}
	}

	return opts, nil
}

func (opts *Opts) apply(c *Configuration) {
	switch {
	case opts.RegTest:
		c.Network = NetworkRegTest
	case opts.TestNet:
		c.Network = NetworkTest
	}
	if opts.Reindex {
		c.Reindex = true
	}
	if opts.DbCache > 0 {
		c.Cache.DbCache = opts.DbCache
	}
	if opts.DbBatchSize > 0 {
		c.Batch.Size = opts.DbBatchSize
	}
	if opts.DbCrashRatio > 0 {
		c.Batch.CrashRatio = opts.DbCrashRatio
	}
	if opts.AddressIndex {
		c.Index.Address = true
	}
	if opts.SpentIndex {
		c.Index.Spent = true
	}
	if opts.TimestampIndex {
		c.Index.Timestamp = true
	}
}

func (opts *Opts) String() string {
	return fmt.Sprintf("datadir:%s regtest:%v testnet:%v", opts.DataDir, opts.RegTest, opts.TestNet)
}
