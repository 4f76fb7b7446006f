// Command chainstate inspects the block index, coin and secondary index
// databases of a data directory.
package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/UdjinM6/dash-sub001/conf"
	"github.com/UdjinM6/dash-sub001/log"
	"github.com/UdjinM6/dash-sub001/persist"
)

type options struct {
	conf.Opts
	Verbose bool `short:"v" long:"verbose" description:"dump full records"`
}

var opts options

// openChainState loads the configuration from the global options and opens
// the databases. Logging goes to debug.log in the network data directory.
func openChainState() (*persist.ChainState, error) {
	cfg, err := conf.LoadConfig(&opts.Opts)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.NetDataDir(), 0740); err != nil {
		return nil, err
	}
	if err := log.InitLogger(cfg.NetDataDir(), cfg.Log.Level, cfg.Log.Module); err != nil {
		return nil, err
	}
	cs, err := persist.Open(cfg)
	if err != nil {
		return nil, err
	}
	for _, warning := range cs.Warnings {
		fmt.Fprintln(os.Stderr, "Warning:", warning)
	}
	return cs, nil
}

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	parser.AddCommand("info", "Show database state",
		"Print the coin database best block, any interrupted flush and the index flags.", &infoCommand{})
	parser.AddCommand("loadindex", "Load the block index",
		"Load every block index record and print the most-work chain.", &loadIndexCommand{})
	parser.AddCommand("dumpcoins", "List unspent coins",
		"Walk the coin table in key order.", &dumpCoinsCommand{})
	parser.AddCommand("addressutxos", "List unspent outputs of an address",
		"Read the address unspent index. Requires -addressindex.", &addressUtxosCommand{})

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
