package main

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"

	"github.com/UdjinM6/dash-sub001/model/blockindex"
	"github.com/UdjinM6/dash-sub001/persist"
	"github.com/UdjinM6/dash-sub001/persist/indexdb"
)

type infoCommand struct{}

func (c *infoCommand) Execute(args []string) error {
	cs, err := openChainState()
	if err != nil {
		return err
	}
	defer cs.Close()

	best, heads, err := cs.RecoveryState()
	if err != nil {
		return err
	}
	fmt.Printf("network:         %s\n", cs.Params.Name)
	fmt.Printf("best block:      %s\n", best)
	if len(heads) != 0 {
		fmt.Printf("interrupted:     %s -> %s\n", heads[1], heads[0])
	}
	size, err := cs.CoinsDB.EstimateSize()
	if err != nil {
		return err
	}
	fmt.Printf("coins size:      %d bytes\n", size)
	fmt.Printf("block index:     %d entries, %d files\n", cs.BlockIndex.Arena.Len(), len(cs.BlockIndex.FileInfos))
	fmt.Printf("reindexing:      %t\n", cs.Reindex)
	fmt.Printf("address index:   %t\n", cs.IndexFlags.Address)
	fmt.Printf("timestamp index: %t\n", cs.IndexFlags.Timestamp)
	fmt.Printf("spent index:     %t\n", cs.IndexFlags.Spent)
	return nil
}

type loadIndexCommand struct{}

func (c *loadIndexCommand) Execute(args []string) error {
	cs, err := openChainState()
	if err != nil {
		return err
	}
	defer cs.Close()

	arena := cs.BlockIndex.Arena
	fmt.Printf("loaded %d block index entries\n", arena.Len())
	if pos := arena.BestByWork(); pos != blockindex.NoIndex {
		best := arena.Get(pos)
		fmt.Printf("most work: %s height %d work %s\n", best.BlockHash, best.Height, best.ChainWork.Text(16))
		if opts.Verbose {
			spew.Dump(best)
		}
	}
	tip, err := cs.Tip()
	if err != nil {
		return err
	}
	if tip != nil {
		fmt.Printf("coins tip: %s height %d\n", tip.BlockHash, tip.Height)
	}
	return nil
}

type dumpCoinsCommand struct {
	Limit int `long:"limit" default:"100" description:"stop after this many coins, 0 for all"`
}

func (c *dumpCoinsCommand) Execute(args []string) error {
	cs, err := openChainState()
	if err != nil {
		return err
	}
	defer cs.Close()

	cursor, err := cs.CoinsDB.Cursor()
	if err != nil {
		return err
	}
	defer cursor.Close()
	fmt.Printf("best block %s\n", cursor.BestBlock())

	n := 0
	for ; cursor.Valid() && (c.Limit == 0 || n < c.Limit); cursor.Next() {
		key, _ := cursor.GetKey()
		coin, err := cursor.GetValue()
		if err != nil {
			return errors.Wrapf(err, "decode coin %s", key)
		}
		if opts.Verbose {
			fmt.Printf("%s %s", key, spew.Sdump(coin))
		} else {
			fmt.Printf("%s %d height %d coinbase %t\n", key, coin.GetValue(), coin.GetHeight(), coin.IsCoinBase())
		}
		n++
	}
	return cursor.Error()
}

type addressUtxosCommand struct {
	Type string `long:"type" default:"p2pkh" choice:"p2pkh" choice:"p2sh" description:"address type"`
	Args struct {
		Hash string `positional-arg-name:"hash160" description:"hex address hash"`
	} `positional-args:"yes" required:"yes"`
}

func (c *addressUtxosCommand) Execute(args []string) error {
	addr, err := indexdb.AddressHashFromHex(c.Args.Hash)
	if err != nil {
		return err
	}
	typ := indexdb.AddressP2PKH
	if c.Type == "p2sh" {
		typ = indexdb.AddressP2SH
	}

	cs, err := openChainState()
	if err != nil {
		return err
	}
	defer cs.Close()
	if !cs.IndexFlags.Address {
		return errors.New("address index is not enabled, restart with -addressindex")
	}
	return printUtxos(cs, addr, typ)
}

func printUtxos(cs *persist.ChainState, addr indexdb.AddressHash, typ indexdb.AddressType) error {
	entries, err := cs.Indexes.ReadAddressUnspentIndex(addr, typ)
	if err != nil {
		return err
	}
	var total int64
	for _, entry := range entries {
		fmt.Printf("%s:%d %d height %d\n", entry.Key.TxHash, entry.Key.Index, entry.Value.Satoshis, entry.Value.BlockHeight)
		total += entry.Value.Satoshis
	}
	fmt.Printf("%d outputs, %d total\n", len(entries), total)
	return nil
}
