// Package persist opens the chain-state databases and checks that what is
// on disk matches the configuration before anything reads from it.
package persist

import (
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/UdjinM6/dash-sub001/conf"
	"github.com/UdjinM6/dash-sub001/errcode"
	"github.com/UdjinM6/dash-sub001/log"
	"github.com/UdjinM6/dash-sub001/model/blockindex"
	"github.com/UdjinM6/dash-sub001/model/chainparams"
	"github.com/UdjinM6/dash-sub001/model/utxo"
	"github.com/UdjinM6/dash-sub001/persist/blkdb"
	"github.com/UdjinM6/dash-sub001/persist/chainlock"
	"github.com/UdjinM6/dash-sub001/persist/db"
	"github.com/UdjinM6/dash-sub001/persist/indexdb"
	"github.com/UdjinM6/dash-sub001/util"
)

const (
	blockIndexDir = "blocks/index"
	chainStateDir = "chainstate"
)

// ChainState bundles the block tree database, the secondary indexes stored
// in it, and the coin database with its cache. Every write to any of them
// needs a guard of Gate.
type ChainState struct {
	Params *chainparams.ChainParams
	Gate   *chainlock.Gate

	BlockTree  *blkdb.BlockTreeDB
	Indexes    *indexdb.IndexDB
	BlockIndex *blkdb.BlockIndexState
	Tracker    *blkdb.FileTracker

	CoinsDB  *utxo.CoinsDB
	CoinsTip *utxo.CoinsCache

	IndexFlags indexdb.Flags
	Reindex    bool
	// Warnings collects the non-fatal startup messages meant for the user.
	Warnings []string
}

// Open opens and checks the databases under the network data directory.
func Open(cfg *conf.Configuration) (cs *ChainState, err error) {
	params, err := chainparams.Select(cfg.Network)
	if err != nil {
		return nil, errcode.NewWithDesc(errcode.ErrorBadNetwork, "%v", err)
	}
	sizes := cfg.SplitCache()
	log.Info("Cache configuration:")
	log.Info("* Using %.1f MiB for block index database", float64(sizes.BlockTreeDB)/(1<<20))
	log.Info("* Using %.1f MiB for chain state database", float64(sizes.CoinsDB)/(1<<20))
	log.Info("* Using %.1f MiB for in-memory UTXO set", float64(sizes.CoinsTip)/(1<<20))

	cs = &ChainState{
		Params:  params,
		Gate:    chainlock.NewGate(),
		Tracker: blkdb.NewFileTracker(),
		IndexFlags: indexdb.Flags{
			Address:   cfg.Index.Address,
			Timestamp: cfg.Index.Timestamp,
			Spent:     cfg.Index.Spent,
		},
	}
	defer func() {
		if err != nil {
			cs.Close()
			cs = nil
		}
	}()

	netDir := cfg.NetDataDir()
	cs.BlockTree, err = blkdb.NewBlockTreeDB(&db.DBOption{
		FilePath:  filepath.Join(netDir, blockIndexDir),
		CacheSize: int(sizes.BlockTreeDB),
		Wipe:      cfg.Reindex,
	}, cs.Gate)
	if err != nil {
		return cs, err
	}
	cs.Indexes = indexdb.NewIndexDB(cs.BlockTree.Store(), cs.Gate)

	if cfg.Reindex {
		if err = cs.BlockTree.WriteReindexing(true); err != nil {
			return cs, err
		}
	}
	if err = cs.loadBlockTree(cfg.Reindex); err != nil {
		return cs, err
	}

	cs.CoinsDB, err = utxo.NewCoinsDB(&db.DBOption{
		FilePath:  filepath.Join(netDir, chainStateDir),
		CacheSize: int(sizes.CoinsDB),
		Wipe:      cfg.Reindex,
	}, cs.Gate)
	if err != nil {
		return cs, err
	}
	cs.CoinsDB.SetBatchSize(int(cfg.Batch.Size))
	if cfg.Batch.CrashRatio > 0 {
		sim := utxo.NewCrashSimulator(cfg.Batch.CrashRatio, time.Now().UnixNano())
		cs.CoinsDB.SetFaultHook(sim.Hook)
		log.Warn("Simulating crashes in one of every %d coin database batches", cfg.Batch.CrashRatio)
	}

	upgrade, err := cs.CoinsDB.NeedsUpgrade()
	if err != nil {
		return cs, err
	}
	if upgrade {
		return cs, errcode.NewWithDesc(errcode.ErrorChainstateNeedsUpgrade,
			"Unsupported chainstate database format found. Please restart with -reindex-chainstate. "+
				"This will rebuild the chainstate database.")
	}

	best, heads, err := cs.RecoveryState()
	if err != nil {
		return cs, err
	}
	if len(heads) != 0 {
		log.Warn("Coin database was interrupted while moving from %s to %s; replaying blocks is required",
			heads[1], heads[0])
	} else if !best.IsNull() {
		log.Info("Coin database best block %s", best)
	}

	cs.CoinsTip, err = utxo.NewCoinsCache(cs.CoinsDB, cfg.Cache.CoinsCacheEntries)
	if err != nil {
		return cs, errors.Wrap(err, "create coins cache")
	}
	return cs, nil
}

// loadBlockTree runs the block tree checks in startup order: legacy
// txindex, block index load, genesis, index and prune flags.
func (cs *ChainState) loadBlockTree(reset bool) error {
	warning, err := cs.BlockTree.CheckLegacyTxindex()
	if err != nil {
		return err
	}
	if warning != "" {
		cs.Warnings = append(cs.Warnings, warning)
	}

	state, err := cs.BlockTree.LoadBlockIndexDB(cs.Params)
	if err != nil {
		return errors.Wrap(err, "Error loading block database")
	}
	cs.BlockIndex = state
	cs.Reindex = reset || state.Reindexing

	if state.Arena.Len() != 0 {
		if _, ok := state.Arena.Lookup(&cs.Params.GenesisHash); !ok {
			return errcode.NewWithDesc(errcode.ErrorBadGenesisBlock,
				"Incorrect or no genesis block found. Wrong datadir for network?")
		}
	}

	if err := indexdb.CheckIndexFlags(cs.BlockTree, cs.IndexFlags, cs.Reindex); err != nil {
		return err
	}

	if state.HavePruned && !cs.Reindex {
		return errcode.NewWithDesc(errcode.ErrorPrunedNeedsReindex,
			"You need to rebuild the database using -reindex to go back to unpruned mode. "+
				"This will redownload the entire blockchain.")
	}
	return nil
}

// RecoveryState reports the best block of the coin database and, when a
// flush was interrupted, the [new, old] head blocks of that flush. A
// non-empty heads means blocks must be replayed before the coins are used.
func (cs *ChainState) RecoveryState() (best util.Hash, heads []util.Hash, err error) {
	if best, err = cs.CoinsDB.GetBestBlock(); err != nil {
		return
	}
	heads, err = cs.CoinsDB.GetHeadBlocks()
	return
}

// Tip returns the block index node of the coin database's best block, or
// nil when the coins are empty or mid-transition.
func (cs *ChainState) Tip() (*blockindex.BlockIndex, error) {
	best, err := cs.CoinsTip.GetBestBlock()
	if err != nil || best.IsNull() {
		return nil, err
	}
	pos, ok := cs.BlockIndex.Arena.Lookup(&best)
	if !ok {
		return nil, errcode.NewWithDesc(errcode.ErrorCorruptRecord, "best block %s is not in the block index", best)
	}
	return cs.BlockIndex.Arena.Get(pos), nil
}

// Flush writes the dirty block index state and then the coin cache, both
// under one guard.
func (cs *ChainState) Flush() error {
	start := time.Now()
	err := cs.Gate.With(func(guard *chainlock.Guard) error {
		if !cs.Tracker.Empty() {
			if err := cs.Tracker.Flush(guard, cs.BlockTree, cs.BlockIndex.FileInfos,
				cs.BlockIndex.LastFile, cs.BlockIndex.Arena); err != nil {
				return err
			}
		}
		return cs.CoinsTip.Flush(guard)
	})
	if err != nil {
		return err
	}
	log.Print("chainstate", "debug", "flushed chain state in %s", time.Since(start))
	return nil
}

// FinishReindex clears the persisted reindex flag once the block files
// have been replayed.
func (cs *ChainState) FinishReindex() error {
	if err := cs.BlockTree.WriteReindexing(false); err != nil {
		return err
	}
	cs.Reindex = false
	return nil
}

// Close closes both databases. The coin cache is not flushed.
func (cs *ChainState) Close() error {
	var firstErr error
	if cs.CoinsDB != nil {
		firstErr = cs.CoinsDB.Close()
		cs.CoinsDB = nil
	}
	if cs.BlockTree != nil {
		if err := cs.BlockTree.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		cs.BlockTree = nil
	}
	return firstErr
}
