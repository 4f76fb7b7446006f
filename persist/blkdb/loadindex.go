package blkdb

import (
	"bytes"

	"github.com/UdjinM6/dash-sub001/errcode"
	"github.com/UdjinM6/dash-sub001/log"
	"github.com/UdjinM6/dash-sub001/model/block"
	"github.com/UdjinM6/dash-sub001/model/blockindex"
	"github.com/UdjinM6/dash-sub001/model/chainparams"
	"github.com/UdjinM6/dash-sub001/model/pow"
	"github.com/UdjinM6/dash-sub001/persist/db"
	"github.com/UdjinM6/dash-sub001/util"
)

// LoadBlockIndexGuts reads every block index record into arena. Parents are
// linked by hash as records are read, creating empty placeholder nodes for
// parents not seen yet. A record that fails to decode or fails its
// proof-of-work check aborts the whole load.
func (blockTreeDB *BlockTreeDB) LoadBlockIndexGuts(params *chainparams.ChainParams, arena *blockindex.Arena) error {
	cursor := blockTreeDB.dbw.Iterator()
	defer cursor.Close()
	cursor.Seek(blockIndexKey(&util.HashZero))

	checker := new(pow.Pow)
	var bi blockindex.BlockIndex
	count := 0
	for ; cursor.Valid(); cursor.Next() {
		k := cursor.GetKey()
		payload, ok := db.Payload(db.TagBlockIndex, k)
		if !ok {
			break
		}
		if len(payload) != util.Hash256Size {
			return errcode.NewWithDesc(errcode.ErrorCorruptRecord, "LoadBlockIndexGuts: block index key of %d bytes", len(payload))
		}

		bi.SetNull()
		if err := bi.Unserialize(bytes.NewReader(cursor.GetVal())); err != nil {
			return errcode.NewWithDesc(errcode.ErrorCorruptRecord, "LoadBlockIndexGuts: failed to read value: %v", err)
		}
		if !bytes.Equal(bi.BlockHash[:], payload) {
			return errcode.NewWithDesc(errcode.ErrorCorruptRecord,
				"LoadBlockIndexGuts: record for %s stored under another key", bi.BlockHash)
		}

		pos := arena.Insert(bi.BlockHash)
		prev := arena.Insert(bi.Header.HashPrevBlock)
		node := arena.Get(pos)
		node.Prev = prev
		node.Header = bi.Header
		node.Height = bi.Height
		node.File = bi.File
		node.DataPos = bi.DataPos
		node.UndoPos = bi.UndoPos
		node.Status = bi.Status
		node.TxCount = bi.TxCount

		if !checker.CheckProofOfWork(node.GetBlockHash(), node.Header.Bits, params) {
			return errcode.NewWithDesc(errcode.ErrorPowCheck, "LoadBlockIndexGuts: CheckProofOfWork failed: %s", node)
		}
		count++
	}
	if err := cursor.Error(); err != nil {
		return errcode.NewWithDesc(errcode.ErrorReadDB, "LoadBlockIndexGuts: %v", err)
	}
	log.Print("blkdb", "debug", "loaded %d block index records", count)
	return nil
}

// BlockIndexState is everything LoadBlockIndexDB reconstructs.
type BlockIndexState struct {
	Arena     *blockindex.Arena
	FileInfos []*block.BlockFileInfo
	LastFile  int32

	HavePruned bool
	Reindexing bool

	AddressIndex   bool
	TimestampIndex bool
	SpentIndex     bool
}

// LoadBlockIndexDB loads the block index, derives the memory-only chain
// fields, and reads the block file summaries and the persisted flags.
func (blockTreeDB *BlockTreeDB) LoadBlockIndexDB(params *chainparams.ChainParams) (*BlockIndexState, error) {
	state := &BlockIndexState{Arena: blockindex.NewArena()}
	if err := blockTreeDB.LoadBlockIndexGuts(params, state.Arena); err != nil {
		return nil, err
	}
	state.Arena.ComputeChainState()

	lastFile, _, err := blockTreeDB.ReadLastBlockFile()
	if err != nil {
		return nil, err
	}
	if lastFile < 0 {
		return nil, errcode.NewWithDesc(errcode.ErrorCorruptRecord, "LoadBlockIndexDB: last block file %d", lastFile)
	}
	state.LastFile = lastFile
	log.Info("LoadBlockIndexDB: last block file = %d", lastFile)

	for file := int32(0); ; file++ {
		bfi, ok, err := blockTreeDB.ReadBlockFileInfo(file)
		if err != nil {
			return nil, err
		}
		if !ok {
			if file <= lastFile {
				bfi = block.NewBlockFileInfo()
			} else {
				break
			}
		}
		state.FileInfos = append(state.FileInfos, bfi)
	}
	log.Info("LoadBlockIndexDB: last block file info: %s", state.FileInfos[lastFile])

	if state.HavePruned, _, err = blockTreeDB.ReadFlag(FlagPrunedBlockFiles); err != nil {
		return nil, err
	}
	if state.HavePruned {
		log.Info("LoadBlockIndexDB(): Block files have previously been pruned")
	}
	if state.Reindexing, err = blockTreeDB.ReadReindexing(); err != nil {
		return nil, err
	}
	if state.AddressIndex, _, err = blockTreeDB.ReadFlag(FlagAddressIndex); err != nil {
		return nil, err
	}
	if state.TimestampIndex, _, err = blockTreeDB.ReadFlag(FlagTimestampIndex); err != nil {
		return nil, err
	}
	if state.SpentIndex, _, err = blockTreeDB.ReadFlag(FlagSpentIndex); err != nil {
		return nil, err
	}
	return state, nil
}
