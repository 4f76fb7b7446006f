package blkdb

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/UdjinM6/dash-sub001/errcode"
	"github.com/UdjinM6/dash-sub001/log"
	"github.com/UdjinM6/dash-sub001/model/block"
	"github.com/UdjinM6/dash-sub001/model/blockindex"
	"github.com/UdjinM6/dash-sub001/persist/chainlock"
	"github.com/UdjinM6/dash-sub001/persist/db"
	"github.com/UdjinM6/dash-sub001/util"
)

// Flag names kept under the 'F' table.
const (
	FlagPrunedBlockFiles = "prunedblockfiles"
	FlagTxIndex          = "txindex"
	FlagAddressIndex     = "addressindex"
	FlagTimestampIndex   = "timestampindex"
	FlagSpentIndex       = "spentindex"
)

// BlockTreeDB stores block file summaries, the block index and the
// bookkeeping flags of the block tree database (blocks/index).
type BlockTreeDB struct {
	dbw  db.KeyedStore
	gate *chainlock.Gate
}

func NewBlockTreeDB(do *db.DBOption, gate *chainlock.Gate) (*BlockTreeDB, error) {
	if do == nil {
		return nil, errors.New("NewBlockTreeDB: nil DBOption")
	}
	dbw, err := db.NewDBWrapper(do)
	if err != nil {
		return nil, errcode.NewWithDesc(errcode.ErrorOpenDB, "open block index database: %v", err)
	}
	return NewBlockTreeDBWithStore(dbw, gate), nil
}

func NewBlockTreeDBWithStore(store db.KeyedStore, gate *chainlock.Gate) *BlockTreeDB {
	return &BlockTreeDB{
		dbw:  store,
		gate: gate,
	}
}

// Store is the underlying database, shared with the secondary indexes.
func (blockTreeDB *BlockTreeDB) Store() db.KeyedStore {
	return blockTreeDB.dbw
}

func blockFileKey(file int32) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, 5))
	buf.WriteByte(byte(db.TagBlockFiles))
	util.WriteElements(buf, file)
	return buf.Bytes()
}

func blockIndexKey(hash *util.Hash) []byte {
	return db.Key(db.TagBlockIndex, hash[:])
}

func flagKey(name string) []byte {
	return db.Key(db.TagFlag, []byte(name))
}

// ReadBlockFileInfo returns the summary of blk<file>.dat, or ok == false
// when none was written.
func (blockTreeDB *BlockTreeDB) ReadBlockFileInfo(file int32) (bfi *block.BlockFileInfo, ok bool, err error) {
	vbytes, ok, err := blockTreeDB.dbw.Read(blockFileKey(file))
	if err != nil {
		return nil, false, errcode.NewWithDesc(errcode.ErrorReadDB, "read block file info %d: %v", file, err)
	}
	if !ok {
		return nil, false, nil
	}
	bfi = block.NewBlockFileInfo()
	if err := bfi.Unserialize(bytes.NewReader(vbytes)); err != nil {
		return nil, false, errcode.NewWithDesc(errcode.ErrorCorruptRecord, "block file info %d: %v", file, err)
	}
	return bfi, true, nil
}

func (blockTreeDB *BlockTreeDB) WriteReindexing(reindexing bool) error {
	var err error
	if reindexing {
		err = blockTreeDB.dbw.Write(db.Key(db.TagReindexFlag), []byte{'1'}, false)
	} else {
		err = blockTreeDB.dbw.Erase(db.Key(db.TagReindexFlag), false)
	}
	if err != nil {
		return errcode.NewWithDesc(errcode.ErrorFailedToWriteToBlockIndexDatabase, "write reindex flag: %v", err)
	}
	return nil
}

func (blockTreeDB *BlockTreeDB) ReadReindexing() (bool, error) {
	reindexing, err := blockTreeDB.dbw.Exists(db.Key(db.TagReindexFlag))
	if err != nil {
		return false, errcode.NewWithDesc(errcode.ErrorReadDB, "read reindex flag: %v", err)
	}
	return reindexing, nil
}

// ReadLastBlockFile returns the number of the block file being appended to.
func (blockTreeDB *BlockTreeDB) ReadLastBlockFile() (lastFile int32, ok bool, err error) {
	data, ok, err := blockTreeDB.dbw.Read(db.Key(db.TagLastBlock))
	if err != nil {
		return 0, false, errcode.NewWithDesc(errcode.ErrorReadDB, "read last block file: %v", err)
	}
	if !ok {
		return 0, false, nil
	}
	if err := util.ReadElements(bytes.NewReader(data), &lastFile); err != nil {
		return 0, false, errcode.NewWithDesc(errcode.ErrorCorruptRecord, "last block file: %v", err)
	}
	return lastFile, true, nil
}

// WriteBatchSync writes the given file summaries, the last file number and
// the block index nodes in a single synced batch.
func (blockTreeDB *BlockTreeDB) WriteBatchSync(guard *chainlock.Guard, fileInfoList map[int32]*block.BlockFileInfo,
	lastFile int32, blockIndexes []*blockindex.BlockIndex) error {
	if err := chainlock.Check(blockTreeDB.gate, guard); err != nil {
		return err
	}

	batch := blockTreeDB.dbw.NewBatch()
	valueBuf := bytes.NewBuffer(make([]byte, 0, 128))

	for fileNum, v := range fileInfoList {
		valueBuf.Reset()
		if err := v.Serialize(valueBuf); err != nil {
			return err
		}
		batch.Write(blockFileKey(fileNum), valueBuf.Bytes())
		log.Print("blkdb", "debug", "write block file info %d: %s", fileNum, v)
	}

	valueBuf.Reset()
	if err := util.WriteElements(valueBuf, lastFile); err != nil {
		return err
	}
	batch.Write(db.Key(db.TagLastBlock), valueBuf.Bytes())

	for _, v := range blockIndexes {
		valueBuf.Reset()
		if err := v.Serialize(valueBuf); err != nil {
			return err
		}
		batch.Write(blockIndexKey(v.GetBlockHash()), valueBuf.Bytes())
	}

	if err := blockTreeDB.dbw.WriteBatch(batch, true); err != nil {
		return errcode.NewWithDesc(errcode.ErrorFailedToWriteToBlockIndexDatabase,
			"Failed to write to block index database: %v", err)
	}
	log.Print("blkdb", "debug", "synced %d block files and %d block index entries, last file %d",
		len(fileInfoList), len(blockIndexes), lastFile)
	return nil
}

func (blockTreeDB *BlockTreeDB) WriteFlag(name string, value bool) error {
	v := byte('0')
	if value {
		v = '1'
	}
	if err := blockTreeDB.dbw.Write(flagKey(name), []byte{v}, false); err != nil {
		return errcode.NewWithDesc(errcode.ErrorFailedToWriteToBlockIndexDatabase,
			"Failed to write block index db flag '%s'='%c': %v", name, v, err)
	}
	return nil
}

// ReadFlag returns the stored value of the named flag; ok is false when the
// flag was never written.
func (blockTreeDB *BlockTreeDB) ReadFlag(name string) (value bool, ok bool, err error) {
	b, ok, err := blockTreeDB.dbw.Read(flagKey(name))
	if err != nil {
		return false, false, errcode.NewWithDesc(errcode.ErrorReadDB, "read flag %s: %v", name, err)
	}
	if !ok || len(b) == 0 {
		return false, false, nil
	}
	return b[0] == '1', true, nil
}

func (blockTreeDB *BlockTreeDB) Close() error {
	return blockTreeDB.dbw.Close()
}
