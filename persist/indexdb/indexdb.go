// Package indexdb keeps the optional address, address-unspent, spent and
// timestamp indexes. They live in the block tree database next to the block
// index and are rebuilt by a reindex.
package indexdb

import (
	"bytes"

	"github.com/UdjinM6/dash-sub001/errcode"
	"github.com/UdjinM6/dash-sub001/log"
	"github.com/UdjinM6/dash-sub001/persist/chainlock"
	"github.com/UdjinM6/dash-sub001/persist/db"
	"github.com/UdjinM6/dash-sub001/util"
)

type IndexDB struct {
	dbw  db.KeyedStore
	gate *chainlock.Gate
}

func NewIndexDB(store db.KeyedStore, gate *chainlock.Gate) *IndexDB {
	return &IndexDB{
		dbw:  store,
		gate: gate,
	}
}

func (idb *IndexDB) writeBatch(bw *db.BatchWrapper, what string) error {
	if err := idb.dbw.WriteBatch(bw, false); err != nil {
		return errcode.NewWithDesc(errcode.ErrorFailedToWriteToBlockIndexDatabase, "write %s: %v", what, err)
	}
	return nil
}

func (idb *IndexDB) WriteAddressIndex(guard *chainlock.Guard, entries []AddressIndexEntry) error {
	if err := chainlock.Check(idb.gate, guard); err != nil {
		return err
	}
	batch := idb.dbw.NewBatch()
	for i := range entries {
		var v bytes.Buffer
		util.WriteElements(&v, entries[i].Amount)
		batch.Write(db.Key(db.TagAddressIndex, encode(&entries[i].Key)), v.Bytes())
	}
	return idb.writeBatch(batch, "address index")
}

func (idb *IndexDB) EraseAddressIndex(guard *chainlock.Guard, entries []AddressIndexEntry) error {
	if err := chainlock.Check(idb.gate, guard); err != nil {
		return err
	}
	batch := idb.dbw.NewBatch()
	for i := range entries {
		batch.Erase(db.Key(db.TagAddressIndex, encode(&entries[i].Key)))
	}
	return idb.writeBatch(batch, "address index")
}

// ReadAddressIndex returns the history of one address in chain order. When
// both start and end are positive only heights in [start, end] are read.
func (idb *IndexDB) ReadAddressIndex(addr AddressHash, typ AddressType, start, end int32) ([]AddressIndexEntry, error) {
	cursor := idb.dbw.Iterator()
	defer cursor.Close()

	if start > 0 && end > 0 {
		cursor.Seek(db.Key(db.TagAddressIndex, addressPrefix(typ, addr, start)))
	} else {
		cursor.Seek(db.Key(db.TagAddressIndex, addressPrefix(typ, addr)))
	}

	var entries []AddressIndexEntry
	for ; cursor.Valid(); cursor.Next() {
		payload, ok := db.Payload(db.TagAddressIndex, cursor.GetKey())
		if !ok {
			break
		}
		var entry AddressIndexEntry
		if err := entry.Key.Unserialize(bytes.NewReader(payload)); err != nil {
			return nil, errcode.NewWithDesc(errcode.ErrorCorruptRecord, "address index key: %v", err)
		}
		if entry.Key.Type != typ || entry.Key.Address != addr {
			break
		}
		if end > 0 && entry.Key.BlockHeight > end {
			break
		}
		if err := util.ReadElements(bytes.NewReader(cursor.GetVal()), &entry.Amount); err != nil {
			return nil, errcode.NewWithDesc(errcode.ErrorCorruptRecord, "failed to get address index value: %v", err)
		}
		entries = append(entries, entry)
	}
	if err := cursor.Error(); err != nil {
		return nil, errcode.NewWithDesc(errcode.ErrorReadDB, "read address index: %v", err)
	}
	return entries, nil
}

// UpdateAddressUnspentIndex writes the given entries, erasing those whose
// value is null.
func (idb *IndexDB) UpdateAddressUnspentIndex(guard *chainlock.Guard, entries []AddressUnspentEntry) error {
	if err := chainlock.Check(idb.gate, guard); err != nil {
		return err
	}
	batch := idb.dbw.NewBatch()
	for i := range entries {
		key := db.Key(db.TagAddressUTXO, encode(&entries[i].Key))
		if entries[i].Value.IsNull() {
			batch.Erase(key)
		} else {
			batch.Write(key, encode(&entries[i].Value))
		}
	}
	return idb.writeBatch(batch, "address unspent index")
}

func (idb *IndexDB) ReadAddressUnspentIndex(addr AddressHash, typ AddressType) ([]AddressUnspentEntry, error) {
	cursor := idb.dbw.Iterator()
	defer cursor.Close()
	cursor.Seek(db.Key(db.TagAddressUTXO, addressPrefix(typ, addr)))

	var entries []AddressUnspentEntry
	for ; cursor.Valid(); cursor.Next() {
		payload, ok := db.Payload(db.TagAddressUTXO, cursor.GetKey())
		if !ok {
			break
		}
		var entry AddressUnspentEntry
		if err := entry.Key.Unserialize(bytes.NewReader(payload)); err != nil {
			return nil, errcode.NewWithDesc(errcode.ErrorCorruptRecord, "address unspent key: %v", err)
		}
		if entry.Key.Type != typ || entry.Key.Address != addr {
			break
		}
		if err := entry.Value.Unserialize(bytes.NewReader(cursor.GetVal())); err != nil {
			return nil, errcode.NewWithDesc(errcode.ErrorCorruptRecord, "failed to get address unspent value: %v", err)
		}
		entries = append(entries, entry)
	}
	if err := cursor.Error(); err != nil {
		return nil, errcode.NewWithDesc(errcode.ErrorReadDB, "read address unspent index: %v", err)
	}
	return entries, nil
}

// UpdateSpentIndex writes the given entries, erasing those whose value is
// null.
func (idb *IndexDB) UpdateSpentIndex(guard *chainlock.Guard, entries []SpentIndexEntry) error {
	if err := chainlock.Check(idb.gate, guard); err != nil {
		return err
	}
	batch := idb.dbw.NewBatch()
	for i := range entries {
		key := db.Key(db.TagSpentIndex, encode(&entries[i].Key))
		if entries[i].Value.IsNull() {
			batch.Erase(key)
		} else {
			batch.Write(key, encode(&entries[i].Value))
		}
	}
	return idb.writeBatch(batch, "spent index")
}

func (idb *IndexDB) ReadSpentIndex(key *SpentIndexKey) (*SpentIndexValue, bool, error) {
	v, ok, err := idb.dbw.Read(db.Key(db.TagSpentIndex, encode(key)))
	if err != nil {
		return nil, false, errcode.NewWithDesc(errcode.ErrorReadDB, "read spent index %s:%d: %v", key.TxID, key.OutputIndex, err)
	}
	if !ok {
		return nil, false, nil
	}
	value := new(SpentIndexValue)
	if err := value.Unserialize(bytes.NewReader(v)); err != nil {
		return nil, false, errcode.NewWithDesc(errcode.ErrorCorruptRecord, "spent index %s:%d: %v", key.TxID, key.OutputIndex, err)
	}
	return value, true, nil
}

func (idb *IndexDB) WriteTimestampIndex(guard *chainlock.Guard, key *TimestampIndexKey) error {
	if err := chainlock.Check(idb.gate, guard); err != nil {
		return err
	}
	batch := idb.dbw.NewBatch()
	var v bytes.Buffer
	util.WriteElements(&v, int32(0))
	batch.Write(db.Key(db.TagTimestamp, encode(key)), v.Bytes())
	return idb.writeBatch(batch, "timestamp index")
}

func (idb *IndexDB) EraseTimestampIndex(guard *chainlock.Guard, key *TimestampIndexKey) error {
	if err := chainlock.Check(idb.gate, guard); err != nil {
		return err
	}
	batch := idb.dbw.NewBatch()
	batch.Erase(db.Key(db.TagTimestamp, encode(key)))
	return idb.writeBatch(batch, "timestamp index")
}

// ReadTimestampIndex returns the hashes of the blocks with low <= time <=
// high, ordered by time.
func (idb *IndexDB) ReadTimestampIndex(high, low uint32) ([]util.Hash, error) {
	cursor := idb.dbw.Iterator()
	defer cursor.Close()
	cursor.Seek(db.Key(db.TagTimestamp, encode(&TimestampIndexKey{Time: low})))

	var hashes []util.Hash
	for ; cursor.Valid(); cursor.Next() {
		payload, ok := db.Payload(db.TagTimestamp, cursor.GetKey())
		if !ok {
			break
		}
		var key TimestampIndexKey
		if err := key.Unserialize(bytes.NewReader(payload)); err != nil {
			return nil, errcode.NewWithDesc(errcode.ErrorCorruptRecord, "timestamp index key: %v", err)
		}
		if key.Time > high {
			break
		}
		hashes = append(hashes, key.BlockHash)
	}
	if err := cursor.Error(); err != nil {
		return nil, errcode.NewWithDesc(errcode.ErrorReadDB, "read timestamp index: %v", err)
	}
	log.Print("indexdb", "debug", "timestamp index [%d, %d]: %d blocks", low, high, len(hashes))
	return hashes, nil
}
