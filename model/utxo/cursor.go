package utxo

import (
	"bytes"

	"github.com/UdjinM6/dash-sub001/model/outpoint"
	"github.com/UdjinM6/dash-sub001/persist/db"
	"github.com/UdjinM6/dash-sub001/util"
)

// CoinsCursor walks the coin table in key order over a snapshot taken when
// it was created.
type CoinsCursor struct {
	owner     *CoinsDB
	closed    bool
	iter      *db.IterWrapper
	hashBlock util.Hash

	key   *outpoint.OutPoint
	valid bool
	err   error
}

// Cursor returns a cursor positioned on the first coin. The caller must
// Close it, and ResizeCache fails while it is open.
func (coinsViewDB *CoinsDB) Cursor() (*CoinsCursor, error) {
	coinsViewDB.mtx.RLock()
	defer coinsViewDB.mtx.RUnlock()

	hashBlock, err := coinsViewDB.getBestBlock()
	if err != nil {
		return nil, err
	}
	coinsViewDB.cursors.Inc()
	cursor := &CoinsCursor{
		owner:     coinsViewDB,
		iter:      coinsViewDB.dbw.Iterator(),
		hashBlock: hashBlock,
	}
	cursor.iter.Seek(db.Key(db.TagCoin))
	cursor.cacheKey()
	return cursor, nil
}

// cacheKey decodes the key under the iterator once so Valid and GetKey are
// cheap.
func (cursor *CoinsCursor) cacheKey() {
	cursor.valid = false
	cursor.key = nil
	if !cursor.iter.Valid() {
		cursor.err = cursor.iter.Error()
		return
	}
	key, ok, err := DecodeCoinKey(cursor.iter.GetKey())
	if err != nil {
		cursor.err = err
		return
	}
	if !ok {
		return
	}
	cursor.key = key
	cursor.valid = true
}

func (cursor *CoinsCursor) Valid() bool {
	return cursor.valid
}

func (cursor *CoinsCursor) Next() {
	if !cursor.valid {
		return
	}
	cursor.iter.Next()
	cursor.cacheKey()
}

func (cursor *CoinsCursor) GetKey() (*outpoint.OutPoint, bool) {
	if !cursor.valid {
		return nil, false
	}
	out := *cursor.key
	return &out, true
}

func (cursor *CoinsCursor) GetValue() (*Coin, error) {
	if !cursor.valid {
		return nil, nil
	}
	coin := NewEmptyCoin()
	if err := coin.Unserialize(bytes.NewReader(cursor.iter.GetVal())); err != nil {
		return nil, err
	}
	return coin, nil
}

func (cursor *CoinsCursor) GetValueSize() int {
	if !cursor.valid {
		return 0
	}
	return cursor.iter.GetValSize()
}

// BestBlock is the best block of the database when the cursor was made.
func (cursor *CoinsCursor) BestBlock() util.Hash {
	return cursor.hashBlock
}

// Error returns the engine or decoding error that ended the walk, if any.
func (cursor *CoinsCursor) Error() error {
	return cursor.err
}

func (cursor *CoinsCursor) Close() {
	if cursor.closed {
		return
	}
	cursor.closed = true
	cursor.iter.Close()
	cursor.owner.cursors.Dec()
}
