package utxo

import (
	"bytes"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/UdjinM6/dash-sub001/errcode"
	"github.com/UdjinM6/dash-sub001/log"
	"github.com/UdjinM6/dash-sub001/model/outpoint"
	"github.com/UdjinM6/dash-sub001/persist/chainlock"
	"github.com/UdjinM6/dash-sub001/persist/db"
	"github.com/UdjinM6/dash-sub001/util"
)

const (
	// DefaultBatchSize is the -dbbatchsize default.
	DefaultBatchSize = 16 << 20

	maxHeadBlocks = 16
)

// CoinsDB is the coin view backed by the chainstate database.
type CoinsDB struct {
	// mtx is only taken exclusively by ResizeCache, which swaps the engine
	// handle underneath every reader.
	mtx sync.RWMutex

	dbw       db.KeyedStore
	gate      *chainlock.Gate
	batchSize int
	faultHook FaultHook
	// cursors counts cursors not yet closed; their iterators pin the
	// engine handle.
	cursors atomic.Int32
}

var _ CoinsView = (*CoinsDB)(nil)

// NewCoinsDB opens the chainstate database described by do. Every Apply
// must present a guard of gate.
func NewCoinsDB(do *db.DBOption, gate *chainlock.Gate) (*CoinsDB, error) {
	if do == nil {
		return nil, errors.New("NewCoinsDB: nil DBOption")
	}
	dbw, err := db.NewDBWrapper(do)
	if err != nil {
		return nil, errcode.NewWithDesc(errcode.ErrorOpenDB, "open coin database: %v", err)
	}
	return NewCoinsDBWithStore(dbw, gate), nil
}

func NewCoinsDBWithStore(store db.KeyedStore, gate *chainlock.Gate) *CoinsDB {
	initPrometheusMetrics()
	return &CoinsDB{
		dbw:       store,
		gate:      gate,
		batchSize: DefaultBatchSize,
	}
}

func (coinsViewDB *CoinsDB) SetBatchSize(size int) {
	if size <= 0 {
		size = DefaultBatchSize
	}
	coinsViewDB.batchSize = size
}

// SetFaultHook installs a hook that runs after every batch Apply commits.
func (coinsViewDB *CoinsDB) SetFaultHook(hook FaultHook) {
	coinsViewDB.faultHook = hook
}

func (coinsViewDB *CoinsDB) GetCoin(outPoint *outpoint.OutPoint) (*Coin, error) {
	coinsViewDB.mtx.RLock()
	defer coinsViewDB.mtx.RUnlock()

	coinBuff, ok, err := coinsViewDB.dbw.Read(NewCoinKey(outPoint).Bytes())
	if err != nil {
		return nil, errcode.NewWithDesc(errcode.ErrorReadDB, "read coin %s: %v", outPoint, err)
	}
	if !ok {
		return nil, nil
	}
	coin := NewEmptyCoin()
	if err := coin.Unserialize(bytes.NewReader(coinBuff)); err != nil {
		return nil, errors.Wrapf(err, "decode coin %s", outPoint)
	}
	return coin, nil
}

func (coinsViewDB *CoinsDB) HaveCoin(outPoint *outpoint.OutPoint) (bool, error) {
	coinsViewDB.mtx.RLock()
	defer coinsViewDB.mtx.RUnlock()

	ok, err := coinsViewDB.dbw.Exists(NewCoinKey(outPoint).Bytes())
	if err != nil {
		return false, errcode.NewWithDesc(errcode.ErrorReadDB, "check coin %s: %v", outPoint, err)
	}
	return ok, nil
}

func (coinsViewDB *CoinsDB) GetBestBlock() (util.Hash, error) {
	coinsViewDB.mtx.RLock()
	defer coinsViewDB.mtx.RUnlock()
	return coinsViewDB.getBestBlock()
}

func (coinsViewDB *CoinsDB) getBestBlock() (util.Hash, error) {
	var hashBestChain util.Hash
	v, ok, err := coinsViewDB.dbw.Read(db.Key(db.TagBestBlock))
	if err != nil {
		return hashBestChain, errcode.NewWithDesc(errcode.ErrorReadDB, "read best block: %v", err)
	}
	if !ok {
		return hashBestChain, nil
	}
	if len(v) != util.Hash256Size {
		return hashBestChain, errcode.NewWithDesc(errcode.ErrorCorruptRecord, "best block record of %d bytes", len(v))
	}
	copy(hashBestChain[:], v)
	return hashBestChain, nil
}

func (coinsViewDB *CoinsDB) GetHeadBlocks() ([]util.Hash, error) {
	coinsViewDB.mtx.RLock()
	defer coinsViewDB.mtx.RUnlock()
	return coinsViewDB.getHeadBlocks()
}

func (coinsViewDB *CoinsDB) getHeadBlocks() ([]util.Hash, error) {
	v, ok, err := coinsViewDB.dbw.Read(db.Key(db.TagHeadBlocks))
	if err != nil {
		return nil, errcode.NewWithDesc(errcode.ErrorReadDB, "read head blocks: %v", err)
	}
	if !ok {
		return nil, nil
	}
	heads, err := decodeHashes(v)
	if err != nil {
		return nil, errcode.NewWithDesc(errcode.ErrorCorruptRecord, "head blocks: %v", err)
	}
	return heads, nil
}

// encodeHashes writes a CompactSize count followed by the hashes.
func encodeHashes(hashes ...util.Hash) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, 1+len(hashes)*util.Hash256Size))
	util.WriteVarInt(buf, uint64(len(hashes)))
	for i := range hashes {
		buf.Write(hashes[i][:])
	}
	return buf.Bytes()
}

func decodeHashes(v []byte) ([]util.Hash, error) {
	r := bytes.NewReader(v)
	count, err := util.ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if count > maxHeadBlocks {
		return nil, errors.Errorf("%d hashes", count)
	}
	hashes := make([]util.Hash, count)
	for i := range hashes {
		if _, err := hashes[i].Unserialize(r); err != nil {
			return nil, err
		}
	}
	if r.Len() != 0 {
		return nil, errors.Errorf("%d trailing bytes", r.Len())
	}
	return hashes, nil
}

// Apply writes mutations to the database and moves the best block to
// hashBlock. Coins in mutations that are spent are erased. When erase is
// set, entries are removed from mutations as they are queued.
//
// The first batch replaces the best block by a head-blocks marker
// [hashBlock, oldTip], coins follow in batches of about the configured
// batch size, and the last batch swaps the marker back for the best block.
// A flush cut short therefore leaves no best block and a marker naming the
// transition to resume.
func (coinsViewDB *CoinsDB) Apply(guard *chainlock.Guard, mutations CoinsMap, hashBlock *util.Hash, erase bool) (err error) {
	if err := chainlock.Check(coinsViewDB.gate, guard); err != nil {
		return err
	}
	if hashBlock == nil || hashBlock.IsNull() {
		return errors.New("apply coins: null block hash")
	}

	coinsViewDB.mtx.RLock()
	defer coinsViewDB.mtx.RUnlock()

	prometheusCoinsFlush.Inc()
	start := time.Now()
	defer func() {
		prometheusCoinsFlushSeconds.Observe(time.Since(start).Seconds())
		if err != nil {
			prometheusCoinsFlushErrors.Inc()
		}
	}()

	oldTip, err := coinsViewDB.getBestBlock()
	if err != nil {
		return err
	}
	if oldTip.IsNull() {
		// We may be in the middle of replaying.
		oldHeads, err := coinsViewDB.getHeadBlocks()
		if err != nil {
			return err
		}
		if len(oldHeads) == 2 {
			if !oldHeads[0].IsEqual(hashBlock) {
				return errcode.NewWithDesc(errcode.ErrorInvalidHeadBlocks,
					"interrupted flush to %s cannot be resumed with %s", oldHeads[0], hashBlock)
			}
			oldTip = oldHeads[1]
		}
	}

	for point, coin := range mutations {
		if coin.IsSpent() {
			continue
		}
		if err := coin.checkValue(); err != nil {
			return errors.Wrapf(err, "coin %s", point.String())
		}
	}

	// Mark the database as being in the middle of a transition from oldTip
	// to hashBlock.
	batches := 1
	batch := coinsViewDB.dbw.NewBatch()
	batch.Erase(db.Key(db.TagBestBlock))
	batch.Write(db.Key(db.TagHeadBlocks), encodeHashes(*hashBlock, oldTip))
	if err := coinsViewDB.commit(batch, PhaseMark, batches); err != nil {
		return err
	}
	batch.Clear()

	count := 0
	changed := 0
	written := 0
	for point, coin := range mutations {
		key := NewCoinKey(&point).Bytes()
		if coin.IsSpent() {
			batch.Erase(key)
		} else {
			buf := bytes.NewBuffer(nil)
			if err := coin.Serialize(buf); err != nil {
				return errors.Wrapf(err, "serialize coin %s", point.String())
			}
			batch.Write(key, buf.Bytes())
			written++
		}
		changed++
		count++
		if erase {
			delete(mutations, point)
		}
		if batch.SizeEstimate() > coinsViewDB.batchSize {
			log.Print("coindb", "debug", "Writing partial batch of %.2f MiB",
				float64(batch.SizeEstimate())*(1.0/1048576.0))
			batches++
			if err := coinsViewDB.commit(batch, PhaseCoins, batches); err != nil {
				return err
			}
			batch.Clear()
		}
	}

	// In the last batch, mark the database as consistent with hashBlock again.
	batch.Erase(db.Key(db.TagHeadBlocks))
	batch.Write(db.Key(db.TagBestBlock), hashBlock[:])

	log.Print("coindb", "debug", "Writing final batch of %.2f MiB",
		float64(batch.SizeEstimate())*(1.0/1048576.0))
	batches++
	if err := coinsViewDB.commit(batch, PhaseCommit, batches); err != nil {
		return err
	}
	prometheusCoinsWritten.Add(float64(written))
	prometheusCoinsErased.Add(float64(changed - written))
	log.Print("coindb", "debug", "Committed %d changed transaction outputs (out of %d) to coin database...",
		changed, count)
	return nil
}

func (coinsViewDB *CoinsDB) commit(batch *db.BatchWrapper, phase Phase, n int) error {
	size := batch.SizeEstimate()
	if err := coinsViewDB.dbw.WriteBatch(batch, false); err != nil {
		return errcode.NewWithDesc(errcode.ErrorFailedToWriteToCoinDatabase, "%s batch %d: %v", phase, n, err)
	}
	prometheusCoinsBatches.WithLabelValues(phase.String()).Inc()
	prometheusCoinsBatchBytes.Observe(float64(size))
	if coinsViewDB.faultHook != nil {
		return coinsViewDB.faultHook(phase, n)
	}
	return nil
}

// NeedsUpgrade reports whether the database still holds coins in the
// per-transaction format dropped in v0.15.
func (coinsViewDB *CoinsDB) NeedsUpgrade() (bool, error) {
	coinsViewDB.mtx.RLock()
	defer coinsViewDB.mtx.RUnlock()

	iter := coinsViewDB.dbw.Iterator()
	defer iter.Close()
	iter.Seek(db.Key(db.TagLegacyCoins, util.HashZero[:]))
	if !iter.Valid() {
		return false, iter.Error()
	}
	_, ok := db.Payload(db.TagLegacyCoins, iter.GetKey())
	return ok, nil
}

// EstimateSize is the approximate on-disk size of the coin table.
func (coinsViewDB *CoinsDB) EstimateSize() (uint64, error) {
	coinsViewDB.mtx.RLock()
	defer coinsViewDB.mtx.RUnlock()

	begin, end := db.Range(db.TagCoin)
	return coinsViewDB.dbw.EstimateSize(begin, end)
}

func (coinsViewDB *CoinsDB) IsMemory() bool {
	return coinsViewDB.dbw.IsMemory()
}

// ResizeCache reopens the database with a new cache budget. It waits for
// every reader to finish and fails for in-memory databases, which would
// lose their content. Every cursor must be closed first.
func (coinsViewDB *CoinsDB) ResizeCache(guard *chainlock.Guard, cacheSize int) error {
	if err := chainlock.Check(coinsViewDB.gate, guard); err != nil {
		return err
	}
	coinsViewDB.mtx.Lock()
	defer coinsViewDB.mtx.Unlock()
	if n := coinsViewDB.cursors.Load(); n != 0 {
		return errcode.NewWithDesc(errcode.ErrorCursorsOpen, "resize coin database with %d open cursors", n)
	}
	return coinsViewDB.dbw.Resize(cacheSize)
}

func (coinsViewDB *CoinsDB) Close() error {
	coinsViewDB.mtx.Lock()
	defer coinsViewDB.mtx.Unlock()
	return coinsViewDB.dbw.Close()
}
