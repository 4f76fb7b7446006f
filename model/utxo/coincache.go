package utxo

import (
	"sync"
	"unsafe"

	"github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/UdjinM6/dash-sub001/log"
	"github.com/UdjinM6/dash-sub001/model/outpoint"
	"github.com/UdjinM6/dash-sub001/persist/chainlock"
	"github.com/UdjinM6/dash-sub001/util"
)

const DefaultCleanEntries = 100000

// CoinsBatchWriter is a view that accepts a set of mutations together with
// the block they lead to. CoinsDB and CoinsCache both are one.
type CoinsBatchWriter interface {
	CoinsView
	Apply(guard *chainlock.Guard, mutations CoinsMap, hashBlock *util.Hash, erase bool) error
}

const (
	// entryDirty marks an entry that differs from the layer below.
	entryDirty uint8 = 1 << iota
	// entryFresh marks an entry the layer below does not have, so spending
	// it before a flush just drops it.
	entryFresh
)

type cacheEntry struct {
	coin  *Coin
	flags uint8
}

// CoinsCache keeps modified coins in memory in front of another view and
// hands them down in one Apply on Flush. Unmodified coins read from below
// are kept in a bounded LRU.
type CoinsCache struct {
	mtx sync.Mutex

	base             CoinsBatchWriter
	hashBlock        util.Hash
	cacheCoins       map[outpoint.OutPoint]*cacheEntry
	cleanCoins       *lru.Cache
	cachedCoinsUsage int64
}

var _ CoinsBatchWriter = (*CoinsCache)(nil)

func NewCoinsCache(base CoinsBatchWriter, cleanEntries int) (*CoinsCache, error) {
	if cleanEntries <= 0 {
		cleanEntries = DefaultCleanEntries
	}
	cleanCoins, err := lru.New(cleanEntries)
	if err != nil {
		return nil, errors.Wrap(err, "create clean coin cache")
	}
	initPrometheusMetrics()
	return &CoinsCache{
		base:       base,
		cacheCoins: make(map[outpoint.OutPoint]*cacheEntry),
		cleanCoins: cleanCoins,
	}, nil
}

// fetchCoin returns the entry for outPoint, loading it from the base view
// as a clean entry when needed. Missing coins yield nil.
func (coinsCache *CoinsCache) fetchCoin(outPoint *outpoint.OutPoint) (*cacheEntry, error) {
	if entry, ok := coinsCache.cacheCoins[*outPoint]; ok {
		prometheusCoinsCacheHit.Inc()
		return entry, nil
	}
	if c, ok := coinsCache.cleanCoins.Get(*outPoint); ok {
		prometheusCoinsCacheHit.Inc()
		return &cacheEntry{coin: c.(*Coin)}, nil
	}
	prometheusCoinsCacheMiss.Inc()
	coin, err := coinsCache.base.GetCoin(outPoint)
	if err != nil {
		return nil, err
	}
	if coin.IsSpent() {
		return nil, nil
	}
	coinsCache.cleanCoins.Add(*outPoint, coin)
	return &cacheEntry{coin: coin}, nil
}

// GetCoin returns a copy of the unspent coin at outPoint, or nil.
func (coinsCache *CoinsCache) GetCoin(outPoint *outpoint.OutPoint) (*Coin, error) {
	coinsCache.mtx.Lock()
	defer coinsCache.mtx.Unlock()

	entry, err := coinsCache.fetchCoin(outPoint)
	if err != nil || entry == nil || entry.coin.IsSpent() {
		return nil, err
	}
	return entry.coin.DeepCopy(), nil
}

func (coinsCache *CoinsCache) HaveCoin(outPoint *outpoint.OutPoint) (bool, error) {
	coinsCache.mtx.Lock()
	defer coinsCache.mtx.Unlock()

	entry, err := coinsCache.fetchCoin(outPoint)
	if err != nil {
		return false, err
	}
	return entry != nil && !entry.coin.IsSpent(), nil
}

// HaveCoinInCache reports whether outPoint is held by this layer, spent or
// not, without consulting the base view.
func (coinsCache *CoinsCache) HaveCoinInCache(outPoint *outpoint.OutPoint) bool {
	coinsCache.mtx.Lock()
	defer coinsCache.mtx.Unlock()

	if _, ok := coinsCache.cacheCoins[*outPoint]; ok {
		return true
	}
	return coinsCache.cleanCoins.Contains(*outPoint)
}

func (coinsCache *CoinsCache) GetBestBlock() (util.Hash, error) {
	coinsCache.mtx.Lock()
	defer coinsCache.mtx.Unlock()

	if coinsCache.hashBlock.IsNull() {
		hash, err := coinsCache.base.GetBestBlock()
		if err != nil {
			return hash, err
		}
		coinsCache.hashBlock = hash
	}
	return coinsCache.hashBlock, nil
}

func (coinsCache *CoinsCache) SetBestBlock(hash util.Hash) {
	coinsCache.mtx.Lock()
	coinsCache.hashBlock = hash
	coinsCache.mtx.Unlock()
}

func (coinsCache *CoinsCache) GetHeadBlocks() ([]util.Hash, error) {
	return coinsCache.base.GetHeadBlocks()
}

func (coinsCache *CoinsCache) EstimateSize() (uint64, error) {
	return coinsCache.base.EstimateSize()
}

// AddCoin stores an unspent coin. Unless possibleOverwrite is set, adding
// over an unspent coin known to this cache is an error; the new entry is
// FRESH when this layer did not already have a modified version of it.
func (coinsCache *CoinsCache) AddCoin(outPoint *outpoint.OutPoint, coin *Coin, possibleOverwrite bool) error {
	if coin.IsSpent() {
		return errors.New("AddCoin: spent coin")
	}
	if coin.IsUnspendable() {
		return nil
	}

	coinsCache.mtx.Lock()
	defer coinsCache.mtx.Unlock()

	entry, ok := coinsCache.cacheCoins[*outPoint]
	if !ok {
		entry = &cacheEntry{coin: NewEmptyCoin()}
		if c, clean := coinsCache.cleanCoins.Peek(*outPoint); clean {
			entry.coin = c.(*Coin)
		}
	}

	fresh := false
	if !possibleOverwrite {
		if !entry.coin.IsSpent() {
			return errors.Errorf("attempted to overwrite unspent coin %s", outPoint)
		}
		// A spent entry that is not DIRTY reflects the base view, where the
		// coin is known to be absent.
		fresh = entry.flags&entryDirty == 0
	}

	if ok {
		coinsCache.cachedCoinsUsage -= entry.coin.DynamicMemoryUsage()
	} else {
		coinsCache.cleanCoins.Remove(*outPoint)
	}
	entry.coin = coin.DeepCopy()
	entry.flags |= entryDirty
	if fresh {
		entry.flags |= entryFresh
	}
	coinsCache.cacheCoins[*outPoint] = entry
	coinsCache.cachedCoinsUsage += entry.coin.DynamicMemoryUsage()
	return nil
}

// SpendCoin marks the coin at outPoint spent and returns it. It returns
// nil when there was no such coin.
func (coinsCache *CoinsCache) SpendCoin(outPoint *outpoint.OutPoint) (*Coin, error) {
	coinsCache.mtx.Lock()
	defer coinsCache.mtx.Unlock()

	entry, err := coinsCache.fetchCoin(outPoint)
	if err != nil || entry == nil || entry.coin.IsSpent() {
		return nil, err
	}
	moved := entry.coin.DeepCopy()

	if _, ok := coinsCache.cacheCoins[*outPoint]; ok {
		coinsCache.cachedCoinsUsage -= entry.coin.DynamicMemoryUsage()
	} else {
		coinsCache.cleanCoins.Remove(*outPoint)
	}
	if entry.flags&entryFresh != 0 {
		delete(coinsCache.cacheCoins, *outPoint)
		return moved, nil
	}
	entry.flags |= entryDirty
	entry.coin = NewEmptyCoin()
	coinsCache.cacheCoins[*outPoint] = entry
	return moved, nil
}

// UnCache drops an unmodified entry.
func (coinsCache *CoinsCache) UnCache(outPoint *outpoint.OutPoint) {
	coinsCache.mtx.Lock()
	defer coinsCache.mtx.Unlock()

	if entry, ok := coinsCache.cacheCoins[*outPoint]; ok {
		if entry.flags == 0 {
			coinsCache.cachedCoinsUsage -= entry.coin.DynamicMemoryUsage()
			delete(coinsCache.cacheCoins, *outPoint)
		}
		return
	}
	coinsCache.cleanCoins.Remove(*outPoint)
}

// Apply merges the mutations of a child cache into this one. It never
// touches the base view.
func (coinsCache *CoinsCache) Apply(guard *chainlock.Guard, mutations CoinsMap, hashBlock *util.Hash, erase bool) error {
	if err := chainlock.Check(nil, guard); err != nil {
		return err
	}

	coinsCache.mtx.Lock()
	defer coinsCache.mtx.Unlock()

	for point, coin := range mutations {
		entry, ok := coinsCache.cacheCoins[point]
		if !ok {
			coinsCache.cleanCoins.Remove(point)
			entry = &cacheEntry{}
			coinsCache.cacheCoins[point] = entry
		} else {
			coinsCache.cachedCoinsUsage -= entry.coin.DynamicMemoryUsage()
		}
		if entry.flags&entryFresh != 0 && coin.IsSpent() {
			// Never reached the base view, nothing to erase there.
			delete(coinsCache.cacheCoins, point)
		} else {
			if coin.IsSpent() {
				entry.coin = NewEmptyCoin()
			} else {
				entry.coin = coin.DeepCopy()
			}
			entry.flags |= entryDirty
			coinsCache.cachedCoinsUsage += entry.coin.DynamicMemoryUsage()
		}
		if erase {
			delete(mutations, point)
		}
	}
	coinsCache.hashBlock = *hashBlock
	return nil
}

// Flush hands every modified entry to the base view. The entries stay
// in the cache if the base view fails, so the same flush can be retried.
// A failed flush may have written part of the coins, so no entry is fresh
// after it.
func (coinsCache *CoinsCache) Flush(guard *chainlock.Guard) error {
	coinsCache.mtx.Lock()
	defer coinsCache.mtx.Unlock()

	mutations := make(CoinsMap, len(coinsCache.cacheCoins))
	for point, entry := range coinsCache.cacheCoins {
		if entry.flags&entryDirty != 0 {
			mutations[point] = entry.coin
		}
	}
	hashBlock := coinsCache.hashBlock
	if err := coinsCache.base.Apply(guard, mutations, &hashBlock, false); err != nil {
		log.Error("CoinsCache.Flush of %d coins to %s failed: %v", len(mutations), hashBlock, err)
		for _, entry := range coinsCache.cacheCoins {
			entry.flags &^= entryFresh
		}
		return err
	}

	// What was flushed is now what the base view holds.
	for point, entry := range coinsCache.cacheCoins {
		if !entry.coin.IsSpent() {
			coinsCache.cleanCoins.Add(point, entry.coin)
		}
	}
	coinsCache.cacheCoins = make(map[outpoint.OutPoint]*cacheEntry)
	coinsCache.cachedCoinsUsage = 0
	return nil
}

// GetCacheSize is the number of entries held, modified or not.
func (coinsCache *CoinsCache) GetCacheSize() int {
	coinsCache.mtx.Lock()
	defer coinsCache.mtx.Unlock()
	return len(coinsCache.cacheCoins) + coinsCache.cleanCoins.Len()
}

// GetDirtySize is the number of entries the next Flush would write.
func (coinsCache *CoinsCache) GetDirtySize() int {
	coinsCache.mtx.Lock()
	defer coinsCache.mtx.Unlock()

	n := 0
	for _, entry := range coinsCache.cacheCoins {
		if entry.flags&entryDirty != 0 {
			n++
		}
	}
	return n
}

// DynamicMemoryUsage approximates the memory held by modified entries.
func (coinsCache *CoinsCache) DynamicMemoryUsage() int64 {
	coinsCache.mtx.Lock()
	defer coinsCache.mtx.Unlock()

	perEntry := int64(unsafe.Sizeof(outpoint.OutPoint{}) + unsafe.Sizeof(cacheEntry{}) + unsafe.Sizeof(Coin{}))
	return coinsCache.cachedCoinsUsage + perEntry*int64(len(coinsCache.cacheCoins))
}
