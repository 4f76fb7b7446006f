package conf

const (
	// MinDbCache and MaxDbCache bound --dbcache, in MiB.
	MinDbCache = 4
	MaxDbCache = 16384
)

// CacheSizes is the split of the --dbcache budget, in bytes.
type CacheSizes struct {
	BlockTreeDB int64
	CoinsDB     int64
	CoinsTip    int64
}

// SplitCache divides the total database cache between the block tree
// database, the coins database and the in-memory coins cache.
func (c *Configuration) SplitCache() CacheSizes {
	total := c.Cache.DbCache << 20
	if total < MinDbCache<<20 {
		total = MinDbCache << 20
	}
	if total > MaxDbCache<<20 {
		total = MaxDbCache << 20
	}

	blockTree := min64(total/8, c.Cache.MaxBlockDBCache<<20)
	total -= blockTree

	// 25%-50% of the remainder goes to the leveldb cache
	coinsDB := min64(total/2, total/4+(1<<23))
	coinsDB = min64(coinsDB, c.Cache.MaxCoinsDBCache<<20)
	total -= coinsDB

	return CacheSizes{
		BlockTreeDB: blockTree,
		CoinsDB:     coinsDB,
		CoinsTip:    total,
	}
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
