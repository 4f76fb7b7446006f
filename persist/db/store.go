package db

// KeyedStore is the ordered byte key-value store the chain-state tables are
// layered on.
type KeyedStore interface {
	Read(key []byte) ([]byte, bool, error)
	Exists(key []byte) (bool, error)
	Write(key, val []byte, sync bool) error
	Erase(key []byte, sync bool) error
	NewBatch() *BatchWrapper
	WriteBatch(bw *BatchWrapper, sync bool) error
	Iterator() *IterWrapper
	EstimateSize(begin, end []byte) (uint64, error)
	IsMemory() bool
	Resize(cacheSize int) error
	Close() error
}

var _ KeyedStore = (*DBWrapper)(nil)
