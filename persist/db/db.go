package db

import (
	"crypto/rand"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	lvldb "github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/UdjinM6/dash-sub001/errcode"
	"github.com/UdjinM6/dash-sub001/log"
)

const (
	obfuscateKeyKey = "\000obfuscate_key"
	obfuscateKeyLen = 8
)

const (
	preallocKeySize   = 64
	preallocValueSize = 1024

	minCacheSize = 1 << 20
)

// DBWrapper is the leveldb-backed KeyedStore. Values are XORed with a
// per-database obfuscation key.
type DBWrapper struct {
	option       opt.Options
	readOption   opt.ReadOptions
	iterOption   opt.ReadOptions
	writeOption  opt.WriteOptions
	syncOption   opt.WriteOptions
	db           *lvldb.DB
	name         string
	path         string
	memory       bool
	obfuscateKey []byte
}

func genObfuscateKey() []byte {
	buf := make([]byte, obfuscateKeyLen)
	_, err := rand.Read(buf)
	if err != nil {
		panic("failed read random bytes")
	}
	return buf
}

func getOptions(cacheSize int) opt.Options {
	if cacheSize < minCacheSize {
		cacheSize = minCacheSize
	}
	var opts opt.Options
	opts.BlockCacher = opt.LRUCacher
	opts.BlockCacheCapacity = cacheSize / 2
	opts.WriteBuffer = cacheSize / 4
	opts.Filter = filter.NewBloomFilter(10)
	opts.Compression = opt.NoCompression
	opts.OpenFilesCacheCapacity = 64

	return opts
}

func destroyDB(path string) error {
	st, err := storage.OpenFile(path, false)
	if err != nil {
		return err
	}
	defer st.Close()
	fds, err := st.List(storage.TypeAll)
	if err != nil {
		return err
	}
	for _, fd := range fds {
		if err := st.Remove(fd); err != nil {
			return err
		}
	}
	for _, other := range []string{"CURRENT", "LOCK", "LOG", "LOG.old"} {
		if err := os.Remove(filepath.Join(path, other)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

type DBOption struct {
	FilePath       string
	CacheSize      int
	Memory         bool
	Wipe           bool
	DontObfuscate  bool
	ForceCompactdb bool
}

func openDB(do *DBOption, opts *opt.Options) (*lvldb.DB, error) {
	if do.Memory {
		return lvldb.Open(storage.NewMemStorage(), opts)
	}
	if do.Wipe {
		if err := destroyDB(do.FilePath); err != nil {
			return nil, err
		}
	}

	err := os.MkdirAll(do.FilePath, 0740)
	if err != nil && !os.IsExist(err) {
		return nil, err
	}
	return lvldb.OpenFile(do.FilePath, opts)
}

func NewDBWrapper(do *DBOption) (*DBWrapper, error) {
	if do == nil {
		return nil, errors.New("DBWrapper: nil DBOption")
	}
	opts := getOptions(do.CacheSize)
	db, err := openDB(do, &opts)
	if err != nil {
		return nil, errors.Wrapf(err, "open database %s", do.FilePath)
	}
	if do.ForceCompactdb {
		if err := db.CompactRange(util.Range{}); err != nil {
			db.Close()
			return nil, err
		}
	}

	ro := opt.ReadOptions{
		DontFillCache: false,
		Strict:        opt.StrictJournalChecksum | opt.StrictBlockChecksum,
	}
	io := opt.ReadOptions{
		DontFillCache: true,
		Strict:        opt.StrictJournalChecksum | opt.StrictBlockChecksum,
	}
	wo := opt.WriteOptions{}
	so := opt.WriteOptions{
		Sync: true,
	}

	dbw := &DBWrapper{
		option:      opts,
		readOption:  ro,
		iterOption:  io,
		writeOption: wo,
		syncOption:  so,
		db:          db,
		name:        filepath.Base(do.FilePath),
		path:        do.FilePath,
		memory:      do.Memory,
	}
	if do.Memory && do.FilePath == "" {
		dbw.name = "memory"
	}
	if err := dbw.loadObfuscateKey(!do.DontObfuscate); err != nil {
		dbw.Close()
		return nil, err
	}
	log.Info("Opened LevelDB successfully: %s", dbw.name)
	return dbw, nil
}

// loadObfuscateKey reads the stored key, or creates one when the database
// is brand new and obfuscation is wanted.
func (dbw *DBWrapper) loadObfuscateKey(obfuscate bool) error {
	obk, ok, err := dbw.Read([]byte(obfuscateKeyKey))
	if err != nil {
		return err
	}
	if ok {
		dbw.obfuscateKey = obk
		return nil
	}
	empty, err := dbw.IsEmpty()
	if err != nil {
		return err
	}
	if obfuscate && empty {
		newKey := genObfuscateKey()
		if err := dbw.Write([]byte(obfuscateKeyKey), newKey, false); err != nil {
			return err
		}
		dbw.obfuscateKey = newKey
		log.Info("Wrote new obfuscate key for %s", dbw.name)
	}
	return nil
}

func xor(val, key []byte) {
	if len(key) == 0 {
		return
	}
	for i, j := 0, 0; i < len(val); i++ {
		val[i] ^= key[j]
		j++
		if j == len(key) {
			j = 0
		}
	}
}

// closed reports lvldb.ErrClosed once the handle is gone, after Close or a
// failed Resize.
func (dbw *DBWrapper) closed(op string) error {
	if dbw.db == nil {
		return errors.Wrapf(lvldb.ErrClosed, "%s: %s", dbw.name, op)
	}
	return nil
}

// Read returns the value stored under key. A missing key is reported with
// ok == false and a nil error.
func (dbw *DBWrapper) Read(key []byte) (value []byte, ok bool, err error) {
	if err := dbw.closed("read"); err != nil {
		return nil, false, err
	}
	value, err = dbw.db.Get(key, &dbw.readOption)
	if err == lvldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "%s: read", dbw.name)
	}
	xor(value, dbw.obfuscateKey)
	return value, true, nil
}

func (dbw *DBWrapper) Write(key, val []byte, sync bool) error {
	bw := NewBatchWrapper(dbw)
	bw.Write(key, val)
	return dbw.WriteBatch(bw, sync)
}

func (dbw *DBWrapper) WriteBatch(bw *BatchWrapper, sync bool) error {
	if err := dbw.closed("write batch"); err != nil {
		return err
	}
	var opts opt.WriteOptions
	if sync {
		opts = dbw.syncOption
	} else {
		opts = dbw.writeOption
	}
	if err := dbw.db.Write(&bw.bat, &opts); err != nil {
		return errors.Wrapf(err, "%s: write batch", dbw.name)
	}
	return nil
}

func (dbw *DBWrapper) Exists(key []byte) (bool, error) {
	if err := dbw.closed("exists"); err != nil {
		return false, err
	}
	ok, err := dbw.db.Has(key, &dbw.readOption)
	if err != nil {
		return false, errors.Wrapf(err, "%s: exists", dbw.name)
	}
	return ok, nil
}

func (dbw *DBWrapper) Erase(key []byte, sync bool) error {
	bw := NewBatchWrapper(dbw)
	bw.Erase(key)
	return dbw.WriteBatch(bw, sync)
}

func (dbw *DBWrapper) Sync() error {
	bw := NewBatchWrapper(dbw)
	return dbw.WriteBatch(bw, true)
}

func (dbw *DBWrapper) NewBatch() *BatchWrapper {
	return NewBatchWrapper(dbw)
}

func (dbw *DBWrapper) Iterator() *IterWrapper {
	if err := dbw.closed("iterator"); err != nil {
		return NewIterWrapper(dbw, iterator.NewEmptyIterator(err))
	}
	return NewIterWrapper(dbw, dbw.db.NewIterator(nil, &dbw.iterOption))
}

func (dbw *DBWrapper) IsEmpty() (bool, error) {
	it := dbw.Iterator()
	defer it.Close()
	it.SeekToFirst()
	return !it.Valid(), it.Error()
}

// EstimateSize is the approximate on-disk size of the keys in [begin, end).
func (dbw *DBWrapper) EstimateSize(begin, end []byte) (uint64, error) {
	if err := dbw.closed("size of range"); err != nil {
		return 0, err
	}
	r := []util.Range{{Start: begin, Limit: end}}
	sizes, err := dbw.db.SizeOf(r)
	if err != nil {
		return 0, errors.Wrapf(err, "%s: size of range", dbw.name)
	}
	return uint64(sizes.Sum()), nil
}

func (dbw *DBWrapper) CompactRange(begin, end []byte) error {
	if err := dbw.closed("compact range"); err != nil {
		return err
	}
	return dbw.db.CompactRange(util.Range{Start: begin, Limit: end})
}

func (dbw *DBWrapper) GetObfuscateKey() []byte {
	return dbw.obfuscateKey
}

func (dbw *DBWrapper) IsMemory() bool {
	return dbw.memory
}

// Resize closes the handle and reopens the same files with a new cache
// budget. No other goroutine may use the wrapper while it runs. If the
// reopen fails the wrapper stays closed.
func (dbw *DBWrapper) Resize(cacheSize int) error {
	if dbw.memory {
		return errcode.New(errcode.ErrorResizeInMemory)
	}
	if err := dbw.db.Close(); err != nil {
		return errors.Wrapf(err, "%s: close for resize", dbw.name)
	}
	dbw.db = nil
	opts := getOptions(cacheSize)
	db, err := lvldb.OpenFile(dbw.path, &opts)
	if err != nil {
		return errors.Wrapf(err, "%s: reopen", dbw.name)
	}
	dbw.db = db
	dbw.option = opts
	log.Info("Resized %s cache to %.1f MiB", dbw.name, float64(cacheSize)/(1<<20))
	return nil
}

func (dbw *DBWrapper) Close() error {
	if dbw.db == nil {
		return nil
	}
	err := dbw.db.Close()
	dbw.db = nil
	return err
}

type BatchWrapper struct {
	bat     lvldb.Batch
	parent  *DBWrapper
	bkey    []byte
	bval    []byte
	sizeEst int
}

func NewBatchWrapper(parent *DBWrapper) *BatchWrapper {
	return &BatchWrapper{
		parent: parent,
		bkey:   make([]byte, 0, preallocKeySize),
		bval:   make([]byte, 0, preallocValueSize),
	}
}

func (bw *BatchWrapper) Clear() {
	bw.bat.Reset()
	bw.sizeEst = 0
}

func (bw *BatchWrapper) Write(key, val []byte) {
	bw.bkey = append(bw.bkey, key...)
	bw.bval = append(bw.bval, val...)
	xor(bw.bval, bw.parent.GetObfuscateKey())
	bw.bat.Put(bw.bkey, bw.bval)
	// LevelDB serializes writes as:
	// - byte: header
	// - varint: key length (1 byte up to 127B, 2 bytes up to 16383B, ...)
	// - byte[]: key
	// - varint: value length
	// - byte[]: value
	// The formula below assumes the key and value are both less than 16k.
	k := 0
	v := 0
	if len(bw.bkey) > 127 {
		k = 1
	}
	if len(bw.bval) > 127 {
		v = 1
	}
	bw.sizeEst += 3 + k + len(bw.bkey) + v + len(bw.bval)
	bw.bkey = bw.bkey[:0]
	bw.bval = bw.bval[:0]
}

func (bw *BatchWrapper) SizeEstimate() int {
	return bw.sizeEst
}

func (bw *BatchWrapper) Erase(key []byte) {
	bw.bkey = append(bw.bkey, key...)
	bw.bat.Delete(bw.bkey)
	k := 0
	if len(bw.bkey) > 127 {
		k = 1
	}
	bw.sizeEst += 2 + k + len(bw.bkey)
	bw.bkey = bw.bkey[:0]
}

type IterWrapper struct {
	parent *DBWrapper
	iter   iterator.Iterator
}

func NewIterWrapper(parent *DBWrapper, iter iterator.Iterator) *IterWrapper {
	return &IterWrapper{
		parent: parent,
		iter:   iter,
	}
}

func (iw *IterWrapper) Valid() bool {
	if iw.iter == nil {
		return false
	}
	return iw.iter.Valid()
}

func (iw *IterWrapper) SeekToFirst() {
	iw.Seek(nil)
}

func (iw *IterWrapper) GetKey() []byte {
	var key []byte
	if iw.iter != nil {
		k := iw.iter.Key()
		key = append(key, k...)
	}
	return key
}

func (iw *IterWrapper) GetKeySize() int {
	return len(iw.GetKey())
}

func (iw *IterWrapper) GetVal() []byte {
	var val []byte
	if iw.iter != nil {
		v := iw.iter.Value()
		val = append(val, v...)
	}
	xor(val, iw.parent.GetObfuscateKey())
	return val
}

func (iw *IterWrapper) GetValSize() int {
	return len(iw.GetVal())
}

func (iw *IterWrapper) Seek(key []byte) {
	if iw.iter != nil {
		iw.iter.Seek(key)
	}
}
func (iw *IterWrapper) Next() {
	if iw.iter != nil {
		iw.iter.Next()
	}
}

func (iw *IterWrapper) Error() error {
	if iw.iter == nil {
		return nil
	}
	return iw.iter.Error()
}

func (iw *IterWrapper) Close() {
	if iw.iter != nil {
		iw.iter.Release()
	}
}
