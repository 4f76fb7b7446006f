package db

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io/ioutil"
	"math/rand"
	"os"
	"testing"

	"github.com/pkg/errors"
	lvldb "github.com/syndtr/goleveldb/leveldb"
)

func rand256() []byte {
	b := make([]byte, 256)
	rand.Read(b)
	return b
}

func TestDBWrapper(t *testing.T) {
	path, err := ioutil.TempDir("", "dbwtest")
	if err != nil {
		t.Fatalf("generate temp db path failed: %s\n", err)
	}
	defer os.RemoveAll(path)

	dbw, err := NewDBWrapper(&DBOption{
		FilePath:  path,
		CacheSize: 1 << 20,
	})
	if err != nil {
		t.Fatalf("NewDBWrapper failed: %s\n", err)
	}
	defer dbw.Close()

	key := []byte{'k'}
	in := rand256()
	if err := dbw.Write(key, in, false); err != nil {
		t.Fatalf("dbw.Write(): %s", err)
	}
	val, ok, err := dbw.Read(key)
	if err != nil || !ok {
		t.Fatalf("dbw.Read(): %v", err)
	}
	if !bytes.Equal(in, val) {
		t.Fatalf("should read back original data")
	}

}

func TestDBWrapperBatch(t *testing.T) {
	path, err := ioutil.TempDir("", "dbwtest")
	if err != nil {
		t.Fatalf("generate temp db path failed: %s\n", err)
	}
	defer os.RemoveAll(path)

	dbw, err := NewDBWrapper(&DBOption{
		FilePath:  path,
		CacheSize: 1 << 20,
	})
	if err != nil {
		t.Fatalf("NewDBWrapper failed: %s\n", err)
	}
	defer dbw.Close()

	key := []byte{'i'}
	key2 := []byte{'j'}
	key3 := []byte{'k'}
	in := rand256()
	in2 := rand256()
	in3 := rand256()

	batch := NewBatchWrapper(dbw)
	batch.Write(key, in)
	batch.Write(key2, in2)
	batch.Write(key3, in3)

	batch.Erase(key3)
	if err := dbw.WriteBatch(batch, false); err != nil {
		t.Fatalf("dbw.WriteBatch(): %s", err)
	}

	res, _, err := dbw.Read(key)
	if err != nil {
		t.Fatalf("dbw.Read(): %s", err)
	}
	if !bytes.Equal(res, in) {
		t.Fatalf("should read back key 'i' value")
	}

	res, _, err = dbw.Read(key2)
	if err != nil {
		t.Fatalf("dbw.Read(): %s", err)
	}
	if !bytes.Equal(res, in2) {
		t.Fatalf("should read back key 'j' value")
	}

	if ok, _ := dbw.Exists(key3); ok {
		t.Fatalf("shouldn't read out key 'k' value")
	}

}

func TestDBWrapperIterator(t *testing.T) {
	path, err := ioutil.TempDir("", "dbwtest")
	if err != nil {
		t.Fatalf("generate temp db path failed: %s\n", err)
	}
	defer os.RemoveAll(path)

	dbw, err := NewDBWrapper(&DBOption{
		FilePath:  path,
		CacheSize: 1 << 20,
	})
	if err != nil {
		t.Fatalf("NewDBWrapper failed: %s\n", err)
	}
	defer dbw.Close()

	key := []byte{'j'}
	in := rand256()
	if err := dbw.Write(key, in, false); err != nil {
		t.Fatalf("dbw.Write(): %s", err)
	}

	key2 := []byte{'k'}
	in2 := rand256()
	if err := dbw.Write(key2, in2, false); err != nil {
		t.Fatalf("dbw.Write(): %s", err)
	}

	iter := dbw.Iterator()
	defer iter.Close()

	iter.Seek(key)
	if !bytes.Equal(iter.GetKey(), key) {
		t.Fatalf("iter.GetKey() should read back key 'j'")
	}
	if !bytes.Equal(iter.GetVal(), in) {
		t.Fatalf("iter.GetVal() should read back key 'j' value")
	}

	iter.Next()

	if !bytes.Equal(iter.GetKey(), key2) {
		t.Fatalf("iter.GetKey() should read back key 'k'")
	}
	if !bytes.Equal(iter.GetVal(), in2) {
		t.Fatalf("iter.GetVal() should read back key 'k' value")
	}

	iter.Next()
	if iter.Valid() {
		t.Fatalf("now iter should be invalid")
	}

}

func TestExistingDataNoObfuscate(t *testing.T) {
	path, err := ioutil.TempDir("", "dbwtest")
	if err != nil {
		t.Fatalf("generate temp db path failed: %s\n", err)
	}
	defer os.RemoveAll(path)

	dbw, err := NewDBWrapper(&DBOption{
		FilePath:  path,
		CacheSize: 1 << 10,
	})
	if err != nil {
		t.Fatalf("NewDBWrapper failed: %s\n", err)
	}

	key := []byte{'k'}
	in := rand256()
	if err := dbw.Write(key, in, false); err != nil {
		t.Fatalf("dbw.Write(): %s", err)
	}
	if res, _, err := dbw.Read(key); err != nil {
		t.Fatalf("dbw.Read(): %s", err)
	} else if err == nil && !bytes.Equal(res, in) {
		t.Fatalf("res should equal in")
	}

	dbw.Close()

	odbw, err := NewDBWrapper(&DBOption{
		FilePath:  path,
		CacheSize: 1 << 10,
	})
	if err != nil {
		t.Fatalf("NewDBWrapper failed: %s\n", err)
	}
	defer odbw.Close()

	if res, _, err := odbw.Read(key); err != nil {
		t.Fatalf("dbw.Read(): %s", err)
	} else if err == nil && !bytes.Equal(res, in) {
		t.Fatalf("res should equal in")
	}
	if empty, _ := odbw.IsEmpty(); empty {
		t.Fatalf("There should be existing data")
	}

	in2 := rand256()
	if err := odbw.Write(key, in2, false); err != nil {
		t.Fatalf("dbw.Write(): %s", err)
	}
	if res, _, err := odbw.Read(key); err != nil {
		t.Fatalf("dbw.Read(): %s", err)
	} else if err == nil && !bytes.Equal(res, in2) {
		t.Fatalf("res should equal in2")
	}
}

func TestExistingDataReindex(t *testing.T) {
	path, err := ioutil.TempDir("", "dbwtest")
	if err != nil {
		t.Fatalf("generate temp db path failed: %s\n", err)
	}
	defer os.RemoveAll(path)

	dbw, err := NewDBWrapper(&DBOption{
		FilePath:  path,
		CacheSize: 1 << 10,
	})
	if err != nil {
		t.Fatalf("NewDBWrapper failed: %s\n", err)
	}

	key := []byte{'k'}
	in := rand256()
	if err := dbw.Write(key, in, false); err != nil {
		t.Fatalf("dbw.Write(): %s", err)
	}
	if res, _, err := dbw.Read(key); err != nil {
		t.Fatalf("dbw.Read(): %s", err)
	} else if err == nil && !bytes.Equal(res, in) {
		t.Fatalf("res should equal in")
	}

	dbw.Close()

	odbw, err := NewDBWrapper(&DBOption{
		FilePath:  path,
		CacheSize: 1 << 10,
		Wipe:      true,
	})
	if err != nil {
		t.Fatalf("NewDBWrapper failed: %s\n", err)
	}
	defer odbw.Close()

	if ok, _ := odbw.Exists(key); ok {
		t.Fatalf("odbw should not contain 'k'")
	}

	in2 := rand256()
	if err := odbw.Write(key, in2, false); err != nil {
		t.Fatalf("dbw.Write(): %s", err)
	}
	if res, _, err := odbw.Read(key); err != nil {
		t.Fatalf("dbw.Read(): %s", err)
	} else if err == nil && !bytes.Equal(res, in2) {
		t.Fatalf("res should equal in2")
	}
}

func TestIteratorOrdering(t *testing.T) {
	path, err := ioutil.TempDir("", "dbwtest")
	if err != nil {
		t.Fatalf("generate temp db path failed: %s\n", err)
	}
	defer os.RemoveAll(path)

	dbw, err := NewDBWrapper(&DBOption{
		FilePath:      path,
		CacheSize:     1 << 20,
		DontObfuscate: true,
	})
	if err != nil {
		t.Fatalf("NewDBWrapper failed: %s\n", err)
	}
	defer dbw.Close()

	for i := 0; i < 256; i++ {
		key := uint8(i)
		val := uint32(i * i)
		if i&1 == 0 {
			vs := make([]byte, 4)
			binary.LittleEndian.PutUint32(vs, val)
			if err := dbw.Write([]byte{key}, vs, false); err != nil {
				t.Fatalf("dbw.Write(): %s", err)
			}
		}
	}
	iter := dbw.Iterator()
	defer iter.Close()
	for i := 0; i < 256; i++ {
		key := uint8(i)
		val := uint32(i * i)
		if i&1 != 0 {
			vs := make([]byte, 4)
			binary.LittleEndian.PutUint32(vs, val)
			if err := dbw.Write([]byte{key}, vs, false); err != nil {
				t.Fatalf("dbw.Write(): %s", err)
			}
		}
	}

	for _, seekStart := range []byte{0x00, 0x80} {
		iter.Seek([]byte{seekStart})
		for x := uint32(seekStart); x < 0xff; x++ {
			k := uint32(0)
			v := uint32(0)
			if !iter.Valid() {
				t.Fatalf("iter should be valid")
			}
			if !iter.Valid() {
				break
			}
			ks := iter.GetKey()
			if len(ks) == 0 {
				t.Fatalf("iter.GetKey() should return non empty key")
			}
			k = uint32(ks[0])

			if x&1 != 0 {
				if k != x+1 {
					t.Fatal("k should equal x + 1")
				}
				continue
			}
			v = binary.LittleEndian.Uint32(iter.GetVal())

			if k != x {
				t.Fatalf("key should equal x")
			}
			if v != x*x {
				t.Fatalf("value should equal x*x")
			}
			iter.Next()
		}
		if iter.Valid() {
			t.Fatalf("iterator now should be invalid")
		}
	}
}

func TestIteratorStringOrdering(t *testing.T) {
	path, err := ioutil.TempDir("", "dbwtest")
	if err != nil {
		t.Fatalf("generate temp db path failed: %s\n", err)
	}
	defer os.RemoveAll(path)

	dbw, err := NewDBWrapper(&DBOption{
		FilePath:      path,
		CacheSize:     1 << 20,
		DontObfuscate: true,
	})
	if err != nil {
		t.Fatalf("NewDBWrapper failed: %s\n", err)
	}
	defer dbw.Close()

	for x := 0; x < 10; x++ {
		for y := 0; y < 10; y++ {
			key := bytes.NewBuffer(nil)
			key.WriteString(fmt.Sprintf("%d", x))
			for z := 0; z < y; z++ {
				key.Write(key.Bytes())
			}
			val := make([]byte, 4)
			binary.LittleEndian.PutUint32(val, uint32(x*x))
			if err := dbw.Write(key.Bytes(), val, false); err != nil {
				t.Fatalf("dbw.Write(): %s", err)
			}
		}
	}

	iter := dbw.Iterator()
	defer iter.Close()

	for _, seekStart := range []int{0, 5} {
		iter.Seek([]byte(fmt.Sprintf("%d", seekStart)))
		for x := seekStart; x < 10; x++ {
			for y := 0; y < 10; y++ {
				expKey := bytes.NewBuffer(nil)
				expKey.WriteString(fmt.Sprintf("%d", x))
				for z := 0; z < y; z++ {
					expKey.Write(expKey.Bytes())
				}
				if !iter.Valid() {
					t.Fatalf("iter should be valid")
				}
				if !iter.Valid() {
					break
				}
				ks := iter.GetKey()
				vs := iter.GetVal()
				if len(ks) == 0 || len(vs) == 0 {
					t.Fatal("ks or vs should not be empty")
				}
				if !bytes.Equal(expKey.Bytes(), ks) {
					t.Fatal("expKey should equal ks")
				}
				if binary.LittleEndian.Uint32(vs) != uint32(x*x) {
					t.Fatal("value should equal x * x")
				}
				iter.Next()
			}
		}
		if iter.Valid() {
			t.Fatalf("iterator now should be invalid")
		}
	}
}

func TestDBWrapperFailedResize(t *testing.T) {
	path, err := ioutil.TempDir("", "dbwresize")
	if err != nil {
		t.Fatalf("generate temp db path failed: %s\n", err)
	}
	defer os.RemoveAll(path)
	defer os.RemoveAll(path + ".moved")

	dbw, err := NewDBWrapper(&DBOption{FilePath: path, CacheSize: 1 << 20})
	if err != nil {
		t.Fatalf("NewDBWrapper failed: %s\n", err)
	}
	defer dbw.Close()
	if err := dbw.Write([]byte{'k'}, []byte{1}, true); err != nil {
		t.Fatalf("dbw.Write(): %s", err)
	}

	// a regular file where the database directory was makes the reopen fail
	if err := os.Rename(path, path+".moved"); err != nil {
		t.Fatalf("rename: %s", err)
	}
	if err := ioutil.WriteFile(path, []byte("not a directory"), 0600); err != nil {
		t.Fatalf("write file: %s", err)
	}
	if err := dbw.Resize(2 << 20); err == nil {
		t.Fatalf("Resize should fail")
	}

	if _, _, err := dbw.Read([]byte{'k'}); errors.Cause(err) != lvldb.ErrClosed {
		t.Fatalf("Read after failed resize: %v", err)
	}
	if _, err := dbw.Exists([]byte{'k'}); errors.Cause(err) != lvldb.ErrClosed {
		t.Fatalf("Exists after failed resize: %v", err)
	}
	if err := dbw.Write([]byte{'k'}, []byte{2}, false); errors.Cause(err) != lvldb.ErrClosed {
		t.Fatalf("Write after failed resize: %v", err)
	}
	if _, err := dbw.EstimateSize(nil, nil); errors.Cause(err) != lvldb.ErrClosed {
		t.Fatalf("EstimateSize after failed resize: %v", err)
	}
	it := dbw.Iterator()
	it.Seek(nil)
	if it.Valid() || errors.Cause(it.Error()) != lvldb.ErrClosed {
		t.Fatalf("Iterator after failed resize: valid=%t err=%v", it.Valid(), it.Error())
	}
	it.Close()
	if err := dbw.Close(); err != nil {
		t.Fatalf("Close after failed resize: %s", err)
	}
}
