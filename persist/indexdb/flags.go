package indexdb

import (
	"github.com/UdjinM6/dash-sub001/errcode"
	"github.com/UdjinM6/dash-sub001/log"
	"github.com/UdjinM6/dash-sub001/persist/blkdb"
)

// FlagStore reads and writes the persisted bookkeeping flags.
type FlagStore interface {
	ReadFlag(name string) (value bool, ok bool, err error)
	WriteFlag(name string, value bool) error
}

// Flags selects the optional indexes.
type Flags struct {
	Address   bool
	Timestamp bool
	Spent     bool
}

type indexFlag struct {
	name      string
	option    string
	requested bool
	code      errcode.PersistErr
}

func (f Flags) list() []indexFlag {
	return []indexFlag{
		{blkdb.FlagAddressIndex, "addressindex", f.Address, errcode.ErrorAddressIndexNeedsReindex},
		{blkdb.FlagTimestampIndex, "timestampindex", f.Timestamp, errcode.ErrorTimestampIndexNeedsReindex},
		{blkdb.FlagSpentIndex, "spentindex", f.Spent, errcode.ErrorSpentIndexNeedsReindex},
	}
}

// CheckIndexFlags compares the requested indexes with the ones the database
// was built with. Unless a reindex is running, a difference in either
// direction means an index would be served incomplete and is an error. On
// success the requested state is persisted.
func CheckIndexFlags(store FlagStore, requested Flags, reindexing bool) error {
	indexes := requested.list()
	if !reindexing {
		for _, index := range indexes {
			stored, ok, err := store.ReadFlag(index.name)
			if err != nil {
				return err
			}
			if ok && stored != index.requested {
				return errcode.NewWithDesc(index.code,
					"You need to rebuild the database using -reindex to change -%s", index.option)
			}
		}
	}

	for _, index := range indexes {
		if err := store.WriteFlag(index.name, index.requested); err != nil {
			return err
		}
		state := "disabled"
		if index.requested {
			state = "enabled"
		}
		log.Info("%s %s", index.option, state)
	}
	return nil
}
