package blkdb

import (
	"github.com/UdjinM6/dash-sub001/errcode"
	"github.com/UdjinM6/dash-sub001/log"
	"github.com/UdjinM6/dash-sub001/persist/db"
)

const (
	legacyTxIndexUpgradeMsg = "The -txindex upgrade started by a previous version cannot be completed. " +
		"Restart with the previous version or run a full -reindex."
	legacyTxIndexFlagMsg = "The block index db contains a legacy 'txindex'. To clear the occupied disk space, " +
		"run a full -reindex, otherwise ignore this error. This error message will not be displayed again."
)

// CheckLegacyTxindex looks for traces of the transaction index that used to
// live in the block tree database. An unfinished migration is fatal. A set
// legacy flag is cleared and reported once as a warning.
func (blockTreeDB *BlockTreeDB) CheckLegacyTxindex() (warning string, err error) {
	migrating, err := blockTreeDB.dbw.Exists(db.Key(db.TagLegacyTxIndex))
	if err != nil {
		return "", errcode.NewWithDesc(errcode.ErrorReadDB, "check legacy txindex: %v", err)
	}
	if migrating {
		return "", errcode.NewWithDesc(errcode.ErrorLegacyTxIndexUpgrade, legacyTxIndexUpgradeMsg)
	}

	legacy, _, err := blockTreeDB.ReadFlag(FlagTxIndex)
	if err != nil {
		return "", err
	}
	if !legacy {
		return "", nil
	}
	if err := blockTreeDB.WriteFlag(FlagTxIndex, false); err != nil {
		return "", err
	}
	log.Warn(legacyTxIndexFlagMsg)
	return legacyTxIndexFlagMsg, nil
}
