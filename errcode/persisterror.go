package errcode

import "fmt"

type PersistErr int

const (
	ErrorOpenDB PersistErr = PersistErrorBase + iota
	ErrorReadDB
	ErrorCorruptRecord
	ErrorPowCheck
	ErrorLegacyTxIndexUpgrade
	ErrorAddressIndexNeedsReindex
	ErrorTimestampIndexNeedsReindex
	ErrorSpentIndexNeedsReindex
	ErrorChainstateNeedsUpgrade
	ErrorResizeInMemory
	ErrorNoGuard
	ErrorSimulatedCrash
	ErrorInvalidHeadBlocks
	ErrorBadGenesisBlock
	ErrorPrunedNeedsReindex
	ErrorInvalidCoinValue
	ErrorCursorsOpen
)

var PersistErrString = map[PersistErr]string{
	ErrorOpenDB:                     "ErrorOpenDB",
	ErrorReadDB:                     "ErrorReadDB",
	ErrorCorruptRecord:              "ErrorCorruptRecord",
	ErrorPowCheck:                   "ErrorPowCheck",
	ErrorLegacyTxIndexUpgrade:       "ErrorLegacyTxIndexUpgrade",
	ErrorAddressIndexNeedsReindex:   "ErrorAddressIndexNeedsReindex",
	ErrorTimestampIndexNeedsReindex: "ErrorTimestampIndexNeedsReindex",
	ErrorSpentIndexNeedsReindex:     "ErrorSpentIndexNeedsReindex",
	ErrorChainstateNeedsUpgrade:     "ErrorChainstateNeedsUpgrade",
	ErrorResizeInMemory:             "ErrorResizeInMemory",
	ErrorNoGuard:                    "ErrorNoGuard",
	ErrorSimulatedCrash:             "ErrorSimulatedCrash",
	ErrorInvalidHeadBlocks:          "ErrorInvalidHeadBlocks",
	ErrorBadGenesisBlock:            "ErrorBadGenesisBlock",
	ErrorPrunedNeedsReindex:         "ErrorPrunedNeedsReindex",
	ErrorInvalidCoinValue:           "ErrorInvalidCoinValue",
	ErrorCursorsOpen:                "ErrorCursorsOpen",
}

func (pe PersistErr) String() string {
	if s, ok := PersistErrString[pe]; ok {
		return s
	}
	return fmt.Sprintf("Unknown code (%d)", pe)
}
