package db

// Tag is the single byte that starts every key and partitions the key
// space into logical tables.
type Tag byte

const (
	TagCoin         Tag = 'C'
	TagBlockFiles   Tag = 'f'
	TagAddressIndex Tag = 'a'
	TagAddressUTXO  Tag = 'u'
	TagTimestamp    Tag = 's'
	TagSpentIndex   Tag = 'p'
	TagBlockIndex   Tag = 'b'

	TagBestBlock   Tag = 'B'
	TagHeadBlocks  Tag = 'H'
	TagFlag        Tag = 'F'
	TagReindexFlag Tag = 'R'
	TagLastBlock   Tag = 'l'

	// recognized for migration checks only, never written
	TagLegacyCoins   Tag = 'c'
	TagLegacyTxIndex Tag = 'T'
)

// Name returns the table name of a tag. Listing every tag in one switch
// makes a duplicated tag value a compile error.
func (t Tag) Name() string {
	switch t {
	case TagCoin:
		return "coin"
	case TagBlockFiles:
		return "blockfiles"
	case TagAddressIndex:
		return "addressindex"
	case TagAddressUTXO:
		return "addressunspent"
	case TagTimestamp:
		return "timestampindex"
	case TagSpentIndex:
		return "spentindex"
	case TagBlockIndex:
		return "blockindex"
	case TagBestBlock:
		return "bestblock"
	case TagHeadBlocks:
		return "headblocks"
	case TagFlag:
		return "flag"
	case TagReindexFlag:
		return "reindex"
	case TagLastBlock:
		return "lastblock"
	case TagLegacyCoins:
		return "legacycoins"
	case TagLegacyTxIndex:
		return "legacytxindex"
	}
	return "unknown"
}

func (t Tag) Deprecated() bool {
	return t == TagLegacyCoins || t == TagLegacyTxIndex
}

// Key builds tag || payload.
func Key(tag Tag, payload ...[]byte) []byte {
	size := 1
	for _, p := range payload {
		size += len(p)
	}
	key := make([]byte, 1, size)
	key[0] = byte(tag)
	for _, p := range payload {
		key = append(key, p...)
	}
	return key
}

// Payload strips the tag from key. It returns false when key belongs to a
// different table, which is how range scans detect their end.
func Payload(tag Tag, key []byte) ([]byte, bool) {
	if len(key) == 0 || Tag(key[0]) != tag {
		return nil, false
	}
	return key[1:], true
}

// Range returns the bounds [tag, tag+1) covering a whole table.
func Range(tag Tag) (begin, end []byte) {
	return []byte{byte(tag)}, []byte{byte(tag) + 1}
}
