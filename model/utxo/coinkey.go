package utxo

import (
	"bytes"

	"github.com/UdjinM6/dash-sub001/errcode"
	"github.com/UdjinM6/dash-sub001/model/outpoint"
	"github.com/UdjinM6/dash-sub001/persist/db"
	"github.com/UdjinM6/dash-sub001/util"
)

// CoinKey is the database key of a coin: 'C' || txid || VARINT(index).
type CoinKey struct {
	outpoint *outpoint.OutPoint
}

func NewCoinKey(outPoint *outpoint.OutPoint) *CoinKey {
	return &CoinKey{outpoint: outPoint}
}

func (coinKey *CoinKey) Bytes() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, 1+util.Hash256Size+5))
	buf.WriteByte(byte(db.TagCoin))
	buf.Write(coinKey.outpoint.Hash[:])
	// writing to a bytes.Buffer does not fail
	util.WriteVarLenInt(buf, uint64(coinKey.outpoint.Index))
	return buf.Bytes()
}

// DecodeCoinKey parses a key produced by CoinKey.Bytes. ok is false when
// the key belongs to another table.
func DecodeCoinKey(key []byte) (out *outpoint.OutPoint, ok bool, err error) {
	payload, ok := db.Payload(db.TagCoin, key)
	if !ok {
		return nil, false, nil
	}
	if len(payload) <= util.Hash256Size {
		return nil, true, errcode.NewWithDesc(errcode.ErrorCorruptRecord, "short coin key %x", key)
	}
	out = new(outpoint.OutPoint)
	copy(out.Hash[:], payload[:util.Hash256Size])
	r := bytes.NewReader(payload[util.Hash256Size:])
	index, err := util.ReadVarLenInt(r)
	if err != nil || r.Len() != 0 || index > 0xffffffff {
		return nil, true, errcode.NewWithDesc(errcode.ErrorCorruptRecord, "bad coin key index %x", key)
	}
	out.Index = uint32(index)
	return out, true, nil
}
