package indexdb

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/UdjinM6/dash-sub001/model/script"
	"github.com/UdjinM6/dash-sub001/util"
)

type AddressType uint8

const (
	AddressUnknown AddressType = 0
	// pay-to-pubkey and pay-to-pubkey-hash outputs share one address space
	AddressP2PKH AddressType = 1
	AddressP2SH  AddressType = 2
)

func (t AddressType) String() string {
	switch t {
	case AddressP2PKH:
		return "p2pkh"
	case AddressP2SH:
		return "p2sh"
	}
	return "unknown"
}

// AddressHash is the 160-bit key or script hash an output pays to.
type AddressHash [util.Hash160Size]byte

func (h AddressHash) String() string {
	return hex.EncodeToString(h[:])
}

func AddressHashFromHex(s string) (AddressHash, error) {
	var h AddressHash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, err
	}
	if len(b) != len(h) {
		return h, fmt.Errorf("address hash of %d bytes", len(b))
	}
	copy(h[:], b)
	return h, nil
}

// AddressFromScript extracts the indexed address of an output script.
// Outputs paying to anything but a key, key hash or script hash are not
// indexed and report AddressUnknown.
func AddressFromScript(s []byte) (AddressType, AddressHash) {
	var h AddressHash
	if id := script.KeyID(s); id != nil {
		copy(h[:], id)
		return AddressP2PKH, h
	}
	if id := script.ScriptID(s); id != nil {
		copy(h[:], id)
		return AddressP2SH, h
	}
	if pub := script.PubKey(s); pub != nil {
		copy(h[:], util.Hash160(pub))
		return AddressP2PKH, h
	}
	return AddressUnknown, h
}

// AddressIndexKey identifies one credit or debit of an address. Height and
// position in the block are big-endian so one address's history iterates
// in chain order.
type AddressIndexKey struct {
	Type        AddressType
	Address     AddressHash
	BlockHeight int32
	TxIndex     uint32
	TxHash      util.Hash
	Index       uint32
	Spending    bool
}

const addressIndexKeyLen = 1 + util.Hash160Size + 4 + 4 + util.Hash256Size + 4 + 1

func (k *AddressIndexKey) Serialize(w io.Writer) error {
	var buf [addressIndexKeyLen]byte
	buf[0] = byte(k.Type)
	copy(buf[1:21], k.Address[:])
	binary.BigEndian.PutUint32(buf[21:25], uint32(k.BlockHeight))
	binary.BigEndian.PutUint32(buf[25:29], k.TxIndex)
	copy(buf[29:61], k.TxHash[:])
	binary.LittleEndian.PutUint32(buf[61:65], k.Index)
	if k.Spending {
		buf[65] = 1
	}
	_, err := w.Write(buf[:])
	return err
}

func (k *AddressIndexKey) Unserialize(r io.Reader) error {
	var buf [addressIndexKeyLen]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}
	k.Type = AddressType(buf[0])
	copy(k.Address[:], buf[1:21])
	k.BlockHeight = int32(binary.BigEndian.Uint32(buf[21:25]))
	k.TxIndex = binary.BigEndian.Uint32(buf[25:29])
	copy(k.TxHash[:], buf[29:61])
	k.Index = binary.LittleEndian.Uint32(buf[61:65])
	k.Spending = buf[65] != 0
	return nil
}

type AddressIndexEntry struct {
	Key    AddressIndexKey
	Amount int64
}

// addressPrefix is type || address, optionally followed by a big-endian
// start height.
func addressPrefix(typ AddressType, addr AddressHash, height ...int32) []byte {
	buf := make([]byte, 0, 1+util.Hash160Size+4)
	buf = append(buf, byte(typ))
	buf = append(buf, addr[:]...)
	for _, h := range height {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(h))
		buf = append(buf, b[:]...)
	}
	return buf
}

type AddressUnspentKey struct {
	Type    AddressType
	Address AddressHash
	TxHash  util.Hash
	Index   uint32
}

const addressUnspentKeyLen = 1 + util.Hash160Size + util.Hash256Size + 4

func (k *AddressUnspentKey) Serialize(w io.Writer) error {
	var buf [addressUnspentKeyLen]byte
	buf[0] = byte(k.Type)
	copy(buf[1:21], k.Address[:])
	copy(buf[21:53], k.TxHash[:])
	binary.LittleEndian.PutUint32(buf[53:57], k.Index)
	_, err := w.Write(buf[:])
	return err
}

func (k *AddressUnspentKey) Unserialize(r io.Reader) error {
	var buf [addressUnspentKeyLen]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}
	k.Type = AddressType(buf[0])
	copy(k.Address[:], buf[1:21])
	copy(k.TxHash[:], buf[21:53])
	k.Index = binary.LittleEndian.Uint32(buf[53:57])
	return nil
}

// AddressUnspentValue describes an unspent output of an address. A value
// of -1 satoshis is the null value, which erases the entry when written.
type AddressUnspentValue struct {
	Satoshis    int64
	Script      []byte
	BlockHeight int32
}

func NewNullAddressUnspentValue() AddressUnspentValue {
	return AddressUnspentValue{Satoshis: -1}
}

func (v *AddressUnspentValue) IsNull() bool {
	return v.Satoshis == -1
}

func (v *AddressUnspentValue) Serialize(w io.Writer) error {
	if err := util.WriteElements(w, v.Satoshis); err != nil {
		return err
	}
	if err := util.WriteVarBytes(w, v.Script); err != nil {
		return err
	}
	return util.WriteElements(w, v.BlockHeight)
}

func (v *AddressUnspentValue) Unserialize(r io.Reader) error {
	if err := util.ReadElements(r, &v.Satoshis); err != nil {
		return err
	}
	s, err := util.ReadVarBytes(r, script.MaxScriptSize, "unspent script")
	if err != nil {
		return err
	}
	v.Script = s
	return util.ReadElements(r, &v.BlockHeight)
}

type AddressUnspentEntry struct {
	Key   AddressUnspentKey
	Value AddressUnspentValue
}

// SpentIndexKey names the output that was spent.
type SpentIndexKey struct {
	TxID        util.Hash
	OutputIndex uint32
}

func (k *SpentIndexKey) Serialize(w io.Writer) error {
	return util.WriteElements(w, &k.TxID, k.OutputIndex)
}

func (k *SpentIndexKey) Unserialize(r io.Reader) error {
	return util.ReadElements(r, &k.TxID, &k.OutputIndex)
}

// SpentIndexValue names the input that spent it. A null TxID is the null
// value, which erases the entry when written.
type SpentIndexValue struct {
	TxID        util.Hash
	InputIndex  uint32
	BlockHeight int32
	Satoshis    int64
	AddressType AddressType
	Address     AddressHash
}

func (v *SpentIndexValue) IsNull() bool {
	return v.TxID.IsNull()
}

func (v *SpentIndexValue) Serialize(w io.Writer) error {
	if err := util.WriteElements(w, &v.TxID, v.InputIndex, v.BlockHeight, v.Satoshis,
		int32(v.AddressType)); err != nil {
		return err
	}
	_, err := w.Write(v.Address[:])
	return err
}

func (v *SpentIndexValue) Unserialize(r io.Reader) error {
	var typ int32
	if err := util.ReadElements(r, &v.TxID, &v.InputIndex, &v.BlockHeight, &v.Satoshis, &typ); err != nil {
		return err
	}
	v.AddressType = AddressType(typ)
	_, err := io.ReadFull(r, v.Address[:])
	return err
}

type SpentIndexEntry struct {
	Key   SpentIndexKey
	Value SpentIndexValue
}

// TimestampIndexKey orders blocks by their header time.
type TimestampIndexKey struct {
	Time      uint32
	BlockHash util.Hash
}

func (k *TimestampIndexKey) Serialize(w io.Writer) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], k.Time)
	if _, err := w.Write(b[:]); err != nil {
		return err
	}
	_, err := k.BlockHash.Serialize(w)
	return err
}

func (k *TimestampIndexKey) Unserialize(r io.Reader) error {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return err
	}
	k.Time = binary.BigEndian.Uint32(b[:])
	_, err := k.BlockHash.Unserialize(r)
	return err
}

type serializer interface {
	Serialize(w io.Writer) error
}

func encode(s serializer) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, 64))
	// writes to a bytes.Buffer cannot fail
	s.Serialize(buf)
	return buf.Bytes()
}
