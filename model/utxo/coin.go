package utxo

import (
	"fmt"
	"io"
	"math"

	"github.com/pkg/errors"

	"github.com/UdjinM6/dash-sub001/errcode"
	"github.com/UdjinM6/dash-sub001/model/script"
	"github.com/UdjinM6/dash-sub001/util"
)

// nullValue marks a spent coin. Spent coins only live in caches; the coin
// database represents them by absence.
const nullValue = -1

// Coin is an unspent transaction output together with the height and
// coinbase flag of the transaction that created it.
type Coin struct {
	value      int64
	script     []byte
	height     uint32
	isCoinBase bool
}

func NewCoin(value int64, scriptPubKey []byte, height uint32, isCoinBase bool) *Coin {
	return &Coin{
		value:      value,
		script:     scriptPubKey,
		height:     height,
		isCoinBase: isCoinBase,
	}
}

// NewEmptyCoin returns a spent coin.
func NewEmptyCoin() *Coin {
	return &Coin{value: nullValue}
}

func (coin *Coin) GetValue() int64 {
	return coin.value
}

func (coin *Coin) GetScriptPubKey() []byte {
	return coin.script
}

func (coin *Coin) GetHeight() uint32 {
	return coin.height
}

func (coin *Coin) IsCoinBase() bool {
	return coin.isCoinBase
}

func (coin *Coin) IsSpent() bool {
	return coin == nil || coin.value == nullValue
}

func (coin *Coin) IsUnspendable() bool {
	return script.IsUnspendable(coin.script)
}

func (coin *Coin) Clear() {
	coin.value = nullValue
	coin.script = nil
	coin.height = 0
	coin.isCoinBase = false
}

func (coin *Coin) DeepCopy() *Coin {
	newCoin := *coin
	if coin.script != nil {
		newCoin.script = append([]byte(nil), coin.script...)
	}
	return &newCoin
}

func (coin *Coin) IsEqual(other *Coin) bool {
	if coin.IsSpent() || other.IsSpent() {
		return coin.IsSpent() == other.IsSpent()
	}
	return coin.value == other.value && coin.height == other.height &&
		coin.isCoinBase == other.isCoinBase && string(coin.script) == string(other.script)
}

// DynamicMemoryUsage approximates the heap held by the coin's script.
func (coin *Coin) DynamicMemoryUsage() int64 {
	return int64(cap(coin.script))
}

// checkValue rejects amounts the compressed encoding cannot carry.
func (coin *Coin) checkValue() error {
	if coin.value < 0 {
		return errcode.NewWithDesc(errcode.ErrorInvalidCoinValue, "coin value %d is negative", coin.value)
	}
	return nil
}

func (coin *Coin) Serialize(w io.Writer) error {
	if coin.IsSpent() {
		return errors.New("serialize spent coin")
	}
	if err := coin.checkValue(); err != nil {
		return err
	}
	code := uint64(coin.height) << 1
	if coin.isCoinBase {
		code |= 1
	}
	if err := util.WriteVarLenInt(w, code); err != nil {
		return err
	}
	if err := util.WriteVarLenInt(w, CompressAmount(uint64(coin.value))); err != nil {
		return err
	}
	return writeCompressedScript(w, coin.script)
}

func (coin *Coin) Unserialize(r io.Reader) error {
	code, err := util.ReadVarLenInt(r)
	if err != nil {
		return err
	}
	if code>>1 > math.MaxUint32 {
		return errcode.NewWithDesc(errcode.ErrorCorruptRecord, "coin height %d out of range", code>>1)
	}
	amount, err := util.ReadVarLenInt(r)
	if err != nil {
		return err
	}
	value := DecompressAmount(amount)
	if value > math.MaxInt64 {
		return errcode.NewWithDesc(errcode.ErrorCorruptRecord, "coin value %d out of range", value)
	}
	s, err := readCompressedScript(r)
	if err != nil {
		return err
	}
	coin.height = uint32(code >> 1)
	coin.isCoinBase = code&1 == 1
	coin.value = int64(value)
	coin.script = s
	return nil
}

func (coin *Coin) String() string {
	if coin.IsSpent() {
		return "Coin{spent}"
	}
	return fmt.Sprintf("Coin{value=%d, height=%d, coinbase=%t, script=%x}",
		coin.value, coin.height, coin.isCoinBase, coin.script)
}
