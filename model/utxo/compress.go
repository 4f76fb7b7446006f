package utxo

import (
	"io"
	"io/ioutil"

	"github.com/pkg/errors"

	"github.com/UdjinM6/dash-sub001/errcode"
	"github.com/UdjinM6/dash-sub001/model/opcodes"
	"github.com/UdjinM6/dash-sub001/model/script"
	"github.com/UdjinM6/dash-sub001/util"
)

// Scripts are stored as VARINT(kind) followed by a payload. Kinds below
// numSpecialScripts are templates; larger kinds carry a raw script of
// kind - numSpecialScripts bytes.
const numSpecialScripts = 6

func CompressAmount(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	e := uint64(0)
	for n%10 == 0 && e < 9 {
		n /= 10
		e++
	}
	if e < 9 {
		d := n % 10
		n /= 10
		return 1 + (n*9+d-1)*10 + e
	}
	return 1 + (n-1)*10 + 9
}

func DecompressAmount(x uint64) uint64 {
	if x == 0 {
		return 0
	}
	x--
	e := x % 10
	x /= 10
	var n uint64
	if e < 9 {
		d := (x % 9) + 1
		x /= 9
		n = x*10 + d
	} else {
		n = x + 1
	}
	for ; e > 0; e-- {
		n *= 10
	}
	return n
}

// compressScript returns the template encoding of s, or nil when s has to
// be stored raw. Uncompressed pubkeys are stored raw since the key would
// have to be validated to be recoverable.
func compressScript(s []byte) []byte {
	if keyID := script.KeyID(s); keyID != nil {
		out := make([]byte, 21)
		out[0] = 0x00
		copy(out[1:], keyID)
		return out
	}
	if scriptID := script.ScriptID(s); scriptID != nil {
		out := make([]byte, 21)
		out[0] = 0x01
		copy(out[1:], scriptID)
		return out
	}
	if pubKey := script.PubKey(s); len(pubKey) == 33 {
		out := make([]byte, 33)
		copy(out, pubKey)
		return out
	}
	return nil
}

func specialSize(kind uint64) int {
	switch kind {
	case 0, 1:
		return 20
	case 2, 3, 4, 5:
		return 32
	}
	return 0
}

func decompressScript(kind uint64, in []byte) ([]byte, error) {
	switch kind {
	case 0x00:
		return script.PayToPubKeyHash(in), nil
	case 0x01:
		return script.PayToScriptHash(in), nil
	case 0x02, 0x03:
		pubKey := make([]byte, 33)
		pubKey[0] = byte(kind)
		copy(pubKey[1:], in)
		return script.PayToPubKey(pubKey), nil
	}
	return nil, errcode.NewWithDesc(errcode.ErrorCorruptRecord,
		"compressed script kind %d is not supported", kind)
}

func writeCompressedScript(w io.Writer, s []byte) error {
	if out := compressScript(s); out != nil {
		_, err := w.Write(out)
		return err
	}
	if err := util.WriteVarLenInt(w, uint64(len(s)+numSpecialScripts)); err != nil {
		return err
	}
	_, err := w.Write(s)
	return err
}

func readCompressedScript(r io.Reader) ([]byte, error) {
	kind, err := util.ReadVarLenInt(r)
	if err != nil {
		return nil, err
	}
	if kind < numSpecialScripts {
		in := make([]byte, specialSize(kind))
		if _, err := io.ReadFull(r, in); err != nil {
			return nil, err
		}
		return decompressScript(kind, in)
	}
	size := kind - numSpecialScripts
	if size > script.MaxScriptSize {
		// Oversized scripts are unspendable; keep a short stand-in.
		if _, err := io.CopyN(ioutil.Discard, r, int64(size)); err != nil {
			return nil, errors.Wrap(err, "skip oversized script")
		}
		return []byte{opcodes.OP_RETURN}, nil
	}
	s := make([]byte, size)
	if _, err := io.ReadFull(r, s); err != nil {
		return nil, err
	}
	return s, nil
}
