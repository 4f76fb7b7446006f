// Package script recognizes the standard output templates that the coin
// compressor and the address index care about. It does not execute scripts.
package script

import (
	"github.com/UdjinM6/dash-sub001/model/opcodes"
)

const (
	MaxScriptSize = 10000

	PubKeyHashLength = 20
)

const (
	ScriptNonStandard = iota
	ScriptPubkey
	ScriptPubkeyHash
	ScriptHash
)

// KeyID returns the hash of a pay-to-pubkey-hash script, or nil.
func KeyID(s []byte) []byte {
	if len(s) == 25 && s[0] == opcodes.OP_DUP && s[1] == opcodes.OP_HASH160 &&
		s[2] == PubKeyHashLength && s[23] == opcodes.OP_EQUALVERIFY && s[24] == opcodes.OP_CHECKSIG {
		return s[3:23]
	}
	return nil
}

// ScriptID returns the hash of a pay-to-script-hash script, or nil.
func ScriptID(s []byte) []byte {
	if len(s) == 23 && s[0] == opcodes.OP_HASH160 && s[1] == PubKeyHashLength &&
		s[22] == opcodes.OP_EQUAL {
		return s[2:22]
	}
	return nil
}

// PubKey returns the key of a pay-to-pubkey script, compressed or not.
// The key is not validated beyond its prefix byte.
func PubKey(s []byte) []byte {
	if len(s) == 35 && s[0] == 33 && s[34] == opcodes.OP_CHECKSIG &&
		(s[1] == 0x02 || s[1] == 0x03) {
		return s[1:34]
	}
	if len(s) == 67 && s[0] == 65 && s[66] == opcodes.OP_CHECKSIG && s[1] == 0x04 {
		return s[1:66]
	}
	return nil
}

func Classify(s []byte) int {
	switch {
	case KeyID(s) != nil:
		return ScriptPubkeyHash
	case ScriptID(s) != nil:
		return ScriptHash
	case PubKey(s) != nil:
		return ScriptPubkey
	}
	return ScriptNonStandard
}

func PayToPubKeyHash(hash []byte) []byte {
	s := make([]byte, 0, 25)
	s = append(s, opcodes.OP_DUP, opcodes.OP_HASH160, PubKeyHashLength)
	s = append(s, hash...)
	return append(s, opcodes.OP_EQUALVERIFY, opcodes.OP_CHECKSIG)
}

func PayToScriptHash(hash []byte) []byte {
	s := make([]byte, 0, 23)
	s = append(s, opcodes.OP_HASH160, PubKeyHashLength)
	s = append(s, hash...)
	return append(s, opcodes.OP_EQUAL)
}

func PayToPubKey(pubKey []byte) []byte {
	s := make([]byte, 0, len(pubKey)+2)
	s = append(s, byte(len(pubKey)))
	s = append(s, pubKey...)
	return append(s, opcodes.OP_CHECKSIG)
}

// IsUnspendable reports scripts that can never be spent and therefore never
// enter the coin set.
func IsUnspendable(s []byte) bool {
	return (len(s) > 0 && s[0] == opcodes.OP_RETURN) || len(s) > MaxScriptSize
}
