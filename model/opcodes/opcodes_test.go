package opcodes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetOpName(t *testing.T) {
	tests := []struct {
		code int
		name string
	}{
		{OP_0, "0"},
		{OP_DUP, "OP_DUP"},
		{OP_HASH160, "OP_HASH160"},
		{OP_EQUALVERIFY, "OP_EQUALVERIFY"},
		{OP_CHECKSIG, "OP_CHECKSIG"},
		{OP_EQUAL, "OP_EQUAL"},
		{OP_RETURN, "OP_RETURN"},
		{20, "OP_PUSH20"},
		{0xff, "OP_UNKNOWN"},
	}
	for _, test := range tests {
		assert.Equal(t, test.name, GetOpName(test.code))
	}
}
