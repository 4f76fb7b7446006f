package opcodes

import "fmt"

// Only the opcodes that appear in standard output templates are named here.
const (
	OP_0         = 0x00
	OP_PUSHDATA1 = 0x4c
	OP_RETURN    = 0x6a
	OP_DUP       = 0x76
	OP_EQUAL     = 0x87

	OP_EQUALVERIFY = 0x88
	OP_HASH160     = 0xa9
	OP_CHECKSIG    = 0xac
)

func GetOpName(opCode int) string {
	switch opCode {
	case OP_0:
		return "0"
	case OP_PUSHDATA1:
		return "OP_PUSHDATA1"
	case OP_RETURN:
		return "OP_RETURN"
	case OP_DUP:
		return "OP_DUP"
	case OP_EQUAL:
		return "OP_EQUAL"
	case OP_EQUALVERIFY:
		return "OP_EQUALVERIFY"
	case OP_HASH160:
		return "OP_HASH160"
	case OP_CHECKSIG:
		return "OP_CHECKSIG"
	}
	if opCode > OP_0 && opCode < OP_PUSHDATA1 {
		return fmt.Sprintf("OP_PUSH%d", opCode)
	}
	return "OP_UNKNOWN"
}
