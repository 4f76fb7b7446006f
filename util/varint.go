package util

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/pkg/errors"
)

// WriteVarInt writes a CompactSize integer.
func WriteVarInt(w io.Writer, val uint64) error {
	var buf [9]byte
	switch {
	case val < 0xfd:
		buf[0] = uint8(val)
		_, err := w.Write(buf[:1])
		return err
	case val <= math.MaxUint16:
		buf[0] = 0xfd
		binary.LittleEndian.PutUint16(buf[1:], uint16(val))
		_, err := w.Write(buf[:3])
		return err
	case val <= math.MaxUint32:
		buf[0] = 0xfe
		binary.LittleEndian.PutUint32(buf[1:], uint32(val))
		_, err := w.Write(buf[:5])
		return err
	default:
		buf[0] = 0xff
		binary.LittleEndian.PutUint64(buf[1:], val)
		_, err := w.Write(buf[:9])
		return err
	}
}

// ReadVarInt reads a CompactSize integer and rejects non-canonical encodings.
func ReadVarInt(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:1]); err != nil {
		return 0, err
	}

	var rv, min uint64
	switch discriminant := buf[0]; discriminant {
	case 0xff:
		if _, err := io.ReadFull(r, buf[:8]); err != nil {
			return 0, err
		}
		rv = binary.LittleEndian.Uint64(buf[:8])
		min = 0x100000000
	case 0xfe:
		if _, err := io.ReadFull(r, buf[:4]); err != nil {
			return 0, err
		}
		rv = uint64(binary.LittleEndian.Uint32(buf[:4]))
		min = 0x10000
	case 0xfd:
		if _, err := io.ReadFull(r, buf[:2]); err != nil {
			return 0, err
		}
		rv = uint64(binary.LittleEndian.Uint16(buf[:2]))
		min = 0xfd
	default:
		return uint64(discriminant), nil
	}

	if rv < min {
		return 0, fmt.Errorf("non-canonical varint %x - discriminant %x must encode a value greater than %x",
			rv, buf[0], min)
	}
	return rv, nil
}

// VarIntSerializeSize returns the number of bytes a CompactSize needs.
func VarIntSerializeSize(val uint64) uint32 {
	switch {
	case val < 0xfd:
		return 1
	case val <= math.MaxUint16:
		return 3
	case val <= math.MaxUint32:
		return 5
	}
	return 9
}

var errVarLenIntTooLarge = errors.New("ReadVarLenInt(): size too large")

// WriteVarLenInt writes the MSB base-128 varint used by the on-disk formats:
// every byte but the last has the high bit set and each continuation
// subtracts one, so every value has exactly one encoding and the encoded
// bytes sort in numeric order for equal lengths.
func WriteVarLenInt(w io.Writer, n uint64) error {
	var tmp [10]byte
	l := 0
	for {
		var mark byte
		if l > 0 {
			mark = 0x80
		}
		tmp[l] = byte(n&0x7f) | mark
		if n <= 0x7f {
			break
		}
		n = (n >> 7) - 1
		l++
	}
	out := make([]byte, 0, l+1)
	for i := l; i >= 0; i-- {
		out = append(out, tmp[i])
	}
	_, err := w.Write(out)
	return err
}

func ReadVarLenInt(r io.Reader) (uint64, error) {
	var n uint64
	var b [1]byte
	for {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}
		if n > (math.MaxUint64 >> 7) {
			return 0, errVarLenIntTooLarge
		}
		n = (n << 7) | uint64(b[0]&0x7f)
		if b[0]&0x80 == 0 {
			return n, nil
		}
		if n == math.MaxUint64 {
			return 0, errVarLenIntTooLarge
		}
		n++
	}
}

// VarLenIntSize returns the encoded size of n under WriteVarLenInt.
func VarLenIntSize(n uint64) int {
	size := 0
	for {
		size++
		if n <= 0x7f {
			break
		}
		n = (n >> 7) - 1
	}
	return size
}
