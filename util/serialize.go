package util

import (
	"encoding/binary"
	"fmt"
	"io"
)

// WriteElements writes fixed-width values in little-endian order.
func WriteElements(w io.Writer, elements ...interface{}) error {
	for _, element := range elements {
		if err := writeElement(w, element); err != nil {
			return err
		}
	}
	return nil
}

func writeElement(w io.Writer, element interface{}) error {
	switch e := element.(type) {
	case *Hash:
		_, err := e.Serialize(w)
		return err
	case Hash:
		_, err := e.Serialize(w)
		return err
	case bool:
		var b uint8
		if e {
			b = 1
		}
		return binary.Write(w, binary.LittleEndian, b)
	case uint8, int8, uint16, int16, uint32, int32, uint64, int64,
		*uint8, *int8, *uint16, *int16, *uint32, *int32, *uint64, *int64:
		return binary.Write(w, binary.LittleEndian, e)
	}
	return fmt.Errorf("writeElement: unsupported type %T", element)
}

// ReadElements reads fixed-width little-endian values into the given pointers.
func ReadElements(r io.Reader, elements ...interface{}) error {
	for _, element := range elements {
		if err := readElement(r, element); err != nil {
			return err
		}
	}
	return nil
}

func readElement(r io.Reader, element interface{}) error {
	switch e := element.(type) {
	case *Hash:
		_, err := e.Unserialize(r)
		return err
	case *bool:
		var b uint8
		if err := binary.Read(r, binary.LittleEndian, &b); err != nil {
			return err
		}
		*e = b != 0
		return nil
	case *uint8, *int8, *uint16, *int16, *uint32, *int32, *uint64, *int64:
		return binary.Read(r, binary.LittleEndian, e)
	}
	return fmt.Errorf("readElement: unsupported type %T", element)
}
