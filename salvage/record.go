package salvage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// decodeVarint reads the engine's big-endian base-128 varint: up to eight
// bytes contribute 7 bits each, a ninth byte contributes all 8. Returns the
// value and the number of bytes consumed, or (0, 0) if buf is truncated.
func decodeVarint(buf []byte) (uint64, int) {
	var v uint64
	for i := 0; i < 8; i++ {
		if i >= len(buf) {
			return 0, 0
		}
		b := buf[i]
		v = v<<7 | uint64(b&0x7f)
		if b < 0x80 {
			return v, i + 1
		}
	}
	if len(buf) < 9 {
		return 0, 0
	}
	return v<<8 | uint64(buf[8]), 9
}

// decodeRecord decodes a record payload: a varint header length, a list of
// serial-type varints, then the column values in order.
func decodeRecord(payload []byte) ([]interface{}, error) {
	headerLen, n := decodeVarint(payload)
	if n == 0 || headerLen < uint64(n) || headerLen > uint64(len(payload)) {
		return nil, errors.New("record header out of bounds")
	}

	var serialTypes []uint64
	header := payload[n:headerLen]
	for idx := 0; idx < len(header); {
		t, consumed := decodeVarint(header[idx:])
		if consumed == 0 {
			return nil, errors.New("truncated serial type in record header")
		}
		serialTypes = append(serialTypes, t)
		idx += consumed
	}

	body := payload[headerLen:]
	values := make([]interface{}, 0, len(serialTypes))
	offset := 0
	for _, t := range serialTypes {
		val, size, err := decodeSerialValue(t, body[offset:])
		if err != nil {
			return nil, err
		}
		values = append(values, val)
		offset += size
	}
	return values, nil
}

// decodeSerialValue decodes one column value for the given serial type,
// returning the value and the number of body bytes it occupied.
func decodeSerialValue(t uint64, buf []byte) (interface{}, int, error) {
	switch t {
	case 0:
		return nil, 0, nil
	case 1, 2, 3, 4, 5, 6:
		size := intSize(t)
		if len(buf) < size {
			return nil, 0, fmt.Errorf("serial type %d needs %d bytes, have %d", t, size, len(buf))
		}
		return decodeTwosComplement(buf[:size]), size, nil
	case 7:
		if len(buf) < 8 {
			return nil, 0, errors.New("truncated float value")
		}
		return math.Float64frombits(binary.BigEndian.Uint64(buf)), 8, nil
	case 8:
		return int64(0), 0, nil
	case 9:
		return int64(1), 0, nil
	case 10, 11:
		return nil, 0, fmt.Errorf("reserved serial type %d", t)
	}

	// Even types >= 12 are blobs, odd types >= 13 are text. The size stays
	// in uint64 until it is known to fit the buffer; converting a hostile
	// type to int first would yield a negative size and a bad slice.
	size := (t - 12) / 2
	if size > uint64(len(buf)) {
		return nil, 0, fmt.Errorf("serial type %d needs %d bytes, have %d", t, size, len(buf))
	}
	n := int(size)
	if t%2 == 0 {
		b := make([]byte, n)
		copy(b, buf[:n])
		return b, n, nil
	}
	return string(buf[:n]), n, nil
}

// intSize maps integer serial types 1-6 to their encoded width in bytes.
func intSize(t uint64) int {
	switch t {
	case 5:
		return 6
	case 6:
		return 8
	default:
		return int(t)
	}
}

// decodeTwosComplement reads a big-endian signed integer of 1 to 8 bytes.
func decodeTwosComplement(buf []byte) int64 {
	v := int64(int8(buf[0]))
	for _, b := range buf[1:] {
		v = v<<8 | int64(b)
	}
	return v
}
