/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package serializer

import (
	"encoding/binary"
	"errors"
	"math"
)

var errShortBuffer = errors.New("unexpected end of key")

// Byte strings are escaped so that the terminator sorts below any content byte:
// 0x00 becomes 0x00 0xFF and the value ends with 0x00 0x01.
const (
	escapeByte     = 0x00
	escapedNull    = 0xFF
	terminatorByte = 0x01
)

func appendEscaped(dst, src []byte) []byte {
	for _, b := range src {
		if b == escapeByte {
			dst = append(dst, escapeByte, escapedNull)
			continue
		}
		dst = append(dst, b)
	}
	return append(dst, escapeByte, terminatorByte)
}

func readEscaped(src []byte) ([]byte, []byte, error) {
	out := make([]byte, 0, len(src))
	for i := 0; i < len(src); i++ {
		if src[i] != escapeByte {
			out = append(out, src[i])
			continue
		}
		if i+1 >= len(src) {
			return nil, nil, errShortBuffer
		}
		switch src[i+1] {
		case escapedNull:
			out = append(out, escapeByte)
			i++
		case terminatorByte:
			return out, src[i+2:], nil
		default:
			return nil, nil, errors.New("invalid escape sequence")
		}
	}
	return nil, nil, errShortBuffer
}

func appendUint64(dst []byte, v uint64) []byte {
	return binary.BigEndian.AppendUint64(dst, v)
}

func readUint64(src []byte) (uint64, []byte, error) {
	if len(src) < 8 {
		return 0, nil, errShortBuffer
	}
	return binary.BigEndian.Uint64(src), src[8:], nil
}

func appendInt64(dst []byte, v int64) []byte {
	return appendUint64(dst, uint64(v)^(1<<63))
}

func readInt64(src []byte) (int64, []byte, error) {
	u, rest, err := readUint64(src)
	if err != nil {
		return 0, nil, err
	}
	return int64(u ^ (1 << 63)), rest, nil
}

// String orders text by its UTF-8 bytes.
var String Serializer = typed[string]{
	name: "string",
	appendFn: func(dst []byte, v string) []byte {
		return appendEscaped(dst, []byte(v))
	},
	readFn: func(src []byte) (string, []byte, error) {
		b, rest, err := readEscaped(src)
		return string(b), rest, err
	},
}

// Bytes orders raw byte slices lexicographically.
var Bytes Serializer = typed[[]byte]{
	name:     "bytes",
	appendFn: appendEscaped,
	readFn:   readEscaped,
}

// Int64 orders signed 64-bit integers numerically.
var Int64 Serializer = typed[int64]{
	name:     "int64",
	appendFn: appendInt64,
	readFn:   readInt64,
}

// Int orders platform ints numerically using the int64 encoding.
var Int Serializer = typed[int]{
	name: "int",
	appendFn: func(dst []byte, v int) []byte {
		return appendInt64(dst, int64(v))
	},
	readFn: func(src []byte) (int, []byte, error) {
		v, rest, err := readInt64(src)
		return int(v), rest, err
	},
}

// Int32 orders signed 32-bit integers numerically.
var Int32 Serializer = typed[int32]{
	name: "int32",
	appendFn: func(dst []byte, v int32) []byte {
		return binary.BigEndian.AppendUint32(dst, uint32(v)^(1<<31))
	},
	readFn: func(src []byte) (int32, []byte, error) {
		if len(src) < 4 {
			return 0, nil, errShortBuffer
		}
		return int32(binary.BigEndian.Uint32(src) ^ (1 << 31)), src[4:], nil
	},
}

// Uint64 orders unsigned 64-bit integers numerically.
var Uint64 Serializer = typed[uint64]{
	name:     "uint64",
	appendFn: appendUint64,
	readFn:   readUint64,
}

// Bool orders false before true.
var Bool Serializer = typed[bool]{
	name: "bool",
	appendFn: func(dst []byte, v bool) []byte {
		if v {
			return append(dst, 1)
		}
		return append(dst, 0)
	},
	readFn: func(src []byte) (bool, []byte, error) {
		if len(src) < 1 {
			return false, nil, errShortBuffer
		}
		return src[0] == 1, src[1:], nil
	},
}

// Float64 orders IEEE-754 doubles numerically (negative values have all bits
// flipped, positive values only the sign bit).
var Float64 Serializer = typed[float64]{
	name: "float64",
	appendFn: func(dst []byte, v float64) []byte {
		bits := math.Float64bits(v)
		if bits&(1<<63) != 0 {
			bits = ^bits
		} else {
			bits |= 1 << 63
		}
		return appendUint64(dst, bits)
	},
	readFn: func(src []byte) (float64, []byte, error) {
		bits, rest, err := readUint64(src)
		if err != nil {
			return 0, nil, err
		}
		if bits&(1<<63) != 0 {
			bits &^= 1 << 63
		} else {
			bits = ^bits
		}
		return math.Float64frombits(bits), rest, nil
	},
}
