/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package serializer

import (
	"fmt"

	"github.com/google/uuid"
)

func appendRawUUID(dst []byte, v uuid.UUID) []byte {
	return append(dst, v[:]...)
}

func readRawUUID(src []byte) (uuid.UUID, []byte, error) {
	var u uuid.UUID
	if len(src) < len(u) {
		return u, nil, errShortBuffer
	}
	copy(u[:], src)
	return u, src[len(u):], nil
}

// UUID orders identifiers by their 16 raw bytes.
var UUID Serializer = typed[uuid.UUID]{
	name:     "uuid",
	appendFn: appendRawUUID,
	readFn:   readRawUUID,
}

// TimeUUID orders version 1 identifiers by their embedded timestamp, then by
// raw bytes. Each value is prefixed with its 60-bit timestamp as 8 big-endian bytes.
var TimeUUID Serializer = typed[uuid.UUID]{
	name: "timeuuid",
	appendFn: func(dst []byte, v uuid.UUID) []byte {
		dst = appendUint64(dst, uint64(v.Time()))
		return appendRawUUID(dst, v)
	},
	readFn: func(src []byte) (uuid.UUID, []byte, error) {
		_, rest, err := readUint64(src)
		if err != nil {
			return uuid.Nil, nil, err
		}
		return readRawUUID(rest)
	},
	validateFn: func(v uuid.UUID) error {
		if v.Version() != 1 {
			return fmt.Errorf("timeuuid serializer requires a version 1 uuid, got version %d", v.Version())
		}
		return nil
	},
}
