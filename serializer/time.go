/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package serializer

import (
	"time"

	"github.com/go-openapi/strfmt"
)

// Time orders instants by Unix nanoseconds. Decoded values are in UTC, so
// compare them with time.Time.Equal.
var Time Serializer = typed[time.Time]{
	name: "time",
	appendFn: func(dst []byte, v time.Time) []byte {
		return appendInt64(dst, v.UnixNano())
	},
	readFn: func(src []byte) (time.Time, []byte, error) {
		n, rest, err := readInt64(src)
		if err != nil {
			return time.Time{}, nil, err
		}
		return time.Unix(0, n).UTC(), rest, nil
	},
}

// DateTime orders strfmt.DateTime values the same way as Time, for models
// generated from OpenAPI definitions.
var DateTime Serializer = typed[strfmt.DateTime]{
	name: "datetime",
	appendFn: func(dst []byte, v strfmt.DateTime) []byte {
		return appendInt64(dst, time.Time(v).UnixNano())
	},
	readFn: func(src []byte) (strfmt.DateTime, []byte, error) {
		n, rest, err := readInt64(src)
		if err != nil {
			return strfmt.DateTime{}, nil, err
		}
		return strfmt.DateTime(time.Unix(0, n).UTC()), rest, nil
	},
}
