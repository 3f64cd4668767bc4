/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package composite

import (
	"bytes"
	"fmt"

	"github.com/suparena/widerow/errors"
	"github.com/suparena/widerow/serializer"
)

// Marker is the equality byte written after each encoded component. Its value
// decides whether a bound sorts before, on, or after the names sharing the
// same component prefix.
type Marker byte

const (
	LessOrEqual    Marker = 0x00
	Equal          Marker = 0x01
	GreaterOrEqual Marker = 0x02
)

func (m Marker) String() string {
	switch m {
	case LessOrEqual:
		return "LESS_OR_EQUAL"
	case Equal:
		return "EQUAL"
	case GreaterOrEqual:
		return "GREATER_OR_EQUAL"
	default:
		return fmt.Sprintf("Marker(%d)", byte(m))
	}
}

// Side selects which end of a range a bound is built for.
type Side int

const (
	Start Side = iota
	End
)

// Component is one decoded value of a composite name.
type Component struct {
	Value  any
	Marker Marker
}

// Key is a decoded composite name.
type Key []Component

// Values returns the component values in declared order.
func (k Key) Values() []any {
	values := make([]any, len(k))
	for i, c := range k {
		values[i] = c.Value
	}
	return values
}

// Codec encodes key tuples of a single property into composite column names.
// The component count and types are fixed by the serializers it is built with.
type Codec struct {
	property    string
	serializers []serializer.Serializer
}

// NewCodec creates a codec for the named property. The property name only
// appears in errors.
func NewCodec(property string, serializers ...serializer.Serializer) *Codec {
	return &Codec{property: property, serializers: serializers}
}

// Property returns the property name the codec reports errors for.
func (c *Codec) Property() string {
	return c.property
}

// Len returns the number of declared components.
func (c *Codec) Len() int {
	return len(c.serializers)
}

// significant normalizes a tuple and drops its trailing nulls. A null followed
// by a non-null component is rejected.
func (c *Codec) significant(tuple []any) ([]any, error) {
	if len(tuple) > len(c.serializers) {
		return nil, errors.NewMalformedKeyError(c.property, len(c.serializers),
			fmt.Sprintf("tuple has %d components, expected at most %d", len(tuple), len(c.serializers)))
	}

	values := make([]any, 0, len(tuple))
	firstNull := -1
	for i, v := range tuple {
		nv, null, err := c.serializers[i].Normalize(v)
		if err != nil {
			return nil, errors.NewMalformedKeyError(c.property, i, err.Error())
		}
		if null {
			if firstNull < 0 {
				firstNull = i
			}
			continue
		}
		if firstNull >= 0 {
			return nil, errors.NewMalformedKeyError(c.property, firstNull, "null component followed by a non-null component")
		}
		values = append(values, nv)
	}
	return values, nil
}

func (c *Codec) encode(values []any, last Marker) ([]byte, error) {
	if len(values) == 0 {
		return nil, nil
	}

	var (
		out []byte
		err error
	)
	for i, v := range values {
		out, err = c.serializers[i].AppendKey(out, v)
		if err != nil {
			return nil, errors.NewMalformedKeyError(c.property, i, err.Error())
		}
		if i == len(values)-1 {
			out = append(out, byte(last))
		} else {
			out = append(out, byte(Equal))
		}
	}
	return out, nil
}

// EncodeExact encodes a stored column name: every significant component carries
// the Equal marker.
func (c *Codec) EncodeExact(tuple []any) ([]byte, error) {
	values, err := c.significant(tuple)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, errors.NewMalformedKeyError(c.property, 0, "key has no significant component")
	}
	return c.encode(values, Equal)
}

// BoundMarker returns the marker placed on the deepest significant component
// of a range bound.
func BoundMarker(side Side, inclusive, reversed bool) Marker {
	switch {
	case side == Start && !reversed:
		if inclusive {
			return Equal
		}
		return GreaterOrEqual
	case side == End && !reversed:
		if inclusive {
			return GreaterOrEqual
		}
		return LessOrEqual
	case side == Start && reversed:
		if inclusive {
			return GreaterOrEqual
		}
		return LessOrEqual
	default:
		if inclusive {
			return Equal
		}
		return GreaterOrEqual
	}
}

// EncodeBound encodes one side of a range. A tuple without significant
// components yields nil, the open bound.
func (c *Codec) EncodeBound(tuple []any, side Side, inclusive, reversed bool) ([]byte, error) {
	values, err := c.significant(tuple)
	if err != nil {
		return nil, err
	}
	return c.encode(values, BoundMarker(side, inclusive, reversed))
}

// Decode splits a composite name back into its typed components.
func (c *Codec) Decode(name []byte) (Key, error) {
	var key Key
	rest := name
	for i := 0; len(rest) > 0; i++ {
		if i >= len(c.serializers) {
			return nil, errors.NewMalformedKeyError(c.property, i, fmt.Sprintf("%d unexpected trailing bytes", len(rest)))
		}
		v, r, err := c.serializers[i].ReadKey(rest)
		if err != nil {
			return nil, errors.NewMalformedKeyError(c.property, i, err.Error())
		}
		if len(r) == 0 {
			return nil, errors.NewMalformedKeyError(c.property, i, "missing equality marker")
		}
		m := Marker(r[0])
		if m > GreaterOrEqual {
			return nil, errors.NewMalformedKeyError(c.property, i, fmt.Sprintf("invalid equality marker 0x%02x", r[0]))
		}
		key = append(key, Component{Value: v, Marker: m})
		rest = r[1:]
	}
	return key, nil
}

// DecodeValues decodes a composite name and returns only its values.
func (c *Codec) DecodeValues(name []byte) ([]any, error) {
	key, err := c.Decode(name)
	if err != nil {
		return nil, err
	}
	return key.Values(), nil
}

// Compare orders two tuples component by component over their common
// significant prefix. Tuples that agree on that prefix compare equal.
func (c *Codec) Compare(a, b []any) (int, error) {
	av, err := c.significant(a)
	if err != nil {
		return 0, err
	}
	bv, err := c.significant(b)
	if err != nil {
		return 0, err
	}
	return c.compareValues(av, bv)
}

func (c *Codec) compareValues(a, b []any) (int, error) {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		ab, err := c.serializers[i].AppendKey(nil, a[i])
		if err != nil {
			return 0, errors.NewMalformedKeyError(c.property, i, err.Error())
		}
		bb, err := c.serializers[i].AppendKey(nil, b[i])
		if err != nil {
			return 0, errors.NewMalformedKeyError(c.property, i, err.Error())
		}
		if cmp := bytes.Compare(ab, bb); cmp != 0 {
			return cmp, nil
		}
	}
	return 0, nil
}
