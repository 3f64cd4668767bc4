/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package serializer

import (
	"encoding/json"
	"fmt"
)

// ValueCodec converts column values. Unlike key components, values do not need
// to be order-preserving.
type ValueCodec[V any] interface {
	Encode(v V) ([]byte, error)
	Decode(b []byte) (V, error)
}

type keyValueCodec[V any] struct {
	s Serializer
}

// Value adapts a key serializer into a value codec for V. V must be the
// serializer's declared type.
func Value[V any](s Serializer) ValueCodec[V] {
	return keyValueCodec[V]{s: s}
}

func (c keyValueCodec[V]) Encode(v V) ([]byte, error) {
	return c.s.AppendKey(nil, v)
}

func (c keyValueCodec[V]) Decode(b []byte) (V, error) {
	var zero V
	raw, rest, err := c.s.ReadKey(b)
	if err != nil {
		return zero, err
	}
	if len(rest) != 0 {
		return zero, fmt.Errorf("%s value has %d trailing bytes", c.s.Name(), len(rest))
	}
	v, ok := raw.(V)
	if !ok {
		return zero, fmt.Errorf("%s value decoded as %T, not %T", c.s.Name(), raw, zero)
	}
	return v, nil
}

type jsonCodec[V any] struct{}

// JSON stores values as their JSON document.
func JSON[V any]() ValueCodec[V] {
	return jsonCodec[V]{}
}

func (jsonCodec[V]) Encode(v V) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec[V]) Decode(b []byte) (V, error) {
	var v V
	if err := json.Unmarshal(b, &v); err != nil {
		return v, fmt.Errorf("failed to decode json value: %w", err)
	}
	return v, nil
}
