/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package widemap

import (
	"fmt"

	"github.com/suparena/widerow/serializer"
)

// KeyMapper converts between a map key and its composite components. The
// number and types of components are fixed for the life of the mapper.
type KeyMapper[K any] interface {
	Serializers() []serializer.Serializer
	Components(key K) []any
	FromComponents(values []any) (K, error)
}

type simpleKey[K any] struct {
	s serializer.Serializer
}

// SimpleKey maps a single-component key. K must be the serializer's type.
func SimpleKey[K any](s serializer.Serializer) KeyMapper[K] {
	return simpleKey[K]{s: s}
}

func (k simpleKey[K]) Serializers() []serializer.Serializer {
	return []serializer.Serializer{k.s}
}

func (k simpleKey[K]) Components(key K) []any {
	return []any{key}
}

func (k simpleKey[K]) FromComponents(values []any) (K, error) {
	var zero K
	if len(values) != 1 {
		return zero, fmt.Errorf("simple key expects 1 component, got %d", len(values))
	}
	v, ok := values[0].(K)
	if !ok {
		return zero, fmt.Errorf("simple key component is %T, not %T", values[0], zero)
	}
	return v, nil
}

// Field is one component of a compound key, bound to accessor closures.
type Field[K any] struct {
	Name       string
	Serializer serializer.Serializer
	get        func(K) any
	set        func(*K, any) error
}

// NewField declares a compound key component of type F. F must be the
// serializer's type.
func NewField[K, F any](name string, s serializer.Serializer, get func(K) F, set func(*K, F)) Field[K] {
	return Field[K]{
		Name:       name,
		Serializer: s,
		get:        func(k K) any { return get(k) },
		set:        setter(name, set),
	}
}

// NewOptionalField declares a component read through a pointer. A nil
// pointer leaves the component null, which opens a range bound at that depth.
func NewOptionalField[K, F any](name string, s serializer.Serializer, get func(K) *F, set func(*K, F)) Field[K] {
	return Field[K]{
		Name:       name,
		Serializer: s,
		get: func(k K) any {
			if p := get(k); p != nil {
				return *p
			}
			return nil
		},
		set: setter(name, set),
	}
}

func setter[K, F any](name string, set func(*K, F)) func(*K, any) error {
	return func(k *K, v any) error {
		f, ok := v.(F)
		if !ok {
			var zero F
			return fmt.Errorf("key field %q: component is %T, not %T", name, v, zero)
		}
		set(k, f)
		return nil
	}
}

type compoundKey[K any] struct {
	fields []Field[K]
}

// CompoundKey maps a struct key onto several components, in field order.
func CompoundKey[K any](fields ...Field[K]) KeyMapper[K] {
	return compoundKey[K]{fields: fields}
}

func (c compoundKey[K]) Serializers() []serializer.Serializer {
	out := make([]serializer.Serializer, len(c.fields))
	for i, f := range c.fields {
		out[i] = f.Serializer
	}
	return out
}

func (c compoundKey[K]) Components(key K) []any {
	out := make([]any, len(c.fields))
	for i, f := range c.fields {
		out[i] = f.get(key)
	}
	return out
}

func (c compoundKey[K]) FromComponents(values []any) (K, error) {
	var key K
	if len(values) != len(c.fields) {
		return key, fmt.Errorf("compound key expects %d components, got %d", len(c.fields), len(values))
	}
	for i, f := range c.fields {
		if err := f.set(&key, values[i]); err != nil {
			return key, err
		}
	}
	return key, nil
}
