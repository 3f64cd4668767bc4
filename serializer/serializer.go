/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package serializer

import (
	"fmt"
	"sort"
	"sync"
)

// Serializer converts one typed key component to and from its order-preserving
// byte form. Encodings are self-delimiting so components can be concatenated and
// compared bytewise by the storage backend.
type Serializer interface {
	// Name is the stable identifier used in configuration and by the CLI.
	Name() string

	// Normalize checks v against the declared type. Pointers to the declared type
	// are dereferenced; nil and nil pointers report null.
	Normalize(v any) (value any, null bool, err error)

	// AppendKey appends the encoding of a non-null value to dst.
	AppendKey(dst []byte, v any) ([]byte, error)

	// ReadKey decodes a single value from the head of src and returns the rest.
	ReadKey(src []byte) (value any, rest []byte, err error)
}

// typed is the generic Serializer implementation shared by all built-in types.
type typed[T any] struct {
	name       string
	appendFn   func(dst []byte, v T) []byte
	readFn     func(src []byte) (T, []byte, error)
	validateFn func(v T) error
}

func (s typed[T]) Name() string { return s.name }

func (s typed[T]) Normalize(v any) (any, bool, error) {
	switch tv := v.(type) {
	case nil:
		return nil, true, nil
	case T:
		if s.validateFn != nil {
			if err := s.validateFn(tv); err != nil {
				return nil, false, err
			}
		}
		return tv, false, nil
	case *T:
		if tv == nil {
			return nil, true, nil
		}
		return s.Normalize(*tv)
	}
	return nil, false, fmt.Errorf("%s serializer cannot encode value of type %T", s.name, v)
}

func (s typed[T]) AppendKey(dst []byte, v any) ([]byte, error) {
	nv, null, err := s.Normalize(v)
	if err != nil {
		return nil, err
	}
	if null {
		return nil, fmt.Errorf("%s serializer cannot encode a null value", s.name)
	}
	return s.appendFn(dst, nv.(T)), nil
}

func (s typed[T]) ReadKey(src []byte) (any, []byte, error) {
	v, rest, err := s.readFn(src)
	if err != nil {
		return nil, nil, fmt.Errorf("%s serializer: %w", s.name, err)
	}
	return v, rest, nil
}

var (
	registryMu sync.RWMutex
	byName     = make(map[string]Serializer)
)

// Register makes a serializer available to Lookup under its Name.
// It panics if the name is already taken to prevent accidental overrides.
func Register(s Serializer) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := byName[s.Name()]; exists {
		panic(fmt.Sprintf("serializer: %q already registered", s.Name()))
	}
	byName[s.Name()] = s
}

// Lookup returns the serializer registered under name.
func Lookup(name string) (Serializer, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	s, ok := byName[name]
	return s, ok
}

// Names lists the registered serializer names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func init() {
	for _, s := range []Serializer{String, Bytes, Int64, Int32, Int, Uint64, Bool, Float64, UUID, TimeUUID, Time, DateTime} {
		Register(s)
	}
}
