/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"reflect"
	"sync"
)

// The Go type registry resolves entity metadata from a value, so join
// properties can be declared with a type parameter instead of a name.

var (
	goTypeRegistry = make(map[reflect.Type]string)
	mu             sync.RWMutex
)

// Register registers meta under its name and associates it with the Go type T.
// Both T and *T resolve to the same metadata.
func Register[T any](meta EntityMeta) {
	RegisterType(meta)

	mu.Lock()
	defer mu.Unlock()
	goTypeRegistry[reflect.TypeOf((*T)(nil)).Elem()] = meta.Type
}

// MetaFor retrieves the metadata associated with T, if any.
func MetaFor[T any]() (EntityMeta, bool) {
	return lookupGoType(reflect.TypeOf((*T)(nil)).Elem())
}

// MetaOf retrieves the metadata associated with the dynamic type of entity.
// Pointers are dereferenced.
func MetaOf(entity any) (EntityMeta, bool) {
	t := reflect.TypeOf(entity)
	if t == nil {
		return EntityMeta{}, false
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return lookupGoType(t)
}

func lookupGoType(t reflect.Type) (EntityMeta, bool) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	mu.RLock()
	name, ok := goTypeRegistry[t]
	mu.RUnlock()
	if !ok {
		return EntityMeta{}, false
	}
	meta, err := GetType(name)
	return meta, err == nil
}
