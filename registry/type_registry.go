/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"sync"

	"github.com/suparena/widerow/serializer"
)

// IDFunc extracts the primary key of an entity. It returns nil when the
// entity has not been assigned an id yet.
type IDFunc func(entity any) (any, error)

// EntityMeta describes an entity type that wide maps can reference.
type EntityMeta struct {
	// Type is the entity type name used in errors and join columns.
	Type string
	// ColumnFamily holds one row per entity, keyed by the encoded id.
	ColumnFamily string
	// IDSerializer encodes the primary key into a row key.
	IDSerializer serializer.Serializer
	// IDOf extracts the primary key from an entity value.
	IDOf IDFunc
}

// RowKey encodes an entity id into the row key of its column family.
func (m EntityMeta) RowKey(id any) ([]byte, error) {
	if m.IDSerializer == nil {
		return nil, fmt.Errorf("entity %q has no id serializer", m.Type)
	}
	return m.IDSerializer.AppendKey(nil, id)
}

// ID returns the primary key of entity.
func (m EntityMeta) ID(entity any) (any, error) {
	if m.IDOf == nil {
		return nil, fmt.Errorf("entity %q has no id accessor", m.Type)
	}
	return m.IDOf(entity)
}

func (m EntityMeta) validate() error {
	switch {
	case m.Type == "":
		return fmt.Errorf("entity type name is required")
	case m.ColumnFamily == "":
		return fmt.Errorf("entity %q: column family is required", m.Type)
	case m.IDSerializer == nil:
		return fmt.Errorf("entity %q: id serializer is required", m.Type)
	case m.IDOf == nil:
		return fmt.Errorf("entity %q: id accessor is required", m.Type)
	}
	return nil
}

// typeRegistry holds the entity metadata by type name.
var (
	typeRegistry = make(map[string]EntityMeta)
	typeMu       sync.RWMutex
)

// RegisterType registers the metadata of an entity type.
// If a type is already registered under the same name, it panics to prevent accidental overrides.
func RegisterType(meta EntityMeta) {
	if err := meta.validate(); err != nil {
		panic(fmt.Sprintf("type registry: %v", err))
	}

	typeMu.Lock()
	defer typeMu.Unlock()
	if _, exists := typeRegistry[meta.Type]; exists {
		panic(fmt.Sprintf("type registry: type %q already registered", meta.Type))
	}
	typeRegistry[meta.Type] = meta
}

// GetType returns the registered metadata of the named entity type.
// If no type is registered, it returns an error.
func GetType(name string) (EntityMeta, error) {
	typeMu.RLock()
	defer typeMu.RUnlock()
	meta, ok := typeRegistry[name]
	if !ok {
		return EntityMeta{}, fmt.Errorf("type registry: no type registered for name %q", name)
	}
	return meta, nil
}
