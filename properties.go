/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package widerow

import (
	"fmt"
	"sort"

	"github.com/suparena/widerow/widemap"
)

// PropertyKind tells wide maps, join maps and counter maps apart.
type PropertyKind int

const (
	WideMapProperty PropertyKind = iota
	JoinMapProperty
	CounterMapProperty
)

func (k PropertyKind) String() string {
	switch k {
	case JoinMapProperty:
		return "join_map"
	case CounterMapProperty:
		return "counter_map"
	default:
		return "wide_map"
	}
}

// PropertyInfo describes a declared property.
type PropertyInfo struct {
	Name         string
	ColumnFamily string
	Kind         PropertyKind
}

type property struct {
	info PropertyInfo
	meta any
}

func (s *Session) declare(info PropertyInfo, meta any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("session is closed")
	}
	if _, exists := s.properties[info.Name]; exists {
		return fmt.Errorf("property %q already declared", info.Name)
	}
	for _, p := range s.properties {
		if p.info.ColumnFamily == info.ColumnFamily {
			return fmt.Errorf("column family %q already holds property %q", info.ColumnFamily, p.info.Name)
		}
	}
	s.properties[info.Name] = property{info: info, meta: meta}
	s.logger.Debug("property declared", "property", info.Name, "column_family", info.ColumnFamily, "kind", info.Kind.String())
	return nil
}

// lookup returns the metadata of a declared property as M.
func lookup[M any](s *Session, name string, kind PropertyKind) (M, error) {
	var zero M
	s.mu.RLock()
	p, exists := s.properties[name]
	s.mu.RUnlock()

	if !exists {
		return zero, fmt.Errorf("property %q not declared", name)
	}
	if p.info.Kind != kind {
		return zero, fmt.Errorf("property %q is a %s, not a %s", name, p.info.Kind, kind)
	}
	meta, ok := p.meta.(M)
	if !ok {
		return zero, fmt.Errorf("property %q was declared with other key or value types", name)
	}
	return meta, nil
}

// Properties lists the declared properties by name.
func (s *Session) Properties() []PropertyInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]PropertyInfo, 0, len(s.properties))
	for _, p := range s.properties {
		out = append(out, p.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DeclareWideMap registers a wide map property with the session.
func DeclareWideMap[K, V any](s *Session, meta widemap.Meta[K, V]) error {
	return s.declare(PropertyInfo{Name: meta.Property, ColumnFamily: meta.ColumnFamily, Kind: WideMapProperty}, meta)
}

// OpenWideMap returns the declared wide map property for one row.
func OpenWideMap[K, V any](s *Session, property string, rowKey []byte) (*widemap.WideMap[K, V], error) {
	meta, err := lookup[widemap.Meta[K, V]](s, property, WideMapProperty)
	if err != nil {
		return nil, err
	}
	return widemap.New(s.Backend(), meta, rowKey)
}

// DeclareJoinMap registers a join map property. Its column family is added
// to the session relationships so stream handlers can cascade on it.
func DeclareJoinMap[K any](s *Session, meta widemap.JoinMeta[K]) error {
	if err := s.declare(PropertyInfo{Name: meta.Join.Property, ColumnFamily: meta.ColumnFamily, Kind: JoinMapProperty}, meta); err != nil {
		return err
	}
	s.relationships.Register(meta.ColumnFamily, meta.Join)
	return nil
}

// OpenJoinMap returns the declared join map property for one row.
func OpenJoinMap[K, E any](s *Session, property string, rowKey []byte) (*widemap.JoinMap[K, E], error) {
	meta, err := lookup[widemap.JoinMeta[K]](s, property, JoinMapProperty)
	if err != nil {
		return nil, err
	}
	return widemap.NewJoinMap[K, E](s.Backend(), s.resolver, meta, rowKey)
}

// DeclareCounterMap registers a counter map property.
func DeclareCounterMap[K any](s *Session, meta widemap.CounterMeta[K]) error {
	return s.declare(PropertyInfo{Name: meta.Property, ColumnFamily: meta.ColumnFamily, Kind: CounterMapProperty}, meta)
}

// OpenCounterMap returns the declared counter map property for one row.
func OpenCounterMap[K any](s *Session, property string, rowKey []byte) (*widemap.CounterMap[K], error) {
	meta, err := lookup[widemap.CounterMeta[K]](s, property, CounterMapProperty)
	if err != nil {
		return nil, err
	}
	return widemap.NewCounterMap(s.Backend(), meta, rowKey)
}
