/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"bytes"

	"github.com/suparena/widerow/composite"
)

// Column is a single named cell of a wide row.
type Column struct {
	// Name is the composite column name.
	Name []byte
	// Value is the encoded column value.
	Value []byte
	// TTL is the time to live in seconds. Zero means the column never expires.
	TTL int32
}

// Row addresses one partition of a column family.
type Row struct {
	ColumnFamily string
	Key          []byte
}

// SliceQuery defines a ranged fetch of columns within a row.
type SliceQuery struct {
	ColumnFamily string
	RowKey       []byte
	// Bounds are the encoded start and end names, and the traversal direction.
	Bounds composite.Bounds
	// After is an exclusive resume point: only names strictly after it in the
	// traversal direction are returned.
	After []byte
	// Limit caps the number of columns returned. Zero means no limit.
	Limit int
}

// Reversed reports whether columns are returned in descending name order.
func (q SliceQuery) Reversed() bool {
	return q.Bounds.Reversed
}

// Admits reports whether a stored name belongs to the query result.
func (q SliceQuery) Admits(name []byte) bool {
	if !q.Bounds.Contains(name) {
		return false
	}
	if len(q.After) == 0 {
		return true
	}
	cmp := bytes.Compare(name, q.After)
	if q.Bounds.Reversed {
		return cmp < 0
	}
	return cmp > 0
}

// MutationKind identifies the change a Mutation applies.
type MutationKind int

const (
	// MutationSet writes a column.
	MutationSet MutationKind = iota
	// MutationDelete removes a column.
	MutationDelete
	// MutationCounterAdd adds Delta to a counter column.
	MutationCounterAdd
)

func (k MutationKind) String() string {
	switch k {
	case MutationSet:
		return "set"
	case MutationDelete:
		return "delete"
	case MutationCounterAdd:
		return "counter_add"
	default:
		return "unknown"
	}
}

// Mutation is a queued change to one column.
type Mutation struct {
	Kind         MutationKind
	ColumnFamily string
	RowKey       []byte
	Column       Column
	Delta        int64
}

// SetColumn builds a mutation that writes col.
func SetColumn(columnFamily string, rowKey []byte, col Column) Mutation {
	return Mutation{Kind: MutationSet, ColumnFamily: columnFamily, RowKey: rowKey, Column: col}
}

// DeleteColumn builds a mutation that removes the named column.
func DeleteColumn(columnFamily string, rowKey, name []byte) Mutation {
	return Mutation{Kind: MutationDelete, ColumnFamily: columnFamily, RowKey: rowKey, Column: Column{Name: name}}
}

// AddCounter builds a mutation that adds delta to a counter column.
func AddCounter(columnFamily string, rowKey, name []byte, delta int64) Mutation {
	return Mutation{Kind: MutationCounterAdd, ColumnFamily: columnFamily, RowKey: rowKey, Column: Column{Name: name}, Delta: delta}
}
