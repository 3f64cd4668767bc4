/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package widemap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/suparena/widerow/composite"
	"github.com/suparena/widerow/consistency"
	"github.com/suparena/widerow/errors"
	"github.com/suparena/widerow/storagemodels"
)

// WideMap is typed, ordered access to the columns of one wide row.
type WideMap[K, V any] struct {
	meta    Meta[K, V]
	rowKey  []byte
	codec   *composite.Codec
	bounds  *composite.BoundBuilder
	backend Backend
	logger  *slog.Logger

	// beforeRemove sees every column about to be deleted, with its value.
	beforeRemove func(ctx context.Context, cols []storagemodels.Column)
}

// New creates a wide map over the row rowKey of meta.ColumnFamily.
func New[K, V any](backend Backend, meta Meta[K, V], rowKey []byte) (*WideMap[K, V], error) {
	if err := meta.validate(); err != nil {
		return nil, err
	}
	backend, err := backend.normalize()
	if err != nil {
		return nil, err
	}

	codec := composite.NewCodec(meta.Property, meta.Keys.Serializers()...)
	return &WideMap[K, V]{
		meta:    meta,
		rowKey:  rowKey,
		codec:   codec,
		bounds:  composite.NewBoundBuilder(codec),
		backend: backend,
		logger:  backend.Logger.With("property", meta.Property, "column_family", meta.ColumnFamily),
	}, nil
}

// Property returns the property name of the map.
func (m *WideMap[K, V]) Property() string {
	return m.meta.Property
}

// RowKey returns the row the map reads and writes.
func (m *WideMap[K, V]) RowKey() []byte {
	return m.rowKey
}

func (m *WideMap[K, V]) name(key K) ([]byte, error) {
	return m.codec.EncodeExact(m.meta.Keys.Components(key))
}

func (m *WideMap[K, V]) decode(col storagemodels.Column) (KeyValue[K, V], error) {
	var kv KeyValue[K, V]
	key, err := m.decodeKey(col.Name)
	if err != nil {
		return kv, err
	}
	value, err := m.meta.Values.Decode(col.Value)
	if err != nil {
		return kv, fmt.Errorf("decode value of %q: %w", m.meta.Property, err)
	}
	return KeyValue[K, V]{Key: key, Value: value, TTL: col.TTL}, nil
}

func (m *WideMap[K, V]) decodeKey(name []byte) (K, error) {
	var zero K
	values, err := m.codec.DecodeValues(name)
	if err != nil {
		return zero, err
	}
	key, err := m.meta.Keys.FromComponents(values)
	if err != nil {
		return zero, errors.NewMalformedKeyError(m.meta.Property, 0, err.Error())
	}
	return key, nil
}

// Get reads the value stored under key.
func (m *WideMap[K, V]) Get(ctx context.Context, key K, opts ...Option) (V, bool, error) {
	var zero V

	name, err := m.name(key)
	if err != nil {
		return zero, false, err
	}
	col, found, err := m.column(ctx, name, collect(opts).level)
	if err != nil || !found {
		return zero, false, err
	}
	v, err := m.meta.Values.Decode(col.Value)
	if err != nil {
		return zero, false, fmt.Errorf("decode value of %q: %w", m.meta.Property, err)
	}
	return v, true, nil
}

func (m *WideMap[K, V]) column(ctx context.Context, name []byte, level consistency.Level) (storagemodels.Column, bool, error) {
	ctx, release, err := m.backend.Policy.LoadForRead(ctx, m.meta.ColumnFamily, level)
	if err != nil {
		return storagemodels.Column{}, false, err
	}
	defer release()
	return m.backend.Driver.Get(ctx, m.meta.ColumnFamily, m.rowKey, name)
}

// Insert stores value under key without expiry.
func (m *WideMap[K, V]) Insert(ctx context.Context, key K, value V, opts ...Option) error {
	return m.insert(ctx, key, value, 0, opts)
}

// InsertWithTTL stores value under key for ttl seconds.
func (m *WideMap[K, V]) InsertWithTTL(ctx context.Context, key K, value V, ttl int, opts ...Option) error {
	if ttl <= 0 {
		return errors.NewInvalidArgumentError("ttl", fmt.Sprintf("must be positive, got %d", ttl))
	}
	return m.insert(ctx, key, value, ttl, opts)
}

func (m *WideMap[K, V]) insert(ctx context.Context, key K, value V, ttl int, opts []Option) error {
	o := collect(opts)

	name, err := m.name(key)
	if err != nil {
		return err
	}
	b, err := m.meta.Values.Encode(value)
	if err != nil {
		return fmt.Errorf("encode value of %q: %w", m.meta.Property, err)
	}

	col := storagemodels.Column{Name: name, Value: b, TTL: int32(ttl)}
	return m.backend.write(ctx, o.level, storagemodels.SetColumn(m.meta.ColumnFamily, m.rowKey, col))
}

func (m *WideMap[K, V]) buildBounds(start, end *K, bounding BoundingMode, ordering OrderingMode) (composite.Bounds, error) {
	var s, e []any
	if start != nil {
		s = m.meta.Keys.Components(*start)
	}
	if end != nil {
		e = m.meta.Keys.Components(*end)
	}
	inclStart, inclEnd := bounding.Inclusive()
	return m.bounds.BuildStartEnd(s, inclStart, e, inclEnd, ordering.Reversed())
}

func (m *WideMap[K, V]) slice(ctx context.Context, bounds composite.Bounds, limit int, o callOptions) ([]storagemodels.Column, error) {
	ctx, release, err := m.backend.Policy.LoadForRead(ctx, m.meta.ColumnFamily, o.level)
	if err != nil {
		return nil, err
	}
	defer release()

	return m.backend.Driver.Slice(ctx, storagemodels.SliceQuery{
		ColumnFamily: m.meta.ColumnFamily,
		RowKey:       m.rowKey,
		Bounds:       bounds,
		Limit:        limit,
	})
}

// Find returns at most count entries between start and end. A nil start or end
// leaves that side open. With Descending ordering, start is the higher key.
// The whole result is loaded in memory.
func (m *WideMap[K, V]) Find(ctx context.Context, start, end *K, count int, bounding BoundingMode, ordering OrderingMode, opts ...Option) ([]KeyValue[K, V], error) {
	if count <= 0 {
		return nil, errors.NewInvalidArgumentError("count", fmt.Sprintf("must be positive, got %d", count))
	}
	bounds, err := m.buildBounds(start, end, bounding, ordering)
	if err != nil {
		return nil, err
	}

	cols, err := m.slice(ctx, bounds, count, collect(opts))
	if err != nil {
		return nil, err
	}
	m.logger.Debug("find", "count", count, "returned", len(cols), "ordering", ordering.String())

	out := make([]KeyValue[K, V], 0, len(cols))
	for _, col := range cols {
		kv, err := m.decode(col)
		if err != nil {
			return nil, err
		}
		out = append(out, kv)
	}
	return out, nil
}

// FindKeys is Find returning only the keys.
func (m *WideMap[K, V]) FindKeys(ctx context.Context, start, end *K, count int, bounding BoundingMode, ordering OrderingMode, opts ...Option) ([]K, error) {
	kvs, err := m.Find(ctx, start, end, count, bounding, ordering, opts...)
	if err != nil {
		return nil, err
	}
	keys := make([]K, len(kvs))
	for i, kv := range kvs {
		keys[i] = kv.Key
	}
	return keys, nil
}

// FindValues is Find returning only the values.
func (m *WideMap[K, V]) FindValues(ctx context.Context, start, end *K, count int, bounding BoundingMode, ordering OrderingMode, opts ...Option) ([]V, error) {
	kvs, err := m.Find(ctx, start, end, count, bounding, ordering, opts...)
	if err != nil {
		return nil, err
	}
	values := make([]V, len(kvs))
	for i, kv := range kvs {
		values[i] = kv.Value
	}
	return values, nil
}

// FindFirst returns the entry with the lowest key.
func (m *WideMap[K, V]) FindFirst(ctx context.Context, opts ...Option) (KeyValue[K, V], bool, error) {
	return first(m.FindFirstN(ctx, 1, opts...))
}

// FindFirstN returns the n entries with the lowest keys, ascending.
func (m *WideMap[K, V]) FindFirstN(ctx context.Context, n int, opts ...Option) ([]KeyValue[K, V], error) {
	return m.Find(ctx, nil, nil, n, InclusiveBounds, Ascending, opts...)
}

// FindLast returns the entry with the highest key.
func (m *WideMap[K, V]) FindLast(ctx context.Context, opts ...Option) (KeyValue[K, V], bool, error) {
	return first(m.FindLastN(ctx, 1, opts...))
}

// FindLastN returns the n entries with the highest keys, descending.
func (m *WideMap[K, V]) FindLastN(ctx context.Context, n int, opts ...Option) ([]KeyValue[K, V], error) {
	return m.Find(ctx, nil, nil, n, InclusiveBounds, Descending, opts...)
}

func first[K, V any](kvs []KeyValue[K, V], err error) (KeyValue[K, V], bool, error) {
	if err != nil || len(kvs) == 0 {
		return KeyValue[K, V]{}, false, err
	}
	return kvs[0], true, nil
}

// Iterator streams the entries between start and end, fetching count columns
// per refill. A count of zero or less uses the configured batch size.
func (m *WideMap[K, V]) Iterator(ctx context.Context, start, end *K, count int, bounding BoundingMode, ordering OrderingMode, opts ...Option) (*SliceIterator[K, V], error) {
	bounds, err := m.buildBounds(start, end, bounding, ordering)
	if err != nil {
		return nil, err
	}

	o := collect(opts)
	iterOpts := storagemodels.DefaultIteratorOptions()
	for _, opt := range m.backend.IteratorOptions {
		opt(&iterOpts)
	}
	for _, opt := range o.iter {
		opt(&iterOpts)
	}
	storagemodels.WithBatchSize(count)(&iterOpts)

	return newSliceIterator(ctx, m, bounds, o.level, iterOpts), nil
}

// Remove deletes the entry stored under key.
func (m *WideMap[K, V]) Remove(ctx context.Context, key K, opts ...Option) error {
	name, err := m.name(key)
	if err != nil {
		return err
	}
	if m.beforeRemove != nil {
		// The level option applies to the delete; the pre-read runs at the read default.
		col, found, err := m.column(ctx, name, consistency.Unset)
		if err != nil {
			return err
		}
		if found {
			m.beforeRemove(ctx, []storagemodels.Column{col})
		}
	}
	return m.backend.write(ctx, collect(opts).level, storagemodels.DeleteColumn(m.meta.ColumnFamily, m.rowKey, name))
}

// RemoveRange deletes every entry between start and end. The matching names
// are read first, then deleted in one mutation.
func (m *WideMap[K, V]) RemoveRange(ctx context.Context, start, end *K, bounding BoundingMode, opts ...Option) error {
	bounds, err := m.buildBounds(start, end, bounding, Ascending)
	if err != nil {
		return err
	}
	o := collect(opts)

	cols, err := m.slice(ctx, bounds, 0, o)
	if err != nil {
		return err
	}
	return m.removeColumns(ctx, cols, o)
}

// RemoveFirst deletes the n entries with the lowest keys.
func (m *WideMap[K, V]) RemoveFirst(ctx context.Context, n int, opts ...Option) error {
	return m.removeEdge(ctx, n, Ascending, opts)
}

// RemoveLast deletes the n entries with the highest keys.
func (m *WideMap[K, V]) RemoveLast(ctx context.Context, n int, opts ...Option) error {
	return m.removeEdge(ctx, n, Descending, opts)
}

func (m *WideMap[K, V]) removeEdge(ctx context.Context, n int, ordering OrderingMode, opts []Option) error {
	if n <= 0 {
		return errors.NewInvalidArgumentError("count", fmt.Sprintf("must be positive, got %d", n))
	}
	o := collect(opts)

	cols, err := m.slice(ctx, composite.Bounds{Reversed: ordering.Reversed()}, n, o)
	if err != nil {
		return err
	}
	return m.removeColumns(ctx, cols, o)
}

func (m *WideMap[K, V]) removeColumns(ctx context.Context, cols []storagemodels.Column, o callOptions) error {
	if m.beforeRemove != nil && len(cols) > 0 {
		m.beforeRemove(ctx, cols)
	}
	mutations := make([]storagemodels.Mutation, len(cols))
	for i, col := range cols {
		mutations[i] = storagemodels.DeleteColumn(m.meta.ColumnFamily, m.rowKey, col.Name)
	}
	m.logger.Debug("remove columns", "count", len(mutations))
	return m.backend.writeAll(ctx, m.meta.ColumnFamily, o.level, mutations)
}
