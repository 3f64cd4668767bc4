/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package widemap

import (
	"context"
	"fmt"

	"github.com/suparena/widerow/composite"
	"github.com/suparena/widerow/storagemodels"
)

// CounterMeta describes a wide map of counters.
type CounterMeta[K any] struct {
	Property     string
	ColumnFamily string
	Keys         KeyMapper[K]
}

// CounterMap is a wide row of 64-bit counters.
type CounterMap[K any] struct {
	meta    CounterMeta[K]
	rowKey  []byte
	codec   *composite.Codec
	backend Backend
}

// NewCounterMap creates a counter map over the row rowKey.
func NewCounterMap[K any](backend Backend, meta CounterMeta[K], rowKey []byte) (*CounterMap[K], error) {
	if meta.Property == "" || meta.ColumnFamily == "" || meta.Keys == nil {
		return nil, fmt.Errorf("counter map requires a property, a column family and a key mapper")
	}
	backend, err := backend.normalize()
	if err != nil {
		return nil, err
	}
	return &CounterMap[K]{
		meta:    meta,
		rowKey:  rowKey,
		codec:   composite.NewCodec(meta.Property, meta.Keys.Serializers()...),
		backend: backend,
	}, nil
}

func (c *CounterMap[K]) name(key K) ([]byte, error) {
	return c.codec.EncodeExact(c.meta.Keys.Components(key))
}

// Get returns the counter under key, zero when it was never incremented.
func (c *CounterMap[K]) Get(ctx context.Context, key K, opts ...Option) (int64, error) {
	name, err := c.name(key)
	if err != nil {
		return 0, err
	}

	ctx, release, err := c.backend.Policy.LoadForRead(ctx, c.meta.ColumnFamily, collect(opts).level)
	if err != nil {
		return 0, err
	}
	defer release()

	return c.backend.Driver.CounterGet(ctx, c.meta.ColumnFamily, c.rowKey, name)
}

// Incr adds one to the counter under key.
func (c *CounterMap[K]) Incr(ctx context.Context, key K, opts ...Option) error {
	return c.IncrBy(ctx, key, 1, opts...)
}

// IncrBy adds delta to the counter under key.
func (c *CounterMap[K]) IncrBy(ctx context.Context, key K, delta int64, opts ...Option) error {
	name, err := c.name(key)
	if err != nil {
		return err
	}
	return c.backend.write(ctx, collect(opts).level, storagemodels.AddCounter(c.meta.ColumnFamily, c.rowKey, name, delta))
}

// Decr subtracts one from the counter under key.
func (c *CounterMap[K]) Decr(ctx context.Context, key K, opts ...Option) error {
	return c.IncrBy(ctx, key, -1, opts...)
}

// DecrBy subtracts delta from the counter under key.
func (c *CounterMap[K]) DecrBy(ctx context.Context, key K, delta int64, opts ...Option) error {
	return c.IncrBy(ctx, key, -delta, opts...)
}

// Remove deletes the counter under key.
func (c *CounterMap[K]) Remove(ctx context.Context, key K, opts ...Option) error {
	name, err := c.name(key)
	if err != nil {
		return err
	}
	return c.backend.write(ctx, collect(opts).level, storagemodels.DeleteColumn(c.meta.ColumnFamily, c.rowKey, name))
}
