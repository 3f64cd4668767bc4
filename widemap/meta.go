/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package widemap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/suparena/widerow/consistency"
	"github.com/suparena/widerow/datastore"
	"github.com/suparena/widerow/serializer"
	"github.com/suparena/widerow/storagemodels"
)

// Meta describes a wide map property.
type Meta[K, V any] struct {
	// Property names the map in errors and logs.
	Property string
	// ColumnFamily stores one wide row per owning entity.
	ColumnFamily string
	Keys         KeyMapper[K]
	Values       serializer.ValueCodec[V]
}

func (m Meta[K, V]) validate() error {
	switch {
	case m.Property == "":
		return fmt.Errorf("wide map property name is required")
	case m.ColumnFamily == "":
		return fmt.Errorf("wide map %q: column family is required", m.Property)
	case m.Keys == nil:
		return fmt.Errorf("wide map %q: key mapper is required", m.Property)
	case m.Values == nil:
		return fmt.Errorf("wide map %q: value codec is required", m.Property)
	}
	return nil
}

// Backend is what every map of a session shares.
type Backend struct {
	Driver datastore.Driver
	// Policy resolves consistency levels (default: ONE for reads and writes)
	Policy *consistency.Policy
	// Logger receives map diagnostics (default: slog.Default())
	Logger *slog.Logger
	// Dirty, when set, records removals made through iterators.
	Dirty DirtyTracker
	// IteratorOptions apply to every iterator before per-call options.
	IteratorOptions []storagemodels.IteratorOption
}

func (b Backend) normalize() (Backend, error) {
	if b.Driver == nil {
		return b, fmt.Errorf("wide map backend requires a driver")
	}
	if b.Logger == nil {
		b.Logger = slog.Default()
	}
	if b.Policy == nil {
		b.Policy = consistency.NewPolicy(consistency.Levels{}, b.Logger)
	}
	return b, nil
}

// write applies a single mutation, or queues it with its level override when
// ctx carries an open batch.
func (b Backend) write(ctx context.Context, level consistency.Level, m storagemodels.Mutation) error {
	if batch, ok := datastore.BatchFrom(ctx); ok {
		batch.AddAt(level, m)
		return nil
	}

	ctx, release, err := b.Policy.LoadForWrite(ctx, m.ColumnFamily, level)
	if err != nil {
		return err
	}
	defer release()

	switch m.Kind {
	case storagemodels.MutationSet:
		return b.Driver.Set(ctx, m.ColumnFamily, m.RowKey, m.Column)
	case storagemodels.MutationDelete:
		return b.Driver.Delete(ctx, m.ColumnFamily, m.RowKey, m.Column.Name)
	case storagemodels.MutationCounterAdd:
		return b.Driver.CounterAdd(ctx, m.ColumnFamily, m.RowKey, m.Column.Name, m.Delta)
	}
	return fmt.Errorf("unsupported mutation kind %v", m.Kind)
}

// writeAll applies mutations of one column family with a single Mutate call.
func (b Backend) writeAll(ctx context.Context, columnFamily string, level consistency.Level, mutations []storagemodels.Mutation) error {
	if len(mutations) == 0 {
		return nil
	}
	if batch, ok := datastore.BatchFrom(ctx); ok {
		batch.AddAt(level, mutations...)
		return nil
	}

	ctx, release, err := b.Policy.LoadForWrite(ctx, columnFamily, level)
	if err != nil {
		return err
	}
	defer release()
	return b.Driver.Mutate(ctx, mutations)
}

// BoundingMode selects which ends of a range are inclusive.
type BoundingMode int

const (
	InclusiveBounds BoundingMode = iota
	ExclusiveBounds
	InclusiveStartBoundOnly
	InclusiveEndBoundOnly
)

// Inclusive returns whether the start and the end of the range are included.
func (b BoundingMode) Inclusive() (start, end bool) {
	switch b {
	case ExclusiveBounds:
		return false, false
	case InclusiveStartBoundOnly:
		return true, false
	case InclusiveEndBoundOnly:
		return false, true
	default:
		return true, true
	}
}

func (b BoundingMode) String() string {
	switch b {
	case InclusiveBounds:
		return "INCLUSIVE_BOUNDS"
	case ExclusiveBounds:
		return "EXCLUSIVE_BOUNDS"
	case InclusiveStartBoundOnly:
		return "INCLUSIVE_START_BOUND_ONLY"
	case InclusiveEndBoundOnly:
		return "INCLUSIVE_END_BOUND_ONLY"
	default:
		return fmt.Sprintf("BoundingMode(%d)", int(b))
	}
}

// OrderingMode selects the traversal direction.
type OrderingMode int

const (
	Ascending OrderingMode = iota
	Descending
)

func (o OrderingMode) String() string {
	if o == Descending {
		return "DESCENDING"
	}
	return "ASCENDING"
}

// Reversed reports whether names are traversed in descending order.
func (o OrderingMode) Reversed() bool {
	return o == Descending
}

// KeyValue is one entry of a wide map.
type KeyValue[K, V any] struct {
	Key   K
	Value V
	// TTL is the remaining time to live in seconds, zero if none.
	TTL int32
}

type callOptions struct {
	level consistency.Level
	iter  []storagemodels.IteratorOption
}

// Option adjusts a single call.
type Option func(*callOptions)

// WithLevel overrides the consistency level of this call only.
func WithLevel(level consistency.Level) Option {
	return func(o *callOptions) {
		o.level = level
	}
}

// WithIteratorOptions tunes the iterator returned by this call.
func WithIteratorOptions(opts ...storagemodels.IteratorOption) Option {
	return func(o *callOptions) {
		o.iter = append(o.iter, opts...)
	}
}

func collect(opts []Option) callOptions {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
