/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package widemap

import (
	"context"
	"fmt"

	"github.com/suparena/widerow/errors"
	"github.com/suparena/widerow/join"
	"github.com/suparena/widerow/storagemodels"
)

// refCodec stores a join reference as the encoded id of its target.
type refCodec[E any] struct {
	resolver *join.Resolver
	props    join.Properties
}

func (c refCodec[E]) Encode(ref *join.Ref[E]) ([]byte, error) {
	if ref == nil {
		return nil, errors.NewInvalidArgumentError(c.props.Property, "join reference must not be nil")
	}
	return c.props.EncodeID(ref.ID())
}

func (c refCodec[E]) Decode(b []byte) (*join.Ref[E], error) {
	id, err := c.props.DecodeID(b)
	if err != nil {
		return nil, err
	}
	return join.NewRef[E](c.resolver, c.props, id), nil
}

// JoinMeta describes a wide map whose values reference entities.
type JoinMeta[K any] struct {
	ColumnFamily string
	Keys         KeyMapper[K]
	// Join names the property and its target; Join.Property is the map's property name.
	Join join.Properties
}

// JoinMap is a wide map whose values are entities stored elsewhere. Values
// are read back as references loaded on demand, one load per dereference.
type JoinMap[K, E any] struct {
	m        *WideMap[K, *join.Ref[E]]
	resolver *join.Resolver
	props    join.Properties
}

// NewJoinMap creates a join map over the row rowKey.
func NewJoinMap[K, E any](backend Backend, resolver *join.Resolver, meta JoinMeta[K], rowKey []byte) (*JoinMap[K, E], error) {
	if resolver == nil {
		return nil, fmt.Errorf("join map %q requires a resolver", meta.Join.Property)
	}
	m, err := New[K, *join.Ref[E]](backend, Meta[K, *join.Ref[E]]{
		Property:     meta.Join.Property,
		ColumnFamily: meta.ColumnFamily,
		Keys:         meta.Keys,
		Values:       refCodec[E]{resolver: resolver, props: meta.Join},
	}, rowKey)
	if err != nil {
		return nil, err
	}
	j := &JoinMap[K, E]{m: m, resolver: resolver, props: meta.Join}
	if meta.Join.Cascade.Removes() {
		m.beforeRemove = j.cascadeRemove
	}
	return j, nil
}

// cascadeRemove deletes the entities referenced by columns about to be removed.
func (j *JoinMap[K, E]) cascadeRemove(ctx context.Context, cols []storagemodels.Column) {
	for _, col := range cols {
		id, err := j.props.DecodeID(col.Value)
		if err != nil {
			j.m.logger.Warn("cascade remove skipped, undecodable reference", "error", err)
			continue
		}
		j.resolver.RemoveReferenced(ctx, id, j.props)
	}
}

// Map returns the underlying map of references. Deletes made through it
// follow the cascade policy too.
func (j *JoinMap[K, E]) Map() *WideMap[K, *join.Ref[E]] {
	return j.m
}

// Get returns a reference to the entity stored under key.
func (j *JoinMap[K, E]) Get(ctx context.Context, key K, opts ...Option) (*join.Ref[E], bool, error) {
	return j.m.Get(ctx, key, opts...)
}

// Insert stores a reference to entity under key. The entity is persisted or
// checked for existence according to the cascade policy.
func (j *JoinMap[K, E]) Insert(ctx context.Context, key K, entity E, opts ...Option) error {
	ref, err := j.resolve(ctx, entity)
	if err != nil {
		return err
	}
	return j.m.Insert(ctx, key, ref, opts...)
}

// InsertWithTTL is Insert with an expiry in seconds.
func (j *JoinMap[K, E]) InsertWithTTL(ctx context.Context, key K, entity E, ttl int, opts ...Option) error {
	if ttl <= 0 {
		return errors.NewInvalidArgumentError("ttl", fmt.Sprintf("must be positive, got %d", ttl))
	}
	ref, err := j.resolve(ctx, entity)
	if err != nil {
		return err
	}
	return j.m.InsertWithTTL(ctx, key, ref, ttl, opts...)
}

func (j *JoinMap[K, E]) resolve(ctx context.Context, entity E) (*join.Ref[E], error) {
	id, err := j.resolver.PersistOrEnsureExists(ctx, entity, j.props)
	if err != nil {
		return nil, err
	}
	return join.NewRef[E](j.resolver, j.props, id), nil
}

// Find returns references between start and end, see WideMap.Find.
func (j *JoinMap[K, E]) Find(ctx context.Context, start, end *K, count int, bounding BoundingMode, ordering OrderingMode, opts ...Option) ([]KeyValue[K, *join.Ref[E]], error) {
	return j.m.Find(ctx, start, end, count, bounding, ordering, opts...)
}

// FindFirst returns the reference with the lowest key.
func (j *JoinMap[K, E]) FindFirst(ctx context.Context, opts ...Option) (KeyValue[K, *join.Ref[E]], bool, error) {
	return j.m.FindFirst(ctx, opts...)
}

// FindLast returns the reference with the highest key.
func (j *JoinMap[K, E]) FindLast(ctx context.Context, opts ...Option) (KeyValue[K, *join.Ref[E]], bool, error) {
	return j.m.FindLast(ctx, opts...)
}

// Iterator streams references between start and end, see WideMap.Iterator.
func (j *JoinMap[K, E]) Iterator(ctx context.Context, start, end *K, count int, bounding BoundingMode, ordering OrderingMode, opts ...Option) (*SliceIterator[K, *join.Ref[E]], error) {
	return j.m.Iterator(ctx, start, end, count, bounding, ordering, opts...)
}

// Remove deletes the reference stored under key. With cascade REMOVE or ALL
// the referenced entity is deleted first, on a best-effort basis.
func (j *JoinMap[K, E]) Remove(ctx context.Context, key K, opts ...Option) error {
	return j.m.Remove(ctx, key, opts...)
}

// RemoveRange deletes the references between start and end, cascading like Remove.
func (j *JoinMap[K, E]) RemoveRange(ctx context.Context, start, end *K, bounding BoundingMode, opts ...Option) error {
	return j.m.RemoveRange(ctx, start, end, bounding, opts...)
}

// RemoveFirst deletes the n references with the lowest keys, cascading like Remove.
func (j *JoinMap[K, E]) RemoveFirst(ctx context.Context, n int, opts ...Option) error {
	return j.m.RemoveFirst(ctx, n, opts...)
}

// RemoveLast deletes the n references with the highest keys, cascading like Remove.
func (j *JoinMap[K, E]) RemoveLast(ctx context.Context, n int, opts ...Option) error {
	return j.m.RemoveLast(ctx, n, opts...)
}
