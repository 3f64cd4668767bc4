/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package join

import (
	"context"
	"fmt"
	"sync"
)

// Ref is a deferred reference to a joined entity. The entity is loaded on the
// first Get and cached.
type Ref[E any] struct {
	mu       sync.Mutex
	id       any
	props    Properties
	resolver *Resolver
	entity   E
	loaded   bool
}

// NewRef creates a reference to the entity with the given id.
func NewRef[E any](resolver *Resolver, props Properties, id any) *Ref[E] {
	return &Ref[E]{id: id, props: props, resolver: resolver}
}

// ID returns the referenced entity id.
func (r *Ref[E]) ID() any {
	return r.id
}

// Loaded reports whether the entity has been fetched.
func (r *Ref[E]) Loaded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loaded
}

// Get loads the referenced entity.
func (r *Ref[E]) Get(ctx context.Context) (E, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded {
		return r.entity, nil
	}

	var zero E
	v, err := r.resolver.LoadJoinEntity(ctx, "", r.id, r.props)
	if err != nil {
		return zero, err
	}
	e, ok := v.(E)
	if !ok {
		return zero, fmt.Errorf("join property %q: loaded %T, want %T", r.props.Property, v, zero)
	}
	r.entity, r.loaded = e, true
	return e, nil
}
