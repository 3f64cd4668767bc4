/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package join

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/suparena/widerow/consistency"
	"github.com/suparena/widerow/datastore"
	"github.com/suparena/widerow/errors"
	"github.com/suparena/widerow/registry"
	"github.com/suparena/widerow/storagemodels"
)

// Persister saves an entity and returns its primary key.
type Persister interface {
	Persist(ctx context.Context, meta registry.EntityMeta, entity any) (id any, err error)
}

// Loader loads an entity by primary key. found is false when no entity exists.
type Loader interface {
	Load(ctx context.Context, meta registry.EntityMeta, id any) (entity any, found bool, err error)
}

// Remover deletes an entity by primary key.
type Remover interface {
	Remove(ctx context.Context, meta registry.EntityMeta, id any) error
}

// Resolver turns join values into stored ids and back. Entity persistence is
// delegated to the Persister, Loader and Remover it is configured with.
type Resolver struct {
	driver    datastore.Driver
	policy    *consistency.Policy
	persister Persister
	loader    Loader
	remover   Remover
	logger    *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithPersister sets the entity persister used by cascade persist.
func WithPersister(p Persister) Option {
	return func(r *Resolver) { r.persister = p }
}

// WithLoader sets the entity loader.
func WithLoader(l Loader) Option {
	return func(r *Resolver) { r.loader = l }
}

// WithRemover sets the entity remover used by cascade remove.
func WithRemover(rm Remover) Option {
	return func(r *Resolver) { r.remover = rm }
}

// WithLogger sets the resolver logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver creates a resolver that checks entity existence on driver under
// the read levels of policy.
func NewResolver(driver datastore.Driver, policy *consistency.Policy, opts ...Option) *Resolver {
	r := &Resolver{
		driver: driver,
		policy: policy,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "join")
	return r
}

// PersistOrEnsureExists returns the id to store for a join value. With cascade
// persist the entity is saved first; otherwise it must already exist in its
// column family.
func (r *Resolver) PersistOrEnsureExists(ctx context.Context, value any, props Properties) (any, error) {
	if isNil(value) {
		return nil, errors.NewInvalidArgumentError(props.Property, "join value must not be nil")
	}

	if props.Cascade.Persists() {
		if r.persister == nil {
			return nil, fmt.Errorf("cascade persist on property %q requires a persister", props.Property)
		}
		id, err := r.persister.Persist(ctx, props.Target, value)
		if err != nil {
			return nil, fmt.Errorf("persist %s for property %q: %w", props.Target.Type, props.Property, err)
		}
		if id == nil {
			return props.Target.ID(value)
		}
		return id, nil
	}

	id, err := props.Target.ID(value)
	if err != nil {
		return nil, err
	}
	if isNil(id) {
		return nil, errors.NewUnresolvedJoinEntityError(props.Target.Type, id)
	}

	exists, err := r.Exists(ctx, props.Target, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.NewUnresolvedJoinEntityError(props.Target.Type, id)
	}
	return id, nil
}

// Exists reports whether the entity row holds at least one column.
func (r *Resolver) Exists(ctx context.Context, meta registry.EntityMeta, id any) (bool, error) {
	rowKey, err := meta.RowKey(id)
	if err != nil {
		return false, err
	}

	ctx, release, err := r.policy.LoadForRead(ctx, meta.ColumnFamily, consistency.Unset)
	if err != nil {
		return false, err
	}
	defer release()

	cols, err := r.driver.Slice(ctx, storagemodels.SliceQuery{
		ColumnFamily: meta.ColumnFamily,
		RowKey:       rowKey,
		Limit:        1,
	})
	if err != nil {
		return false, fmt.Errorf("check %s existence: %w", meta.Type, err)
	}
	return len(cols) > 0, nil
}

// LoadJoinEntity loads the entity a join column references. An empty
// targetType means the property's own target.
func (r *Resolver) LoadJoinEntity(ctx context.Context, targetType string, joinID any, props Properties) (any, error) {
	meta := props.Target
	if targetType != "" && targetType != meta.Type {
		var err error
		if meta, err = registry.GetType(targetType); err != nil {
			return nil, err
		}
	}
	if r.loader == nil {
		return nil, fmt.Errorf("loading join property %q requires a loader", props.Property)
	}

	entity, found, err := r.loader.Load(ctx, meta, joinID)
	if err != nil {
		return nil, fmt.Errorf("load %s for property %q: %w", meta.Type, props.Property, err)
	}
	if !found {
		return nil, errors.NewJoinNotFoundError(meta.Type, fmt.Sprint(joinID), props.Property, nil)
	}
	return entity, nil
}

// RemoveReferenced deletes the referenced entity when the property cascades
// removals. Failures are logged and do not stop the owning delete.
func (r *Resolver) RemoveReferenced(ctx context.Context, joinID any, props Properties) {
	if !props.Cascade.Removes() || isNil(joinID) {
		return
	}
	if r.remover == nil {
		r.logger.Warn("cascade remove skipped, no remover configured",
			"property", props.Property,
			"type", props.Target.Type)
		return
	}
	if err := r.remover.Remove(ctx, props.Target, joinID); err != nil {
		r.logger.Warn("cascade remove failed",
			"property", props.Property,
			"type", props.Target.Type,
			"id", joinID,
			"error", err)
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
