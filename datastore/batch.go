/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"
	"sync"

	"github.com/suparena/widerow/consistency"
	"github.com/suparena/widerow/storagemodels"
)

type queued struct {
	level    consistency.Level
	mutation storagemodels.Mutation
}

// Group is a run of consecutive queued mutations sharing one level override.
// An Unset level means the mutations follow the batch scope.
type Group struct {
	Level     consistency.Level
	Mutations []storagemodels.Mutation
}

// ColumnFamily returns the column family shared by every mutation of the
// group, or the empty string when it spans several.
func (g Group) ColumnFamily() string {
	return sharedColumnFamily(g.Mutations)
}

// Batch accumulates mutations until it is flushed. A closed batch no longer
// captures writes: BatchFrom stops reporting it.
type Batch struct {
	mu      sync.Mutex
	entries []queued
	closed  bool
}

// NewBatch creates an empty batch.
func NewBatch() *Batch {
	return &Batch{}
}

// Add queues mutations that follow the batch scope level.
func (b *Batch) Add(mutations ...storagemodels.Mutation) {
	b.AddAt(consistency.Unset, mutations...)
}

// AddAt queues mutations that carry their own level override.
func (b *Batch) AddAt(level consistency.Level, mutations ...storagemodels.Mutation) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, m := range mutations {
		b.entries = append(b.entries, queued{level: level, mutation: m})
	}
}

// Len returns the number of queued mutations.
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Close ends the batch scope. Queued mutations stay until drained.
func (b *Batch) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}

// Closed reports whether Close has been called.
func (b *Batch) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// ColumnFamily returns the column family shared by every queued mutation, or
// the empty string when the batch is empty or spans several.
func (b *Batch) ColumnFamily() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	mutations := make([]storagemodels.Mutation, len(b.entries))
	for i, e := range b.entries {
		mutations[i] = e.mutation
	}
	return sharedColumnFamily(mutations)
}

func sharedColumnFamily(mutations []storagemodels.Mutation) string {
	if len(mutations) == 0 {
		return ""
	}
	cf := mutations[0].ColumnFamily
	for _, m := range mutations[1:] {
		if m.ColumnFamily != cf {
			return ""
		}
	}
	return cf
}

// Drain returns the queued mutations and empties the batch.
func (b *Batch) Drain() []storagemodels.Mutation {
	entries := b.drain()
	out := make([]storagemodels.Mutation, len(entries))
	for i, e := range entries {
		out[i] = e.mutation
	}
	return out
}

// DrainGroups empties the batch and returns its mutations split into runs of
// equal level, in queue order.
func (b *Batch) DrainGroups() []Group {
	var groups []Group
	for _, e := range b.drain() {
		if n := len(groups); n > 0 && groups[n-1].Level == e.level {
			groups[n-1].Mutations = append(groups[n-1].Mutations, e.mutation)
			continue
		}
		groups = append(groups, Group{Level: e.level, Mutations: []storagemodels.Mutation{e.mutation}})
	}
	return groups
}

func (b *Batch) drain() []queued {
	b.mu.Lock()
	defer b.mu.Unlock()
	entries := b.entries
	b.entries = nil
	return entries
}

// Flush applies the queued mutations through d. The batch is emptied even if
// the driver fails.
func (b *Batch) Flush(ctx context.Context, d Driver) error {
	mutations := b.Drain()
	if len(mutations) == 0 {
		return nil
	}
	return d.Mutate(ctx, mutations)
}

type batchKey struct{}

// WithBatch returns a context whose writes are queued into b instead of being
// sent to the driver.
func WithBatch(ctx context.Context, b *Batch) context.Context {
	return context.WithValue(ctx, batchKey{}, b)
}

// BatchFrom returns the open batch carried by ctx, if any.
func BatchFrom(ctx context.Context) (*Batch, bool) {
	b, ok := ctx.Value(batchKey{}).(*Batch)
	if !ok || b == nil || b.Closed() {
		return nil, false
	}
	return b, true
}
