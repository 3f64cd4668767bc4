/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package join

import (
	"sort"
	"sync"
)

// Relationships maps join column families to the join property stored in
// them, so stream handlers can cascade on events that carry only a table key.
type Relationships struct {
	mu   sync.RWMutex
	byCF map[string]Properties
}

// NewRelationships creates an empty registry.
func NewRelationships() *Relationships {
	return &Relationships{byCF: make(map[string]Properties)}
}

// Register records the join property stored in columnFamily.
// This should be called during init() for each join map.
func (r *Relationships) Register(columnFamily string, props Properties) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byCF[columnFamily] = props
}

// Lookup returns the join property stored in columnFamily.
func (r *Relationships) Lookup(columnFamily string) (Properties, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byCF[columnFamily]
	return p, ok
}

// CascadesRemove reports whether removals in columnFamily cascade to the
// referenced entities.
func (r *Relationships) CascadesRemove(columnFamily string) bool {
	p, ok := r.Lookup(columnFamily)
	return ok && p.Cascade.Removes()
}

// ColumnFamilies returns the registered join column families, sorted.
func (r *Relationships) ColumnFamilies() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byCF))
	for cf := range r.byCF {
		out = append(out, cf)
	}
	sort.Strings(out)
	return out
}
