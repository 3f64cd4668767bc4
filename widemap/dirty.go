/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package widemap

import (
	"sync"

	"github.com/suparena/widerow/storagemodels"
)

// DirtyTracker is told about changes made to a property outside of its
// owning entity's own writes, such as removals through an iterator.
type DirtyTracker interface {
	MarkDirty(property string, mutation storagemodels.Mutation)
}

// MutationLog is a DirtyTracker that records mutations per property, in order.
type MutationLog struct {
	mu         sync.Mutex
	byProperty map[string][]storagemodels.Mutation
	order      []string
}

// NewMutationLog creates an empty log.
func NewMutationLog() *MutationLog {
	return &MutationLog{byProperty: make(map[string][]storagemodels.Mutation)}
}

func (l *MutationLog) MarkDirty(property string, mutation storagemodels.Mutation) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, seen := l.byProperty[property]; !seen {
		l.order = append(l.order, property)
	}
	l.byProperty[property] = append(l.byProperty[property], mutation)
}

// Dirty reports whether property has recorded mutations.
func (l *MutationLog) Dirty(property string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byProperty[property]) > 0
}

// Properties returns the dirty properties in the order they were first marked.
func (l *MutationLog) Properties() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.order...)
}

// Mutations returns the mutations recorded for property.
func (l *MutationLog) Mutations(property string) []storagemodels.Mutation {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]storagemodels.Mutation(nil), l.byProperty[property]...)
}

// Reset clears the log.
func (l *MutationLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.byProperty = make(map[string][]storagemodels.Mutation)
	l.order = nil
}
