/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package widemap

import (
	"context"
	"time"

	"github.com/suparena/widerow/composite"
	"github.com/suparena/widerow/consistency"
	"github.com/suparena/widerow/errors"
	"github.com/suparena/widerow/storagemodels"
)

// SliceIterator walks a column range lazily, one batch per storage round
// trip. Each refill resumes strictly after the last fetched name; a batch
// shorter than the batch size ends the range.
//
// An iterator is owned by a single goroutine.
type SliceIterator[K, V any] struct {
	ctx    context.Context
	m      *WideMap[K, V]
	bounds composite.Bounds
	level  consistency.Level
	opts   storagemodels.IteratorOptions

	batch     []storagemodels.Column
	pos       int
	resume    []byte
	exhausted bool
	err       error

	last     *storagemodels.Column
	progress storagemodels.IteratorProgress
}

func newSliceIterator[K, V any](ctx context.Context, m *WideMap[K, V], bounds composite.Bounds, level consistency.Level, opts storagemodels.IteratorOptions) *SliceIterator[K, V] {
	return &SliceIterator[K, V]{
		ctx:      ctx,
		m:        m,
		bounds:   bounds,
		level:    level,
		opts:     opts,
		progress: storagemodels.IteratorProgress{StartTime: time.Now()},
	}
}

// HasNext reports whether Next has an element to return, fetching the next
// batch if the current one is used up. It returns false after a failed
// refill; check Err.
func (it *SliceIterator[K, V]) HasNext() bool {
	if it.pos < len(it.batch) {
		return true
	}
	if it.exhausted || it.err != nil {
		return false
	}
	it.refill()
	return it.pos < len(it.batch)
}

func (it *SliceIterator[K, V]) refill() {
	ctx, release, err := it.m.backend.Policy.LoadForRead(it.ctx, it.m.meta.ColumnFamily, it.level)
	if err != nil {
		it.err = err
		return
	}
	defer release()

	cols, err := it.m.backend.Driver.Slice(ctx, storagemodels.SliceQuery{
		ColumnFamily: it.m.meta.ColumnFamily,
		RowKey:       it.m.rowKey,
		Bounds:       it.bounds,
		After:        it.resume,
		Limit:        it.opts.BatchSize,
	})
	if err != nil {
		it.err = err
		return
	}

	it.batch, it.pos = cols, 0
	if len(cols) < it.opts.BatchSize {
		it.exhausted = true
	}
	if len(cols) > 0 {
		it.resume = cols[len(cols)-1].Name
	}

	it.progress.Refills++
	it.progress.ItemsFetched += int64(len(cols))
	it.progress.LastBatchSize = len(cols)
	it.progress.LastName = it.resume
	it.m.logger.Debug("slice refill",
		"refill", it.progress.Refills,
		"batch_size", it.opts.BatchSize,
		"fetched", len(cols),
		"exhausted", it.exhausted)
	if it.opts.ProgressHandler != nil {
		it.opts.ProgressHandler(it.progress)
	}
}

// Next returns the next entry. Past the end of the range it returns a
// NoSuchElementError, or the refill error if fetching failed.
func (it *SliceIterator[K, V]) Next() (KeyValue[K, V], error) {
	if !it.HasNext() {
		if it.err != nil {
			return KeyValue[K, V]{}, it.err
		}
		return KeyValue[K, V]{}, errors.NewNoSuchElementError(it.m.meta.Property)
	}

	col := it.batch[it.pos]
	it.pos++
	it.last = &col
	return it.m.decode(col)
}

// Remove deletes the column of the element last returned by Next. The
// removal is recorded in the backend's DirtyTracker, if any. On a join map
// iterator the cascade policy applies as in JoinMap.Remove.
func (it *SliceIterator[K, V]) Remove() error {
	if it.last == nil {
		return errors.NewInvalidArgumentError("iterator", "Remove called before Next")
	}

	if it.m.beforeRemove != nil {
		it.m.beforeRemove(it.ctx, []storagemodels.Column{*it.last})
	}
	mutation := storagemodels.DeleteColumn(it.m.meta.ColumnFamily, it.m.rowKey, it.last.Name)
	if err := it.m.backend.write(it.ctx, it.level, mutation); err != nil {
		return err
	}
	if it.m.backend.Dirty != nil {
		it.m.backend.Dirty.MarkDirty(it.m.meta.Property, mutation)
	}
	it.last = nil
	return nil
}

// Err returns the error of the last failed refill.
func (it *SliceIterator[K, V]) Err() error {
	return it.err
}

// Progress returns the refill statistics so far.
func (it *SliceIterator[K, V]) Progress() storagemodels.IteratorProgress {
	return it.progress
}
