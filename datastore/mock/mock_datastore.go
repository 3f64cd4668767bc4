/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides an in-memory implementation of the Driver interface for testing
package mock

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/suparena/widerow/consistency"
	"github.com/suparena/widerow/errors"
	"github.com/suparena/widerow/storagemodels"
)

// Call records one driver invocation and the consistency level it ran at.
type Call struct {
	Op           string
	ColumnFamily string
	Level        consistency.Level
	Query        *storagemodels.SliceQuery
}

type entry struct {
	col       storagemodels.Column
	expiresAt time.Time
}

// Driver is a mock implementation of datastore.Driver for testing. Rows are
// kept as name-sorted slices so slices behave like an ordered backend.
type Driver struct {
	mu          sync.RWMutex
	rows        map[string][]entry
	counters    map[string]int64
	calls       []Call
	unavailable map[consistency.Level]bool
	now         func() time.Time
	latency     time.Duration
	sliceFunc   func(ctx context.Context, q storagemodels.SliceQuery) ([]storagemodels.Column, error)
	getError    error
	setError    error
	deleteError error
	sliceError  error
	mutateError error
	closed      bool
}

// New creates a new mock Driver
func New() *Driver {
	return &Driver{
		rows:        make(map[string][]entry),
		counters:    make(map[string]int64),
		unavailable: make(map[consistency.Level]bool),
		now:         time.Now,
	}
}

// WithGetError makes Get operations return an error
func (m *Driver) WithGetError(err error) *Driver {
	m.getError = err
	return m
}

// WithSetError makes Set and CounterAdd operations return an error
func (m *Driver) WithSetError(err error) *Driver {
	m.setError = err
	return m
}

// WithDeleteError makes Delete operations return an error
func (m *Driver) WithDeleteError(err error) *Driver {
	m.deleteError = err
	return m
}

// WithSliceError makes Slice operations return an error
func (m *Driver) WithSliceError(err error) *Driver {
	m.sliceError = err
	return m
}

// WithMutateError makes Mutate operations return an error
func (m *Driver) WithMutateError(err error) *Driver {
	m.mutateError = err
	return m
}

// WithSliceFunc sets a custom slice function for testing
func (m *Driver) WithSliceFunc(f func(ctx context.Context, q storagemodels.SliceQuery) ([]storagemodels.Column, error)) *Driver {
	m.sliceFunc = f
	return m
}

// WithUnavailableLevel makes every call at one of levels fail with a
// ConsistencyViolationError, as if too few replicas answered.
func (m *Driver) WithUnavailableLevel(levels ...consistency.Level) *Driver {
	for _, l := range levels {
		m.unavailable[l] = true
	}
	return m
}

// WithLatency delays every operation by d, or until the context is done
func (m *Driver) WithLatency(d time.Duration) *Driver {
	m.latency = d
	return m
}

// WithClock replaces the clock used for TTL expiry
func (m *Driver) WithClock(now func() time.Time) *Driver {
	m.now = now
	return m
}

func rowID(columnFamily string, rowKey []byte) string {
	return columnFamily + "\x00" + string(rowKey)
}

func counterID(columnFamily string, rowKey, name []byte) string {
	return rowID(columnFamily, rowKey) + "\x00" + string(name)
}

// begin records the call and checks the consistency level it runs at.
func (m *Driver) begin(ctx context.Context, op, columnFamily string, q *storagemodels.SliceQuery) error {
	level := consistency.FromContext(ctx)

	m.mu.Lock()
	m.calls = append(m.calls, Call{Op: op, ColumnFamily: columnFamily, Level: level, Query: q})
	closed, unavailable, latency := m.closed, m.unavailable[level], m.latency
	m.mu.Unlock()

	if closed {
		return fmt.Errorf("mock driver is closed")
	}
	if unavailable {
		return errors.NewConsistencyViolationError(op, level.String(), "not enough replicas available")
	}
	if latency > 0 {
		timer := time.NewTimer(latency)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (m *Driver) expired(e entry) bool {
	return !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt)
}

// search returns the index of name in row, or where it would be inserted
func search(row []entry, name []byte) (int, bool) {
	i := sort.Search(len(row), func(i int) bool {
		return bytes.Compare(row[i].col.Name, name) >= 0
	})
	return i, i < len(row) && bytes.Equal(row[i].col.Name, name)
}

// Get retrieves a column by name
func (m *Driver) Get(ctx context.Context, columnFamily string, rowKey, name []byte) (storagemodels.Column, bool, error) {
	if err := m.begin(ctx, "get", columnFamily, nil); err != nil {
		return storagemodels.Column{}, false, err
	}
	if m.getError != nil {
		return storagemodels.Column{}, false, m.getError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	row := m.rows[rowID(columnFamily, rowKey)]
	if i, ok := search(row, name); ok && !m.expired(row[i]) {
		return cloneColumn(row[i].col), true, nil
	}
	return storagemodels.Column{}, false, nil
}

// Set stores a column
func (m *Driver) Set(ctx context.Context, columnFamily string, rowKey []byte, col storagemodels.Column) error {
	if err := m.begin(ctx, "set", columnFamily, nil); err != nil {
		return err
	}
	if m.setError != nil {
		return m.setError
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.set(columnFamily, rowKey, col)
	return nil
}

func (m *Driver) set(columnFamily string, rowKey []byte, col storagemodels.Column) {
	e := entry{col: cloneColumn(col)}
	if col.TTL > 0 {
		e.expiresAt = m.now().Add(time.Duration(col.TTL) * time.Second)
	}

	id := rowID(columnFamily, rowKey)
	row := m.rows[id]
	i, ok := search(row, col.Name)
	if ok {
		row[i] = e
		return
	}
	row = append(row, entry{})
	copy(row[i+1:], row[i:])
	row[i] = e
	m.rows[id] = row
}

// Delete removes a column or a counter
func (m *Driver) Delete(ctx context.Context, columnFamily string, rowKey, name []byte) error {
	if err := m.begin(ctx, "delete", columnFamily, nil); err != nil {
		return err
	}
	if m.deleteError != nil {
		return m.deleteError
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.delete(columnFamily, rowKey, name)
	return nil
}

func (m *Driver) delete(columnFamily string, rowKey, name []byte) {
	delete(m.counters, counterID(columnFamily, rowKey, name))

	id := rowID(columnFamily, rowKey)
	row := m.rows[id]
	if i, ok := search(row, name); ok {
		row = append(row[:i], row[i+1:]...)
		if len(row) == 0 {
			delete(m.rows, id)
			return
		}
		m.rows[id] = row
	}
}

// Slice returns the columns admitted by the query
func (m *Driver) Slice(ctx context.Context, q storagemodels.SliceQuery) ([]storagemodels.Column, error) {
	recorded := q
	if err := m.begin(ctx, "slice", q.ColumnFamily, &recorded); err != nil {
		return nil, err
	}
	if m.sliceError != nil {
		return nil, m.sliceError
	}
	if m.sliceFunc != nil {
		return m.sliceFunc(ctx, q)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	row := m.rows[rowID(q.ColumnFamily, q.RowKey)]
	results := make([]storagemodels.Column, 0)
	visit := func(e entry) bool {
		if m.expired(e) || !q.Admits(e.col.Name) {
			return true
		}
		results = append(results, cloneColumn(e.col))
		return q.Limit <= 0 || len(results) < q.Limit
	}

	if q.Reversed() {
		for i := len(row) - 1; i >= 0; i-- {
			if !visit(row[i]) {
				break
			}
		}
	} else {
		for i := range row {
			if !visit(row[i]) {
				break
			}
		}
	}
	return results, nil
}

// Mutate applies a batch of mutations atomically
func (m *Driver) Mutate(ctx context.Context, mutations []storagemodels.Mutation) error {
	if err := m.begin(ctx, "mutate", "", nil); err != nil {
		return err
	}
	if m.mutateError != nil {
		return m.mutateError
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mu := range mutations {
		switch mu.Kind {
		case storagemodels.MutationSet:
			m.set(mu.ColumnFamily, mu.RowKey, mu.Column)
		case storagemodels.MutationDelete:
			m.delete(mu.ColumnFamily, mu.RowKey, mu.Column.Name)
		case storagemodels.MutationCounterAdd:
			m.counters[counterID(mu.ColumnFamily, mu.RowKey, mu.Column.Name)] += mu.Delta
		default:
			return fmt.Errorf("unsupported mutation kind %v", mu.Kind)
		}
	}
	return nil
}

// CounterAdd adds delta to a counter column
func (m *Driver) CounterAdd(ctx context.Context, columnFamily string, rowKey, name []byte, delta int64) error {
	if err := m.begin(ctx, "counter_add", columnFamily, nil); err != nil {
		return err
	}
	if m.setError != nil {
		return m.setError
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[counterID(columnFamily, rowKey, name)] += delta
	return nil
}

// CounterGet returns a counter value
func (m *Driver) CounterGet(ctx context.Context, columnFamily string, rowKey, name []byte) (int64, error) {
	if err := m.begin(ctx, "counter_get", columnFamily, nil); err != nil {
		return 0, err
	}
	if m.getError != nil {
		return 0, m.getError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counters[counterID(columnFamily, rowKey, name)], nil
}

// Close marks the driver closed; later calls fail
func (m *Driver) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Helper methods for testing

// Calls returns a copy of the recorded calls
func (m *Driver) Calls() []Call {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Call(nil), m.calls...)
}

// CallsTo returns the recorded calls of one operation
func (m *Driver) CallsTo(op string) []Call {
	var out []Call
	for _, c := range m.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls forgets the recorded calls
func (m *Driver) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// Count returns the number of live columns stored in a row
func (m *Driver) Count(columnFamily string, rowKey []byte) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, e := range m.rows[rowID(columnFamily, rowKey)] {
		if !m.expired(e) {
			n++
		}
	}
	return n
}

// Clear removes all data
func (m *Driver) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = make(map[string][]entry)
	m.counters = make(map[string]int64)
}

func cloneColumn(c storagemodels.Column) storagemodels.Column {
	return storagemodels.Column{
		Name:  append([]byte(nil), c.Name...),
		Value: append([]byte(nil), c.Value...),
		TTL:   c.TTL,
	}
}
