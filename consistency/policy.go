/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package consistency

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/suparena/widerow/errors"
)

// Operation distinguishes reads from writes when resolving a level.
type Operation int

const (
	Read Operation = iota
	Write
)

func (o Operation) String() string {
	if o == Write {
		return "write"
	}
	return "read"
}

// Levels is a read/write level pair.
type Levels struct {
	Read  Level
	Write Level
}

func (l Levels) get(op Operation) Level {
	if op == Write {
		return l.Write
	}
	return l.Read
}

// Policy resolves the consistency level of every storage call. Resolution order
// is: the call's own override, the innermost active batch pin, the column
// family default, then the policy fallback.
//
// The resolved level travels in the context returned by LoadForRead and
// LoadForWrite. The accompanying release func clears it; callers defer it so
// the slot is cleared whether the storage call succeeds or fails.
type Policy struct {
	mu          sync.RWMutex
	defaults    map[string]Levels
	fallback    Levels
	outstanding atomic.Int64
	logger      *slog.Logger
}

// NewPolicy creates a policy. Unset fallback levels default to One.
func NewPolicy(fallback Levels, logger *slog.Logger) *Policy {
	if fallback.Read == Unset {
		fallback.Read = One
	}
	if fallback.Write == Unset {
		fallback.Write = One
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Policy{
		defaults: make(map[string]Levels),
		fallback: fallback,
		logger:   logger,
	}
}

// SetDefaults registers the default levels of a column family. Unset entries
// fall through to the policy fallback.
func (p *Policy) SetDefaults(columnFamily string, read, write Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.defaults[columnFamily] = Levels{Read: read, Write: write}
}

// Defaults returns the effective default levels of a column family.
func (p *Policy) Defaults(columnFamily string) Levels {
	p.mu.RLock()
	d, ok := p.defaults[columnFamily]
	p.mu.RUnlock()

	if !ok {
		return p.fallback
	}
	if d.Read == Unset {
		d.Read = p.fallback.Read
	}
	if d.Write == Unset {
		d.Write = p.fallback.Write
	}
	return d
}

// Resolve returns the level a call would run at without allocating a slot.
func (p *Policy) Resolve(ctx context.Context, columnFamily string, op Operation, override Level) Level {
	if override != Unset {
		return override
	}
	if l := pinnedLevel(ctx, op); l != Unset {
		return l
	}
	return p.Defaults(columnFamily).get(op)
}

// LoadForRead resolves the read level for columnFamily and returns a context
// carrying it. The release func must be called once the storage call returns.
func (p *Policy) LoadForRead(ctx context.Context, columnFamily string, override Level) (context.Context, func(), error) {
	return p.load(ctx, columnFamily, Read, override)
}

// LoadForWrite resolves the write level for columnFamily and returns a context
// carrying it. The release func must be called once the storage call returns.
func (p *Policy) LoadForWrite(ctx context.Context, columnFamily string, override Level) (context.Context, func(), error) {
	return p.load(ctx, columnFamily, Write, override)
}

func (p *Policy) load(ctx context.Context, columnFamily string, op Operation, override Level) (context.Context, func(), error) {
	level := p.Resolve(ctx, columnFamily, op, override)
	if op == Read && !level.ValidForRead() {
		return ctx, func() {}, errors.NewInvalidArgumentError("consistency", "level ANY is only valid for writes")
	}

	s := &slot{level: level, op: op}
	p.outstanding.Add(1)
	p.logger.Debug("consistency level resolved",
		"column_family", columnFamily,
		"operation", op.String(),
		"level", level.String())

	release := func() {
		if s.released.CompareAndSwap(false, true) {
			p.outstanding.Add(-1)
		}
	}
	return context.WithValue(ctx, slotKey{}, s), release, nil
}

// Outstanding returns the number of slots handed out and not yet released.
// It is zero whenever no storage call is in flight.
func (p *Policy) Outstanding() int64 {
	return p.outstanding.Load()
}

type slotKey struct{}

type slot struct {
	level    Level
	op       Operation
	released atomic.Bool
}

// FromContext returns the level resolved for the current storage call, or
// Unset when none is active. Drivers consult it to pick their read or write
// mode.
func FromContext(ctx context.Context) Level {
	s, ok := ctx.Value(slotKey{}).(*slot)
	if !ok || s.released.Load() {
		return Unset
	}
	return s.level
}

// WithLevel returns a context whose storage calls run at level without going
// through a Policy. It is meant for tools and tests that drive a Driver
// directly.
func WithLevel(ctx context.Context, level Level) context.Context {
	return context.WithValue(ctx, slotKey{}, &slot{level: level})
}
