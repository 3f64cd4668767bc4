/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package consistency

import (
	"context"
	"sync/atomic"
)

// Pin holds the levels of a batch scope. While a pin is active in a context,
// every call made with that context that has no override of its own runs at
// the pinned level. Nested pins shadow outer ones; an Unset pinned level
// defers to the enclosing pin.
type Pin struct {
	levels   Levels
	parent   *Pin
	released atomic.Bool
	policy   *Policy
}

type pinKey struct{}

// StartBatch pins read and write levels for every call made with the returned
// context until the pin is released.
func (p *Policy) StartBatch(ctx context.Context, read, write Level) (context.Context, *Pin) {
	pin := &Pin{
		levels: Levels{Read: read, Write: write},
		parent: activePin(ctx),
		policy: p,
	}
	p.outstanding.Add(1)
	p.logger.Debug("consistency pinned for batch", "read", read.String(), "write", write.String())
	return context.WithValue(ctx, pinKey{}, pin), pin
}

// Levels returns the levels the pin was created with.
func (pin *Pin) Levels() Levels {
	return pin.levels
}

// Release ends the batch scope. It is safe to call more than once.
func (pin *Pin) Release() {
	if pin.released.CompareAndSwap(false, true) {
		pin.policy.outstanding.Add(-1)
	}
}

// Released reports whether Release has been called.
func (pin *Pin) Released() bool {
	return pin.released.Load()
}

func activePin(ctx context.Context) *Pin {
	pin, _ := ctx.Value(pinKey{}).(*Pin)
	return pin
}

func pinnedLevel(ctx context.Context, op Operation) Level {
	for pin := activePin(ctx); pin != nil; pin = pin.parent {
		if pin.released.Load() {
			continue
		}
		if l := pin.levels.get(op); l != Unset {
			return l
		}
	}
	return Unset
}
