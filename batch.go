/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package widerow

import (
	"context"

	"github.com/suparena/widerow/consistency"
	"github.com/suparena/widerow/datastore"
)

// Batch groups the writes made with its context into one Mutate call and
// pins the consistency levels of every call made with that context.
type Batch struct {
	session *Session
	ctx     context.Context
	queue   *datastore.Batch
	pin     *consistency.Pin
}

// StartBatch returns a context whose writes are queued until End. Reads
// made with the context still go to the driver, at the pinned read level.
// Unset levels fall through to the column family defaults.
func (s *Session) StartBatch(ctx context.Context, read, write consistency.Level) (context.Context, *Batch) {
	queue := datastore.NewBatch()
	ctx, pin := s.policy.StartBatch(ctx, read, write)
	ctx = datastore.WithBatch(ctx, queue)
	return ctx, &Batch{session: s, ctx: ctx, queue: queue, pin: pin}
}

// Len returns the number of queued writes.
func (b *Batch) Len() int {
	return b.queue.Len()
}

// End closes the batch scope, then flushes the queued writes and releases
// the pin, whether or not the flush succeeds. Writes made afterwards with the
// batch context go straight to the driver.
//
// Queued writes are sent in order, one Mutate per run of writes sharing a
// level. A run without a per-call override uses the pinned write level, or
// the defaults of its column family when nothing is pinned. The first failed
// run stops the flush.
func (b *Batch) End(ctx context.Context) error {
	defer b.pin.Release()
	b.queue.Close()

	for _, group := range b.queue.DrainGroups() {
		if err := b.flush(ctx, group); err != nil {
			return err
		}
	}
	return nil
}

func (b *Batch) flush(ctx context.Context, group datastore.Group) error {
	cf := group.ColumnFamily()
	level := b.session.policy.Resolve(b.ctx, cf, consistency.Write, group.Level)

	ctx, release, err := b.session.policy.LoadForWrite(ctx, cf, level)
	if err != nil {
		return err
	}
	defer release()

	if err := b.session.driver.Mutate(ctx, group.Mutations); err != nil {
		return err
	}
	b.session.logger.Debug("batch flushed", "mutations", len(group.Mutations), "level", level.String())
	return nil
}

// Discard closes the batch scope, drops the queued writes and releases the pin.
func (b *Batch) Discard() {
	b.queue.Close()
	b.queue.Drain()
	b.pin.Release()
}
