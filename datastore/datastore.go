/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/suparena/widerow/storagemodels"
)

// Driver is the storage backend every wide-row accessor runs against. Column
// names are composite names and must be ordered bytewise by the backend.
//
// Drivers read the consistency level of a call with consistency.FromContext
// and fail with a ConsistencyViolationError when it cannot be honoured.
type Driver interface {
	// Get fetches a single column. found is false when the column does not exist.
	Get(ctx context.Context, columnFamily string, rowKey, name []byte) (col storagemodels.Column, found bool, err error)

	Set(ctx context.Context, columnFamily string, rowKey []byte, col storagemodels.Column) error

	// Delete removes a column or a counter. Deleting a missing column is not an error.
	Delete(ctx context.Context, columnFamily string, rowKey, name []byte) error

	// Slice returns the columns admitted by q, in the direction of its bounds.
	Slice(ctx context.Context, q storagemodels.SliceQuery) ([]storagemodels.Column, error)

	// Mutate applies a batch of mutations.
	Mutate(ctx context.Context, mutations []storagemodels.Mutation) error

	CounterAdd(ctx context.Context, columnFamily string, rowKey, name []byte, delta int64) error

	// CounterGet returns the counter value, zero when absent.
	CounterGet(ctx context.Context, columnFamily string, rowKey, name []byte) (int64, error)

	Close() error
}
