/*
Package datastore defines the storage interface of the widerow library.

The main interface is Driver, a single ordered wide-column model:

	type Driver interface {
	    Get(ctx context.Context, columnFamily string, rowKey, name []byte) (storagemodels.Column, bool, error)
	    Set(ctx context.Context, columnFamily string, rowKey []byte, col storagemodels.Column) error
	    Delete(ctx context.Context, columnFamily string, rowKey, name []byte) error
	    Slice(ctx context.Context, q storagemodels.SliceQuery) ([]storagemodels.Column, error)
	    Mutate(ctx context.Context, mutations []storagemodels.Mutation) error
	    CounterAdd(ctx context.Context, columnFamily string, rowKey, name []byte, delta int64) error
	    CounterGet(ctx context.Context, columnFamily string, rowKey, name []byte) (int64, error)
	    Close() error
	}

Implementations:
  - ddb: DynamoDB, one item per column, sort key = composite name
  - sqlite: SQLite, BLOB column names ordered by memcmp
  - mock: In-memory implementation for testing, with error injection

Writes issued with a context carrying a Batch (see WithBatch) are queued and
applied later with a single Mutate call.
*/
package datastore
