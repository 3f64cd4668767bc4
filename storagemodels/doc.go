/*
Package storagemodels defines the data structures shared by the wide-row
accessors and the storage drivers.

Key Types:

Column:
A single named cell of a wide row. Names are composite names produced by the
composite package; values are opaque bytes.

SliceQuery:
A ranged fetch of columns within a row:

	q := SliceQuery{
	    ColumnFamily: "user_timeline",
	    RowKey:       rowKey,
	    Bounds:       bounds,   // from composite.BoundBuilder
	    After:        lastName, // exclusive resume point, nil on the first page
	    Limit:        100,
	}

Mutation:
A queued set, delete or counter change, applied in bulk by Driver.Mutate.

IteratorOptions:
Configuration for slice iteration:

	opts := []IteratorOption{
	    WithBatchSize(25),
	    WithProgressHandler(progressFunc),
	}

These types provide a consistent interface across the storage drivers.
*/
package storagemodels
