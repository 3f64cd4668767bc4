/*
Package ddb provides a DynamoDB implementation of the Driver interface.

Every column is one item of a single table:

	PK   S  column family + "#" + base64url(row key)
	SK   B  composite column name
	V    B  column value
	C    N  counter value (counter columns only)
	ttl  N  expiry as Unix seconds (columns written with a TTL)

DynamoDB orders binary sort keys bytewise, which is the order composite names
are designed for, so a slice is a single Query on the row's partition with a
BETWEEN, >= or <= condition on SK. Descending slices set ScanIndexForward to
false and resumed slices pass the last returned name as ExclusiveStartKey.

Enable DynamoDB TTL on the "ttl" attribute to have expired columns removed.
Until the sweeper runs, reads filter them out.

Consistency:
Reads run with ConsistentRead when the level of the call is QUORUM or
stronger (see consistency.Level.Strong). Writes are always acknowledged by
DynamoDB after durable replication, so write levels need no mapping.

Usage:

	d, err := ddb.Open(ctx, ddb.ClientConfig{Region: "us-east-1"}, "widerow",
	    ddb.WithMaxRetries(5),
	    ddb.WithLogger(logger),
	)
*/
package ddb
