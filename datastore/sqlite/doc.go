/*
Package sqlite provides a SQLite implementation of the Driver interface.

Each column is one row of the columns table, keyed by column family, row key
and composite name. SQLite compares BLOBs with memcmp, so ORDER BY name walks
a wide row in composite order and range bounds become plain >= / <= filters.

Mutate applies a batch in a single transaction. Counter columns live in a
separate counters table. Columns written with a TTL are hidden from reads once
expired and removed by PurgeExpired.

	d, err := sqlite.Open("widerow.db")
	d, err := sqlite.Open(":memory:")
*/
package sqlite
