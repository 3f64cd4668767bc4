/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/widerow/composite"
	"github.com/suparena/widerow/datastore"
	"github.com/suparena/widerow/serializer"
	"github.com/suparena/widerow/storagemodels"
)

var _ datastore.Driver = (*Driver)(nil)

var codec = composite.NewCodec("tweets", serializer.String, serializer.Int64)

func name(t *testing.T, bucket string, n int64) []byte {
	t.Helper()
	b, err := codec.EncodeExact([]any{bucket, n})
	require.NoError(t, err)
	return b
}

func openMemory(t *testing.T, opts ...Option) *Driver {
	t.Helper()
	d, err := Open(":memory:", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func values(cols []storagemodels.Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = string(c.Value)
	}
	return out
}

func TestOpenAppliesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "widerow.db")
	d, err := Open(path)
	require.NoError(t, err)

	var version int
	require.NoError(t, d.DB().QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)

	var mode string
	require.NoError(t, d.DB().QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
	require.NoError(t, d.Close())

	// Reopening an existing database is idempotent.
	d, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, d.Close())
}

func TestGetSetDelete(t *testing.T) {
	d := openMemory(t)
	ctx := context.Background()
	row := []byte("alice")

	require.NoError(t, d.Set(ctx, "tweets", row, storagemodels.Column{Name: name(t, "a", 1), Value: []byte("first")}))
	require.NoError(t, d.Set(ctx, "tweets", row, storagemodels.Column{Name: name(t, "a", 1), Value: []byte("updated")}))

	col, found, err := d.Get(ctx, "tweets", row, name(t, "a", 1))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "updated", string(col.Value))
	assert.Zero(t, col.TTL)

	_, found, err = d.Get(ctx, "tweets", []byte("bob"), name(t, "a", 1))
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, d.Delete(ctx, "tweets", row, name(t, "a", 1)))
	_, found, err = d.Get(ctx, "tweets", row, name(t, "a", 1))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSlice(t *testing.T) {
	d := openMemory(t)
	ctx := context.Background()
	row := []byte("alice")

	for _, bucket := range []string{"bar", "foo", "qux"} {
		for n := int64(1); n <= 3; n++ {
			require.NoError(t, d.Set(ctx, "tweets", row, storagemodels.Column{
				Name:  name(t, bucket, n),
				Value: []byte(fmt.Sprintf("%s%d", bucket, n)),
			}))
		}
	}
	require.NoError(t, d.Set(ctx, "tweets", []byte("bob"), storagemodels.Column{Name: name(t, "foo", 1), Value: []byte("other")}))

	b := composite.NewBoundBuilder(codec)

	tests := []struct {
		name     string
		start    []any
		inclS    bool
		end      []any
		inclE    bool
		reversed bool
		limit    int
		want     []string
	}{
		{"whole row", nil, true, nil, true, false, 0, []string{"bar1", "bar2", "bar3", "foo1", "foo2", "foo3", "qux1", "qux2", "qux3"}},
		{"prefix inclusive", []any{"foo"}, true, []any{"foo"}, true, false, 0, []string{"foo1", "foo2", "foo3"}},
		{"prefix exclusive start", []any{"bar"}, false, []any{"foo"}, true, false, 0, []string{"foo1", "foo2", "foo3"}},
		{"full tuple exclusive", []any{"foo", int64(1)}, false, []any{"foo", int64(3)}, false, false, 0, []string{"foo2"}},
		{"reversed with limit", []any{"qux", int64(2)}, true, nil, true, true, 3, []string{"qux2", "qux1", "foo3"}},
		{"reversed exclusive end", []any{"qux"}, true, []any{"foo"}, false, true, 0, []string{"qux3", "qux2", "qux1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bounds, err := b.BuildStartEnd(tt.start, tt.inclS, tt.end, tt.inclE, tt.reversed)
			require.NoError(t, err)

			cols, err := d.Slice(ctx, storagemodels.SliceQuery{ColumnFamily: "tweets", RowKey: row, Bounds: bounds, Limit: tt.limit})
			require.NoError(t, err)
			assert.Equal(t, tt.want, values(cols))
		})
	}

	t.Run("resume after", func(t *testing.T) {
		cols, err := d.Slice(ctx, storagemodels.SliceQuery{
			ColumnFamily: "tweets",
			RowKey:       row,
			Bounds:       composite.Bounds{Reversed: true},
			After:        name(t, "foo", 2),
			Limit:        2,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"foo1", "bar3"}, values(cols))
	})
}

func TestTTL(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	d := openMemory(t, WithClock(func() time.Time { return now }))
	ctx := context.Background()
	row := []byte("alice")

	require.NoError(t, d.Set(ctx, "tweets", row, storagemodels.Column{Name: name(t, "a", 1), Value: []byte("short"), TTL: 30}))
	require.NoError(t, d.Set(ctx, "tweets", row, storagemodels.Column{Name: name(t, "a", 2), Value: []byte("forever")}))

	col, found, err := d.Get(ctx, "tweets", row, name(t, "a", 1))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int32(30), col.TTL)

	now = now.Add(time.Minute)

	_, found, err = d.Get(ctx, "tweets", row, name(t, "a", 1))
	require.NoError(t, err)
	assert.False(t, found)

	cols, err := d.Slice(ctx, storagemodels.SliceQuery{ColumnFamily: "tweets", RowKey: row})
	require.NoError(t, err)
	assert.Equal(t, []string{"forever"}, values(cols))

	n, err := d.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMutateAndCounters(t *testing.T) {
	d := openMemory(t)
	ctx := context.Background()
	row := []byte("alice")

	err := d.Mutate(ctx, []storagemodels.Mutation{
		storagemodels.SetColumn("tweets", row, storagemodels.Column{Name: name(t, "a", 1), Value: []byte("one")}),
		storagemodels.SetColumn("tweets", row, storagemodels.Column{Name: name(t, "a", 2), Value: []byte("two")}),
		storagemodels.DeleteColumn("tweets", row, name(t, "a", 1)),
		storagemodels.AddCounter("likes", row, name(t, "a", 2), 4),
	})
	require.NoError(t, err)

	cols, err := d.Slice(ctx, storagemodels.SliceQuery{ColumnFamily: "tweets", RowKey: row})
	require.NoError(t, err)
	assert.Equal(t, []string{"two"}, values(cols))

	require.NoError(t, d.CounterAdd(ctx, "likes", row, name(t, "a", 2), -1))
	v, err := d.CounterGet(ctx, "likes", row, name(t, "a", 2))
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)

	require.NoError(t, d.Delete(ctx, "likes", row, name(t, "a", 2)))
	v, err = d.CounterGet(ctx, "likes", row, name(t, "a", 2))
	require.NoError(t, err)
	assert.Zero(t, v)

	require.NoError(t, d.Mutate(ctx, nil))
}

func TestMutateRollsBackOnFailure(t *testing.T) {
	d := openMemory(t)
	ctx := context.Background()
	row := []byte("alice")

	err := d.Mutate(ctx, []storagemodels.Mutation{
		storagemodels.SetColumn("tweets", row, storagemodels.Column{Name: name(t, "a", 1), Value: []byte("one")}),
		{Kind: storagemodels.MutationKind(42), ColumnFamily: "tweets", RowKey: row},
	})
	require.Error(t, err)

	_, found, err := d.Get(ctx, "tweets", row, name(t, "a", 1))
	require.NoError(t, err)
	assert.False(t, found)
}
