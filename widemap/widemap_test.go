/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package widemap_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/widerow/consistency"
	"github.com/suparena/widerow/datastore"
	"github.com/suparena/widerow/datastore/mock"
	"github.com/suparena/widerow/errors"
	"github.com/suparena/widerow/serializer"
	"github.com/suparena/widerow/storagemodels"
	"github.com/suparena/widerow/widemap"
)

type tweetKey struct {
	Bucket string
	Seq    int64
}

var tweetKeys = widemap.CompoundKey(
	widemap.NewField("bucket", serializer.String,
		func(k tweetKey) string { return k.Bucket },
		func(k *tweetKey, v string) { k.Bucket = v }),
	widemap.NewField("seq", serializer.Int64,
		func(k tweetKey) int64 { return k.Seq },
		func(k *tweetKey, v int64) { k.Seq = v }),
)

func newBackend() (widemap.Backend, *mock.Driver, *consistency.Policy) {
	driver := mock.New()
	policy := consistency.NewPolicy(consistency.Levels{}, nil)
	return widemap.Backend{Driver: driver, Policy: policy}, driver, policy
}

func newTimeline(t *testing.T, backend widemap.Backend) *widemap.WideMap[tweetKey, string] {
	t.Helper()
	m, err := widemap.New(backend, widemap.Meta[tweetKey, string]{
		Property:     "timeline",
		ColumnFamily: "user_timeline",
		Keys:         tweetKeys,
		Values:       serializer.Value[string](serializer.String),
	}, []byte("user-1"))
	require.NoError(t, err)
	return m
}

func newSeqMap(t *testing.T, backend widemap.Backend) *widemap.WideMap[int64, string] {
	t.Helper()
	m, err := widemap.New(backend, widemap.Meta[int64, string]{
		Property:     "events",
		ColumnFamily: "user_events",
		Keys:         widemap.SimpleKey[int64](serializer.Int64),
		Values:       serializer.Value[string](serializer.String),
	}, []byte("user-1"))
	require.NoError(t, err)
	return m
}

func ptr[T any](v T) *T { return &v }

func seed(t *testing.T, m *widemap.WideMap[int64, string], n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		require.NoError(t, m.Insert(context.Background(), int64(i), fmt.Sprintf("v%d", i)))
	}
}

func TestNewValidatesMeta(t *testing.T) {
	backend, _, _ := newBackend()

	_, err := widemap.New(backend, widemap.Meta[int64, string]{Property: "events"}, nil)
	assert.Error(t, err)

	_, err = widemap.New(widemap.Backend{}, widemap.Meta[int64, string]{
		Property:     "events",
		ColumnFamily: "user_events",
		Keys:         widemap.SimpleKey[int64](serializer.Int64),
		Values:       serializer.JSON[string](),
	}, nil)
	assert.Error(t, err, "a driver is required")
}

func TestGetInsert(t *testing.T) {
	ctx := context.Background()
	backend, driver, _ := newBackend()
	m := newTimeline(t, backend)

	require.NoError(t, m.Insert(ctx, tweetKey{"foo", 1}, "hello"))

	v, found, err := m.Get(ctx, tweetKey{"foo", 1})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "hello", v)

	_, found, err = m.Get(ctx, tweetKey{"foo", 2})
	require.NoError(t, err)
	assert.False(t, found)

	t.Run("ttl", func(t *testing.T) {
		require.NoError(t, m.InsertWithTTL(ctx, tweetKey{"foo", 3}, "brief", 30))
		kv, found, err := m.FindLast(ctx)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, int32(30), kv.TTL)

		driver.ResetCalls()
		for _, ttl := range []int{0, -5} {
			err := m.InsertWithTTL(ctx, tweetKey{"foo", 4}, "never", ttl)
			assert.True(t, errors.IsInvalidArgument(err))
		}
		assert.Empty(t, driver.Calls(), "validation happens before any storage call")
	})
}

func TestFindBoundsAndOrdering(t *testing.T) {
	ctx := context.Background()
	backend, _, _ := newBackend()
	m := newSeqMap(t, backend)
	seed(t, m, 9)

	tests := []struct {
		name     string
		start    *int64
		end      *int64
		count    int
		bounding widemap.BoundingMode
		ordering widemap.OrderingMode
		want     []int64
	}{
		{"inclusive asc", ptr[int64](3), ptr[int64](6), 10, widemap.InclusiveBounds, widemap.Ascending, []int64{3, 4, 5, 6}},
		{"exclusive asc", ptr[int64](3), ptr[int64](6), 10, widemap.ExclusiveBounds, widemap.Ascending, []int64{4, 5}},
		{"start only asc", ptr[int64](3), ptr[int64](6), 10, widemap.InclusiveStartBoundOnly, widemap.Ascending, []int64{3, 4, 5}},
		{"end only asc", ptr[int64](3), ptr[int64](6), 10, widemap.InclusiveEndBoundOnly, widemap.Ascending, []int64{4, 5, 6}},
		{"inclusive desc", ptr[int64](6), ptr[int64](3), 10, widemap.InclusiveBounds, widemap.Descending, []int64{6, 5, 4, 3}},
		{"end only desc", ptr[int64](6), ptr[int64](3), 10, widemap.InclusiveEndBoundOnly, widemap.Descending, []int64{5, 4, 3}},
		{"count caps asc", nil, nil, 3, widemap.InclusiveBounds, widemap.Ascending, []int64{1, 2, 3}},
		{"count caps desc", nil, nil, 3, widemap.InclusiveBounds, widemap.Descending, []int64{9, 8, 7}},
		{"open end", ptr[int64](8), nil, 10, widemap.InclusiveBounds, widemap.Ascending, []int64{8, 9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys, err := m.FindKeys(ctx, tt.start, tt.end, tt.count, tt.bounding, tt.ordering)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(keys), tt.count)
			assert.Equal(t, tt.want, keys)
		})
	}

	t.Run("values", func(t *testing.T) {
		values, err := m.FindValues(ctx, ptr[int64](2), ptr[int64](3), 10, widemap.InclusiveBounds, widemap.Ascending)
		require.NoError(t, err)
		assert.Equal(t, []string{"v2", "v3"}, values)
	})

	t.Run("first and last", func(t *testing.T) {
		kv, found, err := m.FindFirst(ctx)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, int64(1), kv.Key)

		kv, found, err = m.FindLast(ctx)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "v9", kv.Value)

		kvs, err := m.FindLastN(ctx, 2)
		require.NoError(t, err)
		require.Len(t, kvs, 2)
		assert.Equal(t, int64(8), kvs[1].Key)

		kvs, err = m.FindFirstN(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(2), kvs[1].Key)
	})

	t.Run("invalid range", func(t *testing.T) {
		_, err := m.Find(ctx, ptr[int64](6), ptr[int64](3), 10, widemap.InclusiveBounds, widemap.Ascending)
		assert.True(t, errors.IsInvalidRange(err))

		_, err = m.Find(ctx, ptr[int64](3), ptr[int64](6), 10, widemap.InclusiveBounds, widemap.Descending)
		assert.True(t, errors.IsInvalidRange(err))

		_, err = m.Find(ctx, nil, nil, 0, widemap.InclusiveBounds, widemap.Ascending)
		assert.True(t, errors.IsInvalidArgument(err))
	})

	t.Run("empty map", func(t *testing.T) {
		empty, err := widemap.New(backend, widemap.Meta[int64, string]{
			Property:     "events",
			ColumnFamily: "user_events",
			Keys:         widemap.SimpleKey[int64](serializer.Int64),
			Values:       serializer.Value[string](serializer.String),
		}, []byte("nobody"))
		require.NoError(t, err)
		_, found, err := empty.FindFirst(ctx)
		require.NoError(t, err)
		assert.False(t, found)
	})
}

func TestFindCompositeScenario(t *testing.T) {
	ctx := context.Background()
	backend, _, _ := newBackend()
	m := newTimeline(t, backend)

	entries := []struct {
		key   tweetKey
		value string
	}{
		{tweetKey{"bar", 1}, "v1"},
		{tweetKey{"bar", 2}, "v2"},
		{tweetKey{"foo", 3}, "v3"},
		{tweetKey{"qux", 4}, "v4"},
		{tweetKey{"qux", 5}, "v5"},
	}
	for _, e := range entries {
		require.NoError(t, m.Insert(ctx, e.key, e.value))
	}

	kvs, err := m.Find(ctx, &tweetKey{"qux", 5}, &tweetKey{"foo", 3}, 10,
		widemap.InclusiveEndBoundOnly, widemap.Descending)
	require.NoError(t, err)
	require.Len(t, kvs, 2)
	assert.Equal(t, tweetKey{"qux", 4}, kvs[0].Key)
	assert.Equal(t, "v4", kvs[0].Value)
	assert.Equal(t, tweetKey{"foo", 3}, kvs[1].Key)
	assert.Equal(t, "v3", kvs[1].Value)
}

func TestPartialCompoundBounds(t *testing.T) {
	type key struct {
		Bucket string
		Seq    *int64
	}
	keys := widemap.CompoundKey(
		widemap.NewField("bucket", serializer.String,
			func(k key) string { return k.Bucket },
			func(k *key, v string) { k.Bucket = v }),
		widemap.NewOptionalField("seq", serializer.Int64,
			func(k key) *int64 { return k.Seq },
			func(k *key, v int64) { k.Seq = &v }),
	)

	ctx := context.Background()
	backend, _, _ := newBackend()
	m, err := widemap.New(backend, widemap.Meta[key, string]{
		Property:     "buckets",
		ColumnFamily: "buckets",
		Keys:         keys,
		Values:       serializer.JSON[string](),
	}, []byte("row"))
	require.NoError(t, err)

	for _, b := range []string{"a", "b", "c"} {
		for i := int64(1); i <= 2; i++ {
			require.NoError(t, m.Insert(ctx, key{b, ptr(i)}, b))
		}
	}

	values, err := m.FindValues(ctx, &key{Bucket: "b"}, &key{Bucket: "b"}, 10, widemap.InclusiveBounds, widemap.Ascending)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "b"}, values)

	kvs, err := m.Find(ctx, &key{Bucket: "a"}, &key{Bucket: "c"}, 10, widemap.ExclusiveBounds, widemap.Ascending)
	require.NoError(t, err)
	require.Len(t, kvs, 2)
	assert.Equal(t, int64(1), *kvs[0].Key.Seq)
	assert.Equal(t, "b", kvs[1].Key.Bucket)
}

func TestIteratorRefills(t *testing.T) {
	ctx := context.Background()
	backend, driver, policy := newBackend()
	m := newSeqMap(t, backend)
	seed(t, m, 7)
	driver.ResetCalls()

	var batches []int
	it, err := m.Iterator(ctx, nil, nil, 5, widemap.InclusiveBounds, widemap.Ascending,
		widemap.WithIteratorOptions(storagemodels.WithProgressHandler(func(p storagemodels.IteratorProgress) {
			batches = append(batches, p.LastBatchSize)
		})))
	require.NoError(t, err)
	assert.Empty(t, driver.Calls(), "iterators fetch lazily")

	var keys []int64
	for it.HasNext() {
		kv, err := it.Next()
		require.NoError(t, err)
		keys = append(keys, kv.Key)
		assert.Zero(t, policy.Outstanding())
	}
	require.NoError(t, it.Err())

	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7}, keys)
	assert.Equal(t, []int{5, 2}, batches)
	assert.Equal(t, 2, it.Progress().Refills)

	slices := driver.CallsTo("slice")
	require.Len(t, slices, 2)
	assert.Nil(t, slices[0].Query.After)
	assert.NotNil(t, slices[1].Query.After)
	assert.Equal(t, 5, slices[1].Query.Limit)

	_, err = it.Next()
	assert.True(t, errors.IsNoSuchElement(err))
}

func TestIteratorDescendingAndExactBatches(t *testing.T) {
	ctx := context.Background()
	backend, driver, _ := newBackend()
	backend.IteratorOptions = []storagemodels.IteratorOption{storagemodels.WithBatchSize(3)}
	m := newSeqMap(t, backend)
	seed(t, m, 6)
	driver.ResetCalls()

	it, err := m.Iterator(ctx, nil, nil, 0, widemap.InclusiveBounds, widemap.Descending)
	require.NoError(t, err)

	var keys []int64
	for it.HasNext() {
		kv, err := it.Next()
		require.NoError(t, err)
		keys = append(keys, kv.Key)
	}
	assert.Equal(t, []int64{6, 5, 4, 3, 2, 1}, keys)
	// Two full batches leave the end unknown, the third comes back empty.
	assert.Len(t, driver.CallsTo("slice"), 3)
}

func TestIteratorRefillError(t *testing.T) {
	ctx := context.Background()
	backend, driver, policy := newBackend()
	m := newSeqMap(t, backend)
	seed(t, m, 3)

	failure := fmt.Errorf("connection reset")
	driver.WithSliceError(failure)

	it, err := m.Iterator(ctx, nil, nil, 2, widemap.InclusiveBounds, widemap.Ascending)
	require.NoError(t, err)
	assert.False(t, it.HasNext())
	assert.Equal(t, failure, it.Err())
	_, err = it.Next()
	assert.Equal(t, failure, err)
	assert.Zero(t, policy.Outstanding())
}

func TestIteratorRemove(t *testing.T) {
	ctx := context.Background()
	backend, _, _ := newBackend()
	log := widemap.NewMutationLog()
	backend.Dirty = log
	m := newSeqMap(t, backend)
	seed(t, m, 4)

	it, err := m.Iterator(ctx, nil, nil, 10, widemap.InclusiveBounds, widemap.Ascending)
	require.NoError(t, err)

	assert.True(t, errors.IsInvalidArgument(it.Remove()), "Remove before Next")

	for it.HasNext() {
		kv, err := it.Next()
		require.NoError(t, err)
		if kv.Key%2 == 0 {
			require.NoError(t, it.Remove())
		}
	}

	keys, err := m.FindKeys(ctx, nil, nil, 10, widemap.InclusiveBounds, widemap.Ascending)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, keys)

	assert.True(t, log.Dirty("events"))
	assert.Equal(t, []string{"events"}, log.Properties())
	assert.Len(t, log.Mutations("events"), 2)
	log.Reset()
	assert.False(t, log.Dirty("events"))
}

func TestRemove(t *testing.T) {
	ctx := context.Background()

	t.Run("point", func(t *testing.T) {
		backend, _, _ := newBackend()
		m := newSeqMap(t, backend)
		seed(t, m, 3)

		require.NoError(t, m.Remove(ctx, 2))
		_, found, err := m.Get(ctx, 2)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("range", func(t *testing.T) {
		backend, driver, _ := newBackend()
		m := newSeqMap(t, backend)
		seed(t, m, 9)

		require.NoError(t, m.RemoveRange(ctx, ptr[int64](3), ptr[int64](7), widemap.ExclusiveBounds))
		keys, err := m.FindKeys(ctx, nil, nil, 20, widemap.InclusiveBounds, widemap.Ascending)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2, 3, 7, 8, 9}, keys)
		assert.Len(t, driver.CallsTo("mutate"), 1)
	})

	t.Run("first and last", func(t *testing.T) {
		backend, _, _ := newBackend()
		m := newSeqMap(t, backend)
		seed(t, m, 6)

		require.NoError(t, m.RemoveFirst(ctx, 2))
		require.NoError(t, m.RemoveLast(ctx, 1))
		keys, err := m.FindKeys(ctx, nil, nil, 20, widemap.InclusiveBounds, widemap.Ascending)
		require.NoError(t, err)
		assert.Equal(t, []int64{3, 4, 5}, keys)

		assert.True(t, errors.IsInvalidArgument(m.RemoveFirst(ctx, 0)))
	})
}

func TestLevelSlotAlwaysReleased(t *testing.T) {
	ctx := context.Background()
	failure := fmt.Errorf("storage unavailable")

	type operation func(m *widemap.WideMap[int64, string], opts ...widemap.Option) error
	operations := map[string]operation{
		"get": func(m *widemap.WideMap[int64, string], opts ...widemap.Option) error {
			_, _, err := m.Get(ctx, 1, opts...)
			return err
		},
		"insert": func(m *widemap.WideMap[int64, string], opts ...widemap.Option) error {
			return m.Insert(ctx, 1, "v", opts...)
		},
		"find": func(m *widemap.WideMap[int64, string], opts ...widemap.Option) error {
			_, err := m.Find(ctx, nil, nil, 5, widemap.InclusiveBounds, widemap.Descending, opts...)
			return err
		},
		"remove": func(m *widemap.WideMap[int64, string], opts ...widemap.Option) error {
			return m.Remove(ctx, 1, opts...)
		},
		"remove range": func(m *widemap.WideMap[int64, string], opts ...widemap.Option) error {
			return m.RemoveRange(ctx, nil, nil, widemap.InclusiveBounds, opts...)
		},
	}

	for name, op := range operations {
		t.Run(name+" success", func(t *testing.T) {
			backend, _, policy := newBackend()
			m := newSeqMap(t, backend)
			seed(t, m, 2)

			require.NoError(t, op(m))
			assert.Zero(t, policy.Outstanding())
		})

		t.Run(name+" failure", func(t *testing.T) {
			backend, driver, policy := newBackend()
			m := newSeqMap(t, backend)
			seed(t, m, 2)
			driver.WithGetError(failure).
				WithSetError(failure).
				WithDeleteError(failure).
				WithSliceError(failure).
				WithMutateError(failure)

			assert.Equal(t, failure, op(m))
			assert.Zero(t, policy.Outstanding())
		})

		t.Run(name+" consistency violation", func(t *testing.T) {
			backend, driver, policy := newBackend()
			m := newSeqMap(t, backend)
			driver.WithUnavailableLevel(consistency.All)

			err := op(m, widemap.WithLevel(consistency.All))
			assert.True(t, errors.IsConsistencyViolation(err), "got %v", err)
			assert.Zero(t, policy.Outstanding())
		})
	}
}

func TestLevelResolution(t *testing.T) {
	ctx := context.Background()
	backend, driver, policy := newBackend()
	policy.SetDefaults("user_events", consistency.LocalQuorum, consistency.Quorum)
	m := newSeqMap(t, backend)

	require.NoError(t, m.Insert(ctx, 1, "v"))
	_, _, err := m.Get(ctx, 1)
	require.NoError(t, err)
	_, _, err = m.Get(ctx, 1, widemap.WithLevel(consistency.All))
	require.NoError(t, err)

	pinned, pin := policy.StartBatch(ctx, consistency.One, consistency.Two)
	_, _, err = m.Get(pinned, 1)
	require.NoError(t, err)
	pin.Release()

	calls := driver.Calls()
	require.Len(t, calls, 4)
	assert.Equal(t, consistency.Quorum, calls[0].Level)
	assert.Equal(t, consistency.LocalQuorum, calls[1].Level)
	assert.Equal(t, consistency.All, calls[2].Level)
	assert.Equal(t, consistency.One, calls[3].Level)

	_, _, err = m.Get(ctx, 1, widemap.WithLevel(consistency.Any))
	assert.True(t, errors.IsInvalidArgument(err))
	assert.Zero(t, policy.Outstanding())
}

func TestWritesQueueInBatch(t *testing.T) {
	backend, driver, _ := newBackend()
	m := newSeqMap(t, backend)
	counters, err := widemap.NewCounterMap(backend, widemap.CounterMeta[int64]{
		Property:     "likes",
		ColumnFamily: "user_likes",
		Keys:         widemap.SimpleKey[int64](serializer.Int64),
	}, []byte("user-1"))
	require.NoError(t, err)

	batch := datastore.NewBatch()
	ctx := datastore.WithBatch(context.Background(), batch)

	require.NoError(t, m.Insert(ctx, 1, "one"))
	require.NoError(t, m.Insert(ctx, 2, "two"))
	require.NoError(t, m.Remove(ctx, 1))
	require.NoError(t, counters.Incr(ctx, 1))
	assert.Empty(t, driver.Calls())
	assert.Equal(t, 4, batch.Len())

	require.NoError(t, batch.Flush(context.Background(), driver))
	assert.Len(t, driver.CallsTo("mutate"), 1)

	keys, err := m.FindKeys(context.Background(), nil, nil, 10, widemap.InclusiveBounds, widemap.Ascending)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, keys)

	n, err := counters.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCounterMap(t *testing.T) {
	ctx := context.Background()
	backend, _, policy := newBackend()
	c, err := widemap.NewCounterMap(backend, widemap.CounterMeta[string]{
		Property:     "clicks",
		ColumnFamily: "page_clicks",
		Keys:         widemap.SimpleKey[string](serializer.String),
	}, []byte("site"))
	require.NoError(t, err)

	require.NoError(t, c.Incr(ctx, "/home"))
	require.NoError(t, c.IncrBy(ctx, "/home", 10))
	require.NoError(t, c.Decr(ctx, "/home"))
	require.NoError(t, c.DecrBy(ctx, "/home", 2))

	n, err := c.Get(ctx, "/home")
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)

	require.NoError(t, c.Remove(ctx, "/home"))
	n, err = c.Get(ctx, "/home")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, policy.Outstanding())

	_, err = widemap.NewCounterMap(backend, widemap.CounterMeta[string]{Property: "clicks"}, nil)
	assert.Error(t, err)
}
