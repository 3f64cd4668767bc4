/*
Package widemap provides typed, dictionary-like access to wide rows.

A WideMap[K, V] reads and writes the columns of one row of a column family.
Keys are encoded into composite column names by a KeyMapper, values by a
serializer.ValueCodec:

	type TweetKey struct {
	    Bucket string
	    ID     uuid.UUID
	}

	keys := widemap.CompoundKey(
	    widemap.NewField("bucket", serializer.String,
	        func(k TweetKey) string { return k.Bucket },
	        func(k *TweetKey, v string) { k.Bucket = v }),
	    widemap.NewField("id", serializer.TimeUUID,
	        func(k TweetKey) uuid.UUID { return k.ID },
	        func(k *TweetKey, v uuid.UUID) { k.ID = v }),
	)

	timeline, err := widemap.New(backend, widemap.Meta[TweetKey, string]{
	    Property:     "timeline",
	    ColumnFamily: "user_timeline",
	    Keys:         keys,
	    Values:       serializer.Value[string](serializer.String),
	}, userID[:])

Every call resolves its consistency level through the backend's Policy: a
WithLevel option wins for that call, then an active batch pin, then the
column family default. Writes made with a context that carries a
datastore.Batch are queued in it instead of being sent.

Find loads its whole result in memory; use Iterator for long ranges. An
iterator fetches one batch per round trip and resumes after the last name it
saw.

JoinMap stores references to entities kept in their own column family and
CounterMap stores counters.
*/
package widemap
