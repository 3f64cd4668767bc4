/*
Package widerow provides typed, ordered access to the columns of wide rows
stored in DynamoDB, SQLite or memory, with per-call consistency levels and
references to entities stored elsewhere.

A row holds many columns whose names are composite keys. Columns are kept in
key order, so a wide map answers range queries ("the last 20 tweets of
alice", "events between two time UUIDs") with one slice per page.

Key Features:
  - Order-preserving composite column names built from typed key components
  - Inclusive, exclusive and half-open ranges, ascending or descending
  - Lazy iterators that page through a range in fixed-size batches
  - Consistency levels per call, per column family and per batch
  - Join maps whose values reference entities, with cascading persist and remove
  - Counter maps
  - Prometheus metrics and a DynamoDB Streams handler for expired join columns

Basic Usage:

	cfg, _ := config.Load("widerow.yaml")
	session, _ := widerow.Open(ctx, cfg)
	defer session.Close()

	widerow.DeclareWideMap(session, widemap.Meta[TweetKey, Tweet]{
		Property:     "tweets",
		ColumnFamily: "user_tweets",
		Keys:         widemap.CompoundKey(bucket, postedAt),
		Values:       serializer.JSON[Tweet](),
	})

	tweets, _ := widerow.OpenWideMap[TweetKey, Tweet](session, "tweets", []byte("alice"))
	latest, _ := tweets.FindLastN(ctx, 20)

Writes made inside a batch are sent in a single mutation:

	ctx, batch := session.StartBatch(ctx, consistency.Unset, consistency.Quorum)
	_ = tweets.Insert(ctx, key, tweet)
	err := batch.End(ctx)
*/
package widerow
