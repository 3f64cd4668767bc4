package testmodels

import (
	"github.com/go-openapi/strfmt"

	"github.com/suparena/widerow/serializer"
	"github.com/suparena/widerow/widemap"
)

type Tweet struct {

	// Unique identifier for the tweet.
	// Required: true
	ID *string `json:"Id"`

	// Body of the tweet.
	// Required: true
	Text *string `json:"Text"`

	// Timestamp when the tweet was posted.
	// Required: true
	// Format: date-time
	PostedAt *strfmt.DateTime `json:"PostedAt"`

	// Reply count
	Replies int64 `json:"Replies,omitempty"`
}

// TimelineKey clusters the tweets of a user by month bucket, then by time.
type TimelineKey struct {

	// Month bucket, e.g. 2025-06
	Bucket string `json:"Bucket"`

	// Format: date-time
	PostedAt strfmt.DateTime `json:"PostedAt"`
}

// TimelineKeys maps TimelineKey to a (string, datetime) composite name.
func TimelineKeys() widemap.KeyMapper[TimelineKey] {
	return widemap.CompoundKey(
		widemap.NewField("bucket", serializer.String,
			func(k TimelineKey) string { return k.Bucket },
			func(k *TimelineKey, v string) { k.Bucket = v }),
		widemap.NewField("posted_at", serializer.DateTime,
			func(k TimelineKey) strfmt.DateTime { return k.PostedAt },
			func(k *TimelineKey, v strfmt.DateTime) { k.PostedAt = v }),
	)
}

// TimelineMeta stores tweets as JSON under their timeline key.
func TimelineMeta(property, columnFamily string) widemap.Meta[TimelineKey, Tweet] {
	return widemap.Meta[TimelineKey, Tweet]{
		Property:     property,
		ColumnFamily: columnFamily,
		Keys:         TimelineKeys(),
		Values:       serializer.JSON[Tweet](),
	}
}
