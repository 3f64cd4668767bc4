/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package stream provides DynamoDB Streams handlers for join cascades.
package stream

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/aws/aws-lambda-go/events"

	"github.com/suparena/widerow/datastore/ddb"
	"github.com/suparena/widerow/join"
)

// TTL deletions are reported with this identity on the stream record.
const (
	ttlIdentityType      = "Service"
	ttlIdentityPrincipal = "dynamodb.amazonaws.com"
)

// Handler removes the entities referenced by join columns that DynamoDB
// expired. Application deletes already cascade through the join map and are
// skipped.
type Handler struct {
	remover       join.Remover
	relationships *join.Relationships
	logger        *slog.Logger
}

// NewHandler creates a new stream handler.
func NewHandler(remover join.Remover, relationships *join.Relationships, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if relationships == nil {
		relationships = join.NewRelationships()
	}
	return &Handler{
		remover:       remover,
		relationships: relationships,
		logger:        logger,
	}
}

// HandleExpiredColumns processes DynamoDB stream events and cascades removal
// of TTL-expired join columns. This function is designed to be used as an
// AWS Lambda handler.
func (h *Handler) HandleExpiredColumns(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.Error("failed to process record",
				"eventID", record.EventID,
				"error", err,
			)
			return err // Will retry, eventually DLQ
		}
	}
	return nil
}

func (h *Handler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	if record.EventName != string(events.DynamoDBOperationTypeRemove) || !expiredByTTL(record) {
		return nil
	}

	pk := getStringAttr(record.Change.Keys, ddb.AttrPartitionKey)
	if pk == "" {
		pk = getStringAttr(record.Change.OldImage, ddb.AttrPartitionKey)
	}
	columnFamily, rowKey, err := ddb.ParsePartitionKey(pk)
	if err != nil {
		return fmt.Errorf("parse partition key: %w", err)
	}

	props, ok := h.relationships.Lookup(columnFamily)
	if !ok || !props.Cascade.Removes() {
		return nil
	}

	raw := getBinaryAttr(record.Change.OldImage, ddb.AttrValue)
	if raw == nil {
		h.logger.Warn("expired join column has no value in the old image, is the stream view OLD_IMAGE?",
			"columnFamily", columnFamily,
			"eventID", record.EventID,
		)
		return nil
	}
	id, err := props.DecodeID(raw)
	if err != nil {
		return fmt.Errorf("column family %s: %w", columnFamily, err)
	}

	h.logger.Info("cascading expired join column",
		"columnFamily", columnFamily,
		"row", string(rowKey),
		"type", props.Target.Type,
		"id", id,
		"ttl", getNumberAttr(record.Change.OldImage, ddb.AttrTTL),
	)

	if h.remover == nil {
		return fmt.Errorf("no remover configured for %s", props.Target.Type)
	}
	if err := h.remover.Remove(ctx, props.Target, id); err != nil {
		return fmt.Errorf("remove %s %v: %w", props.Target.Type, id, err)
	}
	return nil
}

func expiredByTTL(record events.DynamoDBEventRecord) bool {
	identity := record.UserIdentity
	return identity != nil && identity.Type == ttlIdentityType && identity.PrincipalID == ttlIdentityPrincipal
}

// getStringAttr extracts a string attribute from a DynamoDB stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeString {
		return v.String()
	}
	return ""
}

// getBinaryAttr extracts a binary attribute from a DynamoDB stream image.
func getBinaryAttr(image map[string]events.DynamoDBAttributeValue, key string) []byte {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeBinary {
		return v.Binary()
	}
	return nil
}

// getNumberAttr extracts a number attribute from a DynamoDB stream image.
func getNumberAttr(image map[string]events.DynamoDBAttributeValue, key string) int64 {
	if v, ok := image[key]; ok {
		if v.DataType() == events.DataTypeNumber {
			n, _ := strconv.ParseInt(v.Number(), 10, 64)
			return n
		}
	}
	return 0
}
