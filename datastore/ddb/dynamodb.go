/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/widerow/consistency"
	"github.com/suparena/widerow/storagemodels"
)

// Attribute names of a column item.
const (
	AttrPartitionKey = "PK"
	AttrSortKey      = "SK"
	AttrValue        = "V"
	AttrCounter      = "C"
	AttrTTL          = "ttl"
)

// columnItem is the stored form of one column. The partition key addresses the
// row, the binary sort key is the composite column name.
type columnItem struct {
	PK    string `dynamodbav:"PK"`
	SK    []byte `dynamodbav:"SK"`
	Value []byte `dynamodbav:"V,omitempty"`
	TTL   int64  `dynamodbav:"ttl,omitempty"`
}

// Driver implements datastore.Driver on a single DynamoDB table with a string
// partition key "PK" and a binary sort key "SK".
type Driver struct {
	client    API
	tableName string
	opts      Options
	logger    *slog.Logger
}

// New creates a driver over an existing client.
func New(client API, tableName string, opts ...Option) *Driver {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &Driver{
		client:    client,
		tableName: tableName,
		opts:      options,
		logger:    options.Logger.With("component", "ddb", "table", tableName),
	}
}

// Open creates a client from cc and returns a driver over tableName.
func Open(ctx context.Context, cc ClientConfig, tableName string, opts ...Option) (*Driver, error) {
	client, err := NewDynamoDBClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create DynamoDB client: %w", err)
	}
	d := New(client, tableName, opts...)
	d.logger.Info("dynamodb driver initialized", "region", cc.Region)
	return d, nil
}

// PartitionKey returns the partition key of a row.
func PartitionKey(columnFamily string, rowKey []byte) string {
	return columnFamily + "#" + base64.RawURLEncoding.EncodeToString(rowKey)
}

// ParsePartitionKey splits a partition key back into column family and row key.
func ParsePartitionKey(pk string) (string, []byte, error) {
	i := strings.LastIndex(pk, "#")
	if i < 0 {
		return "", nil, fmt.Errorf("partition key %q has no column family separator", pk)
	}
	rowKey, err := base64.RawURLEncoding.DecodeString(pk[i+1:])
	if err != nil {
		return "", nil, fmt.Errorf("partition key %q has an invalid row key: %w", pk, err)
	}
	return pk[:i], rowKey, nil
}

func itemKey(columnFamily string, rowKey, name []byte) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		AttrPartitionKey: &types.AttributeValueMemberS{Value: PartitionKey(columnFamily, rowKey)},
		AttrSortKey:      &types.AttributeValueMemberB{Value: name},
	}
}

func (d *Driver) marshalColumn(columnFamily string, rowKey []byte, col storagemodels.Column) (map[string]types.AttributeValue, error) {
	item := columnItem{
		PK:    PartitionKey(columnFamily, rowKey),
		SK:    col.Name,
		Value: col.Value,
	}
	if col.TTL > 0 {
		item.TTL = d.opts.Now().Add(time.Duration(col.TTL) * time.Second).Unix()
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal column: %w", err)
	}
	return av, nil
}

func (d *Driver) unmarshalColumn(av map[string]types.AttributeValue) (storagemodels.Column, error) {
	var item columnItem
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return storagemodels.Column{}, fmt.Errorf("failed to unmarshal column: %w", err)
	}
	col := storagemodels.Column{Name: item.SK, Value: item.Value}
	if item.TTL > 0 {
		if remaining := item.TTL - d.opts.Now().Unix(); remaining > 0 {
			col.TTL = int32(remaining)
		}
	}
	return col, nil
}

// consistentRead maps the level of the current call to DynamoDB's read mode.
func consistentRead(ctx context.Context) *bool {
	return aws.Bool(consistency.FromContext(ctx).Strong())
}

// Get retrieves a single column.
func (d *Driver) Get(ctx context.Context, columnFamily string, rowKey, name []byte) (storagemodels.Column, bool, error) {
	out, err := d.client.GetItem(ctx, &sdk.GetItemInput{
		TableName:      &d.tableName,
		Key:            itemKey(columnFamily, rowKey, name),
		ConsistentRead: consistentRead(ctx),
	})
	if err != nil {
		return storagemodels.Column{}, false, fmt.Errorf("GetItem error: %w", err)
	}
	if out.Item == nil || isExpired(out.Item, d.opts.Now()) {
		return storagemodels.Column{}, false, nil
	}

	col, err := d.unmarshalColumn(out.Item)
	if err != nil {
		return storagemodels.Column{}, false, err
	}
	return col, true, nil
}

// Set writes a single column.
func (d *Driver) Set(ctx context.Context, columnFamily string, rowKey []byte, col storagemodels.Column) error {
	av, err := d.marshalColumn(columnFamily, rowKey, col)
	if err != nil {
		return err
	}

	_, err = d.client.PutItem(ctx, &sdk.PutItemInput{
		TableName: &d.tableName,
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("PutItem failed: %w", err)
	}
	return nil
}

// Delete removes a column or a counter.
func (d *Driver) Delete(ctx context.Context, columnFamily string, rowKey, name []byte) error {
	_, err := d.client.DeleteItem(ctx, &sdk.DeleteItemInput{
		TableName: &d.tableName,
		Key:       itemKey(columnFamily, rowKey, name),
	})
	if err != nil {
		return fmt.Errorf("failed to delete item in DynamoDB: %w", err)
	}
	return nil
}

// CounterAdd atomically adds delta to a counter column.
func (d *Driver) CounterAdd(ctx context.Context, columnFamily string, rowKey, name []byte, delta int64) error {
	_, err := d.client.UpdateItem(ctx, counterUpdate(d.tableName, columnFamily, rowKey, name, delta))
	if err != nil {
		return fmt.Errorf("counter update failed: %w", err)
	}
	return nil
}

func counterUpdate(tableName, columnFamily string, rowKey, name []byte, delta int64) *sdk.UpdateItemInput {
	return &sdk.UpdateItemInput{
		TableName:        aws.String(tableName),
		Key:              itemKey(columnFamily, rowKey, name),
		UpdateExpression: aws.String("ADD #c :delta"),
		ExpressionAttributeNames: map[string]string{
			"#c": AttrCounter,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":delta": &types.AttributeValueMemberN{Value: strconv.FormatInt(delta, 10)},
		},
	}
}

// CounterGet returns the value of a counter column, zero when absent.
func (d *Driver) CounterGet(ctx context.Context, columnFamily string, rowKey, name []byte) (int64, error) {
	out, err := d.client.GetItem(ctx, &sdk.GetItemInput{
		TableName:            &d.tableName,
		Key:                  itemKey(columnFamily, rowKey, name),
		ConsistentRead:       consistentRead(ctx),
		ProjectionExpression: aws.String("#c"),
		ExpressionAttributeNames: map[string]string{
			"#c": AttrCounter,
		},
	})
	if err != nil {
		return 0, fmt.Errorf("GetItem error: %w", err)
	}

	attr, ok := out.Item[AttrCounter].(*types.AttributeValueMemberN)
	if !ok {
		return 0, nil
	}
	v, err := strconv.ParseInt(attr.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("counter value %q is not an integer: %w", attr.Value, err)
	}
	return v, nil
}

// Close releases nothing; the SDK client has no connection to close.
func (d *Driver) Close() error {
	return nil
}
