/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/widerow/storagemodels"
)

// buildQueryInput translates a slice query into a DynamoDB Query on the row's
// partition. It returns nil when the bounds cannot admit any name.
func (d *Driver) buildQueryInput(ctx context.Context, q storagemodels.SliceQuery, now time.Time) *sdk.QueryInput {
	keyCond := "#pk = :pk"
	names := map[string]string{
		"#pk":  AttrPartitionKey,
		"#ttl": AttrTTL,
	}
	values := map[string]types.AttributeValue{
		":pk":  &types.AttributeValueMemberS{Value: PartitionKey(q.ColumnFamily, q.RowKey)},
		":now": ttlFilterValue(now),
	}

	lo, hi := q.Bounds.Lower(), q.Bounds.Upper()
	switch {
	case len(lo) > 0 && len(hi) > 0:
		if bytes.Compare(lo, hi) > 0 {
			return nil
		}
		keyCond += " AND #sk BETWEEN :lo AND :hi"
		values[":lo"] = &types.AttributeValueMemberB{Value: lo}
		values[":hi"] = &types.AttributeValueMemberB{Value: hi}
	case len(lo) > 0:
		keyCond += " AND #sk >= :lo"
		values[":lo"] = &types.AttributeValueMemberB{Value: lo}
	case len(hi) > 0:
		keyCond += " AND #sk <= :hi"
		values[":hi"] = &types.AttributeValueMemberB{Value: hi}
	}
	if len(lo) > 0 || len(hi) > 0 {
		names["#sk"] = AttrSortKey
	}

	input := &sdk.QueryInput{
		TableName:                 aws.String(d.tableName),
		KeyConditionExpression:    aws.String(keyCond),
		FilterExpression:          aws.String(ttlFilterExpr()),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ScanIndexForward:          aws.Bool(!q.Reversed()),
		ConsistentRead:            consistentRead(ctx),
	}
	if len(q.After) > 0 {
		input.ExclusiveStartKey = itemKey(q.ColumnFamily, q.RowKey, q.After)
	}
	return input
}

// Slice returns the columns admitted by q. Pages are fetched until the limit
// is reached or the partition range is exhausted; expired columns filtered out
// by DynamoDB do not count against the limit.
func (d *Driver) Slice(ctx context.Context, q storagemodels.SliceQuery) ([]storagemodels.Column, error) {
	now := d.opts.Now()
	input := d.buildQueryInput(ctx, q, now)
	results := make([]storagemodels.Column, 0)
	if input == nil {
		return results, nil
	}

	pages := 0
	for {
		if q.Limit > 0 {
			input.Limit = aws.Int32(int32(min(q.Limit-len(results), math.MaxInt32)))
		}

		out, err := d.queryWithRetry(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("query error: %w", err)
		}
		pages++

		for _, item := range out.Items {
			if isExpired(item, now) {
				continue
			}
			col, err := d.unmarshalColumn(item)
			if err != nil {
				return nil, err
			}
			if !q.Admits(col.Name) {
				continue
			}
			results = append(results, col)
			if q.Limit > 0 && len(results) >= q.Limit {
				d.logger.Debug("slice complete", "column_family", q.ColumnFamily, "pages", pages, "columns", len(results))
				return results, nil
			}
		}

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	d.logger.Debug("slice complete", "column_family", q.ColumnFamily, "pages", pages, "columns", len(results))
	return results, nil
}
