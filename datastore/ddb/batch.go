/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"errors"
	"fmt"
	"time"

	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/widerow/storagemodels"
)

// maxBatchWriteItems is the DynamoDB limit on requests per BatchWriteItem call.
const maxBatchWriteItems = 25

// Mutate applies a batch of mutations. Sets and deletes are sent with
// BatchWriteItem in chunks of 25, resubmitting unprocessed items; counter
// changes are applied one UpdateItem at a time since BatchWriteItem cannot
// express them. The batch is not atomic.
func (d *Driver) Mutate(ctx context.Context, mutations []storagemodels.Mutation) error {
	requests := make([]types.WriteRequest, 0, len(mutations))
	for _, m := range mutations {
		switch m.Kind {
		case storagemodels.MutationSet:
			av, err := d.marshalColumn(m.ColumnFamily, m.RowKey, m.Column)
			if err != nil {
				return err
			}
			requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: av}})
		case storagemodels.MutationDelete:
			requests = append(requests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: itemKey(m.ColumnFamily, m.RowKey, m.Column.Name)},
			})
		case storagemodels.MutationCounterAdd:
			if err := d.CounterAdd(ctx, m.ColumnFamily, m.RowKey, m.Column.Name, m.Delta); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unsupported mutation kind %v", m.Kind)
		}
	}

	for i := 0; i < len(requests); i += maxBatchWriteItems {
		end := min(i+maxBatchWriteItems, len(requests))
		if err := d.batchWriteWithRetry(ctx, requests[i:end]); err != nil {
			return err
		}
	}
	return nil
}

// batchWriteWithRetry writes one chunk and resubmits unprocessed items with
// linear backoff.
func (d *Driver) batchWriteWithRetry(ctx context.Context, requests []types.WriteRequest) error {
	pending := map[string][]types.WriteRequest{d.tableName: requests}

	for attempt := 0; attempt <= d.opts.MaxRetries; attempt++ {
		out, err := d.client.BatchWriteItem(ctx, &sdk.BatchWriteItemInput{RequestItems: pending})
		if err != nil && !isRetryableError(err) {
			return fmt.Errorf("batch write failed: %w", err)
		}
		if err == nil {
			if len(out.UnprocessedItems[d.tableName]) == 0 {
				return nil
			}
			pending = out.UnprocessedItems
			d.logger.Debug("resubmitting unprocessed items", "count", len(pending[d.tableName]), "attempt", attempt+1)
		}

		if attempt < d.opts.MaxRetries {
			if err := sleep(ctx, time.Duration(attempt+1)*d.opts.RetryBackoff); err != nil {
				return err
			}
		}
	}
	return fmt.Errorf("batch write failed after %d retries: %d items unprocessed", d.opts.MaxRetries, len(pending[d.tableName]))
}

// queryWithRetry executes a query with configurable retry logic
func (d *Driver) queryWithRetry(ctx context.Context, input *sdk.QueryInput) (*sdk.QueryOutput, error) {
	var lastErr error

	for attempt := 0; attempt <= d.opts.MaxRetries; attempt++ {
		out, err := d.client.Query(ctx, input)
		if err == nil {
			return out, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			return nil, err
		}

		// Don't sleep after last attempt
		if attempt < d.opts.MaxRetries {
			if err := sleep(ctx, time.Duration(attempt+1)*d.opts.RetryBackoff); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("query failed after %d retries: %w", d.opts.MaxRetries, lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// isRetryableError determines if a DynamoDB error is retryable
func isRetryableError(err error) bool {
	var (
		throughput *types.ProvisionedThroughputExceededException
		limit      *types.RequestLimitExceeded
		internal   *types.InternalServerError
	)
	if errors.As(err, &throughput) || errors.As(err, &limit) || errors.As(err, &internal) {
		return true
	}

	// Check for AWS SDK retryable errors
	var retryable interface{ IsRetryable() bool }
	if errors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return false
}
