/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"bytes"
	"context"
	"sort"
	"strconv"
	"sync"

	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeDynamo is an in-memory stand-in for the subset of DynamoDB the driver
// uses. It understands the expressions the driver builds, not general ones.
type fakeDynamo struct {
	mu    sync.Mutex
	items map[string][]map[string]types.AttributeValue

	// pageSize caps the items evaluated per Query page, like the 1 MB limit.
	pageSize int
	// unprocessedOnce makes the next BatchWriteItem leave its last request unprocessed.
	unprocessedOnce bool

	queries    []*sdk.QueryInput
	gets       []*sdk.GetItemInput
	batchCalls int
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string][]map[string]types.AttributeValue)}
}

func pkOf(item map[string]types.AttributeValue) string {
	return item[AttrPartitionKey].(*types.AttributeValueMemberS).Value
}

func skOf(item map[string]types.AttributeValue) []byte {
	return item[AttrSortKey].(*types.AttributeValueMemberB).Value
}

func (f *fakeDynamo) find(key map[string]types.AttributeValue) (int, bool) {
	row := f.items[pkOf(key)]
	sk := skOf(key)
	i := sort.Search(len(row), func(i int) bool { return bytes.Compare(skOf(row[i]), sk) >= 0 })
	return i, i < len(row) && bytes.Equal(skOf(row[i]), sk)
}

func (f *fakeDynamo) put(item map[string]types.AttributeValue) {
	pk := pkOf(item)
	i, ok := f.find(item)
	if ok {
		f.items[pk][i] = item
		return
	}
	row := append(f.items[pk], nil)
	copy(row[i+1:], row[i:])
	row[i] = item
	f.items[pk] = row
}

func (f *fakeDynamo) remove(key map[string]types.AttributeValue) {
	pk := pkOf(key)
	if i, ok := f.find(key); ok {
		f.items[pk] = append(f.items[pk][:i], f.items[pk][i+1:]...)
	}
}

func (f *fakeDynamo) GetItem(ctx context.Context, in *sdk.GetItemInput, _ ...func(*sdk.Options)) (*sdk.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets = append(f.gets, in)

	if i, ok := f.find(in.Key); ok {
		return &sdk.GetItemOutput{Item: f.items[pkOf(in.Key)][i]}, nil
	}
	return &sdk.GetItemOutput{}, nil
}

func (f *fakeDynamo) PutItem(ctx context.Context, in *sdk.PutItemInput, _ ...func(*sdk.Options)) (*sdk.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.put(in.Item)
	return &sdk.PutItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(ctx context.Context, in *sdk.DeleteItemInput, _ ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remove(in.Key)
	return &sdk.DeleteItemOutput{}, nil
}

func (f *fakeDynamo) UpdateItem(ctx context.Context, in *sdk.UpdateItemInput, _ ...func(*sdk.Options)) (*sdk.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delta, _ := strconv.ParseInt(in.ExpressionAttributeValues[":delta"].(*types.AttributeValueMemberN).Value, 10, 64)
	item := map[string]types.AttributeValue{
		AttrPartitionKey: in.Key[AttrPartitionKey],
		AttrSortKey:      in.Key[AttrSortKey],
	}
	if i, ok := f.find(in.Key); ok {
		item = f.items[pkOf(in.Key)][i]
	}
	var current int64
	if n, ok := item[AttrCounter].(*types.AttributeValueMemberN); ok {
		current, _ = strconv.ParseInt(n.Value, 10, 64)
	}
	item[AttrCounter] = &types.AttributeValueMemberN{Value: strconv.FormatInt(current+delta, 10)}
	f.put(item)
	return &sdk.UpdateItemOutput{}, nil
}

func (f *fakeDynamo) BatchWriteItem(ctx context.Context, in *sdk.BatchWriteItemInput, _ ...func(*sdk.Options)) (*sdk.BatchWriteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls++

	out := &sdk.BatchWriteItemOutput{UnprocessedItems: map[string][]types.WriteRequest{}}
	for table, requests := range in.RequestItems {
		if f.unprocessedOnce && len(requests) > 0 {
			f.unprocessedOnce = false
			out.UnprocessedItems[table] = requests[len(requests)-1:]
			requests = requests[:len(requests)-1]
		}
		for _, r := range requests {
			if r.PutRequest != nil {
				f.put(r.PutRequest.Item)
			}
			if r.DeleteRequest != nil {
				f.remove(r.DeleteRequest.Key)
			}
		}
	}
	return out, nil
}

func (f *fakeDynamo) Query(ctx context.Context, in *sdk.QueryInput, _ ...func(*sdk.Options)) (*sdk.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, in)

	values := in.ExpressionAttributeValues
	row := f.items[values[":pk"].(*types.AttributeValueMemberS).Value]
	now, _ := strconv.ParseInt(values[":now"].(*types.AttributeValueMemberN).Value, 10, 64)

	var lo, hi []byte
	if v, ok := values[":lo"]; ok {
		lo = v.(*types.AttributeValueMemberB).Value
	}
	if v, ok := values[":hi"]; ok {
		hi = v.(*types.AttributeValueMemberB).Value
	}

	var ordered []map[string]types.AttributeValue
	for _, item := range row {
		sk := skOf(item)
		if (lo != nil && bytes.Compare(sk, lo) < 0) || (hi != nil && bytes.Compare(sk, hi) > 0) {
			continue
		}
		ordered = append(ordered, item)
	}
	forward := in.ScanIndexForward == nil || *in.ScanIndexForward
	if !forward {
		for i, j := 0, len(ordered)-1; i < j; i, j = i+1, j-1 {
			ordered[i], ordered[j] = ordered[j], ordered[i]
		}
	}

	if in.ExclusiveStartKey != nil {
		start := skOf(in.ExclusiveStartKey)
		for len(ordered) > 0 {
			cmp := bytes.Compare(skOf(ordered[0]), start)
			if (forward && cmp > 0) || (!forward && cmp < 0) {
				break
			}
			ordered = ordered[1:]
		}
	}

	limit := len(ordered)
	if in.Limit != nil && int(*in.Limit) < limit {
		limit = int(*in.Limit)
	}
	if f.pageSize > 0 && f.pageSize < limit {
		limit = f.pageSize
	}

	out := &sdk.QueryOutput{}
	for _, item := range ordered[:limit] {
		if ttl, ok := item[AttrTTL].(*types.AttributeValueMemberN); ok {
			if v, _ := strconv.ParseInt(ttl.Value, 10, 64); v <= now {
				continue
			}
		}
		out.Items = append(out.Items, item)
	}
	if limit > 0 && limit < len(ordered) {
		last := ordered[limit-1]
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			AttrPartitionKey: last[AttrPartitionKey],
			AttrSortKey:      last[AttrSortKey],
		}
	}
	out.Count = int32(len(out.Items))
	out.ScannedCount = int32(limit)
	return out, nil
}
