//go:build integration
// +build integration

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"

	"github.com/suparena/widerow/composite"
	"github.com/suparena/widerow/consistency"
	"github.com/suparena/widerow/serializer"
	"github.com/suparena/widerow/storagemodels"
)

func openIntegrationDriver(t *testing.T) *Driver {
	t.Helper()
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, proceeding with environment variables")
	}

	tableName := os.Getenv("AWS_DDB_TABLE")
	if tableName == "" {
		t.Skip("AWS_DDB_TABLE not set, skipping integration test")
	}

	d, err := Open(context.Background(), ClientConfig{
		AccessKey: os.Getenv("AWS_ACCESS_KEY"),
		SecretKey: os.Getenv("AWS_SECRET_KEY"),
		Region:    os.Getenv("AWS_REGION"),
		Endpoint:  os.Getenv("AWS_DDB_ENDPOINT"),
	}, tableName)
	require.NoError(t, err)
	return d
}

func TestIntegrationSliceRoundTrip(t *testing.T) {
	d := openIntegrationDriver(t)
	ctx := consistency.WithLevel(context.Background(), consistency.Quorum)

	codec := composite.NewCodec("events", serializer.String, serializer.Int64)
	row := []byte("it-" + time.Now().Format(time.RFC3339Nano))

	var mutations []storagemodels.Mutation
	for i := int64(0); i < 40; i++ {
		name, err := codec.EncodeExact([]any{"bucket", i})
		require.NoError(t, err)
		mutations = append(mutations, storagemodels.SetColumn("events", row, storagemodels.Column{Name: name, Value: []byte("x"), TTL: 600}))
	}
	require.NoError(t, d.Mutate(ctx, mutations))

	bounds, err := composite.NewBoundBuilder(codec).BuildStartEnd([]any{"bucket", int64(10)}, true, []any{"bucket", int64(19)}, true, true)
	require.NoError(t, err)

	cols, err := d.Slice(ctx, storagemodels.SliceQuery{ColumnFamily: "events", RowKey: row, Bounds: bounds, Limit: 5})
	require.NoError(t, err)
	require.Len(t, cols, 5)

	first, err := codec.DecodeValues(cols[0].Name)
	require.NoError(t, err)
	require.Equal(t, int64(19), first[1])

	for _, m := range mutations {
		require.NoError(t, d.Delete(ctx, "events", row, m.Column.Name))
	}
}
