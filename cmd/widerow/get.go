/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suparena/widerow/composite"
	"github.com/suparena/widerow/storagemodels"
)

type getOptions struct {
	*rootOptions
	ColumnFamily string
	Row          string
	Components   string
	Key          string
}

func newGetCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &getOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Read a single column",
		Long: `Read the column of one row stored under a full composite key.

Key components are given comma-separated, in the order and types of --components.

Examples:
  widerow get --cf user_tweets --row alice --components string,timeuuid --key 2025-06,0a4e6f1e-4a3b-11f0-8000-0242ac120002
  widerow get --cf user_clicks --row alice --components string --key home --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.ColumnFamily, "cf", "", "column family (required)")
	cmd.Flags().StringVar(&opts.Row, "row", "", "row key (required)")
	cmd.Flags().StringVar(&opts.Components, "components", "", "comma-separated component types, e.g. string,timeuuid (required)")
	cmd.Flags().StringVar(&opts.Key, "key", "", "comma-separated component values (required)")
	_ = cmd.MarkFlagRequired("cf")
	_ = cmd.MarkFlagRequired("row")
	_ = cmd.MarkFlagRequired("components")
	_ = cmd.MarkFlagRequired("key")

	return cmd
}

func runGet(cmd *cobra.Command, opts *getOptions) error {
	serializers, err := parseSerializers(opts.Components)
	if err != nil {
		return err
	}
	key, err := parseKey(serializers, opts.Key)
	if err != nil {
		return err
	}
	if len(key) != len(serializers) {
		return fmt.Errorf("--key needs all %d components, got %d", len(serializers), len(key))
	}
	codec := composite.NewCodec(opts.ColumnFamily, serializers...)
	name, err := codec.EncodeExact(key)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	session, err := opts.openSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer session.Close()

	ctx, release, err := session.Policy().LoadForRead(ctx, opts.ColumnFamily, opts.readLevel())
	if err != nil {
		return err
	}
	defer release()

	col, found, err := session.Driver().Get(ctx, opts.ColumnFamily, []byte(opts.Row), name)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no column %q in row %q of %s", opts.Key, opts.Row, opts.ColumnFamily)
	}

	views, err := viewColumns(codec, []storagemodels.Column{col})
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), opts.Format, views)
}
