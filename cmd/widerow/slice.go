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

type sliceOptions struct {
	*rootOptions
	ColumnFamily string
	Row          string
	Components   string
	Start        string
	End          string
	Bounds       string
	Reverse      bool
	Limit        int
}

// boundModes maps --bounds values to start and end inclusiveness.
var boundModes = map[string][2]bool{
	"inclusive":  {true, true},
	"exclusive":  {false, false},
	"start-only": {true, false},
	"end-only":   {false, true},
}

func newSliceCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &sliceOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "slice",
		Short: "Read a range of columns",
		Long: `Read the columns of one row between two composite keys.

--start and --end take comma-separated component values and may stop
early: missing trailing components leave that part of the range open.
With --reverse the range is walked from the highest key down and --start
is the higher bound.

Examples:
  widerow slice --cf user_tweets --row alice --components string,timeuuid --start 2025-06 --end 2025-06
  widerow slice --cf user_tweets --row alice --components string,timeuuid --reverse --limit 20
  widerow slice --cf scores --row game-1 --components int64 --start 10 --end 20 --bounds start-only --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSlice(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.ColumnFamily, "cf", "", "column family (required)")
	cmd.Flags().StringVar(&opts.Row, "row", "", "row key (required)")
	cmd.Flags().StringVar(&opts.Components, "components", "", "comma-separated component types, e.g. string,timeuuid (required)")
	cmd.Flags().StringVar(&opts.Start, "start", "", "start key, open when empty")
	cmd.Flags().StringVar(&opts.End, "end", "", "end key, open when empty")
	cmd.Flags().StringVar(&opts.Bounds, "bounds", "inclusive", "inclusive|exclusive|start-only|end-only")
	cmd.Flags().BoolVar(&opts.Reverse, "reverse", false, "walk the range in descending order")
	cmd.Flags().IntVar(&opts.Limit, "limit", 100, "maximum number of columns")
	_ = cmd.MarkFlagRequired("cf")
	_ = cmd.MarkFlagRequired("row")
	_ = cmd.MarkFlagRequired("components")

	return cmd
}

func runSlice(cmd *cobra.Command, opts *sliceOptions) error {
	mode, ok := boundModes[opts.Bounds]
	if !ok {
		return fmt.Errorf("invalid --bounds %q", opts.Bounds)
	}
	if opts.Limit <= 0 {
		return fmt.Errorf("--limit must be positive, got %d", opts.Limit)
	}
	serializers, err := parseSerializers(opts.Components)
	if err != nil {
		return err
	}
	start, err := parseKey(serializers, opts.Start)
	if err != nil {
		return fmt.Errorf("--start: %w", err)
	}
	end, err := parseKey(serializers, opts.End)
	if err != nil {
		return fmt.Errorf("--end: %w", err)
	}

	codec := composite.NewCodec(opts.ColumnFamily, serializers...)
	bounds, err := composite.NewBoundBuilder(codec).BuildStartEnd(start, mode[0], end, mode[1], opts.Reverse)
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

	cols, err := session.Driver().Slice(ctx, storagemodels.SliceQuery{
		ColumnFamily: opts.ColumnFamily,
		RowKey:       []byte(opts.Row),
		Bounds:       bounds,
		Limit:        opts.Limit,
	})
	if err != nil {
		return err
	}

	views, err := viewColumns(codec, cols)
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), opts.Format, views)
}
