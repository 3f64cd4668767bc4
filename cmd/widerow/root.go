/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/suparena/widerow"
	"github.com/suparena/widerow/config"
	"github.com/suparena/widerow/consistency"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	ConfigPath string
	NoColor    bool
	Format     string // "json" | "text"
	Level      string
	Verbose    bool
}

var validFormats = []string{"text", "json"}

var (
	header = color.New(color.Bold, color.FgCyan)
	dim    = color.New(color.Faint)
)

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "widerow",
		Short: "Inspect wide rows",
		Long:  "Read columns and column ranges from the backend configured for widerow.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
			}
			if _, err := consistency.ParseLevel(opts.Level); err != nil {
				return err
			}
			if opts.NoColor {
				color.NoColor = true
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to widerow.yaml (environment only when empty)")
	cmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "disable colored output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Level, "level", "", "consistency level of reads (default from config)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(newVersionCommand(opts))
	cmd.AddCommand(newGetCommand(opts))
	cmd.AddCommand(newSliceCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range validFormats {
		if f == format {
			return true
		}
	}
	return false
}

// openSession opens the configured backend. Logs go to stderr and only at
// debug level when verbose.
func (o *rootOptions) openSession(ctx context.Context, cmd *cobra.Command) (*widerow.Session, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, err
	}

	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return widerow.Open(ctx, cfg, widerow.WithLogger(logger))
}

func (o *rootOptions) readLevel() consistency.Level {
	l, _ := consistency.ParseLevel(o.Level)
	return l
}
