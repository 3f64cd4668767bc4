/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import "time"

// DefaultBatchSize is the number of columns an iterator fetches per refill.
const DefaultBatchSize = 100

// IteratorOptions configures slice iteration
type IteratorOptions struct {
	BatchSize       int                    // Columns per refill (default: 100)
	ProgressHandler func(IteratorProgress) // Optional callback after each refill
}

// IteratorProgress tracks iteration progress
type IteratorProgress struct {
	Refills       int       // Storage round trips so far
	ItemsFetched  int64     // Columns fetched so far
	LastName      []byte    // Resume point of the next refill
	StartTime     time.Time // When iteration started
	LastBatchSize int       // Columns returned by the latest refill
}

// IteratorOption is a functional option for configuring iteration
type IteratorOption func(*IteratorOptions)

// DefaultIteratorOptions returns default iteration options
func DefaultIteratorOptions() IteratorOptions {
	return IteratorOptions{
		BatchSize: DefaultBatchSize,
	}
}

// WithBatchSize sets the number of columns fetched per refill
func WithBatchSize(size int) IteratorOption {
	return func(opts *IteratorOptions) {
		if size > 0 {
			opts.BatchSize = size
		}
	}
}

// WithProgressHandler sets a progress callback
func WithProgressHandler(handler func(IteratorProgress)) IteratorOption {
	return func(opts *IteratorOptions) {
		opts.ProgressHandler = handler
	}
}
