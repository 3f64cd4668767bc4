/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package composite

import (
	"bytes"

	"github.com/suparena/widerow/errors"
)

// Bounds is the encoded pair of names a slice query runs between. Nil means
// the side is open. When Reversed is set, Start is the upper bound.
type Bounds struct {
	Start    []byte
	End      []byte
	Reversed bool
}

// BoundBuilder turns typed range requests into encoded bounds.
type BoundBuilder struct {
	codec *Codec
}

// NewBoundBuilder creates a builder over codec.
func NewBoundBuilder(codec *Codec) *BoundBuilder {
	return &BoundBuilder{codec: codec}
}

// ValidateBounds checks that start and end are ordered for the query
// direction: start <= end ascending, start >= end reversed. A side with no
// significant component is open and always valid.
func (b *BoundBuilder) ValidateBounds(start, end []any, reversed bool) error {
	sv, err := b.codec.significant(start)
	if err != nil {
		return err
	}
	ev, err := b.codec.significant(end)
	if err != nil {
		return err
	}
	if len(sv) == 0 || len(ev) == 0 {
		return nil
	}

	cmp, err := b.codec.compareValues(sv, ev)
	if err != nil {
		return err
	}
	if (!reversed && cmp > 0) || (reversed && cmp < 0) {
		return errors.NewInvalidRangeError(b.codec.property, reversed)
	}
	return nil
}

// BuildStartEnd validates the range and encodes both sides.
func (b *BoundBuilder) BuildStartEnd(start []any, inclusiveStart bool, end []any, inclusiveEnd bool, reversed bool) (Bounds, error) {
	if err := b.ValidateBounds(start, end, reversed); err != nil {
		return Bounds{}, err
	}

	s, err := b.codec.EncodeBound(start, Start, inclusiveStart, reversed)
	if err != nil {
		return Bounds{}, err
	}
	e, err := b.codec.EncodeBound(end, End, inclusiveEnd, reversed)
	if err != nil {
		return Bounds{}, err
	}
	return Bounds{Start: s, End: e, Reversed: reversed}, nil
}

// Contains reports whether a stored name falls between the bounds, using the
// bytewise ordering every backend applies to composite names.
func (b Bounds) Contains(name []byte) bool {
	lo, hi := b.Lower(), b.Upper()
	if len(lo) > 0 && bytes.Compare(name, lo) < 0 {
		return false
	}
	if len(hi) > 0 && bytes.Compare(name, hi) > 0 {
		return false
	}
	return true
}

// Lower returns the smallest name the bounds admit, or nil when open.
func (b Bounds) Lower() []byte {
	if b.Reversed {
		return b.End
	}
	return b.Start
}

// Upper returns the largest name the bounds admit, or nil when open.
func (b Bounds) Upper() []byte {
	if b.Reversed {
		return b.Start
	}
	return b.End
}
