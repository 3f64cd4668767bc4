/*
Package composite encodes multi-component keys into byte-comparable column
names and builds the start/end bounds of range queries over them.

A stored name is the concatenation of every component's order-preserving
encoding, each followed by an equality marker byte:

	LessOrEqual    0x00
	Equal          0x01
	GreaterOrEqual 0x02

Stored names carry Equal on every component. Range bounds carry Equal on all
but the deepest non-null component, whose marker decides inclusivity:

	side   direction   inclusive   exclusive
	start  ascending   Equal       GreaterOrEqual
	end    ascending   GreaterOrEqual  LessOrEqual
	start  reversed    GreaterOrEqual  LessOrEqual
	end    reversed    Equal       GreaterOrEqual

Because the marker sorts against the next component's first byte, a bound built
from a key prefix admits or excludes every stored name sharing that prefix.
Backends only need to compare names bytewise.

Usage:

	codec := composite.NewCodec("tweets", serializer.String, serializer.TimeUUID)
	bounds, err := composite.NewBoundBuilder(codec).BuildStartEnd(
	    []any{"alice"}, true, []any{"alice"}, true, false)
*/
package composite
