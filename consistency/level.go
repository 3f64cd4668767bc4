/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package consistency

import (
	"fmt"
	"strings"
)

// Level is the durability or quorum requirement of a single read or write.
// The zero value is Unset and means "no preference at this layer".
type Level int

const (
	Unset Level = iota
	Any
	One
	Two
	Three
	Quorum
	LocalQuorum
	EachQuorum
	All
	LocalOne
)

var levelNames = map[Level]string{
	Unset:       "UNSET",
	Any:         "ANY",
	One:         "ONE",
	Two:         "TWO",
	Three:       "THREE",
	Quorum:      "QUORUM",
	LocalQuorum: "LOCAL_QUORUM",
	EachQuorum:  "EACH_QUORUM",
	All:         "ALL",
	LocalOne:    "LOCAL_ONE",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// ParseLevel parses a level name such as "quorum" or "LOCAL_QUORUM".
// The empty string parses to Unset.
func ParseLevel(s string) (Level, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	if normalized == "" {
		return Unset, nil
	}
	for l, name := range levelNames {
		if name == normalized {
			return l, nil
		}
	}
	return Unset, fmt.Errorf("unknown consistency level %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so levels can be read from
// configuration files.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Strong reports whether the level requires a majority of replicas or more.
// Backends without tunable replication map strong reads to their consistent
// read mode.
func (l Level) Strong() bool {
	switch l {
	case Quorum, LocalQuorum, EachQuorum, All, Two, Three:
		return true
	}
	return false
}

// ValidForRead reports whether the level may be used for reads. Any only
// applies to writes.
func (l Level) ValidForRead() bool {
	return l != Any
}
