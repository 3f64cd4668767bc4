/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package join

import (
	"fmt"
	"strings"

	"github.com/suparena/widerow/registry"
)

// CascadeType selects which operations on the owning map propagate to the
// referenced entity.
type CascadeType int

const (
	CascadeNone CascadeType = iota
	CascadePersist
	CascadeRemove
	CascadeAll
)

func (c CascadeType) String() string {
	switch c {
	case CascadeNone:
		return "NONE"
	case CascadePersist:
		return "PERSIST"
	case CascadeRemove:
		return "REMOVE"
	case CascadeAll:
		return "ALL"
	default:
		return fmt.Sprintf("CascadeType(%d)", int(c))
	}
}

// ParseCascade parses a cascade name, case-insensitively.
func ParseCascade(s string) (CascadeType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "NONE":
		return CascadeNone, nil
	case "PERSIST":
		return CascadePersist, nil
	case "REMOVE":
		return CascadeRemove, nil
	case "ALL":
		return CascadeAll, nil
	}
	return CascadeNone, fmt.Errorf("unknown cascade type %q", s)
}

// Persists reports whether inserts persist the referenced entity.
func (c CascadeType) Persists() bool {
	return c == CascadePersist || c == CascadeAll
}

// Removes reports whether removals delete the referenced entity.
func (c CascadeType) Removes() bool {
	return c == CascadeRemove || c == CascadeAll
}

// Properties describes a join-valued property: the owning property name, the
// referenced entity type and the cascade policy.
type Properties struct {
	Property string
	Target   registry.EntityMeta
	Cascade  CascadeType
}

// EncodeID encodes a referenced entity id as stored in a join column.
func (p Properties) EncodeID(id any) ([]byte, error) {
	b, err := p.Target.RowKey(id)
	if err != nil {
		return nil, fmt.Errorf("encode %s id for property %q: %w", p.Target.Type, p.Property, err)
	}
	return b, nil
}

// DecodeID decodes the referenced entity id stored in a join column.
func (p Properties) DecodeID(b []byte) (any, error) {
	if p.Target.IDSerializer == nil {
		return nil, fmt.Errorf("entity %q has no id serializer", p.Target.Type)
	}
	id, rest, err := p.Target.IDSerializer.ReadKey(b)
	if err != nil {
		return nil, fmt.Errorf("decode %s id for property %q: %w", p.Target.Type, p.Property, err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("decode %s id for property %q: %d trailing bytes", p.Target.Type, p.Property, len(rest))
	}
	return id, nil
}
