/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"

	"github.com/suparena/widerow/composite"
	"github.com/suparena/widerow/serializer"
	"github.com/suparena/widerow/storagemodels"
)

// parseSerializers resolves a comma-separated list of serializer names.
func parseSerializers(list string) ([]serializer.Serializer, error) {
	if strings.TrimSpace(list) == "" {
		return nil, fmt.Errorf("--components is required, one of %s per key component", strings.Join(serializer.Names(), ", "))
	}
	var out []serializer.Serializer
	for _, name := range strings.Split(list, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		s, ok := serializer.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown component type %q, expected one of %s", name, strings.Join(serializer.Names(), ", "))
		}
		out = append(out, s)
	}
	return out, nil
}

// parseKey parses comma-separated component values. Fewer values than
// serializers leave the trailing components open; an empty string is no key.
func parseKey(serializers []serializer.Serializer, text string) ([]any, error) {
	if text == "" {
		return nil, nil
	}
	parts := strings.Split(text, ",")
	if len(parts) > len(serializers) {
		return nil, fmt.Errorf("key %q has %d components, expected at most %d", text, len(parts), len(serializers))
	}
	values := make([]any, len(parts))
	for i, part := range parts {
		v, err := parseComponent(serializers[i], strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		values[i] = v
	}
	return values, nil
}

func parseComponent(s serializer.Serializer, text string) (any, error) {
	switch s.Name() {
	case "string":
		return text, nil
	case "bytes":
		return hex.DecodeString(text)
	case "int64":
		return strconv.ParseInt(text, 10, 64)
	case "int32":
		n, err := strconv.ParseInt(text, 10, 32)
		return int32(n), err
	case "int":
		return strconv.Atoi(text)
	case "uint64":
		return strconv.ParseUint(text, 10, 64)
	case "bool":
		return strconv.ParseBool(text)
	case "float64":
		return strconv.ParseFloat(text, 64)
	case "uuid", "timeuuid":
		return uuid.Parse(text)
	case "time":
		return time.Parse(time.RFC3339Nano, text)
	case "datetime":
		return strfmt.ParseDateTime(text)
	}
	return nil, fmt.Errorf("component type %q cannot be parsed from text", s.Name())
}

func formatComponent(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case []byte:
		return hex.EncodeToString(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

// formatValue prints text values as is and anything else as hex.
func formatValue(b []byte) string {
	if utf8.Valid(b) && strings.IndexFunc(string(b), func(r rune) bool { return !unicode.IsPrint(r) }) < 0 {
		return string(b)
	}
	return "0x" + hex.EncodeToString(b)
}

type columnView struct {
	Key   []string `json:"key"`
	Value string   `json:"value"`
	TTL   int32    `json:"ttl,omitempty"`
}

func viewColumns(codec *composite.Codec, cols []storagemodels.Column) ([]columnView, error) {
	views := make([]columnView, len(cols))
	for i, col := range cols {
		values, err := codec.DecodeValues(col.Name)
		if err != nil {
			return nil, err
		}
		key := make([]string, len(values))
		for j, v := range values {
			key[j] = formatComponent(v)
		}
		views[i] = columnView{Key: key, Value: formatValue(col.Value), TTL: col.TTL}
	}
	return views, nil
}

func render(w io.Writer, format string, views []columnView) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header.Fprintln(tw, "KEY\tVALUE\tTTL")
	for _, v := range views {
		ttl := "-"
		if v.TTL > 0 {
			ttl = strconv.Itoa(int(v.TTL))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", strings.Join(v.Key, ","), v.Value, ttl)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	dim.Fprintf(w, "(%d columns)\n", len(views))
	return nil
}
