package manifest

import (
	"encoding/json"
	"math"
	"sort"
)

// ValueKind classifies a field default
type ValueKind int

const (
	KindNone ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
	// KindInstance is a data-type instance, written { "$type" = "ImageRef" }.
	// A $type that is not a class reference classifies as KindOther.
	KindInstance
	// KindOther covers values with no target literal (e.g. TOML datetimes)
	KindOther
)

// Reserved keys inside a default table
const (
	noneKey = "$none"
	typeKey = "$type"
)

// Value is a field default as written in a manifest
type Value struct {
	// Set is false when the field has no default at all
	Set  bool
	Kind ValueKind

	Bool   bool
	Int    int64
	Float  float64
	String string
	List   []any
	Map    map[string]any

	// Type names the data type of a KindInstance value
	Type string
}

// None returns an explicit None default
func None() Value { return Value{Set: true, Kind: KindNone} }

// ValueOf classifies a decoded TOML, YAML or JSON value
func ValueOf(raw any) Value {
	switch v := raw.(type) {
	case nil:
		return None()
	case bool:
		return Value{Set: true, Kind: KindBool, Bool: v}
	case string:
		return Value{Set: true, Kind: KindString, String: v}
	case int:
		return Value{Set: true, Kind: KindInt, Int: int64(v)}
	case int32:
		return Value{Set: true, Kind: KindInt, Int: int64(v)}
	case int64:
		return Value{Set: true, Kind: KindInt, Int: v}
	case uint64:
		if v <= math.MaxInt64 {
			return Value{Set: true, Kind: KindInt, Int: int64(v)}
		}
		return Value{Set: true, Kind: KindFloat, Float: float64(v)}
	case float32:
		return Value{Set: true, Kind: KindFloat, Float: float64(v)}
	case float64:
		return Value{Set: true, Kind: KindFloat, Float: v}
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return Value{Set: true, Kind: KindInt, Int: i}
		}
		if f, err := v.Float64(); err == nil {
			return Value{Set: true, Kind: KindFloat, Float: f}
		}
		return Value{Set: true, Kind: KindOther}
	}

	if list, ok := asList(raw); ok {
		return Value{Set: true, Kind: KindList, List: list}
	}
	if m, ok := asMap(raw); ok {
		if none, _ := m[noneKey].(bool); none {
			return None()
		}
		if typ, ok := m[typeKey].(string); ok && typ != "" {
			if !ValidTypeRef(typ) {
				return Value{Set: true, Kind: KindOther}
			}
			return Value{Set: true, Kind: KindInstance, Type: typ, Map: withoutKey(m, typeKey)}
		}
		return Value{Set: true, Kind: KindMap, Map: m}
	}
	return Value{Set: true, Kind: KindOther}
}

func withoutKey(m map[string]any, key string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if k != key {
			out[k] = v
		}
	}
	return out
}

// asMap normalizes the map shapes produced by the three decoders
func asMap(raw any) (map[string]any, bool) {
	switch m := raw.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			key, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[key] = v
		}
		return out, true
	}
	return nil, false
}

// asList normalizes the list shapes produced by the three decoders.
// BurntSushi/toml decodes arrays of tables as []map[string]any.
func asList(raw any) ([]any, bool) {
	switch l := raw.(type) {
	case []any:
		return l, true
	case []map[string]any:
		out := make([]any, len(l))
		for i, m := range l {
			out[i] = m
		}
		return out, true
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

// sortedKeys returns m's keys in order, for deterministic diagnostics
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
