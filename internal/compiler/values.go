package compiler

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// asMap normalises decoded objects. YAML decoders may produce map[any]any.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

func asSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i, str := range s {
			out[i] = str
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(s))
		for i, m := range s {
			out[i] = m
		}
		return out, true
	default:
		return nil, false
	}
}

// asNumber accepts every numeric representation a JSON or YAML decoder can
// hand back, plus numeric strings.
func asNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// asID turns an author-supplied identifier into a string. Numbers are
// accepted because hand-written documents often use them as keys.
func asID(v any) string {
	switch id := v.(type) {
	case string:
		return strings.TrimSpace(id)
	case nil, bool:
		return ""
	}
	if f, ok := asNumber(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}

// first returns the first key of keys whose value resolves to a non-empty
// string via pick.
func first(obj map[string]any, keys []string, pick func(any) string) string {
	for _, k := range keys {
		raw, ok := obj[k]
		if !ok {
			continue
		}
		if s := pick(raw); s != "" {
			return s
		}
	}
	return ""
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
