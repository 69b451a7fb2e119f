// SPDX-License-Identifier: GPL-3.0-or-later

package checkapi

import (
	"fmt"
	"maps"
	"strconv"
)

// Params are the merged parameters of a service (defaults, rulesets, discovered parameters).
type Params map[string]any

// Merge returns a new Params with the layers applied on top of p, later layers win.
func (p Params) Merge(layers ...Params) Params {
	out := make(Params, len(p))
	maps.Copy(out, p)
	for _, l := range layers {
		maps.Copy(out, l)
	}
	return out
}

func (p Params) Clone() Params {
	return p.Merge()
}

func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

func (p Params) Float(key string, def float64) float64 {
	if v, ok := toFloat(p[key]); ok {
		return v
	}
	return def
}

func (p Params) Int(key string, def int) int {
	if v, ok := toFloat(p[key]); ok {
		return int(v)
	}
	return def
}

func (p Params) String(key, def string) string {
	switch v := p[key].(type) {
	case string:
		return v
	case nil:
		return def
	default:
		return fmt.Sprint(v)
	}
}

func (p Params) Bool(key string, def bool) bool {
	switch v := p[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func (p Params) StringList(key string) []string {
	switch v := p[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{v}
	}
	return nil
}

// Levels parses the levels stored under key, missing or invalid levels are NoLevels.
func (p Params) Levels(key string) Levels {
	lv, err := ParseLevels(p[key])
	if err != nil {
		return Levels{}
	}
	return lv
}

// Normalize converts values decoded from YAML (map[any]any) into JSON-like values (map[string]any).
func Normalize(v any) any {
	switch x := v.(type) {
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, e := range x {
			m[fmt.Sprint(k)] = Normalize(e)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, e := range x {
			m[k] = Normalize(e)
		}
		return m
	case Params:
		return Params(Normalize(map[string]any(x)).(map[string]any))
	case []any:
		s := make([]any, len(x))
		for i, e := range x {
			s[i] = Normalize(e)
		}
		return s
	default:
		return v
	}
}

// NormalizeParams applies Normalize to a decoded parameter map.
func NormalizeParams(m map[string]any) Params {
	if m == nil {
		return nil
	}
	return Params(Normalize(m).(map[string]any))
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	}
	return 0, false
}
