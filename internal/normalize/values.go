package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"
)

// lookup returns the first candidate key present with a non-nil value.
func lookup(raw map[string]interface{}, keys []string) (string, interface{}, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return k, v, true
		}
	}
	return "", nil, false
}

func asString(v interface{}) (string, bool) {
	switch s := v.(type) {
	case string:
		s = strings.TrimSpace(s)
		return s, s != ""
	case json.Number:
		return s.String(), true
	case map[string]interface{}, []interface{}:
		return "", false
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func asFloat(v interface{}) (float64, error) {
	var f float64
	var err error
	switch n := v.(type) {
	case json.Number:
		f, err = n.Float64()
	case string:
		f, err = cast.ToFloat64E(strings.TrimSpace(n))
	default:
		f, err = cast.ToFloat64E(v)
	}
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number: %v", v)
	}
	return f, nil
}

func asBool(v interface{}) (bool, error) {
	if n, ok := v.(json.Number); ok {
		f, err := n.Float64()
		if err != nil {
			return false, err
		}
		return f != 0, nil
	}
	return cast.ToBoolE(v)
}

// firstString resolves a string attribute; empty strings count as absent so
// the next candidate gets a chance.
func firstString(raw map[string]interface{}, keys []string) (string, bool) {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		if s, ok := asString(v); ok {
			return s, true
		}
	}
	return "", false
}

func optionalString(raw map[string]interface{}, keys []string) *string {
	s, ok := firstString(raw, keys)
	if !ok {
		return nil
	}
	return &s
}

// truthy mirrors the loose upstream flags: present, non-empty and not false/0.
func truthy(raw map[string]interface{}, keys []string) bool {
	_, v, ok := lookup(raw, keys)
	if !ok {
		return false
	}
	if b, err := asBool(v); err == nil {
		return b
	}
	s, ok := asString(v)
	return ok && s != ""
}
