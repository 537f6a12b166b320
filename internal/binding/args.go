package binding

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Args is an ordered mapping from argument names to values.
//
// Values are nil, bool, int64, float64, string, []any, *Args, Invocation
// or []Invocation. A nil *Args is a valid empty mapping.
type Args struct {
	keys   []string
	values map[string]any
}

// NewArgs creates an empty argument mapping.
func NewArgs() *Args {
	return &Args{values: make(map[string]any)}
}

// Set stores value under key. Setting an existing key keeps its original
// position. Set returns the receiver so calls can be chained.
func (a *Args) Set(key string, value any) *Args {
	if a.values == nil {
		a.values = make(map[string]any)
	}
	if _, exists := a.values[key]; !exists {
		a.keys = append(a.keys, key)
	}
	a.values[key] = value
	return a
}

// Get returns the value stored under key.
func (a *Args) Get(key string) (any, bool) {
	if a == nil {
		return nil, false
	}
	v, ok := a.values[key]
	return v, ok
}

// Len returns the number of entries.
func (a *Args) Len() int {
	if a == nil {
		return 0
	}
	return len(a.keys)
}

// Keys returns the keys in insertion order.
func (a *Args) Keys() []string {
	if a == nil {
		return nil
	}
	out := make([]string, len(a.keys))
	copy(out, a.keys)
	return out
}

// Each calls fn for every entry in insertion order.
func (a *Args) Each(fn func(key string, value any)) {
	if a == nil {
		return
	}
	for _, k := range a.keys {
		fn(k, a.values[k])
	}
}

// Map returns a plain map copy with nested mappings converted as well.
func (a *Args) Map() map[string]any {
	if a == nil {
		return nil
	}
	m := make(map[string]any, len(a.keys))
	a.Each(func(k string, v any) {
		m[k] = plain(v)
	})
	return m
}

func plain(v any) any {
	switch val := v.(type) {
	case *Args:
		return val.Map()
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = plain(item)
		}
		return out
	default:
		return v
	}
}

// MarshalJSON encodes the mapping as a JSON object in insertion order.
func (a *Args) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range a.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalNoEscape(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		val, err := marshalNoEscape(a.values[k])
		if err != nil {
			return nil, fmt.Errorf("encoding argument %q: %w", k, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping the order of its keys.
func (a *Args) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid JSON arguments")
	}
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return fmt.Errorf("arguments must be a JSON object, got %s", res.Type)
	}
	*a = *ArgsFromJSON(res)
	return nil
}

// marshalNoEscape encodes v without escaping <, > and &, matching the
// output of the keymap writer.
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// ArgsFromJSON converts a parsed JSON object into Args. Non-object results
// yield an empty mapping.
func ArgsFromJSON(res gjson.Result) *Args {
	args := NewArgs()
	if !res.IsObject() {
		return args
	}
	res.ForEach(func(key, value gjson.Result) bool {
		args.Set(key.String(), ValueFromJSON(value))
		return true
	})
	return args
}

// ValueFromJSON converts a parsed JSON value into the value model used by
// Args. Objects become *Args so their key order survives.
func ValueFromJSON(res gjson.Result) any {
	switch {
	case res.IsObject():
		return ArgsFromJSON(res)
	case res.IsArray():
		items := res.Array()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = ValueFromJSON(item)
		}
		return out
	}

	switch res.Type {
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.Number:
		if isIntegral(res.Raw) {
			return res.Int()
		}
		return res.Float()
	case gjson.String:
		return res.Str
	default:
		return nil
	}
}

func isIntegral(raw string) bool {
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '.', 'e', 'E':
			return false
		}
	}
	return raw != ""
}
