package records

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Field is a single key/value pair of a record
type Field struct {
	Key   string
	Value any
}

// Record is one row of an uploaded dataset: an ordered mapping from field
// name to a string, number, bool, nil or nested JSON value. A key that was
// never set is absent, which is distinct from a key set to nil or to the
// empty string.
type Record struct {
	keys   []string
	values map[string]any
}

// New builds a record from fields in order. Later duplicates overwrite
// earlier values without changing the key's position.
func New(fields ...Field) Record {
	var r Record
	for _, f := range fields {
		r.Set(f.Key, f.Value)
	}
	return r
}

// Get returns the value stored under key and whether the key is present
func (r Record) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Has reports whether key is present, even when its value is nil
func (r Record) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Set stores value under key, appending the key if it is new
func (r *Record) Set(key string, value any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = normalizeValue(value)
}

// Delete removes key from the record
func (r *Record) Delete(key string) {
	if _, ok := r.values[key]; !ok {
		return
	}
	delete(r.values, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i:i], r.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the field names in insertion order
func (r Record) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Len returns the number of present fields
func (r Record) Len() int {
	return len(r.keys)
}

// Fields returns the key/value pairs in insertion order
func (r Record) Fields() []Field {
	out := make([]Field, len(r.keys))
	for i, k := range r.keys {
		out[i] = Field{Key: k, Value: r.values[k]}
	}
	return out
}

// Text returns the value under key rendered as a string. ok is false when
// the key is absent or its value is nil.
func (r Record) Text(key string) (string, bool) {
	v, present := r.values[key]
	if !present || v == nil {
		return "", false
	}
	return FormatValue(v), true
}

// Clone returns a deep copy of the key order and a shallow copy of values
func (r Record) Clone() Record {
	c := Record{keys: append([]string(nil), r.keys...)}
	if r.values != nil {
		c.values = make(map[string]any, len(r.values))
		for k, v := range r.values {
			c.values[k] = v
		}
	}
	return c
}

// Overlay returns a copy of r with every field of other written over it.
// Keys of r keep their position; keys only in other follow in other's order.
func (r Record) Overlay(other Record) Record {
	out := r.Clone()
	for _, k := range other.keys {
		out.Set(k, other.values[k])
	}
	return out
}

// Rename returns a copy with keys renamed according to names. Keys absent
// from names are kept as-is. When two keys rename to the same name the
// first one in record order wins.
func (r Record) Rename(names map[string]string) Record {
	var out Record
	for _, k := range r.keys {
		target := k
		if n, ok := names[k]; ok && n != "" {
			target = n
		}
		if out.Has(target) {
			continue
		}
		out.Set(target, r.values[k])
	}
	return out
}

// String implements fmt.Stringer for logging
func (r Record) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		if r.values[k] == nil {
			b.WriteString("null")
		} else {
			b.WriteString(strconv.Quote(FormatValue(r.values[k])))
		}
	}
	b.WriteByte('}')
	return b.String()
}

// FormatValue renders a record value the way it is written to CSV
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case json.RawMessage:
		return string(val)
	default:
		return fmt.Sprint(val)
	}
}

// normalizeValue narrows numeric types to float64 so equal numbers compare equal
func normalizeValue(v any) any {
	switch val := v.(type) {
	case int:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case float32:
		return float64(val)
	case uint:
		return float64(val)
	case uint32:
		return float64(val)
	case uint64:
		return float64(val)
	default:
		return v
	}
}

// UnionKeys returns every key that appears in any record, in first-seen order
func UnionKeys(rs []Record) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, r := range rs {
		for _, k := range r.keys {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return keys
}
