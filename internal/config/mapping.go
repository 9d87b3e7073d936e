package config

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Mapping is a string-keyed mapping that keeps its keys in insertion order.
// It holds the free-form sections of the file so a rewrite keeps the key
// order the user wrote. Nested mappings are *Mapping as well.
//
// A nil *Mapping is an empty, read-only mapping.
type Mapping struct {
	keys   []string
	values map[string]any
}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{values: map[string]any{}}
}

// MappingOf builds a mapping from alternating keys and values. It panics if
// a key is not a string or a value is missing.
func MappingOf(kv ...any) *Mapping {
	if len(kv)%2 != 0 {
		panic("config.MappingOf: odd number of arguments")
	}
	m := NewMapping()
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("config.MappingOf: key %v is %T, not string", kv[i], kv[i]))
		}
		m.Set(key, kv[i+1])
	}
	return m
}

// Len returns the number of keys.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in order.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

// Get returns the value stored under key.
func (m *Mapping) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Set stores v under key. A new key goes last; an existing key keeps its
// position.
func (m *Mapping) Set(key string, v any) {
	if m.values == nil {
		m.values = map[string]any{}
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Delete removes key.
func (m *Mapping) Delete(key string) {
	if m == nil {
		return
	}
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Range calls fn for each entry in order until fn returns false.
func (m *Mapping) Range(fn func(key string, v any) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			return
		}
	}
}

// Clone returns a deep copy of m.
func (m *Mapping) Clone() *Mapping {
	if m == nil {
		return nil
	}
	out := &Mapping{
		keys:   append([]string(nil), m.keys...),
		values: make(map[string]any, len(m.values)),
	}
	for k, v := range m.values {
		out.values[k] = cloneValue(v)
	}
	return out
}

// Map returns a plain map with the same content. Nested mappings are
// converted as well, so the result shares nothing with m.
func (m *Mapping) Map() map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m.keys))
	for k, v := range m.values {
		out[k] = plainValue(v)
	}
	return out
}

// shallow returns a plain map holding m's values as they are.
func (m *Mapping) shallow() map[string]any {
	out := make(map[string]any, m.Len())
	m.Range(func(k string, v any) bool {
		out[k] = v
		return true
	})
	return out
}

// MarshalJSON implements json.Marshaler.
func (m *Mapping) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	for i, k := range m.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(k); err != nil {
			return nil, err
		}
		buf.Truncate(buf.Len() - 1)
		buf.WriteByte(':')
		if err := enc.Encode(m.values[k]); err != nil {
			return nil, err
		}
		buf.Truncate(buf.Len() - 1)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML implements yaml.Marshaler.
func (m *Mapping) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	if m.Len() == 0 {
		node.Style = yaml.FlowStyle
	}
	for _, k := range m.Keys() {
		var key, val yaml.Node
		if err := key.Encode(k); err != nil {
			return nil, err
		}
		if err := val.Encode(m.values[k]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &key, &val)
	}
	return node, nil
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case *Mapping:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// plainValue converts nested mappings to map[string]any.
func plainValue(v any) any {
	switch t := v.(type) {
	case *Mapping:
		return t.Map()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plainValue(e)
		}
		return out
	default:
		return v
	}
}
