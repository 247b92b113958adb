package mod3

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValueKind tags the payload carried by a Value.
type ValueKind uint8

const (
	KindInt    ValueKind = iota // Integer payload
	KindFloat                   // Floating point payload
	KindText                    // String payload
	KindVector                  // Short float vector payload
)

// String returns a human-readable kind name.
func (k ValueKind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindVector:
		return "vector"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// Value is a loosely-typed property value attached to bones, meshes and headers.
type Value struct {
	Kind   ValueKind
	Int    int64
	Float  float64
	Text   string
	Vector []float64
}

// IntValue returns an integer Value.
func IntValue(v int64) Value { return Value{Kind: KindInt, Int: v} }

// FloatValue returns a float Value.
func FloatValue(v float64) Value { return Value{Kind: KindFloat, Float: v} }

// TextValue returns a string Value.
func TextValue(s string) Value { return Value{Kind: KindText, Text: s} }

// VectorValue returns a vector Value.
func VectorValue(v ...float64) Value {
	return Value{Kind: KindVector, Vector: append([]float64(nil), v...)}
}

// AsInt returns the value as an integer. Floats are truncated.
func (v Value) AsInt() (int64, bool) {
	switch v.Kind {
	case KindInt:
		return v.Int, true
	case KindFloat:
		return int64(v.Float), true
	}
	return 0, false
}

// AsFloat returns the value as a float.
func (v Value) AsFloat() (float64, bool) {
	switch v.Kind {
	case KindInt:
		return float64(v.Int), true
	case KindFloat:
		return v.Float, true
	}
	return 0, false
}

// AsText returns the string payload.
func (v Value) AsText() (string, bool) {
	if v.Kind != KindText {
		return "", false
	}
	return v.Text, true
}

// Equal reports whether two values carry the same kind and payload.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindInt:
		return v.Int == other.Int
	case KindFloat:
		return v.Float == other.Float
	case KindText:
		return v.Text == other.Text
	case KindVector:
		if len(v.Vector) != len(other.Vector) {
			return false
		}
		for i := range v.Vector {
			if v.Vector[i] != other.Vector[i] {
				return false
			}
		}
		return true
	}
	return false
}

// String formats the value for diagnostics.
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindText:
		return strconv.Quote(v.Text)
	case KindVector:
		parts := make([]string, len(v.Vector))
		for i, f := range v.Vector {
			parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	}
	return "<invalid>"
}

// MarshalYAML encodes the value as a plain scalar or flow sequence.
func (v Value) MarshalYAML() (interface{}, error) {
	switch v.Kind {
	case KindInt:
		return v.Int, nil
	case KindFloat:
		return floatNode(v.Float), nil
	case KindText:
		return v.Text, nil
	case KindVector:
		node := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, f := range v.Vector {
			node.Content = append(node.Content, floatNode(f))
		}
		return node, nil
	}
	return nil, fmt.Errorf("cannot marshal property of kind %s", v.Kind)
}

// floatNode tags whole floats explicitly so they do not read back as ints.
func floatNode(f float64) *yaml.Node {
	return &yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   "!!float",
		Value: strconv.FormatFloat(f, 'g', -1, 64),
	}
}

// UnmarshalYAML decodes a scalar or sequence into the matching kind.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		switch node.ShortTag() {
		case "!!int":
			var i int64
			if err := node.Decode(&i); err != nil {
				return err
			}
			*v = IntValue(i)
		case "!!float":
			var f float64
			if err := node.Decode(&f); err != nil {
				return err
			}
			*v = FloatValue(f)
		default:
			*v = TextValue(node.Value)
		}
		return nil
	case yaml.SequenceNode:
		var vec []float64
		if err := node.Decode(&vec); err != nil {
			return fmt.Errorf("line %d: property vector: %w", node.Line, err)
		}
		*v = VectorValue(vec...)
		return nil
	}
	return fmt.Errorf("line %d: unsupported property node", node.Line)
}

// PropertyMap is an insertion-ordered string-keyed property bag.
// The zero value is ready to use.
type PropertyMap struct {
	Keys   []string
	Values map[string]Value
}

// NewPropertyMap builds a map from alternating key/value pairs.
func NewPropertyMap(pairs ...interface{}) PropertyMap {
	var m PropertyMap
	for i := 0; i+1 < len(pairs); i += 2 {
		key, _ := pairs[i].(string)
		switch val := pairs[i+1].(type) {
		case Value:
			m.Set(key, val)
		case int:
			m.Set(key, IntValue(int64(val)))
		case int64:
			m.Set(key, IntValue(val))
		case float64:
			m.Set(key, FloatValue(val))
		case string:
			m.Set(key, TextValue(val))
		}
	}
	return m
}

// Len returns the number of properties.
func (m *PropertyMap) Len() int { return len(m.Keys) }

// Has reports whether key is present.
func (m *PropertyMap) Has(key string) bool {
	_, ok := m.Values[key]
	return ok
}

// Get returns the value stored under key.
func (m *PropertyMap) Get(key string) (Value, bool) {
	v, ok := m.Values[key]
	return v, ok
}

// Set stores a value. New keys are appended to the iteration order.
func (m *PropertyMap) Set(key string, v Value) {
	if m.Values == nil {
		m.Values = make(map[string]Value)
	}
	if _, ok := m.Values[key]; !ok {
		m.Keys = append(m.Keys, key)
	}
	m.Values[key] = v
}

// Delete removes key, keeping the order of the remaining keys.
func (m *PropertyMap) Delete(key string) {
	if _, ok := m.Values[key]; !ok {
		return
	}
	delete(m.Values, key)
	for i, k := range m.Keys {
		if k == key {
			m.Keys = append(m.Keys[:i], m.Keys[i+1:]...)
			break
		}
	}
}

// Range calls fn for each property in insertion order until fn returns false.
func (m *PropertyMap) Range(fn func(key string, v Value) bool) {
	for _, k := range m.Keys {
		if !fn(k, m.Values[k]) {
			return
		}
	}
}

// SortedKeys returns the keys in lexical order.
func (m *PropertyMap) SortedKeys() []string {
	keys := append([]string(nil), m.Keys...)
	sort.Strings(keys)
	return keys
}

// Clone returns an independent copy.
func (m PropertyMap) Clone() PropertyMap {
	var out PropertyMap
	for _, k := range m.Keys {
		v := m.Values[k]
		if v.Kind == KindVector {
			v.Vector = append([]float64(nil), v.Vector...)
		}
		out.Set(k, v)
	}
	return out
}

// Int returns an integer property or def when absent or not numeric.
func (m *PropertyMap) Int(key string, def int64) int64 {
	if v, ok := m.Values[key]; ok {
		if i, ok := v.AsInt(); ok {
			return i
		}
	}
	return def
}

// Text returns a string property or def when absent or not text.
func (m *PropertyMap) Text(key, def string) string {
	if v, ok := m.Values[key]; ok {
		if s, ok := v.AsText(); ok {
			return s
		}
	}
	return def
}

// MarshalYAML encodes the map as an ordered YAML mapping.
func (m PropertyMap) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range m.Keys {
		var val yaml.Node
		if err := val.Encode(m.Values[k]); err != nil {
			return nil, fmt.Errorf("property %q: %w", k, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: k},
			&val,
		)
	}
	return node, nil
}

// UnmarshalYAML decodes an ordered YAML mapping.
func (m *PropertyMap) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: properties must be a mapping", node.Line)
	}
	*m = PropertyMap{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		var v Value
		if err := v.UnmarshalYAML(node.Content[i+1]); err != nil {
			return fmt.Errorf("property %q: %w", node.Content[i].Value, err)
		}
		m.Set(node.Content[i].Value, v)
	}
	return nil
}
