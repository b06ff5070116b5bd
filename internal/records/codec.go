package records

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// MarshalJSON writes the record as a JSON object with keys in insertion order
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, fmt.Errorf("failed to marshal field %q: %w", k, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a flat JSON object, keeping key order. Nested arrays
// and objects are kept as compact json.RawMessage values and written back
// verbatim.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("record must be a JSON object, got %v", tok)
	}

	*r = Record{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected object key %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("failed to decode field %q: %w", key, err)
		}
		value, err := decodeJSONValue(raw)
		if err != nil {
			return fmt.Errorf("failed to decode field %q: %w", key, err)
		}
		r.Set(key, value)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

func decodeJSONValue(raw json.RawMessage) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}
	switch trimmed[0] {
	case '{', '[':
		var compact bytes.Buffer
		if err := json.Compact(&compact, trimmed); err != nil {
			return nil, err
		}
		return json.RawMessage(compact.Bytes()), nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if n, ok := v.(json.Number); ok {
		f, err := n.Float64()
		if err != nil {
			return n.String(), nil
		}
		return f, nil
	}
	return v, nil
}

// MarshalYAML writes the record as an ordered YAML mapping
func (r Record) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range r.keys {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
		value := r.values[k]
		if raw, ok := value.(json.RawMessage); ok {
			var nested any
			if err := json.Unmarshal(raw, &nested); err != nil {
				return nil, fmt.Errorf("failed to decode field %q: %w", k, err)
			}
			value = nested
		}
		valNode := &yaml.Node{}
		if err := valNode.Encode(value); err != nil {
			return nil, fmt.Errorf("failed to encode field %q: %w", k, err)
		}
		node.Content = append(node.Content, keyNode, valNode)
	}
	return node, nil
}

// UnmarshalYAML reads an ordered YAML mapping. Nested sequences and mappings
// become json.RawMessage values, matching UnmarshalJSON.
func (r *Record) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("record must be a YAML mapping, got kind %d at line %d", node.Kind, node.Line)
	}

	*r = Record{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		val := node.Content[i+1]

		switch {
		case val.Kind == yaml.SequenceNode || val.Kind == yaml.MappingNode:
			var nested any
			if err := val.Decode(&nested); err != nil {
				return fmt.Errorf("field %q: %w", key, err)
			}
			raw, err := json.Marshal(nested)
			if err != nil {
				return fmt.Errorf("field %q at line %d cannot be stored as JSON: %w", key, val.Line, err)
			}
			r.Set(key, json.RawMessage(raw))
		case val.Kind != yaml.ScalarNode:
			return fmt.Errorf("field %q at line %d is not a scalar", key, val.Line)
		case val.Tag == "!!null":
			r.Set(key, nil)
		case val.Tag == "!!int" || val.Tag == "!!float":
			f, err := strconv.ParseFloat(val.Value, 64)
			if err != nil {
				r.Set(key, val.Value)
				continue
			}
			r.Set(key, f)
		case val.Tag == "!!bool":
			var b bool
			if err := val.Decode(&b); err != nil {
				return fmt.Errorf("field %q: %w", key, err)
			}
			r.Set(key, b)
		default:
			r.Set(key, val.Value)
		}
	}
	return nil
}
