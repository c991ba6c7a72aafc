package formula

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ResultSet maps each output variable to its per-record results. Keys keep
// the order in which they were first declared so encoding is deterministic.
type ResultSet struct {
	keys   []string
	values map[string][]Number
}

// NewResultSet returns an empty result set.
func NewResultSet() *ResultSet {
	return &ResultSet{values: make(map[string][]Number)}
}

// Declare registers name with a list of n zero values, ready for indexed
// writes. Declaring an existing name is a no-op.
func (rs *ResultSet) Declare(name string, n int) {
	if _, ok := rs.values[name]; ok {
		return
	}
	rs.keys = append(rs.keys, name)
	rs.values[name] = make([]Number, n)
}

// Set writes v at index i of name's list. The list must have been declared
// with enough room.
func (rs *ResultSet) Set(name string, i int, v Number) {
	rs.values[name][i] = v
}

// Keys returns the output variable names in declaration order.
func (rs *ResultSet) Keys() []string {
	out := make([]string, len(rs.keys))
	copy(out, rs.keys)
	return out
}

// MarshalJSON encodes the set as a JSON object in declaration order.
func (rs *ResultSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range rs.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		list, err := json.Marshal(rs.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(list)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object of number lists, keeping key order.
func (rs *ResultSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("results must be a JSON object")
	}

	*rs = ResultSet{values: make(map[string][]Number)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key := tok.(string)
		var list []Number
		if err := dec.Decode(&list); err != nil {
			return fmt.Errorf("results.%s: %w", key, err)
		}
		if _, dup := rs.values[key]; !dup {
			rs.keys = append(rs.keys, key)
		}
		rs.values[key] = list
	}
	_, err = dec.Token()
	return err
}
