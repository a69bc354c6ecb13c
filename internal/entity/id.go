package entity

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ID is the stable key of an entity within one resource type.
//
// The API uses integer primary keys while scenario files and URLs carry
// them as strings, so both normalize to the decimal string form:
// IntID(5) and StringID("5") are the same key.
type ID string

// IntID returns the key for an integer primary key.
func IntID(n int64) ID {
	return ID(strconv.FormatInt(n, 10))
}

// StringID returns the key for a string primary key.
func StringID(s string) ID {
	return ID(s)
}

// IDOf extracts a key from a record's id field value.
// Only String, Int and integral Float values qualify.
func IDOf(v Value) (ID, bool) {
	switch val := v.(type) {
	case String:
		return ID(val), true
	case Int:
		return IntID(int64(val)), true
	case Float:
		if isIntegral(float64(val)) {
			return IntID(int64(val)), true
		}
	}
	return "", false
}

// Value returns the id as it should appear in a record's id field.
// Canonical decimal strings become Int, anything else stays a String.
func (id ID) Value() Value {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return Int(n)
	}
	return String(id)
}

func (id ID) String() string {
	return string(id)
}

// ParseIDs converts raw command-line or query values into keys, dropping
// empty entries.
func ParseIDs(raw []string) []ID {
	ids := make([]ID, 0, len(raw))
	for _, r := range raw {
		if r == "" {
			continue
		}
		ids = append(ids, ID(r))
	}
	return ids
}

// MarshalJSON writes numeric ids as JSON numbers.
func (id ID) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(id.Value())
}

// UnmarshalJSON accepts both JSON numbers and strings.
func (id *ID) UnmarshalJSON(data []byte) error {
	v, err := DecodeValue(data)
	if err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	parsed, ok := IDOf(v)
	if !ok {
		return fmt.Errorf("decode id: %s is not a string or integer", data)
	}
	*id = parsed
	return nil
}

// MarshalYAML writes numeric ids as YAML integers.
func (id ID) MarshalYAML() (any, error) {
	return ToAny(id.Value()), nil
}

// UnmarshalYAML accepts any scalar, so both `id: 5` and `id: "5"` work.
func (id *ID) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: id must be a scalar", node.Line)
	}
	*id = ID(node.Value)
	return nil
}
