package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// DecodeValue parses JSON into a Value. Integral numbers decode to Int,
// everything else numeric to Float. Large integers keep full precision.
func DecodeValue(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return fromAny(raw)
}

// DecodeRecord parses a JSON object into a Record.
func DecodeRecord(data []byte) (Record, error) {
	v, err := DecodeValue(data)
	if err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	obj, ok := v.(Object)
	if !ok {
		return nil, fmt.Errorf("decode record: expected JSON object, got %T", v)
	}
	return Record(obj), nil
}

// RecordFromMap converts a decoded map (YAML or JSON) into a Record.
func RecordFromMap(m map[string]any) (Record, error) {
	if m == nil {
		return nil, nil
	}
	rec := make(Record, len(m))
	for k, raw := range m {
		v, err := fromAny(raw)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		rec[k] = v
	}
	return rec, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Record) UnmarshalJSON(data []byte) error {
	rec, err := DecodeRecord(data)
	if err != nil {
		return err
	}
	*r = rec
	return nil
}

// MarshalJSON implements json.Marshaler using canonical serialization so
// that printed records are stable.
func (r Record) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(Object(r))
}

// ToAny converts a Value back into plain Go values (map[string]any,
// []any, string, int64, float64, bool, nil).
func ToAny(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case String:
		return string(val)
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case Bool:
		return bool(val)
	case Array:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = ToAny(e)
		}
		return out
	case Object:
		return toAnyMap(val)
	default:
		return nil
	}
}

func toAnyMap(m map[string]Value) map[string]any {
	out := make(map[string]any, len(m))
	for k, e := range m {
		out[k] = ToAny(e)
	}
	return out
}

func fromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case json.Number:
		return fromNumber(val)
	case int:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("integer out of range: %d", val)
		}
		return Int(val), nil
	case float32:
		return Float(val), nil
	case float64:
		return Float(val), nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			e, err := fromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = e
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			e, err := fromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = e
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

func fromNumber(n json.Number) (Value, error) {
	s := string(n)
	if !strings.ContainsAny(s, ".eE") {
		i, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("number out of int64 range: %s", s)
		}
		return Int(i), nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("invalid number %s: %w", s, err)
	}
	return Float(f), nil
}
