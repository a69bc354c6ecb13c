package action

import (
	"fmt"

	"github.com/roach88/prodsys/internal/entity"
)

// Object returns the canonical structured form of the action, used for
// the action log and for content hashing. Empty payload fields are
// omitted.
func (a Action) Object() entity.Object {
	p := entity.Object{}
	if a.Payload.ID != "" {
		p["id"] = a.Payload.ID.Value()
	}
	if a.Payload.Prefetch {
		p["prefetch"] = entity.Bool(true)
	}
	if a.Payload.IDs != nil {
		ids := make(entity.Array, len(a.Payload.IDs))
		for i, id := range a.Payload.IDs {
			ids[i] = id.Value()
		}
		p["ids"] = ids
	}
	if a.Payload.Results != nil {
		results := make(entity.Array, len(a.Payload.Results))
		for i, r := range a.Payload.Results {
			results[i] = r.Object()
		}
		p["results"] = results
	}
	if a.Payload.Fields != nil {
		p["fields"] = a.Payload.Fields.Object()
	}
	return entity.Object{
		"type":    entity.String(a.Type),
		"payload": p,
	}
}

// FromObject rebuilds an action from its canonical form.
func FromObject(obj entity.Object) (Action, error) {
	typ, ok := obj["type"].(entity.String)
	if !ok {
		return Action{}, fmt.Errorf("action: missing or non-string type")
	}
	a := Action{Type: string(typ)}

	p, ok := obj["payload"].(entity.Object)
	if !ok {
		return a, nil
	}
	if v, ok := p["id"]; ok {
		id, ok := entity.IDOf(v)
		if !ok {
			return Action{}, fmt.Errorf("action %s: payload.id is not a string or integer", a.Type)
		}
		a.Payload.ID = id
	}
	if b, ok := p["prefetch"].(entity.Bool); ok {
		a.Payload.Prefetch = bool(b)
	}
	if arr, ok := p["ids"].(entity.Array); ok {
		a.Payload.IDs = make([]entity.ID, len(arr))
		for i, v := range arr {
			id, ok := entity.IDOf(v)
			if !ok {
				return Action{}, fmt.Errorf("action %s: payload.ids[%d] is not a string or integer", a.Type, i)
			}
			a.Payload.IDs[i] = id
		}
	}
	if arr, ok := p["results"].(entity.Array); ok {
		a.Payload.Results = make([]entity.Record, len(arr))
		for i, v := range arr {
			r, ok := v.(entity.Object)
			if !ok {
				return Action{}, fmt.Errorf("action %s: payload.results[%d] is not an object", a.Type, i)
			}
			a.Payload.Results[i] = entity.Record(r)
		}
	}
	if f, ok := p["fields"].(entity.Object); ok {
		a.Payload.Fields = entity.Record(f)
	}
	return a, nil
}

// Marshal returns the canonical JSON of the action.
func Marshal(a Action) ([]byte, error) {
	data, err := entity.MarshalCanonical(a.Object())
	if err != nil {
		return nil, fmt.Errorf("marshal action %s: %w", a.Type, err)
	}
	return data, nil
}

// Unmarshal parses canonical (or any) JSON into an action.
func Unmarshal(data []byte) (Action, error) {
	v, err := entity.DecodeValue(data)
	if err != nil {
		return Action{}, fmt.Errorf("unmarshal action: %w", err)
	}
	obj, ok := v.(entity.Object)
	if !ok {
		return Action{}, fmt.Errorf("unmarshal action: expected JSON object")
	}
	return FromObject(obj)
}

// LogID computes the content-addressed id of an action applied at seq.
// The sequence number is part of the identity so that legitimately
// repeated actions (a re-request) get distinct log entries.
func LogID(seq int64, a Action) (string, error) {
	h, err := entity.Hash(entity.DomainAction, entity.Object{
		"seq":    entity.Int(seq),
		"action": a.Object(),
	})
	if err != nil {
		return "", fmt.Errorf("action log id: %w", err)
	}
	return h, nil
}
