package action

import (
	"fmt"
	"strings"

	"github.com/roach88/prodsys/internal/entity"
)

// Kind discriminates the four actions the reducer understands.
type Kind string

const (
	KindRequestOne  Kind = "ENTITY_REQUESTED"
	KindRequestMany Kind = "ENTITIES_REQUESTED"
	KindFetchedMany Kind = "ENTITIES_FETCHED"
	KindFetchedOne  Kind = "ENTITY_FETCHED"
)

// Known reports whether k is one of the four reducer kinds.
func (k Kind) Known() bool {
	switch k {
	case KindRequestOne, KindRequestMany, KindFetchedMany, KindFetchedOne:
		return true
	}
	return false
}

// IsRequest reports whether k expresses intent to load.
func (k Kind) IsRequest() bool {
	return k == KindRequestOne || k == KindRequestMany
}

// Action is one event delivered to the cache.
type Action struct {
	// Type is "<resource>/<KIND>". Types outside the vocabulary are legal
	// and leave every slice unchanged.
	Type    string
	Payload Payload
}

// Payload carries the kind-specific fields. Unused fields stay zero.
type Payload struct {
	// ID addresses RequestOne and FetchedOne.
	ID entity.ID
	// Prefetch is advisory for the transport; the reducer ignores it.
	Prefetch bool
	// IDs addresses RequestMany.
	IDs []entity.ID
	// Results holds FetchedMany records; each carries its own id field.
	Results []entity.Record
	// Fields holds the partial record merged by FetchedOne.
	Fields entity.Record
}

// TypeOf builds the type string for a resource and kind.
func TypeOf(res Resource, kind Kind) string {
	return string(res) + "/" + string(kind)
}

// Resource returns the slice the action is addressed to.
func (a Action) Resource() Resource {
	res, _, _ := strings.Cut(a.Type, "/")
	return Resource(res)
}

// Kind returns the kind part of the type string.
func (a Action) Kind() Kind {
	_, kind, _ := strings.Cut(a.Type, "/")
	return Kind(kind)
}

// Targets returns the ids the action touches, in payload order.
// FetchedMany results without a usable id are skipped.
func (a Action) Targets() []entity.ID {
	switch a.Kind() {
	case KindRequestOne, KindFetchedOne:
		return []entity.ID{a.Payload.ID}
	case KindRequestMany:
		return append([]entity.ID(nil), a.Payload.IDs...)
	case KindFetchedMany:
		ids := make([]entity.ID, 0, len(a.Payload.Results))
		for _, r := range a.Payload.Results {
			if id, ok := r.ID(); ok {
				ids = append(ids, id)
			}
		}
		return ids
	}
	return nil
}

func (a Action) String() string {
	switch a.Kind() {
	case KindRequestOne, KindFetchedOne:
		return fmt.Sprintf("%s(%s)", a.Type, a.Payload.ID)
	case KindRequestMany:
		return fmt.Sprintf("%s(%d ids)", a.Type, len(a.Payload.IDs))
	case KindFetchedMany:
		return fmt.Sprintf("%s(%d results)", a.Type, len(a.Payload.Results))
	}
	return a.Type
}

// NewRequestOne creates the intent to load a single entity.
func NewRequestOne(res Resource, id entity.ID, prefetch bool) Action {
	return Action{
		Type:    TypeOf(res, KindRequestOne),
		Payload: Payload{ID: id, Prefetch: prefetch},
	}
}

// NewRequestMany creates the intent to load a batch. An empty batch is
// valid and a no-op for the reducer.
func NewRequestMany(res Resource, ids []entity.ID) Action {
	return Action{
		Type:    TypeOf(res, KindRequestMany),
		Payload: Payload{IDs: append([]entity.ID(nil), ids...)},
	}
}

// NewFetchedMany creates a batch completion. Every result must carry an
// id field; Validate reports results that do not.
func NewFetchedMany(res Resource, results []entity.Record) Action {
	copied := make([]entity.Record, len(results))
	for i, r := range results {
		copied[i] = r.Clone()
	}
	return Action{
		Type:    TypeOf(res, KindFetchedMany),
		Payload: Payload{Results: copied},
	}
}

// NewFetchedOne creates a single completion. The payload need not repeat
// the id.
func NewFetchedOne(res Resource, id entity.ID, fields entity.Record) Action {
	return Action{
		Type:    TypeOf(res, KindFetchedOne),
		Payload: Payload{ID: id, Fields: fields.Clone()},
	}
}
