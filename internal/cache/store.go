package cache

import (
	"slices"

	"github.com/roach88/prodsys/internal/entity"
)

// Store is an immutable snapshot of one resource slice.
// The zero value is an empty store ready to use.
type Store struct {
	entities map[entity.ID]entity.Record
}

// Empty returns a store with no entries.
func Empty() Store {
	return Store{}
}

// FromRecords builds a store from existing records. Used to seed
// scenarios and to restore checkpoints. Records are copied.
func FromRecords(records map[entity.ID]entity.Record) Store {
	if len(records) == 0 {
		return Store{}
	}
	m := make(map[entity.ID]entity.Record, len(records))
	for id, r := range records {
		m[id] = r.Clone()
	}
	return Store{entities: m}
}

// Len returns the number of ids present.
func (s Store) Len() int {
	return len(s.entities)
}

// Entity returns the record at id. The second result is false when the
// id was never requested or fetched. The returned record must be treated
// as read-only.
func (s Store) Entity(id entity.ID) (entity.Record, bool) {
	r, ok := s.entities[id]
	return r, ok
}

// IDs returns every id present. The order carries no meaning but is
// sorted so that output is stable.
func (s Store) IDs() []entity.ID {
	ids := make([]entity.ID, 0, len(s.entities))
	for id := range s.entities {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Fetching returns the ids with an outstanding load, sorted.
func (s Store) Fetching() []entity.ID {
	var ids []entity.ID
	for id, r := range s.entities {
		if r.Fetching() {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// Records returns a copy of the id to record mapping. Records themselves
// are shared.
func (s Store) Records() map[entity.ID]entity.Record {
	m := make(map[entity.ID]entity.Record, len(s.entities))
	for id, r := range s.entities {
		m[id] = r
	}
	return m
}

// Equal reports whether two stores hold structurally equal records under
// the same ids.
func (s Store) Equal(other Store) bool {
	if len(s.entities) != len(other.entities) {
		return false
	}
	for id, r := range s.entities {
		o, ok := other.entities[id]
		if !ok || !r.Equal(o) {
			return false
		}
	}
	return true
}

// Equal reports whether a and b are structurally equal.
func Equal(a, b Store) bool {
	return a.Equal(b)
}

// Snapshot returns the canonical JSON form of the store.
func (s Store) Snapshot() ([]byte, error) {
	return entity.MarshalCanonical(s.Object())
}

// Object renders the store as a nested value keyed by id, for canonical
// serialization, golden files and checkpoints.
func (s Store) Object() entity.Object {
	obj := make(entity.Object, len(s.entities))
	for id, r := range s.entities {
		obj[string(id)] = r.Object()
	}
	return obj
}

// Hash returns the content hash of the store's canonical form.
func (s Store) Hash() (string, error) {
	return entity.Hash(entity.DomainStore, s.Object())
}

// StoreFromObject is the inverse of Object.
func StoreFromObject(obj entity.Object) (Store, bool) {
	m := make(map[entity.ID]entity.Record, len(obj))
	for k, v := range obj {
		rec, ok := v.(entity.Object)
		if !ok {
			return Store{}, false
		}
		m[entity.ID(k)] = entity.Record(rec)
	}
	if len(m) == 0 {
		return Store{}, true
	}
	return Store{entities: m}, true
}

// update returns a new store with the given records replaced. The outer
// map is copied; records not in changes are shared.
func (s Store) update(changes map[entity.ID]entity.Record) Store {
	if len(changes) == 0 {
		return s
	}
	m := make(map[entity.ID]entity.Record, len(s.entities)+len(changes))
	for id, r := range s.entities {
		m[id] = r
	}
	for id, r := range changes {
		m[id] = r
	}
	return Store{entities: m}
}
