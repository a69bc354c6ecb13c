package cache

import (
	"github.com/roach88/prodsys/internal/action"
	"github.com/roach88/prodsys/internal/entity"
)

const statusOK = 200

var (
	markFetching = entity.Record{entity.FieldFetching: entity.Bool(true)}
	markFetched  = entity.Record{entity.FieldFetching: entity.Bool(false)}
	markBatchOK  = entity.Record{
		entity.FieldHTTPStatus: entity.Int(statusOK),
		entity.FieldFetching:   entity.Bool(false),
	}
)

// Reduce applies one action to a store by kind alone, without looking at
// the resource part of the type. Unknown kinds return s unchanged.
func Reduce(s Store, a action.Action) Store {
	switch a.Kind() {
	case action.KindRequestOne:
		return requestOne(s, a.Payload.ID)
	case action.KindRequestMany:
		return requestMany(s, a.Payload.IDs)
	case action.KindFetchedMany:
		return fetchedMany(s, a.Payload.Results)
	case action.KindFetchedOne:
		return fetchedOne(s, a.Payload.ID, a.Payload.Fields)
	default:
		return s
	}
}

// Reducer is the slice reducer of one resource. Actions addressed to any
// other resource are identity.
type Reducer struct {
	Resource action.Resource
}

// ForResource returns the slice reducer for res.
func ForResource(res action.Resource) Reducer {
	return Reducer{Resource: res}
}

// Reduce applies a to s when a is addressed to r's resource.
func (r Reducer) Reduce(s Store, a action.Action) Store {
	if a.Resource() != r.Resource {
		return s
	}
	return Reduce(s, a)
}

// ReduceAll folds actions over s in order.
func (r Reducer) ReduceAll(s Store, actions []action.Action) Store {
	for _, a := range actions {
		s = r.Reduce(s, a)
	}
	return s
}

func requestOne(s Store, id entity.ID) Store {
	prev := s.entities[id]
	return s.update(map[entity.ID]entity.Record{id: prev.Merge(markFetching)})
}

// requestMany marks every id fetching. Duplicates collapse; order is
// irrelevant.
func requestMany(s Store, ids []entity.ID) Store {
	if len(ids) == 0 {
		return s
	}
	changes := make(map[entity.ID]entity.Record, len(ids))
	for _, id := range ids {
		changes[id] = s.entities[id].Merge(markFetching)
	}
	return s.update(changes)
}

// fetchedMany indexes results by their own id field and replaces the
// record at each returned id with the result plus httpStatus 200 and
// fetching false. Fields of the prior record are not kept: a stale error
// from an earlier failed fetch must not survive a successful batch. A
// later result with the same id wins. Results without a usable id are a
// caller contract violation and are skipped.
func fetchedMany(s Store, results []entity.Record) Store {
	if len(results) == 0 {
		return s
	}
	index := make(map[entity.ID]entity.Record, len(results))
	for _, r := range results {
		id, ok := r.ID()
		if !ok {
			continue
		}
		index[id] = r
	}

	changes := make(map[entity.ID]entity.Record, len(index))
	for id, r := range index {
		changes[id] = r.Merge(markBatchOK)
	}
	return s.update(changes)
}

// fetchedOne merges the payload and clears the loading flag. The id is
// not written into the record: the payload decides whether it has one.
func fetchedOne(s Store, id entity.ID, fields entity.Record) Store {
	prev := s.entities[id]
	return s.update(map[entity.ID]entity.Record{id: prev.Merge(fields).Merge(markFetched)})
}
