package entity

// Reserved field names.
const (
	FieldID         = "id"
	FieldFetching   = "fetching"
	FieldHTTPStatus = "httpStatus"
)

// Record is one cached entity: API fields plus the reserved cache fields.
//
// Records are treated as immutable values. Merge and With return new
// records and leave the receiver untouched.
type Record map[string]Value

// Get returns the value stored under key.
func (r Record) Get(key string) (Value, bool) {
	v, ok := r[key]
	return v, ok
}

// ID returns the key carried in the record's own id field.
// A placeholder created by a request has no id field.
func (r Record) ID() (ID, bool) {
	v, ok := r[FieldID]
	if !ok {
		return "", false
	}
	return IDOf(v)
}

// HasID reports whether the record has been populated by a fetch that
// carried an id field.
func (r Record) HasID() bool {
	_, ok := r.ID()
	return ok
}

// Fetching reports whether a load is outstanding for the record.
func (r Record) Fetching() bool {
	b, ok := r[FieldFetching].(Bool)
	return ok && bool(b)
}

// HTTPStatus returns the last observed transport status, if any.
func (r Record) HTTPStatus() (int, bool) {
	switch v := r[FieldHTTPStatus].(type) {
	case Int:
		return int(v), true
	case Float:
		return int(v), true
	}
	return 0, false
}

// Merge returns a new record holding r's fields overwritten by payload's.
// Fields absent from payload survive. A nil receiver behaves as empty.
func (r Record) Merge(payload Record) Record {
	out := make(Record, len(r)+len(payload))
	for k, v := range r {
		out[k] = v
	}
	for k, v := range payload {
		out[k] = v
	}
	return out
}

// With returns a copy of r with key set to v.
func (r Record) With(key string, v Value) Record {
	return r.Merge(Record{key: v})
}

// Clone returns a shallow copy. Nested values are shared, which is safe
// because values are never mutated in place.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return r.Merge(nil)
}

// Equal reports structural equality.
func (r Record) Equal(other Record) bool {
	return mapsEqual(r, other)
}

// Fields returns the field names in canonical order.
func (r Record) Fields() []string {
	return sortedKeys(r)
}

// Object views the record as a nested Value.
func (r Record) Object() Object {
	return Object(r)
}
