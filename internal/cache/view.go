package cache

import (
	"github.com/roach88/prodsys/internal/entity"
)

// View is the result of DeriveView.
type View[T any] struct {
	// Raw is the record as stored: the fetched record, a {fetching: true}
	// placeholder, or nil when Found is false.
	Raw entity.Record
	// Found reports whether the id is present in the store.
	Found bool
	// Derived holds the transform output when Ready is true.
	Derived T
	// Ready reports whether the record had an id field and the transform
	// ran.
	Ready bool
}

// DeriveView applies fn to the record at id once it has actually been
// fetched, meaning it carries an id field. fn derives a secondary
// structure such as the node tree built from a story's flat body markup;
// it must be pure. Placeholders and absent ids come back raw with Ready
// false. fn receives a copy of the record; the store is never modified.
func DeriveView[T any](s Store, id entity.ID, fn func(entity.Record) T) View[T] {
	rec, ok := s.Entity(id)
	if !ok {
		return View[T]{}
	}
	view := View[T]{Raw: rec, Found: true}
	if !rec.HasID() {
		return view
	}
	view.Derived = fn(rec.Clone())
	view.Ready = true
	return view
}
