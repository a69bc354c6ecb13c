package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/prodsys/internal/cache"
	"github.com/roach88/prodsys/internal/entity"
)

// AssertionError describes one failed expectation.
type AssertionError struct {
	Type     string
	ID       entity.ID
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "%s", e.Type)
	if e.ID != "" {
		fmt.Fprintf(&buf, " [id %s]", e.ID)
	}
	fmt.Fprintf(&buf, ": expected %s, got %s", e.Expected, e.Actual)
	return buf.String()
}

// evaluate checks every expectation of s against final and returns the
// failure messages in a stable order.
func evaluate(final cache.Store, s *Scenario) []string {
	var errs []error
	exp := s.Expect

	if exp.IDs != nil {
		errs = append(errs, assertIDs(final, exp.IDs))
	}
	for _, id := range exp.Fetching {
		errs = append(errs, assertFetching(final, id, true))
	}
	for _, id := range exp.Settled {
		errs = append(errs, assertFetching(final, id, false))
	}
	for _, id := range exp.Absent {
		if _, ok := final.Entity(id); ok {
			errs = append(errs, &AssertionError{Type: "absent", ID: id, Expected: "no entry", Actual: "present"})
		}
	}
	for _, key := range sortedKeys(exp.Entities) {
		errs = append(errs, assertEntity(final, entity.ID(key), exp.Entities[key]))
	}
	for _, key := range sortedKeys(exp.Missing) {
		errs = append(errs, assertMissing(final, entity.ID(key), exp.Missing[key]))
	}
	for _, d := range s.Derived {
		errs = append(errs, assertDerived(final, d))
	}

	var out []string
	for _, err := range errs {
		if err != nil {
			out = append(out, err.Error())
		}
	}
	return out
}

func assertIDs(final cache.Store, want []entity.ID) error {
	want = slices.Clone(want)
	slices.Sort(want)
	got := final.IDs()
	if !slices.Equal(got, want) {
		return &AssertionError{Type: "ids", Expected: fmt.Sprint(want), Actual: fmt.Sprint(got)}
	}
	return nil
}

func assertFetching(final cache.Store, id entity.ID, want bool) error {
	typ := "settled"
	if want {
		typ = "fetching"
	}
	rec, ok := final.Entity(id)
	if !ok {
		return &AssertionError{Type: typ, ID: id, Expected: "entry", Actual: "absent"}
	}
	if rec.Fetching() != want {
		return &AssertionError{Type: typ, ID: id, Expected: fmt.Sprintf("fetching=%t", want), Actual: fmt.Sprintf("fetching=%t", rec.Fetching())}
	}
	return nil
}

// assertEntity checks a field subset.
func assertEntity(final cache.Store, id entity.ID, fields map[string]any) error {
	rec, ok := final.Entity(id)
	if !ok {
		return &AssertionError{Type: "entity", ID: id, Expected: "entry", Actual: "absent"}
	}

	want, err := entity.RecordFromMap(fields)
	if err != nil {
		return fmt.Errorf("entity [id %s]: bad expectation: %w", id, err)
	}

	for _, key := range want.Fields() {
		got, ok := rec.Get(key)
		if !ok {
			return &AssertionError{Type: "entity", ID: id, Expected: fmt.Sprintf("field %q", key), Actual: "missing"}
		}
		if !entity.Equal(got, want[key]) {
			return &AssertionError{
				Type:     "entity",
				ID:       id,
				Expected: fmt.Sprintf("%s=%s", key, render(want[key])),
				Actual:   fmt.Sprintf("%s=%s", key, render(got)),
			}
		}
	}
	return nil
}

func assertMissing(final cache.Store, id entity.ID, fields []string) error {
	rec, ok := final.Entity(id)
	if !ok {
		return &AssertionError{Type: "missing", ID: id, Expected: "entry", Actual: "absent"}
	}
	for _, key := range fields {
		if v, ok := rec.Get(key); ok {
			return &AssertionError{Type: "missing", ID: id, Expected: fmt.Sprintf("no field %q", key), Actual: render(v)}
		}
	}
	return nil
}

// assertDerived runs DeriveView with a pass-through transform; the real
// transform belongs to the caller.
func assertDerived(final cache.Store, d DerivedCheck) error {
	view := cache.DeriveView(final, d.ID, func(r entity.Record) entity.Record { return r })

	if d.Found != nil && view.Found != *d.Found {
		return &AssertionError{Type: "derived", ID: d.ID, Expected: fmt.Sprintf("found=%t", *d.Found), Actual: fmt.Sprintf("found=%t", view.Found)}
	}
	if view.Ready != d.Ready {
		return &AssertionError{Type: "derived", ID: d.ID, Expected: fmt.Sprintf("ready=%t", d.Ready), Actual: fmt.Sprintf("ready=%t", view.Ready)}
	}
	if view.Ready && !view.Derived.Equal(view.Raw) {
		return &AssertionError{Type: "derived", ID: d.ID, Expected: "transform of stored record", Actual: render(view.Derived.Object())}
	}
	return nil
}

func render(v entity.Value) string {
	data, err := entity.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
