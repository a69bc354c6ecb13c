// Package state combines the per-resource cache slices into the single
// state tree owned by the hosting application.
package state

import (
	"fmt"
	"slices"

	"github.com/roach88/prodsys/internal/action"
	"github.com/roach88/prodsys/internal/cache"
	"github.com/roach88/prodsys/internal/entity"
)

// Tree is an immutable mapping from resource to its cache slice.
// The zero value is an empty tree.
type Tree struct {
	slices map[action.Resource]cache.Store
}

// New returns an empty tree.
func New() Tree {
	return Tree{}
}

// Slice returns the store of one resource. Untouched resources return an
// empty store.
func (t Tree) Slice(res action.Resource) cache.Store {
	return t.slices[res]
}

// WithSlice returns a tree with res replaced by s.
func (t Tree) WithSlice(res action.Resource, s cache.Store) Tree {
	m := make(map[action.Resource]cache.Store, len(t.slices)+1)
	for r, st := range t.slices {
		m[r] = st
	}
	m[res] = s
	return Tree{slices: m}
}

// Resources returns the resources with a slice, sorted.
func (t Tree) Resources() []action.Resource {
	out := make([]action.Resource, 0, len(t.slices))
	for r := range t.slices {
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}

// Reduce routes a to the slice it addresses. Other slices are shared with
// the previous tree. Unknown kinds and resources outside KnownResources
// leave the tree unchanged.
func Reduce(t Tree, a action.Action) Tree {
	if !a.Kind().Known() {
		return t
	}
	res, err := action.ParseResource(string(a.Resource()))
	if err != nil {
		return t
	}
	return t.WithSlice(res, cache.ForResource(res).Reduce(t.slices[res], a))
}

// ReduceAll folds actions over t in order.
func ReduceAll(t Tree, actions []action.Action) Tree {
	for _, a := range actions {
		t = Reduce(t, a)
	}
	return t
}

// Entity is a convenience selector across slices.
func (t Tree) Entity(res action.Resource, id entity.ID) (entity.Record, bool) {
	return t.slices[res].Entity(id)
}

// Equal reports structural equality of every slice. A missing slice
// equals an empty one.
func (t Tree) Equal(other Tree) bool {
	for _, r := range t.Resources() {
		if !t.slices[r].Equal(other.slices[r]) {
			return false
		}
	}
	for _, r := range other.Resources() {
		if !other.slices[r].Equal(t.slices[r]) {
			return false
		}
	}
	return true
}

// Object renders the non-empty slices keyed by resource name.
func (t Tree) Object() entity.Object {
	obj := make(entity.Object, len(t.slices))
	for r, s := range t.slices {
		if s.Len() == 0 {
			continue
		}
		obj[string(r)] = s.Object()
	}
	return obj
}

// Hash returns the content hash of the whole tree.
func (t Tree) Hash() (string, error) {
	h, err := entity.Hash(entity.DomainStore, t.Object())
	if err != nil {
		return "", fmt.Errorf("hash state tree: %w", err)
	}
	return h, nil
}
