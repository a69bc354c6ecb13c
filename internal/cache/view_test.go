package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/prodsys/internal/action"
	"github.com/roach88/prodsys/internal/entity"
)

type node struct {
	Tag      string
	Children []string
}

func titleTree(r entity.Record) node {
	title, _ := r["title"].(entity.String)
	return node{Tag: "story", Children: []string{string(title)}}
}

func TestDeriveView_PlaceholderReturnedRaw(t *testing.T) {
	s := stories.Reduce(Empty(), action.NewRequestOne(action.Stories, "1", false))

	view := DeriveView(s, "1", titleTree)

	assert.True(t, view.Found)
	assert.False(t, view.Ready)
	assert.Equal(t, entity.Record{"fetching": entity.Bool(true)}, view.Raw)
	assert.Equal(t, node{}, view.Derived)
}

func TestDeriveView_AppliesOnceFetched(t *testing.T) {
	s := stories.Reduce(Empty(), action.NewRequestOne(action.Stories, "1", false))
	s = stories.Reduce(s, action.NewFetchedMany(action.Stories, []entity.Record{
		{"id": entity.Int(1), "title": entity.String("Leder")},
	}))

	view := DeriveView(s, "1", titleTree)

	require.True(t, view.Ready)
	assert.Equal(t, node{Tag: "story", Children: []string{"Leder"}}, view.Derived)
}

func TestDeriveView_AbsentID(t *testing.T) {
	view := DeriveView(Empty(), "404", titleTree)

	assert.False(t, view.Found)
	assert.False(t, view.Ready)
	assert.Nil(t, view.Raw)
}

func TestDeriveView_FetchedWithoutIDStaysRaw(t *testing.T) {
	s := stories.Reduce(Empty(), action.NewFetchedOne(action.Stories, "1", entity.Record{"httpStatus": entity.Int(500)}))

	view := DeriveView(s, "1", titleTree)

	assert.True(t, view.Found)
	assert.False(t, view.Ready)
}

func TestDeriveView_DoesNotMutateStore(t *testing.T) {
	s := seed(map[entity.ID]entity.Record{"1": {"id": entity.Int(1), "title": entity.String("A")}})
	before := s.Object()

	DeriveView(s, "1", func(r entity.Record) int {
		r["title"] = entity.String("vandalized")
		return len(r)
	})

	assert.Equal(t, before, s.Object())
}
