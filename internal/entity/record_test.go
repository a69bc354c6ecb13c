package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordMerge_PayloadWins(t *testing.T) {
	base := Record{"id": Int(1), "title": String("A"), "fetching": Bool(false)}
	merged := base.Merge(Record{"title": String("B")})

	assert.Equal(t, Record{"id": Int(1), "title": String("B"), "fetching": Bool(false)}, merged)
}

func TestRecordMerge_DoesNotMutateReceiver(t *testing.T) {
	base := Record{"title": String("A")}
	_ = base.Merge(Record{"title": String("B"), "lede": String("x")})

	assert.Equal(t, Record{"title": String("A")}, base)
}

func TestRecordMerge_NilReceiver(t *testing.T) {
	var base Record
	merged := base.Merge(Record{"fetching": Bool(true)})

	assert.Equal(t, Record{"fetching": Bool(true)}, merged)
}

func TestRecordReservedFields(t *testing.T) {
	r := Record{"fetching": Bool(true)}
	assert.True(t, r.Fetching())
	_, ok := r.HTTPStatus()
	assert.False(t, ok)
	assert.False(t, r.HasID())

	r = r.With(FieldHTTPStatus, Int(404)).With(FieldFetching, Bool(false))
	status, ok := r.HTTPStatus()
	require.True(t, ok)
	assert.Equal(t, 404, status)
	assert.False(t, r.Fetching())
}

func TestRecordID(t *testing.T) {
	id, ok := Record{"id": Int(42)}.ID()
	require.True(t, ok)
	assert.Equal(t, ID("42"), id)

	id, ok = Record{"id": String("abc")}.ID()
	require.True(t, ok)
	assert.Equal(t, ID("abc"), id)

	_, ok = Record{"id": Bool(true)}.ID()
	assert.False(t, ok)
}

func TestIDNormalization(t *testing.T) {
	assert.Equal(t, IntID(5), StringID("5"))
	assert.Equal(t, Int(5), IntID(5).Value())
	assert.Equal(t, String("05"), StringID("05").Value())
	assert.Equal(t, String("slug"), StringID("slug").Value())

	assert.Equal(t, []ID{"1", "2"}, ParseIDs([]string{"1", "", "2"}))
}

func TestRecordEqual(t *testing.T) {
	a := Record{"crop_box": Object{"left": Float(0.1), "top": Int(0)}, "tags": Array{String("x")}}
	b := Record{"crop_box": Object{"left": Float(0.1), "top": Int(0)}, "tags": Array{String("x")}}
	c := Record{"crop_box": Object{"left": Float(0.2), "top": Int(0)}, "tags": Array{String("x")}}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, Equal(Int(1), Float(1)))
}

func TestRecordFields(t *testing.T) {
	r := Record{"title": String("x"), "id": Int(1), "fetching": Bool(false)}
	assert.Equal(t, []string{"fetching", "id", "title"}, r.Fields())
}
