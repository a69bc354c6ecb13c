package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/prodsys/internal/action"
	"github.com/roach88/prodsys/internal/entity"
)

func TestReadActions_FiltersByResourceInSeqOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	appendAll(t, s,
		action.NewRequestOne(action.Stories, "1", false),
		action.NewRequestOne(action.Photos, "7", false),
		action.NewFetchedOne(action.Stories, "1", story(1, "a")),
		action.NewRequestOne(action.Stories, "2", true),
	)

	got, err := s.ReadActions(ctx, action.Stories, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int64{1, 3, 4}, []int64{got[0].Seq, got[1].Seq, got[2].Seq})
	assert.True(t, got[2].Action.Payload.Prefetch)

	after, err := s.ReadActions(ctx, action.Stories, 3)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, entity.ID("2"), after[0].Action.Payload.ID)
}

func TestReadActions_Empty(t *testing.T) {
	s := createTestStore(t)

	got, err := s.ReadActions(context.Background(), action.Issues, 0)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLastSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seq, err := s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)

	appendAll(t, s,
		action.NewRequestOne(action.Stories, "1", false),
		action.NewRequestOne(action.Stories, "2", false),
	)

	seq, err = s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), seq)
}

func TestResources(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	appendAll(t, s,
		action.NewRequestOne(action.Stories, "1", false),
		action.NewRequestOne(action.Contributors, "1", false),
		action.NewRequestOne(action.Stories, "2", false),
	)

	got, err := s.Resources(ctx)
	require.NoError(t, err)
	assert.Equal(t, []action.Resource{action.Contributors, action.Stories}, got)
}
