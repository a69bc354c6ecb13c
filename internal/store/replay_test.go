package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/prodsys/internal/action"
	"github.com/roach88/prodsys/internal/cache"
	"github.com/roach88/prodsys/internal/entity"
	"github.com/roach88/prodsys/internal/state"
)

func storyLog() []action.Action {
	return []action.Action{
		action.NewRequestMany(action.Stories, []entity.ID{"1", "2", "3"}),
		action.NewFetchedMany(action.Stories, []entity.Record{story(1, "a"), story(2, "b")}),
		action.NewRequestOne(action.Photos, "9", false),
		action.NewFetchedOne(action.Stories, "3", entity.Record{"httpStatus": entity.Int(404)}),
		action.NewRequestOne(action.Stories, "4", false),
	}
}

func TestReplay_MatchesReducer(t *testing.T) {
	s := createTestStore(t)
	log := storyLog()
	appendAll(t, s, log...)

	slice, stats, err := s.Replay(context.Background(), action.Stories)
	require.NoError(t, err)

	want := cache.ForResource(action.Stories).ReduceAll(cache.Empty(), log)
	assert.True(t, slice.Equal(want))

	assert.Equal(t, 4, stats.Actions)
	assert.Equal(t, int64(5), stats.LastSeq)
	assert.Equal(t, 4, stats.Entities)
	assert.Equal(t, 1, stats.Fetching)
	assert.Zero(t, stats.SnapshotSeq)

	wantHash, err := want.Hash()
	require.NoError(t, err)
	assert.Equal(t, wantHash, stats.Hash)
}

func TestReplay_Deterministic(t *testing.T) {
	s := createTestStore(t)
	appendAll(t, s, storyLog()...)
	ctx := context.Background()

	_, first, err := s.Replay(ctx, action.Stories)
	require.NoError(t, err)
	_, second, err := s.Replay(ctx, action.Stories)
	require.NoError(t, err)

	assert.Equal(t, first.Hash, second.Hash)
}

func TestReplay_FromSnapshot(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	log := storyLog()
	appendAll(t, s, log[:2]...)

	slice, stats, err := s.Replay(ctx, action.Stories)
	require.NoError(t, err)
	_, err = s.WriteSnapshot(ctx, action.Stories, stats.LastSeq, slice)
	require.NoError(t, err)

	for i, a := range log[2:] {
		require.NoError(t, s.AppendAction(ctx, int64(i+3), a))
	}

	resumed, stats, err := s.Replay(ctx, action.Stories)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.SnapshotSeq)
	assert.Equal(t, 2, stats.Actions, "only actions after the snapshot are folded")

	full := cache.ForResource(action.Stories).ReduceAll(cache.Empty(), log)
	assert.True(t, resumed.Equal(full))
}

func TestReplay_EmptyLog(t *testing.T) {
	s := createTestStore(t)

	slice, stats, err := s.Replay(context.Background(), action.Issues)
	require.NoError(t, err)
	assert.Zero(t, slice.Len())
	assert.Zero(t, stats.Actions)
	assert.NotEmpty(t, stats.Hash)
}

func TestReplayTree(t *testing.T) {
	s := createTestStore(t)
	log := append(storyLog(), action.Action{Type: "bogus/ENTITY_REQUESTED", Payload: action.Payload{ID: "1"}})
	appendAll(t, s, log...)

	tree, stats, err := s.ReplayTree(context.Background())
	require.NoError(t, err)

	assert.True(t, tree.Equal(state.ReduceAll(state.New(), log)))
	require.Len(t, stats, 2)
	assert.Equal(t, action.Photos, stats[0].Resource)
	assert.Equal(t, action.Stories, stats[1].Resource)
}
