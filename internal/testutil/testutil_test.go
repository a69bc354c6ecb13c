package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/prodsys/internal/action"
	"github.com/roach88/prodsys/internal/entity"
	"github.com/roach88/prodsys/internal/transport"
)

func TestEchoTransport_AnswersEveryTarget(t *testing.T) {
	tr := &EchoTransport{}
	var got []action.Action
	d := transport.DispatchFunc(func(a action.Action) bool {
		got = append(got, a)
		return true
	})

	req := action.NewRequestMany("photos", []entity.ID{"3", "4"})
	tr.Handle(context.Background(), req, d)

	require.Len(t, got, 1)
	assert.Equal(t, action.KindFetchedMany, got[0].Kind())
	assert.Equal(t, action.Resource("photos"), got[0].Resource())
	assert.Equal(t, []entity.Record{EchoRecord("3"), EchoRecord("4")}, got[0].Payload.Results)
	assert.Equal(t, []action.Action{req}, tr.Requests())
}

func TestEchoRecord(t *testing.T) {
	rec := EchoRecord("12")
	id, ok := rec.ID()
	require.True(t, ok)
	assert.Equal(t, entity.ID("12"), id)
	assert.Equal(t, entity.Int(12), rec["id"])
	assert.Equal(t, entity.String("story 12"), rec["title"])
}

func TestEchoTransport_ConcurrentHandle(t *testing.T) {
	tr := &EchoTransport{}
	d := transport.DispatchFunc(func(action.Action) bool { return true })

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Handle(context.Background(), action.NewRequestOne("stories", entity.IntID(int64(i)), false), d)
		}()
	}
	wg.Wait()

	assert.Len(t, tr.Requests(), 10)
}

func TestMemoryLog(t *testing.T) {
	l := &MemoryLog{}
	ctx := context.Background()
	a := action.NewRequestOne("stories", "1", false)

	require.NoError(t, l.AppendAction(ctx, 1, a))
	require.NoError(t, l.AppendAction(ctx, 2, a))
	assert.Equal(t, []int64{1, 2}, l.Seqs())
	assert.Len(t, l.Actions(), 2)

	l.Fail()
	assert.ErrorIs(t, l.AppendAction(ctx, 3, a), ErrLogFull)
	assert.Equal(t, []int64{1, 2}, l.Seqs())
}
