package testutil

import (
	"context"
	"sync"

	"github.com/roach88/prodsys/internal/action"
	"github.com/roach88/prodsys/internal/entity"
	"github.com/roach88/prodsys/internal/transport"
)

// EchoTransport answers every request with one FetchedMany whose records
// carry the requested id and a title derived from it ("story 12").
//
// Thread-safety: Handle may be called from many goroutines.
type EchoTransport struct {
	mu       sync.Mutex
	requests []action.Action
}

// Handle implements transport.Collaborator.
func (t *EchoTransport) Handle(_ context.Context, req action.Action, d transport.Dispatcher) {
	t.mu.Lock()
	t.requests = append(t.requests, req)
	t.mu.Unlock()

	results := make([]entity.Record, 0, len(req.Targets()))
	for _, id := range req.Targets() {
		results = append(results, EchoRecord(id))
	}
	d.Dispatch(action.NewFetchedMany(req.Resource(), results))
}

// Requests returns a copy of the requests seen so far, in arrival order.
func (t *EchoTransport) Requests() []action.Action {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]action.Action(nil), t.requests...)
}

// EchoRecord is the record EchoTransport returns for id.
func EchoRecord(id entity.ID) entity.Record {
	return entity.Record{
		"id":    id.Value(),
		"title": entity.String("story " + string(id)),
	}
}

var _ transport.Collaborator = (*EchoTransport)(nil)
