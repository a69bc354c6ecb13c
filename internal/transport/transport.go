// Package transport defines the collaborator that turns request actions
// into network calls and reports their outcome back as fetched actions.
//
// The cache never waits on I/O itself. It records intent (fetching=true)
// when a request action is applied and completion (fetching=false) when
// the matching fetched action arrives. Everything in between, including
// retries, backoff and de-duplication of in-flight calls, belongs here.
//
// Contract: for every id named by a RequestOne or RequestMany handed to
// Handle, the collaborator eventually dispatches a FetchedOne or
// FetchedMany for that id, success or not. Failures are encoded as an
// httpStatus field in the payload; the cache stores it as ordinary data.
package transport

import (
	"context"

	"github.com/roach88/prodsys/internal/action"
)

// Dispatcher accepts actions for the cache.
// Dispatch returns false when the cache no longer accepts actions.
type Dispatcher interface {
	Dispatch(a action.Action) bool
}

// DispatchFunc adapts a function to Dispatcher.
type DispatchFunc func(a action.Action) bool

// Dispatch calls f(a).
func (f DispatchFunc) Dispatch(a action.Action) bool {
	return f(a)
}

// Collaborator performs the I/O behind request actions.
//
// Handle is called once per applied RequestOne or RequestMany, on its
// own goroutine. It may block until the network call finishes and must
// honour ctx cancellation.
type Collaborator interface {
	Handle(ctx context.Context, req action.Action, d Dispatcher)
}
