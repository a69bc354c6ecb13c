package engine

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/metric"

	"github.com/roach88/prodsys/internal/action"
	"github.com/roach88/prodsys/internal/entity"
	"github.com/roach88/prodsys/internal/state"
	"github.com/roach88/prodsys/internal/transport"
)

// ActionLog receives every applied action with its sequence number.
// Implemented by store.Store.
type ActionLog interface {
	AppendAction(ctx context.Context, seq int64, a action.Action) error
}

// Engine is the single-writer host of the state tree.
//
// Thread-safety model:
//   - Dispatch, State, Wait: safe from any goroutine
//   - Run: must be called from exactly one goroutine
type Engine struct {
	clock     *Clock
	queue     *actionQueue
	log       ActionLog
	transport transport.Collaborator
	metrics   *engineMetrics

	current atomic.Pointer[state.Tree]

	// changed is closed and replaced every time a new tree is published.
	changedMu sync.Mutex
	changed   chan struct{}

	inflight sync.WaitGroup
}

// Option configures an Engine.
type Option func(*Engine)

// WithActionLog persists every applied action.
func WithActionLog(l ActionLog) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithTransport forwards request actions to c.
func WithTransport(c transport.Collaborator) Option {
	return func(e *Engine) {
		e.transport = c
	}
}

// WithClock resumes sequence numbering from an existing clock.
func WithClock(c *Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithState starts from a previously built tree, e.g. a replayed log.
func WithState(t state.Tree) Option {
	return func(e *Engine) {
		e.current.Store(&t)
	}
}

// WithMeter records engine counters on meter.
func WithMeter(meter metric.Meter) Option {
	return func(e *Engine) {
		m, err := newEngineMetrics(meter)
		if err != nil {
			slog.Warn("engine metrics disabled", "error", err)
			return
		}
		e.metrics = m
	}
}

// New creates an engine with an empty tree unless WithState is given.
func New(opts ...Option) *Engine {
	e := &Engine{
		clock:   NewClock(),
		queue:   newActionQueue(),
		metrics: noopEngineMetrics(),
		changed: make(chan struct{}),
	}
	empty := state.New()
	e.current.Store(&empty)

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Dispatch submits an action. Returns false once the engine has stopped.
func (e *Engine) Dispatch(a action.Action) bool {
	return e.queue.Enqueue(a)
}

// State returns the latest published tree.
func (e *Engine) State() state.Tree {
	return *e.current.Load()
}

// Seq returns the sequence number of the last applied action.
func (e *Engine) Seq() int64 {
	return e.clock.Current()
}

// QueueLen returns the number of actions waiting to be applied.
func (e *Engine) QueueLen() int {
	return e.queue.Len()
}

// Run applies queued actions until ctx is cancelled or Stop is called.
// Forwarded transport calls are waited for before Run returns.
//
// A failing action log write is logged and the action is dropped, so the
// log and the published state never diverge.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine starting", "seq", e.clock.Current())
	defer e.inflight.Wait()

	for {
		a, ok := e.queue.TryDequeue()
		if ok {
			e.apply(ctx, a)
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("engine stopping: context cancelled")
			e.queue.Close()
			return ctx.Err()

		case <-e.queue.Wait():
			if e.queue.Len() == 0 && e.isClosed() {
				slog.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue. Run drains what is already queued and returns.
func (e *Engine) Stop() {
	e.queue.Close()
}

func (e *Engine) isClosed() bool {
	e.queue.mu.Lock()
	defer e.queue.mu.Unlock()
	return e.queue.closed
}

// apply runs on the Run goroutine only.
func (e *Engine) apply(ctx context.Context, a action.Action) {
	seq := e.clock.Next()

	if e.log != nil {
		if err := e.log.AppendAction(ctx, seq, a); err != nil {
			slog.Error("action log append failed",
				"seq", seq,
				"type", a.Type,
				"targets", a.Targets(),
				"error", err,
			)
			e.metrics.recordFailed(ctx, a)
			return
		}
	}

	next := state.Reduce(e.State(), a)
	e.publish(next)
	e.metrics.recordApplied(ctx, a)

	slog.Debug("action applied",
		"seq", seq,
		"type", a.Type,
		"targets", a.Targets(),
	)

	if e.transport != nil && a.Kind().IsRequest() {
		e.forward(ctx, a)
	}
}

func (e *Engine) forward(ctx context.Context, a action.Action) {
	e.metrics.recordForwarded(ctx, a)
	if a.Payload.Prefetch {
		slog.Debug("forwarding prefetch request", "type", a.Type, "id", a.Payload.ID)
	}

	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		e.transport.Handle(ctx, a, e)
	}()
}

func (e *Engine) publish(t state.Tree) {
	e.current.Store(&t)

	e.changedMu.Lock()
	close(e.changed)
	e.changed = make(chan struct{})
	e.changedMu.Unlock()
}

func (e *Engine) changes() <-chan struct{} {
	e.changedMu.Lock()
	defer e.changedMu.Unlock()
	return e.changed
}

// Wait blocks until every id in ids is present in the res slice and no
// longer fetching, or ctx ends. Ids never requested count as pending.
func (e *Engine) Wait(ctx context.Context, res action.Resource, ids ...entity.ID) error {
	for {
		ch := e.changes()
		if e.settled(res, ids) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}
	}
}

func (e *Engine) settled(res action.Resource, ids []entity.ID) bool {
	slice := e.State().Slice(res)
	return !slices.ContainsFunc(ids, func(id entity.ID) bool {
		rec, ok := slice.Entity(id)
		return !ok || rec.Fetching()
	})
}
