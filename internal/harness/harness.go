package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/go-cmp/cmp"

	"github.com/roach88/prodsys/internal/action"
	"github.com/roach88/prodsys/internal/cache"
	"github.com/roach88/prodsys/internal/engine"
	"github.com/roach88/prodsys/internal/state"
	"github.com/roach88/prodsys/internal/store"
)

// Harness runs one scenario.
type Harness struct {
	scenario *Scenario
	resource action.Resource
	logger   *slog.Logger
}

// Run executes a scenario and returns the result. An error means the
// scenario could not be executed; failed expectations are reported in
// Result.Errors.
//
// Execution flow:
//  1. Build the seed store and convert steps to actions
//  2. Reduce step by step, recording the trace
//  3. Run the same actions through an engine logging to an in-memory store
//  4. Replay the log from the seed snapshot
//  5. Require all three final stores to agree, then evaluate expectations
func Run(scenario *Scenario) (*Result, error) {
	h := &Harness{
		scenario: scenario,
		resource: action.Resource(scenario.Resource),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return h.run(context.Background())
}

func (h *Harness) run(ctx context.Context) (*Result, error) {
	seed, err := h.scenario.seedStore()
	if err != nil {
		return nil, err
	}

	actions, err := h.scenario.actions()
	if err != nil {
		return nil, fmt.Errorf("convert steps: %w", err)
	}

	result := NewResult()
	final, err := h.reduceSteps(seed, actions, result)
	if err != nil {
		return nil, err
	}
	result.Final = final

	live, replayed, err := h.runLogged(ctx, seed, actions)
	if err != nil {
		return nil, err
	}
	if !live.Equal(final) {
		result.AddError("engine state differs from step-wise reduction (-want +got):\n" + storeDiff(final, live))
	}
	if !replayed.Equal(final) {
		result.AddError("replayed log differs from step-wise reduction (-want +got):\n" + storeDiff(final, replayed))
	}

	for _, msg := range evaluate(final, h.scenario) {
		result.AddError(msg)
	}

	return result, nil
}

func storeDiff(want, got cache.Store) string {
	return cmp.Diff(want.Object(), got.Object())
}

// reduceSteps applies every action, tracing each step and checking that
// the input store is left untouched.
func (h *Harness) reduceSteps(seed cache.Store, actions []action.Action, result *Result) (cache.Store, error) {
	reducer := cache.ForResource(h.resource)
	current := seed

	for i, a := range actions {
		before, err := current.Hash()
		if err != nil {
			return cache.Store{}, fmt.Errorf("step %d: %w", i, err)
		}

		next := reducer.Reduce(current, a)

		after, err := current.Hash()
		if err != nil {
			return cache.Store{}, fmt.Errorf("step %d: %w", i, err)
		}
		if before != after {
			result.AddError(fmt.Sprintf("step %d (%s) mutated its input store", i, a.Type))
		}

		hash, err := next.Hash()
		if err != nil {
			return cache.Store{}, fmt.Errorf("step %d: %w", i, err)
		}

		result.Trace = append(result.Trace, TraceEvent{
			Seq:      int64(i + 1),
			Type:     a.Type,
			Targets:  a.Targets(),
			Fetching: next.Fetching(),
			Entities: next.Len(),
			Hash:     hash,
		})

		h.logger.Debug("step applied", "step", i, "type", a.Type, "entities", next.Len())
		current = next
	}

	return current, nil
}

// runLogged feeds the actions through an engine that appends to a fresh
// in-memory store, then replays that store.
func (h *Harness) runLogged(ctx context.Context, seed cache.Store, actions []action.Action) (live, replayed cache.Store, err error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return cache.Store{}, cache.Store{}, fmt.Errorf("create in-memory store: %w", err)
	}
	defer st.Close()

	if _, err := st.WriteSnapshot(ctx, h.resource, 0, seed); err != nil {
		return cache.Store{}, cache.Store{}, err
	}

	eng := engine.New(
		engine.WithActionLog(st),
		engine.WithState(state.New().WithSlice(h.resource, seed)),
	)
	for _, a := range actions {
		eng.Dispatch(a)
	}
	eng.Stop()
	if err := eng.Run(ctx); err != nil {
		return cache.Store{}, cache.Store{}, fmt.Errorf("engine: %w", err)
	}

	replayed, _, err = st.Replay(ctx, h.resource)
	if err != nil {
		return cache.Store{}, cache.Store{}, err
	}

	return eng.State().Slice(h.resource), replayed, nil
}
