package cli

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/roach88/prodsys/internal/action"
	"github.com/roach88/prodsys/internal/cache"
	"github.com/roach88/prodsys/internal/engine"
	"github.com/roach88/prodsys/internal/entity"
	"github.com/roach88/prodsys/internal/store"
)

func openStore(path string) (*store.Store, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func parseResource(raw string) (action.Resource, error) {
	res, err := action.ParseResource(raw)
	if err != nil {
		return "", WrapExitError(ExitCommandError, "invalid --resource", err)
	}
	return res, nil
}

// resumeEngine builds an engine whose state and clock continue where the
// action log left off.
func resumeEngine(ctx context.Context, st *store.Store, opts ...engine.Option) (*engine.Engine, error) {
	tree, _, err := st.ReplayTree(ctx)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to replay action log", err)
	}
	last, err := st.LastSeq(ctx)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read action log", err)
	}

	base := []engine.Option{
		engine.WithActionLog(st),
		engine.WithState(tree),
		engine.WithClock(engine.NewClockAt(last)),
	}
	return engine.New(append(base, opts...)...), nil
}

// EntitiesOutput lists records of one slice.
type EntitiesOutput struct {
	Resource action.Resource          `json:"resource"`
	Entities map[string]entity.Record `json:"entities"`
	Absent   []entity.ID              `json:"absent,omitempty"`
}

// collectEntities selects ids from slice, or every id when ids is empty.
func collectEntities(res action.Resource, slice cache.Store, ids []entity.ID) EntitiesOutput {
	if len(ids) == 0 {
		ids = slice.IDs()
	}
	out := EntitiesOutput{
		Resource: res,
		Entities: make(map[string]entity.Record, len(ids)),
	}
	for _, id := range ids {
		rec, ok := slice.Entity(id)
		if !ok {
			out.Absent = append(out.Absent, id)
			continue
		}
		out.Entities[string(id)] = rec
	}
	return out
}

// writeEntitiesText prints one line per id: the id and the canonical JSON
// of its record.
func writeEntitiesText(w io.Writer, out EntitiesOutput, order []entity.ID) error {
	if len(order) == 0 {
		order = make([]entity.ID, 0, len(out.Entities))
		for id := range out.Entities {
			order = append(order, entity.ID(id))
		}
		slices.Sort(order)
	}
	if len(order) == 0 {
		fmt.Fprintf(w, "No %s in cache.\n", out.Resource)
		return nil
	}

	for _, id := range order {
		rec, ok := out.Entities[string(id)]
		if !ok {
			fmt.Fprintf(w, "%s\t(absent)\n", id)
			continue
		}
		data, err := entity.MarshalRecord(rec)
		if err != nil {
			return fmt.Errorf("render %s %s: %w", out.Resource, id, err)
		}
		fmt.Fprintf(w, "%s\t%s\n", id, data)
	}
	return nil
}
