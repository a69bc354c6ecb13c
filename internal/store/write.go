package store

import (
	"context"
	"fmt"

	"github.com/roach88/prodsys/internal/action"
	"github.com/roach88/prodsys/internal/cache"
)

// AppendAction records a applied at seq. It satisfies engine.ActionLog.
//
// ON CONFLICT(id) DO NOTHING makes a repeated append of the same (seq,
// action) a no-op. A different action at an existing seq violates the
// UNIQUE(seq) constraint and is returned as an error.
func (s *Store) AppendAction(ctx context.Context, seq int64, a action.Action) error {
	if seq <= 0 {
		return fmt.Errorf("append action: seq must be positive, got %d", seq)
	}

	id, err := action.LogID(seq, a)
	if err != nil {
		return fmt.Errorf("append action: %w", err)
	}

	body, err := marshalAction(a)
	if err != nil {
		return fmt.Errorf("append action: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO actions (id, seq, resource, type, body)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		id,
		seq,
		string(a.Resource()),
		a.Type,
		body,
	)
	if err != nil {
		return fmt.Errorf("append action seq=%d: %w", seq, err)
	}

	return nil
}

// AppendActions appends a batch in one transaction, numbering them from
// firstSeq. Returns the last seq written.
//
// Either every action is written or none is: a failure part way rolls
// the whole batch back. An empty batch writes nothing and returns
// firstSeq-1.
func (s *Store) AppendActions(ctx context.Context, firstSeq int64, actions []action.Action) (int64, error) {
	if len(actions) == 0 {
		return firstSeq - 1, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("append actions: begin tx: %w", err)
	}
	defer tx.Rollback()

	seq := firstSeq
	for _, a := range actions {
		id, err := action.LogID(seq, a)
		if err != nil {
			return 0, fmt.Errorf("append actions: %w", err)
		}
		body, err := marshalAction(a)
		if err != nil {
			return 0, fmt.Errorf("append actions: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO actions (id, seq, resource, type, body)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING
		`, id, seq, string(a.Resource()), a.Type, body)
		if err != nil {
			return 0, fmt.Errorf("append actions seq=%d: %w", seq, err)
		}
		seq++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("append actions: commit: %w", err)
	}

	return seq - 1, nil
}

// WriteSnapshot checkpoints the slice for res as of seq. Writing the same
// checkpoint twice is a no-op.
func (s *Store) WriteSnapshot(ctx context.Context, res action.Resource, seq int64, slice cache.Store) (string, error) {
	body, hash, err := marshalSlice(slice)
	if err != nil {
		return "", fmt.Errorf("write snapshot %s: %w", res, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (resource, seq, hash, body)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(resource, seq) DO UPDATE SET hash = excluded.hash, body = excluded.body
	`, string(res), seq, hash, body)
	if err != nil {
		return "", fmt.Errorf("write snapshot %s seq=%d: %w", res, seq, err)
	}

	return hash, nil
}
