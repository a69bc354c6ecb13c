package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/prodsys/internal/action"
	"github.com/roach88/prodsys/internal/cache"
)

// LoggedAction is one row of the action log.
type LoggedAction struct {
	ID     string
	Seq    int64
	Action action.Action
}

// Snapshot is a stored checkpoint of one resource slice.
type Snapshot struct {
	Resource action.Resource
	Seq      int64
	Hash     string
	Slice    cache.Store
}

// ReadActions returns the actions logged for res with seq > afterSeq,
// ordered by seq.
func (s *Store) ReadActions(ctx context.Context, res action.Resource, afterSeq int64) ([]LoggedAction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, body FROM actions
		WHERE resource = ? AND seq > ?
		ORDER BY seq ASC
	`, string(res), afterSeq)
	if err != nil {
		return nil, fmt.Errorf("read actions %s: %w", res, err)
	}
	defer rows.Close()

	return scanActions(rows)
}

// ReadAllActions returns the whole log ordered by seq.
func (s *Store) ReadAllActions(ctx context.Context) ([]LoggedAction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, body FROM actions
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("read all actions: %w", err)
	}
	defer rows.Close()

	return scanActions(rows)
}

func scanActions(rows *sql.Rows) ([]LoggedAction, error) {
	out := []LoggedAction{}
	for rows.Next() {
		var (
			la   LoggedAction
			body string
		)
		if err := rows.Scan(&la.ID, &la.Seq, &body); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		a, err := unmarshalAction(body)
		if err != nil {
			return nil, fmt.Errorf("action seq=%d: %w", la.Seq, err)
		}
		la.Action = a
		out = append(out, la)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate actions: %w", err)
	}
	return out, nil
}

// LastSeq returns the highest seq in the log, or 0 when it is empty.
// Used to resume the engine clock.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM actions`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}

// Resources lists every resource with logged actions or snapshots, sorted.
func (s *Store) Resources(ctx context.Context) ([]action.Resource, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT resource FROM actions
		UNION
		SELECT resource FROM snapshots
		ORDER BY resource
	`)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	defer rows.Close()

	out := []action.Resource{}
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		out = append(out, action.Resource(r))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resources: %w", err)
	}
	return out, nil
}

// LatestSnapshot returns the newest checkpoint for res. The second result
// is false when none exists. A checkpoint whose body no longer matches its
// hash is an error.
func (s *Store) LatestSnapshot(ctx context.Context, res action.Resource) (Snapshot, bool, error) {
	var body string
	snap := Snapshot{Resource: res}

	err := s.db.QueryRowContext(ctx, `
		SELECT seq, hash, body FROM snapshots
		WHERE resource = ?
		ORDER BY seq DESC
		LIMIT 1
	`, string(res)).Scan(&snap.Seq, &snap.Hash, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("latest snapshot %s: %w", res, err)
	}

	slice, err := unmarshalSlice(body, snap.Hash)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("latest snapshot %s seq=%d: %w", res, snap.Seq, err)
	}
	snap.Slice = slice
	return snap, true, nil
}
