package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/prodsys/internal/action"
	"github.com/roach88/prodsys/internal/entity"
)

// createTestStore opens a fresh database under t.TempDir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// appendAll logs actions from seq 1.
func appendAll(t *testing.T, s *Store, actions ...action.Action) {
	t.Helper()
	ctx := context.Background()
	for i, a := range actions {
		require.NoError(t, s.AppendAction(ctx, int64(i+1), a))
	}
}

func story(id int64, title string) entity.Record {
	return entity.Record{"id": entity.Int(id), "title": entity.String(title)}
}
