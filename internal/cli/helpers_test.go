package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/prodsys/internal/store"
)

const storiesEvents = `resource: stories
steps:
  - kind: request_many
    ids: [1, 2]
  - kind: fetched_many
    results:
      - { id: 1, title: "First" }
`

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// seededDB returns a database holding the actions of storiesEvents.
func seededDB(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	events := writeFile(t, dir, "events.yaml", storiesEvents)

	_, err := execute(t, "apply", "--db", dbPath, "--file", events)
	require.NoError(t, err)
	return dbPath
}

func lastSeq(t *testing.T, dbPath string) int64 {
	t.Helper()
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	seq, err := st.LastSeq(context.Background())
	require.NoError(t, err)
	return seq
}
