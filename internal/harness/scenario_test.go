package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/prodsys/internal/entity"
)

func TestParseScenario_Valid(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: minimal
description: "one request"
resource: stories
seed:
  "1": { id: 1, title: "Seeded" }
steps:
  - kind: request_one
    id: 2
expect:
  fetching: [2]
derived:
  - id: 1
    ready: true
`))
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	assert.Equal(t, "stories", s.Resource)
	require.Len(t, s.Steps, 1)
	assert.Equal(t, entity.ID("2"), s.Steps[0].ID)
	assert.Equal(t, []entity.ID{"2"}, s.Expect.Fetching)
	require.Len(t, s.Derived, 1)
	assert.Nil(t, s.Derived[0].Found)

	seed, err := s.seedStore()
	require.NoError(t, err)
	rec, ok := seed.Entity("1")
	require.True(t, ok)
	assert.Equal(t, entity.String("Seeded"), rec["title"])
}

func TestParseScenario_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: "description: d\nresource: stories\nsteps: [{kind: request_one, id: 1}]\n",
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: "name: n\nresource: stories\nsteps: [{kind: request_one, id: 1}]\n",
			want: "description is required",
		},
		{
			name: "unknown resource",
			yaml: "name: n\ndescription: d\nresource: videos\nsteps: [{kind: request_one, id: 1}]\n",
			want: "resource",
		},
		{
			name: "no steps",
			yaml: "name: n\ndescription: d\nresource: stories\n",
			want: "steps list is required",
		},
		{
			name: "bad kind",
			yaml: "name: n\ndescription: d\nresource: stories\nsteps: [{kind: delete, id: 1}]\n",
			want: "steps[0]",
		},
		{
			name: "unknown field",
			yaml: "name: n\ndescription: d\nresource: stories\nstep: []\n",
			want: "parse YAML",
		},
		{
			name: "derived without id",
			yaml: "name: n\ndescription: d\nresource: stories\nsteps: [{kind: request_one, id: 1}]\nderived: [{ready: true}]\n",
			want: "derived[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseScenario_ReportsEveryProblem(t *testing.T) {
	_, err := ParseScenario([]byte("resource: videos\nsteps: [{kind: delete}]\n"))
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "4 errors occurred")
	assert.Contains(t, msg, "name is required")
	assert.Contains(t, msg, "description is required")
	assert.Contains(t, msg, "resource")
	assert.Contains(t, msg, "steps[0]")
}

func TestLoadScenario_AllTestdata(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		s, err := LoadScenario(path)
		require.NoError(t, err, path)
		assert.Equal(t, s.Name, trimExt(filepath.Base(path)), "scenario name should match file name")
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
